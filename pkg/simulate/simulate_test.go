package simulate_test

import (
	"strings"
	"testing"

	"github.com/Fancyflame/mcsh/pkg/atoi"
	"github.com/Fancyflame/mcsh/pkg/ir"
	"github.com/Fancyflame/mcsh/pkg/lexer"
	"github.com/Fancyflame/mcsh/pkg/parser"
	"github.com/Fancyflame/mcsh/pkg/simulate"
)

func compileAndRun(t *testing.T, src, fn string) simulate.Result {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	defs, err := parser.ParseProgram(toks)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	labelMap, err := atoi.Compile(defs, ir.DefaultMemSize, ir.DefaultWordWidth)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return simulate.RunExported(labelMap, fn)
}

// TestSeedScenarios exercises the six seed scenarios from spec.md §8 end to
// end: source -> resolve -> simulate, asserting the returned value.
func TestSeedScenarios(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want int32
	}{
		{
			name: "swap and negative constant",
			src:  `const FOO=-44; export fn test(){ let a=-6; let b=FOO; a><b; return a+b; }`,
			want: -50,
		},
		{
			name: "nested calls",
			src:  `fn add(a,b){return a+b;} export fn test(){ return add(3, add(4,5)); }`,
			want: 12,
		},
		{
			name: "if-else-if cascade twice",
			src: `export fn test(){ let a=0; let b=0; if 1==1 {a=10;} else if 2==2 {a=20;} else {a=30;} ` +
				`if 0 {b=1;} else if 0 {b=2;} else {b=3;} return a+b; }`,
			want: 13,
		},
		{
			name: "while with continue",
			src:  `export fn test(){ let a=0; while a<5 { a=a+1; if a==3 {continue;} } return a; }`,
			want: 5,
		},
		{
			name: "match dispatch",
			src:  `export fn test(){ let x=7; match x { 1 => { return 100; }, 7 => { return 700; }, .. => { return 0; } } return -1; }`,
			want: 700,
		},
		{
			name: "swap then arithmetic",
			src:  `export fn test(){ let a=1; let b=2; a><b; return a*10+b; }`,
			want: 21,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := compileAndRun(t, tc.src, "test")
			if result.Err != nil {
				t.Fatalf("simulation failed: %v\nlog:\n%s", result.Err, result.Log)
			}
			if result.Value != tc.want {
				t.Errorf("got %d, want %d\nlog:\n%s", result.Value, tc.want, result.Log)
			}
		})
	}
}

func TestDivisionByZeroIsARuntimeError(t *testing.T) {
	result := compileAndRun(t, `export fn test(){ let a=1; let b=0; return a/b; }`, "test")
	if result.Err == nil {
		t.Fatalf("expected a division-by-zero error, got value %d", result.Value)
	}
}

func TestSingleArgumentCallRoundTrips(t *testing.T) {
	result := compileAndRun(t, `fn f(a){return a;} export fn test(){ return f(1); }`, "test")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v\nlog:\n%s", result.Err, result.Log)
	}
	if result.Value != 1 {
		t.Errorf("got %d, want 1", result.Value)
	}
}

func TestMinMaxBuiltins(t *testing.T) {
	result := compileAndRun(t, `export fn test(){ return min(3, 7) + max(3, 7); }`, "test")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v\nlog:\n%s", result.Err, result.Log)
	}
	if result.Value != 10 {
		t.Errorf("got %d, want 10", result.Value)
	}
}

func TestRandomWithinBounds(t *testing.T) {
	result := compileAndRun(t, `export fn test(){ return random(5, 5); }`, "test")
	if result.Err != nil {
		t.Fatalf("unexpected error: %v\nlog:\n%s", result.Err, result.Log)
	}
	if result.Value != 5 {
		t.Errorf("got %d, want 5 (degenerate range)", result.Value)
	}
}

func TestDebuggerAbortsSimulation(t *testing.T) {
	result := compileAndRun(t, `export fn test(){ debugger; return 1; }`, "test")
	if result.Err == nil {
		t.Fatalf("expected the debugger statement to abort the simulation")
	}
	if !strings.Contains(result.Log, "simulation abort") {
		t.Errorf("expected log to mention the abort, got: %s", result.Log)
	}
}

// TestTableDuplicateArmRejected exercises pkg/ir's Table instruction
// directly: duplicate keys must be rejected during simulation, mirroring
// original_source/src/ir/simulate/mod.rs's sortedness check.
func TestTableDuplicateArmRejected(t *testing.T) {
	labelMap := ir.NewLabelMap(ir.DefaultMemSize, ir.DefaultWordWidth)
	cond := ir.RegularTag(0)
	leafA := ir.NamedLabel("leafA", false)
	leafB := ir.NamedLabel("leafB", false)

	key1 := int32(1)
	key1Again := int32(1)
	body := &ir.LabelInfo{
		Label: ir.NamedLabel("dup", true),
		Instructions: []ir.Instruction{
			ir.Assign{Dst: cond, Value: 1},
			ir.Table{Cond: cond, SortedArms: []ir.TableArm{
				{Key: &key1, Label: leafA},
				{Key: &key1Again, Label: leafB},
			}},
		},
	}
	if err := labelMap.InsertLabel(body); err != nil {
		t.Fatal(err)
	}
	if err := labelMap.InsertLabel(&ir.LabelInfo{Label: leafA, Instructions: []ir.Instruction{ir.Assign{Dst: ir.RegReturnedValue, Value: 1}}}); err != nil {
		t.Fatal(err)
	}
	if err := labelMap.InsertLabel(&ir.LabelInfo{Label: leafB, Instructions: []ir.Instruction{ir.Assign{Dst: ir.RegReturnedValue, Value: 2}}}); err != nil {
		t.Fatal(err)
	}

	result := simulate.RunExported(labelMap, "dup")
	if result.Err == nil {
		t.Fatalf("expected duplicate table arms to be rejected")
	}
}

func TestTableMultipleDefaultArmsRejected(t *testing.T) {
	labelMap := ir.NewLabelMap(ir.DefaultMemSize, ir.DefaultWordWidth)
	cond := ir.RegularTag(0)
	leafA := ir.NamedLabel("leafA", false)
	leafB := ir.NamedLabel("leafB", false)

	body := &ir.LabelInfo{
		Label: ir.NamedLabel("dup2", true),
		Instructions: []ir.Instruction{
			ir.Assign{Dst: cond, Value: 1},
			ir.Table{Cond: cond, SortedArms: []ir.TableArm{
				{Key: nil, Label: leafA},
				{Key: nil, Label: leafB},
			}},
		},
	}
	if err := labelMap.InsertLabel(body); err != nil {
		t.Fatal(err)
	}
	if err := labelMap.InsertLabel(&ir.LabelInfo{Label: leafA, Instructions: []ir.Instruction{ir.Assign{Dst: ir.RegReturnedValue, Value: 1}}}); err != nil {
		t.Fatal(err)
	}
	if err := labelMap.InsertLabel(&ir.LabelInfo{Label: leafB, Instructions: []ir.Instruction{ir.Assign{Dst: ir.RegReturnedValue, Value: 2}}}); err != nil {
		t.Fatal(err)
	}

	result := simulate.RunExported(labelMap, "dup2")
	if result.Err == nil {
		t.Fatalf("expected more than one default arm to be rejected")
	}
}
