package parser

import (
	"strings"
	"testing"

	"github.com/Fancyflame/mcsh/pkg/ast"
	"github.com/Fancyflame/mcsh/pkg/lexer"
)

func mustParse(t *testing.T, src string) []ast.Definition {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	defs, err := ParseProgram(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return defs
}

func TestParseFunctionSignature(t *testing.T) {
	defs := mustParse(t, `export fn add(a, b) { return a + b; }`)
	if len(defs) != 1 {
		t.Fatalf("got %d definitions, want 1", len(defs))
	}
	fn, ok := defs[0].(*ast.Function)
	if !ok {
		t.Fatalf("definition = %T, want *ast.Function", defs[0])
	}
	if !fn.Export || fn.Name != "add" {
		t.Fatalf("fn = %+v, want export add", fn)
	}
	if len(fn.Args) != 2 || fn.Args[0] != "a" || fn.Args[1] != "b" {
		t.Fatalf("args = %v, want [a b]", fn.Args)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("body = %v, want a single return statement", fn.Body)
	}
	ret, ok := fn.Body[0].(*ast.Return)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.Return", fn.Body[0])
	}
	bin, ok := ret.Expr.(*ast.Binary)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("return expr = %+v, want a + binary", ret.Expr)
	}
}

func TestParseConstAndStatic(t *testing.T) {
	defs := mustParse(t, `const LIMIT = 10; export static counter = 0;`)
	if len(defs) != 2 {
		t.Fatalf("got %d definitions, want 2", len(defs))
	}
	c, ok := defs[0].(*ast.Constant)
	if !ok || c.Name != "LIMIT" {
		t.Fatalf("const = %+v", defs[0])
	}
	s, ok := defs[1].(*ast.Static)
	if !ok || s.Name != "counter" || !s.Export {
		t.Fatalf("static = %+v", defs[1])
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	defs := mustParse(t, `fn f() { return 1 + 2 * 3 == 7 && 1 || 0; }`)
	fn := defs[0].(*ast.Function)
	ret := fn.Body[0].(*ast.Return)
	top, ok := ret.Expr.(*ast.Binary)
	if !ok || top.Op != ast.OpOr {
		t.Fatalf("top-level operator = %+v, want ||", ret.Expr)
	}
	and, ok := top.Lhs.(*ast.Binary)
	if !ok || and.Op != ast.OpAnd {
		t.Fatalf("lhs of || = %+v, want &&", top.Lhs)
	}
	eq, ok := and.Lhs.(*ast.Binary)
	if !ok || eq.Op != ast.OpEq {
		t.Fatalf("lhs of && = %+v, want ==", and.Lhs)
	}
	add, ok := eq.Lhs.(*ast.Binary)
	if !ok || add.Op != ast.OpAdd {
		t.Fatalf("lhs of == = %+v, want +", eq.Lhs)
	}
	mul, ok := add.Rhs.(*ast.Binary)
	if !ok || mul.Op != ast.OpMul {
		t.Fatalf("rhs of + = %+v, want *", add.Rhs)
	}
}

func TestParseUnaryBindsTighterThanBinary(t *testing.T) {
	defs := mustParse(t, `fn f() { return -a + !b; }`)
	fn := defs[0].(*ast.Function)
	ret := fn.Body[0].(*ast.Return)
	add, ok := ret.Expr.(*ast.Binary)
	if !ok || add.Op != ast.OpAdd {
		t.Fatalf("top = %+v, want +", ret.Expr)
	}
	neg, ok := add.Lhs.(*ast.Unary)
	if !ok || neg.Op != ast.UnNeg {
		t.Fatalf("lhs = %+v, want unary -", add.Lhs)
	}
	not, ok := add.Rhs.(*ast.Unary)
	if !ok || not.Op != ast.UnNot {
		t.Fatalf("rhs = %+v, want unary !", add.Rhs)
	}
}

func TestParseIfElseIfElse(t *testing.T) {
	defs := mustParse(t, `
		fn f() {
			if a { return 1; } else if b { return 2; } else { return 3; }
		}`)
	fn := defs[0].(*ast.Function)
	ifStmt, ok := fn.Body[0].(*ast.If)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.If", fn.Body[0])
	}
	if len(ifStmt.Arms) != 2 {
		t.Fatalf("arms = %d, want 2", len(ifStmt.Arms))
	}
	if ifStmt.Default == nil {
		t.Fatal("expected a default (else) arm")
	}
}

func TestParseWhileBreakContinue(t *testing.T) {
	defs := mustParse(t, `
		fn f() {
			while a < 10 {
				if a == 5 { break; }
				continue;
			}
		}`)
	fn := defs[0].(*ast.Function)
	while, ok := fn.Body[0].(*ast.While)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.While", fn.Body[0])
	}
	if len(while.Body) != 2 {
		t.Fatalf("while body = %d stmts, want 2", len(while.Body))
	}
}

func TestParseMatchWithDefault(t *testing.T) {
	defs := mustParse(t, `
		fn f() {
			match x {
				0 => return 1;
				-1 => { return 2; }
				.. => return 3;
			}
		}`)
	fn := defs[0].(*ast.Function)
	m, ok := fn.Body[0].(*ast.Match)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.Match", fn.Body[0])
	}
	if len(m.Arms) != 3 {
		t.Fatalf("arms = %d, want 3", len(m.Arms))
	}
	if m.Arms[0].Key == nil || *m.Arms[0].Key != 0 {
		t.Fatalf("arm[0].Key = %v, want 0", m.Arms[0].Key)
	}
	if m.Arms[1].Key == nil || *m.Arms[1].Key != -1 {
		t.Fatalf("arm[1].Key = %v, want -1", m.Arms[1].Key)
	}
	if m.Arms[2].Key != nil {
		t.Fatalf("arm[2].Key = %v, want nil (default)", m.Arms[2].Key)
	}
}

func TestParseSwapAndReassign(t *testing.T) {
	defs := mustParse(t, `
		fn f() {
			let a = 1;
			let b = 2;
			a >< b;
			a = b;
		}`)
	fn := defs[0].(*ast.Function)
	if _, ok := fn.Body[2].(*ast.Swap); !ok {
		t.Fatalf("body[2] = %T, want *ast.Swap", fn.Body[2])
	}
	assign, ok := fn.Body[3].(*ast.Assign)
	if !ok || assign.IsBind {
		t.Fatalf("body[3] = %+v, want a plain re-assignment", fn.Body[3])
	}
}

func TestParseCallAndMacroCall(t *testing.T) {
	defs := mustParse(t, `
		fn f() {
			let a = add(1, 2);
			print!("@a", "hi {a}");
		}`)
	fn := defs[0].(*ast.Function)
	assign := fn.Body[0].(*ast.Assign)
	call, ok := assign.Expr.(*ast.Call)
	if !ok || call.Name != "add" || len(call.Args) != 2 {
		t.Fatalf("call = %+v", assign.Expr)
	}
	macroStmt, ok := fn.Body[1].(*ast.MacroCallStmt)
	if !ok || macroStmt.Call.Name != "print" {
		t.Fatalf("body[1] = %+v, want print! macro call", fn.Body[1])
	}
}

func TestParseNestedDefinition(t *testing.T) {
	defs := mustParse(t, `
		fn f() {
			const LOCAL = 5;
			return LOCAL;
		}`)
	fn := defs[0].(*ast.Function)
	if _, ok := fn.Body[0].(*ast.DefStmt); !ok {
		t.Fatalf("body[0] = %T, want *ast.DefStmt", fn.Body[0])
	}
}

func TestParseErrorReportsWindow(t *testing.T) {
	toks, err := lexer.Tokenize(`fn f(a b) { return 1; }`)
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	_, err = ParseProgram(toks)
	if err == nil {
		t.Fatal("expected a parse error for a malformed parameter list")
	}
	if !strings.Contains(err.Error(), ">>>>>>") {
		t.Errorf("expected the error to include the token window, got: %v", err)
	}
}
