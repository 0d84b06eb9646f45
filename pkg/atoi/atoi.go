// Package atoi resolves an MCSH AST (pkg/ast) into an IR LabelMap
// (pkg/ir): scope-aware name binding, register allocation, structured
// control-flow lowering, call lowering, and macro expansion (spec.md §4.R).
// The name mirrors the original compiler's resolver package: Ast TO Ir.
package atoi

import (
	"fmt"

	"github.com/Fancyflame/mcsh/pkg/ast"
	"github.com/Fancyflame/mcsh/pkg/binding"
	"github.com/Fancyflame/mcsh/pkg/ir"
)

// Atoi owns the binding/function stacks, the label map under construction,
// and the monotonic anonymous label/static counters. It is not reused
// across programs; call Compile once per LabelMap.
type Atoi struct {
	bindings *binding.Stack[Binding]
	funcs    *binding.Stack[FuncSig]
	labelMap *ir.LabelMap
	wordWidth uint32

	nextAnonLabel  uint32
	nextAnonStatic uint32
}

// Compile resolves defs into a complete LabelMap sized by memSize (words)
// and wordWidth (registers per word).
func Compile(defs []ast.Definition, memSize, wordWidth uint32) (*ir.LabelMap, error) {
	a := &Atoi{
		bindings:  binding.New[Binding](),
		funcs:     binding.New[FuncSig](),
		labelMap:  ir.NewLabelMap(memSize, wordWidth),
		wordWidth: wordWidth,
	}
	if err := a.collectSignatures(defs); err != nil {
		return nil, err
	}
	for _, def := range defs {
		fn, ok := def.(*ast.Function)
		if !ok {
			continue
		}
		sig, ok := a.funcs.FindNewest(fn.Name)
		if !ok {
			return nil, fmt.Errorf("internal error: function %q missing its phase-1 signature", fn.Name)
		}
		if err := a.lowerFunction(fn, sig.Label); err != nil {
			return nil, err
		}
	}
	return a.labelMap, nil
}

// collectSignatures is phase 1 (spec.md §4.R): constants and statics are
// bound immediately; functions get a pre-allocated body label so that both
// forward and backward calls resolve during phase 2, regardless of which
// function happens to be exported.
func (a *Atoi) collectSignatures(defs []ast.Definition) error {
	for _, def := range defs {
		if err := a.collectOneSignature(def); err != nil {
			return err
		}
	}
	return nil
}

func (a *Atoi) collectOneSignature(def ast.Definition) error {
	switch d := def.(type) {
	case *ast.Constant:
		if a.bindings.HasSiblingNamesake(d.Name) {
			return fmt.Errorf("constant or static %q has already been defined", d.Name)
		}
		value, err := a.evalConstant(d.Expr)
		if err != nil {
			return err
		}
		a.bindings.Push(d.Name, value)

	case *ast.Static:
		if a.bindings.HasSiblingNamesake(d.Name) {
			return fmt.Errorf("constant or static %q has already been defined", d.Name)
		}
		value, err := a.evalConstant(d.Expr)
		if err != nil {
			return err
		}
		if value.Kind != BindConstant {
			return fmt.Errorf("static %q must be initialized with an integer constant", d.Name)
		}
		tag := ir.StaticTag(a.freshStaticID())
		if d.Export {
			tag = ir.StaticExportTag(d.Name)
		}
		if err := a.labelMap.InsertStatic(tag, value.Int); err != nil {
			return err
		}
		a.bindings.Push(d.Name, Binding{Kind: BindCache, Cache: tag})

	case *ast.Function:
		if a.funcs.HasSiblingNamesake(d.Name) {
			return fmt.Errorf("function or macro %q has already been defined", d.Name)
		}
		if d.Export && len(d.Args) != 0 {
			return fmt.Errorf("cannot export function %q because it must take no arguments", d.Name)
		}
		a.funcs.Push(d.Name, FuncSig{Label: a.freshLabel(), Arity: uint32(len(d.Args))})

	default:
		return fmt.Errorf("internal error: unknown definition type %T", def)
	}
	return nil
}

// lowerFunction lowers fn's body into bodyLabel, seeding argument bindings
// at Regular(FrameHeadLength..), and (if exported) installs a Named entry
// stub that resets the frame and calls bodyLabel (spec.md §4.R phase 2).
func (a *Atoi) lowerFunction(fn *ast.Function, bodyLabel ir.Label) error {
	a.bindings.Delimit()
	defer a.bindings.PopBlock()

	if fn.Export {
		entry := &ir.LabelInfo{
			Label: ir.NamedLabel(fn.Name, true),
			Instructions: []ir.Instruction{
				ir.Assign{Dst: ir.RegCurrentMemOffset, Value: 0},
				ir.Assign{Dst: ir.RegParentMemOffset, Value: 0},
				ir.Call{Label: bodyLabel},
			},
		}
		if err := a.labelMap.InsertLabel(entry); err != nil {
			return err
		}
	}

	cacheOffset := ir.FrameHeadLength
	for _, argName := range fn.Args {
		a.bindings.Push(argName, Binding{Kind: BindCache, Cache: ir.RegularTag(cacheOffset)})
		cacheOffset++
	}

	wf := &workflow{cur: &ir.LabelInfo{Label: bodyLabel}, cacheOffset: cacheOffset}
	if err := a.lowerBlock(fn.Body, wf); err != nil {
		return err
	}
	if wf.cur == nil {
		return nil
	}
	// Fall-through past the last statement: default the return value to 0
	// (an explicit `return` already closed the block above and never
	// reaches here) and restore the caller's memory frame.
	wf.cur.Instructions = append(wf.cur.Instructions,
		ir.Assign{Dst: ir.RegReturnedValue, Value: 0},
		ir.Operation{Dst: ir.RegCurrentMemOffset, Opr: ir.OpSet, Src: ir.RegParentMemOffset},
	)
	return a.labelMap.InsertLabel(wf.cur)
}

func (a *Atoi) freshLabel() ir.Label {
	id := a.nextAnonLabel
	a.nextAnonLabel++
	return ir.AnonymousLabel(id)
}

func (a *Atoi) freshStaticID() uint32 {
	id := a.nextAnonStatic
	a.nextAnonStatic++
	return id
}

func getAnonymousID(counter *uint32) uint32 {
	id := *counter
	*counter++
	return id
}

func (a *Atoi) findVariable(name string) (ir.CacheTag, error) {
	bind, ok := a.bindings.FindNewest(name)
	if !ok {
		return ir.CacheTag{}, fmt.Errorf("variable %q not found", name)
	}
	if bind.Kind != BindCache {
		return ir.CacheTag{}, fmt.Errorf("cannot assign a value to constant identifier %q", name)
	}
	return bind.Cache, nil
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return (a + b - 1) / b
}
