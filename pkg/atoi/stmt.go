package atoi

import (
	"fmt"
	"sort"

	"github.com/Fancyflame/mcsh/pkg/ast"
	"github.com/Fancyflame/mcsh/pkg/ir"
)

// loopPoints names the labels `break`/`continue` jump to inside the
// nearest enclosing loop.
type loopPoints struct {
	continueLabel ir.Label
	breakLabel    ir.Label
}

// workflow is the in-progress state of lowering one basic block: the
// block under construction (nil once a terminating statement has closed
// it, after which any further sibling statements are unreachable and
// skipped), the enclosing loop's break/continue targets, and the
// per-function register counter (spec.md §4.R).
type workflow struct {
	cur         *ir.LabelInfo
	loop        *loopPoints
	cacheOffset uint32
}

func (wf *workflow) emit(i ir.Instruction) {
	wf.cur.Instructions = append(wf.cur.Instructions, i)
}

// lowerBlock lowers a statement sequence into wf's current block,
// introducing a new binding scope; lowering stops early once a statement
// closes the block (return/break/continue).
func (a *Atoi) lowerBlock(stmts []ast.Stmt, wf *workflow) error {
	a.bindings.Delimit()
	defer a.bindings.PopBlock()
	a.funcs.Delimit()
	defer a.funcs.PopBlock()
	for _, stmt := range stmts {
		if wf.cur == nil {
			break
		}
		if err := a.lowerStmt(stmt, wf); err != nil {
			return err
		}
	}
	return nil
}

// lowerArm lowers one branch of an if/match into its own label, ending
// with a Call back to branchEnd unless the arm already closed its own
// block (e.g. via an explicit return). It starts from a fresh copy of
// wf's register counter so register usage inside the arm never leaks back
// to the caller.
func (a *Atoi) lowerArm(stmts []ast.Stmt, branchEnd ir.Label, wf *workflow) (ir.Label, error) {
	label := a.freshLabel()
	info := &ir.LabelInfo{
		Label:        label,
		Instructions: []ir.Instruction{ir.Assign{Dst: ir.RegCondEnable, Value: 0}},
	}
	armWF := &workflow{cur: info, loop: wf.loop, cacheOffset: wf.cacheOffset}
	if err := a.lowerBlock(stmts, armWF); err != nil {
		return ir.Label{}, err
	}
	if armWF.cur != nil {
		armWF.cur.Instructions = append(armWF.cur.Instructions, ir.Call{Label: branchEnd})
		if err := a.labelMap.InsertLabel(armWF.cur); err != nil {
			return ir.Label{}, err
		}
	}
	return label, nil
}

func (a *Atoi) lowerStmt(stmt ast.Stmt, wf *workflow) error {
	switch s := stmt.(type) {
	case *ast.Block:
		return a.lowerBlock(s.Stmts, wf)

	case *ast.Assign:
		return a.lowerAssign(s, wf)

	case *ast.ExprStmt:
		if _, err := a.lowerExprAtNextReg(wf, s.Expr); err != nil {
			return err
		}
		wf.cacheOffset--
		return nil

	case *ast.Yield:
		return fmt.Errorf("`yield` is not supported")

	case *ast.Break:
		if wf.loop == nil {
			return fmt.Errorf("`break` can only be used inside a loop")
		}
		wf.emit(ir.Call{Label: wf.loop.breakLabel})
		info := wf.cur
		wf.cur = nil
		return a.labelMap.InsertLabel(info)

	case *ast.Continue:
		if wf.loop == nil {
			return fmt.Errorf("`continue` can only be used inside a loop")
		}
		wf.emit(ir.Call{Label: wf.loop.continueLabel})
		info := wf.cur
		wf.cur = nil
		return a.labelMap.InsertLabel(info)

	case *ast.Return:
		info := wf.cur
		wf.cur = nil
		if s.Expr != nil {
			if err := a.lowerExpr(s.Expr, &info.Instructions, ir.RegReturnedValue, wf.cacheOffset); err != nil {
				return err
			}
		}
		info.Instructions = append(info.Instructions, ir.Operation{Dst: ir.RegCurrentMemOffset, Opr: ir.OpSet, Src: ir.RegParentMemOffset})
		return a.labelMap.InsertLabel(info)

	case *ast.Swap:
		lhs, err := a.findVariable(s.Lhs)
		if err != nil {
			return err
		}
		rhs, err := a.findVariable(s.Rhs)
		if err != nil {
			return err
		}
		wf.emit(ir.Operation{Dst: lhs, Opr: ir.OpSwp, Src: rhs})
		return nil

	case *ast.Debugger:
		wf.emit(ir.SimulationAbort{})
		return nil

	case *ast.If:
		return a.lowerIf(s, wf)

	case *ast.While:
		return a.lowerWhile(s, wf)

	case *ast.Match:
		return a.lowerMatch(s, wf)

	case *ast.MacroCallStmt:
		_, err := a.lowerMacroCall(s.Call, wf)
		return err

	case *ast.DefStmt:
		return a.lowerNestedDef(s.Def, wf)

	default:
		return fmt.Errorf("internal error: unknown statement type %T", stmt)
	}
}

func (a *Atoi) lowerAssign(s *ast.Assign, wf *workflow) error {
	if s.IsBind {
		result, err := a.lowerExprAtNextReg(wf, s.Expr)
		if err != nil {
			return err
		}
		a.bindings.Push(s.Name, Binding{Kind: BindCache, Cache: result})
		return nil
	}
	dst, err := a.findVariable(s.Name)
	if err != nil {
		return err
	}
	return a.lowerExpr(s.Expr, &wf.cur.Instructions, dst, wf.cacheOffset)
}

// lowerIf implements the short-circuit REG_COND_ENABLE cascade (spec.md
// §4.R): every arm after the first ANDs its own condition with
// REG_COND_ENABLE so only the first true arm fires, each arm clears
// REG_COND_ENABLE on entry, and a trailing Cond against REG_COND_ENABLE
// dispatches to the (possibly empty) else arm.
func (a *Atoi) lowerIf(s *ast.If, wf *workflow) error {
	wf.emit(ir.Assign{Dst: ir.RegCondEnable, Value: 1})
	branchEnd := a.freshLabel()

	for i, arm := range s.Arms {
		cond, err := a.lowerExprAtNextReg(wf, arm.Cond)
		if err != nil {
			return err
		}
		if i > 0 {
			cond2 := ir.RegularTag(getAnonymousID(&wf.cacheOffset))
			wf.emit(ir.BoolOperation{Dst: cond2, Lhs: cond, Opr: ir.BoolAnd, Rhs: ir.CacheTagRhs(ir.RegCondEnable)})
			cond = cond2
		}
		armLabel, err := a.lowerArm(arm.Body, branchEnd, wf)
		if err != nil {
			return err
		}
		wf.emit(ir.Cond{Positive: true, Cond: cond, Then: armLabel})
	}

	defaultLabel, err := a.lowerArm(s.Default, branchEnd, wf)
	if err != nil {
		return err
	}
	wf.emit(ir.Cond{Positive: true, Cond: ir.RegCondEnable, Then: defaultLabel})

	finished := wf.cur
	wf.cur = &ir.LabelInfo{Label: branchEnd}
	return a.labelMap.InsertLabel(finished)
}

func (a *Atoi) lowerWhile(s *ast.While, wf *workflow) error {
	loopEndLabel := a.freshLabel()
	loopEndInfo := &ir.LabelInfo{
		Label:        loopEndLabel,
		Instructions: []ir.Instruction{ir.Assign{Dst: ir.RegCondEnable, Value: 0}},
	}
	if err := a.labelMap.InsertLabel(loopEndInfo); err != nil {
		return err
	}

	condLabel := a.freshLabel()
	bodyLabel := a.freshLabel()
	wf.emit(ir.Call{Label: condLabel})

	condInfo := &ir.LabelInfo{Label: condLabel}
	condCacheOffset := wf.cacheOffset
	exprResult, err := a.lowerExprAtNextRegWithCounter(s.Cond, &condInfo.Instructions, &condCacheOffset)
	if err != nil {
		return err
	}
	condInfo.Instructions = append(condInfo.Instructions, ir.Cond{Positive: true, Cond: exprResult, Then: bodyLabel})

	bodyWF := &workflow{
		cur:         &ir.LabelInfo{Label: bodyLabel},
		loop:        &loopPoints{continueLabel: condLabel, breakLabel: loopEndLabel},
		cacheOffset: wf.cacheOffset,
	}
	if err := a.lowerBlock(s.Body, bodyWF); err != nil {
		return err
	}
	if bodyWF.cur != nil {
		bodyWF.cur.Instructions = append(bodyWF.cur.Instructions, ir.Call{Label: condLabel})
		if err := a.labelMap.InsertLabel(bodyWF.cur); err != nil {
			return err
		}
	}
	return a.labelMap.InsertLabel(condInfo)
}

// lowerMatch dispatches on s.Expr's value via a Table instruction,
// rejecting duplicate keys and more than one default arm (spec.md §4.R).
func (a *Atoi) lowerMatch(s *ast.Match, wf *workflow) error {
	cond, err := a.lowerExprAtNextReg(wf, s.Expr)
	if err != nil {
		return err
	}

	continueLabel := a.freshLabel()
	var arms []ir.TableArm
	seenDefault := false
	seenKeys := map[int32]bool{}

	for _, arm := range s.Arms {
		armLabel, err := a.lowerArm(arm.Body, continueLabel, wf)
		if err != nil {
			return err
		}
		if arm.Key == nil {
			if seenDefault {
				return fmt.Errorf("match expression has more than one default arm")
			}
			seenDefault = true
			arms = append(arms, ir.TableArm{Key: nil, Label: armLabel})
			continue
		}
		if seenKeys[*arm.Key] {
			return fmt.Errorf("match expression has a duplicate arm for key %d", *arm.Key)
		}
		seenKeys[*arm.Key] = true
		key := *arm.Key
		arms = append(arms, ir.TableArm{Key: &key, Label: armLabel})
	}

	sort.SliceStable(arms, func(i, j int) bool {
		if arms[i].Key == nil {
			return false
		}
		if arms[j].Key == nil {
			return true
		}
		return *arms[i].Key < *arms[j].Key
	})

	finished := wf.cur
	finished.Instructions = append(finished.Instructions, ir.Table{Cond: cond, SortedArms: arms})
	wf.cur = &ir.LabelInfo{Label: continueLabel}
	return a.labelMap.InsertLabel(finished)
}

// lowerNestedDef handles a definition appearing as a statement inside a
// function body: constants and statics bind immediately into the current
// scope; a nested function gets its own fresh body label and is lowered
// on the spot (it has no forward-reference problem since it can only be
// called by code lexically after it within the same scope).
func (a *Atoi) lowerNestedDef(def ast.Definition, wf *workflow) error {
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
		return nil

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
		return nil

	case *ast.Function:
		if a.funcs.HasSiblingNamesake(d.Name) {
			return fmt.Errorf("function or macro %q has already been defined", d.Name)
		}
		bodyLabel := a.freshLabel()
		a.funcs.Push(d.Name, FuncSig{Label: bodyLabel, Arity: uint32(len(d.Args))})
		return a.lowerFunction(d, bodyLabel)

	default:
		return fmt.Errorf("internal error: unknown definition type %T", def)
	}
}
