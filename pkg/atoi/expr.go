package atoi

import (
	"fmt"

	"github.com/Fancyflame/mcsh/pkg/ast"
	"github.com/Fancyflame/mcsh/pkg/ir"
)

// lowerExprAtNextReg allocates a fresh register from wf's per-function
// counter, lowers expr into it, and returns the register (spec.md §4.R
// "Register allocator").
func (a *Atoi) lowerExprAtNextReg(wf *workflow, expr ast.Expr) (ir.CacheTag, error) {
	return a.lowerExprAtNextRegWithCounter(expr, &wf.cur.Instructions, &wf.cacheOffset)
}

func (a *Atoi) lowerExprAtNextRegWithCounter(expr ast.Expr, insts *[]ir.Instruction, cacheOffset *uint32) (ir.CacheTag, error) {
	reg := ir.RegularTag(getAnonymousID(cacheOffset))
	if err := a.lowerExpr(expr, insts, reg, *cacheOffset); err != nil {
		return ir.CacheTag{}, err
	}
	return reg, nil
}

// lowerExpr lowers expr into dst, using cacheOffset (by value: mutations
// are local to this call) as the base for any scratch registers the
// expression's subterms need.
func (a *Atoi) lowerExpr(expr ast.Expr, insts *[]ir.Instruction, dst ir.CacheTag, cacheOffset uint32) error {
	switch e := expr.(type) {
	case *ast.Integer:
		*insts = append(*insts, ir.Assign{Dst: dst, Value: e.Value})
		return nil

	case *ast.Str:
		return fmt.Errorf("a string can only be assigned to a constant")

	case *ast.Var:
		bind, ok := a.bindings.FindNewest(e.Name)
		if !ok {
			return fmt.Errorf("variable %q not found", e.Name)
		}
		switch bind.Kind {
		case BindCache:
			*insts = append(*insts, ir.Operation{Dst: dst, Opr: ir.OpSet, Src: bind.Cache})
		case BindConstant:
			*insts = append(*insts, ir.Assign{Dst: dst, Value: bind.Int})
		case BindString:
			return fmt.Errorf("a string cannot be used in an expression")
		}
		return nil

	case *ast.Binary:
		return a.lowerBinary(e, insts, dst, cacheOffset)

	case *ast.Unary:
		if err := a.lowerExpr(e.Expr, insts, dst, cacheOffset); err != nil {
			return err
		}
		switch e.Op {
		case ast.UnNot:
			*insts = append(*insts, ir.Not{Dst: dst, Src: dst})
		case ast.UnNeg:
			*insts = append(*insts, ir.Operation{Dst: dst, Opr: ir.OpMul, Src: ir.ConstMinusOne})
		default:
			return fmt.Errorf("unrecognized unary operator")
		}
		return nil

	case *ast.Call:
		return a.lowerCall(e, insts, dst, cacheOffset)

	case *ast.MacroCall:
		return a.lowerMacroExpr(e, insts, dst, cacheOffset)

	case *ast.BlockExpr:
		if len(e.Stmts) != 0 {
			return fmt.Errorf("a block expression with statements is not supported outside resolution")
		}
		return a.lowerExpr(e.Ret, insts, dst, cacheOffset)

	default:
		return fmt.Errorf("internal error: unknown expression type %T", expr)
	}
}

func (a *Atoi) lowerBinary(e *ast.Binary, insts *[]ir.Instruction, dst ir.CacheTag, cacheOffset uint32) error {
	if opr, ok := arithOperator(e.Op); ok {
		if err := a.lowerExpr(e.Lhs, insts, dst, cacheOffset); err != nil {
			return err
		}
		rhs, err := a.lowerExprAtNextRegWithCounter(e.Rhs, insts, &cacheOffset)
		if err != nil {
			return err
		}
		*insts = append(*insts, ir.Operation{Dst: dst, Opr: opr, Src: rhs})
		return nil
	}

	opr, ok := boolOperator(e.Op)
	if !ok {
		return fmt.Errorf("unrecognized binary operator %q", e.Op)
	}
	lhs, err := a.lowerExprAtNextRegWithCounter(e.Lhs, insts, &cacheOffset)
	if err != nil {
		return err
	}
	if lit, ok := e.Rhs.(*ast.Integer); ok {
		*insts = append(*insts, ir.BoolOperation{Dst: dst, Lhs: lhs, Opr: opr, Rhs: ir.ConstantRhs(lit.Value)})
		return nil
	}
	rhs, err := a.lowerExprAtNextRegWithCounter(e.Rhs, insts, &cacheOffset)
	if err != nil {
		return err
	}
	*insts = append(*insts, ir.BoolOperation{Dst: dst, Lhs: lhs, Opr: opr, Rhs: ir.CacheTagRhs(rhs)})
	return nil
}

func arithOperator(op ast.BinOp) (ir.Operator, bool) {
	switch op {
	case ast.OpAdd:
		return ir.OpAdd, true
	case ast.OpSub:
		return ir.OpSub, true
	case ast.OpMul:
		return ir.OpMul, true
	case ast.OpDiv:
		return ir.OpDiv, true
	case ast.OpRem:
		return ir.OpRem, true
	default:
		return 0, false
	}
}

func boolOperator(op ast.BinOp) (ir.BoolOperator, bool) {
	switch op {
	case ast.OpEq:
		return ir.BoolEqual, true
	case ast.OpNe:
		return ir.BoolNotEqual, true
	case ast.OpLt:
		return ir.BoolLt, true
	case ast.OpLe:
		return ir.BoolLe, true
	case ast.OpGt:
		return ir.BoolGt, true
	case ast.OpGe:
		return ir.BoolGe, true
	case ast.OpAnd:
		return ir.BoolAnd, true
	case ast.OpOr:
		return ir.BoolOr, true
	default:
		return 0, false
	}
}

// lowerCall lowers a user-defined function call via the 8-step
// store/move/call/load sequence (spec.md §4.R "Call lowering"), falling
// back to the min/max/random builtins when no user function matches.
func (a *Atoi) lowerCall(e *ast.Call, insts *[]ir.Instruction, dst ir.CacheTag, cacheOffset uint32) error {
	sig, ok := a.funcs.FindNewest(e.Name)
	if !ok {
		handled, err := a.lowerBuiltinCall(e, insts, dst, cacheOffset)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
		return fmt.Errorf("function %q not found", e.Name)
	}
	if uint32(len(e.Args)) != sig.Arity {
		return fmt.Errorf("function %q requires %d arguments, but %d were provided", e.Name, sig.Arity, len(e.Args))
	}

	chunks := ceilDiv(cacheOffset, a.wordWidth)

	tempOffset := cacheOffset
	argRegs := make([]ir.CacheTag, len(e.Args))
	for i, argExpr := range e.Args {
		reg := ir.RegularTag(getAnonymousID(&tempOffset))
		if err := a.lowerExpr(argExpr, insts, reg, tempOffset); err != nil {
			return err
		}
		argRegs[i] = reg
	}

	*insts = append(*insts, ir.Store{MemOffset: ir.RegCurrentMemOffset, Size: chunks})
	*insts = append(*insts, ir.Operation{Dst: ir.RegParentMemOffset, Opr: ir.OpSet, Src: ir.RegCurrentMemOffset})
	*insts = append(*insts, ir.Increase{Dst: ir.RegCurrentMemOffset, Value: int32(chunks)})
	for i, reg := range argRegs {
		*insts = append(*insts, ir.Operation{Dst: ir.RegularTag(ir.FrameHeadLength + uint32(i)), Opr: ir.OpSet, Src: reg})
	}
	*insts = append(*insts, ir.Call{Label: sig.Label})
	*insts = append(*insts, ir.Load{MemOffset: ir.RegCurrentMemOffset, Size: chunks})
	*insts = append(*insts, ir.Operation{Dst: dst, Opr: ir.OpSet, Src: ir.RegReturnedValue})
	return nil
}

// lowerBuiltinCall implements the min/max/random builtins, which are
// recognized only once ordinary function lookup fails.
func (a *Atoi) lowerBuiltinCall(e *ast.Call, insts *[]ir.Instruction, dst ir.CacheTag, cacheOffset uint32) (bool, error) {
	switch e.Name {
	case "min", "max":
		if len(e.Args) != 2 {
			return false, fmt.Errorf("builtin function %q requires 2 arguments, but %d were provided", e.Name, len(e.Args))
		}
		opr := ir.OpMin
		if e.Name == "max" {
			opr = ir.OpMax
		}
		rhs := ir.RegularTag(getAnonymousID(&cacheOffset))
		if err := a.lowerExpr(e.Args[0], insts, dst, cacheOffset); err != nil {
			return false, err
		}
		if err := a.lowerExpr(e.Args[1], insts, rhs, cacheOffset); err != nil {
			return false, err
		}
		*insts = append(*insts, ir.Operation{Dst: dst, Opr: opr, Src: rhs})
		return true, nil

	case "random":
		if len(e.Args) != 2 {
			return false, fmt.Errorf("builtin function `random` requires 2 arguments, but %d were provided", len(e.Args))
		}
		min, err := a.requireConstantInt(e.Args[0])
		if err != nil {
			return false, err
		}
		max, err := a.requireConstantInt(e.Args[1])
		if err != nil {
			return false, err
		}
		*insts = append(*insts, ir.Random{Dst: dst, Min: min, Max: max})
		return true, nil

	default:
		return false, nil
	}
}
