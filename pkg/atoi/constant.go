package atoi

import (
	"fmt"

	"github.com/Fancyflame/mcsh/pkg/ast"
)

// evalConstant evaluates expr at compile time: literals, named constants,
// unary `!`/`-`, binary arithmetic/boolean operators, and a block whose
// only content is a trailing expression (spec.md §4.R "Constant expression
// evaluation"). Calling a function is never constant.
func (a *Atoi) evalConstant(expr ast.Expr) (Binding, error) {
	switch e := expr.(type) {
	case *ast.Integer:
		return Binding{Kind: BindConstant, Int: e.Value}, nil

	case *ast.Str:
		return Binding{Kind: BindString, Str: e.Value}, nil

	case *ast.Var:
		bind, ok := a.bindings.FindNewest(e.Name)
		if !ok {
			return Binding{}, fmt.Errorf("variable %q not found", e.Name)
		}
		if bind.Kind == BindCache {
			return Binding{}, fmt.Errorf("identifier %q is not a constant", e.Name)
		}
		return bind, nil

	case *ast.Unary:
		val, err := a.evalConstant(e.Expr)
		if err != nil {
			return Binding{}, err
		}
		if val.Kind != BindConstant {
			return Binding{}, fmt.Errorf("a string cannot participate in a unary operation")
		}
		switch e.Op {
		case ast.UnNot:
			if val.Int != 0 {
				return Binding{Kind: BindConstant, Int: 0}, nil
			}
			return Binding{Kind: BindConstant, Int: 1}, nil
		case ast.UnNeg:
			return Binding{Kind: BindConstant, Int: -val.Int}, nil
		default:
			return Binding{}, fmt.Errorf("unrecognized unary operator")
		}

	case *ast.Binary:
		lhs, err := a.evalConstant(e.Lhs)
		if err != nil {
			return Binding{}, err
		}
		rhs, err := a.evalConstant(e.Rhs)
		if err != nil {
			return Binding{}, err
		}
		if lhs.Kind != BindConstant || rhs.Kind != BindConstant {
			return Binding{}, fmt.Errorf("a string cannot participate in a binary operation")
		}
		value, err := evalConstantBinOp(e.Op, lhs.Int, rhs.Int)
		if err != nil {
			return Binding{}, err
		}
		return Binding{Kind: BindConstant, Int: value}, nil

	case *ast.BlockExpr:
		if len(e.Stmts) != 0 {
			return Binding{}, fmt.Errorf("a constant expression block cannot contain any statements")
		}
		return a.evalConstant(e.Ret)

	case *ast.Call:
		return Binding{}, fmt.Errorf("calling a function cannot be a constant operation")

	case *ast.MacroCall:
		return Binding{}, fmt.Errorf("macro %q is not available in a constant expression", e.Name)

	default:
		return Binding{}, fmt.Errorf("internal error: unknown expression type %T", expr)
	}
}

func evalConstantBinOp(op ast.BinOp, lhs, rhs int32) (int32, error) {
	switch op {
	case ast.OpAdd:
		return lhs + rhs, nil
	case ast.OpSub:
		return lhs - rhs, nil
	case ast.OpMul:
		return lhs * rhs, nil
	case ast.OpDiv:
		if rhs == 0 {
			return 0, fmt.Errorf("division by zero in constant expression")
		}
		return lhs / rhs, nil
	case ast.OpRem:
		if rhs == 0 {
			return 0, fmt.Errorf("division by zero in constant expression")
		}
		return lhs % rhs, nil
	case ast.OpEq:
		return boolInt(lhs == rhs), nil
	case ast.OpNe:
		return boolInt(lhs != rhs), nil
	case ast.OpLt:
		return boolInt(lhs < rhs), nil
	case ast.OpLe:
		return boolInt(lhs <= rhs), nil
	case ast.OpGt:
		return boolInt(lhs > rhs), nil
	case ast.OpGe:
		return boolInt(lhs >= rhs), nil
	case ast.OpAnd:
		return boolInt(lhs != 0 && rhs != 0), nil
	case ast.OpOr:
		return boolInt(lhs != 0 || rhs != 0), nil
	default:
		return 0, fmt.Errorf("unrecognized binary operator %q", op)
	}
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// requireConstantInt evaluates expr and requires an integer result, used
// by the `random` builtin whose bounds must be known at compile time.
func (a *Atoi) requireConstantInt(expr ast.Expr) (int32, error) {
	val, err := a.evalConstant(expr)
	if err != nil {
		return 0, err
	}
	if val.Kind != BindConstant {
		return 0, fmt.Errorf("only a constant integer is allowed here")
	}
	return val.Int, nil
}
