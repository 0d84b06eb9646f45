package emit

import (
	"fmt"
	"io"

	"github.com/Fancyflame/mcsh/pkg/ir"
)

// writeInstruction renders one IR instruction as the command lines it
// lowers to, grounded on original_source/src/ir/compile/miscellaneous.rs
// `compile_ir`.
func writeInstruction(w io.Writer, inst ir.Instruction) error {
	switch in := inst.(type) {
	case ir.Assign:
		_, err := fmt.Fprintf(w, "scoreboard players set MCSH %s %d\n", cacheTagName(in.Dst), in.Value)
		return err

	case ir.Increase:
		_, err := fmt.Fprintf(w, "scoreboard players add MCSH %s %d\n", cacheTagName(in.Dst), in.Value)
		return err

	case ir.Operation:
		return writeOperation(w, in)

	case ir.BoolOperation:
		return writeBoolOperation(w, in)

	case ir.Not:
		dst, src := cacheTagName(in.Dst), cacheTagName(in.Src)
		_, err := fmt.Fprintf(w,
			"scoreboard players set MCSH %s 0\n"+
				"execute if score MCSH %s matches 0 run scoreboard players set MCSH %s 1\n",
			dst, src, dst)
		return err

	case ir.Call:
		_, err := fmt.Fprintf(w, "function %s\n", labelCallTarget(in.Label))
		return err

	case ir.CallExtern:
		_, err := fmt.Fprintf(w, "function %s\n", in.Name)
		return err

	case ir.Cond:
		// Positive fires on nonzero, so it is the inverse of the "matches 0"
		// test: "unless ... matches 0" for Positive, "if ... matches 0" for
		// a negative (fire-on-zero) condition.
		ifTag := "unless"
		if !in.Positive {
			ifTag = "if"
		}
		_, err := fmt.Fprintf(w, "execute %s score MCSH %s matches 0 run function %s\n",
			ifTag, cacheTagName(in.Cond), labelCallTarget(in.Then))
		return err

	case ir.Load:
		_, err := fmt.Fprintf(w, "scoreboard players operation MCSH %s = MCSH %s\nfunction MCSH/%s\n",
			regMemPtr, cacheTagName(in.MemOffset), loadFuncName(in.Size))
		return err

	case ir.Store:
		_, err := fmt.Fprintf(w, "scoreboard players operation MCSH %s = MCSH %s\nfunction MCSH/%s\n",
			regMemPtr, cacheTagName(in.MemOffset), storeFuncName(in.Size))
		return err

	case ir.Random:
		_, err := fmt.Fprintf(w, "scoreboard players random MCSH %s %d %d\n", cacheTagName(in.Dst), in.Min, in.Max)
		return err

	case ir.Table:
		// Table never reaches the emitter directly: compileOneLabel (pkg/emit's
		// per-label writer) hands it to expandTable, which builds a
		// binary-search function tree and writes a `function` line calling
		// the tree's entry point, so writeInstruction never sees it.
		return fmt.Errorf("internal error: Table instruction reached the line emitter directly")

	case ir.CmdRaw:
		_, err := fmt.Fprintf(w, "%s\n", in.Command)
		return err

	case ir.CmdFmt:
		text, err := formatArgsToJSON(in.Args)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s %s %s\n", in.Command, in.Selector, text)
		return err

	case ir.SimulationAbort:
		return nil

	default:
		return fmt.Errorf("internal error: unhandled instruction type %T", inst)
	}
}

func writeOperation(w io.Writer, in ir.Operation) error {
	dst, src := cacheTagName(in.Dst), cacheTagName(in.Src)
	opr, ok := operatorSymbol(in.Opr)
	if !ok {
		return fmt.Errorf("internal error: unrecognized operator")
	}
	_, err := fmt.Fprintf(w, "scoreboard players operation MCSH %s %s MCSH %s\n", dst, opr, src)
	return err
}

func operatorSymbol(opr ir.Operator) (string, bool) {
	switch opr {
	case ir.OpSet:
		return "=", true
	case ir.OpAdd:
		return "+=", true
	case ir.OpSub:
		return "-=", true
	case ir.OpMul:
		return "*=", true
	case ir.OpDiv:
		return "/=", true
	case ir.OpRem:
		return "%=", true
	case ir.OpMax:
		return ">", true
	case ir.OpMin:
		return "<", true
	case ir.OpSwp:
		return "><", true
	default:
		return "", false
	}
}

// writeBoolOperation implements the boolean-comparison templates, with a
// cheaper constant-range form when the RHS is a literal (spec.md §4.E,
// original_source/src/ir/compile/miscellaneous.rs).
func writeBoolOperation(w io.Writer, in ir.BoolOperation) error {
	dst, lhs := cacheTagName(in.Dst), cacheTagName(in.Lhs)

	if in.Rhs.Kind == ir.BoolRhsCacheTag {
		rhs := cacheTagName(in.Rhs.CacheTag)
		useBuiltin := func(op string) error {
			_, err := fmt.Fprintf(w,
				"scoreboard players set MCSH %s 0\n"+
					"execute if score MCSH %s %s MCSH %s run scoreboard players set MCSH %s 1\n",
				dst, lhs, op, rhs, dst)
			return err
		}
		switch in.Opr {
		case ir.BoolEqual:
			return useBuiltin("=")
		case ir.BoolGt:
			return useBuiltin(">")
		case ir.BoolLt:
			return useBuiltin("<")
		case ir.BoolGe:
			return useBuiltin(">=")
		case ir.BoolLe:
			return useBuiltin("<=")
		case ir.BoolNotEqual:
			_, err := fmt.Fprintf(w,
				"scoreboard players set MCSH %s 1\n"+
					"execute if score MCSH %s = MCSH %s run scoreboard players set MCSH %s 0\n",
				dst, lhs, rhs, dst)
			return err
		case ir.BoolAnd:
			_, err := fmt.Fprintf(w,
				"scoreboard players set MCSH %s 0\n"+
					"execute unless score MCSH %s matches 0 unless score MCSH %s matches 0 run "+
					"scoreboard players set MCSH %s 1\n",
				dst, lhs, rhs, dst)
			return err
		case ir.BoolOr:
			_, err := fmt.Fprintf(w,
				"scoreboard players set MCSH %s 1\n"+
					"execute if score MCSH %s matches 0 if score MCSH %s matches 0 run "+
					"scoreboard players set MCSH %s 0\n",
				dst, lhs, rhs, dst)
			return err
		default:
			return fmt.Errorf("internal error: unrecognized boolean operator")
		}
	}

	rhs := in.Rhs.Constant
	useBuiltinRange := func(rangeText string) error {
		_, err := fmt.Fprintf(w,
			"scoreboard players set MCSH %s 0\n"+
				"execute if score MCSH %s matches %s run scoreboard players set MCSH %s 1\n",
			dst, lhs, rangeText, dst)
		return err
	}
	writeFalse := func() error {
		_, err := fmt.Fprintf(w, "scoreboard players set MCSH %s 0\n", dst)
		return err
	}

	switch in.Opr {
	case ir.BoolEqual:
		return useBuiltinRange(fmt.Sprintf("%d", rhs))
	case ir.BoolNotEqual:
		_, err := fmt.Fprintf(w,
			"scoreboard players set MCSH %s 1\n"+
				"execute if score MCSH %s matches %d run scoreboard players set MCSH %s 0\n",
			dst, lhs, rhs, dst)
		return err
	case ir.BoolGt:
		if rhs == int32(2147483647) {
			return writeFalse()
		}
		return useBuiltinRange(fmt.Sprintf("%d..", rhs+1))
	case ir.BoolLt:
		if rhs == int32(-2147483648) {
			return writeFalse()
		}
		return useBuiltinRange(fmt.Sprintf("..%d", rhs-1))
	case ir.BoolGe:
		return useBuiltinRange(fmt.Sprintf("%d..", rhs))
	case ir.BoolLe:
		return useBuiltinRange(fmt.Sprintf("..%d", rhs))
	case ir.BoolAnd:
		if rhs == 0 {
			return writeFalse()
		}
		_, err := fmt.Fprintf(w,
			"scoreboard players set MCSH %s 0\n"+
				"execute unless score MCSH %s matches 0 run scoreboard players set MCSH %s 1\n",
			dst, lhs, dst)
		return err
	case ir.BoolOr:
		if rhs != 0 {
			_, err := fmt.Fprintf(w, "scoreboard players set MCSH %s 1\n", dst)
			return err
		}
		_, err := fmt.Fprintf(w,
			"scoreboard players set MCSH %s 0\n"+
				"execute unless score MCSH %s matches 0 run scoreboard players set MCSH %s 1\n",
			dst, lhs, dst)
		return err
	default:
		return fmt.Errorf("internal error: unrecognized boolean operator")
	}
}

// formatArgsToJSON renders a print!/title! argument list as Bedrock's
// rawtext JSON array (spec.md §4.M).
func formatArgsToJSON(args []ir.FormatArg) (string, error) {
	var b []byte
	b = append(b, '[')
	for i, arg := range args {
		if i > 0 {
			b = append(b, ',')
		}
		switch arg.Kind {
		case ir.FormatText:
			b = append(b, '"')
			b = appendJSONEscaped(b, arg.Text)
			b = append(b, '"')
		case ir.FormatConstInt:
			b = append(b, '"')
			b = append(b, []byte(fmt.Sprintf("%d", arg.Int))...)
			b = append(b, '"')
		case ir.FormatCacheTag:
			b = append(b, []byte(fmt.Sprintf(
				`{"score":{"name":"MCSH","objective":"%s"}}`, cacheTagName(arg.CacheTag)))...)
		case ir.FormatSelector:
			b = append(b, []byte(fmt.Sprintf(`{"selector":"%s"}`, arg.Text))...)
		case ir.FormatStyle:
			b = append(b, []byte(fmt.Sprintf(`{"text":"","%s":true}`, arg.Text))...)
		default:
			return "", fmt.Errorf("internal error: unhandled format arg kind")
		}
	}
	b = append(b, ']')
	return string(b), nil
}

func appendJSONEscaped(b []byte, s string) []byte {
	for _, r := range s {
		switch r {
		case '"':
			b = append(b, '\\', '"')
		case '\\':
			b = append(b, '\\', '\\')
		default:
			b = append(b, string(r)...)
		}
	}
	return b
}
