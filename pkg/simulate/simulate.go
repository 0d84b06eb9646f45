// Package simulate interprets a compiled ir.LabelMap directly, without
// ever touching disk — used by `mcsh simulate` to exercise a program the
// same way the in-game scoreboard engine eventually will (spec.md §7).
// It is a straight translation of original_source/src/ir/simulate/mod.rs
// into Go idiom: a reversed instruction stack standing in for the
// recursive `Vec<&Ir>` the original builds by extending in reverse.
package simulate

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/Fancyflame/mcsh/pkg/ir"
)

// Result is what one simulation run produces: the returned value (valid
// only when Err is nil) and a human-readable execution trace.
type Result struct {
	Value int32
	Log   string
	Err   error
}

type machine struct {
	labelMap  *ir.LabelMap
	memory    []*int32
	registers map[ir.CacheTag]int32
	restIR    []ir.Instruction
	log       strings.Builder
}

// Run simulates calling entry in labelMap and returns the final value of
// REG_RETURNED_VALUE, or the first error encountered.
func Run(labelMap *ir.LabelMap, entry ir.Label) Result {
	m := &machine{
		labelMap:  labelMap,
		memory:    make([]*int32, labelMap.MemSize*labelMap.WordWidth),
		registers: make(map[ir.CacheTag]int32),
	}
	for tag, value := range labelMap.Statics() {
		m.registers[tag] = value
	}

	err := m.call(entry)
	if err == nil {
		err = m.drain()
	}
	if err != nil {
		fmt.Fprintf(&m.log, "\nSIMULATION FAILED\n- error message: %s\n", err)
		return Result{Log: m.log.String(), Err: err}
	}
	m.log.WriteString("SIMULATION FINISHED")

	value, ok := m.registers[ir.RegReturnedValue]
	if !ok {
		err = fmt.Errorf("internal error: REG_RETURNED_VALUE was never set")
		return Result{Log: m.log.String(), Err: err}
	}
	return Result{Value: value, Log: m.log.String()}
}

// RunExported simulates an exported, zero-argument function by name.
func RunExported(labelMap *ir.LabelMap, fnName string) Result {
	return Run(labelMap, ir.NamedLabel(fnName, true))
}

func (m *machine) drain() error {
	for len(m.restIR) > 0 {
		n := len(m.restIR) - 1
		inst := m.restIR[n]
		m.restIR = m.restIR[:n]
		if err := m.eval(inst); err != nil {
			fmt.Fprintf(&m.log, "- when executing: %#v\n", inst)
			return err
		}
	}
	return nil
}

func (m *machine) call(label ir.Label) error {
	info, ok := m.labelMap.Lookup(label)
	if !ok {
		return fmt.Errorf("cannot call `%s` as it is not defined", label)
	}
	for i := len(info.Instructions) - 1; i >= 0; i-- {
		m.restIR = append(m.restIR, info.Instructions[i])
	}
	return nil
}

func (m *machine) displayValue(ct ir.CacheTag) string {
	if v, ok := m.registers[ct]; ok {
		return fmt.Sprintf("%d", v)
	}
	return "none"
}

func (m *machine) readValue(ct ir.CacheTag) (int32, error) {
	v, ok := m.registers[ct]
	if !ok {
		return 0, fmt.Errorf("trying to read `%s` before initialize", ct)
	}
	return v, nil
}

func (m *machine) memSlice(memOffset ir.CacheTag, size uint32) (int, int, error) {
	pointer, err := m.readValue(memOffset)
	if err != nil {
		return 0, 0, err
	}
	if pointer < 0 {
		return 0, 0, fmt.Errorf("attempt to read an invalid pointer with a negative value")
	}
	wordWidth := int(m.labelMap.WordWidth)
	start := int(pointer) * wordWidth
	end := start + int(size)*wordWidth
	if start < 0 || end > len(m.memory) {
		return 0, 0, fmt.Errorf("memory overflow: attempt to read memory from %d to %d, but the memory size is %d", start, end, m.labelMap.MemSize)
	}
	return start, end, nil
}

func (m *machine) eval(inst ir.Instruction) error {
	switch ins := inst.(type) {
	case ir.Assign:
		old := m.displayValue(ins.Dst)
		m.registers[ins.Dst] = ins.Value
		fmt.Fprintf(&m.log, "%s = %d (%s -> %d)\n", ins.Dst, ins.Value, old, ins.Value)
		return nil

	case ir.Increase:
		v, err := m.readValue(ins.Dst)
		if err != nil {
			return err
		}
		m.registers[ins.Dst] = v + ins.Value
		fmt.Fprintf(&m.log, "%s += %d\n", ins.Dst, ins.Value)
		return nil

	case ir.Operation:
		return m.evalOperation(ins)

	case ir.BoolOperation:
		rhs, err := m.boolRhs(ins.Rhs)
		if err != nil {
			return err
		}
		lhs, err := m.readValue(ins.Lhs)
		if err != nil {
			return err
		}
		result := evalBoolOp(lhs, rhs, ins.Opr)
		m.registers[ins.Dst] = result
		fmt.Fprintf(&m.log, "%s = %s %s %v (lhs = %d, rhs = %d)\n", ins.Dst, ins.Lhs, ins.Opr, ins.Rhs, lhs, rhs)
		return nil

	case ir.Not:
		v, err := m.readValue(ins.Src)
		if err != nil {
			return err
		}
		result := int32(0)
		if v == 0 {
			result = 1
		}
		m.registers[ins.Dst] = result
		fmt.Fprintf(&m.log, "not %s (-> %d)\n", ins.Dst, result)
		return nil

	case ir.Call:
		fmt.Fprintf(&m.log, "call %s\n", ins.Label)
		return m.call(ins.Label)

	case ir.CallExtern:
		fmt.Fprintf(&m.log, "raw function `%s`\n", ins.Name)
		return nil

	case ir.Cond:
		condVal, err := m.readValue(ins.Cond)
		if err != nil {
			return err
		}
		fires := condVal != 0
		if !ins.Positive {
			fires = !fires
		}
		polarity := ""
		if !ins.Positive {
			polarity = " not"
		}
		fmt.Fprintf(&m.log, "if%s %s then %s (cond = %t)\n", polarity, ins.Cond, ins.Then, fires)
		if fires {
			return m.call(ins.Then)
		}
		return nil

	case ir.Load:
		start, end, err := m.memSlice(ins.MemOffset, ins.Size)
		if err != nil {
			return err
		}
		for i, slot := range m.memory[start:end] {
			tag := ir.RegularTag(uint32(i))
			if slot == nil {
				delete(m.registers, tag)
			} else {
				m.registers[tag] = *slot
			}
		}
		fmt.Fprintf(&m.log, "load %d chunks from pointer %s (%d..%d)\n", ins.Size, ins.MemOffset, start, end)
		return nil

	case ir.Store:
		start, end, err := m.memSlice(ins.MemOffset, ins.Size)
		if err != nil {
			return err
		}
		for i := start; i < end; i++ {
			tag := ir.RegularTag(uint32(i - start))
			if v, ok := m.registers[tag]; ok {
				val := v
				m.memory[i] = &val
			} else {
				m.memory[i] = nil
			}
		}
		fmt.Fprintf(&m.log, "store %d chunks from pointer %s (%d..%d)\n", ins.Size, ins.MemOffset, start, end)
		return nil

	case ir.Random:
		value := ins.Min
		if ins.Max > ins.Min {
			value = ins.Min + int32(rand.IntN(int(ins.Max-ins.Min+1)))
		}
		old := m.displayValue(ins.Dst)
		m.registers[ins.Dst] = value
		fmt.Fprintf(&m.log, "%s = random %d..%d (%s -> %d)\n", ins.Dst, ins.Min, ins.Max, old, value)
		return nil

	case ir.Table:
		return m.evalTable(ins)

	case ir.CmdRaw:
		fmt.Fprintf(&m.log, "run raw command `%s`\n", ins.Command)
		return nil

	case ir.CmdFmt:
		text, err := m.renderFormat(ins.Args)
		if err != nil {
			return err
		}
		fmt.Fprintf(&m.log, "%s %s `%s`\n", ins.Command, ins.Selector, text)
		return nil

	case ir.SimulationAbort:
		m.log.WriteString("simulation abort\n")
		return fmt.Errorf("simulation was aborted by a debugger statement")

	default:
		return fmt.Errorf("internal error: unhandled instruction type %T", inst)
	}
}

func (m *machine) evalOperation(ins ir.Operation) error {
	rhs, err := m.readValue(ins.Src)
	if err != nil {
		return err
	}
	if ins.Opr == ir.OpSet {
		old := m.displayValue(ins.Dst)
		m.registers[ins.Dst] = rhs
		fmt.Fprintf(&m.log, "%s = %s (%s -> %d)\n", ins.Dst, ins.Src, old, rhs)
		return nil
	}

	lhs, err := m.readValue(ins.Dst)
	if err != nil {
		return err
	}

	if ins.Opr == ir.OpSwp {
		m.registers[ins.Dst] = rhs
		m.registers[ins.Src] = lhs
		fmt.Fprintf(&m.log, "swap %s %s (lhs = %d, rhs = %d)\n", ins.Dst, ins.Src, lhs, rhs)
		return nil
	}

	result, err := evalArithOp(lhs, rhs, ins.Opr)
	if err != nil {
		return err
	}
	m.registers[ins.Dst] = result
	fmt.Fprintf(&m.log, "%s %s %s (lhs = %d, rhs = %d)\n", ins.Dst, ins.Opr, ins.Src, lhs, rhs)
	return nil
}

func (m *machine) boolRhs(rhs ir.BoolOprRhs) (int32, error) {
	if rhs.Kind == ir.BoolRhsConstant {
		return rhs.Constant, nil
	}
	return m.readValue(rhs.CacheTag)
}

func (m *machine) evalTable(ins ir.Table) error {
	arms := ins.SortedArms
	for i := 0; i+1 < len(arms); i++ {
		if arms[i].Key == nil {
			continue
		}
		if arms[i+1].Key != nil && *arms[i].Key >= *arms[i+1].Key {
			return fmt.Errorf("table arms are not sorted or duplicated arms exist")
		}
	}

	var defaultArm *ir.Label
	intArms := arms
	seenDefault := false
	for _, arm := range arms {
		if arm.Key == nil {
			if seenDefault {
				return fmt.Errorf("found duplicated definition of default arm")
			}
			seenDefault = true
			label := arm.Label
			defaultArm = &label
		}
	}
	if seenDefault {
		intArms = make([]ir.TableArm, 0, len(arms)-1)
		for _, arm := range arms {
			if arm.Key != nil {
				intArms = append(intArms, arm)
			}
		}
	}

	condVal, err := m.readValue(ins.Cond)
	if err != nil {
		return err
	}

	idx := sort.Search(len(intArms), func(i int) bool { return *intArms[i].Key >= condVal })
	var target *ir.Label
	if idx < len(intArms) && *intArms[idx].Key == condVal {
		target = &intArms[idx].Label
	} else {
		target = defaultArm
	}

	if target == nil {
		fmt.Fprintf(&m.log, "table match %s didn't jump (cond = %d)\n", ins.Cond, condVal)
		return nil
	}
	fmt.Fprintf(&m.log, "table match %s jumps to %s (cond = %d)\n", ins.Cond, *target, condVal)
	return m.call(*target)
}

func (m *machine) renderFormat(args []ir.FormatArg) (string, error) {
	var b strings.Builder
	for _, arg := range args {
		switch arg.Kind {
		case ir.FormatCacheTag:
			v, err := m.readValue(arg.CacheTag)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "%d", v)
		case ir.FormatConstInt:
			fmt.Fprintf(&b, "%d", arg.Int)
		case ir.FormatSelector:
			fmt.Fprintf(&b, "(SEL: %s)", arg.Text)
		case ir.FormatStyle:
			// styles affect rendering only, not the simulated text content
		case ir.FormatText:
			b.WriteString(arg.Text)
		}
	}
	return b.String(), nil
}

func evalArithOp(lhs, rhs int32, opr ir.Operator) (int32, error) {
	switch opr {
	case ir.OpAdd:
		return lhs + rhs, nil
	case ir.OpSub:
		return lhs - rhs, nil
	case ir.OpMul:
		return lhs * rhs, nil
	case ir.OpDiv:
		if rhs == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return lhs / rhs, nil
	case ir.OpRem:
		if rhs == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return lhs % rhs, nil
	case ir.OpMax:
		if lhs > rhs {
			return lhs, nil
		}
		return rhs, nil
	case ir.OpMin:
		if lhs < rhs {
			return lhs, nil
		}
		return rhs, nil
	default:
		return 0, fmt.Errorf("internal error: unrecognized arithmetic operator")
	}
}

func evalBoolOp(lhs, rhs int32, opr ir.BoolOperator) int32 {
	var result bool
	switch opr {
	case ir.BoolEqual:
		result = lhs == rhs
	case ir.BoolNotEqual:
		result = lhs != rhs
	case ir.BoolAnd:
		result = lhs != 0 && rhs != 0
	case ir.BoolOr:
		result = lhs != 0 || rhs != 0
	case ir.BoolGt:
		result = lhs > rhs
	case ir.BoolLt:
		result = lhs < rhs
	case ir.BoolGe:
		result = lhs >= rhs
	case ir.BoolLe:
		result = lhs <= rhs
	}
	if result {
		return 1
	}
	return 0
}
