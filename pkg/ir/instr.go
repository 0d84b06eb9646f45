package ir

// Instruction is the IR instruction sum type. Every variant below lowers
// to one or more command lines in pkg/emit, and is interpreted directly by
// pkg/simulate. The interface-with-marker-method shape mirrors the
// teacher's Operation/ConditionCode sum types in pkg/rtl/ast.go.
type Instruction interface {
	implInstruction()
}

// Operator is the arithmetic/assignment operator family used by Operation.
type Operator uint8

const (
	OpSet Operator = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpMax
	OpMin
	OpSwp
)

var operatorText = map[Operator]string{
	OpSet: "=", OpAdd: "+=", OpSub: "-=", OpMul: "*=", OpDiv: "/=",
	OpRem: "%=", OpMax: "max=", OpMin: "min=", OpSwp: "><",
}

func (o Operator) String() string {
	if s, ok := operatorText[o]; ok {
		return s
	}
	return "?"
}

// BoolOperator is the comparison/logical operator family used by BoolOperation.
type BoolOperator uint8

const (
	BoolEqual BoolOperator = iota
	BoolNotEqual
	BoolAnd
	BoolOr
	BoolGt
	BoolLt
	BoolGe
	BoolLe
)

func (o BoolOperator) String() string {
	switch o {
	case BoolEqual:
		return "=="
	case BoolNotEqual:
		return "!="
	case BoolAnd:
		return "&&"
	case BoolOr:
		return "||"
	case BoolGt:
		return ">"
	case BoolLt:
		return "<"
	case BoolGe:
		return ">="
	case BoolLe:
		return "<="
	default:
		return "?"
	}
}

// Assign sets dst to a literal constant value.
type Assign struct {
	Dst   CacheTag
	Value int32
}

// Increase adds a literal constant to dst in place.
type Increase struct {
	Dst   CacheTag
	Value int32
}

// Operation applies an arithmetic/assignment operator between two registers.
type Operation struct {
	Dst CacheTag
	Opr Operator
	Src CacheTag
}

// BoolOprRhsKind discriminates BoolOperation's right-hand side.
type BoolOprRhsKind uint8

const (
	BoolRhsCacheTag BoolOprRhsKind = iota
	BoolRhsConstant
)

// BoolOprRhs is either another register or a compile-time constant; the
// emitter uses the constant form to avoid spilling the RHS into a register
// (spec.md §4.E "Boolean with constant RHS").
type BoolOprRhs struct {
	Kind     BoolOprRhsKind
	CacheTag CacheTag
	Constant int32
}

// CacheTagRhs wraps a register as a BoolOprRhs.
func CacheTagRhs(tag CacheTag) BoolOprRhs { return BoolOprRhs{Kind: BoolRhsCacheTag, CacheTag: tag} }

// ConstantRhs wraps a literal as a BoolOprRhs.
func ConstantRhs(value int32) BoolOprRhs { return BoolOprRhs{Kind: BoolRhsConstant, Constant: value} }

// BoolOperation computes a 0/1 boolean result into Dst.
type BoolOperation struct {
	Dst CacheTag
	Lhs CacheTag
	Opr BoolOperator
	Rhs BoolOprRhs
}

// Not writes the logical negation of Src (0/1) into Dst.
type Not struct {
	Dst CacheTag
	Src CacheTag
}

// Call invokes another label's function file unconditionally.
type Call struct {
	Label Label
}

// CallExtern invokes a raw function path inserted verbatim. Nothing in
// pkg/atoi constructs one; the `run`/`run_concat` macros lower to CmdRaw.
type CallExtern struct {
	Name string
}

// Cond conditionally invokes Then based on whether Cond is zero/non-zero.
// Positive means "run Then when Cond is non-zero"; the emitter implements
// this via the range-0 inverted `matches 0` test (see spec.md §9).
type Cond struct {
	Positive bool
	Cond     CacheTag
	Then     Label
}

// Load restores Size chunks of registers (Regular(0)..) from memory at
// MemOffset*WordWidth; absent memory slots clear the destination register.
type Load struct {
	MemOffset CacheTag
	Size      uint32
}

// Store spills Size chunks of registers (Regular(0)..) to memory at
// MemOffset*WordWidth.
type Store struct {
	MemOffset CacheTag
	Size      uint32
}

// Random draws an inclusive uniform sample in [Min, Max] into Dst.
type Random struct {
	Dst      CacheTag
	Min, Max int32
}

// TableArm is one arm of a Table dispatch: Key is nil for the default arm.
type TableArm struct {
	Key   *int32
	Label Label
}

// Table performs a binary-search dispatch over Cond's value against
// SortedArms (sorted ascending by Key, with at most one nil-Key default
// arm, consumed from either end per spec.md §4.S).
type Table struct {
	Cond       CacheTag
	SortedArms []TableArm
}

// CmdRaw inserts a single verbatim command line (from the `run`/`run_concat`
// macros).
type CmdRaw struct {
	Command string
}

// FormatArgKind discriminates one segment of a `print!`/`title!` format string.
type FormatArgKind uint8

const (
	FormatText FormatArgKind = iota
	FormatCacheTag
	FormatConstInt
	FormatSelector
	FormatStyle
)

// FormatArg is one segment of a formatted message.
type FormatArg struct {
	Kind     FormatArgKind
	Text     string
	CacheTag CacheTag
	Int      int32
}

// CmdFmt emits a `tellraw`/`titleraw` command built from Args, targeted at
// Selector, using either "tellraw" or "titleraw" as Command.
type CmdFmt struct {
	Command  string
	Selector string
	Args     []FormatArg
}

// SimulationAbort is emitted by `debugger;` — a no-op to the emitter, but
// an unconditional simulation failure in pkg/simulate.
type SimulationAbort struct{}

func (Assign) implInstruction()          {}
func (Increase) implInstruction()        {}
func (Operation) implInstruction()       {}
func (BoolOperation) implInstruction()   {}
func (Not) implInstruction()             {}
func (Call) implInstruction()            {}
func (CallExtern) implInstruction()      {}
func (Cond) implInstruction()            {}
func (Load) implInstruction()            {}
func (Store) implInstruction()           {}
func (Random) implInstruction()          {}
func (Table) implInstruction()           {}
func (CmdRaw) implInstruction()          {}
func (CmdFmt) implInstruction()          {}
func (SimulationAbort) implInstruction() {}
