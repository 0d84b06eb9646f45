// Package ir defines the MCSH intermediate representation: cache-tag
// registers, labels, the instruction sum type, and the LabelMap that
// collects a compiled program. The resolver (pkg/atoi) builds a LabelMap,
// the simulator (pkg/simulate) and the emitter (pkg/emit) consume it
// read-only.
package ir

import "fmt"

// TagKind discriminates the four CacheTag variants.
type TagKind uint8

const (
	// TagRegular is an ordinary register allocated from a per-function counter.
	TagRegular TagKind = iota
	// TagStatic is an anonymous module-level register.
	TagStatic
	// TagStaticExport is an exported static; Name is preserved verbatim in output.
	TagStaticExport
	// TagStaticBuiltin is a reserved runtime register (CurrentMemoryOffset, etc).
	TagStaticBuiltin
)

// CacheTag names a scoreboard register. It is a comparable value type so it
// can be used directly as a map key, mirroring how the teacher keys its CFG
// and register maps by plain integer/string IDs (pkg/rtlgen/regs.go).
type CacheTag struct {
	Kind TagKind
	ID   uint32
	Name string
}

// RegularTag returns the CacheTag for an ordinary register.
func RegularTag(id uint32) CacheTag { return CacheTag{Kind: TagRegular, ID: id} }

// StaticTag returns the CacheTag for an anonymous module-level static.
func StaticTag(id uint32) CacheTag { return CacheTag{Kind: TagStatic, ID: id} }

// StaticExportTag returns the CacheTag for an exported static.
func StaticExportTag(name string) CacheTag { return CacheTag{Kind: TagStaticExport, Name: name} }

// StaticBuiltinTag returns the CacheTag for a reserved runtime register.
func StaticBuiltinTag(name string) CacheTag { return CacheTag{Kind: TagStaticBuiltin, Name: name} }

// Builtin register names, reserved across every compiled program.
const (
	BuiltinCurrentMemOffset = "CurrentMemoryOffset"
	BuiltinReturnedValue    = "ReturnedValue"
	BuiltinCondEnable       = "CondEnable"
	BuiltinMatchEnabled     = "MatchEnabled"
	BuiltinMinusOne         = "MinusOne"
)

// Well-known builtin registers. NewLabelMap seeds all of them except
// RegMatchEnabled as statics of every LabelMap.
var (
	RegCurrentMemOffset = StaticBuiltinTag(BuiltinCurrentMemOffset)
	RegReturnedValue    = StaticBuiltinTag(BuiltinReturnedValue)
	RegCondEnable       = StaticBuiltinTag(BuiltinCondEnable)
	RegMatchEnabled     = StaticBuiltinTag(BuiltinMatchEnabled)
	ConstMinusOne       = StaticBuiltinTag(BuiltinMinusOne)
)

// RegParentMemOffset is Regular(0), the frame-link slot every call stores
// the caller's REG_CURRENT_MEM_OFFSET into.
var RegParentMemOffset = RegularTag(0)

// FrameHeadLength is the first register offset available to arguments;
// Regular(0) is reserved as the frame link.
const FrameHeadLength uint32 = 1

func (t CacheTag) String() string {
	switch t.Kind {
	case TagRegular:
		return fmt.Sprintf("Regular(%d)", t.ID)
	case TagStatic:
		return fmt.Sprintf("Static(%d)", t.ID)
	case TagStaticExport:
		return fmt.Sprintf("StaticExport(%s)", t.Name)
	case TagStaticBuiltin:
		return fmt.Sprintf("StaticBuiltin(%s)", t.Name)
	default:
		return "CacheTag(?)"
	}
}
