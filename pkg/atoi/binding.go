package atoi

import "github.com/Fancyflame/mcsh/pkg/ir"

// BindingKind discriminates the three Binding variants (spec.md §3).
type BindingKind uint8

const (
	BindConstant BindingKind = iota
	BindString
	BindCache
)

// Binding is what a name resolves to on the binding stack: a compile-time
// integer, a compile-time string (legal only as a const initializer or
// macro argument), or a register.
type Binding struct {
	Kind  BindingKind
	Int   int32
	Str   string
	Cache ir.CacheTag
}

// FuncSig is a function table entry: the label its body lowers to (never
// the bare exported entry stub, so both forward and backward calls resolve
// to the same callable label regardless of export status) and its arity.
type FuncSig struct {
	Label ir.Label
	Arity uint32
}
