package ir

import "fmt"

// LabelKind discriminates the two Label variants.
type LabelKind uint8

const (
	// LabelNamed is a user-named function (export controls file location
	// and name mangling).
	LabelNamed LabelKind = iota
	// LabelAnonymous is an internal basic block, numbered by the resolver.
	LabelAnonymous
)

// Label identifies one basic block / function file. It is comparable and
// used as a map key in LabelMap, the same way the teacher keys RTL code by
// rtl.Node (pkg/rtl/ast.go).
type Label struct {
	Kind   LabelKind
	Name   string
	Export bool
	ID     uint32
}

// NamedLabel returns a Label for a user-named function.
func NamedLabel(name string, export bool) Label {
	return Label{Kind: LabelNamed, Name: name, Export: export}
}

// AnonymousLabel returns a Label for an internal basic block.
func AnonymousLabel(id uint32) Label {
	return Label{Kind: LabelAnonymous, ID: id}
}

func (l Label) String() string {
	switch l.Kind {
	case LabelNamed:
		if l.Export {
			return fmt.Sprintf("Named(%s, export)", l.Name)
		}
		return fmt.Sprintf("Named(%s)", l.Name)
	case LabelAnonymous:
		return fmt.Sprintf("Anonymous(%d)", l.ID)
	default:
		return "Label(?)"
	}
}
