// Package emit lowers a compiled ir.LabelMap into a tree of .mcfunction
// files under a "functions" directory, matching Bedrock's datapack-style
// function layout: one file per label, plus a generated memory spill/
// restore tree and a bootstrap file that registers every scoreboard
// objective. Grounded on original_source/src/ir/compile/{mod,memory,
// binary_search,miscellaneous}.rs, translated to Go's text/template-free
// direct fmt.Fprintf style the teacher's own generators favor.
package emit

import (
	"fmt"

	"github.com/Fancyflame/mcsh/pkg/ir"
)

// prefix namespaces every internal (non-exported) object name so MCSH's
// generated objectives/functions never collide with user scoreboard state.
const prefix = "__MCSH_Private"

// mcshDir is the subdirectory holding every internal, non-exported
// function file (bodies, memory tree, match trees; the bootstrap file sits
// at the top level), keeping a user's own
// function namespace free of compiler-generated clutter.
const mcshDir = "MCSH"

// regMemPtr is the internal pointer register the memory load/store trees
// read to decide which branch to take.
const regMemPtr = prefix + "_MemoryPointer"

func cacheTagName(ct ir.CacheTag) string {
	switch ct.Kind {
	case ir.TagRegular:
		return fmt.Sprintf("%s_CacheTag_%d", prefix, ct.ID)
	case ir.TagStatic:
		return fmt.Sprintf("%s_StaticCacheTag_%d", prefix, ct.ID)
	case ir.TagStaticExport:
		return ct.Name
	case ir.TagStaticBuiltin:
		return fmt.Sprintf("%s_StaticBuiltin_%s", prefix, ct.Name)
	default:
		return fmt.Sprintf("%s_UnknownTag", prefix)
	}
}

// labelName returns the bare function name for label (no directory
// prefix); labelCallTarget additionally prefixes "MCSH/" for non-exported
// labels, matching Minecraft's `function <path>` command syntax.
func labelName(label ir.Label) string {
	switch label.Kind {
	case ir.LabelAnonymous:
		return fmt.Sprintf("%s_AnonymousLabel_%d", prefix, label.ID)
	case ir.LabelNamed:
		if label.Export {
			return label.Name
		}
		return fmt.Sprintf("%s_Label_%s", prefix, label.Name)
	default:
		return fmt.Sprintf("%s_UnknownLabel", prefix)
	}
}

func labelCallTarget(label ir.Label) string {
	if label.Kind == ir.LabelNamed && label.Export {
		return labelName(label)
	}
	return mcshDir + "/" + labelName(label)
}

func memUnitName(position uint32) string {
	return fmt.Sprintf("%s_MemoryUnit_%d", prefix, position)
}

func storeFuncName(chunks uint32) string {
	return fmt.Sprintf("%s_MemoryStore_Chunks%d", prefix, chunks)
}

func loadFuncName(chunks uint32) string {
	return fmt.Sprintf("%s_MemoryLoad_Chunks%d", prefix, chunks)
}

func registerObjective(name string) string {
	return fmt.Sprintf("scoreboard objectives add %s dummy", name)
}
