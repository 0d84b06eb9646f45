package emit

import (
	"fmt"
	"strings"

	"github.com/Fancyflame/mcsh/pkg/ir"
)

// binSearch builds a binary-search dispatch tree under MCSH/<namespace>/,
// entered via MCSH/<namespace>.mcfunction, and fileContent is invoked once
// per leaf (nil key = the default arm) to write that leaf's body. Shared
// by the memory load/store function generator and match-statement
// dispatch, grounded on original_source/src/ir/compile/binary_search.rs.
//
// When arms form a contiguous dense run (every adjacent pair differs by
// exactly 1), the entry file uses a single range test against the whole
// span and an `unless` fallback to Default — REG_MATCH_ENABLED is never
// needed. Otherwise REG_MATCH_ENABLED flags "a leaf ran" so the default
// arm only fires when no leaf matched the dispatch value.
func binSearch(fs *fileSet, namespace string, arms []int32, pointerReg string, fileContent func(key *int32, b *strings.Builder)) {
	entry := fs.file(mcshDir + "/" + namespace + ".mcfunction")
	isDense := isDenseRun(arms)

	defaultFile := namespace + "/Default.mcfunction"
	writeLeafBody(fs.file(mcshDir+"/"+defaultFile), isDense, nil, fileContent)

	if len(arms) == 0 {
		fmt.Fprintf(entry, "function MCSH/%s\n", defaultFile)
		return
	}

	first, last := arms[0], arms[len(arms)-1]
	startFile := branchFile(fs, namespace, arms, pointerReg, isDense, fileContent)

	if !isDense {
		fmt.Fprintf(entry, "scoreboard players set MCSH %s 1\n", cacheTagName(ir.RegMatchEnabled))
	}
	fmt.Fprintf(entry, "execute if score MCSH %s matches %d..%d run function MCSH/%s/%s\n",
		pointerReg, first, last, namespace, startFile)

	if isDense {
		fmt.Fprintf(entry, "execute unless score MCSH %s matches %d..%d run function MCSH/%s\n",
			pointerReg, first, last, defaultFile)
	} else {
		fmt.Fprintf(entry, "execute if score MCSH %s matches 1 run function MCSH/%s\n",
			cacheTagName(ir.RegMatchEnabled), defaultFile)
	}
}

func isDenseRun(arms []int32) bool {
	for i := 0; i+1 < len(arms); i++ {
		if arms[i+1] != arms[i]+1 {
			return false
		}
	}
	return true
}

func writeLeafBody(b *strings.Builder, isDense bool, key *int32, fileContent func(*int32, *strings.Builder)) {
	if !isDense {
		fmt.Fprintf(b, "scoreboard players set MCSH %s 0\n", cacheTagName(ir.RegMatchEnabled))
	}
	fileContent(key, b)
}

func branchFile(fs *fileSet, namespace string, arms []int32, pointerReg string, isDense bool, fileContent func(*int32, *strings.Builder)) string {
	if len(arms) == 1 {
		name := fmt.Sprintf("Leaf%d.mcfunction", arms[0])
		b := fs.file(mcshDir + "/" + namespace + "/" + name)
		key := arms[0]
		writeLeafBody(b, isDense, &key, fileContent)
		return name
	}

	name := fmt.Sprintf("Branch%d_%d.mcfunction", arms[0], arms[len(arms)-1])
	b := fs.file(mcshDir + "/" + namespace + "/" + name)

	mid := len(arms) / 2
	arms1, arms2 := arms[:mid], arms[mid:]
	name1 := branchFile(fs, namespace, arms1, pointerReg, isDense, fileContent)
	name2 := branchFile(fs, namespace, arms2, pointerReg, isDense, fileContent)

	fmt.Fprintf(b, "execute if score MCSH %s matches %d..%d run function MCSH/%s/%s\n",
		pointerReg, arms1[0], arms1[len(arms1)-1], namespace, name1)
	fmt.Fprintf(b, "execute if score MCSH %s matches %d..%d run function MCSH/%s/%s\n",
		pointerReg, arms2[0], arms2[len(arms2)-1], namespace, name2)
	return name
}
