package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Fancyflame/mcsh/pkg/ir"
)

// memSwapTrees builds the Load/Store binary-search function trees for
// every chunk size from 1 up to the largest Load/Store actually used,
// each dispatching on REG_MEM_PTR across the whole memory address space
// (original_source/src/ir/compile/memory.rs mem_swap_func).
func memSwapTrees(fs *fileSet, memSize, wordWidth, cacheSize uint32) {
	memChunkCount := ceilDiv(memSize, wordWidth)
	cacheChunkCount := ceilDiv(cacheSize, wordWidth)

	arms := make([]int32, memChunkCount)
	for i := range arms {
		arms[i] = int32(i)
	}

	for chunks := uint32(1); chunks <= cacheChunkCount; chunks++ {
		buildSwapTree(fs, loadFuncName(chunks), arms, wordWidth, chunks, false)
		buildSwapTree(fs, storeFuncName(chunks), arms, wordWidth, chunks, true)
	}
}

func buildSwapTree(fs *fileSet, namespace string, arms []int32, wordWidth, chunks uint32, isStore bool) {
	binSearch(fs, namespace, arms, regMemPtr, func(index *int32, b *strings.Builder) {
		if index == nil {
			return
		}
		base := uint32(*index) * wordWidth
		for i := uint32(0); i < chunks*wordWidth; i++ {
			memUnit := memUnitName(base + i)
			cacheUnit := cacheTagName(ir.RegularTag(i))
			if isStore {
				fmt.Fprintf(b, "scoreboard players operation MCSH %s = MCSH %s\n", memUnit, cacheUnit)
			} else {
				fmt.Fprintf(b, "scoreboard players operation MCSH %s = MCSH %s\n", cacheUnit, memUnit)
			}
		}
	})
}

// bootstrap writes mcsh_bootstrap.mcfunction: it resets every MCSH
// objective, registers one objective per memory unit and per cache
// register actually used (cacheSize plus any Regular id referenced above
// that bound, e.g. call argument registers beyond the deepest Load/Store),
// and seeds every static register's initial value.
func bootstrap(fs *fileSet, labelMap *ir.LabelMap, cacheSize uint32, cacheSet map[uint32]bool) {
	b := fs.file("mcsh_bootstrap.mcfunction")
	fmt.Fprintf(b, "scoreboard players reset MCSH\n")

	for x := uint32(0); x < labelMap.MemSize; x++ {
		fmt.Fprintf(b, "%s\n", registerObjective(memUnitName(x)))
	}

	registered := make(map[uint32]bool, cacheSize)
	for x := uint32(0); x < cacheSize; x++ {
		fmt.Fprintf(b, "%s\n", registerObjective(cacheTagName(ir.RegularTag(x))))
		registered[x] = true
	}
	var extra []uint32
	for id := range cacheSet {
		if id >= cacheSize && !registered[id] {
			extra = append(extra, id)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, id := range extra {
		fmt.Fprintf(b, "%s\n", registerObjective(cacheTagName(ir.RegularTag(id))))
	}

	statics := labelMap.Statics()
	keys := make([]ir.CacheTag, 0, len(statics))
	for k := range statics {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return cacheTagName(keys[i]) < cacheTagName(keys[j]) })
	for _, key := range keys {
		name := cacheTagName(key)
		fmt.Fprintf(b, "%s\nscoreboard players set MCSH %s %d\n", registerObjective(name), name, statics[key])
	}

	fmt.Fprintf(b, "%s\n", registerObjective(regMemPtr))
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return (a + b - 1) / b
}
