package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Fancyflame/mcsh/pkg/ir"
)

// Compile lowers every label in labelMap into .mcfunction files under
// functionsDir, plus the generated memory tree and bootstrap file
// (original_source/src/ir/compile/mod.rs `LabelMap::compile`).
func Compile(labelMap *ir.LabelMap, functionsDir string) error {
	if labelMap.WordWidth == 0 || labelMap.MemSize%labelMap.WordWidth != 0 {
		return fmt.Errorf("the memory size (%d) is not a multiple of the word width (%d)",
			labelMap.MemSize, labelMap.WordWidth)
	}

	fs := newFileSet()
	var cacheSize uint32
	cacheSet := make(map[uint32]bool)
	tableCounter := 0

	labels := labelMap.Labels()
	sort.Slice(labels, func(i, j int) bool { return labelSortKey(labels[i].Label) < labelSortKey(labels[j].Label) })

	for _, info := range labels {
		if err := compileOneLabel(fs, info, &cacheSize, cacheSet, &tableCounter); err != nil {
			return err
		}
	}

	// cacheSize counts chunks; the memory trees and bootstrap take the
	// number of registers those chunks span.
	cacheRegs := cacheSize * labelMap.WordWidth
	memSwapTrees(fs, labelMap.MemSize, labelMap.WordWidth, cacheRegs)
	bootstrap(fs, labelMap, cacheRegs, cacheSet)

	return fs.Flush(functionsDir)
}

func labelSortKey(l ir.Label) string {
	return labelCallTarget(l)
}

func compileOneLabel(fs *fileSet, info *ir.LabelInfo, cacheSize *uint32, cacheSet map[uint32]bool, tableCounter *int) error {
	relPath := labelName(info.Label) + ".mcfunction"
	if !(info.Label.Kind == ir.LabelNamed && info.Label.Export) {
		relPath = mcshDir + "/" + relPath
	}
	b := fs.file(relPath)

	for _, inst := range info.Instructions {
		trackCacheUsage(inst, cacheSize, cacheSet)

		if table, ok := inst.(ir.Table); ok {
			expandTable(fs, b, table, tableCounter)
			continue
		}
		if err := writeInstruction(b, inst); err != nil {
			return err
		}
	}
	return nil
}

// trackCacheUsage records the widest Load/Store chunk size and every
// Regular register actually written, so the bootstrap file only registers
// objectives the program can reach (original_source/src/ir/compile/mod.rs
// `compile_one_label`).
func trackCacheUsage(inst ir.Instruction, cacheSize *uint32, cacheSet map[uint32]bool) {
	switch in := inst.(type) {
	case ir.Load:
		if in.Size > *cacheSize {
			*cacheSize = in.Size
		}
	case ir.Store:
		if in.Size > *cacheSize {
			*cacheSize = in.Size
		}
	case ir.Assign:
		markRegular(in.Dst, cacheSet)
	case ir.Operation:
		markRegular(in.Dst, cacheSet)
	case ir.BoolOperation:
		markRegular(in.Dst, cacheSet)
	}
}

func markRegular(ct ir.CacheTag, cacheSet map[uint32]bool) {
	if ct.Kind == ir.TagRegular {
		cacheSet[ct.ID] = true
	}
}

// expandTable replaces a Table instruction with a call into a generated
// binary-search dispatch tree (spec.md §4.S), built fresh per Table since
// each one may target a different register and arm set.
func expandTable(fs *fileSet, b *strings.Builder, table ir.Table, tableCounter *int) {
	namespace := fmt.Sprintf("Match%d", *tableCounter)
	*tableCounter++

	targets := make(map[int32]ir.Label)
	var defaultTarget *ir.Label
	var keys []int32
	for _, arm := range table.SortedArms {
		if arm.Key == nil {
			label := arm.Label
			defaultTarget = &label
			continue
		}
		targets[*arm.Key] = arm.Label
		keys = append(keys, *arm.Key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	binSearch(fs, namespace, keys, cacheTagName(table.Cond), func(key *int32, fb *strings.Builder) {
		var target ir.Label
		if key == nil {
			if defaultTarget == nil {
				return
			}
			target = *defaultTarget
		} else {
			target = targets[*key]
		}
		fmt.Fprintf(fb, "function %s\n", labelCallTarget(target))
	})

	fmt.Fprintf(b, "function MCSH/%s\n", namespace)
}
