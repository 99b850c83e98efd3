// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package fileset

import (
	"sort"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

// pathIndex is an arena over a sorted tree with a path lookup.
type pathIndex struct {
	items []*FileItem
	byRel map[string]int
}

func newPathIndex(tree []*FileItem) *pathIndex {
	idx := &pathIndex{items: tree, byRel: make(map[string]int, len(tree))}
	for i, it := range tree {
		idx.byRel[it.RelativePath] = i
	}
	return idx
}

// NormalizeSelection expands a manual selection against the tree.
// A selected directory without a selected ancestor pulls in all of its
// descendants; anything under a selected directory is otherwise dropped.
// Explicitly selected items keep their own flags.
func NormalizeSelection(tree []*FileItem, selected []*FileItem) []*FileItem {
	idx := newPathIndex(tree)

	selDirs := make(map[string]bool)
	for _, it := range selected {
		if it.IsDir() {
			selDirs[it.RelativePath] = true
		}
	}
	hasSelectedAncestor := func(rel string) bool {
		for p := parentOf(rel); p != ""; p = parentOf(p) {
			if selDirs[p] {
				return true
			}
		}
		return false
	}

	explicit := make(map[string]*FileItem, len(selected))
	for _, it := range selected {
		explicit[it.RelativePath] = it
	}

	seen := make(map[string]bool)
	var out []*FileItem
	add := func(it *FileItem) {
		if seen[it.RelativePath] {
			return
		}
		seen[it.RelativePath] = true
		if e, ok := explicit[it.RelativePath]; ok {
			it = e
		}
		out = append(out, it.Clone())
	}

	for _, it := range selected {
		if hasSelectedAncestor(it.RelativePath) {
			continue
		}
		if _, ok := idx.byRel[it.RelativePath]; !ok && it.Path == "" {
			utils.Warnf("ignoring selection %q: not in tree", it.RelativePath)
			continue
		}
		add(it)
		if !it.IsDir() {
			continue
		}
		lo, hi := descendantRange(idx.items, it.RelativePath)
		for i := lo; i < hi; i++ {
			add(idx.items[i])
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].RelativePath < out[j].RelativePath })
	return out
}
