// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package fileset

import (
	"sort"
	"strings"
)

const (
	NameAllAsOne  = "全体ファイルセット"
	NameRootFiles = "ルートファイル"
)

func topLevelSetName(dir string) string { return "フォルダ: " + dir }

func directorySetName(name string) string { return "ディレクトリ: " + name }

func included(tree []*FileItem) []*FileItem {
	out := make([]*FileItem, 0, len(tree))
	for _, it := range tree {
		if !it.Excluded {
			out = append(out, it)
		}
	}
	return out
}

// AssignAllAsOne puts every non-excluded item into a single flatten set.
func AssignAllAsOne(baseDir string, tree []*FileItem) []*FileSet {
	items := included(tree)
	if len(items) == 0 {
		return nil
	}
	return []*FileSet{newFileSet(NameAllAsOne, baseDir, cloneItems(items))}
}

// AssignByTopLevelDirs creates one set per first path segment directory and a
// final set for loose root entries.
func AssignByTopLevelDirs(baseDir string, tree []*FileItem) []*FileSet {
	groups := make(map[string][]*FileItem)
	var order []string
	var root []*FileItem

	for _, it := range included(tree) {
		if it.Depth() == 0 && !it.IsDir() {
			root = append(root, it)
			continue
		}
		top := it.TopLevel()
		if _, ok := groups[top]; !ok {
			order = append(order, top)
		}
		groups[top] = append(groups[top], it)
	}
	sort.Strings(order)

	var sets []*FileSet
	for _, top := range order {
		sets = append(sets, newFileSet(topLevelSetName(top), baseDir, cloneItems(groups[top])))
	}
	if len(root) > 0 {
		sets = append(sets, newFileSet(NameRootFiles, baseDir, cloneItems(root)))
	}
	return sets
}

// AssignAllDirectories creates one set per directory, deepest first, each
// directory claiming the descendants no deeper set has claimed. A directory
// left without descendants of its own joins the set of its first claimed
// descendant. Loose root files form the last set, together with directories
// that hold no files; those directories are dropped when there are no root files.
func AssignAllDirectories(baseDir string, tree []*FileItem) []*FileSet {
	items := included(tree)
	owner := make([]int, len(items))
	for i := range owner {
		owner[i] = -1
	}

	var dirs []int
	for i, it := range items {
		if it.IsDir() {
			dirs = append(dirs, i)
		}
	}
	sort.SliceStable(dirs, func(a, b int) bool {
		return items[dirs[a]].Depth() > items[dirs[b]].Depth()
	})

	var (
		groups [][]int
		names  []string
	)
	for _, di := range dirs {
		lo, hi := descendantRange(items, items[di].RelativePath)
		members := []int{di}
		for i := lo; i < hi; i++ {
			if owner[i] < 0 {
				members = append(members, i)
			}
		}
		if len(members) == 1 {
			continue
		}
		for _, i := range members {
			owner[i] = len(groups)
		}
		groups = append(groups, members)
		names = append(names, directorySetName(items[di].Name))
	}

	var rest []int
	rootFiles := 0
	for i, it := range items {
		if owner[i] >= 0 {
			continue
		}
		if it.IsDir() {
			lo, hi := descendantRange(items, it.RelativePath)
			if g := firstOwner(owner[lo:hi]); g >= 0 {
				owner[i] = g
				groups[g] = append(groups[g], i)
				continue
			}
		} else {
			rootFiles++
		}
		rest = append(rest, i)
	}

	sets := make([]*FileSet, 0, len(groups)+1)
	for gi, g := range groups {
		sort.Ints(g)
		sets = append(sets, newFileSet(names[gi], baseDir, pick(items, g)))
	}
	if rootFiles > 0 {
		sets = append(sets, newFileSet(NameRootFiles, baseDir, pick(items, rest)))
	}
	return sets
}

func firstOwner(owners []int) int {
	for _, o := range owners {
		if o >= 0 {
			return o
		}
	}
	return -1
}

func pick(items []*FileItem, idx []int) []*FileItem {
	out := make([]*FileItem, 0, len(idx))
	for _, i := range idx {
		out = append(out, items[i].Clone())
	}
	return out
}

// descendantRange returns the half-open index range of items strictly under dir.
// items must be sorted by relative path.
func descendantRange(items []*FileItem, dir string) (int, int) {
	prefix := dir + "/"
	lo := sort.Search(len(items), func(i int) bool { return items[i].RelativePath >= prefix })
	hi := lo
	for hi < len(items) && strings.HasPrefix(items[hi].RelativePath, prefix) {
		hi++
	}
	return lo, hi
}
