// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package fileset

import (
	"reflect"
	"sort"
	"testing"
)

func TestAssignAllAsOne(t *testing.T) {
	root := makeTree(t, map[string]int{"a.txt": 10, "sub/b.txt": 20})
	sets := AssignAllAsOne(root, mustTree(t, root))

	if len(sets) != 1 {
		t.Fatalf("got %d sets", len(sets))
	}
	if sets[0].Name != NameAllAsOne {
		t.Errorf("name = %q", sets[0].Name)
	}
	if sets[0].FileCount() != 2 || sets[0].TotalSize() != 30 {
		t.Errorf("files=%d size=%d", sets[0].FileCount(), sets[0].TotalSize())
	}
	if sets[0].Organize != OrganizeFlatten {
		t.Errorf("organize = %v", sets[0].Organize)
	}
}

func TestAssignEmptyTree(t *testing.T) {
	for name, fn := range map[string]func(string, []*FileItem) []*FileSet{
		"all":  AssignAllAsOne,
		"top":  AssignByTopLevelDirs,
		"dirs": AssignAllDirectories,
	} {
		if sets := fn("/x", nil); len(sets) != 0 {
			t.Errorf("%s: got %d sets on empty tree", name, len(sets))
		}
	}
}

var partitionTree = map[string]int{
	"root.txt":          1,
	"z.csv":             2,
	"a/one.txt":         3,
	"a/b/two.txt":       4,
	"a/b/c/three.txt":   5,
	"a/b/c/d/":          0,
	"docs/readme.md":    6,
	"docs/img/logo.png": 7,
	"lonely/":           0,
	"skip/me.txt":       8,
}

var nestedOnlyTree = map[string]int{"a/b/x.txt": 1}

func TestPartitionInvariant(t *testing.T) {
	for treeName, files := range map[string]map[string]int{
		"mixed":  partitionTree,
		"nested": nestedOnlyTree,
	} {
		root := makeTree(t, files)
		for name, fn := range map[string]func(string, []*FileItem) []*FileSet{
			"top":  AssignByTopLevelDirs,
			"dirs": AssignAllDirectories,
		} {
			t.Run(treeName+"/"+name, func(t *testing.T) {
				tree := mustTree(t, root)
				var want []string
				for _, it := range tree {
					if it.RelativePath == "skip/me.txt" {
						it.Excluded = true
						continue
					}
					want = append(want, it.RelativePath)
				}

				seen := map[string]string{}
				var got []*FileItem
				for _, fs := range fn(root, tree) {
					for _, it := range fs.Items {
						if prev, dup := seen[it.RelativePath]; dup {
							t.Errorf("%s in both %q and %q", it.RelativePath, prev, fs.Name)
						}
						seen[it.RelativePath] = fs.Name
					}
					got = append(got, fs.Items...)
				}
				sort.Strings(want)
				gotPaths := relPaths(got)
				sort.Strings(gotPaths)
				if !reflect.DeepEqual(gotPaths, want) {
					t.Errorf("union = %v\nwant    %v", gotPaths, want)
				}
			})
		}
	}
}

func TestAssignByTopLevelDirs(t *testing.T) {
	root := makeTree(t, partitionTree)
	sets := AssignByTopLevelDirs(root, mustTree(t, root))

	var names []string
	for _, fs := range sets {
		names = append(names, fs.Name)
	}
	want := []string{"フォルダ: a", "フォルダ: docs", "フォルダ: lonely", "フォルダ: skip", NameRootFiles}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	if got := relPaths(sets[len(sets)-1].Items); !reflect.DeepEqual(got, []string{"root.txt", "z.csv"}) {
		t.Errorf("root set = %v", got)
	}
}

func TestAssignAllDirectoriesDeepestFirst(t *testing.T) {
	root := makeTree(t, partitionTree)
	sets := AssignAllDirectories(root, mustTree(t, root))

	byName := map[string][]string{}
	for _, fs := range sets {
		byName[fs.Name] = relPaths(fs.Items)
	}

	if got := byName["ディレクトリ: c"]; !reflect.DeepEqual(got, []string{"a/b/c", "a/b/c/d", "a/b/c/three.txt"}) {
		t.Errorf("c = %v", got)
	}
	if got := byName["ディレクトリ: b"]; !reflect.DeepEqual(got, []string{"a/b", "a/b/two.txt"}) {
		t.Errorf("b = %v", got)
	}
	if got := byName["ディレクトリ: a"]; !reflect.DeepEqual(got, []string{"a", "a/one.txt"}) {
		t.Errorf("a = %v", got)
	}
	if _, ok := byName["ディレクトリ: d"]; ok {
		t.Error("empty directory emitted as a set")
	}
	if _, ok := byName["ディレクトリ: lonely"]; ok {
		t.Error("empty top-level directory emitted as a set")
	}
	if got := byName[NameRootFiles]; !reflect.DeepEqual(got, []string{"lonely", "root.txt", "z.csv"}) {
		t.Errorf("root set = %v", got)
	}
	if got := byName["ディレクトリ: skip"]; !reflect.DeepEqual(got, []string{"skip", "skip/me.txt"}) {
		t.Errorf("skip = %v", got)
	}
	if sets[0].Name != "ディレクトリ: c" {
		t.Errorf("first set = %q, want deepest directory first", sets[0].Name)
	}
}

func TestAssignAllDirectoriesFoldsBareAncestors(t *testing.T) {
	root := makeTree(t, nestedOnlyTree)
	sets := AssignAllDirectories(root, mustTree(t, root))

	if len(sets) != 1 {
		t.Fatalf("got %d sets: %v", len(sets), sets)
	}
	if sets[0].Name != "ディレクトリ: b" {
		t.Errorf("name = %q", sets[0].Name)
	}
	if got := relPaths(sets[0].Items); !reflect.DeepEqual(got, []string{"a", "a/b", "a/b/x.txt"}) {
		t.Errorf("items = %v", got)
	}
	if msgs := ValidateFileSets(sets); len(msgs) != 0 {
		t.Errorf("validation: %v", msgs)
	}
}

func TestAssignAllDirectoriesDropsEmptyDirsWithoutRootFiles(t *testing.T) {
	root := makeTree(t, map[string]int{"a/x.txt": 1, "empty/": 0})
	sets := AssignAllDirectories(root, mustTree(t, root))

	if len(sets) != 1 || sets[0].Name != "ディレクトリ: a" {
		t.Fatalf("sets = %v", sets)
	}
	for _, fs := range sets {
		if fs.FileCount() == 0 {
			t.Errorf("set %q has no files", fs.Name)
		}
	}
}

func TestNormalizeSelection(t *testing.T) {
	root := makeTree(t, partitionTree)
	tree := mustTree(t, root)
	byRel := map[string]*FileItem{}
	for _, it := range tree {
		byRel[it.RelativePath] = it
	}

	archived := byRel["a/b"].Clone()
	archived.Archive = true
	selected := []*FileItem{
		byRel["a/b/c/three.txt"], // covered by a/b
		byRel["a/b/c"],           // covered by a/b
		archived,
		byRel["docs/readme.md"],
		byRel["root.txt"],
		byRel["root.txt"],
	}

	got := NormalizeSelection(tree, selected)
	want := []string{"a/b", "a/b/c", "a/b/c/d", "a/b/c/three.txt", "a/b/two.txt", "docs/readme.md", "root.txt"}
	if !reflect.DeepEqual(relPaths(got), want) {
		t.Fatalf("normalized = %v, want %v", relPaths(got), want)
	}
	for _, it := range got {
		if it.RelativePath == "a/b" && !it.Archive {
			t.Error("explicit selection flags lost")
		}
		if it == byRel[it.RelativePath] {
			t.Errorf("%s shares the tree item", it.RelativePath)
		}
	}
}
