// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package fileset

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

// makeTree creates files of the given sizes under a temp dir. Keys ending in
// "/" create empty directories.
func makeTree(t *testing.T, files map[string]int) string {
	t.Helper()
	root := t.TempDir()
	for rel, size := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(p, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(strings.Repeat("x", size)), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func mustTree(t *testing.T, root string) []*FileItem {
	t.Helper()
	tree, err := BuildTree(root)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	return tree
}

func quietLogs(t *testing.T) {
	t.Helper()
	prev := utils.SetLogOutput(io.Discard)
	t.Cleanup(func() { utils.SetLogOutput(prev) })
}

func relPaths(items []*FileItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.RelativePath)
	}
	sort.Strings(out)
	return out
}

// fileSetOf builds a set directly from synthetic sizes, without touching disk.
func fileSetOf(name string, sizes ...int64) *FileSet {
	items := make([]*FileItem, len(sizes))
	for i, s := range sizes {
		rel := name + "/f" + string(rune('a'+i)) + ".dat"
		items[i] = &FileItem{Path: "/data/" + rel, RelativePath: rel, Name: filepath.Base(rel), Kind: KindFile, Size: s, Extension: ".dat"}
	}
	return newFileSet(name, "/data", items)
}
