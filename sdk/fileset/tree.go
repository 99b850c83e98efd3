// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package fileset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

// BuildTree walks baseDir into a flat list of items sorted by relative path.
func BuildTree(baseDir string) ([]*FileItem, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", baseDir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: baseDir}
		}
		return nil, fmt.Errorf("stat %s: %w", baseDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", baseDir)
	}

	var items []*FileItem
	dirs := make(map[string]*FileItem)

	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, werr error) error {
		if p == abs {
			return werr
		}
		if werr != nil {
			utils.Warnf("skipping %s: %v", p, werr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(abs, p)
		if err != nil {
			return err
		}
		item := &FileItem{
			Path:         p,
			RelativePath: filepath.ToSlash(rel),
			Name:         d.Name(),
		}
		if d.IsDir() {
			item.Kind = KindDirectory
			dirs[item.RelativePath] = item
		} else {
			item.Kind = KindFile
			item.Extension = strings.ToLower(filepath.Ext(d.Name()))
			if st, err := os.Stat(p); err == nil {
				item.Size = st.Size()
			}
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", baseDir, err)
	}

	for _, it := range items {
		if it.IsDir() {
			continue
		}
		for dir := parentOf(it.RelativePath); dir != ""; dir = parentOf(dir) {
			if d, ok := dirs[dir]; ok {
				d.ChildCount++
			}
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].RelativePath < items[j].RelativePath })
	return items, nil
}
