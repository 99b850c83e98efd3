// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package fileset

import (
	"fmt"
	"sort"
)

// Split packs the files of fs into sets of at most capacity bytes, largest
// files first. A file larger than capacity gets a set of its own.
// The input set is returned unchanged when it already fits.
func Split(fs *FileSet, capacity int64) []*FileSet {
	if capacity <= 0 || fs.TotalSize() <= capacity {
		return []*FileSet{fs}
	}

	files := fs.Files()
	sort.SliceStable(files, func(i, j int) bool { return files[i].Size > files[j].Size })

	var (
		out                []*FileSet
		bucket             []*FileItem
		bucketSize         int64
		splitN, oversizedN int
	)
	child := func(name string, items []*FileItem) *FileSet {
		c := newFileSet(name, fs.BaseDirectory, cloneItems(items))
		c.Organize = fs.Organize
		c.Metadata = fs.Metadata.Clone()
		return c
	}
	seal := func() {
		if len(bucket) == 0 {
			return
		}
		splitN++
		out = append(out, child(fmt.Sprintf("%s_分割%d", fs.Name, splitN), bucket))
		bucket, bucketSize = nil, 0
	}

	for _, f := range files {
		if f.Size > capacity {
			oversizedN++
			out = append(out, child(fmt.Sprintf("%s_大容量%d", fs.Name, oversizedN), []*FileItem{f}))
			continue
		}
		if bucketSize+f.Size > capacity {
			seal()
		}
		bucket = append(bucket, f)
		bucketSize += f.Size
	}
	seal()

	// archived directories follow the first child holding one of their files
	for _, it := range fs.ValidItems() {
		if !it.IsDir() || !it.Archive {
			continue
		}
		for _, c := range out {
			if c.hasDescendant(it.RelativePath) {
				c.Items = append(c.Items, it.Clone())
				break
			}
		}
	}
	return out
}

func (fs *FileSet) hasDescendant(dir string) bool {
	for _, it := range fs.Items {
		if IsUnder(it.RelativePath, dir) {
			return true
		}
	}
	return false
}
