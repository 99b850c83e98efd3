// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package fileset

import "github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"

type archiveTarget struct {
	dir   string
	owner *FileSet
}

// Resolve prunes, from every set, items already enclosed in a directory
// archived by another set, and drops sets left empty. Sets are pruned in place.
func Resolve(sets []*FileSet) []*FileSet {
	var targets []archiveTarget
	for _, fs := range sets {
		for _, it := range fs.ValidItems() {
			if it.IsDir() && it.Archive {
				targets = append(targets, archiveTarget{dir: it.RelativePath, owner: fs})
			}
		}
	}
	if len(targets) == 0 {
		return sets
	}

	out := make([]*FileSet, 0, len(sets))
	for _, fs := range sets {
		kept := fs.Items[:0:0]
		for _, it := range fs.Items {
			if t, ok := enclosingForeignArchive(fs, it, targets); ok {
				utils.Infof("removing %s from %q: already archived in %s of %q", it.RelativePath, fs.Name, t.dir, t.owner.Name)
				continue
			}
			kept = append(kept, it)
		}
		fs.Items = kept
		if len(fs.Items) == 0 {
			utils.Infof("dropping file set %q: no items left after archive conflict resolution", fs.Name)
			continue
		}
		out = append(out, fs)
	}
	return out
}

func enclosingForeignArchive(fs *FileSet, it *FileItem, targets []archiveTarget) (archiveTarget, bool) {
	for _, t := range targets {
		if t.owner == fs {
			continue
		}
		if it.RelativePath != t.dir && !IsUnder(it.RelativePath, t.dir) {
			continue
		}
		if fs.archivesCovering(t.dir) {
			continue
		}
		return t, true
	}
	return archiveTarget{}, false
}

// archivesCovering reports whether fs itself archives dir or one of its ancestors.
func (fs *FileSet) archivesCovering(dir string) bool {
	for _, it := range fs.ValidItems() {
		if it.IsDir() && it.Archive && (it.RelativePath == dir || IsUnder(dir, it.RelativePath)) {
			return true
		}
	}
	return false
}
