// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package staging

import (
	"sort"
	"strings"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/fileset"
)

// flatten zips archived directories, then copies every other file with "/" joined as "__".
func (st *stager) flatten() error {
	items := st.set.ValidItems()
	archived := outermostArchived(items)

	for _, d := range archived {
		if err := st.zipDir(d, d.Name+".zip"); err != nil {
			return err
		}
	}
	for _, it := range items {
		if it.IsDir() || underAny(it.RelativePath, archived) {
			continue
		}
		if err := st.copyItem(it, strings.ReplaceAll(it.RelativePath, "/", "__")); err != nil {
			return err
		}
	}
	return nil
}

// archive copies root files as they are and handles each top level directory
// as a group: zipped whole when its directory is flagged, file by file otherwise.
func (st *stager) archive() error {
	items := st.set.ValidItems()

	groups := make(map[string][]*fileset.FileItem)
	var tops []string
	for _, it := range items {
		if it.Depth() == 0 && !it.IsDir() {
			if err := st.copyItem(it, it.Name); err != nil {
				return err
			}
			continue
		}
		top := it.TopLevel()
		if _, ok := groups[top]; !ok {
			tops = append(tops, top)
		}
		groups[top] = append(groups[top], it)
	}
	sort.Strings(tops)

	for _, top := range tops {
		group := groups[top]
		if head := groupDir(group, top); head != nil && head.Archive {
			if err := st.zipDir(head, top+".zip"); err != nil {
				return err
			}
			continue
		}

		archived := outermostArchived(group)
		for _, d := range archived {
			if err := st.zipDir(d, d.Name+".zip"); err != nil {
				return err
			}
		}
		for _, it := range group {
			if it.IsDir() || underAny(it.RelativePath, archived) {
				continue
			}
			if err := st.copyItem(it, strings.ReplaceAll(it.RelativePath, "/", "_")); err != nil {
				return err
			}
		}
	}
	return nil
}

func groupDir(group []*fileset.FileItem, top string) *fileset.FileItem {
	for _, it := range group {
		if it.IsDir() && it.RelativePath == top {
			return it
		}
	}
	return nil
}
