// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package fileset

import "fmt"

// ValidateFileSets reports empty sets and files claimed by more than one set.
func ValidateFileSets(sets []*FileSet) []string {
	var msgs []string
	owner := make(map[string]string)
	reported := make(map[string]bool)

	for _, fs := range sets {
		valid := fs.ValidItems()
		if len(valid) == 0 {
			msgs = append(msgs, fmt.Sprintf("file set %q contains no valid items", fs.Name))
			continue
		}
		for _, it := range valid {
			if it.IsDir() {
				continue
			}
			prev, ok := owner[it.Path]
			if !ok {
				owner[it.Path] = fs.Name
				continue
			}
			if !reported[it.Path] {
				reported[it.Path] = true
				msgs = append(msgs, fmt.Sprintf("file %q is included in more than one file set (%q, %q)", it.RelativePath, prev, fs.Name))
			}
		}
	}
	return msgs
}
