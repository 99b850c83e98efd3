// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package staging

import (
	"fmt"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/fileset"
)

const (
	TempDirPrefix = "fileset_"
	ManifestName  = "path_mapping.xlsx"
	ManifestSheet = "filemap"
)

// StagedFile is one artifact placed in the temp folder and one manifest row.
type StagedFile struct {
	OriginalPath string
	StagedName   string
	Path         string
	Category     string
	Role         fileset.ItemRole
	Size         int64
}

// SkippedItem is a source that could not be staged.
type SkippedItem struct {
	RelativePath string
	Reason       string
}

type StageReport struct {
	TempDir      string
	ManifestPath string
	Files        []StagedFile
	Skipped      []SkippedItem
}

// StagingError aborts staging of one set.
type StagingError struct {
	Path string
	Err  error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging failed at %s: %v", e.Path, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }
