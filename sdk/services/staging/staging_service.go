// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/config"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/fileset"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

type StagingService struct {
	cfg config.StagingConfig
}

func NewStagingService(conf config.Config) *StagingService {
	return &StagingService{cfg: conf.Staging.WithDefaults()}
}

func (s *StagingService) BaseDir() string { return s.cfg.BaseTempDir }

// TempDir is derived from the set uuid only.
func (s *StagingService) TempDir(set *fileset.FileSet) string {
	return filepath.Join(s.cfg.BaseTempDir, TempDirPrefix+set.UUID)
}

func (s *StagingService) ManifestPath(set *fileset.FileSet) string {
	return filepath.Join(s.TempDir(set), ManifestName)
}

// Stage rebuilds the temp folder of set from scratch and writes its manifest.
// Missing sources are reported in the result, not returned as errors.
func (s *StagingService) Stage(ctx context.Context, set *fileset.FileSet) (*StageReport, error) {
	if set.UUID == "" {
		return nil, errors.New("file set has no uuid")
	}
	tempDir := s.TempDir(set)

	if err := os.MkdirAll(s.cfg.BaseTempDir, 0o755); err != nil {
		return nil, &StagingError{Path: s.cfg.BaseTempDir, Err: err}
	}
	if err := os.RemoveAll(tempDir); err != nil {
		return nil, &StagingError{Path: tempDir, Err: err}
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, &StagingError{Path: tempDir, Err: err}
	}

	st := &stager{
		ctx:      ctx,
		set:      set,
		dir:      tempDir,
		used:     map[string]bool{ManifestName: true},
		excluded: excludedPaths(set),
		report:   &StageReport{TempDir: tempDir, ManifestPath: s.ManifestPath(set)},
	}

	var err error
	switch set.Organize {
	case fileset.OrganizeArchive:
		err = st.archive()
	default:
		err = st.flatten()
	}
	if err != nil {
		return nil, err
	}

	if err := writeManifest(st.report.ManifestPath, st.report.Files); err != nil {
		return nil, &StagingError{Path: st.report.ManifestPath, Err: err}
	}

	set.TempFolderPath = tempDir
	set.MappingFilePath = st.report.ManifestPath
	utils.Infof("staged %q: %d artifacts, %d skipped -> %s", set.Name, len(st.report.Files), len(st.report.Skipped), tempDir)
	return st.report, nil
}

func excludedPaths(set *fileset.FileSet) map[string]bool {
	out := make(map[string]bool)
	for _, it := range set.Items {
		if it.Excluded {
			out[it.Path] = true
		}
	}
	return out
}

// stager holds the state of one Stage run.
type stager struct {
	ctx      context.Context
	set      *fileset.FileSet
	dir      string
	used     map[string]bool
	excluded map[string]bool
	report   *StageReport
}

func (st *stager) skip(rel string, err error) {
	reason := err.Error()
	if errors.Is(err, fs.ErrNotExist) {
		reason = "source not found"
	}
	utils.Warnf("skipping %s: %v", rel, err)
	st.report.Skipped = append(st.report.Skipped, SkippedItem{RelativePath: rel, Reason: reason})
}

// uniqueName returns name, or name with _N before the extension when taken.
func (st *stager) uniqueName(name string) string {
	if !st.used[name] {
		st.used[name] = true
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		cand := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if !st.used[cand] {
			st.used[cand] = true
			return cand
		}
	}
}

func (st *stager) record(orig, name string, role fileset.ItemRole) {
	p := filepath.Join(st.dir, name)
	var size int64
	if info, err := os.Stat(p); err == nil {
		size = info.Size()
	}
	st.report.Files = append(st.report.Files, StagedFile{
		OriginalPath: orig,
		StagedName:   name,
		Path:         p,
		Category:     role.Category(),
		Role:         role,
		Size:         size,
	})
}

// copyItem copies one file under a collision safe version of name.
func (st *stager) copyItem(it *fileset.FileItem, name string) error {
	if err := st.ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(it.Path)
	if err != nil {
		st.skip(it.RelativePath, err)
		return nil
	}
	defer src.Close()

	name = st.uniqueName(name)
	dst, err := os.Create(filepath.Join(st.dir, name))
	if err != nil {
		return &StagingError{Path: filepath.Join(st.dir, name), Err: err}
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return &StagingError{Path: filepath.Join(st.dir, name), Err: err}
	}
	if err := dst.Close(); err != nil {
		return &StagingError{Path: filepath.Join(st.dir, name), Err: err}
	}
	st.record(it.RelativePath, name, it.Role)
	return nil
}

// outermostArchived returns archived directory items without an archived ancestor, in item order.
func outermostArchived(items []*fileset.FileItem) []*fileset.FileItem {
	var dirs []*fileset.FileItem
	for _, it := range items {
		if it.IsDir() && it.Archive {
			dirs = append(dirs, it)
		}
	}
	var out []*fileset.FileItem
	for _, d := range dirs {
		nested := false
		for _, o := range dirs {
			if fileset.IsUnder(d.RelativePath, o.RelativePath) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, d)
		}
	}
	return out
}

func underAny(rel string, dirs []*fileset.FileItem) bool {
	for _, d := range dirs {
		if fileset.IsUnder(rel, d.RelativePath) {
			return true
		}
	}
	return false
}
