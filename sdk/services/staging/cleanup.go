// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/fileset"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

// Cleanup removes the temp folder of one set.
func (s *StagingService) Cleanup(set *fileset.FileSet) error {
	if err := os.RemoveAll(s.TempDir(set)); err != nil {
		return fmt.Errorf("cleanup %s: %w", set.Name, err)
	}
	set.TempFolderPath = ""
	set.MappingFilePath = ""
	return nil
}

// stagedDirs lists fileset_<uuid> folders of the base dir by uuid.
func (s *StagingService) stagedDirs() (map[string]string, error) {
	entries, err := os.ReadDir(s.cfg.BaseTempDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make(map[string]string)
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), TempDirPrefix) {
			continue
		}
		id := strings.TrimPrefix(e.Name(), TempDirPrefix)
		if utils.IsUUID(id) {
			out[id] = filepath.Join(s.cfg.BaseTempDir, e.Name())
		}
	}
	return out, nil
}

// CleanupAll removes every staged folder under the base dir.
func (s *StagingService) CleanupAll() (int, error) {
	dirs, err := s.stagedDirs()
	if err != nil {
		return 0, err
	}
	var errs []error
	n := 0
	for _, p := range dirs {
		if err := os.RemoveAll(p); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

// CleanupOrphans removes staged folders whose uuid is not in live and returns their uuids.
func (s *StagingService) CleanupOrphans(live []string) ([]string, error) {
	dirs, err := s.stagedDirs()
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(live))
	for _, id := range live {
		keep[id] = true
	}
	var removed []string
	var errs []error
	for id, p := range dirs {
		if keep[id] {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			errs = append(errs, err)
			continue
		}
		utils.Infof("removed orphan staging folder %s", p)
		removed = append(removed, id)
	}
	return removed, errors.Join(errs...)
}
