// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package fileset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

// document is the on-disk form of a file set, one <uuid>.json per set.
type document struct {
	ID              int            `json:"id"`
	UUID            string         `json:"uuid"`
	Name            string         `json:"name"`
	CreatedAt       time.Time      `json:"created_at"`
	BaseDirectory   string         `json:"base_directory"`
	OrganizeMethod  OrganizeMethod `json:"organize_method"`
	TempFolderPath  string         `json:"temp_folder_path"`
	MappingFilePath string         `json:"mapping_file_path"`
	DatasetID       string         `json:"dataset_id"`
	DataName        string         `json:"data_name"`
	SampleMode      SampleMode     `json:"sample_mode"`
	SampleID        string         `json:"sample_id"`
	SampleName      string         `json:"sample_name"`
	FileCount       int            `json:"file_count"`
	TotalSize       int64          `json:"total_size"`
	ItemsCount      int            `json:"items_count"`

	Metadata Metadata    `json:"metadata"`
	Items    []*FileItem `json:"items"`
}

// Store keeps file set documents in a metadata directory.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("metadata directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create metadata dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) path(uuid string) string {
	return filepath.Join(s.dir, uuid+".json")
}

func (s *Store) Save(set *FileSet) error {
	doc := document{
		ID:              set.ID,
		UUID:            set.UUID,
		Name:            set.Name,
		CreatedAt:       set.CreatedAt,
		BaseDirectory:   set.BaseDirectory,
		OrganizeMethod:  set.Organize,
		TempFolderPath:  set.TempFolderPath,
		MappingFilePath: set.MappingFilePath,
		DatasetID:       set.DatasetID,
		DataName:        set.DataName,
		SampleMode:      set.SampleMode,
		SampleID:        set.SampleID,
		SampleName:      set.SampleName,
		FileCount:       set.FileCount(),
		TotalSize:       set.TotalSize(),
		ItemsCount:      len(set.Items),
		Metadata:        set.Metadata,
		Items:           set.Items,
	}
	if err := utils.WriteJSONFile(s.path(set.UUID), doc); err != nil {
		return fmt.Errorf("save file set %s: %w", set.UUID, err)
	}
	return nil
}

func (s *Store) Delete(uuid string) error {
	err := os.Remove(s.path(uuid))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete file set %s: %w", uuid, err)
	}
	return nil
}

// LoadAll reads every document, newest created first. Unreadable documents are skipped.
func (s *Store) LoadAll() ([]*FileSet, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read metadata dir: %w", err)
	}

	var sets []*FileSet
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			utils.Warnf("cannot read %s: %v", e.Name(), err)
			continue
		}
		var doc document
		if err := json.Unmarshal(b, &doc); err != nil {
			utils.Warnf("cannot parse %s: %v", e.Name(), err)
			continue
		}
		sets = append(sets, &FileSet{
			ID:              doc.ID,
			UUID:            doc.UUID,
			Name:            doc.Name,
			BaseDirectory:   doc.BaseDirectory,
			CreatedAt:       doc.CreatedAt,
			Items:           doc.Items,
			Organize:        doc.OrganizeMethod,
			TempFolderPath:  doc.TempFolderPath,
			MappingFilePath: doc.MappingFilePath,
			Metadata:        doc.Metadata,
		})
	}

	sort.SliceStable(sets, func(i, j int) bool { return sets[i].CreatedAt.After(sets[j].CreatedAt) })
	return sets, nil
}
