// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package fileset

import (
	"fmt"
	"time"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

type OrganizeMethod int

const (
	OrganizeFlatten OrganizeMethod = iota
	OrganizeArchive
)

func (o OrganizeMethod) String() string {
	if o == OrganizeArchive {
		return "archive"
	}
	return "flatten"
}

func ParseOrganizeMethod(s string) (OrganizeMethod, error) {
	switch s {
	case "flatten", "":
		return OrganizeFlatten, nil
	case "archive", "zip":
		return OrganizeArchive, nil
	}
	return OrganizeFlatten, fmt.Errorf("unknown organize method %q", s)
}

func (o OrganizeMethod) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *OrganizeMethod) UnmarshalText(b []byte) error {
	v, err := ParseOrganizeMethod(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

type SampleMode int

const (
	SampleNew SampleMode = iota
	SampleExisting
	SampleSameAsPrevious
)

func (m SampleMode) String() string {
	switch m {
	case SampleExisting:
		return "existing"
	case SampleSameAsPrevious:
		return "same_as_previous"
	}
	return "new"
}

func ParseSampleMode(s string) (SampleMode, error) {
	switch s {
	case "new", "":
		return SampleNew, nil
	case "existing":
		return SampleExisting, nil
	case "same_as_previous":
		return SampleSameAsPrevious, nil
	}
	return SampleNew, fmt.Errorf("unknown sample mode %q", s)
}

func (m SampleMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *SampleMode) UnmarshalText(b []byte) error {
	v, err := ParseSampleMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Metadata is what gets registered alongside the files of a set.
type Metadata struct {
	DatasetID   string         `json:"dataset_id,omitempty"`
	DatasetInfo map[string]any `json:"dataset_info,omitempty"`

	DataName     string   `json:"data_name,omitempty"`
	Description  string   `json:"description,omitempty"`
	ExperimentID string   `json:"experiment_id,omitempty"`
	ReferenceURL string   `json:"reference_url,omitempty"`
	Tags         []string `json:"tags,omitempty"`

	SampleMode        SampleMode `json:"sample_mode"`
	SampleID          string     `json:"sample_id,omitempty"`
	SampleName        string     `json:"sample_name,omitempty"`
	SampleDescription string     `json:"sample_description,omitempty"`
	SampleComposition string     `json:"sample_composition,omitempty"`

	CustomValues map[string]any `json:"custom_values,omitempty"`
}

func (m Metadata) Clone() Metadata {
	c := m
	c.Tags = append([]string(nil), m.Tags...)
	if m.DatasetInfo != nil {
		c.DatasetInfo = utils.MergeMaps(m.DatasetInfo, nil, nil)
	}
	if m.CustomValues != nil {
		c.CustomValues = utils.MergeMaps(m.CustomValues, nil, nil)
	}
	return c
}

// FileSet is the registration unit: a named ordered list of items plus metadata.
type FileSet struct {
	ID            int
	UUID          string
	Name          string
	BaseDirectory string
	CreatedAt     time.Time
	Items         []*FileItem
	Organize      OrganizeMethod

	// set once the set has been staged
	TempFolderPath  string
	MappingFilePath string

	Metadata
}

func newFileSet(name, baseDir string, items []*FileItem) *FileSet {
	return &FileSet{
		UUID:          utils.NewUUID(),
		Name:          name,
		BaseDirectory: baseDir,
		CreatedAt:     time.Now(),
		Items:         items,
	}
}

// ValidItems returns the non-excluded items in order.
func (fs *FileSet) ValidItems() []*FileItem {
	out := make([]*FileItem, 0, len(fs.Items))
	for _, it := range fs.Items {
		if !it.Excluded {
			out = append(out, it)
		}
	}
	return out
}

// Files returns the non-excluded file items in order.
func (fs *FileSet) Files() []*FileItem {
	out := make([]*FileItem, 0, len(fs.Items))
	for _, it := range fs.Items {
		if !it.Excluded && !it.IsDir() {
			out = append(out, it)
		}
	}
	return out
}

func (fs *FileSet) FileCount() int { return len(fs.Files()) }

func (fs *FileSet) TotalSize() int64 {
	var n int64
	for _, it := range fs.Files() {
		n += it.Size
	}
	return n
}

// EffectiveDataName falls back to the set name.
func (fs *FileSet) EffectiveDataName() string {
	if fs.DataName != "" {
		return fs.DataName
	}
	return fs.Name
}

// Item finds an item by relative path.
func (fs *FileSet) Item(rel string) *FileItem {
	for _, it := range fs.Items {
		if it.RelativePath == rel {
			return it
		}
	}
	return nil
}

// SetArchive flags a directory item for zipping, adding it when the set
// only holds its files.
func (fs *FileSet) SetArchive(dir *FileItem, archive bool) {
	if it := fs.Item(dir.RelativePath); it != nil {
		it.Archive = archive
		return
	}
	c := dir.Clone()
	c.Archive = archive
	fs.Items = append(fs.Items, c)
}

// Clone copies the set with fresh item copies. ID and UUID are kept.
func (fs *FileSet) Clone() *FileSet {
	c := *fs
	c.Metadata = fs.Metadata.Clone()
	c.Items = cloneItems(fs.Items)
	return &c
}

func cloneItems(items []*FileItem) []*FileItem {
	out := make([]*FileItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

func (fs *FileSet) String() string {
	return fmt.Sprintf("%s (%d files, %s, %s)", fs.Name, fs.FileCount(), utils.HumanSize(fs.TotalSize()), fs.Organize)
}
