// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package fileset

import (
	"fmt"
	"path"
	"strings"
)

type FileKind int

const (
	KindFile FileKind = iota
	KindDirectory
)

func (k FileKind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

func ParseFileKind(s string) (FileKind, error) {
	switch s {
	case "file":
		return KindFile, nil
	case "directory":
		return KindDirectory, nil
	}
	return KindFile, fmt.Errorf("unknown file kind %q", s)
}

func (k FileKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *FileKind) UnmarshalText(b []byte) error {
	v, err := ParseFileKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

type ItemRole int

const (
	RoleData ItemRole = iota
	RoleAttachment
)

func (r ItemRole) String() string {
	if r == RoleAttachment {
		return "attachment"
	}
	return "data"
}

// Category is the manifest label of the role.
func (r ItemRole) Category() string {
	if r == RoleAttachment {
		return CategoryAttachment
	}
	return CategoryData
}

func ParseItemRole(s string) (ItemRole, error) {
	switch s {
	case "data":
		return RoleData, nil
	case "attachment":
		return RoleAttachment, nil
	}
	return RoleData, fmt.Errorf("unknown item role %q", s)
}

func (r ItemRole) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *ItemRole) UnmarshalText(b []byte) error {
	v, err := ParseItemRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

const (
	CategoryData       = "データファイル"
	CategoryAttachment = "添付ファイル"
)

// FileItem is one filesystem entry of a tree or a file set.
// RelativePath always uses forward slashes.
type FileItem struct {
	Path         string   `json:"path"`
	RelativePath string   `json:"relative_path"`
	Name         string   `json:"name"`
	Kind         FileKind `json:"file_type"`
	Extension    string   `json:"extension,omitempty"`
	Size         int64    `json:"size,omitempty"`
	ChildCount   int      `json:"child_count,omitempty"`
	Excluded     bool     `json:"is_excluded"`
	Role         ItemRole `json:"role"`
	Archive      bool     `json:"archive,omitempty"`
}

func (it *FileItem) IsDir() bool { return it.Kind == KindDirectory }

func (it *FileItem) Clone() *FileItem {
	c := *it
	return &c
}

// Depth is the number of separators in the relative path.
func (it *FileItem) Depth() int {
	return strings.Count(it.RelativePath, "/")
}

// TopLevel returns the first segment of the relative path.
func (it *FileItem) TopLevel() string {
	if i := strings.IndexByte(it.RelativePath, '/'); i >= 0 {
		return it.RelativePath[:i]
	}
	return it.RelativePath
}

// IsUnder reports whether rel lies strictly below dir.
func IsUnder(rel, dir string) bool {
	return dir != "" && strings.HasPrefix(rel, dir+"/")
}

func parentOf(rel string) string {
	p := path.Dir(rel)
	if p == "." {
		return ""
	}
	return p
}

var dataExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
	".txt":  true,
	".dat":  true,
	".json": true,
	".xml":  true,
	".h5":   true,
	".hdf5": true,
	".nc":   true,
	".cdf":  true,
	".mat":  true,
	".npz":  true,
	".npy":  true,
}

// ClassifyByExtension sets the role of every file item from its extension.
// Directories are left untouched.
func ClassifyByExtension(items []*FileItem) {
	for _, it := range items {
		if it.IsDir() {
			continue
		}
		if dataExtensions[it.Extension] {
			it.Role = RoleData
		} else {
			it.Role = RoleAttachment
		}
	}
}
