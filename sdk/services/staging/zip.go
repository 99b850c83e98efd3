// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/fileset"
)

// zipDir archives the subtree of d from disk with paths relative to d.
// Files the set marks as excluded are left out. The zip is always an attachment.
func (st *stager) zipDir(d *fileset.FileItem, name string) error {
	if err := st.ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(d.Path)
	if err != nil {
		st.skip(d.RelativePath, err)
		return nil
	}
	if !info.IsDir() {
		st.skip(d.RelativePath, fmt.Errorf("%s is not a directory", d.Path))
		return nil
	}

	name = st.uniqueName(name)
	target := filepath.Join(st.dir, name)
	out, err := os.Create(target)
	if err != nil {
		return &StagingError{Path: target, Err: err}
	}
	zw := zip.NewWriter(out)

	walkErr := filepath.WalkDir(d.Path, func(p string, e fs.DirEntry, werr error) error {
		if p == d.Path {
			return werr
		}
		rel, err := filepath.Rel(d.Path, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if werr != nil {
			st.skip(path.Join(d.RelativePath, rel), werr)
			if e != nil && e.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if e.IsDir() {
			if st.excluded[p] {
				return filepath.SkipDir
			}
			return nil
		}
		if st.excluded[p] {
			return nil
		}
		if err := st.ctx.Err(); err != nil {
			return err
		}
		return st.addZipEntry(zw, p, rel, path.Join(d.RelativePath, rel))
	})

	closeErr := zw.Close()
	if err := out.Close(); closeErr == nil {
		closeErr = err
	}
	if walkErr != nil {
		os.Remove(target)
		var se *StagingError
		if errors.As(walkErr, &se) {
			return walkErr
		}
		if st.ctx.Err() != nil {
			return st.ctx.Err()
		}
		return &StagingError{Path: target, Err: walkErr}
	}
	if closeErr != nil {
		return &StagingError{Path: target, Err: closeErr}
	}
	st.record(d.RelativePath, name, fileset.RoleAttachment)
	return nil
}

func (st *stager) addZipEntry(zw *zip.Writer, src, name, itemRel string) error {
	f, err := os.Open(src)
	if err != nil {
		st.skip(itemRel, err)
		return nil
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		st.skip(itemRel, err)
		return nil
	}

	hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: info.ModTime().UTC()}
	hdr.SetMode(info.Mode())
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return &StagingError{Path: name, Err: err}
	}
	if _, err := io.Copy(w, f); err != nil {
		return &StagingError{Path: name, Err: err}
	}
	return nil
}
