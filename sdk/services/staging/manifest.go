// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package staging

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
	"github.com/xuri/excelize/v2"
)

var manifestHeader = []any{"original_path", "flattened_name", "file_type", "file_size", "size_mb"}

// fixed timestamp so that the same rows always give the same bytes
var manifestEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type ManifestRow struct {
	OriginalPath  string
	FlattenedName string
	FileType      string
	FileSize      int64
	SizeMB        float64
}

func sizeMB(n int64) float64 {
	return math.Round(float64(n)/(1024*1024)*100) / 100
}

// writeManifest writes the whole manifest; it is never patched.
func writeManifest(p string, files []StagedFile) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ManifestSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(ManifestSheet, "A1", &manifestHeader); err != nil {
		return err
	}
	for i, sf := range files {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{sf.OriginalPath, sf.StagedName, sf.Category, sf.Size, sizeMB(sf.Size)}
		if err := f.SetSheetRow(ManifestSheet, cell, &row); err != nil {
			return err
		}
	}
	stamp := manifestEpoch.Format(time.RFC3339)
	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:        "fileset-register",
		LastModifiedBy: "fileset-register",
		Created:        stamp,
		Modified:       stamp,
		Title:          ManifestSheet,
	}); err != nil {
		return err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return err
	}
	b, err := canonicalZip(buf.Bytes())
	if err != nil {
		return fmt.Errorf("normalize manifest: %w", err)
	}
	return utils.WriteFileAtomic(p, b)
}

// canonicalZip rewrites a zip container with sorted entries and fixed times.
func canonicalZip(src []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return nil, err
	}
	entries := append([]*zip.File(nil), zr.File...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: zip.Deflate, Modified: manifestEpoch})
		if err != nil {
			return nil, err
		}
		r, err := e.Open()
		if err != nil {
			return nil, err
		}
		_, err = io.Copy(w, r)
		r.Close()
		if err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// ReadManifest loads the rows of a manifest written by Stage.
func ReadManifest(p string) ([]ManifestRow, error) {
	f, err := excelize.OpenFile(p)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ManifestSheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("manifest %s has no header", p)
	}

	out := make([]ManifestRow, 0, len(rows)-1)
	for i, r := range rows[1:] {
		if len(r) < len(manifestHeader) {
			return nil, fmt.Errorf("manifest row %d: %d columns", i+2, len(r))
		}
		size, err := strconv.ParseInt(r[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("manifest row %d: file_size: %w", i+2, err)
		}
		mb, err := strconv.ParseFloat(r[4], 64)
		if err != nil {
			return nil, fmt.Errorf("manifest row %d: size_mb: %w", i+2, err)
		}
		out = append(out, ManifestRow{OriginalPath: r[0], FlattenedName: r[1], FileType: r[2], FileSize: size, SizeMB: mb})
	}
	return out, nil
}
