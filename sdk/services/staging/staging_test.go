// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package staging

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/config"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/fileset"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

func setup(t *testing.T, files map[string]int) (*StagingService, *fileset.FileSet) {
	t.Helper()
	prev := utils.SetLogOutput(io.Discard)
	t.Cleanup(func() { utils.SetLogOutput(prev) })

	root := t.TempDir()
	for rel, size := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(strings.Repeat("x", size)), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	tree, err := fileset.BuildTree(root)
	if err != nil {
		t.Fatal(err)
	}
	sets := fileset.AssignAllAsOne(root, tree)
	if len(sets) != 1 {
		t.Fatalf("got %d sets", len(sets))
	}
	svc := NewStagingService(config.Config{Staging: config.StagingConfig{BaseTempDir: t.TempDir()}})
	return svc, sets[0]
}

func stagedNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if e.Name() != ManifestName {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func zipEntries(t *testing.T, p string) []string {
	t.Helper()
	rc, err := zip.OpenReader(p)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	var names []string
	for _, f := range rc.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestStageFlattenScenario(t *testing.T) {
	svc, set := setup(t, map[string]int{"a.txt": 10, "sub/b.txt": 20})

	report, err := svc.Stage(context.Background(), set)
	if err != nil {
		t.Fatal(err)
	}
	if got := stagedNames(t, report.TempDir); !reflect.DeepEqual(got, []string{"a.txt", "sub__b.txt"}) {
		t.Errorf("staged = %v", got)
	}
	if report.TempDir != filepath.Join(svc.BaseDir(), "fileset_"+set.UUID) {
		t.Errorf("temp dir = %s", report.TempDir)
	}
	if set.TempFolderPath != report.TempDir || set.MappingFilePath != report.ManifestPath {
		t.Error("set paths not updated")
	}

	rows, err := ReadManifest(report.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}
	want := []ManifestRow{
		{OriginalPath: "a.txt", FlattenedName: "a.txt", FileType: fileset.CategoryData, FileSize: 10},
		{OriginalPath: "sub/b.txt", FlattenedName: "sub__b.txt", FileType: fileset.CategoryData, FileSize: 20},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("manifest = %+v", rows)
	}
}

func TestStageIdempotent(t *testing.T) {
	svc, set := setup(t, map[string]int{"a.txt": 10, "sub/b.txt": 20, "sub/c.txt": 3})
	set.Item("sub").Archive = true

	first, err := svc.Stage(context.Background(), set)
	if err != nil {
		t.Fatal(err)
	}
	m1, err := os.ReadFile(first.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(first.TempDir, "stale.bin"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	second, err := svc.Stage(context.Background(), set)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := os.ReadFile(second.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}

	if first.TempDir != second.TempDir || first.ManifestPath != second.ManifestPath {
		t.Errorf("paths changed: %s %s", first.TempDir, second.TempDir)
	}
	if !bytes.Equal(m1, m2) {
		t.Error("manifest bytes differ between runs")
	}
	if got := stagedNames(t, second.TempDir); !reflect.DeepEqual(got, []string{"a.txt", "sub.zip"}) {
		t.Errorf("staged = %v (stale files must go)", got)
	}
}

func TestStageFlattenArchivedAndCollisions(t *testing.T) {
	svc, set := setup(t, map[string]int{
		"logs/a.txt":     1,
		"logs/sub/b.txt": 2,
		"x/y.txt":        3,
		"x__y.txt":       4,
		"skip/me.txt":    5,
	})
	set.Item("logs").Archive = true
	set.Item("skip/me.txt").Excluded = true

	report, err := svc.Stage(context.Background(), set)
	if err != nil {
		t.Fatal(err)
	}
	if got := stagedNames(t, report.TempDir); !reflect.DeepEqual(got, []string{"logs.zip", "x__y.txt", "x__y_1.txt"}) {
		t.Fatalf("staged = %v", got)
	}
	if got := zipEntries(t, filepath.Join(report.TempDir, "logs.zip")); !reflect.DeepEqual(got, []string{"a.txt", "sub/b.txt"}) {
		t.Errorf("zip entries = %v", got)
	}
	if report.Files[0].OriginalPath != "logs" || report.Files[0].StagedName != "logs.zip" {
		t.Errorf("archive must be staged first: %+v", report.Files[0])
	}
}

func TestStageArchiveMode(t *testing.T) {
	svc, set := setup(t, map[string]int{
		"readme.txt":       1,
		"docs/a.md":        2,
		"docs/img/b.png":   3,
		"data/one.csv":     4,
		"data/raw/two.csv": 5,
	})
	set.Organize = fileset.OrganizeArchive
	docs := set.Item("docs")
	docs.Archive = true

	report, err := svc.Stage(context.Background(), set)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"data_one.csv", "data_raw_two.csv", "docs.zip", "readme.txt"}
	if got := stagedNames(t, report.TempDir); !reflect.DeepEqual(got, want) {
		t.Fatalf("staged = %v, want %v", got, want)
	}
	if got := zipEntries(t, filepath.Join(report.TempDir, "docs.zip")); !reflect.DeepEqual(got, []string{"a.md", "img/b.png"}) {
		t.Errorf("zip entries = %v", got)
	}

	rows, err := ReadManifest(report.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}
	cats := map[string]string{}
	for _, r := range rows {
		cats[r.FlattenedName] = r.FileType
	}
	if cats["docs.zip"] != fileset.CategoryAttachment || cats["data_one.csv"] != fileset.CategoryData {
		t.Errorf("categories = %v", cats)
	}
}

func TestStageZippedDirectoryIsAttachment(t *testing.T) {
	for _, organize := range []fileset.OrganizeMethod{fileset.OrganizeArchive, fileset.OrganizeFlatten} {
		t.Run(organize.String(), func(t *testing.T) {
			svc, set := setup(t, map[string]int{"docs/a.md": 2, "x.csv": 1})
			fileset.ClassifyByExtension(set.Items)
			set.Organize = organize
			set.Item("docs").Archive = true

			report, err := svc.Stage(context.Background(), set)
			if err != nil {
				t.Fatal(err)
			}
			rows, err := ReadManifest(report.ManifestPath)
			if err != nil {
				t.Fatal(err)
			}
			cats := map[string]string{}
			for _, r := range rows {
				cats[r.OriginalPath] = r.FileType
			}
			if cats["docs"] != fileset.CategoryAttachment || cats["x.csv"] != fileset.CategoryData {
				t.Errorf("categories = %v", cats)
			}
		})
	}
}

func TestStageSkipsMissingSource(t *testing.T) {
	svc, set := setup(t, map[string]int{"a.txt": 1, "b.txt": 2})
	if err := os.Remove(set.Item("b.txt").Path); err != nil {
		t.Fatal(err)
	}

	report, err := svc.Stage(context.Background(), set)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Files) != 1 || len(report.Skipped) != 1 {
		t.Fatalf("files=%d skipped=%d", len(report.Files), len(report.Skipped))
	}
	if report.Skipped[0].RelativePath != "b.txt" || report.Skipped[0].Reason != "source not found" {
		t.Errorf("skipped = %+v", report.Skipped[0])
	}
}

func TestStageBaseDirFailure(t *testing.T) {
	_, set := setup(t, map[string]int{"a.txt": 1})
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	svc := NewStagingService(config.Config{Staging: config.StagingConfig{BaseTempDir: filepath.Join(blocker, "tmp")}})

	_, err := svc.Stage(context.Background(), set)
	var se *StagingError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StagingError", err)
	}
}

func TestCleanupOrphans(t *testing.T) {
	svc, set := setup(t, map[string]int{"a.txt": 1})
	other := set.Clone()
	other.UUID = utils.NewUUID()

	for _, s := range []*fileset.FileSet{set, other} {
		if _, err := svc.Stage(context.Background(), s); err != nil {
			t.Fatal(err)
		}
	}
	foreign := filepath.Join(svc.BaseDir(), "fileset_not-a-uuid")
	if err := os.MkdirAll(foreign, 0o755); err != nil {
		t.Fatal(err)
	}

	removed, err := svc.CleanupOrphans([]string{set.UUID})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(removed, []string{other.UUID}) {
		t.Errorf("removed = %v", removed)
	}
	if _, err := os.Stat(svc.TempDir(set)); err != nil {
		t.Error("live staging folder removed")
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Error("unrelated folder removed")
	}

	n, err := svc.CleanupAll()
	if err != nil || n != 1 {
		t.Errorf("CleanupAll = %d, %v", n, err)
	}
	if err := svc.Cleanup(set); err != nil || set.TempFolderPath != "" {
		t.Errorf("Cleanup: %v", err)
	}
}
