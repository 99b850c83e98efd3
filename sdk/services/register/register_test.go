// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/config"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/entryapitest"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/fileset"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/services/staging"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

func quiet(t *testing.T) {
	t.Helper()
	prev := utils.SetLogOutput(io.Discard)
	t.Cleanup(func() { utils.SetLogOutput(prev) })
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// topLevelSets builds one set per top directory, each with dataset ds-1.
func topLevelSets(t *testing.T, files map[string]string) []*fileset.FileSet {
	t.Helper()
	root := writeTree(t, files)
	tree, err := fileset.BuildTree(root)
	if err != nil {
		t.Fatal(err)
	}
	sets := fileset.AssignByTopLevelDirs(root, tree)
	for _, s := range sets {
		s.DatasetID = "ds-1"
	}
	return sets
}

func newTestService(t *testing.T, opts ...Option) (*RegisterService, *entryapitest.Server, config.Config) {
	t.Helper()
	quiet(t)
	srv := entryapitest.NewServer()
	t.Cleanup(srv.Close)
	srv.Token = "secret"

	conf := config.Config{
		Core: srv.CoreConfig(),
		Staging: config.StagingConfig{
			BaseTempDir: t.TempDir(),
			OutputDir:   t.TempDir(),
		},
	}
	svc, err := NewRegisterService(context.Background(), conf, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return svc, srv, conf
}

type recordingSink struct {
	mu       sync.Mutex
	percents []int
	results  []string
	complete *BatchRegisterResult
	onResult func(name string, ok bool)
}

func (r *recordingSink) OnProgress(p int, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.percents = append(r.percents, p)
}

func (r *recordingSink) OnSetResult(name string, ok bool, _ string) {
	r.mu.Lock()
	state := "error"
	if ok {
		state = "ok"
	}
	r.results = append(r.results, name+":"+state)
	cb := r.onResult
	r.mu.Unlock()
	if cb != nil {
		cb(name, ok)
	}
}

func (r *recordingSink) OnBatchComplete(res *BatchRegisterResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.complete = res
}

const rejectBody = `{"errors":[{"status":"422","detail":"experimentId is invalid"}]}`

func TestRunBatchValidationRejected(t *testing.T) {
	svc, srv, conf := newTestService(t)
	sets := topLevelSets(t, map[string]string{"a/1.csv": "1", "b/2.csv": "22", "c/3.csv": "333"})
	sets[0].DataName, sets[1].DataName, sets[2].DataName = "one", "two", "three"
	srv.RejectValidation = func(dataName string) *entryapitest.Rejection {
		if dataName == "two" {
			return &entryapitest.Rejection{Status: http.StatusUnprocessableEntity, Body: rejectBody}
		}
		return nil
	}

	sink := &recordingSink{}
	res, err := svc.RunBatch(context.Background(), BatchRequest{Sets: sets, Sink: sink})
	if err != nil {
		t.Fatal(err)
	}

	if res.SuccessCount != 2 || res.ErrorCount != 1 || res.TotalCount != 3 {
		t.Fatalf("tally = %d/%d of %d", res.SuccessCount, res.ErrorCount, res.TotalCount)
	}
	want := []SetError{{Name: sets[1].Name, Message: rejectBody}}
	if !reflect.DeepEqual(res.Errors, want) {
		t.Errorf("errors = %+v", res.Errors)
	}
	if !reflect.DeepEqual(res.SucceededSets, []string{sets[0].Name, sets[2].Name}) {
		t.Errorf("succeeded = %v", res.SucceededSets)
	}
	if n := len(srv.Entries()); n != 2 {
		t.Errorf("entries created = %d", n)
	}
	if sink.complete != res {
		t.Error("OnBatchComplete not called with the result")
	}
	if !reflect.DeepEqual(sink.results, []string{sets[0].Name + ":ok", sets[1].Name + ":error", sets[2].Name + ":ok"}) {
		t.Errorf("set results = %v", sink.results)
	}
	for i := 1; i < len(sink.percents); i++ {
		if sink.percents[i] < sink.percents[i-1] {
			t.Fatalf("progress went backwards: %v", sink.percents)
		}
	}
	if last := sink.percents[len(sink.percents)-1]; last != 100 {
		t.Errorf("final progress = %d", last)
	}

	for _, name := range []string{utils.EntryResponseFile, utils.UploadResponseFile} {
		if _, err := os.Stat(filepath.Join(conf.Staging.OutputDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if res.SuccessRate() < 66 || res.SuccessRate() > 67 {
		t.Errorf("success rate = %f", res.SuccessRate())
	}
}

func TestRunBatchAggregateCompleteness(t *testing.T) {
	svc, srv, _ := newTestService(t)
	sets := topLevelSets(t, map[string]string{
		"a/1.csv": "1", "b/2.csv": "2", "c/3.csv": "3", "d/4.csv": "4", "e/5.csv": "5",
	})
	srv.RejectUpload = func(name string) *entryapitest.Rejection {
		if name == "2.csv" {
			return &entryapitest.Rejection{Status: http.StatusInternalServerError, Body: `{"errors":[]}`}
		}
		return nil
	}
	srv.RejectSubmit = func(dataName string) *entryapitest.Rejection {
		if dataName == sets[3].Name {
			return &entryapitest.Rejection{Status: http.StatusConflict, Body: "conflict"}
		}
		return nil
	}

	res, err := svc.RunBatch(context.Background(), BatchRequest{Sets: sets})
	if err != nil {
		t.Fatal(err)
	}
	if res.SuccessCount+res.ErrorCount != len(sets) || len(res.Errors) != res.ErrorCount {
		t.Fatalf("incomplete tally: %+v", res)
	}
	if res.ErrorCount != 2 {
		t.Errorf("errors = %+v", res.Errors)
	}
	if res.Errors[1].Message != "conflict" {
		t.Errorf("submit error = %q", res.Errors[1].Message)
	}
}

func TestRegisterFileSetUploadIsolation(t *testing.T) {
	svc, srv, _ := newTestService(t)
	sets := topLevelSets(t, map[string]string{"d/a.csv": "a", "d/b.csv": "b", "d/c.csv": "c"})
	srv.RejectUpload = func(name string) *entryapitest.Rejection {
		if name == "b.csv" {
			return &entryapitest.Rejection{Status: http.StatusInternalServerError, Body: "boom"}
		}
		return nil
	}

	res := svc.RegisterFileSet(context.Background(), SetRequest{Set: sets[0]})
	if res.Err != nil || res.State != StateSucceeded {
		t.Fatalf("state %s err %v", res.State, res.Err)
	}
	if len(res.Failures) != 1 || res.Failures[0].Name != "b.csv" {
		t.Errorf("failures = %+v", res.Failures)
	}

	var ids []string
	for _, u := range srv.Uploads() {
		ids = append(ids, u.ID)
		if u.DatasetID != "ds-1" {
			t.Errorf("upload dataset = %s", u.DatasetID)
		}
	}
	if !reflect.DeepEqual(res.DataFileIDs, ids) {
		t.Errorf("data file ids %v, uploads %v", res.DataFileIDs, ids)
	}
	refs, _ := utils.GetPath(srv.Entries()[0], "data", "relationships", "dataFiles", "data")
	if got := len(refs.([]any)); got != 2 {
		t.Errorf("payload references %d files", got)
	}
}

func TestRegisterFileSetNoDataUploaded(t *testing.T) {
	svc, srv, _ := newTestService(t)
	sets := topLevelSets(t, map[string]string{"d/a.csv": "a"})
	srv.RejectUpload = func(string) *entryapitest.Rejection {
		return &entryapitest.Rejection{Status: http.StatusBadGateway, Body: "down"}
	}

	res := svc.RegisterFileSet(context.Background(), SetRequest{Set: sets[0]})
	var ue *UploadError
	if !errors.As(res.Err, &ue) || ue.File != "" {
		t.Fatalf("err = %v", res.Err)
	}
	if res.State != StateFailed || srv.Validations() != 0 {
		t.Errorf("state %s, validations %d", res.State, srv.Validations())
	}
}

func TestPayloadShape(t *testing.T) {
	lookup := &StaticLookup{
		Datasets: map[string]map[string]any{
			"ds-1": {"data": map[string]any{
				"id": "ds-1",
				"relationships": map[string]any{
					"manager":     map[string]any{"data": map[string]any{"type": "user", "id": "owner-1"}},
					"instruments": map[string]any{"data": []any{map[string]any{"type": "instrument", "id": "inst-1"}}},
					"template":    map[string]any{"data": map[string]any{"type": "template", "id": "tpl"}},
				},
			}},
		},
		Schemas: map[string]map[string]any{"tpl": {"temperature": 20, "operator": nil}},
	}
	svc, srv, _ := newTestService(t, WithLookup(lookup))
	sets := topLevelSets(t, map[string]string{"d/a.csv": "a", "d/notes.md": "n"})
	set := sets[0]
	set.Item("d/notes.md").Role = fileset.RoleAttachment
	set.DataName = "run 1"
	set.Description = "desc"
	set.ExperimentID = "EXP-1"
	set.SampleName = "s1, s2"
	set.Tags = []string{"x"}
	set.CustomValues = map[string]any{"operator": "alice"}

	res := svc.RegisterFileSet(context.Background(), SetRequest{Set: set})
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	p := srv.Entries()[0]

	checks := map[string][]string{
		"ds-1":     {"data", "attributes", "invoice", "datasetId"},
		"owner-1":  {"data", "attributes", "invoice", "basic", "dataOwnerId"},
		"inst-1":   {"data", "attributes", "invoice", "basic", "instrumentId"},
		"run 1":    {"data", "attributes", "invoice", "basic", "dataName"},
		"EXP-1":    {"data", "attributes", "invoice", "basic", "experimentId"},
		"alice":    {"data", "attributes", "invoice", "custom", "operator"},
		"entry":    {"data", "type"},
		"upload":   {"data", "relationships", "dataFiles", "data", "type"},
		"notes.md": {"meta", "attachments", "description"},
	}
	for want, path := range checks {
		if got := utils.GetPathString(p, path...); got != want {
			t.Errorf("%s = %q, want %q", strings.Join(path, "."), got, want)
		}
	}
	if v, _ := utils.GetPath(p, "data", "attributes", "invoice", "custom", "temperature"); v != float64(20) {
		t.Errorf("schema default = %v", v)
	}
	names, _ := utils.GetPath(p, "data", "attributes", "invoice", "sample", "names")
	if !reflect.DeepEqual(names, []any{"s1", "s2"}) {
		t.Errorf("sample names = %v", names)
	}
	if len(res.DataFileIDs) != 1 || len(res.Attachments) != 1 {
		t.Errorf("ids %v attachments %v", res.DataFileIDs, res.Attachments)
	}
	if res.EntryID != "entry-1" {
		t.Errorf("entry id = %s", res.EntryID)
	}
}

func TestSameAsPreviousUsesCreatedSample(t *testing.T) {
	svc, srv, _ := newTestService(t)
	sets := topLevelSets(t, map[string]string{"a/1.csv": "1", "b/2.csv": "2"})
	sets[0].SampleName = "first"
	sets[1].SampleMode = fileset.SampleSameAsPrevious

	res, err := svc.RunBatch(context.Background(), BatchRequest{Sets: sets})
	if err != nil || res.ErrorCount != 0 {
		t.Fatalf("err %v, result %+v", err, res)
	}
	entries := srv.Entries()
	if got := utils.GetPathString(entries[1], "data", "attributes", "invoice", "sample", "sampleId"); got != "sample-1" {
		t.Errorf("second set sample = %q", got)
	}
}

func TestRunBatchPreflightBlocks(t *testing.T) {
	svc, srv, _ := newTestService(t)
	sets := topLevelSets(t, map[string]string{"a/1.csv": "1", "b/2.csv": "2"})
	sets[1].DatasetID = ""

	_, err := svc.RunBatch(context.Background(), BatchRequest{Sets: sets})
	var ve *fileset.ValidationError
	if !errors.As(err, &ve) || len(ve.Messages) != 1 {
		t.Fatalf("err = %v", err)
	}
	if len(srv.Uploads()) != 0 {
		t.Error("uploads happened before validation passed")
	}
}

func TestStartCancelBetweenSets(t *testing.T) {
	svc, srv, _ := newTestService(t)
	sets := topLevelSets(t, map[string]string{"a/1.csv": "1", "b/2.csv": "2", "c/3.csv": "3"})

	flag := &CancelFlag{}
	sink := &recordingSink{onResult: func(string, bool) { flag.Cancel() }}
	h := svc.Start(context.Background(), BatchRequest{Sets: sets, Sink: sink, Cancel: flag})
	res, err := h.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Cancelled || res.SuccessCount != 1 {
		t.Fatalf("result = %+v", res)
	}
	if !reflect.DeepEqual(res.NotAttempted, []string{sets[1].Name, sets[2].Name}) {
		t.Errorf("not attempted = %v", res.NotAttempted)
	}
	if len(srv.Entries()) != 1 {
		t.Errorf("entries = %d", len(srv.Entries()))
	}
	select {
	case <-h.Done():
	default:
		t.Error("Done not closed after Wait")
	}
}

func TestRunBatchRemovesSucceededFromManager(t *testing.T) {
	svc, srv, conf := newTestService(t)
	root := writeTree(t, map[string]string{"a/1.csv": "1", "b/2.csv": "2"})
	m, err := fileset.NewManager(conf.Staging)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.BuildTree(root); err != nil {
		t.Fatal(err)
	}
	sets, err := m.AutoAssignByTopLevelDirs()
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range sets {
		s.DatasetID = "ds-1"
	}
	srv.RejectSubmit = func(dataName string) *entryapitest.Rejection {
		if dataName == sets[1].Name {
			return &entryapitest.Rejection{Status: http.StatusInternalServerError, Body: "fail"}
		}
		return nil
	}

	if _, err := svc.RunBatch(context.Background(), BatchRequest{Sets: sets, Manager: m}); err != nil {
		t.Fatal(err)
	}
	left := m.FileSets()
	if len(left) != 1 || left[0].Name != sets[1].Name {
		t.Errorf("working list = %v", left)
	}
}

func TestRunBatchStaged(t *testing.T) {
	svc, srv, _ := newTestService(t)
	sets := topLevelSets(t, map[string]string{"d/x.csv": "x", "d/logs/a.txt": "a", "d/logs/b.txt": "b"})
	sets[0].Item("d/logs").Archive = true

	res, err := svc.RunBatch(context.Background(), BatchRequest{Sets: sets, Stage: true})
	if err != nil || res.ErrorCount != 0 {
		t.Fatalf("err %v, result %+v", err, res)
	}
	var names []string
	for _, u := range srv.Uploads() {
		names = append(names, u.FileName)
	}
	if !reflect.DeepEqual(names, []string{"logs.zip", "d__x.csv", staging.ManifestName}) {
		t.Errorf("uploaded = %v", names)
	}
	if sets[0].MappingFilePath == "" {
		t.Error("manifest path not recorded")
	}

	entry := srv.Entries()[0]
	meta, _ := entry["meta"].(map[string]any)
	list, _ := meta["attachments"].([]any)
	var described []string
	for _, a := range list {
		described = append(described, a.(map[string]any)["description"].(string))
	}
	if !reflect.DeepEqual(described, []string{"logs.zip", staging.ManifestName}) {
		t.Errorf("attachments = %v", described)
	}
	files, _ := utils.GetPath(entry, "data", "relationships", "dataFiles", "data")
	if l, _ := files.([]any); len(l) != 1 {
		t.Errorf("data files = %v", files)
	}
}

func TestTransportErrorDetail(t *testing.T) {
	svc, srv, _ := newTestService(t)
	srv.Close()

	err := svc.ValidateEntry(context.Background(), map[string]any{"data": nil})
	var ve *RemoteValidationError
	if !errors.As(err, &ve) || ve.Kind() != "validation" {
		t.Fatalf("err = %v", err)
	}
	if !strings.HasPrefix(err.Error(), "request failed") || StatusCode(err) != 0 {
		t.Errorf("detail = %q", err.Error())
	}
	if !config.IsTransportError(err) {
		t.Error("transport error not detected")
	}
}

func TestResultExport(t *testing.T) {
	r := newBatchResult(2)
	r.addSuccess("a")
	r.addError("b", errors.New("bad"))
	r.finish()

	p := filepath.Join(t.TempDir(), "result.json")
	if err := r.Export(p); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["total_filesets"] != float64(2) || doc["success_rate"] != float64(50) {
		t.Errorf("doc = %v", doc)
	}
	if utils.GetPathString(doc, "errors", "error") != "bad" {
		t.Errorf("errors = %v", doc["errors"])
	}
}
