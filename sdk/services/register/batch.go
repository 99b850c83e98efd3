// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"context"
	"fmt"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/fileset"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

// RegisterFileSet runs upload, validation and submission for one set.
// The returned result always carries the final state; Err is set when it failed.
func (s *RegisterService) RegisterFileSet(ctx context.Context, req SetRequest) *SetResult {
	set := req.Set
	res := &SetResult{Name: set.Name, State: StatePending}
	fail := func(err error) *SetResult {
		res.State = StateFailed
		res.Err = err
		return res
	}

	ref, err := sampleFor(set, req.Previous)
	if err != nil {
		return fail(err)
	}
	res.Sample = ref

	res.State = StateUploading
	targets, err := s.targets(ctx, set, req.Stage)
	if err != nil {
		return fail(err)
	}
	up, err := s.uploadAll(ctx, set.DatasetID, targets, req)
	res.Failures = up.failures
	res.DataFileIDs = up.dataIDs
	for _, a := range up.attachments {
		res.Attachments = append(res.Attachments, a.UploadID)
	}
	if err != nil {
		return fail(err)
	}

	payload, err := s.buildPayload(ctx, set, ref, up)
	if err != nil {
		return fail(err)
	}

	res.State = StateValidating
	if err := s.ValidateEntry(ctx, payload); err != nil {
		return fail(err)
	}

	res.State = StateSubmitting
	body, err := s.CreateEntry(ctx, payload)
	if err != nil {
		return fail(err)
	}
	res.Response = body
	res.State = StateSucceeded

	entryID, sampleID, err := parseEntryResponse(body)
	if err != nil {
		utils.Warnf("%s: %v", set.Name, err)
	}
	res.EntryID = entryID
	if ref.ID == "" && sampleID != "" {
		created := *ref
		created.Mode = fileset.SampleExisting
		created.ID = sampleID
		res.Sample = &created
	}

	if s.mirror != nil {
		if err := s.mirror.Mirror(ctx, set, body); err != nil {
			utils.Warnf("audit mirror for %s: %v", set.Name, err)
		}
	}
	utils.Infof("registered %s (entry %s, %d files, %d attachments, %d failed uploads)",
		set.Name, entryID, len(res.DataFileIDs), len(res.Attachments), len(res.Failures))
	return res
}

// RunBatch registers sets one after the other. Pre-flight validation errors
// are returned before anything is uploaded; per-set failures land in the result.
func (s *RegisterService) RunBatch(ctx context.Context, req BatchRequest) (*BatchRegisterResult, error) {
	msgs := fileset.ValidateFileSets(req.Sets)
	msgs = append(msgs, ValidateForRegistration(ctx, req.Sets, s.lookup)...)
	if len(msgs) > 0 {
		return nil, &fileset.ValidationError{Messages: msgs}
	}

	sink := req.Sink
	if sink == nil {
		sink = NopSink{}
	}
	n := len(req.Sets)
	result := newBatchResult(n)

	var prev *SampleRef
	for i, set := range req.Sets {
		if cancelled(ctx, req.Cancel) {
			result.cancel(req.Sets[i:])
			break
		}
		sink.OnProgress(percent(i, 0, n), fmt.Sprintf("%s (%d/%d)", set.Name, i+1, n))

		setIdx := i
		res := s.RegisterFileSet(ctx, SetRequest{
			Set:          set,
			Stage:        req.Stage,
			Previous:     prev,
			Cancel:       req.Cancel,
			FileProgress: req.FileProgress,
			OnFile: func(done, total int, name string) {
				sink.OnProgress(percent(setIdx, float64(done)/float64(total), n), fmt.Sprintf("%s: %s (%d/%d)", set.Name, name, done, total))
			},
		})
		if res.Sample != nil {
			prev = res.Sample
		}

		if res.Err != nil {
			utils.Errorf("%s: %v", set.Name, res.Err)
			result.addError(set.Name, res.Err)
			sink.OnSetResult(set.Name, false, res.Err.Error())
		} else {
			result.addSuccess(set.Name)
			sink.OnSetResult(set.Name, true, res.EntryID)
			if req.Manager != nil {
				if err := req.Manager.RemoveFileSet(set.ID); err != nil {
					utils.Warnf("could not drop %s from the working list: %v", set.Name, err)
				}
			}
		}
		sink.OnProgress(percent(i+1, 0, n), fmt.Sprintf("%s done (%d/%d)", set.Name, i+1, n))
	}

	result.finish()
	sink.OnBatchComplete(result)
	return result, nil
}

func percent(done int, frac float64, total int) int {
	if total == 0 {
		return 100
	}
	return int((float64(done) + frac) * 100 / float64(total))
}

// BatchHandle tracks a batch running on its worker goroutine.
type BatchHandle struct {
	flag   *CancelFlag
	done   chan struct{}
	result *BatchRegisterResult
	err    error
}

// Start runs RunBatch on a single worker goroutine. A Cancel token in req is
// honoured together with the handle's own.
func (s *RegisterService) Start(ctx context.Context, req BatchRequest) *BatchHandle {
	h := &BatchHandle{flag: &CancelFlag{}, done: make(chan struct{})}
	outer := req.Cancel
	req.Cancel = anyCancel{h.flag, outer}
	go func() {
		defer close(h.done)
		h.result, h.err = s.RunBatch(ctx, req)
	}()
	return h
}

func (h *BatchHandle) Cancel()               { h.flag.Cancel() }
func (h *BatchHandle) Done() <-chan struct{} { return h.done }

func (h *BatchHandle) Wait() (*BatchRegisterResult, error) {
	<-h.done
	return h.result, h.err
}

type anyCancel struct {
	own   CancelToken
	outer CancelToken
}

func (a anyCancel) Cancelled() bool {
	return a.own.Cancelled() || (a.outer != nil && a.outer.Cancelled())
}
