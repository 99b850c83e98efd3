// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"context"
	"sync/atomic"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/config"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/fileset"
)

// MetadataLookup resolves dataset, sample and schema information.
type MetadataLookup interface {
	GetDatasetInfo(ctx context.Context, datasetID string) (map[string]any, error)
	GetSampleList(ctx context.Context, groupID string) ([]map[string]any, error)
	// GetSchemaFields returns the custom fields of a template with their defaults.
	GetSchemaFields(ctx context.Context, templateID string) (map[string]any, error)
}

// ProgressSink receives batch events. Calls come from the batch worker.
type ProgressSink interface {
	OnProgress(percent int, message string)
	OnSetResult(name string, ok bool, detail string)
	OnBatchComplete(result *BatchRegisterResult)
}

type NopSink struct{}

func (NopSink) OnProgress(int, string) {}

func (NopSink) OnSetResult(string, bool, string) {}

func (NopSink) OnBatchComplete(*BatchRegisterResult) {}

type CancelToken interface {
	Cancelled() bool
}

// CancelFlag is a CancelToken set once by Cancel.
type CancelFlag struct {
	flag atomic.Bool
}

func (c *CancelFlag) Cancel()         { c.flag.Store(true) }
func (c *CancelFlag) Cancelled() bool { return c.flag.Load() }

type SetState int

const (
	StatePending SetState = iota
	StateUploading
	StateValidating
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s SetState) String() string {
	return [...]string{"pending", "uploading", "validating", "submitting", "succeeded", "failed"}[s]
}

// -------- Requests --------

type BatchRequest struct {
	Sets []*fileset.FileSet
	// Manager, when set, loses every set that registers successfully.
	Manager *fileset.Manager
	// Stage uploads the staged artifacts instead of the raw files.
	Stage        bool
	Sink         ProgressSink
	Cancel       CancelToken
	FileProgress *config.ProgressHook
}

type SetRequest struct {
	Set          *fileset.FileSet
	Stage        bool
	Previous     *SampleRef
	Cancel       CancelToken
	FileProgress *config.ProgressHook
	// OnFile is called after every upload attempt with done and total counts.
	OnFile func(done, total int, name string)
}

// SampleRef is the sample a registered set ended up with.
type SampleRef struct {
	Mode        fileset.SampleMode
	ID          string
	Name        string
	Description string
	Composition string
}

type UploadFailure struct {
	Name string
	Err  error
}

// SetResult is the outcome of one set.
type SetResult struct {
	Name        string
	State       SetState
	EntryID     string
	DataFileIDs []string
	Attachments []string
	Failures    []UploadFailure
	Sample      *SampleRef
	Response    []byte
	Err         error
}

type uploadTarget struct {
	path string
	name string
	size int64
	role fileset.ItemRole
}
