// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"time"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/fileset"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

type SetError struct {
	Name    string `json:"fileset_name"`
	Message string `json:"error"`
}

// BatchRegisterResult is the tally of one batch run. It is not modified once returned.
type BatchRegisterResult struct {
	TotalCount    int
	SuccessCount  int
	ErrorCount    int
	Errors        []SetError
	SucceededSets []string
	// NotAttempted lists the sets left over by a cancellation.
	NotAttempted []string
	Cancelled    bool
	StartTime    time.Time
	EndTime      time.Time
}

func newBatchResult(total int) *BatchRegisterResult {
	return &BatchRegisterResult{TotalCount: total, StartTime: time.Now()}
}

func (r *BatchRegisterResult) addSuccess(name string) {
	r.SuccessCount++
	r.SucceededSets = append(r.SucceededSets, name)
}

func (r *BatchRegisterResult) addError(name string, err error) {
	r.ErrorCount++
	r.Errors = append(r.Errors, SetError{Name: name, Message: err.Error()})
}

func (r *BatchRegisterResult) cancel(rest []*fileset.FileSet) {
	r.Cancelled = true
	for _, s := range rest {
		r.NotAttempted = append(r.NotAttempted, s.Name)
	}
}

func (r *BatchRegisterResult) finish() { r.EndTime = time.Now() }

// SuccessRate is the percentage of successful sets.
func (r *BatchRegisterResult) SuccessRate() float64 {
	if r.TotalCount == 0 {
		return 0
	}
	return float64(r.SuccessCount) / float64(r.TotalCount) * 100
}

func (r *BatchRegisterResult) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

type resultDocument struct {
	TotalFilesets   int        `json:"total_filesets"`
	SuccessCount    int        `json:"success_count"`
	ErrorCount      int        `json:"error_count"`
	SuccessRate     float64    `json:"success_rate"`
	DurationSeconds float64    `json:"duration"`
	Errors          []SetError `json:"errors"`
	SuccessFilesets []string   `json:"success_filesets"`
	NotAttempted    []string   `json:"not_attempted,omitempty"`
	Cancelled       bool       `json:"cancelled,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
}

// Export writes the result as JSON.
func (r *BatchRegisterResult) Export(path string) error {
	doc := resultDocument{
		TotalFilesets:   r.TotalCount,
		SuccessCount:    r.SuccessCount,
		ErrorCount:      r.ErrorCount,
		SuccessRate:     r.SuccessRate(),
		DurationSeconds: r.Duration().Seconds(),
		Errors:          r.Errors,
		SuccessFilesets: r.SucceededSets,
		NotAttempted:    r.NotAttempted,
		Cancelled:       r.Cancelled,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
	}
	if doc.Errors == nil {
		doc.Errors = []SetError{}
	}
	if doc.SuccessFilesets == nil {
		doc.SuccessFilesets = []string{}
	}
	return utils.WriteJSONFile(path, doc)
}
