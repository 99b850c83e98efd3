// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/fileset"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

type SetPreview struct {
	Name       string
	FileCount  int
	TotalSize  int64
	Organize   fileset.OrganizeMethod
	DatasetID  string
	DataName   string
	SampleMode fileset.SampleMode
}

type PreviewReport struct {
	Sets       []SetPreview
	TotalFiles int
	TotalSize  int64
	Estimated  time.Duration
}

// Preview summarizes what a batch would register.
func Preview(sets []*fileset.FileSet) PreviewReport {
	var r PreviewReport
	for _, s := range sets {
		p := SetPreview{
			Name:       s.Name,
			FileCount:  s.FileCount(),
			TotalSize:  s.TotalSize(),
			Organize:   s.Organize,
			DatasetID:  s.DatasetID,
			DataName:   s.EffectiveDataName(),
			SampleMode: s.SampleMode,
		}
		r.Sets = append(r.Sets, p)
		r.TotalFiles += p.FileCount
		r.TotalSize += p.TotalSize
	}
	r.Estimated = EstimateProcessingTime(r.TotalFiles, r.TotalSize)
	return r
}

func (r PreviewReport) String() string {
	var b strings.Builder
	for _, p := range r.Sets {
		fmt.Fprintf(&b, "%s: %d files, %s, %s, dataset=%s, data name=%s, sample=%s\n",
			p.Name, p.FileCount, utils.HumanSize(p.TotalSize), p.Organize, p.DatasetID, p.DataName, p.SampleMode)
	}
	fmt.Fprintf(&b, "total: %d sets, %d files, %s, estimated %s\n",
		len(r.Sets), r.TotalFiles, utils.HumanSize(r.TotalSize), FormatEstimate(r.Estimated))
	return b.String()
}

// EstimateProcessingTime allows 2s per file plus 0.1s per MB.
func EstimateProcessingTime(fileCount int, totalSize int64) time.Duration {
	sizeMB := float64(totalSize) / (1024 * 1024)
	seconds := float64(fileCount)*2 + sizeMB*0.1
	return time.Duration(seconds * float64(time.Second))
}

func FormatEstimate(d time.Duration) string {
	s := d.Seconds()
	switch {
	case s < 60:
		return fmt.Sprintf("about %d seconds", int(s))
	case s < 3600:
		return fmt.Sprintf("about %.1f minutes", s/60)
	}
	return fmt.Sprintf("about %.1f hours", s/3600)
}

var experimentIDPattern = regexp.MustCompile(`^[\x21-\x7e]*$`)

// ValidateForRegistration checks the metadata each set needs before upload.
// lookup may be nil.
func ValidateForRegistration(ctx context.Context, sets []*fileset.FileSet, lookup MetadataLookup) []string {
	var msgs []string
	for i, s := range sets {
		if s.DatasetID == "" {
			msgs = append(msgs, fmt.Sprintf("file set %q: no dataset selected", s.Name))
		}
		if s.EffectiveDataName() == "" {
			msgs = append(msgs, fmt.Sprintf("file set %q: data name is empty", s.Name))
		}
		if !experimentIDPattern.MatchString(s.ExperimentID) {
			msgs = append(msgs, fmt.Sprintf("file set %q: experiment id must use half-width alphanumerics and symbols only", s.Name))
		}
		switch s.SampleMode {
		case fileset.SampleExisting:
			if s.SampleID == "" {
				msgs = append(msgs, fmt.Sprintf("file set %q: existing sample needs a sample id", s.Name))
			} else if msg := checkSample(ctx, s, lookup); msg != "" {
				msgs = append(msgs, msg)
			}
		case fileset.SampleSameAsPrevious:
			if i == 0 {
				msgs = append(msgs, fmt.Sprintf("file set %q: same_as_previous needs a preceding set", s.Name))
			}
		}
	}
	return msgs
}

func checkSample(ctx context.Context, s *fileset.FileSet, lookup MetadataLookup) string {
	if lookup == nil {
		return ""
	}
	info := datasetData(s.DatasetInfo)
	if info == nil && s.DatasetID != "" {
		doc, err := lookup.GetDatasetInfo(ctx, s.DatasetID)
		if err != nil {
			utils.Warnf("dataset %s: %v", s.DatasetID, err)
			return ""
		}
		info = datasetData(doc)
	}
	gid := groupID(info)
	if gid == "" {
		return ""
	}
	samples, err := lookup.GetSampleList(ctx, gid)
	if err != nil {
		utils.Warnf("samples of group %s: %v", gid, err)
		return ""
	}
	for _, smp := range samples {
		if utils.GetStringValue(smp, "id") == s.SampleID {
			return ""
		}
	}
	return fmt.Sprintf("file set %q: sample %s not found in group %s", s.Name, s.SampleID, gid)
}
