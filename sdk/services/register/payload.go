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

// datasetData returns the JSON:API resource object of a dataset document.
func datasetData(info map[string]any) map[string]any {
	if info == nil {
		return nil
	}
	if d, ok := info["data"].(map[string]any); ok {
		return d
	}
	return info
}

func (s *RegisterService) datasetInfo(ctx context.Context, set *fileset.FileSet) (map[string]any, error) {
	if set.DatasetInfo != nil {
		return datasetData(set.DatasetInfo), nil
	}
	if s.lookup == nil {
		return nil, nil
	}
	info, err := s.lookup.GetDatasetInfo(ctx, set.DatasetID)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", set.DatasetID, err)
	}
	return datasetData(info), nil
}

// ownerID picks the data owner: manager, applicant, first data owner, then attributes.
func ownerID(d map[string]any) string {
	for _, p := range [][]string{
		{"relationships", "manager", "data", "id"},
		{"relationships", "applicant", "data", "id"},
		{"relationships", "dataOwners", "data", "id"},
		{"attributes", "ownerId"},
		{"attributes", "userId"},
	} {
		if v := utils.GetPathString(d, p...); v != "" {
			return v
		}
	}
	return ""
}

func instrumentID(d map[string]any) string {
	return utils.GetPathString(d, "relationships", "instruments", "data", "id")
}

func templateID(d map[string]any) string {
	return utils.GetPathString(d, "relationships", "template", "data", "id")
}

func groupID(d map[string]any) string {
	return utils.GetPathString(d, "relationships", "group", "data", "id")
}

// sampleFor resolves the sample a set registers with. same_as_previous takes prev.
func sampleFor(set *fileset.FileSet, prev *SampleRef) (*SampleRef, error) {
	switch set.SampleMode {
	case fileset.SampleExisting:
		return &SampleRef{Mode: fileset.SampleExisting, ID: set.SampleID, Name: set.SampleName}, nil
	case fileset.SampleSameAsPrevious:
		if prev == nil {
			return nil, fmt.Errorf("file set %q: no previous sample to reuse", set.Name)
		}
		ref := *prev
		return &ref, nil
	}
	return &SampleRef{
		Mode:        fileset.SampleNew,
		Name:        set.SampleName,
		Description: set.SampleDescription,
		Composition: set.SampleComposition,
	}, nil
}

func listOrNil(v []string) any {
	if len(v) == 0 {
		return nil
	}
	return v
}

func sampleBlock(set *fileset.FileSet, ref *SampleRef, owner string) map[string]any {
	if ref.ID != "" {
		return map[string]any{"sampleId": ref.ID}
	}
	names := utils.SplitList(ref.Name)
	if len(names) == 0 {
		names = []string{set.EffectiveDataName()}
	}
	return map[string]any{
		"names":              names,
		"description":        ref.Description,
		"composition":        ref.Composition,
		"referenceUrl":       set.ReferenceURL,
		"hideOwner":          nil,
		"relatedSamples":     []any{},
		"tags":               listOrNil(set.Tags),
		"generalAttributes":  nil,
		"specificAttributes": nil,
		"ownerId":            owner,
	}
}

// buildPayload composes the entry document for one set.
func (s *RegisterService) buildPayload(ctx context.Context, set *fileset.FileSet, ref *SampleRef, up *uploaded) (map[string]any, error) {
	d, err := s.datasetInfo(ctx, set)
	if err != nil {
		return nil, err
	}
	owner := ownerID(d)

	custom := map[string]any{}
	if tid := templateID(d); tid != "" && s.lookup != nil {
		defaults, err := s.lookup.GetSchemaFields(ctx, tid)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", tid, err)
		}
		custom = utils.MergeMaps(defaults, nil, nil)
	}
	custom = utils.MergeMaps(custom, set.CustomValues, nil)
	for k, v := range custom {
		if v == nil {
			delete(custom, k)
		}
	}

	dataFiles := make([]any, 0, len(up.dataIDs))
	for _, id := range up.dataIDs {
		dataFiles = append(dataFiles, map[string]any{"type": "upload", "id": id})
	}
	attachments := make([]any, 0, len(up.attachments))
	for _, a := range up.attachments {
		attachments = append(attachments, map[string]any{"uploadId": a.UploadID, "description": a.Description})
	}

	return map[string]any{
		"data": map[string]any{
			"type": "entry",
			"attributes": map[string]any{
				"invoice": map[string]any{
					"datasetId": set.DatasetID,
					"basic": map[string]any{
						"dataOwnerId":  owner,
						"dataName":     set.EffectiveDataName(),
						"instrumentId": instrumentID(d),
						"description":  set.Description,
						"experimentId": set.ExperimentID,
					},
					"custom": custom,
					"sample": sampleBlock(set, ref, owner),
				},
			},
			"relationships": map[string]any{
				"dataFiles": map[string]any{"data": dataFiles},
			},
		},
		"meta": map[string]any{"attachments": attachments},
	}, nil
}
