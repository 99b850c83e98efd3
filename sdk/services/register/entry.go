// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

// ValidateEntry posts payload to the validation-only endpoint.
func (s *RegisterService) ValidateEntry(ctx context.Context, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return &RemoteValidationError{Err: err}
	}
	endpoint := s.http.BuildURL("entries", map[string]string{"validationOnly": "true"})
	if _, _, err := s.http.Do(ctx, http.MethodPost, endpoint, data); err != nil {
		return &RemoteValidationError{Err: err}
	}
	return nil
}

// CreateEntry posts payload to the create-entry endpoint and keeps the
// response body under the output dir.
func (s *RegisterService) CreateEntry(ctx context.Context, payload map[string]any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &RemoteSubmitError{Err: err}
	}
	body, _, err := s.http.Do(ctx, http.MethodPost, s.http.BuildURL("entries", nil), data)
	if err != nil {
		return nil, &RemoteSubmitError{Err: err}
	}
	if err := utils.WriteFileAtomic(filepath.Join(s.outputDir, utils.EntryResponseFile), body); err != nil {
		utils.Warnf("could not save entry response: %v", err)
	}
	return body, nil
}

type entryResponse struct {
	Data struct {
		ID            string `json:"id"`
		Relationships struct {
			Sample struct {
				Data struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"sample"`
		} `json:"relationships"`
	} `json:"data"`
}

func parseEntryResponse(body []byte) (entryID, sampleID string, err error) {
	var r entryResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return "", "", fmt.Errorf("invalid entry response: %w", err)
	}
	return r.Data.ID, r.Data.Relationships.Sample.Data.ID, nil
}
