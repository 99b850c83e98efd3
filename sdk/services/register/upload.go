// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/config"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/fileset"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

type uploadResponse struct {
	UploadID string `json:"uploadId"`
}

// UploadFile posts one local file and returns the remote upload id.
func (s *RegisterService) UploadFile(ctx context.Context, datasetID, localPath, name string, hook *config.ProgressHook) (string, error) {
	id, _, err := s.uploadFile(ctx, datasetID, localPath, name, hook)
	return id, err
}

func (s *RegisterService) uploadFile(ctx context.Context, datasetID, localPath, name string, hook *config.ProgressHook) (string, []byte, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", nil, &UploadError{File: name, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", nil, &UploadError{File: name, Err: err}
	}

	if hook != nil && hook.OnStart != nil {
		hook.OnStart(name, info.Size())
	}
	endpoint := s.http.BuildURL("uploads", map[string]string{"datasetId": datasetID})
	body, _, err := s.http.PostBinary(ctx, endpoint,
		config.NewProgressReader(f, name, info.Size(), hook),
		map[string]string{"X-File-Name": url.PathEscape(name)})
	if err != nil {
		return "", body, &UploadError{File: name, Err: errors.New(remoteMessage(err))}
	}

	var resp uploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", body, &UploadError{File: name, Err: fmt.Errorf("invalid response: %w", err)}
	}
	if resp.UploadID == "" {
		return "", body, &UploadError{File: name, Err: errors.New("response has no uploadId")}
	}
	return resp.UploadID, body, nil
}

// targets lists what gets uploaded for a set, in item order. A staged set
// also sends its path manifest as an attachment.
func (s *RegisterService) targets(ctx context.Context, set *fileset.FileSet, stage bool) ([]uploadTarget, error) {
	if stage {
		report, err := s.staging.Stage(ctx, set)
		if err != nil {
			return nil, err
		}
		out := make([]uploadTarget, 0, len(report.Files)+1)
		for _, f := range report.Files {
			out = append(out, uploadTarget{path: f.Path, name: f.StagedName, size: f.Size, role: f.Role})
		}
		info, err := os.Stat(report.ManifestPath)
		if err != nil {
			utils.Warnf("manifest of %s not uploaded: %v", set.Name, err)
			return out, nil
		}
		return append(out, uploadTarget{
			path: report.ManifestPath,
			name: filepath.Base(report.ManifestPath),
			size: info.Size(),
			role: fileset.RoleAttachment,
		}), nil
	}
	files := set.Files()
	out := make([]uploadTarget, 0, len(files))
	for _, it := range files {
		name := it.Name
		if name == "" {
			name = filepath.Base(it.Path)
		}
		out = append(out, uploadTarget{path: it.Path, name: name, size: it.Size, role: it.Role})
	}
	return out, nil
}

type uploaded struct {
	dataIDs     []string
	attachments []attachmentRef
	failures    []UploadFailure
	lastBody    []byte
}

type attachmentRef struct {
	UploadID    string `json:"uploadId"`
	Description string `json:"description"`
}

// uploadAll uploads targets one by one; failures are recorded and the loop goes on.
func (s *RegisterService) uploadAll(ctx context.Context, datasetID string, targets []uploadTarget, req SetRequest) (*uploaded, error) {
	up := &uploaded{}
	for i, t := range targets {
		if cancelled(ctx, req.Cancel) {
			return up, ErrCancelled
		}
		id, body, err := s.uploadFile(ctx, datasetID, t.path, t.name, req.FileProgress)
		if body != nil {
			up.lastBody = body
		}
		if err != nil {
			utils.Warnf("%v", err)
			up.failures = append(up.failures, UploadFailure{Name: t.name, Err: err})
		} else if t.role == fileset.RoleAttachment {
			up.attachments = append(up.attachments, attachmentRef{UploadID: id, Description: t.name})
		} else {
			up.dataIDs = append(up.dataIDs, id)
		}
		if req.OnFile != nil {
			req.OnFile(i+1, len(targets), t.name)
		}
	}

	if len(up.lastBody) > 0 {
		if err := utils.WriteFileAtomic(filepath.Join(s.outputDir, utils.UploadResponseFile), up.lastBody); err != nil {
			utils.Warnf("could not save upload response: %v", err)
		}
	}
	if len(up.dataIDs) == 0 {
		return up, &UploadError{Err: fmt.Errorf("no data file could be uploaded (%d failed)", len(up.failures))}
	}
	return up, nil
}

func cancelled(ctx context.Context, tok CancelToken) bool {
	if ctx.Err() != nil {
		return true
	}
	return tok != nil && tok.Cancelled()
}
