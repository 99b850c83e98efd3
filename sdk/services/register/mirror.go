// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"context"
	"path"
	"strings"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/config"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/fileset"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/services/staging"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

// AuditMirror keeps a copy of what was registered for a set.
type AuditMirror interface {
	Mirror(ctx context.Context, set *fileset.FileSet, entryResponse []byte) error
}

// S3AuditMirror stores entry responses and manifests under <prefix>/<uuid>/.
type S3AuditMirror struct {
	client *config.S3Client
	bucket string
	prefix string
}

func NewS3AuditMirror(client *config.S3Client, bucket, prefix string) *S3AuditMirror {
	return &S3AuditMirror{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (m *S3AuditMirror) key(set *fileset.FileSet, name string) string {
	return path.Join(m.prefix, set.UUID, name)
}

func (m *S3AuditMirror) Mirror(ctx context.Context, set *fileset.FileSet, entryResponse []byte) error {
	if err := m.client.PutBytes(ctx, m.bucket, m.key(set, utils.EntryResponseFile), entryResponse, "application/json"); err != nil {
		return err
	}
	if set.MappingFilePath == "" {
		return nil
	}
	return m.client.UploadFile(ctx, m.bucket, m.key(set, staging.ManifestName), set.MappingFilePath, nil)
}

// Mirrored lists the audit objects kept for a set.
func (m *S3AuditMirror) Mirrored(ctx context.Context, set *fileset.FileSet) ([]string, error) {
	return m.client.ListKeys(ctx, m.bucket, m.key(set, "")+"/")
}
