// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/config"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/services/staging"
)

type RegisterService struct {
	http      config.CoreHTTP
	staging   *staging.StagingService
	lookup    MetadataLookup
	mirror    AuditMirror
	outputDir string
}

type Option func(*options)

type options struct {
	httpClient *http.Client
	tokens     config.TokenProvider
	lookup     MetadataLookup
	mirror     AuditMirror
}

func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.httpClient = c } }

func WithTokenProvider(t config.TokenProvider) Option { return func(o *options) { o.tokens = t } }

func WithLookup(l MetadataLookup) Option { return func(o *options) { o.lookup = l } }

func WithMirror(m AuditMirror) Option { return func(o *options) { o.mirror = m } }

// NewRegisterService wires the remote API, staging and, when a bucket is
// configured, the S3 audit mirror.
func NewRegisterService(ctx context.Context, conf config.Config, opts ...Option) (*RegisterService, error) {
	if conf.Core.BaseURL == "" {
		return nil, errors.New("remote endpoint is required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	mirror := o.mirror
	if mirror == nil && conf.S3.Bucket != "" {
		s3c, err := config.NewS3Client(ctx, conf.S3)
		if err != nil {
			return nil, fmt.Errorf("S3 init failed: %w", err)
		}
		mirror = NewS3AuditMirror(s3c, conf.S3.Bucket, conf.S3.Prefix)
	}

	stagingConf := conf.Staging.WithDefaults()
	return &RegisterService{
		http:      config.NewHTTPCore(o.httpClient, conf.Core, o.tokens),
		staging:   staging.NewStagingService(conf),
		lookup:    o.lookup,
		mirror:    mirror,
		outputDir: stagingConf.OutputDir,
	}, nil
}

func (s *RegisterService) Staging() *staging.StagingService { return s.staging }
