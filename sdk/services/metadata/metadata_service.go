// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"context"
	"errors"
	"net/http"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/config"
)

// MetadataService reads datasets, samples and invoice schemas from the remote API.
type MetadataService struct {
	api      config.CoreHTTP
	material config.CoreHTTP
}

func NewMetadataService(_ context.Context, conf config.Config) (*MetadataService, error) {
	return NewMetadataServiceWithClient(conf, nil, nil)
}

// NewMetadataServiceWithClient is NewMetadataService with a custom client and token source.
func NewMetadataServiceWithClient(conf config.Config, client *http.Client, tokens config.TokenProvider) (*MetadataService, error) {
	if conf.Core.BaseURL == "" {
		return nil, errors.New("invalid core config")
	}
	materialConf := conf.Core
	if materialConf.MaterialURL != "" {
		materialConf.BaseURL = materialConf.MaterialURL
	}
	return &MetadataService{
		api:      config.NewHTTPCore(client, conf.Core, tokens),
		material: config.NewHTTPCore(client, materialConf, tokens),
	}, nil
}
