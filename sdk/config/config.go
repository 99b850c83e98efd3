// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config passed to the SDK constructors (no viper/INI here)
type Config struct {
	Core    CoreConfig
	S3      S3Config
	Staging StagingConfig
}

type CoreConfig struct {
	BaseURL string
	// MaterialURL serves the sample API; empty means BaseURL.
	MaterialURL string
	AccessToken string
	Timeout     time.Duration
}

type S3Config struct {
	AccessKey   string
	SecretKey   string
	AccessToken string
	Region      string
	EndpointURL string
	// Bucket and Prefix of the optional audit mirror; empty bucket disables it.
	Bucket string
	Prefix string
}

type StagingConfig struct {
	BaseTempDir string
	MetadataDir string
	OutputDir   string
}

const DefaultTempDirName = "fileset_register"

// WithDefaults fills empty staging directories.
func (s StagingConfig) WithDefaults() StagingConfig {
	if s.BaseTempDir == "" {
		s.BaseTempDir = filepath.Join(os.TempDir(), DefaultTempDirName)
	}
	if s.MetadataDir == "" {
		s.MetadataDir = filepath.Join(s.BaseTempDir, "metadata")
	}
	if s.OutputDir == "" {
		s.OutputDir = "output"
	}
	return s
}
