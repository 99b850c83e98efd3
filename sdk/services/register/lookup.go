// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"context"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// StaticLookup serves metadata from memory, typically loaded from a file.
type StaticLookup struct {
	Datasets map[string]map[string]any   `json:"datasets"`
	Samples  map[string][]map[string]any `json:"samples"`
	Schemas  map[string]map[string]any   `json:"schemas"`
}

// LoadStaticLookup reads a YAML or JSON document with datasets, samples and schemas keys.
func LoadStaticLookup(p string) (*StaticLookup, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var l StaticLookup
	if err := yaml.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	return &l, nil
}

func (l *StaticLookup) GetDatasetInfo(_ context.Context, id string) (map[string]any, error) {
	d, ok := l.Datasets[id]
	if !ok {
		return nil, fmt.Errorf("dataset %s not found", id)
	}
	return d, nil
}

func (l *StaticLookup) GetSampleList(_ context.Context, groupID string) ([]map[string]any, error) {
	return l.Samples[groupID], nil
}

func (l *StaticLookup) GetSchemaFields(_ context.Context, templateID string) (map[string]any, error) {
	return l.Schemas[templateID], nil
}
