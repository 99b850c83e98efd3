// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/config"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

func getJSON(ctx context.Context, h config.CoreHTTP, resource string, params map[string]string) (map[string]any, error) {
	body, _, err := h.Do(ctx, http.MethodGet, h.BuildURL(resource, params), nil)
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("json parsing failed: %w", err)
	}
	return m, nil
}

// GetDatasetInfo returns the dataset document with its relationships included.
func (s *MetadataService) GetDatasetInfo(ctx context.Context, datasetID string) (map[string]any, error) {
	if datasetID == "" {
		return nil, fmt.Errorf("you must specify a dataset id")
	}
	return getJSON(ctx, s.api, "datasets/"+url.PathEscape(datasetID), map[string]string{"include": datasetInclude})
}

// GetSchema returns the raw invoice schema of a template.
func (s *MetadataService) GetSchema(ctx context.Context, templateID string) (map[string]any, error) {
	if templateID == "" {
		return nil, fmt.Errorf("you must specify a template id")
	}
	return getJSON(ctx, s.api, "invoiceSchemas/"+url.PathEscape(templateID), nil)
}

// SchemaFields lists the custom properties of a schema sorted by key.
func SchemaFields(schema map[string]any) []SchemaField {
	custom, _ := utils.GetPath(schema, "properties", "custom")
	cm, _ := custom.(map[string]any)
	props, _ := cm["properties"].(map[string]any)

	required := map[string]bool{}
	if req, ok := cm["required"].([]any); ok {
		for _, r := range req {
			if k, ok := r.(string); ok {
				required[k] = true
			}
		}
	}

	out := make([]SchemaField, 0, len(props))
	for key, raw := range props {
		p, _ := raw.(map[string]any)
		f := SchemaField{Key: key, Label: key, Default: p["default"], Required: required[key]}
		if l := utils.GetPathString(p, "label", "ja"); l != "" {
			f.Label = l
		}
		f.Enum, _ = p["enum"].([]any)
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// GetSchemaFields returns the custom fields of a template that carry a default, keyed by name.
func (s *MetadataService) GetSchemaFields(ctx context.Context, templateID string) (map[string]any, error) {
	schema, err := s.GetSchema(ctx, templateID)
	if err != nil {
		return nil, err
	}
	defaults := map[string]any{}
	for _, f := range SchemaFields(schema) {
		if f.Default != nil {
			defaults[f.Key] = f.Default
		}
	}
	return defaults, nil
}
