// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package fileset

import (
	"fmt"
	"os"
	"path"

	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
	"sigs.k8s.io/yaml"
)

// PlanEntry holds registration fields; empty values leave the set untouched.
type PlanEntry struct {
	Name  string `json:"name,omitempty"`
	Match string `json:"match,omitempty"`

	Organize          string         `json:"organize,omitempty"`
	ArchiveDirs       []string       `json:"archive_dirs,omitempty"`
	Exclude           []string       `json:"exclude,omitempty"`
	ClassifyRoles     bool           `json:"classify_roles,omitempty"`
	DatasetID         string         `json:"dataset_id,omitempty"`
	DataName          string         `json:"data_name,omitempty"`
	Description       string         `json:"description,omitempty"`
	ExperimentID      string         `json:"experiment_id,omitempty"`
	ReferenceURL      string         `json:"reference_url,omitempty"`
	Tags              []string       `json:"tags,omitempty"`
	SampleMode        string         `json:"sample_mode,omitempty"`
	SampleID          string         `json:"sample_id,omitempty"`
	SampleName        string         `json:"sample_name,omitempty"`
	SampleDescription string         `json:"sample_description,omitempty"`
	SampleComposition string         `json:"sample_composition,omitempty"`
	Custom            map[string]any `json:"custom,omitempty"`
}

// Plan is a YAML or JSON document of defaults plus per-set overrides.
type Plan struct {
	Defaults PlanEntry   `json:"defaults"`
	Sets     []PlanEntry `json:"sets"`
}

func LoadPlan(p string) (*Plan, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	var plan Plan
	if err := yaml.Unmarshal(b, &plan); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", p, err)
	}
	return &plan, nil
}

func (e PlanEntry) matches(name string) bool {
	if e.Name != "" {
		return e.Name == name
	}
	if e.Match != "" {
		ok, _ := path.Match(e.Match, name)
		return ok
	}
	return false
}

// entryFor returns the first override matching name.
func (p *Plan) entryFor(name string) (PlanEntry, bool) {
	for _, e := range p.Sets {
		if e.matches(name) {
			return e, true
		}
	}
	return PlanEntry{}, false
}

// apply copies non-empty fields of e into fs. tree resolves archive dirs not held by the set.
func (e PlanEntry) apply(fs *FileSet, tree []*FileItem) error {
	if e.Organize != "" {
		o, err := ParseOrganizeMethod(e.Organize)
		if err != nil {
			return err
		}
		fs.Organize = o
	}
	if e.SampleMode != "" {
		m, err := ParseSampleMode(e.SampleMode)
		if err != nil {
			return err
		}
		fs.SampleMode = m
	}
	setIf := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setIf(&fs.DatasetID, e.DatasetID)
	setIf(&fs.DataName, e.DataName)
	setIf(&fs.Description, e.Description)
	setIf(&fs.ExperimentID, e.ExperimentID)
	setIf(&fs.ReferenceURL, e.ReferenceURL)
	setIf(&fs.SampleID, e.SampleID)
	setIf(&fs.SampleName, e.SampleName)
	setIf(&fs.SampleDescription, e.SampleDescription)
	setIf(&fs.SampleComposition, e.SampleComposition)
	if len(e.Tags) > 0 {
		fs.Tags = append([]string(nil), e.Tags...)
	}
	if len(e.Custom) > 0 {
		fs.CustomValues = utils.MergeMaps(fs.CustomValues, e.Custom, nil)
	}
	if e.ClassifyRoles {
		ClassifyByExtension(fs.Items)
	}

	for _, rel := range e.Exclude {
		if it := fs.Item(rel); it != nil {
			it.Excluded = true
		}
	}
	for _, rel := range e.ArchiveDirs {
		dir := fs.Item(rel)
		if dir == nil {
			for _, t := range tree {
				if t.RelativePath == rel {
					dir = t
					break
				}
			}
		}
		if dir == nil || !dir.IsDir() {
			utils.Warnf("plan: %q is not a directory of %q", rel, fs.Name)
			continue
		}
		fs.SetArchive(dir, true)
	}
	return nil
}
