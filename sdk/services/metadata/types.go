// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package metadata

// relationships pulled in with a dataset; owner, instrument and template resolution need them
const datasetInclude = "manager,applicant,instruments,template,sharingGroups"

// SamplePageLimit is the page size used when listing samples of a group.
const SamplePageLimit = 1000

// SchemaField is one custom property of an invoice schema.
type SchemaField struct {
	Key      string
	Label    string
	Enum     []any
	Default  any
	Required bool
}
