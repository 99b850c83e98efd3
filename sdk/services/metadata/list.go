// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"context"
	"fmt"
	"strconv"
)

// GetSampleList walks all pages of the samples of a group.
func (s *MetadataService) GetSampleList(ctx context.Context, groupID string) ([]map[string]any, error) {
	if groupID == "" {
		return nil, fmt.Errorf("you must specify a group id")
	}
	var (
		elements []map[string]any
		offset   int
	)
	pageParams := map[string]string{
		"groupId":        groupID,
		"page[limit]":    strconv.Itoa(SamplePageLimit),
		"fields[sample]": "names,description,composition",
	}

	for {
		pageParams["page[offset]"] = strconv.Itoa(offset)
		m, err := getJSON(ctx, s.material, "samples", pageParams)
		if err != nil {
			return nil, err
		}

		pageList, _ := m["data"].([]any)
		for _, el := range pageList {
			if sm, ok := el.(map[string]any); ok {
				elements = append(elements, sm)
			}
		}

		if len(pageList) < SamplePageLimit {
			break
		}
		offset += len(pageList)
	}
	return elements, nil
}
