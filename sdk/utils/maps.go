// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

// MergeConfig defines how specific fields (arrays of maps) should be merged.
// Key: the field name (e.g., "names"), Value: the key to match inside each map (e.g., "id").
type MergeConfig map[string]string

// MergeMaps merges map2 over map1, recursing into nested maps.
// Slices of maps listed in cfg are merged element by element on the configured key,
// keeping the order of map1 and appending new elements of map2.
// Nil values in map2 do not overwrite existing values.
func MergeMaps(map1, map2 map[string]any, cfg MergeConfig) map[string]any {
	result := make(map[string]any, len(map1)+len(map2))
	for k, v := range map1 {
		result[k] = v
	}

	for k, v2 := range map2 {
		v1, exists := result[k]
		switch {
		case exists && v2 == nil:
			// keep map1 value
		case exists && isMap(v1) && isMap(v2):
			result[k] = MergeMaps(v1.(map[string]any), v2.(map[string]any), cfg)
		case exists && isSlice(v1) && isSlice(v2) && cfg != nil:
			arr1 := v1.([]any)
			arr2 := v2.([]any)
			if mergeKey, ok := cfg[k]; ok && looksLikeArrayOfMaps(arr1) && looksLikeArrayOfMaps(arr2) {
				result[k] = mergeArrayOfMapsByKey(arr1, arr2, mergeKey, cfg)
			} else {
				result[k] = v2
			}
		default:
			result[k] = v2
		}
	}
	return result
}

func mergeArrayOfMapsByKey(arr1, arr2 []any, key string, cfg MergeConfig) []any {
	result := make([]any, 0, len(arr1)+len(arr2))
	pos := make(map[any]int)

	for _, item := range arr1 {
		m := item.(map[string]any)
		if id, ok := m[key]; ok {
			pos[id] = len(result)
		}
		result = append(result, m)
	}
	for _, item := range arr2 {
		m := item.(map[string]any)
		id, ok := m[key]
		if !ok {
			result = append(result, m)
			continue
		}
		if i, found := pos[id]; found {
			result[i] = MergeMaps(result[i].(map[string]any), m, cfg)
			continue
		}
		pos[id] = len(result)
		result = append(result, m)
	}
	return result
}

func looksLikeArrayOfMaps(arr []any) bool {
	for _, item := range arr {
		if _, ok := item.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func isMap(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

func isSlice(v any) bool {
	_, ok := v.([]any)
	return ok
}
