// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONValue converts a decoded msgpack object into types encoding/json
// accepts. Maps with non-string keys become map[string]any with
// fmt.Sprint'd keys. Maps and slices are converted in place.
func JSONValue(v any) any {
	switch value := v.(type) {
	case map[any]any:
		result := make(map[string]any, len(value))
		for key, element := range value {
			result[fmt.Sprint(key)] = JSONValue(element)
		}
		return result

	case map[string]any:
		for key, element := range value {
			value[key] = JSONValue(element)
		}
		return value

	case []any:
		for index, element := range value {
			value[index] = JSONValue(element)
		}
		return value

	default:
		return v
	}
}

// WriteJSON writes value as JSON followed by a newline, indented by
// two spaces unless compact is set.
func WriteJSON(w io.Writer, value any, compact bool) error {
	var output []byte
	var err error
	if compact {
		output, err = json.Marshal(value)
	} else {
		output, err = json.MarshalIndent(value, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}
