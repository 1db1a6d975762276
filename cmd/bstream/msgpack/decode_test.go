// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package msgpack

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/bureau-foundation/bstream/lib/bstream"
)

func memory(data []byte) bstream.InputBuffer {
	return bstream.NewMemoryInputBytes(data)
}

// encodeJSON converts a JSON document to msgpack with encodeMsgpack.
func encodeJSON(t *testing.T, document string) []byte {
	t.Helper()
	out := bstream.NewMemoryOutput(64)
	if _, err := encodeMsgpack([]byte(document), out); err != nil {
		t.Fatalf("encodeMsgpack(%s): %v", document, err)
	}
	return out.Bytes()
}

func decodeOutput(t *testing.T, output string) any {
	t.Helper()
	var got any
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &got); err != nil {
		t.Fatalf("parse output JSON: %v (output was: %q)", err, output)
	}
	return got
}

func TestDecodeMsgpack(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		slurp bool
		want  any
	}{
		{
			name:  "string keyed map",
			input: []byte{0x82, 0xa6, 'a', 'c', 't', 'i', 'o', 'n', 0xa6, 's', 't', 'a', 't', 'u', 's', 0xa5, 'c', 'o', 'u', 'n', 't', 0x2a},
			want:  map[string]any{"action": "status", "count": float64(42)},
		},
		{
			name:  "integer keys become strings",
			input: []byte{0x82, 0x01, 0xc3, 0xfd, 0xc2},
			want:  map[string]any{"1": true, "-3": false},
		},
		{
			name:  "nested arrays",
			input: []byte{0x92, 0x91, 0xa1, 'x', 0x90},
			want:  []any{[]any{"x"}, []any{}},
		},
		{
			name:  "blob is base64",
			input: []byte{0xc4, 0x02, 0x01, 0x02},
			want:  "AQI=",
		},
		{
			name:  "nil",
			input: []byte{0xc0},
			want:  nil,
		},
		{
			name:  "sequence",
			input: []byte{0x01, 0x02, 0xa1, 'a'},
			slurp: true,
			want:  []any{float64(1), float64(2), "a"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var output bytes.Buffer
			if err := decodeMsgpack(memory(test.input), &output, false, test.slurp); err != nil {
				t.Fatalf("decodeMsgpack: %v", err)
			}
			if got := decodeOutput(t, output.String()); !reflect.DeepEqual(got, test.want) {
				t.Errorf("decoded %#v, want %#v", got, test.want)
			}
		})
	}
}

func TestDecodeMsgpackCompact(t *testing.T) {
	input := encodeJSON(t, `{"outer": {"inner": [1, 2]}}`)

	var pretty, compact bytes.Buffer
	if err := decodeMsgpack(memory(input), &pretty, false, false); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	if err := decodeMsgpack(memory(input), &compact, true, false); err != nil {
		t.Fatalf("compact: %v", err)
	}

	if got := compact.String(); got != `{"outer":{"inner":[1,2]}}`+"\n" {
		t.Errorf("compact output = %q", got)
	}
	if !strings.Contains(pretty.String(), "\n  \"outer\": {\n") {
		t.Errorf("pretty output not indented: %q", pretty.String())
	}
}

func TestDecodeMsgpackErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		slurp    bool
		target   error
		contains string
	}{
		{name: "empty", input: nil, target: errEmptyInput},
		{name: "trailing data", input: []byte{0x01, 0x02}, contains: "trailing data at byte 1"},
		{name: "truncated", input: []byte{0xa3, 'a'}, target: bstream.ReadPastEndOfStream},
		{name: "truncated sequence item", input: []byte{0x01, 0x92, 0x01}, slurp: true, contains: "item 1 at byte 1"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var output bytes.Buffer
			err := decodeMsgpack(memory(test.input), &output, false, test.slurp)
			if err == nil {
				t.Fatalf("decodeMsgpack succeeded with output %q", output.String())
			}
			if test.target != nil && !errors.Is(err, test.target) {
				t.Errorf("error = %v, want %v", err, test.target)
			}
			if test.contains != "" && !strings.Contains(err.Error(), test.contains) {
				t.Errorf("error = %q, want it to contain %q", err, test.contains)
			}
		})
	}
}
