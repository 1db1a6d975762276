// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"fmt"

	"github.com/bureau-foundation/bstream/lib/bstream"
	"github.com/bureau-foundation/bstream/lib/bstream/mpbridge"
)

// FromMsgpack transcodes the first msgpack value in data to CBOR.
// Bytes after the first value are ignored.
func FromMsgpack(data []byte) ([]byte, error) {
	return ReadMsgpack(bstream.NewReader(bstream.NewMemoryInputBytes(data)))
}

// ReadMsgpack reads the next value from r and returns it as CBOR.
func ReadMsgpack(r *bstream.Reader) ([]byte, error) {
	object, err := mpbridge.ReadObject(r)
	if err != nil {
		return nil, err
	}
	encoded, err := encMode.Marshal(object)
	if err != nil {
		return nil, fmt.Errorf("encoding %T as CBOR: %w", object, err)
	}
	return encoded, nil
}

// ToMsgpack transcodes one CBOR value to msgpack.
func ToMsgpack(data []byte) ([]byte, error) {
	var object any
	if err := decMode.Unmarshal(data, &object); err != nil {
		return nil, fmt.Errorf("decoding CBOR: %w", err)
	}
	out := bstream.NewMemoryOutput(len(data))
	if err := mpbridge.WriteObject(bstream.NewWriter(out), object); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
