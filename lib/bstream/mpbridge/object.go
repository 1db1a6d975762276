// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mpbridge

import (
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/bureau-foundation/bstream/lib/bstream"
)

// Ext is an extension value whose type has no Go representation.
// ReadObject returns every extension other than a timestamp as an Ext,
// and WriteObject writes it back byte for byte.
type Ext struct {
	Type int8
	Data []byte
}

var _ msgpack.CustomEncoder = Ext{}

func (e Ext) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeExtHeader(e.Type, len(e.Data)); err != nil {
		return err
	}
	_, err := enc.Writer().Write(e.Data)
	return err
}

// ReadObject decodes the next value into the msgpack object model.
// Integers are int64, or uint64 when encoded unsigned. Bin stays
// []byte and str stays string, so WriteObject reproduces the kind of
// every value it is given back. Timestamps are time.Time in UTC.
func ReadObject(r *bstream.Reader) (any, error) {
	object, err := readObject(r)
	if err != nil {
		return nil, fmt.Errorf("decoding msgpack object: %w", err)
	}
	return object, nil
}

func readObject(r *bstream.Reader) (any, error) {
	tc, err := r.PeekTypecode()
	if err != nil {
		return nil, err
	}
	switch {
	case bstream.IsNil(tc):
		return nil, r.ReadNil()
	case bstream.IsBool(tc):
		return r.ReadBool()
	case tc >= bstream.Uint8 && tc <= bstream.Uint64:
		return r.ReadUint64()
	case bstream.IsInt(tc):
		return r.ReadInt64()
	case tc == bstream.Float32:
		return r.ReadFloat32()
	case tc == bstream.Float64:
		return r.ReadFloat64()
	case bstream.IsString(tc):
		return r.ReadString()
	case bstream.IsBlob(tc):
		return r.ReadBlob()
	case bstream.IsArray(tc):
		return readArray(r)
	case bstream.IsMap(tc):
		return readMap(r)
	case bstream.IsExt(tc):
		return readExt(r)
	}
	return nil, fmt.Errorf("typecode 0x%02x: %w", tc, bstream.TypeError)
}

func readArray(r *bstream.Reader) ([]any, error) {
	n, err := r.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	items := make([]any, 0, min(n, 1024))
	for range n {
		item, err := readObject(r)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// readMap returns map[string]any when every key is a string and
// map[any]any otherwise.
func readMap(r *bstream.Reader) (any, error) {
	n, err := r.ReadMapHeader()
	if err != nil {
		return nil, err
	}
	keys := make([]any, 0, min(n, 1024))
	values := make([]any, 0, min(n, 1024))
	stringKeys := true
	for range n {
		key, err := readObject(r)
		if err != nil {
			return nil, err
		}
		if t := reflect.TypeOf(key); t != nil && !t.Comparable() {
			return nil, fmt.Errorf("map key of type %T cannot be compared: %w", key, bstream.TypeError)
		}
		value, err := readObject(r)
		if err != nil {
			return nil, err
		}
		if _, ok := key.(string); !ok {
			stringKeys = false
		}
		keys = append(keys, key)
		values = append(values, value)
	}

	if stringKeys {
		m := make(map[string]any, len(keys))
		for i, key := range keys {
			m[key.(string)] = values[i]
		}
		return m, nil
	}
	m := make(map[any]any, len(keys))
	for i, key := range keys {
		m[key] = values[i]
	}
	return m, nil
}

func readExt(r *bstream.Reader) (any, error) {
	raw, err := r.ReadRaw()
	if err != nil {
		return nil, err
	}
	typ, data, err := bstream.NewReader(bstream.NewMemoryInputBytes(raw)).ReadExt()
	if err != nil {
		return nil, err
	}
	if typ == bstream.TimestampExt {
		return bstream.NewReader(bstream.NewMemoryInputBytes(raw)).ReadTime()
	}
	return Ext{Type: typ, Data: data}, nil
}

// WriteObject encodes v with msgpack. Maps are written with sorted
// keys so equal objects produce equal bytes.
func WriteObject(w *bstream.Writer, v any) error {
	if raw, ok := v.(msgpack.RawMessage); ok {
		return WriteRawMessage(w, raw)
	}
	if err := newEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encoding msgpack object: %w", err)
	}
	return nil
}
