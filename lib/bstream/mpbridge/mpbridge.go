// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mpbridge

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/bureau-foundation/bstream/lib/bstream"
)

var (
	customEncoderType = reflect.TypeFor[msgpack.CustomEncoder]()
	customDecoderType = reflect.TypeFor[msgpack.CustomDecoder]()
	marshalerType     = reflect.TypeFor[msgpack.Marshaler]()
	unmarshalerType   = reflect.TypeFor[msgpack.Unmarshaler]()
)

func init() {
	bstream.RegisterSerializer(func(w *bstream.Writer, raw msgpack.RawMessage) error {
		return WriteRawMessage(w, raw)
	})
	bstream.RegisterValueDeserializer(ReadRawMessage)
}

// implements reports whether T or *T has the method set of iface.
func implements(t, iface reflect.Type) bool {
	return t.Implements(iface) || reflect.PointerTo(t).Implements(iface)
}

// Adapt registers bstream strategies for T from its msgpack hooks. An
// EncodeMsgpack method is used for writing in preference to
// MarshalMsgpack, and DecodeMsgpack in preference to UnmarshalMsgpack
// for reading. Both decoding hooks fill an existing value, so they are
// registered as ref deserializers.
//
// Like the bstream registration functions, Adapt must run before T is
// first used, typically in an init function. It panics if T has no
// msgpack hooks at all.
func Adapt[T any]() {
	t := reflect.TypeFor[T]()
	adapted := false

	switch {
	case implements(t, customEncoderType):
		bstream.RegisterSerializer(func(w *bstream.Writer, v T) error {
			return any(&v).(msgpack.CustomEncoder).EncodeMsgpack(newEncoder(w))
		})
		adapted = true
	case implements(t, marshalerType):
		bstream.RegisterSerializer(func(w *bstream.Writer, v T) error {
			encoded, err := any(&v).(msgpack.Marshaler).MarshalMsgpack()
			if err != nil {
				return err
			}
			return w.WriteRaw(encoded)
		})
		adapted = true
	}

	switch {
	case reflect.PointerTo(t).Implements(customDecoderType):
		bstream.RegisterRefDeserializer(func(r *bstream.Reader, dst *T) error {
			raw, err := r.ReadRaw()
			if err != nil {
				return err
			}
			return any(dst).(msgpack.CustomDecoder).DecodeMsgpack(newDecoder(raw))
		})
		adapted = true
	case reflect.PointerTo(t).Implements(unmarshalerType):
		bstream.RegisterRefDeserializer(func(r *bstream.Reader, dst *T) error {
			raw, err := r.ReadRaw()
			if err != nil {
				return err
			}
			return any(dst).(msgpack.Unmarshaler).UnmarshalMsgpack(raw)
		})
		adapted = true
	}

	if !adapted {
		panic(fmt.Sprintf("mpbridge: %s has no msgpack encoding or decoding methods", t))
	}
}

// RegisterAs registers fn as the constructor for T: bstream.Read
// captures one value and passes it to fn. A fill strategy registered
// by [Adapt] still takes precedence for bstream.ReadInto.
func RegisterAs[T any](fn func(raw msgpack.RawMessage) (T, error)) {
	bstream.RegisterValueDeserializer(func(r *bstream.Reader) (T, error) {
		raw, err := ReadRawMessage(r)
		if err != nil {
			var zero T
			return zero, err
		}
		return fn(raw)
	})
}

// newEncoder returns a msgpack encoder that writes into w with
// deterministic map ordering.
func newEncoder(w *bstream.Writer) *msgpack.Encoder {
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	return enc
}

// newDecoder returns a msgpack decoder over one captured value. Maps
// decoded into interfaces are map[string]any unless a key is not a
// string.
func newDecoder(raw []byte) *msgpack.Decoder {
	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	dec.SetMapDecoder(decodeMap)
	return dec
}

func decodeMap(dec *msgpack.Decoder) (any, error) {
	untyped, err := dec.DecodeUntypedMap()
	if err != nil || untyped == nil {
		return untyped, err
	}
	keyed := make(map[string]any, len(untyped))
	for key, value := range untyped {
		s, ok := key.(string)
		if !ok {
			return untyped, nil
		}
		keyed[s] = value
	}
	return keyed, nil
}

// ReadRawMessage captures the next value verbatim.
func ReadRawMessage(r *bstream.Reader) (msgpack.RawMessage, error) {
	raw, err := r.ReadRaw()
	if err != nil {
		return nil, err
	}
	return msgpack.RawMessage(raw), nil
}

// WriteRawMessage copies an encoded value into w. An empty message is
// written as nil.
func WriteRawMessage(w *bstream.Writer, raw msgpack.RawMessage) error {
	if len(raw) == 0 {
		return w.WriteNil()
	}
	return w.WriteRaw(raw)
}
