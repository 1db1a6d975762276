// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mpbridge connects bstream to the object model of
// github.com/vmihailenco/msgpack/v5.
//
// Types that already know how to encode themselves for msgpack can be
// carried over a bstream without writing EncodeBstream/DecodeBstream
// methods. [Adapt] registers bstream strategies from a type's msgpack
// hooks, preferring the member forms (EncodeMsgpack/DecodeMsgpack)
// over the adaptor forms (MarshalMsgpack/UnmarshalMsgpack). The
// adaptor forms fill an existing value; [RegisterAs] adds a
// constructor for types that are built from a raw object instead.
//
// Both libraries speak the same wire format, so the bridge moves bytes
// rather than translating: decoding captures exactly one value with
// [bstream.Reader.ReadRaw] and hands it to msgpack, and encoding lets
// msgpack write straight into the [bstream.Writer].
//
// [ReadObject] and [WriteObject] move dynamically typed values (nil,
// bool, int64, uint64, float32, float64, string, []byte, time.Time,
// [Ext], []any and maps) across a stream. A [msgpack.RawMessage] is
// always copied through verbatim, including as a struct field or
// container element once this package is imported.
package mpbridge
