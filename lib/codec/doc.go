// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration used when bstream data
// leaves the msgpack world: transcoding values for tools that speak
// CBOR, and rendering them in CBOR diagnostic notation (RFC 8949 §8)
// for humans.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer and float encodings, no indefinite-length
// items. Timestamps are written as tag 0 RFC 3339 strings with
// nanosecond precision so a msgpack timestamp survives the trip in
// both directions.
//
// Transcoding goes through the dynamic object model of
// [github.com/bureau-foundation/bstream/lib/bstream/mpbridge]:
//
//	cborData, err := codec.FromMsgpack(msgpackData)
//	notation, err := codec.Diagnose(cborData)
//	msgpackData, err = codec.ToMsgpack(cborData)
//
// ToMsgpack decodes CBOR maps as map[string]any, so CBOR input with
// non-string map keys is rejected. msgpack input has no such
// restriction.
package codec
