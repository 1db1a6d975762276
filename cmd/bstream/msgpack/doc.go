// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package msgpack implements the "bstream msgpack" subcommands for
// inspecting, producing and checking serialized values from the
// command line.
//
// Subcommands:
//
//   - decode: convert msgpack to JSON.
//   - encode: convert JSON or JSONC to msgpack with sorted map keys.
//   - diag: print each value in CBOR diagnostic notation.
//   - dump: list every typecode with its offset and decoded payload.
//   - validate: check that the input is well-formed, reporting the
//     byte offset of the first malformed value.
//
// Input comes from a trailing file argument or stdin. Files are read
// through the bstream file backend using the configured chunk size.
// With --hex the input is hex text, and whitespace in it is ignored.
package msgpack
