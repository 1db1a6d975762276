// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bstream is a buffered, seekable binary stream engine with a
// msgpack-compatible value layer and a serialization dispatch
// framework on top.
//
// The package has three layers:
//
//   - Stream buffers. [InputBuffer] and [OutputBuffer] are cursors
//     over windows of bytes supplied by a backend. [MemoryInput] and
//     [MemoryOutput] wrap a copy-on-write [buffer.Buffer];
//     [FileInput] and [FileOutput] wrap a file descriptor with chunked
//     reads and lazy, gap-filling writes that never issue an lseek the
//     descriptor does not need.
//   - Values. [Writer] and [Reader] encode and decode msgpack records:
//     integers in their smallest form, floats, strings, blobs, array
//     and map headers, extensions, timestamps and portable error codes.
//   - Dispatch. [Write], [Read] and [ReadInto] pick one strategy per
//     type, in a fixed priority order, among EncodeBstream and
//     DecodeBstream methods, registered functions, and builtin adapters
//     for primitives, slices, arrays, maps, sets, pointers, structs
//     and polymorphic families.
//
// Typical use:
//
//	out := bstream.NewMemoryOutput(0)
//	w := bstream.NewWriter(out)
//	if err := bstream.Write(w, record); err != nil { ... }
//
//	r := bstream.NewReader(bstream.NewMemoryInputBytes(out.Bytes()))
//	record, err := bstream.Read[Record](r)
//
// # Errors
//
// Failures are reported as error values. Conditions raised by this
// package are [Errc] values in [BstreamCategory] and match with
// errors.Is; operating system failures from the file backends are
// generic-category [Code] values carrying the errno. Every operation
// has exactly one error-returning implementation; [Must], [Check],
// [MustReadAs] and [MustWrite] are panicking wrappers for code that
// prefers to unwind, and [Recover] converts the panic back into an
// error at the edge.
//
// Error codes cross a stream as [category index, value]. The index is
// resolved through the [CategoryContext] given to the stream with
// [WithCategoryContext]; writer and reader must agree on the indices.
//
// # Dispatch priority
//
// Encoding uses, in order: an EncodeBstream method on T or *T, a
// function registered with [RegisterSerializer], the builtin adapter.
//
// [Read] produces a new value using: DecodeBstream on *T, a
// [RegisterValueDeserializer] function, a [RegisterRefDeserializer]
// function applied to the zero value, the builtin adapter. [ReadInto]
// fills an existing value and prefers the ref deserializer, then the
// value deserializer, then DecodeBstream, then the builtin adapter.
//
// Strategies are resolved on first use of a type and cached.
// Registration must happen before that, normally in init; registering
// late or registering the same slot twice panics.
//
// # Wire forms of the builtin adapters
//
// Slices and arrays are msgpack arrays; []byte and [N]byte are bin.
// Structs are tuples of their exported fields in declaration order
// (fields tagged `bstream:"-"` are skipped) and decoding checks the
// field count. Maps, [SortedMap] and []Pair are arrays of [key, value]
// pairs in key order, so equal contents produce identical bytes
// whichever container wrote them. Sets (map[K]struct{}) are arrays of
// sorted keys. time.Time is the msgpack timestamp extension.
//
// Members of a polymorphic family implement [Polymorphic] and are
// written as [tag, [items...]]. The tag is resolved through the
// [TypeResolver] given with [WithTypes], usually a [TypeRegistry].
//
// Streams are single-owner and not safe for concurrent use. Buffers
// may be shared read-only across goroutines through copy-on-write.
package bstream
