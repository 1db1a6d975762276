// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package buffer provides the reference-counted byte region that sits
// under every in-memory stream backend.
//
// A [Buffer] is a view (offset, size, capacity) onto shared storage.
// Storage is reference counted: [Buffer.Slice] hands out another view
// onto the same bytes and bumps the count, [Buffer.Release] drops it.
// What happens when a view is written depends on its [Policy]:
//
//   - [Exclusive]: storage is never shared. Slicing copies.
//   - [CopyOnWrite]: slices share storage until one of them is written.
//     The writer takes a private copy first ([Buffer.ForceUnique]), so
//     every other holder keeps observing the original bytes.
//   - [NoCopyOnWrite]: slices share storage and writes are visible to
//     every holder. Use this only when the aliasing is the point.
//
// Reference counts are atomic, so a buffer that is only read may be
// shared across goroutines. Writers must be exclusive: a Buffer value
// itself is not safe for concurrent mutation.
//
// This package has no dependencies on other bstream packages.
package buffer
