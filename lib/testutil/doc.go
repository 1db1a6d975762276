// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for bstream packages.
//
// [RequireNoError], [RequireErrorIs] and [RequireBytes] are the
// assertions that recur across the stream, record log and CLI tests:
// an operation succeeded, an operation failed with a particular
// condition (an Errc, a Code, an errno), or an encoding matched
// expected bytes exactly.
//
// [WriteTempFile] and [ReadFile] create and read fixture files under
// t.TempDir(), which is removed when the test completes.
//
// [UniquePayload] generates distinguishable record payloads without
// depending on the wall clock.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no dependencies inside this module.
package testutil
