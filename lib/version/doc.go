// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the bstream binary.
//
// [GitCommit], [BuildTime] and [Version] can be injected with
// -ldflags -X. When the commit is not injected it is taken from the
// VCS stamp the Go toolchain embeds in module builds, if present.
package version
