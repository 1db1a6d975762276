// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package records implements the "bstream log" subcommands, which
// append to, print, and truncate record logs.
//
// A log is named by a path or by a bare name resolved against
// recordlog.dir from the configuration. Compression, file chunk size
// and permissions also come from the configuration, with flags to
// override compression per invocation.
package records
