// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command tree framework behind the bstream binary.
//
// A [Command] is either a group, dispatching its first positional
// argument to a subcommand, or a leaf with a Run function and an
// optional pflag flag set. Unknown commands and flags are reported
// with the closest defined name. Commands that want a specific exit
// status without an error line return [ExitError].
//
// [NewCommandLogger] builds the slog logger commands use for progress
// and diagnostics: text on a terminal, JSON otherwise.
package cli
