// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the bstream
// tools.
//
// Configuration is loaded from a single file specified by either the
// BSTREAM_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). [Resolve] picks between them for a command line,
// and falls back to [Default] only when neither names a file. There is
// no ~/.config discovery and no automatic file search.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${BSTREAM_STATE}, and ${VAR:-default} patterns are
// expanded. No other environment variables override config values.
//
// This package depends on no other bstream packages; callers translate
// the plain values here into stream and record log options.
package config
