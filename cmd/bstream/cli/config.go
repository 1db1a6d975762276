// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bstream/lib/config"
)

// ConfigFlag registers --config on flagSet, bound to path.
func ConfigFlag(flagSet *pflag.FlagSet, path *string) {
	flagSet.StringVar(path, "config", "", "path to bstream.yaml (default: $"+config.EnvVar+", then built-in defaults)")
}

// LoadConfig resolves the configuration named by a --config value and
// builds the command logger at the configured level.
func LoadConfig(path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Resolve(path)
	if err != nil {
		return nil, nil, err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, nil, err
	}
	return cfg, NewCommandLogger(level), nil
}
