// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package records

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/bstream/cmd/bstream/cli"
	"github.com/bureau-foundation/bstream/lib/config"
	"github.com/bureau-foundation/bstream/lib/recordlog"
)

// Command returns the "log" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "log",
		Summary: "Append to, print, and truncate record logs",
		Description: `Record logs are append-only files of numbered records. Each record is
one framed bstream value holding the payload, optionally compressed
with lz4 or zstd, and a keyed BLAKE3 checksum.

A torn tail left by a crash is cut off the next time the log is
opened. A checksum mismatch in the middle of the log is reported as
corruption and never repaired silently.

Logs given as a bare name live under recordlog.dir from the config
file (default ~/.local/state/bstream).`,
		Subcommands: []*cli.Command{
			appendCommand(),
			catCommand(),
			truncateCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Append every value in a msgpack file as a record",
				Command:     "bstream log append events values.msgpack",
			},
			{
				Description: "Print records from the tenth onwards as JSON lines",
				Command:     "bstream log cat --from 10 --json events",
			},
			{
				Description: "Drop everything after record 42",
				Command:     "bstream log truncate --after 42 events",
			},
		},
	}
}

// logOptions builds recordlog options from the configuration. An
// empty compression uses the configured one.
func logOptions(cfg *config.Config, compression string, logger *slog.Logger) (recordlog.Options, error) {
	if compression == "" {
		compression = cfg.RecordLog.Compression
	}
	parsed, err := recordlog.ParseCompression(compression)
	if err != nil {
		return recordlog.Options{}, err
	}
	mode, err := cfg.FileMode()
	if err != nil {
		return recordlog.Options{}, err
	}
	return recordlog.Options{
		Compression:     parsed,
		MinCompressSize: cfg.RecordLog.MinCompressSize,
		ChunkSize:       cfg.Files.ReadChunkSize,
		Permissions:     mode,
		Logger:          logger,
	}, nil
}

// openLog resolves name against the configuration and opens the log,
// creating its directory when create is set.
func openLog(cfg *config.Config, name string, options recordlog.Options, create bool) (*recordlog.Log, error) {
	path := cfg.LogPath(name)
	if create {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("record log %s: %w", path, err)
	}
	return recordlog.Open(path, options)
}
