// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package records

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bstream/cmd/bstream/cli"
	"github.com/bureau-foundation/bstream/lib/bstream"
	"github.com/bureau-foundation/bstream/lib/recordlog"
)

func appendCommand() *cli.Command {
	var (
		configPath  string
		compression string
		raw         bool
	)

	return &cli.Command{
		Name:    "append",
		Summary: "Append records to a log",
		Description: `Read msgpack values from a file or stdin and append each one to the
log as its own record. With --raw the whole input is appended as a
single opaque record instead.

The log is created if it does not exist. Payloads of at least
recordlog.min_compress_size bytes are compressed with the configured
algorithm unless compression does not make them smaller.`,
		Usage: "bstream log append [--raw] [--compression none|lz4|zstd] <log> [file]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("append", pflag.ContinueOnError)
			flagSet.BoolVar(&raw, "raw", false, "append the whole input as one record")
			flagSet.StringVar(&compression, "compression", "", "none, lz4 or zstd (default from config)")
			cli.ConfigFlag(flagSet, &configPath)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return fmt.Errorf("append takes a log name and an optional input file, got %d arguments", len(args))
			}
			cfg, logger, err := cli.LoadConfig(configPath)
			if err != nil {
				return err
			}
			options, err := logOptions(cfg, compression, logger.With("command", "log/append"))
			if err != nil {
				return err
			}

			var in bstream.InputBuffer
			if len(args) == 2 {
				file, err := bstream.OpenFile(args[1], bstream.WithChunkSize(cfg.Files.ReadChunkSize))
				if err != nil {
					return err
				}
				defer file.Close()
				in = file
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				in = bstream.NewMemoryInputBytes(data)
			}

			log, err := openLog(cfg, args[0], options, true)
			if err != nil {
				return err
			}
			first, last, err := appendRecords(log, in, raw)
			if closeErr := log.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return err
			}
			if last >= first {
				fmt.Printf("appended records %d-%d to %s\n", first, last, log.Path())
			}
			return nil
		},
	}
}

// appendRecords appends the contents of in to log and returns the
// first and last sequence numbers written. When nothing is appended
// last is first-1.
func appendRecords(log *recordlog.Log, in bstream.InputBuffer, raw bool) (first, last uint64, err error) {
	first = log.LastSeq() + 1
	last = log.LastSeq()

	if raw {
		payload, err := io.ReadAll(in)
		if err != nil {
			return first, last, err
		}
		if len(payload) == 0 {
			return first, last, fmt.Errorf("empty input: nothing to append")
		}
		if last, err = log.Append(payload); err != nil {
			return first, last, err
		}
		return first, last, log.Flush()
	}

	r := bstream.NewReader(in)
	for {
		if _, err := r.PeekTypecode(); err != nil {
			if errors.Is(err, bstream.ReadPastEndOfStream) {
				break
			}
			return first, last, err
		}
		start := in.Position()
		payload, err := r.ReadRaw()
		if err != nil {
			return first, last, fmt.Errorf("reading value at byte %d: %w", start, err)
		}
		if last, err = log.Append(payload); err != nil {
			return first, last, err
		}
	}
	if last < first {
		return first, last, fmt.Errorf("empty input: nothing to append")
	}
	return first, last, log.Flush()
}
