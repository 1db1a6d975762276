// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package records

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bstream/cmd/bstream/cli"
	"github.com/bureau-foundation/bstream/lib/bstream"
	"github.com/bureau-foundation/bstream/lib/bstream/mpbridge"
	"github.com/bureau-foundation/bstream/lib/recordlog"
)

// catFormat selects how "log cat" prints each record.
type catFormat int

const (
	// catSummary prints sequence, size and checksum.
	catSummary catFormat = iota
	// catJSON decodes each payload as msgpack and prints a JSON line.
	catJSON
	// catRaw writes the payloads back to back.
	catRaw
)

func catCommand() *cli.Command {
	var (
		configPath string
		from       uint64
		asJSON     bool
		raw        bool
	)

	return &cli.Command{
		Name:    "cat",
		Summary: "Print the records of a log",
		Description: `Print the records of a log in order, starting at --from.

By default each record is one line: sequence number, payload size and
the payload checksum. --json decodes each payload as msgpack and prints
one JSON object per line. --raw writes the payloads themselves, which
for logs filled by "bstream log append" is a msgpack sequence that
"bstream msgpack decode -s" reads back.`,
		Usage: "bstream log cat [--from N] [--json | --raw] <log>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("cat", pflag.ContinueOnError)
			flagSet.Uint64Var(&from, "from", 1, "first sequence number to print")
			flagSet.BoolVar(&asJSON, "json", false, "decode payloads and print JSON lines")
			flagSet.BoolVar(&raw, "raw", false, "write raw payloads")
			cli.ConfigFlag(flagSet, &configPath)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("cat takes exactly one log name, got %d arguments", len(args))
			}
			if asJSON && raw {
				return fmt.Errorf("--json and --raw are mutually exclusive")
			}
			format := catSummary
			switch {
			case asJSON:
				format = catJSON
			case raw:
				format = catRaw
			}

			cfg, logger, err := cli.LoadConfig(configPath)
			if err != nil {
				return err
			}
			options, err := logOptions(cfg, "", logger.With("command", "log/cat"))
			if err != nil {
				return err
			}
			log, err := openLog(cfg, args[0], options, false)
			if err != nil {
				return err
			}
			defer log.Close()
			return catRecords(log, os.Stdout, from, format)
		},
	}
}

// catRecords writes the records of log from from onwards to w.
func catRecords(log *recordlog.Log, w io.Writer, from uint64, format catFormat) error {
	return log.Scan(from, func(seq uint64, payload []byte) error {
		switch format {
		case catJSON:
			object, err := mpbridge.ReadObject(bstream.NewReader(bstream.NewMemoryInputBytes(payload)))
			if err != nil {
				return fmt.Errorf("record %d: %w", seq, err)
			}
			return cli.WriteJSON(w, map[string]any{"seq": seq, "value": cli.JSONValue(object)}, true)
		case catRaw:
			_, err := w.Write(payload)
			return err
		default:
			_, err := fmt.Fprintf(w, "%d\t%d\t%s\n", seq, len(payload), recordlog.ChecksumOf(payload))
			return err
		}
	})
}
