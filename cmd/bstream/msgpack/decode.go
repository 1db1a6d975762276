// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package msgpack

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bstream/cmd/bstream/cli"
	"github.com/bureau-foundation/bstream/lib/bstream"
	"github.com/bureau-foundation/bstream/lib/bstream/mpbridge"
	"github.com/bureau-foundation/bstream/lib/config"
)

func decodeCommand() *cli.Command {
	var (
		options inputOptions
		compact bool
		slurp   bool
	)

	return &cli.Command{
		Name:    "decode",
		Summary: "Convert msgpack to JSON",
		Description: `Read one msgpack value and write the equivalent JSON to stdout.

Output is pretty-printed with 2-space indentation unless -c is given.
Map keys that are not strings (integers, booleans, or the struct keys
bstream writes for maps keyed by records) are printed as strings.
Blobs appear base64-encoded. Use "bstream msgpack diag" to see the
exact types.

With -s, reads a sequence of concatenated values and writes them as a
JSON array. Without it, bytes after the first value are an error.`,
		Usage: "bstream msgpack decode [-c] [-s] [-x] [file]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			flagSet.BoolVarP(&compact, "compact", "c", false, "compact output (no indentation)")
			flagSet.BoolVarP(&slurp, "slurp", "s", false, "read a msgpack sequence as a JSON array")
			options.register(flagSet)
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Decode a file to pretty JSON",
				Command:     "bstream msgpack decode value.msgpack",
			},
			{
				Description: "Decode a sequence of values to one JSON array",
				Command:     "bstream msgpack decode -s < values.msgpack",
			},
		},
		Run: func(args []string) error {
			return runWithInput("decode", args, &options, func(in bstream.InputBuffer, _ *config.Config) error {
				return decodeMsgpack(in, os.Stdout, compact, slurp)
			})
		},
	}
}

// decodeMsgpack reads msgpack from in and writes JSON to w.
func decodeMsgpack(in bstream.InputBuffer, w io.Writer, compact bool, slurp bool) error {
	if size, err := in.Size(); err != nil {
		return err
	} else if size == 0 {
		return errEmptyInput
	}

	r := bstream.NewReader(in)
	if slurp {
		items := []any{}
		_, err := eachValue(r, func(index int, start int64) error {
			object, err := mpbridge.ReadObject(r)
			if err != nil {
				return fmt.Errorf("decode msgpack sequence item %d at byte %d: %w", index, start, err)
			}
			items = append(items, cli.JSONValue(object))
			return nil
		})
		if err != nil {
			return err
		}
		return cli.WriteJSON(w, items, compact)
	}

	object, err := mpbridge.ReadObject(r)
	if err != nil {
		return fmt.Errorf("decode msgpack: %w", err)
	}
	if _, err := r.PeekTypecode(); err == nil {
		return fmt.Errorf("trailing data at byte %d after the first value (use -s to decode a sequence)", in.Position())
	}
	return cli.WriteJSON(w, cli.JSONValue(object), compact)
}
