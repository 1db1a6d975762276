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
	"github.com/bureau-foundation/bstream/lib/codec"
	"github.com/bureau-foundation/bstream/lib/config"
)

func diagCommand() *cli.Command {
	var options inputOptions

	return &cli.Command{
		Name:    "diag",
		Summary: "Print msgpack values in CBOR diagnostic notation",
		Description: `Read msgpack values and print each one on its own line in RFC 8949
Extended Diagnostic Notation.

Unlike JSON, diagnostic notation keeps the type of every item: integer
vs float, byte strings vs text, and non-string map keys.

  {"count": 42, "name": "x"}     text keys, integer value
  {1: true, -3: false}            integer keys
  h'0102'                         blob in hex`,
		Usage: "bstream msgpack diag [-x] [file]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("diag", pflag.ContinueOnError)
			options.register(flagSet)
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Show the types inside a file",
				Command:     "bstream msgpack diag value.msgpack",
			},
		},
		Run: func(args []string) error {
			return runWithInput("diag", args, &options, func(in bstream.InputBuffer, _ *config.Config) error {
				return diagMsgpack(in, os.Stdout)
			})
		},
	}
}

// diagMsgpack writes one line of diagnostic notation per value in in.
func diagMsgpack(in bstream.InputBuffer, w io.Writer) error {
	r := bstream.NewReader(in)
	count, err := eachValue(r, func(index int, start int64) error {
		cborData, err := codec.ReadMsgpack(r)
		if err != nil {
			return fmt.Errorf("diagnose value %d at byte %d: %w", index, start, err)
		}
		notation, err := codec.Diagnose(cborData)
		if err != nil {
			return fmt.Errorf("diagnose value %d at byte %d: %w", index, start, err)
		}
		_, err = fmt.Fprintln(w, notation)
		return err
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return errEmptyInput
	}
	return nil
}
