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
	"github.com/bureau-foundation/bstream/lib/config"
)

func validateCommand() *cli.Command {
	var (
		options inputOptions
		slurp   bool
	)

	return &cli.Command{
		Name:    "validate",
		Summary: "Check that msgpack input is well-formed",
		Description: `Walk the input value by value without decoding it, checking every
typecode and length. Exits 0 and prints "valid" with the value and
byte counts when the input is well-formed, otherwise prints "invalid"
with the reason and exits 1.

A malformed value is reported with the offset it starts at and the
offset where reading failed: a truncated string, a container that
claims more items than follow, or the reserved 0xc1 typecode.

Without -s, a single value is expected and trailing bytes fail.`,
		Usage: "bstream msgpack validate [-s] [-x] [file]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("validate", pflag.ContinueOnError)
			flagSet.BoolVarP(&slurp, "slurp", "s", false, "validate a sequence of values")
			options.register(flagSet)
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Validate a file",
				Command:     "bstream msgpack validate value.msgpack",
			},
			{
				Description: "Validate a record sequence",
				Command:     "bstream msgpack validate -s values.msgpack",
			},
		},
		Run: func(args []string) error {
			return runWithInput("validate", args, &options, func(in bstream.InputBuffer, _ *config.Config) error {
				if err := validateMsgpack(in, os.Stdout, slurp); err != nil {
					fmt.Printf("invalid: %v\n", err)
					return &cli.ExitError{Code: 1}
				}
				return nil
			})
		},
	}
}

// validateMsgpack skips over every value in in and reports the first
// structural error.
func validateMsgpack(in bstream.InputBuffer, w io.Writer, slurp bool) error {
	r := bstream.NewReader(in)
	count, err := eachValue(r, func(index int, start int64) error {
		if index > 0 && !slurp {
			return fmt.Errorf("trailing data at byte %d after the first value (use -s to validate a sequence)", start)
		}
		if err := r.Skip(); err != nil {
			return fmt.Errorf("value %d starting at byte %d is malformed at byte %d: %w",
				index, start, in.Position(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return errEmptyInput
	}
	_, err = fmt.Fprintf(w, "valid (%d values, %d bytes)\n", count, in.Position())
	return err
}
