// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the bstream command tree.
package commands

import (
	"fmt"

	"github.com/bureau-foundation/bstream/cmd/bstream/cli"
	"github.com/bureau-foundation/bstream/cmd/bstream/msgpack"
	"github.com/bureau-foundation/bstream/cmd/bstream/records"
	"github.com/bureau-foundation/bstream/lib/version"
)

// Root returns the complete bstream command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "bstream",
		Description: `bstream: inspect and produce bstream serialized data.

Decode, encode, dump and validate msgpack-compatible values, and
append to or read back framed record logs.

Configuration is read from the file named by --config on each
command, else by $BSTREAM_CONFIG, else built-in defaults apply.`,
		Subcommands: []*cli.Command{
			msgpack.Command(),
			records.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					if len(args) > 0 {
						return fmt.Errorf("version takes no arguments, got %q", args[0])
					}
					fmt.Printf("bstream %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
