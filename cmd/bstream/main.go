// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command bstream inspects and produces bstream serialized data.
package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/bstream/cmd/bstream/commands"
)

func main() {
	if err := run(); err != nil {
		// An ExitError carries a status for output the command has
		// already written.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}
