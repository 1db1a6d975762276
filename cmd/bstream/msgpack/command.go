// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package msgpack

import (
	"github.com/bureau-foundation/bstream/cmd/bstream/cli"
)

// Command returns the "msgpack" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "msgpack",
		Summary: "Inspect, produce, and validate msgpack data",
		Description: `Tools for working with bstream's msgpack-compatible wire format.

Every serialized value is a typecode-tagged record: integers in their
smallest encoding, strings and blobs with a length prefix, structs as
arrays of members, maps as arrays of [key, value] pairs. Native msgpack
from other producers decodes the same way.

All subcommands accept an optional trailing file path. Without one,
input is read from stdin. With --hex, input is hex text such as
"93 01 02 03".`,
		Subcommands: []*cli.Command{
			decodeCommand(),
			encodeCommand(),
			diagCommand(),
			dumpCommand(),
			validateCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Decode a file to pretty JSON",
				Command:     "bstream msgpack decode value.msgpack",
			},
			{
				Description: "Encode JSON and inspect the typecodes",
				Command:     "echo '{\"count\":42}' | bstream msgpack encode | bstream msgpack dump",
			},
			{
				Description: "Check a hex dump from a bug report",
				Command:     "echo '93 01 02' | bstream msgpack validate --hex",
			},
		},
	}
}
