// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package records

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bstream/cmd/bstream/cli"
)

func truncateCommand() *cli.Command {
	var (
		configPath string
		after      uint64
		dryRun     bool
	)

	return &cli.Command{
		Name:    "truncate",
		Summary: "Discard the records after a sequence number",
		Description: `Cut the log back so that --after is its last record. Records after it
are removed from the file. Truncating at or past the last record
changes nothing.

With --dry-run, report how many records would be discarded.`,
		Usage: "bstream log truncate --after N [--dry-run] <log>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("truncate", pflag.ContinueOnError)
			flagSet.Uint64Var(&after, "after", 0, "last sequence number to keep (required)")
			flagSet.BoolVar(&dryRun, "dry-run", false, "report without modifying the log")
			cli.ConfigFlag(flagSet, &configPath)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("truncate takes exactly one log name, got %d arguments", len(args))
			}
			cfg, logger, err := cli.LoadConfig(configPath)
			if err != nil {
				return err
			}
			options, err := logOptions(cfg, "", logger.With("command", "log/truncate"))
			if err != nil {
				return err
			}
			log, err := openLog(cfg, args[0], options, false)
			if err != nil {
				return err
			}
			defer log.Close()

			last := log.LastSeq()
			if after >= last {
				fmt.Printf("%s has %d records; nothing after %d\n", log.Path(), last, after)
				return nil
			}
			if dryRun {
				fmt.Printf("would discard records %d-%d of %s\n", after+1, last, log.Path())
				return nil
			}
			if err := log.TruncateAfter(after); err != nil {
				return err
			}
			fmt.Printf("discarded records %d-%d of %s\n", after+1, last, log.Path())
			return nil
		},
	}
}
