// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesNestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "bstream",
		Subcommands: []*Command{
			{
				Name: "msgpack",
				Subcommands: []*Command{
					{
						Name: "decode",
						Run: func(args []string) error {
							called = "msgpack decode"
							receivedArgs = args
							return nil
						},
					},
				},
			},
			{
				Name: "log",
				Run:  func(args []string) error { called = "log"; return nil },
			},
		},
	}

	if err := root.Execute([]string{"msgpack", "decode", "input.msgpack"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "msgpack decode" {
		t.Errorf("dispatched to %q, want %q", called, "msgpack decode")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "input.msgpack" {
		t.Errorf("args = %v, want [input.msgpack]", receivedArgs)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var compact bool
	var configPath string
	var positional []string

	command := &Command{
		Name: "decode",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			flagSet.BoolVarP(&compact, "compact", "c", false, "compact output")
			flagSet.StringVar(&configPath, "config", "", "config file")
			return flagSet
		},
		Run: func(args []string) error {
			positional = args
			return nil
		},
	}

	if err := command.Execute([]string{"-c", "--config", "/etc/bstream.yaml", "data.msgpack"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !compact {
		t.Error("compact = false, want true")
	}
	if configPath != "/etc/bstream.yaml" {
		t.Errorf("config = %q, want /etc/bstream.yaml", configPath)
	}
	if len(positional) != 1 || positional[0] != "data.msgpack" {
		t.Errorf("args = %v, want [data.msgpack]", positional)
	}
}

func TestExecuteGroupFallsBackToRun(t *testing.T) {
	var received []string
	group := &Command{
		Name:        "msgpack",
		Subcommands: []*Command{{Name: "decode", Run: func([]string) error { return nil }}},
		Run: func(args []string) error {
			received = args
			return nil
		},
	}

	if err := group.Execute([]string{"payload.msgpack"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(received) != 1 || received[0] != "payload.msgpack" {
		t.Errorf("args = %v, want [payload.msgpack]", received)
	}
}

func TestExecuteErrors(t *testing.T) {
	flags := func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
		flagSet.BoolP("compact", "c", false, "compact output")
		flagSet.BoolP("slurp", "s", false, "read a sequence")
		return flagSet
	}
	root := func() *Command {
		return &Command{
			Name: "bstream",
			Subcommands: []*Command{
				{Name: "decode", Flags: flags, Run: func([]string) error { return nil }},
				{Name: "validate", Run: func([]string) error { return nil }},
			},
		}
	}

	tests := []struct {
		name        string
		args        []string
		contains    []string
		notContains string
	}{
		{
			name:     "subcommand typo",
			args:     []string{"decdoe"},
			contains: []string{`unknown command "decdoe"`, `did you mean "decode"`, "bstream --help"},
		},
		{
			name:        "distant subcommand",
			args:        []string{"zzzzzzzz"},
			contains:    []string{"unknown command"},
			notContains: "did you mean",
		},
		{
			name:     "flag typo",
			args:     []string{"decode", "--compcat"},
			contains: []string{"compcat", "did you mean --compact", "bstream decode --help"},
		},
		{
			name:        "distant flag",
			args:        []string{"decode", "--zzzzzzzzzz"},
			contains:    []string{"--help"},
			notContains: "did you mean",
		},
		{
			name:     "missing subcommand",
			args:     nil,
			contains: []string{"subcommand required"},
		},
		{
			name:     "flag without subcommand",
			args:     []string{"--compact"},
			contains: []string{`subcommand required (got flag "--compact")`},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := root().Execute(test.args)
			if err == nil {
				t.Fatalf("Execute(%v) = nil, want error", test.args)
			}
			for _, want := range test.contains {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error = %q, want it to contain %q", err, want)
				}
			}
			if test.notContains != "" && strings.Contains(err.Error(), test.notContains) {
				t.Errorf("error = %q, should not contain %q", err, test.notContains)
			}
		})
	}
}

func TestExecuteHelpRunsNothing(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			called := false
			command := &Command{
				Name: "dump",
				Run: func([]string) error {
					called = true
					return nil
				},
			}
			if err := command.Execute([]string{helpArg}); err != nil {
				t.Fatalf("Execute(%q): %v", helpArg, err)
			}
			if called {
				t.Errorf("Execute(%q) ran the command", helpArg)
			}
		})
	}
}

func TestPrintHelp(t *testing.T) {
	parent := &Command{Name: "bstream"}
	command := &Command{
		Name:        "msgpack",
		Description: "Inspect and produce msgpack data.",
		Subcommands: []*Command{
			{Name: "decode", Summary: "Convert msgpack to JSON"},
			{Name: "dump", Summary: "List typecodes"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("msgpack", pflag.ContinueOnError)
			flagSet.BoolP("hex", "x", false, "treat input as hex")
			return flagSet
		},
		Examples: []Example{
			{Description: "Decode a file", Command: "bstream msgpack decode in.msgpack"},
		},
		parent: parent,
	}

	var output bytes.Buffer
	command.PrintHelp(&output)
	help := output.String()

	for _, want := range []string{
		"Inspect and produce msgpack data.",
		"bstream msgpack <command> [flags]",
		"decode",
		"Convert msgpack to JSON",
		"-x, --hex",
		"# Decode a file",
		"bstream msgpack decode in.msgpack",
		"Run 'bstream msgpack <command> --help'",
	} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 3}
	coder, ok := err.(interface{ ExitCode() int })
	if !ok {
		t.Fatal("ExitError does not implement ExitCode")
	}
	if coder.ExitCode() != 3 {
		t.Errorf("ExitCode() = %d, want 3", coder.ExitCode())
	}
	if err.Error() != "exit code 3" {
		t.Errorf("Error() = %q", err.Error())
	}
}
