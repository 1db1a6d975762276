// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"strings"
	"testing"

	"github.com/bureau-foundation/bstream/cmd/bstream/cli"
)

// TestCommandTree checks that every leaf is runnable and documented,
// and that names are unique among siblings.
func TestCommandTree(t *testing.T) {
	var walk func(path string, command *cli.Command)
	walk = func(path string, command *cli.Command) {
		seen := make(map[string]bool)
		for _, sub := range command.Subcommands {
			if seen[sub.Name] {
				t.Errorf("%s: duplicate subcommand %q", path, sub.Name)
			}
			seen[sub.Name] = true
			subPath := path + " " + sub.Name
			if sub.Summary == "" {
				t.Errorf("%s: missing summary", subPath)
			}
			if len(sub.Subcommands) == 0 && sub.Run == nil {
				t.Errorf("%s: leaf without Run", subPath)
			}
			if sub.Flags != nil {
				// Flag sets are built per parse; a panic here means a
				// duplicate flag name.
				sub.Flags()
			}
			walk(subPath, sub)
		}
	}
	walk("bstream", Root())
}

func TestUnknownCommandSuggestion(t *testing.T) {
	err := Root().Execute([]string{"msgpak"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "msgpack"`) {
		t.Errorf("error = %v, want a suggestion for msgpack", err)
	}

	err = Root().Execute([]string{"msgpack", "dumq"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "dump"`) {
		t.Errorf("error = %v, want a suggestion for dump", err)
	}
}
