// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "dump", 4},
		{"dump", "", 4},
		{"dump", "dump", 0},
		{"dump", "damp", 1},
		{"decode", "decod", 1},
		{"encode", "encodes", 1},
		{"diag", "daig", 2},
		{"kitten", "sitting", 3},
		{"validate", "valdiate", 2},
	}

	for _, test := range tests {
		t.Run(test.a+"/"+test.b, func(t *testing.T) {
			if got := levenshtein(test.a, test.b); got != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
			}
			if reverse := levenshtein(test.b, test.a); reverse != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, want %d", test.b, test.a, reverse, test.want)
			}
		})
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "decode"},
		{Name: "encode"},
		{Name: "diag"},
		{Name: "validate"},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"decoed", "decode"},
		{"encod", "encode"},
		{"daig", "diag"},
		{"valiate", "validate"},
		{"transmogrify", ""},
	}
	for _, test := range tests {
		if got := suggestCommand(test.input, commands); got != test.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	newFlags := func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
		flagSet.BoolP("compact", "c", false, "")
		flagSet.BoolP("slurp", "s", false, "")
		flagSet.String("config", "", "")
		return flagSet
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"long typo", []string{"--compakt"}, "--compact"},
		{"with value", []string{"--confg=/etc/x.yaml"}, "--config"},
		{"after defined flags", []string{"-c", "--slrup", "in.msgpack"}, "--slurp"},
		{"combined shorthands defined", []string{"-cs", "--confi"}, "--config"},
		{"nothing close", []string{"--wholly-unrelated"}, ""},
		{"after terminator", []string{"--", "--compakt"}, ""},
		{"positional only", []string{"in.msgpack"}, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := suggestFlag(test.args, newFlags()); got != test.want {
				t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
			}
		})
	}
}
