// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package msgpack

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bstream/cmd/bstream/cli"
	"github.com/bureau-foundation/bstream/lib/bstream"
	"github.com/bureau-foundation/bstream/lib/config"
)

var errEmptyInput = errors.New("empty input: expected msgpack data")

// inputOptions are the flags shared by every subcommand that reads
// msgpack.
type inputOptions struct {
	HexInput   bool
	ConfigPath string
}

func (o *inputOptions) register(flagSet *pflag.FlagSet) {
	flagSet.BoolVarP(&o.HexInput, "hex", "x", false, "treat input as hex-encoded msgpack")
	cli.ConfigFlag(flagSet, &o.ConfigPath)
}

// source is an opened input stream and its release function.
type source struct {
	in    bstream.InputBuffer
	close func() error
}

// openInput opens the input named by the last element of args, if it
// is a regular file, or stdin otherwise. It returns the args with the
// consumed path removed.
//
// A plain file is streamed through the file backend. Stdin and hex
// input are read into memory first.
func openInput(args []string, hexMode bool, cfg *config.Config) (*source, []string, error) {
	path := ""
	remaining := args
	if length := len(args); length > 0 {
		if info, err := os.Stat(args[length-1]); err == nil && info.Mode().IsRegular() {
			path = args[length-1]
			remaining = args[:length-1]
		}
	}

	if path != "" && !hexMode {
		file, err := bstream.OpenFile(path, bstream.WithChunkSize(cfg.Files.ReadChunkSize))
		if err != nil {
			return nil, nil, err
		}
		return &source{in: file, close: file.Close}, remaining, nil
	}

	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(os.Stdin)
		path = "stdin"
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if hexMode {
		if data, err = decodeHexInput(data); err != nil {
			return nil, nil, err
		}
	}
	return &source{in: bstream.NewMemoryInputBytes(data), close: func() error { return nil }}, remaining, nil
}

// decodeHexInput strips whitespace from hex text and decodes it.
func decodeHexInput(data []byte) ([]byte, error) {
	cleaned := bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("empty input after stripping whitespace from hex")
	}

	decoded := make([]byte, hex.DecodedLen(len(cleaned)))
	count, err := hex.Decode(decoded, cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded[:count], nil
}

// runWithInput is the common body of the reading subcommands: resolve
// the configuration, open the input, reject stray arguments and hand
// the stream to fn.
func runWithInput(name string, args []string, options *inputOptions, fn func(in bstream.InputBuffer, cfg *config.Config) error) error {
	cfg, _, err := cli.LoadConfig(options.ConfigPath)
	if err != nil {
		return err
	}
	input, remaining, err := openInput(args, options.HexInput, cfg)
	if err != nil {
		return err
	}
	defer input.close()
	if len(remaining) > 0 {
		return fmt.Errorf("%s takes no positional arguments besides an optional file path, got %q", name, remaining[0])
	}
	return fn(input.in, cfg)
}

// eachValue calls fn once per top-level value until the input is
// exhausted. fn receives the value's index and starting offset and
// must consume exactly one value from r. It returns the number of
// values seen.
func eachValue(r *bstream.Reader, fn func(index int, start int64) error) (int, error) {
	count := 0
	for {
		if _, err := r.PeekTypecode(); err != nil {
			if errors.Is(err, bstream.ReadPastEndOfStream) {
				return count, nil
			}
			return count, err
		}
		if err := fn(count, r.Input().Position()); err != nil {
			return count, err
		}
		count++
	}
}
