// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package msgpack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/bstream/cmd/bstream/cli"
	"github.com/bureau-foundation/bstream/lib/bstream"
	"github.com/bureau-foundation/bstream/lib/bstream/mpbridge"
	"github.com/bureau-foundation/bstream/lib/config"
)

func encodeCommand() *cli.Command {
	var (
		configPath string
		outputPath string
	)

	return &cli.Command{
		Name:    "encode",
		Summary: "Convert JSON to msgpack",
		Description: `Read JSON from stdin (or a file argument) and write msgpack.

Comments and trailing commas are accepted (JSONC), so hand-edited
fixture files can be encoded directly. Each JSON value in the input
becomes one msgpack value in the output sequence.

Integers stay integers in their smallest encoding; numbers with a
fraction or exponent become float64. Map keys are written in sorted
order, so equal documents always produce equal bytes.

The output is binary. With -o it is written to a file created with
the configured permissions; otherwise it goes to stdout.`,
		Usage: "bstream msgpack encode [-o file] [file]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("encode", pflag.ContinueOnError)
			flagSet.StringVarP(&outputPath, "output", "o", "", "write msgpack to this file instead of stdout")
			cli.ConfigFlag(flagSet, &configPath)
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Encode JSON to msgpack",
				Command:     "echo '{\"action\":\"status\"}' | bstream msgpack encode > request.msgpack",
			},
			{
				Description: "Encode a JSONC fixture to a file",
				Command:     "bstream msgpack encode -o fixture.msgpack fixture.jsonc",
			},
		},
		Run: func(args []string) error {
			cfg, logger, err := cli.LoadConfig(configPath)
			if err != nil {
				return err
			}
			data, err := readDocument(args)
			if err != nil {
				return err
			}

			if outputPath == "" {
				out := bstream.NewMemoryOutput(len(data))
				if _, err := encodeMsgpack(data, out); err != nil {
					return err
				}
				_, err = os.Stdout.Write(out.Bytes())
				return err
			}

			out, err := createOutput(outputPath, cfg)
			if err != nil {
				return err
			}
			count, err := encodeMsgpack(data, out)
			if closeErr := out.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return err
			}
			logger.Info("encoded msgpack", "path", outputPath, "values", count)
			return nil
		},
	}
}

// readDocument reads the file named by the single optional argument,
// or stdin.
func readDocument(args []string) ([]byte, error) {
	switch len(args) {
	case 0:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	case 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", args[0], err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("encode takes at most one file argument, got %d", len(args))
	}
}

func createOutput(path string, cfg *config.Config) (*bstream.FileOutput, error) {
	mode, err := cfg.FileMode()
	if err != nil {
		return nil, err
	}
	return bstream.CreateFile(path, bstream.ModeTruncate,
		bstream.WithPermissions(mode),
		bstream.WithChunkSize(cfg.Files.WriteBufferSize),
	)
}

// encodeMsgpack converts every JSON value in data to msgpack on out
// and returns the number of values written.
func encodeMsgpack(data []byte, out bstream.OutputBuffer) (int, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()

	w := bstream.NewWriter(out)
	count := 0
	for {
		var value any
		if err := decoder.Decode(&value); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return count, fmt.Errorf("decode JSON value %d: %w", count, err)
		}
		converted, err := convertNumbers(value)
		if err != nil {
			return count, err
		}
		if err := mpbridge.WriteObject(w, converted); err != nil {
			return count, err
		}
		count++
	}
	if count == 0 {
		return 0, fmt.Errorf("empty input: expected JSON data")
	}
	return count, w.Flush()
}

// convertNumbers replaces json.Number with int64, uint64 or float64 so
// integers are not encoded as floats.
func convertNumbers(v any) (any, error) {
	switch value := v.(type) {
	case json.Number:
		if integer, err := value.Int64(); err == nil {
			return integer, nil
		}
		if unsigned, err := strconv.ParseUint(value.String(), 10, 64); err == nil {
			return unsigned, nil
		}
		float, err := value.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %s: %w", value, err)
		}
		return float, nil

	case map[string]any:
		for key, element := range value {
			converted, err := convertNumbers(element)
			if err != nil {
				return nil, err
			}
			value[key] = converted
		}
		return value, nil

	case []any:
		for index, element := range value {
			converted, err := convertNumbers(element)
			if err != nil {
				return nil, err
			}
			value[index] = converted
		}
		return value, nil

	default:
		return v, nil
	}
}
