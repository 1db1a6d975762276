// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package msgpack

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bstream/cmd/bstream/cli"
	"github.com/bureau-foundation/bstream/lib/bstream"
	"github.com/bureau-foundation/bstream/lib/config"
)

const (
	// maxDumpString is the longest string shown in full.
	maxDumpString = 48
	// maxDumpBlob is the number of blob bytes shown in hex.
	maxDumpBlob = 16
)

func dumpCommand() *cli.Command {
	var (
		options inputOptions
		color   string
	)

	return &cli.Command{
		Name:    "dump",
		Summary: "List the typecodes in msgpack input",
		Description: `Print one line per encoded item: its byte offset, the typecode byte,
the typecode class, and the decoded payload. Container items are
followed by their elements, indented one level.

    00000000  93  fixarray         3 items
    00000001    01  positive fixint  1

Output is colored when stdout is a terminal. --color (or output.color
in the config file) forces it on or off.`,
		Usage: "bstream msgpack dump [--color auto|always|never] [-x] [file]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("dump", pflag.ContinueOnError)
			flagSet.StringVar(&color, "color", "", "color output: auto, always or never (default from config)")
			options.register(flagSet)
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "List the structure of a file",
				Command:     "bstream msgpack dump value.msgpack",
			},
			{
				Description: "Dump hex from a log line",
				Command:     "echo '92 a1 61 c3' | bstream msgpack dump --hex",
			},
		},
		Run: func(args []string) error {
			return runWithInput("dump", args, &options, func(in bstream.InputBuffer, cfg *config.Config) error {
				mode := cfg.Output.Color
				if color != "" {
					mode = color
				}
				enabled, err := colorEnabled(mode, os.Stdout)
				if err != nil {
					return err
				}
				return dumpMsgpack(in, os.Stdout, enabled)
			})
		},
	}
}

func colorEnabled(mode string, out *os.File) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		return cli.IsTerminal(out), nil
	default:
		return false, fmt.Errorf("--color must be auto, always or never, got %q", mode)
	}
}

// dumpStyles colors the columns of a dump line.
type dumpStyles struct {
	offset    lipgloss.Style
	typecode  lipgloss.Style
	container lipgloss.Style
	scalar    lipgloss.Style
	text      lipgloss.Style
}

func newDumpStyles(w io.Writer, color bool) dumpStyles {
	renderer := lipgloss.NewRenderer(w)
	if color {
		renderer.SetColorProfile(termenv.ANSI256)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return dumpStyles{
		offset:    renderer.NewStyle().Foreground(lipgloss.Color("244")),
		typecode:  renderer.NewStyle().Foreground(lipgloss.Color("141")),
		container: renderer.NewStyle().Foreground(lipgloss.Color("75")).Bold(true),
		scalar:    renderer.NewStyle().Foreground(lipgloss.Color("114")),
		text:      renderer.NewStyle().Foreground(lipgloss.Color("222")),
	}
}

type dumper struct {
	r      *bstream.Reader
	w      io.Writer
	styles dumpStyles
}

// dumpMsgpack writes a typecode listing of every value in in.
func dumpMsgpack(in bstream.InputBuffer, w io.Writer, color bool) error {
	d := &dumper{r: bstream.NewReader(in), w: w, styles: newDumpStyles(w, color)}
	count, err := eachValue(d.r, func(index int, start int64) error {
		if err := d.item(0); err != nil {
			return fmt.Errorf("dump value %d at byte %d: %w", index, start, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return errEmptyInput
	}
	return nil
}

// item prints the next encoded item and, for containers, its elements.
func (d *dumper) item(depth int) error {
	start := d.r.Input().Position()
	tc, err := d.r.PeekTypecode()
	if err != nil {
		return err
	}

	detail, children, err := d.payload(tc)
	if err != nil {
		return err
	}

	container := bstream.IsArray(tc) || bstream.IsMap(tc)
	nameStyle, detailStyle := d.styles.scalar, d.styles.scalar
	if container {
		nameStyle = d.styles.container
	}
	if bstream.IsString(tc) {
		detailStyle = d.styles.text
	}

	indent := strings.Repeat("  ", depth)
	_, err = fmt.Fprintf(d.w, "%s  %s%s  %s %s\n",
		d.styles.offset.Render(fmt.Sprintf("%08x", start)),
		indent,
		d.styles.typecode.Render(fmt.Sprintf("%02x", tc)),
		nameStyle.Render(fmt.Sprintf("%-16s", bstream.TypecodeName(tc))),
		detailStyle.Render(detail),
	)
	if err != nil {
		return err
	}

	for range children {
		if err := d.item(depth + 1); err != nil {
			return err
		}
	}
	return nil
}

// payload consumes the item whose typecode is tc and describes it.
// For containers only the header is consumed, and children is the
// number of items that follow.
func (d *dumper) payload(tc byte) (detail string, children int, err error) {
	r := d.r
	switch {
	case bstream.IsArray(tc):
		n, err := r.ReadArrayHeader()
		return fmt.Sprintf("%d items", n), n, err

	case bstream.IsMap(tc):
		n, err := r.ReadMapHeader()
		return fmt.Sprintf("%d pairs", n), 2 * n, err

	case bstream.IsNil(tc):
		return "nil", 0, r.ReadNil()

	case bstream.IsBool(tc):
		v, err := r.ReadBool()
		return strconv.FormatBool(v), 0, err

	case tc == bstream.Uint64:
		v, err := r.ReadUint64()
		return strconv.FormatUint(v, 10), 0, err

	case bstream.IsInt(tc):
		v, err := r.ReadInt64()
		return strconv.FormatInt(v, 10), 0, err

	case bstream.IsFloat(tc):
		v, err := r.ReadFloat64()
		return strconv.FormatFloat(v, 'g', -1, 64), 0, err

	case bstream.IsString(tc):
		v, err := r.ReadString()
		if len(v) > maxDumpString {
			return fmt.Sprintf("%s... (%d bytes)", strconv.Quote(v[:maxDumpString]), len(v)), 0, err
		}
		return strconv.Quote(v), 0, err

	case bstream.IsBlob(tc):
		v, err := r.ReadBlob()
		return describeBytes(v), 0, err

	case bstream.IsExt(tc):
		extType, data, err := r.ReadExt()
		return fmt.Sprintf("type %d, %s", extType, describeBytes(data)), 0, err
	}
	return "", 0, fmt.Errorf("reserved typecode 0x%02x", tc)
}

func describeBytes(data []byte) string {
	if len(data) > maxDumpBlob {
		return fmt.Sprintf("%d bytes %s...", len(data), hex.EncodeToString(data[:maxDumpBlob]))
	}
	if len(data) == 0 {
		return "0 bytes"
	}
	return fmt.Sprintf("%d bytes %s", len(data), hex.EncodeToString(data))
}
