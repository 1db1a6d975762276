// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/bstream/lib/testutil"
)

// encode runs write against a fresh Writer and returns the bytes.
func encode(t *testing.T, write func(w *Writer) error, opts ...Option) []byte {
	t.Helper()
	out := NewMemoryOutput(0)
	if err := write(NewWriter(out, opts...)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return out.Bytes()
}

func reader(data []byte, opts ...Option) *Reader {
	return NewReader(NewMemoryInputBytes(data), opts...)
}

func TestWriterEncodings(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer) error
		want  []byte
	}{
		{"nil", func(w *Writer) error { return w.WriteNil() }, []byte{0xc0}},
		{"true", func(w *Writer) error { return w.WriteBool(true) }, []byte{0xc3}},
		{"false", func(w *Writer) error { return w.WriteBool(false) }, []byte{0xc2}},
		{"int 0", func(w *Writer) error { return w.WriteInt(0) }, []byte{0x00}},
		{"int 127", func(w *Writer) error { return w.WriteInt(127) }, []byte{0x7f}},
		{"int 128", func(w *Writer) error { return w.WriteInt(128) }, []byte{0xcc, 0x80}},
		{"int 256", func(w *Writer) error { return w.WriteInt(256) }, []byte{0xcd, 0x01, 0x00}},
		{"int 65536", func(w *Writer) error { return w.WriteInt(65536) }, []byte{0xce, 0x00, 0x01, 0x00, 0x00}},
		{"int 2^32", func(w *Writer) error { return w.WriteInt(1 << 32) }, []byte{0xcf, 0, 0, 0, 1, 0, 0, 0, 0}},
		{"int -1", func(w *Writer) error { return w.WriteInt(-1) }, []byte{0xff}},
		{"int -32", func(w *Writer) error { return w.WriteInt(-32) }, []byte{0xe0}},
		{"int -33", func(w *Writer) error { return w.WriteInt(-33) }, []byte{0xd0, 0xdf}},
		{"int -129", func(w *Writer) error { return w.WriteInt(-129) }, []byte{0xd1, 0xff, 0x7f}},
		{"int -32769", func(w *Writer) error { return w.WriteInt(-32769) }, []byte{0xd2, 0xff, 0xff, 0x7f, 0xff}},
		{"int min", func(w *Writer) error { return w.WriteInt(math.MinInt64) }, []byte{0xd3, 0x80, 0, 0, 0, 0, 0, 0, 0}},
		{"uint max", func(w *Writer) error { return w.WriteUint(math.MaxUint64) }, []byte{0xcf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{"float32", func(w *Writer) error { return w.WriteFloat32(1.5) }, []byte{0xca, 0x3f, 0xc0, 0, 0}},
		{"float64", func(w *Writer) error { return w.WriteFloat64(1.5) }, []byte{0xcb, 0x3f, 0xf8, 0, 0, 0, 0, 0, 0}},
		{"empty string", func(w *Writer) error { return w.WriteString("") }, []byte{0xa0}},
		{"fixstr", func(w *Writer) error { return w.WriteString("hi") }, []byte{0xa2, 'h', 'i'}},
		{"blob", func(w *Writer) error { return w.WriteBlob([]byte{1, 2, 3}) }, []byte{0xc4, 0x03, 1, 2, 3}},
		{"fixarray", func(w *Writer) error { return w.WriteArrayHeader(15) }, []byte{0x9f}},
		{"array16", func(w *Writer) error { return w.WriteArrayHeader(16) }, []byte{0xdc, 0x00, 0x10}},
		{"array32", func(w *Writer) error { return w.WriteArrayHeader(70000) }, []byte{0xdd, 0x00, 0x01, 0x11, 0x70}},
		{"fixmap", func(w *Writer) error { return w.WriteMapHeader(3) }, []byte{0x83}},
		{"map16", func(w *Writer) error { return w.WriteMapHeader(16) }, []byte{0xde, 0x00, 0x10}},
		{"fixext2", func(w *Writer) error { return w.WriteExt(5, []byte{1, 2}) }, []byte{0xd5, 0x05, 1, 2}},
		{"ext8", func(w *Writer) error { return w.WriteExt(-3, []byte{1, 2, 3}) }, []byte{0xc7, 0x03, 0xfd, 1, 2, 3}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			testutil.RequireBytes(t, encode(t, test.write), test.want, test.name)
		})
	}
}

func TestStringLengthForms(t *testing.T) {
	tests := []struct {
		length int
		header []byte
	}{
		{31, []byte{0xbf}},
		{32, []byte{0xd9, 32}},
		{255, []byte{0xd9, 255}},
		{256, []byte{0xda, 0x01, 0x00}},
		{65536, []byte{0xdb, 0x00, 0x01, 0x00, 0x00}},
	}
	for _, test := range tests {
		s := strings.Repeat("x", test.length)
		data := encode(t, func(w *Writer) error { return w.WriteString(s) })
		testutil.RequireBytes(t, data[:len(test.header)], test.header, "header for %d bytes", test.length)
		got, err := reader(data).ReadString()
		if err != nil || got != s {
			t.Errorf("ReadString of %d bytes: len %d, %v", test.length, len(got), err)
		}
	}
}

func TestReaderIntegers(t *testing.T) {
	values := []int64{0, 1, 127, 128, 255, 256, 65535, 65536, math.MaxInt32, math.MaxInt32 + 1,
		math.MaxInt64, -1, -32, -33, -128, -129, -32768, -32769, math.MinInt32, math.MinInt64}
	for _, value := range values {
		data := encode(t, func(w *Writer) error { return w.WriteInt(value) })
		got, err := reader(data).ReadInt64()
		if err != nil || got != value {
			t.Errorf("ReadInt64 of %d = %d, %v", value, got, err)
		}
	}
}

func TestReaderRangeChecks(t *testing.T) {
	big := encode(t, func(w *Writer) error { return w.WriteUint(math.MaxUint64) })
	negative := encode(t, func(w *Writer) error { return w.WriteInt(-1) })
	wide := encode(t, func(w *Writer) error { return w.WriteInt(200) })
	tests := []struct {
		name string
		read func(r *Reader) error
		data []byte
	}{
		{"int64 from max uint64", func(r *Reader) error { _, err := r.ReadInt64(); return err }, big},
		{"uint64 from negative", func(r *Reader) error { _, err := r.ReadUint64(); return err }, negative},
		{"int8 from 200", func(r *Reader) error { _, err := r.ReadInt8(); return err }, wide},
		{"uint8 from negative", func(r *Reader) error { _, err := r.ReadUint8(); return err }, negative},
		{"int from string", func(r *Reader) error { _, err := r.ReadInt(); return err }, []byte{0xa1, 'x'}},
		{"string from int", func(r *Reader) error { _, err := r.ReadString(); return err }, wide},
		{"bool from nil", func(r *Reader) error { _, err := r.ReadBool(); return err }, []byte{0xc0}},
		{"nil from bool", func(r *Reader) error { return r.ReadNil() }, []byte{0xc3}},
		{"array from map", func(r *Reader) error { _, err := r.ReadArrayHeader(); return err }, []byte{0x81}},
		{"float from string", func(r *Reader) error { _, err := r.ReadFloat64(); return err }, []byte{0xa0}},
		{"float32 overflow", func(r *Reader) error { _, err := r.ReadFloat32(); return err },
			encode(t, func(w *Writer) error { return w.WriteFloat64(math.MaxFloat64) })},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			testutil.RequireErrorIs(t, test.read(reader(test.data)), TypeError, test.name)
		})
	}

	if got, err := reader(big).ReadUint64(); err != nil || got != math.MaxUint64 {
		t.Errorf("ReadUint64 of max = %d, %v", got, err)
	}
	if got, err := reader(wide).ReadUint8(); err != nil || got != 200 {
		t.Errorf("ReadUint8 of 200 = %d, %v", got, err)
	}
	if got, err := reader(wide).ReadFloat64(); err != nil || got != 200 {
		t.Errorf("ReadFloat64 of integer 200 = %g, %v", got, err)
	}
}

func TestReaderTruncatedValues(t *testing.T) {
	for _, data := range [][]byte{
		{},
		{Uint16, 0x01},
		{Float64, 0x3f, 0xf8},
		{0xa5, 'a', 'b'},
		{Bin8},
		{Array16, 0x00},
	} {
		if err := reader(data).Skip(); !errors.Is(err, ReadPastEndOfStream) {
			t.Errorf("Skip(% x) error = %v, want ReadPastEndOfStream", data, err)
		}
	}
}

func TestStrictGetN(t *testing.T) {
	r := reader([]byte("abc"))
	got, err := r.GetN(5, true)
	testutil.RequireErrorIs(t, err, ReadPastEndOfStream, "strict short read")
	testutil.RequireBytes(t, got, []byte("abc"), "bytes available before the error")

	lenient := reader([]byte("abc"))
	got, err = lenient.GetN(5, false)
	testutil.RequireNoError(t, err, "lenient short read")
	testutil.RequireBytes(t, got, []byte("abc"), "lenient bytes")
}

func TestCheckArrayHeader(t *testing.T) {
	data := encode(t, func(w *Writer) error { return w.WriteArrayHeader(2) })
	testutil.RequireErrorIs(t, reader(data).CheckArrayHeader(3), MemberCountError, "wrong arity")
	testutil.RequireNoError(t, reader(data).CheckArrayHeader(2), "matching arity")
}

func TestBlobAcceptsStr(t *testing.T) {
	got, err := reader([]byte{0xa3, 'r', 'a', 'w'}).ReadBlob()
	if err != nil || string(got) != "raw" {
		t.Errorf("ReadBlob of str = %q, %v", got, err)
	}
}

func TestReadBlobBufferSharesMemoryInput(t *testing.T) {
	data := encode(t, func(w *Writer) error { return w.WriteBlob([]byte("shared")) })
	buf, err := reader(data).ReadBlobBuffer()
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireBytes(t, buf.Bytes(), []byte("shared"), "blob")
	if !buf.IsShared() {
		t.Error("blob from memory input does not share storage")
	}
}

func nestedDocument(w *Writer) error {
	steps := []func() error{
		func() error { return w.WriteArrayHeader(4) },
		func() error { return w.WriteInt(1) },
		func() error { return w.WriteString("two") },
		func() error { return w.WriteMapHeader(1) },
		func() error { return w.WriteInt(3) },
		func() error { return w.WriteArrayHeader(2) },
		func() error { return w.WriteFloat64(4) },
		func() error { return w.WriteExt(7, []byte{1, 2, 3, 4}) },
		func() error { return w.WriteBlob(make([]byte, 300)) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func TestSkipAndReadRaw(t *testing.T) {
	document := encode(t, nestedDocument)
	data := append(append([]byte{}, document...), 0x2a)

	r := reader(data)
	raw, err := r.ReadRaw()
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireBytes(t, raw, document, "raw value")
	if next, err := r.ReadInt64(); err != nil || next != 42 {
		t.Errorf("value after raw = %d, %v", next, err)
	}

	r = reader(data)
	testutil.RequireNoError(t, r.Skip(), "skip")
	if position := r.Input().Position(); position != int64(len(document)) {
		t.Errorf("position after Skip = %d, want %d", position, len(document))
	}
}

func TestTimestampForms(t *testing.T) {
	tests := []struct {
		name   string
		time   time.Time
		header []byte
	}{
		{"32-bit", time.Unix(1, 0), []byte{Fixext4, 0xff}},
		{"64-bit", time.Unix(1700000000, 500), []byte{Fixext8, 0xff}},
		{"96-bit", time.Unix(-1, 5), []byte{Ext8, 12, 0xff}},
		{"96-bit far future", time.Unix(1<<35, 0), []byte{Ext8, 12, 0xff}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := encode(t, func(w *Writer) error { return w.WriteTime(test.time) })
			testutil.RequireBytes(t, data[:len(test.header)], test.header, "timestamp header")
			got, err := reader(data).ReadTime()
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(test.time) {
				t.Errorf("ReadTime = %v, want %v", got, test.time)
			}
		})
	}

	other := encode(t, func(w *Writer) error { return w.WriteExt(3, []byte{1, 2, 3, 4}) })
	if _, err := reader(other).ReadTime(); !errors.Is(err, TypeError) {
		t.Errorf("ReadTime of foreign ext error = %v, want TypeError", err)
	}
}

func TestErrorCodePortability(t *testing.T) {
	app := NewCategory("app", func(value int) string { return "app" })
	writerContext := NewCategoryContext(app)

	code := TypeError.Code()
	data := encode(t, func(w *Writer) error { return w.WriteErrorCode(code) }, WithCategoryContext(writerContext))
	testutil.RequireBytes(t, data, []byte{0x92, 0x01, byte(TypeError)}, "wire form")

	// A different context with the bstream category at the same index
	// decodes the same code.
	got, err := reader(data, WithCategoryContext(NewCategoryContext())).ReadErrorCode()
	if err != nil {
		t.Fatal(err)
	}
	if got != code {
		t.Errorf("decoded %v, want %v", got, code)
	}

	appCode := Code{Category: app, Value: 7}
	data = encode(t, func(w *Writer) error { return w.WriteErrorCode(appCode) }, WithCategoryContext(writerContext))
	if got, err := reader(data, WithCategoryContext(writerContext)).ReadErrorCode(); err != nil || got != appCode {
		t.Errorf("decoded %v, %v; want %v", got, err, appCode)
	}
	_, err = reader(data, WithCategoryContext(NewCategoryContext())).ReadErrorCode()
	testutil.RequireErrorIs(t, err, InvalidErrCategory, "decoding with a context lacking the index")

	out := NewMemoryOutput(0)
	err = NewWriter(out).WriteErrorCode(appCode)
	testutil.RequireErrorIs(t, err, InvalidErrCategory, "encoding with a context lacking the category")
}

func TestTypecodePredicates(t *testing.T) {
	tests := []struct {
		name  string
		check func(byte) bool
		yes   []byte
		no    []byte
	}{
		{"IsInt", IsInt, []byte{0x00, 0x7f, 0xcc, 0xd3, 0xe0, 0xff}, []byte{0x80, 0xc0, 0xca, 0xd4}},
		{"IsArray", IsArray, []byte{0x90, 0x9f, 0xdc, 0xdd}, []byte{0x80, 0xa0, 0xde}},
		{"IsMap", IsMap, []byte{0x80, 0x8f, 0xde, 0xdf}, []byte{0x90, 0xdc}},
		{"IsString", IsString, []byte{0xa0, 0xbf, 0xd9, 0xdb}, []byte{0xc4, 0x9f}},
		{"IsBlob", IsBlob, []byte{0xc4, 0xc5, 0xc6}, []byte{0xc7, 0xd9}},
		{"IsBool", IsBool, []byte{0xc2, 0xc3}, []byte{0xc0, 0x01}},
		{"IsNil", IsNil, []byte{0xc0}, []byte{0xc1, 0x00}},
		{"IsFloat", IsFloat, []byte{0xca, 0xcb}, []byte{0xcc}},
		{"IsExt", IsExt, []byte{0xc7, 0xc9, 0xd4, 0xd8}, []byte{0xc6, 0xd9}},
	}
	for _, test := range tests {
		for _, tc := range test.yes {
			if !test.check(tc) {
				t.Errorf("%s(0x%02x) = false", test.name, tc)
			}
		}
		for _, tc := range test.no {
			if test.check(tc) {
				t.Errorf("%s(0x%02x) = true", test.name, tc)
			}
		}
	}
	if got := TypecodeName(0xc1); got != "never used" {
		t.Errorf("TypecodeName(0xc1) = %q", got)
	}
}
