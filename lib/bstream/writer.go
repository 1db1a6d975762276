// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer encodes msgpack-compatible values onto an [OutputBuffer].
// Integers use the smallest encoding that holds the value; multi-byte
// fields are big-endian.
//
// A Writer is owned by one goroutine at a time, like the buffer under
// it.
type Writer struct {
	out        OutputBuffer
	categories *CategoryContext
	types      TypeResolver
	scratch    [9]byte
}

// NewWriter returns a Writer over out.
func NewWriter(out OutputBuffer, opts ...Option) *Writer {
	o := applyStreamOptions(opts)
	return &Writer{out: out, categories: o.categories, types: o.types}
}

// derive returns a Writer over out sharing w's categories and types.
func (w *Writer) derive(out OutputBuffer) *Writer {
	return &Writer{out: out, categories: w.categories, types: w.types}
}

// Output returns the underlying buffer.
func (w *Writer) Output() OutputBuffer { return w.out }

// Categories returns the category context used for error values.
func (w *Writer) Categories() *CategoryContext { return w.categories }

// Types returns the polymorphic type resolver, or nil.
func (w *Writer) Types() TypeResolver { return w.types }

// Write implements io.Writer by writing p verbatim.
func (w *Writer) Write(p []byte) (int, error) { return w.out.PutN(p) }

// Flush flushes the underlying buffer.
func (w *Writer) Flush() error { return w.out.Flush() }

func (w *Writer) put(p []byte) error {
	_, err := w.out.PutN(p)
	return err
}

func (w *Writer) WriteNil() error { return w.out.Put(Nil) }

func (w *Writer) WriteBool(b bool) error {
	if b {
		return w.out.Put(True)
	}
	return w.out.Put(False)
}

// WriteInt writes i in the smallest encoding. Non-negative values use
// the unsigned forms, as msgpack recommends.
func (w *Writer) WriteInt(i int64) error {
	if i >= 0 {
		return w.WriteUint(uint64(i))
	}
	b := w.scratch[:]
	switch {
	case i >= -32:
		return w.out.Put(byte(i))
	case i >= math.MinInt8:
		b[0], b[1] = Int8, byte(i)
		return w.put(b[:2])
	case i >= math.MinInt16:
		b[0] = Int16
		binary.BigEndian.PutUint16(b[1:], uint16(i))
		return w.put(b[:3])
	case i >= math.MinInt32:
		b[0] = Int32
		binary.BigEndian.PutUint32(b[1:], uint32(i))
		return w.put(b[:5])
	default:
		b[0] = Int64
		binary.BigEndian.PutUint64(b[1:], uint64(i))
		return w.put(b[:9])
	}
}

// WriteUint writes u in the smallest encoding.
func (w *Writer) WriteUint(u uint64) error {
	b := w.scratch[:]
	switch {
	case u <= uint64(PositiveFixintMax):
		return w.out.Put(byte(u))
	case u <= math.MaxUint8:
		b[0], b[1] = Uint8, byte(u)
		return w.put(b[:2])
	case u <= math.MaxUint16:
		b[0] = Uint16
		binary.BigEndian.PutUint16(b[1:], uint16(u))
		return w.put(b[:3])
	case u <= math.MaxUint32:
		b[0] = Uint32
		binary.BigEndian.PutUint32(b[1:], uint32(u))
		return w.put(b[:5])
	default:
		b[0] = Uint64
		binary.BigEndian.PutUint64(b[1:], u)
		return w.put(b[:9])
	}
}

func (w *Writer) WriteFloat32(f float32) error {
	b := w.scratch[:5]
	b[0] = Float32
	binary.BigEndian.PutUint32(b[1:], math.Float32bits(f))
	return w.put(b)
}

func (w *Writer) WriteFloat64(f float64) error {
	b := w.scratch[:9]
	b[0] = Float64
	binary.BigEndian.PutUint64(b[1:], math.Float64bits(f))
	return w.put(b)
}

// writeLength writes a length-prefixed header. fix is the fixed-form
// base byte (zero if the family has none) and limit its exclusive
// bound; b8, b16 and b32 are the sized forms (b8 zero if absent).
func (w *Writer) writeLength(n int, fix byte, limit int, b8, b16, b32 byte) error {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return fmt.Errorf("length %d out of range: %w", n, InvalidOperation)
	}
	b := w.scratch[:]
	switch {
	case fix != 0 && n < limit:
		return w.out.Put(fix | byte(n))
	case b8 != 0 && n <= math.MaxUint8:
		b[0], b[1] = b8, byte(n)
		return w.put(b[:2])
	case n <= math.MaxUint16:
		b[0] = b16
		binary.BigEndian.PutUint16(b[1:], uint16(n))
		return w.put(b[:3])
	default:
		b[0] = b32
		binary.BigEndian.PutUint32(b[1:], uint32(n))
		return w.put(b[:5])
	}
}

func (w *Writer) WriteString(s string) error {
	if err := w.writeLength(len(s), FixstrMin, fixstrLimit, Str8, Str16, Str32); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	return w.put([]byte(s))
}

// WriteBlob writes p as a msgpack bin value.
func (w *Writer) WriteBlob(p []byte) error {
	if err := w.writeLength(len(p), 0, 0, Bin8, Bin16, Bin32); err != nil {
		return err
	}
	return w.put(p)
}

// WriteArrayHeader starts an array of n elements. The caller writes the
// elements.
func (w *Writer) WriteArrayHeader(n int) error {
	return w.writeLength(n, FixarrayMin, fixarrayLimit, 0, Array16, Array32)
}

// WriteMapHeader starts a map of n key/value pairs.
func (w *Writer) WriteMapHeader(n int) error {
	return w.writeLength(n, FixmapMin, fixmapLimit, 0, Map16, Map32)
}

// WriteExt writes an extension value of the given application type.
func (w *Writer) WriteExt(typ int8, data []byte) error {
	b := w.scratch[:]
	var header []byte
	switch n := len(data); n {
	case 1, 2, 4, 8, 16:
		b[0], b[1] = fixextTypecode(n), byte(typ)
		header = b[:2]
	default:
		switch {
		case n <= math.MaxUint8:
			b[0], b[1], b[2] = Ext8, byte(n), byte(typ)
			header = b[:3]
		case n <= math.MaxUint16:
			b[0] = Ext16
			binary.BigEndian.PutUint16(b[1:], uint16(n))
			b[3] = byte(typ)
			header = b[:4]
		case uint64(n) <= math.MaxUint32:
			b[0] = Ext32
			binary.BigEndian.PutUint32(b[1:], uint32(n))
			b[5] = byte(typ)
			header = b[:6]
		default:
			return fmt.Errorf("ext length %d out of range: %w", n, InvalidOperation)
		}
	}
	if err := w.put(header); err != nil {
		return err
	}
	return w.put(data)
}

func fixextTypecode(n int) byte {
	switch n {
	case 1:
		return Fixext1
	case 2:
		return Fixext2
	case 4:
		return Fixext4
	case 8:
		return Fixext8
	}
	return Fixext16
}

// WriteErrorCode writes code as [category index, value], with the
// index taken from the writer's category context. A zero Code is
// written as generic success.
func (w *Writer) WriteErrorCode(code Code) error {
	index := 0
	if code.Category != nil {
		var err error
		if index, err = w.categories.Index(code.Category); err != nil {
			return err
		}
	} else if code.Value != 0 {
		return fmt.Errorf("error value %d without category: %w", code.Value, InvalidErrCategory)
	}
	if err := w.WriteArrayHeader(2); err != nil {
		return err
	}
	if err := w.WriteInt(int64(index)); err != nil {
		return err
	}
	return w.WriteInt(int64(code.Value))
}

// WriteRaw copies already-encoded msgpack bytes to the stream. The
// bytes are not validated.
func (w *Writer) WriteRaw(encoded []byte) error { return w.put(encoded) }
