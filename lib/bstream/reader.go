// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/bureau-foundation/bstream/lib/buffer"
)

// largeRead is the size above which variable-length payloads are read
// in pieces, so a corrupt length prefix cannot force a huge allocation
// before the stream runs dry.
const largeRead = 64 * 1024

// Reader decodes msgpack-compatible values from an [InputBuffer].
// Every read demands an exact byte count: running out of input in the
// middle of a value is ReadPastEndOfStream, and a value of the wrong
// class is TypeError.
type Reader struct {
	in         InputBuffer
	categories *CategoryContext
	types      TypeResolver
	scratch    [8]byte

	// raw accumulates consumed bytes while capturing is set (ReadRaw).
	raw       []byte
	capturing bool
}

// NewReader returns a Reader over in.
func NewReader(in InputBuffer, opts ...Option) *Reader {
	o := applyStreamOptions(opts)
	return &Reader{in: in, categories: o.categories, types: o.types}
}

// Input returns the underlying buffer.
func (r *Reader) Input() InputBuffer { return r.in }

// Categories returns the category context used for error values.
func (r *Reader) Categories() *CategoryContext { return r.categories }

// Types returns the polymorphic type resolver, or nil.
func (r *Reader) Types() TypeResolver { return r.types }

// Read implements io.Reader over the raw bytes of the stream.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.in.Read(p)
	r.record(p[:n])
	return n, err
}

func (r *Reader) record(p []byte) {
	if r.capturing {
		r.raw = append(r.raw, p...)
	}
}

// GetN reads up to n bytes. With strict set, fewer than n bytes is
// ReadPastEndOfStream and the bytes that were available are returned
// alongside the error; otherwise a short result is not an error.
func (r *Reader) GetN(n int, strict bool) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("read of %d bytes: %w", n, InvalidOperation)
	}
	p := make([]byte, n)
	got, err := r.in.GetN(p)
	r.record(p[:got])
	if err != nil {
		return p[:got], err
	}
	if got < n && strict {
		return p[:got], fmt.Errorf("read %d of %d bytes: %w", got, n, ReadPastEndOfStream)
	}
	return p[:got], nil
}

func (r *Reader) readFull(p []byte) error {
	got, err := r.in.GetN(p)
	r.record(p[:got])
	if err != nil {
		return err
	}
	if got < len(p) {
		return fmt.Errorf("read %d of %d bytes: %w", got, len(p), ReadPastEndOfStream)
	}
	return nil
}

func (r *Reader) readByte() (byte, error) {
	b, err := r.in.Get()
	if err != nil {
		return 0, err
	}
	if r.capturing {
		r.raw = append(r.raw, b)
	}
	return b, nil
}

func (r *Reader) read16() (uint16, error) {
	if err := r.readFull(r.scratch[:2]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.scratch[:2]), nil
}

func (r *Reader) read32() (uint32, error) {
	if err := r.readFull(r.scratch[:4]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r.scratch[:4]), nil
}

func (r *Reader) read64() (uint64, error) {
	if err := r.readFull(r.scratch[:8]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(r.scratch[:8]), nil
}

// readBytes reads exactly n bytes into a new slice.
func (r *Reader) readBytes(n int) ([]byte, error) {
	if n <= largeRead {
		p := make([]byte, n)
		return p, r.readFull(p)
	}
	p := make([]byte, 0, largeRead)
	for len(p) < n {
		chunk := min(n-len(p), largeRead)
		start := len(p)
		p = append(p, make([]byte, chunk)...)
		if err := r.readFull(p[start:]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// discard consumes n bytes without keeping them.
func (r *Reader) discard(n int) error {
	var chunk [512]byte
	for n > 0 {
		step := min(n, len(chunk))
		if err := r.readFull(chunk[:step]); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

// PeekTypecode returns the typecode of the next value without
// consuming it.
func (r *Reader) PeekTypecode() (byte, error) { return r.in.Peek() }

func (r *Reader) ReadNil() error {
	tc, err := r.readByte()
	if err != nil {
		return err
	}
	if tc != Nil {
		return typeMismatch("nil", tc)
	}
	return nil
}

func (r *Reader) ReadBool() (bool, error) {
	tc, err := r.readByte()
	if err != nil {
		return false, err
	}
	switch tc {
	case True:
		return true, nil
	case False:
		return false, nil
	}
	return false, typeMismatch("bool", tc)
}

// readInteger decodes any integer form. Values that fit in an int64
// are returned in signed; larger unsigned values set big and are
// returned in unsigned.
func (r *Reader) readInteger(tc byte) (signed int64, unsigned uint64, big bool, err error) {
	switch {
	case IsPositiveFixint(tc):
		return int64(tc), 0, false, nil
	case IsNegativeFixint(tc):
		return int64(int8(tc)), 0, false, nil
	}
	switch tc {
	case Uint8:
		b, err := r.readByte()
		return int64(b), 0, false, err
	case Uint16:
		v, err := r.read16()
		return int64(v), 0, false, err
	case Uint32:
		v, err := r.read32()
		return int64(v), 0, false, err
	case Uint64:
		v, err := r.read64()
		if v > math.MaxInt64 {
			return 0, v, true, err
		}
		return int64(v), 0, false, err
	case Int8:
		b, err := r.readByte()
		return int64(int8(b)), 0, false, err
	case Int16:
		v, err := r.read16()
		return int64(int16(v)), 0, false, err
	case Int32:
		v, err := r.read32()
		return int64(int32(v)), 0, false, err
	case Int64:
		v, err := r.read64()
		return int64(v), 0, false, err
	}
	return 0, 0, false, typeMismatch("integer", tc)
}

// ReadInt64 reads any integer encoding that fits in an int64.
func (r *Reader) ReadInt64() (int64, error) {
	tc, err := r.readByte()
	if err != nil {
		return 0, err
	}
	signed, unsigned, big, err := r.readInteger(tc)
	if err != nil {
		return 0, err
	}
	if big {
		return 0, fmt.Errorf("integer %d overflows int64: %w", unsigned, TypeError)
	}
	return signed, nil
}

// ReadUint64 reads any non-negative integer encoding.
func (r *Reader) ReadUint64() (uint64, error) {
	tc, err := r.readByte()
	if err != nil {
		return 0, err
	}
	signed, unsigned, big, err := r.readInteger(tc)
	if err != nil {
		return 0, err
	}
	if big {
		return unsigned, nil
	}
	if signed < 0 {
		return 0, fmt.Errorf("negative integer %d for unsigned value: %w", signed, TypeError)
	}
	return uint64(signed), nil
}

func (r *Reader) readSigned(bits int) (int64, error) {
	v, err := r.ReadInt64()
	if err != nil {
		return 0, err
	}
	if bits < 64 {
		if limit := int64(1) << (bits - 1); v < -limit || v >= limit {
			return 0, fmt.Errorf("integer %d overflows int%d: %w", v, bits, TypeError)
		}
	}
	return v, nil
}

func (r *Reader) readUnsigned(bits int) (uint64, error) {
	v, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}
	if bits < 64 && v >= uint64(1)<<bits {
		return 0, fmt.Errorf("integer %d overflows uint%d: %w", v, bits, TypeError)
	}
	return v, nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.readSigned(32)
	return int32(v), err
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.readSigned(16)
	return int16(v), err
}

func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.readSigned(8)
	return int8(v), err
}

// ReadInt reads an integer that fits the platform int.
func (r *Reader) ReadInt() (int, error) {
	v, err := r.readSigned(intSize)
	return int(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.readUnsigned(32)
	return uint32(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.readUnsigned(16)
	return uint16(v), err
}

func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.readUnsigned(8)
	return uint8(v), err
}

func (r *Reader) ReadUint() (uint, error) {
	v, err := r.readUnsigned(intSize)
	return uint(v), err
}

// intSize is the bit width of int.
const intSize = 32 << (^uint(0) >> 63)

// ReadFloat64 reads a float32, float64 or integer value.
func (r *Reader) ReadFloat64() (float64, error) {
	tc, err := r.readByte()
	if err != nil {
		return 0, err
	}
	switch tc {
	case Float32:
		v, err := r.read32()
		return float64(math.Float32frombits(v)), err
	case Float64:
		v, err := r.read64()
		return math.Float64frombits(v), err
	}
	if !IsInt(tc) {
		return 0, typeMismatch("float", tc)
	}
	signed, unsigned, big, err := r.readInteger(tc)
	if big {
		return float64(unsigned), err
	}
	return float64(signed), err
}

// ReadFloat32 reads a float value that fits in a float32. A float64
// outside the float32 range is TypeError.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadFloat64()
	if err != nil {
		return 0, err
	}
	if magnitude := math.Abs(v); magnitude > math.MaxFloat32 && !math.IsInf(v, 0) {
		return 0, fmt.Errorf("float %g overflows float32: %w", v, TypeError)
	}
	return float32(v), nil
}

// readLength decodes the length of a str, bin, array or map header
// whose typecode is tc. It reports false if tc is not one of want.
func (r *Reader) readLength(tc byte, want byte) (int, bool, error) {
	var n uint32
	var err error
	switch want {
	case FixstrMin:
		switch {
		case IsFixstr(tc):
			return int(tc - FixstrMin), true, nil
		case tc == Str8:
			var b byte
			b, err = r.readByte()
			n = uint32(b)
		case tc == Str16:
			var v uint16
			v, err = r.read16()
			n = uint32(v)
		case tc == Str32:
			n, err = r.read32()
		default:
			return 0, false, nil
		}
	case Bin8:
		switch tc {
		case Bin8:
			var b byte
			b, err = r.readByte()
			n = uint32(b)
		case Bin16:
			var v uint16
			v, err = r.read16()
			n = uint32(v)
		case Bin32:
			n, err = r.read32()
		default:
			return 0, false, nil
		}
	case FixarrayMin:
		switch {
		case IsFixarray(tc):
			return int(tc - FixarrayMin), true, nil
		case tc == Array16:
			var v uint16
			v, err = r.read16()
			n = uint32(v)
		case tc == Array32:
			n, err = r.read32()
		default:
			return 0, false, nil
		}
	case FixmapMin:
		switch {
		case IsFixmap(tc):
			return int(tc - FixmapMin), true, nil
		case tc == Map16:
			var v uint16
			v, err = r.read16()
			n = uint32(v)
		case tc == Map32:
			n, err = r.read32()
		default:
			return 0, false, nil
		}
	}
	return int(n), true, err
}

// ReadString reads a str value.
func (r *Reader) ReadString() (string, error) {
	tc, err := r.readByte()
	if err != nil {
		return "", err
	}
	n, ok, err := r.readLength(tc, FixstrMin)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", typeMismatch("string", tc)
	}
	p, err := r.readBytes(n)
	return string(p), err
}

// blobLength reads a bin header. str headers are accepted too, since
// older msgpack writers use raw str for binary data.
func (r *Reader) blobLength() (int, error) {
	tc, err := r.readByte()
	if err != nil {
		return 0, err
	}
	n, ok, err := r.readLength(tc, Bin8)
	if !ok && err == nil {
		n, ok, err = r.readLength(tc, FixstrMin)
	}
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, typeMismatch("blob", tc)
	}
	return n, nil
}

// ReadBlob reads a bin value into a new slice.
func (r *Reader) ReadBlob() ([]byte, error) {
	n, err := r.blobLength()
	if err != nil {
		return nil, err
	}
	return r.readBytes(n)
}

// ReadBlobBuffer reads a bin value as a [buffer.Buffer]. When the input
// can lend slices the result shares its storage; otherwise the bytes
// are copied into an exclusive buffer.
func (r *Reader) ReadBlobBuffer() (*buffer.Buffer, error) {
	n, err := r.blobLength()
	if err != nil {
		return nil, err
	}
	if !r.capturing {
		slice, err := r.in.Slice(n)
		if err == nil {
			return slice, nil
		}
		if !errors.Is(err, IBStreamBufNotShareable) {
			return nil, err
		}
	}
	p, err := r.readBytes(n)
	if err != nil {
		return nil, err
	}
	return buffer.Wrap(p, buffer.Exclusive), nil
}

// ReadArrayHeader reads an array header and returns the element count.
func (r *Reader) ReadArrayHeader() (int, error) {
	tc, err := r.readByte()
	if err != nil {
		return 0, err
	}
	n, ok, err := r.readLength(tc, FixarrayMin)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, typeMismatch("array", tc)
	}
	return n, nil
}

// ReadMapHeader reads a map header and returns the pair count.
func (r *Reader) ReadMapHeader() (int, error) {
	tc, err := r.readByte()
	if err != nil {
		return 0, err
	}
	n, ok, err := r.readLength(tc, FixmapMin)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, typeMismatch("map", tc)
	}
	return n, nil
}

// CheckArrayHeader reads an array header and fails with
// MemberCountError unless it holds exactly expected elements.
func (r *Reader) CheckArrayHeader(expected int) error {
	n, err := r.ReadArrayHeader()
	if err != nil {
		return err
	}
	if n != expected {
		return fmt.Errorf("array of %d elements, expected %d: %w", n, expected, MemberCountError)
	}
	return nil
}

// extLength decodes the payload length of an ext header.
func (r *Reader) extLength(tc byte) (int, error) {
	switch tc {
	case Fixext1:
		return 1, nil
	case Fixext2:
		return 2, nil
	case Fixext4:
		return 4, nil
	case Fixext8:
		return 8, nil
	case Fixext16:
		return 16, nil
	case Ext8:
		b, err := r.readByte()
		return int(b), err
	case Ext16:
		v, err := r.read16()
		return int(v), err
	case Ext32:
		v, err := r.read32()
		return int(v), err
	}
	return 0, typeMismatch("ext", tc)
}

// ReadExt reads an extension value and returns its type and payload.
func (r *Reader) ReadExt() (int8, []byte, error) {
	tc, err := r.readByte()
	if err != nil {
		return 0, nil, err
	}
	n, err := r.extLength(tc)
	if err != nil {
		return 0, nil, err
	}
	typ, err := r.readByte()
	if err != nil {
		return 0, nil, err
	}
	data, err := r.readBytes(n)
	return int8(typ), data, err
}

// ReadErrorCode reads a [category index, value] pair and resolves the
// index through the reader's category context. An index the context
// does not hold is InvalidErrCategory.
func (r *Reader) ReadErrorCode() (Code, error) {
	if err := r.CheckArrayHeader(2); err != nil {
		return Code{}, err
	}
	index, err := r.ReadInt()
	if err != nil {
		return Code{}, err
	}
	value, err := r.ReadInt()
	if err != nil {
		return Code{}, err
	}
	cat, err := r.categories.Category(index)
	if err != nil {
		return Code{}, err
	}
	return Code{Category: cat, Value: value}, nil
}

// Skip consumes one complete value, including nested containers.
func (r *Reader) Skip() error {
	for pending := 1; pending > 0; pending-- {
		tc, err := r.readByte()
		if err != nil {
			return err
		}
		switch {
		case IsPositiveFixint(tc), IsNegativeFixint(tc), tc == Nil, tc == False, tc == True:
		case tc >= Uint8 && tc <= Int64, IsFloat(tc):
			if err := r.discard(scalarWidth(tc)); err != nil {
				return err
			}
		case IsString(tc):
			n, _, err := r.readLength(tc, FixstrMin)
			if err == nil {
				err = r.discard(n)
			}
			if err != nil {
				return err
			}
		case IsBlob(tc):
			n, _, err := r.readLength(tc, Bin8)
			if err == nil {
				err = r.discard(n)
			}
			if err != nil {
				return err
			}
		case IsExt(tc):
			n, err := r.extLength(tc)
			if err == nil {
				err = r.discard(n + 1)
			}
			if err != nil {
				return err
			}
		case IsArray(tc):
			n, _, err := r.readLength(tc, FixarrayMin)
			if err != nil {
				return err
			}
			pending += n
		case IsMap(tc):
			n, _, err := r.readLength(tc, FixmapMin)
			if err != nil {
				return err
			}
			pending += 2 * n
		default:
			return typeMismatch("value", tc)
		}
	}
	return nil
}

func scalarWidth(tc byte) int {
	switch tc {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	}
	return 8
}

// ReadRaw consumes one complete value and returns its encoded bytes.
func (r *Reader) ReadRaw() ([]byte, error) {
	if r.capturing {
		// Nested capture: the outer capture already records these
		// bytes, so remember where this value starts.
		start := len(r.raw)
		if err := r.Skip(); err != nil {
			return nil, err
		}
		return append([]byte(nil), r.raw[start:]...), nil
	}
	r.capturing = true
	r.raw = r.raw[:0]
	err := r.Skip()
	r.capturing = false
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), r.raw...), nil
}
