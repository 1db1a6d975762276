// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import (
	"bytes"
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/bureau-foundation/bstream/lib/buffer"
)

// builtin is the package's own adapter for a type. Either function is
// nil when the type cannot be handled in that direction.
type builtin struct {
	encode encodeFunc
	decode decodeFunc
}

// initialCapacity bounds the allocation made from a container count
// read off the wire before any element has been decoded.
const initialCapacity = 1024

var (
	timeType      = reflect.TypeFor[time.Time]()
	codeType      = reflect.TypeFor[Code]()
	bufferPtrType = reflect.TypeFor[*buffer.Buffer]()
	byteType      = reflect.TypeFor[byte]()
)

// builtinFor resolves the builtin adapter for t. Called with the
// registry lock held; element codecs come from lookup.
func (reg *registry) builtinFor(t reflect.Type) builtin {
	switch t {
	case timeType:
		return builtin{
			encode: func(w *Writer, v reflect.Value) error { return w.WriteTime(v.Interface().(time.Time)) },
			decode: func(r *Reader, dst reflect.Value) error {
				value, err := r.ReadTime()
				if err == nil {
					dst.Set(reflect.ValueOf(value))
				}
				return err
			},
		}
	case codeType:
		return builtin{
			encode: func(w *Writer, v reflect.Value) error { return w.WriteErrorCode(v.Interface().(Code)) },
			decode: func(r *Reader, dst reflect.Value) error {
				code, err := r.ReadErrorCode()
				if err == nil {
					dst.Set(reflect.ValueOf(code))
				}
				return err
			},
		}
	case bufferPtrType:
		return bufferAdapter()
	}

	if b, ok := polyAdapter(t); ok {
		return b
	}

	switch t.Kind() {
	case reflect.Bool:
		return builtin{
			encode: func(w *Writer, v reflect.Value) error { return w.WriteBool(v.Bool()) },
			decode: func(r *Reader, dst reflect.Value) error {
				b, err := r.ReadBool()
				dst.SetBool(b)
				return err
			},
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return builtin{
			encode: func(w *Writer, v reflect.Value) error { return w.WriteInt(v.Int()) },
			decode: func(r *Reader, dst reflect.Value) error {
				i, err := r.ReadInt64()
				if err != nil {
					return err
				}
				if dst.OverflowInt(i) {
					return fmt.Errorf("integer %d overflows %s: %w", i, t, TypeError)
				}
				dst.SetInt(i)
				return nil
			},
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return builtin{
			encode: func(w *Writer, v reflect.Value) error { return w.WriteUint(v.Uint()) },
			decode: func(r *Reader, dst reflect.Value) error {
				u, err := r.ReadUint64()
				if err != nil {
					return err
				}
				if dst.OverflowUint(u) {
					return fmt.Errorf("integer %d overflows %s: %w", u, t, TypeError)
				}
				dst.SetUint(u)
				return nil
			},
		}
	case reflect.Float32:
		return builtin{
			encode: func(w *Writer, v reflect.Value) error { return w.WriteFloat32(float32(v.Float())) },
			decode: func(r *Reader, dst reflect.Value) error {
				f, err := r.ReadFloat32()
				dst.SetFloat(float64(f))
				return err
			},
		}
	case reflect.Float64:
		return builtin{
			encode: func(w *Writer, v reflect.Value) error { return w.WriteFloat64(v.Float()) },
			decode: func(r *Reader, dst reflect.Value) error {
				f, err := r.ReadFloat64()
				dst.SetFloat(f)
				return err
			},
		}
	case reflect.String:
		return builtin{
			encode: func(w *Writer, v reflect.Value) error { return w.WriteString(v.String()) },
			decode: func(r *Reader, dst reflect.Value) error {
				s, err := r.ReadString()
				dst.SetString(s)
				return err
			},
		}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return blobAdapter()
		}
		return reg.sliceAdapter(t)
	case reflect.Array:
		if t.Elem() == byteType {
			return byteArrayAdapter(t)
		}
		return reg.arrayAdapter(t)
	case reflect.Map:
		if t.Elem().Kind() == reflect.Struct && t.Elem().NumField() == 0 {
			return reg.setAdapter(t)
		}
		return reg.mapAdapter(t)
	case reflect.Pointer:
		return reg.pointerAdapter(t)
	case reflect.Struct:
		return reg.structAdapter(t)
	}
	// Channels, functions, complex numbers, unsafe pointers and the
	// empty interface have no wire form.
	return builtin{}
}

// nextIsNil consumes a nil if one is next.
func nextIsNil(r *Reader) (bool, error) {
	tc, err := r.PeekTypecode()
	if err != nil {
		return false, err
	}
	if tc != Nil {
		return false, nil
	}
	return true, r.ReadNil()
}

func blobAdapter() builtin {
	return builtin{
		encode: func(w *Writer, v reflect.Value) error { return w.WriteBlob(v.Bytes()) },
		decode: func(r *Reader, dst reflect.Value) error {
			if isNil, err := nextIsNil(r); isNil || err != nil {
				dst.SetZero()
				return err
			}
			p, err := r.ReadBlob()
			if err != nil {
				return err
			}
			dst.SetBytes(p)
			return nil
		},
	}
}

func byteArrayAdapter(t reflect.Type) builtin {
	n := t.Len()
	return builtin{
		encode: func(w *Writer, v reflect.Value) error {
			return w.WriteBlob(addressable(v).Bytes())
		},
		decode: func(r *Reader, dst reflect.Value) error {
			p, err := r.ReadBlob()
			if err != nil {
				return err
			}
			if len(p) != n {
				return fmt.Errorf("blob of %d bytes for %s: %w", len(p), t, MemberCountError)
			}
			reflect.Copy(dst, reflect.ValueOf(p))
			return nil
		},
	}
}

func bufferAdapter() builtin {
	return builtin{
		encode: func(w *Writer, v reflect.Value) error {
			if v.IsNil() {
				return w.WriteNil()
			}
			return w.WriteBlob(v.Interface().(*buffer.Buffer).Bytes())
		},
		decode: func(r *Reader, dst reflect.Value) error {
			if isNil, err := nextIsNil(r); isNil || err != nil {
				dst.SetZero()
				return err
			}
			buf, err := r.ReadBlobBuffer()
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(buf))
			return nil
		},
	}
}

func (reg *registry) sliceAdapter(t reflect.Type) builtin {
	elem := reg.lookup(t.Elem())
	var b builtin
	if elem.writable() {
		b.encode = func(w *Writer, v reflect.Value) error {
			n := v.Len()
			if err := w.WriteArrayHeader(n); err != nil {
				return err
			}
			for i := range n {
				if err := elem.encode(w, v.Index(i)); err != nil {
					return err
				}
			}
			return nil
		}
	}
	if elem.readable() {
		zero := reflect.Zero(t.Elem())
		b.decode = func(r *Reader, dst reflect.Value) error {
			if isNil, err := nextIsNil(r); isNil || err != nil {
				dst.SetZero()
				return err
			}
			n, err := r.ReadArrayHeader()
			if err != nil {
				return err
			}
			s := reflect.MakeSlice(t, 0, min(n, initialCapacity))
			for i := range n {
				s = reflect.Append(s, zero)
				if err := elem.produce(r, s.Index(i)); err != nil {
					return err
				}
			}
			dst.Set(s)
			return nil
		}
	}
	return b
}

func (reg *registry) arrayAdapter(t reflect.Type) builtin {
	elem := reg.lookup(t.Elem())
	n := t.Len()
	var b builtin
	if elem.writable() {
		b.encode = func(w *Writer, v reflect.Value) error {
			if err := w.WriteArrayHeader(n); err != nil {
				return err
			}
			for i := range n {
				if err := elem.encode(w, v.Index(i)); err != nil {
					return err
				}
			}
			return nil
		}
	}
	if elem.readable() {
		b.decode = func(r *Reader, dst reflect.Value) error {
			if err := r.CheckArrayHeader(n); err != nil {
				return err
			}
			for i := range n {
				if err := elem.produce(r, dst.Index(i)); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return b
}

// sortedKey is a map entry together with the key's encoding, when
// keys are ordered by encoded bytes. The value is captured during
// iteration: a NaN key cannot be looked up again.
type sortedKey struct {
	key     reflect.Value
	value   reflect.Value
	encoded []byte
}

// sortKeys orders the entries of m deterministically: booleans,
// numbers and strings by key value, everything else by encoded key.
func sortKeys(w *Writer, kc *codec, m reflect.Value) ([]sortedKey, error) {
	sorted := make([]sortedKey, 0, m.Len())
	for iter := m.MapRange(); iter.Next(); {
		sorted = append(sorted, sortedKey{key: iter.Key(), value: iter.Value()})
	}
	switch kc.typ.Kind() {
	case reflect.Bool:
		slices.SortFunc(sorted, func(a, b sortedKey) int {
			return cmp.Compare(boolRank(a.key.Bool()), boolRank(b.key.Bool()))
		})
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		slices.SortFunc(sorted, func(a, b sortedKey) int { return cmp.Compare(a.key.Int(), b.key.Int()) })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		slices.SortFunc(sorted, func(a, b sortedKey) int { return cmp.Compare(a.key.Uint(), b.key.Uint()) })
	case reflect.Float32, reflect.Float64:
		slices.SortFunc(sorted, func(a, b sortedKey) int { return cmp.Compare(a.key.Float(), b.key.Float()) })
	case reflect.String:
		slices.SortFunc(sorted, func(a, b sortedKey) int { return cmp.Compare(a.key.String(), b.key.String()) })
	default:
		for i := range sorted {
			out := NewMemoryOutput(32)
			if err := kc.encode(w.derive(out), sorted[i].key); err != nil {
				return nil, err
			}
			sorted[i].encoded = out.Bytes()
		}
		slices.SortFunc(sorted, func(a, b sortedKey) int { return bytes.Compare(a.encoded, b.encoded) })
	}
	return sorted, nil
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// writeKey writes a key sorted by sortKeys, reusing its encoding.
func writeKey(w *Writer, kc *codec, key sortedKey) error {
	if key.encoded != nil {
		return w.WriteRaw(key.encoded)
	}
	return kc.encode(w, key.key)
}

// mapAdapter encodes a map as an array of [key, value] pairs in key
// order, the same bytes a SortedMap or a sorted []Pair produces. The
// decoder also accepts a native msgpack map.
func (reg *registry) mapAdapter(t reflect.Type) builtin {
	kc, vc := reg.lookup(t.Key()), reg.lookup(t.Elem())
	var b builtin
	if kc.writable() && vc.writable() {
		b.encode = func(w *Writer, v reflect.Value) error {
			keys, err := sortKeys(w, kc, v)
			if err != nil {
				return err
			}
			if err := w.WriteArrayHeader(len(keys)); err != nil {
				return err
			}
			for _, key := range keys {
				if err := w.WriteArrayHeader(2); err != nil {
					return err
				}
				if err := writeKey(w, kc, key); err != nil {
					return err
				}
				if err := vc.encode(w, key.value); err != nil {
					return err
				}
			}
			return nil
		}
	}
	if kc.readable() && vc.readable() {
		b.decode = func(r *Reader, dst reflect.Value) error {
			tc, err := r.PeekTypecode()
			if err != nil {
				return err
			}
			var n int
			native := IsMap(tc)
			switch {
			case tc == Nil:
				dst.SetZero()
				return r.ReadNil()
			case native:
				n, err = r.ReadMapHeader()
			default:
				n, err = r.ReadArrayHeader()
			}
			if err != nil {
				return err
			}
			m := reflect.MakeMapWithSize(t, min(n, initialCapacity))
			for range n {
				if !native {
					if err := r.CheckArrayHeader(2); err != nil {
						return err
					}
				}
				key := reflect.New(t.Key()).Elem()
				if err := kc.produce(r, key); err != nil {
					return err
				}
				value := reflect.New(t.Elem()).Elem()
				if err := vc.produce(r, value); err != nil {
					return err
				}
				m.SetMapIndex(key, value)
			}
			dst.Set(m)
			return nil
		}
	}
	return b
}

// setAdapter handles map[K]struct{} as a sequence of sorted keys.
func (reg *registry) setAdapter(t reflect.Type) builtin {
	kc := reg.lookup(t.Key())
	var b builtin
	if kc.writable() {
		b.encode = func(w *Writer, v reflect.Value) error {
			keys, err := sortKeys(w, kc, v)
			if err != nil {
				return err
			}
			if err := w.WriteArrayHeader(len(keys)); err != nil {
				return err
			}
			for _, key := range keys {
				if err := writeKey(w, kc, key); err != nil {
					return err
				}
			}
			return nil
		}
	}
	if kc.readable() {
		member := reflect.Zero(t.Elem())
		b.decode = func(r *Reader, dst reflect.Value) error {
			if isNil, err := nextIsNil(r); isNil || err != nil {
				dst.SetZero()
				return err
			}
			n, err := r.ReadArrayHeader()
			if err != nil {
				return err
			}
			m := reflect.MakeMapWithSize(t, min(n, initialCapacity))
			for range n {
				key := reflect.New(t.Key()).Elem()
				if err := kc.produce(r, key); err != nil {
					return err
				}
				m.SetMapIndex(key, member)
			}
			dst.Set(m)
			return nil
		}
	}
	return b
}

// pointerAdapter writes nil pointers as msgpack nil and everything
// else as the pointee.
func (reg *registry) pointerAdapter(t reflect.Type) builtin {
	elem := reg.lookup(t.Elem())
	var b builtin
	if elem.writable() {
		b.encode = func(w *Writer, v reflect.Value) error {
			if v.IsNil() {
				return w.WriteNil()
			}
			return elem.encode(w, v.Elem())
		}
	}
	if elem.readable() {
		b.decode = func(r *Reader, dst reflect.Value) error {
			if isNil, err := nextIsNil(r); isNil || err != nil {
				dst.SetZero()
				return err
			}
			p := reflect.New(t.Elem())
			if err := elem.produce(r, p.Elem()); err != nil {
				return err
			}
			dst.Set(p)
			return nil
		}
	}
	return b
}

type structField struct {
	index int
	codec *codec
}

// structAdapter encodes a struct as a tuple of its exported fields in
// declaration order. Fields tagged `bstream:"-"` are skipped.
func (reg *registry) structAdapter(t reflect.Type) builtin {
	var fields []structField
	writable, readable := true, true
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("bstream") == "-" {
			continue
		}
		fc := reg.lookup(f.Type)
		writable = writable && fc.writable()
		readable = readable && fc.readable()
		fields = append(fields, structField{index: i, codec: fc})
	}

	var b builtin
	if writable {
		b.encode = func(w *Writer, v reflect.Value) error {
			if err := w.WriteArrayHeader(len(fields)); err != nil {
				return err
			}
			for _, f := range fields {
				if err := f.codec.encode(w, v.Field(f.index)); err != nil {
					return fmt.Errorf("%s.%s: %w", t, t.Field(f.index).Name, err)
				}
			}
			return nil
		}
	}
	if readable {
		b.decode = func(r *Reader, dst reflect.Value) error {
			if err := r.CheckArrayHeader(len(fields)); err != nil {
				return fmt.Errorf("%s: %w", t, err)
			}
			for _, f := range fields {
				if err := f.codec.produce(r, dst.Field(f.index)); err != nil {
					return fmt.Errorf("%s.%s: %w", t, t.Field(f.index).Name, err)
				}
			}
			return nil
		}
	}
	return b
}
