// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import (
	"fmt"
	"reflect"
	"sync"
)

// Decoder is implemented by types that construct themselves from a
// stream. The method is looked up on *T.
type Decoder interface {
	DecodeBstream(r *Reader) error
}

// Encoder is implemented by types that write themselves to a stream.
// The method may be declared on T or *T.
type Encoder interface {
	EncodeBstream(w *Writer) error
}

// Strategy names the mechanism chosen to encode or decode a type.
type Strategy int

const (
	// StrategyNone means the type cannot be handled in that direction.
	StrategyNone Strategy = iota
	// StrategyStream is the DecodeBstream method on *T.
	StrategyStream
	// StrategyValueDeserializer is a function registered with
	// RegisterValueDeserializer.
	StrategyValueDeserializer
	// StrategyRefDeserializer is a function registered with
	// RegisterRefDeserializer.
	StrategyRefDeserializer
	// StrategyMethod is the EncodeBstream method on T or *T.
	StrategyMethod
	// StrategySerializer is a function registered with
	// RegisterSerializer.
	StrategySerializer
	// StrategyBuiltin is one of the package's own adapters for
	// primitives, containers, structs and polymorphic interfaces.
	StrategyBuiltin
)

func (s Strategy) String() string {
	switch s {
	case StrategyNone:
		return "none"
	case StrategyStream:
		return "stream"
	case StrategyValueDeserializer:
		return "value-deserializer"
	case StrategyRefDeserializer:
		return "ref-deserializer"
	case StrategyMethod:
		return "method"
	case StrategySerializer:
		return "serializer"
	case StrategyBuiltin:
		return "builtin"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

type (
	encodeFunc func(w *Writer, v reflect.Value) error
	// decodeFunc stores a decoded value into dst, which is always
	// addressable.
	decodeFunc func(r *Reader, dst reflect.Value) error
)

// codec is the resolved set of strategies for one type. Codecs are
// built once and never change afterwards.
type codec struct {
	typ reflect.Type

	encodeStrategy   Strategy
	readStrategy     Strategy
	readIntoStrategy Strategy

	encode encodeFunc
	// produce decodes a new value into dst, which it resets first.
	produce decodeFunc
	// fill decodes into dst, preferring strategies that update an
	// existing value.
	fill decodeFunc

	// building is set while the codec's own builtin adapter is being
	// resolved, so recursive types see an optimistic answer.
	building bool
}

func (c *codec) readable() bool { return c.building || c.readStrategy != StrategyNone }
func (c *codec) writable() bool { return c.building || c.encodeStrategy != StrategyNone }

// registry holds the registered strategies and the resolved codecs.
type registry struct {
	mu            sync.Mutex
	serializers   map[reflect.Type]encodeFunc
	valueDecoders map[reflect.Type]func(*Reader) (reflect.Value, error)
	refDecoders   map[reflect.Type]func(*Reader, reflect.Value) error

	codecs   sync.Map // reflect.Type -> *codec
	inflight map[reflect.Type]*codec
}

var strategies = &registry{
	serializers:   make(map[reflect.Type]encodeFunc),
	valueDecoders: make(map[reflect.Type]func(*Reader) (reflect.Value, error)),
	refDecoders:   make(map[reflect.Type]func(*Reader, reflect.Value) error),
	inflight:      make(map[reflect.Type]*codec),
}

var (
	encoderType = reflect.TypeFor[Encoder]()
	decoderType = reflect.TypeFor[Decoder]()
)

// checkRegistration panics unless t may still gain a strategy in the
// slot described by kind. Called with mu held.
func (reg *registry) checkRegistration(t reflect.Type, kind string, taken bool) {
	if _, resolved := reg.codecs.Load(t); resolved {
		panic(fmt.Sprintf("bstream: %s for %s registered after the type was first used", kind, t))
	}
	if _, resolving := reg.inflight[t]; resolving {
		panic(fmt.Sprintf("bstream: %s for %s registered while the type is being resolved", kind, t))
	}
	if taken {
		panic(fmt.Sprintf("bstream: duplicate %s for %s", kind, t))
	}
}

// RegisterValueDeserializer registers fn as the function that produces
// a T from a stream. Registration must happen before T is first
// encoded or decoded, typically in an init function; registering late
// or twice panics.
func RegisterValueDeserializer[T any](fn func(r *Reader) (T, error)) {
	t := reflect.TypeFor[T]()
	strategies.mu.Lock()
	defer strategies.mu.Unlock()
	_, taken := strategies.valueDecoders[t]
	strategies.checkRegistration(t, "value deserializer", taken)
	strategies.valueDecoders[t] = func(r *Reader) (reflect.Value, error) {
		v, err := fn(r)
		return reflect.ValueOf(&v).Elem(), err
	}
}

// RegisterRefDeserializer registers fn as the function that fills an
// existing T from a stream. The same rules as RegisterValueDeserializer
// apply.
func RegisterRefDeserializer[T any](fn func(r *Reader, dst *T) error) {
	t := reflect.TypeFor[T]()
	strategies.mu.Lock()
	defer strategies.mu.Unlock()
	_, taken := strategies.refDecoders[t]
	strategies.checkRegistration(t, "ref deserializer", taken)
	strategies.refDecoders[t] = func(r *Reader, ptr reflect.Value) error {
		return fn(r, ptr.Interface().(*T))
	}
}

// RegisterSerializer registers fn as the function that writes a T. An
// EncodeBstream method on T or *T still takes precedence.
func RegisterSerializer[T any](fn func(w *Writer, v T) error) {
	t := reflect.TypeFor[T]()
	strategies.mu.Lock()
	defer strategies.mu.Unlock()
	_, taken := strategies.serializers[t]
	strategies.checkRegistration(t, "serializer", taken)
	strategies.serializers[t] = func(w *Writer, v reflect.Value) error {
		return fn(w, valueAs[T](v))
	}
}

// valueAs converts v to T. A nil interface value yields the zero T.
func valueAs[T any](v reflect.Value) T {
	if x, ok := v.Interface().(T); ok {
		return x
	}
	var zero T
	return zero
}

// codecFor returns the resolved codec for t, building it on first use.
func (reg *registry) codecFor(t reflect.Type) *codec {
	if c, ok := reg.codecs.Load(t); ok {
		return c.(*codec)
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.lookup(t)
}

// lookup returns the codec for t from the cache or the set being
// built, building it if necessary. Called with mu held.
func (reg *registry) lookup(t reflect.Type) *codec {
	if c, ok := reg.codecs.Load(t); ok {
		return c.(*codec)
	}
	if c, ok := reg.inflight[t]; ok {
		return c
	}
	c := &codec{typ: t, building: true}
	reg.inflight[t] = c
	reg.build(c)
	c.building = false
	delete(reg.inflight, t)
	reg.codecs.Store(t, c)
	return c
}

func (reg *registry) build(c *codec) {
	t := c.typ
	ptr := reflect.PointerTo(t)

	var methodEncode encodeFunc
	switch {
	case t.Implements(encoderType):
		nillable := t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface
		methodEncode = func(w *Writer, v reflect.Value) error {
			if nillable && v.IsNil() {
				return w.WriteNil()
			}
			return v.Interface().(Encoder).EncodeBstream(w)
		}
	case ptr.Implements(encoderType):
		methodEncode = func(w *Writer, v reflect.Value) error {
			return addressable(v).Addr().Interface().(Encoder).EncodeBstream(w)
		}
	}

	var streamDecode decodeFunc
	if t.Kind() != reflect.Interface && ptr.Implements(decoderType) {
		streamDecode = func(r *Reader, dst reflect.Value) error {
			return dst.Addr().Interface().(Decoder).DecodeBstream(r)
		}
	}

	var valueDecode decodeFunc
	if fn, ok := reg.valueDecoders[t]; ok {
		valueDecode = func(r *Reader, dst reflect.Value) error {
			v, err := fn(r)
			if err != nil {
				return err
			}
			dst.Set(v)
			return nil
		}
	}

	var refDecode decodeFunc
	if fn, ok := reg.refDecoders[t]; ok {
		refDecode = func(r *Reader, dst reflect.Value) error {
			return fn(r, dst.Addr())
		}
	}

	serializer := reg.serializers[t]

	// Registered and method strategies are known before the builtin
	// adapter recurses into element types.
	switch {
	case methodEncode != nil:
		c.encodeStrategy, c.encode = StrategyMethod, methodEncode
	case serializer != nil:
		c.encodeStrategy, c.encode = StrategySerializer, serializer
	}
	switch {
	case streamDecode != nil:
		c.readStrategy = StrategyStream
	case valueDecode != nil:
		c.readStrategy = StrategyValueDeserializer
	case refDecode != nil:
		c.readStrategy = StrategyRefDeserializer
	}

	b := reg.builtinFor(t)
	if c.encodeStrategy == StrategyNone && b.encode != nil {
		c.encodeStrategy, c.encode = StrategyBuiltin, b.encode
	}
	if c.encode == nil {
		c.encode = func(*Writer, reflect.Value) error {
			return fmt.Errorf("type %s is not writable: %w", t, TypeError)
		}
	}

	// Produce a new value: stream construction, value deserializer,
	// ref deserializer on the zero value, builtin.
	var produce decodeFunc
	switch {
	case streamDecode != nil:
		produce = streamDecode
	case valueDecode != nil:
		produce = valueDecode
	case refDecode != nil:
		produce = refDecode
	case b.decode != nil:
		c.readStrategy = StrategyBuiltin
		produce = b.decode
	}

	// Fill an existing value: ref deserializer, value deserializer,
	// stream construction into a fresh value, builtin.
	switch {
	case refDecode != nil:
		c.readIntoStrategy, c.fill = StrategyRefDeserializer, refDecode
	case valueDecode != nil:
		c.readIntoStrategy, c.fill = StrategyValueDeserializer, valueDecode
	case streamDecode != nil:
		c.readIntoStrategy = StrategyStream
		c.fill = func(r *Reader, dst reflect.Value) error {
			fresh := reflect.New(t)
			if err := streamDecode(r, fresh.Elem()); err != nil {
				return err
			}
			dst.Set(fresh.Elem())
			return nil
		}
	case b.decode != nil:
		c.readIntoStrategy, c.fill = StrategyBuiltin, b.decode
	}

	if produce == nil {
		notReadable := func(*Reader, reflect.Value) error {
			return fmt.Errorf("type %s is not readable: %w", t, TypeError)
		}
		c.produce, c.fill = notReadable, notReadable
		return
	}
	c.produce = func(r *Reader, dst reflect.Value) error {
		dst.SetZero()
		return produce(r, dst)
	}
}

// addressable returns v itself if it is addressable, otherwise an
// addressable copy.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	cp := reflect.New(v.Type()).Elem()
	cp.Set(v)
	return cp
}

// Write encodes v using the highest-priority strategy for T: an
// EncodeBstream method, then a registered serializer, then the builtin
// adapters.
func Write[T any](w *Writer, v T) error {
	c := strategies.codecFor(reflect.TypeFor[T]())
	return c.encode(w, reflect.ValueOf(&v).Elem())
}

// Read decodes a new T: stream construction (DecodeBstream on *T),
// then a registered value deserializer, then a registered ref
// deserializer applied to the zero value, then the builtin adapters.
func Read[T any](r *Reader) (T, error) {
	var out T
	c := strategies.codecFor(reflect.TypeFor[T]())
	err := c.produce(r, reflect.ValueOf(&out).Elem())
	return out, err
}

// ReadInto decodes into *dst: a registered ref deserializer, then a
// registered value deserializer, then stream construction, then the
// builtin adapters.
func ReadInto[T any](r *Reader, dst *T) error {
	c := strategies.codecFor(reflect.TypeFor[T]())
	return c.fill(r, reflect.ValueOf(dst).Elem())
}

// MustReadAs is the panicking form of [Read]; pair it with [Recover].
func MustReadAs[T any](r *Reader) T { return Must(Read[T](r)) }

// MustWrite is the panicking form of [Write].
func MustWrite[T any](w *Writer, v T) { Check(Write(w, v)) }

// IsReadable reports whether some strategy can decode a T.
func IsReadable[T any]() bool {
	return strategies.codecFor(reflect.TypeFor[T]()).readable()
}

// IsWritable reports whether some strategy can encode a T.
func IsWritable[T any]() bool {
	return strategies.codecFor(reflect.TypeFor[T]()).writable()
}

// EncodeStrategyOf reports the strategy Write uses for T.
func EncodeStrategyOf[T any]() Strategy {
	return strategies.codecFor(reflect.TypeFor[T]()).encodeStrategy
}

// ReadStrategyOf reports the strategy Read uses for T.
func ReadStrategyOf[T any]() Strategy {
	return strategies.codecFor(reflect.TypeFor[T]()).readStrategy
}

// ReadIntoStrategyOf reports the strategy ReadInto uses for T.
func ReadIntoStrategyOf[T any]() Strategy {
	return strategies.codecFor(reflect.TypeFor[T]()).readIntoStrategy
}

// Marshal encodes v into a new byte slice.
func Marshal[T any](v T, opts ...Option) ([]byte, error) {
	out := NewMemoryOutput(64)
	if err := Write(NewWriter(out, opts...), v); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Unmarshal decodes one T from data. Trailing bytes are ignored.
func Unmarshal[T any](data []byte, opts ...Option) (T, error) {
	return Read[T](NewReader(NewMemoryInputBytes(data), opts...))
}
