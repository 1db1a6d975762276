// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Polymorphic is implemented by members of a type family that are
// encoded with a type tag and decoded through a [TypeResolver].
//
// A type that embeds another family member composes the item count
// along the chain: its BstreamItemCount is the embedded count plus its
// own items, and EncodeItems/DecodeItems handle the embedded items
// first.
type Polymorphic interface {
	// BstreamItemCount returns the number of items EncodeItems writes.
	BstreamItemCount() int
	EncodeItems(w *Writer) error
	DecodeItems(r *Reader) error
}

// TypeResolver maps concrete types to tags and tags to fresh
// instances. Streams consume a resolver supplied with [WithTypes]; they
// never own one.
type TypeResolver interface {
	// TagOf returns the tag registered for the concrete type t.
	TagOf(t reflect.Type) (string, error)
	// New returns a new instance of the type registered under tag.
	// The instance must be assignable to want: an interface it
	// implements, or its own concrete type.
	New(tag string, want reflect.Type) (Polymorphic, error)
}

var polymorphicType = reflect.TypeFor[Polymorphic]()

type typeEntry struct {
	tag     string
	typ     reflect.Type
	family  reflect.Type
	factory func() Polymorphic // nil for abstract types
}

// TypeRegistry is a [TypeResolver] populated at startup. Tags are
// unique within a registry and a type has at most one tag. A registry
// is safe for concurrent use.
type TypeRegistry struct {
	mu     sync.RWMutex
	byTag  map[string]*typeEntry
	byType map[reflect.Type]*typeEntry
}

// NewTypeRegistry returns an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		byTag:  make(map[string]*typeEntry),
		byType: make(map[reflect.Type]*typeEntry),
	}
}

func (reg *TypeRegistry) add(entry *typeEntry) {
	if entry.family.Kind() != reflect.Interface {
		panic(fmt.Sprintf("bstream: family %s is not an interface type", entry.family))
	}
	if entry.typ.Kind() != reflect.Interface && !entry.typ.Implements(entry.family) {
		panic(fmt.Sprintf("bstream: %s does not implement family %s", entry.typ, entry.family))
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if existing, ok := reg.byTag[entry.tag]; ok {
		panic(fmt.Sprintf("bstream: tag %q already registered for %s", entry.tag, existing.typ))
	}
	if existing, ok := reg.byType[entry.typ]; ok {
		panic(fmt.Sprintf("bstream: %s already registered as %q", entry.typ, existing.tag))
	}
	reg.byTag[entry.tag] = entry
	reg.byType[entry.typ] = entry
}

// RegisterType adds the concrete type T to the family F (an interface
// type) under tag. factory returns a new, empty T for decoding.
// Registering a duplicate tag or type panics.
func RegisterType[F any, T Polymorphic](reg *TypeRegistry, tag string, factory func() T) {
	reg.add(&typeEntry{
		tag:     tag,
		typ:     reflect.TypeFor[T](),
		family:  reflect.TypeFor[F](),
		factory: func() Polymorphic { return factory() },
	})
}

// RegisterAbstract adds T to the family F under tag without a
// factory. Values may be encoded with the tag, but decoding it fails
// with AbstractNonPolyClass.
func RegisterAbstract[F, T any](reg *TypeRegistry, tag string) {
	reg.add(&typeEntry{tag: tag, typ: reflect.TypeFor[T](), family: reflect.TypeFor[F]()})
}

// TagOf implements [TypeResolver].
func (reg *TypeRegistry) TagOf(t reflect.Type) (string, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	entry, ok := reg.byType[t]
	if !ok {
		return "", fmt.Errorf("type %s has no registered tag: %w", t, InvalidPtrDowncast)
	}
	return entry.tag, nil
}

// New implements [TypeResolver].
func (reg *TypeRegistry) New(tag string, want reflect.Type) (Polymorphic, error) {
	reg.mu.RLock()
	entry, ok := reg.byTag[tag]
	reg.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown type tag %q: %w", tag, InvalidPtrDowncast)
	}
	if !assignableTo(entry.typ, want) {
		return nil, fmt.Errorf("type tag %q (%s) is not a %s: %w", tag, entry.typ, want, InvalidPtrDowncast)
	}
	if entry.factory == nil {
		return nil, fmt.Errorf("type tag %q names abstract %s: %w", tag, entry.typ, AbstractNonPolyClass)
	}
	instance := entry.factory()
	if !assignableTo(reflect.TypeOf(instance), want) {
		return nil, fmt.Errorf("factory for %q returned %T, not a %s: %w", tag, instance, want, InvalidPtrDowncast)
	}
	return instance, nil
}

func assignableTo(t, want reflect.Type) bool {
	if want.Kind() == reflect.Interface {
		return t.Implements(want)
	}
	return t == want
}

// Tags returns the tags registered in family F, sorted.
func Tags[F any](reg *TypeRegistry) []string {
	family := reflect.TypeFor[F]()
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	var tags []string
	for tag, entry := range reg.byTag {
		if entry.family == family {
			tags = append(tags, tag)
		}
	}
	slices.Sort(tags)
	return tags
}

// WritePoly writes p as [tag, [items...]], with the tag looked up
// through the writer's type resolver.
func WritePoly(w *Writer, p Polymorphic) error {
	if w.types == nil {
		return fmt.Errorf("writing %T without a type resolver: %w", p, ContextMismatch)
	}
	tag, err := w.types.TagOf(reflect.TypeOf(p))
	if err != nil {
		return err
	}
	if err := w.WriteArrayHeader(2); err != nil {
		return err
	}
	if err := w.WriteString(tag); err != nil {
		return err
	}
	if err := w.WriteArrayHeader(p.BstreamItemCount()); err != nil {
		return err
	}
	return p.EncodeItems(w)
}

// readPoly decodes a tagged value whose type must be assignable to
// want.
func readPoly(r *Reader, want reflect.Type) (Polymorphic, error) {
	if r.types == nil {
		return nil, fmt.Errorf("reading %s without a type resolver: %w", want, ContextMismatch)
	}
	if err := r.CheckArrayHeader(2); err != nil {
		return nil, err
	}
	tag, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	instance, err := r.types.New(tag, want)
	if err != nil {
		return nil, err
	}
	if err := r.CheckArrayHeader(instance.BstreamItemCount()); err != nil {
		return nil, fmt.Errorf("items of %q: %w", tag, err)
	}
	if err := instance.DecodeItems(r); err != nil {
		return nil, fmt.Errorf("items of %q: %w", tag, err)
	}
	return instance, nil
}

// ReadPoly decodes a tagged value and returns it as F, which is
// usually the family's interface type.
func ReadPoly[F any](r *Reader) (F, error) {
	var zero F
	instance, err := readPoly(r, reflect.TypeFor[F]())
	if err != nil {
		return zero, err
	}
	return instance.(F), nil
}

// polyAdapter returns the builtin adapter for interface types with
// methods and for concrete family members. Interfaces are decoded
// through the reader's resolver; the empty interface is not handled.
func polyAdapter(t reflect.Type) (builtin, bool) {
	switch {
	case t.Kind() == reflect.Interface:
		if t.NumMethod() == 0 {
			return builtin{}, false
		}
		return builtin{
			encode: func(w *Writer, v reflect.Value) error {
				if v.IsNil() {
					return w.WriteNil()
				}
				p, ok := v.Interface().(Polymorphic)
				if !ok {
					return fmt.Errorf("%s holds non-polymorphic %s: %w", t, v.Elem().Type(), TypeError)
				}
				return WritePoly(w, p)
			},
			decode: func(r *Reader, dst reflect.Value) error {
				if isNil, err := nextIsNil(r); isNil || err != nil {
					dst.SetZero()
					return err
				}
				instance, err := readPoly(r, t)
				if err != nil {
					return err
				}
				dst.Set(reflect.ValueOf(instance))
				return nil
			},
		}, true

	case t.Kind() == reflect.Pointer && t.Implements(polymorphicType):
		return builtin{
			encode: func(w *Writer, v reflect.Value) error {
				if v.IsNil() {
					return w.WriteNil()
				}
				return WritePoly(w, v.Interface().(Polymorphic))
			},
			decode: func(r *Reader, dst reflect.Value) error {
				if isNil, err := nextIsNil(r); isNil || err != nil {
					dst.SetZero()
					return err
				}
				instance, err := readPoly(r, t)
				if err != nil {
					return err
				}
				dst.Set(reflect.ValueOf(instance))
				return nil
			},
		}, true

	case t.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(polymorphicType):
		ptr := reflect.PointerTo(t)
		return builtin{
			encode: func(w *Writer, v reflect.Value) error {
				return WritePoly(w, addressable(v).Addr().Interface().(Polymorphic))
			},
			decode: func(r *Reader, dst reflect.Value) error {
				instance, err := readPoly(r, ptr)
				if err != nil {
					return err
				}
				dst.Set(reflect.ValueOf(instance).Elem())
				return nil
			},
		}, true
	}
	return builtin{}, false
}
