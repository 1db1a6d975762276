// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
)

// Pair is a two-element tuple. It encodes as [First, Second]; a
// []Pair[K, V] is an ordered multimap with the same wire form as a map.
type Pair[A, B any] struct {
	First  A
	Second B
}

// MakePair returns Pair{a, b}.
func MakePair[A, B any](a A, b B) Pair[A, B] { return Pair[A, B]{First: a, Second: b} }

// SortedMap is a map that keeps its keys in ascending order. It
// encodes as an array of [key, value] pairs, byte for byte the same as
// a Go map with equal contents.
//
// The zero value is an empty map ready to use.
type SortedMap[K cmp.Ordered, V any] struct {
	entries []Pair[K, V]
}

func (m *SortedMap[K, V]) search(key K) (int, bool) {
	return slices.BinarySearchFunc(m.entries, key, func(e Pair[K, V], k K) int {
		return cmp.Compare(e.First, k)
	})
}

// Set stores value under key, replacing any previous value.
func (m *SortedMap[K, V]) Set(key K, value V) {
	i, found := m.search(key)
	if found {
		m.entries[i].Second = value
		return
	}
	m.entries = slices.Insert(m.entries, i, Pair[K, V]{First: key, Second: value})
}

// Get returns the value stored under key.
func (m *SortedMap[K, V]) Get(key K) (V, bool) {
	if i, found := m.search(key); found {
		return m.entries[i].Second, true
	}
	var zero V
	return zero, false
}

// Delete removes key and reports whether it was present.
func (m *SortedMap[K, V]) Delete(key K) bool {
	i, found := m.search(key)
	if found {
		m.entries = slices.Delete(m.entries, i, i+1)
	}
	return found
}

func (m *SortedMap[K, V]) Len() int { return len(m.entries) }

// All iterates over the entries in key order.
func (m *SortedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range m.entries {
			if !yield(e.First, e.Second) {
				return
			}
		}
	}
}

// Keys returns the keys in ascending order.
func (m *SortedMap[K, V]) Keys() []K {
	keys := make([]K, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.First
	}
	return keys
}

func (m SortedMap[K, V]) EncodeBstream(w *Writer) error {
	if err := w.WriteArrayHeader(len(m.entries)); err != nil {
		return err
	}
	for _, e := range m.entries {
		if err := w.WriteArrayHeader(2); err != nil {
			return err
		}
		if err := Write(w, e.First); err != nil {
			return err
		}
		if err := Write(w, e.Second); err != nil {
			return err
		}
	}
	return nil
}

// DecodeBstream reads entries in any order; a repeated key keeps the
// last value.
func (m *SortedMap[K, V]) DecodeBstream(r *Reader) error {
	n, err := r.ReadArrayHeader()
	if err != nil {
		return err
	}
	m.entries = m.entries[:0]
	for i := range n {
		if err := r.CheckArrayHeader(2); err != nil {
			return fmt.Errorf("sorted map entry %d: %w", i, err)
		}
		key, err := Read[K](r)
		if err != nil {
			return fmt.Errorf("sorted map entry %d key: %w", i, err)
		}
		value, err := Read[V](r)
		if err != nil {
			return fmt.Errorf("sorted map entry %d value: %w", i, err)
		}
		m.Set(key, value)
	}
	return nil
}
