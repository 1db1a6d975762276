// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buffer

import (
	"bytes"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrOutOfRange is returned when an offset or length falls outside a
// buffer's bounds.
var ErrOutOfRange = errors.New("buffer: range out of bounds")

// Policy selects how a buffer behaves when its storage is shared.
type Policy uint8

const (
	// Exclusive buffers never share storage. Slicing copies.
	Exclusive Policy = iota

	// CopyOnWrite buffers share storage with their slices until the
	// first mutation, which takes a private copy.
	CopyOnWrite

	// NoCopyOnWrite buffers share storage and mutate it in place;
	// every holder observes the write. Growing a buffer past its
	// capacity with Reserve moves it to new storage, after which it
	// no longer shares with the other holders.
	NoCopyOnWrite
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case Exclusive:
		return "exclusive"
	case CopyOnWrite:
		return "copy_on_write"
	case NoCopyOnWrite:
		return "no_copy_on_write"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
}

// storage is the shared, reference-counted allocation behind one or
// more Buffer views.
type storage struct {
	data []byte
	refs atomic.Int32
}

func newStorage(capacity int) *storage {
	s := &storage{data: make([]byte, capacity)}
	s.refs.Store(1)
	return s
}

// Buffer is a view onto reference-counted storage. The zero value is
// an empty exclusive buffer.
type Buffer struct {
	store    *storage
	offset   int
	size     int
	capacity int
	policy   Policy
}

// New returns an empty buffer with room for capacity bytes.
func New(capacity int, policy Policy) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{
		store:    newStorage(capacity),
		capacity: capacity,
		policy:   policy,
	}
}

// FromBytes returns a buffer holding a copy of data.
func FromBytes(data []byte, policy Policy) *Buffer {
	b := New(len(data), policy)
	copy(b.store.data, data)
	b.size = len(data)
	return b
}

// Wrap returns a buffer that takes ownership of data without copying.
// The caller must not modify data afterwards.
func Wrap(data []byte, policy Policy) *Buffer {
	s := &storage{data: data}
	s.refs.Store(1)
	return &Buffer{
		store:    s,
		size:     len(data),
		capacity: len(data),
		policy:   policy,
	}
}

// Len returns the logical size in bytes.
func (b *Buffer) Len() int { return b.size }

// Cap returns the number of bytes the view can hold without
// reallocating.
func (b *Buffer) Cap() int { return b.capacity }

// Policy returns the sharing policy.
func (b *Buffer) Policy() Policy { return b.policy }

// IsShared reports whether another Buffer references the same storage.
func (b *Buffer) IsShared() bool {
	return b.store != nil && b.store.refs.Load() > 1
}

// Bytes returns the logical contents. The slice aliases storage that
// may be shared with other buffers and must not be modified; use
// [Buffer.Writable] to obtain a mutable view.
func (b *Buffer) Bytes() []byte {
	if b.store == nil {
		return nil
	}
	return b.store.data[b.offset : b.offset+b.size : b.offset+b.size]
}

// Window returns the full capacity as a read-only slice. Bytes past
// Len are whatever the storage holds; a stream backend uses Window to
// position cursors before it has committed to writing.
func (b *Buffer) Window() []byte {
	if b.store == nil {
		return nil
	}
	return b.store.data[b.offset : b.offset+b.capacity : b.offset+b.capacity]
}

// SetLen changes the logical size. The new size must not exceed Cap.
func (b *Buffer) SetLen(size int) error {
	if size < 0 || size > b.capacity {
		return fmt.Errorf("set length %d with capacity %d: %w", size, b.capacity, ErrOutOfRange)
	}
	b.size = size
	return nil
}

// Slice returns a new buffer viewing length bytes starting at offset.
// For shareable policies the slice references the same storage; for
// Exclusive buffers it is a copy.
func (b *Buffer) Slice(offset, length int) (*Buffer, error) {
	if offset < 0 || length < 0 || offset+length > b.size {
		return nil, fmt.Errorf("slice [%d:%d] of %d-byte buffer: %w",
			offset, offset+length, b.size, ErrOutOfRange)
	}
	if b.policy == Exclusive {
		return FromBytes(b.store.data[b.offset+offset:b.offset+offset+length], Exclusive), nil
	}
	b.store.refs.Add(1)
	return &Buffer{
		store:    b.store,
		offset:   b.offset + offset,
		size:     length,
		capacity: length,
		policy:   b.policy,
	}, nil
}

// Clone returns a private copy with the same size, capacity and policy.
func (b *Buffer) Clone() *Buffer {
	clone := New(b.capacity, b.policy)
	if b.store != nil {
		copy(clone.store.data, b.store.data[b.offset:b.offset+b.capacity])
	}
	clone.size = b.size
	return clone
}

// ForceUnique guarantees that no other buffer references this buffer's
// storage, copying the full capacity if necessary.
func (b *Buffer) ForceUnique() {
	if !b.IsShared() {
		return
	}
	fresh := newStorage(b.capacity)
	copy(fresh.data, b.store.data[b.offset:b.offset+b.capacity])
	b.store.refs.Add(-1)
	b.store = fresh
	b.offset = 0
}

// Writable returns the full capacity as a mutable slice. A shared
// copy-on-write buffer takes a private copy first; a no-copy-on-write
// buffer hands out the shared bytes.
func (b *Buffer) Writable() []byte {
	if b.store == nil {
		b.store = newStorage(0)
	}
	if b.policy == CopyOnWrite {
		b.ForceUnique()
	}
	return b.store.data[b.offset : b.offset+b.capacity : b.offset+b.capacity]
}

// Reserve grows the capacity to at least capacity bytes, preserving
// every byte in the current capacity. The result is always unique:
// growth detaches b from any holder it shared storage with, whatever
// the policy.
func (b *Buffer) Reserve(capacity int) {
	if capacity <= b.capacity {
		if b.policy == CopyOnWrite {
			b.ForceUnique()
		}
		return
	}
	fresh := newStorage(capacity)
	if b.store != nil {
		copy(fresh.data, b.store.data[b.offset:b.offset+b.capacity])
		b.store.refs.Add(-1)
	}
	b.store = fresh
	b.offset = 0
	b.capacity = capacity
}

// WriteAt copies data into the buffer at offset, growing the logical
// size if the write extends past it. The write must fit in Cap.
func (b *Buffer) WriteAt(data []byte, offset int) error {
	if offset < 0 || offset+len(data) > b.capacity {
		return fmt.Errorf("write [%d:%d] into capacity %d: %w",
			offset, offset+len(data), b.capacity, ErrOutOfRange)
	}
	copy(b.Writable()[offset:], data)
	if end := offset + len(data); end > b.size {
		b.size = end
	}
	return nil
}

// Release drops this view's reference to the storage and leaves the
// buffer empty. Storage is reclaimed when the last holder releases it.
func (b *Buffer) Release() {
	if b.store != nil {
		b.store.refs.Add(-1)
	}
	b.store = nil
	b.offset = 0
	b.size = 0
	b.capacity = 0
}

// Equal reports whether two buffers hold the same logical bytes.
func (b *Buffer) Equal(other *Buffer) bool {
	return bytes.Equal(b.Bytes(), other.Bytes())
}
