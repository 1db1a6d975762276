// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import (
	"fmt"

	"github.com/bureau-foundation/bstream/lib/buffer"
)

// minimumGrowth is the smallest capacity a memory output grows to, so
// that streams starting from zero or one byte do not reallocate on
// every write.
const minimumGrowth = 16

// MemoryInput reads from a [buffer.Buffer]. The whole buffer is the get
// area, so underflow always reports exhaustion.
type MemoryInput struct {
	getArea
	buf *buffer.Buffer
}

// NewMemoryInput returns an input over buf. The input reads buf's
// logical contents; it does not take a reference of its own.
func NewMemoryInput(buf *buffer.Buffer) *MemoryInput {
	in := &MemoryInput{buf: buf}
	in.window = buf.Bytes()
	in.backend = in
	return in
}

// NewMemoryInputBytes returns an input over data without copying it.
// The caller must not modify data while the input is in use.
func NewMemoryInputBytes(data []byte) *MemoryInput {
	return NewMemoryInput(buffer.Wrap(data, buffer.CopyOnWrite))
}

// Buffer returns the underlying buffer.
func (in *MemoryInput) Buffer() *buffer.Buffer { return in.buf }

func (in *MemoryInput) underflow(*getArea) (int, error) { return 0, nil }

func (in *MemoryInput) seek(g *getArea, position int64) error {
	// The window is the whole buffer, so any valid position is in it.
	g.next = int(position)
	return nil
}

func (in *MemoryInput) size() (int64, error) { return int64(len(in.window)), nil }

// Slice returns the next n bytes as a buffer sharing storage with the
// input and advances past them.
func (in *MemoryInput) Slice(n int) (*buffer.Buffer, error) {
	if in.buf.Policy() == buffer.Exclusive {
		return nil, IBStreamBufNotShareable
	}
	if n < 0 || n > in.available() {
		return nil, fmt.Errorf("slice of %d bytes with %d remaining: %w", n, in.available(), ReadPastEndOfStream)
	}
	slice, err := in.buf.Slice(in.next, n)
	if err != nil {
		return nil, err
	}
	in.next += n
	return slice, nil
}

// MemoryOutput writes into a growable [buffer.Buffer]. The cursor is
// the absolute position; the window is the buffer's full capacity.
type MemoryOutput struct {
	putArea
	buf *buffer.Buffer
}

// NewMemoryOutput returns an empty output with the given initial
// capacity and a copy-on-write buffer.
func NewMemoryOutput(capacity int) *MemoryOutput {
	return NewMemoryOutputBuffer(buffer.New(capacity, buffer.CopyOnWrite))
}

// NewMemoryOutputBuffer returns an output that continues writing after
// the existing contents of buf. If buf shares copy-on-write storage,
// the private copy is taken on the first write, not here.
func NewMemoryOutputBuffer(buf *buffer.Buffer) *MemoryOutput {
	out := &MemoryOutput{buf: buf}
	out.backend = out
	out.window = buf.Window()
	out.next = buf.Len()
	out.highWater = int64(buf.Len())
	out.lastTouched = out.highWater
	return out
}

// grow reserves capacity for required bytes using the cushioned
// growth rule max(16, required*1.5). Growth moves the output to
// unshared storage, so a NoCopyOnWrite buffer stops aliasing its
// other holders from this point on.
func (out *MemoryOutput) grow(required int) {
	capacity := max(minimumGrowth, required+required/2)
	out.buf.Reserve(capacity)
	out.window = out.buf.Writable()
}

func (out *MemoryOutput) overflow(p *putArea, requested int) error {
	out.grow(p.next + requested)
	return nil
}

func (out *MemoryOutput) flush(p *putArea) error {
	if position := p.Position(); position > p.highWater {
		p.highWater = position
	}
	p.lastTouched = p.Position()
	p.dirty = false
	return out.buf.SetLen(int(p.highWater))
}

func (out *MemoryOutput) touch(p *putArea, position int64) error {
	clear(p.window[p.highWater:position])
	p.highWater = position
	p.lastTouched = position
	return out.buf.SetLen(int(position))
}

func (out *MemoryOutput) seek(p *putArea, position int64) error {
	if position > int64(len(p.window)) {
		out.grow(int(position))
	}
	p.next = int(position)
	return nil
}

func (out *MemoryOutput) makeWritable(p *putArea) error {
	if out.buf.IsShared() && out.buf.Policy() == buffer.CopyOnWrite {
		p.window = out.buf.Writable()
	}
	return nil
}

func (out *MemoryOutput) truncate(*putArea) error {
	return fmt.Errorf("truncate on memory output: %w", InvalidOperation)
}

// Buffer returns the written bytes [0, Size) as a buffer. Unless
// forceCopy is set, the result shares storage with the output, which
// takes its own copy before its next write.
func (out *MemoryOutput) Buffer(forceCopy bool) (*buffer.Buffer, error) {
	if err := out.Flush(); err != nil {
		return nil, err
	}
	slice, err := out.buf.Slice(0, int(out.highWater))
	if err != nil {
		return nil, err
	}
	if forceCopy {
		private := slice.Clone()
		slice.Release()
		return private, nil
	}
	return slice, nil
}

// ReleaseBuffer transfers ownership of the written bytes to the caller
// and resets the output to empty.
func (out *MemoryOutput) ReleaseBuffer() (*buffer.Buffer, error) {
	if err := out.Flush(); err != nil {
		return nil, err
	}
	released := out.buf
	out.buf = buffer.New(0, released.Policy())
	out.putArea = putArea{backend: out, window: out.buf.Window()}
	return released, nil
}

// Bytes returns the written bytes. The slice aliases the output's
// storage and is only valid until the next write.
func (out *MemoryOutput) Bytes() []byte {
	if err := out.Flush(); err != nil {
		return nil
	}
	return out.buf.Bytes()
}
