// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import "io"

// OutputBuffer is the put side of a stream buffer.
//
// Writes land in a window supplied by the backend and are tracked as a
// dirty region until Flush hands them to the backend. The high-water
// mark is the largest position proven written and defines Size. Seeking
// beyond the high-water mark and writing materializes the gap as zero
// bytes before the write lands.
type OutputBuffer interface {
	io.Writer
	io.Seeker

	// Put writes one byte.
	Put(b byte) error
	// PutN writes all of p, returning the count written before any
	// error.
	PutN(p []byte) (int, error)
	// FillN writes n copies of b.
	FillN(b byte, n int) error
	// Tell returns the cursor position relative to anchor.
	Tell(anchor int) (int64, error)
	// Position returns the absolute cursor position.
	Position() int64
	// Flush hands the dirty region to the backend. Flushing a clean
	// buffer does nothing.
	Flush() error
	// Size returns the logical stream size: the high-water mark, or
	// the cursor if a pending write extends past it.
	Size() (int64, error)
	// Truncate cuts the stream at the cursor. Only file backends
	// support it; others return InvalidOperation.
	Truncate() error
}

// outputBackend persists the put area.
type outputBackend interface {
	// overflow makes room for at least one byte at the cursor. It is
	// only called when the cursor sits at the end of the window;
	// requested is the number of bytes the caller still has to write.
	overflow(p *putArea, requested int) error
	// flush persists [dirtyStart, next) and clears the dirty flag.
	flush(p *putArea) error
	// touch materializes [highWater, position) as zero bytes and
	// raises the high-water mark to position.
	touch(p *putArea, position int64) error
	// seek moves the cursor to an absolute, non-negative position. The
	// put area is clean when seek is called.
	seek(p *putArea, position int64) error
	// makeWritable is called on the clean to dirty transition, before
	// the first byte of a write lands in the window.
	makeWritable(p *putArea) error
	truncate(p *putArea) error
}

// putArea is the cursor and dirty-region state shared by every output
// backend. Backends embed it and point backend at themselves.
type putArea struct {
	window     []byte
	next       int
	baseOffset int64

	dirty      bool
	dirtyStart int

	// highWater is the largest position proven written.
	highWater int64
	// lastTouched is the position the backend was last synchronized
	// to; for files it mirrors the descriptor offset.
	lastTouched int64

	backend outputBackend
}

func (p *putArea) Position() int64 { return p.baseOffset + int64(p.next) }

// beginWrite runs on every write and does real work only on the clean
// to dirty transition.
func (p *putArea) beginWrite() error {
	if p.dirty {
		return nil
	}
	if err := p.backend.makeWritable(p); err != nil {
		return err
	}
	if position := p.Position(); position > p.highWater {
		if err := p.backend.touch(p, position); err != nil {
			return err
		}
	}
	p.dirty = true
	p.dirtyStart = p.next
	return nil
}

// room guarantees the window has space at the cursor.
func (p *putArea) room(requested int) error {
	if p.next < len(p.window) {
		return nil
	}
	if err := p.backend.overflow(p, requested); err != nil {
		return err
	}
	if p.next >= len(p.window) {
		return InvalidState
	}
	return nil
}

func (p *putArea) Put(b byte) error {
	if err := p.room(1); err != nil {
		return err
	}
	if err := p.beginWrite(); err != nil {
		return err
	}
	p.window[p.next] = b
	p.next++
	return nil
}

// WriteByte implements io.ByteWriter.
func (p *putArea) WriteByte(b byte) error { return p.Put(b) }

func (p *putArea) PutN(src []byte) (int, error) {
	written := 0
	for written < len(src) {
		if err := p.room(len(src) - written); err != nil {
			return written, err
		}
		if err := p.beginWrite(); err != nil {
			return written, err
		}
		n := copy(p.window[p.next:], src[written:])
		p.next += n
		written += n
	}
	return written, nil
}

func (p *putArea) Write(src []byte) (int, error) { return p.PutN(src) }

func (p *putArea) FillN(b byte, n int) error {
	for n > 0 {
		if err := p.room(n); err != nil {
			return err
		}
		if err := p.beginWrite(); err != nil {
			return err
		}
		chunk := min(n, len(p.window)-p.next)
		region := p.window[p.next : p.next+chunk]
		for i := range region {
			region[i] = b
		}
		p.next += chunk
		n -= chunk
	}
	return nil
}

func (p *putArea) Flush() error {
	if !p.dirty {
		return nil
	}
	return p.backend.flush(p)
}

func (p *putArea) Size() (int64, error) {
	if position := p.Position(); p.dirty && position > p.highWater {
		return position, nil
	}
	return p.highWater, nil
}

func (p *putArea) Seek(offset int64, anchor int) (int64, error) {
	var target int64
	switch anchor {
	case AnchorBegin:
		target = offset
	case AnchorCurrent:
		target = p.Position() + offset
	case AnchorEnd:
		size, _ := p.Size()
		target = size + offset
	default:
		return p.Position(), invalidSeek
	}
	if target < 0 {
		return p.Position(), invalidSeek
	}
	if err := p.Flush(); err != nil {
		return p.Position(), err
	}
	if err := p.backend.seek(p, target); err != nil {
		return p.Position(), err
	}
	return target, nil
}

func (p *putArea) Tell(anchor int) (int64, error) {
	position := p.Position()
	switch anchor {
	case AnchorBegin:
		return position, nil
	case AnchorCurrent:
		return 0, nil
	case AnchorEnd:
		size, _ := p.Size()
		return position - size, nil
	default:
		return 0, invalidSeek
	}
}

func (p *putArea) Truncate() error { return p.backend.truncate(p) }
