// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import (
	"io"

	"github.com/bureau-foundation/bstream/lib/buffer"
)

// Seek anchors. They equal the io.Seek* constants so stream buffers
// satisfy io.Seeker.
const (
	AnchorBegin   = io.SeekStart
	AnchorCurrent = io.SeekCurrent
	AnchorEnd     = io.SeekEnd
)

// InputBuffer is the get side of a stream buffer: a cursor over bytes
// supplied by a backend in windows. Reading past the data a backend
// can supply is not an error at this level except where a single byte
// is demanded (Get, Peek); GetN returns short counts and Read follows
// the io.Reader contract.
type InputBuffer interface {
	io.Reader
	io.Seeker

	// Get consumes one byte. It returns ReadPastEndOfStream when the
	// backend is exhausted.
	Get() (byte, error)
	// Peek returns the next byte without consuming it.
	Peek() (byte, error)
	// GetN fills p with up to len(p) bytes and returns the count.
	// A short count with a nil error means the backend is exhausted.
	GetN(p []byte) (int, error)
	// Tell returns the cursor position relative to anchor.
	Tell(anchor int) (int64, error)
	// Position returns the absolute cursor position.
	Position() int64
	// Size returns the number of bytes in the stream.
	Size() (int64, error)
	// Slice hands out the next n bytes as a buffer that shares storage
	// with the input. Backends that cannot share return
	// IBStreamBufNotShareable.
	Slice(n int) (*buffer.Buffer, error)
}

// inputBackend supplies the get area with bytes.
type inputBackend interface {
	// underflow refills g's window. It is only called when the cursor
	// sits at the end of the window. Returning zero signals that the
	// backend is exhausted.
	underflow(g *getArea) (int, error)
	// seek repositions g to an absolute position that lies outside the
	// current window but inside [0, size].
	seek(g *getArea, position int64) error
	size() (int64, error)
}

// getArea is the cursor state shared by every input backend. Backends
// embed it and point backend at themselves.
type getArea struct {
	window     []byte
	next       int
	baseOffset int64
	backend    inputBackend
}

func (g *getArea) Position() int64 { return g.baseOffset + int64(g.next) }

func (g *getArea) available() int { return len(g.window) - g.next }

// fill guarantees at least one available byte unless the backend is
// exhausted, in which case it returns false.
func (g *getArea) fill() (bool, error) {
	if g.next < len(g.window) {
		return true, nil
	}
	n, err := g.backend.underflow(g)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (g *getArea) Get() (byte, error) {
	ok, err := g.fill()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ReadPastEndOfStream
	}
	b := g.window[g.next]
	g.next++
	return b, nil
}

func (g *getArea) Peek() (byte, error) {
	ok, err := g.fill()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ReadPastEndOfStream
	}
	return g.window[g.next], nil
}

// ReadByte implements io.ByteReader with io.EOF at exhaustion.
func (g *getArea) ReadByte() (byte, error) {
	b, err := g.Get()
	if err == ReadPastEndOfStream {
		return 0, io.EOF
	}
	return b, err
}

func (g *getArea) GetN(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		ok, err := g.fill()
		if err != nil {
			return total, err
		}
		if !ok {
			break
		}
		n := copy(p[total:], g.window[g.next:])
		g.next += n
		total += n
	}
	return total, nil
}

func (g *getArea) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := g.GetN(p)
	if err == nil && n == 0 {
		return 0, io.EOF
	}
	return n, err
}

func (g *getArea) Size() (int64, error) { return g.backend.size() }

func (g *getArea) Seek(offset int64, anchor int) (int64, error) {
	var target int64
	switch anchor {
	case AnchorBegin:
		target = offset
	case AnchorCurrent:
		target = g.Position() + offset
	case AnchorEnd:
		size, err := g.backend.size()
		if err != nil {
			return g.Position(), err
		}
		target = size + offset
	default:
		return g.Position(), invalidSeek
	}

	if target >= g.baseOffset && target <= g.baseOffset+int64(len(g.window)) {
		g.next = int(target - g.baseOffset)
		return target, nil
	}

	size, err := g.backend.size()
	if err != nil {
		return g.Position(), err
	}
	if target < 0 || target > size {
		return g.Position(), invalidSeek
	}
	if err := g.backend.seek(g, target); err != nil {
		return g.Position(), err
	}
	return target, nil
}

func (g *getArea) Tell(anchor int) (int64, error) {
	position := g.Position()
	switch anchor {
	case AnchorBegin:
		return position, nil
	case AnchorCurrent:
		return 0, nil
	case AnchorEnd:
		size, err := g.backend.size()
		if err != nil {
			return 0, err
		}
		return position - size, nil
	default:
		return 0, invalidSeek
	}
}
