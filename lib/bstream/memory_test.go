// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import (
	"bytes"
	"errors"
	"io"
	"syscall"
	"testing"

	"github.com/bureau-foundation/bstream/lib/buffer"
	"github.com/bureau-foundation/bstream/lib/testutil"
)

func TestMemoryGrowthIsCushioned(t *testing.T) {
	out := NewMemoryOutput(0)
	testutil.RequireNoError(t, out.Put('a'), "first put")
	if got := out.buf.Cap(); got != minimumGrowth {
		t.Errorf("capacity after one byte = %d, want %d", got, minimumGrowth)
	}

	large := NewMemoryOutput(0)
	if _, err := large.PutN(make([]byte, 40)); err != nil {
		t.Fatal(err)
	}
	if got := large.buf.Cap(); got != 60 {
		t.Errorf("capacity after 40 bytes = %d, want 60", got)
	}
}

func TestMemoryChunkedWrites(t *testing.T) {
	out := NewMemoryOutput(0)
	var want []byte
	for i := range 100 {
		chunk := bytes.Repeat([]byte{byte(i)}, i)
		want = append(want, chunk...)
		if _, err := out.Write(chunk); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	testutil.RequireBytes(t, out.Bytes(), want, "accumulated writes")
}

func TestMemoryHighWaterMark(t *testing.T) {
	out := NewMemoryOutput(0)
	if _, err := out.PutN([]byte("abcdef")); err != nil {
		t.Fatal(err)
	}
	size, _ := out.Size()
	if size != 6 {
		t.Fatalf("Size with pending write = %d, want 6", size)
	}
	testutil.RequireNoError(t, out.Flush(), "flush")

	if _, err := out.Seek(2, AnchorBegin); err != nil {
		t.Fatal(err)
	}
	testutil.RequireNoError(t, out.Put('X'), "overwrite")
	testutil.RequireNoError(t, out.Flush(), "flush")

	size, _ = out.Size()
	if size != 6 {
		t.Errorf("Size after overwrite inside stream = %d, want 6", size)
	}
	testutil.RequireBytes(t, out.Bytes(), []byte("abXdef"), "overwritten contents")

	if position, _ := out.Tell(AnchorBegin); position != 3 {
		t.Errorf("Tell(begin) = %d, want 3", position)
	}
	if relative, _ := out.Tell(AnchorEnd); relative != -3 {
		t.Errorf("Tell(end) = %d, want -3", relative)
	}
}

func TestMemoryGapIsZeroFilled(t *testing.T) {
	out := NewMemoryOutput(0)
	testutil.RequireNoError(t, out.Put('a'), "put")
	// Dirty the bytes that will become the gap so stale data would
	// show if the gap were not cleared.
	copy(out.window[1:], bytes.Repeat([]byte{0xee}, 9))

	if _, err := out.Seek(10, AnchorBegin); err != nil {
		t.Fatal(err)
	}
	testutil.RequireNoError(t, out.Put('b'), "put after gap")

	want := append([]byte{'a'}, make([]byte, 9)...)
	want = append(want, 'b')
	testutil.RequireBytes(t, out.Bytes(), want, "gap contents")
}

func TestMemorySeekBeyondCapacity(t *testing.T) {
	out := NewMemoryOutput(0)
	if _, err := out.Seek(100, AnchorBegin); err != nil {
		t.Fatal(err)
	}
	if size, _ := out.Size(); size != 0 {
		t.Errorf("Size after seek without write = %d, want 0", size)
	}
	testutil.RequireNoError(t, out.Put('z'), "put")
	data := out.Bytes()
	if len(data) != 101 || data[100] != 'z' || !bytes.Equal(data[:100], make([]byte, 100)) {
		t.Errorf("contents after far seek = % x", data)
	}
}

func TestMemoryOutputSeekErrors(t *testing.T) {
	out := NewMemoryOutput(0)
	if _, err := out.Seek(-1, AnchorBegin); !errors.Is(err, syscall.EINVAL) {
		t.Errorf("negative seek error = %v, want EINVAL", err)
	}
	if _, err := out.Seek(0, 7); !errors.Is(err, syscall.EINVAL) {
		t.Errorf("bad anchor error = %v, want EINVAL", err)
	}
	if err := out.Truncate(); !errors.Is(err, InvalidOperation) {
		t.Errorf("Truncate error = %v, want InvalidOperation", err)
	}
}

func TestMemoryFlushIsIdempotent(t *testing.T) {
	out := NewMemoryOutput(0)
	if _, err := out.PutN([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	testutil.RequireNoError(t, out.Flush(), "first flush")
	if out.dirty {
		t.Fatal("output still dirty after flush")
	}
	testutil.RequireNoError(t, out.Flush(), "second flush")
	testutil.RequireBytes(t, out.Bytes(), []byte("abc"), "contents")
}

func TestCopyOnWriteIsolationThroughStreams(t *testing.T) {
	original := buffer.FromBytes([]byte("hello"), buffer.CopyOnWrite)
	shared, err := original.Slice(0, original.Len())
	if err != nil {
		t.Fatal(err)
	}

	out := NewMemoryOutputBuffer(shared)
	if _, err := out.Seek(0, AnchorBegin); err != nil {
		t.Fatal(err)
	}
	testutil.RequireNoError(t, out.Put('J'), "put")

	testutil.RequireBytes(t, out.Bytes(), []byte("Jello"), "writer view")
	testutil.RequireBytes(t, original.Bytes(), []byte("hello"), "original")

	in := NewMemoryInput(original)
	got, err := io.ReadAll(in)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireBytes(t, got, []byte("hello"), "reader of original")
}

func TestMemoryOutputAppendsToExistingBuffer(t *testing.T) {
	out := NewMemoryOutputBuffer(buffer.FromBytes([]byte("head"), buffer.CopyOnWrite))
	if _, err := out.PutN([]byte("-tail")); err != nil {
		t.Fatal(err)
	}
	testutil.RequireBytes(t, out.Bytes(), []byte("head-tail"), "contents")
}

func TestMemoryBufferAndRelease(t *testing.T) {
	out := NewMemoryOutput(0)
	if _, err := out.PutN([]byte("payload")); err != nil {
		t.Fatal(err)
	}

	view, err := out.Buffer(false)
	if err != nil {
		t.Fatal(err)
	}
	if !view.IsShared() {
		t.Error("Buffer(false) did not share storage")
	}
	private, err := out.Buffer(true)
	if err != nil {
		t.Fatal(err)
	}
	if private.IsShared() {
		t.Error("Buffer(true) shares storage")
	}

	// Writing after handing out a shared view must not disturb it.
	if _, err := out.Seek(0, AnchorBegin); err != nil {
		t.Fatal(err)
	}
	testutil.RequireNoError(t, out.Put('P'), "put")
	testutil.RequireBytes(t, view.Bytes(), []byte("payload"), "shared view")

	released, err := out.ReleaseBuffer()
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireBytes(t, released.Bytes(), []byte("Payload"), "released")
	if size, _ := out.Size(); size != 0 {
		t.Errorf("Size after release = %d, want 0", size)
	}
	testutil.RequireNoError(t, out.Put('n'), "put after release")
	testutil.RequireBytes(t, out.Bytes(), []byte("n"), "fresh contents")
}

func TestMemoryInputSeekAndTell(t *testing.T) {
	in := NewMemoryInputBytes([]byte("hello"))

	if _, err := in.Seek(-2, AnchorEnd); err != nil {
		t.Fatal(err)
	}
	if b, err := in.Get(); err != nil || b != 'l' {
		t.Errorf("Get after Seek(-2, end) = %q, %v", b, err)
	}
	if relative, _ := in.Tell(AnchorEnd); relative != -1 {
		t.Errorf("Tell(end) = %d, want -1", relative)
	}

	for _, test := range []struct {
		offset int64
		anchor int
	}{
		{6, AnchorBegin},
		{-1, AnchorBegin},
		{-10, AnchorCurrent},
		{1, AnchorEnd},
	} {
		if _, err := in.Seek(test.offset, test.anchor); !errors.Is(err, syscall.EINVAL) {
			t.Errorf("Seek(%d, %d) error = %v, want EINVAL", test.offset, test.anchor, err)
		}
	}

	if _, err := in.Seek(5, AnchorBegin); err != nil {
		t.Fatalf("seek to end: %v", err)
	}
	if _, err := in.Get(); !errors.Is(err, ReadPastEndOfStream) {
		t.Errorf("Get at end error = %v, want ReadPastEndOfStream", err)
	}
	if _, err := in.Peek(); !errors.Is(err, ReadPastEndOfStream) {
		t.Errorf("Peek at end error = %v, want ReadPastEndOfStream", err)
	}
	p := make([]byte, 4)
	if n, err := in.GetN(p); n != 0 || err != nil {
		t.Errorf("GetN at end = %d, %v; want 0, nil", n, err)
	}
	if _, err := in.Read(p); err != io.EOF {
		t.Errorf("Read at end error = %v, want io.EOF", err)
	}
}

func TestMemoryInputSlice(t *testing.T) {
	in := NewMemoryInputBytes([]byte("abcdef"))
	if _, err := in.Seek(1, AnchorBegin); err != nil {
		t.Fatal(err)
	}
	slice, err := in.Slice(3)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireBytes(t, slice.Bytes(), []byte("bcd"), "slice")
	if !slice.IsShared() {
		t.Error("slice does not share storage")
	}
	if position := in.Position(); position != 4 {
		t.Errorf("Position after Slice = %d, want 4", position)
	}
	if _, err := in.Slice(3); !errors.Is(err, ReadPastEndOfStream) {
		t.Errorf("oversized Slice error = %v, want ReadPastEndOfStream", err)
	}

	exclusive := NewMemoryInput(buffer.FromBytes([]byte("abc"), buffer.Exclusive))
	if _, err := exclusive.Slice(1); !errors.Is(err, IBStreamBufNotShareable) {
		t.Errorf("exclusive Slice error = %v, want IBStreamBufNotShareable", err)
	}
}
