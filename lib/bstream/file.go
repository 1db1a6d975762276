// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package bstream

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/bstream/lib/buffer"
)

// DefaultChunkSize is the read chunk and write buffer size for file
// backends unless overridden with [WithChunkSize].
const DefaultChunkSize = 16 * 1024

// OpenMode selects how [CreateFile] positions a new output.
type OpenMode int

const (
	// ModeTruncate empties the file and starts at offset 0.
	ModeTruncate OpenMode = iota
	// ModeAppend opens with O_APPEND: every write lands at end of file.
	ModeAppend
	// ModeAtEnd starts at end of file but allows seeking backwards.
	ModeAtEnd
	// ModeAtBegin keeps the contents and starts at offset 0.
	ModeAtBegin
)

// String returns the mode name.
func (m OpenMode) String() string {
	switch m {
	case ModeTruncate:
		return "truncate"
	case ModeAppend:
		return "append"
	case ModeAtEnd:
		return "at_end"
	case ModeAtBegin:
		return "at_begin"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// FileStats counts the system calls a file backend has issued. The
// counters make the lazy-seek behavior observable: sequential writes
// never seek, and flushing a clean output never writes.
type FileStats struct {
	Reads     int
	Writes    int
	Seeks     int
	Truncates int
	Stats     int
}

// FileOption configures a file backend.
type FileOption func(*fileOptions)

type fileOptions struct {
	chunkSize   int
	permissions uint32
}

// WithChunkSize sets the read chunk (input) or write buffer (output)
// size in bytes.
func WithChunkSize(size int) FileOption {
	return func(o *fileOptions) {
		if size > 0 {
			o.chunkSize = size
		}
	}
}

// WithPermissions sets the mode bits used when CreateFile creates the
// file. The default is 0o644.
func WithPermissions(perm uint32) FileOption {
	return func(o *fileOptions) { o.permissions = perm }
}

func applyFileOptions(opts []FileOption) fileOptions {
	o := fileOptions{chunkSize: DefaultChunkSize, permissions: 0o644}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// osError converts a syscall failure into a generic-category Code.
func osError(err error) error {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return ErrnoCode(errno)
	}
	return err
}

// FileInput reads a file through a fixed-size chunk buffer: one read
// system call per refill, and seeks inside the current chunk move only
// the cursor.
type FileInput struct {
	getArea
	fd     int
	chunk  []byte
	closed bool
	stats  FileStats
}

// OpenFile opens path for reading.
func OpenFile(path string, opts ...FileOption) (*FileInput, error) {
	o := applyFileOptions(opts)
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, osError(err))
	}
	in := &FileInput{fd: fd, chunk: make([]byte, o.chunkSize)}
	in.window = in.chunk[:0]
	in.backend = in
	return in, nil
}

// Stats returns the system call counters.
func (in *FileInput) Stats() FileStats { return in.stats }

func (in *FileInput) underflow(g *getArea) (int, error) {
	if in.closed {
		return 0, InvalidState
	}
	base := g.baseOffset + int64(len(g.window))
	var n int
	var err error
	for {
		n, err = unix.Read(in.fd, in.chunk)
		in.stats.Reads++
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return 0, osError(err)
	}
	g.baseOffset = base
	g.window = in.chunk[:n]
	g.next = 0
	return n, nil
}

func (in *FileInput) seek(g *getArea, position int64) error {
	if in.closed {
		return InvalidState
	}
	in.stats.Seeks++
	if _, err := unix.Seek(in.fd, position, unix.SEEK_SET); err != nil {
		return osError(err)
	}
	g.baseOffset = position
	g.window = in.chunk[:0]
	g.next = 0
	return nil
}

func (in *FileInput) size() (int64, error) {
	if in.closed {
		return 0, InvalidState
	}
	var stat unix.Stat_t
	in.stats.Stats++
	if err := unix.Fstat(in.fd, &stat); err != nil {
		return 0, osError(err)
	}
	return stat.Size, nil
}

// Slice always fails: file chunks are reused on every refill.
func (in *FileInput) Slice(int) (*buffer.Buffer, error) {
	return nil, IBStreamBufNotShareable
}

// Close releases the descriptor.
func (in *FileInput) Close() error {
	if in.closed {
		return nil
	}
	in.closed = true
	if err := unix.Close(in.fd); err != nil {
		return osError(err)
	}
	return nil
}

// FileOutput writes a file through a fixed-size buffer. The dirty
// region is written with one write call per flush; lastTouched tracks
// the descriptor offset so a flush that continues where the previous
// one ended issues no lseek.
type FileOutput struct {
	putArea
	fd     int
	mode   OpenMode
	zeros  []byte
	closed bool
	stats  FileStats
}

// CreateFile opens path for writing, creating it if needed, and
// positions the output according to mode.
//
// ModeAppend takes the file size from fstat and assumes the descriptor
// is already at end of file, which O_APPEND guarantees for every
// write, so no seek is issued. ModeAtEnd issues one lseek(SEEK_END),
// which both positions the descriptor and reports the size.
func CreateFile(path string, mode OpenMode, opts ...FileOption) (*FileOutput, error) {
	o := applyFileOptions(opts)
	flags := unix.O_WRONLY | unix.O_CREAT | unix.O_CLOEXEC
	switch mode {
	case ModeTruncate:
		flags |= unix.O_TRUNC
	case ModeAppend:
		flags |= unix.O_APPEND
	case ModeAtEnd, ModeAtBegin:
	default:
		return nil, fmt.Errorf("open mode %v: %w", mode, InvalidOperation)
	}

	fd, err := unix.Open(path, flags, o.permissions)
	if err != nil {
		return nil, fmt.Errorf("opening %s for writing: %w", path, osError(err))
	}
	out := &FileOutput{fd: fd, mode: mode}
	out.backend = out
	out.window = make([]byte, o.chunkSize)

	var start, size int64
	switch mode {
	case ModeAppend, ModeAtBegin:
		var stat unix.Stat_t
		out.stats.Stats++
		if err := unix.Fstat(fd, &stat); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("stating %s: %w", path, osError(err))
		}
		size = stat.Size
		if mode == ModeAppend {
			start = size
		}
	case ModeAtEnd:
		out.stats.Seeks++
		end, err := unix.Seek(fd, 0, unix.SEEK_END)
		if err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("seeking to end of %s: %w", path, osError(err))
		}
		start, size = end, end
	}

	out.baseOffset = start
	out.highWater = size
	out.lastTouched = start
	return out, nil
}

// Mode returns the mode the file was opened with.
func (out *FileOutput) Mode() OpenMode { return out.mode }

// Stats returns the system call counters.
func (out *FileOutput) Stats() FileStats { return out.stats }

// syncTo issues an lseek only if the descriptor is not already at
// position.
func (out *FileOutput) syncTo(p *putArea, position int64) error {
	if p.lastTouched == position {
		return nil
	}
	out.stats.Seeks++
	if _, err := unix.Seek(out.fd, position, unix.SEEK_SET); err != nil {
		return osError(err)
	}
	p.lastTouched = position
	return nil
}

func (out *FileOutput) writeAll(data []byte) error {
	for len(data) > 0 {
		n, err := unix.Write(out.fd, data)
		out.stats.Writes++
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return osError(err)
		}
		data = data[n:]
	}
	return nil
}

func (out *FileOutput) overflow(p *putArea, _ int) error {
	if err := p.Flush(); err != nil {
		return err
	}
	p.baseOffset += int64(p.next)
	p.next = 0
	return nil
}

func (out *FileOutput) flush(p *putArea) error {
	if out.closed {
		return InvalidState
	}
	start := p.baseOffset + int64(p.dirtyStart)
	if err := out.syncTo(p, start); err != nil {
		return err
	}
	if err := out.writeAll(p.window[p.dirtyStart:p.next]); err != nil {
		return err
	}
	end := p.Position()
	p.lastTouched = end
	if end > p.highWater {
		p.highWater = end
	}
	p.dirty = false
	return nil
}

func (out *FileOutput) touch(p *putArea, position int64) error {
	if err := out.syncTo(p, p.highWater); err != nil {
		return err
	}
	if out.zeros == nil {
		out.zeros = make([]byte, min(len(p.window), DefaultChunkSize))
	}
	for gap := position - p.highWater; gap > 0; {
		chunk := min(gap, int64(len(out.zeros)))
		if err := out.writeAll(out.zeros[:chunk]); err != nil {
			return err
		}
		gap -= chunk
	}
	p.highWater = position
	p.lastTouched = position
	return nil
}

func (out *FileOutput) seek(p *putArea, position int64) error {
	if out.closed {
		return InvalidState
	}
	if out.mode == ModeAppend && position != p.highWater {
		return fmt.Errorf("seek to %d in append mode: %w", position, InvalidOperation)
	}
	p.baseOffset = position
	p.next = 0
	return nil
}

func (out *FileOutput) makeWritable(*putArea) error {
	if out.closed {
		return InvalidState
	}
	return nil
}

// truncate flushes, cuts the file at the cursor and pins the
// high-water mark and descriptor offset there.
func (out *FileOutput) truncate(p *putArea) error {
	if out.closed {
		return InvalidState
	}
	if err := p.Flush(); err != nil {
		return err
	}
	position := p.Position()
	if err := out.syncTo(p, position); err != nil {
		return err
	}
	out.stats.Truncates++
	if err := unix.Ftruncate(out.fd, position); err != nil {
		return osError(err)
	}
	p.highWater = position
	p.lastTouched = position
	return nil
}

// Close flushes pending writes and releases the descriptor.
func (out *FileOutput) Close() error {
	if out.closed {
		return nil
	}
	flushErr := out.Flush()
	out.closed = true
	if err := unix.Close(out.fd); err != nil && flushErr == nil {
		return osError(err)
	}
	return flushErr
}
