// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recordlog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/bureau-foundation/bstream/lib/bstream"
)

var (
	// ErrNotFound is returned for sequence numbers outside the log.
	ErrNotFound = errors.New("record not found")

	// ErrCorrupt is returned when a frame fails verification.
	ErrCorrupt = errors.New("record log corrupt")
)

// MaxRecordSize is the largest payload a record can hold, before
// compression.
const MaxRecordSize = 1 << 30

// frame is the on-disk form of one record.
type frame struct {
	Seq         uint64
	Compression Compression
	Size        uint32
	Payload     []byte
	Checksum    Checksum
}

// Options configures a Log. The zero value stores payloads
// uncompressed with the default file chunk size.
type Options struct {
	// Compression is tried on every payload of at least
	// MinCompressSize bytes.
	Compression     Compression
	MinCompressSize int

	// ChunkSize is the file read chunk and write buffer size.
	ChunkSize int

	// Permissions is the mode used when creating the file. Zero means
	// 0644.
	Permissions uint32

	// Logger receives open and truncation events. Nil discards them.
	Logger *slog.Logger
}

// Log is an open record log.
type Log struct {
	path   string
	opts   Options
	logger *slog.Logger

	// offsets[i] is the file offset of the frame with sequence i+1.
	offsets []int64

	out *bstream.FileOutput
	w   *bstream.Writer

	// in is opened on the first read and reopened after truncation.
	in *bstream.FileInput
	r  *bstream.Reader

	closed bool
}

// Open opens or creates the log at path. Existing frames are scanned
// to rebuild the index. A last frame that runs past the end of the
// file is a torn write and is truncated; any other frame that does not
// decode is ErrCorrupt.
func Open(path string, opts Options) (*Log, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &Log{path: path, opts: opts, logger: logger}

	validEnd, size, err := l.rebuildIndex()
	if err != nil {
		return nil, err
	}
	if validEnd < size {
		logger.Warn("truncating torn record log tail",
			"path", path,
			"offset", validEnd,
			"discarded_bytes", size-validEnd,
		)
		if err := l.truncateFile(validEnd); err != nil {
			return nil, err
		}
	}
	if err := l.openOutput(); err != nil {
		return nil, err
	}
	logger.Info("record log opened",
		"path", path,
		"records", len(l.offsets),
		"bytes", validEnd,
	)
	return l, nil
}

func (l *Log) fileOptions() []bstream.FileOption {
	opts := []bstream.FileOption{bstream.WithChunkSize(l.opts.ChunkSize)}
	if l.opts.Permissions != 0 {
		opts = append(opts, bstream.WithPermissions(l.opts.Permissions))
	}
	return opts
}

// rebuildIndex reads every frame, returning the end of the last valid
// frame and the file size. A missing file is an empty log.
func (l *Log) rebuildIndex() (validEnd, size int64, err error) {
	in, err := bstream.OpenFile(l.path, l.fileOptions()...)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	defer in.Close()

	size, err = in.Size()
	if err != nil {
		return 0, 0, err
	}
	r := bstream.NewReader(in)
	for in.Position() < size {
		offset := in.Position()
		var f frame
		if err := bstream.ReadInto(r, &f); err != nil {
			if !errors.Is(err, bstream.ReadPastEndOfStream) {
				return 0, 0, fmt.Errorf("record log %s: frame %d at offset %d: %w: %w",
					l.path, len(l.offsets)+1, offset, err, ErrCorrupt)
			}
			l.logger.Debug("record log frame runs past end of file",
				"path", l.path,
				"offset", offset,
				"error", err,
			)
			return offset, size, nil
		}
		want := uint64(len(l.offsets)) + 1
		if f.Seq != want {
			return 0, 0, fmt.Errorf("record log %s: frame at offset %d has sequence %d, want %d: %w",
				l.path, offset, f.Seq, want, ErrCorrupt)
		}
		l.offsets = append(l.offsets, offset)
	}
	return in.Position(), size, nil
}

// truncateFile cuts the file at offset through a positioned output.
func (l *Log) truncateFile(offset int64) error {
	out, err := bstream.CreateFile(l.path, bstream.ModeAtBegin, l.fileOptions()...)
	if err != nil {
		return err
	}
	if _, err := out.Seek(offset, bstream.AnchorBegin); err != nil {
		out.Close()
		return fmt.Errorf("seeking %s to %d: %w", l.path, offset, err)
	}
	if err := out.Truncate(); err != nil {
		out.Close()
		return fmt.Errorf("truncating %s at %d: %w", l.path, offset, err)
	}
	return out.Close()
}

func (l *Log) openOutput() error {
	out, err := bstream.CreateFile(l.path, bstream.ModeAppend, l.fileOptions()...)
	if err != nil {
		return err
	}
	l.out = out
	l.w = bstream.NewWriter(out)
	return nil
}

func (l *Log) closeInput() error {
	if l.in == nil {
		return nil
	}
	err := l.in.Close()
	l.in, l.r = nil, nil
	return err
}

func (l *Log) checkOpen() error {
	if l.closed {
		return fmt.Errorf("record log %s is closed: %w", l.path, bstream.InvalidState)
	}
	return nil
}

// Path returns the file path of the log.
func (l *Log) Path() string { return l.path }

// LastSeq returns the sequence number of the newest record, or zero
// for an empty log.
func (l *Log) LastSeq() uint64 { return uint64(len(l.offsets)) }

// Append adds payload as a new record and returns its sequence
// number. The frame is buffered until the next Flush.
func (l *Log) Append(payload []byte) (uint64, error) {
	if err := l.checkOpen(); err != nil {
		return 0, err
	}
	if len(payload) > MaxRecordSize {
		return 0, fmt.Errorf("record of %d bytes exceeds the %d byte limit: %w",
			len(payload), MaxRecordSize, bstream.InvalidOperation)
	}
	stored, compression, err := compress(payload, l.opts.Compression, l.opts.MinCompressSize)
	if err != nil {
		return 0, err
	}
	f := frame{
		Seq:         l.LastSeq() + 1,
		Compression: compression,
		Size:        uint32(len(payload)),
		Payload:     stored,
		Checksum:    ChecksumOf(payload),
	}
	offset := l.out.Position()
	if err := bstream.Write(l.w, f); err != nil {
		return 0, fmt.Errorf("appending record %d to %s: %w", f.Seq, l.path, err)
	}
	l.offsets = append(l.offsets, offset)
	return f.Seq, nil
}

// AppendValue encodes v with bstream and appends it as a record.
func AppendValue[T any](l *Log, v T) (uint64, error) {
	payload, err := bstream.Marshal(v)
	if err != nil {
		return 0, err
	}
	return l.Append(payload)
}

// Flush writes buffered frames to the file.
func (l *Log) Flush() error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	return l.out.Flush()
}

// reader flushes pending frames and returns a reader over the file.
func (l *Log) reader() (*bstream.Reader, error) {
	if err := l.Flush(); err != nil {
		return nil, err
	}
	if l.in == nil {
		in, err := bstream.OpenFile(l.path, l.fileOptions()...)
		if err != nil {
			return nil, err
		}
		l.in = in
		l.r = bstream.NewReader(in)
	}
	return l.r, nil
}

// readFrame decodes the frame at the reader's position and returns its
// verified payload.
func (l *Log) readFrame(r *bstream.Reader, seq uint64) ([]byte, error) {
	var f frame
	if err := bstream.ReadInto(r, &f); err != nil {
		return nil, fmt.Errorf("reading record %d from %s: %w", seq, l.path, err)
	}
	if f.Seq != seq {
		return nil, fmt.Errorf("record %d in %s: frame has sequence %d: %w", seq, l.path, f.Seq, ErrCorrupt)
	}
	payload, err := decompress(f.Payload, f.Compression, int(f.Size))
	if err != nil {
		return nil, fmt.Errorf("record %d in %s: %v: %w", seq, l.path, err, ErrCorrupt)
	}
	if ChecksumOf(payload) != f.Checksum {
		return nil, fmt.Errorf("record %d in %s: checksum mismatch: %w", seq, l.path, ErrCorrupt)
	}
	return payload, nil
}

// Get returns the payload of record seq.
func (l *Log) Get(seq uint64) ([]byte, error) {
	if seq == 0 || seq > l.LastSeq() {
		return nil, fmt.Errorf("record %d in %s (last %d): %w", seq, l.path, l.LastSeq(), ErrNotFound)
	}
	r, err := l.reader()
	if err != nil {
		return nil, err
	}
	if _, err := l.in.Seek(l.offsets[seq-1], bstream.AnchorBegin); err != nil {
		return nil, err
	}
	return l.readFrame(r, seq)
}

// GetValue decodes record seq as a T.
func GetValue[T any](l *Log, seq uint64) (T, error) {
	payload, err := l.Get(seq)
	if err != nil {
		var zero T
		return zero, err
	}
	return bstream.Unmarshal[T](payload)
}

// Scan calls fn for every record from from onwards, in order. Scan
// stops at the first error from fn and returns it.
func (l *Log) Scan(from uint64, fn func(seq uint64, payload []byte) error) error {
	from = max(from, 1)
	if from > l.LastSeq() {
		return nil
	}
	r, err := l.reader()
	if err != nil {
		return err
	}
	if _, err := l.in.Seek(l.offsets[from-1], bstream.AnchorBegin); err != nil {
		return err
	}
	for seq := from; seq <= l.LastSeq(); seq++ {
		payload, err := l.readFrame(r, seq)
		if err != nil {
			return err
		}
		if err := fn(seq, payload); err != nil {
			return err
		}
	}
	return nil
}

// TruncateAfter discards every record after seq. Truncating at or
// past the last record does nothing.
func (l *Log) TruncateAfter(seq uint64) error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	if seq >= l.LastSeq() {
		return nil
	}
	offset := l.offsets[seq]
	if err := l.out.Close(); err != nil {
		return err
	}
	if err := l.closeInput(); err != nil {
		return err
	}
	if err := l.truncateFile(offset); err != nil {
		return err
	}
	l.logger.Info("record log truncated",
		"path", l.path,
		"last_seq", seq,
		"discarded_records", l.LastSeq()-seq,
	)
	l.offsets = l.offsets[:seq]
	return l.openOutput()
}

// Close flushes pending frames and closes the file.
func (l *Log) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	return errors.Join(l.out.Close(), l.closeInput())
}
