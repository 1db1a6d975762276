// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package recordlog implements an append-only log of opaque records
// stored as a sequence of bstream frames in a single file.
//
// Each frame is one bstream value:
//
//	[seq, compression, uncompressed_length, payload, checksum]
//
// Sequence numbers start at 1 and are contiguous. The payload is
// compressed with LZ4 block compression or zstd when that makes it
// smaller; otherwise it is stored as is and the frame says so. The
// checksum is a BLAKE3 keyed hash over the uncompressed payload in the
// "bstream.recordlog.frame" domain, verified on every read.
//
// Appends go through a [bstream.FileOutput] in append mode and are
// buffered until [Log.Flush], a read, or [Log.Close]. Reads go through
// a [bstream.FileInput]. [Open] scans the file to rebuild the offset
// index; a frame cut short by a crash is detected as a decode failure
// at the tail and truncated away. [Log.TruncateAfter] discards records
// past a sequence number.
//
// A Log is owned by one goroutine at a time, like the streams it
// wraps.
package recordlog
