// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import (
	"encoding/binary"
	"fmt"
	"time"
)

// TimestampExt is the msgpack extension type for timestamps.
const TimestampExt int8 = -1

// WriteTime writes t as a msgpack timestamp using the smallest of the
// 32, 64 and 96-bit forms that holds it.
func (w *Writer) WriteTime(t time.Time) error {
	sec, nsec := t.Unix(), int64(t.Nanosecond())
	var data []byte
	switch {
	case sec>>34 == 0 && nsec == 0 && sec <= 0xffffffff:
		data = binary.BigEndian.AppendUint32(nil, uint32(sec))
	case sec>>34 == 0:
		data = binary.BigEndian.AppendUint64(nil, uint64(nsec)<<34|uint64(sec))
	default:
		data = binary.BigEndian.AppendUint32(nil, uint32(nsec))
		data = binary.BigEndian.AppendUint64(data, uint64(sec))
	}
	return w.WriteExt(TimestampExt, data)
}

// ReadTime reads a msgpack timestamp. The result is in UTC.
func (r *Reader) ReadTime() (time.Time, error) {
	typ, data, err := r.ReadExt()
	if err != nil {
		return time.Time{}, err
	}
	if typ != TimestampExt {
		return time.Time{}, fmt.Errorf("ext type %d is not a timestamp: %w", typ, TypeError)
	}
	switch len(data) {
	case 4:
		return time.Unix(int64(binary.BigEndian.Uint32(data)), 0).UTC(), nil
	case 8:
		v := binary.BigEndian.Uint64(data)
		return time.Unix(int64(v&(1<<34-1)), int64(v>>34)).UTC(), nil
	case 12:
		nsec := binary.BigEndian.Uint32(data)
		sec := int64(binary.BigEndian.Uint64(data[4:]))
		return time.Unix(sec, int64(nsec)).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("timestamp of %d bytes: %w", len(data), TypeError)
}
