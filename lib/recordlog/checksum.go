// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recordlog

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Checksum is the BLAKE3 keyed hash of an uncompressed payload.
type Checksum [32]byte

// String returns the checksum in hex.
func (c Checksum) String() string { return hex.EncodeToString(c[:]) }

// frameDomainKey is the ASCII domain name zero-padded to 32 bytes.
// Changing it invalidates every existing log.
var frameDomainKey = [32]byte{
	'b', 's', 't', 'r', 'e', 'a', 'm', '.', 'r', 'e', 'c', 'o', 'r', 'd', 'l', 'o',
	'g', '.', 'f', 'r', 'a', 'm', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// ChecksumOf returns the frame checksum of payload.
func ChecksumOf(payload []byte) Checksum {
	hasher, err := blake3.NewKeyed(frameDomainKey[:])
	if err != nil {
		panic("recordlog: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	var sum Checksum
	copy(sum[:], hasher.Sum(nil))
	return sum
}
