// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniquePayload returns "prefix-N" as bytes, where N increases
// monotonically across the test binary. Use it for record payloads
// that must be told apart after a reopen or a scan.
//
//	payload := testutil.UniquePayload("record") // "record-1", "record-2", ...
func UniquePayload(prefix string) []byte {
	return fmt.Appendf(nil, "%s-%d", prefix, uniqueCounter.Add(1))
}
