// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"errors"
	"fmt"
)

// TB is the subset of testing.TB the helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireNoError fails the test if err is non-nil.
//
//	testutil.RequireNoError(t, out.Flush(), "flushing output")
func RequireNoError(t TB, err error, msgAndArgs ...any) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", formatMessage(msgAndArgs), err)
	}
}

// RequireErrorIs fails the test unless errors.Is(err, target).
//
//	testutil.RequireErrorIs(t, err, bstream.ReadPastEndOfStream, "short read")
func RequireErrorIs(t TB, err, target error, msgAndArgs ...any) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected error matching %v, got nil", formatMessage(msgAndArgs), target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("%s: error %v does not match %v", formatMessage(msgAndArgs), err, target)
	}
}

// RequireBytes fails the test unless got equals want, printing both in
// hex.
func RequireBytes(t TB, got, want []byte, msgAndArgs ...any) {
	t.Helper()
	if !bytes.Equal(got, want) {
		t.Fatalf("%s: got % x, want % x", formatMessage(msgAndArgs), got, want)
	}
}

// formatMessage formats optional message arguments into a string.
// Accepts either a single string or a format string followed by args.
func formatMessage(msgAndArgs []any) string {
	if len(msgAndArgs) == 0 {
		return "(no message)"
	}
	if len(msgAndArgs) == 1 {
		if s, ok := msgAndArgs[0].(string); ok {
			return s
		}
		return fmt.Sprintf("%v", msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprintf("%v", msgAndArgs)
}
