// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buffer

import (
	"errors"
	"testing"
)

func TestPolicyString(t *testing.T) {
	tests := []struct {
		policy Policy
		want   string
	}{
		{Exclusive, "exclusive"},
		{CopyOnWrite, "copy_on_write"},
		{NoCopyOnWrite, "no_copy_on_write"},
		{Policy(9), "unknown(9)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.policy.String(); got != tt.want {
				t.Errorf("Policy(%d).String() = %q, want %q", tt.policy, got, tt.want)
			}
		})
	}
}

func TestFromBytesCopies(t *testing.T) {
	source := []byte("hello")
	b := FromBytes(source, CopyOnWrite)
	source[0] = 'j'
	if string(b.Bytes()) != "hello" {
		t.Errorf("Bytes() = %q after mutating the source slice, want %q", b.Bytes(), "hello")
	}
	if b.Len() != 5 || b.Cap() != 5 {
		t.Errorf("Len/Cap = %d/%d, want 5/5", b.Len(), b.Cap())
	}
}

func TestCopyOnWriteIsolation(t *testing.T) {
	b := FromBytes([]byte("abcdefgh"), CopyOnWrite)
	first, err := b.Slice(0, 4)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	second, err := b.Slice(0, 4)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if !first.IsShared() || !second.IsShared() {
		t.Fatal("slices of a copy-on-write buffer should share storage")
	}

	if err := first.WriteAt([]byte("XY"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	if string(first.Bytes()) != "XYcd" {
		t.Errorf("mutated slice = %q, want %q", first.Bytes(), "XYcd")
	}
	if string(second.Bytes()) != "abcd" {
		t.Errorf("sibling slice = %q, want %q (must not observe the write)", second.Bytes(), "abcd")
	}
	if string(b.Bytes()) != "abcdefgh" {
		t.Errorf("parent = %q, want %q", b.Bytes(), "abcdefgh")
	}
	if first.IsShared() {
		t.Error("written slice should own its storage")
	}
}

func TestNoCopyOnWriteAliases(t *testing.T) {
	b := FromBytes([]byte("abcdefgh"), NoCopyOnWrite)
	slice, err := b.Slice(2, 3)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if err := slice.WriteAt([]byte("Z"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if string(b.Bytes()) != "abZdefgh" {
		t.Errorf("parent = %q, want the write to be visible (%q)", b.Bytes(), "abZdefgh")
	}
}

func TestReserveDetachesNoCopyOnWrite(t *testing.T) {
	b := FromBytes([]byte("abcd"), NoCopyOnWrite)
	alias, err := b.Slice(0, 4)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	b.Reserve(b.Cap() * 4)
	if b.IsShared() || alias.IsShared() {
		t.Error("grown buffer still shares storage")
	}
	if err := b.WriteAt([]byte("Z"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if string(b.Bytes()) != "Zbcd" || string(alias.Bytes()) != "abcd" {
		t.Errorf("after growth: buffer %q, alias %q; want %q and %q", b.Bytes(), alias.Bytes(), "Zbcd", "abcd")
	}
}

func TestExclusiveSliceCopies(t *testing.T) {
	b := FromBytes([]byte("abcdefgh"), Exclusive)
	slice, err := b.Slice(4, 4)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if b.IsShared() || slice.IsShared() {
		t.Error("exclusive buffers must never share storage")
	}
	if string(slice.Bytes()) != "efgh" {
		t.Errorf("slice = %q, want %q", slice.Bytes(), "efgh")
	}
}

func TestSliceOutOfRange(t *testing.T) {
	b := FromBytes([]byte("abc"), CopyOnWrite)
	for _, bounds := range [][2]int{{-1, 1}, {0, 4}, {2, 2}, {1, -1}} {
		if _, err := b.Slice(bounds[0], bounds[1]); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Slice(%d, %d) error = %v, want ErrOutOfRange", bounds[0], bounds[1], err)
		}
	}
}

func TestReservePreservesContents(t *testing.T) {
	b := New(4, CopyOnWrite)
	if err := b.WriteAt([]byte("abcd"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	shared, err := b.Slice(0, 4)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	b.Reserve(64)
	if b.Cap() != 64 {
		t.Errorf("Cap() = %d, want 64", b.Cap())
	}
	if string(b.Bytes()) != "abcd" {
		t.Errorf("Bytes() = %q after Reserve, want %q", b.Bytes(), "abcd")
	}
	if shared.IsShared() {
		t.Error("Reserve should have dropped the reference to the old storage")
	}
}

func TestReleaseDropsReference(t *testing.T) {
	b := FromBytes([]byte("abc"), CopyOnWrite)
	slice, err := b.Slice(0, 3)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	slice.Release()
	if b.IsShared() {
		t.Error("parent still shared after the only slice was released")
	}
	if slice.Len() != 0 || slice.Bytes() != nil {
		t.Error("released buffer should be empty")
	}
}

func TestSetLenBounds(t *testing.T) {
	b := New(8, Exclusive)
	if err := b.SetLen(8); err != nil {
		t.Fatalf("SetLen(8): %v", err)
	}
	if err := b.SetLen(9); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("SetLen(9) error = %v, want ErrOutOfRange", err)
	}
}

func TestCloneIsPrivate(t *testing.T) {
	b := FromBytes([]byte("abc"), NoCopyOnWrite)
	clone := b.Clone()
	if err := clone.WriteAt([]byte("z"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if string(b.Bytes()) != "abc" {
		t.Errorf("original = %q after writing the clone", b.Bytes())
	}
	if !clone.Equal(FromBytes([]byte("zbc"), Exclusive)) {
		t.Errorf("clone = %q, want %q", clone.Bytes(), "zbc")
	}
}
