// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import "fmt"

// Typecodes: the leading byte of every msgpack record. Ranges are
// given by their first and last byte.
const (
	PositiveFixintMin byte = 0x00
	PositiveFixintMax byte = 0x7f
	FixmapMin         byte = 0x80
	FixmapMax         byte = 0x8f
	FixarrayMin       byte = 0x90
	FixarrayMax       byte = 0x9f
	FixstrMin         byte = 0xa0
	FixstrMax         byte = 0xbf
	Nil               byte = 0xc0
	NeverUsed         byte = 0xc1
	False             byte = 0xc2
	True              byte = 0xc3
	Bin8              byte = 0xc4
	Bin16             byte = 0xc5
	Bin32             byte = 0xc6
	Ext8              byte = 0xc7
	Ext16             byte = 0xc8
	Ext32             byte = 0xc9
	Float32           byte = 0xca
	Float64           byte = 0xcb
	Uint8             byte = 0xcc
	Uint16            byte = 0xcd
	Uint32            byte = 0xce
	Uint64            byte = 0xcf
	Int8              byte = 0xd0
	Int16             byte = 0xd1
	Int32             byte = 0xd2
	Int64             byte = 0xd3
	Fixext1           byte = 0xd4
	Fixext2           byte = 0xd5
	Fixext4           byte = 0xd6
	Fixext8           byte = 0xd7
	Fixext16          byte = 0xd8
	Str8              byte = 0xd9
	Str16             byte = 0xda
	Str32             byte = 0xdb
	Array16           byte = 0xdc
	Array32           byte = 0xdd
	Map16             byte = 0xde
	Map32             byte = 0xdf
	NegativeFixintMin byte = 0xe0
	NegativeFixintMax byte = 0xff
)

// Fixed-length limits.
const (
	fixmapLimit   = 16
	fixarrayLimit = 16
	fixstrLimit   = 32
)

func IsPositiveFixint(tc byte) bool { return tc <= PositiveFixintMax }
func IsNegativeFixint(tc byte) bool { return tc >= NegativeFixintMin }
func IsFixmap(tc byte) bool         { return tc >= FixmapMin && tc <= FixmapMax }
func IsFixarray(tc byte) bool       { return tc >= FixarrayMin && tc <= FixarrayMax }
func IsFixstr(tc byte) bool         { return tc >= FixstrMin && tc <= FixstrMax }

// IsInt reports fixints and the sized int/uint forms.
func IsInt(tc byte) bool {
	return IsPositiveFixint(tc) || IsNegativeFixint(tc) || (tc >= Uint8 && tc <= Int64)
}

func IsNil(tc byte) bool   { return tc == Nil }
func IsBool(tc byte) bool  { return tc == False || tc == True }
func IsFloat(tc byte) bool { return tc == Float32 || tc == Float64 }
func IsBlob(tc byte) bool  { return tc >= Bin8 && tc <= Bin32 }

func IsString(tc byte) bool {
	return IsFixstr(tc) || (tc >= Str8 && tc <= Str32)
}

func IsArray(tc byte) bool {
	return IsFixarray(tc) || tc == Array16 || tc == Array32
}

func IsMap(tc byte) bool {
	return IsFixmap(tc) || tc == Map16 || tc == Map32
}

func IsExt(tc byte) bool {
	return (tc >= Ext8 && tc <= Ext32) || (tc >= Fixext1 && tc <= Fixext16)
}

// TypecodeName returns a short human-readable class for tc, used in
// error messages and dumps.
func TypecodeName(tc byte) string {
	switch {
	case IsPositiveFixint(tc):
		return "positive fixint"
	case IsFixmap(tc):
		return "fixmap"
	case IsFixarray(tc):
		return "fixarray"
	case IsFixstr(tc):
		return "fixstr"
	case IsNegativeFixint(tc):
		return "negative fixint"
	}
	switch tc {
	case Nil:
		return "nil"
	case NeverUsed:
		return "never used"
	case False:
		return "false"
	case True:
		return "true"
	case Bin8:
		return "bin8"
	case Bin16:
		return "bin16"
	case Bin32:
		return "bin32"
	case Ext8:
		return "ext8"
	case Ext16:
		return "ext16"
	case Ext32:
		return "ext32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Fixext1:
		return "fixext1"
	case Fixext2:
		return "fixext2"
	case Fixext4:
		return "fixext4"
	case Fixext8:
		return "fixext8"
	case Fixext16:
		return "fixext16"
	case Str8:
		return "str8"
	case Str16:
		return "str16"
	case Str32:
		return "str32"
	case Array16:
		return "array16"
	case Array32:
		return "array32"
	case Map16:
		return "map16"
	case Map32:
		return "map32"
	}
	return fmt.Sprintf("typecode(0x%02x)", tc)
}

// typeMismatch reports a typecode that does not match what the caller
// asked for.
func typeMismatch(want string, tc byte) error {
	return fmt.Errorf("expected %s, found %s: %w", want, TypecodeName(tc), TypeError)
}
