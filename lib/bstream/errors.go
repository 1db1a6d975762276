// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bstream

import (
	"errors"
	"fmt"
	"syscall"
)

// Category names a family of error values. Two error values are the
// same condition only if both their category and their integer value
// match. Categories are compared by identity, so each category must be
// a single long-lived value (see [NewCategory]).
type Category interface {
	// Name returns a short identifier such as "generic" or "bstream".
	Name() string
	// Message returns the human-readable text for value.
	Message(value int) string
}

type category struct {
	name    string
	message func(int) string
}

func (c *category) Name() string            { return c.name }
func (c *category) Message(value int) string { return c.message(value) }
func (c *category) String() string           { return c.name }

// NewCategory returns a new error category. Applications define their
// own categories once, at package level, and list them in the
// [CategoryContext] of every stream that carries their error values.
func NewCategory(name string, message func(value int) string) Category {
	return &category{name: name, message: message}
}

var (
	// GenericCategory holds operating system errno values. File
	// backends report OS failures in this category, verbatim.
	GenericCategory = NewCategory("generic", func(value int) string {
		return syscall.Errno(value).Error()
	})

	// BstreamCategory holds the [Errc] conditions raised by this
	// package.
	BstreamCategory = NewCategory("bstream", func(value int) string {
		return Errc(value).message()
	})
)

// Errc enumerates the conditions of [BstreamCategory]. An Errc is
// itself an error, so callers can test with errors.Is:
//
//	if errors.Is(err, bstream.ReadPastEndOfStream) { ... }
type Errc int

const (
	OK Errc = iota
	ReadPastEndOfStream
	TypeError
	MemberCountError
	ContextMismatch
	InvalidErrCategory
	InvalidPtrDowncast
	AbstractNonPolyClass
	InvalidOperation
	InvalidState
	IBStreamBufNotShareable
)

func (e Errc) message() string {
	switch e {
	case OK:
		return "success"
	case ReadPastEndOfStream:
		return "read past end of stream"
	case TypeError:
		return "type error"
	case MemberCountError:
		return "member count error"
	case ContextMismatch:
		return "context mismatch"
	case InvalidErrCategory:
		return "invalid error category"
	case InvalidPtrDowncast:
		return "invalid pointer downcast"
	case AbstractNonPolyClass:
		return "abstract non-polymorphic class"
	case InvalidOperation:
		return "invalid operation"
	case InvalidState:
		return "invalid state"
	case IBStreamBufNotShareable:
		return "input stream buffer is not shareable"
	default:
		return fmt.Sprintf("unknown bstream error %d", int(e))
	}
}

func (e Errc) Error() string { return "bstream: " + e.message() }

// Code returns e as a category-qualified [Code].
func (e Errc) Code() Code { return Code{Category: BstreamCategory, Value: int(e)} }

// Is lets errors.Is match an Errc against an equivalent Code.
func (e Errc) Is(target error) bool {
	if code, ok := target.(Code); ok {
		return code.Category == BstreamCategory && code.Value == int(e)
	}
	return false
}

// Code is a portable error value: a category and an integer within
// it. A Code with Value 0 means success in every category. Codes
// cross stream boundaries as [category index, value] pairs, with the
// index resolved through the stream's [CategoryContext].
type Code struct {
	Category Category
	Value    int
}

// ErrnoCode returns errno as a generic-category Code.
func ErrnoCode(errno syscall.Errno) Code {
	return Code{Category: GenericCategory, Value: int(errno)}
}

// OK reports whether the code represents success.
func (c Code) OK() bool { return c.Value == 0 }

func (c Code) Error() string {
	if c.Category == nil {
		return "bstream: empty error code"
	}
	return c.Category.Name() + ": " + c.Category.Message(c.Value)
}

// Is matches an equivalent Code or, for the bstream category, the
// corresponding [Errc].
func (c Code) Is(target error) bool {
	switch t := target.(type) {
	case Code:
		return c == t
	case Errc:
		return c.Category == BstreamCategory && c.Value == int(t)
	}
	return false
}

// Unwrap exposes generic-category codes as their syscall.Errno so
// errors.Is(err, fs.ErrNotExist) and friends keep working.
func (c Code) Unwrap() error {
	if c.Category == GenericCategory && c.Value != 0 {
		return syscall.Errno(c.Value)
	}
	return nil
}

// CodeOf extracts the Code that best describes err. nil maps to the
// bstream OK code; errors carrying neither a Code, an Errc nor an
// errno map to generic EIO.
func CodeOf(err error) Code {
	if err == nil {
		return OK.Code()
	}
	var code Code
	if errors.As(err, &code) {
		return code
	}
	var errc Errc
	if errors.As(err, &errc) {
		return errc.Code()
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return ErrnoCode(errno)
	}
	return ErrnoCode(syscall.EIO)
}

// invalidSeek is returned for seeks outside the valid range.
var invalidSeek = ErrnoCode(syscall.EINVAL)

// panicError marks panics raised by the Must helpers so Recover can
// tell them apart from unrelated runtime panics.
type panicError struct{ err error }

// Must returns v, or panics if err is non-nil. It is the throwing form
// of any error-returning bstream call:
//
//	value := bstream.Must(reader.ReadInt64())
func Must[T any](v T, err error) T {
	if err != nil {
		panic(panicError{err})
	}
	return v
}

// Check panics if err is non-nil. It is the throwing form of calls
// that only return an error.
func Check(err error) {
	if err != nil {
		panic(panicError{err})
	}
}

// Recover converts a panic raised by [Must] or [Check] back into an
// error stored in *errp. Other panics propagate. Use it deferred at
// the edge of code written in the throwing style:
//
//	func decode(r *bstream.Reader) (result thing, err error) {
//	    defer bstream.Recover(&err)
//	    result.name = bstream.Must(r.ReadString())
//	    ...
//	}
func Recover(errp *error) {
	if recovered := recover(); recovered != nil {
		if pe, ok := recovered.(panicError); ok {
			*errp = pe.err
			return
		}
		panic(recovered)
	}
}
