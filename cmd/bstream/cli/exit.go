// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError requests a non-zero exit status without an error line.
// The command has already reported the outcome itself, as "msgpack
// validate" does when it prints the offset of the first bad value.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the status main should exit with.
func (e *ExitError) ExitCode() int {
	return e.Code
}
