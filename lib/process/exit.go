// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes used by the heimdall binaries. Anything not listed exits
// with ExitFailure.
const (
	ExitFailure     = 1
	ExitConfig      = 2
	ExitStorageOpen = 3
	ExitBind        = 4
)

// ExitError carries a specific process exit code alongside the error
// that caused it. Wrap errors from run() in ExitError when the exit
// code matters to the caller (scripts, supervisors).
type ExitError struct {
	Code int
	Err  error
}

// WithCode wraps err so Fatal exits with code. Returns nil for a nil
// error.
func WithCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Code returns the exit code for err: the code of the outermost
// ExitError in its chain, or ExitFailure.
func Code(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Fatal writes "error: err" to stderr and exits with Code(err). This is
// the standard entrypoint error handler. Use it in main() for errors
// from run() where the structured logger may not be initialized.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(Code(err))
}
