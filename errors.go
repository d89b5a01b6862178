package opreporter

import (
	"errors"
	"fmt"
)

// RuntimeError means the reporter could not produce a verdict and the
// process exits with code 2: an invalid flag or options file, an event
// stream that cannot be opened or read, or a transcript directory that
// cannot be created.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError wraps err as a reporter failure
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError reports whether err carries a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError carries the TOTAL summary line of a replayed run whose
// verdict is a failure. The process exits with code 1.
type TestFailureError struct {
	Summary string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s", e.Summary)
}

// NewTestFailureError creates the error for a failed run verdict
func NewTestFailureError(summary string) *TestFailureError {
	return &TestFailureError{Summary: summary}
}

// IsTestFailureError reports whether err carries a TestFailureError
func IsTestFailureError(err error) bool {
	var failure *TestFailureError
	return err != nil && errors.As(err, &failure)
}
