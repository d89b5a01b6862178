package types

import (
	"fmt"
	"strings"
	"time"
)

// TestStatus represents the possible outcomes of a test reported by the executor
type TestStatus string

const (
	TestStatusPass TestStatus = "pass"
	TestStatusFail TestStatus = "fail"
	TestStatusSkip TestStatus = "skip"
)

// ErrorInfo is the serialized form of an error raised inside a remote session
type ErrorInfo struct {
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

func (e *ErrorInfo) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Format renders the error with its stack trace, if any.
// The stack usually repeats the message on its first line, which is dropped.
func (e *ErrorInfo) Format() string {
	head := e.Error()
	stack := strings.TrimRight(e.Stack, "\n")
	if stack == "" {
		return head
	}
	lines := strings.Split(stack, "\n")
	if strings.TrimSpace(lines[0]) == head || strings.TrimSpace(lines[0]) == e.Message {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return head
	}
	return head + "\n" + strings.Join(lines, "\n")
}

// Test is the outcome of a single test as reported by the executor
type Test struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	SessionID   string     `json:"sessionId,omitempty"`
	Error       *ErrorInfo `json:"error,omitempty"`
	Skipped     string     `json:"skipped,omitempty"` // Skip reason; non-empty marks the test as skipped
	TimeElapsed int64      `json:"timeElapsed"`       // Milliseconds
}

// Status derives the test status from its error and skip reason
func (t *Test) Status() TestStatus {
	switch {
	case t.Error != nil:
		return TestStatusFail
	case t.Skipped != "":
		return TestStatusSkip
	default:
		return TestStatusPass
	}
}

// Elapsed returns the test duration
func (t *Test) Elapsed() time.Duration {
	return time.Duration(t.TimeElapsed) * time.Millisecond
}

// HasError reports whether the test carries a terminal error
func (t *Test) HasError() bool {
	return t != nil && t.Error != nil
}
