package types

import "time"

// Suite is a named, possibly nested group of tests with aggregate counts.
// The executor owns the tree; consumers only read it.
type Suite struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	SessionID       string     `json:"sessionId,omitempty"`
	HasParent       bool       `json:"hasParent"`
	Error           *ErrorInfo `json:"error,omitempty"`
	NumTests        int        `json:"numTests"`
	NumFailedTests  int        `json:"numFailedTests"`
	NumSkippedTests int        `json:"numSkippedTests"`
	TimeElapsed     int64      `json:"timeElapsed,omitempty"` // Milliseconds

	Tests  []*Test  `json:"tests,omitempty"`
	Suites []*Suite `json:"suites,omitempty"`
}

// IsRoot reports whether the suite is the root suite of a session
func (s *Suite) IsRoot() bool {
	return !s.HasParent
}

// Elapsed returns the suite duration
func (s *Suite) Elapsed() time.Duration {
	return time.Duration(s.TimeElapsed) * time.Millisecond
}

// DisplayName returns the name used in summaries, falling back to the ID
func (s *Suite) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// HasError reports whether the suite or any suite or test below it carries
// a terminal error. A suite can fail in setup or teardown without any test
// being counted as failed.
func HasError(s *Suite) bool {
	if s == nil {
		return false
	}
	if s.Error != nil {
		return true
	}
	for _, t := range s.Tests {
		if t.HasError() {
			return true
		}
	}
	for _, child := range s.Suites {
		if HasError(child) {
			return true
		}
	}
	return false
}
