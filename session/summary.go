package session

import (
	"fmt"
	"strings"
)

// Summary holds the counts printed in a summary line
type Summary struct {
	Name       string
	Run        bool // Run totals are rendered with the platform count
	Platforms  int
	Tests      int
	Failed     int
	Skipped    int
	FatalError bool
}

// HasFailures reports whether any test failed or a fatal error occurred
func (s Summary) HasFailures() bool {
	return s.Failed > 0 || s.FatalError
}

// Passed returns the number of tests that neither failed nor were skipped
func (s Summary) Passed() int {
	passed := s.Tests - s.Failed - s.Skipped
	if passed < 0 {
		return 0
	}
	return passed
}

// String renders the summary line, e.g.
// "chrome: 2/10 tests failed (1 skipped); fatal error occurred"
func (s Summary) String() string {
	var b strings.Builder
	if s.Run {
		fmt.Fprintf(&b, "%s: tested %d platforms, ", s.Name, s.Platforms)
	} else {
		fmt.Fprintf(&b, "%s: ", s.Name)
	}
	fmt.Fprintf(&b, "%d/%d tests failed", s.Failed, s.Tests)
	if s.Skipped > 0 {
		fmt.Fprintf(&b, " (%d skipped)", s.Skipped)
	}
	if s.FatalError {
		b.WriteString("; fatal error occurred")
	}
	return b.String()
}
