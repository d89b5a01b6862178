// Package session aggregates suite results and coverage per remote test
// session and produces the per-session and cross-session summaries.
//
// The aggregator is driven by a single event dispatch path and is not safe
// for concurrent use.
package session

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-reporter/coverage"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// ErrUnknownSession is returned for events that reference a session that
// never started
var ErrUnknownSession = errors.New("unknown session")

// Session is the state kept for one remote or local execution context
type Session struct {
	ID       string
	Suite    *types.Suite
	Coverage *coverage.Map // nil until the first coverage event
}

// Config holds the aggregator settings
type Config struct {
	// ServeOnly suppresses diagnostics about events for unknown sessions,
	// since no test sessions run in serve-only mode.
	ServeOnly bool
	Log       log.Logger
}

// Aggregator tracks session state keyed by session ID
type Aggregator struct {
	serveOnly     bool
	log           log.Logger
	sessions      map[string]*Session
	order         []string
	hasFatalError bool
}

// NewAggregator creates an aggregator with no sessions
func NewAggregator(cfg Config) *Aggregator {
	logger := cfg.Log
	if logger == nil {
		logger = log.Root()
	}
	return &Aggregator{
		serveOnly: cfg.ServeOnly,
		log:       logger,
		sessions:  make(map[string]*Session),
	}
}

// OnSuiteStart registers a session for root suites. Starting a session ID
// twice replaces the earlier entry.
func (a *Aggregator) OnSuiteStart(suite *types.Suite) {
	if suite == nil || !suite.IsRoot() {
		return
	}
	id := suite.SessionID
	if _, exists := a.sessions[id]; exists {
		a.log.Debug("Root suite restarted, replacing session", "session", id, "suite", suite.DisplayName())
	} else {
		a.order = append(a.order, id)
	}
	a.sessions[id] = &Session{ID: id, Suite: suite}
	a.log.Debug("Registered session", "session", id, "suite", suite.DisplayName())
}

// OnCoverage merges coverage data into the session's map. Coverage from the
// runner host carries no session ID and is dropped silently. Any other
// unknown session yields ErrUnknownSession, unless in serve-only mode.
func (a *Aggregator) OnCoverage(sessionID string, data *coverage.Map) error {
	s, ok := a.sessions[sessionID]
	if !ok {
		if sessionID == "" || a.serveOnly {
			return nil
		}
		return fmt.Errorf("coverage for session %q: %w", sessionID, ErrUnknownSession)
	}
	if s.Coverage == nil {
		s.Coverage = coverage.NewMap()
	}
	s.Coverage.Merge(data)
	return nil
}

// OnRunError records a run-level error. The fatal flag never clears.
func (a *Aggregator) OnRunError() {
	a.hasFatalError = true
}

// HasFatalError reports whether any suite or run level error was seen
func (a *Aggregator) HasFatalError() bool {
	return a.hasFatalError
}

// SuiteEndKind tells the reporter what to render for a suiteEnd event
type SuiteEndKind int

const (
	SuiteEndIgnored  SuiteEndKind = iota // Nothing to render
	SuiteEndError                        // The suite itself failed
	SuiteEndOrphaned                     // Root suite ended without a session
	SuiteEndSummary                      // Root suite summary
)

// SuiteEndResult describes the outcome of a suiteEnd event
type SuiteEndResult struct {
	Kind  SuiteEndKind
	Suite *types.Suite

	// Set for SuiteEndSummary. Coverage is nil when the session collected none.
	Coverage *coverage.Map
	Summary  Summary
}

// OnSuiteEnd evaluates a finished suite. A suite carrying its own error is
// reported at any depth and taints the run. Root suites produce the session
// summary and replace the session's suite with the finished one, which
// carries the final counts and the result tree.
func (a *Aggregator) OnSuiteEnd(suite *types.Suite) SuiteEndResult {
	if suite == nil {
		return SuiteEndResult{Kind: SuiteEndIgnored}
	}
	if suite.Error != nil {
		a.hasFatalError = true
		if s, ok := a.sessions[suite.SessionID]; ok && suite.IsRoot() {
			s.Suite = suite
		}
		return SuiteEndResult{Kind: SuiteEndError, Suite: suite}
	}
	if !suite.IsRoot() {
		return SuiteEndResult{Kind: SuiteEndIgnored, Suite: suite}
	}

	s, ok := a.sessions[suite.SessionID]
	if !ok {
		if a.serveOnly {
			return SuiteEndResult{Kind: SuiteEndIgnored, Suite: suite}
		}
		return SuiteEndResult{Kind: SuiteEndOrphaned, Suite: suite}
	}
	s.Suite = suite

	return SuiteEndResult{
		Kind:     SuiteEndSummary,
		Suite:    suite,
		Coverage: s.Coverage,
		Summary: Summary{
			Name:       suite.DisplayName(),
			Tests:      suite.NumTests,
			Failed:     suite.NumFailedTests,
			Skipped:    suite.NumSkippedTests,
			FatalError: types.HasError(suite),
		},
	}
}

// RunResult is the cross-session outcome of a run
type RunResult struct {
	Sessions int
	Coverage *coverage.Map
	Summary  Summary

	// Combined is set when more than one session took part. A single
	// session already printed its own summary on suiteEnd.
	Combined bool
}

// Failed reports whether the run verdict is a failure
func (r RunResult) Failed() bool {
	return r.Summary.HasFailures()
}

// OnRunEnd sums the counts of every registered session and merges their
// coverage into a new map
func (a *Aggregator) OnRunEnd() RunResult {
	total := coverage.NewMap()
	summary := Summary{
		Name:       "TOTAL",
		Run:        true,
		Platforms:  len(a.sessions),
		FatalError: a.hasFatalError,
	}

	for _, id := range a.order {
		s := a.sessions[id]
		summary.Tests += s.Suite.NumTests
		summary.Failed += s.Suite.NumFailedTests
		summary.Skipped += s.Suite.NumSkippedTests
		if types.HasError(s.Suite) {
			summary.FatalError = true
		}
		total.Merge(s.Coverage)
	}

	return RunResult{
		Sessions: len(a.sessions),
		Coverage: total,
		Summary:  summary,
		Combined: len(a.sessions) > 1,
	}
}

// Sessions returns the registered sessions in the order they started
func (a *Aggregator) Sessions() []*Session {
	sessions := make([]*Session, 0, len(a.order))
	for _, id := range a.order {
		sessions = append(sessions, a.sessions[id])
	}
	return sessions
}

// Session returns the session for id, if registered
func (a *Aggregator) Session(id string) (*Session, bool) {
	s, ok := a.sessions[id]
	return s, ok
}
