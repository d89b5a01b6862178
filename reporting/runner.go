package reporting

import (
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-reporter/coverage"
	"github.com/ethereum-optimism/infra/op-reporter/metrics"
	"github.com/ethereum-optimism/infra/op-reporter/session"
	"github.com/ethereum-optimism/infra/op-reporter/types"
	"github.com/ethereum-optimism/infra/op-reporter/ui"
)

// Config holds the settings of a Runner reporter
type Config struct {
	Console  *ui.Console
	Coverage coverage.Reporter
	Log      log.Logger

	HidePassed    bool // Don't print passing tests
	HideSkipped   bool // Don't print skipped tests
	ServeOnly     bool // The executor only serves the browser client
	FailureTree   bool // Print the failing branches of each session's suite tree
	SessionsTable bool // Print a table of all sessions at the end of the run
	NoColor       bool
}

type handlerFunc func(ev *types.Event) error

// Runner renders executor lifecycle events to the console and aggregates
// results per session. Events must be dispatched one at a time.
type Runner struct {
	console  *ui.Console
	coverage coverage.Reporter
	log      log.Logger
	cfg      Config

	aggregator   *session.Aggregator
	deprecations *deprecationSet
	handlers     map[types.EventKind]handlerFunc

	startTime time.Time
	result    *session.RunResult
}

// NewRunner creates a Runner reporter
func NewRunner(cfg Config) *Runner {
	logger := cfg.Log
	if logger == nil {
		logger = log.Root()
	}
	reporter := cfg.Coverage
	if reporter == nil {
		reporter = &coverage.TextReporter{Watermarks: coverage.DefaultWatermarks, NoColor: cfg.NoColor}
	}

	r := &Runner{
		console:  cfg.Console,
		coverage: reporter,
		log:      logger,
		cfg:      cfg,
		aggregator: session.NewAggregator(session.Config{
			ServeOnly: cfg.ServeOnly,
			Log:       logger.New("component", "aggregator"),
		}),
		deprecations: newDeprecationSet(),
		startTime:    time.Now(),
	}

	r.handlers = map[types.EventKind]handlerFunc{
		types.EventRunStart:               r.runStart,
		types.EventRunEnd:                 r.runEnd,
		types.EventSuiteStart:             r.suiteStart,
		types.EventSuiteEnd:               r.suiteEnd,
		types.EventTestEnd:                r.testEnd,
		types.EventCoverage:               r.coverageData,
		types.EventServerStart:            r.serverStart,
		types.EventTunnelStart:            r.tunnelStart,
		types.EventTunnelStatus:           r.tunnelStatus,
		types.EventTunnelDownloadProgress: r.tunnelDownloadProgress,
		types.EventDeprecated:             r.deprecated,
		types.EventError:                  r.runError,
		types.EventWarning:                r.warning,
		types.EventLog:                    r.logMessage,
	}
	return r
}

// Dispatch hands the event to its handler. Reporting problems are logged
// and never interrupt the run.
func (r *Runner) Dispatch(ev *types.Event) {
	if ev == nil {
		return
	}
	handler, ok := r.handlers[ev.Kind]
	if !ok {
		r.log.Warn("No handler registered for event", "event", ev.Kind)
		metrics.RecordError("unhandled_event")
		return
	}
	if err := ev.Validate(); err != nil {
		r.log.Warn("Dropping invalid event", "event", ev.Kind, "err", err)
		metrics.RecordError("invalid_event")
		return
	}
	metrics.RecordEvent(string(ev.Kind))
	if err := handler(ev); err != nil {
		r.log.Error("Failed to report event", "event", ev.Kind, "err", err)
		metrics.RecordErrorDetails(string(ev.Kind), err)
	}
}

// Handles reports whether a handler is registered for kind
func (r *Runner) Handles(kind types.EventKind) bool {
	_, ok := r.handlers[kind]
	return ok
}

// Result returns the run result once runEnd was dispatched
func (r *Runner) Result() (session.RunResult, bool) {
	if r.result == nil {
		return session.RunResult{}, false
	}
	return *r.result, true
}

// Finish computes the run result without rendering it. It is used when
// the event stream ends without a runEnd event.
func (r *Runner) Finish() session.RunResult {
	if r.result == nil {
		res := r.aggregator.OnRunEnd()
		r.result = &res
	}
	return *r.result
}

// Sessions returns the sessions seen so far in start order
func (r *Runner) Sessions() []*session.Session {
	return r.aggregator.Sessions()
}

// HasFatalError reports whether a suite or run level error was reported
func (r *Runner) HasFatalError() bool {
	return r.aggregator.HasFatalError()
}
