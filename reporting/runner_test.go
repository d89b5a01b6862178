package reporting

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-reporter/coverage"
	"github.com/ethereum-optimism/infra/op-reporter/types"
	"github.com/ethereum-optimism/infra/op-reporter/ui"
)

func newTestRunner(cfg Config) (*Runner, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg.Console = ui.NewConsole(&buf, true)
	cfg.NoColor = true
	cfg.Log = log.NewLogger(log.DiscardHandler())
	return NewRunner(cfg), &buf
}

func dispatchAll(r *Runner, events ...*types.Event) {
	for _, ev := range events {
		r.Dispatch(ev)
	}
}

func suiteStart(s *types.Suite) *types.Event {
	return &types.Event{Kind: types.EventSuiteStart, Suite: s}
}

func suiteEnd(s *types.Suite) *types.Event {
	return &types.Event{Kind: types.EventSuiteEnd, Suite: s}
}

func runEnd() *types.Event {
	return &types.Event{Kind: types.EventRunEnd}
}

func root(sessionID, name string, tests, failed, skipped int) *types.Suite {
	return &types.Suite{
		ID:              name,
		Name:            name,
		SessionID:       sessionID,
		NumTests:        tests,
		NumFailedTests:  failed,
		NumSkippedTests: skipped,
	}
}

func coverageEvent(sessionID string) *types.Event {
	m := coverage.NewMap()
	m.AddBlock("src/app.go", coverage.ModeSet, coverage.Block{StartLine: 1, EndLine: 3, NumStmt: 3, Count: 1})
	m.AddBlock("src/app.go", coverage.ModeSet, coverage.Block{StartLine: 5, EndLine: 6, NumStmt: 1, Count: 0})
	return &types.Event{Kind: types.EventCoverage, SessionID: sessionID, Coverage: m}
}

func TestRunner_SingleSessionWithoutCoverage(t *testing.T) {
	r, out := newTestRunner(Config{})
	chrome := root("4f2a", "chrome 120 on Linux", 3, 0, 0)

	dispatchAll(r, suiteStart(chrome), suiteEnd(chrome), runEnd())

	output := out.String()
	assert.Contains(t, output, "‣ Created remote session chrome 120 on Linux (4f2a)")
	assert.Contains(t, output, "No unit test coverage for chrome 120 on Linux")
	assert.Contains(t, output, "chrome 120 on Linux: 0/3 tests failed\n")
	assert.NotContains(t, output, "TOTAL")

	res, ok := r.Result()
	require.True(t, ok)
	assert.False(t, res.Combined)
	assert.False(t, res.Failed())
}

func TestRunner_LocalSessionIsNotAnnounced(t *testing.T) {
	r, out := newTestRunner(Config{})
	node := root("", "node", 1, 0, 0)

	dispatchAll(r, suiteStart(node), suiteEnd(node))

	assert.NotContains(t, out.String(), "Created remote session")
	assert.Contains(t, out.String(), "node: 0/1 tests failed")
}

func TestRunner_TwoSessionTotals(t *testing.T) {
	r, out := newTestRunner(Config{})
	a := root("a", "chrome", 10, 2, 1)
	b := root("b", "firefox", 5, 0, 0)

	dispatchAll(r,
		suiteStart(a), suiteStart(b),
		suiteEnd(a), suiteEnd(b),
		runEnd(),
	)

	output := out.String()
	assert.Contains(t, output, "chrome: 2/10 tests failed (1 skipped)\n")
	assert.Contains(t, output, "firefox: 0/5 tests failed\n")
	assert.Contains(t, output, "TOTAL: tested 2 platforms, 2/15 tests failed (1 skipped)\n")
	assert.NotContains(t, output, "Total coverage")

	res, ok := r.Result()
	require.True(t, ok)
	assert.True(t, res.Failed())
}

func TestRunner_CoverageReports(t *testing.T) {
	r, out := newTestRunner(Config{})
	a := root("a", "chrome", 1, 0, 0)
	b := root("b", "firefox", 1, 0, 0)

	dispatchAll(r,
		suiteStart(a), suiteStart(b),
		coverageEvent("a"), coverageEvent("b"),
		suiteEnd(a), suiteEnd(b),
		runEnd(),
	)

	output := out.String()
	assert.NotContains(t, output, "No unit test coverage")
	assert.Equal(t, 3, strings.Count(output, "src/app.go"), "one table per session plus the total")
	assert.Contains(t, output, "Total coverage\n")
	assert.Contains(t, output, "75.00")
	assert.Less(t, strings.Index(output, "Total coverage"), strings.Index(output, "TOTAL: tested 2 platforms"))
}

func TestRunner_CoverageForUnknownSession(t *testing.T) {
	r, out := newTestRunner(Config{})
	require.NotPanics(t, func() {
		r.Dispatch(coverageEvent("ghost"))
		r.Dispatch(coverageEvent(""))
	})
	assert.Contains(t, out.String(), "BUG: coverage was received for invalid session ghost")
	assert.Equal(t, 1, strings.Count(out.String(), "BUG"))
}

func TestRunner_OrphanedSuiteEnd(t *testing.T) {
	orphan := root("ghost", "safari", 1, 0, 0)

	r, out := newTestRunner(Config{})
	r.Dispatch(suiteEnd(orphan))
	assert.Contains(t, out.String(), "BUG: suiteEnd was received for invalid session ghost")

	r, out = newTestRunner(Config{ServeOnly: true})
	r.Dispatch(suiteEnd(orphan))
	r.Dispatch(coverageEvent("ghost"))
	assert.Empty(t, out.String())
}

func TestRunner_SuiteErrorIsFatal(t *testing.T) {
	r, out := newTestRunner(Config{})
	a := root("a", "chrome", 4, 0, 0)
	b := root("b", "firefox", 4, 0, 0)
	broken := &types.Suite{
		ID:        "chrome - login",
		Name:      "login",
		SessionID: "a",
		HasParent: true,
		Error:     &types.ErrorInfo{Name: "Error", Message: "before hook failed"},
	}
	a.Suites = []*types.Suite{broken}

	dispatchAll(r,
		suiteStart(a), suiteStart(b),
		suiteEnd(broken), suiteEnd(a), suiteEnd(b),
		runEnd(),
	)

	output := out.String()
	assert.Contains(t, output, "Suite \"chrome - login\" FAILED\nError: before hook failed\n")
	assert.Contains(t, output, "chrome: 0/4 tests failed; fatal error occurred\n")
	assert.Contains(t, output, "firefox: 0/4 tests failed\n")
	assert.Contains(t, output, "TOTAL: tested 2 platforms, 0/8 tests failed; fatal error occurred\n")
	assert.True(t, r.HasFatalError())

	res, _ := r.Result()
	assert.True(t, res.Failed())
}

func TestRunner_RunErrorIsSticky(t *testing.T) {
	r, out := newTestRunner(Config{})
	a := root("a", "chrome", 1, 0, 0)

	dispatchAll(r,
		suiteStart(a),
		&types.Event{Kind: types.EventError, Error: &types.ErrorInfo{Name: "Error", Message: "tunnel closed", Stack: "Error: tunnel closed\n  at x"}},
		suiteEnd(a),
		runEnd(),
	)

	assert.Contains(t, out.String(), "FATAL ERROR\nError: tunnel closed\n  at x\n")
	res, _ := r.Result()
	assert.True(t, res.Failed())
	assert.True(t, res.Summary.FatalError)
}

func TestRunner_TestEnd(t *testing.T) {
	passed := &types.Test{ID: "unit - adds", TimeElapsed: 12}
	skipped := &types.Test{ID: "unit - later", Skipped: "grep"}
	failed := &types.Test{ID: "unit - breaks", TimeElapsed: 1500, Error: &types.ErrorInfo{Name: "AssertionError", Message: "expected 1 to equal 2"}}

	tests := []struct {
		name        string
		cfg         Config
		contains    []string
		notContains []string
	}{
		{
			name: "show all",
			contains: []string{
				"✓ unit - adds (0.012s)\n",
				"~ unit - later (grep)\n",
				"× unit - breaks (1.5s)\nAssertionError: expected 1 to equal 2\n",
			},
		},
		{
			name:        "hide passed",
			cfg:         Config{HidePassed: true},
			contains:    []string{"~ unit - later", "× unit - breaks"},
			notContains: []string{"✓ unit - adds"},
		},
		{
			name:        "hide skipped",
			cfg:         Config{HideSkipped: true},
			contains:    []string{"✓ unit - adds", "× unit - breaks"},
			notContains: []string{"~ unit - later"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, out := newTestRunner(tt.cfg)
			for _, test := range []*types.Test{passed, skipped, failed} {
				r.Dispatch(&types.Event{Kind: types.EventTestEnd, Test: test})
			}
			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, out.String(), s)
			}
			assert.False(t, r.HasFatalError(), "test errors do not set the fatal flag")
		})
	}
}

func TestRunner_DeprecationsAreDeduplicated(t *testing.T) {
	r, out := newTestRunner(Config{})
	dep := types.Deprecation{Original: "suites", Replacement: "plugins", Message: "See the docs."}
	other := types.Deprecation{Original: "suites", Replacement: "plugins", Message: "Another note."}

	for i := 0; i < 2; i++ {
		d := dep
		r.Dispatch(&types.Event{Kind: types.EventDeprecated, Deprecation: &d})
	}
	r.Dispatch(&types.Event{Kind: types.EventDeprecated, Deprecation: &other})

	output := out.String()
	assert.Equal(t, 1, strings.Count(output, "See the docs."))
	assert.Equal(t, 1, strings.Count(output, "Another note."))
	assert.Contains(t, output, "⚠︎ suites is deprecated. Use plugins instead. See the docs.\n")
}

func TestRunner_ServerStart(t *testing.T) {
	server := &types.ServerInfo{URL: "http://localhost:9000/", Port: 9000, SocketPort: 9001}

	r, out := newTestRunner(Config{})
	r.Dispatch(&types.Event{Kind: types.EventServerStart, Server: server})
	assert.Equal(t, "Listening on localhost:9000 (ws 9001)\n", out.String())

	r, out = newTestRunner(Config{ServeOnly: true})
	r.Dispatch(&types.Event{Kind: types.EventServerStart, Server: &types.ServerInfo{Port: 9000}})
	assert.Contains(t, out.String(), "To use the browser client, browse to")
	assert.Contains(t, out.String(), "http://localhost:9000/")
	assert.Contains(t, out.String(), ui.BoxTopLeft)
}

func TestRunner_PassThroughEvents(t *testing.T) {
	r, out := newTestRunner(Config{})

	dispatchAll(r,
		&types.Event{Kind: types.EventTunnelStart},
		&types.Event{Kind: types.EventTunnelStatus, Message: "Connecting"},
		&types.Event{Kind: types.EventTunnelDownloadProgress, Progress: &types.DownloadProgress{Received: 1, Total: 3}},
		&types.Event{Kind: types.EventWarning, Message: "slow test"},
		&types.Event{Kind: types.EventLog, Message: "first\nsecond\n"},
	)

	output := out.String()
	assert.Contains(t, output, "Tunnel started\n")
	assert.Contains(t, output, "Connecting\x1b[K\r")
	assert.Contains(t, output, "Tunnel download: 33.333%\r")
	assert.Contains(t, output, "WARNING: slow test\n")
	assert.Contains(t, output, "DEBUG: first\nDEBUG: second\n")
}

func TestRunner_FinishWithoutRunEnd(t *testing.T) {
	r, out := newTestRunner(Config{})
	a := root("a", "chrome", 2, 1, 0)
	dispatchAll(r, suiteStart(a), suiteEnd(a))

	_, ok := r.Result()
	assert.False(t, ok)

	res := r.Finish()
	assert.True(t, res.Failed())
	assert.NotContains(t, out.String(), "TOTAL")
	assert.Len(t, r.Sessions(), 1)
}

func TestRunner_UnknownEventKind(t *testing.T) {
	r, out := newTestRunner(Config{})
	require.NotPanics(t, func() {
		r.Dispatch(&types.Event{Kind: "testPass"})
		r.Dispatch(nil)
	})
	assert.Empty(t, out.String())
	assert.False(t, r.Handles("testPass"))
	for _, kind := range types.EventKinds {
		assert.True(t, r.Handles(kind), kind)
	}
}

func TestRunner_InvalidEventsAreDropped(t *testing.T) {
	r, out := newTestRunner(Config{})
	require.NotPanics(t, func() {
		dispatchAll(r,
			&types.Event{Kind: types.EventSuiteStart},
			&types.Event{Kind: types.EventSuiteEnd},
			&types.Event{Kind: types.EventTestEnd},
			&types.Event{Kind: types.EventCoverage, SessionID: "a"},
			&types.Event{Kind: types.EventDeprecated},
			&types.Event{Kind: types.EventError},
			&types.Event{Kind: types.EventServerStart},
			&types.Event{Kind: types.EventTunnelDownloadProgress},
		)
	})
	assert.Empty(t, out.String())
	assert.Empty(t, r.Sessions())
	assert.False(t, r.HasFatalError())
}
