package reporting

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-reporter/coverage"
	"github.com/ethereum-optimism/infra/op-reporter/metrics"
	"github.com/ethereum-optimism/infra/op-reporter/session"
	"github.com/ethereum-optimism/infra/op-reporter/types"
	"github.com/ethereum-optimism/infra/op-reporter/ui"
)

// eraseLine clears from the cursor to the end of the line
const eraseLine = "\x1b[K"

func (r *Runner) runStart(*types.Event) error {
	r.startTime = time.Now()
	r.result = nil
	return nil
}

func (r *Runner) suiteStart(ev *types.Event) error {
	suite := ev.Suite
	if !suite.IsRoot() {
		return nil
	}
	r.aggregator.OnSuiteStart(suite)
	if suite.SessionID != "" {
		r.console.Writeln(ui.StylePlain, "")
		r.console.Writeln(ui.StylePlain, fmt.Sprintf("‣ Created remote session %s (%s)", suite.DisplayName(), suite.SessionID))
	}
	return nil
}

func (r *Runner) testEnd(ev *types.Event) error {
	test := ev.Test
	switch test.Status() {
	case types.TestStatusFail:
		r.console.Write(ui.StyleFailure, "× "+test.ID)
		r.console.Writeln(ui.StylePlain, fmt.Sprintf(" (%ss)", formatSeconds(test.Elapsed())))
		r.console.Writeln(ui.StyleFailure, test.Error.Format())
	case types.TestStatusSkip:
		if r.cfg.HideSkipped {
			return nil
		}
		r.console.Write(ui.StyleWarning, "~ "+test.ID)
		r.console.Writeln(ui.StylePlain, fmt.Sprintf(" (%s)", test.Skipped))
	default:
		if r.cfg.HidePassed {
			return nil
		}
		r.console.Write(ui.StyleSuccess, "✓ "+test.ID)
		r.console.Writeln(ui.StylePlain, fmt.Sprintf(" (%ss)", formatSeconds(test.Elapsed())))
	}
	return nil
}

func (r *Runner) suiteEnd(ev *types.Event) error {
	res := r.aggregator.OnSuiteEnd(ev.Suite)
	switch res.Kind {
	case session.SuiteEndError:
		metrics.RecordFatalError("suite")
		r.console.Writeln(ui.StyleFailure, fmt.Sprintf("Suite %q FAILED", suiteLabel(res.Suite)))
		r.console.Writeln(ui.StyleFailure, res.Suite.Error.Format())

	case session.SuiteEndOrphaned:
		r.log.Warn("suiteEnd received for unknown session", "session", res.Suite.SessionID, "suite", suiteLabel(res.Suite))
		r.console.Writeln(ui.StyleBrightWarning, "BUG: suiteEnd was received for invalid session "+res.Suite.SessionID)

	case session.SuiteEndSummary:
		if res.Coverage != nil && res.Coverage.Len() > 0 {
			if err := r.writeCoverage(res.Coverage); err != nil {
				return err
			}
		} else {
			r.console.Writeln(ui.StylePlain, "No unit test coverage for "+res.Summary.Name)
		}
		if r.cfg.FailureTree && types.HasError(res.Suite) {
			r.writeFailureTree(res.Suite)
		}
		r.console.Writeln(verdictStyle(res.Summary), res.Summary.String())
		metrics.RecordSession(res.Summary.Name, res.Summary.Tests, res.Summary.Failed, res.Summary.Skipped, coveragePct(res.Coverage))
	}
	return nil
}

func (r *Runner) coverageData(ev *types.Event) error {
	err := r.aggregator.OnCoverage(ev.SessionID, ev.Coverage)
	if errors.Is(err, session.ErrUnknownSession) {
		r.log.Warn("Coverage received for unknown session", "session", ev.SessionID, "files", ev.Coverage.Len())
		r.console.Writeln(ui.StyleBrightWarning, "BUG: coverage was received for invalid session "+ev.SessionID)
		return nil
	}
	return err
}

func (r *Runner) runEnd(*types.Event) error {
	res := r.aggregator.OnRunEnd()
	r.result = &res

	if res.Combined {
		if res.Coverage.Len() > 0 {
			r.console.Writeln(ui.StylePlain, "")
			r.console.Writeln(ui.StyleBright, "Total coverage")
			if err := r.writeCoverage(res.Coverage); err != nil {
				return err
			}
		}
		r.console.Writeln(verdictStyle(res.Summary), res.Summary.String())
	}

	if r.cfg.SessionsTable && res.Sessions > 0 {
		r.writeSessionsTable(res, time.Since(r.startTime))
	}

	metrics.RecordRun(res.Sessions, res.Summary.Tests, res.Summary.Failed, res.Summary.Skipped, res.Failed(), coveragePct(res.Coverage))
	return nil
}

func (r *Runner) serverStart(ev *types.Event) error {
	server := ev.Server
	if r.cfg.ServeOnly {
		url := server.URL
		if url == "" {
			url = fmt.Sprintf("http://localhost:%d/", server.Port)
		}
		r.console.Write(ui.StylePlain, ui.BuildBox([]string{
			"To use the browser client, browse to",
			"",
			"  " + url,
			"",
			"Press CTRL-C to stop testing",
		}, 0))
		return nil
	}

	msg := fmt.Sprintf("Listening on localhost:%d", server.Port)
	if server.SocketPort != 0 {
		msg += fmt.Sprintf(" (ws %d)", server.SocketPort)
	}
	r.console.Writeln(ui.StylePlain, msg)
	return nil
}

func (r *Runner) tunnelStart(*types.Event) error {
	r.console.Writeln(ui.StylePlain, "Tunnel started")
	return nil
}

func (r *Runner) tunnelStatus(ev *types.Event) error {
	r.console.Write(ui.StylePlain, ev.Message+eraseLine+"\r")
	return nil
}

func (r *Runner) tunnelDownloadProgress(ev *types.Event) error {
	r.console.Writef(ui.StylePlain, "Tunnel download: %.3f%%\r", ev.Progress.Percent())
	return nil
}

func (r *Runner) deprecated(ev *types.Event) error {
	if !r.deprecations.add(*ev.Deprecation) {
		return nil
	}
	metrics.RecordDeprecation(ev.Deprecation.Original)
	r.console.Writeln(ui.StyleWarning, formatDeprecation(*ev.Deprecation))
	return nil
}

func (r *Runner) runError(ev *types.Event) error {
	r.aggregator.OnRunError()
	metrics.RecordFatalError("run")
	r.console.Writeln(ui.StyleBrightFailure, "FATAL ERROR")
	r.console.Writeln(ui.StyleFailure, ev.Error.Format())
	return nil
}

func (r *Runner) warning(ev *types.Event) error {
	r.console.Writeln(ui.StyleWarning, "WARNING: "+ev.Message)
	return nil
}

func (r *Runner) logMessage(ev *types.Event) error {
	for _, line := range strings.Split(strings.TrimRight(ev.Message, "\n"), "\n") {
		r.console.Writeln(ui.StylePlain, "DEBUG: "+line)
	}
	return nil
}

func (r *Runner) writeCoverage(m *coverage.Map) error {
	if err := r.coverage.CreateReport(r.console.Out(), m); err != nil {
		return fmt.Errorf("failed to create coverage report: %w", err)
	}
	return nil
}

func verdictStyle(s session.Summary) ui.Style {
	if s.HasFailures() {
		return ui.StyleBrightFailure
	}
	return ui.StyleBrightSuccess
}

// suiteLabel prefers the full suite ID, which includes parent names
func suiteLabel(s *types.Suite) string {
	if s.ID != "" {
		return s.ID
	}
	return s.Name
}

// formatSeconds renders a duration in seconds without trailing zeros
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func coveragePct(m *coverage.Map) float64 {
	if m.Len() == 0 {
		return 0
	}
	return m.Summary().Pct()
}
