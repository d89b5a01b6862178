// Package logging persists a run to disk: a plain-text copy of the terminal
// report, the raw event stream, a YAML summary and the merged coverage
// profile, all under one directory per run.
package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/op-reporter/coverage"
	"github.com/ethereum-optimism/infra/op-reporter/session"
)

const (
	RunDirectoryPrefix = "run-"
	ReportFilename     = "report.log"
	RawEventsFilename  = "events.jsonl"
	SummaryFilename    = "summary.yaml"
	CoverageFilename   = "coverage.out"
)

// Transcript writes the files of a single run. It is an io.Writer so it
// can be teed with the terminal output.
type Transcript struct {
	runID  string
	logDir string

	mu     sync.Mutex
	report *AsyncFile
	events *AsyncFile
	closed bool
}

// NewTranscript creates <baseDir>/run-<runID> and opens the report and raw
// event files in it
func NewTranscript(baseDir, runID string) (*Transcript, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}

	logDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", logDir, err)
	}

	report, err := NewAsyncFile(filepath.Join(logDir, ReportFilename))
	if err != nil {
		return nil, err
	}
	events, err := NewAsyncFile(filepath.Join(logDir, RawEventsFilename))
	if err != nil {
		_ = report.Close()
		return nil, err
	}

	return &Transcript{
		runID:  runID,
		logDir: logDir,
		report: report,
		events: events,
	}, nil
}

// Write appends p to the report with terminal escape sequences removed
func (t *Transcript) Write(p []byte) (int, error) {
	if _, err := t.report.Write([]byte(stripansi.Strip(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// RecordEvent appends one raw event line to the events file
func (t *Transcript) RecordEvent(line string) error {
	_, err := t.events.Write([]byte(line + "\n"))
	return err
}

// RunID returns the id of the run being recorded
func (t *Transcript) RunID() string {
	return t.runID
}

// Dir returns the run directory
func (t *Transcript) Dir() string {
	return t.logDir
}

// Complete writes the run summary and the merged coverage profile, then
// closes all files. Calling it again is a no-op.
func (t *Transcript) Complete(result session.RunResult, sessions []*session.Session) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	var errs []error
	if err := writeSummary(filepath.Join(t.logDir, SummaryFilename), NewRunSummary(t.runID, result, sessions)); err != nil {
		errs = append(errs, err)
	}
	if result.Coverage.Len() > 0 {
		if err := writeCoverage(filepath.Join(t.logDir, CoverageFilename), result.Coverage); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, t.report.Close(), t.events.Close())
	return errors.Join(errs...)
}

func writeCoverage(path string, m *coverage.Map) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create coverage profile: %w", err)
	}
	if err := coverage.WriteProfile(f, m); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write coverage profile: %w", err)
	}
	return f.Close()
}
