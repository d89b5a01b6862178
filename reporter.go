package opreporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-reporter/coverage"
	"github.com/ethereum-optimism/infra/op-reporter/events"
	"github.com/ethereum-optimism/infra/op-reporter/exitcodes"
	"github.com/ethereum-optimism/infra/op-reporter/logging"
	"github.com/ethereum-optimism/infra/op-reporter/metrics"
	"github.com/ethereum-optimism/infra/op-reporter/reporting"
	"github.com/ethereum-optimism/infra/op-reporter/session"
	"github.com/ethereum-optimism/infra/op-reporter/types"
	"github.com/ethereum-optimism/infra/op-reporter/ui"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// reporter implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &reporter{}

// reporter replays an executor event stream through the Runner reporter
// and turns the run verdict into the process result.
type reporter struct {
	config  *Config
	version string
	runID   string
	tracer  trace.Tracer

	runner     *reporting.Runner
	transcript *logging.Transcript
	result     *session.RunResult

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*reporter, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Log == nil {
		return nil, errors.New("config.Log is required")
	}
	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}

	config.Log.Debug("Creating reporter with config",
		"events", config.EventsPath,
		"coverageReport", config.CoverageReport,
		"serveOnly", config.ServeOnly,
		"logDir", config.LogDir)

	covReporter, err := coverage.NewReporter(config.CoverageReport, config.Watermarks, config.NoColor)
	if err != nil {
		return nil, fmt.Errorf("failed to create coverage reporter: %w", err)
	}

	out := config.Out
	if out == nil {
		out = os.Stdout
	}

	runID := uuid.New().String()
	var transcript *logging.Transcript
	if config.LogDir != "" {
		transcript, err = logging.NewTranscript(config.LogDir, runID)
		if err != nil {
			return nil, fmt.Errorf("failed to create transcript: %w", err)
		}
		out = io.MultiWriter(out, transcript)
	}

	runner := reporting.NewRunner(reporting.Config{
		Console:       ui.NewConsole(out, config.NoColor),
		Coverage:      covReporter,
		Log:           config.Log.New("component", "runner"),
		HidePassed:    config.HidePassed,
		HideSkipped:   config.HideSkipped,
		ServeOnly:     config.ServeOnly,
		FailureTree:   config.FailureTree,
		SessionsTable: config.SessionsTable,
		NoColor:       config.NoColor,
	})

	return &reporter{
		config:           config,
		version:          version,
		runID:            runID,
		tracer:           otel.Tracer("op-reporter"),
		runner:           runner,
		transcript:       transcript,
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start replays the event stream until it ends or ctx is cancelled.
// Start implements the cliapp.Lifecycle interface.
func (r *reporter) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if rec := recover(); rec != nil {
			r.config.Log.Error("Runtime error occurred", "error", rec)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	r.running.Store(true)
	r.config.Log.Info("Starting op-reporter", "version", r.version, "run_id", r.runID, "events", r.config.EventsPath)

	err := r.replay(ctx)
	if errors.Is(err, context.Canceled) {
		r.config.Log.Warn("Event replay interrupted")
		return nil
	}
	if err != nil {
		r.config.Log.Error("Runtime error replaying events", "error", err)
		return NewRuntimeError(err)
	}

	if r.result.Failed() {
		r.config.Log.Warn("Run completed with failures, returning exit code 1")
		return NewTestFailureError(r.result.Summary.String())
	}

	r.config.Log.Info("Run completed, exiting")
	go func() {
		r.shutdownCallback(nil)
	}()
	return nil
}

// replay decodes and dispatches every event of the stream, then records
// the run result
func (r *reporter) replay(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("replay %s", r.runID),
		trace.WithAttributes(attribute.String("events.path", r.config.EventsPath)))
	defer span.End()

	src, err := events.Open(r.config.EventsPath)
	if err != nil {
		return err
	}
	defer src.Close()

	counts := make(map[types.EventKind]int)
	decodeErrors := 0
	dec := events.NewDecoder(src)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if events.IsDecodeError(err) {
			decodeErrors++
			r.config.Log.Warn("Skipping malformed event", "err", err)
			metrics.RecordError("decode")
			continue
		}
		if err != nil {
			return err
		}

		if r.transcript != nil {
			if err := r.transcript.RecordEvent(dec.Raw()); err != nil {
				r.config.Log.Warn("Failed to record event", "err", err)
			}
		}
		r.runner.Dispatch(ev)
		counts[ev.Kind]++
	}

	if _, ok := r.runner.Result(); !ok {
		r.config.Log.Warn("Event stream ended without a runEnd event")
	}
	result := r.runner.Finish()
	r.result = &result

	attrs := []attribute.KeyValue{
		attribute.Int("events.decode_errors", decodeErrors),
		attribute.Int("run.sessions", result.Sessions),
		attribute.Int("run.tests", result.Summary.Tests),
		attribute.Int("run.failed", result.Summary.Failed),
		attribute.Bool("run.fatal_error", result.Summary.FatalError),
	}
	for _, kind := range types.EventKinds {
		if n := counts[kind]; n > 0 {
			attrs = append(attrs, attribute.Int("events."+string(kind), n))
		}
	}
	span.SetAttributes(attrs...)

	if r.transcript != nil {
		if err := r.transcript.Complete(result, r.runner.Sessions()); err != nil {
			r.config.Log.Error("Failed to complete transcript", "dir", r.transcript.Dir(), "err", err)
		} else {
			r.config.Log.Info("Run transcript written", "dir", r.transcript.Dir())
		}
	}

	r.config.Log.Info("Event replay completed",
		"run_id", r.runID,
		"sessions", result.Sessions,
		"tests", result.Summary.Tests,
		"failed", result.Summary.Failed,
		"skipped", result.Summary.Skipped)
	return nil
}

// Result returns the run result once the stream was replayed
func (r *reporter) Result() (session.RunResult, bool) {
	if r.result == nil {
		return session.RunResult{}, false
	}
	return *r.result, true
}

// Stop stops the op-reporter service.
// Stop implements the cliapp.Lifecycle interface.
func (r *reporter) Stop(ctx context.Context) error {
	if !r.running.Load() {
		r.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}
	r.running.Store(false)

	if r.transcript != nil && r.result == nil {
		// Keep what was recorded so far when the replay was interrupted
		if err := r.transcript.Complete(r.runner.Finish(), r.runner.Sessions()); err != nil {
			r.config.Log.Warn("Failed to complete transcript", "err", err)
		}
	}

	r.config.Log.Info("op-reporter stopped successfully")
	return nil
}

// Stopped returns true if the op-reporter service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (r *reporter) Stopped() bool {
	return !r.running.Load()
}
