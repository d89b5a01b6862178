package opreporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-reporter/coverage"
	"github.com/ethereum-optimism/infra/op-reporter/events"
	"github.com/ethereum-optimism/infra/op-reporter/flags"
)

// Config holds the application configuration
type Config struct {
	EventsPath     string              // Event stream to replay, "-" for stdin
	HidePassed     bool                // Don't print passing tests
	HideSkipped    bool                // Don't print skipped tests
	ServeOnly      bool                // The executor only serves the test page
	FailureTree    bool                // Print failing branches of each suite tree
	SessionsTable  bool                // Print a table of all sessions at the end
	NoColor        bool                // Disable colored output
	CoverageReport string              // Coverage report type
	Watermarks     coverage.Watermarks // Coverage bands
	LogDir         string              // Directory to store run transcripts, empty to disable
	Out            io.Writer           // Terminal output
	Log            log.Logger
}

// Options are the reporter settings that can be kept in a YAML file.
// Unset fields leave the flag defaults in place.
type Options struct {
	HidePassed     *bool            `yaml:"hidePassed"`
	HideSkipped    *bool            `yaml:"hideSkipped"`
	ServeOnly      *bool            `yaml:"serveOnly"`
	FailureTree    *bool            `yaml:"failureTree"`
	SessionsTable  *bool            `yaml:"sessionsTable"`
	NoColor        *bool            `yaml:"noColor"`
	CoverageReport string           `yaml:"coverageReport"`
	Watermarks     WatermarkOptions `yaml:"watermarks"`
	LogDir         string           `yaml:"logDir"`
}

// WatermarkOptions holds the coverage bands of an options file. Either
// band may be left out.
type WatermarkOptions struct {
	Low  *float64 `yaml:"low"`
	High *float64 `yaml:"high"`
}

// LoadOptions reads a YAML options file
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %w", err)
	}
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("failed to parse options file %s: %w", path, err)
	}
	return &opts, nil
}

// NewConfig creates a new Config from cli context. Values from the options
// file apply unless the matching flag was set explicitly.
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	opts := &Options{}
	if path := ctx.String(flags.ConfigFile.Name); path != "" {
		var err error
		opts, err = LoadOptions(path)
		if err != nil {
			return nil, err
		}
	}

	boolOpt := func(f *cli.BoolFlag, opt *bool) bool {
		if opt != nil && !ctx.IsSet(f.Name) {
			return *opt
		}
		return ctx.Bool(f.Name)
	}
	stringOpt := func(f *cli.StringFlag, opt string) string {
		if opt != "" && !ctx.IsSet(f.Name) {
			return opt
		}
		return ctx.String(f.Name)
	}

	floatOpt := func(f *cli.Float64Flag, opt *float64) float64 {
		if opt != nil && !ctx.IsSet(f.Name) {
			return *opt
		}
		return ctx.Float64(f.Name)
	}

	watermarks := coverage.Watermarks{
		Low:  floatOpt(flags.WatermarkLow, opts.Watermarks.Low),
		High: floatOpt(flags.WatermarkHigh, opts.Watermarks.High),
	}
	if err := watermarks.Validate(); err != nil {
		return nil, err
	}

	coverageReport := stringOpt(flags.CoverageReport, opts.CoverageReport)
	if _, err := coverage.NewReporter(coverageReport, watermarks, true); err != nil {
		return nil, err
	}

	eventsPath := ctx.String(flags.Events.Name)
	if eventsPath == "" {
		eventsPath = events.StdinPath
	}

	logDir := stringOpt(flags.LogDir, opts.LogDir)
	if logDir != "" {
		abs, err := filepath.Abs(logDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
		}
		logDir = abs
	}

	return &Config{
		EventsPath:     eventsPath,
		HidePassed:     boolOpt(flags.HidePassed, opts.HidePassed),
		HideSkipped:    boolOpt(flags.HideSkipped, opts.HideSkipped),
		ServeOnly:      boolOpt(flags.ServeOnly, opts.ServeOnly),
		FailureTree:    boolOpt(flags.FailureTree, opts.FailureTree),
		SessionsTable:  boolOpt(flags.SessionsTable, opts.SessionsTable),
		NoColor:        boolOpt(flags.NoColor, opts.NoColor),
		CoverageReport: coverageReport,
		Watermarks:     watermarks,
		LogDir:         logDir,
		Out:            os.Stdout,
		Log:            log,
	}, nil
}
