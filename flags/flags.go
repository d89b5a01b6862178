package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-reporter/coverage"
	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "OP_REPORTER"

const (
	CoverageReportText        = coverage.ReportText
	CoverageReportTextSummary = coverage.ReportTextSummary
)

var (
	Events = &cli.StringFlag{
		Name:    "events",
		Value:   "-",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "EVENTS"),
		Usage:   "Path to the JSON-lines event stream of the test executor ('-' reads stdin)",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIG"),
		Usage:   "Path to a YAML file with reporter options (eg. 'reporter.yaml'). Flags take precedence.",
	}
	HidePassed = &cli.BoolFlag{
		Name:    "hide-passed",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HIDE_PASSED"),
		Usage:   "Don't print passing tests",
	}
	HideSkipped = &cli.BoolFlag{
		Name:    "hide-skipped",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HIDE_SKIPPED"),
		Usage:   "Don't print skipped tests",
	}
	ServeOnly = &cli.BoolFlag{
		Name:    "serve-only",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SERVE_ONLY"),
		Usage:   "The executor only serves the test page; no test sessions are expected",
	}
	FailureTree = &cli.BoolFlag{
		Name:    "failure-tree",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FAILURE_TREE"),
		Usage:   "Print the failing branches of each session's suite tree",
	}
	SessionsTable = &cli.BoolFlag{
		Name:    "sessions-table",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SESSIONS_TABLE"),
		Usage:   "Print a table of all test sessions at the end of the run",
	}
	CoverageReport = &cli.StringFlag{
		Name:    "coverage-report",
		Value:   CoverageReportText,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "COVERAGE_REPORT"),
		Usage:   fmt.Sprintf("Coverage report type. Must be one of: %s, %s", CoverageReportText, CoverageReportTextSummary),
		Action: func(ctx *cli.Context, v string) error {
			return validateCoverageReport(v)
		},
	}
	WatermarkLow = &cli.Float64Flag{
		Name:    "watermark-low",
		Value:   50,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WATERMARK_LOW"),
		Usage:   "Coverage percentage below which a file is reported as poorly covered",
	}
	WatermarkHigh = &cli.Float64Flag{
		Name:    "watermark-high",
		Value:   80,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WATERMARK_HIGH"),
		Usage:   "Coverage percentage from which a file is reported as well covered",
	}
	NoColor = &cli.BoolFlag{
		Name:    "no-color",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "NO_COLOR"),
		Usage:   "Disable colored terminal output",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOGDIR"),
		Usage:   "Directory to store run transcripts in. Nothing is written when empty.",
	}
)

var requiredFlags []cli.Flag

var optionalFlags = []cli.Flag{
	Events,
	ConfigFile,
	HidePassed,
	HideSkipped,
	ServeOnly,
	FailureTree,
	SessionsTable,
	CoverageReport,
	WatermarkLow,
	WatermarkHigh,
	NoColor,
	LogDir,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}

func validateCoverageReport(v string) error {
	switch v {
	case CoverageReportText, CoverageReportTextSummary:
		return nil
	}
	return fmt.Errorf("coverage-report must be one of: %s, %s (got %q)", CoverageReportText, CoverageReportTextSummary, v)
}
