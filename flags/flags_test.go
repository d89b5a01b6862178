package flags

import (
	"strings"
	"testing"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// TestOptionalFlagsDontSetRequired asserts that all flags deemed optional set
// the Required field to false.
func TestOptionalFlagsDontSetRequired(t *testing.T) {
	for _, flag := range optionalFlags {
		reqFlag, ok := flag.(cli.RequiredFlag)
		require.True(t, ok)
		require.False(t, reqFlag.IsRequired())
	}
}

// TestUniqueFlags asserts that all flag names are unique, to avoid accidental conflicts between the many flags.
func TestUniqueFlags(t *testing.T) {
	seenCLI := make(map[string]struct{})
	for _, flag := range Flags {
		name := flag.Names()[0]
		if _, ok := seenCLI[name]; ok {
			t.Errorf("duplicate flag %s", name)
			continue
		}
		seenCLI[name] = struct{}{}
	}
}

func TestHasEnvVar(t *testing.T) {
	for _, flag := range Flags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlagGetter, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "must be able to cast the flag to an EnvVar interface")
			envFlags := envFlagGetter.GetEnvVars()
			require.Equal(t, 1, len(envFlags), "flags should have exactly one env var")
		})
	}
}

func TestEnvVarFormat(t *testing.T) {
	for _, flag := range Flags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlagGetter, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "must be able to cast the flag to an EnvVar interface")
			envFlags := envFlagGetter.GetEnvVars()
			require.Equal(t, 1, len(envFlags), "flags should have exactly one env var")
			require.True(t, strings.HasPrefix(envFlags[0], EnvVarPrefix+"_"))
			require.Equal(t, opservice.FlagNameToEnvVarName(flagName, EnvVarPrefix), envFlags[0])
		})
	}
}

func TestCoverageReportFlag(t *testing.T) {
	testCases := []struct {
		name        string
		args        []string
		expected    string
		shouldError bool
	}{
		{"default is text", []string{"app"}, CoverageReportText, false},
		{"text-summary", []string{"app", "--coverage-report", "text-summary"}, CoverageReportTextSummary, false},
		{"unknown type", []string{"app", "--coverage-report", "html"}, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			app := &cli.App{
				Flags: []cli.Flag{CoverageReport},
				Action: func(ctx *cli.Context) error {
					got = ctx.String(CoverageReport.Name)
					return nil
				},
			}

			err := app.Run(tc.args)
			if tc.shouldError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "coverage-report must be one of")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestEventsFlagDefaultsToStdin(t *testing.T) {
	app := &cli.App{
		Flags: []cli.Flag{Events, WatermarkLow, WatermarkHigh},
		Action: func(ctx *cli.Context) error {
			assert.Equal(t, "-", ctx.String(Events.Name))
			assert.Equal(t, 50.0, ctx.Float64(WatermarkLow.Name))
			assert.Equal(t, 80.0, ctx.Float64(WatermarkHigh.Name))
			return CheckRequired(ctx)
		},
	}
	require.NoError(t, app.Run([]string{"app"}))
}
