package reporting

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-reporter/session"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// writeSessionsTable prints one row per session plus a totals footer
func (r *Runner) writeSessionsTable(res session.RunResult, duration time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(r.console.Out())
	t.SetTitle(fmt.Sprintf("Test Sessions (%s)", formatDuration(duration)))

	t.AppendHeader(table.Row{
		"Session", "Platform", "Tests", "Passed", "Failed", "Skipped", "Coverage", "Status",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Platform", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Coverage", Align: text.AlignRight},
	})

	for _, s := range r.aggregator.Sessions() {
		summary := session.Summary{
			Tests:      s.Suite.NumTests,
			Failed:     s.Suite.NumFailedTests,
			Skipped:    s.Suite.NumSkippedTests,
			FatalError: types.HasError(s.Suite),
		}
		id := s.ID
		if id == "" {
			id = "local"
		}
		t.AppendRow(table.Row{
			id,
			s.Suite.DisplayName(),
			summary.Tests,
			summary.Passed(),
			summary.Failed,
			summary.Skipped,
			formatPct(s.Coverage.Len(), coveragePct(s.Coverage)),
			getResultString(summary),
		})
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d platforms", res.Sessions),
		res.Summary.Tests,
		res.Summary.Passed(),
		res.Summary.Failed,
		res.Summary.Skipped,
		formatPct(res.Coverage.Len(), coveragePct(res.Coverage)),
		getResultString(res.Summary),
	})

	switch {
	case r.cfg.NoColor:
		t.SetStyle(table.StyleLight)
	case res.Failed():
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}

	t.Render()
}

func formatPct(files int, pct float64) string {
	if files == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// formatDuration renders a duration in seconds with one decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// getResultString returns the status cell for a summary
func getResultString(s session.Summary) string {
	switch {
	case s.Failed > 0:
		return "✗ fail"
	case s.FatalError:
		return "✗ error"
	case s.Tests > 0 && s.Skipped == s.Tests:
		return "- skip"
	default:
		return "✓ pass"
	}
}
