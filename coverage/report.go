package coverage

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	ReportText        = "text"
	ReportTextSummary = "text-summary"
)

// Watermarks split coverage percentages into low, medium and high bands
type Watermarks struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// DefaultWatermarks are used when none are configured
var DefaultWatermarks = Watermarks{Low: 50, High: 80}

// Validate checks that the bands are ordered and within 0-100
func (w Watermarks) Validate() error {
	if w.Low < 0 || w.High > 100 || w.Low > w.High {
		return fmt.Errorf("invalid watermarks: low=%v high=%v", w.Low, w.High)
	}
	return nil
}

func (w Watermarks) colors(pct float64) text.Colors {
	switch {
	case pct < w.Low:
		return text.Colors{text.FgRed}
	case pct < w.High:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{text.FgGreen}
	}
}

// Reporter renders a coverage map
type Reporter interface {
	CreateReport(w io.Writer, m *Map) error
}

// NewReporter returns the reporter registered under name
func NewReporter(name string, watermarks Watermarks, noColor bool) (Reporter, error) {
	if err := watermarks.Validate(); err != nil {
		return nil, err
	}
	switch name {
	case "", ReportText:
		return &TextReporter{Watermarks: watermarks, NoColor: noColor}, nil
	case ReportTextSummary:
		return &TextSummaryReporter{Watermarks: watermarks, NoColor: noColor}, nil
	default:
		return nil, fmt.Errorf("unknown coverage report type %q (expected %s or %s)", name, ReportText, ReportTextSummary)
	}
}

// TextReporter renders a table with one row per file
type TextReporter struct {
	Watermarks Watermarks
	NoColor    bool
}

// CreateReport writes the coverage table to w
func (r *TextReporter) CreateReport(w io.Writer, m *Map) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "% Stmts", "Stmts", "Covered", "Uncovered Lines"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "File", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "% Stmts", Align: text.AlignRight},
		{Name: "Stmts", Align: text.AlignRight},
		{Name: "Covered", Align: text.AlignRight},
		{Name: "Uncovered Lines", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, path := range m.Files() {
		f := m.File(path)
		s := f.Summary()
		t.AppendRow(table.Row{
			path,
			r.pct(s.Pct()),
			s.Statements,
			s.Covered,
			formatRanges(f.UncoveredLines()),
		})
	}

	total := m.Summary()
	t.AppendFooter(table.Row{"All files", r.pct(total.Pct()), total.Statements, total.Covered, ""})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func (r *TextReporter) pct(pct float64) string {
	s := fmt.Sprintf("%.2f", pct)
	if r.NoColor {
		return s
	}
	return r.Watermarks.colors(pct).Sprint(s)
}

// TextSummaryReporter renders a single totals line
type TextSummaryReporter struct {
	Watermarks Watermarks
	NoColor    bool
}

// CreateReport writes the coverage summary line to w
func (r *TextSummaryReporter) CreateReport(w io.Writer, m *Map) error {
	s := m.Summary()
	line := fmt.Sprintf("Statements   : %.2f%% ( %d/%d ) in %d files", s.Pct(), s.Covered, s.Statements, m.Len())
	if !r.NoColor {
		line = r.Watermarks.colors(s.Pct()).Sprint(line)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func formatRanges(ranges []LineRange) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}
