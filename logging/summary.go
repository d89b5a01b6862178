package logging

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-reporter/session"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

const (
	VerdictPass = "pass"
	VerdictFail = "fail"
)

// Counts are the test totals of a session or of the whole run
type Counts struct {
	Tests      int  `yaml:"tests"`
	Passed     int  `yaml:"passed"`
	Failed     int  `yaml:"failed"`
	Skipped    int  `yaml:"skipped"`
	FatalError bool `yaml:"fatalError,omitempty"`
}

// SessionSummary is the persisted outcome of one session
type SessionSummary struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Counts   `yaml:",inline"`
	Coverage *float64 `yaml:"coverage,omitempty"`
}

// RunSummary is the content of summary.yaml
type RunSummary struct {
	RunID    string           `yaml:"runId"`
	Verdict  string           `yaml:"verdict"`
	Total    Counts           `yaml:"total"`
	Coverage *float64         `yaml:"coverage,omitempty"`
	Sessions []SessionSummary `yaml:"sessions"`
}

func countsOf(s session.Summary) Counts {
	return Counts{
		Tests:      s.Tests,
		Passed:     s.Passed(),
		Failed:     s.Failed,
		Skipped:    s.Skipped,
		FatalError: s.FatalError,
	}
}

// NewRunSummary builds the summary of a finished run
func NewRunSummary(runID string, result session.RunResult, sessions []*session.Session) RunSummary {
	summary := RunSummary{
		RunID:    runID,
		Verdict:  VerdictPass,
		Total:    countsOf(result.Summary),
		Sessions: make([]SessionSummary, 0, len(sessions)),
	}
	if result.Failed() {
		summary.Verdict = VerdictFail
	}
	if result.Coverage.Len() > 0 {
		pct := result.Coverage.Summary().Pct()
		summary.Coverage = &pct
	}

	for _, s := range sessions {
		counts := countsOf(session.Summary{
			Tests:      s.Suite.NumTests,
			Failed:     s.Suite.NumFailedTests,
			Skipped:    s.Suite.NumSkippedTests,
			FatalError: types.HasError(s.Suite),
		})
		entry := SessionSummary{ID: s.ID, Name: s.Suite.DisplayName(), Counts: counts}
		if s.Coverage.Len() > 0 {
			pct := s.Coverage.Summary().Pct()
			entry.Coverage = &pct
		}
		summary.Sessions = append(summary.Sessions, entry)
	}
	return summary
}

func writeSummary(path string, summary RunSummary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}
	return nil
}

// ReadRunSummary loads a summary.yaml written by a previous run
func ReadRunSummary(path string) (RunSummary, error) {
	var summary RunSummary
	data, err := os.ReadFile(path)
	if err != nil {
		return summary, fmt.Errorf("failed to read run summary: %w", err)
	}
	if err := yaml.Unmarshal(data, &summary); err != nil {
		return summary, fmt.Errorf("failed to parse run summary: %w", err)
	}
	return summary, nil
}
