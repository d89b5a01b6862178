package metrics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "op_reporter"
)

var (
	Debug                bool = false
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of reporting errors",
	}, []string{
		"error",
	})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "events_total",
		Help:      "Count of executor events processed",
	}, []string{
		"event",
	})

	fatalErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "fatal_errors_total",
		Help:      "Count of suite and run level errors",
	}, []string{
		"scope",
	})

	deprecationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "deprecations_total",
		Help:      "Count of distinct deprecation notices",
	}, []string{
		"original",
	})

	sessionTests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "session_tests",
		Help:      "Test counts of a finished session",
	}, []string{
		"session",
		"result",
	})

	sessionCoverage = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "session_coverage_percent",
		Help:      "Statement coverage of a finished session",
	}, []string{
		"session",
	})

	runSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_sessions",
		Help:      "Number of sessions in the last run",
	})

	runTests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests",
		Help:      "Test counts of the last run",
	}, []string{
		"result",
	})

	runCoverage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_coverage_percent",
		Help:      "Merged statement coverage of the last run",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "runs_total",
		Help:      "Count of completed runs by verdict",
	}, []string{
		"verdict",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordEvent(event string) {
	eventsTotal.WithLabelValues(event).Inc()
}

func RecordFatalError(scope string) {
	if Debug {
		log.Debug("metric inc", "m", "fatal_errors_total", "scope", scope)
	}
	fatalErrorsTotal.WithLabelValues(scope).Inc()
}

func RecordDeprecation(original string) {
	deprecationsTotal.WithLabelValues(original).Inc()
}

func RecordSession(name string, tests, failed, skipped int, coveragePct float64) {
	if Debug {
		log.Debug("metric set",
			"m", "session_tests",
			"session", name,
			"tests", tests,
			"failed", failed,
			"skipped", skipped)
	}
	sessionTests.WithLabelValues(name, "total").Set(float64(tests))
	sessionTests.WithLabelValues(name, "failed").Set(float64(failed))
	sessionTests.WithLabelValues(name, "skipped").Set(float64(skipped))
	sessionCoverage.WithLabelValues(name).Set(coveragePct)
}

func RecordRun(sessions, tests, failed, skipped int, hasFailures bool, coveragePct float64) {
	runSessions.Set(float64(sessions))
	runTests.WithLabelValues("total").Set(float64(tests))
	runTests.WithLabelValues("failed").Set(float64(failed))
	runTests.WithLabelValues("skipped").Set(float64(skipped))
	runCoverage.Set(coveragePct)

	verdict := "pass"
	if hasFailures {
		verdict = "fail"
	}
	runsTotal.WithLabelValues(verdict).Inc()
}
