package types

import (
	"fmt"

	"github.com/ethereum-optimism/infra/op-reporter/coverage"
)

// EventKind identifies a lifecycle event emitted by the executor
type EventKind string

const (
	EventRunStart               EventKind = "runStart"
	EventRunEnd                 EventKind = "runEnd"
	EventSuiteStart             EventKind = "suiteStart"
	EventSuiteEnd               EventKind = "suiteEnd"
	EventTestEnd                EventKind = "testEnd"
	EventCoverage               EventKind = "coverage"
	EventServerStart            EventKind = "serverStart"
	EventTunnelStart            EventKind = "tunnelStart"
	EventTunnelStatus           EventKind = "tunnelStatus"
	EventTunnelDownloadProgress EventKind = "tunnelDownloadProgress"
	EventDeprecated             EventKind = "deprecated"
	EventError                  EventKind = "error"
	EventWarning                EventKind = "warning"
	EventLog                    EventKind = "log"
)

// EventKinds lists every known event kind
var EventKinds = []EventKind{
	EventRunStart,
	EventRunEnd,
	EventSuiteStart,
	EventSuiteEnd,
	EventTestEnd,
	EventCoverage,
	EventServerStart,
	EventTunnelStart,
	EventTunnelStatus,
	EventTunnelDownloadProgress,
	EventDeprecated,
	EventError,
	EventWarning,
	EventLog,
}

// IsValid reports whether the kind is one of EventKinds
func (k EventKind) IsValid() bool {
	for _, known := range EventKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseEventKind converts a raw event name into an EventKind
func ParseEventKind(name string) (EventKind, error) {
	kind := EventKind(name)
	if !kind.IsValid() {
		return "", fmt.Errorf("unknown event kind %q", name)
	}
	return kind, nil
}

// Deprecation describes use of a deprecated executor feature
type Deprecation struct {
	Original    string `json:"original"`
	Replacement string `json:"replacement,omitempty"`
	Message     string `json:"message,omitempty"`
}

// ServerInfo describes the executor's test server
type ServerInfo struct {
	URL        string `json:"url,omitempty"`
	Port       int    `json:"port"`
	SocketPort int    `json:"socketPort,omitempty"`
}

// DownloadProgress reports progress of a tunnel binary download
type DownloadProgress struct {
	Received int64 `json:"received"`
	Total    int64 `json:"total"`
}

// Percent returns the downloaded percentage
func (p DownloadProgress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Received) / float64(p.Total) * 100
}

// Event is a single executor lifecycle event. Only the payload fields
// belonging to Kind are set.
type Event struct {
	Kind EventKind

	Suite       *Suite            // suiteStart, suiteEnd
	Test        *Test             // testEnd
	SessionID   string            // coverage
	Coverage    *coverage.Map     // coverage
	Error       *ErrorInfo        // error
	Message     string            // log, warning, tunnelStatus
	Deprecation *Deprecation      // deprecated
	Server      *ServerInfo       // serverStart
	Progress    *DownloadProgress // tunnelDownloadProgress
}

// Validate checks that the payload required by the event kind is present
func (e *Event) Validate() error {
	var missing string
	switch e.Kind {
	case EventSuiteStart, EventSuiteEnd:
		if e.Suite == nil {
			missing = "suite"
		}
	case EventTestEnd:
		if e.Test == nil {
			missing = "test"
		}
	case EventCoverage:
		if e.Coverage == nil {
			missing = "coverage"
		}
	case EventError:
		if e.Error == nil {
			missing = "error"
		}
	case EventDeprecated:
		if e.Deprecation == nil {
			missing = "deprecation"
		}
	case EventServerStart:
		if e.Server == nil {
			missing = "server"
		}
	case EventTunnelDownloadProgress:
		if e.Progress == nil {
			missing = "progress"
		}
	default:
		if !e.Kind.IsValid() {
			return fmt.Errorf("unknown event kind %q", e.Kind)
		}
	}
	if missing != "" {
		return fmt.Errorf("%s event is missing its %s payload", e.Kind, missing)
	}
	return nil
}
