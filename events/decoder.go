// Package events decodes the executor's JSON-lines event stream.
//
// Each line holds one event:
//
//	{"event": "suiteStart", "suite": {"name": "chrome 120 on Linux", "sessionId": "4f2a", "hasParent": false}}
//	{"event": "coverage", "sessionId": "4f2a", "coverage": {"mode": "count", "files": {...}}}
//	{"event": "coverage", "sessionId": "4f2a", "profile": "mode: set\n..."}
//	{"event": "runEnd"}
package events

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum-optimism/infra/op-reporter/coverage"
	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// maxLineSize bounds a single event line. Coverage events can be large.
const maxLineSize = 64 * 1024 * 1024

// rawEvent mirrors the wire format of a single line
type rawEvent struct {
	Event       string                  `json:"event"`
	Suite       *types.Suite            `json:"suite,omitempty"`
	Test        *types.Test             `json:"test,omitempty"`
	SessionID   string                  `json:"sessionId,omitempty"`
	Coverage    *coverage.Map           `json:"coverage,omitempty"`
	Profile     string                  `json:"profile,omitempty"`
	Error       *types.ErrorInfo        `json:"error,omitempty"`
	Message     string                  `json:"message,omitempty"`
	Deprecation *types.Deprecation      `json:"deprecation,omitempty"`
	Server      *types.ServerInfo       `json:"server,omitempty"`
	Progress    *types.DownloadProgress `json:"progress,omitempty"`
}

// DecodeError reports a line that could not be turned into an event
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError checks if the error is or wraps a DecodeError
func IsDecodeError(err error) bool {
	var decodeErr *DecodeError
	return err != nil && errors.As(err, &decodeErr)
}

// Decoder reads events from a JSON-lines stream
type Decoder struct {
	scanner *bufio.Scanner
	line    int
	raw     string
}

// NewDecoder creates a decoder reading from r
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{scanner: scanner}
}

// Next returns the next event. It returns io.EOF at the end of the stream
// and a *DecodeError for a malformed line; decoding can continue after a
// DecodeError.
func (d *Decoder) Next() (*types.Event, error) {
	for d.scanner.Scan() {
		d.line++
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" {
			continue
		}
		d.raw = line
		ev, err := DecodeLine([]byte(line))
		if err != nil {
			return nil, &DecodeError{Line: d.line, Err: err}
		}
		return ev, nil
	}
	if err := d.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event stream: %w", err)
	}
	return nil, io.EOF
}

// Line returns the number of the last line read
func (d *Decoder) Line() int {
	return d.line
}

// Raw returns the trimmed text of the last non-blank line read
func (d *Decoder) Raw() string {
	return d.raw
}

// DecodeLine decodes a single event line
func DecodeLine(data []byte) (*types.Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid event json: %w", err)
	}
	kind, err := types.ParseEventKind(raw.Event)
	if err != nil {
		return nil, err
	}

	ev := &types.Event{
		Kind:        kind,
		Suite:       raw.Suite,
		Test:        raw.Test,
		SessionID:   raw.SessionID,
		Coverage:    raw.Coverage,
		Error:       raw.Error,
		Message:     raw.Message,
		Deprecation: raw.Deprecation,
		Server:      raw.Server,
		Progress:    raw.Progress,
	}

	if kind == types.EventCoverage && raw.Profile != "" {
		profile, err := coverage.ParseProfile(strings.NewReader(raw.Profile))
		if err != nil {
			return nil, err
		}
		if ev.Coverage == nil {
			ev.Coverage = profile
		} else {
			ev.Coverage.Merge(profile)
		}
	}

	// Nested suites and tests inherit the session of the suite they belong to
	if ev.Suite != nil {
		inheritSession(ev.Suite, ev.SessionID)
	}
	if ev.Test != nil && ev.Test.SessionID == "" {
		ev.Test.SessionID = ev.SessionID
	}

	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

func inheritSession(s *types.Suite, sessionID string) {
	if s.SessionID == "" {
		s.SessionID = sessionID
	}
	for _, t := range s.Tests {
		if t.SessionID == "" {
			t.SessionID = s.SessionID
		}
	}
	for _, child := range s.Suites {
		child.HasParent = true
		inheritSession(child, s.SessionID)
	}
}

// Encode writes ev as a single JSON line
func Encode(w io.Writer, ev *types.Event) error {
	raw := rawEvent{
		Event:       string(ev.Kind),
		Suite:       ev.Suite,
		Test:        ev.Test,
		SessionID:   ev.SessionID,
		Coverage:    ev.Coverage,
		Error:       ev.Error,
		Message:     ev.Message,
		Deprecation: ev.Deprecation,
		Server:      ev.Server,
		Progress:    ev.Progress,
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.Kind, err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
