package events

import (
	"fmt"
	"io"
	"os"
)

// StdinPath selects standard input as the event source
const StdinPath = "-"

// Open opens the event stream at path. An empty path or "-" reads stdin.
func Open(path string) (io.ReadCloser, error) {
	if path == "" || path == StdinPath {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream %s: %w", path, err)
	}
	return f, nil
}
