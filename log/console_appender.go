package log

import (
	"os"
)

// ConsoleAppender writes log entries directly to stdout without buffering.
// Suitable for development and containerized deployments where a collector
// reads the process output stream.
type ConsoleAppender struct {
}

// NewConsoleAppender returns a stateless console appender. The instance is
// safe for concurrent use as it holds no mutable state.
func NewConsoleAppender() *ConsoleAppender {
	return &ConsoleAppender{}
}

// Write writes the entry to stdout.
func (ca *ConsoleAppender) Write(buf []byte) (int, error) {
	return os.Stdout.Write(buf)
}

// Refresh is a no-op; console writes are unbuffered.
func (ca *ConsoleAppender) Refresh() error {
	return nil
}

// Close is a no-op; there are no resources to release.
func (ca *ConsoleAppender) Close() error {
	return nil
}
