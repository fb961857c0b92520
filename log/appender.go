package log

// LogAppender is the abstraction over log output destinations (console, file,
// network collectors). Implementations must be goroutine-safe: appenders are
// written to concurrently by every component of the backend.
type LogAppender interface {
	// Write outputs one formatted log entry to the destination.
	Write(buf []byte) (n int, err error)

	// Refresh forces any buffered data to be written immediately. It should
	// block until pending entries reach the underlying storage.
	Refresh() error

	// Close flushes buffered entries and releases underlying resources. It
	// should be called at application shutdown to prevent data loss.
	Close() error
}
