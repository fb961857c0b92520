package log

import "strings"

// Level defines the severity levels used by the keelson logging framework.
// Levels are ordered by severity; higher values indicate more critical output
// and stricter filtering.
type Level int8

const (
	// TraceLevel carries very detailed diagnostics, such as per-acquire pool
	// state transitions. Intended for deep debugging only.
	TraceLevel Level = iota + 1

	// DebugLevel carries debugging information useful during development,
	// such as item creation and eviction decisions.
	DebugLevel

	// InfoLevel carries general operational messages: pool startup, shutdown,
	// configuration changes.
	InfoLevel

	// WarnLevel signals recoverable anomalies, such as a connection failing
	// validation or a disposer misbehaving.
	WarnLevel

	// ErrorLevel signals failed operations that need attention, such as
	// factory errors or appender write failures.
	ErrorLevel

	// FatalLevel signals unrecoverable failures; logging at this level
	// terminates the process via panic.
	FatalLevel
)

// String returns the uppercase name of the level.
func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to its Level value, case-insensitively.
// Unrecognized input falls back to InfoLevel so configuration mistakes never
// silence the log entirely.
func ParseLevel(levelStr string) Level {
	switch strings.ToUpper(levelStr) {
	case "TRACE":
		return TraceLevel
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	case "FATAL":
		return FatalLevel
	}
	return InfoLevel
}
