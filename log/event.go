package log

import (
	"bytes"
	"time"
)

// LogEvent represents a single structured logging event. It provides a fluent
// API for adding key-value pairs and handles the lifecycle of a log entry
// from creation to output. A nil receiver is legal on every method so that
// level-filtered events cost nothing beyond the initial check.
type LogEvent struct {
	buf    *bytes.Buffer // Accumulates the formatted JSON entry.
	logger Logger        // Parent logger, used for routing on Msg/End.
	level  Level         // Severity of this event.
}

// newEvent creates a LogEvent with a pre-grown buffer. Events are recycled
// through the logger's object pool, so this runs only on pool misses.
func newEvent(l Logger) *LogEvent {
	e := &LogEvent{
		logger: l,
		level:  DebugLevel,
	}
	if e.buf == nil {
		e.buf = &bytes.Buffer{}
	}
	if e.buf.Cap() == 0 {
		e.buf.Grow(1024)
	}
	return e
}

// Reset prepares the event for reuse: clears the buffer, restores the default
// level and writes the begin marker so the next entry starts clean.
func (e *LogEvent) Reset() {
	e.buf.Reset()
	e.level = DebugLevel

	AppendBeginMarker(e.buf)
}

// Str appends a string field.
func (e *LogEvent) Str(k string, v string) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendString(e.buf, v)
	return e
}

// Int appends an int field.
func (e *LogEvent) Int(k string, v int) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendInt64(e.buf, int64(v))
	return e
}

// Int64 appends an int64 field.
func (e *LogEvent) Int64(k string, v int64) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendInt64(e.buf, v)
	return e
}

// Uint64 appends a uint64 field.
func (e *LogEvent) Uint64(k string, v uint64) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendUint64(e.buf, v)
	return e
}

// Float64 appends a float64 field.
func (e *LogEvent) Float64(k string, v float64) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendFloat64(e.buf, v)
	return e
}

// Bool appends a boolean field.
func (e *LogEvent) Bool(k string, v bool) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendBool(e.buf, v)
	return e
}

// Dur appends a duration field rendered in milliseconds.
func (e *LogEvent) Dur(k string, v time.Duration) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendFloat64(e.buf, float64(v.Microseconds())/1000)
	return e
}

// Time appends a timestamp field formatted as 'YYYY-MM-DD HH:MM:SS.000'.
func (e *LogEvent) Time(k string, v *time.Time) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	e.buf.WriteByte('"')
	e.buf.WriteString(v.Format("2006-01-02 15:04:05.000"))
	e.buf.WriteByte('"')
	return e
}

// Err appends an error field under the key "error". A nil error is rendered
// as JSON null.
func (e *LogEvent) Err(v error) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, "error")
	if v == nil {
		AppendNil(e.buf)
		return e
	}
	AppendString(e.buf, v.Error())
	return e
}

// Msg finalizes the event with the given message and hands it to the logger
// for output. The event must not be used after Msg returns.
func (e *LogEvent) Msg(v string) {
	if e == nil {
		return
	}
	e.Str("msg", v)
	e.End()
}

// End closes the JSON object and routes the event to the parent logger.
func (e *LogEvent) End() {
	if e == nil {
		return
	}
	AppendEndMarker(e.buf)
	AppendLineBreak(e.buf)
	e.logger.OnEventEnd(e)
}
