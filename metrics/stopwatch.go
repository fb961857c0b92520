package metrics

import (
	"time"
)

// StopWatch measures operation durations, such as how long callers wait for a
// pool admission permit.
type StopWatch interface {
	Metrics
	// RecordWithDim records the duration since startTime with the given
	// dimensions and returns it.
	RecordWithDim(dimensions Dimension, startTime time.Time) time.Duration
}

// stopwatch implements StopWatch. Durations are reported in milliseconds.
type stopwatch struct {
	name  string
	group string
}

// Name returns the stopwatch name.
func (s *stopwatch) Name() string {
	return s.name
}

// Group returns the stopwatch group.
func (s *stopwatch) Group() string {
	return s.group
}

// Policy returns Policy_Stopwatch.
func (s *stopwatch) Policy() Policy {
	return Policy_Stopwatch
}

// RecordWithDim records the time elapsed since startTime and reports it to
// all registered reporters. Returns the measured duration.
func (s *stopwatch) RecordWithDim(dimensions Dimension, startTime time.Time) time.Duration {
	duration := time.Since(startTime)
	r := Record{
		metrics:    s,
		value:      Value(float64(duration.Microseconds()) / 1000),
		cnt:        1,
		dimensions: dimensions,
	}

	for _, reporter := range _Reporters {
		reporter.Report(r)
	}
	return duration
}
