package metrics

// Record represents a single metric measurement with its metadata: the metric
// definition, the measured value, a count used for averaging, and labelling
// dimensions.
type Record struct {
	metrics    Metrics
	value      Value
	cnt        int
	dimensions Dimension
}

// Metrics returns the metric definition associated with this record.
func (r *Record) Metrics() Metrics {
	return r.metrics
}

// Value returns the processed value based on the aggregation policy. For
// Policy_Avg and Policy_Stopwatch it is the mean (value/count); otherwise the
// raw value.
func (r *Record) Value() Value {
	switch r.metrics.Policy() {
	case Policy_Avg, Policy_Stopwatch:
		if r.cnt != 0 {
			return r.value / Value(r.cnt)
		}
		return r.value
	}
	return r.value
}

// RawData returns the raw value and count without any processing.
func (r *Record) RawData() (Value, int) {
	return r.value, r.cnt
}

// Dimensions returns the key-value pairs used for metric labelling.
func (r *Record) Dimensions() map[string]string {
	return r.dimensions
}
