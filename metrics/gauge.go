package metrics

// Gauge tracks a point-in-time value that can go up or down, such as the
// current pool size or the number of outstanding leases.
type Gauge interface {
	Metrics
	// UpdateWithDim sets the gauge value with the given dimensions.
	UpdateWithDim(v Value, dimensions Dimension)
	// Update sets the gauge value without dimensions.
	Update(v Value)
}

// gauge implements Gauge with a set aggregation policy (last value wins).
type gauge struct {
	name  string
	group string
}

// Name returns the metric name.
func (g *gauge) Name() string {
	return g.name
}

// Group returns the metric group.
func (g *gauge) Group() string {
	return g.group
}

// Policy returns Policy_Set.
func (g *gauge) Policy() Policy {
	return Policy_Set
}

// Update sets the gauge value without dimensions.
func (g *gauge) Update(v Value) {
	g.UpdateWithDim(v, nil)
}

// UpdateWithDim sets the gauge value with the given dimensions and reports
// the measurement to all registered reporters.
func (g *gauge) UpdateWithDim(v Value, dimensions Dimension) {
	r := Record{
		metrics:    g,
		value:      v,
		dimensions: dimensions,
	}
	for _, reporter := range _Reporters {
		reporter.Report(r)
	}
}
