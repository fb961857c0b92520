package metrics

var _Reporters []Reporter

// Reporter is the interface for metric reporting backends. Reporters receive
// every recorded measurement and forward it to systems such as Prometheus.
type Reporter interface {
	Report(r Record)
}

// SetMetricsReporters sets the global list of metric reporters. All metrics
// are fanned out to these reporters when updated.
func SetMetricsReporters(reports []Reporter) {
	_Reporters = reports
}
