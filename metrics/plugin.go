package metrics

import (
	"fmt"

	"github.com/harborgrid/keelson/plugin"
)

// prometheusFactory builds PrometheusReporter instances through the plugin
// manager so the reporter can be enabled and configured from the `[plugin]`
// configuration section.
type prometheusFactory struct{}

// NewPrometheusFactory returns the plugin factory for the Prometheus reporter.
func NewPrometheusFactory() plugin.Factory {
	return &prometheusFactory{}
}

// Type returns the plugin type.
func (f *prometheusFactory) Type() plugin.Type {
	return plugin.Metrics
}

// Name returns the name of the plugin implementation.
func (f *prometheusFactory) Name() string {
	return "prometheus"
}

// ConfigType returns an empty config struct for the manager to populate.
func (f *prometheusFactory) ConfigType() any {
	return &PrometheusReporterConfig{}
}

// Setup initializes a reporter instance from the decoded configuration.
func (f *prometheusFactory) Setup(cfgAny any) (plugin.Plugin, error) {
	cfg, ok := cfgAny.(*PrometheusReporterConfig)
	if !ok {
		return nil, fmt.Errorf("prometheus plugin: unexpected config type %T", cfgAny)
	}
	return NewPrometheusReporter(cfg), nil
}

// Destroy stops the reporter.
func (f *prometheusFactory) Destroy(p plugin.Plugin) {
	if prom, ok := p.(*PrometheusReporter); ok {
		prom.Stop()
	}
}
