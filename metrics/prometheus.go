// Prometheus reporter: converts keelson metric records into Prometheus
// collectors and exposes them over an HTTP scrape endpoint.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harborgrid/keelson/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const _metricsChanSize = 65536

// metricType identifies the kind of Prometheus collector backing a record.
type metricType int

const (
	_metricTypeCounter metricType = iota
	_metricTypeGauge
)

// PrometheusReporterConfig contains configuration for the Prometheus reporter.
type PrometheusReporterConfig struct {
	Tag        string            `mapstructure:"tag"`        // Plugin instance tag.
	ListenAddr string            `mapstructure:"listenAddr"` // HTTP scrape listen address, e.g. ":9105".
	MetricPath string            `mapstructure:"metricPath"` // Metrics HTTP path, default "/metrics".
	ExtLabels  map[string]string `mapstructure:"extLabels"`  // Labels attached to every metric.
}

// PrometheusReporter aggregates metric records in a background goroutine and
// publishes them through a dedicated Prometheus registry.
type PrometheusReporter struct {
	cfg         *PrometheusReporterConfig
	registry    *prometheus.Registry
	factory     promauto.Factory
	promSvr     *http.Server
	metricsChan chan Record
	metrics     map[string]*metricWrapper
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewPrometheusReporter creates a reporter with the given configuration. A
// nil cfg yields a reporter without a scrape endpoint, useful in tests.
func NewPrometheusReporter(cfg *PrometheusReporterConfig) *PrometheusReporter {
	if cfg == nil {
		cfg = &PrometheusReporterConfig{}
	}
	if cfg.MetricPath == "" {
		cfg.MetricPath = "/metrics"
	}

	ctx, cancel := context.WithCancel(context.Background())
	registry := prometheus.NewRegistry()
	p := &PrometheusReporter{
		cfg:         cfg,
		registry:    registry,
		factory:     promauto.With(registry),
		metricsChan: make(chan Record, _metricsChanSize),
		metrics:     map[string]*metricWrapper{},
		ctx:         ctx,
		cancel:      cancel,
	}

	p.start()
	return p
}

// FactoryName identifies the plugin implementation that produced this reporter.
func (x *PrometheusReporter) FactoryName() string {
	return "prometheus"
}

// Report queues a record for aggregation. The channel is bounded; records are
// dropped with an error log when the aggregator cannot keep up.
func (x *PrometheusReporter) Report(r Record) {
	select {
	case x.metricsChan <- r:
	default:
		log.Error().Str("metric", r.Metrics().Name()).Msg("metrics chan full")
	}
}

// Registry exposes the underlying Prometheus registry, mainly for tests.
func (x *PrometheusReporter) Registry() *prometheus.Registry {
	return x.registry
}

func (x *PrometheusReporter) start() {
	x.wg.Add(1)
	go x.aggregate()

	if x.cfg.ListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle(x.cfg.MetricPath, promhttp.HandlerFor(x.registry, promhttp.HandlerOpts{}))
		x.promSvr = &http.Server{Addr: x.cfg.ListenAddr, Handler: mux}
		go func() {
			if err := x.promSvr.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Str("addr", x.cfg.ListenAddr).Msg("prometheus http server")
			}
		}()
	}
}

// Stop shuts down the aggregator and the scrape endpoint.
func (x *PrometheusReporter) Stop() {
	if x.cancel != nil {
		x.cancel()
		x.cancel = nil
	}
	x.wg.Wait()

	if x.promSvr != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = x.promSvr.Shutdown(ctx)
		x.promSvr = nil
	}
}

// aggregate consumes queued records and merges them into collectors.
func (x *PrometheusReporter) aggregate() {
	defer x.wg.Done()
	for {
		select {
		case <-x.ctx.Done():
			return
		case rc := <-x.metricsChan:
			x.merge(&rc)
		}
	}
}

func (x *PrometheusReporter) merge(rc *Record) {
	key := recordKey(rc)
	w, ok := x.metrics[key]
	if !ok {
		switch rc.Metrics().Policy() {
		case Policy_Sum:
			w = x.newPromCounter(rc)
		default:
			w = x.newPromGauge(rc)
		}
		x.metrics[key] = w
		return
	}
	w.merge(rc)
}

// recordKey builds a stable identity for a record from its name and sorted
// dimension pairs.
func recordKey(rc *Record) string {
	dims := rc.Dimensions()
	if len(dims) == 0 {
		return rc.Metrics().Name()
	}
	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(rc.Metrics().Name())
	for _, k := range keys {
		sb.WriteByte('|')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(dims[k])
	}
	return sb.String()
}

// metricOpt contains naming options for creating Prometheus collectors.
type metricOpt struct {
	subsystem   string
	name        string
	constLabels map[string]string
}

func (x *PrometheusReporter) newMetricOpt(rc *Record) *metricOpt {
	opts := &metricOpt{
		subsystem:   strings.ReplaceAll(rc.Metrics().Group(), ".", "_"),
		name:        strings.ReplaceAll(rc.Metrics().Name(), ".", "_"),
		constLabels: make(map[string]string, len(rc.Dimensions())+len(x.cfg.ExtLabels)),
	}

	for k, v := range x.cfg.ExtLabels {
		opts.constLabels[k] = v
	}
	for k, v := range rc.Dimensions() {
		opts.constLabels[k] = v
	}
	return opts
}

// promGauge wraps a Prometheus gauge with value tracking for averaging.
type promGauge struct {
	prometheus.Gauge
	value float64
	cnt   int
}

func (p *promGauge) mergeRecord(rc *Record) error {
	switch rc.Metrics().Policy() {
	case Policy_Set, Policy_Max, Policy_Min:
		p.Set(float64(rc.Value()))
	case Policy_Avg, Policy_Stopwatch:
		v, c := rc.RawData()
		p.value += float64(v)
		p.cnt += c
		if p.cnt <= 0 {
			return fmt.Errorf("metrics(%s) count invalid", rc.Metrics().Name())
		}
		p.Set(p.value / float64(p.cnt))
	default:
		return fmt.Errorf("metrics(%s) policy invalid", rc.Metrics().Name())
	}
	return nil
}

func (x *PrometheusReporter) newPromGauge(rc *Record) *metricWrapper {
	o := x.newMetricOpt(rc)
	g := &promGauge{
		Gauge: x.factory.NewGauge(prometheus.GaugeOpts{
			Subsystem:   o.subsystem,
			Name:        o.name,
			ConstLabels: o.constLabels,
		}),
	}
	if err := g.mergeRecord(rc); err != nil {
		log.Error().Err(err).Msg("prometheus merge")
	}

	return &metricWrapper{
		m:  g,
		mt: _metricTypeGauge,
	}
}

func (x *PrometheusReporter) newPromCounter(rc *Record) *metricWrapper {
	o := x.newMetricOpt(rc)
	c := x.factory.NewCounter(prometheus.CounterOpts{
		Subsystem:   o.subsystem,
		Name:        o.name,
		ConstLabels: o.constLabels,
	})
	c.Add(float64(rc.Value()))

	return &metricWrapper{
		m:  c,
		mt: _metricTypeCounter,
	}
}

// metricWrapper stores a collector together with its kind so merges can be
// dispatched without reflection.
type metricWrapper struct {
	m  prometheus.Metric
	mt metricType
}

func (m *metricWrapper) merge(rc *Record) {
	switch m.mt {
	case _metricTypeGauge:
		if g, ok := m.m.(*promGauge); ok && g != nil {
			if err := g.mergeRecord(rc); err != nil {
				log.Error().Err(err).Msg("prometheus merge")
			}
			return
		}
	case _metricTypeCounter:
		if c, ok := m.m.(prometheus.Counter); ok && c != nil {
			c.Add(float64(rc.Value()))
			return
		}
	}

	log.Error().Str("promtype", fmt.Sprintf("%T", m.m)).
		Int("metrictype", int(m.mt)).Msg("prometheus merge failed")
}
