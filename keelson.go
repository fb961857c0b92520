// Package keelson assembles the fleet backend runtime: structured logging,
// plugin management, metric reporting, lifecycle events and the managed
// connection pools.
package keelson

import (
	"fmt"
	"time"

	"github.com/harborgrid/keelson/config"
	"github.com/harborgrid/keelson/event"
	"github.com/harborgrid/keelson/log"
	"github.com/harborgrid/keelson/metrics"
	"github.com/harborgrid/keelson/plugin"
	"github.com/harborgrid/keelson/pool"
)

// Keelson is the core application struct, holding all major framework
// components and dependencies.
type Keelson struct {
	Logger        log.Logger
	PluginManager *plugin.Manager
	Events        *event.Publisher
	Pools         *pool.Manager

	pluginConf map[string]any
	poolsConf  map[string]any
	started    bool
}

// NewKeelson creates a Keelson instance with default configuration: console
// logging and no configured pools. Connectors and pools can still be added
// programmatically.
func NewKeelson() (*Keelson, error) {
	return newKeelson(&config.AppConfig{})
}

// NewKeelsonWithConfig creates a Keelson instance from the TOML configuration
// at path. Register connectors, then call Start to bring up the configured
// plugins and pools.
func NewKeelsonWithConfig(path string) (*Keelson, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return newKeelson(cfg)
}

func newKeelson(cfg *config.AppConfig) (*Keelson, error) {
	if cfg.Log != nil {
		if err := cfg.Log.Validate(); err != nil {
			return nil, fmt.Errorf("keelson: logger init: %w", err)
		}
	}
	logger := log.NewLogger(cfg.Log)
	log.SetDefaultLogger(logger)

	pluginManager := plugin.NewManager()
	pluginManager.RegisterFactory(metrics.NewPrometheusFactory())

	events := event.NewPublisher()
	for _, topic := range []string{
		event.PoolItemCreated,
		event.PoolItemDestroyed,
		event.PoolClosed,
		event.ReloadConfig,
	} {
		if err := events.NewTopic(topic, 3*time.Second); err != nil {
			return nil, fmt.Errorf("keelson: topic %s: %w", topic, err)
		}
	}

	k := &Keelson{
		Logger:        logger,
		PluginManager: pluginManager,
		Events:        events,
		Pools:         pool.NewManager(events),
		pluginConf:    cfg.Plugin,
		poolsConf:     cfg.Pools,
	}

	log.Info().Msg("keelson application initialized")
	return k, nil
}

// RegisterConnector makes a connector available to the configured pools under
// the given name. Must be called before Start.
func (k *Keelson) RegisterConnector(name string, c pool.Connector) error {
	return k.Pools.RegisterConnector(name, c)
}

// RegisterFactory adds a plugin factory, for embedding systems that ship
// their own reporters or connectors as plugins. Must be called before Start.
func (k *Keelson) RegisterFactory(f plugin.Factory) {
	k.PluginManager.RegisterFactory(f)
}

// Start brings up the configured plugins, wires metric reporters and
// connector plugins, and builds every configured pool.
func (k *Keelson) Start() error {
	if k.started {
		return fmt.Errorf("keelson: already started")
	}

	if err := k.PluginManager.SetupPlugins(k.pluginConf); err != nil {
		return fmt.Errorf("keelson: plugin setup: %w", err)
	}

	var reporters []metrics.Reporter
	for name, ins := range k.PluginManager.PluginsOfType(plugin.Metrics) {
		r, ok := ins.(metrics.Reporter)
		if !ok {
			return fmt.Errorf("keelson: metrics plugin %q is not a reporter", name)
		}
		reporters = append(reporters, r)
	}
	if len(reporters) > 0 {
		metrics.SetMetricsReporters(reporters)
	}

	for name, ins := range k.PluginManager.PluginsOfType(plugin.Connector) {
		c, ok := ins.(pool.Connector)
		if !ok {
			return fmt.Errorf("keelson: connector plugin %q does not implement pool.Connector", name)
		}
		if err := k.Pools.RegisterConnector(name, c); err != nil {
			return err
		}
	}

	if err := k.Pools.Setup(k.poolsConf); err != nil {
		return fmt.Errorf("keelson: pool setup: %w", err)
	}

	k.started = true
	log.Info().Int("pools", len(k.poolsConf)).Msg("keelson application started")
	return nil
}

// Pool returns the managed pool registered under name, or nil.
func (k *Keelson) Pool(name string) *pool.Pool {
	return k.Pools.GetPool(name)
}

// Stop gracefully shuts down the application: pools first so outstanding
// leases drain, then plugins, then the log is flushed.
func (k *Keelson) Stop() {
	log.Info().Msg("keelson application shutting down")
	if err := k.Pools.Shutdown(); err != nil {
		log.Error().Err(err).Msg("pool shutdown reported an error")
	}
	k.PluginManager.DestroyPlugins()
	log.Refresh()
}
