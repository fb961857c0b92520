package pool

import (
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/harborgrid/keelson/event"
	"github.com/harborgrid/keelson/log"
)

// poolConf is one entry of the `[pools]` configuration section: a connector
// reference plus the pool tuning knobs, flattened into the same table.
type poolConf struct {
	Connector string `mapstructure:"connector"`
	Config    `mapstructure:",squash"`
}

// Manager owns every pool of the process, keyed by name. Connectors are
// registered first; Setup then builds one pool per configuration entry.
type Manager struct {
	mu         sync.RWMutex
	connectors map[string]Connector
	pools      map[string]*Pool
	events     *event.Publisher
}

// NewManager creates an empty pool manager. events may be nil when lifecycle
// events are not needed.
func NewManager(events *event.Publisher) *Manager {
	return &Manager{
		connectors: make(map[string]Connector),
		pools:      make(map[string]*Pool),
		events:     events,
	}
}

// RegisterConnector makes a connector available to Setup under the given
// name. Registering the same name twice is an error.
func (m *Manager) RegisterConnector(name string, c Connector) error {
	if c == nil {
		return ErrConnectorMissing
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.connectors[name]; exists {
		return fmt.Errorf("pool: connector %q already registered", name)
	}
	m.connectors[name] = c
	return nil
}

// Setup builds one monitored pool per entry of the `[pools]` configuration
// section. Each entry names a registered connector and may override any
// Config field; omitted fields keep their defaults.
func (m *Manager) Setup(poolsConf map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, raw := range poolsConf {
		if _, exists := m.pools[name]; exists {
			return fmt.Errorf("pool: pool %q already configured", name)
		}

		pc := poolConf{Config: *DefaultConfig()}
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &pc,
		})
		if err != nil {
			return fmt.Errorf("pool: config decoder for %q: %w", name, err)
		}
		if err := decoder.Decode(raw); err != nil {
			return fmt.Errorf("pool: decode config for %q: %w", name, err)
		}

		connector, ok := m.connectors[pc.Connector]
		if !ok {
			return fmt.Errorf("pool: pool %q references unknown connector %q", name, pc.Connector)
		}

		cfg := pc.Config
		p, err := New(name, connector, &cfg,
			WithMonitor(NewHealthMonitor()),
			WithEvents(m.events))
		if err != nil {
			return err
		}
		m.pools[name] = p
	}
	return nil
}

// AddPool registers an externally constructed pool under its name.
func (m *Manager) AddPool(p *Pool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.pools[p.Name()]; exists {
		return fmt.Errorf("pool: pool %q already configured", p.Name())
	}
	m.pools[p.Name()] = p
	return nil
}

// GetPool returns the pool registered under name, or nil.
func (m *Manager) GetPool(name string) *Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pools[name]
}

// Shutdown closes every managed pool. The first error is returned but the
// remaining pools still get shut down.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	pools := make([]*Pool, 0, len(m.pools))
	for _, p := range m.pools {
		pools = append(pools, p)
	}
	m.pools = make(map[string]*Pool)
	m.mu.Unlock()

	var firstErr error
	for _, p := range pools {
		if err := p.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	log.Info().Int("pools", len(pools)).Msg("pool manager shut down")
	return firstErr
}
