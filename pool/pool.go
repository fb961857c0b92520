// Package pool implements a bounded, validated, time-evicting pool of opaque
// connection instances. Admission is gated by a counting semaphore sized to
// the pool maximum; items are reused oldest-first, verified by a pluggable
// connector, and evicted in the background once idle or lifetime limits pass.
package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harborgrid/keelson/event"
	"github.com/harborgrid/keelson/log"
	"github.com/harborgrid/keelson/metrics"
)

// Validation stages, attached to validation failure metrics.
const (
	StageAcquire     = "acquire"
	StageReturn      = "return"
	StageHealthCheck = "healthcheck"
)

// ItemEvent is the payload published on PoolItemCreated and PoolItemDestroyed.
type ItemEvent struct {
	Pool   string
	ItemID string
	Reason string // Destroy reason; empty on create.
}

// PoolEvent is the payload published on PoolClosed.
type PoolEvent struct {
	Pool string
}

// Stats is a point-in-time view of pool occupancy.
type Stats struct {
	MaxSize   int // Configured upper bound on concurrent connections.
	Available int // Items parked in the reuse queue.
	Active    int // Leases currently outstanding.
	Free      int // Unclaimed admission permits.
}

// Option customizes optional pool collaborators.
type Option func(*Pool)

// WithMonitor attaches a per-connection health monitor.
func WithMonitor(m *HealthMonitor) Option {
	return func(p *Pool) { p.monitor = m }
}

// WithEvents attaches an event publisher; the pool publishes item lifecycle
// and close events on it.
func WithEvents(pub *event.Publisher) Option {
	return func(p *Pool) { p.events = pub }
}

// Pool owns a bounded set of connections produced by its Connector and hands
// them out as single-use leases.
type Pool struct {
	name      string
	cfg       *Config
	connector Connector
	gate      *admissionGate
	registry  *itemRegistry
	monitor   *HealthMonitor
	events    *event.Publisher

	// size counts owned connections (available + active) as one atomic value,
	// maintained at create and destroy.
	size atomic.Int64

	closed atomic.Bool
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New validates cfg, builds the pool and starts its background sweeper and
// health check loops. The pool starts empty; connections are created lazily.
func New(name string, connector Connector, cfg *Config, opts ...Option) (*Pool, error) {
	if connector == nil {
		return nil, ErrConnectorMissing
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pool %s: %w", name, err)
	}

	p := &Pool{
		name:      name,
		cfg:       cfg,
		connector: connector,
		gate:      newAdmissionGate(cfg.MaxSize),
		registry:  newItemRegistry(),
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	if cfg.CleanupInterval() > 0 {
		p.wg.Add(1)
		go p.sweepLoop()
	}
	if cfg.HealthCheckInterval() > 0 {
		p.wg.Add(1)
		go p.healthLoop()
	}

	log.Info().Str("pool", name).
		Int("maxSize", cfg.MaxSize).Int("minSize", cfg.MinSize).
		Msg("pool started")
	return p, nil
}

// Name returns the pool's registered name.
func (p *Pool) Name() string {
	return p.name
}

// Monitor returns the attached health monitor, nil when unmonitored.
func (p *Pool) Monitor() *HealthMonitor {
	return p.monitor
}

// Stats returns current occupancy counters.
func (p *Pool) Stats() Stats {
	return Stats{
		MaxSize:   p.cfg.MaxSize,
		Available: p.registry.availableCount(),
		Active:    p.registry.activeCount(),
		Free:      p.gate.free(),
	}
}

// Acquire checks out one connection, reusing the oldest available item or
// creating a new one under the admission permit. It blocks until a permit is
// granted, the configured acquire timeout elapses (ErrPoolTimeout) or ctx is
// cancelled (ErrAcquireCancelled). A successful call must be balanced by
// exactly one Lease.Return.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}
	start := time.Now()

	actx, cancel := context.WithTimeout(ctx, p.cfg.AcquireTimeout())
	defer cancel()

	if err := p.gate.acquire(actx); err != nil {
		if ctx.Err() != nil {
			return nil, ErrAcquireCancelled
		}
		metrics.IncrCounterWithDimGroup(metrics.NamePoolAcquireTimeoutTotal,
			metrics.GroupKeelson, 1, metrics.Dimension{metrics.DimPool: p.name})
		return nil, ErrPoolTimeout
	}

	// Shutdown may have started while this caller was parked on the gate.
	if p.closed.Load() {
		p.gate.release()
		return nil, ErrPoolClosed
	}

	it, err := p.claimItem(actx)
	if err != nil {
		// claimItem has already released the permit.
		return nil, err
	}

	lease := newLease(p, it)
	p.registry.registerActive(lease.id, it)
	p.monitor.recordAcquire(it.id)

	metrics.IncrCounterWithDimGroup(metrics.NamePoolAcquireTotal,
		metrics.GroupKeelson, 1, metrics.Dimension{metrics.DimPool: p.name})
	metrics.RecordStopwatchWithDimGroup(metrics.NamePoolAcquireWaitMS,
		metrics.GroupKeelson, start, metrics.Dimension{metrics.DimPool: p.name})
	p.reportGauges()
	return lease, nil
}

// claimItem produces one usable item for the caller, holding the admission
// permit the caller already owns. Stale available items are destroyed and
// replaced transparently; the permit carries over to the replacement. On
// error the permit has been released.
func (p *Pool) claimItem(ctx context.Context) (*poolItem, error) {
	for {
		it := p.registry.popAvailable()
		if it == nil {
			return p.createItem(ctx)
		}
		if p.cfg.ValidateOnAcquire && !p.safeValidate(ctx, it, StageAcquire) {
			p.destroyItem(it, ReasonInvalid)
			continue
		}
		it.lastUsedAt = time.Now()
		return it, nil
	}
}

// createItem invokes the connector factory. A factory error releases the
// caller's admission permit before wrapping into ErrCreationFailed, so a
// failed creation never leaks capacity.
func (p *Pool) createItem(ctx context.Context) (*poolItem, error) {
	conn, err := p.connector.Create(ctx)
	if err != nil {
		p.gate.release()
		log.Error().Str("pool", p.name).Err(err).Msg("connection creation failed")
		return nil, fmt.Errorf("%w: %v", ErrCreationFailed, err)
	}

	it := newPoolItem(conn)
	p.size.Add(1)
	p.monitor.recordCreate(it.id)
	metrics.IncrCounterWithDimGroup(metrics.NamePoolItemCreateTotal,
		metrics.GroupKeelson, 1, metrics.Dimension{metrics.DimPool: p.name})
	p.publish(event.PoolItemCreated, ItemEvent{Pool: p.name, ItemID: it.id})
	log.Debug().Str("pool", p.name).Str("item", it.id).Msg("connection created")
	return it, nil
}

// returnItem is the single return path, reached through Lease.Return. The
// admission permit is released exactly once, as the final step.
func (p *Pool) returnItem(leaseID string) error {
	it := p.registry.removeActive(leaseID)
	if it == nil {
		// Stale or duplicate return; nothing was checked out under this id.
		return nil
	}
	defer func() {
		p.gate.release()
		p.reportGauges()
	}()

	it.lastUsedAt = time.Now()

	if p.closed.Load() {
		p.destroyItem(it, ReasonPoolClosed)
		return ErrPoolClosed
	}
	if p.cfg.ValidateOnReturn && !p.safeValidate(context.Background(), it, StageReturn) {
		p.destroyItem(it, ReasonInvalid)
		return nil
	}
	p.registry.pushAvailable(it)
	return nil
}

// safeValidate runs the connector's health verifier. Panics count as a
// failed validation and never escape to pool callers.
func (p *Pool) safeValidate(ctx context.Context, it *poolItem, stage string) bool {
	ok := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("pool", p.name).Str("item", it.id).
					Str("stage", stage).Str("panic", fmt.Sprint(r)).
					Msg("validator panicked")
				ok = false
			}
		}()
		return p.connector.Validate(ctx, it.conn)
	}()
	if !ok {
		p.monitor.recordValidationFailure(it.id)
		metrics.IncrCounterWithDimGroup(metrics.NamePoolValidationFailTotal,
			metrics.GroupKeelson, 1, metrics.Dimension{
				metrics.DimPool:  p.name,
				metrics.DimStage: stage,
			})
	}
	return ok
}

// destroyItem disposes the connection and retires the item. Disposer panics
// are swallowed so cleanup can never break the acquire or return path.
func (p *Pool) destroyItem(it *poolItem, reason string) {
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("pool", p.name).Str("item", it.id).
					Str("panic", fmt.Sprint(r)).Msg("disposer panicked")
			}
		}()
		p.connector.Dispose(it.conn)
	}()

	p.size.Add(-1)
	p.monitor.recordDestroy(it.id)
	metrics.IncrCounterWithDimGroup(metrics.NamePoolItemDestroyTotal,
		metrics.GroupKeelson, 1, metrics.Dimension{
			metrics.DimPool:   p.name,
			metrics.DimReason: reason,
		})
	p.publish(event.PoolItemDestroyed, ItemEvent{Pool: p.name, ItemID: it.id, Reason: reason})
	log.Debug().Str("pool", p.name).Str("item", it.id).
		Str("reason", reason).Msg("connection destroyed")
	it.retire()
}

// sweepLoop periodically evicts available items past their idle or lifetime
// limit, never shrinking below MinSize.
func (p *Pool) sweepLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.CleanupInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.sweep(time.Now())
		case <-p.stopCh:
			return
		}
	}
}

func (p *Pool) sweep(now time.Time) {
	// One atomic size snapshot; a destroy racing the sweep can still shave
	// at most its own count off the floor for one cycle.
	budget := int(p.size.Load()) - p.cfg.MinSize
	expired := p.registry.takeExpired(now, p.cfg.MaxIdleTime(), p.cfg.MaxLifetime(), budget)
	for _, ex := range expired {
		p.destroyItem(ex.item, ex.reason)
	}
	if len(expired) > 0 {
		p.reportGauges()
	}
}

// healthLoop periodically re-verifies parked connections so dead links are
// culled even when no caller touches them.
func (p *Pool) healthLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.HealthCheckInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.runHealthCheck()
		case <-p.stopCh:
			return
		}
	}
}

// runHealthCheck cycles once through the available queue. Items are claimed
// through the same dequeue primitive callers use, so a connection is never
// inspected while leased.
func (p *Pool) runHealthCheck() {
	n := p.registry.availableCount()
	for i := 0; i < n; i++ {
		it := p.registry.popAvailable()
		if it == nil {
			return
		}
		if p.safeValidate(context.Background(), it, StageHealthCheck) {
			p.registry.pushAvailable(it)
		} else {
			p.destroyItem(it, ReasonInvalid)
			p.reportGauges()
		}
	}
}

// Shutdown closes the pool: new acquires fail with ErrPoolClosed, background
// loops stop, parked connections are destroyed immediately and outstanding
// leases get the configured grace period to come home before their
// connections are force-destroyed. Idempotent.
func (p *Pool) Shutdown() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(p.stopCh)
	p.wg.Wait()

	for _, it := range p.registry.drainAvailable() {
		p.destroyItem(it, ReasonShutdown)
	}

	deadline := time.Now().Add(p.cfg.ShutdownGrace())
	for p.registry.activeCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	// Force-destroy whatever is still out. Each released permit wakes one
	// caller parked on the gate, who then observes the closed flag.
	leaked := p.registry.drainActive()
	for _, it := range leaked {
		p.destroyItem(it, ReasonShutdown)
		p.gate.release()
	}
	if len(leaked) > 0 {
		log.Warn().Str("pool", p.name).Int("count", len(leaked)).
			Msg("leases not returned before shutdown grace elapsed")
	}

	p.publish(event.PoolClosed, PoolEvent{Pool: p.name})
	p.reportGauges()
	log.Info().Str("pool", p.name).Msg("pool shut down")
	return nil
}

func (p *Pool) publish(topic string, payload any) {
	if p.events == nil {
		return
	}
	if err := p.events.Publish(topic, payload); err != nil {
		log.Debug().Str("pool", p.name).Str("topic", topic).Err(err).
			Msg("event publish skipped")
	}
}

func (p *Pool) reportGauges() {
	dims := metrics.Dimension{metrics.DimPool: p.name}
	st := p.Stats()
	metrics.UpdateGaugeWithDimGroup(metrics.NamePoolSizeCurrent,
		metrics.GroupKeelson, metrics.Value(st.Available+st.Active), dims)
	metrics.UpdateGaugeWithDimGroup(metrics.NamePoolActiveCurrent,
		metrics.GroupKeelson, metrics.Value(st.Active), dims)
}
