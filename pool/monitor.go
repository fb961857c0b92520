package pool

import (
	"sync"
	"time"
)

// ConnectionHealthStats aggregates per-connection observations. Purely
// informational; nothing in the pool branches on these numbers. Entries live
// as long as the monitor: destroying a connection marks its entry rather than
// removing it.
type ConnectionHealthStats struct {
	CreatedAt          time.Time
	DestroyedAt        time.Time // Zero while the connection is alive.
	LastAcquiredAt     time.Time
	AcquireCount       int64
	ValidationFailures int64
	Errors             int64
}

// HealthMonitor tracks health statistics for every live connection of one
// pool. All methods are nil-safe so an unmonitored pool pays nothing.
type HealthMonitor struct {
	mu    sync.Mutex
	stats map[string]*ConnectionHealthStats
}

func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{
		stats: make(map[string]*ConnectionHealthStats),
	}
}

func (m *HealthMonitor) recordCreate(itemID string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.stats[itemID] = &ConnectionHealthStats{CreatedAt: time.Now()}
	m.mu.Unlock()
}

func (m *HealthMonitor) recordAcquire(itemID string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if st, ok := m.stats[itemID]; ok {
		st.AcquireCount++
		st.LastAcquiredAt = time.Now()
	}
	m.mu.Unlock()
}

func (m *HealthMonitor) recordValidationFailure(itemID string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if st, ok := m.stats[itemID]; ok {
		st.ValidationFailures++
	}
	m.mu.Unlock()
}

// RecordError lets the connection's user report an operational error observed
// while holding a lease, keyed by the lease's item.
func (m *HealthMonitor) RecordError(itemID string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if st, ok := m.stats[itemID]; ok {
		st.Errors++
	}
	m.mu.Unlock()
}

func (m *HealthMonitor) recordDestroy(itemID string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if st, ok := m.stats[itemID]; ok {
		st.DestroyedAt = time.Now()
	}
	m.mu.Unlock()
}

// Snapshot returns a copy of the accumulated statistics keyed by item id,
// covering live and destroyed connections alike.
func (m *HealthMonitor) Snapshot() map[string]ConnectionHealthStats {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]ConnectionHealthStats, len(m.stats))
	for id, st := range m.stats {
		out[id] = *st
	}
	return out
}
