package event

import "time"

// The keelson framework provides several default topics covering the resource
// pool lifecycle. Payloads are published as pool.ItemEvent / pool.PoolEvent.
const (
	// PoolItemCreated fires when a pool factory creates a new connection.
	PoolItemCreated = "PoolItemCreated"
	// PoolItemDestroyed fires when a pool destroys a connection (failed
	// validation, eviction, shutdown).
	PoolItemDestroyed = "PoolItemDestroyed"
	// PoolClosed fires once when a pool is shut down.
	PoolClosed = "PoolClosed"
	// ReloadConfig requests a process configuration reload.
	ReloadConfig = "ReloadConfig"
)

// Topic holds the subscription list for a single topic.
type Topic struct {
	timeout     time.Duration // Publish timeout.
	subscribers []Subscriber  // Subscription queue.
}

// Subscriber is a callback receiving published payloads.
type Subscriber func(param any)
