package pool

import (
	"sync"
	"time"
)

// Eviction and destruction reasons, attached to destroy metrics and events.
const (
	ReasonIdle       = "idle"
	ReasonLifetime   = "lifetime"
	ReasonInvalid    = "invalid"
	ReasonShutdown   = "shutdown"
	ReasonPoolClosed = "pool_closed"
)

// expiredItem pairs a swept item with the rule that condemned it.
type expiredItem struct {
	item   *poolItem
	reason string
}

// itemRegistry tracks every item the pool owns, split between an available
// FIFO queue and an active set keyed by lease id. The two sides are locked
// independently so returns never contend with dequeues.
type itemRegistry struct {
	availMu sync.Mutex
	avail   []*poolItem

	activeMu sync.Mutex
	active   map[string]*poolItem
}

func newItemRegistry() *itemRegistry {
	return &itemRegistry{
		active: make(map[string]*poolItem),
	}
}

// popAvailable dequeues the oldest available item, or nil when the queue is
// empty. Dequeueing is the single claim point: once an item is popped no
// other goroutine can observe it in the queue.
func (r *itemRegistry) popAvailable() *poolItem {
	r.availMu.Lock()
	defer r.availMu.Unlock()
	if len(r.avail) == 0 {
		return nil
	}
	it := r.avail[0]
	r.avail[0] = nil
	r.avail = r.avail[1:]
	return it
}

// pushAvailable enqueues an item at the tail of the available queue.
func (r *itemRegistry) pushAvailable(it *poolItem) {
	r.availMu.Lock()
	r.avail = append(r.avail, it)
	r.availMu.Unlock()
}

func (r *itemRegistry) availableCount() int {
	r.availMu.Lock()
	defer r.availMu.Unlock()
	return len(r.avail)
}

// takeExpired removes and returns up to budget available items that exceed
// the idle or lifetime limit, idle candidates first, each pass in queue
// order. Selection and removal happen under one lock hold so a candidate can
// never simultaneously be handed to a caller. A zero limit disables that rule.
func (r *itemRegistry) takeExpired(now time.Time, maxIdle, maxLife time.Duration, budget int) []expiredItem {
	if budget <= 0 {
		return nil
	}
	r.availMu.Lock()
	defer r.availMu.Unlock()

	var taken []expiredItem
	matches := func(it *poolItem) (string, bool) {
		if maxIdle > 0 && it.idleFor(now) > maxIdle {
			return ReasonIdle, true
		}
		return "", false
	}
	for pass := 0; pass < 2 && len(taken) < budget; pass++ {
		kept := r.avail[:0]
		for _, it := range r.avail {
			reason, expired := matches(it)
			if expired && len(taken) < budget {
				taken = append(taken, expiredItem{item: it, reason: reason})
				continue
			}
			kept = append(kept, it)
		}
		for i := len(kept); i < len(r.avail); i++ {
			r.avail[i] = nil
		}
		r.avail = kept
		matches = func(it *poolItem) (string, bool) {
			if maxLife > 0 && it.age(now) > maxLife {
				return ReasonLifetime, true
			}
			return "", false
		}
	}
	return taken
}

// registerActive records an item as checked out under the given lease id.
func (r *itemRegistry) registerActive(leaseID string, it *poolItem) {
	r.activeMu.Lock()
	r.active[leaseID] = it
	r.activeMu.Unlock()
}

// removeActive detaches and returns the item checked out under leaseID.
// Unknown ids return nil; the caller treats that as a stale return.
func (r *itemRegistry) removeActive(leaseID string) *poolItem {
	r.activeMu.Lock()
	defer r.activeMu.Unlock()
	it, ok := r.active[leaseID]
	if !ok {
		return nil
	}
	delete(r.active, leaseID)
	return it
}

func (r *itemRegistry) activeCount() int {
	r.activeMu.Lock()
	defer r.activeMu.Unlock()
	return len(r.active)
}

// drainAvailable empties the available queue and returns its items.
func (r *itemRegistry) drainAvailable() []*poolItem {
	r.availMu.Lock()
	defer r.availMu.Unlock()
	items := r.avail
	r.avail = nil
	return items
}

// drainActive empties the active set and returns its items. Only used during
// shutdown after the grace period has elapsed.
func (r *itemRegistry) drainActive() []*poolItem {
	r.activeMu.Lock()
	defer r.activeMu.Unlock()
	items := make([]*poolItem, 0, len(r.active))
	for _, it := range r.active {
		items = append(items, it)
	}
	r.active = make(map[string]*poolItem)
	return items
}
