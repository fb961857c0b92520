package pool

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Lease is the single-use handle for one checked-out connection. Exactly one
// of its Return call sites takes effect; later calls are no-ops. Headers are
// allocated fresh per checkout and never recycled: a stale duplicate Return
// must stay bound to its own checkout forever. A Lease must not be shared
// between goroutines.
type Lease struct {
	id       string
	itemID   string
	conn     Conn
	pool     *Pool
	consumed atomic.Bool
}

func newLease(p *Pool, it *poolItem) *Lease {
	return &Lease{
		id:     uuid.NewString(),
		itemID: it.id,
		conn:   it.conn,
		pool:   p,
	}
}

// ID returns the lease identifier, unique per checkout.
func (l *Lease) ID() string {
	return l.id
}

// ItemID returns the identifier of the leased connection. Connection ids are
// stable across checkouts and key the health monitor's statistics.
func (l *Lease) ItemID() string {
	return l.itemID
}

// Conn returns the leased connection. The caller owns it exclusively until
// Return.
func (l *Lease) Conn() Conn {
	return l.conn
}

// Return hands the connection back to the pool. Safe to call more than once;
// only the first call has any effect.
func (l *Lease) Return() error {
	if l == nil || !l.consumed.CompareAndSwap(false, true) {
		return nil
	}
	return l.pool.returnItem(l.id)
}
