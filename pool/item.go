package pool

import (
	"time"

	"github.com/google/uuid"

	objpool "github.com/harborgrid/keelson/utils/pool"
)

// _itemPool recycles item headers across create/destroy cycles. Items are
// internal to the pool, so a retired header can never be reached through a
// stale external reference.
var _itemPool = objpool.NewPool("poolItem", func() any {
	return &poolItem{}
})

// poolItem wraps one owned connection instance together with its timestamps.
// At any instant an item is in exactly one of the available queue or the
// active set; the pool is the sole owner of the connection until the item is
// destroyed.
type poolItem struct {
	id         string
	conn       Conn
	createdAt  time.Time
	lastUsedAt time.Time
}

func newPoolItem(conn Conn) *poolItem {
	it := _itemPool.Get().(*poolItem)
	now := time.Now()
	it.id = uuid.NewString()
	it.conn = conn
	it.createdAt = now
	it.lastUsedAt = now
	return it
}

// retire clears the header and hands it back for reuse. The item must
// already be detached from the registry.
func (it *poolItem) retire() {
	it.conn = nil
	_itemPool.Put(it)
}

// idleFor reports how long the item has been unused.
func (it *poolItem) idleFor(now time.Time) time.Duration {
	return now.Sub(it.lastUsedAt)
}

// age reports how long ago the item was created.
func (it *poolItem) age(now time.Time) time.Duration {
	return now.Sub(it.createdAt)
}
