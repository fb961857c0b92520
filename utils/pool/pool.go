// Package pool provides a wrapper around sync.Pool with added metrics.
package pool

import (
	"sync"

	"github.com/harborgrid/keelson/metrics"
)

// Pool is a wrapper around sync.Pool that counts object creations, so pool
// misses show up on the metrics dashboard.
type Pool struct {
	Name string     // Name is the name of the pool, used as a metric dimension.
	Pool *sync.Pool // Pool is the underlying sync.Pool instance.
}

// NewPool creates a new instrumented pool. The name is used for metrics
// reporting; newFunc is called to create an item when the pool is empty.
func NewPool(name string, newFunc func() any) *Pool {
	p := &Pool{
		Name: name,
	}

	p.Pool = &sync.Pool{
		New: func() any {
			// Count every creation caused by an empty pool.
			metrics.IncrCounterWithDimGroup(metrics.NameObjPoolCreateTotal, metrics.GroupKeelson, 1, metrics.Dimension{
				metrics.DimPoolName: name,
			})
			return newFunc()
		},
	}
	return p
}

// Put adds x back to the pool for reuse.
func (p *Pool) Put(x any) {
	p.Pool.Put(x)
}

// Get retrieves an item from the pool, creating one when empty.
func (p *Pool) Get() any {
	return p.Pool.Get()
}
