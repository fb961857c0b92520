package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeConn is what the test connector hands out.
type fakeConn struct {
	seq      int
	healthy  atomic.Bool
	disposed atomic.Bool
}

// testConnector builds fakeConns and records lifecycle calls.
type testConnector struct {
	mu        sync.Mutex
	created   []*fakeConn
	createErr error

	validatePanics bool
	disposePanics  bool
}

func (c *testConnector) Create(ctx context.Context) (Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return nil, c.createErr
	}
	fc := &fakeConn{seq: len(c.created)}
	fc.healthy.Store(true)
	c.created = append(c.created, fc)
	return fc, nil
}

func (c *testConnector) Validate(ctx context.Context, conn Conn) bool {
	if c.validatePanics {
		panic("validator blew up")
	}
	return conn.(*fakeConn).healthy.Load()
}

func (c *testConnector) Dispose(conn Conn) {
	if c.disposePanics {
		panic("disposer blew up")
	}
	conn.(*fakeConn).disposed.Store(true)
}

func (c *testConnector) createdCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.created)
}

// quietConfig disables the background loops so tests drive the pool directly.
func quietConfig(maxSize int) *Config {
	cfg := DefaultConfig()
	cfg.MaxSize = maxSize
	cfg.HealthCheckIntervalMS = 0
	cfg.CleanupIntervalMS = 0
	cfg.AcquireTimeoutMS = 1000
	return cfg
}

func newTestPool(t *testing.T, conn *testConnector, cfg *Config) *Pool {
	t.Helper()
	p, err := New("test", conn, cfg, WithMonitor(NewHealthMonitor()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown() })
	return p
}

func TestAcquireCreatesLazily(t *testing.T) {
	conn := &testConnector{}
	p := newTestPool(t, conn, quietConfig(4))

	require.Equal(t, 0, conn.createdCount())
	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, l.Conn())
	require.Equal(t, 1, conn.createdCount())
	require.NoError(t, l.Return())
}

func TestReturnedConnIsReused(t *testing.T) {
	conn := &testConnector{}
	p := newTestPool(t, conn, quietConfig(4))

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	first := l1.Conn()
	require.NoError(t, l1.Return())

	l2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Same(t, first, l2.Conn())
	require.Equal(t, 1, conn.createdCount())
	require.NoError(t, l2.Return())
}

func TestAvailableQueueIsFIFO(t *testing.T) {
	conn := &testConnector{}
	p := newTestPool(t, conn, quietConfig(4))

	la, err := p.Acquire(context.Background())
	require.NoError(t, err)
	lb, err := p.Acquire(context.Background())
	require.NoError(t, err)
	a, b := la.Conn(), lb.Conn()
	require.NoError(t, la.Return())
	require.NoError(t, lb.Return())

	// Oldest returned first out.
	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	l2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Same(t, a, l1.Conn())
	require.Same(t, b, l2.Conn())
	require.NoError(t, l1.Return())
	require.NoError(t, l2.Return())
}

func TestAcquireTimesOutAtCapacity(t *testing.T) {
	conn := &testConnector{}
	cfg := quietConfig(2)
	cfg.AcquireTimeoutMS = 50
	p := newTestPool(t, conn, cfg)

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	l2, err := p.Acquire(context.Background())
	require.NoError(t, err)

	start := time.Now()
	_, err = p.Acquire(context.Background())
	require.ErrorIs(t, err, ErrPoolTimeout)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	// A return frees capacity for the next caller.
	require.NoError(t, l1.Return())
	l3, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, l3.Return())
	require.NoError(t, l2.Return())
}

func TestAcquireUnblocksOnReturn(t *testing.T) {
	conn := &testConnector{}
	cfg := quietConfig(1)
	cfg.AcquireTimeoutMS = 2000
	p := newTestPool(t, conn, cfg)

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)

	done := make(chan *Lease, 1)
	go func() {
		l, err := p.Acquire(context.Background())
		if err == nil {
			done <- l
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, l1.Return())

	select {
	case l := <-done:
		require.NotNil(t, l)
		require.NoError(t, l.Return())
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by the return")
	}
}

func TestAcquireCancelled(t *testing.T) {
	conn := &testConnector{}
	p := newTestPool(t, conn, quietConfig(1))

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer l1.Return()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err = p.Acquire(ctx)
	require.ErrorIs(t, err, ErrAcquireCancelled)
}

func TestCreationFailureReleasesPermit(t *testing.T) {
	conn := &testConnector{createErr: errors.New("dial refused")}
	p := newTestPool(t, conn, quietConfig(1))

	_, err := p.Acquire(context.Background())
	require.ErrorIs(t, err, ErrCreationFailed)
	require.Contains(t, err.Error(), "dial refused")

	// The failed creation must not have leaked the single permit.
	conn.mu.Lock()
	conn.createErr = nil
	conn.mu.Unlock()
	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, l.Return())
}

func TestValidateOnAcquireReplacesStale(t *testing.T) {
	conn := &testConnector{}
	p := newTestPool(t, conn, quietConfig(4))

	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	stale := l.Conn().(*fakeConn)
	require.NoError(t, l.Return())
	stale.healthy.Store(false)

	l2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	fresh := l2.Conn().(*fakeConn)
	require.NotSame(t, stale, fresh)
	require.True(t, stale.disposed.Load())
	require.NoError(t, l2.Return())
}

func TestValidateOnReturnDestroys(t *testing.T) {
	conn := &testConnector{}
	cfg := quietConfig(4)
	cfg.ValidateOnReturn = true
	p := newTestPool(t, conn, cfg)

	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	fc := l.Conn().(*fakeConn)
	fc.healthy.Store(false)
	require.NoError(t, l.Return())

	require.True(t, fc.disposed.Load())
	require.Equal(t, 0, p.Stats().Available)
}

func TestValidatorPanicCountsAsFailure(t *testing.T) {
	conn := &testConnector{}
	p := newTestPool(t, conn, quietConfig(4))

	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	stale := l.Conn().(*fakeConn)
	require.NoError(t, l.Return())

	conn.validatePanics = true
	defer func() { conn.validatePanics = false }()

	// The panic must not escape; the item is treated as unusable and replaced.
	l2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NotSame(t, stale, l2.Conn())
	require.NoError(t, l2.Return())
}

func TestDisposerPanicIsSwallowed(t *testing.T) {
	conn := &testConnector{disposePanics: true}
	cfg := quietConfig(4)
	cfg.ValidateOnReturn = true
	p := newTestPool(t, conn, cfg)

	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	l.Conn().(*fakeConn).healthy.Store(false)
	require.NotPanics(t, func() {
		require.NoError(t, l.Return())
	})

	// Capacity survives the failed disposal.
	l2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, l2.Return())
}

func TestDoubleReturnIsNoop(t *testing.T) {
	conn := &testConnector{}
	p := newTestPool(t, conn, quietConfig(2))

	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, l.Return())
	require.NoError(t, l.Return())
	require.Equal(t, 1, p.Stats().Available)
	require.Equal(t, 2, p.Stats().Free)
}

func TestAcquireAfterShutdown(t *testing.T) {
	conn := &testConnector{}
	p, err := New("closing", conn, quietConfig(2))
	require.NoError(t, err)
	require.NoError(t, p.Shutdown())

	_, err = p.Acquire(context.Background())
	require.ErrorIs(t, err, ErrPoolClosed)
	// Idempotent.
	require.NoError(t, p.Shutdown())
}

func TestReturnAfterShutdownDestroys(t *testing.T) {
	conn := &testConnector{}
	cfg := quietConfig(2)
	cfg.ShutdownGraceMS = 30
	p, err := New("closing", conn, cfg)
	require.NoError(t, err)

	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	fc := l.Conn().(*fakeConn)

	require.NoError(t, p.Shutdown())
	// The grace period elapsed, so shutdown force-destroyed the connection
	// and the late return finds nothing checked out under its id.
	require.True(t, fc.disposed.Load())
	require.NoError(t, l.Return())
}

func TestShutdownWaitsForReturns(t *testing.T) {
	conn := &testConnector{}
	cfg := quietConfig(2)
	cfg.ShutdownGraceMS = 2000
	p, err := New("graceful", conn, cfg)
	require.NoError(t, err)

	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	fc := l.Conn().(*fakeConn)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = l.Return()
	}()

	start := time.Now()
	require.NoError(t, p.Shutdown())
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	require.Less(t, time.Since(start), time.Second)
	require.True(t, fc.disposed.Load())
}

func TestSweepEvictsIdleAboveMinSize(t *testing.T) {
	conn := &testConnector{}
	cfg := quietConfig(4)
	cfg.MinSize = 1
	cfg.MaxIdleTimeMS = 100
	p := newTestPool(t, conn, cfg)

	leases := make([]*Lease, 3)
	var err error
	for i := range leases {
		leases[i], err = p.Acquire(context.Background())
		require.NoError(t, err)
	}
	for _, l := range leases {
		require.NoError(t, l.Return())
	}
	require.Equal(t, 3, p.Stats().Available)

	// Sweeping "now" finds nothing idle long enough.
	p.sweep(time.Now())
	require.Equal(t, 3, p.Stats().Available)

	// Sweeping from the future expires all three, but the floor keeps one.
	p.sweep(time.Now().Add(time.Second))
	require.Equal(t, 1, p.Stats().Available)
}

func TestSweepLifetimeIgnoresFloorlessIdle(t *testing.T) {
	conn := &testConnector{}
	cfg := quietConfig(4)
	cfg.MaxIdleTimeMS = 0
	cfg.MaxLifetimeMS = 100
	p := newTestPool(t, conn, cfg)

	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, l.Return())

	p.sweep(time.Now())
	require.Equal(t, 1, p.Stats().Available)
	p.sweep(time.Now().Add(time.Second))
	require.Equal(t, 0, p.Stats().Available)
}

func TestHealthCheckCullsDeadConns(t *testing.T) {
	conn := &testConnector{}
	p := newTestPool(t, conn, quietConfig(4))

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	l2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	dead := l1.Conn().(*fakeConn)
	require.NoError(t, l1.Return())
	require.NoError(t, l2.Return())

	dead.healthy.Store(false)
	p.runHealthCheck()

	require.Equal(t, 1, p.Stats().Available)
	require.True(t, dead.disposed.Load())
}

func TestMonitorTracksConnections(t *testing.T) {
	conn := &testConnector{}
	p := newTestPool(t, conn, quietConfig(2))

	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	id := l.ItemID()
	p.Monitor().RecordError(id)
	require.NoError(t, l.Return())

	snap := p.Monitor().Snapshot()
	require.Len(t, snap, 1)
	st := snap[id]
	require.EqualValues(t, 1, st.AcquireCount)
	require.EqualValues(t, 1, st.Errors)
	require.False(t, st.CreatedAt.IsZero())
	require.True(t, st.DestroyedAt.IsZero())
}

func TestMonitorRetainsStatsAfterDestroy(t *testing.T) {
	conn := &testConnector{}
	cfg := quietConfig(4)
	cfg.ValidateOnReturn = true
	p := newTestPool(t, conn, cfg)

	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	id := l.ItemID()
	l.Conn().(*fakeConn).healthy.Store(false)
	require.NoError(t, l.Return())

	// The destroyed connection keeps its accumulated statistics; the entry is
	// marked, not removed.
	snap := p.Monitor().Snapshot()
	require.Contains(t, snap, id)
	st := snap[id]
	require.EqualValues(t, 1, st.AcquireCount)
	require.EqualValues(t, 1, st.ValidationFailures)
	require.False(t, st.DestroyedAt.IsZero())
}

func TestLeaseIDUniquePerCheckout(t *testing.T) {
	conn := &testConnector{}
	p := newTestPool(t, conn, quietConfig(2))

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	id1, item1 := l1.ID(), l1.ItemID()
	require.NoError(t, l1.Return())

	l2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer l2.Return()
	require.Same(t, l1.Conn(), l2.Conn())
	require.Equal(t, item1, l2.ItemID())
	require.NotEqual(t, id1, l2.ID())
}

func TestStaleReturnLeavesActiveLeaseAlone(t *testing.T) {
	conn := &testConnector{}
	p := newTestPool(t, conn, quietConfig(2))

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, l1.Return())

	// l2 reuses l1's connection.
	l2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Same(t, l1.Conn(), l2.Conn())

	// A caller-error duplicate return of the consumed lease must not touch
	// l2's checkout: no permit release, no parking of l2's connection.
	require.NoError(t, l1.Return())
	st := p.Stats()
	require.Equal(t, 1, st.Active)
	require.Equal(t, 0, st.Available)
	require.Equal(t, 1, st.Free)

	// The next acquire gets a fresh connection, never l2's.
	l3, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NotSame(t, l2.Conn(), l3.Conn())
	require.Equal(t, 2, conn.createdCount())
	require.NoError(t, l3.Return())
	require.NoError(t, l2.Return())
}

func TestStatsReportsMaxSize(t *testing.T) {
	conn := &testConnector{}
	p := newTestPool(t, conn, quietConfig(3))

	require.Equal(t, 3, p.Stats().MaxSize)
	l, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, p.Stats().MaxSize)
	require.NoError(t, l.Return())
}

func TestSizeCounterTracksOwnership(t *testing.T) {
	conn := &testConnector{}
	cfg := quietConfig(4)
	cfg.MaxIdleTimeMS = 100
	p := newTestPool(t, conn, cfg)

	l1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	l2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, p.size.Load())

	require.NoError(t, l1.Return())
	require.NoError(t, l2.Return())
	require.EqualValues(t, 2, p.size.Load())

	dead := l1.Conn().(*fakeConn)
	dead.healthy.Store(false)
	p.runHealthCheck()
	require.EqualValues(t, 1, p.size.Load())

	p.sweep(time.Now().Add(time.Second))
	require.EqualValues(t, 0, p.size.Load())
	st := p.Stats()
	require.EqualValues(t, int64(st.Available+st.Active), p.size.Load())
}

func TestConcurrentAcquireReturn(t *testing.T) {
	conn := &testConnector{}
	cfg := quietConfig(4)
	cfg.AcquireTimeoutMS = 5000
	p := newTestPool(t, conn, cfg)

	var wg sync.WaitGroup
	var success atomic.Int64
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l, err := p.Acquire(context.Background())
				if err != nil {
					continue
				}
				success.Add(1)
				if l.Return() != nil {
					return
				}
			}
		}()
	}
	wg.Wait()

	st := p.Stats()
	require.Equal(t, 0, st.Active)
	require.LessOrEqual(t, st.Available, 4)
	require.Equal(t, 4, st.Free)
	require.LessOrEqual(t, conn.createdCount(), 4)
	require.Positive(t, success.Load())
}

func TestNewRejectsBadConfig(t *testing.T) {
	conn := &testConnector{}
	cases := []func(*Config){
		func(c *Config) { c.MaxSize = 0 },
		func(c *Config) { c.MinSize = -1 },
		func(c *Config) { c.MinSize = c.MaxSize + 1 },
		func(c *Config) { c.AcquireTimeoutMS = 0 },
		func(c *Config) { c.MaxIdleTimeMS = -1 },
	}
	for i, mutate := range cases {
		cfg := quietConfig(2)
		mutate(cfg)
		_, err := New(fmt.Sprintf("bad%d", i), conn, cfg)
		require.Error(t, err, "case %d", i)
	}

	_, err := New("noconn", nil, quietConfig(2))
	require.ErrorIs(t, err, ErrConnectorMissing)
}
