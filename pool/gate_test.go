package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGateGrantsUpToCapacity(t *testing.T) {
	g := newAdmissionGate(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, g.acquire(ctx))
	}
	require.Equal(t, 0, g.free())

	ctx2, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	require.Error(t, g.acquire(ctx2))

	g.release()
	require.NoError(t, g.acquire(ctx))
}

func TestGateReleaseWakesWaiter(t *testing.T) {
	g := newAdmissionGate(1)
	require.NoError(t, g.acquire(context.Background()))

	woken := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		woken <- g.acquire(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	g.release()
	require.NoError(t, <-woken)
}

func TestGateExtraReleaseIsCapped(t *testing.T) {
	g := newAdmissionGate(2)
	g.release()
	g.release()
	require.Equal(t, 2, g.free())
}
