package pool

import "context"

// admissionGate is a counting semaphore bounding the total number of
// connections the pool may hand out. One permit corresponds to one
// checked-out connection; a permit is released exactly once per grant,
// on every exit path.
type admissionGate struct {
	permits chan struct{}
}

func newAdmissionGate(capacity int) *admissionGate {
	g := &admissionGate{permits: make(chan struct{}, capacity)}
	for i := 0; i < capacity; i++ {
		g.permits <- struct{}{}
	}
	return g
}

// acquire takes one permit, blocking until a permit is free or ctx is done.
// The fast path avoids a select when a permit is immediately available.
func (g *admissionGate) acquire(ctx context.Context) error {
	select {
	case <-g.permits:
		return nil
	default:
	}
	select {
	case <-g.permits:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release puts one permit back. The non-blocking send keeps a spurious
// double release from deadlocking; the channel capacity caps the total.
func (g *admissionGate) release() {
	select {
	case g.permits <- struct{}{}:
	default:
	}
}

// free reports the number of currently unclaimed permits.
func (g *admissionGate) free() int {
	return len(g.permits)
}
