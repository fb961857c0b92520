package pool

import "errors"

var (
	// ErrPoolTimeout is returned when admission is not granted before the
	// acquire deadline. The call has no side effects.
	ErrPoolTimeout = errors.New("pool: acquire timed out waiting for admission")

	// ErrPoolClosed is returned for operations attempted after Shutdown.
	ErrPoolClosed = errors.New("pool: closed")

	// ErrCreationFailed wraps a connector Create error. The admission permit
	// held for the failed creation is always released before this propagates.
	ErrCreationFailed = errors.New("pool: connection creation failed")

	// ErrAcquireCancelled is returned when the caller's context is cancelled
	// while waiting at a suspend point.
	ErrAcquireCancelled = errors.New("pool: acquire cancelled")

	// ErrConnectorMissing is returned when a pool is constructed without a
	// connector capability set.
	ErrConnectorMissing = errors.New("pool: connector is required")
)
