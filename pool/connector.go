package pool

import "context"

// Conn is an opaque, exclusively-owned connection instance. The pool has no
// awareness of what a connection represents; field-bus sessions, broker links
// and database handles are all managed the same way.
type Conn = any

// Connector is the capability set the pool consumes from its embedding
// system. It is injected at construction and never subclassed: the pool stays
// reusable across unrelated connection kinds via composition.
type Connector interface {
	// Create opens a new connection. It may block on I/O and must honor ctx.
	Create(ctx context.Context) (Conn, error)

	// Validate reports whether the connection is still usable. A panic is
	// treated as a validation failure, never propagated to pool callers.
	Validate(ctx context.Context, conn Conn) bool

	// Dispose releases the connection, best-effort. Errors and panics are
	// swallowed and logged; cleanup never throws past the pool boundary.
	Dispose(conn Conn)
}

// ConnectorFuncs adapts three plain functions into a Connector. Nil ValidateFn
// treats every connection as usable; nil DisposeFn is a no-op.
type ConnectorFuncs struct {
	CreateFn   func(ctx context.Context) (Conn, error)
	ValidateFn func(ctx context.Context, conn Conn) bool
	DisposeFn  func(conn Conn)
}

// Create implements Connector.
func (f ConnectorFuncs) Create(ctx context.Context) (Conn, error) {
	return f.CreateFn(ctx)
}

// Validate implements Connector.
func (f ConnectorFuncs) Validate(ctx context.Context, conn Conn) bool {
	if f.ValidateFn == nil {
		return true
	}
	return f.ValidateFn(ctx, conn)
}

// Dispose implements Connector.
func (f ConnectorFuncs) Dispose(conn Conn) {
	if f.DisposeFn == nil {
		return
	}
	f.DisposeFn(conn)
}
