package ports

import (
	"context"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
)

// SnapshotCache is the durable last-known-good store for order projections,
// the final tier of the stale-data fallback chain. When the backend and the
// in-memory snapshot are both unavailable, observers render from here rather
// than showing nothing.
type SnapshotCache interface {
	// Put stores or replaces the cached projection of an order, including its
	// sub-orders, atomically.
	Put(ctx context.Context, o *order.Order) error

	// Get returns the cached projection, or errs.ErrObjectNotFound.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// ListActive returns cached orders whose composite stage has not reached a
	// terminal state, for list and dashboard views.
	ListActive(ctx context.Context) ([]*order.Order, error)
}
