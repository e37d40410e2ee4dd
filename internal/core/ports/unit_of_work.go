package ports

import (
	"context"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
)

// SnapshotRepository is the row-level store behind the snapshot cache. It is
// meant to be used through a UnitOfWork so a parent and its sub-order rows
// are replaced atomically.
type SnapshotRepository interface {
	// Replace upserts the order's snapshot rows, removing stale sub-order
	// rows that no longer exist on the order.
	Replace(ctx context.Context, o *order.Order, syncedAt time.Time) error

	// Find rehydrates one cached order, or errs.ErrObjectNotFound.
	Find(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// FindActive rehydrates all cached top-level orders whose stage is not
	// terminal.
	FindActive(ctx context.Context) ([]*order.Order, error)
}

// AggregateTracker records aggregates touched during a unit of work, for
// post-commit processing.
type AggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// UnitOfWork scopes repository operations to one database transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// SnapshotRepository returns a repository bound to the active transaction,
	// or to the main connection when no transaction is open.
	SnapshotRepository() SnapshotRepository
}

// UnitOfWorkFactory produces isolated UnitOfWork instances, one per business
// operation.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
