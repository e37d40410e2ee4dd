package snapshotcache

import (
	"context"
	"errors"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/ports"
)

var ErrCacheParamsAreInvalid = errors.New(
	"unit of work factory is required for snapshotcache.Cache",
)

// Cache implements ports.SnapshotCache on postgres. Writes go through a unit
// of work so a parent and its sub-order rows are replaced in one transaction;
// reads run on the main connection.
type Cache struct {
	factory ports.UnitOfWorkFactory
	now     func() time.Time
}

// NewCache creates a cache over the given unit of work factory.
func NewCache(factory ports.UnitOfWorkFactory) (*Cache, error) {
	if factory == nil {
		return nil, ErrCacheParamsAreInvalid
	}
	return &Cache{factory: factory, now: time.Now}, nil
}

// Put stores or replaces the order's snapshot atomically.
func (c *Cache) Put(ctx context.Context, o *order.Order) error {
	uow := c.factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	if err := uow.SnapshotRepository().Replace(ctx, o, c.now()); err != nil {
		_ = uow.Rollback(ctx)
		return err
	}

	return uow.Commit(ctx)
}

// Get returns the cached order, or errs.ErrObjectNotFound.
func (c *Cache) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return c.factory.Create().SnapshotRepository().Find(ctx, id)
}

// ListActive returns all cached orders that have not reached a terminal
// stage.
func (c *Cache) ListActive(ctx context.Context) ([]*order.Order, error) {
	return c.factory.Create().SnapshotRepository().FindActive(ctx)
}
