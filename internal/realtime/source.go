package realtime

import (
	"context"
	"sync"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/pkg/errs"
)

// SnapshotSource resolves the current record of an order. Sources are stacked
// into a Chain so a failing tier falls through to a staler one instead of
// failing the read.
type SnapshotSource interface {
	Resolve(ctx context.Context, id kernel.UUID) (*order.Order, error)
}

// RepositorySource is the live tier: it resolves straight from the backend
// repository.
type RepositorySource struct {
	repository ports.OrderRepository
}

func NewRepositorySource(repository ports.OrderRepository) *RepositorySource {
	return &RepositorySource{repository: repository}
}

func (s *RepositorySource) Resolve(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return s.repository.GetOrder(ctx, id)
}

// MemorySource is the middle tier: the last record each tracker successfully
// fetched, held in memory. Safe for concurrent use.
type MemorySource struct {
	mu   sync.RWMutex
	last map[kernel.UUID]*order.Order
}

func NewMemorySource() *MemorySource {
	return &MemorySource{last: make(map[kernel.UUID]*order.Order)}
}

// Remember stores the record as the last known good for its id.
func (s *MemorySource) Remember(o *order.Order) {
	if o == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[o.ID()] = o
}

func (s *MemorySource) Resolve(_ context.Context, id kernel.UUID) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.last[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("orderID", id)
	}
	return o, nil
}

// CacheSource is the durable tier backed by the snapshot cache.
type CacheSource struct {
	cache ports.SnapshotCache
}

func NewCacheSource(cache ports.SnapshotCache) *CacheSource {
	return &CacheSource{cache: cache}
}

func (s *CacheSource) Resolve(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return s.cache.Get(ctx, id)
}

// Chain tries each source in order and returns the first successful
// resolution. When every tier fails, the first (most authoritative) error is
// returned.
type Chain struct {
	sources []SnapshotSource
}

func NewChain(sources ...SnapshotSource) *Chain {
	return &Chain{sources: sources}
}

func (c *Chain) Resolve(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	var firstErr error
	for _, source := range c.sources {
		o, err := source.Resolve(ctx, id)
		if err == nil {
			return o, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr == nil {
		firstErr = errs.NewObjectNotFoundError("orderID", id)
	}
	return nil, firstErr
}
