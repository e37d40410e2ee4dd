package queries

import (
	"context"
	"errors"
	"time"

	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/domain/services"
	"ordertrack/internal/core/ports"
)

// Clock supplies the current time to query handlers.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type aggregating interface {
	Aggregate(o *order.Order) services.AggregatedView
}

var ErrGetOrderViewQueryHandlerParamsAreInvalid = errors.New(
	"orderRepository, aggregator and clock are required for GetOrderViewQueryHandler",
)

// GetOrderViewQueryResponse carries the aggregated view together with the
// modification window evaluated at read time.
type GetOrderViewQueryResponse struct {
	View   services.AggregatedView
	Window services.WindowDecision

	// FromCache reports that the live source failed and the view was
	// served from the last persisted snapshot.
	FromCache bool
}

// GetOrderViewQueryHandler resolves an order from the live repository,
// aggregates it and evaluates the modification window. When the live
// source fails and a snapshot cache is configured, the handler falls back
// to the last persisted snapshot and marks the view as degraded.
//
// Example:
//
//	handler, err := NewGetOrderViewQueryHandler(repo, cache, aggregator, SystemClock{})
//	if err != nil {
//	    return err
//	}
//
//	resp, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return err
//	}
//
//	if resp.Window.Allowed {
//	    fmt.Printf("editable for %s\n", services.FormatRemaining(resp.Window.SecondsRemaining))
//	}
type GetOrderViewQueryHandler struct {
	orderRepository ports.OrderRepository
	snapshotCache   ports.SnapshotCache
	aggregator      aggregating
	clock           Clock
}

// NewGetOrderViewQueryHandler creates the handler. The snapshot cache is
// optional; pass nil to disable the fallback path.
func NewGetOrderViewQueryHandler(
	orderRepository ports.OrderRepository,
	snapshotCache ports.SnapshotCache,
	aggregator aggregating,
	clock Clock,
) (GetOrderViewQueryHandler, error) {
	if orderRepository == nil || aggregator == nil || clock == nil {
		return GetOrderViewQueryHandler{}, ErrGetOrderViewQueryHandlerParamsAreInvalid
	}

	return GetOrderViewQueryHandler{
		orderRepository: orderRepository,
		snapshotCache:   snapshotCache,
		aggregator:      aggregator,
		clock:           clock,
	}, nil
}

// Handle resolves and aggregates the requested order.
func (h GetOrderViewQueryHandler) Handle(
	ctx context.Context,
	query GetOrderViewQuery,
) (GetOrderViewQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderViewQueryResponse{}, err
	}

	fromCache := false
	resolved, err := h.orderRepository.GetOrder(ctx, query.OrderID())
	if err != nil {
		if h.snapshotCache == nil {
			return GetOrderViewQueryResponse{}, err
		}

		cached, cacheErr := h.snapshotCache.Get(ctx, query.OrderID())
		if cacheErr != nil {
			return GetOrderViewQueryResponse{}, err
		}
		resolved = cached
		fromCache = true
	}

	view := h.aggregator.Aggregate(resolved)
	if fromCache {
		view.Degraded = true
	}

	return GetOrderViewQueryResponse{
		View:      view,
		Window:    view.Window(h.clock.Now()),
		FromCache: fromCache,
	}, nil
}
