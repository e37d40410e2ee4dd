package commands

import (
	"context"
	"fmt"
	"time"

	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/pkg/errs"
)

// RemoveItemCommandHandler applies item removals against the backend repository.
type RemoveItemCommandHandler struct {
	orders     ports.OrderRepository
	aggregator aggregating
	clock      Clock
	timeout    time.Duration
}

// NewRemoveItemCommandHandler creates a handler bound to the backend repository.
func NewRemoveItemCommandHandler(
	orders ports.OrderRepository, aggregator aggregating, clock Clock,
) RemoveItemCommandHandler {
	return RemoveItemCommandHandler{
		orders:     orders,
		aggregator: aggregator,
		clock:      clock,
		timeout:    DefaultMutationTimeout,
	}
}

// Handle re-validates the window against the current backend snapshot, then
// submits the removal as one request. Returns the acknowledged order record.
func (h RemoveItemCommandHandler) Handle(ctx context.Context, cmd RemoveItemCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	current, err := h.orders.GetOrder(ctx, cmd.OrderID())
	if err != nil {
		return nil, mapDeadline(err)
	}

	view := h.aggregator.Aggregate(current)
	if decision := view.Window(h.clock.Now()); !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", errs.ErrWindowClosed, decision.Reason)
	}

	acked, err := h.orders.ApplyMutation(ctx, cmd.OrderID(), ports.MutationRequest{
		Kind:   ports.MutationRemoveItem,
		ItemID: cmd.ItemID(),
	})
	if err != nil {
		return nil, mapDeadline(err)
	}
	return acked, nil
}
