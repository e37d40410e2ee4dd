package commands

import (
	"context"
	"fmt"
	"time"

	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/pkg/errs"
)

// CancelOrderCommandHandler applies order cancellations against the backend
// repository.
type CancelOrderCommandHandler struct {
	orders     ports.OrderRepository
	aggregator aggregating
	clock      Clock
	timeout    time.Duration
}

// NewCancelOrderCommandHandler creates a handler bound to the backend repository.
func NewCancelOrderCommandHandler(
	orders ports.OrderRepository, aggregator aggregating, clock Clock,
) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		orders:     orders,
		aggregator: aggregator,
		clock:      clock,
		timeout:    DefaultMutationTimeout,
	}
}

// Handle cancels the order. An already-cancelled order short-circuits to
// success with no repository call, keeping the operation idempotent; otherwise
// the window is re-validated and the cancellation submitted as one request.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*order.Order, error) {
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
	if view.Stage == order.StageCancelled {
		return current, nil
	}

	if decision := view.Window(h.clock.Now()); !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", errs.ErrWindowClosed, decision.Reason)
	}

	acked, err := h.orders.ApplyMutation(ctx, cmd.OrderID(), ports.MutationRequest{
		Kind: ports.MutationCancel,
	})
	if err != nil {
		return nil, mapDeadline(err)
	}
	return acked, nil
}
