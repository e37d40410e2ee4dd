package commands

import (
	"context"
	"fmt"
	"time"

	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/pkg/errs"
)

// EditItemQuantityCommandHandler applies quantity edits against the backend
// repository, rewriting non-positive targets into removals.
type EditItemQuantityCommandHandler struct {
	orders     ports.OrderRepository
	aggregator aggregating
	clock      Clock
	timeout    time.Duration
}

// NewEditItemQuantityCommandHandler creates a handler bound to the backend repository.
func NewEditItemQuantityCommandHandler(
	orders ports.OrderRepository, aggregator aggregating, clock Clock,
) EditItemQuantityCommandHandler {
	return EditItemQuantityCommandHandler{
		orders:     orders,
		aggregator: aggregator,
		clock:      clock,
		timeout:    DefaultMutationTimeout,
	}
}

// Handle re-validates the window against the current backend snapshot, then
// submits the edit (or removal, when the target quantity is zero or less) as
// one request. Returns the acknowledged order record.
func (h EditItemQuantityCommandHandler) Handle(
	ctx context.Context, cmd EditItemQuantityCommand,
) (*order.Order, error) {
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

	request := ports.MutationRequest{
		Kind:     ports.MutationEditQuantity,
		ItemID:   cmd.ItemID(),
		Quantity: cmd.Quantity(),
	}
	if cmd.Quantity() <= 0 {
		request = ports.MutationRequest{
			Kind:   ports.MutationRemoveItem,
			ItemID: cmd.ItemID(),
		}
	}

	acked, err := h.orders.ApplyMutation(ctx, cmd.OrderID(), request)
	if err != nil {
		return nil, mapDeadline(err)
	}
	return acked, nil
}
