package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/pkg/errs"
)

// AddItemCommandHandler applies add-item mutations against the backend order
// repository, enforcing the modification window and provider ownership.
type AddItemCommandHandler struct {
	orders     ports.OrderRepository
	aggregator aggregating
	clock      Clock
	timeout    time.Duration
}

// NewAddItemCommandHandler creates a handler bound to the backend repository.
func NewAddItemCommandHandler(orders ports.OrderRepository, aggregator aggregating, clock Clock) AddItemCommandHandler {
	return AddItemCommandHandler{
		orders:     orders,
		aggregator: aggregator,
		clock:      clock,
		timeout:    DefaultMutationTimeout,
	}
}

// Handle re-validates the window and provider ownership against the current
// backend snapshot, then submits the addition as one request. Returns the
// acknowledged order record.
func (h AddItemCommandHandler) Handle(ctx context.Context, cmd AddItemCommand) (*order.Order, error) {
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

	if !current.HasProvider(cmd.ProviderID()) {
		return nil, fmt.Errorf("%w: provider %s", errs.ErrProviderMismatch, cmd.ProviderID())
	}

	item := cmd.Item()
	acked, err := h.orders.ApplyMutation(ctx, cmd.OrderID(), ports.MutationRequest{
		Kind:       ports.MutationAddItem,
		Item:       &item,
		ProviderID: cmd.ProviderID(),
	})
	if err != nil {
		return nil, mapDeadline(err)
	}
	return acked, nil
}

// mapDeadline folds context deadline expiry into the taxonomy's ErrTimeout so
// callers need only one ambiguous-outcome branch.
func mapDeadline(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, errs.ErrTimeout) {
		return fmt.Errorf("%w: %s", errs.ErrTimeout, err)
	}
	return err
}
