// Package ports defines the contracts between the order lifecycle core and
// its external collaborators: the backend order repository (the single source
// of truth), the push-channel change feeds, and the durable snapshot cache.
package ports

import (
	"context"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/pkg/errs"
)

// MutationKind enumerates the operations the backend accepts on an order.
type MutationKind int

const (
	// MutationAddItem adds a new line item.
	MutationAddItem MutationKind = iota + 1

	// MutationEditQuantity changes an existing item's quantity.
	// A target quantity of zero or less is a removal.
	MutationEditQuantity

	// MutationRemoveItem deletes a line item.
	MutationRemoveItem

	// MutationCancel cancels the whole order.
	MutationCancel
)

// MutationRequest is a single order change sent to the backend as one
// request/response round trip. There is no client-side multi-step transaction:
// the caller reflects the change only after the backend acknowledges it.
type MutationRequest struct {
	Kind MutationKind

	// Item is the new line item for MutationAddItem.
	Item *order.LineItem

	// ProviderID identifies the provider the added item belongs to,
	// validated against the order's providers before submission.
	ProviderID kernel.UUID

	// ItemID targets an existing item for edit and remove operations.
	ItemID kernel.UUID

	// Quantity is the target quantity for MutationEditQuantity.
	Quantity int
}

// Validate checks the request shape for its kind.
func (r MutationRequest) Validate() error {
	switch r.Kind {
	case MutationAddItem:
		if r.Item == nil {
			return errs.NewValueIsRequiredError("item")
		}
		if err := r.Item.Validate(); err != nil {
			return err
		}
		return r.ProviderID.Validate()
	case MutationEditQuantity, MutationRemoveItem:
		return r.ItemID.Validate()
	case MutationCancel:
		return nil
	default:
		return errs.NewValueIsInvalidError("mutation kind")
	}
}

// OrderRepository is the request/response contract of the backend order
// service. It exclusively owns persisted order state; everything the core
// holds is a projection derived from its responses.
//
// Implementations translate transport failures into the errs taxonomy:
// errs.ErrObjectNotFound, errs.ErrWindowClosed, errs.ErrProviderMismatch,
// errs.ErrTimeout.
type OrderRepository interface {
	// GetOrder fetches the current order record, including sub-orders for a
	// parent order.
	GetOrder(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// ListSubOrders fetches the sub-orders of a parent order.
	ListSubOrders(ctx context.Context, parentID kernel.UUID) ([]order.SubOrder, error)

	// ApplyMutation submits one change and returns the acknowledged order
	// record on success. On errs.ErrTimeout the outcome is ambiguous: the
	// change may have been applied server-side.
	ApplyMutation(ctx context.Context, orderID kernel.UUID, request MutationRequest) (*order.Order, error)
}
