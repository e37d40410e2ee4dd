package order

import (
	"errors"
	"fmt"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/pkg/errs"
)

// ErrSubOrderIsNotConstructed is returned when a SubOrder was not created
// through NewSubOrder or RestoreSubOrder.
var ErrSubOrderIsNotConstructed = errors.New(
	"SubOrder must be created via NewSubOrder or RestoreSubOrder")

// SubOrder is one provider's slice of a split multi-vendor order. It carries
// its own item list, its own raw status pair, its own recorded price, and its
// own courier assignment, all independent of its siblings.
type SubOrder struct {
	id               kernel.UUID
	parentID         kernel.UUID
	providerID       kernel.UUID
	providerName     string
	items            []LineItem
	rawStatus        string
	rawCourierStatus string
	price            float64
	courier          *Courier

	isConstructed bool
}

// NewSubOrder creates a sub-order at the start of its lifecycle: no courier,
// no status reported yet. Items must be non-empty; an empty slice at creation
// time means the split went wrong upstream.
func NewSubOrder(
	id, parentID, providerID kernel.UUID,
	providerName string,
	items []LineItem,
	price float64,
) (SubOrder, error) {
	if len(items) == 0 {
		return SubOrder{}, errs.NewValueIsRequiredError("items")
	}

	return RestoreSubOrder(RestoreSubOrderParams{
		ID:           id,
		ParentID:     parentID,
		ProviderID:   providerID,
		ProviderName: providerName,
		Items:        items,
		Price:        price,
	})
}

// RestoreSubOrderParams carries the full persisted state of a sub-order.
type RestoreSubOrderParams struct {
	ID               kernel.UUID
	ParentID         kernel.UUID
	ProviderID       kernel.UUID
	ProviderName     string
	Items            []LineItem
	RawStatus        string
	RawCourierStatus string
	Price            float64
	Courier          *Courier
}

// RestoreSubOrder reconstructs a sub-order from persisted or fetched state.
// Unlike NewSubOrder it tolerates an empty item list: a degraded backend feed
// is surfaced by the aggregator, not rejected here.
func RestoreSubOrder(params RestoreSubOrderParams) (SubOrder, error) {
	if err := errors.Join(
		params.ID.Validate(),
		params.ParentID.Validate(),
		params.ProviderID.Validate(),
	); err != nil {
		return SubOrder{}, err
	}
	if params.ProviderName == "" {
		return SubOrder{}, errs.NewValueIsRequiredError("providerName")
	}
	if params.Price < 0 {
		return SubOrder{}, errs.NewValueIsInvalidErrorWithCause("price",
			fmt.Errorf("%f is negative", params.Price))
	}
	for _, item := range params.Items {
		if err := item.Validate(); err != nil {
			return SubOrder{}, err
		}
	}
	if params.Courier != nil {
		if err := params.Courier.Validate(); err != nil {
			return SubOrder{}, err
		}
	}

	return SubOrder{
		id:               params.ID,
		parentID:         params.ParentID,
		providerID:       params.ProviderID,
		providerName:     params.ProviderName,
		items:            params.Items,
		rawStatus:        params.RawStatus,
		rawCourierStatus: params.RawCourierStatus,
		price:            params.Price,
		courier:          params.Courier,
		isConstructed:    true,
	}, nil
}

// Validate ensures the sub-order was created through a constructor.
func (s *SubOrder) Validate() error {
	if s == nil || !s.isConstructed {
		return ErrSubOrderIsNotConstructed
	}
	return nil
}

// ID returns the sub-order identifier.
func (s *SubOrder) ID() kernel.UUID {
	return s.id
}

// ParentID returns the identifier of the owning parent order.
func (s *SubOrder) ParentID() kernel.UUID {
	return s.parentID
}

// ProviderID returns the identity of the provider fulfilling this slice.
func (s *SubOrder) ProviderID() kernel.UUID {
	return s.providerID
}

// ProviderName returns the provider display name.
func (s *SubOrder) ProviderName() string {
	return s.providerName
}

// Items returns the sub-order's line items.
func (s *SubOrder) Items() []LineItem {
	return s.items
}

// RawStatus returns the sub-order's raw generic status string.
func (s *SubOrder) RawStatus() string {
	return s.rawStatus
}

// RawCourierStatus returns the sub-order's raw courier status string, possibly empty.
func (s *SubOrder) RawCourierStatus() string {
	return s.rawCourierStatus
}

// Price returns the recorded sub-order price. Zero when the backend never
// priced this slice; callers fall back to the item sum.
func (s *SubOrder) Price() float64 {
	return s.price
}

// Courier returns this sub-order's courier assignment, nil when unassigned.
// Assignments are independent across siblings.
func (s *SubOrder) Courier() *Courier {
	return s.courier
}

// Stage canonicalizes this sub-order's raw status pair.
func (s *SubOrder) Stage() Stage {
	return Canonicalize(s.rawStatus, s.rawCourierStatus)
}

// ItemsTotal sums line item subtotals.
func (s *SubOrder) ItemsTotal() float64 {
	return itemsTotal(s.items)
}

// EffectiveTotal returns the recorded price when present and positive,
// otherwise the line item sum. Different sub-orders may have been priced at
// different times by different mechanisms, so the fallback is per sub-order.
func (s *SubOrder) EffectiveTotal() float64 {
	if s.price > 0 {
		return s.price
	}
	return s.ItemsTotal()
}
