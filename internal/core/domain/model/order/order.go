package order

import (
	"errors"
	"fmt"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not
	// created through NewOrder, NewParentOrder, or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New(
		"Order must be created via NewOrder, NewParentOrder, or RestoreOrder")

	// ErrParentCarriesItems is returned when a parent order carries its own
	// line items. A parent is a pure container: exactly one of
	// {parent with sub-orders} or {flat order with items} holds.
	ErrParentCarriesItems = errors.New("parent order must not carry its own line items")

	// ErrFlatCarriesSubOrders is returned when a non-parent order carries
	// sub-orders.
	ErrFlatCarriesSubOrders = errors.New("flat order must not carry sub-orders")

	// ErrItemNotFound is returned by item mutations targeting an unknown item.
	ErrItemNotFound = errors.New("line item not found on order")
)

// Order is the aggregate root: one customer's purchase intent, either a flat
// single-provider order with its own line items or a parent order split across
// providers as sub-orders.
//
// All state described here is a client-side projection of the backend order
// record (the single source of truth); lastSyncedAt records when this
// projection was last reconciled against it.
type Order struct {
	id           kernel.UUID
	customerID   kernel.UUID
	providerID   kernel.UUID
	providerName string

	items       []LineItem
	deliveryFee float64
	address     string
	note        string
	createdAt   time.Time

	rawStatus        string
	rawCourierStatus string
	courier          *Courier

	isParent  bool
	subOrders []SubOrder

	lastSyncedAt time.Time

	isConstructed bool
}

// NewOrder creates a flat single-provider order. At least one line item is
// required at creation time; items may later be removed down to zero through
// the modification window.
func NewOrder(
	id, customerID, providerID kernel.UUID,
	providerName string,
	items []LineItem,
	deliveryFee float64,
	address string,
	createdAt time.Time,
) (*Order, error) {
	if len(items) == 0 {
		return nil, errs.NewValueIsRequiredError("items")
	}

	return RestoreOrder(RestoreOrderParams{
		ID:           id,
		CustomerID:   customerID,
		ProviderID:   providerID,
		ProviderName: providerName,
		Items:        items,
		DeliveryFee:  deliveryFee,
		Address:      address,
		CreatedAt:    createdAt,
	})
}

// NewParentOrder creates a parent order split across providers. The sub-order
// list must be non-empty: a parent without slices is a data-integrity error
// that only the restore path tolerates.
func NewParentOrder(
	id, customerID kernel.UUID,
	subOrders []SubOrder,
	deliveryFee float64,
	address string,
	createdAt time.Time,
) (*Order, error) {
	if len(subOrders) == 0 {
		return nil, errs.NewValueIsRequiredError("subOrders")
	}

	return RestoreOrder(RestoreOrderParams{
		ID:          id,
		CustomerID:  customerID,
		IsParent:    true,
		SubOrders:   subOrders,
		DeliveryFee: deliveryFee,
		Address:     address,
		CreatedAt:   createdAt,
	})
}

// RestoreOrderParams carries the full persisted state of an order.
type RestoreOrderParams struct {
	ID           kernel.UUID
	CustomerID   kernel.UUID
	ProviderID   kernel.UUID
	ProviderName string

	Items       []LineItem
	DeliveryFee float64
	Address     string
	Note        string
	CreatedAt   time.Time

	RawStatus        string
	RawCourierStatus string
	Courier          *Courier

	IsParent  bool
	SubOrders []SubOrder

	LastSyncedAt time.Time
}

// RestoreOrder reconstructs an order from persisted or fetched state.
// It enforces every structural invariant except the parent-with-empty-slices
// case, which is tolerated so a degraded backend feed can still be projected
// and reported by the aggregator rather than dropped.
func RestoreOrder(params RestoreOrderParams) (*Order, error) {
	if err := errors.Join(
		params.ID.Validate(),
		params.CustomerID.Validate(),
	); err != nil {
		return nil, err
	}
	if params.CreatedAt.IsZero() {
		return nil, errs.NewValueIsRequiredError("createdAt")
	}
	if params.DeliveryFee < 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("deliveryFee",
			fmt.Errorf("%f is negative", params.DeliveryFee))
	}

	if params.IsParent {
		if len(params.Items) > 0 {
			return nil, ErrParentCarriesItems
		}
	} else {
		if len(params.SubOrders) > 0 {
			return nil, ErrFlatCarriesSubOrders
		}
		if err := params.ProviderID.Validate(); err != nil {
			return nil, err
		}
	}

	for _, item := range params.Items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}
	for i := range params.SubOrders {
		if err := params.SubOrders[i].Validate(); err != nil {
			return nil, err
		}
	}
	if params.Courier != nil {
		if err := params.Courier.Validate(); err != nil {
			return nil, err
		}
	}

	return &Order{
		id:               params.ID,
		customerID:       params.CustomerID,
		providerID:       params.ProviderID,
		providerName:     params.ProviderName,
		items:            params.Items,
		deliveryFee:      params.DeliveryFee,
		address:          params.Address,
		note:             params.Note,
		createdAt:        params.CreatedAt,
		rawStatus:        params.RawStatus,
		rawCourierStatus: params.RawCourierStatus,
		courier:          params.Courier,
		isParent:         params.IsParent,
		subOrders:        params.SubOrders,
		lastSyncedAt:     params.LastSyncedAt,
		isConstructed:    true,
	}, nil
}

// Validate ensures the order was created through a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by identifier.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// CustomerID returns the ordering customer's identity.
func (o *Order) CustomerID() kernel.UUID {
	return o.customerID
}

// ProviderID returns the provider identity for a flat order.
// Zero-valued on parent orders, whose providers live on the sub-orders.
func (o *Order) ProviderID() kernel.UUID {
	return o.providerID
}

// ProviderName returns the provider display name for a flat order.
func (o *Order) ProviderName() string {
	return o.providerName
}

// Items returns the order's own line items. Empty on parent orders.
func (o *Order) Items() []LineItem {
	return o.items
}

// DeliveryFee returns the delivery fee.
func (o *Order) DeliveryFee() float64 {
	return o.deliveryFee
}

// Address returns the free-text delivery address.
func (o *Order) Address() string {
	return o.address
}

// Note returns the free-text order note.
func (o *Order) Note() string {
	return o.note
}

// CreatedAt returns the order creation timestamp, the anchor of the
// modification window.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// RawStatus returns the raw generic status string as last fetched.
func (o *Order) RawStatus() string {
	return o.rawStatus
}

// RawCourierStatus returns the raw courier status string, possibly empty.
func (o *Order) RawCourierStatus() string {
	return o.rawCourierStatus
}

// Courier returns the assigned courier card, nil when unassigned.
func (o *Order) Courier() *Courier {
	return o.courier
}

// IsParent reports whether this order is a multi-vendor container.
func (o *Order) IsParent() bool {
	return o.isParent
}

// SubOrders returns the provider slices of a parent order.
func (o *Order) SubOrders() []SubOrder {
	return o.subOrders
}

// LastSyncedAt returns when this projection was last reconciled against the
// backend record.
func (o *Order) LastSyncedAt() time.Time {
	return o.lastSyncedAt
}

// MarkSynced records a reconciliation instant on the projection.
func (o *Order) MarkSynced(t time.Time) {
	o.lastSyncedAt = t
}

// Stage canonicalizes the order's own raw status pair. For parent orders this
// reflects only the parent record; the aggregator derives the composite stage
// from the sub-orders.
func (o *Order) Stage() Stage {
	return Canonicalize(o.rawStatus, o.rawCourierStatus)
}

// IsCancelled reports whether the order's own status pair resolves to
// Cancelled.
func (o *Order) IsCancelled() bool {
	return o.Stage() == StageCancelled
}

// HasProvider reports whether the given provider identity belongs to this
// order: the flat order's own provider, or any sub-order's provider on a
// parent. Item additions targeting any other provider are structural misuse.
func (o *Order) HasProvider(providerID kernel.UUID) bool {
	if !o.isParent {
		return o.providerID.IsEqual(providerID)
	}
	for i := range o.subOrders {
		if o.subOrders[i].ProviderID().IsEqual(providerID) {
			return true
		}
	}
	return false
}

// ItemsTotal sums the order's own line item subtotals.
func (o *Order) ItemsTotal() float64 {
	return itemsTotal(o.items)
}

// AddItem appends a line item to a flat order.
func (o *Order) AddItem(item LineItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if o.isParent {
		return ErrParentCarriesItems
	}

	o.items = append(o.items, item)
	return nil
}

// UpdateItemQuantity changes the quantity of an existing item. A target
// quantity of zero or less is defined as removal.
func (o *Order) UpdateItemQuantity(itemID kernel.UUID, quantity int) error {
	if quantity <= 0 {
		return o.RemoveItem(itemID)
	}

	for i := range o.items {
		if o.items[i].ID().IsEqual(itemID) {
			updated, err := o.items[i].WithQuantity(quantity)
			if err != nil {
				return err
			}
			o.items[i] = updated
			return nil
		}
	}
	return ErrItemNotFound
}

// RemoveItem deletes a line item from the order.
func (o *Order) RemoveItem(itemID kernel.UUID) error {
	for i := range o.items {
		if o.items[i].ID().IsEqual(itemID) {
			o.items = append(o.items[:i], o.items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// Cancel marks the order cancelled. Idempotent: cancelling an already
// cancelled order is a no-op, not an error.
func (o *Order) Cancel() {
	if o.IsCancelled() {
		return
	}
	o.rawStatus = "cancelled"
}
