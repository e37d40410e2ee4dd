package order

import (
	"fmt"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/pkg/errs"
	"ordertrack/internal/pkg/guard"
)

// ErrLineItemIsNotConstructed is returned when validating a zero-value LineItem.
var ErrLineItemIsNotConstructed = errs.NewValueIsRequiredError(
	"LineItem must be created via NewLineItem constructor")

// LineItem is one purchasable entry on an order: a named product with a unit
// price, a quantity, and an optional free-text note ("no onions"). Immutable;
// quantity changes produce a new LineItem via WithQuantity.
type LineItem struct { //nolint:recvcheck //using for validation
	id        kernel.UUID
	name      string
	unitPrice float64
	quantity  int
	note      string

	guard guard.ConstructorGuard
}

// NewLineItem creates a validated line item. Name must be non-empty, unit
// price non-negative, and quantity positive: a quantity of zero or less means
// removal and is never a valid constructed state.
func NewLineItem(id kernel.UUID, name string, unitPrice float64, quantity int, note string) (LineItem, error) {
	if err := id.Validate(); err != nil {
		return LineItem{}, err
	}
	if name == "" {
		return LineItem{}, errs.NewValueIsRequiredError("name")
	}
	if unitPrice < 0 {
		return LineItem{}, errs.NewValueIsInvalidErrorWithCause("unitPrice",
			fmt.Errorf("%f is negative", unitPrice))
	}
	if quantity <= 0 {
		return LineItem{}, errs.NewValueIsInvalidErrorWithCause("quantity",
			fmt.Errorf("%d is not greater than 0", quantity))
	}

	return LineItem{
		id:        id,
		name:      name,
		unitPrice: unitPrice,
		quantity:  quantity,
		note:      note,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// ID returns the line item identifier.
func (li LineItem) ID() kernel.UUID {
	return li.id
}

// Name returns the product name.
func (li LineItem) Name() string {
	return li.name
}

// UnitPrice returns the price of a single unit.
func (li LineItem) UnitPrice() float64 {
	return li.unitPrice
}

// Quantity returns the ordered quantity. Always positive for a valid item.
func (li LineItem) Quantity() int {
	return li.quantity
}

// Note returns the customer's free-text note for this item.
func (li LineItem) Note() string {
	return li.note
}

// Subtotal returns unit price times quantity.
func (li LineItem) Subtotal() float64 {
	return li.unitPrice * float64(li.quantity)
}

// WithQuantity returns a copy of the item carrying the new quantity.
// Quantity must be positive; a non-positive target is a removal, which the
// owning order handles, not the item.
func (li LineItem) WithQuantity(quantity int) (LineItem, error) {
	if err := li.Validate(); err != nil {
		return LineItem{}, err
	}
	if quantity <= 0 {
		return LineItem{}, errs.NewValueIsInvalidErrorWithCause("quantity",
			fmt.Errorf("%d is not greater than 0", quantity))
	}

	updated := li
	updated.quantity = quantity
	return updated, nil
}

// Validate ensures the item was created via NewLineItem.
func (li LineItem) Validate() error {
	return li.guard.Validate(ErrLineItemIsNotConstructed)
}

// itemsTotal sums the subtotals of a slice of line items.
func itemsTotal(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}
