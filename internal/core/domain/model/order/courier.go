package order

import (
	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/pkg/errs"
	"ordertrack/internal/pkg/guard"
)

// ErrCourierIsNotConstructed is returned when validating a zero-value Courier.
var ErrCourierIsNotConstructed = errs.NewValueIsRequiredError(
	"Courier must be created via NewCourier constructor")

// Courier is the contact card of the courier assigned to an order or
// sub-order: identity, display name, and phone number. The core treats it as
// an immutable value reported by the order backend; courier position is a
// separate concern handled by the driver location feed.
type Courier struct { //nolint:recvcheck //using for validation
	id    kernel.UUID
	name  string
	phone string

	guard guard.ConstructorGuard
}

// NewCourier creates a validated courier card. Phone may be empty: some
// backends withhold it until the courier picks the order up.
func NewCourier(id kernel.UUID, name, phone string) (Courier, error) {
	if err := id.Validate(); err != nil {
		return Courier{}, err
	}
	if name == "" {
		return Courier{}, errs.NewValueIsRequiredError("name")
	}

	return Courier{
		id:    id,
		name:  name,
		phone: phone,
		guard: guard.NewConstructorGuard(),
	}, nil
}

// ID returns the courier identifier, used to key the driver location feed.
func (c Courier) ID() kernel.UUID {
	return c.id
}

// Name returns the courier display name.
func (c Courier) Name() string {
	return c.name
}

// Phone returns the courier phone number, possibly empty.
func (c Courier) Phone() string {
	return c.phone
}

// Validate ensures the courier was created via NewCourier.
func (c Courier) Validate() error {
	return c.guard.Validate(ErrCourierIsNotConstructed)
}
