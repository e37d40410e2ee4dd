package commands

import (
	"errors"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/pkg/guard"
)

var (
	ErrEditItemQuantityCommandIsNotConstructed = errors.New(
		"EditItemQuantityCommand must be created via NewEditItemQuantityCommand constructor")
)

// EditItemQuantityCommand requests changing the quantity of an existing line
// item. A target quantity of zero or less is defined as removal; the handler
// rewrites such edits into remove mutations.
type EditItemQuantityCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	itemID   kernel.UUID
	quantity int

	guard guard.ConstructorGuard
}

// NewEditItemQuantityCommand creates a validated quantity-edit command.
// Any integer quantity is accepted here; the removal rewrite happens in the
// handler, not at construction.
func NewEditItemQuantityCommand(orderID, itemID kernel.UUID, quantity int) (EditItemQuantityCommand, error) {
	cmd := EditItemQuantityCommand{
		quantity: quantity,
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setItemID(itemID),
	); err != nil {
		return EditItemQuantityCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c EditItemQuantityCommand) Validate() error {
	return c.guard.Validate(ErrEditItemQuantityCommandIsNotConstructed)
}

// OrderID returns the target order identifier.
func (c EditItemQuantityCommand) OrderID() kernel.UUID {
	return c.orderID
}

// ItemID returns the target line item identifier.
func (c EditItemQuantityCommand) ItemID() kernel.UUID {
	return c.itemID
}

// Quantity returns the requested target quantity.
func (c EditItemQuantityCommand) Quantity() int {
	return c.quantity
}

func (c *EditItemQuantityCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *EditItemQuantityCommand) setItemID(itemID kernel.UUID) error {
	if err := itemID.Validate(); err != nil {
		return err
	}
	c.itemID = itemID
	return nil
}
