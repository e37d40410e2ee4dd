package commands

import (
	"errors"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/pkg/guard"
)

var (
	ErrAddItemCommandIsNotConstructed = errors.New(
		"AddItemCommand must be created via NewAddItemCommand constructor")
)

// AddItemCommand requests adding a line item to an order during its
// modification window. The provider identity travels with the command so the
// handler can reject cross-provider additions instead of silently creating a
// second order.
//
// Example:
//
//	item, _ := order.NewLineItem(kernel.NewUUID(), "Fries", 15, 1, "")
//	cmd, err := NewAddItemCommand(orderID, providerID, item)
//	if err != nil {
//	    return fmt.Errorf("invalid add request: %w", err)
//	}
//	acked, err := handler.Handle(ctx, cmd)
type AddItemCommand struct { //nolint:recvcheck //using for validation
	orderID    kernel.UUID
	providerID kernel.UUID
	item       order.LineItem

	guard guard.ConstructorGuard
}

// NewAddItemCommand creates a validated add-item command.
func NewAddItemCommand(orderID, providerID kernel.UUID, item order.LineItem) (AddItemCommand, error) {
	cmd := AddItemCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setProviderID(providerID),
		cmd.setItem(item),
	); err != nil {
		return AddItemCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AddItemCommand) Validate() error {
	return c.guard.Validate(ErrAddItemCommandIsNotConstructed)
}

// OrderID returns the target order identifier.
func (c AddItemCommand) OrderID() kernel.UUID {
	return c.orderID
}

// ProviderID returns the provider the new item belongs to.
func (c AddItemCommand) ProviderID() kernel.UUID {
	return c.providerID
}

// Item returns the line item to add.
func (c AddItemCommand) Item() order.LineItem {
	return c.item
}

func (c *AddItemCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *AddItemCommand) setProviderID(providerID kernel.UUID) error {
	if err := providerID.Validate(); err != nil {
		return err
	}
	c.providerID = providerID
	return nil
}

func (c *AddItemCommand) setItem(item order.LineItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	c.item = item
	return nil
}
