package queries

import (
	"errors"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/pkg/guard"
)

var (
	ErrGetOrderViewQueryIsNotConstructed = errors.New(
		"GetOrderViewQuery must be created via NewGetOrderViewQuery constructor",
	)
)

// GetOrderViewQuery retrieves the aggregated customer-facing view of one order.
// Works for both flat orders and parent orders with sub-orders.
//
// Example:
//
//	query, err := NewGetOrderViewQuery(orderID)
//	if err != nil {
//	    return err
//	}
//
//	view, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to get order view: %w", err)
//	}
//
//	fmt.Printf("Order %s is %s, total %.2f\n", view.OrderID, view.Stage, view.Total)
type GetOrderViewQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetOrderViewQuery creates a query for the given order ID.
func NewGetOrderViewQuery(orderID kernel.UUID) (GetOrderViewQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderViewQuery{}, err
	}

	return GetOrderViewQuery{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// OrderID returns the identifier of the requested order.
func (q GetOrderViewQuery) OrderID() kernel.UUID {
	return q.orderID
}

// Validate ensures the query was created through the constructor.
func (q GetOrderViewQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderViewQueryIsNotConstructed)
}
