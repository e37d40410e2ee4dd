package queries

import (
	"errors"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/pkg/guard"
)

var (
	ErrListActiveOrdersQueryIsNotConstructed = errors.New(
		"ListActiveOrdersQuery must be created via NewListActiveOrdersQuery constructor",
	)
)

// ListActiveOrdersQuery retrieves all orders that are neither delivered nor
// cancelled. Only top-level orders are returned; sub-orders are folded into
// their parent.
//
// Example:
//
//	query := NewListActiveOrdersQuery()
//	active, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to list active orders: %w", err)
//	}
//
//	for _, o := range active {
//	    fmt.Printf("%s: %s (%d items)\n", o.ID, o.Stage, o.ItemCount)
//	}
type ListActiveOrdersQuery struct {
	customerID kernel.UUID

	guard guard.ConstructorGuard
}

// NewListActiveOrdersQuery creates a query for all active orders.
func NewListActiveOrdersQuery() ListActiveOrdersQuery {
	return ListActiveOrdersQuery{guard: guard.NewConstructorGuard()}
}

// NewListActiveOrdersQueryForCustomer creates a query scoped to one customer.
func NewListActiveOrdersQueryForCustomer(customerID kernel.UUID) (ListActiveOrdersQuery, error) {
	if err := customerID.Validate(); err != nil {
		return ListActiveOrdersQuery{}, err
	}

	return ListActiveOrdersQuery{
		customerID: customerID,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// CustomerID returns the customer filter. The zero UUID means no filter.
func (q ListActiveOrdersQuery) CustomerID() kernel.UUID {
	return q.customerID
}

// Validate ensures the query was created through a constructor.
func (q ListActiveOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListActiveOrdersQueryIsNotConstructed)
}

// ListActiveOrdersQueryResponse is one active order row from the snapshot store.
type ListActiveOrdersQueryResponse struct {
	ID           kernel.UUID
	CustomerID   kernel.UUID
	ProviderName string
	IsParent     bool
	Stage        order.Stage
	Total        float64
	ItemCount    int
	CreatedAt    time.Time
}
