package queries

import (
	"context"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListActiveOrdersQueryHandler reads active orders from the snapshot store.
// The snapshot table carries precomputed stage, total and item count columns,
// so listing does not require rehydrating aggregates.
//
// Example:
//
//	handler := NewListActiveOrdersQueryHandler(db)
//	query := NewListActiveOrdersQuery()
//
//	active, err := handler.Handle(ctx, query)
//	if err != nil {
//	    log.Printf("failed to list active orders: %v", err)
//	    return err
//	}
type ListActiveOrdersQueryHandler struct {
	db *gorm.DB
}

// NewListActiveOrdersQueryHandler creates a handler for active order listings.
func NewListActiveOrdersQueryHandler(db *gorm.DB) ListActiveOrdersQueryHandler {
	return ListActiveOrdersQueryHandler{db: db}
}

// Handle executes the listing. Sub-orders are excluded; parents represent
// their whole group. Results are sorted by creation time, newest first.
func (h ListActiveOrdersQueryHandler) Handle(
	ctx context.Context,
	query ListActiveOrdersQuery,
) ([]ListActiveOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	sql := `
		SELECT
			id,
			customer_id,
			provider_name,
			is_parent,
			stage,
			total,
			item_count,
			created_at
		FROM order_snapshots
		WHERE parent_id IS NULL
		  AND stage NOT IN (?, ?)
	`
	args := []any{int(order.StageDelivered), int(order.StageCancelled)}

	if query.CustomerID().Validate() == nil {
		sql += "  AND customer_id = ?\n"
		args = append(args, query.CustomerID().String())
	}
	sql += "\t\tORDER BY created_at DESC"

	rows, err := h.db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]ListActiveOrdersQueryResponse, 0)

	for rows.Next() {
		var (
			id           uuid.UUID
			customerID   uuid.UUID
			providerName string
			isParent     bool
			stage        int
			total        float64
			itemCount    int
			createdAt    time.Time
		)

		err = rows.Scan(
			&id,
			&customerID,
			&providerName,
			&isParent,
			&stage,
			&total,
			&itemCount,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		custID, custErr := kernel.UUIDFromBytes(customerID[:])
		if custErr != nil {
			return nil, custErr
		}

		orders = append(orders, ListActiveOrdersQueryResponse{
			ID:           orderID,
			CustomerID:   custID,
			ProviderName: providerName,
			IsParent:     isParent,
			Stage:        order.Stage(stage),
			Total:        total,
			ItemCount:    itemCount,
			CreatedAt:    createdAt,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
