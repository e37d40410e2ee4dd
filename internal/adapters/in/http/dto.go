package http

import (
	"time"

	"ordertrack/internal/core/application/usecases/queries"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/domain/services"
)

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CourierResponse is the courier card rendered on tracking pages.
type CourierResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// WindowResponse reports the modification window for countdown display.
type WindowResponse struct {
	Allowed          bool   `json:"allowed"`
	SecondsRemaining int    `json:"seconds_remaining"`
	RemainingDisplay string `json:"remaining_display"`
	Reason           string `json:"reason"`
}

// SubViewResponse is one sub-order slice of an aggregated order view.
type SubViewResponse struct {
	SubOrderID   string           `json:"sub_order_id"`
	ProviderID   string           `json:"provider_id"`
	ProviderName string           `json:"provider_name"`
	Stage        string           `json:"stage"`
	Total        float64          `json:"total"`
	ItemCount    int              `json:"item_count"`
	Courier      *CourierResponse `json:"courier,omitempty"`
}

// OrderViewResponse is the aggregated order view every observer role reads.
type OrderViewResponse struct {
	OrderID      string            `json:"order_id"`
	CustomerID   string            `json:"customer_id"`
	IsParent     bool              `json:"is_parent"`
	Stage        string            `json:"stage"`
	CreatedAt    time.Time         `json:"created_at"`
	DeliveryFee  float64           `json:"delivery_fee"`
	Total        float64           `json:"total"`
	ItemCount    int               `json:"item_count"`
	SubOrders    []SubViewResponse `json:"sub_orders,omitempty"`
	Courier      *CourierResponse  `json:"courier,omitempty"`
	Degraded     bool              `json:"degraded"`
	FromCache    bool              `json:"from_cache"`
	LastSyncedAt time.Time         `json:"last_synced_at"`
	Window       WindowResponse    `json:"window"`
}

// ActiveOrderResponse is one row of the active order listing.
type ActiveOrderResponse struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customer_id"`
	ProviderName string    `json:"provider_name,omitempty"`
	IsParent     bool      `json:"is_parent"`
	Stage        string    `json:"stage"`
	Total        float64   `json:"total"`
	ItemCount    int       `json:"item_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewItemRequest is the payload of an add-item mutation. The line item
// identity is minted server-side.
type NewItemRequest struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Note      string  `json:"note,omitempty"`
}

// MutationRequestBody is the wire form of one order mutation.
type MutationRequestBody struct {
	Kind       string          `json:"kind"`
	ProviderID string          `json:"provider_id,omitempty"`
	Item       *NewItemRequest `json:"item,omitempty"`
	ItemID     string          `json:"item_id,omitempty"`
	Quantity   int             `json:"quantity,omitempty"`
}

// MutationAcceptedResponse reports a mutation round trip that timed out.
// The outcome is ambiguous by contract: the change may have been applied
// server-side, so the client must re-fetch instead of resubmitting.
type MutationAcceptedResponse struct {
	Status  string `json:"status"`
	Warning string `json:"warning"`
}

func courierResponse(c *order.Courier) *CourierResponse {
	if c == nil {
		return nil
	}
	return &CourierResponse{
		ID:    c.ID().String(),
		Name:  c.Name(),
		Phone: c.Phone(),
	}
}

func windowResponse(d services.WindowDecision) WindowResponse {
	return WindowResponse{
		Allowed:          d.Allowed,
		SecondsRemaining: d.SecondsRemaining,
		RemainingDisplay: services.FormatRemaining(d.SecondsRemaining),
		Reason:           string(d.Reason),
	}
}

func orderViewResponse(resp queries.GetOrderViewQueryResponse) OrderViewResponse {
	view := resp.View

	subOrders := make([]SubViewResponse, 0, len(view.SubViews))
	for _, sub := range view.SubViews {
		subOrders = append(subOrders, SubViewResponse{
			SubOrderID:   sub.SubOrderID.String(),
			ProviderID:   sub.ProviderID.String(),
			ProviderName: sub.ProviderName,
			Stage:        sub.Stage.String(),
			Total:        sub.Total,
			ItemCount:    sub.ItemCount,
			Courier:      courierResponse(sub.Courier),
		})
	}

	return OrderViewResponse{
		OrderID:      view.OrderID.String(),
		CustomerID:   view.CustomerID.String(),
		IsParent:     view.IsParent,
		Stage:        view.Stage.String(),
		CreatedAt:    view.CreatedAt,
		DeliveryFee:  view.DeliveryFee,
		Total:        view.Total,
		ItemCount:    view.ItemCount,
		SubOrders:    subOrders,
		Courier:      courierResponse(view.Courier),
		Degraded:     view.Degraded,
		FromCache:    resp.FromCache,
		LastSyncedAt: view.LastSyncedAt,
		Window:       windowResponse(resp.Window),
	}
}

func activeOrderResponses(rows []queries.ListActiveOrdersQueryResponse) []ActiveOrderResponse {
	response := make([]ActiveOrderResponse, len(rows))
	for i, row := range rows {
		response[i] = ActiveOrderResponse{
			ID:           row.ID.String(),
			CustomerID:   row.CustomerID.String(),
			ProviderName: row.ProviderName,
			IsParent:     row.IsParent,
			Stage:        row.Stage.String(),
			Total:        row.Total,
			ItemCount:    row.ItemCount,
			CreatedAt:    row.CreatedAt,
		}
	}
	return response
}
