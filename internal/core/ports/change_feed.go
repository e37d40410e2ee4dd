package ports

import (
	"context"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
)

// ChangeSignal announces that an order (or one of its sub-orders) changed on
// the backend. It is a signal to refetch, never a data source: push payloads
// may be partial or differently shaped across event types, so consumers always
// pull the authoritative record after receiving one.
type ChangeSignal struct {
	OrderID kernel.UUID

	// ParentID is set when the changed record is a sub-order, so trackers
	// following the parent react too.
	ParentID *kernel.UUID
}

// Matches reports whether the signal concerns the tracked order id, either
// directly or through the parent relationship.
func (s ChangeSignal) Matches(orderID kernel.UUID) bool {
	if s.OrderID.IsEqual(orderID) {
		return true
	}
	return s.ParentID != nil && s.ParentID.IsEqual(orderID)
}

// LocationSignal is a courier position report from the driver feed. Unlike
// order ChangeSignals, positions are consumed as-is (last write wins); they
// are not part of the order lifecycle.
type LocationSignal struct {
	DriverID kernel.UUID
	Position kernel.GeoPoint
	At       time.Time
}

// ChangeFeed is the push channel over which the backend announces changes.
//
// Both subscriptions deliver on the returned channel until the context is
// cancelled or the underlying connection fails, after which the channel is
// closed. A closed channel is the consumer's cue to reconnect with backoff or
// degrade to pull-only.
type ChangeFeed interface {
	// SubscribeOrder opens a change-signal subscription scoped to one order id.
	SubscribeOrder(ctx context.Context, orderID kernel.UUID) (<-chan ChangeSignal, error)

	// SubscribeDriver opens a position subscription scoped to one driver id.
	SubscribeDriver(ctx context.Context, driverID kernel.UUID) (<-chan LocationSignal, error)
}
