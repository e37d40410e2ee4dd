package services

import (
	"log/slog"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
)

// SubView is the aggregated projection of one sub-order: its own canonical
// stage, effective total, and courier card, surfaced side by side with its
// siblings. The UI renders one courier card per sub-order that has one; the
// aggregator never elects a "primary" courier for a multi-vendor order.
type SubView struct {
	SubOrderID   kernel.UUID
	ProviderID   kernel.UUID
	ProviderName string
	Stage        order.Stage
	Total        float64
	ItemCount    int
	Courier      *order.Courier
}

// AggregatedView is the single derived snapshot every observer role consumes:
// customer tracking page, courier app, supervisor and owner dashboards all
// read this one shape.
type AggregatedView struct {
	OrderID    kernel.UUID
	CustomerID kernel.UUID
	IsParent   bool

	// Stage is the composite canonical stage. For a parent order the
	// least-advanced sub-order governs: the order is only as done as its
	// slowest slice.
	Stage order.Stage

	CreatedAt   time.Time
	DeliveryFee float64

	// Total is the full payable amount: per-sub-order effective totals (or the
	// flat order's item sum) plus the delivery fee.
	Total     float64
	ItemCount int

	SubViews []SubView

	// Courier is the flat order's courier card, nil for parents and unassigned
	// orders.
	Courier *order.Courier

	// Degraded marks a structurally suspect snapshot, currently only a parent
	// order whose sub-order list came back empty. Degraded views report the
	// fail-safe StageReceived and must never be read as "all delivered".
	Degraded bool

	LastSyncedAt time.Time
}

// Window evaluates the modification window for this view at the given instant.
func (v AggregatedView) Window(now time.Time) WindowDecision {
	return EvaluateWindow(v.CreatedAt, v.Stage, now)
}

// degradedCounter counts data-integrity incidents for telemetry.
type degradedCounter interface {
	Inc()
}

// Aggregator derives AggregatedView projections from order aggregates.
// Aggregation itself is pure; the aggregator only carries a logger and counter
// so parent orders with empty sub-order lists get reported instead of being
// silently treated as complete.
type Aggregator struct {
	logger   *slog.Logger
	degraded degradedCounter
}

// NewAggregator creates an aggregator. The counter may be nil.
func NewAggregator(logger *slog.Logger, degraded degradedCounter) Aggregator {
	return Aggregator{
		logger:   logger.With("component", "aggregator"),
		degraded: degraded,
	}
}

// Aggregate combines an order and its sub-orders into one derived view.
//
// Rules:
//   - flat order: stage is the order's own canonical stage, total is the item
//     sum plus delivery fee
//   - parent order: stage is the minimum stage across sub-orders (Cancelled
//     sorts above Delivered, so a single cancelled slice never drags the
//     composite to Cancelled; only an all-cancelled order resolves there),
//     unless the parent record itself is cancelled, which overrides everything
//   - totals fall back from recorded sub-order price to the item sum per
//     sub-order independently
//   - a parent with no sub-orders is a data-integrity error: fail-safe
//     StageReceived, Degraded set, incident logged and counted
func (a Aggregator) Aggregate(o *order.Order) AggregatedView {
	view := AggregatedView{
		OrderID:      o.ID(),
		CustomerID:   o.CustomerID(),
		IsParent:     o.IsParent(),
		CreatedAt:    o.CreatedAt(),
		DeliveryFee:  o.DeliveryFee(),
		Courier:      o.Courier(),
		LastSyncedAt: o.LastSyncedAt(),
	}

	if !o.IsParent() {
		view.Stage = o.Stage()
		view.Total = o.ItemsTotal() + o.DeliveryFee()
		view.ItemCount = len(o.Items())
		return view
	}

	subOrders := o.SubOrders()
	if len(subOrders) == 0 {
		a.logger.Error("parent order has no sub-orders, reporting fail-safe stage",
			"order_id", o.ID().String())
		if a.degraded != nil {
			a.degraded.Inc()
		}
		view.Stage = order.StageReceived
		view.Degraded = true
		view.Total = o.DeliveryFee()
		return view
	}

	stage := subOrders[0].Stage()
	total := o.DeliveryFee()
	itemCount := 0
	subViews := make([]SubView, 0, len(subOrders))

	for i := range subOrders {
		sub := &subOrders[i]
		subStage := sub.Stage()
		if subStage < stage {
			stage = subStage
		}
		total += sub.EffectiveTotal()
		itemCount += len(sub.Items())

		subViews = append(subViews, SubView{
			SubOrderID:   sub.ID(),
			ProviderID:   sub.ProviderID(),
			ProviderName: sub.ProviderName(),
			Stage:        subStage,
			Total:        sub.EffectiveTotal(),
			ItemCount:    len(sub.Items()),
			Courier:      sub.Courier(),
		})
	}

	// Cancellation on the parent record is sticky and beats any sub-order state.
	if o.IsCancelled() {
		stage = order.StageCancelled
	}

	view.Stage = stage
	view.Total = total
	view.ItemCount = itemCount
	view.SubViews = subViews
	return view
}
