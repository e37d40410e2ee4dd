package services

import (
	"fmt"
	"time"

	"ordertrack/internal/core/domain/model/order"
)

// ModificationWindow is how long after creation an order stays mutable,
// provided the lifecycle has not advanced past ReadyForPickup.
const ModificationWindow = 300 * time.Second

// WindowReason explains a window decision to the presentation layer.
type WindowReason string

const (
	// WindowOpen means mutations are currently permitted.
	WindowOpen WindowReason = "open"

	// WindowTimeExpired means the 300-second window has elapsed.
	WindowTimeExpired WindowReason = "time_expired"

	// WindowOutForDelivery means a courier already carries the order.
	WindowOutForDelivery WindowReason = "out_for_delivery"

	// WindowDelivered means the order already completed.
	WindowDelivered WindowReason = "delivered"

	// WindowCancelled means the order was cancelled.
	WindowCancelled WindowReason = "cancelled"
)

// WindowDecision is the result of evaluating the modification window.
// SecondsRemaining is clamped to [0, 300] and suitable for countdown display.
type WindowDecision struct {
	Allowed          bool
	SecondsRemaining int
	Reason           WindowReason
}

// EvaluateWindow decides whether an order may still be mutated at the given
// instant. The status gate dominates the time gate: once the lifecycle reaches
// OutForDelivery or a terminal stage, the window is closed regardless of
// elapsed time.
//
// Pure and allocation-free; UI countdowns call it on every tick.
func EvaluateWindow(createdAt time.Time, stage order.Stage, now time.Time) WindowDecision {
	switch stage {
	case order.StageOutForDelivery:
		return WindowDecision{Reason: WindowOutForDelivery}
	case order.StageDelivered:
		return WindowDecision{Reason: WindowDelivered}
	case order.StageCancelled:
		return WindowDecision{Reason: WindowCancelled}
	}

	remaining := ModificationWindow - now.Sub(createdAt)
	if remaining <= 0 {
		return WindowDecision{Reason: WindowTimeExpired}
	}
	if remaining > ModificationWindow {
		remaining = ModificationWindow
	}

	return WindowDecision{
		Allowed:          true,
		SecondsRemaining: int(remaining / time.Second),
		Reason:           WindowOpen,
	}
}

// FormatRemaining renders a seconds count as "M:SS" for countdown display.
// Negative input renders as "0:00".
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
