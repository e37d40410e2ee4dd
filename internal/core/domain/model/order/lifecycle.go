package order

import "strings"

// Stage is the canonical order lifecycle stage. Raw status strings arrive from
// two independently-evolving vocabularies (generic order status and
// courier/delivery status); Canonicalize folds both into this single ordered
// enum so nothing outside this file ever branches on raw strings.
//
// Ordering:
//
//	Received < Preparing < ReadyForPickup < OutForDelivery < Delivered
//
// Cancelled is an absorbing terminal state incomparable to the rest: any stage
// can transition to Cancelled and nothing transitions out of it.
//
// The zero value is StageReceived on purpose: unknown or missing status input
// degrades to the earliest stage (fail-open), because under-reporting progress
// is safer than blocking a legitimate order.
type Stage int

const (
	// StageReceived is the initial stage and the fail-open default for
	// unrecognized status input.
	StageReceived Stage = iota

	// StagePreparing indicates the provider is working on the order.
	StagePreparing

	// StageReadyForPickup indicates the order awaits courier pickup.
	StageReadyForPickup

	// StageOutForDelivery indicates a courier is carrying the order.
	// Reaching this stage permanently closes the modification window.
	StageOutForDelivery

	// StageDelivered is the successful terminal stage.
	StageDelivered

	// StageCancelled is the absorbing terminal stage. Sticky: once observed in
	// either vocabulary it cannot be overridden by later status updates.
	StageCancelled
)

// genericVocabulary maps generic order-status tokens to canonical stages.
var genericVocabulary = map[string]Stage{
	"pending":          StageReceived,
	"received":         StageReceived,
	"placed":           StageReceived,
	"created":          StageReceived,
	"confirmed":        StageReceived,
	"accepted":         StageReceived,
	"preparing":        StagePreparing,
	"cooking":          StagePreparing,
	"in_progress":      StagePreparing,
	"ready":            StageReadyForPickup,
	"ready_for_pickup": StageReadyForPickup,
	"prepared":         StageReadyForPickup,
	"picked_up":        StageOutForDelivery,
	"out_for_delivery": StageOutForDelivery,
	"on_the_way":       StageOutForDelivery,
	"in_transit":       StageOutForDelivery,
	"delivering":       StageOutForDelivery,
	"delivered":        StageDelivered,
	"completed":        StageDelivered,
	"done":             StageDelivered,
	"cancelled":        StageCancelled,
	"canceled":         StageCancelled,
	"rejected":         StageCancelled,
	"declined":         StageCancelled,
}

// courierVocabulary maps courier/delivery-status tokens to canonical stages.
// Pre-pickup courier statuses map below OutForDelivery so they never win
// precedence over the generic status.
var courierVocabulary = map[string]Stage{
	"assigned":         StagePreparing,
	"accepted":         StagePreparing,
	"heading_to_store": StagePreparing,
	"at_store":         StagePreparing,
	"arrived_at_store": StagePreparing,
	"picked_up":        StageOutForDelivery,
	"in_transit":       StageOutForDelivery,
	"on_the_way":       StageOutForDelivery,
	"delivering":       StageOutForDelivery,
	"arrived":          StageOutForDelivery,
	"delivered":        StageDelivered,
	"completed":        StageDelivered,
	"cancelled":        StageCancelled,
	"canceled":         StageCancelled,
	"rejected":         StageCancelled,
	"failed":           StageCancelled,
}

// stageFromOrderStatus maps one generic order-status token to a stage.
// The second result reports whether the token was recognized; unrecognized
// tokens degrade to StageReceived.
func stageFromOrderStatus(raw string) (Stage, bool) {
	if stage, ok := genericVocabulary[normalizeToken(raw)]; ok {
		return stage, true
	}
	return StageReceived, false
}

// stageFromCourierStatus maps one courier-status token to a stage.
// Unrecognized tokens degrade to StageReceived.
func stageFromCourierStatus(raw string) (Stage, bool) {
	if stage, ok := courierVocabulary[normalizeToken(raw)]; ok {
		return stage, true
	}
	return StageReceived, false
}

func normalizeToken(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Canonicalize folds a generic order status and an optional courier status
// into one canonical stage. Pure and total: any input, including empty or
// garbage strings, yields a valid Stage.
//
// Resolution rules:
//   - cancelled/rejected in either field forces StageCancelled unconditionally
//   - a courier status of OutForDelivery or Delivered wins over the generic
//     status (the courier subsystem is authoritative once delivery has begun;
//     the generic status is typically stale by then)
//   - otherwise the generic status governs
//   - unknown tokens map to StageReceived
func Canonicalize(rawStatus, rawCourierStatus string) Stage {
	stage, _ := CanonicalizeKnown(rawStatus, rawCourierStatus)
	return stage
}

// CanonicalizeKnown is Canonicalize plus a flag reporting whether every
// non-empty token was recognized. Missing tokens do not count as unknown: the
// source systems treat absent and unrecognized status identically, but callers
// feeding telemetry want to flag the latter.
func CanonicalizeKnown(rawStatus, rawCourierStatus string) (Stage, bool) {
	known := true

	generic, ok := stageFromOrderStatus(rawStatus)
	if normalizeToken(rawStatus) != "" && !ok {
		known = false
	}

	courier, ok := stageFromCourierStatus(rawCourierStatus)
	if normalizeToken(rawCourierStatus) != "" && !ok {
		known = false
	}

	if generic == StageCancelled || courier == StageCancelled {
		return StageCancelled, known
	}
	if courier == StageOutForDelivery || courier == StageDelivered {
		return courier, known
	}
	return generic, known
}

// getStageStrings returns the display names for all stages.
func getStageStrings() map[Stage]string {
	return map[Stage]string{
		StageReceived:       "Received",
		StagePreparing:      "Preparing",
		StageReadyForPickup: "ReadyForPickup",
		StageOutForDelivery: "OutForDelivery",
		StageDelivered:      "Delivered",
		StageCancelled:      "Cancelled",
	}
}

// String implements fmt.Stringer. Out-of-range values print as "Received",
// consistent with the fail-open default.
func (s Stage) String() string {
	if str, ok := getStageStrings()[s]; ok {
		return str
	}
	return "Received"
}

// IsTerminal reports whether the stage admits no further progress.
func (s Stage) IsTerminal() bool {
	return s == StageDelivered || s == StageCancelled
}

// AtLeast reports whether s has progressed to other or beyond.
// Only meaningful between non-cancelled stages; Cancelled is incomparable.
func (s Stage) AtLeast(other Stage) bool {
	return s >= other
}

// RegressesFrom reports whether observing s after prev would move the
// lifecycle backwards. Cancellation never counts as a regression (it is a
// legitimate transition from any stage), and nothing regresses from a
// cancelled order because cancellation is sticky.
func (s Stage) RegressesFrom(prev Stage) bool {
	if s == StageCancelled || prev == StageCancelled {
		return false
	}
	return s < prev
}
