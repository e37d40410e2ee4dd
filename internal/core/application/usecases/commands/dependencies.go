// Package commands implements the mutation transactor: one command and one
// handler per order mutation (add item, edit quantity, remove item, cancel).
//
// Every handler follows the same discipline:
//   - re-fetch the order and re-evaluate the modification window against the
//     current clock before applying anything, even when the caller's UI
//     already allowed the action; the snapshot may have advanced between
//     render and click
//   - submit the change as a single request to the backend repository and
//     return only the acknowledged record (confirm-then-apply; no optimistic
//     local state)
//   - bound the round trip with a timeout, surfacing errs.ErrTimeout whose
//     outcome is ambiguous by contract
package commands

import (
	"time"

	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/domain/services"
)

// DefaultMutationTimeout bounds one mutation round trip to the backend.
const DefaultMutationTimeout = 15 * time.Second

// Clock abstracts time for window evaluation so handlers are testable at
// fixed instants.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// aggregating is the slice of the aggregator the handlers need.
type aggregating interface {
	Aggregate(o *order.Order) services.AggregatedView
}
