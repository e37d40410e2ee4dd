// Package order provides the domain model for the order lifecycle core: the
// Order aggregate root, its SubOrder slices for split multi-vendor orders,
// LineItem and Courier value objects, and the canonical lifecycle Stage with
// the status canonicalizer.
//
// Key business rules:
//   - An order is either flat (own items, one provider) or a parent (no items
//     of its own, one sub-order per provider), never both
//   - Raw status strings from the generic and courier vocabularies are folded
//     into one ordered Stage; nothing outside lifecycle.go branches on raw strings
//   - Cancellation is sticky: once either vocabulary reports it, no later
//     status update overrides it
//   - A line item quantity change to zero or less is a removal
//
// Everything here is a client-side projection of the backend order record,
// which remains the single source of truth.
package order
