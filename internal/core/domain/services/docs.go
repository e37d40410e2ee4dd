// Package services provides the pure domain services of the order lifecycle
// core:
//
//   - EvaluateWindow: the modification window policy combining order age and
//     canonical stage into an allow/deny decision with countdown seconds
//   - Aggregator: derives the single AggregatedView snapshot all observer
//     roles consume, folding parent/sub-order composites into one stage and
//     one total
//
// Both are side-effect-free on the happy path; the aggregator carries a logger
// only to report data-integrity incidents (a parent order with an empty
// sub-order list).
package services
