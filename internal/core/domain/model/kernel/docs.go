// Package kernel provides shared value objects used across the order tracking
// domain. These are the building blocks every aggregate depends on:
//
//   - UUID: validated entity identifier wrapping github.com/google/uuid
//   - GeoPoint: validated latitude/longitude position for courier tracking
//
// All value objects are immutable, constructor-validated, and safe for
// concurrent use. Zero values are invalid and fail Validate(), which protects
// against bypassed construction when reconstructing state from persistence or
// external feeds.
package kernel
