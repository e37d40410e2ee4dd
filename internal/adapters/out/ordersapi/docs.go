// Package ordersapi is the HTTP driven adapter for the backend orders
// service. It implements ports.OrderRepository, translating wire DTOs into
// domain aggregates and HTTP failures into the shared error taxonomy, with an
// optional retrying decorator for propagation lag.
package ordersapi
