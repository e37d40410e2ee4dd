// Package metrics declares the Prometheus counters the order tracking core
// emits. Constructors return unregistered counters; the composition root
// registers them and hands them to the components that increment them.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewUnknownStatusTokensTotal returns a counter for backend status tokens the
// canonicalizer did not recognize. Unknown tokens fail open to the Received
// stage, so a rising count means the backend grew a new status value.
func NewUnknownStatusTokensTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "unknown_status_tokens_total",
		Help: "Total number of unrecognized backend status tokens",
	})
}

// NewStaleRegressionsTotal returns a counter for fetches discarded because
// they would move a displayed order stage backwards.
func NewStaleRegressionsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stale_regressions_total",
		Help: "Total number of fetched snapshots discarded as stale stage regressions",
	})
}

// NewPushReconnectsTotal returns a counter for push channel reconnect attempts.
func NewPushReconnectsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "push_reconnects_total",
		Help: "Total number of push channel reconnect attempts",
	})
}

// NewPullCyclesTotal returns a counter for tracker fetch cycles.
func NewPullCyclesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pull_cycles_total",
		Help: "Total number of tracker fetch cycles",
	})
}

// NewDegradedAggregationsTotal returns a counter for aggregated views built
// from structurally suspect data, such as a parent order with no sub-orders.
func NewDegradedAggregationsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "degraded_aggregations_total",
		Help: "Total number of aggregated views built from structurally suspect data",
	})
}

// NewRepositoryRetriesTotal returns a counter for retry attempts against the
// backend orders service.
func NewRepositoryRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "repository_retries_total",
		Help: "Total number of retry attempts against the backend orders service",
	})
}
