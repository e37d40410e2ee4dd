// Package jobs provides scheduled background tasks for the order tracking
// service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to keep the durable snapshot store warm independently of any open tracking
// session.
//
// # Available Jobs
//
// 1. SnapshotRefreshJob - Periodically re-fetches every active order from the
// backend and replaces its cached projection, so the stale-data fallback tier
// stays close to reality even for orders nobody is currently watching.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(orderRepository, snapshotCache, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Error Handling
//
// A refresh cycle never aborts on a single order: per-order failures are
// logged and the cycle continues, because one unreachable order must not
// starve the rest of the cache.
package jobs
