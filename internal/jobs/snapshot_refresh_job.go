package jobs

import (
	"context"
	"errors"
	"log/slog"

	"ordertrack/internal/core/ports"
	"ordertrack/internal/pkg/errs"

	"github.com/robfig/cron/v3"
)

// DefaultRefreshSchedule re-fetches active orders every 20 seconds, matching
// the propagation lag of the backend read replicas.
const DefaultRefreshSchedule = "*/20 * * * * *"

// SnapshotRefreshJob keeps the durable snapshot store warm. On every tick it
// re-fetches each active order from the backend and atomically replaces its
// cached projection.
type SnapshotRefreshJob struct {
	orders   ports.OrderRepository
	cache    ports.SnapshotCache
	cron     *cron.Cron
	schedule string
	logger   *slog.Logger
}

// NewSnapshotRefreshJob creates a refresh job on the default schedule.
func NewSnapshotRefreshJob(
	orders ports.OrderRepository,
	cache ports.SnapshotCache,
	logger *slog.Logger,
) *SnapshotRefreshJob {
	return &SnapshotRefreshJob{
		orders:   orders,
		cache:    cache,
		cron:     cron.New(cron.WithSeconds()),
		schedule: DefaultRefreshSchedule,
		logger:   logger.With("component", "snapshot_refresh_job"),
	}
}

// Start begins the periodic refresh.
func (j *SnapshotRefreshJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		j.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Snapshot refresh job started",
		"schedule", j.schedule)
	return nil
}

// Stop stops the refresh job.
func (j *SnapshotRefreshJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Snapshot refresh job stopped")
}

// RunOnce performs one refresh cycle. Per-order failures are logged and
// skipped; the cycle always visits every active order.
func (j *SnapshotRefreshJob) RunOnce(ctx context.Context) {
	active, err := j.cache.ListActive(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list active orders for refresh", "error", err)
		return
	}

	refreshed := 0
	for _, cached := range active {
		fresh, err := j.orders.GetOrder(ctx, cached.ID())
		if err != nil {
			if errors.Is(err, errs.ErrObjectNotFound) {
				// The backend no longer knows the order; keep the last
				// snapshot rather than dropping the customer's history.
				j.logger.WarnContext(ctx, "Active order missing from backend",
					"order_id", cached.ID().String())
				continue
			}
			j.logger.WarnContext(ctx, "Failed to refresh order snapshot",
				"order_id", cached.ID().String(), "error", err)
			continue
		}

		if err := j.cache.Put(ctx, fresh); err != nil {
			j.logger.WarnContext(ctx, "Failed to store refreshed snapshot",
				"order_id", cached.ID().String(), "error", err)
			continue
		}
		refreshed++
	}

	j.logger.DebugContext(ctx, "Snapshot refresh cycle finished",
		"active", len(active), "refreshed", refreshed)
}
