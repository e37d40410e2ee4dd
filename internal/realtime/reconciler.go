package realtime

import (
	"fmt"
	"log/slog"

	"ordertrack/internal/core/domain/services"
	"ordertrack/internal/pkg/errs"
)

// DefaultRegressionTolerance is how many consecutive fetches must report a
// stage earlier than the one on screen before the regression is believed.
const DefaultRegressionTolerance = 2

type staleCounter interface {
	Inc()
}

// Reconciler keeps the displayed view monotonic across fetches. Out-of-order
// responses from parallel data paths can briefly report an earlier stage than
// the one already shown; a single such observation is discarded, and only a
// regression confirmed by consecutive fetches is accepted as a genuine
// backend correction.
//
// Reconciler is not safe for concurrent use. The tracker run loop owns it.
type Reconciler struct {
	logger    *slog.Logger
	stale     staleCounter
	tolerance int

	current     services.AggregatedView
	hasCurrent  bool
	regressions int
}

// NewReconciler creates a reconciler with the given tolerance. Values below 1
// fall back to DefaultRegressionTolerance.
func NewReconciler(tolerance int, logger *slog.Logger, stale staleCounter) *Reconciler {
	if tolerance < 1 {
		tolerance = DefaultRegressionTolerance
	}
	return &Reconciler{
		logger:    logger.With("component", "reconciler"),
		stale:     stale,
		tolerance: tolerance,
	}
}

// Current returns the last accepted view. The second result is false until
// the first fetch has been accepted.
func (r *Reconciler) Current() (services.AggregatedView, bool) {
	return r.current, r.hasCurrent
}

// Reconcile folds a freshly fetched view into the displayed state.
//
// A fetch whose stage regresses from the displayed one is rejected with
// errs.ErrStaleRegression until it has been observed on `tolerance`
// consecutive fetches, at which point it is accepted as authoritative. Any
// non-regressing fetch resets the consecutive count. Cancellation never
// counts as a regression.
func (r *Reconciler) Reconcile(fetched services.AggregatedView) (services.AggregatedView, error) {
	if !r.hasCurrent {
		r.current = fetched
		r.hasCurrent = true
		return r.current, nil
	}

	if fetched.Stage.RegressesFrom(r.current.Stage) {
		r.regressions++
		if r.regressions < r.tolerance {
			if r.stale != nil {
				r.stale.Inc()
			}
			r.logger.Warn("discarding stale fetch",
				"order_id", fetched.OrderID.String(),
				"displayed", r.current.Stage.String(),
				"fetched", fetched.Stage.String(),
				"consecutive", r.regressions,
			)
			return r.current, fmt.Errorf("stage %s behind displayed %s: %w",
				fetched.Stage, r.current.Stage, errs.ErrStaleRegression)
		}

		r.logger.Info("accepting confirmed regression",
			"order_id", fetched.OrderID.String(),
			"displayed", r.current.Stage.String(),
			"fetched", fetched.Stage.String(),
		)
	}

	r.regressions = 0
	r.current = fetched
	return r.current, nil
}
