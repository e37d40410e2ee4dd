package ordersapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/pkg/errs"
)

type counter interface {
	Inc()
}

// RetryConfig bounds the retry loop of RetryingRepository.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig covers backend propagation lag after order placement:
// three attempts, 500ms base, 5s cap.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// RetryingRepository decorates a ports.OrderRepository with bounded retries.
//
// Reads retry on not-found (a just-placed order may not have propagated to
// the read path yet) and on timeout. Mutations retry on not-found only: a
// timed-out mutation may have been applied server-side, and resubmitting it
// could apply the change twice. Policy errors (closed window, provider
// mismatch) are never retried.
type RetryingRepository struct {
	next    ports.OrderRepository
	logger  *slog.Logger
	retries counter
	cfg     RetryConfig
}

// NewRetryingRepository wraps next with the retry policy. Returns nil when
// next is nil.
func NewRetryingRepository(
	next ports.OrderRepository,
	logger *slog.Logger,
	retries counter,
	cfg RetryConfig,
) *RetryingRepository {
	if next == nil {
		return nil
	}
	return &RetryingRepository{
		next:    next,
		logger:  logger.With("component", "retrying_repository"),
		retries: retries,
		cfg:     cfg,
	}
}

func (r *RetryingRepository) GetOrder(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		resolved, err := r.next.GetOrder(ctx, id)
		if err == nil {
			return resolved, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == r.cfg.MaxAttempts || !isRetryableRead(err) {
			break
		}
		if !r.wait(ctx, "GetOrder", attempt, err) {
			break
		}
	}
	return nil, lastErr
}

func (r *RetryingRepository) ListSubOrders(ctx context.Context, parentID kernel.UUID) ([]order.SubOrder, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		subOrders, err := r.next.ListSubOrders(ctx, parentID)
		if err == nil {
			return subOrders, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == r.cfg.MaxAttempts || !isRetryableRead(err) {
			break
		}
		if !r.wait(ctx, "ListSubOrders", attempt, err) {
			break
		}
	}
	return nil, lastErr
}

func (r *RetryingRepository) ApplyMutation(
	ctx context.Context,
	orderID kernel.UUID,
	request ports.MutationRequest,
) (*order.Order, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		acked, err := r.next.ApplyMutation(ctx, orderID, request)
		if err == nil {
			return acked, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == r.cfg.MaxAttempts || !isRetryableMutation(err) {
			break
		}
		if !r.wait(ctx, "ApplyMutation", attempt, err) {
			break
		}
	}
	return nil, lastErr
}

func (r *RetryingRepository) wait(ctx context.Context, method string, attempt int, cause error) bool {
	delay := retryBackoff(r.cfg.BaseDelay, r.cfg.MaxDelay, attempt)
	if r.retries != nil {
		r.retries.Inc()
	}
	r.logger.Warn("orders backend retry",
		"method", method,
		"attempt", attempt,
		"delay", delay,
		"error", cause,
	)
	return retrySleep(ctx, delay)
}

func isRetryableRead(err error) bool {
	return errors.Is(err, errs.ErrObjectNotFound) || errors.Is(err, errs.ErrTimeout)
}

// isRetryableMutation excludes timeouts: the outcome of a timed-out mutation
// is ambiguous and must be surfaced, not resubmitted.
func isRetryableMutation(err error) bool {
	if errors.Is(err, errs.ErrWindowClosed) || errors.Is(err, errs.ErrProviderMismatch) {
		return false
	}
	return errors.Is(err, errs.ErrObjectNotFound)
}

func retryBackoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max {
		return max
	}
	return d
}

func retrySleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
