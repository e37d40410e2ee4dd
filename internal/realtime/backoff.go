package realtime

import (
	"context"
	"time"
)

// BackoffConfig bounds push-feed reconnect attempts.
type BackoffConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultBackoffConfig returns the reconnect policy used by trackers unless
// overridden: five attempts, starting at 500ms, capped at 10s.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// Delay computes the exponential delay for the given 1-based attempt.
func (c BackoffConfig) Delay(attempt int) time.Duration {
	d := c.BaseDelay << (attempt - 1)
	if d > c.MaxDelay {
		return c.MaxDelay
	}
	return d
}

// sleepWithContext waits for d or until ctx is done. Returns false when the
// context ended first.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
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
