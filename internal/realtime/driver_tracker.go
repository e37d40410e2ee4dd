package realtime

import (
	"context"
	"log/slog"
	"sync"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/ports"
)

// DriverTracker streams courier positions for one driver id. Positions are
// last-write-wins and need no reconciliation; the tracker's job is the
// subscription lifecycle: connect, forward, reconnect with backoff, degrade
// when the feed stays down.
type DriverTracker struct {
	driverID kernel.UUID
	feed     ports.ChangeFeed
	logger   *slog.Logger
	backoff  BackoffConfig

	mu      sync.Mutex
	state   State
	started bool
	stopped bool

	positions chan ports.LocationSignal
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewDriverTracker creates a tracker for the given driver id.
func NewDriverTracker(
	driverID kernel.UUID,
	feed ports.ChangeFeed,
	logger *slog.Logger,
	backoff BackoffConfig,
) (*DriverTracker, error) {
	if err := driverID.Validate(); err != nil {
		return nil, err
	}
	if feed == nil || logger == nil {
		return nil, ErrTrackerDepsAreInvalid
	}

	return &DriverTracker{
		driverID:  driverID,
		feed:      feed,
		logger:    logger.With("component", "driver_tracker", "driver_id", driverID.String()),
		backoff:   backoff,
		state:     StateConnecting,
		positions: make(chan ports.LocationSignal, 16),
		done:      make(chan struct{}),
	}, nil
}

// Positions delivers location reports. The channel is closed by Stop.
func (t *DriverTracker) Positions() <-chan ports.LocationSignal {
	return t.positions
}

// State returns the current connection state.
func (t *DriverTracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start launches the forwarding loop. It returns an error when called twice.
func (t *DriverTracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return ErrTrackerAlreadyStarted
	}
	t.started = true

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	go t.run(runCtx)
	return nil
}

// Stop cancels the loop, waits for it and closes the position channel. Safe
// to call more than once.
func (t *DriverTracker) Stop() {
	t.mu.Lock()
	if !t.started || t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	cancel := t.cancel
	t.mu.Unlock()

	cancel()
	<-t.done

	t.setState(StateClosed)
	close(t.positions)
}

func (t *DriverTracker) run(ctx context.Context) {
	defer close(t.done)

	signals, err := t.feed.SubscribeDriver(ctx, t.driverID)
	if err != nil {
		t.logger.Warn("driver subscribe failed", "error", err)
		signals = t.resubscribe(ctx)
	}

	for signals != nil {
		t.setState(StateLive)

	forward:
		for {
			select {
			case <-ctx.Done():
				return
			case signal, ok := <-signals:
				if !ok {
					break forward
				}
				select {
				case t.positions <- signal:
				case <-ctx.Done():
					return
				}
			}
		}

		signals = t.resubscribe(ctx)
	}

	t.setState(StateDegraded)
	<-ctx.Done()
}

func (t *DriverTracker) setState(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateClosed {
		return
	}
	t.state = s
}

func (t *DriverTracker) resubscribe(ctx context.Context) <-chan ports.LocationSignal {
	for attempt := 1; attempt <= t.backoff.MaxAttempts; attempt++ {
		signals, err := t.feed.SubscribeDriver(ctx, t.driverID)
		if err == nil {
			t.logger.Info("driver feed reconnected", "attempt", attempt)
			return signals
		}

		if ctx.Err() != nil || attempt == t.backoff.MaxAttempts {
			break
		}

		delay := t.backoff.Delay(attempt)
		t.logger.Warn("driver reconnect failed",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if !sleepWithContext(ctx, delay) {
			break
		}
	}

	t.logger.Warn("driver feed lost")
	return nil
}
