package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/domain/services"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/pkg/errs"
)

// State is the tracker connection state.
type State int

const (
	// StateConnecting is the initial state before the first fetch completes.
	StateConnecting State = iota
	// StateLive means the push feed is connected and fetches are succeeding.
	StateLive
	// StateDegraded means the tracker runs on pull-only or the last fetch
	// failed; the last known good view stays on screen.
	StateDegraded
	// StateClosed means Stop has been called.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateLive:
		return "Live"
	case StateDegraded:
		return "Degraded"
	case StateClosed:
		return "Closed"
	default:
		return "Connecting"
	}
}

// DefaultPullInterval is the detail-view fetch cadence. Dashboard consumers
// override it to 20-30s via WithPullInterval.
const DefaultPullInterval = 5 * time.Second

type aggregating interface {
	Aggregate(o *order.Order) services.AggregatedView
}

// TrackerDeps are the collaborators a Tracker runs on. Source, Aggregator and
// Logger are required. Feed is optional: without one the tracker is pull-only
// and reports Degraded. Memory and Cache are optional write-through tiers
// refreshed after every successful fetch.
type TrackerDeps struct {
	Source     SnapshotSource
	Feed       ports.ChangeFeed
	Aggregator aggregating
	Memory     *MemorySource
	Cache      ports.SnapshotCache
	Logger     *slog.Logger
}

type trackerOptions struct {
	pullInterval time.Duration
	backoff      BackoffConfig
	tolerance    int
	onDelivered  func(kernel.UUID)
	stale        staleCounter
	reconnects   staleCounter
	pulls        staleCounter
}

// TrackerOption tunes a Tracker.
type TrackerOption func(*trackerOptions)

// WithPullInterval overrides the periodic fetch cadence.
func WithPullInterval(d time.Duration) TrackerOption {
	return func(o *trackerOptions) {
		if d > 0 {
			o.pullInterval = d
		}
	}
}

// WithBackoff overrides the push reconnect policy.
func WithBackoff(cfg BackoffConfig) TrackerOption {
	return func(o *trackerOptions) { o.backoff = cfg }
}

// WithRegressionTolerance overrides how many consecutive regressing fetches
// are required before a stage rollback is accepted.
func WithRegressionTolerance(n int) TrackerOption {
	return func(o *trackerOptions) { o.tolerance = n }
}

// WithOnDelivered registers a hook fired at most once when the tracked order
// reaches the Delivered stage.
func WithOnDelivered(fn func(orderID kernel.UUID)) TrackerOption {
	return func(o *trackerOptions) { o.onDelivered = fn }
}

// WithStaleCounter wires a counter incremented on every discarded stale fetch.
func WithStaleCounter(c interface{ Inc() }) TrackerOption {
	return func(o *trackerOptions) { o.stale = c }
}

// WithReconnectCounter wires a counter incremented on every push reconnect
// attempt.
func WithReconnectCounter(c interface{ Inc() }) TrackerOption {
	return func(o *trackerOptions) { o.reconnects = c }
}

// WithPullCounter wires a counter incremented on every fetch cycle.
func WithPullCounter(c interface{ Inc() }) TrackerOption {
	return func(o *trackerOptions) { o.pulls = c }
}

var ErrTrackerDepsAreInvalid = errors.New(
	"Source, Aggregator and Logger are required for Tracker",
)

var ErrTrackerAlreadyStarted = errors.New("tracker has already been started")

// Tracker keeps one order's aggregated view current. It pulls on a fixed
// cadence, reacts to push signals with an immediate fetch, reconciles fetches
// against the displayed view, and survives push-feed loss by degrading to
// pull-only. The latest accepted view is delivered on Snapshots.
type Tracker struct {
	orderID kernel.UUID
	deps    TrackerDeps
	opts    trackerOptions

	reconciler *Reconciler
	logger     *slog.Logger

	mu         sync.Mutex
	state      State
	started    bool
	stopped    bool
	celebrated map[kernel.UUID]struct{}

	snapshots chan services.AggregatedView
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewTracker creates a tracker for the given order id.
func NewTracker(orderID kernel.UUID, deps TrackerDeps, opts ...TrackerOption) (*Tracker, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}
	if deps.Source == nil || deps.Aggregator == nil || deps.Logger == nil {
		return nil, ErrTrackerDepsAreInvalid
	}

	options := trackerOptions{
		pullInterval: DefaultPullInterval,
		backoff:      DefaultBackoffConfig(),
		tolerance:    DefaultRegressionTolerance,
	}
	for _, opt := range opts {
		opt(&options)
	}

	logger := deps.Logger.With("component", "tracker", "order_id", orderID.String())

	return &Tracker{
		orderID:    orderID,
		deps:       deps,
		opts:       options,
		reconciler: NewReconciler(options.tolerance, logger, options.stale),
		logger:     logger,
		state:      StateConnecting,
		celebrated: make(map[kernel.UUID]struct{}),
		snapshots:  make(chan services.AggregatedView, 1),
		done:       make(chan struct{}),
	}, nil
}

// Snapshots delivers accepted views, latest wins. The channel is closed by
// Stop.
func (t *Tracker) Snapshots() <-chan services.AggregatedView {
	return t.snapshots
}

// State returns the current connection state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start launches the run loop. It returns an error when called twice.
func (t *Tracker) Start(ctx context.Context) error {
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

// Stop cancels the run loop, waits for it to finish and closes the snapshot
// channel. Nothing is delivered after Stop returns. Safe to call more than
// once.
func (t *Tracker) Stop() {
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
	close(t.snapshots)
}

func (t *Tracker) run(ctx context.Context) {
	defer close(t.done)

	signals := t.subscribe(ctx)
	pushAlive := signals != nil

	t.pull(ctx, pushAlive)

	ticker := time.NewTicker(t.opts.pullInterval)
	defer ticker.Stop()

	// Reconnect attempts run off-loop so their backoff sleeps never stall the
	// pull timer. While one is in flight, signals is nil and the tracker is
	// Degraded; the fresh channel (or nil after exhaustion) arrives here.
	reconnected := make(chan (<-chan ports.ChangeSignal), 1)

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			t.pull(ctx, pushAlive)

		case fresh := <-reconnected:
			signals = fresh
			pushAlive = fresh != nil

		case signal, ok := <-signals:
			if !ok {
				signals = nil
				pushAlive = false
				t.setState(StateDegraded)
				go func() { reconnected <- t.resubscribe(ctx) }()
				continue
			}
			if signal.Matches(t.orderID) {
				t.pull(ctx, pushAlive)
			}
		}
	}
}

// subscribe opens the push subscription once. A nil feed or a failed first
// subscribe leaves the tracker pull-only.
func (t *Tracker) subscribe(ctx context.Context) <-chan ports.ChangeSignal {
	if t.deps.Feed == nil {
		return nil
	}

	signals, err := t.deps.Feed.SubscribeOrder(ctx, t.orderID)
	if err != nil {
		t.logger.Warn("push subscribe failed, running pull-only", "error", err)
		return nil
	}
	return signals
}

// resubscribe retries the push subscription with bounded exponential backoff.
// Returns nil when every attempt failed.
func (t *Tracker) resubscribe(ctx context.Context) <-chan ports.ChangeSignal {
	if t.deps.Feed == nil {
		return nil
	}

	for attempt := 1; attempt <= t.opts.backoff.MaxAttempts; attempt++ {
		if t.opts.reconnects != nil {
			t.opts.reconnects.Inc()
		}

		signals, err := t.deps.Feed.SubscribeOrder(ctx, t.orderID)
		if err == nil {
			t.logger.Info("push feed reconnected", "attempt", attempt)
			return signals
		}

		if ctx.Err() != nil || attempt == t.opts.backoff.MaxAttempts {
			break
		}

		delay := t.opts.backoff.Delay(attempt)
		t.logger.Warn("push reconnect failed",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if !sleepWithContext(ctx, delay) {
			break
		}
	}

	t.logger.Warn("push feed lost, degrading to pull-only")
	return nil
}

func (t *Tracker) pull(ctx context.Context, pushAlive bool) {
	if ctx.Err() != nil {
		return
	}
	if t.opts.pulls != nil {
		t.opts.pulls.Inc()
	}

	resolved, err := t.deps.Source.Resolve(ctx, t.orderID)
	if err != nil {
		t.logger.Warn("fetch failed, keeping last known view", "error", err)
		t.setState(StateDegraded)
		return
	}

	if t.deps.Memory != nil {
		t.deps.Memory.Remember(resolved)
	}
	if t.deps.Cache != nil {
		if err := t.deps.Cache.Put(ctx, resolved); err != nil {
			t.logger.Warn("snapshot cache write failed", "error", err)
		}
	}

	view := t.deps.Aggregator.Aggregate(resolved)
	accepted, err := t.reconciler.Reconcile(view)
	if err != nil {
		if !errors.Is(err, errs.ErrStaleRegression) {
			t.logger.Error("reconcile failed", "error", err)
		}
		return
	}

	if pushAlive {
		t.setState(StateLive)
	} else {
		t.setState(StateDegraded)
	}

	t.publish(accepted)
	t.celebrate(accepted)
}

// publish delivers latest-wins: a slow consumer sees the newest view, never a
// backlog.
func (t *Tracker) publish(view services.AggregatedView) {
	select {
	case t.snapshots <- view:
	default:
		select {
		case <-t.snapshots:
		default:
		}
		select {
		case t.snapshots <- view:
		default:
		}
	}
}

func (t *Tracker) celebrate(view services.AggregatedView) {
	if t.opts.onDelivered == nil || view.Stage != order.StageDelivered {
		return
	}

	t.mu.Lock()
	_, done := t.celebrated[view.OrderID]
	if !done {
		t.celebrated[view.OrderID] = struct{}{}
	}
	t.mu.Unlock()

	if !done {
		t.opts.onDelivered(view.OrderID)
	}
}

func (t *Tracker) setState(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateClosed {
		return
	}
	t.state = s
}
