package realtime_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/domain/services"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource serves a sequence of resolutions; the last step repeats.
type scriptedSource struct {
	mu    sync.Mutex
	steps []func() (*order.Order, error)
	calls int
}

func (s *scriptedSource) Resolve(_ context.Context, _ kernel.UUID) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.calls
	if idx >= len(s.steps) {
		idx = len(s.steps) - 1
	}
	s.calls++
	return s.steps[idx]()
}

func serve(o *order.Order) func() (*order.Order, error) {
	return func() (*order.Order, error) { return o, nil }
}

func fail(err error) func() (*order.Order, error) {
	return func() (*order.Order, error) { return nil, err }
}

type fakeFeed struct {
	mu             sync.Mutex
	orderSignals   chan ports.ChangeSignal
	subscribeErr   error
	resubscribeErr error
	subscribes     int
}

func (f *fakeFeed) SubscribeOrder(_ context.Context, _ kernel.UUID) (<-chan ports.ChangeSignal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.subscribes++
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	if f.subscribes > 1 && f.resubscribeErr != nil {
		return nil, f.resubscribeErr
	}
	return f.orderSignals, nil
}

func (f *fakeFeed) SubscribeDriver(_ context.Context, _ kernel.UUID) (<-chan ports.LocationSignal, error) {
	return nil, errors.New("not implemented")
}

func restoreAs(t *testing.T, base *order.Order, rawStatus string) *order.Order {
	t.Helper()

	o, err := order.RestoreOrder(order.RestoreOrderParams{
		ID:           base.ID(),
		CustomerID:   base.CustomerID(),
		ProviderID:   base.ProviderID(),
		ProviderName: base.ProviderName(),
		Items:        base.Items(),
		DeliveryFee:  base.DeliveryFee(),
		Address:      base.Address(),
		CreatedAt:    base.CreatedAt(),
		RawStatus:    rawStatus,
	})
	require.NoError(t, err)
	return o
}

func trackerDeps(source realtime.SnapshotSource, feed ports.ChangeFeed) realtime.TrackerDeps {
	return realtime.TrackerDeps{
		Source:     source,
		Feed:       feed,
		Aggregator: services.NewAggregator(slog.Default(), nil),
		Logger:     slog.Default(),
	}
}

func awaitSnapshot(t *testing.T, snapshots <-chan services.AggregatedView) services.AggregatedView {
	t.Helper()

	select {
	case view, ok := <-snapshots:
		require.True(t, ok, "snapshot channel closed unexpectedly")
		return view
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return services.AggregatedView{}
	}
}

func awaitStage(t *testing.T, snapshots <-chan services.AggregatedView, stage order.Stage) services.AggregatedView {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case view, ok := <-snapshots:
			require.True(t, ok, "snapshot channel closed unexpectedly")
			if view.Stage == stage {
				return view
			}
		case <-deadline:
			t.Fatalf("timed out waiting for stage %s", stage)
			return services.AggregatedView{}
		}
	}
}

func TestTracker_DeliversInitialSnapshot(t *testing.T) {
	o := makeFlatOrder(t, "preparing")
	source := &scriptedSource{steps: []func() (*order.Order, error){serve(o)}}
	feed := &fakeFeed{orderSignals: make(chan ports.ChangeSignal)}

	tracker, err := realtime.NewTracker(o.ID(), trackerDeps(source, feed),
		realtime.WithPullInterval(time.Hour))
	require.NoError(t, err)

	require.NoError(t, tracker.Start(t.Context()))
	defer tracker.Stop()

	view := awaitSnapshot(t, tracker.Snapshots())
	assert.Equal(t, order.StagePreparing, view.Stage)
	assert.True(t, view.OrderID.IsEqual(o.ID()))
	assert.Equal(t, realtime.StateLive, tracker.State())
}

func TestTracker_PushSignalTriggersImmediatePull(t *testing.T) {
	o := makeFlatOrder(t, "preparing")
	delivered := restoreAs(t, o, "out_for_delivery")
	source := &scriptedSource{steps: []func() (*order.Order, error){serve(o), serve(delivered)}}
	signals := make(chan ports.ChangeSignal)
	feed := &fakeFeed{orderSignals: signals}

	tracker, err := realtime.NewTracker(o.ID(), trackerDeps(source, feed),
		realtime.WithPullInterval(time.Hour))
	require.NoError(t, err)

	require.NoError(t, tracker.Start(t.Context()))
	defer tracker.Stop()

	awaitStage(t, tracker.Snapshots(), order.StagePreparing)

	signals <- ports.ChangeSignal{OrderID: o.ID()}

	view := awaitStage(t, tracker.Snapshots(), order.StageOutForDelivery)
	assert.Equal(t, order.StageOutForDelivery, view.Stage)
}

func TestTracker_ParentSignalMatches(t *testing.T) {
	o := makeFlatOrder(t, "preparing")
	updated := restoreAs(t, o, "ready_for_pickup")
	source := &scriptedSource{steps: []func() (*order.Order, error){serve(o), serve(updated)}}
	signals := make(chan ports.ChangeSignal)
	feed := &fakeFeed{orderSignals: signals}

	tracker, err := realtime.NewTracker(o.ID(), trackerDeps(source, feed),
		realtime.WithPullInterval(time.Hour))
	require.NoError(t, err)

	require.NoError(t, tracker.Start(t.Context()))
	defer tracker.Stop()

	awaitStage(t, tracker.Snapshots(), order.StagePreparing)

	// A sub-order changed; its signal carries the parent id.
	parentID := o.ID()
	signals <- ports.ChangeSignal{OrderID: kernel.NewUUID(), ParentID: &parentID}

	awaitStage(t, tracker.Snapshots(), order.StageReadyForPickup)
}

func TestTracker_UnrelatedSignalIgnored(t *testing.T) {
	o := makeFlatOrder(t, "preparing")
	source := &scriptedSource{steps: []func() (*order.Order, error){serve(o)}}
	signals := make(chan ports.ChangeSignal, 1)
	feed := &fakeFeed{orderSignals: signals}

	tracker, err := realtime.NewTracker(o.ID(), trackerDeps(source, feed),
		realtime.WithPullInterval(time.Hour))
	require.NoError(t, err)

	require.NoError(t, tracker.Start(t.Context()))
	defer tracker.Stop()

	awaitStage(t, tracker.Snapshots(), order.StagePreparing)

	signals <- ports.ChangeSignal{OrderID: kernel.NewUUID()}

	// Give the loop a moment; only the initial fetch should have happened.
	time.Sleep(100 * time.Millisecond)
	source.mu.Lock()
	calls := source.calls
	source.mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestTracker_FetchFailureKeepsLastViewAndDegrades(t *testing.T) {
	o := makeFlatOrder(t, "preparing")
	source := &scriptedSource{steps: []func() (*order.Order, error){
		serve(o),
		fail(errors.New("backend unavailable")),
	}}
	signals := make(chan ports.ChangeSignal)
	feed := &fakeFeed{orderSignals: signals}

	tracker, err := realtime.NewTracker(o.ID(), trackerDeps(source, feed),
		realtime.WithPullInterval(time.Hour))
	require.NoError(t, err)

	require.NoError(t, tracker.Start(t.Context()))
	defer tracker.Stop()

	awaitStage(t, tracker.Snapshots(), order.StagePreparing)

	signals <- ports.ChangeSignal{OrderID: o.ID()}

	assert.Eventually(t, func() bool {
		return tracker.State() == realtime.StateDegraded
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTracker_StaleFetchDiscardedOnceThenAccepted(t *testing.T) {
	o := makeFlatOrder(t, "out_for_delivery")
	regressed := restoreAs(t, o, "preparing")
	source := &scriptedSource{steps: []func() (*order.Order, error){
		serve(o),
		serve(regressed),
		serve(regressed),
	}}
	signals := make(chan ports.ChangeSignal)
	feed := &fakeFeed{orderSignals: signals}
	stale := &countingReporter{}

	tracker, err := realtime.NewTracker(o.ID(), trackerDeps(source, feed),
		realtime.WithPullInterval(time.Hour),
		realtime.WithStaleCounter(stale))
	require.NoError(t, err)

	require.NoError(t, tracker.Start(t.Context()))
	defer tracker.Stop()

	awaitStage(t, tracker.Snapshots(), order.StageOutForDelivery)

	// First regressing fetch is discarded, no snapshot.
	signals <- ports.ChangeSignal{OrderID: o.ID()}
	// Second consecutive one is believed.
	signals <- ports.ChangeSignal{OrderID: o.ID()}

	awaitStage(t, tracker.Snapshots(), order.StagePreparing)
	assert.Equal(t, 1, stale.count)
}

func TestTracker_SubscribeFailureRunsPullOnly(t *testing.T) {
	o := makeFlatOrder(t, "preparing")
	source := &scriptedSource{steps: []func() (*order.Order, error){serve(o)}}
	feed := &fakeFeed{subscribeErr: errors.New("feed down")}

	tracker, err := realtime.NewTracker(o.ID(), trackerDeps(source, feed),
		realtime.WithPullInterval(20*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, tracker.Start(t.Context()))
	defer tracker.Stop()

	view := awaitSnapshot(t, tracker.Snapshots())
	assert.Equal(t, order.StagePreparing, view.Stage)
	assert.Equal(t, realtime.StateDegraded, tracker.State())
}

func TestTracker_PullContinuesWhileReconnectBacksOff(t *testing.T) {
	o := makeFlatOrder(t, "preparing")
	source := &scriptedSource{steps: []func() (*order.Order, error){serve(o)}}
	signals := make(chan ports.ChangeSignal)
	feed := &fakeFeed{
		orderSignals:   signals,
		resubscribeErr: errors.New("feed down"),
	}

	tracker, err := realtime.NewTracker(o.ID(), trackerDeps(source, feed),
		realtime.WithPullInterval(50*time.Millisecond),
		realtime.WithBackoff(realtime.BackoffConfig{
			MaxAttempts: 5,
			BaseDelay:   300 * time.Millisecond,
			MaxDelay:    time.Second,
		}))
	require.NoError(t, err)

	require.NoError(t, tracker.Start(t.Context()))
	defer tracker.Stop()

	awaitStage(t, tracker.Snapshots(), order.StagePreparing)

	close(signals)

	assert.Eventually(t, func() bool {
		return tracker.State() == realtime.StateDegraded
	}, time.Second, 10*time.Millisecond)

	source.mu.Lock()
	before := source.calls
	source.mu.Unlock()

	// The reconnect backoff runs for 900ms+ here; the pull cadence must not
	// pause while it does.
	assert.Eventually(t, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()
		return source.calls >= before+5
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, realtime.StateDegraded, tracker.State())
}

func TestTracker_PeriodicPull(t *testing.T) {
	o := makeFlatOrder(t, "preparing")
	updated := restoreAs(t, o, "delivered")
	source := &scriptedSource{steps: []func() (*order.Order, error){serve(o), serve(updated)}}

	tracker, err := realtime.NewTracker(o.ID(), trackerDeps(source, nil),
		realtime.WithPullInterval(20*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, tracker.Start(t.Context()))
	defer tracker.Stop()

	awaitStage(t, tracker.Snapshots(), order.StageDelivered)
}

func TestTracker_OnDeliveredFiresOnce(t *testing.T) {
	o := makeFlatOrder(t, "delivered")
	source := &scriptedSource{steps: []func() (*order.Order, error){serve(o)}}

	var mu sync.Mutex
	fired := 0

	tracker, err := realtime.NewTracker(o.ID(), trackerDeps(source, nil),
		realtime.WithPullInterval(10*time.Millisecond),
		realtime.WithOnDelivered(func(kernel.UUID) {
			mu.Lock()
			fired++
			mu.Unlock()
		}))
	require.NoError(t, err)

	require.NoError(t, tracker.Start(t.Context()))

	awaitStage(t, tracker.Snapshots(), order.StageDelivered)

	// Let several pull cycles pass; the hook must not fire again.
	time.Sleep(100 * time.Millisecond)
	tracker.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, fired)
}

func TestTracker_RemembersFetchesInMemorySource(t *testing.T) {
	o := makeFlatOrder(t, "preparing")
	source := &scriptedSource{steps: []func() (*order.Order, error){serve(o)}}
	memory := realtime.NewMemorySource()

	deps := trackerDeps(source, nil)
	deps.Memory = memory

	tracker, err := realtime.NewTracker(o.ID(), deps,
		realtime.WithPullInterval(time.Hour))
	require.NoError(t, err)

	require.NoError(t, tracker.Start(t.Context()))
	defer tracker.Stop()

	awaitStage(t, tracker.Snapshots(), order.StagePreparing)

	remembered, err := memory.Resolve(t.Context(), o.ID())
	require.NoError(t, err)
	assert.True(t, remembered.ID().IsEqual(o.ID()))
}

func TestTracker_StopClosesSnapshotChannel(t *testing.T) {
	o := makeFlatOrder(t, "preparing")
	source := &scriptedSource{steps: []func() (*order.Order, error){serve(o)}}

	tracker, err := realtime.NewTracker(o.ID(), trackerDeps(source, nil),
		realtime.WithPullInterval(time.Hour))
	require.NoError(t, err)

	require.NoError(t, tracker.Start(t.Context()))
	awaitStage(t, tracker.Snapshots(), order.StagePreparing)

	tracker.Stop()

	assert.Equal(t, realtime.StateClosed, tracker.State())
	_, open := <-tracker.Snapshots()
	assert.False(t, open)

	// Stop is idempotent.
	tracker.Stop()
}

func TestTracker_StartTwiceFails(t *testing.T) {
	o := makeFlatOrder(t, "preparing")
	source := &scriptedSource{steps: []func() (*order.Order, error){serve(o)}}

	tracker, err := realtime.NewTracker(o.ID(), trackerDeps(source, nil),
		realtime.WithPullInterval(time.Hour))
	require.NoError(t, err)

	require.NoError(t, tracker.Start(t.Context()))
	defer tracker.Stop()

	require.ErrorIs(t, tracker.Start(t.Context()), realtime.ErrTrackerAlreadyStarted)
}

func TestNewTracker_RequiresDeps(t *testing.T) {
	_, err := realtime.NewTracker(kernel.NewUUID(), realtime.TrackerDeps{})

	require.ErrorIs(t, err, realtime.ErrTrackerDepsAreInvalid)
}
