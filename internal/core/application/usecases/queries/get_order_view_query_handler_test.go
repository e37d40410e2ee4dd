package queries_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"ordertrack/internal/core/application/usecases/queries"
	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/domain/services"
	"ordertrack/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) GetOrder(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListSubOrders(ctx context.Context, parentID kernel.UUID) ([]order.SubOrder, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.SubOrder), args.Error(1)
}

func (m *MockOrderRepository) ApplyMutation(
	ctx context.Context, orderID kernel.UUID, request ports.MutationRequest,
) (*order.Order, error) {
	args := m.Called(ctx, orderID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockSnapshotCache struct {
	mock.Mock
}

func (m *MockSnapshotCache) Put(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockSnapshotCache) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockSnapshotCache) ListActive(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func makeOrder(t *testing.T, rawStatus string, createdAt time.Time) *order.Order {
	t.Helper()

	item, err := order.NewLineItem(kernel.NewUUID(), "Margherita", 12.5, 2, "")
	require.NoError(t, err)

	o, err := order.RestoreOrder(order.RestoreOrderParams{
		ID:           kernel.NewUUID(),
		CustomerID:   kernel.NewUUID(),
		ProviderID:   kernel.NewUUID(),
		ProviderName: "Pizza Corner",
		Items:        []order.LineItem{item},
		DeliveryFee:  3.0,
		Address:      "10 Main St",
		CreatedAt:    createdAt,
		RawStatus:    rawStatus,
	})
	require.NoError(t, err)
	return o
}

func TestGetOrderViewQueryHandler_Handle_Success(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	o := makeOrder(t, "preparing", createdAt)

	query, err := queries.NewGetOrderViewQuery(o.ID())
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	repo.On("GetOrder", mock.Anything, o.ID()).Return(o, nil).Once()

	handler, err := queries.NewGetOrderViewQueryHandler(
		repo, nil, services.NewAggregator(slog.Default(), nil), fixedClock{createdAt.Add(100 * time.Second)})
	require.NoError(t, err)

	resp, err := handler.Handle(t.Context(), query)

	require.NoError(t, err)
	assert.Equal(t, order.StagePreparing, resp.View.Stage)
	assert.InDelta(t, 28.0, resp.View.Total, 0.001)
	assert.False(t, resp.FromCache)
	assert.False(t, resp.View.Degraded)
	assert.True(t, resp.Window.Allowed)
	assert.Equal(t, 200, resp.Window.SecondsRemaining)
	repo.AssertExpectations(t)
}

func TestGetOrderViewQueryHandler_Handle_FallsBackToSnapshot(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	o := makeOrder(t, "out_for_delivery", createdAt)

	query, err := queries.NewGetOrderViewQuery(o.ID())
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	repo.On("GetOrder", mock.Anything, o.ID()).Return(nil, errors.New("backend unavailable")).Once()

	cache := new(MockSnapshotCache)
	cache.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()

	handler, err := queries.NewGetOrderViewQueryHandler(
		repo, cache, services.NewAggregator(slog.Default(), nil), fixedClock{createdAt.Add(time.Minute)})
	require.NoError(t, err)

	resp, err := handler.Handle(t.Context(), query)

	require.NoError(t, err)
	assert.True(t, resp.FromCache)
	assert.True(t, resp.View.Degraded)
	assert.Equal(t, order.StageOutForDelivery, resp.View.Stage)
	assert.False(t, resp.Window.Allowed)
	cache.AssertExpectations(t)
}

func TestGetOrderViewQueryHandler_Handle_NoFallbackConfigured(t *testing.T) {
	query, err := queries.NewGetOrderViewQuery(kernel.NewUUID())
	require.NoError(t, err)

	liveErr := errors.New("backend unavailable")
	repo := new(MockOrderRepository)
	repo.On("GetOrder", mock.Anything, mock.Anything).Return(nil, liveErr).Once()

	handler, err := queries.NewGetOrderViewQueryHandler(
		repo, nil, services.NewAggregator(slog.Default(), nil), queries.SystemClock{})
	require.NoError(t, err)

	_, err = handler.Handle(t.Context(), query)

	require.ErrorIs(t, err, liveErr)
}

func TestGetOrderViewQueryHandler_Handle_BothSourcesFail(t *testing.T) {
	query, err := queries.NewGetOrderViewQuery(kernel.NewUUID())
	require.NoError(t, err)

	liveErr := errors.New("backend unavailable")
	repo := new(MockOrderRepository)
	repo.On("GetOrder", mock.Anything, mock.Anything).Return(nil, liveErr).Once()

	cache := new(MockSnapshotCache)
	cache.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("no snapshot")).Once()

	handler, err := queries.NewGetOrderViewQueryHandler(
		repo, cache, services.NewAggregator(slog.Default(), nil), queries.SystemClock{})
	require.NoError(t, err)

	_, err = handler.Handle(t.Context(), query)

	// The live error wins over the cache miss.
	require.ErrorIs(t, err, liveErr)
}

func TestNewGetOrderViewQueryHandler_RequiresDependencies(t *testing.T) {
	_, err := queries.NewGetOrderViewQueryHandler(nil, nil, nil, nil)

	require.ErrorIs(t, err, queries.ErrGetOrderViewQueryHandlerParamsAreInvalid)
}

func TestGetOrderViewQueryHandler_Handle_InvalidQuery(t *testing.T) {
	handler, err := queries.NewGetOrderViewQueryHandler(
		new(MockOrderRepository), nil, services.NewAggregator(slog.Default(), nil), queries.SystemClock{})
	require.NoError(t, err)

	_, err = handler.Handle(t.Context(), queries.GetOrderViewQuery{})

	require.ErrorIs(t, err, queries.ErrGetOrderViewQueryIsNotConstructed)
}
