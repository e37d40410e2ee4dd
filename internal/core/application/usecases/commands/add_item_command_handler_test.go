package commands_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"ordertrack/internal/core/application/usecases/commands"
	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/domain/services"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

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

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func testAggregator() services.Aggregator {
	return services.NewAggregator(slog.Default(), nil)
}

func makeItem(t *testing.T, name string, price float64, qty int) order.LineItem {
	t.Helper()
	item, err := order.NewLineItem(kernel.NewUUID(), name, price, qty, "")
	require.NoError(t, err)
	return item
}

func makeOrder(t *testing.T, providerID kernel.UUID, rawStatus string, createdAt time.Time, items ...order.LineItem) *order.Order {
	t.Helper()
	o, err := order.RestoreOrder(order.RestoreOrderParams{
		ID:           kernel.NewUUID(),
		CustomerID:   kernel.NewUUID(),
		ProviderID:   providerID,
		ProviderName: "Burger Palace",
		Items:        items,
		DeliveryFee:  10,
		Address:      "1 Main St",
		CreatedAt:    createdAt,
		RawStatus:    rawStatus,
	})
	require.NoError(t, err)
	return o
}

func TestAddItemCommandHandler_Handle_Success(t *testing.T) {
	providerID := kernel.NewUUID()
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := makeOrder(t, providerID, "pending", createdAt, makeItem(t, "Burger", 50, 2))

	cmd, err := commands.NewAddItemCommand(current.ID(), providerID, makeItem(t, "Fries", 15, 1))
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	repo.On("GetOrder", mock.Anything, current.ID()).Return(current, nil).Once()
	repo.On("ApplyMutation", mock.Anything, current.ID(),
		mock.MatchedBy(func(r ports.MutationRequest) bool {
			return r.Kind == ports.MutationAddItem && r.Item != nil && r.Item.Name() == "Fries"
		})).Return(current, nil).Once()

	h := commands.NewAddItemCommandHandler(repo, testAggregator(), fixedClock{createdAt.Add(100 * time.Second)})
	acked, err := h.Handle(t.Context(), cmd)

	require.NoError(t, err)
	require.NotNil(t, acked)
	repo.AssertExpectations(t)
}

func TestAddItemCommandHandler_Handle_WindowClosedByTime(t *testing.T) {
	providerID := kernel.NewUUID()
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := makeOrder(t, providerID, "pending", createdAt, makeItem(t, "Burger", 50, 2))

	cmd, err := commands.NewAddItemCommand(current.ID(), providerID, makeItem(t, "Fries", 15, 1))
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	repo.On("GetOrder", mock.Anything, current.ID()).Return(current, nil).Once()

	h := commands.NewAddItemCommandHandler(repo, testAggregator(), fixedClock{createdAt.Add(301 * time.Second)})
	_, err = h.Handle(t.Context(), cmd)

	require.ErrorIs(t, err, errs.ErrWindowClosed)
	repo.AssertNotCalled(t, "ApplyMutation", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddItemCommandHandler_Handle_WindowClosedByCourierStatus(t *testing.T) {
	// The generic status still says pending, but the courier is already on the
	// road; the handler must see the canonical stage and refuse.
	providerID := kernel.NewUUID()
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current, err := order.RestoreOrder(order.RestoreOrderParams{
		ID:               kernel.NewUUID(),
		CustomerID:       kernel.NewUUID(),
		ProviderID:       providerID,
		ProviderName:     "Burger Palace",
		Items:            []order.LineItem{makeItem(t, "Burger", 50, 2)},
		DeliveryFee:      10,
		CreatedAt:        createdAt,
		RawStatus:        "pending",
		RawCourierStatus: "in_transit",
	})
	require.NoError(t, err)

	cmd, err := commands.NewAddItemCommand(current.ID(), providerID, makeItem(t, "Fries", 15, 1))
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	repo.On("GetOrder", mock.Anything, current.ID()).Return(current, nil).Once()

	// Ten seconds in: the time gate alone would allow it.
	h := commands.NewAddItemCommandHandler(repo, testAggregator(), fixedClock{createdAt.Add(10 * time.Second)})
	_, err = h.Handle(t.Context(), cmd)

	require.ErrorIs(t, err, errs.ErrWindowClosed)
}

func TestAddItemCommandHandler_Handle_ProviderMismatch(t *testing.T) {
	providerID := kernel.NewUUID()
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := makeOrder(t, providerID, "pending", createdAt, makeItem(t, "Burger", 50, 2))

	cmd, err := commands.NewAddItemCommand(current.ID(), kernel.NewUUID(), makeItem(t, "Sushi", 80, 1))
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	repo.On("GetOrder", mock.Anything, current.ID()).Return(current, nil).Once()

	h := commands.NewAddItemCommandHandler(repo, testAggregator(), fixedClock{createdAt.Add(10 * time.Second)})
	_, err = h.Handle(t.Context(), cmd)

	require.ErrorIs(t, err, errs.ErrProviderMismatch)
	repo.AssertNotCalled(t, "ApplyMutation", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddItemCommandHandler_Handle_ParentOrderProvider(t *testing.T) {
	parentID := kernel.NewUUID()
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sub, err := order.RestoreSubOrder(order.RestoreSubOrderParams{
		ID:           kernel.NewUUID(),
		ParentID:     parentID,
		ProviderID:   kernel.NewUUID(),
		ProviderName: "Pizzeria",
		Items:        []order.LineItem{makeItem(t, "Pizza", 30, 1)},
		RawStatus:    "preparing",
	})
	require.NoError(t, err)

	parent, err := order.RestoreOrder(order.RestoreOrderParams{
		ID:         parentID,
		CustomerID: kernel.NewUUID(),
		IsParent:   true,
		SubOrders:  []order.SubOrder{sub},
		CreatedAt:  createdAt,
		RawStatus:  "pending",
	})
	require.NoError(t, err)

	cmd, err := commands.NewAddItemCommand(parentID, sub.ProviderID(), makeItem(t, "Calzone", 35, 1))
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	repo.On("GetOrder", mock.Anything, parentID).Return(parent, nil).Once()
	repo.On("ApplyMutation", mock.Anything, parentID, mock.Anything).Return(parent, nil).Once()

	h := commands.NewAddItemCommandHandler(repo, testAggregator(), fixedClock{createdAt.Add(10 * time.Second)})
	_, err = h.Handle(t.Context(), cmd)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAddItemCommandHandler_Handle_ValidationError(t *testing.T) {
	var cmd commands.AddItemCommand // not constructed properly

	repo := new(MockOrderRepository)
	h := commands.NewAddItemCommandHandler(repo, testAggregator(), fixedClock{time.Now()})

	_, err := h.Handle(t.Context(), cmd)
	assert.ErrorIs(t, err, commands.ErrAddItemCommandIsNotConstructed)
	repo.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
}
