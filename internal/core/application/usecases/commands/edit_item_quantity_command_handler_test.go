package commands_test

import (
	"testing"
	"time"

	"ordertrack/internal/core/application/usecases/commands"
	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEditItemQuantityCommandHandler_Handle_Success(t *testing.T) {
	providerID := kernel.NewUUID()
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	item := makeItem(t, "Burger", 50, 2)
	current := makeOrder(t, providerID, "pending", createdAt, item)

	cmd, err := commands.NewEditItemQuantityCommand(current.ID(), item.ID(), 3)
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	repo.On("GetOrder", mock.Anything, current.ID()).Return(current, nil).Once()
	repo.On("ApplyMutation", mock.Anything, current.ID(),
		mock.MatchedBy(func(r ports.MutationRequest) bool {
			return r.Kind == ports.MutationEditQuantity && r.Quantity == 3
		})).Return(current, nil).Once()

	h := commands.NewEditItemQuantityCommandHandler(repo, testAggregator(), fixedClock{createdAt.Add(time.Minute)})
	_, err = h.Handle(t.Context(), cmd)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEditItemQuantityCommandHandler_Handle_ZeroQuantityBecomesRemoval(t *testing.T) {
	providerID := kernel.NewUUID()
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	item := makeItem(t, "Burger", 50, 2)
	current := makeOrder(t, providerID, "pending", createdAt, item)

	cmd, err := commands.NewEditItemQuantityCommand(current.ID(), item.ID(), 0)
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	repo.On("GetOrder", mock.Anything, current.ID()).Return(current, nil).Once()
	repo.On("ApplyMutation", mock.Anything, current.ID(),
		mock.MatchedBy(func(r ports.MutationRequest) bool {
			return r.Kind == ports.MutationRemoveItem && r.ItemID.IsEqual(item.ID())
		})).Return(current, nil).Once()

	h := commands.NewEditItemQuantityCommandHandler(repo, testAggregator(), fixedClock{createdAt.Add(time.Minute)})
	_, err = h.Handle(t.Context(), cmd)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEditItemQuantityCommandHandler_Handle_WindowClosed(t *testing.T) {
	providerID := kernel.NewUUID()
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	item := makeItem(t, "Burger", 50, 2)
	current := makeOrder(t, providerID, "out_for_delivery", createdAt, item)

	cmd, err := commands.NewEditItemQuantityCommand(current.ID(), item.ID(), 1)
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	repo.On("GetOrder", mock.Anything, current.ID()).Return(current, nil).Once()

	h := commands.NewEditItemQuantityCommandHandler(repo, testAggregator(), fixedClock{createdAt.Add(time.Minute)})
	_, err = h.Handle(t.Context(), cmd)

	require.ErrorIs(t, err, errs.ErrWindowClosed)
	repo.AssertNotCalled(t, "ApplyMutation", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveItemCommandHandler_Handle_Success(t *testing.T) {
	providerID := kernel.NewUUID()
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	item := makeItem(t, "Burger", 50, 2)
	current := makeOrder(t, providerID, "pending", createdAt, item)

	cmd, err := commands.NewRemoveItemCommand(current.ID(), item.ID())
	require.NoError(t, err)

	repo := new(MockOrderRepository)
	repo.On("GetOrder", mock.Anything, current.ID()).Return(current, nil).Once()
	repo.On("ApplyMutation", mock.Anything, current.ID(),
		mock.MatchedBy(func(r ports.MutationRequest) bool {
			return r.Kind == ports.MutationRemoveItem
		})).Return(current, nil).Once()

	h := commands.NewRemoveItemCommandHandler(repo, testAggregator(), fixedClock{createdAt.Add(time.Minute)})
	_, err = h.Handle(t.Context(), cmd)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}
