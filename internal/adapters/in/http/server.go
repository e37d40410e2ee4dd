package http

import (
	"errors"
	"net/http"
	"time"

	"ordertrack/internal/core/application/usecases/commands"
	"ordertrack/internal/core/application/usecases/queries"
	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/domain/services"
	"ordertrack/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server handles the HTTP surface of the order tracking core. It coordinates
// between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	addItemHandler          commands.AddItemCommandHandler
	editItemQuantityHandler commands.EditItemQuantityCommandHandler
	removeItemHandler       commands.RemoveItemCommandHandler
	cancelOrderHandler      commands.CancelOrderCommandHandler

	// Query handlers
	getOrderViewHandler     queries.GetOrderViewQueryHandler
	listActiveOrdersHandler queries.ListActiveOrdersQueryHandler

	aggregator     services.Aggregator
	trackerFactory TrackerFactory
}

// NewServer creates an HTTP server with the required command and query handlers.
func NewServer(
	addItemHandler commands.AddItemCommandHandler,
	editItemQuantityHandler commands.EditItemQuantityCommandHandler,
	removeItemHandler commands.RemoveItemCommandHandler,
	cancelOrderHandler commands.CancelOrderCommandHandler,
	getOrderViewHandler queries.GetOrderViewQueryHandler,
	listActiveOrdersHandler queries.ListActiveOrdersQueryHandler,
	aggregator services.Aggregator,
	trackerFactory TrackerFactory,
) *Server {
	return &Server{
		addItemHandler:          addItemHandler,
		editItemQuantityHandler: editItemQuantityHandler,
		removeItemHandler:       removeItemHandler,
		cancelOrderHandler:      cancelOrderHandler,
		getOrderViewHandler:     getOrderViewHandler,
		listActiveOrdersHandler: listActiveOrdersHandler,
		aggregator:              aggregator,
		trackerFactory:          trackerFactory,
	}
}

// RegisterRoutes attaches all order tracking routes to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.GET("/orders", s.ListActiveOrders)
	api.GET("/orders/:orderId/view", s.GetOrderView)
	api.GET("/orders/:orderId/window", s.GetOrderWindow)
	api.POST("/orders/:orderId/mutations", s.ApplyMutation)
	api.GET("/orders/:orderId/stream", s.StreamOrder)

	e.GET("/health", s.Health)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ListActiveOrders handles GET /api/v1/orders - lists orders that are neither
// delivered nor cancelled, optionally filtered by ?customer_id=.
func (s *Server) ListActiveOrders(ctx echo.Context) error {
	query := queries.NewListActiveOrdersQuery()

	if raw := ctx.QueryParam("customer_id"); raw != "" {
		customerID, err := kernel.UUIDFromString(raw)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, ErrorResponse{
				Code:    http.StatusBadRequest,
				Message: "Invalid customer_id",
			})
		}

		query, err = queries.NewListActiveOrdersQueryForCustomer(customerID)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, ErrorResponse{
				Code:    http.StatusBadRequest,
				Message: "Invalid customer_id",
			})
		}
	}

	orders, err := s.listActiveOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to list active orders",
		})
	}

	return ctx.JSON(http.StatusOK, activeOrderResponses(orders))
}

// GetOrderView handles GET /api/v1/orders/:orderId/view - the aggregated
// order view with the modification window evaluated at read time.
func (s *Server) GetOrderView(ctx echo.Context) error {
	orderID, ok := s.orderID(ctx)
	if !ok {
		return nil
	}

	query, err := queries.NewGetOrderViewQuery(orderID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid order id",
		})
	}

	resp, err := s.getOrderViewHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.readError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, orderViewResponse(resp))
}

// GetOrderWindow handles GET /api/v1/orders/:orderId/window - just the
// modification window decision, cheap enough for countdown polling.
func (s *Server) GetOrderWindow(ctx echo.Context) error {
	orderID, ok := s.orderID(ctx)
	if !ok {
		return nil
	}

	query, err := queries.NewGetOrderViewQuery(orderID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid order id",
		})
	}

	resp, err := s.getOrderViewHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.readError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, windowResponse(resp.Window))
}

// ApplyMutation handles POST /api/v1/orders/:orderId/mutations - applies one
// order change. A timed-out round trip answers 202: the outcome is ambiguous
// and the client must re-fetch rather than resubmit.
func (s *Server) ApplyMutation(ctx echo.Context) error {
	orderID, ok := s.orderID(ctx)
	if !ok {
		return nil
	}

	var body MutationRequestBody
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	acked, err := s.dispatchMutation(ctx, orderID, body)
	if err != nil {
		return s.mutationError(ctx, err)
	}

	view := s.aggregator.Aggregate(acked)
	return ctx.JSON(http.StatusOK, orderViewResponse(queries.GetOrderViewQueryResponse{
		View:   view,
		Window: view.Window(time.Now()),
	}))
}

func (s *Server) dispatchMutation(
	ctx echo.Context, orderID kernel.UUID, body MutationRequestBody,
) (*order.Order, error) {
	reqCtx := ctx.Request().Context()

	switch body.Kind {
	case "add_item":
		if body.Item == nil {
			return nil, errs.NewValueIsRequiredError("item")
		}
		providerID, err := kernel.UUIDFromString(body.ProviderID)
		if err != nil {
			return nil, err
		}
		item, err := order.NewLineItem(
			kernel.NewUUID(), body.Item.Name, body.Item.UnitPrice, body.Item.Quantity, body.Item.Note,
		)
		if err != nil {
			return nil, err
		}
		cmd, err := commands.NewAddItemCommand(orderID, providerID, item)
		if err != nil {
			return nil, err
		}
		return s.addItemHandler.Handle(reqCtx, cmd)

	case "edit_quantity":
		itemID, err := kernel.UUIDFromString(body.ItemID)
		if err != nil {
			return nil, err
		}
		cmd, err := commands.NewEditItemQuantityCommand(orderID, itemID, body.Quantity)
		if err != nil {
			return nil, err
		}
		return s.editItemQuantityHandler.Handle(reqCtx, cmd)

	case "remove_item":
		itemID, err := kernel.UUIDFromString(body.ItemID)
		if err != nil {
			return nil, err
		}
		cmd, err := commands.NewRemoveItemCommand(orderID, itemID)
		if err != nil {
			return nil, err
		}
		return s.removeItemHandler.Handle(reqCtx, cmd)

	case "cancel":
		cmd, err := commands.NewCancelOrderCommand(orderID)
		if err != nil {
			return nil, err
		}
		return s.cancelOrderHandler.Handle(reqCtx, cmd)

	default:
		return nil, errs.NewValueIsInvalidError("kind")
	}
}

func (s *Server) orderID(ctx echo.Context) (kernel.UUID, bool) {
	orderID, err := kernel.UUIDFromString(ctx.Param("orderId"))
	if err != nil {
		_ = ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid order id",
		})
		return kernel.UUID{}, false
	}
	return orderID, true
}

func (s *Server) readError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return ctx.JSON(http.StatusNotFound, ErrorResponse{
			Code:    http.StatusNotFound,
			Message: "Order not found",
		})
	case errors.Is(err, errs.ErrTimeout):
		return ctx.JSON(http.StatusGatewayTimeout, ErrorResponse{
			Code:    http.StatusGatewayTimeout,
			Message: "Order backend timed out",
		})
	default:
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve order",
		})
	}
}

func (s *Server) mutationError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrTimeout):
		return ctx.JSON(http.StatusAccepted, MutationAcceptedResponse{
			Status:  "ambiguous",
			Warning: "The request timed out; the change may still have been applied. Re-fetch the order before retrying.",
		})
	case errors.Is(err, errs.ErrObjectNotFound):
		return ctx.JSON(http.StatusNotFound, ErrorResponse{
			Code:    http.StatusNotFound,
			Message: "Order not found",
		})
	case errors.Is(err, errs.ErrWindowClosed):
		return ctx.JSON(http.StatusConflict, ErrorResponse{
			Code:    http.StatusConflict,
			Message: "Modification window is closed: " + err.Error(),
		})
	case errors.Is(err, errs.ErrProviderMismatch):
		return ctx.JSON(http.StatusForbidden, ErrorResponse{
			Code:    http.StatusForbidden,
			Message: "Item does not belong to one of the order's providers",
		})
	default:
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid mutation: " + err.Error(),
		})
	}
}
