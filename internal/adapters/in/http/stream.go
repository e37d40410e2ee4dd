package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ordertrack/internal/core/application/usecases/queries"
	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/realtime"

	"github.com/labstack/echo/v4"
)

// TrackerFactory creates a realtime tracker for one order. The server starts
// and stops one tracker per stream connection.
type TrackerFactory func(orderID kernel.UUID) (*realtime.Tracker, error)

// StreamEventResponse is one server-sent snapshot event: the tracker's sync
// state at emission time plus the aggregated view.
type StreamEventResponse struct {
	State string            `json:"state"`
	View  OrderViewResponse `json:"view"`
}

// StreamOrder handles GET /api/v1/orders/:orderId/stream - a server-sent
// event stream of aggregated views. Each event carries the full view, so a
// client that misses events just renders the next one.
func (s *Server) StreamOrder(ctx echo.Context) error {
	orderID, ok := s.orderID(ctx)
	if !ok {
		return nil
	}

	if s.trackerFactory == nil {
		return ctx.JSON(http.StatusNotImplemented, ErrorResponse{
			Code:    http.StatusNotImplemented,
			Message: "Streaming is not configured",
		})
	}

	tracker, err := s.trackerFactory(orderID)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to create tracker",
		})
	}

	reqCtx := ctx.Request().Context()
	if err := tracker.Start(reqCtx); err != nil {
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to start tracker",
		})
	}
	defer tracker.Stop()

	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	for {
		select {
		case <-reqCtx.Done():
			return nil
		case view, open := <-tracker.Snapshots():
			if !open {
				return nil
			}

			event := StreamEventResponse{
				State: tracker.State().String(),
				View: orderViewResponse(queries.GetOrderViewQueryResponse{
					View:   view,
					Window: view.Window(time.Now()),
				}),
			}
			payload, marshalErr := json.Marshal(event)
			if marshalErr != nil {
				return nil
			}

			if _, writeErr := fmt.Fprintf(resp, "event: snapshot\ndata: %s\n\n", payload); writeErr != nil {
				return nil
			}
			resp.Flush()
		}
	}
}
