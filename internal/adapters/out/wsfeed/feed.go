package wsfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/ports"
)

var ErrFeedParamsAreInvalid = errors.New(
	"baseURL and logger are required for wsfeed.Feed",
)

type changeSignalDTO struct {
	OrderID  string `json:"order_id"`
	ParentID string `json:"parent_id,omitempty"`
}

type locationSignalDTO struct {
	DriverID string    `json:"driver_id"`
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
	Heading  float64   `json:"heading"`
	Speed    float64   `json:"speed"`
	At       time.Time `json:"at"`
}

// Feed subscribes to the backend's websocket change stream and implements
// ports.ChangeFeed. One connection is opened per subscription; the channel
// closes when the connection drops or the context ends, which is the
// consumer's cue to reconnect.
type Feed struct {
	baseURL string
	dialer  *websocket.Dialer
	logger  *slog.Logger
}

// NewFeed creates a feed for the given websocket base URL, e.g.
// "ws://orders.internal:8080".
func NewFeed(baseURL string, logger *slog.Logger) (*Feed, error) {
	if baseURL == "" || logger == nil {
		return nil, ErrFeedParamsAreInvalid
	}

	return &Feed{
		baseURL: strings.TrimRight(baseURL, "/"),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logger.With("component", "wsfeed"),
	}, nil
}

// SubscribeOrder opens a change-signal stream for one order id.
func (f *Feed) SubscribeOrder(ctx context.Context, orderID kernel.UUID) (<-chan ports.ChangeSignal, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	conn, err := f.dial(ctx, fmt.Sprintf("/orders/%s/changes", orderID.String()))
	if err != nil {
		return nil, err
	}

	signals := make(chan ports.ChangeSignal, 16)
	go func() {
		defer close(signals)
		defer conn.Close()

		for {
			var dto changeSignalDTO
			if err := conn.ReadJSON(&dto); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					f.logger.Warn("change stream read failed", "error", err)
				}
				return
			}

			signal, err := changeSignalToDomain(dto)
			if err != nil {
				f.logger.Warn("malformed change signal dropped", "error", err)
				continue
			}

			select {
			case signals <- signal:
			case <-ctx.Done():
				return
			}
		}
	}()

	return signals, nil
}

// SubscribeDriver opens a position stream for one driver id.
func (f *Feed) SubscribeDriver(ctx context.Context, driverID kernel.UUID) (<-chan ports.LocationSignal, error) {
	if err := driverID.Validate(); err != nil {
		return nil, err
	}

	conn, err := f.dial(ctx, fmt.Sprintf("/drivers/%s/location", driverID.String()))
	if err != nil {
		return nil, err
	}

	positions := make(chan ports.LocationSignal, 16)
	go func() {
		defer close(positions)
		defer conn.Close()

		for {
			var dto locationSignalDTO
			if err := conn.ReadJSON(&dto); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					f.logger.Warn("location stream read failed", "error", err)
				}
				return
			}

			signal, err := locationSignalToDomain(dto)
			if err != nil {
				f.logger.Warn("malformed location signal dropped", "error", err)
				continue
			}

			select {
			case positions <- signal:
			case <-ctx.Done():
				return
			}
		}
	}()

	return positions, nil
}

// dial opens the connection and ties its lifetime to ctx: cancelling the
// context closes the connection, which unblocks the read loop.
func (f *Feed) dial(ctx context.Context, path string) (*websocket.Conn, error) {
	conn, resp, err := f.dialer.DialContext(ctx, f.baseURL+path, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", path, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	return conn, nil
}

func changeSignalToDomain(dto changeSignalDTO) (ports.ChangeSignal, error) {
	orderID, err := kernel.UUIDFromString(dto.OrderID)
	if err != nil {
		return ports.ChangeSignal{}, err
	}

	signal := ports.ChangeSignal{OrderID: orderID}
	if dto.ParentID != "" {
		parentID, err := kernel.UUIDFromString(dto.ParentID)
		if err != nil {
			return ports.ChangeSignal{}, err
		}
		signal.ParentID = &parentID
	}
	return signal, nil
}

func locationSignalToDomain(dto locationSignalDTO) (ports.LocationSignal, error) {
	driverID, err := kernel.UUIDFromString(dto.DriverID)
	if err != nil {
		return ports.LocationSignal{}, err
	}

	position, err := kernel.NewGeoPointWithMotion(dto.Lat, dto.Lng, dto.Heading, dto.Speed)
	if err != nil {
		return ports.LocationSignal{}, err
	}

	return ports.LocationSignal{
		DriverID: driverID,
		Position: position,
		At:       dto.At,
	}, nil
}
