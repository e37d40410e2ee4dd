package redisfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/ports"
)

var ErrFeedParamsAreInvalid = errors.New(
	"redis client and logger are required for redisfeed.Feed",
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

// Feed implements ports.ChangeFeed over redis pub/sub. The backend publishes
// JSON payloads on "orders:changed:<id>" and "drivers:location:<id>"; the
// payload content is only used to carry the ids, consumers pull the
// authoritative record themselves.
type Feed struct {
	client *redis.Client
	logger *slog.Logger
}

// NewFeed creates a feed over an existing redis client.
func NewFeed(client *redis.Client, logger *slog.Logger) (*Feed, error) {
	if client == nil || logger == nil {
		return nil, ErrFeedParamsAreInvalid
	}

	return &Feed{
		client: client,
		logger: logger.With("component", "redisfeed"),
	}, nil
}

// SubscribeOrder opens a change-signal subscription for one order id.
func (f *Feed) SubscribeOrder(ctx context.Context, orderID kernel.UUID) (<-chan ports.ChangeSignal, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	channel := fmt.Sprintf("orders:changed:%s", orderID.String())
	sub := f.client.Subscribe(ctx, channel)
	// Force the SUBSCRIBE round trip so a dead broker fails here, not in the
	// read loop.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	signals := make(chan ports.ChangeSignal, 16)
	go func() {
		defer close(signals)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				signal, err := f.parseChangeSignal(msg.Payload)
				if err != nil {
					f.logger.Warn("malformed change message dropped",
						"channel", channel,
						"error", err,
					)
					continue
				}

				select {
				case signals <- signal:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return signals, nil
}

// SubscribeDriver opens a position subscription for one driver id.
func (f *Feed) SubscribeDriver(ctx context.Context, driverID kernel.UUID) (<-chan ports.LocationSignal, error) {
	if err := driverID.Validate(); err != nil {
		return nil, err
	}

	channel := fmt.Sprintf("drivers:location:%s", driverID.String())
	sub := f.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	positions := make(chan ports.LocationSignal, 16)
	go func() {
		defer close(positions)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				signal, err := f.parseLocationSignal(msg.Payload)
				if err != nil {
					f.logger.Warn("malformed location message dropped",
						"channel", channel,
						"error", err,
					)
					continue
				}

				select {
				case positions <- signal:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return positions, nil
}

func (f *Feed) parseChangeSignal(payload string) (ports.ChangeSignal, error) {
	var dto changeSignalDTO
	if err := json.Unmarshal([]byte(payload), &dto); err != nil {
		return ports.ChangeSignal{}, err
	}

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

func (f *Feed) parseLocationSignal(payload string) (ports.LocationSignal, error) {
	var dto locationSignalDTO
	if err := json.Unmarshal([]byte(payload), &dto); err != nil {
		return ports.LocationSignal{}, err
	}

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
