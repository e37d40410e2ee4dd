package ordersapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/pkg/errs"
)

// DefaultRequestTimeout bounds a single backend call.
const DefaultRequestTimeout = 10 * time.Second

var ErrClientParamsAreInvalid = errors.New(
	"baseURL and logger are required for ordersapi.Client",
)

// Client talks to the backend orders service over HTTP and implements
// ports.OrderRepository. Parent orders are assembled from two concurrent
// calls: the order document and its sub-order list.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger

	// unknownStatuses counts status tokens the canonicalizer does not
	// recognize. Optional.
	unknownStatuses counter
}

// NewClient creates a client for the given base URL, e.g.
// "https://orders.internal:8080".
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if baseURL == "" || logger == nil {
		return nil, ErrClientParamsAreInvalid
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("baseURL", err)
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
		timeout: timeout,
		logger:  logger.With("component", "ordersapi"),
	}, nil
}

// WithUnknownStatusCounter wires a counter incremented for every status token
// the canonicalizer does not recognize. Returns the client for chaining.
func (c *Client) WithUnknownStatusCounter(unknownStatuses counter) *Client {
	c.unknownStatuses = unknownStatuses
	return c
}

// GetOrder fetches the order document and its sub-order list concurrently.
// The sub-order call returning not-found just means the order is flat.
func (c *Client) GetOrder(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		dto       OrderDTO
		subOrders []order.SubOrder
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return c.getJSON(groupCtx, fmt.Sprintf("/orders/%s", id.String()), &dto)
	})
	group.Go(func() error {
		subs, err := c.listSubOrders(groupCtx, id)
		if err != nil {
			if errors.Is(err, errs.ErrObjectNotFound) {
				return nil
			}
			return err
		}
		subOrders = subs
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if !dto.IsParent {
		subOrders = nil
	}

	resolved, err := orderToDomain(dto, subOrders)
	if err != nil {
		return nil, err
	}
	c.reportUnknownStatuses(resolved)
	return resolved, nil
}

// ListSubOrders fetches the sub-orders of a parent order.
func (c *Client) ListSubOrders(ctx context.Context, parentID kernel.UUID) ([]order.SubOrder, error) {
	if err := parentID.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.listSubOrders(ctx, parentID)
}

// ApplyMutation submits one change and returns the acknowledged record.
func (c *Client) ApplyMutation(
	ctx context.Context,
	orderID kernel.UUID,
	request ports.MutationRequest,
) (*order.Order, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(mutationFromDomain(request))
	if err != nil {
		return nil, err
	}

	var dto OrderDTO
	err = c.do(ctx, http.MethodPost, fmt.Sprintf("/orders/%s/mutations", orderID.String()),
		bytes.NewReader(body), &dto)
	if err != nil {
		return nil, err
	}

	var subOrders []order.SubOrder
	if dto.IsParent {
		subOrders, err = c.listSubOrders(ctx, orderID)
		if err != nil {
			return nil, err
		}
	}

	acked, err := orderToDomain(dto, subOrders)
	if err != nil {
		return nil, err
	}
	c.reportUnknownStatuses(acked)
	return acked, nil
}

// reportUnknownStatuses logs and counts status tokens that fail open to the
// Received stage, so a backend growing new status values is noticed instead
// of silently rendering every order as freshly received.
func (c *Client) reportUnknownStatuses(o *order.Order) {
	c.checkStatusTokens(o.ID(), o.RawStatus(), o.RawCourierStatus())
	subOrders := o.SubOrders()
	for i := range subOrders {
		sub := &subOrders[i]
		c.checkStatusTokens(sub.ID(), sub.RawStatus(), sub.RawCourierStatus())
	}
}

func (c *Client) checkStatusTokens(id kernel.UUID, rawStatus, rawCourierStatus string) {
	if _, known := order.CanonicalizeKnown(rawStatus, rawCourierStatus); !known {
		c.logger.Warn("unrecognized status token, treating as received",
			"id", id.String(),
			"status", rawStatus,
			"courier_status", rawCourierStatus)
		if c.unknownStatuses != nil {
			c.unknownStatuses.Inc()
		}
	}
}

func (c *Client) listSubOrders(ctx context.Context, parentID kernel.UUID) ([]order.SubOrder, error) {
	var dtos []SubOrderDTO
	err := c.getJSON(ctx, fmt.Sprintf("/orders/%s/suborders", parentID.String()), &dtos)
	if err != nil {
		return nil, err
	}
	return subOrdersToDomain(dtos)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.mapTransportError(method, path, err)
	}
	defer resp.Body.Close()

	if err := c.mapStatus(resp, path); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// mapTransportError folds timeouts into the shared taxonomy.
func (c *Client) mapTransportError(method, path string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s %s: %w", method, path, errs.ErrTimeout)
	}
	return fmt.Errorf("%s %s: %w", method, path, err)
}

func (c *Client) mapStatus(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Drain so the connection can be reused.
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	switch resp.StatusCode {
	case http.StatusNotFound:
		return errs.NewObjectNotFoundError("order", path)
	case http.StatusConflict:
		return fmt.Errorf("%s: %s: %w", path, strings.TrimSpace(string(payload)), errs.ErrWindowClosed)
	case http.StatusForbidden:
		return fmt.Errorf("%s: %s: %w", path, strings.TrimSpace(string(payload)), errs.ErrProviderMismatch)
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return fmt.Errorf("%s: %w", path, errs.ErrTimeout)
	default:
		c.logger.Warn("unexpected backend status",
			"path", path,
			"status", resp.StatusCode,
		)
		return fmt.Errorf("backend returned %d for %s", resp.StatusCode, path)
	}
}
