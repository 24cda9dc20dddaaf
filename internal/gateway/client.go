// Package gateway implements the read-only HTTP clients for the Polymarket
// Data API and CLOB API:
//   - Positions: GET /positions, current holdings for a wallet
//   - Activity:  GET /activity, recent trade activity for a wallet
//   - OrderBook: GET /book, L2 order book for a token
//
// Every request is automatically retried on transport errors and 5xx
// responses with exponential backoff.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/polycopy/copytrader/pkg/types"
)

// Config holds the gateway client configuration.
type Config struct {
	DataAPIURL string
	CLOBURL    string
	Timeout    time.Duration
	RetryLimit int
	Logger     *zap.Logger
}

// Client is the read-only Polymarket API client. It wraps two resty
// clients, one per API host, with shared retry policy.
type Client struct {
	data   *resty.Client
	clob   *resty.Client
	logger *zap.Logger
}

// NewClient creates a gateway client for the Data API and CLOB API.
func NewClient(cfg Config) *Client {
	return &Client{
		data:   newRestyClient(cfg.DataAPIURL, cfg),
		clob:   newRestyClient(cfg.CLOBURL, cfg),
		logger: cfg.Logger,
	}
}

func newRestyClient(baseURL string, cfg Config) *resty.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryLimit).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "copytrader/1.0")
}

// Positions fetches the current holdings of a wallet from the Data API.
func (c *Client) Positions(ctx context.Context, address string) ([]types.Position, error) {
	start := time.Now()

	var positions []types.Position
	resp, err := c.data.R().
		SetContext(ctx).
		SetQueryParam("user", address).
		SetResult(&positions).
		Get("/positions")
	RequestDurationSeconds.WithLabelValues("positions").Observe(time.Since(start).Seconds())
	if err != nil {
		RequestErrorsTotal.WithLabelValues("positions").Inc()
		return nil, fmt.Errorf("fetch positions: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		RequestErrorsTotal.WithLabelValues("positions").Inc()
		return nil, fmt.Errorf("fetch positions: status %d: %s", resp.StatusCode(), resp.String())
	}

	c.logger.Debug("fetched-positions",
		zap.String("address", address),
		zap.Int("count", len(positions)))

	return positions, nil
}

// Activity fetches recent trade activity of a wallet from the Data API.
// Results are returned newest first, up to limit entries.
func (c *Client) Activity(ctx context.Context, address string, limit int) ([]types.TradeActivity, error) {
	start := time.Now()

	var activity []types.TradeActivity
	resp, err := c.data.R().
		SetContext(ctx).
		SetQueryParam("user", address).
		SetQueryParam("type", "TRADE").
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&activity).
		Get("/activity")
	RequestDurationSeconds.WithLabelValues("activity").Observe(time.Since(start).Seconds())
	if err != nil {
		RequestErrorsTotal.WithLabelValues("activity").Inc()
		return nil, fmt.Errorf("fetch activity: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		RequestErrorsTotal.WithLabelValues("activity").Inc()
		return nil, fmt.Errorf("fetch activity: status %d: %s", resp.StatusCode(), resp.String())
	}

	c.logger.Debug("fetched-activity",
		zap.String("address", address),
		zap.Int("count", len(activity)))

	return activity, nil
}

// OrderBook fetches the L2 order book for a token from the CLOB API.
func (c *Client) OrderBook(ctx context.Context, tokenID string) (*types.OrderBook, error) {
	start := time.Now()

	var book types.OrderBook
	resp, err := c.clob.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		SetResult(&book).
		Get("/book")
	RequestDurationSeconds.WithLabelValues("book").Observe(time.Since(start).Seconds())
	if err != nil {
		RequestErrorsTotal.WithLabelValues("book").Inc()
		return nil, fmt.Errorf("fetch order book: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		RequestErrorsTotal.WithLabelValues("book").Inc()
		return nil, fmt.Errorf("fetch order book: status %d: %s", resp.StatusCode(), resp.String())
	}

	c.logger.Debug("fetched-order-book",
		zap.String("token_id", tokenID),
		zap.Int("bids", len(book.Bids)),
		zap.Int("asks", len(book.Asks)))

	return &book, nil
}
