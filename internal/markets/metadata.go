// Package markets fetches and caches per-token market metadata from the
// CLOB API. Tick size and minimum order size are needed to round order
// prices and validate order sizes before submission.
package markets

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultTickSize     = 0.01
	defaultMinOrderSize = 5.0
)

// MetadataClient fetches market metadata from the Polymarket CLOB API.
type MetadataClient struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewMetadataClient creates a new metadata client.
func NewMetadataClient(baseURL string, logger *zap.Logger) *MetadataClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &MetadataClient{
		http:   client,
		logger: logger,
	}
}

// FetchTickSize fetches the tick size for a token from the CLOB API.
func (c *MetadataClient) FetchTickSize(ctx context.Context, tokenID string) (float64, error) {
	var data struct {
		MinimumTickSize float64 `json:"minimum_tick_size"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		SetResult(&data).
		Get("/tick-size")
	if err != nil {
		return 0, fmt.Errorf("fetch tick size: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("fetch tick size: status %d", resp.StatusCode())
	}
	return data.MinimumTickSize, nil
}

// FetchMinOrderSize fetches the minimum order size for a token from the
// book endpoint. Falls back to the exchange default when the API does not
// report one.
func (c *MetadataClient) FetchMinOrderSize(ctx context.Context, tokenID string) (float64, error) {
	var data struct {
		MinSize float64 `json:"min_size"`
		Market  struct {
			MinSize float64 `json:"minimum_order_size"`
		} `json:"market"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		SetResult(&data).
		Get("/book")
	if err != nil {
		return 0, fmt.Errorf("fetch min order size: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return defaultMinOrderSize, nil
	}

	if data.MinSize > 0 {
		return data.MinSize, nil
	}
	if data.Market.MinSize > 0 {
		return data.Market.MinSize, nil
	}
	return defaultMinOrderSize, nil
}

// FetchTokenMetadata fetches both tick size and min order size for a token.
// Individual fetch failures fall back to exchange defaults so order
// placement never blocks on metadata.
func (c *MetadataClient) FetchTokenMetadata(ctx context.Context, tokenID string) (tickSize, minOrderSize float64, err error) {
	start := time.Now()
	defer func() {
		MetadataFetchDuration.Observe(time.Since(start).Seconds())
	}()

	tickSize, err = c.FetchTickSize(ctx, tokenID)
	if err != nil {
		MetadataFetchErrorsTotal.Inc()
		c.logger.Warn("tick-size-fetch-failed",
			zap.String("token_id", tokenID),
			zap.Error(err))
		tickSize = defaultTickSize
	}

	minOrderSize, err = c.FetchMinOrderSize(ctx, tokenID)
	if err != nil {
		MetadataFetchErrorsTotal.Inc()
		c.logger.Warn("min-order-size-fetch-failed",
			zap.String("token_id", tokenID),
			zap.Error(err))
		minOrderSize = defaultMinOrderSize
	}

	return tickSize, minOrderSize, nil
}
