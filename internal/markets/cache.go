package markets

import (
	"context"
	"fmt"
	"time"

	"github.com/polycopy/copytrader/pkg/cache"
)

// TokenMetadata holds cached metadata for a token.
type TokenMetadata struct {
	TickSize     float64
	MinOrderSize float64
	FetchedAt    time.Time
}

// CachedMetadataClient wraps MetadataClient with caching. Metadata is
// effectively static for the lifetime of a market, so a long TTL is safe.
type CachedMetadataClient struct {
	client *MetadataClient
	cache  cache.Cache
	ttl    time.Duration
}

// NewCachedMetadataClient creates a new cached metadata client.
func NewCachedMetadataClient(client *MetadataClient, cache cache.Cache) *CachedMetadataClient {
	return &CachedMetadataClient{
		client: client,
		cache:  cache,
		ttl:    24 * time.Hour,
	}
}

// GetTokenMetadata fetches token metadata with caching.
func (c *CachedMetadataClient) GetTokenMetadata(ctx context.Context, tokenID string) (tickSize, minOrderSize float64, err error) {
	cacheKey := fmt.Sprintf("metadata:%s", tokenID)

	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			if meta, ok := cached.(*TokenMetadata); ok {
				MetadataCacheHitsTotal.Inc()
				return meta.TickSize, meta.MinOrderSize, nil
			}
		}
		MetadataCacheMissesTotal.Inc()
	}

	tickSize, minOrderSize, err = c.client.FetchTokenMetadata(ctx, tokenID)
	if err != nil {
		return tickSize, minOrderSize, err
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, &TokenMetadata{
			TickSize:     tickSize,
			MinOrderSize: minOrderSize,
			FetchedAt:    time.Now(),
		}, c.ttl)
	}

	return tickSize, minOrderSize, nil
}
