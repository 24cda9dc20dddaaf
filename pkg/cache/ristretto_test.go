package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type tokenMetadata struct {
	TickSize     float64
	MinOrderSize float64
}

func newTestCache(t *testing.T) *RistrettoCache {
	t.Helper()
	c, err := NewRistrettoCache(&RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c.(*RistrettoCache)
}

func TestSetAndGet(t *testing.T) {
	c := newTestCache(t)

	meta := tokenMetadata{TickSize: 0.01, MinOrderSize: 5}
	require.True(t, c.Set("metadata:12345", meta, time.Hour))
	c.Wait()

	got, found := c.Get("metadata:12345")
	require.True(t, found)
	assert.Equal(t, meta, got)
}

func TestGetMissingKey(t *testing.T) {
	c := newTestCache(t)

	_, found := c.Get("metadata:nonexistent")
	assert.False(t, found)
}

func TestDelete(t *testing.T) {
	c := newTestCache(t)

	c.Set("metadata:12345", tokenMetadata{TickSize: 0.001}, time.Hour)
	c.Wait()
	_, found := c.Get("metadata:12345")
	require.True(t, found)

	c.Delete("metadata:12345")
	_, found = c.Get("metadata:12345")
	assert.False(t, found)
}

func TestTTLExpiration(t *testing.T) {
	c := newTestCache(t)

	c.Set("metadata:12345", tokenMetadata{TickSize: 0.01}, 200*time.Millisecond)
	c.Wait()

	_, found := c.Get("metadata:12345")
	require.True(t, found, "entry must exist before the TTL elapses")

	time.Sleep(300 * time.Millisecond)
	_, found = c.Get("metadata:12345")
	assert.False(t, found, "entry must expire after the TTL")
}

func TestClear(t *testing.T) {
	c := newTestCache(t)

	c.Set("metadata:1", tokenMetadata{TickSize: 0.01}, time.Hour)
	c.Set("metadata:2", tokenMetadata{TickSize: 0.1}, time.Hour)
	c.Wait()

	_, found1 := c.Get("metadata:1")
	_, found2 := c.Get("metadata:2")
	if !found1 || !found2 {
		t.Skip("ristretto admission dropped a test key")
	}

	c.Clear()

	_, found1 = c.Get("metadata:1")
	_, found2 = c.Get("metadata:2")
	assert.False(t, found1 || found2, "clear must drop every entry")
}
