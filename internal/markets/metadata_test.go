package markets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/polycopy/copytrader/pkg/cache"
)

func newMetadataServer(t *testing.T, tickSize string, bookBody string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/tick-size":
			w.Write([]byte(tickSize))
		case "/book":
			w.Write([]byte(bookBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchTokenMetadata(t *testing.T) {
	srv := newMetadataServer(t, `{"minimum_tick_size":0.001}`, `{"min_size":15}`)
	client := NewMetadataClient(srv.URL, zap.NewNop())

	tick, minSize, err := client.FetchTokenMetadata(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 0.001, tick)
	assert.Equal(t, 15.0, minSize)
}

func TestFetchMinOrderSizeNestedField(t *testing.T) {
	srv := newMetadataServer(t, `{}`, `{"market":{"minimum_order_size":25}}`)
	client := NewMetadataClient(srv.URL, zap.NewNop())

	minSize, err := client.FetchMinOrderSize(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 25.0, minSize)
}

func TestFetchMinOrderSizeDefault(t *testing.T) {
	srv := newMetadataServer(t, `{}`, `{}`)
	client := NewMetadataClient(srv.URL, zap.NewNop())

	minSize, err := client.FetchMinOrderSize(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, defaultMinOrderSize, minSize)
}

func TestFetchTokenMetadataDefaultsOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	client := NewMetadataClient(srv.URL, zap.NewNop())

	tick, minSize, err := client.FetchTokenMetadata(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, defaultTickSize, tick)
	assert.Equal(t, defaultMinOrderSize, minSize)
}

func TestCachedMetadataClient(t *testing.T) {
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tick-size" {
			fetches.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/tick-size":
			w.Write([]byte(`{"minimum_tick_size":0.01}`))
		case "/book":
			w.Write([]byte(`{"min_size":5}`))
		}
	}))
	t.Cleanup(srv.Close)

	c, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)
	defer c.Close()

	cached := NewCachedMetadataClient(NewMetadataClient(srv.URL, zap.NewNop()), c)

	tick, minSize, err := cached.GetTokenMetadata(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 0.01, tick)
	assert.Equal(t, 5.0, minSize)

	// Let ristretto apply the pending write, then the second call should
	// not hit the API.
	c.(*cache.RistrettoCache).Wait()
	time.Sleep(10 * time.Millisecond)

	_, _, err = cached.GetTokenMetadata(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetches.Load())
}

func TestCachedMetadataClientNilCache(t *testing.T) {
	srv := newMetadataServer(t, `{"minimum_tick_size":0.01}`, `{"min_size":5}`)
	cached := NewCachedMetadataClient(NewMetadataClient(srv.URL, zap.NewNop()), nil)

	tick, minSize, err := cached.GetTokenMetadata(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 0.01, tick)
	assert.Equal(t, 5.0, minSize)
}
