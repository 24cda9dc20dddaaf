package gateway

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
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		DataAPIURL: srv.URL,
		CLOBURL:    srv.URL,
		Timeout:    2 * time.Second,
		RetryLimit: 2,
		Logger:     zap.NewNop(),
	})
	return client, srv
}

func TestPositions(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/positions", r.URL.Path)
		assert.Equal(t, "0xabc", r.URL.Query().Get("user"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"asset":"tok-1","conditionId":"cond-1","size":20,"avgPrice":0.4,"curPrice":0.55}]`))
	}))

	positions, err := client.Positions(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "tok-1", positions[0].Asset)
	assert.Equal(t, 20.0, positions[0].Size)
}

func TestPositionsRetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))

	positions, err := client.Positions(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Empty(t, positions)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPositionsErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.Positions(context.Background(), "0xabc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestActivity(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activity", r.URL.Path)
		assert.Equal(t, "TRADE", r.URL.Query().Get("type"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"proxyWallet":"0xabc","timestamp":1700000000,"conditionId":"cond-1","type":"TRADE","size":10,"price":0.5,"asset":"tok-1","side":"BUY"}]`))
	}))

	activity, err := client.Activity(context.Background(), "0xabc", 50)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.True(t, activity[0].IsBuy())
}

func TestOrderBook(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/book", r.URL.Path)
		assert.Equal(t, "tok-1", r.URL.Query().Get("token_id"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"market":"cond-1","asset_id":"tok-1","bids":[{"price":"0.48","size":"100"}],"asks":[{"price":"0.52","size":"30"}]}`))
	}))

	book, err := client.OrderBook(context.Background(), "tok-1")
	require.NoError(t, err)

	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, 0.52, ask.Price)
	assert.Equal(t, 30.0, ask.Size)
}

func TestOrderBookContextCancel(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.OrderBook(ctx, "tok-1")
	require.Error(t, err)
}
