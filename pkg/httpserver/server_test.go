package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/polycopy/copytrader/pkg/healthprobe"
	"github.com/polycopy/copytrader/pkg/types"
)

type fakeSource struct {
	positions []types.Position
	err       error
}

func (f *fakeSource) Positions(_ context.Context, _ string) ([]types.Position, error) {
	return f.positions, f.err
}

func newTestServer(source PositionSource) *Server {
	checker := healthprobe.New()
	checker.SetReady(true)
	return New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: checker,
		Positions:     source,
		ProxyWallet:   "0x1111111111111111111111111111111111111111",
	})
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(nil)

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyEndpoint(t *testing.T) {
	checker := healthprobe.New()
	srv := New(&Config{Port: "0", Logger: zap.NewNop(), HealthChecker: checker})

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	checker.SetReady(true)
	rec = httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPositionsEndpoint(t *testing.T) {
	source := &fakeSource{positions: []types.Position{
		{Asset: "tok-1", ConditionID: "cond-1", Size: 20, AvgPrice: 0.4},
	}}
	srv := newTestServer(source)

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/positions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp positionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0x1111111111111111111111111111111111111111", resp.Address)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Positions, 1)
	assert.Equal(t, "tok-1", resp.Positions[0].Asset)
}

func TestPositionsEndpointError(t *testing.T) {
	srv := newTestServer(&fakeSource{err: errors.New("gateway down")})

	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/positions", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
