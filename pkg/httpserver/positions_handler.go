package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/polycopy/copytrader/pkg/types"
)

// PositionSource fetches current position snapshots for an address.
type PositionSource interface {
	Positions(ctx context.Context, address string) ([]types.Position, error)
}

// PositionsHandler serves the operator's current positions.
type PositionsHandler struct {
	source      PositionSource
	proxyWallet string
	logger      *zap.Logger
}

// NewPositionsHandler creates a positions handler.
func NewPositionsHandler(source PositionSource, proxyWallet string, logger *zap.Logger) *PositionsHandler {
	return &PositionsHandler{
		source:      source,
		proxyWallet: proxyWallet,
		logger:      logger,
	}
}

// positionsResponse is the /api/positions payload.
type positionsResponse struct {
	Address   string           `json:"address"`
	Count     int              `json:"count"`
	Positions []types.Position `json:"positions"`
	FetchedAt time.Time        `json:"fetchedAt"`
}

// HandlePositions returns the proxy wallet's current positions. The
// address query parameter overrides the default to inspect a tracked
// trader instead.
func (h *PositionsHandler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		address = h.proxyWallet
	}

	positions, err := h.source.Positions(r.Context(), address)
	if err != nil {
		h.logger.Warn("positions-fetch-failed",
			zap.String("address", address),
			zap.Error(err))
		http.Error(w, "failed to fetch positions", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(positionsResponse{
		Address:   address,
		Count:     len(positions),
		Positions: positions,
		FetchedAt: time.Now().UTC(),
	})
}
