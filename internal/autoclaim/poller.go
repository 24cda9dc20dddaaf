// Package autoclaim watches the operator's positions for resolved
// markets whose winnings can be redeemed.
package autoclaim

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/polycopy/copytrader/pkg/types"
)

// PositionFetcher fetches current position snapshots for an address.
type PositionFetcher interface {
	Positions(ctx context.Context, address string) ([]types.Position, error)
}

// Redeemer redeems one resolved position on chain.
type Redeemer interface {
	Redeem(ctx context.Context, pos *types.Position) error
}

// Config holds auto-claim poller configuration.
type Config struct {
	ProxyWallet string
	Interval    time.Duration
	Positions   PositionFetcher
	Redeemer    Redeemer // optional, detection-only when nil
	Logger      *zap.Logger
}

// Poller periodically scans for redeemable positions.
type Poller struct {
	cfg    Config
	logger *zap.Logger
}

// New creates an auto-claim poller.
func New(cfg Config) *Poller {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &Poller{cfg: cfg, logger: cfg.Logger}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.logger.Info("autoclaim-poller-started",
		zap.Duration("interval", p.cfg.Interval))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("autoclaim-poller-stopped")
			return
		case <-ticker.C:
			p.scan(ctx)
		}
	}
}

func (p *Poller) scan(ctx context.Context) {
	positions, err := p.cfg.Positions.Positions(ctx, p.cfg.ProxyWallet)
	if err != nil {
		p.logger.Warn("autoclaim-positions-fetch-failed", zap.Error(err))
		return
	}

	for i := range positions {
		pos := &positions[i]
		if !Claimable(pos) {
			continue
		}

		ClaimablePositionsTotal.Inc()
		p.logger.Info("claimable-position-found",
			zap.String("asset", pos.Asset),
			zap.String("title", pos.Title),
			zap.String("outcome", pos.Outcome),
			zap.Float64("size", pos.Size),
			zap.Float64("cur-price", pos.CurPrice),
			zap.Float64("value", pos.CurrentValue))

		if p.cfg.Redeemer == nil {
			continue
		}
		if err := p.cfg.Redeemer.Redeem(ctx, pos); err != nil {
			ClaimErrorsTotal.Inc()
			p.logger.Error("redeem-failed",
				zap.String("asset", pos.Asset),
				zap.Error(err))
			continue
		}
		ClaimsTotal.Inc()
		p.logger.Info("position-redeemed",
			zap.String("asset", pos.Asset),
			zap.Float64("value", pos.CurrentValue))
	}
}

// Claimable reports whether a position belongs to a resolved market and
// still holds tokens. A mark price pinned to 0.99 or above means the
// outcome won; at 0.01 or below it lost and redemption just clears dust.
func Claimable(pos *types.Position) bool {
	if !pos.Redeemable || pos.Size <= 0 {
		return false
	}
	return pos.CurPrice >= 0.99 || pos.CurPrice <= 0.01
}
