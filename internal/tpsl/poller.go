// Package tpsl implements the take-profit/stop-loss monitor. It watches
// the operator's open positions and liquidates any whose unrealized P&L
// crosses a configured threshold, reusing the order execution loop.
package tpsl

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/polycopy/copytrader/internal/execution"
	"github.com/polycopy/copytrader/internal/storage"
	"github.com/polycopy/copytrader/pkg/types"
)

// PositionFetcher fetches current position snapshots for an address.
type PositionFetcher interface {
	Positions(ctx context.Context, address string) ([]types.Position, error)
}

// Seller runs the sell execution loop for one asset.
type Seller interface {
	Sell(ctx context.Context, asset string, tokens float64) (*execution.Result, error)
}

// Config holds take-profit/stop-loss configuration. Thresholds are
// percentages of the average entry price; zero disables the side.
type Config struct {
	ProxyWallet       string
	Interval          time.Duration
	TakeProfitPercent float64
	StopLossPercent   float64
	Positions         PositionFetcher
	Seller            Seller
	Store             storage.Store
	Logger            *zap.Logger
}

// Poller periodically checks open positions against the thresholds.
type Poller struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a take-profit/stop-loss poller.
func New(cfg Config) *Poller {
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	return &Poller{cfg: cfg, logger: cfg.Logger}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.logger.Info("tpsl-poller-started",
		zap.Duration("interval", p.cfg.Interval),
		zap.Float64("take-profit-percent", p.cfg.TakeProfitPercent),
		zap.Float64("stop-loss-percent", p.cfg.StopLossPercent))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("tpsl-poller-stopped")
			return
		case <-ticker.C:
			p.scan(ctx)
		}
	}
}

func (p *Poller) scan(ctx context.Context) {
	positions, err := p.cfg.Positions.Positions(ctx, p.cfg.ProxyWallet)
	if err != nil {
		ScanErrorsTotal.Inc()
		p.logger.Warn("tpsl-positions-fetch-failed", zap.Error(err))
		return
	}

	for i := range positions {
		pos := &positions[i]
		trigger, pnl := p.trigger(pos)
		if trigger == "" {
			continue
		}

		TriggersTotal.WithLabelValues(trigger).Inc()
		p.logger.Info("tpsl-triggered",
			zap.String("trigger", trigger),
			zap.String("asset", pos.Asset),
			zap.String("title", pos.Title),
			zap.Float64("avg-price", pos.AvgPrice),
			zap.Float64("cur-price", pos.CurPrice),
			zap.Float64("pnl-percent", pnl),
			zap.Float64("size", pos.Size))

		res, err := p.cfg.Seller.Sell(ctx, pos.Asset, pos.Size)
		if err != nil {
			p.logger.Error("tpsl-sell-failed",
				zap.String("asset", pos.Asset),
				zap.Error(err))
			continue
		}
		if err := p.cfg.Store.RecordExecution(ctx, res); err != nil {
			p.logger.Warn("record-execution-failed", zap.Error(err))
		}
	}
}

// pnlEpsilon absorbs float rounding in the P&L percent so positions
// sitting exactly on a threshold still trigger.
const pnlEpsilon = 1e-9

// trigger classifies one position against the thresholds, returning the
// trigger name and the unrealized P&L percent.
func (p *Poller) trigger(pos *types.Position) (string, float64) {
	if pos.Size < execution.MinTradableTokens || pos.AvgPrice <= 0 || pos.Redeemable {
		return "", 0
	}

	pnl := (pos.CurPrice - pos.AvgPrice) / pos.AvgPrice * 100

	if p.cfg.TakeProfitPercent > 0 && pnl >= p.cfg.TakeProfitPercent-pnlEpsilon {
		return "take-profit", pnl
	}
	if p.cfg.StopLossPercent > 0 && pnl <= -p.cfg.StopLossPercent+pnlEpsilon {
		return "stop-loss", pnl
	}
	return "", pnl
}
