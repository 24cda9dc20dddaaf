// Package reconcile classifies incoming trade events into the own-account
// action they require. A tracked BUY is mirrored as a sized BUY, a
// tracked SELL with a residual position as a proportional SELL, and a
// tracked SELL that empties the position as a MERGE (full liquidation).
package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/polycopy/copytrader/internal/execution"
	"github.com/polycopy/copytrader/internal/sizing"
	"github.com/polycopy/copytrader/internal/storage"
	"github.com/polycopy/copytrader/pkg/types"
)

// Action is the own-account action derived from one trade event.
type Action string

const (
	ActionBuy   Action = "BUY"
	ActionSell  Action = "SELL"
	ActionMerge Action = "MERGE"
	ActionSkip  Action = "SKIP"
)

// PositionFetcher fetches current position snapshots for an address.
type PositionFetcher interface {
	Positions(ctx context.Context, address string) ([]types.Position, error)
}

// BalanceProvider reports the operator's available USDC balance.
type BalanceProvider interface {
	BalanceUSDC(ctx context.Context, address string) (float64, error)
}

// Trader runs the order execution loop for one side and target.
type Trader interface {
	Buy(ctx context.Context, asset string, notionalUSD float64) (*execution.Result, error)
	Sell(ctx context.Context, asset string, tokens float64) (*execution.Result, error)
}

// Config holds reconciler configuration.
type Config struct {
	ProxyWallet string
	Strategy    sizing.Config
	Positions   PositionFetcher
	Balance     BalanceProvider
	Trader      Trader
	Store       storage.Store
	Logger      *zap.Logger
}

// Reconciler turns accepted trade events into own-account orders.
type Reconciler struct {
	proxyWallet string
	strategy    sizing.Config
	positions   PositionFetcher
	balance     BalanceProvider
	trader      Trader
	store       storage.Store
	logger      *zap.Logger
}

// New creates a reconciler.
func New(cfg *Config) *Reconciler {
	return &Reconciler{
		proxyWallet: cfg.ProxyWallet,
		strategy:    cfg.Strategy,
		positions:   cfg.Positions,
		balance:     cfg.Balance,
		trader:      cfg.Trader,
		store:       cfg.Store,
		logger:      cfg.Logger,
	}
}

// HandleTrade processes one accepted trade event end to end: classify,
// size, execute, persist. Skips are logged, never returned as errors;
// only infrastructure failures (fetches, store writes) error out.
func (r *Reconciler) HandleTrade(ctx context.Context, trade *types.TradeActivity) error {
	if err := r.store.RecordActivity(ctx, trade); err != nil {
		r.logger.Warn("record-activity-failed", zap.Error(err))
	}

	if trade.IsBuy() {
		return r.mirrorBuy(ctx, trade)
	}
	return r.mirrorSell(ctx, trade)
}

func (r *Reconciler) mirrorBuy(ctx context.Context, trade *types.TradeActivity) error {
	balance, err := r.balance.BalanceUSDC(ctx, r.proxyWallet)
	if err != nil {
		return fmt.Errorf("fetch balance: %w", err)
	}

	ownPositions, err := r.positions.Positions(ctx, r.proxyWallet)
	if err != nil {
		return fmt.Errorf("fetch own positions: %w", err)
	}

	var positionNotional float64
	if own := types.FindPosition(ownPositions, trade.Asset); own != nil {
		positionNotional = own.Notional()
	}

	calc := sizing.Calculate(&r.strategy, trade.Notional(), balance, positionNotional)
	r.logger.Info("copy-size-computed",
		zap.String("asset", trade.Asset),
		zap.Float64("tracked-notional", trade.Notional()),
		zap.Float64("base", calc.BaseAmount),
		zap.Float64("multiplier", calc.Multiplier),
		zap.Float64("final", calc.FinalAmount),
		zap.String("reasoning", calc.Reasoning))

	if calc.FinalAmount == 0 {
		r.skip(trade, ActionBuy, "copy size computed as zero")
		return nil
	}

	ActionsTotal.WithLabelValues(string(ActionBuy)).Inc()
	res, err := r.trader.Buy(ctx, trade.Asset, calc.FinalAmount)
	if err != nil {
		return fmt.Errorf("execute buy: %w", err)
	}
	return r.recordResult(ctx, res)
}

func (r *Reconciler) mirrorSell(ctx context.Context, trade *types.TradeActivity) error {
	ownPositions, err := r.positions.Positions(ctx, r.proxyWallet)
	if err != nil {
		return fmt.Errorf("fetch own positions: %w", err)
	}

	own := types.FindPosition(ownPositions, trade.Asset)
	if own == nil || own.Size <= 0 {
		r.skip(trade, ActionSkip, "nothing to mirror, no own position")
		return nil
	}

	trackedPositions, err := r.positions.Positions(ctx, trade.ProxyWallet)
	if err != nil {
		return fmt.Errorf("fetch tracked positions: %w", err)
	}

	action, target := r.sellTarget(trade, own, types.FindPosition(trackedPositions, trade.Asset))

	if target < execution.MinTradableTokens {
		r.skip(trade, action, fmt.Sprintf("target %.4f tokens below minimum tradable size", target))
		return nil
	}

	r.logger.Info("mirroring-sell",
		zap.String("action", string(action)),
		zap.String("asset", trade.Asset),
		zap.Float64("own-size", own.Size),
		zap.Float64("target-tokens", target))

	ActionsTotal.WithLabelValues(string(action)).Inc()
	res, err := r.trader.Sell(ctx, trade.Asset, target)
	if err != nil {
		return fmt.Errorf("execute sell: %w", err)
	}
	return r.recordResult(ctx, res)
}

// sellTarget computes the own-account sell size. With a residual tracked
// position the tracked trader's sold fraction is applied to the own
// position and scaled by the configured multiplier; without a residual
// the whole own position is liquidated.
func (r *Reconciler) sellTarget(trade *types.TradeActivity, own, tracked *types.Position) (Action, float64) {
	if tracked == nil || tracked.Size <= 0 {
		return ActionMerge, own.Size
	}

	preTrade := tracked.Size + trade.Size
	fraction := trade.Size / preTrade
	target := own.Size * fraction * r.strategy.Multiplier(trade.Notional())
	if target > own.Size {
		target = own.Size
	}
	return ActionSell, target
}

func (r *Reconciler) recordResult(ctx context.Context, res *execution.Result) error {
	if err := r.store.RecordExecution(ctx, res); err != nil {
		r.logger.Warn("record-execution-failed", zap.Error(err))
	}
	return nil
}

func (r *Reconciler) skip(trade *types.TradeActivity, action Action, reason string) {
	SkipsTotal.WithLabelValues(string(action)).Inc()
	r.logger.Warn("trade-skipped",
		zap.String("action", string(action)),
		zap.String("asset", trade.Asset),
		zap.String("tracked-wallet", trade.ProxyWallet),
		zap.String("side", trade.Side),
		zap.Float64("size", trade.Size),
		zap.String("reason", reason))
}
