package storage

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/polycopy/copytrader/internal/execution"
	"github.com/polycopy/copytrader/pkg/types"
)

// ConsoleStore implements Store by logging instead of persisting. Used
// when no database is configured, and as the default for paper trading.
type ConsoleStore struct {
	logger *zap.Logger

	// in-memory position counts so PositionCount still works
	mu        sync.Mutex
	positions map[string]map[string]struct{}
}

// NewConsoleStore creates a new console store.
func NewConsoleStore(logger *zap.Logger) *ConsoleStore {
	logger.Info("console-store-initialized")
	return &ConsoleStore{
		logger:    logger,
		positions: make(map[string]map[string]struct{}),
	}
}

// UpsertPosition logs the position snapshot.
func (c *ConsoleStore) UpsertPosition(_ context.Context, address string, pos *types.Position) error {
	key := pos.Asset + "/" + pos.ConditionID
	c.mu.Lock()
	if c.positions[address] == nil {
		c.positions[address] = make(map[string]struct{})
	}
	c.positions[address][key] = struct{}{}
	c.mu.Unlock()

	c.logger.Info("position-snapshot",
		zap.String("address", address),
		zap.String("asset", pos.Asset),
		zap.String("title", pos.Title),
		zap.String("outcome", pos.Outcome),
		zap.Float64("size", pos.Size),
		zap.Float64("avg-price", pos.AvgPrice),
		zap.Float64("cur-price", pos.CurPrice),
		zap.Float64("current-value", pos.CurrentValue))
	return nil
}

// RecordActivity logs the trade event.
func (c *ConsoleStore) RecordActivity(_ context.Context, trade *types.TradeActivity) error {
	c.logger.Info("trade-activity",
		zap.String("proxy-wallet", trade.ProxyWallet),
		zap.String("asset", trade.Asset),
		zap.String("side", trade.Side),
		zap.Float64("size", trade.Size),
		zap.Float64("price", trade.Price),
		zap.Float64("notional", trade.Notional()))
	return nil
}

// RecordExecution logs the execution result.
func (c *ConsoleStore) RecordExecution(_ context.Context, res *execution.Result) error {
	c.logger.Info("execution-result",
		zap.String("attempt-id", res.AttemptID),
		zap.String("asset", res.Asset),
		zap.String("side", res.Side),
		zap.String("outcome", string(res.Outcome)),
		zap.Float64("filled-tokens", res.FilledTokens),
		zap.Float64("filled-notional", res.FilledNotional),
		zap.Float64("unfilled-tokens", res.UnfilledTokens),
		zap.String("reason", res.Reason))
	return nil
}

// PositionCount returns the number of distinct positions seen for an
// address in this process lifetime.
func (c *ConsoleStore) PositionCount(_ context.Context, address string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.positions[address]), nil
}

// Close is a no-op for console storage.
func (c *ConsoleStore) Close() error {
	c.logger.Info("closing-console-store")
	return nil
}
