package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/polycopy/copytrader/internal/execution"
	"github.com/polycopy/copytrader/internal/sizing"
	"github.com/polycopy/copytrader/internal/storage"
	"github.com/polycopy/copytrader/pkg/types"
)

const (
	ownWallet     = "0x1111111111111111111111111111111111111111"
	trackedWallet = "0x2222222222222222222222222222222222222222"
)

type fakePositions struct {
	byAddress map[string][]types.Position
}

func (f *fakePositions) Positions(_ context.Context, address string) ([]types.Position, error) {
	return f.byAddress[address], nil
}

type fakeBalance struct{ usd float64 }

func (f *fakeBalance) BalanceUSDC(_ context.Context, _ string) (float64, error) {
	return f.usd, nil
}

type fakeTrader struct {
	buys  []float64
	sells []float64
}

func (f *fakeTrader) Buy(_ context.Context, asset string, notionalUSD float64) (*execution.Result, error) {
	f.buys = append(f.buys, notionalUSD)
	return &execution.Result{Asset: asset, Side: types.SideBuy, Outcome: execution.OutcomeFilled, FilledNotional: notionalUSD}, nil
}

func (f *fakeTrader) Sell(_ context.Context, asset string, tokens float64) (*execution.Result, error) {
	f.sells = append(f.sells, tokens)
	return &execution.Result{Asset: asset, Side: types.SideSell, Outcome: execution.OutcomeFilled, FilledTokens: tokens}, nil
}

func defaultStrategy() sizing.Config {
	return sizing.Config{
		Strategy:        sizing.StrategyPercentage,
		CopySize:        10,
		MinOrderSizeUSD: 1,
		MaxOrderSizeUSD: 50,
	}
}

func newTestReconciler(strategy sizing.Config, positions *fakePositions, balance float64, trader *fakeTrader) *Reconciler {
	return New(&Config{
		ProxyWallet: ownWallet,
		Strategy:    strategy,
		Positions:   positions,
		Balance:     &fakeBalance{usd: balance},
		Trader:      trader,
		Store:       storage.NewConsoleStore(zap.NewNop()),
		Logger:      zap.NewNop(),
	})
}

func buyTrade(notional float64) *types.TradeActivity {
	return &types.TradeActivity{
		ProxyWallet: trackedWallet,
		ConditionID: "cond-1",
		Asset:       "tok-1",
		Side:        types.SideBuy,
		Size:        notional * 2,
		USDCSize:    notional,
		Price:       0.5,
		Timestamp:   1700000000,
	}
}

func sellTrade(tokens float64) *types.TradeActivity {
	return &types.TradeActivity{
		ProxyWallet: trackedWallet,
		ConditionID: "cond-1",
		Asset:       "tok-1",
		Side:        types.SideSell,
		Size:        tokens,
		USDCSize:    tokens * 0.5,
		Price:       0.5,
		Timestamp:   1700000000,
	}
}

func TestBuyMirroredAtTenPercent(t *testing.T) {
	trader := &fakeTrader{}
	r := newTestReconciler(defaultStrategy(), &fakePositions{byAddress: map[string][]types.Position{}}, 1000, trader)

	err := r.HandleTrade(context.Background(), buyTrade(100))
	require.NoError(t, err)

	require.Len(t, trader.buys, 1)
	assert.InDelta(t, 10.0, trader.buys[0], 1e-9)
}

func TestBuyClampedToBalanceBuffer(t *testing.T) {
	trader := &fakeTrader{}
	r := newTestReconciler(defaultStrategy(), &fakePositions{byAddress: map[string][]types.Position{}}, 5, trader)

	err := r.HandleTrade(context.Background(), buyTrade(100))
	require.NoError(t, err)

	require.Len(t, trader.buys, 1)
	assert.InDelta(t, 4.95, trader.buys[0], 1e-9)
}

func TestBuySkippedWhenPositionCapLeavesNoRoom(t *testing.T) {
	strategy := defaultStrategy()
	strategy.MaxPositionSizeUSD = 10
	trader := &fakeTrader{}
	positions := &fakePositions{byAddress: map[string][]types.Position{
		ownWallet: {{Asset: "tok-1", Size: 20, AvgPrice: 0.5, CurrentValue: 10}},
	}}
	r := newTestReconciler(strategy, positions, 1000, trader)

	err := r.HandleTrade(context.Background(), buyTrade(100))
	require.NoError(t, err)
	assert.Empty(t, trader.buys)
}

func TestSellProportionalToTrackedExit(t *testing.T) {
	// Tracked trader sold 40 of a pre-trade 100 tokens (residual 60).
	// The operator holds 20, so the mirrored sell is 8 tokens.
	trader := &fakeTrader{}
	positions := &fakePositions{byAddress: map[string][]types.Position{
		ownWallet:     {{Asset: "tok-1", Size: 20, AvgPrice: 0.5}},
		trackedWallet: {{Asset: "tok-1", Size: 60, AvgPrice: 0.5}},
	}}
	r := newTestReconciler(defaultStrategy(), positions, 1000, trader)

	err := r.HandleTrade(context.Background(), sellTrade(40))
	require.NoError(t, err)

	require.Len(t, trader.sells, 1)
	assert.InDelta(t, 8.0, trader.sells[0], 1e-9)
}

func TestSellAppliesMultiplier(t *testing.T) {
	strategy := defaultStrategy()
	strategy.SingleMultiplier = 2
	trader := &fakeTrader{}
	positions := &fakePositions{byAddress: map[string][]types.Position{
		ownWallet:     {{Asset: "tok-1", Size: 20, AvgPrice: 0.5}},
		trackedWallet: {{Asset: "tok-1", Size: 60, AvgPrice: 0.5}},
	}}
	r := newTestReconciler(strategy, positions, 1000, trader)

	err := r.HandleTrade(context.Background(), sellTrade(40))
	require.NoError(t, err)

	require.Len(t, trader.sells, 1)
	assert.InDelta(t, 16.0, trader.sells[0], 1e-9)
}

func TestSellCappedAtHeldSize(t *testing.T) {
	strategy := defaultStrategy()
	strategy.SingleMultiplier = 10
	trader := &fakeTrader{}
	positions := &fakePositions{byAddress: map[string][]types.Position{
		ownWallet:     {{Asset: "tok-1", Size: 20, AvgPrice: 0.5}},
		trackedWallet: {{Asset: "tok-1", Size: 60, AvgPrice: 0.5}},
	}}
	r := newTestReconciler(strategy, positions, 1000, trader)

	err := r.HandleTrade(context.Background(), sellTrade(40))
	require.NoError(t, err)

	require.Len(t, trader.sells, 1)
	assert.InDelta(t, 20.0, trader.sells[0], 1e-9)
}

func TestMergeWhenTrackedPositionAbsent(t *testing.T) {
	trader := &fakeTrader{}
	positions := &fakePositions{byAddress: map[string][]types.Position{
		ownWallet: {{Asset: "tok-1", Size: 20, AvgPrice: 0.5}},
		// Tracked trader has fully exited.
		trackedWallet: {},
	}}
	r := newTestReconciler(defaultStrategy(), positions, 1000, trader)

	err := r.HandleTrade(context.Background(), sellTrade(40))
	require.NoError(t, err)

	require.Len(t, trader.sells, 1)
	assert.InDelta(t, 20.0, trader.sells[0], 1e-9)
}

func TestSellSkippedWithoutOwnPosition(t *testing.T) {
	trader := &fakeTrader{}
	positions := &fakePositions{byAddress: map[string][]types.Position{
		trackedWallet: {{Asset: "tok-1", Size: 60, AvgPrice: 0.5}},
	}}
	r := newTestReconciler(defaultStrategy(), positions, 1000, trader)

	err := r.HandleTrade(context.Background(), sellTrade(40))
	require.NoError(t, err)
	assert.Empty(t, trader.sells)
}

func TestSellSkippedBelowMinimumTradableSize(t *testing.T) {
	// Tracked sold 1 of 100 tokens; the operator's 20-token position
	// maps to 0.2 tokens, below the 1-token minimum.
	trader := &fakeTrader{}
	positions := &fakePositions{byAddress: map[string][]types.Position{
		ownWallet:     {{Asset: "tok-1", Size: 20, AvgPrice: 0.5}},
		trackedWallet: {{Asset: "tok-1", Size: 99, AvgPrice: 0.5}},
	}}
	r := newTestReconciler(defaultStrategy(), positions, 1000, trader)

	err := r.HandleTrade(context.Background(), sellTrade(1))
	require.NoError(t, err)
	assert.Empty(t, trader.sells)
}
