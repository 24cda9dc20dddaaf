// Package testutil provides shared fixtures and fakes for tests:
// canned trades, positions and order books, an in-memory store, and
// mock Polymarket API servers.
package testutil

import (
	"strconv"
	"time"

	"github.com/polycopy/copytrader/pkg/types"
)

// BuyTrade returns a fresh BUY trade event for the given trader.
func BuyTrade(address, asset string, size, price float64) *types.TradeActivity {
	return trade(address, asset, "BUY", size, price)
}

// SellTrade returns a fresh SELL trade event for the given trader.
func SellTrade(address, asset string, size, price float64) *types.TradeActivity {
	return trade(address, asset, "SELL", size, price)
}

func trade(address, asset, side string, size, price float64) *types.TradeActivity {
	return &types.TradeActivity{
		ProxyWallet:     address,
		Timestamp:       time.Now().Unix(),
		ConditionID:     "0xcondition",
		Type:            "TRADE",
		Size:            size,
		USDCSize:        size * price,
		TransactionHash: "0xtx",
		Price:           price,
		Asset:           asset,
		Side:            side,
		Outcome:         "Yes",
		Title:           "Test market",
		Slug:            "test-market",
	}
}

// Position returns a position snapshot for the given holder.
func Position(address, asset string, size, avgPrice float64) types.Position {
	return types.Position{
		ProxyWallet:  address,
		Asset:        asset,
		ConditionID:  "0xcondition",
		Size:         size,
		AvgPrice:     avgPrice,
		CurPrice:     avgPrice,
		CurrentValue: size * avgPrice,
		Title:        "Test market",
		Slug:         "test-market",
		Outcome:      "Yes",
	}
}

// Book builds an order book from [price, size] pairs.
func Book(asset string, bids, asks [][2]float64) *types.OrderBook {
	return &types.OrderBook{
		AssetID: asset,
		Market:  "0xcondition",
		Bids:    levels(bids),
		Asks:    levels(asks),
	}
}

func levels(pairs [][2]float64) []types.PriceLevel {
	out := make([]types.PriceLevel, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, types.PriceLevel{
			Price: strconv.FormatFloat(p[0], 'f', -1, 64),
			Size:  strconv.FormatFloat(p[1], 'f', -1, 64),
		})
	}
	return out
}
