package types

import "strconv"

// PriceLevel is one ladder entry of an order book. The CLOB API serializes
// price and size as strings.
type PriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// Values parses the level; ok is false when either field is malformed.
func (l PriceLevel) Values() (price, size float64, ok bool) {
	price, err := strconv.ParseFloat(l.Price, 64)
	if err != nil {
		return 0, 0, false
	}
	size, err = strconv.ParseFloat(l.Size, 64)
	if err != nil {
		return 0, 0, false
	}
	return price, size, true
}

// OrderBook is the bid/ask ladder for one asset at fetch time. Transient:
// re-fetched before every execution attempt, never persisted.
type OrderBook struct {
	AssetID string       `json:"asset_id"`
	Market  string       `json:"market"`
	Bids    []PriceLevel `json:"bids"`
	Asks    []PriceLevel `json:"asks"`
}

// Quote is one parsed extremal price level.
type Quote struct {
	Price float64
	Size  float64
}

// BestBid returns the maximum-price bid, skipping malformed levels.
func (b *OrderBook) BestBid() (Quote, bool) {
	return bestLevel(b.Bids, func(candidate, best float64) bool { return candidate > best })
}

// BestAsk returns the minimum-price ask, skipping malformed levels.
func (b *OrderBook) BestAsk() (Quote, bool) {
	return bestLevel(b.Asks, func(candidate, best float64) bool { return candidate < best })
}

func bestLevel(levels []PriceLevel, better func(candidate, best float64) bool) (Quote, bool) {
	var best Quote
	found := false
	for _, l := range levels {
		price, size, ok := l.Values()
		if !ok || size <= 0 {
			continue
		}
		if !found || better(price, best.Price) {
			best = Quote{Price: price, Size: size}
			found = true
		}
	}
	return best, found
}
