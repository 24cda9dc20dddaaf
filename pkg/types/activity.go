package types

import (
	"strings"
	"time"
)

// Trade sides as reported by the Data API and the RTDS feed.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// ActivityTypeTrade is the activity type we mirror; other activity types
// (splits, merges, redeems) are ignored.
const ActivityTypeTrade = "TRADE"

// TradeActivity is one observed trade of a tracked trader. It arrives either
// as an RTDS payload or from the Data API activity endpoint. Immutable once
// received.
type TradeActivity struct {
	ProxyWallet     string  `json:"proxyWallet"`
	Timestamp       int64   `json:"timestamp"`
	ConditionID     string  `json:"conditionId"`
	Type            string  `json:"type"`
	Size            float64 `json:"size"`
	USDCSize        float64 `json:"usdcSize"`
	TransactionHash string  `json:"transactionHash"`
	Price           float64 `json:"price"`
	Asset           string  `json:"asset"`
	Side            string  `json:"side"`
	OutcomeIndex    int     `json:"outcomeIndex"`
	Outcome         string  `json:"outcome"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
	EventSlug       string  `json:"eventSlug"`
}

// Notional returns the quote-currency size of the trade, falling back to
// size*price when the feed omits usdcSize.
func (a *TradeActivity) Notional() float64 {
	if a.USDCSize > 0 {
		return a.USDCSize
	}
	return a.Size * a.Price
}

// Time returns the event timestamp, accepting both second and millisecond
// epoch values as the feed is inconsistent about units.
func (a *TradeActivity) Time() time.Time {
	ts := a.Timestamp
	if ts > 1_000_000_000_000 {
		return time.UnixMilli(ts)
	}
	return time.Unix(ts, 0)
}

// IsBuy reports whether the tracked trader was buying.
func (a *TradeActivity) IsBuy() bool {
	return strings.EqualFold(a.Side, SideBuy)
}

// Valid reports whether the activity carries the fields reconciliation
// requires. Incomplete payloads are skipped, never defaulted.
func (a *TradeActivity) Valid() bool {
	if a.ProxyWallet == "" || a.Asset == "" || a.ConditionID == "" {
		return false
	}
	if a.Side != SideBuy && a.Side != SideSell {
		return false
	}
	return a.Size > 0 && a.Price > 0
}

// RTDSMessage is one inbound frame from the real-time data stream. Frames are
// either subscription acknowledgments (Action/Status set) or activity events
// (Topic "activity", Type "trades", Payload present).
type RTDSMessage struct {
	Action  string         `json:"action,omitempty"`
	Status  string         `json:"status,omitempty"`
	Topic   string         `json:"topic,omitempty"`
	Type    string         `json:"type,omitempty"`
	Payload *TradeActivity `json:"payload,omitempty"`
}

// IsSubscriptionAck reports whether the frame confirms a subscription.
func (m *RTDSMessage) IsSubscriptionAck() bool {
	return m.Action == "subscribed" || m.Status == "subscribed"
}

// IsTradeEvent reports whether the frame is a trade-activity event.
func (m *RTDSMessage) IsTradeEvent() bool {
	return m.Topic == "activity" && m.Type == "trades" && m.Payload != nil
}

// RTDSSubscription is one entry of the subscribe request. Filters is a
// JSON-encoded object narrowing the feed, e.g. to one proxy wallet.
type RTDSSubscription struct {
	Topic   string `json:"topic"`
	Type    string `json:"type"`
	Filters string `json:"filters,omitempty"`
}

// RTDSSubscribeRequest is the outbound subscribe message, one subscription
// entry per tracked address.
type RTDSSubscribeRequest struct {
	Action        string             `json:"action"`
	Subscriptions []RTDSSubscription `json:"subscriptions"`
}
