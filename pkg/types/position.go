package types

// Position is a holder's current exposure in one outcome token, as returned
// by the Data API positions endpoint. Snapshots are replaced wholesale on
// refresh, never mutated in place.
type Position struct {
	ProxyWallet  string  `json:"proxyWallet"`
	Asset        string  `json:"asset"`
	ConditionID  string  `json:"conditionId"`
	Size         float64 `json:"size"`
	AvgPrice     float64 `json:"avgPrice"`
	CurPrice     float64 `json:"curPrice"`
	InitialValue float64 `json:"initialValue"`
	CurrentValue float64 `json:"currentValue"`
	CashPnL      float64 `json:"cashPnl"`
	PercentPnL   float64 `json:"percentPnl"`
	RealizedPnL  float64 `json:"realizedPnl"`
	Redeemable   bool    `json:"redeemable"`
	Title        string  `json:"title"`
	Slug         string  `json:"slug"`
	Outcome      string  `json:"outcome"`
	OutcomeIndex int     `json:"outcomeIndex"`
	EndDate      string  `json:"endDate"`
}

// Notional returns the position's current quote-currency value, derived from
// size and average entry price when the API omits currentValue.
func (p *Position) Notional() float64 {
	if p.CurrentValue > 0 {
		return p.CurrentValue
	}
	return p.Size * p.AvgPrice
}

// FindPosition returns the position for the given asset, or nil.
func FindPosition(positions []Position, asset string) *Position {
	for i := range positions {
		if positions[i].Asset == asset {
			return &positions[i]
		}
	}
	return nil
}
