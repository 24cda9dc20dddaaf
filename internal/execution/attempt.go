package execution

import (
	"fmt"

	"github.com/google/uuid"
)

// Outcome classifies how a fill loop terminated. Partial fills and
// liquidity exhaustion are normal outcomes, not errors.
type Outcome string

const (
	// OutcomeFilled means the full target was acquired.
	OutcomeFilled Outcome = "FILLED"
	// OutcomePartial means some but not all of the target was acquired.
	OutcomePartial Outcome = "PARTIAL"
	// OutcomeNoLiquidity means the contra side of the book was empty
	// before anything filled.
	OutcomeNoLiquidity Outcome = "NO_LIQUIDITY"
	// OutcomeBelowMinimum means the computed fill was below the minimum
	// tradable size before anything filled.
	OutcomeBelowMinimum Outcome = "BELOW_MINIMUM"
	// OutcomeRetriesExhausted means consecutive submission failures spent
	// the retry budget.
	OutcomeRetriesExhausted Outcome = "RETRIES_EXHAUSTED"
)

// attempt is the running state of one fill loop. All mutation during the
// loop goes through this struct so the state machine is auditable in
// isolation from network calls.
type attempt struct {
	ID    string
	Asset string
	Side  string

	// For BUY the remainder is tracked in quote notional and converted
	// via the best ask each iteration. For SELL it is tracked in tokens.
	RemainingNotional float64
	RemainingTokens   float64

	FilledTokens   float64
	FilledNotional float64
	Iterations     int
	Failures       int
}

func newAttempt(asset, side string) *attempt {
	return &attempt{
		ID:    uuid.NewString(),
		Asset: asset,
		Side:  side,
	}
}

// recordFill accrues one successful order and resets the consecutive
// failure counter.
func (a *attempt) recordFill(tokens, price float64) {
	a.FilledTokens += tokens
	a.FilledNotional += tokens * price
	a.RemainingNotional -= tokens * price
	a.RemainingTokens -= tokens
	a.Failures = 0
}

// Result is the terminal report of one fill loop.
type Result struct {
	AttemptID      string
	Asset          string
	Side           string
	Outcome        Outcome
	FilledTokens   float64
	FilledNotional float64
	UnfilledTokens float64
	UnfilledUSD    float64
	Iterations     int
	Reason         string
}

func (a *attempt) result(outcome Outcome, reason string) *Result {
	// A trailing remainder only counts as partial when something filled.
	if (outcome == OutcomeNoLiquidity || outcome == OutcomeBelowMinimum || outcome == OutcomeRetriesExhausted) && a.FilledTokens > 0 {
		reason = fmt.Sprintf("%s after partial fill", reason)
		outcome = OutcomePartial
	}
	return &Result{
		AttemptID:      a.ID,
		Asset:          a.Asset,
		Side:           a.Side,
		Outcome:        outcome,
		FilledTokens:   a.FilledTokens,
		FilledNotional: a.FilledNotional,
		UnfilledTokens: max(a.RemainingTokens, 0),
		UnfilledUSD:    max(a.RemainingNotional, 0),
		Iterations:     a.Iterations,
		Reason:         reason,
	}
}
