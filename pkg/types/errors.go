package types

import "fmt"

// OrderRejection is an exchange-side rejection of a submitted order. It is
// retryable inside the execution loop up to the retry budget and never
// escalates to a crash.
type OrderRejection struct {
	AssetID string
	Side    string
	Message string
}

func (e *OrderRejection) Error() string {
	return fmt.Sprintf("%s order for %s rejected: %s", e.Side, e.AssetID, e.Message)
}

// ErrNotEnoughBalance is the CLOB rejection message for an underfunded
// maker; it gets its own log line since it means the operator must top up.
const ErrNotEnoughBalance = "not enough balance / allowance"
