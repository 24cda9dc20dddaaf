// Package storage persists position snapshots, observed trade activity
// and execution results. Positions are replaced wholesale via upsert
// keyed by (address, asset, market).
package storage

import (
	"context"

	"github.com/polycopy/copytrader/internal/execution"
	"github.com/polycopy/copytrader/pkg/types"
)

// Store is the interface for the position/activity store.
type Store interface {
	// UpsertPosition inserts or replaces one position snapshot for an
	// address, keyed by asset and market.
	UpsertPosition(ctx context.Context, address string, pos *types.Position) error

	// RecordActivity stores one observed trade event.
	RecordActivity(ctx context.Context, trade *types.TradeActivity) error

	// RecordExecution stores the terminal result of one fill loop.
	RecordExecution(ctx context.Context, res *execution.Result) error

	// PositionCount returns the number of stored positions for an address.
	PositionCount(ctx context.Context, address string) (int, error)

	// Close closes the storage connection.
	Close() error
}
