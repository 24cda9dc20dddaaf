package execution

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaperSubmitter simulates order submission without touching the
// exchange. Every order fills fully at its quoted price.
type PaperSubmitter struct {
	logger *zap.Logger

	mu     sync.Mutex
	orders []LimitOrder
}

// NewPaperSubmitter creates a paper trading submitter.
func NewPaperSubmitter(logger *zap.Logger) *PaperSubmitter {
	return &PaperSubmitter{logger: logger}
}

// Submit records the order and returns a simulated full fill.
func (p *PaperSubmitter) Submit(_ context.Context, order LimitOrder) (*SubmitResult, error) {
	p.mu.Lock()
	p.orders = append(p.orders, order)
	p.mu.Unlock()

	p.logger.Info("paper-order-filled",
		zap.String("attempt-id", order.AttemptID),
		zap.String("token-id", order.TokenID),
		zap.String("side", order.Side),
		zap.Float64("price", order.Price),
		zap.Float64("size", order.Size))

	return &SubmitResult{OrderID: "paper-" + uuid.NewString()}, nil
}

// Orders returns a copy of every order submitted so far.
func (p *PaperSubmitter) Orders() []LimitOrder {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]LimitOrder, len(p.orders))
	copy(out, p.orders)
	return out
}
