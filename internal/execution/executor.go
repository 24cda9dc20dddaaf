// Package execution implements the order execution loop. Given a side,
// asset and target size it repeatedly fetches a fresh order book, takes
// the best contra quote, and submits short-lived limit orders until the
// target is met, liquidity runs out, or the retry budget is spent.
package execution

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/polycopy/copytrader/pkg/types"
)

// MinTradableTokens is the smallest order size the exchange accepts.
// The loop never submits an order below this size.
const MinTradableTokens = 1.0

// BookFetcher provides live order book snapshots.
type BookFetcher interface {
	OrderBook(ctx context.Context, tokenID string) (*types.OrderBook, error)
}

// MetadataProvider provides per-token tick size and minimum order size.
type MetadataProvider interface {
	GetTokenMetadata(ctx context.Context, tokenID string) (tickSize, minOrderSize float64, err error)
}

// LimitOrder is one order handed to a submitter. Price is already rounded
// to the token's tick size.
type LimitOrder struct {
	AttemptID string
	TokenID   string
	Side      string
	Price     float64
	Size      float64
	Expiry    time.Duration
}

// SubmitResult is the exchange's response to one order. A non-empty
// ErrorMessage is an order rejection.
type SubmitResult struct {
	OrderID      string
	ErrorMessage string
}

// OrderSubmitter signs and submits one limit order.
type OrderSubmitter interface {
	Submit(ctx context.Context, order LimitOrder) (*SubmitResult, error)
}

// Config holds executor configuration.
type Config struct {
	Books      BookFetcher
	Submitter  OrderSubmitter
	Metadata   MetadataProvider // optional, defaults tick size to 0.01
	RetryLimit int
	RetryDelay time.Duration
	OrderExpiry time.Duration
	Logger     *zap.Logger
}

// Executor walks a live order book to fill a target size. One call
// submits at most one outstanding order at a time.
type Executor struct {
	books       BookFetcher
	submitter   OrderSubmitter
	metadata    MetadataProvider
	retryLimit  int
	retryDelay  time.Duration
	orderExpiry time.Duration
	logger      *zap.Logger
}

// New creates an executor.
func New(cfg *Config) *Executor {
	retryLimit := cfg.RetryLimit
	if retryLimit <= 0 {
		retryLimit = 3
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}
	orderExpiry := cfg.OrderExpiry
	if orderExpiry <= 0 {
		orderExpiry = 90 * time.Second
	}
	return &Executor{
		books:       cfg.Books,
		submitter:   cfg.Submitter,
		metadata:    cfg.Metadata,
		retryLimit:  retryLimit,
		retryDelay:  retryDelay,
		orderExpiry: orderExpiry,
		logger:      cfg.Logger,
	}
}

// Buy acquires up to notionalUSD worth of the asset at the best visible
// ask prices. Partial fills are reported in the result, never as errors.
func (e *Executor) Buy(ctx context.Context, asset string, notionalUSD float64) (*Result, error) {
	if notionalUSD <= 0 {
		return nil, fmt.Errorf("buy notional must be positive, got %g", notionalUSD)
	}
	st := newAttempt(asset, types.SideBuy)
	st.RemainingNotional = notionalUSD
	return e.run(ctx, st)
}

// Sell disposes of up to tokens of the asset at the best visible bid
// prices. MERGE liquidations use this with the full held size.
func (e *Executor) Sell(ctx context.Context, asset string, tokens float64) (*Result, error) {
	if tokens <= 0 {
		return nil, fmt.Errorf("sell size must be positive, got %g", tokens)
	}
	st := newAttempt(asset, types.SideSell)
	st.RemainingTokens = tokens
	return e.run(ctx, st)
}

func (e *Executor) run(ctx context.Context, st *attempt) (*Result, error) {
	start := time.Now()
	defer func() {
		ExecutionDurationSeconds.WithLabelValues(st.Side).Observe(time.Since(start).Seconds())
	}()

	e.logger.Info("execution-starting",
		zap.String("attempt-id", st.ID),
		zap.String("asset", st.Asset),
		zap.String("side", st.Side),
		zap.Float64("target-usd", st.RemainingNotional),
		zap.Float64("target-tokens", st.RemainingTokens))

	for {
		if err := ctx.Err(); err != nil {
			return st.result(OutcomeRetriesExhausted, "context cancelled"), nil
		}
		st.Iterations++

		// The book is re-fetched every iteration since price and
		// liquidity may have moved.
		book, err := e.books.OrderBook(ctx, st.Asset)
		if err != nil {
			if done, res := e.fail(ctx, st, fmt.Sprintf("fetch order book: %v", err)); done {
				return res, nil
			}
			continue
		}

		quote, ok := e.bestQuote(book, st.Side)
		if !ok {
			e.logger.Warn("no-liquidity",
				zap.String("attempt-id", st.ID),
				zap.String("asset", st.Asset),
				zap.String("side", st.Side))
			NoLiquidityTotal.WithLabelValues(st.Side).Inc()
			return st.result(OutcomeNoLiquidity, "order book empty on contra side"), nil
		}

		fill := e.fillSize(st, quote)
		if fill < MinTradableTokens {
			return st.result(OutcomeBelowMinimum,
				fmt.Sprintf("remainder %.4f tokens below minimum tradable size", fill)), nil
		}

		price := e.roundPrice(ctx, st.Asset, quote.Price)
		res, err := e.submitter.Submit(ctx, LimitOrder{
			AttemptID: st.ID,
			TokenID:   st.Asset,
			Side:      st.Side,
			Price:     price,
			Size:      fill,
			Expiry:    e.orderExpiry,
		})
		OrdersSubmittedTotal.WithLabelValues(st.Side).Inc()

		switch {
		case err != nil:
			if done, out := e.fail(ctx, st, fmt.Sprintf("submit order: %v", err)); done {
				return out, nil
			}
		case res.ErrorMessage != "":
			rejection := &types.OrderRejection{AssetID: st.Asset, Side: st.Side, Message: res.ErrorMessage}
			if done, out := e.fail(ctx, st, rejection.Error()); done {
				return out, nil
			}
		default:
			st.recordFill(fill, price)
			FilledTokensTotal.WithLabelValues(st.Side).Add(fill)
			e.logger.Info("order-filled",
				zap.String("attempt-id", st.ID),
				zap.String("order-id", res.OrderID),
				zap.String("asset", st.Asset),
				zap.String("side", st.Side),
				zap.Float64("price", price),
				zap.Float64("size", fill),
				zap.Float64("remaining-usd", st.RemainingNotional),
				zap.Float64("remaining-tokens", st.RemainingTokens))
			if e.done(st) {
				return st.result(OutcomeFilled, "target filled"), nil
			}
		}
	}
}

// bestQuote picks the extremal contra price: minimum ask for BUY,
// maximum bid for SELL.
func (e *Executor) bestQuote(book *types.OrderBook, side string) (types.Quote, bool) {
	if side == types.SideBuy {
		return book.BestAsk()
	}
	return book.BestBid()
}

// fillSize computes min(remaining, available at best price) in tokens.
func (e *Executor) fillSize(st *attempt, quote types.Quote) float64 {
	if st.Side == types.SideBuy {
		return math.Min(st.RemainingNotional/quote.Price, quote.Size)
	}
	return math.Min(st.RemainingTokens, quote.Size)
}

func (e *Executor) done(st *attempt) bool {
	if st.Side == types.SideBuy {
		return st.RemainingNotional <= 1e-9
	}
	return st.RemainingTokens <= 1e-9
}

// fail counts one consecutive failure, returning the terminal result when
// the retry budget is exhausted, otherwise backing off briefly.
func (e *Executor) fail(ctx context.Context, st *attempt, reason string) (bool, *Result) {
	st.Failures++
	OrderFailuresTotal.WithLabelValues(st.Side).Inc()
	e.logger.Warn("execution-attempt-failed",
		zap.String("attempt-id", st.ID),
		zap.String("asset", st.Asset),
		zap.String("reason", reason),
		zap.Int("consecutive-failures", st.Failures),
		zap.Int("budget", e.retryLimit))

	if st.Failures >= e.retryLimit {
		return true, st.result(OutcomeRetriesExhausted, reason)
	}

	select {
	case <-ctx.Done():
		return true, st.result(OutcomeRetriesExhausted, "context cancelled")
	case <-time.After(e.retryDelay):
		return false, nil
	}
}

// roundPrice rounds a price to the token's tick size. Metadata failures
// fall back to the raw book price rather than blocking the fill.
func (e *Executor) roundPrice(ctx context.Context, asset string, price float64) float64 {
	if e.metadata == nil {
		return price
	}
	tick, _, err := e.metadata.GetTokenMetadata(ctx, asset)
	if err != nil || tick <= 0 {
		return price
	}
	return math.Round(price/tick) * tick
}
