package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/polycopy/copytrader/pkg/types"
)

// scriptedBooks returns one snapshot per OrderBook call, repeating the
// last one once the script runs out.
type scriptedBooks struct {
	books []*types.OrderBook
	calls int
	err   error
}

func (s *scriptedBooks) OrderBook(_ context.Context, _ string) (*types.OrderBook, error) {
	if s.err != nil {
		return nil, s.err
	}
	i := s.calls
	if i >= len(s.books) {
		i = len(s.books) - 1
	}
	s.calls++
	return s.books[i], nil
}

func book(bids, asks []types.PriceLevel) *types.OrderBook {
	return &types.OrderBook{Bids: bids, Asks: asks}
}

func level(price, size string) types.PriceLevel {
	return types.PriceLevel{Price: price, Size: size}
}

// failingSubmitter rejects the first n orders and fills the rest.
type failingSubmitter struct {
	failures  int
	submitted []LimitOrder
	rejectMsg string
}

func (f *failingSubmitter) Submit(_ context.Context, order LimitOrder) (*SubmitResult, error) {
	f.submitted = append(f.submitted, order)
	if len(f.submitted) <= f.failures {
		if f.rejectMsg != "" {
			return &SubmitResult{ErrorMessage: f.rejectMsg}, nil
		}
		return nil, errors.New("connection reset")
	}
	return &SubmitResult{OrderID: "ord-1"}, nil
}

func newTestExecutor(books BookFetcher, submitter OrderSubmitter) *Executor {
	return New(&Config{
		Books:      books,
		Submitter:  submitter,
		RetryLimit: 3,
		RetryDelay: time.Millisecond,
		Logger:     zap.NewNop(),
	})
}

func TestBuyFullFill(t *testing.T) {
	books := &scriptedBooks{books: []*types.OrderBook{
		book(nil, []types.PriceLevel{level("0.50", "100")}),
	}}
	paper := NewPaperSubmitter(zap.NewNop())
	exec := newTestExecutor(books, paper)

	res, err := exec.Buy(context.Background(), "tok-1", 10)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFilled, res.Outcome)
	assert.InDelta(t, 20.0, res.FilledTokens, 1e-9)
	assert.InDelta(t, 10.0, res.FilledNotional, 1e-9)
	require.Len(t, paper.Orders(), 1)
	assert.Equal(t, 0.50, paper.Orders()[0].Price)
}

func TestBuyWalksMultipleLevels(t *testing.T) {
	// Each snapshot reflects the previous fill having consumed the top
	// level.
	books := &scriptedBooks{books: []*types.OrderBook{
		book(nil, []types.PriceLevel{level("0.50", "10")}),
		book(nil, []types.PriceLevel{level("0.55", "100")}),
	}}
	paper := NewPaperSubmitter(zap.NewNop())
	exec := newTestExecutor(books, paper)

	res, err := exec.Buy(context.Background(), "tok-1", 10)
	require.NoError(t, err)

	// 10 tokens at 0.50 = $5, remaining $5 at 0.55 = 9.09 tokens.
	assert.Equal(t, OutcomeFilled, res.Outcome)
	require.Len(t, paper.Orders(), 2)
	assert.InDelta(t, 10.0, paper.Orders()[0].Size, 1e-9)
	assert.InDelta(t, 5.0/0.55, paper.Orders()[1].Size, 1e-9)
	assert.InDelta(t, 10.0, res.FilledNotional, 1e-9)
}

func TestSellPartialFillOnLiquidityExhaustion(t *testing.T) {
	// Only 3 tokens at the best bid, then the book empties. A 10-token
	// sell fills 3 and reports 7 unfilled without erroring.
	books := &scriptedBooks{books: []*types.OrderBook{
		book([]types.PriceLevel{level("0.60", "3")}, nil),
		book(nil, nil),
	}}
	paper := NewPaperSubmitter(zap.NewNop())
	exec := newTestExecutor(books, paper)

	res, err := exec.Sell(context.Background(), "tok-1", 10)
	require.NoError(t, err)

	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.InDelta(t, 3.0, res.FilledTokens, 1e-9)
	assert.InDelta(t, 7.0, res.UnfilledTokens, 1e-9)
	require.Len(t, paper.Orders(), 1)
}

func TestBuyNoLiquidity(t *testing.T) {
	books := &scriptedBooks{books: []*types.OrderBook{book(nil, nil)}}
	exec := newTestExecutor(books, NewPaperSubmitter(zap.NewNop()))

	res, err := exec.Buy(context.Background(), "tok-1", 10)
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoLiquidity, res.Outcome)
	assert.Zero(t, res.FilledTokens)
}

func TestBuyNeverSubmitsBelowMinimum(t *testing.T) {
	// $0.40 target at price 0.50 is 0.8 tokens, below the 1-token
	// minimum. Nothing must be submitted.
	books := &scriptedBooks{books: []*types.OrderBook{
		book(nil, []types.PriceLevel{level("0.50", "100")}),
	}}
	paper := NewPaperSubmitter(zap.NewNop())
	exec := newTestExecutor(books, paper)

	res, err := exec.Buy(context.Background(), "tok-1", 0.40)
	require.NoError(t, err)

	assert.Equal(t, OutcomeBelowMinimum, res.Outcome)
	assert.Empty(t, paper.Orders())
}

func TestBuyNeverExceedsTarget(t *testing.T) {
	books := &scriptedBooks{books: []*types.OrderBook{
		book(nil, []types.PriceLevel{level("0.25", "1000")}),
	}}
	paper := NewPaperSubmitter(zap.NewNop())
	exec := newTestExecutor(books, paper)

	res, err := exec.Buy(context.Background(), "tok-1", 50)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFilled, res.Outcome)
	assert.LessOrEqual(t, res.FilledNotional, 50.0+1e-9)

	var total float64
	for _, o := range paper.Orders() {
		total += o.Size * o.Price
	}
	assert.LessOrEqual(t, total, 50.0+1e-9)
}

func TestRetriesExhaustedOnRepeatedRejection(t *testing.T) {
	books := &scriptedBooks{books: []*types.OrderBook{
		book(nil, []types.PriceLevel{level("0.50", "100")}),
	}}
	sub := &failingSubmitter{failures: 10, rejectMsg: "not enough balance"}
	exec := newTestExecutor(books, sub)

	res, err := exec.Buy(context.Background(), "tok-1", 10)
	require.NoError(t, err)

	assert.Equal(t, OutcomeRetriesExhausted, res.Outcome)
	assert.Contains(t, res.Reason, "not enough balance")
	assert.Len(t, sub.submitted, 3)
}

func TestFailureCounterResetsOnSuccess(t *testing.T) {
	// Two rejections, then fills. Budget of 3 consecutive failures is
	// never exhausted because the counter resets on the fill.
	books := &scriptedBooks{books: []*types.OrderBook{
		book(nil, []types.PriceLevel{level("0.50", "100")}),
	}}
	sub := &failingSubmitter{failures: 2}
	exec := newTestExecutor(books, sub)

	res, err := exec.Buy(context.Background(), "tok-1", 10)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFilled, res.Outcome)
	assert.Len(t, sub.submitted, 3)
}

func TestBookFetchErrorsSpendRetryBudget(t *testing.T) {
	books := &scriptedBooks{err: errors.New("gateway timeout")}
	exec := newTestExecutor(books, NewPaperSubmitter(zap.NewNop()))

	res, err := exec.Buy(context.Background(), "tok-1", 10)
	require.NoError(t, err)

	assert.Equal(t, OutcomeRetriesExhausted, res.Outcome)
	assert.Contains(t, res.Reason, "gateway timeout")
}

func TestSellRejectsNonPositiveSize(t *testing.T) {
	exec := newTestExecutor(&scriptedBooks{books: []*types.OrderBook{book(nil, nil)}}, NewPaperSubmitter(zap.NewNop()))

	_, err := exec.Sell(context.Background(), "tok-1", 0)
	assert.Error(t, err)

	_, err = exec.Buy(context.Background(), "tok-1", -5)
	assert.Error(t, err)
}

type fixedMetadata struct{ tick float64 }

func (f fixedMetadata) GetTokenMetadata(_ context.Context, _ string) (float64, float64, error) {
	return f.tick, 5.0, nil
}

func TestPriceRoundedToTickSize(t *testing.T) {
	books := &scriptedBooks{books: []*types.OrderBook{
		book(nil, []types.PriceLevel{level("0.5234", "100")}),
	}}
	paper := NewPaperSubmitter(zap.NewNop())
	exec := New(&Config{
		Books:      books,
		Submitter:  paper,
		Metadata:   fixedMetadata{tick: 0.01},
		RetryLimit: 3,
		RetryDelay: time.Millisecond,
		Logger:     zap.NewNop(),
	})

	_, err := exec.Buy(context.Background(), "tok-1", 10)
	require.NoError(t, err)

	require.NotEmpty(t, paper.Orders())
	assert.InDelta(t, 0.52, paper.Orders()[0].Price, 1e-9)
}
