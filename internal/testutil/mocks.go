package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/polycopy/copytrader/internal/execution"
	"github.com/polycopy/copytrader/pkg/types"
)

// MockDataAPI serves the Data API and CLOB read endpoints used by the
// bot: /positions, /activity and /book. State is mutable between
// requests so tests can evolve positions mid-scenario.
type MockDataAPI struct {
	*httptest.Server
	mu        sync.RWMutex
	positions map[string][]types.Position // lowercase address
	activity  map[string][]types.TradeActivity
	books     map[string]*types.OrderBook
}

// NewMockDataAPI creates a started mock server. Callers own Close.
func NewMockDataAPI() *MockDataAPI {
	mock := &MockDataAPI{
		positions: make(map[string][]types.Position),
		activity:  make(map[string][]types.TradeActivity),
		books:     make(map[string]*types.OrderBook),
	}
	mock.Server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

func (m *MockDataAPI) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/positions":
		user := strings.ToLower(r.URL.Query().Get("user"))
		json.NewEncoder(w).Encode(m.positions[user])
	case "/activity":
		user := strings.ToLower(r.URL.Query().Get("user"))
		json.NewEncoder(w).Encode(m.activity[user])
	case "/book":
		book, ok := m.books[r.URL.Query().Get("token_id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(book)
	default:
		http.NotFound(w, r)
	}
}

// SetPositions replaces the positions returned for an address.
func (m *MockDataAPI) SetPositions(address string, positions []types.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[strings.ToLower(address)] = positions
}

// SetActivity replaces the activity returned for an address.
func (m *MockDataAPI) SetActivity(address string, activity []types.TradeActivity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity[strings.ToLower(address)] = activity
}

// SetBook replaces the order book returned for a token.
func (m *MockDataAPI) SetBook(tokenID string, book *types.OrderBook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[tokenID] = book
}

// StaticBalance reports a fixed USDC balance for any address.
type StaticBalance struct {
	USDC float64
}

func (b *StaticBalance) BalanceUSDC(_ context.Context, _ string) (float64, error) {
	return b.USDC, nil
}

// MockStore is an in-memory storage.Store recorder.
type MockStore struct {
	mu         sync.Mutex
	positions  map[string]map[string]types.Position // address -> asset/condition
	activities []types.TradeActivity
	executions []execution.Result
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		positions: make(map[string]map[string]types.Position),
	}
}

func (m *MockStore) UpsertPosition(_ context.Context, address string, pos *types.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(address)
	if m.positions[key] == nil {
		m.positions[key] = make(map[string]types.Position)
	}
	m.positions[key][pos.Asset+"/"+pos.ConditionID] = *pos
	return nil
}

func (m *MockStore) RecordActivity(_ context.Context, trade *types.TradeActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = append(m.activities, *trade)
	return nil
}

func (m *MockStore) RecordExecution(_ context.Context, res *execution.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions = append(m.executions, *res)
	return nil
}

func (m *MockStore) PositionCount(_ context.Context, address string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.positions[strings.ToLower(address)]), nil
}

func (m *MockStore) Close() error { return nil }

// Activities returns a copy of all recorded trade events.
func (m *MockStore) Activities() []types.TradeActivity {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.TradeActivity, len(m.activities))
	copy(out, m.activities)
	return out
}

// Executions returns a copy of all recorded execution results.
func (m *MockStore) Executions() []execution.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]execution.Result, len(m.executions))
	copy(out, m.executions)
	return out
}
