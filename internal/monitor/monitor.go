// Package monitor owns the long-lived RTDS connection. It subscribes to
// trade activity for every tracked address, dispatches accepted events to
// reconciliation strictly in order, and refreshes position snapshots on a
// fixed cadence alongside the stream.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/polycopy/copytrader/internal/storage"
	"github.com/polycopy/copytrader/pkg/retry"
	"github.com/polycopy/copytrader/pkg/types"
)

// State of the stream connection lifecycle.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateSubscribed   State = "subscribed"
	StateStreaming    State = "streaming"
	StateReconnecting State = "reconnecting"
	StateFatal        State = "fatal"
)

// TradeHandler processes one accepted trade event. Events from one
// connection are handled serially, in arrival order.
type TradeHandler interface {
	HandleTrade(ctx context.Context, trade *types.TradeActivity) error
}

// PositionFetcher fetches current position snapshots for an address.
type PositionFetcher interface {
	Positions(ctx context.Context, address string) ([]types.Position, error)
}

// Config holds monitor configuration.
type Config struct {
	URL                  string
	TrackedAddresses     []string
	MaxTradeAge          time.Duration
	DialTimeout          time.Duration
	ReconnectBaseDelay   time.Duration
	ReconnectCounterCap  int
	MaxReconnectAttempts int
	RefreshInterval      time.Duration
	Handler              TradeHandler
	Positions            PositionFetcher
	Store                storage.Store
	Logger               *zap.Logger
}

// Monitor is the stream ingestion and reconnection state machine.
type Monitor struct {
	cfg     Config
	tracked map[string]struct{} // lowercase address set
	backoff retry.Linear
	state   atomic.Value // State
	logger  *zap.Logger
}

// New creates a monitor.
func New(cfg Config) *Monitor {
	tracked := make(map[string]struct{}, len(cfg.TrackedAddresses))
	for _, addr := range cfg.TrackedAddresses {
		tracked[strings.ToLower(addr)] = struct{}{}
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 30 * time.Second
	}

	m := &Monitor{
		cfg:     cfg,
		tracked: tracked,
		backoff: retry.Linear{Base: cfg.ReconnectBaseDelay, CounterCap: cfg.ReconnectCounterCap},
		logger:  cfg.Logger,
	}
	m.state.Store(StateDisconnected)
	return m
}

// State returns the current connection state.
func (m *Monitor) State() State {
	return m.state.Load().(State)
}

// Streaming reports whether the monitor is connected and dispatching.
func (m *Monitor) Streaming() bool {
	s := m.State()
	return s == StateStreaming || s == StateSubscribed
}

func (m *Monitor) setState(s State) {
	m.state.Store(s)
	StreamState.Set(stateGauge(s))
}

func stateGauge(s State) float64 {
	switch s {
	case StateStreaming:
		return 2
	case StateSubscribed, StateConnecting:
		return 1
	default:
		return 0
	}
}

// Run drives the connect/subscribe/stream/reconnect cycle until the
// context is cancelled or the reconnect budget is exhausted. Exhausting
// the budget is fatal and returns an error; it is the caller's job to
// terminate the process.
func (m *Monitor) Run(ctx context.Context) error {
	failures := 0

	for {
		if err := ctx.Err(); err != nil {
			m.setState(StateDisconnected)
			return nil
		}

		conn, err := m.connect(ctx)
		if err == nil {
			// One successful connection resets the backoff counter.
			failures = 0

			connCtx, cancelConn := context.WithCancel(ctx)
			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				m.refreshLoop(connCtx)
			}()
			// ReadMessage blocks with no context awareness; closing the
			// conn on cancellation is the only way to unblock it.
			go func() {
				defer wg.Done()
				<-connCtx.Done()
				conn.Close()
			}()

			err = m.readLoop(ctx, conn)
			cancelConn()
			wg.Wait()

			if ctx.Err() != nil {
				m.setState(StateDisconnected)
				return nil
			}
			m.logger.Warn("stream-connection-lost", zap.Error(err))
		} else {
			m.logger.Warn("stream-connect-failed", zap.Error(err))
		}

		failures++
		ReconnectsTotal.Inc()
		if failures >= m.cfg.MaxReconnectAttempts {
			m.setState(StateFatal)
			return fmt.Errorf("stream reconnect budget exhausted after %d consecutive failures", failures)
		}

		m.setState(StateReconnecting)
		delay := m.backoff.Delay(failures)
		m.logger.Info("stream-reconnecting",
			zap.Int("consecutive-failures", failures),
			zap.Duration("delay", delay))

		select {
		case <-ctx.Done():
			m.setState(StateDisconnected)
			return nil
		case <-time.After(delay):
		}
	}
}

// connect dials the stream and sends the subscribe request, one
// subscription entry per tracked address.
func (m *Monitor) connect(ctx context.Context) (*websocket.Conn, error) {
	m.setState(StateConnecting)

	dialer := websocket.Dialer{HandshakeTimeout: m.cfg.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, m.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	subs := make([]types.RTDSSubscription, 0, len(m.cfg.TrackedAddresses))
	for _, addr := range m.cfg.TrackedAddresses {
		filters, _ := json.Marshal(map[string]string{"proxyWallet": addr})
		subs = append(subs, types.RTDSSubscription{
			Topic:   "activity",
			Type:    "trades",
			Filters: string(filters),
		})
	}

	req := types.RTDSSubscribeRequest{Action: "subscribe", Subscriptions: subs}
	payload, err := json.Marshal(req)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("marshal subscribe request: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send subscribe request: %w", err)
	}

	m.setState(StateSubscribed)
	m.logger.Info("stream-subscribed",
		zap.String("url", m.cfg.URL),
		zap.Int("addresses", len(m.cfg.TrackedAddresses)))

	return conn, nil
}

// readLoop reads frames until the connection drops. Each accepted trade
// is handled to completion before the next frame is read, so events are
// strictly serialized per connection.
func (m *Monitor) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		var msg types.RTDSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Malformed frames are dropped without error.
			m.logger.Debug("malformed-frame-dropped", zap.Error(err))
			continue
		}

		switch {
		case msg.IsSubscriptionAck():
			m.setState(StateStreaming)
			m.logger.Info("subscription-acknowledged")
		case msg.IsTradeEvent():
			m.dispatch(ctx, msg.Payload)
		default:
			m.logger.Debug("irrelevant-frame-dropped")
		}
	}
}

// dispatch filters one trade event and hands it to reconciliation.
func (m *Monitor) dispatch(ctx context.Context, trade *types.TradeActivity) {
	EventsTotal.Inc()

	if !trade.Valid() {
		m.logger.Debug("invalid-trade-dropped",
			zap.String("proxy-wallet", trade.ProxyWallet),
			zap.String("asset", trade.Asset))
		return
	}

	if _, ok := m.tracked[strings.ToLower(trade.ProxyWallet)]; !ok {
		return
	}

	if m.cfg.MaxTradeAge > 0 {
		if age := time.Since(trade.Time()); age > m.cfg.MaxTradeAge {
			StaleEventsTotal.Inc()
			m.logger.Warn("stale-trade-skipped",
				zap.String("asset", trade.Asset),
				zap.Duration("age", age),
				zap.Duration("max-age", m.cfg.MaxTradeAge))
			return
		}
	}

	EventsDispatchedTotal.Inc()
	if err := m.cfg.Handler.HandleTrade(ctx, trade); err != nil {
		m.logger.Error("trade-handling-failed",
			zap.String("asset", trade.Asset),
			zap.String("side", trade.Side),
			zap.Error(err))
	}
}

// refreshLoop upserts position snapshots for every tracked address on a
// fixed cadence. It lives and dies with one stream connection.
func (m *Monitor) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.refreshPositions(ctx)
		}
	}
}

func (m *Monitor) refreshPositions(ctx context.Context) {
	for _, addr := range m.cfg.TrackedAddresses {
		positions, err := m.cfg.Positions.Positions(ctx, addr)
		if err != nil {
			m.logger.Warn("position-refresh-failed",
				zap.String("address", addr),
				zap.Error(err))
			continue
		}
		for i := range positions {
			if err := m.cfg.Store.UpsertPosition(ctx, addr, &positions[i]); err != nil {
				m.logger.Warn("position-upsert-failed",
					zap.String("address", addr),
					zap.String("asset", positions[i].Asset),
					zap.Error(err))
			}
		}
		m.logger.Debug("positions-refreshed",
			zap.String("address", addr),
			zap.Int("count", len(positions)))
	}
}
