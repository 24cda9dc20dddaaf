package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StreamState reflects the connection lifecycle: 0 disconnected,
	// 1 connecting/subscribed, 2 streaming.
	StreamState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "copytrader_monitor_stream_state",
		Help: "RTDS connection state (0 disconnected, 1 connecting, 2 streaming)",
	})

	// EventsTotal tracks inbound trade events before filtering.
	EventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_monitor_events_total",
		Help: "Total number of trade events received from the stream",
	})

	// EventsDispatchedTotal tracks events handed to reconciliation.
	EventsDispatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_monitor_events_dispatched_total",
		Help: "Total number of trade events dispatched to reconciliation",
	})

	// StaleEventsTotal tracks events skipped by the staleness window.
	StaleEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_monitor_stale_events_total",
		Help: "Total number of trade events skipped as stale",
	})

	// ReconnectsTotal tracks reconnect cycles.
	ReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_monitor_reconnects_total",
		Help: "Total number of stream reconnect cycles",
	})
)
