package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExecutionDurationSeconds tracks fill loop duration per side.
	ExecutionDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "copytrader_execution_duration_seconds",
		Help:    "Duration of order execution fill loops",
		Buckets: prometheus.DefBuckets,
	}, []string{"side"})

	// OrdersSubmittedTotal tracks orders submitted per side.
	OrdersSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copytrader_execution_orders_submitted_total",
		Help: "Total number of limit orders submitted",
	}, []string{"side"})

	// OrderFailuresTotal tracks submission failures and rejections per side.
	OrderFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copytrader_execution_order_failures_total",
		Help: "Total number of failed or rejected order submissions",
	}, []string{"side"})

	// FilledTokensTotal tracks accumulated filled size per side.
	FilledTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copytrader_execution_filled_tokens_total",
		Help: "Total number of outcome tokens filled",
	}, []string{"side"})

	// NoLiquidityTotal tracks fill loops aborted on an empty book.
	NoLiquidityTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copytrader_execution_no_liquidity_total",
		Help: "Total number of fill loops aborted on an empty contra side",
	}, []string{"side"})
)
