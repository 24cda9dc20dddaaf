package wallet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BalanceFetchDuration tracks on-chain balance fetch latency.
	BalanceFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "copytrader_wallet_balance_fetch_duration_seconds",
		Help:    "Duration of on-chain USDC balance fetches",
		Buckets: prometheus.DefBuckets,
	})

	// BalanceFetchErrorsTotal tracks balance fetch failures.
	BalanceFetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_wallet_balance_fetch_errors_total",
		Help: "Total number of failed on-chain balance fetches",
	})
)
