package tpsl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TriggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copytrader_tpsl_triggers_total",
		Help: "Positions liquidated by the take-profit/stop-loss monitor",
	}, []string{"trigger"})

	ScanErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_tpsl_scan_errors_total",
		Help: "Failed position scans in the take-profit/stop-loss monitor",
	})
)
