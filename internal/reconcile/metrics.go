package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActionsTotal tracks mirrored actions by classification.
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copytrader_reconcile_actions_total",
		Help: "Total number of mirrored trade actions by classification",
	}, []string{"action"})

	// SkipsTotal tracks trade events skipped without an order.
	SkipsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copytrader_reconcile_skips_total",
		Help: "Total number of trade events skipped without an order",
	}, []string{"action"})
)
