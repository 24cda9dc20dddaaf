package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDurationSeconds tracks API request latency per endpoint.
	RequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "copytrader_gateway_request_duration_seconds",
		Help:    "Duration of Polymarket API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// RequestErrorsTotal tracks API request failures per endpoint.
	RequestErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copytrader_gateway_request_errors_total",
		Help: "Total number of failed Polymarket API requests",
	}, []string{"endpoint"})
)
