package autoclaim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClaimablePositionsTotal tracks redeemable positions detected.
	ClaimablePositionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_autoclaim_claimable_positions_total",
		Help: "Total number of redeemable positions detected",
	})

	// ClaimsTotal tracks successful redemptions.
	ClaimsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_autoclaim_claims_total",
		Help: "Total number of positions redeemed",
	})

	// ClaimErrorsTotal tracks failed redemptions.
	ClaimErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copytrader_autoclaim_claim_errors_total",
		Help: "Total number of failed redemption attempts",
	})
)
