// Package sizing converts a tracked trader's order into a bounded own-account
// order amount. Calculate is pure: same inputs, same output, no hidden state.
package sizing

import (
	"fmt"
	"strings"
)

// Strategy selects how the base copy amount is derived from the tracked
// order's notional.
type Strategy string

const (
	// StrategyPercentage copies a fixed percent of the tracked notional.
	StrategyPercentage Strategy = "PERCENTAGE"
	// StrategyFixed copies a constant USD amount regardless of the tracked notional.
	StrategyFixed Strategy = "FIXED"
	// StrategyAdaptive copies a percent that shrinks as the tracked notional grows.
	StrategyAdaptive Strategy = "ADAPTIVE"
)

// ParseStrategy parses a strategy name case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToUpper(strings.TrimSpace(s))) {
	case StrategyPercentage:
		return StrategyPercentage, nil
	case StrategyFixed:
		return StrategyFixed, nil
	case StrategyAdaptive:
		return StrategyAdaptive, nil
	default:
		return "", fmt.Errorf("unknown copy strategy %q (want PERCENTAGE, FIXED or ADAPTIVE)", s)
	}
}

// Config is the full copy-strategy configuration. Validated once at startup;
// read-only afterwards.
type Config struct {
	Strategy Strategy
	CopySize float64 // percent for PERCENTAGE/ADAPTIVE, USD for FIXED

	AdaptiveMinPercent   float64
	AdaptiveMaxPercent   float64
	AdaptiveThresholdUSD float64

	Tiers            []Tier
	SingleMultiplier float64 // 0 = unset

	MinOrderSizeUSD    float64
	MaxOrderSizeUSD    float64
	MaxPositionSizeUSD float64 // 0 = no cap
	MaxDailyVolumeUSD  float64 // 0 = no cap
}

// Validate checks invariants that must hold before trading starts.
func (c *Config) Validate() error {
	if c.CopySize <= 0 {
		return fmt.Errorf("copy size must be positive, got %g", c.CopySize)
	}
	if c.Strategy == StrategyPercentage && c.CopySize > 100 {
		return fmt.Errorf("copy size for PERCENTAGE strategy must be <= 100, got %g", c.CopySize)
	}
	if c.MinOrderSizeUSD <= 0 {
		return fmt.Errorf("minimum order size must be positive, got %g", c.MinOrderSizeUSD)
	}
	if c.MaxOrderSizeUSD <= 0 {
		return fmt.Errorf("maximum order size must be positive, got %g", c.MaxOrderSizeUSD)
	}
	if c.MinOrderSizeUSD > c.MaxOrderSizeUSD {
		return fmt.Errorf("minimum order size %g exceeds maximum %g", c.MinOrderSizeUSD, c.MaxOrderSizeUSD)
	}
	if c.Strategy == StrategyAdaptive {
		if c.AdaptiveMinPercent <= 0 || c.AdaptiveMaxPercent <= 0 {
			return fmt.Errorf("ADAPTIVE strategy requires adaptive min and max percents")
		}
		if c.AdaptiveMinPercent > c.AdaptiveMaxPercent {
			return fmt.Errorf("adaptive min percent %g exceeds max percent %g",
				c.AdaptiveMinPercent, c.AdaptiveMaxPercent)
		}
	}
	return nil
}

// Calculation is the audit record of one sizing decision. Each clamp step is
// independently observable via a flag plus a line in the reasoning trail.
// FinalAmount == 0 is the only "do not trade" signal.
type Calculation struct {
	TraderOrderSize float64
	BaseAmount      float64
	Multiplier      float64
	FinalAmount     float64
	Strategy        Strategy

	CappedByMax       bool
	ReducedByPosition bool
	ReducedByBalance  bool
	BelowMinimum      bool

	Reasoning string
}

// balanceBuffer keeps 1% headroom against price slippage between sizing and
// execution.
const balanceBuffer = 0.99

// Calculate maps a tracked order's notional to a bounded own-account order
// amount, applying strategy, multiplier and the clamp chain in order:
// max-order cap, position cap, balance buffer, minimum floor. A result pinned
// up to the minimum is still attempted (flagged, not dropped), mirroring the
// configured floor behavior.
func Calculate(cfg *Config, traderOrderSize, availableBalance, currentPositionUSD float64) Calculation {
	var base float64
	var trail []string

	switch cfg.Strategy {
	case StrategyFixed:
		base = cfg.CopySize
		trail = append(trail, fmt.Sprintf("fixed amount $%.2f", base))
	case StrategyAdaptive:
		percent := adaptivePercent(cfg, traderOrderSize)
		base = traderOrderSize * (percent / 100.0)
		trail = append(trail, fmt.Sprintf("adaptive %.1f%% of trader's $%.2f = $%.2f", percent, traderOrderSize, base))
	default: // StrategyPercentage
		base = traderOrderSize * (cfg.CopySize / 100.0)
		trail = append(trail, fmt.Sprintf("%g%% of trader's $%.2f = $%.2f", cfg.CopySize, traderOrderSize, base))
	}

	multiplier := cfg.Multiplier(traderOrderSize)
	final := base * multiplier
	if multiplier != 1.0 {
		trail = append(trail, fmt.Sprintf("%gx multiplier: $%.2f -> $%.2f", multiplier, base, final))
	}

	calc := Calculation{
		TraderOrderSize: traderOrderSize,
		BaseAmount:      base,
		Multiplier:      multiplier,
		Strategy:        cfg.Strategy,
	}

	if final > cfg.MaxOrderSizeUSD {
		final = cfg.MaxOrderSizeUSD
		calc.CappedByMax = true
		trail = append(trail, fmt.Sprintf("capped at max $%g", cfg.MaxOrderSizeUSD))
	}

	if cfg.MaxPositionSizeUSD > 0 && currentPositionUSD+final > cfg.MaxPositionSizeUSD {
		allowed := cfg.MaxPositionSizeUSD - currentPositionUSD
		if allowed < 0 {
			allowed = 0
		}
		calc.ReducedByPosition = true
		if allowed < cfg.MinOrderSizeUSD {
			final = 0
			trail = append(trail, "position limit reached")
		} else {
			final = allowed
			trail = append(trail, fmt.Sprintf("reduced to fit position limit ($%.2f)", allowed))
		}
	}

	if final > 0 {
		maxAffordable := availableBalance * balanceBuffer
		if final > maxAffordable {
			final = maxAffordable
			calc.ReducedByBalance = true
			trail = append(trail, fmt.Sprintf("reduced to fit balance ($%.2f)", maxAffordable))
		}

		if final < cfg.MinOrderSizeUSD {
			calc.BelowMinimum = true
			trail = append(trail, fmt.Sprintf("below minimum, raised to $%g", cfg.MinOrderSizeUSD))
			final = cfg.MinOrderSizeUSD
		}
	}

	calc.FinalAmount = final
	calc.Reasoning = strings.Join(trail, " -> ")
	return calc
}

// adaptivePercent interpolates the effective copy percent: small tracked
// orders scale up towards AdaptiveMaxPercent, orders at or beyond the
// threshold scale down towards AdaptiveMinPercent.
func adaptivePercent(cfg *Config, traderOrderSize float64) float64 {
	threshold := cfg.AdaptiveThresholdUSD
	if threshold <= 0 {
		threshold = 500
	}

	if traderOrderSize >= threshold {
		factor := traderOrderSize/threshold - 1.0
		return lerp(cfg.CopySize, cfg.AdaptiveMinPercent, factor)
	}
	factor := traderOrderSize / threshold
	return lerp(cfg.AdaptiveMaxPercent, cfg.CopySize, factor)
}

func lerp(a, b, t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return a + (b-a)*t
}
