package sizing

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Tier maps a half-open notional range [Min, Max) to a copy-size multiplier.
// Max of +Inf means unbounded; an unbounded tier must be last.
type Tier struct {
	Min        float64
	Max        float64 // math.Inf(1) for unbounded
	Multiplier float64
}

// Unbounded reports whether the tier has no upper end.
func (t Tier) Unbounded() bool {
	return math.IsInf(t.Max, 1)
}

// Contains reports whether notional falls inside the tier's range.
func (t Tier) Contains(notional float64) bool {
	return notional >= t.Min && notional < t.Max
}

// ParseTiers parses the serialized tier list "min-max:multiplier,min+:multiplier".
// The parsed tiers are sorted by Min and must be non-overlapping and
// contiguous; at most one tier may be unbounded and it must sort last.
func ParseTiers(s string) ([]Tier, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var tiers []Tier
	for _, def := range strings.Split(s, ",") {
		def = strings.TrimSpace(def)
		if def == "" {
			continue
		}

		rangePart, multPart, found := strings.Cut(def, ":")
		if !found {
			return nil, fmt.Errorf("invalid tier %q: expected \"min-max:multiplier\" or \"min+:multiplier\"", def)
		}

		multiplier, err := strconv.ParseFloat(strings.TrimSpace(multPart), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid multiplier in tier %q: %w", def, err)
		}
		if multiplier < 0 {
			return nil, fmt.Errorf("invalid multiplier in tier %q: must be >= 0", def)
		}

		rangePart = strings.TrimSpace(rangePart)
		tier := Tier{Multiplier: multiplier}

		switch {
		case strings.HasSuffix(rangePart, "+"):
			tier.Min, err = strconv.ParseFloat(strings.TrimSuffix(rangePart, "+"), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid minimum in tier %q: %w", def, err)
			}
			tier.Max = math.Inf(1)
		case strings.Contains(rangePart, "-"):
			minStr, maxStr, _ := strings.Cut(rangePart, "-")
			tier.Min, err = strconv.ParseFloat(minStr, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid minimum in tier %q: %w", def, err)
			}
			tier.Max, err = strconv.ParseFloat(maxStr, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid maximum in tier %q: %w", def, err)
			}
			if tier.Max <= tier.Min {
				return nil, fmt.Errorf("invalid tier %q: maximum must be > %g", def, tier.Min)
			}
		default:
			return nil, fmt.Errorf("invalid range in tier %q: use \"min-max\" or \"min+\"", def)
		}

		if tier.Min < 0 {
			return nil, fmt.Errorf("invalid minimum in tier %q: must be >= 0", def)
		}

		tiers = append(tiers, tier)
	}

	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Min < tiers[j].Min })

	for i := 0; i < len(tiers)-1; i++ {
		cur, next := tiers[i], tiers[i+1]
		if cur.Unbounded() {
			return nil, fmt.Errorf("tier with unbounded upper end must be last: %g+", cur.Min)
		}
		if cur.Max > next.Min {
			return nil, fmt.Errorf("overlapping tiers: [%g-%g) and [%g-%s)",
				cur.Min, cur.Max, next.Min, formatMax(next.Max))
		}
		if cur.Max < next.Min {
			return nil, fmt.Errorf("gap between tiers: [%g-%g) and [%g-%s)",
				cur.Min, cur.Max, next.Min, formatMax(next.Max))
		}
	}

	return tiers, nil
}

func formatMax(max float64) string {
	if math.IsInf(max, 1) {
		return "inf"
	}
	return strconv.FormatFloat(max, 'g', -1, 64)
}

// Multiplier resolves the multiplier for a tracked order's notional. Tier
// lookup is total: a matching tier wins, otherwise the last tier, otherwise
// the single configured multiplier, otherwise 1.0.
func (c *Config) Multiplier(notional float64) float64 {
	if len(c.Tiers) > 0 {
		for _, tier := range c.Tiers {
			if tier.Contains(notional) {
				return tier.Multiplier
			}
		}
		return c.Tiers[len(c.Tiers)-1].Multiplier
	}
	if c.SingleMultiplier > 0 {
		return c.SingleMultiplier
	}
	return 1.0
}
