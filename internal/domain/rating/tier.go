// Package rating maps trend values to discrete skill tiers and predicts
// the scores that move a user between tiers.
package rating

// Tier is one of the six ordered skill bands.
type Tier int

// Tiers in ascending order.
const (
	TierC Tier = iota
	TierB
	TierA
	TierS
	TierSA
	TierSS
)

var tierNames = [...]string{"C", "B", "A", "S", "SA", "SS"}

// Inclusive lower thresholds per tier. TierC has no threshold; any
// trend value classifies at least as C.
var tierThresholds = [...]float64{0, 70, 80, 85, 90, 95}

func (t Tier) String() string {
	if t < TierC || t > TierSS {
		return "?"
	}
	return tierNames[t]
}

// Threshold returns the inclusive lower bound of the tier.
func (t Tier) Threshold() float64 {
	if t < TierC || t > TierSS {
		return 0
	}
	return tierThresholds[t]
}

// Next returns the tier one rank up, or false at the top.
func (t Tier) Next() (Tier, bool) {
	if t >= TierSS {
		return t, false
	}
	return t + 1, true
}

// Previous returns the tier one rank down, or false at the bottom.
func (t Tier) Previous() (Tier, bool) {
	if t <= TierC {
		return t, false
	}
	return t - 1, true
}

// TierOf classifies a trend value as the highest tier whose threshold
// it meets or exceeds. Total over all inputs; out-of-range values are
// the producer's problem, not the classifier's.
func TierOf(v float64) Tier {
	for t := TierSS; t > TierC; t-- {
		if v >= tierThresholds[t] {
			return t
		}
	}
	return TierC
}
