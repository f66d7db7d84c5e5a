// Package model implements the model registry: tiered registration,
// fallback resolution on unavailability, and per-model error tracking.
package model

import (
	"fmt"
	"strings"
)

// Tier classifies a model's capability. Tiers are strictly ordered;
// fallback only ever walks downward.
type Tier int

const (
	TierBasic Tier = iota + 1
	TierStandard
	TierAdvanced
	TierPremium
)

// tiersDescending is the single source of tier ordering. Fallback walks
// derive from this list, never from arithmetic on Tier values, so tiers
// can be reordered or made sparse without touching the walk.
//
//nolint:gochecknoglobals // Fixed ordering table
var tiersDescending = []Tier{TierPremium, TierAdvanced, TierStandard, TierBasic}

// TiersDescending returns all tiers from most to least capable.
func TiersDescending() []Tier {
	out := make([]Tier, len(tiersDescending))
	copy(out, tiersDescending)
	return out
}

// Below returns the tiers strictly less capable than t, most capable first.
func (t Tier) Below() []Tier {
	for i, candidate := range tiersDescending {
		if candidate == t {
			out := make([]Tier, len(tiersDescending)-i-1)
			copy(out, tiersDescending[i+1:])
			return out
		}
	}
	return nil
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierBasic, TierStandard, TierAdvanced, TierPremium:
		return true
	default:
		return false
	}
}

// String returns the lowercase tier name.
func (t Tier) String() string {
	switch t {
	case TierBasic:
		return "basic"
	case TierStandard:
		return "standard"
	case TierAdvanced:
		return "advanced"
	case TierPremium:
		return "premium"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier converts a tier name into a Tier.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic":
		return TierBasic, nil
	case "standard":
		return TierStandard, nil
	case "advanced":
		return TierAdvanced, nil
	case "premium":
		return TierPremium, nil
	default:
		return 0, fmt.Errorf("unknown tier: %q", s)
	}
}
