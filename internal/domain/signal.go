package domain

import "time"

// Side is the direction of a trade signal.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Tier is the discrete quality classification of a signal.
type Tier string

const (
	TierNone  Tier = "NONE"
	TierB     Tier = "B"
	TierA     Tier = "A"
	TierAPlus Tier = "A+"
)

// Rank returns the ordering of a tier: NONE < B < A < A+.
// Unknown values rank as NONE.
func (t Tier) Rank() int {
	switch t {
	case TierB:
		return 1
	case TierA:
		return 2
	case TierAPlus:
		return 3
	default:
		return 0
	}
}

// ParseTier normalizes a tier string. Unrecognized input maps to TierNone.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierB, TierA, TierAPlus:
		return Tier(s)
	default:
		return TierNone
	}
}

// Signal is a fully built trade recommendation ready for delivery.
type Signal struct {
	ID          int64     // Assigned by the repository on insert
	Symbol      string    // Trading symbol (e.g., "ETHUSDT")
	Side        Side      // long or short
	Entry       float64   // Suggested entry price
	StopLoss    float64   // Stop-loss price
	TP1         float64   // First take-profit price
	TP2         float64   // Second take-profit price
	TP3         float64   // Third take-profit price
	StopLossPct float64   // Stop distance as a percentage of entry
	LeverageMin float64   // Lower bound of the recommended leverage band
	LeverageMax float64   // Upper bound of the recommended leverage band
	Tier        Tier      // Quality tier
	Score       int       // Numeric score backing the tier
	RangeLow    float64   // Range boundary the setup was built from
	RangeHigh   float64   // Range boundary the setup was built from
	Message     string    // Formatted text handed to the notifier
	CreatedAt   time.Time // Time the signal was accepted
}
