package domain

// TrendDirection is the coarse higher-timeframe trend classification.
type TrendDirection string

const (
	TrendUp    TrendDirection = "UP"
	TrendDown  TrendDirection = "DOWN"
	TrendRange TrendDirection = "RANGE"
)

// PricePosition locates the last price inside the higher-timeframe range.
type PricePosition string

const (
	PositionDiscount PricePosition = "DISCOUNT"
	PositionPremium  PricePosition = "PREMIUM"
	PositionMid      PricePosition = "MID"
)

// HTFContext is the higher-timeframe verdict consumed as a signal filter.
// The zero-value context is not neutral; use NeutralHTFContext.
type HTFContext struct {
	Trend1h     TrendDirection
	Pos1h       PricePosition
	Pos15m      PricePosition
	IsRanging1h bool
	OKLong      bool
	OKShort     bool
}

// Aligned reports whether the context permits a signal on the given side.
func (c *HTFContext) Aligned(side Side) bool {
	if side == SideLong {
		return c.OKLong
	}
	return c.OKShort
}

// NeutralHTFContext is the always-aligned default used when the
// higher-timeframe fetch fails.
func NeutralHTFContext() *HTFContext {
	return &HTFContext{
		Trend1h:     TrendRange,
		Pos1h:       PositionMid,
		Pos15m:      PositionMid,
		IsRanging1h: true,
		OKLong:      true,
		OKShort:     true,
	}
}
