package domain

// DetectionFlags carries the strategy-specific quality checks that passed
// for a candidate setup. The scorer consumes these as named fields rather
// than a loosely typed map.
type DetectionFlags struct {
	HasRange         bool // Window formed a valid, wide-enough range
	SweepValid       bool // Boundary sweep with close back inside
	DisplacementValid bool // Decisive large-bodied candle in signal direction
	BreakoutValid    bool // Clean close beyond the squeeze boundary
	StructureValid   bool // Supporting structure (confirm candle / squeeze shape)
}

// Detection is a candidate setup produced by a detector strategy. It is
// consumed immediately by the level builder and never persisted.
type Detection struct {
	Side       Side
	RangeLow   float64
	RangeHigh  float64
	RangePct   float64 // Range height as a percentage of its midpoint
	SweepIdx   int     // Index of the sweep/trigger candle, -1 if none
	ConfirmIdx int     // Index of the confirmation candle, -1 if none
	Flags      DetectionFlags
}

// TriggerEntryAtBreak reports whether the entry should sit at the broken
// boundary (breakout-retest) instead of the reclaimed one.
func (d *Detection) TriggerEntryAtBreak() bool {
	return d.Flags.BreakoutValid && !d.Flags.SweepValid
}
