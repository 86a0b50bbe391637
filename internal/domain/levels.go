package domain

// Levels holds the deterministic price levels derived from a Detection.
type Levels struct {
	Entry       float64
	StopLoss    float64
	TP1         float64
	TP2         float64
	TP3         float64
	Risk        float64 // |entry - stopLoss|, after the degenerate-geometry fallback
	StopLossPct float64 // Risk as a percentage of entry
	LeverageMin float64
	LeverageMax float64
}
