package strategies

import (
	"context"

	"rangepulse/internal/domain"
)

// Strategy defines the contract shared by all detector variants. A strategy
// is a pure function of the candle snapshot and its configuration.
type Strategy interface {
	// Detect returns a candidate setup or nil. Candles are closed bars,
	// ordered oldest first.
	Detect(ctx context.Context, candles []*domain.Candle) *domain.Detection

	// MinCandles returns the minimum history length the strategy needs.
	MinCandles() int

	// Name returns the strategy name used in configuration and logs.
	Name() string
}

// rangeZone is the price band computed from a window of candles. It is
// recomputed per detection call and never stored.
type rangeZone struct {
	low  float64
	high float64
}

// widthPct returns the zone height as a percentage of its midpoint, or 0
// when the geometry is degenerate.
func (z rangeZone) widthPct() float64 {
	mid := (z.high + z.low) / 2.0
	if mid <= 0 {
		return 0
	}
	return (z.high - z.low) / mid * 100.0
}

func (z rangeZone) valid() bool {
	return z.high > z.low
}

// computeRange builds the price band over candles[start:end).
func computeRange(candles []*domain.Candle, start, end int) rangeZone {
	if start < 0 || end > len(candles) || start >= end {
		return rangeZone{}
	}
	z := rangeZone{low: candles[start].Low, high: candles[start].High}
	for _, c := range candles[start:end] {
		if c.High > z.high {
			z.high = c.High
		}
		if c.Low < z.low {
			z.low = c.Low
		}
	}
	return z
}

// avgBody returns the mean absolute candle body over the trailing lookback.
func avgBody(candles []*domain.Candle, lookback int) float64 {
	sub := candles
	if len(sub) > lookback {
		sub = sub[len(sub)-lookback:]
	}
	if len(sub) == 0 {
		return 0
	}
	total := 0.0
	for _, c := range sub {
		total += c.Body()
	}
	return total / float64(len(sub))
}

// closeDispersionRatio measures how much the closes inside the window drift
// relative to the window height. A trending window has closes marching from
// one edge to the other; a genuine squeeze keeps them clustered.
func closeDispersionRatio(candles []*domain.Candle, start, end int, z rangeZone) float64 {
	if !z.valid() || start >= end {
		return 1.0
	}
	minClose := candles[start].Close
	maxClose := candles[start].Close
	for _, c := range candles[start:end] {
		if c.Close > maxClose {
			maxClose = c.Close
		}
		if c.Close < minClose {
			minClose = c.Close
		}
	}
	return (maxClose - minClose) / (z.high - z.low)
}

// penetrationPct returns how far price pierced beyond a boundary, as a
// percentage of the boundary price. Returns 0 when there is no penetration
// or the boundary is non-positive.
func penetrationPct(boundary, extreme float64, below bool) float64 {
	if boundary <= 0 {
		return 0
	}
	if below {
		if extreme >= boundary {
			return 0
		}
		return (boundary - extreme) / boundary * 100.0
	}
	if extreme <= boundary {
		return 0
	}
	return (extreme - boundary) / boundary * 100.0
}
