package levels

import (
	"testing"

	"rangepulse/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longDetection() *domain.Detection {
	return &domain.Detection{
		Side:      domain.SideLong,
		RangeLow:  100,
		RangeHigh: 110,
		Flags:     domain.DetectionFlags{HasRange: true, SweepValid: true},
	}
}

func TestBuildLong(t *testing.T) {
	b := NewBuilder(Config{})
	trigger := &domain.Candle{Open: 100.5, High: 101.5, Low: 98, Close: 101}

	lv := b.Build(longDetection(), trigger, 104)

	// Entry at the reclaimed boundary, never chasing the last close.
	assert.Equal(t, 100.0, lv.Entry)

	// Stop sits beyond the sweep extreme plus the dynamic buffer.
	slBase := 98.0
	buffer := slBase * 0.0015 // larger than entry*0.0005
	require.InDelta(t, slBase-buffer, lv.StopLoss, 1e-9)

	risk := lv.Entry - lv.StopLoss
	assert.InDelta(t, risk, lv.Risk, 1e-9)
	assert.InDelta(t, lv.Entry+1.2*risk, lv.TP1, 1e-9)
	assert.InDelta(t, lv.Entry+1.8*risk, lv.TP2, 1e-9)
	assert.InDelta(t, lv.Entry+3.0*risk, lv.TP3, 1e-9)
	assert.InDelta(t, risk/lv.Entry*100, lv.StopLossPct, 1e-9)
	assert.Greater(t, lv.StopLossPct, 0.0)
}

func TestBuildLongDoesNotChaseLastClose(t *testing.T) {
	b := NewBuilder(Config{})
	trigger := &domain.Candle{Open: 100.5, High: 101.5, Low: 98, Close: 99}

	// Last close below the range low: entry follows the close down.
	lv := b.Build(longDetection(), trigger, 99.5)
	assert.Equal(t, 99.5, lv.Entry)
}

func TestBuildShort(t *testing.T) {
	b := NewBuilder(Config{})
	det := &domain.Detection{
		Side:      domain.SideShort,
		RangeLow:  100,
		RangeHigh: 110,
		Flags:     domain.DetectionFlags{HasRange: true, SweepValid: true},
	}
	trigger := &domain.Candle{Open: 109, High: 112, Low: 108.5, Close: 109.5}

	lv := b.Build(det, trigger, 106)

	assert.Equal(t, 110.0, lv.Entry)
	slBase := 112.0
	buffer := slBase * 0.0015
	require.InDelta(t, slBase+buffer, lv.StopLoss, 1e-9)
	assert.Less(t, lv.TP1, lv.Entry)
	assert.Less(t, lv.TP3, lv.TP2)
}

func TestBuildBreakoutEntryAtBrokenBoundary(t *testing.T) {
	b := NewBuilder(Config{})
	det := &domain.Detection{
		Side:      domain.SideLong,
		RangeLow:  100,
		RangeHigh: 101,
		Flags:     domain.DetectionFlags{HasRange: true, BreakoutValid: true},
	}
	trigger := &domain.Candle{Open: 100.6, High: 101.8, Low: 100.5, Close: 101.5}

	lv := b.Build(det, trigger, 101.5)
	assert.Equal(t, 101.0, lv.Entry, "breakout entry retests the broken ceiling")
	assert.Less(t, lv.StopLoss, 100.0, "stop beyond the opposite range edge")
}

func TestBuildDegenerateGeometryFallsBackToSyntheticRisk(t *testing.T) {
	b := NewBuilder(Config{})
	// Last close has collapsed far below the range, dragging the entry under
	// the stop base. Raw entry minus stop would be negative.
	det := &domain.Detection{
		Side:      domain.SideLong,
		RangeLow:  100,
		RangeHigh: 110,
		Flags:     domain.DetectionFlags{HasRange: true, SweepValid: true},
	}
	trigger := &domain.Candle{Open: 99, High: 100, Low: 95, Close: 96}

	lv := b.Build(det, trigger, 90)
	assert.Equal(t, 90.0, lv.Entry)
	assert.Greater(t, lv.Risk, 0.0, "synthetic risk must be strictly positive")
	assert.InDelta(t, 90.0*0.003, lv.Risk, 1e-9)
	assert.InDelta(t, 90.0-90.0*0.003, lv.StopLoss, 1e-9)
	assert.Greater(t, lv.StopLossPct, 0.0)
	assert.Greater(t, lv.LeverageMax, 0.0)
}

func TestLeverageBandBuckets(t *testing.T) {
	b := NewBuilder(Config{})

	tests := []struct {
		slPct   float64
		wantMin float64
		wantMax float64
	}{
		{slPct: 0, wantMin: 5, wantMax: 10},
		{slPct: 0.2, wantMin: 25, wantMax: 40},
		{slPct: 0.25, wantMin: 25, wantMax: 40},
		{slPct: 0.4, wantMin: 15, wantMax: 25},
		{slPct: 0.7, wantMin: 8, wantMax: 15},
		{slPct: 1.0, wantMin: 5, wantMax: 8},
		{slPct: 2.5, wantMin: 3, wantMax: 5},
	}

	for _, tt := range tests {
		gotMin, gotMax := b.LeverageBand(tt.slPct)
		assert.Equal(t, tt.wantMin, gotMin, "slPct=%v", tt.slPct)
		assert.Equal(t, tt.wantMax, gotMax, "slPct=%v", tt.slPct)
	}

	// Monotonic: a tighter stop never gets a narrower band.
	prevMax := 1000.0
	for _, slPct := range []float64{0.1, 0.3, 0.6, 1.0, 2.0} {
		_, m := b.LeverageBand(slPct)
		assert.LessOrEqual(t, m, prevMax)
		prevMax = m
	}
}
