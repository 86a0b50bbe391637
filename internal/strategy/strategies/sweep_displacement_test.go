package strategies

import (
	"context"
	"testing"

	"rangepulse/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// squeezeWithBodies builds n candles inside [low, high] with a constant
// small body so the displacement baseline is non-zero.
func squeezeWithBodies(n int, low, high float64) []*domain.Candle {
	mid := (low + high) / 2
	out := make([]*domain.Candle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, candle(i, mid-0.05, high, low, mid+0.05))
	}
	return out
}

func newSweepDisplacementForTest() *SweepDisplacement {
	return NewSweepDisplacement(SweepDisplacementConfig{
		Lookback:           40,
		MinCandles:         50,
		MinRangePct:        0.3,
		MaxRangeWidthPct:   1.2,
		MinPenetrationPct:  0.05,
		DisplacementFactor: 1.6,
		AvgBodyLookback:    30,
	})
}

func TestSweepDisplacementLong(t *testing.T) {
	s := newSweepDisplacementForTest()

	candles := squeezeWithBodies(50, 100, 101)
	// Sweep below the squeeze low, close back inside with a large bullish body.
	candles = append(candles, candle(50, 100.05, 100.7, 99.9, 100.65))

	det := s.Detect(context.Background(), candles)
	require.NotNil(t, det)
	assert.Equal(t, domain.SideLong, det.Side)
	assert.True(t, det.Flags.SweepValid)
	assert.True(t, det.Flags.DisplacementValid)
	assert.Equal(t, 50, det.SweepIdx)
}

func TestSweepDisplacementShort(t *testing.T) {
	s := newSweepDisplacementForTest()

	candles := squeezeWithBodies(50, 100, 101)
	// Sweep above the squeeze high, close back inside with a large bearish body.
	candles = append(candles, candle(50, 100.95, 101.1, 100.3, 100.35))

	det := s.Detect(context.Background(), candles)
	require.NotNil(t, det)
	assert.Equal(t, domain.SideShort, det.Side)
}

func TestSweepDisplacementNoCandidate(t *testing.T) {
	s := newSweepDisplacementForTest()

	tests := []struct {
		name    string
		trigger *domain.Candle
	}{
		{
			// Sweeps and reclaims, but the body matches the recent average.
			name:    "no displacement body",
			trigger: candle(50, 100.45, 100.6, 99.9, 100.55),
		},
		{
			// Large body, but never leaves the squeeze.
			name:    "no sweep",
			trigger: candle(50, 100.1, 100.8, 100.05, 100.75),
		},
		{
			// Sweeps the low but closes bearish: wrong direction.
			name:    "sweep without directional close",
			trigger: candle(50, 100.6, 100.65, 99.9, 100.05),
		},
		{
			// Sweeps the low and keeps falling instead of reclaiming.
			name:    "close stays outside",
			trigger: candle(50, 100.4, 100.45, 99.5, 99.6),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candles := append(squeezeWithBodies(50, 100, 101), tt.trigger)
			assert.Nil(t, s.Detect(context.Background(), candles))
		})
	}
}
