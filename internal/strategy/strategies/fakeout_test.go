package strategies

import (
	"context"
	"testing"
	"time"

	"rangepulse/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candle(idx int, o, h, l, c float64) *domain.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Candle{
		OpenTime:  base.Add(time.Duration(idx) * 5 * time.Minute),
		CloseTime: base.Add(time.Duration(idx+1) * 5 * time.Minute),
		Symbol:    "ETHUSDT",
		Interval:  "5m",
		Open:      o,
		High:      h,
		Low:       l,
		Close:     c,
		Volume:    100,
		IsFinal:   true,
	}
}

// rangeWindow builds n identical candles spanning [low, high].
func rangeWindow(n int, low, high float64) []*domain.Candle {
	mid := (low + high) / 2
	out := make([]*domain.Candle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, candle(i, mid, high, low, mid))
	}
	return out
}

func TestFakeoutLongAfterSweepOfRangeLow(t *testing.T) {
	f := NewFakeout(FakeoutConfig{
		WindowSize:        12,
		MinCandles:        14,
		MinRangePct:       0.3,
		MinPenetrationPct: 0.05,
	})

	candles := rangeWindow(12, 100, 110)
	candles = append(candles, candle(12, 100.5, 101.5, 98, 101)) // sweep: 2% penetration
	candles = append(candles, candle(13, 101, 104.5, 100.5, 104))

	det := f.Detect(context.Background(), candles)
	require.NotNil(t, det)
	assert.Equal(t, domain.SideLong, det.Side)
	assert.Equal(t, 100.0, det.RangeLow)
	assert.Equal(t, 110.0, det.RangeHigh)
	assert.Equal(t, 12, det.SweepIdx)
	assert.Equal(t, 13, det.ConfirmIdx)
	assert.True(t, det.Flags.HasRange)
	assert.True(t, det.Flags.SweepValid)
}

func TestFakeoutRejectsShallowPenetration(t *testing.T) {
	f := NewFakeout(FakeoutConfig{
		WindowSize:        12,
		MinCandles:        14,
		MinRangePct:       0.3,
		MinPenetrationPct: 0.05,
	})

	// Identical setup, but the sweep low only pierces 0.04%.
	candles := rangeWindow(12, 100, 110)
	candles = append(candles, candle(12, 100.5, 101.5, 99.96, 101))
	candles = append(candles, candle(13, 101, 104.5, 100.5, 104))

	assert.Nil(t, f.Detect(context.Background(), candles))
}

func TestFakeoutShortAfterSweepOfRangeHigh(t *testing.T) {
	f := NewFakeout(FakeoutConfig{})

	candles := rangeWindow(12, 100, 110)
	candles = append(candles, candle(12, 109, 112, 108.5, 109.5)) // sweeps the high
	candles = append(candles, candle(13, 109, 109.5, 105.5, 106))

	det := f.Detect(context.Background(), candles)
	require.NotNil(t, det)
	assert.Equal(t, domain.SideShort, det.Side)
}

func TestFakeoutNoCandidate(t *testing.T) {
	tests := []struct {
		name    string
		candles func() []*domain.Candle
	}{
		{
			name: "not enough history",
			candles: func() []*domain.Candle {
				return rangeWindow(10, 100, 110)
			},
		},
		{
			name: "range too narrow",
			candles: func() []*domain.Candle {
				// 0.2% wide range is below the 0.3% noise floor.
				cs := rangeWindow(12, 100, 100.2)
				cs = append(cs, candle(12, 100.1, 100.15, 99.8, 100.05))
				cs = append(cs, candle(13, 100.05, 100.2, 100.0, 100.15))
				return cs
			},
		},
		{
			name: "confirm fails to improve on sweep close",
			candles: func() []*domain.Candle {
				cs := rangeWindow(12, 100, 110)
				cs = append(cs, candle(12, 100.5, 101.5, 98, 101))
				cs = append(cs, candle(13, 101, 101.2, 100.2, 100.5)) // below sweep close
				return cs
			},
		},
		{
			name: "sweep closes below the boundary",
			candles: func() []*domain.Candle {
				cs := rangeWindow(12, 100, 110)
				cs = append(cs, candle(12, 100.5, 100.8, 98, 99.5)) // no reclaim
				cs = append(cs, candle(13, 99.5, 104.5, 99.4, 104))
				return cs
			},
		},
	}

	f := NewFakeout(FakeoutConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, f.Detect(context.Background(), tt.candles()))
		})
	}
}
