package strategies

import (
	"context"
	"testing"

	"rangepulse/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReversionForTest() *Reversion {
	return NewReversion(ReversionConfig{
		Lookback:    40,
		MinCandles:  40,
		MinRangePct: 0.3,
		OuterBand:   0.35,
	})
}

func TestReversionSides(t *testing.T) {
	tests := []struct {
		name      string
		lastClose float64
		wantSide  domain.Side
		wantNil   bool
	}{
		// Range [100, 110]: outer bands are <=103.5 and >=106.5.
		{name: "deep in lower band", lastClose: 101, wantSide: domain.SideLong},
		{name: "exactly at band edge", lastClose: 103.5, wantSide: domain.SideLong},
		{name: "middle of the range", lastClose: 105, wantNil: true},
		{name: "upper band", lastClose: 108, wantSide: domain.SideShort},
	}

	r := newReversionForTest()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candles := rangeWindow(39, 100, 110)
			candles = append(candles, candle(39, tt.lastClose, tt.lastClose+0.5, tt.lastClose-0.5, tt.lastClose))

			det := r.Detect(context.Background(), candles)
			if tt.wantNil {
				assert.Nil(t, det)
				return
			}
			require.NotNil(t, det)
			assert.Equal(t, tt.wantSide, det.Side)
			assert.True(t, det.Flags.HasRange)
			assert.False(t, det.Flags.SweepValid)
			assert.False(t, det.TriggerEntryAtBreak())
		})
	}
}

func TestReversionRejectsNarrowRange(t *testing.T) {
	r := newReversionForTest()
	candles := rangeWindow(40, 100, 100.1)
	assert.Nil(t, r.Detect(context.Background(), candles))
}

func TestReversionNeedsHistory(t *testing.T) {
	r := newReversionForTest()
	assert.Nil(t, r.Detect(context.Background(), rangeWindow(20, 100, 110)))
}
