package strategies

import (
	"context"

	"rangepulse/internal/domain"
)

// Fakeout detects the range fake-breakout setup: a fixed window forms the
// range, the second-to-last candle sweeps a boundary and closes back at or
// inside it, and the last candle confirms the rejection by closing inside
// the range beyond the sweep's close.
type Fakeout struct {
	cfg FakeoutConfig
}

// FakeoutConfig holds the fakeout strategy parameters.
type FakeoutConfig struct {
	WindowSize        int     // Candles forming the range before the sweep (e.g. 12)
	MinCandles        int     // Minimum total history (e.g. 14)
	MinRangePct       float64 // Minimum range width as % of midpoint (anti-noise)
	MinPenetrationPct float64 // Minimum sweep penetration beyond the boundary, %
}

// NewFakeout creates the fakeout strategy, applying defaults for zero fields.
func NewFakeout(cfg FakeoutConfig) *Fakeout {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 12
	}
	if cfg.MinCandles <= 0 {
		cfg.MinCandles = cfg.WindowSize + 2
	}
	if cfg.MinRangePct <= 0 {
		cfg.MinRangePct = 0.3
	}
	if cfg.MinPenetrationPct <= 0 {
		cfg.MinPenetrationPct = 0.05
	}
	return &Fakeout{cfg: cfg}
}

func (f *Fakeout) Name() string { return "fakeout" }

func (f *Fakeout) MinCandles() int { return f.cfg.MinCandles }

func (f *Fakeout) Detect(ctx context.Context, candles []*domain.Candle) *domain.Detection {
	n := len(candles)
	if n < f.cfg.MinCandles {
		return nil
	}

	// Range window sits immediately before the sweep and confirm candles.
	end := n - 2
	start := end - f.cfg.WindowSize
	zone := computeRange(candles, start, end)
	if !zone.valid() {
		return nil
	}
	rangePct := zone.widthPct()
	if rangePct < f.cfg.MinRangePct {
		return nil
	}

	sweepIdx := n - 2
	confirmIdx := n - 1
	sweep := candles[sweepIdx]
	confirm := candles[confirmIdx]

	// Fake breakdown: sweep pierces the low but closes back at or inside
	// the boundary; confirm closes inside the range beyond the sweep close.
	if sweep.Low < zone.low {
		pen := penetrationPct(zone.low, sweep.Low, true)
		if pen >= f.cfg.MinPenetrationPct &&
			sweep.Close >= zone.low && sweep.Close <= zone.high &&
			confirm.Close > zone.low && confirm.Close < zone.high &&
			confirm.Close > sweep.Close {
			return f.result(domain.SideLong, zone, rangePct, sweepIdx, confirmIdx)
		}
	}

	// Fake breakout: mirror of the above on the range high.
	if sweep.High > zone.high {
		pen := penetrationPct(zone.high, sweep.High, false)
		if pen >= f.cfg.MinPenetrationPct &&
			sweep.Close <= zone.high && sweep.Close >= zone.low &&
			confirm.Close < zone.high && confirm.Close > zone.low &&
			confirm.Close < sweep.Close {
			return f.result(domain.SideShort, zone, rangePct, sweepIdx, confirmIdx)
		}
	}

	return nil
}

func (f *Fakeout) result(side domain.Side, zone rangeZone, rangePct float64, sweepIdx, confirmIdx int) *domain.Detection {
	return &domain.Detection{
		Side:       side,
		RangeLow:   zone.low,
		RangeHigh:  zone.high,
		RangePct:   rangePct,
		SweepIdx:   sweepIdx,
		ConfirmIdx: confirmIdx,
		Flags: domain.DetectionFlags{
			HasRange:       true,
			SweepValid:     true,
			StructureValid: true,
		},
	}
}
