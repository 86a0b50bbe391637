package strategies

import (
	"context"

	"rangepulse/internal/domain"
)

// BreakoutRetest detects a genuine squeeze (tight range, clustered closes)
// whose last candle closes decisively beyond the boundary. The entry later
// sits at the broken level, anticipating the retest.
type BreakoutRetest struct {
	cfg BreakoutRetestConfig
}

// BreakoutRetestConfig holds the breakout strategy parameters.
type BreakoutRetestConfig struct {
	Lookback           int     // Squeeze window size (e.g. 40)
	MinCandles         int     // Minimum total history (e.g. 50)
	MinRangePct        float64 // Range must still clear the noise floor
	MaxRangeWidthPct   float64 // Squeeze ceiling: width as % of midpoint (e.g. 1.2)
	MaxCloseDispersion float64 // Max close drift relative to height (anti-trend)
	BreakBufferPct     float64 // Epsilon beyond boundary required of the close, %
}

// NewBreakoutRetest creates the breakout-retest strategy with defaults.
func NewBreakoutRetest(cfg BreakoutRetestConfig) *BreakoutRetest {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 40
	}
	if cfg.MinCandles <= 0 {
		cfg.MinCandles = 50
	}
	if cfg.MinRangePct <= 0 {
		cfg.MinRangePct = 0.3
	}
	if cfg.MaxRangeWidthPct <= 0 {
		cfg.MaxRangeWidthPct = 1.2
	}
	if cfg.MaxCloseDispersion <= 0 {
		cfg.MaxCloseDispersion = 0.75
	}
	if cfg.BreakBufferPct <= 0 {
		cfg.BreakBufferPct = 0.05
	}
	return &BreakoutRetest{cfg: cfg}
}

func (b *BreakoutRetest) Name() string { return "breakout_retest" }

func (b *BreakoutRetest) MinCandles() int { return b.cfg.MinCandles }

func (b *BreakoutRetest) Detect(ctx context.Context, candles []*domain.Candle) *domain.Detection {
	n := len(candles)
	if n < b.cfg.MinCandles {
		return nil
	}

	// Squeeze window excludes the trigger candle.
	end := n - 1
	start := end - b.cfg.Lookback
	zone := computeRange(candles, start, end)
	if !zone.valid() {
		return nil
	}

	rangePct := zone.widthPct()
	if rangePct < b.cfg.MinRangePct || rangePct > b.cfg.MaxRangeWidthPct {
		return nil
	}
	if closeDispersionRatio(candles, start, end, zone) > b.cfg.MaxCloseDispersion {
		// Window was drifting, not consolidating.
		return nil
	}

	trigger := candles[n-1]
	buffer := b.cfg.BreakBufferPct / 100.0

	if trigger.Close > zone.high*(1+buffer) {
		return b.result(domain.SideLong, zone, rangePct, n-1)
	}
	if trigger.Close < zone.low*(1-buffer) {
		return b.result(domain.SideShort, zone, rangePct, n-1)
	}
	return nil
}

func (b *BreakoutRetest) result(side domain.Side, zone rangeZone, rangePct float64, triggerIdx int) *domain.Detection {
	return &domain.Detection{
		Side:       side,
		RangeLow:   zone.low,
		RangeHigh:  zone.high,
		RangePct:   rangePct,
		SweepIdx:   -1,
		ConfirmIdx: triggerIdx,
		Flags: domain.DetectionFlags{
			HasRange:       true,
			BreakoutValid:  true,
			StructureValid: true,
		},
	}
}
