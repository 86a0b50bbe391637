package strategies

import (
	"context"

	"rangepulse/internal/domain"
)

// SweepDisplacement detects a squeeze whose latest candle sweeps outside the
// window, closes back inside, and carries a displacement body: an unusually
// large body relative to the recent average, in the signal's direction.
type SweepDisplacement struct {
	cfg SweepDisplacementConfig
}

// SweepDisplacementConfig holds the sweep-displacement strategy parameters.
type SweepDisplacementConfig struct {
	Lookback           int     // Squeeze window size (e.g. 40)
	MinCandles         int     // Minimum total history (e.g. 50)
	MinRangePct        float64 // Noise floor for the range width
	MaxRangeWidthPct   float64 // Squeeze ceiling (e.g. 1.2)
	MinPenetrationPct  float64 // Minimum sweep penetration, %
	DisplacementFactor float64 // Body must exceed avg body by this factor (e.g. 1.6)
	AvgBodyLookback    int     // Candles used for the average body (e.g. 30)
}

// NewSweepDisplacement creates the sweep-displacement strategy with defaults.
func NewSweepDisplacement(cfg SweepDisplacementConfig) *SweepDisplacement {
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
	if cfg.MinPenetrationPct <= 0 {
		cfg.MinPenetrationPct = 0.05
	}
	if cfg.DisplacementFactor <= 0 {
		cfg.DisplacementFactor = 1.6
	}
	if cfg.AvgBodyLookback <= 0 {
		cfg.AvgBodyLookback = 30
	}
	return &SweepDisplacement{cfg: cfg}
}

func (s *SweepDisplacement) Name() string { return "sweep_displacement" }

func (s *SweepDisplacement) MinCandles() int { return s.cfg.MinCandles }

func (s *SweepDisplacement) Detect(ctx context.Context, candles []*domain.Candle) *domain.Detection {
	n := len(candles)
	if n < s.cfg.MinCandles {
		return nil
	}

	end := n - 1
	start := end - s.cfg.Lookback
	zone := computeRange(candles, start, end)
	if !zone.valid() {
		return nil
	}
	rangePct := zone.widthPct()
	if rangePct < s.cfg.MinRangePct || rangePct > s.cfg.MaxRangeWidthPct {
		return nil
	}

	trigger := candles[n-1]
	mean := avgBody(candles[:n-1], s.cfg.AvgBodyLookback)
	displaced := mean > 0 && trigger.Body() >= mean*s.cfg.DisplacementFactor

	// Sweep below the squeeze, close back inside, bullish displacement.
	if trigger.Low < zone.low {
		pen := penetrationPct(zone.low, trigger.Low, true)
		if pen >= s.cfg.MinPenetrationPct && trigger.Close > zone.low && trigger.IsBullish() && displaced {
			return s.result(domain.SideLong, zone, rangePct, n-1)
		}
	}

	// Sweep above the squeeze, close back inside, bearish displacement.
	if trigger.High > zone.high {
		pen := penetrationPct(zone.high, trigger.High, false)
		if pen >= s.cfg.MinPenetrationPct && trigger.Close < zone.high && !trigger.IsBullish() && displaced {
			return s.result(domain.SideShort, zone, rangePct, n-1)
		}
	}

	return nil
}

func (s *SweepDisplacement) result(side domain.Side, zone rangeZone, rangePct float64, triggerIdx int) *domain.Detection {
	return &domain.Detection{
		Side:       side,
		RangeLow:   zone.low,
		RangeHigh:  zone.high,
		RangePct:   rangePct,
		SweepIdx:   triggerIdx,
		ConfirmIdx: triggerIdx,
		Flags: domain.DetectionFlags{
			HasRange:          true,
			SweepValid:        true,
			DisplacementValid: true,
			StructureValid:    true,
		},
	}
}
