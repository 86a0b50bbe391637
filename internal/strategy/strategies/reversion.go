package strategies

import (
	"context"

	"rangepulse/internal/domain"
)

// Reversion detects mid-range mean-reversion entries: when the latest close
// sits in the outer band near a boundary of an established range, expect a
// rotation back toward the middle.
type Reversion struct {
	cfg ReversionConfig
}

// ReversionConfig holds the reversion strategy parameters.
type ReversionConfig struct {
	Lookback    int     // Range window size (e.g. 40)
	MinCandles  int     // Minimum total history (e.g. 40)
	MinRangePct float64 // Minimum range width as % of midpoint
	OuterBand   float64 // Fraction of the range counted as the outer band (e.g. 0.35)
}

// NewReversion creates the reversion strategy with defaults.
func NewReversion(cfg ReversionConfig) *Reversion {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 40
	}
	if cfg.MinCandles <= 0 {
		cfg.MinCandles = cfg.Lookback
	}
	if cfg.MinRangePct <= 0 {
		cfg.MinRangePct = 0.3
	}
	if cfg.OuterBand <= 0 || cfg.OuterBand >= 0.5 {
		cfg.OuterBand = 0.35
	}
	return &Reversion{cfg: cfg}
}

func (r *Reversion) Name() string { return "reversion" }

func (r *Reversion) MinCandles() int { return r.cfg.MinCandles }

func (r *Reversion) Detect(ctx context.Context, candles []*domain.Candle) *domain.Detection {
	n := len(candles)
	if n < r.cfg.MinCandles {
		return nil
	}

	start := n - r.cfg.Lookback
	zone := computeRange(candles, start, n)
	if !zone.valid() {
		return nil
	}
	rangePct := zone.widthPct()
	if rangePct < r.cfg.MinRangePct {
		return nil
	}

	last := candles[n-1]
	pos := (last.Close - zone.low) / (zone.high - zone.low)

	var side domain.Side
	switch {
	case pos <= r.cfg.OuterBand:
		side = domain.SideLong
	case pos >= 1-r.cfg.OuterBand:
		side = domain.SideShort
	default:
		return nil
	}

	return &domain.Detection{
		Side:       side,
		RangeLow:   zone.low,
		RangeHigh:  zone.high,
		RangePct:   rangePct,
		SweepIdx:   -1,
		ConfirmIdx: n - 1,
		Flags: domain.DetectionFlags{
			HasRange: true,
		},
	}
}
