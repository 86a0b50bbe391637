package levels

import (
	"rangepulse/internal/domain"
)

// LeverageBucket maps a stop-loss percentage ceiling to a leverage band.
type LeverageBucket struct {
	MaxStopLossPct float64
	Min            float64
	Max            float64
}

// Config holds the level-building constants. Zero values fall back to the
// tuned defaults.
type Config struct {
	// Stop buffer: max(base*SmallBufferRatio, |entry|*MinAbsBufferRatio).
	SmallBufferRatio  float64
	MinAbsBufferRatio float64

	// Synthetic risk used when geometry degenerates to zero or negative risk.
	FallbackRiskRatio float64

	// Risk multiples for the three targets.
	RR1 float64
	RR2 float64
	RR3 float64

	// Leverage buckets, ordered by ascending MaxStopLossPct. The last
	// bucket's band applies beyond the final threshold.
	Buckets []LeverageBucket

	// Band applied beyond the last bucket threshold.
	TailLeverageMin float64
	TailLeverageMax float64

	// Band returned for a non-positive stop-loss percentage.
	FallbackLeverageMin float64
	FallbackLeverageMax float64
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		SmallBufferRatio:  0.0015,
		MinAbsBufferRatio: 0.0005,
		FallbackRiskRatio: 0.003,
		RR1:               1.2,
		RR2:               1.8,
		RR3:               3.0,
		Buckets: []LeverageBucket{
			{MaxStopLossPct: 0.25, Min: 25, Max: 40},
			{MaxStopLossPct: 0.50, Min: 15, Max: 25},
			{MaxStopLossPct: 0.80, Min: 8, Max: 15},
			{MaxStopLossPct: 1.20, Min: 5, Max: 8},
		},
		TailLeverageMin:     3,
		TailLeverageMax:     5,
		FallbackLeverageMin: 5,
		FallbackLeverageMax: 10,
	}
}

// Builder converts a detection into entry, stop and target levels.
type Builder struct {
	cfg Config
}

// NewBuilder creates a level builder, filling defaults for zero config fields.
func NewBuilder(cfg Config) *Builder {
	def := DefaultConfig()
	if cfg.SmallBufferRatio <= 0 {
		cfg.SmallBufferRatio = def.SmallBufferRatio
	}
	if cfg.MinAbsBufferRatio <= 0 {
		cfg.MinAbsBufferRatio = def.MinAbsBufferRatio
	}
	if cfg.FallbackRiskRatio <= 0 {
		cfg.FallbackRiskRatio = def.FallbackRiskRatio
	}
	if cfg.RR1 <= 0 {
		cfg.RR1 = def.RR1
	}
	if cfg.RR2 <= 0 {
		cfg.RR2 = def.RR2
	}
	if cfg.RR3 <= 0 {
		cfg.RR3 = def.RR3
	}
	if len(cfg.Buckets) == 0 {
		cfg.Buckets = def.Buckets
	}
	if cfg.TailLeverageMin <= 0 || cfg.TailLeverageMax <= 0 {
		cfg.TailLeverageMin = def.TailLeverageMin
		cfg.TailLeverageMax = def.TailLeverageMax
	}
	if cfg.FallbackLeverageMin <= 0 || cfg.FallbackLeverageMax <= 0 {
		cfg.FallbackLeverageMin = def.FallbackLeverageMin
		cfg.FallbackLeverageMax = def.FallbackLeverageMax
	}
	return &Builder{cfg: cfg}
}

// Build derives the trade levels for a detection. trigger is the candle that
// produced the sweep or break extreme (falls back to the confirm candle when
// the strategy has no distinct sweep) and lastClose is the close of the most
// recent candle.
func (b *Builder) Build(det *domain.Detection, trigger *domain.Candle, lastClose float64) domain.Levels {
	var entry, slBase float64

	if det.Side == domain.SideLong {
		if det.TriggerEntryAtBreak() {
			// Breakout: enter on the retest of the broken ceiling.
			entry = det.RangeHigh
		} else {
			// Reclaimed boundary; never chase above the last close.
			entry = minF(det.RangeLow, lastClose)
		}
		slBase = minF(det.RangeLow, trigger.Low)
		buffer := maxF(slBase*b.cfg.SmallBufferRatio, absF(entry)*b.cfg.MinAbsBufferRatio)
		sl := slBase - buffer
		return b.finish(det.Side, entry, sl)
	}

	if det.TriggerEntryAtBreak() {
		entry = det.RangeLow
	} else {
		entry = maxF(det.RangeHigh, lastClose)
	}
	slBase = maxF(det.RangeHigh, trigger.High)
	buffer := maxF(slBase*b.cfg.SmallBufferRatio, absF(entry)*b.cfg.MinAbsBufferRatio)
	sl := slBase + buffer
	return b.finish(det.Side, entry, sl)
}

func (b *Builder) finish(side domain.Side, entry, sl float64) domain.Levels {
	var risk float64
	if side == domain.SideLong {
		risk = entry - sl
	} else {
		risk = sl - entry
	}
	if risk <= 0 {
		// Degenerate geometry: substitute a synthetic risk so downstream
		// percentage and leverage math never divides by zero.
		risk = absF(entry) * b.cfg.FallbackRiskRatio
		if side == domain.SideLong {
			sl = entry - risk
		} else {
			sl = entry + risk
		}
	}

	var tp1, tp2, tp3 float64
	if side == domain.SideLong {
		tp1 = entry + b.cfg.RR1*risk
		tp2 = entry + b.cfg.RR2*risk
		tp3 = entry + b.cfg.RR3*risk
	} else {
		tp1 = entry - b.cfg.RR1*risk
		tp2 = entry - b.cfg.RR2*risk
		tp3 = entry - b.cfg.RR3*risk
	}

	slPct := 0.0
	if entry != 0 {
		slPct = absF(risk/entry) * 100.0
	}
	levMin, levMax := b.LeverageBand(slPct)

	return domain.Levels{
		Entry:       entry,
		StopLoss:    sl,
		TP1:         tp1,
		TP2:         tp2,
		TP3:         tp3,
		Risk:        risk,
		StopLossPct: slPct,
		LeverageMin: levMin,
		LeverageMax: levMax,
	}
}

// LeverageBand maps a stop-loss percentage to a leverage band: the tighter
// the stop, the wider the permissible leverage.
func (b *Builder) LeverageBand(slPct float64) (float64, float64) {
	if slPct <= 0 {
		return b.cfg.FallbackLeverageMin, b.cfg.FallbackLeverageMax
	}
	for _, bucket := range b.cfg.Buckets {
		if slPct <= bucket.MaxStopLossPct {
			return bucket.Min, bucket.Max
		}
	}
	return b.cfg.TailLeverageMin, b.cfg.TailLeverageMax
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func absF(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}
