package strategy

import (
	"context"
	"fmt"

	"rangepulse/internal/domain"
	"rangepulse/internal/ports"
	"rangepulse/internal/strategy/strategies"
)

// Mode selects which detector variant the engine runs. The variants are
// successive redesigns of one engine and share the Detection contract.
type Mode string

const (
	ModeFakeout           Mode = "fakeout"
	ModeBreakoutRetest    Mode = "breakout_retest"
	ModeReversion         Mode = "reversion"
	ModeSweepDisplacement Mode = "sweep_displacement"
)

// Config holds the engine mode and the per-strategy parameters. Window sizes
// and minimum candle counts are deliberately strategy-local; the variants
// never shared them.
type Config struct {
	Mode Mode

	Fakeout           strategies.FakeoutConfig
	BreakoutRetest    strategies.BreakoutRetestConfig
	Reversion         strategies.ReversionConfig
	SweepDisplacement strategies.SweepDisplacementConfig
}

// Engine dispatches detection to the configured strategy variant.
type Engine struct {
	strat  strategies.Strategy
	logger ports.Logger
}

// New creates a detection engine for the configured mode.
func New(cfg Config, logger ports.Logger) (*Engine, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for detection engine")
	}

	var strat strategies.Strategy
	switch cfg.Mode {
	case ModeFakeout, "":
		strat = strategies.NewFakeout(cfg.Fakeout)
	case ModeBreakoutRetest:
		strat = strategies.NewBreakoutRetest(cfg.BreakoutRetest)
	case ModeReversion:
		strat = strategies.NewReversion(cfg.Reversion)
	case ModeSweepDisplacement:
		strat = strategies.NewSweepDisplacement(cfg.SweepDisplacement)
	default:
		return nil, fmt.Errorf("unknown strategy mode %q", cfg.Mode)
	}

	return &Engine{strat: strat, logger: logger}, nil
}

// Name returns the active strategy name.
func (e *Engine) Name() string { return e.strat.Name() }

// MinCandles returns the minimum history length the active strategy needs.
func (e *Engine) MinCandles() int { return e.strat.MinCandles() }

// Detect runs the active strategy over a closed-bar snapshot. It returns nil
// for every degenerate input (short history, inverted or zero-width range);
// those are normal outcomes, not errors.
func (e *Engine) Detect(ctx context.Context, candles []*domain.Candle) *domain.Detection {
	if len(candles) < e.strat.MinCandles() {
		return nil
	}
	det := e.strat.Detect(ctx, candles)
	if det != nil {
		e.logger.Debug(ctx, "Candidate setup detected", map[string]interface{}{
			"strategy":  e.strat.Name(),
			"side":      det.Side,
			"rangeLow":  det.RangeLow,
			"rangeHigh": det.RangeHigh,
			"rangePct":  det.RangePct,
		})
	}
	return det
}
