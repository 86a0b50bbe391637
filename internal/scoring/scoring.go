package scoring

import (
	"rangepulse/internal/domain"
)

// Inputs collects everything the rubric weighs for one candidate signal.
type Inputs struct {
	Flags       domain.DetectionFlags
	RROk        bool // reward-to-risk at TP2 cleared the minimum
	HTFAligned  bool
	StopLossPct float64
}

// Config holds the rubric weights and tier breakpoints.
type Config struct {
	RangeWeight        int
	SweepWeight        int
	DisplacementWeight int
	StructureWeight    int
	RRWeight           int
	HTFWeight          int

	// Stop-loss percentage sweet spot. Inside earns StopLossBonus, outside
	// costs StopLossPenalty.
	StopLossPctMin  float64
	StopLossPctMax  float64
	StopLossBonus   int
	StopLossPenalty int

	MaxScore int

	APlusMin int
	AMin     int
	BMin     int
}

// DefaultConfig returns the production rubric.
func DefaultConfig() Config {
	return Config{
		RangeWeight:        30,
		SweepWeight:        25,
		DisplacementWeight: 25,
		StructureWeight:    10,
		RRWeight:           15,
		HTFWeight:          25,
		StopLossPctMin:     0.25,
		StopLossPctMax:     1.20,
		StopLossBonus:      10,
		StopLossPenalty:    10,
		MaxScore:           150,
		APlusMin:           120,
		AMin:               100,
		BMin:               80,
	}
}

// Scorer turns detection evidence into a score and a tier.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer, substituting the default rubric for a zero
// config.
func NewScorer(cfg Config) *Scorer {
	if cfg.MaxScore == 0 {
		cfg = DefaultConfig()
	}
	return &Scorer{cfg: cfg}
}

// Score computes the rubric total for the inputs, clamped to [0, MaxScore].
func (s *Scorer) Score(in Inputs) int {
	score := 0
	if in.Flags.HasRange {
		score += s.cfg.RangeWeight
	}
	if in.Flags.SweepValid {
		score += s.cfg.SweepWeight
	}
	if in.Flags.DisplacementValid {
		score += s.cfg.DisplacementWeight
	}
	if in.Flags.StructureValid {
		score += s.cfg.StructureWeight
	}
	if in.RROk {
		score += s.cfg.RRWeight
	}
	if in.HTFAligned {
		score += s.cfg.HTFWeight
	}
	if in.StopLossPct >= s.cfg.StopLossPctMin && in.StopLossPct <= s.cfg.StopLossPctMax {
		score += s.cfg.StopLossBonus
	} else {
		score -= s.cfg.StopLossPenalty
	}

	if score < 0 {
		score = 0
	}
	if score > s.cfg.MaxScore {
		score = s.cfg.MaxScore
	}
	return score
}

// Tier maps a score to its tier.
func (s *Scorer) Tier(score int) domain.Tier {
	switch {
	case score >= s.cfg.APlusMin:
		return domain.TierAPlus
	case score >= s.cfg.AMin:
		return domain.TierA
	case score >= s.cfg.BMin:
		return domain.TierB
	default:
		return domain.TierNone
	}
}

// Evaluate scores the inputs and resolves the tier in one call.
func (s *Scorer) Evaluate(in Inputs) (int, domain.Tier) {
	score := s.Score(in)
	return score, s.Tier(score)
}

// ShouldSend reports whether a signal of the given tier clears the minimum
// tier gate.
func ShouldSend(tier, minTier domain.Tier) bool {
	if tier == domain.TierNone {
		return false
	}
	return tier.Rank() >= minTier.Rank()
}
