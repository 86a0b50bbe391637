package scoring

import (
	"testing"

	"rangepulse/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestScoreFullConfluence(t *testing.T) {
	s := NewScorer(Config{})

	in := Inputs{
		Flags: domain.DetectionFlags{
			HasRange:          true,
			SweepValid:        true,
			DisplacementValid: true,
		},
		RROk:        true,
		HTFAligned:  true,
		StopLossPct: 0.4,
	}

	score, tier := s.Evaluate(in)
	assert.Equal(t, 130, score)
	assert.Equal(t, domain.TierAPlus, tier)
}

func TestScoreStopLossSweetSpot(t *testing.T) {
	s := NewScorer(Config{})
	base := Inputs{
		Flags: domain.DetectionFlags{HasRange: true, SweepValid: true},
		RROk:  true,
	}

	inside := base
	inside.StopLossPct = 0.5
	outside := base
	outside.StopLossPct = 2.4

	assert.Equal(t, 20, s.Score(inside)-s.Score(outside),
		"leaving the sweet spot swings the score by bonus plus penalty")
}

func TestScoreClampedToZero(t *testing.T) {
	s := NewScorer(Config{})
	score := s.Score(Inputs{StopLossPct: 3.0})
	assert.Equal(t, 0, score)
}

func TestScoreClampedToMax(t *testing.T) {
	s := NewScorer(Config{MaxScore: 100, BMin: 10, AMin: 20, APlusMin: 30,
		RangeWeight: 60, SweepWeight: 60, StopLossPctMin: 0, StopLossPctMax: 10})
	score := s.Score(Inputs{
		Flags:       domain.DetectionFlags{HasRange: true, SweepValid: true},
		StopLossPct: 0.5,
	})
	assert.Equal(t, 100, score)
}

func TestTierBreakpoints(t *testing.T) {
	s := NewScorer(Config{})

	tests := []struct {
		score int
		want  domain.Tier
	}{
		{score: 150, want: domain.TierAPlus},
		{score: 120, want: domain.TierAPlus},
		{score: 119, want: domain.TierA},
		{score: 100, want: domain.TierA},
		{score: 99, want: domain.TierB},
		{score: 80, want: domain.TierB},
		{score: 79, want: domain.TierNone},
		{score: 0, want: domain.TierNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Tier(tt.score), "score=%d", tt.score)
	}
}

func TestTierMonotonic(t *testing.T) {
	s := NewScorer(Config{})

	prev := domain.TierNone
	for score := 0; score <= 150; score++ {
		tier := s.Tier(score)
		assert.GreaterOrEqual(t, tier.Rank(), prev.Rank(),
			"tier must never drop as the score rises (score=%d)", score)
		prev = tier
	}
}

func TestShouldSend(t *testing.T) {
	tests := []struct {
		name    string
		tier    domain.Tier
		minTier domain.Tier
		want    bool
	}{
		{name: "tier above gate", tier: domain.TierAPlus, minTier: domain.TierA, want: true},
		{name: "tier at gate", tier: domain.TierA, minTier: domain.TierA, want: true},
		{name: "tier below gate", tier: domain.TierB, minTier: domain.TierA, want: false},
		{name: "none never sends", tier: domain.TierNone, minTier: domain.TierNone, want: false},
		{name: "b clears none gate", tier: domain.TierB, minTier: domain.TierNone, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldSend(tt.tier, tt.minTier))
		})
	}
}
