// internal/scoring/scorer.go
package scoring

import (
	"math"

	"interview-forecast/internal/factors"
	"interview-forecast/internal/models"
)

// Factor weights. These must sum to exactly 1.0.
const (
	WeightPreparation = 0.25
	WeightJobMatch    = 0.30
	WeightResearch    = 0.10
	WeightPractice    = 0.25
	WeightHistorical  = 0.10
)

// The composite probability never leaves these bounds, whatever the raw
// factors look like.
const (
	probabilityFloor   = 0.05
	probabilityCeiling = 0.97
)

const (
	confidenceBase = 0.35
	confidenceCap  = 0.95
)

// Confidence labels.
const (
	LabelHigh       = "high"
	LabelModerate   = "moderate"
	LabelDeveloping = "developing"
)

// Result is the outcome of scoring one factor set.
type Result struct {
	Probability float64 // 0-100, one decimal
	Confidence  float64 // 0.00-0.95, two decimals
	Label       string
	Breakdown   models.FactorBreakdown
}

// Score computes the bounded composite probability and the confidence in
// it. Pure function, no I/O.
func Score(set factors.FactorSet) Result {
	raw := WeightPreparation*set.PrepRatio +
		WeightJobMatch*set.MatchRatio +
		WeightResearch*set.ResearchRatio +
		WeightPractice*set.PracticeRatio +
		WeightHistorical*set.HistoricalRatio

	// Absorb float64 representation noise before scaling, so a sum that is
	// exactly .x25 in decimal rounds half-up to one decimal percent instead
	// of falling just below the boundary.
	raw = math.Round(raw*1e6) / 1e6

	bounded := raw
	if bounded < probabilityFloor {
		bounded = probabilityFloor
	}
	if bounded > probabilityCeiling {
		bounded = probabilityCeiling
	}

	confidence := confidence(set)

	return Result{
		Probability: round1(bounded * 100),
		Confidence:  confidence,
		Label:       ConfidenceLabel(confidence),
		Breakdown:   set.Breakdown(),
	}
}

// confidence measures how much underlying data backs the probability,
// distinct from the probability itself.
func confidence(set factors.FactorSet) float64 {
	c := confidenceBase
	if set.Prep.Total > 0 {
		c += 0.20
	}
	if set.Match.Source == models.MatchSourceAnalysis {
		c += 0.15
	}
	if set.ResearchRatio > 0 {
		c += 0.10
	}
	if set.GeneralHours+set.TechnicalHours >= 1 {
		c += 0.10
	}
	if set.HistorySamples >= 5 {
		c += 0.15
	} else if set.HistorySamples > 0 {
		c += 0.08
	}
	if c > confidenceCap {
		c = confidenceCap
	}
	return round2(c)
}

// ConfidenceLabel buckets a confidence value for display.
func ConfidenceLabel(confidence float64) string {
	switch {
	case confidence >= 0.75:
		return LabelHigh
	case confidence >= 0.55:
		return LabelModerate
	default:
		return LabelDeveloping
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
