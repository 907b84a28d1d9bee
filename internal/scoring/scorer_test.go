// internal/scoring/scorer_test.go
package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"interview-forecast/internal/factors"
	"interview-forecast/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createWellPreparedSet() factors.FactorSet {
	return factors.FactorSet{
		PrepRatio:       0.75,
		MatchRatio:      0.80,
		ResearchRatio:   0.75,
		PracticeRatio:   0.72,
		HistoricalRatio: 0.70,

		Prep:              models.PreparationStats{Completed: 9, Total: 12},
		Match:             models.MatchScore{Value: 80, Source: models.MatchSourceAnalysis},
		ResearchCompleted: 3,
		GeneralHours:      4,
		TechnicalHours:    2,
		HistorySamples:    5,
	}
}

func createEmptySet() factors.FactorSet {
	return factors.FactorSet{
		Match: models.MatchScore{Source: models.MatchSourceHeuristic},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestScore_WeightsSumToOne(t *testing.T) {
	sum := WeightPreparation + WeightJobMatch + WeightResearch + WeightPractice + WeightHistorical
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestScore_WellPreparedCandidate(t *testing.T) {
	result := Score(createWellPreparedSet())

	assert.Equal(t, 75.3, result.Probability)
	assert.Equal(t, 0.95, result.Confidence)
	assert.Equal(t, LabelHigh, result.Label)
	assert.Equal(t, models.FactorBreakdown{
		Preparation: 0.75,
		JobMatch:    0.8,
		Research:    0.75,
		Practice:    0.72,
		Historical:  0.7,
	}, result.Breakdown)
}

func TestScore_Bounds(t *testing.T) {
	tests := []struct {
		name                string
		set                 factors.FactorSet
		expectedProbability float64
	}{
		{
			name:                "all factors zero clamps to the floor",
			set:                 createEmptySet(),
			expectedProbability: 5.0,
		},
		{
			name: "all factors perfect clamps to the ceiling",
			set: factors.FactorSet{
				PrepRatio:       1,
				MatchRatio:      1,
				ResearchRatio:   1,
				PracticeRatio:   1,
				HistoricalRatio: 1,
			},
			expectedProbability: 97.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Score(tt.set)
			assert.Equal(t, tt.expectedProbability, result.Probability)
		})
	}
}

func TestScore_HalfUpAtDecimalBoundary(t *testing.T) {
	// The well-prepared set sums to 0.7525, which float64 represents as
	// 0.7524999999999998. A naive one-decimal round would drop it to 75.2.
	result := Score(createWellPreparedSet())
	assert.Equal(t, 75.3, result.Probability)

	// Same boundary reached through a single factor.
	result = Score(factors.FactorSet{MatchRatio: 0.775})
	assert.Equal(t, 23.3, result.Probability)
}

func TestScore_SameSetSameResult(t *testing.T) {
	set := createWellPreparedSet()
	assert.Equal(t, Score(set), Score(set))
}

// ==========================
// Confidence Tests
// ==========================

func TestScore_Confidence(t *testing.T) {
	tests := []struct {
		name     string
		set      factors.FactorSet
		expected float64
	}{
		{
			name:     "no data at all stays at the base",
			set:      createEmptySet(),
			expected: 0.35,
		},
		{
			name: "checklist alone",
			set: factors.FactorSet{
				Prep:  models.PreparationStats{Completed: 1, Total: 4},
				Match: models.MatchScore{Source: models.MatchSourceHeuristic},
			},
			expected: 0.55,
		},
		{
			name: "cached analysis counts as analysis-less",
			set: factors.FactorSet{
				Match: models.MatchScore{Value: 80, Source: models.MatchSourceCached},
			},
			expected: 0.35,
		},
		{
			name: "small history sample earns the smaller bonus",
			set: factors.FactorSet{
				Match:          models.MatchScore{Source: models.MatchSourceHeuristic},
				HistorySamples: 2,
			},
			expected: 0.43,
		},
		{
			name: "fractional practice hours below one earn nothing",
			set: factors.FactorSet{
				Match:        models.MatchScore{Source: models.MatchSourceHeuristic},
				GeneralHours: 0.5,
			},
			expected: 0.35,
		},
		{
			name:     "everything present is capped",
			set:      createWellPreparedSet(),
			expected: 0.95,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Score(tt.set)
			assert.Equal(t, tt.expected, result.Confidence)
		})
	}
}

func TestConfidenceLabel(t *testing.T) {
	tests := []struct {
		confidence float64
		expected   string
	}{
		{0.95, LabelHigh},
		{0.75, LabelHigh},
		{0.74, LabelModerate},
		{0.55, LabelModerate},
		{0.54, LabelDeveloping},
		{0.35, LabelDeveloping},
		{0, LabelDeveloping},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ConfidenceLabel(tt.confidence))
	}
}
