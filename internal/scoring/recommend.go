// internal/scoring/recommend.go
package scoring

import (
	"fmt"

	"interview-forecast/internal/factors"
	"interview-forecast/internal/models"
)

const (
	maxRecommendations = 4
	maxActionItems     = 3
)

// Rule thresholds for the recommendation engine.
const (
	prepThreshold       = 0.75
	researchThreshold   = 0.75
	practiceHoursTarget = 3.0
	matchValueThreshold = 70.0
	historyMinSamples   = 3
	historyThreshold    = 0.6
)

// Recommend produces prioritized advice and concrete action items from a
// factor set. Rules fire in a fixed order and the lists are truncated to
// their caps; there is no re-sorting by impact. Pure function, no I/O.
func Recommend(set factors.FactorSet) ([]models.Recommendation, []models.ActionItem) {
	recs := make([]models.Recommendation, 0, maxRecommendations)
	actions := make([]models.ActionItem, 0, maxActionItems)

	if set.PrepRatio < prepThreshold {
		recs = append(recs, models.Recommendation{
			Area:    "preparation",
			Message: "Finish your preparation checklist before the interview",
			Impact:  models.ImpactHigh,
		})
		actions = append(actions, models.ActionItem{
			Description: prepActionDescription(set.Prep),
			DueBy:       "Today",
			Priority:    models.ImpactHigh,
		})
	}

	if set.ResearchRatio < researchThreshold {
		recs = append(recs, models.Recommendation{
			Area:    "research",
			Message: "Deepen your company research",
			Impact:  models.ImpactMedium,
		})
		actions = append(actions, models.ActionItem{
			Description: "Cover the remaining research topics: mission, news, competitors, products",
			DueBy:       "Tomorrow",
			Priority:    models.ImpactMedium,
		})
	}

	if set.GeneralHours+set.TechnicalHours < practiceHoursTarget {
		recs = append(recs, models.Recommendation{
			Area:    "practice",
			Message: "Log more practice sessions",
			Impact:  models.ImpactMedium,
		})
		actions = append(actions, models.ActionItem{
			Description: "Schedule a mock practice session",
			DueBy:       "Before interview",
			Priority:    models.ImpactMedium,
		})
	}

	if set.Match.Value < matchValueThreshold {
		recs = append(recs, models.Recommendation{
			Area:    "fit",
			Message: "Revisit the gaps surfaced by your job match analysis",
			Impact:  models.ImpactMedium,
		})
	}

	if set.HistorySamples >= historyMinSamples && set.HistoricalRatio < historyThreshold {
		recs = append(recs, models.Recommendation{
			Area:    "feedback",
			Message: "Review feedback from your recent interviews",
			Impact:  models.ImpactMedium,
		})
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	if len(actions) > maxActionItems {
		actions = actions[:maxActionItems]
	}
	return recs, actions
}

func prepActionDescription(stats models.PreparationStats) string {
	remaining := stats.Total - stats.Completed
	if stats.Total == 0 {
		return "Build a preparation checklist and start working through it"
	}
	return fmt.Sprintf("Complete the remaining %d checklist tasks", remaining)
}
