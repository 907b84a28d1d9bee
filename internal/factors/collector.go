// internal/factors/collector.go
package factors

import (
	"context"
	"math"

	"interview-forecast/internal/common/logger"
	"interview-forecast/internal/common/metrics"
	"interview-forecast/internal/models"
)

const (
	// ResearchTopicCount is the fixed canonical research set size.
	ResearchTopicCount = 4

	// historyLimit caps how many past outcomes feed the historical factor.
	historyLimit = 5

	// Defaults used when a collaborator is unavailable or has no data.
	defaultHistoricalRatio = 0.55

	generalHoursTarget   = 5.0
	technicalHoursTarget = 3.0
	generalWeight        = 0.4
	technicalWeight      = 0.6
)

// FactorSet carries the five readiness ratios plus the raw signals behind
// them. The raws feed confidence scoring and the recommendation rules.
type FactorSet struct {
	PrepRatio       float64
	MatchRatio      float64
	ResearchRatio   float64
	PracticeRatio   float64
	HistoricalRatio float64

	Prep              models.PreparationStats
	Match             models.MatchScore
	ResearchCompleted int
	GeneralHours      float64
	TechnicalHours    float64
	HistorySamples    int
}

// Breakdown returns the five ratios rounded to 3 decimals for persistence.
func (f FactorSet) Breakdown() models.FactorBreakdown {
	return models.FactorBreakdown{
		Preparation: round3(f.PrepRatio),
		JobMatch:    round3(f.MatchRatio),
		Research:    round3(f.ResearchRatio),
		Practice:    round3(f.PracticeRatio),
		Historical:  round3(f.HistoricalRatio),
	}
}

// Collector gathers the five readiness signals for one interview. It is
// read-only: a failing collaborator degrades that one factor to its
// documented default instead of aborting the whole computation.
type Collector struct {
	sources Sources
	logger  logger.Logger
}

func NewCollector(sources Sources, log logger.Logger) *Collector {
	return &Collector{
		sources: sources,
		logger:  log.WithFields(map[string]interface{}{"component": "factor-collector"}),
	}
}

// Collect returns the factor set for the interview. It never fails.
func (c *Collector) Collect(ctx context.Context, interview models.Interview) FactorSet {
	set := FactorSet{}

	set.Prep = c.preparationStats(ctx, interview.ID)
	set.PrepRatio = set.Prep.Score()

	set.Match = c.matchScore(ctx, interview)
	set.MatchRatio = set.Match.Value / 100

	set.ResearchCompleted = c.researchCompletion(ctx, interview.ID)
	set.ResearchRatio = clamp(float64(set.ResearchCompleted)/ResearchTopicCount, 0, 1)

	set.GeneralHours, set.TechnicalHours = c.practiceHours(ctx, interview.JobID)
	set.PracticeRatio = practiceRatio(set.GeneralHours, set.TechnicalHours)

	set.HistoricalRatio, set.HistorySamples = c.historicalRatio(ctx, interview.CandidateID)

	return set
}

func (c *Collector) preparationStats(ctx context.Context, interviewID string) models.PreparationStats {
	stats, err := c.sources.Checklist.PreparationStats(ctx, interviewID)
	if err != nil {
		c.degrade("checklist", interviewID, err)
		return models.PreparationStats{}
	}
	return stats
}

func (c *Collector) matchScore(ctx context.Context, interview models.Interview) models.MatchScore {
	score, err := c.sources.Match.MatchScore(ctx, interview)
	if err != nil {
		c.degrade("match", interview.ID, err)
		return HeuristicMatch(interview.Stage)
	}
	return score
}

func (c *Collector) researchCompletion(ctx context.Context, interviewID string) int {
	completed, err := c.sources.Checklist.ResearchCompletion(ctx, interviewID)
	if err != nil {
		c.degrade("research", interviewID, err)
		return 0
	}
	if completed < 0 {
		return 0
	}
	return completed
}

func (c *Collector) practiceHours(ctx context.Context, jobID string) (float64, float64) {
	general, technical, err := c.sources.Practice.PracticeHours(ctx, jobID)
	if err != nil {
		c.degrade("practice", jobID, err)
		return 0, 0
	}
	return general, technical
}

func (c *Collector) historicalRatio(ctx context.Context, candidateID string) (float64, int) {
	records, err := c.sources.History.RecentOutcomes(ctx, candidateID, historyLimit)
	if err != nil {
		c.degrade("history", candidateID, err)
		return defaultHistoricalRatio, 0
	}
	if len(records) == 0 {
		return defaultHistoricalRatio, 0
	}

	sum := 0.0
	samples := 0
	for _, rec := range records {
		score, ok := models.OutcomeScores[rec.Outcome]
		if !ok {
			continue
		}
		sum += score
		samples++
	}
	if samples == 0 {
		return defaultHistoricalRatio, 0
	}
	return sum / float64(samples), samples
}

func (c *Collector) degrade(source, subject string, err error) {
	metrics.CollaboratorFailures.WithLabelValues(source).Inc()
	c.logger.Warn("signal source unavailable, using default", map[string]interface{}{
		"source":  source,
		"subject": subject,
		"error":   err.Error(),
	})
}

// practiceRatio combines general and technical practice hours. The 40/60
// weighting only applies once any technical practice exists.
func practiceRatio(general, technical float64) float64 {
	generalComponent := clamp(general/generalHoursTarget, 0, 1)
	if technical <= 0 {
		return generalComponent
	}
	technicalComponent := clamp(technical/technicalHoursTarget, 0, 1)
	return clamp(generalWeight*generalComponent+technicalWeight*technicalComponent, 0, 1)
}

// HeuristicMatch is the stage-based fallback when no match analysis exists.
func HeuristicMatch(stage string) models.MatchScore {
	value := 65.0
	switch stage {
	case models.StagePhoneScreen:
		value = 70.0
	case models.StageInterview:
		value = 75.0
	}
	return models.MatchScore{Value: value, Source: models.MatchSourceHeuristic}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
