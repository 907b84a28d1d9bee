// internal/forecast/aggregator.go
package forecast

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"interview-forecast/internal/common/logger"
	"interview-forecast/internal/common/metrics"
	"interview-forecast/internal/models"
	"interview-forecast/internal/scoring"
)

// maxPriorityActions caps the flattened action list in the summary.
const maxPriorityActions = 5

// Readiness is the engine slice the aggregator drives per interview.
type Readiness interface {
	GetOrComputeReadiness(ctx context.Context, interview models.Interview, forceRefresh bool) (*models.ForecastEntry, error)
}

// TrendSource provides the most recent superseded prediction per interview.
type TrendSource interface {
	PreviousPrediction(ctx context.Context, interviewID string) (*models.Prediction, error)
}

// InterviewSource lists a candidate's upcoming interviews.
type InterviewSource interface {
	UpcomingInterviews(ctx context.Context, candidateID string) ([]models.Interview, error)
}

// AccuracyReporter summarizes past prediction accuracy.
type AccuracyReporter interface {
	Report(ctx context.Context, candidateID string) (models.AccuracyReport, error)
}

// Aggregator builds the ranked forecast across all of a candidate's
// upcoming interviews.
type Aggregator struct {
	engine      Readiness
	trends      TrendSource
	interviews  InterviewSource
	accuracy    AccuracyReporter
	concurrency int
	logger      logger.Logger
}

func NewAggregator(
	engine Readiness,
	trends TrendSource,
	interviews InterviewSource,
	accuracy AccuracyReporter,
	concurrency int,
	log logger.Logger,
) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{
		engine:      engine,
		trends:      trends,
		interviews:  interviews,
		accuracy:    accuracy,
		concurrency: concurrency,
		logger:      log.WithFields(map[string]interface{}{"component": "forecast-aggregator"}),
	}
}

// BuildForecast runs get-or-compute for each upcoming interview (in
// parallel, order-independent), decorates entries with trend, ranks them
// by probability, and assembles the summary and accuracy report. A
// candidate with no upcoming interviews gets the documented empty summary.
func (a *Aggregator) BuildForecast(ctx context.Context, candidateID string) (*models.Forecast, error) {
	start := time.Now()
	defer func() {
		metrics.ForecastBuildDuration.Observe(time.Since(start).Seconds())
	}()

	upcoming, err := a.interviews.UpcomingInterviews(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	entries := a.collectEntries(ctx, upcoming)
	rankEntries(entries)

	forecast := &models.Forecast{
		Entries: entries,
		Summary: a.summarize(entries),
	}

	report, err := a.accuracy.Report(ctx, candidateID)
	if err != nil {
		a.logger.Warn("accuracy report unavailable", map[string]interface{}{
			"candidateId": candidateID,
			"error":       err.Error(),
		})
		report = models.AccuracyReport{RecentResults: []models.AccuracyResult{}}
	}
	forecast.Accuracy = report

	return forecast, nil
}

// collectEntries fans the per-interview calls out over a bounded worker
// set. Failed interviews are logged and skipped so one broken row cannot
// sink the whole forecast; input order is preserved in the result.
func (a *Aggregator) collectEntries(ctx context.Context, upcoming []models.Interview) []models.ForecastEntry {
	results := make([]*models.ForecastEntry, len(upcoming))

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.concurrency)
	for i, interview := range upcoming {
		wg.Add(1)
		go func(i int, interview models.Interview) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			entry, err := a.engine.GetOrComputeReadiness(ctx, interview, false)
			if err != nil {
				a.logger.Warn("skipping interview in forecast", map[string]interface{}{
					"interviewId": interview.ID,
					"error":       err.Error(),
				})
				return
			}
			entry.Trend = a.trend(ctx, interview.ID, entry.Prediction)
			results[i] = entry
		}(i, interview)
	}
	wg.Wait()

	entries := make([]models.ForecastEntry, 0, len(results))
	for _, entry := range results {
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries
}

// trend compares the latest prediction to the most recent superseded one.
func (a *Aggregator) trend(ctx context.Context, interviewID string, latest models.Prediction) *models.Trend {
	prev, err := a.trends.PreviousPrediction(ctx, interviewID)
	if err != nil {
		a.logger.Warn("trend unavailable", map[string]interface{}{
			"interviewId": interviewID,
			"error":       err.Error(),
		})
		return nil
	}
	if prev == nil {
		return nil
	}

	delta := round1(latest.Probability - prev.Probability)
	direction := models.TrendSteady
	switch {
	case delta > 0:
		direction = models.TrendUp
	case delta < 0:
		direction = models.TrendDown
	}
	return &models.Trend{Delta: delta, Direction: direction}
}

// rankEntries sorts by probability descending, ties broken by original
// input order, and assigns rank 1 to the highest.
func rankEntries(entries []models.ForecastEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Prediction.Probability > entries[j].Prediction.Probability
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

func (a *Aggregator) summarize(entries []models.ForecastEntry) models.ForecastSummary {
	summary := models.ForecastSummary{
		TotalUpcoming:      len(entries),
		ConfidenceSnapshot: "n/a",
		PriorityActions:    []models.PriorityAction{},
	}
	if len(entries) == 0 {
		return summary
	}

	probSum := 0.0
	confSum := 0.0
	highest := entries[0].Prediction.Probability
	lowest := entries[0].Prediction.Probability
	for _, e := range entries {
		p := e.Prediction.Probability
		probSum += p
		confSum += e.Prediction.Confidence
		if p > highest {
			highest = p
		}
		if p < lowest {
			lowest = p
		}
	}

	summary.AverageProbability = round1(probSum / float64(len(entries)))
	summary.Highest = highest
	summary.Lowest = lowest
	summary.ConfidenceSnapshot = scoring.ConfidenceLabel(confSum / float64(len(entries)))
	summary.PriorityActions = priorityActions(entries)
	return summary
}

// priorityActions flattens every entry's action items, tags them with the
// interview they belong to, orders by priority (stable), and caps the list.
func priorityActions(entries []models.ForecastEntry) []models.PriorityAction {
	actions := []models.PriorityAction{}
	for _, e := range entries {
		for _, item := range e.ActionItems {
			actions = append(actions, models.PriorityAction{
				ActionItem: item,
				JobTitle:   e.Interview.JobTitle,
				Company:    e.Interview.Company,
			})
		}
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return priorityRank(actions[i].Priority) < priorityRank(actions[j].Priority)
	})

	if len(actions) > maxPriorityActions {
		actions = actions[:maxPriorityActions]
	}
	return actions
}

func priorityRank(impact models.Impact) int {
	switch impact {
	case models.ImpactHigh:
		return 0
	case models.ImpactMedium:
		return 1
	default:
		return 2
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
