// internal/accuracy/tracker.go
package accuracy

import (
	"context"
	"math"

	"interview-forecast/internal/common/logger"
	"interview-forecast/internal/models"
)

// recentLimit caps how many evaluated predictions the report details.
const recentLimit = 5

// PredictionSource is the store slice the tracker reads from.
type PredictionSource interface {
	EvaluatedPredictions(ctx context.Context, candidateID string) ([]models.Prediction, error)
}

// Tracker measures how well stored predictions matched the outcomes that
// were later recorded. It only measures drift; it never feeds back into
// the scoring formula.
type Tracker struct {
	source PredictionSource
	logger logger.Logger
}

func NewTracker(source PredictionSource, log logger.Logger) *Tracker {
	return &Tracker{
		source: source,
		logger: log.WithFields(map[string]interface{}{"component": "accuracy-tracker"}),
	}
}

// Report returns the candidate's prediction accuracy: tracked count, mean
// absolute error, and the most recently evaluated results. No evaluated
// predictions yields a zero report, not an error.
func (t *Tracker) Report(ctx context.Context, candidateID string) (models.AccuracyReport, error) {
	preds, err := t.source.EvaluatedPredictions(ctx, candidateID)
	if err != nil {
		return models.AccuracyReport{}, err
	}

	report := models.AccuracyReport{RecentResults: []models.AccuracyResult{}}
	if len(preds) == 0 {
		return report, nil
	}

	sum := 0.0
	for _, p := range preds {
		if p.Accuracy == nil {
			continue
		}
		sum += *p.Accuracy
		report.TrackedPredictions++

		if len(report.RecentResults) < recentLimit && p.ActualOutcome != nil {
			report.RecentResults = append(report.RecentResults, models.AccuracyResult{
				InterviewID:   p.InterviewID,
				Predicted:     p.Probability,
				ActualOutcome: *p.ActualOutcome,
				Error:         *p.Accuracy,
			})
		}
	}
	if report.TrackedPredictions == 0 {
		return report, nil
	}

	mae := math.Round(sum/float64(report.TrackedPredictions)*1000) / 1000
	report.MeanAbsoluteError = &mae
	return report, nil
}
