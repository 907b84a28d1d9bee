// internal/engine/engine.go
package engine

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"interview-forecast/internal/common/config"
	apperrors "interview-forecast/internal/common/errors"
	"interview-forecast/internal/common/logger"
	"interview-forecast/internal/common/metrics"
	"interview-forecast/internal/factors"
	"interview-forecast/internal/insights"
	"interview-forecast/internal/models"
	"interview-forecast/internal/scoring"
	storepkg "interview-forecast/internal/store"
)

// PredictionStore is the slice of the store the engine needs.
type PredictionStore interface {
	Latest(ctx context.Context, interviewID string) (*models.Prediction, error)
	SaveAndSupersede(ctx context.Context, pred models.Prediction) (*models.Prediction, error)
	RepairLatest(ctx context.Context, interviewID string) (*models.Prediction, error)
	Get(ctx context.Context, predictionID string) (*models.Prediction, error)
	RecordOutcome(ctx context.Context, predictionID string, outcome models.Outcome, accuracy float64, evaluatedAt time.Time) error
}

// Locker is the per-interview advisory lock guarding recompute.
type Locker interface {
	Acquire(ctx context.Context, interviewID string) (bool, error)
	Release(ctx context.Context, interviewID string) error
}

// Engine runs the get-or-compute state machine for readiness predictions.
type Engine struct {
	store     PredictionStore
	lock      Locker
	collector *factors.Collector
	match     factors.MatchSource
	generator insights.Generator
	cfg       config.ScoringConfig
	insight   config.InsightsConfig
	logger    logger.Logger
	now       func() time.Time
}

func New(
	st PredictionStore,
	lock Locker,
	collector *factors.Collector,
	match factors.MatchSource,
	generator insights.Generator,
	cfg config.ScoringConfig,
	insight config.InsightsConfig,
	log logger.Logger,
) *Engine {
	if generator == nil {
		generator = insights.NewNoop()
	}
	return &Engine{
		store:     st,
		lock:      lock,
		collector: collector,
		match:     match,
		generator: generator,
		cfg:       cfg,
		insight:   insight,
		logger:    log.WithFields(map[string]interface{}{"component": "forecast-engine"}),
		now:       time.Now,
	}
}

// WithClock overrides the engine clock. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// GetOrComputeReadiness returns the current prediction for an interview,
// recomputing it when none exists, when it went stale, or when forced.
// A fresh cached prediction is returned unchanged with Cached set.
func (e *Engine) GetOrComputeReadiness(ctx context.Context, interview models.Interview, forceRefresh bool) (*models.ForecastEntry, error) {
	latest, err := e.store.Latest(ctx, interview.ID)
	if err != nil {
		if !apperrors.HasCode(err, apperrors.ErrCodeLatestInvariantViolation) {
			return nil, err
		}
		latest, err = e.store.RepairLatest(ctx, interview.ID)
		if err != nil {
			return nil, err
		}
	}

	matchUpdate := e.matchLastUpdate(ctx, interview.ID)

	trigger := e.classifyTrigger(forceRefresh, latest, matchUpdate)
	if trigger == "" {
		metrics.PredictionCacheHits.Inc()
		return e.buildEntry(ctx, interview, latest, true, scoring.ConfidenceLabel(latest.Confidence)), nil
	}

	return e.recompute(ctx, interview, matchUpdate, trigger)
}

// recompute runs the guarded transition: take the per-interview lock,
// score, and atomically supersede the previous latest. Losing the lock is
// not an error: the loser re-reads the latest row written by the winner.
func (e *Engine) recompute(ctx context.Context, interview models.Interview, matchUpdate time.Time, trigger string) (*models.ForecastEntry, error) {
	acquired := false
	for attempt := 0; ; attempt++ {
		ok, err := e.lock.Acquire(ctx, interview.ID)
		if err != nil {
			// Lock table unreachable. Proceed unguarded: the
			// transactional supersede keeps the invariant even if
			// two writers race, at worst one extra history row.
			e.logger.Warn("advisory lock unavailable, computing unguarded", map[string]interface{}{
				"interviewId": interview.ID,
				"error":       err.Error(),
			})
			break
		}
		if ok {
			acquired = true
			break
		}

		metrics.LockContention.Inc()
		if attempt >= e.cfg.LockRetries {
			break
		}

		select {
		case <-time.After(e.cfg.LockRetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		latest, err := e.store.Latest(ctx, interview.ID)
		if err != nil {
			return nil, err
		}
		if latest != nil && !storepkg.NeedsRecompute(latest, e.now(), matchUpdate, e.cfg.StalenessTTL) {
			metrics.PredictionCacheHits.Inc()
			return e.buildEntry(ctx, interview, latest, true, scoring.ConfidenceLabel(latest.Confidence)), nil
		}
	}
	if acquired {
		defer func() {
			if err := e.lock.Release(context.WithoutCancel(ctx), interview.ID); err != nil {
				e.logger.Warn("failed to release interview lock", map[string]interface{}{
					"interviewId": interview.ID,
					"error":       err.Error(),
				})
			}
		}()
	}

	set := e.collector.Collect(ctx, interview)
	result := scoring.Score(set)

	pred := models.Prediction{
		ID:          uuid.NewString(),
		InterviewID: interview.ID,
		CandidateID: interview.CandidateID,
		JobID:       interview.JobID,
		GeneratedAt: e.now().UTC(),
		Probability: result.Probability,
		Confidence:  result.Confidence,
		Breakdown:   result.Breakdown,
	}

	saved, err := e.store.SaveAndSupersede(ctx, pred)
	if err != nil {
		return nil, err
	}
	metrics.PredictionsComputed.WithLabelValues(trigger).Inc()

	recs, actions := scoring.Recommend(set)
	entry := &models.ForecastEntry{
		Interview:       interview,
		Prediction:      *saved,
		Cached:          false,
		ConfidenceLabel: result.Label,
		Recommendations: recs,
		ActionItems:     actions,
	}
	entry.Insights = e.enrich(ctx, interview, result, recs)

	e.logger.Info("readiness prediction computed", map[string]interface{}{
		"interviewId": interview.ID,
		"candidateId": interview.CandidateID,
		"probability": result.Probability,
		"confidence":  result.Confidence,
		"trigger":     trigger,
	})

	return entry, nil
}

// buildEntry assembles the view for an already-stored prediction. The
// recommendations come from a fresh read-only factor pass; the prediction
// itself is returned unchanged.
func (e *Engine) buildEntry(ctx context.Context, interview models.Interview, pred *models.Prediction, cached bool, label string) *models.ForecastEntry {
	set := e.collector.Collect(ctx, interview)
	recs, actions := scoring.Recommend(set)
	return &models.ForecastEntry{
		Interview:       interview,
		Prediction:      *pred,
		Cached:          cached,
		ConfidenceLabel: label,
		Recommendations: recs,
		ActionItems:     actions,
	}
}

// classifyTrigger decides whether a recompute is needed and why. An empty
// trigger means the latest prediction is still fresh.
func (e *Engine) classifyTrigger(force bool, latest *models.Prediction, matchUpdate time.Time) string {
	switch {
	case latest == nil:
		return metrics.TriggerInitial
	case force:
		return metrics.TriggerForced
	case !matchUpdate.IsZero() && matchUpdate.After(latest.GeneratedAt):
		return metrics.TriggerMatchUpdated
	case e.now().Sub(latest.GeneratedAt) > e.cfg.StalenessTTL:
		return metrics.TriggerStale
	default:
		return ""
	}
}

func (e *Engine) matchLastUpdate(ctx context.Context, interviewID string) time.Time {
	updated, err := e.match.LastAnalysisUpdate(ctx, interviewID)
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues("match").Inc()
		e.logger.Warn("match analysis timestamp unavailable", map[string]interface{}{
			"interviewId": interviewID,
			"error":       err.Error(),
		})
		return time.Time{}
	}
	return updated
}

// enrich runs the optional AI insight call under its own short deadline.
// Failure or timeout only means the insights field stays absent; the
// composite score is never blocked on it.
func (e *Engine) enrich(ctx context.Context, interview models.Interview, result scoring.Result, recs []models.Recommendation) *models.Insights {
	ictx, cancel := context.WithTimeout(ctx, e.insight.Timeout)
	defer cancel()

	ins, err := e.generator.Generate(ictx, insights.Request{
		Interview:       interview,
		Probability:     result.Probability,
		Confidence:      result.Confidence,
		Label:           result.Label,
		Breakdown:       result.Breakdown,
		Recommendations: recs,
	})
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ictx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		metrics.InsightFailures.WithLabelValues(reason).Inc()
		e.logger.Warn("insight enrichment omitted", map[string]interface{}{
			"interviewId": interview.ID,
			"reason":      reason,
			"error":       err.Error(),
		})
		return nil
	}
	return ins
}

// RecordActualOutcome stores the real outcome for a prediction and fills
// its accuracy: the absolute error between the predicted probability and
// the score of what actually happened.
func (e *Engine) RecordActualOutcome(ctx context.Context, predictionID string, outcome models.Outcome) (*models.Prediction, error) {
	score, ok := models.OutcomeScores[outcome]
	if !ok {
		return nil, apperrors.NewInvalidOutcomeError(string(outcome))
	}

	pred, err := e.store.Get(ctx, predictionID)
	if err != nil {
		return nil, err
	}

	accuracy := math.Round(math.Abs(pred.Probability/100-score)*1000) / 1000
	evaluatedAt := e.now().UTC()

	if err := e.store.RecordOutcome(ctx, predictionID, outcome, accuracy, evaluatedAt); err != nil {
		return nil, err
	}

	pred.Accuracy = &accuracy
	pred.ActualOutcome = &outcome
	pred.EvaluatedAt = &evaluatedAt
	return pred, nil
}
