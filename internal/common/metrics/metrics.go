// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_predictions_computed_total",
			Help: "Total number of readiness predictions computed, by trigger",
		},
		[]string{"trigger"},
	)

	PredictionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forecast_prediction_cache_hits_total",
			Help: "Total number of get-or-compute calls served from the fresh latest prediction",
		},
	)

	CollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_collaborator_failures_total",
			Help: "Total number of readiness signal sources that degraded to defaults",
		},
		[]string{"source"},
	)

	LockContention = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forecast_recompute_lock_contention_total",
			Help: "Total number of recompute attempts that lost the per-interview lock",
		},
	)

	InvariantViolations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forecast_latest_invariant_violations_total",
			Help: "Total number of duplicate-latest prediction rows detected",
		},
	)

	InsightFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_insight_failures_total",
			Help: "Total number of AI insight enrichments omitted, by reason",
		},
		[]string{"reason"},
	)

	ForecastBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "forecast_build_duration_seconds",
			Help: "Duration of full candidate forecast builds in seconds",
		},
	)
)

// Triggers for PredictionsComputed.
const (
	TriggerInitial      = "initial"
	TriggerStale        = "stale"
	TriggerForced       = "forced"
	TriggerMatchUpdated = "match_updated"
)
