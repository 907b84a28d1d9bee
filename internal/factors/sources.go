// internal/factors/sources.go
package factors

import (
	"context"
	"time"

	"interview-forecast/internal/models"
)

// ChecklistSource exposes the preparation checklist collaborator.
type ChecklistSource interface {
	PreparationStats(ctx context.Context, interviewID string) (models.PreparationStats, error)
	// ResearchCompletion returns how many of the canonical research topics
	// (mission, news, competitors, products) are covered by completed
	// checklist items, deduplicated across interview- and job-level lists.
	ResearchCompletion(ctx context.Context, interviewID string) (int, error)
}

// MatchSource exposes the match-analysis repository.
type MatchSource interface {
	// MatchScore resolves the fallback chain: valid analysis, then any
	// analysis regardless of validity, then the stage heuristic. The
	// returned score is tagged with its provenance.
	MatchScore(ctx context.Context, interview models.Interview) (models.MatchScore, error)
	// LastAnalysisUpdate returns when the interview's match analysis was
	// last updated, or the zero time when none exists.
	LastAnalysisUpdate(ctx context.Context, interviewID string) (time.Time, error)
}

// PracticeSource exposes recorded practice-session durations.
type PracticeSource interface {
	// PracticeHours returns all question-practice hours and the technical
	// subset for a job.
	PracticeHours(ctx context.Context, jobID string) (general, technical float64, err error)
}

// HistorySource exposes the candidate's past interview results.
type HistorySource interface {
	// RecentOutcomes returns up to limit completed, outcome-recorded
	// interviews across all jobs, most recent first.
	RecentOutcomes(ctx context.Context, candidateID string, limit int) ([]models.OutcomeRecord, error)
}

// Sources bundles the four collaborators the collector reads from.
type Sources struct {
	Checklist ChecklistSource
	Match     MatchSource
	Practice  PracticeSource
	History   HistorySource
}
