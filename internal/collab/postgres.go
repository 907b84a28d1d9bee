// internal/collab/postgres.go
package collab

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "interview-forecast/internal/common/errors"
	"interview-forecast/internal/common/logger"
	"interview-forecast/internal/factors"
	"interview-forecast/internal/models"
)

// Repository is the Postgres-backed implementation of the collaborator
// contracts the engine consumes: checklist stats, match analyses, practice
// durations, outcome history, and the upcoming-interview list.
type Repository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRepository(db *sql.DB, log logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "collaborators"}),
	}
}

// PreparationStats snapshots the interview's preparation checklist.
func (r *Repository) PreparationStats(ctx context.Context, interviewID string) (models.PreparationStats, error) {
	query := `SELECT COUNT(*) FILTER (WHERE completed), COUNT(*)
		FROM checklist_items WHERE interview_id = $1`

	var stats models.PreparationStats
	err := r.db.QueryRowContext(ctx, query, interviewID).Scan(&stats.Completed, &stats.Total)
	if err != nil {
		return models.PreparationStats{}, apperrors.NewCollaboratorUnavailableError("checklist", err)
	}
	return stats, nil
}

// ResearchCompletion counts how many canonical research topics are covered
// by completed items, deduplicated across the interview-level and
// job-level checklists.
func (r *Repository) ResearchCompletion(ctx context.Context, interviewID string) (int, error) {
	query := `SELECT COUNT(DISTINCT ci.topic)
		FROM checklist_items ci
		WHERE ci.completed = TRUE
		  AND ci.category = 'research'
		  AND ci.topic IN ('mission', 'news', 'competitors', 'products')
		  AND (ci.interview_id = $1
		       OR ci.job_id = (SELECT job_id FROM interviews WHERE id = $1))`

	var completed int
	if err := r.db.QueryRowContext(ctx, query, interviewID).Scan(&completed); err != nil {
		return 0, apperrors.NewCollaboratorUnavailableError("research", err)
	}
	return completed, nil
}

// MatchScore resolves the explicit fallback chain: the newest non-expired
// analysis, then the newest analysis regardless of validity, then the
// stage heuristic. The source tag tells callers which branch fired.
func (r *Repository) MatchScore(ctx context.Context, interview models.Interview) (models.MatchScore, error) {
	valid := `SELECT score, updated_at FROM match_analyses
		WHERE interview_id = $1 AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY updated_at DESC LIMIT 1`

	var score models.MatchScore
	err := r.db.QueryRowContext(ctx, valid, interview.ID).Scan(&score.Value, &score.UpdatedAt)
	if err == nil {
		score.Source = models.MatchSourceAnalysis
		return score, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.MatchScore{}, apperrors.NewCollaboratorUnavailableError("match", err)
	}

	any := `SELECT score, updated_at FROM match_analyses
		WHERE interview_id = $1 ORDER BY updated_at DESC LIMIT 1`

	err = r.db.QueryRowContext(ctx, any, interview.ID).Scan(&score.Value, &score.UpdatedAt)
	if err == nil {
		score.Source = models.MatchSourceCached
		return score, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.MatchScore{}, apperrors.NewCollaboratorUnavailableError("match", err)
	}

	return factors.HeuristicMatch(interview.Stage), nil
}

// LastAnalysisUpdate returns when the interview's match analysis last
// changed, or the zero time when none exists.
func (r *Repository) LastAnalysisUpdate(ctx context.Context, interviewID string) (time.Time, error) {
	query := `SELECT updated_at FROM match_analyses
		WHERE interview_id = $1 ORDER BY updated_at DESC LIMIT 1`

	var updated time.Time
	err := r.db.QueryRowContext(ctx, query, interviewID).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, apperrors.NewCollaboratorUnavailableError("match", err)
	}
	return updated, nil
}

// PracticeHours sums all question-practice time for a job, plus the
// technical subset, both in hours.
func (r *Repository) PracticeHours(ctx context.Context, jobID string) (float64, float64, error) {
	query := `SELECT COALESCE(SUM(duration_minutes), 0) / 60.0,
		COALESCE(SUM(duration_minutes) FILTER (WHERE kind = 'technical'), 0) / 60.0
		FROM practice_sessions WHERE job_id = $1`

	var general, technical float64
	if err := r.db.QueryRowContext(ctx, query, jobID).Scan(&general, &technical); err != nil {
		return 0, 0, apperrors.NewCollaboratorUnavailableError("practice", err)
	}
	return general, technical, nil
}

// RecentOutcomes returns the candidate's last completed, outcome-recorded
// interviews across all jobs, most recent first.
func (r *Repository) RecentOutcomes(ctx context.Context, candidateID string, limit int) ([]models.OutcomeRecord, error) {
	query := `SELECT outcome, outcome_recorded_at FROM interviews
		WHERE candidate_id = $1 AND status = 'completed' AND outcome <> 'none'
		ORDER BY outcome_recorded_at DESC LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, candidateID, limit)
	if err != nil {
		return nil, apperrors.NewCollaboratorUnavailableError("history", err)
	}
	defer rows.Close()

	var records []models.OutcomeRecord
	for rows.Next() {
		var rec models.OutcomeRecord
		if err := rows.Scan(&rec.Outcome, &rec.RecordedAt); err != nil {
			return nil, apperrors.NewCollaboratorUnavailableError("history", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewCollaboratorUnavailableError("history", err)
	}
	return records, nil
}

// UpcomingInterviews lists the candidate's scheduled interviews soonest
// first, feeding the forecast batch.
func (r *Repository) UpcomingInterviews(ctx context.Context, candidateID string) ([]models.Interview, error) {
	query := `SELECT id, job_id, candidate_id, job_title, company, stage, scheduled_at, status, outcome
		FROM interviews
		WHERE candidate_id = $1 AND status = 'scheduled'
		ORDER BY scheduled_at ASC`

	rows, err := r.db.QueryContext(ctx, query, candidateID)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("upcoming-interviews", err)
	}
	defer rows.Close()

	var interviews []models.Interview
	for rows.Next() {
		var iv models.Interview
		if err := rows.Scan(&iv.ID, &iv.JobID, &iv.CandidateID, &iv.JobTitle, &iv.Company,
			&iv.Stage, &iv.ScheduledAt, &iv.Status, &iv.Outcome); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("upcoming-interviews", err)
		}
		interviews = append(interviews, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("upcoming-interviews", err)
	}
	return interviews, nil
}
