// internal/store/store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "interview-forecast/internal/common/errors"
	"interview-forecast/internal/common/logger"
	"interview-forecast/internal/common/metrics"
	"interview-forecast/internal/models"
)

const predictionColumns = `id, interview_id, candidate_id, job_id, generated_at,
	probability, confidence, prep_factor, match_factor, research_factor,
	practice_factor, historical_factor, is_latest, accuracy, actual_outcome, evaluated_at`

// Store persists the append-only prediction log. Rows are never deleted:
// a recompute demotes the current latest row and inserts a new one in a
// single transaction, so at most one row per interview carries is_latest.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "prediction-store"}),
	}
}

// Latest returns the current prediction for an interview, or nil when none
// exists. Finding more than one latest row is a bug: it is counted, logged,
// and surfaced as a LATEST_INVARIANT_VIOLATION for the caller to repair.
func (s *Store) Latest(ctx context.Context, interviewID string) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + `
		FROM predictions WHERE interview_id = $1 AND is_latest = TRUE`

	rows, err := s.db.QueryContext(ctx, query, interviewID)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("latest-prediction", err)
	}
	defer rows.Close()

	var preds []models.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("latest-prediction", err)
		}
		preds = append(preds, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("latest-prediction", err)
	}

	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return &preds[0], nil
	default:
		metrics.InvariantViolations.Inc()
		s.logger.Error("multiple latest predictions for interview", map[string]interface{}{
			"interviewId": interviewID,
			"latestCount": len(preds),
		})
		return nil, apperrors.NewLatestInvariantViolationError(interviewID, len(preds))
	}
}

// SaveAndSupersede demotes the current latest prediction (if any) and
// inserts the new one as latest. Both sides happen in one transaction, so
// a failure leaves the previous state untouched.
func (s *Store) SaveAndSupersede(ctx context.Context, pred models.Prediction) (*models.Prediction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewPredictionSaveFailedError(pred.InterviewID, err)
	}

	demote := `UPDATE predictions SET is_latest = FALSE WHERE interview_id = $1 AND is_latest = TRUE`
	if _, err := tx.ExecContext(ctx, demote, pred.InterviewID); err != nil {
		tx.Rollback()
		return nil, apperrors.NewPredictionSaveFailedError(pred.InterviewID, err)
	}

	insert := `INSERT INTO predictions (id, interview_id, candidate_id, job_id, generated_at,
		probability, confidence, prep_factor, match_factor, research_factor,
		practice_factor, historical_factor, is_latest)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, TRUE)`
	if _, err := tx.ExecContext(ctx, insert,
		pred.ID, pred.InterviewID, pred.CandidateID, pred.JobID, pred.GeneratedAt,
		pred.Probability, pred.Confidence,
		pred.Breakdown.Preparation, pred.Breakdown.JobMatch, pred.Breakdown.Research,
		pred.Breakdown.Practice, pred.Breakdown.Historical,
	); err != nil {
		tx.Rollback()
		return nil, apperrors.NewPredictionSaveFailedError(pred.InterviewID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewPredictionSaveFailedError(pred.InterviewID, err)
	}

	pred.IsLatest = true
	return &pred, nil
}

// RepairLatest restores the single-latest invariant by keeping only the
// most recently generated row as latest. It returns the repaired latest.
func (s *Store) RepairLatest(ctx context.Context, interviewID string) (*models.Prediction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("repair-latest", err)
	}

	demote := `UPDATE predictions SET is_latest = FALSE WHERE interview_id = $1 AND is_latest = TRUE`
	if _, err := tx.ExecContext(ctx, demote, interviewID); err != nil {
		tx.Rollback()
		return nil, apperrors.NewQueryExecutionFailedError("repair-latest", err)
	}

	promote := `UPDATE predictions SET is_latest = TRUE WHERE id = (
		SELECT id FROM predictions WHERE interview_id = $1 ORDER BY generated_at DESC LIMIT 1)`
	if _, err := tx.ExecContext(ctx, promote, interviewID); err != nil {
		tx.Rollback()
		return nil, apperrors.NewQueryExecutionFailedError("repair-latest", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("repair-latest", err)
	}

	s.logger.Warn("repaired latest-prediction invariant", map[string]interface{}{
		"interviewId": interviewID,
	})
	return s.Latest(ctx, interviewID)
}

// PreviousPrediction returns the most recent superseded prediction for an
// interview, or nil when the latest is the only one. It backs the trend.
func (s *Store) PreviousPrediction(ctx context.Context, interviewID string) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + `
		FROM predictions WHERE interview_id = $1 AND is_latest = FALSE
		ORDER BY generated_at DESC LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, interviewID)
	p, err := scanPrediction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewQueryExecutionFailedError("previous-prediction", err)
	}
	return &p, nil
}

// History returns the full prediction log for an interview, newest first.
func (s *Store) History(ctx context.Context, interviewID string) ([]models.Prediction, error) {
	query := `SELECT ` + predictionColumns + `
		FROM predictions WHERE interview_id = $1 ORDER BY generated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, interviewID)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("prediction-history", err)
	}
	defer rows.Close()

	var preds []models.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("prediction-history", err)
		}
		preds = append(preds, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("prediction-history", err)
	}
	return preds, nil
}

// Get returns one prediction by id.
func (s *Store) Get(ctx context.Context, predictionID string) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE id = $1`

	row := s.db.QueryRowContext(ctx, query, predictionID)
	p, err := scanPrediction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewPredictionNotFoundError(predictionID)
		}
		return nil, apperrors.NewQueryExecutionFailedError("get-prediction", err)
	}
	return &p, nil
}

// RecordOutcome sets the accuracy fields once the real outcome is known.
func (s *Store) RecordOutcome(ctx context.Context, predictionID string, outcome models.Outcome, accuracy float64, evaluatedAt time.Time) error {
	query := `UPDATE predictions SET accuracy = $2, actual_outcome = $3, evaluated_at = $4 WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, predictionID, accuracy, string(outcome), evaluatedAt)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("record-outcome", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("record-outcome", err)
	}
	if affected == 0 {
		return apperrors.NewPredictionNotFoundError(predictionID)
	}
	return nil
}

// EvaluatedPredictions returns all of a candidate's predictions that have
// been compared to a real outcome, most recently evaluated first.
func (s *Store) EvaluatedPredictions(ctx context.Context, candidateID string) ([]models.Prediction, error) {
	query := `SELECT ` + predictionColumns + `
		FROM predictions WHERE candidate_id = $1 AND accuracy IS NOT NULL
		ORDER BY evaluated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, candidateID)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("evaluated-predictions", err)
	}
	defer rows.Close()

	var preds []models.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("evaluated-predictions", err)
		}
		preds = append(preds, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("evaluated-predictions", err)
	}
	return preds, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPrediction(row rowScanner) (models.Prediction, error) {
	var (
		p        models.Prediction
		accuracy sql.NullFloat64
		outcome  sql.NullString
		evalAt   sql.NullTime
	)

	err := row.Scan(
		&p.ID, &p.InterviewID, &p.CandidateID, &p.JobID, &p.GeneratedAt,
		&p.Probability, &p.Confidence,
		&p.Breakdown.Preparation, &p.Breakdown.JobMatch, &p.Breakdown.Research,
		&p.Breakdown.Practice, &p.Breakdown.Historical,
		&p.IsLatest, &accuracy, &outcome, &evalAt,
	)
	if err != nil {
		return models.Prediction{}, err
	}

	if accuracy.Valid {
		p.Accuracy = &accuracy.Float64
	}
	if outcome.Valid {
		o := models.Outcome(outcome.String)
		p.ActualOutcome = &o
	}
	if evalAt.Valid {
		p.EvaluatedAt = &evalAt.Time
	}
	return p, nil
}
