// internal/collab/postgres_test.go
package collab

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "interview-forecast/internal/common/errors"
	"interview-forecast/internal/common/logger"
	"interview-forecast/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db, createTestLogger(t)), mock
}

func createTestInterview() models.Interview {
	return models.Interview{
		ID:          "interview-123",
		JobID:       "job-123",
		CandidateID: "candidate-123",
		Stage:       models.StagePhoneScreen,
	}
}

// ==========================
// Checklist Tests
// ==========================

func TestRepository_PreparationStats(t *testing.T) {
	repo, mock := createTestRepository(t)

	mock.ExpectQuery(`FROM checklist_items WHERE interview_id = \$1`).
		WithArgs("interview-123").
		WillReturnRows(sqlmock.NewRows([]string{"completed", "total"}).AddRow(9, 12))

	stats, err := repo.PreparationStats(context.Background(), "interview-123")

	require.NoError(t, err)
	assert.Equal(t, models.PreparationStats{Completed: 9, Total: 12}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_PreparationStats_Unavailable(t *testing.T) {
	repo, mock := createTestRepository(t)

	mock.ExpectQuery(`FROM checklist_items WHERE interview_id = \$1`).
		WithArgs("interview-123").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.PreparationStats(context.Background(), "interview-123")

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCollaboratorUnavailable))
}

func TestRepository_ResearchCompletion(t *testing.T) {
	repo, mock := createTestRepository(t)

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT ci.topic\)`).
		WithArgs("interview-123").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	completed, err := repo.ResearchCompletion(context.Background(), "interview-123")

	require.NoError(t, err)
	assert.Equal(t, 3, completed)
}

// ==========================
// Match Fallback Chain Tests
// ==========================

func TestRepository_MatchScore_ValidAnalysis(t *testing.T) {
	repo, mock := createTestRepository(t)
	updatedAt := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`expires_at IS NULL OR expires_at > NOW\(\)`).
		WithArgs("interview-123").
		WillReturnRows(sqlmock.NewRows([]string{"score", "updated_at"}).AddRow(82.0, updatedAt))

	score, err := repo.MatchScore(context.Background(), createTestInterview())

	require.NoError(t, err)
	assert.Equal(t, 82.0, score.Value)
	assert.Equal(t, models.MatchSourceAnalysis, score.Source)
	assert.Equal(t, updatedAt, score.UpdatedAt.UTC())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MatchScore_FallsBackToExpiredAnalysis(t *testing.T) {
	repo, mock := createTestRepository(t)
	updatedAt := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`expires_at IS NULL OR expires_at > NOW\(\)`).
		WithArgs("interview-123").
		WillReturnRows(sqlmock.NewRows([]string{"score", "updated_at"}))
	mock.ExpectQuery(`WHERE interview_id = \$1 ORDER BY updated_at DESC LIMIT 1`).
		WithArgs("interview-123").
		WillReturnRows(sqlmock.NewRows([]string{"score", "updated_at"}).AddRow(74.0, updatedAt))

	score, err := repo.MatchScore(context.Background(), createTestInterview())

	require.NoError(t, err)
	assert.Equal(t, 74.0, score.Value)
	assert.Equal(t, models.MatchSourceCached, score.Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MatchScore_FallsBackToStageHeuristic(t *testing.T) {
	repo, mock := createTestRepository(t)

	mock.ExpectQuery(`expires_at IS NULL OR expires_at > NOW\(\)`).
		WithArgs("interview-123").
		WillReturnRows(sqlmock.NewRows([]string{"score", "updated_at"}))
	mock.ExpectQuery(`WHERE interview_id = \$1 ORDER BY updated_at DESC LIMIT 1`).
		WithArgs("interview-123").
		WillReturnRows(sqlmock.NewRows([]string{"score", "updated_at"}))

	score, err := repo.MatchScore(context.Background(), createTestInterview())

	require.NoError(t, err)
	assert.Equal(t, 70.0, score.Value)
	assert.Equal(t, models.MatchSourceHeuristic, score.Source)
	assert.True(t, score.UpdatedAt.IsZero())
}

func TestRepository_MatchScore_QueryError(t *testing.T) {
	repo, mock := createTestRepository(t)

	mock.ExpectQuery(`expires_at IS NULL OR expires_at > NOW\(\)`).
		WithArgs("interview-123").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.MatchScore(context.Background(), createTestInterview())

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCollaboratorUnavailable))
}

func TestRepository_LastAnalysisUpdate_NoneExists(t *testing.T) {
	repo, mock := createTestRepository(t)

	mock.ExpectQuery(`SELECT updated_at FROM match_analyses`).
		WithArgs("interview-123").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

	updated, err := repo.LastAnalysisUpdate(context.Background(), "interview-123")

	require.NoError(t, err)
	assert.True(t, updated.IsZero())
}

// ==========================
// Practice Tests
// ==========================

func TestRepository_PracticeHours(t *testing.T) {
	repo, mock := createTestRepository(t)

	mock.ExpectQuery(`FROM practice_sessions WHERE job_id = \$1`).
		WithArgs("job-123").
		WillReturnRows(sqlmock.NewRows([]string{"general", "technical"}).AddRow(4.5, 2.0))

	general, technical, err := repo.PracticeHours(context.Background(), "job-123")

	require.NoError(t, err)
	assert.Equal(t, 4.5, general)
	assert.Equal(t, 2.0, technical)
}

// ==========================
// History Tests
// ==========================

func TestRepository_RecentOutcomes(t *testing.T) {
	repo, mock := createTestRepository(t)
	recordedAt := time.Date(2026, 2, 20, 16, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"outcome", "outcome_recorded_at"}).
		AddRow("good", recordedAt).
		AddRow("rejected", recordedAt.Add(-72*time.Hour))
	mock.ExpectQuery(`FROM interviews`).
		WithArgs("candidate-123", 5).
		WillReturnRows(rows)

	records, err := repo.RecentOutcomes(context.Background(), "candidate-123", 5)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.OutcomeGood, records[0].Outcome)
	assert.Equal(t, models.OutcomeRejected, records[1].Outcome)
}

func TestRepository_RecentOutcomes_NoHistory(t *testing.T) {
	repo, mock := createTestRepository(t)

	mock.ExpectQuery(`FROM interviews`).
		WithArgs("candidate-123", 5).
		WillReturnRows(sqlmock.NewRows([]string{"outcome", "outcome_recorded_at"}))

	records, err := repo.RecentOutcomes(context.Background(), "candidate-123", 5)

	require.NoError(t, err)
	assert.Empty(t, records)
}

// ==========================
// Upcoming Interview Tests
// ==========================

func TestRepository_UpcomingInterviews(t *testing.T) {
	repo, mock := createTestRepository(t)
	scheduledAt := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "job_id", "candidate_id", "job_title", "company", "stage", "scheduled_at", "status", "outcome",
	}).AddRow(
		"interview-123", "job-123", "candidate-123", "Backend Engineer", "Initech",
		"interview", scheduledAt, "scheduled", "none",
	)
	mock.ExpectQuery(`WHERE candidate_id = \$1 AND status = 'scheduled'`).
		WithArgs("candidate-123").
		WillReturnRows(rows)

	interviews, err := repo.UpcomingInterviews(context.Background(), "candidate-123")

	require.NoError(t, err)
	require.Len(t, interviews, 1)
	assert.Equal(t, "interview-123", interviews[0].ID)
	assert.Equal(t, models.StatusScheduled, interviews[0].Status)
	assert.Equal(t, models.StageInterview, interviews[0].Stage)
}
