// internal/engine/engine_test.go
package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"interview-forecast/internal/common/config"
	apperrors "interview-forecast/internal/common/errors"
	"interview-forecast/internal/common/logger"
	"interview-forecast/internal/factors"
	"interview-forecast/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

// fakeStore keeps the prediction log in memory with the same single-latest
// semantics as the real store.
type fakeStore struct {
	mu      sync.Mutex
	byID    map[string]*models.Prediction
	log     []*models.Prediction
	onRead  func() // runs before each Latest, simulates concurrent writers
	readErr error
	saveErr error
	saves   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]*models.Prediction{}}
}

func (f *fakeStore) Latest(ctx context.Context, interviewID string) (*models.Prediction, error) {
	if f.onRead != nil {
		f.onRead()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		err := f.readErr
		f.readErr = nil
		return nil, err
	}
	var latest *models.Prediction
	for _, p := range f.log {
		if p.InterviewID == interviewID && p.IsLatest {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) SaveAndSupersede(ctx context.Context, pred models.Prediction) (*models.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	for _, p := range f.log {
		if p.InterviewID == pred.InterviewID {
			p.IsLatest = false
		}
	}
	pred.IsLatest = true
	stored := pred
	f.log = append(f.log, &stored)
	f.byID[stored.ID] = &stored
	f.saves++
	cp := stored
	return &cp, nil
}

func (f *fakeStore) RepairLatest(ctx context.Context, interviewID string) (*models.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest *models.Prediction
	for _, p := range f.log {
		if p.InterviewID != interviewID {
			continue
		}
		p.IsLatest = false
		if newest == nil || p.GeneratedAt.After(newest.GeneratedAt) {
			newest = p
		}
	}
	if newest == nil {
		return nil, nil
	}
	newest.IsLatest = true
	cp := *newest
	return &cp, nil
}

func (f *fakeStore) Get(ctx context.Context, predictionID string) (*models.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[predictionID]
	if !ok {
		return nil, apperrors.NewPredictionNotFoundError(predictionID)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) RecordOutcome(ctx context.Context, predictionID string, outcome models.Outcome, accuracy float64, evaluatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[predictionID]
	if !ok {
		return apperrors.NewPredictionNotFoundError(predictionID)
	}
	p.Accuracy = &accuracy
	p.ActualOutcome = &outcome
	p.EvaluatedAt = &evaluatedAt
	return nil
}

func (f *fakeStore) latestCount(interviewID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.log {
		if p.InterviewID == interviewID && p.IsLatest {
			n++
		}
	}
	return n
}

type fakeLock struct {
	mu       sync.Mutex
	grants   []bool // consumed per Acquire call, last value repeats
	err      error
	acquires int
	releases int
}

func (f *fakeLock) Acquire(ctx context.Context, interviewID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquires++
	if f.err != nil {
		return false, f.err
	}
	if len(f.grants) == 0 {
		return true, nil
	}
	grant := f.grants[0]
	if len(f.grants) > 1 {
		f.grants = f.grants[1:]
	}
	return grant, nil
}

func (f *fakeLock) Release(ctx context.Context, interviewID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	return nil
}

type stubChecklist struct{ stats models.PreparationStats }

func (s *stubChecklist) PreparationStats(ctx context.Context, interviewID string) (models.PreparationStats, error) {
	return s.stats, nil
}

func (s *stubChecklist) ResearchCompletion(ctx context.Context, interviewID string) (int, error) {
	return 3, nil
}

type stubMatch struct {
	score      models.MatchScore
	lastUpdate time.Time
	lastUpdErr error
}

func (s *stubMatch) MatchScore(ctx context.Context, interview models.Interview) (models.MatchScore, error) {
	return s.score, nil
}

func (s *stubMatch) LastAnalysisUpdate(ctx context.Context, interviewID string) (time.Time, error) {
	return s.lastUpdate, s.lastUpdErr
}

type stubPractice struct{}

func (stubPractice) PracticeHours(ctx context.Context, jobID string) (float64, float64, error) {
	return 4, 2, nil
}

type stubHistory struct{}

func (stubHistory) RecentOutcomes(ctx context.Context, candidateID string, limit int) ([]models.OutcomeRecord, error) {
	return []models.OutcomeRecord{
		{Outcome: models.OutcomeGood},
		{Outcome: models.OutcomeExcellent},
	}, nil
}

type engineFixture struct {
	engine *Engine
	store  *fakeStore
	lock   *fakeLock
	match  *stubMatch
	now    time.Time
}

func createTestEngine(t *testing.T) *engineFixture {
	fix := &engineFixture{
		store: newFakeStore(),
		lock:  &fakeLock{},
		match: &stubMatch{score: models.MatchScore{Value: 80, Source: models.MatchSourceAnalysis}},
		now:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	collector := factors.NewCollector(factors.Sources{
		Checklist: &stubChecklist{stats: models.PreparationStats{Completed: 9, Total: 12}},
		Match:     fix.match,
		Practice:  stubPractice{},
		History:   stubHistory{},
	}, log)

	scoringCfg := config.ScoringConfig{
		StalenessTTL:   6 * time.Hour,
		LockTTL:        30 * time.Second,
		LockRetries:    3,
		LockRetryDelay: time.Millisecond,
	}
	insightCfg := config.InsightsConfig{Timeout: 100 * time.Millisecond}

	fix.engine = New(fix.store, fix.lock, collector, fix.match, nil, scoringCfg, insightCfg, log).
		WithClock(func() time.Time { return fix.now })
	return fix
}

func createTestInterview() models.Interview {
	return models.Interview{
		ID:          "interview-123",
		JobID:       "job-123",
		CandidateID: "candidate-123",
		JobTitle:    "Backend Engineer",
		Company:     "Initech",
		Stage:       models.StageInterview,
		Status:      models.StatusScheduled,
	}
}

// ==========================
// Get-Or-Compute Tests
// ==========================

func TestEngine_InitialCompute(t *testing.T) {
	fix := createTestEngine(t)

	entry, err := fix.engine.GetOrComputeReadiness(context.Background(), createTestInterview(), false)

	require.NoError(t, err)
	assert.False(t, entry.Cached)
	assert.Equal(t, 77.5, entry.Prediction.Probability)
	assert.Equal(t, 0.95, entry.Prediction.Confidence)
	assert.Equal(t, "high", entry.ConfidenceLabel)
	assert.Equal(t, fix.now, entry.Prediction.GeneratedAt)
	assert.True(t, entry.Prediction.IsLatest)
	assert.NotEmpty(t, entry.Prediction.ID)
	assert.Nil(t, entry.Insights)
	assert.Equal(t, 1, fix.store.latestCount("interview-123"))
	assert.Equal(t, 1, fix.lock.releases)
}

func TestEngine_SecondCallServesCache(t *testing.T) {
	fix := createTestEngine(t)
	ctx := context.Background()
	interview := createTestInterview()

	first, err := fix.engine.GetOrComputeReadiness(ctx, interview, false)
	require.NoError(t, err)

	fix.now = fix.now.Add(time.Hour)
	second, err := fix.engine.GetOrComputeReadiness(ctx, interview, false)
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.Prediction.ID, second.Prediction.ID)
	assert.Equal(t, first.Prediction.Probability, second.Prediction.Probability)
	assert.Equal(t, 1, fix.store.saves)
	// Cached responses still carry current recommendations.
	assert.NotNil(t, second.Recommendations)
}

func TestEngine_ForceRefreshSupersedes(t *testing.T) {
	fix := createTestEngine(t)
	ctx := context.Background()
	interview := createTestInterview()

	first, err := fix.engine.GetOrComputeReadiness(ctx, interview, false)
	require.NoError(t, err)

	fix.now = fix.now.Add(time.Minute)
	second, err := fix.engine.GetOrComputeReadiness(ctx, interview, true)
	require.NoError(t, err)

	assert.False(t, second.Cached)
	assert.NotEqual(t, first.Prediction.ID, second.Prediction.ID)
	assert.Equal(t, 2, fix.store.saves)
	assert.Equal(t, 1, fix.store.latestCount("interview-123"))
}

func TestEngine_StalePredictionRecomputed(t *testing.T) {
	fix := createTestEngine(t)
	ctx := context.Background()
	interview := createTestInterview()

	first, err := fix.engine.GetOrComputeReadiness(ctx, interview, false)
	require.NoError(t, err)

	fix.now = fix.now.Add(6*time.Hour + time.Minute)
	second, err := fix.engine.GetOrComputeReadiness(ctx, interview, false)
	require.NoError(t, err)

	assert.False(t, second.Cached)
	assert.NotEqual(t, first.Prediction.ID, second.Prediction.ID)
	assert.Equal(t, 1, fix.store.latestCount("interview-123"))
}

func TestEngine_MatchUpdateInvalidatesCache(t *testing.T) {
	fix := createTestEngine(t)
	ctx := context.Background()
	interview := createTestInterview()

	_, err := fix.engine.GetOrComputeReadiness(ctx, interview, false)
	require.NoError(t, err)

	// Match analysis refreshed an hour after the prediction.
	fix.now = fix.now.Add(2 * time.Hour)
	fix.match.lastUpdate = fix.now.Add(-time.Hour)

	second, err := fix.engine.GetOrComputeReadiness(ctx, interview, false)
	require.NoError(t, err)

	assert.False(t, second.Cached)
	assert.Equal(t, 2, fix.store.saves)
}

func TestEngine_MatchTimestampFailureDoesNotInvalidate(t *testing.T) {
	fix := createTestEngine(t)
	ctx := context.Background()
	interview := createTestInterview()

	_, err := fix.engine.GetOrComputeReadiness(ctx, interview, false)
	require.NoError(t, err)

	fix.match.lastUpdErr = errors.New("analysis service down")
	second, err := fix.engine.GetOrComputeReadiness(ctx, interview, false)
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, 1, fix.store.saves)
}

// ==========================
// Locking Tests
// ==========================

func TestEngine_LockLoserReturnsWinnersResult(t *testing.T) {
	fix := createTestEngine(t)
	ctx := context.Background()
	interview := createTestInterview()

	fix.lock.grants = []bool{false, false}
	winner := models.Prediction{
		ID:          "winner-pred",
		InterviewID: interview.ID,
		CandidateID: interview.CandidateID,
		JobID:       interview.JobID,
		GeneratedAt: fix.now,
		Probability: 70.0,
		Confidence:  0.8,
	}
	// The concurrent winner lands its row while we wait on the lock, so
	// the initial read sees nothing and the post-wait re-read sees it.
	reads := 0
	fix.store.onRead = func() {
		reads++
		if reads == 2 {
			fix.store.SaveAndSupersede(ctx, winner)
		}
	}

	entry, err := fix.engine.GetOrComputeReadiness(ctx, interview, false)

	require.NoError(t, err)
	assert.True(t, entry.Cached)
	assert.Equal(t, "winner-pred", entry.Prediction.ID)
	assert.Equal(t, 1, fix.store.saves)
	assert.Equal(t, 0, fix.lock.releases)
}

func TestEngine_LockExhaustedComputesAnyway(t *testing.T) {
	fix := createTestEngine(t)
	ctx := context.Background()
	interview := createTestInterview()

	fix.lock.grants = []bool{false}

	entry, err := fix.engine.GetOrComputeReadiness(ctx, interview, false)

	require.NoError(t, err)
	assert.False(t, entry.Cached)
	assert.Equal(t, 4, fix.lock.acquires)
	assert.Equal(t, 0, fix.lock.releases)
	assert.Equal(t, 1, fix.store.latestCount(interview.ID))
}

func TestEngine_LockUnavailableComputesUnguarded(t *testing.T) {
	fix := createTestEngine(t)
	fix.lock.err = errors.New("redis down")

	entry, err := fix.engine.GetOrComputeReadiness(context.Background(), createTestInterview(), false)

	require.NoError(t, err)
	assert.False(t, entry.Cached)
	assert.Equal(t, 1, fix.lock.acquires)
	assert.Equal(t, 0, fix.lock.releases)
}

// ==========================
// Invariant Repair Tests
// ==========================

func TestEngine_RepairsInvariantViolation(t *testing.T) {
	fix := createTestEngine(t)
	ctx := context.Background()
	interview := createTestInterview()

	// Two latest rows exist; the newer one survives the repair.
	fix.store.SaveAndSupersede(ctx, models.Prediction{
		ID: "old", InterviewID: interview.ID, GeneratedAt: fix.now.Add(-time.Hour), Probability: 60, Confidence: 0.6,
	})
	fix.store.log[0].IsLatest = true
	fix.store.SaveAndSupersede(ctx, models.Prediction{
		ID: "new", InterviewID: interview.ID, GeneratedAt: fix.now.Add(-time.Minute), Probability: 65, Confidence: 0.7,
	})
	fix.store.log[0].IsLatest = true
	require.Equal(t, 2, fix.store.latestCount(interview.ID))
	fix.store.readErr = apperrors.NewLatestInvariantViolationError(interview.ID, 2)

	entry, err := fix.engine.GetOrComputeReadiness(ctx, interview, false)

	require.NoError(t, err)
	assert.True(t, entry.Cached)
	assert.Equal(t, "new", entry.Prediction.ID)
	assert.Equal(t, 1, fix.store.latestCount(interview.ID))
}

// ==========================
// Outcome Tests
// ==========================

func TestEngine_RecordActualOutcome(t *testing.T) {
	fix := createTestEngine(t)
	ctx := context.Background()

	entry, err := fix.engine.GetOrComputeReadiness(ctx, createTestInterview(), false)
	require.NoError(t, err)

	fix.now = fix.now.Add(48 * time.Hour)
	pred, err := fix.engine.RecordActualOutcome(ctx, entry.Prediction.ID, models.OutcomeGood)

	require.NoError(t, err)
	require.NotNil(t, pred.Accuracy)
	// |77.5/100 - 0.85| = 0.075
	assert.Equal(t, 0.075, *pred.Accuracy)
	assert.Equal(t, models.OutcomeGood, *pred.ActualOutcome)
	assert.Equal(t, fix.now, *pred.EvaluatedAt)
}

func TestEngine_RecordActualOutcome_InvalidOutcome(t *testing.T) {
	fix := createTestEngine(t)

	pred, err := fix.engine.RecordActualOutcome(context.Background(), "pred-1", models.Outcome("shrug"))

	assert.Nil(t, pred)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidOutcome))
}

func TestEngine_RecordActualOutcome_UnknownPrediction(t *testing.T) {
	fix := createTestEngine(t)

	pred, err := fix.engine.RecordActualOutcome(context.Background(), "missing", models.OutcomeGood)

	assert.Nil(t, pred)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePredictionNotFound))
}
