// internal/models/interview.go
package models

import "time"

// InterviewStatus is the lifecycle state of a scheduled interview.
type InterviewStatus string

const (
	StatusScheduled InterviewStatus = "scheduled"
	StatusCompleted InterviewStatus = "completed"
)

// Outcome is the recorded result of a completed interview.
type Outcome string

const (
	OutcomeExcellent Outcome = "excellent"
	OutcomeGood      Outcome = "good"
	OutcomeAverage   Outcome = "average"
	OutcomePoor      Outcome = "poor"
	OutcomeRejected  Outcome = "rejected"
	OutcomeWithdrew  Outcome = "withdrew"
	OutcomeNone      Outcome = "none"
)

// OutcomeScores maps a recorded outcome to its historical-performance score.
var OutcomeScores = map[Outcome]float64{
	OutcomeExcellent: 1.0,
	OutcomeGood:      0.85,
	OutcomeAverage:   0.55,
	OutcomePoor:      0.2,
	OutcomeRejected:  0.0,
	OutcomeWithdrew:  0.15,
}

// Interview stages relevant to the stage-based match heuristic.
const (
	StagePhoneScreen = "phone_screen"
	StageInterview   = "interview"
)

// Interview identifies one scheduled interview. Created by the scheduling
// flow and mutated by outcome recording; read-only inside this engine.
type Interview struct {
	ID          string          `json:"id"`
	JobID       string          `json:"jobId"`
	CandidateID string          `json:"candidateId"`
	JobTitle    string          `json:"jobTitle"`
	Company     string          `json:"company"`
	Stage       string          `json:"stage"`
	ScheduledAt time.Time       `json:"scheduledAt"`
	Status      InterviewStatus `json:"status"`
	Outcome     Outcome         `json:"outcome"`
}

// PreparationStats is a snapshot of the interview preparation checklist.
type PreparationStats struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// defaultPrepScore is the optimistic default used when no checklist exists.
const defaultPrepScore = 0.4

// Score returns the completion ratio, or the optimistic default when the
// checklist has no tasks at all.
func (p PreparationStats) Score() float64 {
	if p.Total == 0 {
		return defaultPrepScore
	}
	return float64(p.Completed) / float64(p.Total)
}

// MatchSource tags where a match score came from, so callers can tell a
// fresh analysis apart from a stale one or a stage-based guess.
type MatchSource string

const (
	MatchSourceAnalysis  MatchSource = "analysis"
	MatchSourceCached    MatchSource = "cached"
	MatchSourceHeuristic MatchSource = "heuristic"
)

// MatchScore is a 0-100 job-fit score with its provenance.
type MatchScore struct {
	Value     float64     `json:"value"`
	Source    MatchSource `json:"source"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// OutcomeRecord is one past interview result used for the historical factor.
type OutcomeRecord struct {
	Outcome    Outcome   `json:"outcome"`
	RecordedAt time.Time `json:"recordedAt"`
}
