// internal/models/prediction.go
package models

import "time"

// FactorBreakdown holds the five readiness ratios behind a prediction,
// each in [0,1], stored with 3-decimal precision.
type FactorBreakdown struct {
	Preparation float64 `json:"preparation"`
	JobMatch    float64 `json:"jobMatch"`
	Research    float64 `json:"research"`
	Practice    float64 `json:"practice"`
	Historical  float64 `json:"historical"`
}

// Prediction is the persisted unit of the forecast engine. Rows are
// append-only: a recompute supersedes the previous latest row rather than
// overwriting it, so the full history stays available for trend and
// accuracy tracking. At most one row per interview has IsLatest set.
type Prediction struct {
	ID            string          `json:"id"`
	InterviewID   string          `json:"interviewId"`
	CandidateID   string          `json:"candidateId"`
	JobID         string          `json:"jobId"`
	GeneratedAt   time.Time       `json:"generatedAt"`
	Probability   float64         `json:"probability"` // 0-100, one decimal
	Confidence    float64         `json:"confidence"`  // 0.00-0.95
	Breakdown     FactorBreakdown `json:"factorBreakdown"`
	IsLatest      bool            `json:"isLatest"`
	Accuracy      *float64        `json:"accuracy,omitempty"`
	ActualOutcome *Outcome        `json:"actualOutcome,omitempty"`
	EvaluatedAt   *time.Time      `json:"evaluatedAt,omitempty"`
}
