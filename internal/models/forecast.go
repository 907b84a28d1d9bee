// internal/models/forecast.go
package models

// Impact ranks how much acting on a recommendation is expected to move the
// readiness score. It doubles as the priority of an action item.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Recommendation is one piece of prioritized preparation advice.
type Recommendation struct {
	Area    string `json:"area"`
	Message string `json:"message"`
	Impact  Impact `json:"impact"`
}

// ActionItem is a concrete next step with a due-by label.
type ActionItem struct {
	Description string `json:"description"`
	DueBy       string `json:"dueBy"`
	Priority    Impact `json:"priority"`
}

// PriorityAction is an action item tagged with the interview it belongs to,
// as shown in the cross-interview forecast summary.
type PriorityAction struct {
	ActionItem
	JobTitle string `json:"jobTitle"`
	Company  string `json:"company"`
}

// TrendDirection says which way a prediction moved since the previous one.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendSteady TrendDirection = "steady"
)

// Trend compares the latest prediction against the most recent superseded
// one for the same interview.
type Trend struct {
	Delta     float64        `json:"delta"` // probability points, one decimal
	Direction TrendDirection `json:"direction"`
}

// Insights is the optional AI enrichment attached to a forecast entry.
// It is advisory only and may be absent.
type Insights struct {
	Summary     string   `json:"summary"`
	FocusPoints []string `json:"focusPoints"`
	RiskAlerts  []string `json:"riskAlerts"`
}

// ForecastEntry is the per-interview view the engine returns: the current
// prediction plus interview metadata, trend, and rank within the batch.
type ForecastEntry struct {
	Interview       Interview        `json:"interview"`
	Prediction      Prediction       `json:"prediction"`
	Cached          bool             `json:"cached"`
	ConfidenceLabel string           `json:"confidenceLabel"`
	Recommendations []Recommendation `json:"recommendations"`
	ActionItems     []ActionItem     `json:"actionItems"`
	Trend           *Trend           `json:"trend,omitempty"`
	Rank            int              `json:"rank"`
	Insights        *Insights        `json:"aiInsights,omitempty"`
}

// ForecastSummary aggregates a candidate's upcoming interviews.
type ForecastSummary struct {
	TotalUpcoming      int              `json:"totalUpcoming"`
	AverageProbability float64          `json:"averageProbability"`
	Highest            float64          `json:"highest"`
	Lowest             float64          `json:"lowest"`
	ConfidenceSnapshot string           `json:"confidenceSnapshot"`
	PriorityActions    []PriorityAction `json:"priorityActions"`
}

// AccuracyResult is one evaluated prediction compared to its real outcome.
type AccuracyResult struct {
	InterviewID   string  `json:"interviewId"`
	Predicted     float64 `json:"predicted"`
	ActualOutcome Outcome `json:"actualOutcome"`
	Error         float64 `json:"error"`
}

// AccuracyReport summarizes how well past predictions matched reality.
type AccuracyReport struct {
	TrackedPredictions int              `json:"trackedPredictions"`
	MeanAbsoluteError  *float64         `json:"meanAbsoluteError"`
	RecentResults      []AccuracyResult `json:"recentResults"`
}

// Forecast is the full ranked view across a candidate's upcoming interviews.
type Forecast struct {
	Entries  []ForecastEntry `json:"interviews"`
	Summary  ForecastSummary `json:"summary"`
	Accuracy AccuracyReport  `json:"accuracy"`
}
