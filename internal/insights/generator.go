// internal/insights/generator.go
package insights

import (
	"context"

	"interview-forecast/internal/models"
)

// Request is the scoring context handed to the insight generator.
type Request struct {
	Interview       models.Interview
	Probability     float64
	Confidence      float64
	Label           string
	Breakdown       models.FactorBreakdown
	Recommendations []models.Recommendation
}

// Generator is the optional AI enrichment capability. It is advisory and
// never required: callers branch on whether the returned value is present,
// not on whether a generator is configured.
type Generator interface {
	// Generate returns free-text insights for the scored interview, or
	// (nil, nil) when the capability has nothing to add.
	Generate(ctx context.Context, req Request) (*models.Insights, error)
}

// noopGenerator is the documented no-op behavior for an unconfigured
// enrichment: it always reports nothing to add.
type noopGenerator struct{}

func (noopGenerator) Generate(context.Context, Request) (*models.Insights, error) {
	return nil, nil
}

// NewNoop returns the generator used when no AI backend is configured.
func NewNoop() Generator {
	return noopGenerator{}
}
