// internal/insights/gemini.go
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"

	"interview-forecast/internal/common/config"
	apperrors "interview-forecast/internal/common/errors"
	"interview-forecast/internal/models"
)

// payloadSchema is what the model must return. Anything that fails
// validation is dropped like any other enrichment failure.
const payloadSchema = `{
	"type": "object",
	"required": ["summary"],
	"properties": {
		"summary": {"type": "string", "minLength": 1},
		"focus_points": {"type": "array", "items": {"type": "string"}},
		"risk_alerts": {"type": "array", "items": {"type": "string"}}
	},
	"additionalProperties": false
}`

type payload struct {
	Summary     string   `json:"summary"`
	FocusPoints []string `json:"focus_points"`
	RiskAlerts  []string `json:"risk_alerts"`
}

// GeminiGenerator produces insight text through the Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	schema      *gojsonschema.Schema
}

func NewGemini(ctx context.Context, cfg config.InsightsConfig) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(payloadSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile insight schema: %w", err)
	}

	return &GeminiGenerator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		schema:      schema,
	}, nil
}

// Generate implements Generator. The caller bounds ctx with the insight
// timeout; any error here means the insights are simply omitted.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*models.Insights, error) {
	prompt := buildPrompt(req)

	temperature := g.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  1024,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, apperrors.NewEnrichmentFailedError(err)
	}
	if resp == nil {
		return nil, apperrors.NewEnrichmentFailedError(fmt.Errorf("empty response"))
	}

	return g.parse(resp.Text())
}

func (g *GeminiGenerator) parse(text string) (*models.Insights, error) {
	text = stripCodeFences(text)
	if text == "" {
		return nil, apperrors.NewEnrichmentFailedError(fmt.Errorf("no text content in response"))
	}

	result, err := g.schema.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return nil, apperrors.NewEnrichmentFailedError(err)
	}
	if !result.Valid() {
		return nil, apperrors.NewEnrichmentFailedError(fmt.Errorf("payload failed schema validation: %v", result.Errors()))
	}

	var p payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, apperrors.NewEnrichmentFailedError(err)
	}

	return &models.Insights{
		Summary:     p.Summary,
		FocusPoints: p.FocusPoints,
		RiskAlerts:  p.RiskAlerts,
	}, nil
}

func buildPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString("You are an interview preparation coach. ")
	sb.WriteString("Given the readiness assessment below, reply with a JSON object ")
	sb.WriteString(`containing "summary" (one short paragraph), "focus_points" `)
	sb.WriteString(`(up to 3 strings) and "risk_alerts" (up to 2 strings).` + "\n\n")

	fmt.Fprintf(&sb, "Role: %s at %s (stage: %s)\n", req.Interview.JobTitle, req.Interview.Company, req.Interview.Stage)
	fmt.Fprintf(&sb, "Offer probability: %.1f%% (confidence: %s)\n", req.Probability, req.Label)
	fmt.Fprintf(&sb, "Factors: preparation %.2f, job match %.2f, research %.2f, practice %.2f, historical %.2f\n",
		req.Breakdown.Preparation, req.Breakdown.JobMatch, req.Breakdown.Research,
		req.Breakdown.Practice, req.Breakdown.Historical)

	if len(req.Recommendations) > 0 {
		sb.WriteString("Current advice:\n")
		for _, rec := range req.Recommendations {
			fmt.Fprintf(&sb, "- [%s] %s\n", rec.Impact, rec.Message)
		}
	}

	return sb.String()
}

// stripCodeFences removes a surrounding markdown code block if the model
// wrapped its JSON in one.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
