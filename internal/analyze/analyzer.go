// Package analyze provides the AI-driven form analysis and value generation
// paths. Full HTML analysis finds fields and values in one model call; the
// cheaper answers path reuses a cached field schema and skips the HTML.
package analyze

import (
	"context"
	"encoding/json"

	"github.com/jonathan/form-autofill/internal/llm"
	"github.com/jonathan/form-autofill/internal/types"
)

// Analysis is the output of one AI pass over a page: per-field value
// suggestions plus the stripped structural shape suitable for caching.
type Analysis struct {
	Answers        []types.FieldAnswer `json:"answers"`
	CacheableShape []types.FieldShape  `json:"cacheable_shape"`
}

// Analyzer runs form analysis and answer generation through an LLM client.
type Analyzer struct {
	client llm.Client
}

// New creates an Analyzer over the given client.
func New(client llm.Client) *Analyzer {
	return &Analyzer{client: client}
}

// analysisField is the raw per-field record in the model's analysis response.
type analysisField struct {
	Selector       string   `json:"selector"`
	Label          string   `json:"label"`
	Type           string   `json:"type"`
	Options        []string `json:"options"`
	SuggestedValue string   `json:"suggested_value"`
	Confidence     string   `json:"confidence"`
	Note           string   `json:"note"`
}

// HTML runs the expensive analysis path: field discovery and value
// suggestion over cleaned page HTML in a single call. prev optionally
// carries a failed attempt to steer correction; pass nil on first attempts.
func (a *Analyzer) HTML(ctx context.Context, html string, profile *types.CandidateProfile, job *types.JobContext, prev *types.PreviousAttempt) (*Analysis, error) {
	tier := llm.TierStandard
	if prev != nil {
		// Correction needs more reasoning than a first pass.
		tier = llm.TierAdvanced
	}

	prompt := buildAnalysisPrompt(html, profile, job, prev)
	raw, err := a.client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return nil, &APICallError{Message: "form analysis failed", Cause: err}
	}

	if err := validateAgainstSchema(analysisSchema, raw); err != nil {
		return nil, err
	}

	var resp struct {
		Fields []analysisField `json:"fields"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, &ParseError{Message: "failed to parse analysis response", Cause: err}
	}

	analysis := &Analysis{}
	for _, f := range resp.Fields {
		analysis.Answers = append(analysis.Answers, types.FieldAnswer{
			Selector:       f.Selector,
			Label:          f.Label,
			SuggestedValue: f.SuggestedValue,
			Confidence:     types.Confidence(f.Confidence),
			Note:           f.Note,
		})
		analysis.CacheableShape = append(analysis.CacheableShape, types.FieldShape{
			Selector: f.Selector,
			Label:    f.Label,
			Type:     fieldTypeOrDefault(f.Type),
			Options:  f.Options,
		})
	}
	return analysis, nil
}

// Answers runs the cheap path over an already-known field schema, used when
// a cached template exists for the page's platform.
func (a *Analyzer) Answers(ctx context.Context, fields []types.FormField, profile *types.CandidateProfile, job *types.JobContext) ([]types.FieldAnswer, error) {
	prompt := buildAnswersPrompt(fields, profile, job)
	raw, err := a.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, &APICallError{Message: "answer generation failed", Cause: err}
	}

	if err := validateAgainstSchema(answersSchema, raw); err != nil {
		return nil, err
	}

	var resp struct {
		Answers []analysisField `json:"answers"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, &ParseError{Message: "failed to parse answers response", Cause: err}
	}

	var answers []types.FieldAnswer
	for _, f := range resp.Answers {
		answers = append(answers, types.FieldAnswer{
			Selector:       f.Selector,
			Label:          f.Label,
			SuggestedValue: f.SuggestedValue,
			Confidence:     types.Confidence(f.Confidence),
			Note:           f.Note,
		})
	}
	return answers, nil
}

func fieldTypeOrDefault(t string) types.FieldType {
	switch types.FieldType(t) {
	case types.FieldTypeText, types.FieldTypeTextarea, types.FieldTypeSelect,
		types.FieldTypeCheckbox, types.FieldTypeRadio, types.FieldTypeDate,
		types.FieldTypeContentEditable, types.FieldTypeFile:
		return types.FieldType(t)
	default:
		return types.FieldTypeText
	}
}
