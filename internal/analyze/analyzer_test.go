package analyze

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-autofill/internal/llm"
	"github.com/jonathan/form-autofill/internal/types"
)

// fakeClient returns canned JSON and records the prompt and tier it was
// called with.
type fakeClient struct {
	response   string
	err        error
	lastPrompt string
	lastTier   llm.ModelTier
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.lastPrompt = prompt
	f.lastTier = tier
	return f.response, f.err
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake-model" }
func (f *fakeClient) Close() error                  { return nil }

func testProfile() *types.CandidateProfile {
	return &types.CandidateProfile{
		Name:  "Dana Smith",
		Email: "dana@example.com",
		Phone: "+1 555 0100",
	}
}

const analysisJSON = `{
  "fields": [
    {
      "selector": "#first_name",
      "label": "First Name",
      "type": "text",
      "suggested_value": "Dana",
      "confidence": "high"
    },
    {
      "selector": "#country",
      "label": "Country",
      "type": "select",
      "options": ["United States", "Canada"],
      "suggested_value": "United States",
      "confidence": "medium",
      "note": "Assumed from location"
    }
  ]
}`

func TestAnalyzer_HTML(t *testing.T) {
	client := &fakeClient{response: analysisJSON}
	a := New(client)

	analysis, err := a.HTML(context.Background(), "<form>...</form>", testProfile(), nil, nil)
	require.NoError(t, err)

	require.Len(t, analysis.Answers, 2)
	assert.Equal(t, "#first_name", analysis.Answers[0].Selector)
	assert.Equal(t, "Dana", analysis.Answers[0].SuggestedValue)
	assert.Equal(t, types.ConfidenceHigh, analysis.Answers[0].Confidence)
	assert.Equal(t, "Assumed from location", analysis.Answers[1].Note)

	// The cacheable shape mirrors the structure without any values.
	require.Len(t, analysis.CacheableShape, 2)
	assert.Equal(t, types.FieldTypeSelect, analysis.CacheableShape[1].Type)
	assert.Equal(t, []string{"United States", "Canada"}, analysis.CacheableShape[1].Options)

	// First attempt uses the standard tier.
	assert.Equal(t, llm.TierStandard, client.lastTier)
	assert.Contains(t, client.lastPrompt, "Dana Smith")
	assert.Contains(t, client.lastPrompt, "<form>")
}

func TestAnalyzer_HTMLWithPreviousAttempt(t *testing.T) {
	client := &fakeClient{response: analysisJSON}
	a := New(client)

	prev := &types.PreviousAttempt{
		AttemptNumber: 1,
		FieldResults: []types.FieldFillResult{
			{Selector: "#first_name", Label: "First Name", Status: types.FillStatusFilled},
			{Selector: "#country", Label: "Country", Status: types.FillStatusNotFound},
		},
		UserFeedback: "the country dropdown was not set",
	}

	_, err := a.HTML(context.Background(), "<form/>", testProfile(), nil, prev)
	require.NoError(t, err)

	// Retries escalate to the advanced tier and carry the failure context.
	assert.Equal(t, llm.TierAdvanced, client.lastTier)
	assert.Contains(t, client.lastPrompt, "retry attempt 1")
	assert.Contains(t, client.lastPrompt, "#country")
	assert.Contains(t, client.lastPrompt, "the country dropdown was not set")
	// Fields that filled fine are not listed as problems.
	assert.NotContains(t, client.lastPrompt, "#first_name (First Name)")
}

func TestAnalyzer_HTMLAPIError(t *testing.T) {
	client := &fakeClient{err: errors.New("quota exceeded")}
	a := New(client)

	_, err := a.HTML(context.Background(), "<form/>", testProfile(), nil, nil)
	require.Error(t, err)

	var apiErr *APICallError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestAnalyzer_HTMLRejectsMalformedResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"missing fields key", `{"answers": []}`},
		{"bad confidence", `{"fields": [{"selector": "#a", "label": "A", "suggested_value": "x", "confidence": "certain"}]}`},
		{"missing selector", `{"fields": [{"label": "A", "suggested_value": "x", "confidence": "high"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(&fakeClient{response: tt.response})
			_, err := a.HTML(context.Background(), "<form/>", testProfile(), nil, nil)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestAnalyzer_Answers(t *testing.T) {
	client := &fakeClient{response: `{
	  "answers": [
	    {"selector": "#email", "label": "Email", "suggested_value": "dana@example.com", "confidence": "high"}
	  ]
	}`}
	a := New(client)

	fields := []types.FormField{
		{Selector: "#email", Label: "Email", Type: types.FieldTypeText, Required: true},
		{Selector: "#country", Label: "Country", Type: types.FieldTypeSelect, Options: []string{"US", "CA"}},
	}

	answers, err := a.Answers(context.Background(), fields, testProfile(), &types.JobContext{Company: "Acme", RoleTitle: "Engineer"})
	require.NoError(t, err)

	require.Len(t, answers, 1)
	assert.Equal(t, "dana@example.com", answers[0].SuggestedValue)

	// The cached-shape path uses the cheap tier and never sends HTML.
	assert.Equal(t, llm.TierLite, client.lastTier)
	assert.Contains(t, client.lastPrompt, "#country")
	assert.Contains(t, client.lastPrompt, "options: US, CA")
	assert.Contains(t, client.lastPrompt, "Engineer at Acme")
}

func TestAnalyzer_AnswersEmptyList(t *testing.T) {
	a := New(&fakeClient{response: `{"answers": []}`})

	answers, err := a.Answers(context.Background(), nil, testProfile(), nil)
	require.NoError(t, err)
	assert.Empty(t, answers)
}

func TestBuildAnalysisPrompt_OmitsEmptyProfileFields(t *testing.T) {
	prompt := buildAnalysisPrompt("<form/>", testProfile(), nil, nil)
	assert.Contains(t, prompt, "Phone: +1 555 0100")
	assert.False(t, strings.Contains(prompt, "LinkedIn"), "empty profile fields stay out of the prompt")
}
