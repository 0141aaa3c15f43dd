package fill

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-autofill/internal/types"
)

// fakePage maps selectors to script outcomes without a real browser.
type fakePage struct {
	// missing selectors report not_found; erroring selectors throw
	missing  map[string]bool
	erroring map[string]bool
	evalErr  error
	scripts  []string
}

func (p *fakePage) Evaluate(_ context.Context, script string) (string, error) {
	p.scripts = append(p.scripts, script)
	if p.evalErr != nil {
		return "", p.evalErr
	}
	for sel := range p.missing {
		if strings.Contains(script, sel) {
			return "not_found", nil
		}
	}
	for sel := range p.erroring {
		if strings.Contains(script, sel) {
			return "error", nil
		}
	}
	return "filled", nil
}

func assignments(selectors ...string) []Assignment {
	var out []Assignment
	for _, sel := range selectors {
		out = append(out, Assignment{Selector: sel, Label: sel, Value: "v"})
	}
	return out
}

func TestExecute_AllFilled(t *testing.T) {
	page := &fakePage{}
	ex := NewExecutor(page, false)

	report, err := ex.Execute(context.Background(), assignments("#a", "#b"))
	require.NoError(t, err)

	assert.Equal(t, 2, report.FilledCount)
	assert.Equal(t, 2, report.TotalFields)
	assert.True(t, report.AllFilled())
}

func TestExecute_MissingSelectorDoesNotAbort(t *testing.T) {
	// 5 assignments where the 3rd selector does not exist: exactly one
	// not_found, four filled, and execution reaches every field.
	page := &fakePage{missing: map[string]bool{"#three": true}}
	ex := NewExecutor(page, false)

	report, err := ex.Execute(context.Background(), assignments("#one", "#two", "#three", "#four", "#five"))
	require.NoError(t, err)

	assert.Equal(t, 4, report.FilledCount)
	assert.Equal(t, 5, report.TotalFields)
	require.Len(t, report.FieldResults, 5)
	assert.Equal(t, types.FillStatusNotFound, report.FieldResults[2].Status)
	for _, i := range []int{0, 1, 3, 4} {
		assert.Equal(t, types.FillStatusFilled, report.FieldResults[i].Status)
	}
	assert.Len(t, page.scripts, 5, "every field is attempted")
}

func TestExecute_ThrowingWriteRecordsError(t *testing.T) {
	page := &fakePage{erroring: map[string]bool{"#bad": true}}
	ex := NewExecutor(page, false)

	report, err := ex.Execute(context.Background(), assignments("#ok", "#bad"))
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilledCount)
	assert.Equal(t, types.FillStatusError, report.FieldResults[1].Status)
}

func TestExecute_EvaluateFailureIsPerField(t *testing.T) {
	page := &fakePage{evalErr: errors.New("tab crashed")}
	ex := NewExecutor(page, false)

	report, err := ex.Execute(context.Background(), assignments("#a", "#b"))
	require.NoError(t, err)

	assert.Equal(t, 0, report.FilledCount)
	for _, fr := range report.FieldResults {
		assert.Equal(t, types.FillStatusError, fr.Status)
	}
}

func TestExecute_EmptyInput(t *testing.T) {
	ex := NewExecutor(&fakePage{}, false)

	report, err := ex.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalFields)
	assert.True(t, report.AllFilled())
}

func TestBuildAssignments_FiltersEmptyValues(t *testing.T) {
	answers := []types.FieldAnswer{
		{Selector: "#first", Label: "First", SuggestedValue: "Dana", Confidence: types.ConfidenceHigh},
		{Selector: "#mid", Label: "Middle", SuggestedValue: "", Confidence: types.ConfidenceLow},
		{Selector: "#last", Label: "Last", SuggestedValue: "Smith", Confidence: types.ConfidenceHigh},
	}

	got := BuildAssignments(answers)
	require.Len(t, got, 2)
	assert.Equal(t, "#first", got[0].Selector)
	assert.Equal(t, "#last", got[1].Selector)
}

func TestBuildAssignments_EmptyValueNeverReachesReport(t *testing.T) {
	// An empty suggested value is absent input: not part of the total and
	// never reported as not_found.
	answers := []types.FieldAnswer{
		{Selector: "#name", SuggestedValue: "Dana"},
		{Selector: "#mid", SuggestedValue: ""},
	}

	page := &fakePage{}
	ex := NewExecutor(page, false)
	report, err := ex.Execute(context.Background(), BuildAssignments(answers))
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalFields)
	for _, fr := range report.FieldResults {
		assert.NotEqual(t, "#mid", fr.Selector)
	}
}

func TestFillScript_EscapesValues(t *testing.T) {
	script := fillScript(`#name`, `O'Brien "Danny"`)
	assert.Contains(t, script, `"#name"`)
	assert.Contains(t, script, `O'Brien \"Danny\"`)
	assert.NotContains(t, script, "%!")
}

func TestFillScript_EventOrder(t *testing.T) {
	script := fillScript("#name", "Dana")
	// Text-like fields dispatch input, change, blur in that order.
	assert.Contains(t, script, `["input", "change", "blur"]`)
	// And write through the native setter, not the element property.
	assert.Contains(t, script, "getOwnPropertyDescriptor")
}
