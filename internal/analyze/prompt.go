// Package analyze - prompt.go builds the analyzer and answer-generation prompts.
package analyze

import (
	"fmt"
	"strings"

	"github.com/jonathan/form-autofill/internal/types"
)

// buildAnalysisPrompt asks the model to locate every fillable field in the
// HTML and suggest a value for each from the candidate profile.
func buildAnalysisPrompt(html string, profile *types.CandidateProfile, job *types.JobContext, prev *types.PreviousAttempt) string {
	var sb strings.Builder

	sb.WriteString("You are filling out a job application form on behalf of a candidate.\n")
	sb.WriteString("Analyze the HTML below, find every fillable form field, and suggest a value for each.\n\n")

	writeProfile(&sb, profile)
	writeJobContext(&sb, job)
	writePreviousAttempt(&sb, prev)

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n")
	sb.WriteString(`{
  "fields": [
    {
      "selector": "CSS selector that uniquely targets the element (prefer #id)",
      "label": "human-readable field label",
      "type": "text|textarea|select|checkbox|radio|date|contenteditable",
      "options": ["only for select/radio fields"],
      "suggested_value": "the value to fill in, or empty string when unknown",
      "confidence": "low|medium|high",
      "note": "short caveat when confidence is not high"
    }
  ]
}`)
	sb.WriteString("\n\nIMPORTANT:\n")
	sb.WriteString("- Use empty string for suggested_value when the profile has no answer; never invent facts about the candidate.\n")
	sb.WriteString("- For select fields, suggested_value must be one of the visible option texts.\n")
	sb.WriteString("- Skip hidden inputs, submit buttons, and file uploads.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation.\n\n")

	sb.WriteString("HTML:\n")
	sb.WriteString(html)

	return sb.String()
}

// buildAnswersPrompt asks the model for values over an already-known field
// schema, skipping the HTML entirely. Used on template-cache hits.
func buildAnswersPrompt(fields []types.FormField, profile *types.CandidateProfile, job *types.JobContext) string {
	var sb strings.Builder

	sb.WriteString("You are filling out a job application form on behalf of a candidate.\n")
	sb.WriteString("The form fields are already known; suggest a value for each.\n\n")

	writeProfile(&sb, profile)
	writeJobContext(&sb, job)

	sb.WriteString("Fields:\n")
	for _, f := range fields {
		sb.WriteString(fmt.Sprintf("- selector: %s | label: %s | type: %s", f.Selector, f.Label, f.Type))
		if len(f.Options) > 0 {
			sb.WriteString(" | options: " + strings.Join(f.Options, ", "))
		}
		if f.Required {
			sb.WriteString(" | required")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nReturn ONLY valid JSON matching this exact structure:\n")
	sb.WriteString(`{
  "answers": [
    {
      "selector": "the selector exactly as given above",
      "label": "the label exactly as given above",
      "suggested_value": "the value to fill in, or empty string when unknown",
      "confidence": "low|medium|high",
      "note": "short caveat when confidence is not high"
    }
  ]
}`)
	sb.WriteString("\n\nIMPORTANT:\n")
	sb.WriteString("- Answer every field, using empty string when the profile has no answer.\n")
	sb.WriteString("- For select fields, suggested_value must be one of the listed options.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation.\n")

	return sb.String()
}

func writeProfile(sb *strings.Builder, profile *types.CandidateProfile) {
	if profile == nil {
		return
	}
	sb.WriteString("Candidate profile:\n")
	sb.WriteString(fmt.Sprintf("- Name: %s\n- Email: %s\n", profile.Name, profile.Email))
	if profile.Phone != "" {
		sb.WriteString("- Phone: " + profile.Phone + "\n")
	}
	if profile.Location != "" {
		sb.WriteString("- Location: " + profile.Location + "\n")
	}
	if profile.LinkedIn != "" {
		sb.WriteString("- LinkedIn: " + profile.LinkedIn + "\n")
	}
	if profile.GitHub != "" {
		sb.WriteString("- GitHub: " + profile.GitHub + "\n")
	}
	if profile.Portfolio != "" {
		sb.WriteString("- Portfolio: " + profile.Portfolio + "\n")
	}
	if profile.WorkAuthorization != "" {
		sb.WriteString("- Work authorization: " + profile.WorkAuthorization + "\n")
	}
	if profile.RequiresSponsor {
		sb.WriteString("- Requires sponsorship: yes\n")
	}
	if profile.Summary != "" {
		sb.WriteString("- Summary: " + profile.Summary + "\n")
	}
	for question, answer := range profile.ExtraAnswers {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", question, answer))
	}
	sb.WriteString("\n")
}

func writeJobContext(sb *strings.Builder, job *types.JobContext) {
	if job == nil {
		return
	}
	if job.Company != "" || job.RoleTitle != "" {
		sb.WriteString(fmt.Sprintf("Applying for: %s at %s\n", job.RoleTitle, job.Company))
	}
	if job.PostingText != "" {
		sb.WriteString("Job posting:\n" + job.PostingText + "\n")
	}
	sb.WriteString("\n")
}

// writePreviousAttempt threads a failed attempt back into the prompt so the
// model can correct the selectors or values that did not work.
func writePreviousAttempt(sb *strings.Builder, prev *types.PreviousAttempt) {
	if prev == nil {
		return
	}
	sb.WriteString(fmt.Sprintf("This is retry attempt %d. The previous attempt had problems:\n", prev.AttemptNumber))
	for _, fr := range prev.FieldResults {
		if fr.Status == types.FillStatusFilled {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", fr.Selector, fr.Label, fr.Status))
	}
	if prev.UserFeedback != "" {
		sb.WriteString("User feedback: " + prev.UserFeedback + "\n")
	}
	sb.WriteString("Fix the failing selectors and values; keep what worked.\n\n")
}
