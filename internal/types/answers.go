//nolint:revive // types is a standard Go package name pattern
package types

// Confidence expresses how sure the value generator is about a suggestion
type Confidence string

const (
	// ConfidenceLow means the value is a guess and should be reviewed
	ConfidenceLow Confidence = "low"
	// ConfidenceMedium means the value is plausible but inferred
	ConfidenceMedium Confidence = "medium"
	// ConfidenceHigh means the value comes directly from the profile
	ConfidenceHigh Confidence = "high"
)

// FieldAnswer is a suggested value for one form field, produced by the
// value-generation collaborator and consumed by the autofill executor.
// SuggestedValue, Confidence and Note are runtime-only and are never
// persisted into the template cache.
type FieldAnswer struct {
	Selector       string     `json:"selector"`
	Label          string     `json:"label"`
	SuggestedValue string     `json:"suggested_value"`
	Confidence     Confidence `json:"confidence"`
	Note           string     `json:"note,omitempty"`
}

// FillStatus is the per-field outcome of a fill pass
type FillStatus string

const (
	// FillStatusFilled means the value was written successfully
	FillStatusFilled FillStatus = "filled"
	// FillStatusNotFound means the selector resolved to no element
	FillStatusNotFound FillStatus = "not_found"
	// FillStatusError means the write threw
	FillStatusError FillStatus = "error"
)

// FieldFillResult records the outcome of writing one field.
type FieldFillResult struct {
	Selector string     `json:"selector"`
	Label    string     `json:"label"`
	Status   FillStatus `json:"status"`
}

// FillReport aggregates the per-field outcomes of one fill pass.
type FillReport struct {
	FilledCount  int               `json:"filled_count"`
	TotalFields  int               `json:"total_fields"`
	FieldResults []FieldFillResult `json:"field_results"`
}

// AllFilled reports whether every attempted field was written.
func (r *FillReport) AllFilled() bool {
	return r.FilledCount == r.TotalFields
}

// Failed returns the results whose status is not filled, in input order.
func (r *FillReport) Failed() []FieldFillResult {
	var failed []FieldFillResult
	for _, fr := range r.FieldResults {
		if fr.Status != FillStatusFilled {
			failed = append(failed, fr)
		}
	}
	return failed
}
