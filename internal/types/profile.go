//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
)

// CandidateProfile holds the candidate data the value generator draws from.
// Loaded from a JSON file supplied by the user.
type CandidateProfile struct {
	Name     string `json:"name" validate:"required,min=1"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`

	LinkedIn  string `json:"linkedin,omitempty" validate:"omitempty,url"`
	GitHub    string `json:"github,omitempty" validate:"omitempty,url"`
	Portfolio string `json:"portfolio,omitempty" validate:"omitempty,url"`

	WorkAuthorization string `json:"work_authorization,omitempty"`
	RequiresSponsor   bool   `json:"requires_sponsorship,omitempty"`
	Summary           string `json:"summary,omitempty"`

	// ExtraAnswers maps free-form question hints (e.g. "salary expectation")
	// to canned answers the generator may reuse verbatim.
	ExtraAnswers map[string]string `json:"extra_answers,omitempty"`
}

// Validate validates the CandidateProfile using the validator.
func (p *CandidateProfile) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// JobContext describes the vacancy being applied to. Parsing a vacancy out
// of a posting page is handled upstream; the autofill core only consumes
// the result.
type JobContext struct {
	Company     string `json:"company,omitempty"`
	RoleTitle   string `json:"role_title,omitempty"`
	PostingText string `json:"posting_text,omitempty"`
	PostingURL  string `json:"posting_url,omitempty"`
}
