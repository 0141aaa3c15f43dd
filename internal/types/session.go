//nolint:revive // types is a standard Go package name pattern
package types

import "github.com/google/uuid"

// DefaultMaxAttempts bounds how many times one autofill session may retry.
const DefaultMaxAttempts = 3

// AutofillSession is the in-memory state of one form-fill interaction. It is
// created when the user triggers autofill, owned exclusively by the session
// controller, and discarded on accept or when retries are exhausted. It is
// never persisted.
type AutofillSession struct {
	ID               uuid.UUID         `json:"id"`
	AttemptNumber    int               `json:"attempt_number"`
	MaxAttempts      int               `json:"max_attempts"`
	CacheKey         string            `json:"cache_key,omitempty"`
	UsedCache        bool              `json:"used_cache"`
	LastFieldResults []FieldFillResult `json:"last_field_results,omitempty"`
}

// NewAutofillSession creates a session with the retry bound applied.
func NewAutofillSession() *AutofillSession {
	return &AutofillSession{
		ID:          uuid.New(),
		MaxAttempts: DefaultMaxAttempts,
	}
}

// CanRetry reports whether another retry is allowed.
func (s *AutofillSession) CanRetry() bool {
	return s.AttemptNumber < s.MaxAttempts
}

// PreviousAttempt carries the context of a failed fill attempt back into the
// next analysis call so the analyzer can steer its correction.
type PreviousAttempt struct {
	AttemptNumber int               `json:"attempt_number"`
	FieldResults  []FieldFillResult `json:"field_results"`
	UserFeedback  string            `json:"user_feedback,omitempty"`
}
