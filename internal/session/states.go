// Package session - states.go defines the controller's state machine vocabulary.
package session

import (
	"errors"
	"fmt"

	"github.com/jonathan/form-autofill/internal/types"
)

// State is one node of the verification/retry state machine.
type State string

// State machine nodes. Transitions:
// Idle -> Extracting -> Filling -> Verifying -> {Accepted | Retrying} ;
// Retrying loops to Extracting; Verifying with retries exhausted ends in
// Exhausted unless the user accepts the current fill.
const (
	StateIdle       State = "idle"
	StateExtracting State = "extracting"
	StateFilling    State = "filling"
	StateVerifying  State = "verifying"
	StateAccepted   State = "accepted"
	StateRetrying   State = "retrying"
	StateExhausted  State = "exhausted"
)

// terminal reports whether the state machine stops at s.
func (s State) terminal() bool {
	return s == StateAccepted || s == StateExhausted
}

// ErrNoFormDetected is returned when extraction/analysis finds nothing to
// fill on the page. No cache mutation happens in that case.
var ErrNoFormDetected = errors.New("no form detected on page")

// Verdict is the user's decision after reviewing a fill pass.
type Verdict struct {
	Accept   bool
	Feedback string
}

// Outcome is what the controller presents for review and returns when the
// session ends.
type Outcome struct {
	Session *types.AutofillSession
	Report  *types.FillReport
	Summary string
	State   State
}

// summarize derives the user-facing status line for a fill report.
func summarize(report *types.FillReport) string {
	if report.AllFilled() {
		return "all filled"
	}
	failed := report.Failed()
	s := fmt.Sprintf("%d field(s) may need attention:", len(failed))
	for _, fr := range failed {
		label := fr.Label
		if label == "" {
			label = fr.Selector
		}
		s += fmt.Sprintf("\n  - %s (%s)", label, fr.Status)
	}
	return s
}
