package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/jonathan/form-autofill/internal/observability"
	"github.com/jonathan/form-autofill/internal/session"
)

const (
	choiceAccept = "Accept - the form looks right"
	choiceRetry  = "Retry - fix the fields and fill again"
	choiceFinish = "Finish without accepting"
)

// promptVerifier collects the accept/retry verdict on the terminal while the
// filled form stays visible in the browser window.
type promptVerifier struct {
	printer *observability.Printer
	verbose bool
}

func (v *promptVerifier) Review(_ context.Context, outcome *session.Outcome, canRetry bool) (session.Verdict, error) {
	v.printer.PrintFillReport(outcome.Report)

	items := []string{choiceAccept, choiceRetry}
	if !canRetry {
		items = []string{choiceAccept, choiceFinish}
		fmt.Println("Retry limit reached.")
	}

	selectPrompt := promptui.Select{
		Label: fmt.Sprintf("Attempt %d: check the form in the browser", outcome.Session.AttemptNumber+1),
		Items: items,
	}

	_, choice, err := selectPrompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return session.Verdict{}, fmt.Errorf("verification aborted")
		}
		return session.Verdict{}, fmt.Errorf("verification prompt failed: %w", err)
	}

	switch choice {
	case choiceAccept:
		return session.Verdict{Accept: true}, nil
	case choiceRetry:
		feedback, err := v.askFeedback()
		if err != nil {
			return session.Verdict{}, err
		}
		return session.Verdict{Accept: false, Feedback: feedback}, nil
	default:
		return session.Verdict{Accept: false}, nil
	}
}

// askFeedback collects an optional correction hint passed to the analyzer
// on the next attempt.
func (v *promptVerifier) askFeedback() (string, error) {
	prompt := promptui.Prompt{
		Label:     "What went wrong? (optional, guides the retry)",
		AllowEdit: true,
	}

	feedback, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return "", fmt.Errorf("verification aborted")
		}
		return "", fmt.Errorf("feedback prompt failed: %w", err)
	}
	return feedback, nil
}
