// Package fill provides the autofill executor: it writes suggested values
// into the live page one field at a time and reports a per-field outcome.
// The executor has no retry logic of its own; retries are a session-level
// concept.
package fill

import (
	"context"
	"log"

	"github.com/jonathan/form-autofill/internal/types"
)

// Evaluator runs a JavaScript expression in the target page and returns its
// string result. The production implementation is Browser; tests substitute
// a fake.
type Evaluator interface {
	Evaluate(ctx context.Context, script string) (string, error)
}

// Executor writes assignments into a page through an Evaluator.
type Executor struct {
	page    Evaluator
	verbose bool
}

// NewExecutor creates an executor over the given page.
func NewExecutor(page Evaluator, verbose bool) *Executor {
	return &Executor{page: page, verbose: verbose}
}

// Execute writes each assignment in order and aggregates per-field results.
// A selector that resolves to nothing records not_found; a write that throws
// records error. Neither aborts the remaining fields.
func (e *Executor) Execute(ctx context.Context, assignments []Assignment) (*types.FillReport, error) {
	report := &types.FillReport{TotalFields: len(assignments)}

	for _, a := range assignments {
		status := e.fillOne(ctx, a)
		if status == types.FillStatusFilled {
			report.FilledCount++
		}
		report.FieldResults = append(report.FieldResults, types.FieldFillResult{
			Selector: a.Selector,
			Label:    a.Label,
			Status:   status,
		})
	}

	return report, nil
}

func (e *Executor) fillOne(ctx context.Context, a Assignment) types.FillStatus {
	result, err := e.page.Evaluate(ctx, fillScript(a.Selector, a.Value))
	if err != nil {
		if e.verbose {
			log.Printf("[FILL] %s: evaluate failed: %v", a.Selector, err)
		}
		return types.FillStatusError
	}

	switch types.FillStatus(result) {
	case types.FillStatusFilled, types.FillStatusNotFound, types.FillStatusError:
		if e.verbose {
			log.Printf("[FILL] %s: %s", a.Selector, result)
		}
		return types.FillStatus(result)
	default:
		if e.verbose {
			log.Printf("[FILL] %s: unexpected script result %q", a.Selector, result)
		}
		return types.FillStatusError
	}
}
