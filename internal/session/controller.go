// Package session provides the verification and retry controller: the state
// machine that drives extract, fill, and verify for one autofill session,
// bounds retries, threads user feedback back into re-analysis, and promotes
// or demotes template-cache entries based on the outcome.
package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/form-autofill/internal/analyze"
	"github.com/jonathan/form-autofill/internal/cache"
	"github.com/jonathan/form-autofill/internal/extract"
	"github.com/jonathan/form-autofill/internal/fill"
	"github.com/jonathan/form-autofill/internal/types"
)

// PageSource exposes the live page being filled.
type PageSource interface {
	HTML() (string, error)
	Location() (string, error)
}

// Analyzer is the AI analysis collaborator.
type Analyzer interface {
	HTML(ctx context.Context, html string, profile *types.CandidateProfile, job *types.JobContext, prev *types.PreviousAttempt) (*analyze.Analysis, error)
	Answers(ctx context.Context, fields []types.FormField, profile *types.CandidateProfile, job *types.JobContext) ([]types.FieldAnswer, error)
}

// Executor writes assignments into the page.
type Executor interface {
	Execute(ctx context.Context, assignments []fill.Assignment) (*types.FillReport, error)
}

// TemplateCache is the slice of the cache API the controller drives.
type TemplateCache interface {
	Get(ctx context.Context, key string) *types.CachedTemplate
	Put(ctx context.Context, key string, fields []types.FieldShape)
	IncrementFail(ctx context.Context, key string)
	ResetFail(ctx context.Context, key string)
}

// Verifier collects the user's verdict on a fill pass. canRetry=false means
// the retry bound is reached and only accept (or abandon) remains.
type Verifier interface {
	Review(ctx context.Context, outcome *Outcome, canRetry bool) (Verdict, error)
}

// Controller owns one AutofillSession for the duration of a run. It is not
// safe for concurrent use; a session is per-tab and runs serially.
type Controller struct {
	page     PageSource
	analyzer Analyzer
	executor Executor
	cache    TemplateCache
	verifier Verifier
	logger   *zap.Logger

	maxAttempts int

	// dispatch is the transition table, built once at construction.
	dispatch map[State]handlerFunc
}

// SetMaxAttempts overrides the per-session retry bound.
func (c *Controller) SetMaxAttempts(n int) {
	if n > 0 {
		c.maxAttempts = n
	}
}

// handlerFunc executes one state and names the next.
type handlerFunc func(ctx context.Context, run *runState) (State, error)

// runState is the per-run mutable data threaded through the state machine.
type runState struct {
	session *types.AutofillSession
	pageURL string
	profile *types.CandidateProfile
	job     *types.JobContext

	prev       *types.PreviousAttempt
	answers    []types.FieldAnswer
	freshShape []types.FieldShape
	report     *types.FillReport
}

// NewController wires the collaborators into a controller.
func NewController(page PageSource, analyzer Analyzer, executor Executor, templates TemplateCache, verifier Verifier, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		page:     page,
		analyzer: analyzer,
		executor: executor,
		cache:    templates,
		verifier: verifier,
		logger:   logger,
	}
	c.dispatch = map[State]handlerFunc{
		StateIdle:       c.idle,
		StateExtracting: c.extracting,
		StateFilling:    c.filling,
		StateVerifying:  c.verifying,
		StateRetrying:   c.retrying,
	}
	return c
}

// Run drives one autofill session from Idle to a terminal state. The retry
// loop is an explicit bounded iteration, never recursion.
func (c *Controller) Run(ctx context.Context, profile *types.CandidateProfile, job *types.JobContext) (*Outcome, error) {
	run := &runState{
		session: types.NewAutofillSession(),
		profile: profile,
		job:     job,
	}
	if c.maxAttempts > 0 {
		run.session.MaxAttempts = c.maxAttempts
	}

	state := StateIdle
	for !state.terminal() {
		handler, ok := c.dispatch[state]
		if !ok {
			return nil, fmt.Errorf("no handler for state %q", state)
		}

		next, err := handler(ctx, run)
		if err != nil {
			return nil, err
		}

		c.logger.Debug("session transition",
			zap.String("session_id", run.session.ID.String()),
			zap.String("from", string(state)),
			zap.String("to", string(next)),
			zap.Int("attempt", run.session.AttemptNumber))
		state = next
	}

	return &Outcome{
		Session: run.session,
		Report:  run.report,
		Summary: summarize(run.report),
		State:   state,
	}, nil
}

// idle initializes the session: attempt counter at zero, cache key derived
// from the page URL.
func (c *Controller) idle(_ context.Context, run *runState) (State, error) {
	pageURL, err := c.page.Location()
	if err != nil {
		return StateIdle, fmt.Errorf("failed to read page URL: %w", err)
	}

	run.pageURL = pageURL
	if key, ok := cache.DeriveKey(pageURL); ok {
		run.session.CacheKey = key
	}
	return StateExtracting, nil
}

// extracting produces field/value data. First attempts prefer the cheapest
// source that works: cached template, then DOM extraction, then full AI
// analysis. Retries always re-analyze with feedback.
// Analysis errors surface verbatim and mutate nothing.
func (c *Controller) extracting(ctx context.Context, run *runState) (State, error) {
	html, err := c.page.HTML()
	if err != nil {
		return StateExtracting, fmt.Errorf("failed to read page: %w", err)
	}

	// Cached templates only short-circuit the first attempt: a retry means
	// the previous shape was not actionable, so re-analyze with feedback.
	if run.prev == nil && run.session.CacheKey != "" {
		if tmpl := c.cache.Get(ctx, run.session.CacheKey); tmpl != nil {
			answers, err := c.analyzer.Answers(ctx, types.FieldsFromShapes(tmpl.Fields), run.profile, run.job)
			if err != nil {
				return StateExtracting, err
			}
			run.session.UsedCache = true
			run.answers = answers
			run.freshShape = nil
			c.logger.Debug("using cached template",
				zap.String("key", run.session.CacheKey),
				zap.Int("fields", len(tmpl.Fields)))
			return StateFilling, nil
		}
	}

	// Cheap DOM extraction next, still first-attempt only. A retry means
	// the structural read was wrong somewhere, so the full analyzer with
	// feedback takes over.
	if run.prev == nil {
		if schema, err := extract.Fields(html, run.pageURL); err == nil && len(schema.Fields) > 0 {
			answers, err := c.analyzer.Answers(ctx, schema.Fields, run.profile, run.job)
			if err != nil {
				return StateExtracting, err
			}
			if len(answers) > 0 {
				run.session.UsedCache = false
				run.answers = answers
				run.freshShape = types.ShapesFromFields(schema.Fields)
				c.logger.Debug("using DOM extraction",
					zap.Int("fields", len(schema.Fields)))
				return StateFilling, nil
			}
		}
	}

	cleaned, err := extract.CleanFormHTML(html)
	if err != nil {
		return StateExtracting, fmt.Errorf("failed to clean page HTML: %w", err)
	}

	analysis, err := c.analyzer.HTML(ctx, cleaned, run.profile, run.job, run.prev)
	if err != nil {
		return StateExtracting, err
	}
	if len(analysis.Answers) == 0 {
		return StateExtracting, ErrNoFormDetected
	}

	run.session.UsedCache = false
	run.answers = analysis.Answers
	run.freshShape = analysis.CacheableShape
	return StateFilling, nil
}

// filling writes the suggested values into the page. Empty suggestions are
// filtered before the executor and are neither attempted nor counted.
func (c *Controller) filling(ctx context.Context, run *runState) (State, error) {
	assignments := fill.BuildAssignments(run.answers)

	report, err := c.executor.Execute(ctx, assignments)
	if err != nil {
		return StateFilling, fmt.Errorf("fill execution failed: %w", err)
	}

	run.report = report
	run.session.LastFieldResults = report.FieldResults
	return StateVerifying, nil
}

// verifying presents the fill outcome and applies the user's verdict.
func (c *Controller) verifying(ctx context.Context, run *runState) (State, error) {
	outcome := &Outcome{
		Session: run.session,
		Report:  run.report,
		Summary: summarize(run.report),
		State:   StateVerifying,
	}

	verdict, err := c.verifier.Review(ctx, outcome, run.session.CanRetry())
	if err != nil {
		return StateVerifying, fmt.Errorf("verification failed: %w", err)
	}

	if verdict.Accept {
		c.promote(ctx, run)
		return StateAccepted, nil
	}

	if !run.session.CanRetry() {
		// Retry bound reached: a further retry request is a no-op and the
		// session ends unaccepted.
		return StateExhausted, nil
	}

	run.prev = &types.PreviousAttempt{
		FieldResults: run.report.FieldResults,
		UserFeedback: verdict.Feedback,
	}
	return StateRetrying, nil
}

// retrying applies retry bookkeeping and loops back to extraction. A cached
// template that needed a retry is penalized even if the retry later
// succeeds: its structure was not immediately actionable.
func (c *Controller) retrying(ctx context.Context, run *runState) (State, error) {
	run.session.AttemptNumber++
	run.prev.AttemptNumber = run.session.AttemptNumber

	if run.session.CacheKey != "" {
		c.cache.IncrementFail(ctx, run.session.CacheKey)
	}

	c.logger.Info("retrying autofill",
		zap.String("session_id", run.session.ID.String()),
		zap.Int("attempt", run.session.AttemptNumber),
		zap.Int("max_attempts", run.session.MaxAttempts))
	return StateExtracting, nil
}

// promote applies accept-time cache side effects: a fresh analysis is
// written into the cache, a cached template gets its failure counter reset.
func (c *Controller) promote(ctx context.Context, run *runState) {
	if run.session.CacheKey == "" {
		return
	}
	if run.session.UsedCache {
		c.cache.ResetFail(ctx, run.session.CacheKey)
		return
	}
	if len(run.freshShape) > 0 {
		c.cache.Put(ctx, run.session.CacheKey, run.freshShape)
	}
}
