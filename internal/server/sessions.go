package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/form-autofill/internal/session"
	"github.com/jonathan/form-autofill/internal/types"
)

// RunRequest describes one autofill job handed to the Runner.
type RunRequest struct {
	URL     string
	Profile *types.CandidateProfile
	Job     *types.JobContext
}

// Runner executes one autofill session against a live browser. The serve
// command provides the production implementation; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, req RunRequest, verifier session.Verifier) (*session.Outcome, error)
}

// SessionStatus is the externally visible lifecycle of a server-side session.
type SessionStatus string

const (
	// StatusRunning means the agent is extracting or filling
	StatusRunning SessionStatus = "running"
	// StatusAwaitingReview means a fill pass finished and the client must
	// POST a verdict before the session continues
	StatusAwaitingReview SessionStatus = "awaiting_review"
	// StatusAccepted means the session ended with the fill accepted
	StatusAccepted SessionStatus = "accepted"
	// StatusExhausted means the retry bound was reached without an accept
	StatusExhausted SessionStatus = "exhausted"
	// StatusFailed means the session ended with an error
	StatusFailed SessionStatus = "failed"
)

// Event is one SSE progress message.
type Event struct {
	Name string
	Data any
}

// liveSession is the server-side record of one in-flight autofill run.
type liveSession struct {
	id string

	mu       sync.Mutex
	status   SessionStatus
	attempt  int
	canRetry bool
	summary  string
	report   *types.FillReport
	errMsg   string

	verdicts chan session.Verdict
	subs     []chan Event
	done     chan struct{}
}

func newLiveSession() *liveSession {
	return &liveSession{
		id:       uuid.New().String(),
		status:   StatusRunning,
		verdicts: make(chan session.Verdict),
		done:     make(chan struct{}),
	}
}

// publish fans an event out to all stream subscribers. Slow subscribers
// lose events rather than stall the session.
func (ls *liveSession) publish(ev Event) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, sub := range ls.subs {
		select {
		case sub <- ev:
		default:
		}
	}
}

// subscribe registers a stream listener and returns its channel.
func (ls *liveSession) subscribe() chan Event {
	sub := make(chan Event, 16)
	ls.mu.Lock()
	ls.subs = append(ls.subs, sub)
	ls.mu.Unlock()
	return sub
}

// snapshot returns the JSON representation of the session state.
func (ls *liveSession) snapshot() map[string]any {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	data := map[string]any{
		"session_id": ls.id,
		"status":     ls.status,
		"attempt":    ls.attempt,
	}
	if ls.status == StatusAwaitingReview {
		data["can_retry"] = ls.canRetry
	}
	if ls.summary != "" {
		data["summary"] = ls.summary
	}
	if ls.report != nil {
		data["report"] = ls.report
	}
	if ls.errMsg != "" {
		data["error"] = ls.errMsg
	}
	return data
}

// httpVerifier bridges the controller's blocking Review call to the REST
// verdict endpoint: it parks the session in awaiting_review and waits for
// a client verdict or cancellation.
type httpVerifier struct {
	ls *liveSession
}

func (v *httpVerifier) Review(ctx context.Context, outcome *session.Outcome, canRetry bool) (session.Verdict, error) {
	v.ls.mu.Lock()
	v.ls.status = StatusAwaitingReview
	v.ls.attempt = outcome.Session.AttemptNumber
	v.ls.canRetry = canRetry
	v.ls.summary = outcome.Summary
	v.ls.report = outcome.Report
	v.ls.mu.Unlock()

	v.ls.publish(Event{Name: "awaiting_review", Data: v.ls.snapshot()})

	select {
	case verdict := <-v.ls.verdicts:
		v.ls.mu.Lock()
		v.ls.status = StatusRunning
		v.ls.mu.Unlock()
		return verdict, nil
	case <-ctx.Done():
		return session.Verdict{}, ctx.Err()
	}
}

// sessionRequest is the POST /sessions body.
type sessionRequest struct {
	URL     string                  `json:"url"`
	Profile *types.CandidateProfile `json:"profile"`
	Job     *types.JobContext       `json:"job,omitempty"`
}

// handleCreateSession starts an autofill session and returns immediately;
// the client follows progress via GET or the SSE stream.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if req.URL == "" {
		s.errorResponse(w, http.StatusBadRequest, "Field 'url' is required")
		return
	}
	if req.Profile == nil {
		s.errorResponse(w, http.StatusBadRequest, "Field 'profile' is required")
		return
	}
	if err := req.Profile.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid profile: "+err.Error())
		return
	}

	ls := newLiveSession()
	s.mu.Lock()
	s.sessions[ls.id] = ls
	s.mu.Unlock()

	go s.runSession(ls, RunRequest{URL: req.URL, Profile: req.Profile, Job: req.Job})

	s.jsonResponse(w, http.StatusAccepted, map[string]any{
		"session_id": ls.id,
		"status":     ls.status,
	})
}

// runSession drives the Runner to completion and records the terminal state.
func (s *Server) runSession(ls *liveSession, req RunRequest) {
	defer close(ls.done)

	outcome, err := s.runner.Run(context.Background(), req, &httpVerifier{ls: ls})

	ls.mu.Lock()
	switch {
	case err != nil:
		ls.status = StatusFailed
		ls.errMsg = err.Error()
	case outcome.State == session.StateAccepted:
		ls.status = StatusAccepted
		ls.attempt = outcome.Session.AttemptNumber
		ls.summary = outcome.Summary
		ls.report = outcome.Report
	default:
		ls.status = StatusExhausted
		ls.attempt = outcome.Session.AttemptNumber
		ls.summary = outcome.Summary
		ls.report = outcome.Report
	}
	ls.mu.Unlock()

	if err != nil {
		s.logger.Error("session failed", zap.String("session_id", ls.id), zap.Error(err))
		ls.publish(Event{Name: "error", Data: ls.snapshot()})
		return
	}
	ls.publish(Event{Name: "complete", Data: ls.snapshot()})
}

// handleGetSession returns the current session state.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ls := s.findSession(r.PathValue("id"))
	if ls == nil {
		s.errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, ls.snapshot())
}

// verdictRequest is the POST /sessions/{id}/verdict body.
type verdictRequest struct {
	Accept   bool   `json:"accept"`
	Feedback string `json:"feedback,omitempty"`
}

// handleVerdict delivers an accept or retry verdict to a session parked in
// awaiting_review.
func (s *Server) handleVerdict(w http.ResponseWriter, r *http.Request) {
	ls := s.findSession(r.PathValue("id"))
	if ls == nil {
		s.errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}

	var req verdictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	ls.mu.Lock()
	awaiting := ls.status == StatusAwaitingReview
	ls.mu.Unlock()
	if !awaiting {
		s.errorResponse(w, http.StatusConflict, "Session is not awaiting review")
		return
	}

	select {
	case ls.verdicts <- session.Verdict{Accept: req.Accept, Feedback: req.Feedback}:
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"session_id": ls.id,
			"accepted":   req.Accept,
		})
	case <-r.Context().Done():
		s.errorResponse(w, http.StatusConflict, "Session stopped accepting verdicts")
	case <-ls.done:
		s.errorResponse(w, http.StatusConflict, "Session already finished")
	}
}

// handleStreamSession streams session progress as Server-Sent Events. The
// current state is sent first, then every transition until the session ends.
func (s *Server) handleStreamSession(w http.ResponseWriter, r *http.Request) {
	ls := s.findSession(r.PathValue("id"))
	if ls == nil {
		s.errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	sub := ls.subscribe()
	sse.WriteEvent("status", ls.snapshot()) //nolint:errcheck

	for {
		select {
		case ev := <-sub:
			if err := sse.WriteEvent(ev.Name, ev.Data); err != nil {
				return
			}
		case <-ls.done:
			// Drain anything published before done closed, then send the
			// terminal snapshot.
			for {
				select {
				case ev := <-sub:
					sse.WriteEvent(ev.Name, ev.Data) //nolint:errcheck
					continue
				default:
				}
				break
			}
			sse.WriteEvent("status", ls.snapshot()) //nolint:errcheck
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) findSession(id string) *liveSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}
