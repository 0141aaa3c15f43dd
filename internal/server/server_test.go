package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-autofill/internal/cache"
	"github.com/jonathan/form-autofill/internal/server/ratelimit"
	"github.com/jonathan/form-autofill/internal/session"
	"github.com/jonathan/form-autofill/internal/types"
)

// scriptedRunner runs one review round per configured report, accepting the
// verifier's verdicts the way the real controller does.
type scriptedRunner struct {
	reports []*types.FillReport
	err     error
}

func (r *scriptedRunner) Run(ctx context.Context, _ RunRequest, verifier session.Verifier) (*session.Outcome, error) {
	if r.err != nil {
		return nil, r.err
	}

	sess := types.NewAutofillSession()
	var outcome *session.Outcome
	for i, report := range r.reports {
		outcome = &session.Outcome{
			Session: sess,
			Report:  report,
			Summary: fmt.Sprintf("pass %d", i+1),
			State:   session.StateVerifying,
		}

		verdict, err := verifier.Review(ctx, outcome, sess.CanRetry())
		if err != nil {
			return nil, err
		}
		if verdict.Accept {
			outcome.State = session.StateAccepted
			return outcome, nil
		}
		if !sess.CanRetry() {
			outcome.State = session.StateExhausted
			return outcome, nil
		}
		sess.AttemptNumber++
	}

	outcome.State = session.StateExhausted
	return outcome, nil
}

func newTestServer(t *testing.T, runner Runner) *Server {
	t.Helper()
	s, err := New(Config{
		Cache:     cache.New(cache.NewMemoryStore(), nil, nil),
		Runner:    runner,
		RateLimit: &ratelimit.Config{Enabled: false},
	})
	require.NoError(t, err)
	return s
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func validSessionRequest() map[string]any {
	return map[string]any{
		"url": "https://boards.greenhouse.io/acme/jobs/1",
		"profile": map[string]any{
			"name":  "Dana Smith",
			"email": "dana@example.com",
		},
	}
}

// waitForStatus polls until the session reaches the wanted status.
func waitForStatus(t *testing.T, s *Server, id string, want SessionStatus) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w := get(t, s, "/sessions/"+id)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		if body["status"] == string(want) {
			return body
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session %s never reached status %s", id, want)
	return nil
}

func TestCreateSession_AcceptFlow(t *testing.T) {
	runner := &scriptedRunner{reports: []*types.FillReport{
		{FilledCount: 2, TotalFields: 2},
	}}
	s := newTestServer(t, runner)

	w := postJSON(t, s, "/sessions", validSessionRequest())
	require.Equal(t, http.StatusAccepted, w.Code)
	body := decodeBody(t, w)
	id := body["session_id"].(string)
	require.NotEmpty(t, id)

	state := waitForStatus(t, s, id, StatusAwaitingReview)
	assert.Equal(t, true, state["can_retry"])
	assert.Equal(t, "pass 1", state["summary"])

	w = postJSON(t, s, "/sessions/"+id+"/verdict", map[string]any{"accept": true})
	require.Equal(t, http.StatusOK, w.Code)

	waitForStatus(t, s, id, StatusAccepted)
}

func TestCreateSession_RetryThenExhausted(t *testing.T) {
	runner := &scriptedRunner{reports: []*types.FillReport{
		{FilledCount: 1, TotalFields: 2},
		{FilledCount: 1, TotalFields: 2},
		{FilledCount: 1, TotalFields: 2},
		{FilledCount: 1, TotalFields: 2},
	}}
	s := newTestServer(t, runner)

	body := decodeBody(t, postJSON(t, s, "/sessions", validSessionRequest()))
	id := body["session_id"].(string)

	for i := 0; i < 4; i++ {
		state := waitForStatus(t, s, id, StatusAwaitingReview)
		if i == 3 {
			assert.Equal(t, false, state["can_retry"])
		}
		w := postJSON(t, s, "/sessions/"+id+"/verdict",
			map[string]any{"accept": false, "feedback": "try again"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	state := waitForStatus(t, s, id, StatusExhausted)
	assert.Equal(t, float64(3), state["attempt"])
}

func TestCreateSession_ValidationErrors(t *testing.T) {
	s := newTestServer(t, &scriptedRunner{})

	// Missing URL
	w := postJSON(t, s, "/sessions", map[string]any{
		"profile": map[string]any{"name": "Dana", "email": "d@e.com"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "'url' is required")

	// Missing profile
	w = postJSON(t, s, "/sessions", map[string]any{"url": "https://example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "'profile' is required")

	// Invalid profile (no email)
	w = postJSON(t, s, "/sessions", map[string]any{
		"url":     "https://example.com",
		"profile": map[string]any{"name": "Dana"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid profile")
}

func TestCreateSession_RunnerError(t *testing.T) {
	runner := &scriptedRunner{err: fmt.Errorf("browser launch failed")}
	s := newTestServer(t, runner)

	body := decodeBody(t, postJSON(t, s, "/sessions", validSessionRequest()))
	id := body["session_id"].(string)

	state := waitForStatus(t, s, id, StatusFailed)
	assert.Contains(t, state["error"], "browser launch failed")
}

func TestVerdict_NotAwaitingReview(t *testing.T) {
	runner := &scriptedRunner{err: fmt.Errorf("boom")}
	s := newTestServer(t, runner)

	body := decodeBody(t, postJSON(t, s, "/sessions", validSessionRequest()))
	id := body["session_id"].(string)
	waitForStatus(t, s, id, StatusFailed)

	w := postJSON(t, s, "/sessions/"+id+"/verdict", map[string]any{"accept": true})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestVerdict_UnknownSession(t *testing.T) {
	s := newTestServer(t, &scriptedRunner{})

	w := postJSON(t, s, "/sessions/nope/verdict", map[string]any{"accept": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSession_NotFound(t *testing.T) {
	s := newTestServer(t, &scriptedRunner{})

	w := get(t, s, "/sessions/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &scriptedRunner{})

	w := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestCacheEndpoints(t *testing.T) {
	s := newTestServer(t, &scriptedRunner{})
	ctx := context.Background()

	s.cache.Put(ctx, "greenhouse:application", []types.FieldShape{{Selector: "#name"}})
	s.cache.Put(ctx, "lever:application", []types.FieldShape{{Selector: "#email"}})

	w := get(t, s, "/cache")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["total"])

	req := httptest.NewRequest(http.MethodDelete, "/cache/greenhouse:application", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, s.cache.Get(ctx, "greenhouse:application"))
	assert.NotNil(t, s.cache.Get(ctx, "lever:application"))

	req = httptest.NewRequest(http.MethodDelete, "/cache", nil)
	rec = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.cache.List(ctx))
}

func TestRateLimit(t *testing.T) {
	s, err := New(Config{
		Cache:  cache.New(cache.NewMemoryStore(), nil, nil),
		Runner: &scriptedRunner{},
		RateLimit: &ratelimit.Config{
			Enabled: true,
			Limit:   60,
			Window:  time.Minute,
			Burst:   2,
		},
	})
	require.NoError(t, err)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := get(t, s, "/health")
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{Runner: &scriptedRunner{}})
	assert.Error(t, err)

	_, err = New(Config{Cache: cache.New(cache.NewMemoryStore(), nil, nil)})
	assert.Error(t, err)
}
