package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-autofill/internal/types"
)

func TestDebugRetrySequence(t *testing.T) {
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
		deadline := time.Now().Add(5 * time.Second)
		var state map[string]any
		for time.Now().Before(deadline) {
			w := get(t, s, "/sessions/"+id)
			require.Equal(t, http.StatusOK, w.Code)
			b := decodeBody(t, w)
			if b["status"] == string(StatusAwaitingReview) {
				state = b
				break
			}
			time.Sleep(5 * time.Millisecond)
		}
		fmt.Printf("iter=%d state=%v\n", i, state)
		w := postJSON(t, s, "/sessions/"+id+"/verdict",
			map[string]any{"accept": false, "feedback": "try again"})
		require.Equal(t, http.StatusOK, w.Code)
	}
}
