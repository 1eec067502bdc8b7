package statusserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cctr-run/cctr/internal/runner"
)

// newTestRouter rebuilds New's /status routes without binding a real
// listener, so handlers can be exercised with httptest.
func newTestRouter(s *Server) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/status", s.handleList).Methods("GET")
	router.HandleFunc("/status/{suite}", s.handleOne).Methods("GET")
	return router
}

func TestStatusListAndOne(t *testing.T) {
	s := New(":0")
	s.Report(runner.SuiteResult{
		SuiteName: "basic",
		Elapsed:   2 * time.Second,
		Tests: []runner.TestResult{
			{Outcome: runner.Passed},
			{Outcome: runner.Failed},
		},
	})

	router := newTestRouter(s)

	req := httptest.NewRequest("GET", "/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []SuiteStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "basic", list[0].Name)
	assert.Equal(t, 1, list[0].Passed)
	assert.Equal(t, 1, list[0].Failed)

	req2 := httptest.NewRequest("GET", "/status/basic", nil)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	require.Equal(t, http.StatusOK, rec2.Code)

	req3 := httptest.NewRequest("GET", "/status/missing", nil)
	rec3 := httptest.NewRecorder()
	router.ServeHTTP(rec3, req3)
	assert.Equal(t, http.StatusNotFound, rec3.Code)
}

func TestMarkRunningThenReportTransitionsStatus(t *testing.T) {
	s := New(":0")
	s.MarkRunning("basic")

	router := newTestRouter(s)
	req := httptest.NewRequest("GET", "/status/basic", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var status SuiteStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "running", status.Status)

	s.Report(runner.SuiteResult{
		SuiteName: "basic",
		Tests:     []runner.TestResult{{Outcome: runner.Passed}},
	})

	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, httptest.NewRequest("GET", "/status/basic", nil))
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &status))
	assert.Equal(t, "done", status.Status)
}
