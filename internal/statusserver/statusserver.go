// Package statusserver exposes a live view of an in-progress run over
// HTTP: a gorilla/mux router over an http.Server, with mutex-guarded
// in-memory state and path variables read via mux.Vars.
package statusserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/cctr-run/cctr/internal/runner"
)

// SuiteStatus is the live-updated view of one suite's progress.
type SuiteStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"` // "running" or "done"
	Passed    int    `json:"passed"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// Server serves GET /status and GET /status/{suite} over the current
// state of a run, updated via Report as suites complete.
type Server struct {
	server *http.Server
	mu     sync.RWMutex
	byName map[string]SuiteStatus
	order  []string
}

// New builds a Server bound to addr (e.g. ":8089"). Call ListenAndServe to
// run it and Shutdown to stop it.
func New(addr string) *Server {
	s := &Server{byName: map[string]SuiteStatus{}}

	router := mux.NewRouter()
	router.HandleFunc("/status", s.handleList).Methods("GET")
	router.HandleFunc("/status/{suite}", s.handleOne).Methods("GET")
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.server = &http.Server{Addr: addr, Handler: router}
	return s
}

// ListenAndServe blocks serving status requests until Shutdown is called.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.server.Close()
}

// MarkRunning records that suite has started.
func (s *Server) MarkRunning(suiteName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[suiteName]; !ok {
		s.order = append(s.order, suiteName)
	}
	s.byName[suiteName] = SuiteStatus{Name: suiteName, Status: "running"}
}

// Report records a completed SuiteResult for live status queries. It is
// safe to call from the scheduler's reporter callback.
func (s *Server) Report(r runner.SuiteResult) {
	passed, failed, skipped := r.Counts()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[r.SuiteName]; !ok {
		s.order = append(s.order, r.SuiteName)
	}
	s.byName[r.SuiteName] = SuiteStatus{
		Name:      r.SuiteName,
		Status:    "done",
		Passed:    passed,
		Failed:    failed,
		Skipped:   skipped,
		ElapsedMS: r.Elapsed.Milliseconds(),
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	out := make([]SuiteStatus, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleOne(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	suite := vars["suite"]

	s.mu.RLock()
	status, ok := s.byName[suite]
	s.mu.RUnlock()

	if !ok {
		http.Error(w, fmt.Sprintf("unknown suite %q", suite), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
