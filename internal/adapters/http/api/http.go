// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sociometry/pulse/internal/adapters/repository"
	"github.com/sociometry/pulse/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit enqueues a job for async processing.
	Submit(ctx context.Context, job model.Job) (model.JobRecord, error)

	// Job lookups expose the orchestrator journal.
	Job(ctx context.Context, id string) (model.JobRecord, error)
	Jobs(ctx context.Context, state model.JobState, limit int) []model.JobRecord

	// Read operations expose fatigue assessments.
	TopFatigued(ctx context.Context, f repository.Filter) ([]model.FatigueRecord, error)
	RefreshCandidates(ctx context.Context, platformID string, limit int) ([]model.FatigueRecord, error)
	FatigueHistory(ctx context.Context, contentID, platformID string) ([]model.FatigueRecord, error)
	MarkActionTaken(ctx context.Context, id string, action model.Action) (model.FatigueRecord, error)

	// Accepting reports whether the service takes new jobs.
	Accepting() bool
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	metricsHandler *MetricsHandler
	statsHandler   *StatsHandler
	jobsHandler    *JobsHandler
	fatigueHandler *FatigueHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(deps),
		metricsHandler: NewMetricsHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		jobsHandler:    NewJobsHandler(deps),
		fatigueHandler: NewFatigueHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.metricsHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/jobs", MetricsMiddleware(s.jobsHandler.HandleJobs, "jobs"))
	mux.HandleFunc("/jobs/", MetricsMiddleware(s.jobsHandler.HandleGetJob, "job"))
	mux.HandleFunc("/fatigue", MetricsMiddleware(s.fatigueHandler.HandleTopFatigued, "fatigue"))
	mux.HandleFunc("/fatigue/refresh-candidates", MetricsMiddleware(s.fatigueHandler.HandleRefreshCandidates, "refresh_candidates"))
	mux.HandleFunc("/fatigue/history", MetricsMiddleware(s.fatigueHandler.HandleHistory, "fatigue_history"))
	mux.HandleFunc("/fatigue/", MetricsMiddleware(s.fatigueHandler.HandleAction, "fatigue_action"))
}

type ackResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
