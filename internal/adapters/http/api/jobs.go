package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	service "github.com/sociometry/pulse/internal/app"
	"github.com/sociometry/pulse/internal/domain/model"
)

const (
	defaultJobListLimit = 50
	maxJobListLimit     = 500
)

// jobRequest mirrors the JSON schema for POST /jobs.
type jobRequest struct {
	ID      string           `json:"id,omitempty"`
	Type    string           `json:"type"`
	Payload model.JobPayload `json:"payload"`
}

func (j jobRequest) validate() error {
	if strings.TrimSpace(j.Type) == "" {
		return errors.New("missing type")
	}
	if !model.JobType(j.Type).Valid() {
		return errors.New("unknown job type: " + j.Type)
	}
	return nil
}

// JobsHandler handles job submission and journal queries.
type JobsHandler struct {
	deps Dependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps Dependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

// HandleJobs handles POST /jobs and GET /jobs requests.
func (h *JobsHandler) HandleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *JobsHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_job"
	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.Submit(r.Context(), model.Job{
		ID:      req.ID,
		Type:    model.JobType(req.Type),
		Payload: req.Payload,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", JobID: rec.ID})
	case errors.Is(err, service.ErrDuplicateJob):
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", JobID: rec.ID, Duplicate: true})
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
	case errors.Is(err, service.ErrNotAccepting):
		writeError(w, http.StatusServiceUnavailable, "not_accepting", err)
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrUnknownJobType):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func (h *JobsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_jobs"
	limit := defaultJobListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > maxJobListLimit {
			n = maxJobListLimit
		}
		limit = n
	}

	state := model.JobState(r.URL.Query().Get("state"))
	records := h.deps.Jobs(r.Context(), state, limit)
	writeJSON(w, http.StatusOK, map[string]any{"jobs": records, "count": len(records)})
}

// HandleGetJob handles GET /jobs/{id} requests.
func (h *JobsHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rec, err := h.deps.Job(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
