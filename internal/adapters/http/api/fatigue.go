package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sociometry/pulse/internal/adapters/repository"
	"github.com/sociometry/pulse/internal/domain/model"
)

const (
	defaultFatigueLimit = 20
	maxFatigueLimit     = 200
)

// actionRequest mirrors the JSON schema for POST /fatigue/{id}/action.
type actionRequest struct {
	Action string `json:"action"`
}

// FatigueHandler handles fatigue assessment queries and operator actions.
type FatigueHandler struct {
	deps Dependencies
}

// NewFatigueHandler creates a new fatigue handler.
func NewFatigueHandler(deps Dependencies) *FatigueHandler {
	return &FatigueHandler{deps: deps}
}

// HandleTopFatigued handles GET /fatigue requests.
func (h *FatigueHandler) HandleTopFatigued(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_fatigue"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	f := repository.Filter{PlatformID: r.URL.Query().Get("platform_id")}
	limit, ok := parseLimit(w, r, op)
	if !ok {
		return
	}
	f.Limit = limit

	if raw := r.URL.Query().Get("min_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil || score < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		f.MinScore = score
	}

	records, err := h.deps.TopFatigued(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
}

// HandleRefreshCandidates handles GET /fatigue/refresh-candidates requests.
func (h *FatigueHandler) HandleRefreshCandidates(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh_candidates"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit, ok := parseLimit(w, r, op)
	if !ok {
		return
	}

	records, err := h.deps.RefreshCandidates(r.Context(), r.URL.Query().Get("platform_id"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
}

// HandleHistory handles GET /fatigue/history requests.
func (h *FatigueHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.fatigue_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	contentID := r.URL.Query().Get("content_id")
	platformID := r.URL.Query().Get("platform_id")
	if contentID == "" || platformID == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("content_id and platform_id are required")))
		return
	}

	records, err := h.deps.FatigueHistory(r.Context(), contentID, platformID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
}

// HandleAction handles POST /fatigue/{id}/action requests.
func (h *FatigueHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	const op = "api.fatigue_action"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters: /fatigue/{id}/action
	rest := strings.TrimPrefix(r.URL.Path, "/fatigue/")
	id, tail, found := strings.Cut(rest, "/")
	if !found || id == "" || tail != "action" {
		http.NotFound(w, r)
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	action, err := model.ParseAction(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.MarkActionTaken(r.Context(), id, action)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// parseLimit reads the optional limit query parameter, writing a 400 and
// returning false when it is malformed.
func parseLimit(w http.ResponseWriter, r *http.Request, op string) (int, bool) {
	limit := defaultFatigueLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return 0, false
		}
		if n > maxFatigueLimit {
			n = maxFatigueLimit
		}
		limit = n
	}
	return limit, true
}
