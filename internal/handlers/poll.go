package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/fysnerd/max-planner/internal/models"
	"github.com/fysnerd/max-planner/internal/poller"
)

// PollTrigger starts a poll cycle. Implemented by *poller.Poller.
type PollTrigger interface {
	Run(ctx context.Context) error
}

// PollLogRepository defines the interface for run-history reads
type PollLogRepository interface {
	ListPollLogs(ctx context.Context, limit int) ([]models.PollLog, error)
}

// PollHandler handles the manual refresh trigger and the audit history
type PollHandler struct {
	trigger PollTrigger
	repo    PollLogRepository
}

// NewPollHandler creates a new handler around the trigger and repository
func NewPollHandler(trigger PollTrigger, repo PollLogRepository) *PollHandler {
	return &PollHandler{trigger: trigger, repo: repo}
}

// RefreshResponse is the JSON response structure for POST /api/refresh
type RefreshResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Refresh handles POST /api/refresh
// Runs a poll cycle synchronously. A cycle already in progress is not a
// failure: the request is acknowledged and the running cycle left alone.
func (h *PollHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	err := h.trigger.Run(r.Context())
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, RefreshResponse{OK: true, Message: "refresh completed"})
	case errors.Is(err, poller.ErrAlreadyRunning):
		respondJSON(w, http.StatusOK, RefreshResponse{OK: true, Message: "poll already running"})
	default:
		respondJSON(w, http.StatusInternalServerError, RefreshResponse{OK: false, Error: err.Error()})
	}
}

// Logs handles GET /api/poll-logs?limit=
func (h *PollHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	logs, err := h.repo.ListPollLogs(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list poll logs")
		return
	}
	if logs == nil {
		logs = []models.PollLog{}
	}
	respondJSON(w, http.StatusOK, logs)
}
