package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fysnerd/max-planner/internal/models"
	"github.com/fysnerd/max-planner/internal/poller"
)

type fakeTrigger struct {
	err error
}

func (f *fakeTrigger) Run(ctx context.Context) error { return f.err }

type fakePollLogRepo struct {
	logs  []models.PollLog
	limit int
}

func (f *fakePollLogRepo) ListPollLogs(ctx context.Context, limit int) ([]models.PollLog, error) {
	f.limit = limit
	return f.logs, nil
}

func TestRefresh(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		wantStatus  int
		wantOK      bool
		wantMessage string
	}{
		{"completed", nil, http.StatusOK, true, "refresh completed"},
		{"already running", poller.ErrAlreadyRunning, http.StatusOK, true, "poll already running"},
		{"run failed", errors.New("failed to load active routes"), http.StatusInternalServerError, false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewPollHandler(&fakeTrigger{err: tc.err}, &fakePollLogRepo{})
			rec := httptest.NewRecorder()
			h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var resp RefreshResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.OK != tc.wantOK || resp.Message != tc.wantMessage {
				t.Fatalf("response = %+v", resp)
			}
			if !tc.wantOK && resp.Error == "" {
				t.Fatal("failure response must carry the error")
			}
		})
	}
}

func TestPollLogsLimit(t *testing.T) {
	repo := &fakePollLogRepo{}
	h := NewPollHandler(&fakeTrigger{}, repo)

	rec := httptest.NewRecorder()
	h.Logs(rec, httptest.NewRequest(http.MethodGet, "/api/poll-logs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if repo.limit != 20 {
		t.Fatalf("default limit = %d, want 20", repo.limit)
	}

	rec = httptest.NewRecorder()
	h.Logs(rec, httptest.NewRequest(http.MethodGet, "/api/poll-logs?limit=5", nil))
	if repo.limit != 5 {
		t.Fatalf("limit = %d, want 5", repo.limit)
	}

	rec = httptest.NewRecorder()
	h.Logs(rec, httptest.NewRequest(http.MethodGet, "/api/poll-logs?limit=0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for limit below 1", rec.Code)
	}
}
