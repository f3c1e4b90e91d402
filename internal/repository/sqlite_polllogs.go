package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fysnerd/max-planner/internal/models"
)

// CreatePollLog inserts a status=running audit row for a starting run and
// returns its id.
func (s *SQLiteStore) CreatePollLog(ctx context.Context, startedAt time.Time) (string, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := uuid.New().String()
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO poll_logs (id, started_at, status) VALUES (?, ?, ?)
	`, id, formatTime(startedAt), models.PollStatusRunning)
	if err != nil {
		return "", fmt.Errorf("failed to create poll log: %w", err)
	}
	return id, nil
}

// FinalizePollLog records the outcome of a run. Called exactly once per run,
// on every exit path of the orchestrator.
func (s *SQLiteStore) FinalizePollLog(ctx context.Context, id string, completedAt time.Time, status string, routesPolled, trainsFound int, errMsg *string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.conn.ExecContext(ctx, `
		UPDATE poll_logs
		SET completed_at = ?, status = ?, routes_polled = ?, trains_found = ?, error = ?
		WHERE id = ?
	`, formatTime(completedAt), status, routesPolled, trainsFound, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to finalize poll log %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPollLogs returns the run history, newest first.
func (s *SQLiteStore) ListPollLogs(ctx context.Context, limit int) ([]models.PollLog, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, started_at, completed_at, status, routes_polled, trains_found, error
		FROM poll_logs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query poll logs: %w", err)
	}
	defer rows.Close()

	var logs []models.PollLog
	for rows.Next() {
		var (
			entry       models.PollLog
			startedAt   string
			completedAt sql.NullString
		)
		if err := rows.Scan(
			&entry.ID, &startedAt, &completedAt, &entry.Status,
			&entry.RoutesPolled, &entry.TrainsFound, &entry.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan poll log: %w", err)
		}
		entry.StartedAt = parseTime(startedAt)
		if completedAt.Valid {
			t := parseTime(completedAt.String)
			entry.CompletedAt = &t
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
