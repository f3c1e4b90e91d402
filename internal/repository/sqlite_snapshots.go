package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/fysnerd/max-planner/internal/models"
)

// ReplaceSnapshots atomically swaps the snapshot set for (routeID, date):
// all existing rows for the pair are deleted and the given rows inserted in
// one transaction. An empty set clears the pair, which is how a route/date
// that no longer has qualifying trains drops its stale data.
func (s *SQLiteStore) ReplaceSnapshots(ctx context.Context, routeID int64, date string, snapshots []models.TrainSnapshot) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM train_snapshots
		WHERE route_id = ? AND substr(departure_time, 1, 10) = ?
	`, routeID, date); err != nil {
		return fmt.Errorf("failed to delete stale snapshots: %w", err)
	}

	if len(snapshots) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO train_snapshots (
				route_id, train_number, train_type, departure_time,
				arrival_time, seats_available, fetched_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare snapshot insert: %w", err)
		}
		defer stmt.Close()

		for _, snap := range snapshots {
			if _, err := stmt.ExecContext(ctx,
				routeID, snap.TrainNumber, snap.TrainType,
				snap.DepartureTime, snap.ArrivalTime,
				snap.Seats.Int(), formatTime(snap.FetchedAt),
			); err != nil {
				return fmt.Errorf("failed to insert snapshot %s: %w", snap.TrainNumber, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot replacement: %w", err)
	}
	return nil
}

// DeleteSnapshotsBefore removes every snapshot departing before the cutoff,
// across all routes. Departure strings are zero-padded ISO-8601, so the
// comparison is plain string order.
func (s *SQLiteStore) DeleteSnapshotsBefore(ctx context.Context, cutoff string) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.conn.ExecContext(ctx,
		"DELETE FROM train_snapshots WHERE departure_time < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired snapshots: %w", err)
	}
	deleted, _ := res.RowsAffected()
	return deleted, nil
}

// ListTrains returns snapshots joined with their route and station names,
// lowest seat counts first (the dashboard's priority order).
func (s *SQLiteStore) ListTrains(ctx context.Context, q TrainQuery) ([]models.TrainView, error) {
	query := `
		SELECT s.id, s.route_id, s.train_number, s.train_type,
			s.departure_time, s.arrival_time, s.seats_available, s.fetched_at,
			r.label, r.origin_code, r.destination_code, r.alert_threshold,
			(SELECT name FROM stations WHERE code = r.origin_code),
			(SELECT name FROM stations WHERE code = r.destination_code)
		FROM train_snapshots s
		JOIN watched_routes r ON r.id = s.route_id
		WHERE 1=1`
	var args []any
	if q.From != "" {
		query += " AND s.departure_time >= ?"
		args = append(args, q.From)
	}
	if q.RouteID != nil {
		query += " AND s.route_id = ?"
		args = append(args, *q.RouteID)
	}
	if q.Date != "" {
		query += " AND substr(s.departure_time, 1, 10) = ?"
		args = append(args, q.Date)
	}
	query += " ORDER BY s.seats_available, s.departure_time"
	if q.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(q.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trains: %w", err)
	}
	defer rows.Close()

	var trains []models.TrainView
	for rows.Next() {
		var (
			t          models.TrainView
			seats      int
			fetchedAt  string
			originName sql.NullString
			destName   sql.NullString
		)
		if err := rows.Scan(
			&t.ID, &t.RouteID, &t.TrainNumber, &t.TrainType,
			&t.DepartureTime, &t.ArrivalTime, &seats, &fetchedAt,
			&t.RouteLabel, &t.OriginCode, &t.DestinationCode, &t.AlertThreshold,
			&originName, &destName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan train: %w", err)
		}
		t.Seats = models.SeatCountFromInt(seats)
		t.FetchedAt = parseTime(fetchedAt)
		t.OriginName = originName.String
		t.DestinationName = destName.String
		trains = append(trains, t)
	}
	return trains, rows.Err()
}

// SnapshotsForRouteDate returns the raw snapshot rows of one (route, date)
// pair in insertion order.
func (s *SQLiteStore) SnapshotsForRouteDate(ctx context.Context, routeID int64, date string) ([]models.TrainSnapshot, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, route_id, train_number, train_type, departure_time,
			arrival_time, seats_available, fetched_at
		FROM train_snapshots
		WHERE route_id = ? AND substr(departure_time, 1, 10) = ?
		ORDER BY id
	`, routeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.TrainSnapshot
	for rows.Next() {
		var (
			snap      models.TrainSnapshot
			seats     int
			fetchedAt string
		)
		if err := rows.Scan(
			&snap.ID, &snap.RouteID, &snap.TrainNumber, &snap.TrainType,
			&snap.DepartureTime, &snap.ArrivalTime, &seats, &fetchedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.Seats = models.SeatCountFromInt(seats)
		snap.FetchedAt = parseTime(fetchedAt)
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}
