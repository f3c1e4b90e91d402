package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fysnerd/max-planner/internal/models"
)

const routeColumns = `
	r.id, r.origin_code, r.destination_code, r.label, r.days_of_week,
	r.departure_time_min, r.departure_time_max, r.alert_threshold,
	r.is_active, r.created_at,
	(SELECT name FROM stations WHERE code = r.origin_code),
	(SELECT name FROM stations WHERE code = r.destination_code)`

// CreateRoute inserts a watched route and fills in its ID and CreatedAt.
func (s *SQLiteStore) CreateRoute(ctx context.Context, route *models.WatchedRoute) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	route.DaysOfWeek = models.NormalizeDays(route.DaysOfWeek)
	route.CreatedAt = time.Now().UTC().Truncate(time.Second)

	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO watched_routes (
			origin_code, destination_code, label, days_of_week,
			departure_time_min, departure_time_max, alert_threshold,
			is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		route.OriginCode, route.DestinationCode, route.Label,
		encodeDays(route.DaysOfWeek),
		route.DepartureTimeMin, route.DepartureTimeMax,
		route.AlertThreshold, route.IsActive, formatTime(route.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert route: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read route id: %w", err)
	}
	route.ID = id
	return nil
}

// UpdateRoute overwrites all editable fields of the route.
func (s *SQLiteStore) UpdateRoute(ctx context.Context, route *models.WatchedRoute) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	route.DaysOfWeek = models.NormalizeDays(route.DaysOfWeek)

	res, err := s.conn.ExecContext(ctx, `
		UPDATE watched_routes SET
			origin_code = ?, destination_code = ?, label = ?, days_of_week = ?,
			departure_time_min = ?, departure_time_max = ?, alert_threshold = ?,
			is_active = ?
		WHERE id = ?
	`,
		route.OriginCode, route.DestinationCode, route.Label,
		encodeDays(route.DaysOfWeek),
		route.DepartureTimeMin, route.DepartureTimeMax,
		route.AlertThreshold, route.IsActive, route.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update route %d: %w", route.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRoute removes the route and its snapshots. Bookings keep their rows
// with the route reference nulled out by the schema.
func (s *SQLiteStore) DeleteRoute(ctx context.Context, id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM train_snapshots WHERE route_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete route snapshots: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM watched_routes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete route %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit route delete: %w", err)
	}
	return nil
}

// GetRoute loads one route by id.
func (s *SQLiteStore) GetRoute(ctx context.Context, id int64) (*models.WatchedRoute, error) {
	row := s.conn.QueryRowContext(ctx,
		"SELECT"+routeColumns+" FROM watched_routes r WHERE r.id = ?", id)
	route, err := scanRoute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return route, err
}

// ListRoutes returns every watched route with joined station names.
func (s *SQLiteStore) ListRoutes(ctx context.Context) ([]models.WatchedRoute, error) {
	return s.queryRoutes(ctx,
		"SELECT"+routeColumns+" FROM watched_routes r ORDER BY r.id")
}

// ListActiveRoutes returns the routes the poll planner expands, in persisted
// iteration order.
func (s *SQLiteStore) ListActiveRoutes(ctx context.Context) ([]models.WatchedRoute, error) {
	return s.queryRoutes(ctx,
		"SELECT"+routeColumns+" FROM watched_routes r WHERE r.is_active = 1 ORDER BY r.id")
}

func (s *SQLiteStore) queryRoutes(ctx context.Context, query string, args ...any) ([]models.WatchedRoute, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	var routes []models.WatchedRoute
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, *route)
	}
	return routes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (*models.WatchedRoute, error) {
	var (
		route      models.WatchedRoute
		days       string
		createdAt  string
		originName sql.NullString
		destName   sql.NullString
	)
	if err := row.Scan(
		&route.ID, &route.OriginCode, &route.DestinationCode, &route.Label,
		&days, &route.DepartureTimeMin, &route.DepartureTimeMax,
		&route.AlertThreshold, &route.IsActive, &createdAt,
		&originName, &destName,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan route: %w", err)
	}
	route.DaysOfWeek = decodeDays(days)
	route.CreatedAt = parseTime(createdAt)
	route.OriginName = originName.String
	route.DestinationName = destName.String
	return &route, nil
}
