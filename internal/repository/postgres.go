package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fysnerd/max-planner/internal/models"
)

//go:embed schema_postgres.sql
var schemaPostgresSQL string

// PostgresStore implements the same surface as SQLiteStore on a shared
// Postgres database. Postgres serializes concurrent writers itself, so no
// write mutex is needed here.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the database and applies the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaPostgresSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Println("Connected to Postgres database")
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// UpsertStations inserts or renames station reference rows.
func (s *PostgresStore) UpsertStations(ctx context.Context, stations []models.Station) error {
	if len(stations) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, station := range stations {
		if _, err := tx.Exec(ctx, `
			INSERT INTO stations (code, name) VALUES ($1, $2)
			ON CONFLICT (code) DO UPDATE SET name = excluded.name
		`, station.Code, station.Name); err != nil {
			return fmt.Errorf("failed to upsert station %s: %w", station.Code, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit stations: %w", err)
	}
	return nil
}

// SearchStations matches stations by name or code, case-insensitively.
func (s *PostgresStore) SearchStations(ctx context.Context, query string, limit int) ([]models.Station, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if query == "" {
		rows, err = s.pool.Query(ctx,
			"SELECT code, name FROM stations ORDER BY name LIMIT $1", limit)
	} else {
		pattern := "%" + query + "%"
		rows, err = s.pool.Query(ctx, `
			SELECT code, name FROM stations
			WHERE name ILIKE $1 OR code ILIKE $1
			ORDER BY name LIMIT $2
		`, pattern, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.Code, &st.Name); err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

const pgRouteColumns = `
	r.id, r.origin_code, r.destination_code, r.label, r.days_of_week,
	r.departure_time_min, r.departure_time_max, r.alert_threshold,
	r.is_active, r.created_at,
	(SELECT name FROM stations WHERE code = r.origin_code),
	(SELECT name FROM stations WHERE code = r.destination_code)`

// CreateRoute inserts a watched route and fills in its ID and CreatedAt.
func (s *PostgresStore) CreateRoute(ctx context.Context, route *models.WatchedRoute) error {
	route.DaysOfWeek = models.NormalizeDays(route.DaysOfWeek)
	route.CreatedAt = time.Now().UTC().Truncate(time.Second)

	err := s.pool.QueryRow(ctx, `
		INSERT INTO watched_routes (
			origin_code, destination_code, label, days_of_week,
			departure_time_min, departure_time_max, alert_threshold,
			is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		route.OriginCode, route.DestinationCode, route.Label,
		encodeDays(route.DaysOfWeek),
		route.DepartureTimeMin, route.DepartureTimeMax,
		route.AlertThreshold, route.IsActive, formatTime(route.CreatedAt),
	).Scan(&route.ID)
	if err != nil {
		return fmt.Errorf("failed to insert route: %w", err)
	}
	return nil
}

// UpdateRoute overwrites all editable fields of the route.
func (s *PostgresStore) UpdateRoute(ctx context.Context, route *models.WatchedRoute) error {
	route.DaysOfWeek = models.NormalizeDays(route.DaysOfWeek)

	tag, err := s.pool.Exec(ctx, `
		UPDATE watched_routes SET
			origin_code = $1, destination_code = $2, label = $3, days_of_week = $4,
			departure_time_min = $5, departure_time_max = $6, alert_threshold = $7,
			is_active = $8
		WHERE id = $9
	`,
		route.OriginCode, route.DestinationCode, route.Label,
		encodeDays(route.DaysOfWeek),
		route.DepartureTimeMin, route.DepartureTimeMax,
		route.AlertThreshold, route.IsActive, route.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update route %d: %w", route.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRoute removes the route and its snapshots.
func (s *PostgresStore) DeleteRoute(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM train_snapshots WHERE route_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete route snapshots: %w", err)
	}
	tag, err := tx.Exec(ctx, "DELETE FROM watched_routes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete route %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit route delete: %w", err)
	}
	return nil
}

// GetRoute loads one route by id.
func (s *PostgresStore) GetRoute(ctx context.Context, id int64) (*models.WatchedRoute, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT"+pgRouteColumns+" FROM watched_routes r WHERE r.id = $1", id)
	route, err := scanPgRoute(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return route, err
}

// ListRoutes returns every watched route with joined station names.
func (s *PostgresStore) ListRoutes(ctx context.Context) ([]models.WatchedRoute, error) {
	return s.queryRoutes(ctx,
		"SELECT"+pgRouteColumns+" FROM watched_routes r ORDER BY r.id")
}

// ListActiveRoutes returns the routes the poll planner expands.
func (s *PostgresStore) ListActiveRoutes(ctx context.Context) ([]models.WatchedRoute, error) {
	return s.queryRoutes(ctx,
		"SELECT"+pgRouteColumns+" FROM watched_routes r WHERE r.is_active ORDER BY r.id")
}

func (s *PostgresStore) queryRoutes(ctx context.Context, query string, args ...any) ([]models.WatchedRoute, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	var routes []models.WatchedRoute
	for rows.Next() {
		route, err := scanPgRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, *route)
	}
	return routes, rows.Err()
}

func scanPgRoute(row pgx.Row) (*models.WatchedRoute, error) {
	var (
		route      models.WatchedRoute
		days       string
		createdAt  string
		originName *string
		destName   *string
	)
	if err := row.Scan(
		&route.ID, &route.OriginCode, &route.DestinationCode, &route.Label,
		&days, &route.DepartureTimeMin, &route.DepartureTimeMax,
		&route.AlertThreshold, &route.IsActive, &createdAt,
		&originName, &destName,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan route: %w", err)
	}
	route.DaysOfWeek = decodeDays(days)
	route.CreatedAt = parseTime(createdAt)
	if originName != nil {
		route.OriginName = *originName
	}
	if destName != nil {
		route.DestinationName = *destName
	}
	return &route, nil
}

// ReplaceSnapshots atomically swaps the snapshot set for (routeID, date).
func (s *PostgresStore) ReplaceSnapshots(ctx context.Context, routeID int64, date string, snapshots []models.TrainSnapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM train_snapshots
		WHERE route_id = $1 AND substr(departure_time, 1, 10) = $2
	`, routeID, date); err != nil {
		return fmt.Errorf("failed to delete stale snapshots: %w", err)
	}

	for _, snap := range snapshots {
		if _, err := tx.Exec(ctx, `
			INSERT INTO train_snapshots (
				route_id, train_number, train_type, departure_time,
				arrival_time, seats_available, fetched_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			routeID, snap.TrainNumber, snap.TrainType,
			snap.DepartureTime, snap.ArrivalTime,
			snap.Seats.Int(), formatTime(snap.FetchedAt),
		); err != nil {
			return fmt.Errorf("failed to insert snapshot %s: %w", snap.TrainNumber, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot replacement: %w", err)
	}
	return nil
}

// DeleteSnapshotsBefore removes every snapshot departing before the cutoff.
func (s *PostgresStore) DeleteSnapshotsBefore(ctx context.Context, cutoff string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM train_snapshots WHERE departure_time < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListTrains returns snapshots joined with route and station names, lowest
// seat counts first.
func (s *PostgresStore) ListTrains(ctx context.Context, q TrainQuery) ([]models.TrainView, error) {
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
		args = append(args, q.From)
		query += fmt.Sprintf(" AND s.departure_time >= $%d", len(args))
	}
	if q.RouteID != nil {
		args = append(args, *q.RouteID)
		query += fmt.Sprintf(" AND s.route_id = $%d", len(args))
	}
	if q.Date != "" {
		args = append(args, q.Date)
		query += fmt.Sprintf(" AND substr(s.departure_time, 1, 10) = $%d", len(args))
	}
	query += " ORDER BY s.seats_available, s.departure_time"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
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
			originName *string
			destName   *string
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
		if originName != nil {
			t.OriginName = *originName
		}
		if destName != nil {
			t.DestinationName = *destName
		}
		trains = append(trains, t)
	}
	return trains, rows.Err()
}

// SnapshotsForRouteDate returns the raw snapshot rows of one (route, date)
// pair in insertion order.
func (s *PostgresStore) SnapshotsForRouteDate(ctx context.Context, routeID int64, date string) ([]models.TrainSnapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, route_id, train_number, train_type, departure_time,
			arrival_time, seats_available, fetched_at
		FROM train_snapshots
		WHERE route_id = $1 AND substr(departure_time, 1, 10) = $2
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

// CreatePollLog inserts a status=running audit row and returns its id.
func (s *PostgresStore) CreatePollLog(ctx context.Context, startedAt time.Time) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO poll_logs (id, started_at, status) VALUES ($1, $2, $3)
	`, id, formatTime(startedAt), models.PollStatusRunning)
	if err != nil {
		return "", fmt.Errorf("failed to create poll log: %w", err)
	}
	return id, nil
}

// FinalizePollLog records the outcome of a run.
func (s *PostgresStore) FinalizePollLog(ctx context.Context, id string, completedAt time.Time, status string, routesPolled, trainsFound int, errMsg *string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE poll_logs
		SET completed_at = $1, status = $2, routes_polled = $3, trains_found = $4, error = $5
		WHERE id = $6
	`, formatTime(completedAt), status, routesPolled, trainsFound, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to finalize poll log %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPollLogs returns the run history, newest first.
func (s *PostgresStore) ListPollLogs(ctx context.Context, limit int) ([]models.PollLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, started_at, completed_at, status, routes_polled, trains_found, error
		FROM poll_logs
		ORDER BY started_at DESC
		LIMIT $1
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
			completedAt *string
		)
		if err := rows.Scan(
			&entry.ID, &startedAt, &completedAt, &entry.Status,
			&entry.RoutesPolled, &entry.TrainsFound, &entry.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan poll log: %w", err)
		}
		entry.StartedAt = parseTime(startedAt)
		if completedAt != nil {
			t := parseTime(*completedAt)
			entry.CompletedAt = &t
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// CreateBooking inserts a reservation, rejecting duplicates of the
// (trainNumber, departureTime) identity.
func (s *PostgresStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	var exists int
	err := s.pool.QueryRow(ctx, `
		SELECT 1 FROM bookings WHERE train_number = $1 AND departure_time = $2
	`, booking.TrainNumber, booking.DepartureTime).Scan(&exists)
	if err == nil {
		return ErrDuplicateBooking
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to check existing booking: %w", err)
	}

	booking.BookedAt = time.Now().UTC().Truncate(time.Second)
	err = s.pool.QueryRow(ctx, `
		INSERT INTO bookings (
			train_number, departure_time, arrival_time,
			origin_code, destination_code, route_id, booked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		booking.TrainNumber, booking.DepartureTime, booking.ArrivalTime,
		booking.OriginCode, booking.DestinationCode, booking.RouteID,
		formatTime(booking.BookedAt),
	).Scan(&booking.ID)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

// DeleteBooking removes a reservation by id.
func (s *PostgresStore) DeleteBooking(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM bookings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete booking %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBookingsBetween returns bookings departing in [from, to) with joined
// station names.
func (s *PostgresStore) ListBookingsBetween(ctx context.Context, from, to string) ([]models.Booking, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT b.id, b.train_number, b.departure_time, b.arrival_time,
			b.origin_code, b.destination_code, b.route_id, b.booked_at,
			(SELECT name FROM stations WHERE code = b.origin_code),
			(SELECT name FROM stations WHERE code = b.destination_code)
		FROM bookings b
		WHERE b.departure_time >= $1 AND b.departure_time < $2
		ORDER BY b.departure_time
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var (
			b          models.Booking
			bookedAt   string
			originName *string
			destName   *string
		)
		if err := rows.Scan(
			&b.ID, &b.TrainNumber, &b.DepartureTime, &b.ArrivalTime,
			&b.OriginCode, &b.DestinationCode, &b.RouteID, &bookedAt,
			&originName, &destName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.BookedAt = parseTime(bookedAt)
		if originName != nil {
			b.OriginName = *originName
		}
		if destName != nil {
			b.DestinationName = *destName
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
