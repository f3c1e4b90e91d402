package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fysnerd/max-planner/internal/models"
)

// UpsertStations inserts or renames station reference rows.
func (s *SQLiteStore) UpsertStations(ctx context.Context, stations []models.Station) error {
	if len(stations) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stations (code, name) VALUES (?, ?)
		ON CONFLICT (code) DO UPDATE SET name = excluded.name
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare station upsert: %w", err)
	}
	defer stmt.Close()

	for _, station := range stations {
		if _, err := stmt.ExecContext(ctx, station.Code, station.Name); err != nil {
			return fmt.Errorf("failed to upsert station %s: %w", station.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stations: %w", err)
	}
	return nil
}

// SearchStations matches stations by name or code, case-insensitively. An
// empty query lists every station ordered by name.
func (s *SQLiteStore) SearchStations(ctx context.Context, query string, limit int) ([]models.Station, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if query == "" {
		rows, err = s.conn.QueryContext(ctx,
			"SELECT code, name FROM stations ORDER BY name LIMIT ?", limit)
	} else {
		pattern := "%" + query + "%"
		rows, err = s.conn.QueryContext(ctx, `
			SELECT code, name FROM stations
			WHERE lower(name) LIKE lower(?) OR lower(code) LIKE lower(?)
			ORDER BY name LIMIT ?
		`, pattern, pattern, limit)
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
