package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fysnerd/max-planner/internal/models"
)

// CreateBooking inserts a reservation. Booking identity is the
// (trainNumber, departureTime) pair; an existing row with the same identity
// yields ErrDuplicateBooking regardless of route.
func (s *SQLiteStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var exists int
	err := s.conn.QueryRowContext(ctx, `
		SELECT 1 FROM bookings WHERE train_number = ? AND departure_time = ?
	`, booking.TrainNumber, booking.DepartureTime).Scan(&exists)
	if err == nil {
		return ErrDuplicateBooking
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check existing booking: %w", err)
	}

	booking.BookedAt = time.Now().UTC().Truncate(time.Second)
	res, err := s.conn.ExecContext(ctx, `
		INSERT INTO bookings (
			train_number, departure_time, arrival_time,
			origin_code, destination_code, route_id, booked_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		booking.TrainNumber, booking.DepartureTime, booking.ArrivalTime,
		booking.OriginCode, booking.DestinationCode, booking.RouteID,
		formatTime(booking.BookedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read booking id: %w", err)
	}
	booking.ID = id
	return nil
}

// DeleteBooking removes a reservation by id.
func (s *SQLiteStore) DeleteBooking(ctx context.Context, id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.conn.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete booking %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBookingsBetween returns bookings departing in [from, to), ISO-8601
// string compare, with joined station names.
func (s *SQLiteStore) ListBookingsBetween(ctx context.Context, from, to string) ([]models.Booking, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT b.id, b.train_number, b.departure_time, b.arrival_time,
			b.origin_code, b.destination_code, b.route_id, b.booked_at,
			(SELECT name FROM stations WHERE code = b.origin_code),
			(SELECT name FROM stations WHERE code = b.destination_code)
		FROM bookings b
		WHERE b.departure_time >= ? AND b.departure_time < ?
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
			originName sql.NullString
			destName   sql.NullString
		)
		if err := rows.Scan(
			&b.ID, &b.TrainNumber, &b.DepartureTime, &b.ArrivalTime,
			&b.OriginCode, &b.DestinationCode, &b.RouteID, &bookedAt,
			&originName, &destName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.BookedAt = parseTime(bookedAt)
		b.OriginName = originName.String
		b.DestinationName = destName.String
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
