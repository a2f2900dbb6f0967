package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"yogastudio/internal/models"

	sq "github.com/Masterminds/squirrel"
)

// CreateBookingWithCapacity inserts a booking only while the class still has a free seat.
// The count and the insert are one statement, so concurrent callers cannot oversell.
// Returns ErrCapacityExceeded when full and ErrAlreadyBooked on a duplicate (user, class).
func (db *DB) CreateBookingWithCapacity(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (user_id, class_id, created_at)
              SELECT ?, c.id, ?
              FROM classes c
              WHERE c.id = ?
                AND (SELECT COUNT(*) FROM bookings b WHERE b.class_id = c.id) < c.max_participants`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query, booking.UserID, now, booking.ClassID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyBooked
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrCapacityExceeded
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	return nil
}

// GetBooking returns nil, nil when the booking does not exist.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	err := db.QueryRowContext(ctx, `SELECT id, user_id, class_id, created_at FROM bookings WHERE id = ?`, id).
		Scan(&b.ID, &b.UserID, &b.ClassID, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

// FindUserBooking looks a booking up by (user, class). Returns nil, nil when absent.
func (db *DB) FindUserBooking(ctx context.Context, userID, classID int64) (*models.Booking, error) {
	var b models.Booking
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, class_id, created_at FROM bookings WHERE user_id = ? AND class_id = ?`, userID, classID,
	).Scan(&b.ID, &b.UserID, &b.ClassID, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &b, nil
}

func (db *DB) CountClassBookings(ctx context.Context, classID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE class_id = ?`, classID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// DeleteBooking hard-deletes a booking owned by userID.
func (db *DB) DeleteBooking(ctx context.Context, bookingID, userID int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ? AND user_id = ?`, bookingID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// ListUserBookings lists a user's bookings with class details, soonest class first.
func (db *DB) ListUserBookings(ctx context.Context, userID int64) ([]*models.UserBooking, error) {
	query, args, err := sq.Select("b.id", "c.id", "c.name", "c.description", "c.starts_at", "c.price").
		From("bookings b").
		Join("classes c ON c.id = b.class_id").
		Where(sq.Eq{"b.user_id": userID}).
		OrderBy("c.starts_at", "b.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user bookings query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.UserBooking, 0)
	for rows.Next() {
		ub := &models.UserBooking{}
		if err := rows.Scan(&ub.ID, &ub.ClassID, &ub.ClassName, &ub.Description, &ub.ClassStartsAt, &ub.Price); err != nil {
			return nil, fmt.Errorf("failed to scan user booking: %w", err)
		}
		bookings = append(bookings, ub)
	}
	return bookings, rows.Err()
}

var bookingRecordColumns = []string{
	"b.id", "c.id", "c.name", "c.starts_at", "u.telegram_id", "u.full_name", "u.phone", "b.created_at",
}

func bookingRecordQuery() sq.SelectBuilder {
	return sq.Select(bookingRecordColumns...).
		From("bookings b").
		Join("classes c ON c.id = b.class_id").
		Join("users u ON u.id = b.user_id")
}

// GetBookingRecord returns the joined booking, or nil, nil when it does not exist.
func (db *DB) GetBookingRecord(ctx context.Context, bookingID int64) (*models.BookingRecord, error) {
	query, args, err := bookingRecordQuery().Where(sq.Eq{"b.id": bookingID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build booking record query: %w", err)
	}

	var r models.BookingRecord
	err = db.QueryRowContext(ctx, query, args...).Scan(
		&r.BookingID, &r.ClassID, &r.ClassName, &r.ClassStartsAt, &r.TelegramID, &r.FullName, &r.Phone, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking record: %w", err)
	}
	return &r, nil
}

// ListBookingRecords lists bookings for classes starting in [from, to).
func (db *DB) ListBookingRecords(ctx context.Context, from, to time.Time) ([]*models.BookingRecord, error) {
	builder := bookingRecordQuery().OrderBy("c.starts_at", "c.id", "b.id")
	if !from.IsZero() {
		builder = builder.Where(sq.GtOrEq{"c.starts_at": from.UTC()})
	}
	if !to.IsZero() {
		builder = builder.Where(sq.Lt{"c.starts_at": to.UTC()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build booking records query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking records: %w", err)
	}
	defer rows.Close()

	var records []*models.BookingRecord
	for rows.Next() {
		r := &models.BookingRecord{}
		if err := rows.Scan(
			&r.BookingID, &r.ClassID, &r.ClassName, &r.ClassStartsAt, &r.TelegramID, &r.FullName, &r.Phone, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
