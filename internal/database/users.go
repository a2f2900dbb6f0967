package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"yogastudio/internal/models"
)

const userColumns = `id, telegram_id, full_name, phone, agreed_to_offer, is_admin, created_at`

// CreateUser inserts a new user. A duplicate telegram id yields ErrUserExists.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (telegram_id, full_name, phone, agreed_to_offer, is_admin, created_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		user.TelegramID,
		user.FullName,
		user.Phone,
		user.AgreedToOffer,
		user.IsAdmin,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	return nil
}

// GetUserByTelegramID returns nil, nil when no such user exists.
func (db *DB) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = ?`, telegramID)
}

// GetUserByID returns nil, nil when no such user exists.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (db *DB) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.TelegramID, &user.FullName, &user.Phone,
		&user.AgreedToOffer, &user.IsAdmin, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// SetOfferConsent writes the consent flag. Repeated writes of the same value are harmless,
// so the membership event handler and the startup sweep may race freely.
// It reports whether a user row was matched.
func (db *DB) SetOfferConsent(ctx context.Context, telegramID int64, agreed bool) (bool, error) {
	result, err := db.ExecContext(ctx, `UPDATE users SET agreed_to_offer = ? WHERE telegram_id = ?`, agreed, telegramID)
	if err != nil {
		return false, fmt.Errorf("failed to update consent: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// GetConsentingUsers lists users whose consent flag is set.
func (db *DB) GetConsentingUsers(ctx context.Context) ([]*models.User, error) {
	return db.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE agreed_to_offer = 1 ORDER BY id`)
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return db.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

func (db *DB) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*models.User, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(
			&u.ID, &u.TelegramID, &u.FullName, &u.Phone,
			&u.AgreedToOffer, &u.IsAdmin, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
