package database

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Error taxonomy shared by the services and the transports.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidState     = errors.New("invalid state")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrValidation       = errors.New("validation error")
)

var (
	ErrUserNotFound             = fmt.Errorf("user %w", ErrNotFound)
	ErrClassNotFound            = fmt.Errorf("class %w", ErrNotFound)
	ErrSubscriptionTypeNotFound = fmt.Errorf("subscription type %w", ErrNotFound)
	ErrBookingNotFound          = fmt.Errorf("booking %w", ErrNotFound)
	ErrNoSubscriptionTypes      = fmt.Errorf("subscription types %w", ErrNotFound)

	ErrAlreadyBooked    = fmt.Errorf("already booked: %w", ErrConflict)
	ErrUserExists       = fmt.Errorf("user already exists: %w", ErrConflict)
	ErrClassFinished    = fmt.Errorf("class already started: %w", ErrInvalidState)
	ErrCannotCancelPast = fmt.Errorf("cannot cancel past class: %w", ErrInvalidState)
	ErrNoVisitsLeft     = fmt.Errorf("no visits left: %w", ErrInvalidState)
)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
