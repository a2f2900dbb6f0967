package models

import "time"

type Booking struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ClassID   int64     `json:"class_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UserBooking is a booking joined with its class, as shown to the client.
type UserBooking struct {
	ID            int64
	ClassID       int64
	ClassName     string
	Description   string
	ClassStartsAt time.Time
	Price         float64
}

// CanCancel reports whether the class has not started yet.
func (b *UserBooking) CanCancel(now time.Time) bool {
	return !b.ClassStartsAt.Before(now)
}

// BookingRecord is a fully joined booking used by reports and the sheets mirror.
type BookingRecord struct {
	BookingID     int64     `json:"booking_id"`
	ClassID       int64     `json:"class_id"`
	ClassName     string    `json:"class_name"`
	ClassStartsAt time.Time `json:"class_starts_at"`
	TelegramID    int64     `json:"telegram_id"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone"`
	CreatedAt     time.Time `json:"created_at"`
}
