package models

import "time"

// User is a studio client identified by their telegram id.
type User struct {
	ID            int64     `json:"id"`
	TelegramID    int64     `json:"telegram_id"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone"`
	AgreedToOffer bool      `json:"agreed_to_offer"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
}
