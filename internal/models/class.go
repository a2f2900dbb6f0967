package models

import (
	"strings"
	"time"
)

// Class is a single scheduled studio session.
type Class struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	StartsAt        time.Time `json:"datetime"`
	MaxParticipants int       `json:"max_participants"`
	Price           float64   `json:"price"`
	CreatedAt       time.Time `json:"-"`
}

// Finished reports whether the class start time is already behind now.
func (c *Class) Finished(now time.Time) bool {
	return c.StartsAt.Before(now)
}

// ParseClassTime accepts RFC3339 or ClassTimeLayout. The latter is a wall
// clock time in loc (time.Local when nil). The result is always UTC.
func ParseClassTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(ClassTimeLayout, raw, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// FormatClassTime renders t as ClassTimeLayout in loc (time.Local when nil).
func FormatClassTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(ClassTimeLayout)
}
