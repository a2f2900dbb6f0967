package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserStateGetString(t *testing.T) {
	state := &UserState{TempData: map[string]interface{}{"full_name": "Анна", "count": 3}}

	assert.Equal(t, "Анна", state.GetString("full_name"))
	assert.Empty(t, state.GetString("count"))
	assert.Empty(t, state.GetString("missing"))
	assert.Empty(t, (&UserState{}).GetString("full_name"))
}

func TestClassFinished(t *testing.T) {
	now := time.Now()
	assert.True(t, (&Class{StartsAt: now.Add(-time.Minute)}).Finished(now))
	assert.False(t, (&Class{StartsAt: now.Add(time.Minute)}).Finished(now))
	assert.False(t, (&Class{StartsAt: now}).Finished(now))
}

func TestUserBookingCanCancel(t *testing.T) {
	now := time.Now()
	assert.True(t, (&UserBooking{ClassStartsAt: now.Add(time.Hour)}).CanCancel(now))
	assert.False(t, (&UserBooking{ClassStartsAt: now.Add(-time.Hour)}).CanCancel(now))
}

func TestParseClassTime(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)

	got, err := ParseClassTime(" 2030-05-01T18:30:00 ", msk)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 1, 15, 30, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())

	got, err = ParseClassTime("2030-05-01T18:30:00", time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 1, 18, 30, 0, 0, time.UTC), got)

	// An explicit offset wins over the studio zone.
	got, err = ParseClassTime("2030-05-01T18:30:00+05:00", msk)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 1, 13, 30, 0, 0, time.UTC), got)

	_, err = ParseClassTime("01.05.2030", msk)
	assert.Error(t, err)
}

func TestFormatClassTime(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	stored := time.Date(2030, 5, 1, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, "2030-05-01T18:30:00", FormatClassTime(stored, msk))
	assert.Equal(t, "2030-05-01T15:30:00", FormatClassTime(stored, time.UTC))

	back, err := ParseClassTime(FormatClassTime(stored, msk), msk)
	assert.NoError(t, err)
	assert.True(t, stored.Equal(back))
}
