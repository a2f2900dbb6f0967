package database

import (
	"context"
	"io"
	"testing"
	"time"

	"yogastudio/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	return db
}

func mustUser(t *testing.T, db *DB, telegramID int64) *models.User {
	t.Helper()
	u := &models.User{TelegramID: telegramID, FullName: "Анна Иванова", Phone: "+79991234567", AgreedToOffer: true}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func mustClass(t *testing.T, db *DB, startsIn time.Duration, seats int) *models.Class {
	t.Helper()
	c := &models.Class{
		Name:            "Хатха",
		Description:     "Утренняя практика",
		StartsAt:        time.Now().Add(startsIn),
		MaxParticipants: seats,
		Price:           800,
	}
	require.NoError(t, db.CreateClass(context.Background(), c))
	return c
}
