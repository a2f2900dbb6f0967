package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"yogastudio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	later := mustClass(t, db, 48*time.Hour, 5)
	sooner := mustClass(t, db, 24*time.Hour, 5)

	got, err := db.GetClass(ctx, later.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Хатха", got.Name)
	assert.WithinDuration(t, later.StartsAt, got.StartsAt, time.Second)

	missing, err := db.GetClass(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, missing)

	all, err := db.ListClasses(ctx, ClassFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, sooner.ID, all[0].ID)

	window, err := db.ListClasses(ctx, ClassFilter{From: time.Now().Add(36 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, later.ID, window[0].ID)
}

func TestCreateClassValidation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	err := db.CreateClass(ctx, &models.Class{StartsAt: time.Now()})
	assert.True(t, errors.Is(err, ErrValidation))

	err = db.CreateClass(ctx, &models.Class{Name: "x", MaxParticipants: -1, StartsAt: time.Now()})
	assert.True(t, errors.Is(err, ErrValidation))

	err = db.CreateClass(ctx, &models.Class{Name: "x", MaxParticipants: 0, StartsAt: time.Now()})
	assert.True(t, errors.Is(err, ErrValidation))

	err = db.CreateClass(ctx, &models.Class{Name: "x", MaxParticipants: 5, Price: -1, StartsAt: time.Now()})
	assert.True(t, errors.Is(err, ErrValidation))

	empty, err := db.ListClasses(ctx, ClassFilter{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
