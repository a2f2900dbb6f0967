package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaultSchedule(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	empty, err := db.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, db.Seed(ctx, DefaultSchedule(time.Now())))

	empty, err = db.IsEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, empty)

	classes, err := db.ListClasses(ctx, ClassFilter{})
	require.NoError(t, err)
	require.Len(t, classes, 3)
	assert.Equal(t, "Йога для начинающих", classes[0].Name)

	types, err := db.ListSubscriptionTypesByClass(ctx, classes[0].ID)
	require.NoError(t, err)
	assert.Len(t, types, 2)

	version, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestSeedRollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	schedule := DefaultSchedule(time.Now())
	schedule[0].Types[1].VisitsAllowed = 0

	assert.Error(t, db.Seed(ctx, schedule))

	empty, err := db.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)
}
