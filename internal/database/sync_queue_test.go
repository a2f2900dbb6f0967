package database

import (
	"context"
	"testing"
	"time"

	"yogastudio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncQueueCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	task := &models.SyncTask{TaskType: "upsert", BookingID: 100, Payload: `{"booking_id":100}`}
	require.NoError(t, db.CreateSyncTask(ctx, task))
	assert.Equal(t, models.SyncStatusPending, task.Status)

	due, err := db.SyncTaskDue(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, due)

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(100), tasks[0].BookingID)

	future := time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusRetry, "sheets down", &future))

	tasks, err = db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks, "retry scheduled in the future is not due yet")

	due, err = db.SyncTaskDue(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, due)

	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusFailed, "gave up", nil))

	due, err = db.SyncTaskDue(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, due)

	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].RetryCount)
	require.NotNil(t, failed[0].LastError)
	assert.Equal(t, "gave up", *failed[0].LastError)
	assert.NotNil(t, failed[0].ProcessedAt)
}
