package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"yogastudio/internal/models"
)

const syncTaskColumns = `id, task_type, booking_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at`

// CreateSyncTask persists a mirror job before it is handed to a queue.
func (db *DB) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	if task.Status == "" {
		task.Status = models.SyncStatusPending
	}
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO sync_queue (task_type, booking_id, payload, status, retry_count, last_error, created_at, next_retry_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.TaskType, task.BookingID, task.Payload, task.Status, task.RetryCount, task.LastError, now, task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sync task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

// GetPendingSyncTasks returns pending and due retry tasks, oldest first.
func (db *DB) GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+syncTaskColumns+` FROM sync_queue
         WHERE status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)
         ORDER BY created_at ASC, id ASC LIMIT ?`,
		models.SyncStatusPending, models.SyncStatusRetry, time.Now().UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending sync tasks: %w", err)
	}
	return scanSyncTasks(rows)
}

// SyncTaskDue reports whether the task is still waiting to run: pending, or a
// retry whose time has come. Completed and failed tasks are never due.
func (db *DB) SyncTaskDue(ctx context.Context, id int64) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_queue
         WHERE id = ? AND status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)`,
		id, models.SyncStatusPending, models.SyncStatusRetry, time.Now().UTC(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check sync task: %w", err)
	}
	return n > 0, nil
}

func (db *DB) GetFailedSyncTasks(ctx context.Context) ([]models.SyncTask, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+syncTaskColumns+` FROM sync_queue WHERE status = ? ORDER BY created_at DESC`,
		models.SyncStatusFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed sync tasks: %w", err)
	}
	return scanSyncTasks(rows)
}

// UpdateSyncTaskStatus moves a task to the given status. Retries bump retry_count;
// terminal statuses stamp processed_at.
func (db *DB) UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var lastError *string
	if errMsg != "" {
		lastError = &errMsg
	}
	var next any
	if nextRetryAt != nil {
		next = nextRetryAt.UTC()
	}

	var query string
	var args []interface{}
	switch status {
	case models.SyncStatusRetry:
		query = `UPDATE sync_queue SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []interface{}{status, lastError, next, id}
	case models.SyncStatusCompleted, models.SyncStatusFailed:
		query = `UPDATE sync_queue SET status = ?, last_error = ?, next_retry_at = NULL, processed_at = ? WHERE id = ?`
		args = []interface{}{status, lastError, time.Now().UTC(), id}
	default:
		query = `UPDATE sync_queue SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, lastError, next, id}
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update sync task status: %w", err)
	}
	return nil
}

func scanSyncTasks(rows *sql.Rows) ([]models.SyncTask, error) {
	defer rows.Close()

	var tasks []models.SyncTask
	for rows.Next() {
		var t models.SyncTask
		if err := rows.Scan(
			&t.ID, &t.TaskType, &t.BookingID, &t.Payload, &t.Status, &t.RetryCount,
			&t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
