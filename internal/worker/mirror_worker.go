package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yogastudio/internal/domain"
	"yogastudio/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskUpsert = "upsert"
	TaskDelete = "delete"

	queueKey      = "studio:mirror:queue"
	deadLetterKey = "studio:mirror:deadletter"
)

// TaskStore persists mirror jobs so nothing is lost across restarts.
type TaskStore interface {
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
	SyncTaskDue(ctx context.Context, id int64) (bool, error)
}

type taskPayload struct {
	BookingID int64                 `json:"booking_id"`
	Record    *models.BookingRecord `json:"record,omitempty"`
}

// MirrorWorker applies booking changes to the spreadsheet mirror.
// Tasks travel through redis when available, an in-process channel otherwise,
// and the sync_queue table is polled for retries and anything the queues missed.
type MirrorWorker struct {
	store        TaskStore
	mirror       domain.BookingMirror
	redis        *redis.Client
	retry        RetryPolicy
	local        chan models.SyncTask
	pollInterval time.Duration
	batchSize    int
	logger       *zerolog.Logger
}

func NewMirrorWorker(store TaskStore, mirror domain.BookingMirror, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *MirrorWorker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &MirrorWorker{
		store:        store,
		mirror:       mirror,
		redis:        redisClient,
		retry:        retry.withDefaults(),
		local:        make(chan models.SyncTask, 128),
		pollInterval: 2 * time.Second,
		batchSize:    20,
		logger:       logger,
	}
}

func (w *MirrorWorker) EnqueueTask(ctx context.Context, taskType string, bookingID int64, record *models.BookingRecord) error {
	if taskType != TaskUpsert && taskType != TaskDelete {
		return fmt.Errorf("unknown task type %q", taskType)
	}
	if bookingID <= 0 {
		return errors.New("booking id is required")
	}
	if taskType == TaskUpsert && record == nil {
		return errors.New("upsert requires a booking record")
	}

	raw, err := json.Marshal(taskPayload{BookingID: bookingID, Record: record})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.SyncTask{TaskType: taskType, BookingID: bookingID, Payload: string(raw)}
	if err := w.store.CreateSyncTask(ctx, &task); err != nil {
		return fmt.Errorf("persist mirror task: %w", err)
	}

	if w.redis != nil {
		data, err := json.Marshal(task)
		if err == nil {
			err = w.redis.LPush(ctx, queueKey, data).Err()
		}
		if err == nil {
			return nil
		}
		w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("redis push failed, using local queue")
	}

	select {
	case w.local <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("local queue full, task left for polling")
	}
	return nil
}

// Start runs until ctx is done.
func (w *MirrorWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Mirror worker started")
	defer w.logger.Info().Msg("Mirror worker stopped")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		if task, ok := w.popRedis(ctx); ok {
			w.process(ctx, &task)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case task := <-w.local:
			w.process(ctx, &task)
		case <-ticker.C:
			w.ProcessPending(ctx)
		}
	}
}

// ProcessPending handles one batch of due tasks from the table and returns how many it saw.
func (w *MirrorWorker) ProcessPending(ctx context.Context) int {
	tasks, err := w.store.GetPendingSyncTasks(ctx, w.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("fetch pending mirror tasks")
		}
		return 0
	}
	for i := range tasks {
		w.process(ctx, &tasks[i])
	}
	return len(tasks)
}

func (w *MirrorWorker) popRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, 500*time.Millisecond, queueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.logger.Debug().Err(err).Msg("redis pop failed")
		}
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}

	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode queued mirror task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *MirrorWorker) process(ctx context.Context, task *models.SyncTask) {
	log := w.logger.With().Int64("task_id", task.ID).Str("type", task.TaskType).Int64("booking_id", task.BookingID).Logger()

	// A task can reach the worker twice: once from a queue and once from polling.
	due, err := w.store.SyncTaskDue(ctx, task.ID)
	if err != nil {
		log.Error().Err(err).Msg("check mirror task")
		return
	}
	if !due {
		log.Debug().Msg("mirror task already handled or not due, skipping")
		return
	}

	var payload taskPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.fail(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.apply(ctx, task.TaskType, payload); err != nil {
		log.Warn().Err(err).Int("attempt", task.RetryCount+1).Msg("mirror task failed")
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.store.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusCompleted, "", nil); err != nil {
		log.Error().Err(err).Msg("mark mirror task completed")
	}
}

func (w *MirrorWorker) apply(ctx context.Context, taskType string, payload taskPayload) error {
	switch taskType {
	case TaskUpsert:
		if payload.Record == nil {
			return errors.New("booking record missing")
		}
		return w.mirror.UpsertBooking(ctx, payload.Record)
	case TaskDelete:
		return w.mirror.DeleteBookingRow(ctx, payload.BookingID)
	default:
		return fmt.Errorf("unknown task type %q", taskType)
	}
}

func (w *MirrorWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retry.MaxRetries {
		w.fail(ctx, task, cause)
		return
	}

	next := time.Now().Add(w.retry.NextDelay(attempt))
	if err := w.store.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusRetry, cause.Error(), &next); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("schedule mirror retry")
	}
}

func (w *MirrorWorker) fail(ctx context.Context, task *models.SyncTask, cause error) {
	if err := w.store.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark mirror task failed")
	}
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := w.redis.LPush(ctx, deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("dead-letter push failed")
	}
}
