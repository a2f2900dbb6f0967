package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"yogastudio/internal/database"
	"yogastudio/internal/events"
	"yogastudio/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMirror struct {
	mu      sync.Mutex
	upserts []int64
	deletes []int64
	err     error
}

func (f *fakeMirror) UpsertBooking(_ context.Context, r *models.BookingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, r.BookingID)
	return nil
}

func (f *fakeMirror) DeleteBookingRow(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deletes = append(f.deletes, id)
	return nil
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func taskStatus(t *testing.T, db *database.DB, id int64) (string, int) {
	t.Helper()
	var status string
	var retries int
	require.NoError(t, db.QueryRow(`SELECT status, retry_count FROM sync_queue WHERE id = ?`, id).Scan(&status, &retries))
	return status, retries
}

func record(id int64) *models.BookingRecord {
	return &models.BookingRecord{BookingID: id, ClassName: "Хатха", ClassStartsAt: time.Now(), CreatedAt: time.Now()}
}

func TestProcessTaskSuccess(t *testing.T) {
	db := newTestDB(t)
	mirror := &fakeMirror{}
	w := NewMirrorWorker(db, mirror, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, 1, record(1)))

	task := <-w.local
	w.process(ctx, &task)

	status, retries := taskStatus(t, db, task.ID)
	assert.Equal(t, models.SyncStatusCompleted, status)
	assert.Zero(t, retries)
	assert.Equal(t, []int64{1}, mirror.upserts)
}

func TestProcessTaskRetryThenFail(t *testing.T) {
	db := newTestDB(t)
	mirror := &fakeMirror{err: errors.New("quota exceeded")}
	w := NewMirrorWorker(db, mirror, nil, RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond}, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskDelete, 2, nil))
	task := <-w.local

	w.process(ctx, &task)
	status, retries := taskStatus(t, db, task.ID)
	assert.Equal(t, models.SyncStatusRetry, status)
	assert.Equal(t, 1, retries)

	time.Sleep(5 * time.Millisecond)
	task.RetryCount = retries
	w.process(ctx, &task)
	status, _ = taskStatus(t, db, task.ID)
	assert.Equal(t, models.SyncStatusFailed, status)
}

func TestEnqueueValidation(t *testing.T) {
	w := NewMirrorWorker(newTestDB(t), &fakeMirror{}, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	assert.Error(t, w.EnqueueTask(ctx, "rename", 1, nil))
	assert.Error(t, w.EnqueueTask(ctx, TaskDelete, 0, nil))
	assert.Error(t, w.EnqueueTask(ctx, TaskUpsert, 1, nil))
}

func TestProcessPendingPicksUpPersistedTasks(t *testing.T) {
	db := newTestDB(t)
	mirror := &fakeMirror{}
	w := NewMirrorWorker(db, mirror, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskDelete, 5, nil))
	<-w.local // simulate a restart that lost the in-memory queue

	assert.Equal(t, 1, w.ProcessPending(ctx))
	assert.Equal(t, []int64{5}, mirror.deletes)
	assert.Equal(t, 0, w.ProcessPending(ctx))
}

func TestQueuedTaskAppliedOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	db := newTestDB(t)
	mirror := &fakeMirror{}
	w := NewMirrorWorker(db, mirror, client, RetryPolicy{}, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, 4, record(4)))

	// The poller gets to the row before the queued copy is popped.
	assert.Equal(t, 1, w.ProcessPending(ctx))

	task, ok := w.popRedis(ctx)
	require.True(t, ok)
	w.process(ctx, &task)

	assert.Equal(t, []int64{4}, mirror.upserts)
	status, _ := taskStatus(t, db, task.ID)
	assert.Equal(t, models.SyncStatusCompleted, status)
}

func TestScheduledRetryIsNotRunEarly(t *testing.T) {
	db := newTestDB(t)
	mirror := &fakeMirror{err: errors.New("quota exceeded")}
	w := NewMirrorWorker(db, mirror, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Hour}, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskDelete, 6, nil))
	task := <-w.local
	w.process(ctx, &task)

	mirror.err = nil
	w.process(ctx, &task)

	assert.Empty(t, mirror.deletes)
	status, retries := taskStatus(t, db, task.ID)
	assert.Equal(t, models.SyncStatusRetry, status)
	assert.Equal(t, 1, retries)
}

func TestRedisQueueAndDeadLetter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	db := newTestDB(t)
	mirror := &fakeMirror{err: errors.New("down")}
	w := NewMirrorWorker(db, mirror, client, RetryPolicy{MaxRetries: 1}, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, 9, record(9)))
	assert.Empty(t, w.local)

	task, ok := w.popRedis(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(9), task.BookingID)

	w.process(ctx, &task)

	dead, err := mr.List(deadLetterKey)
	require.NoError(t, err)
	assert.Len(t, dead, 1)
}

func TestStartDrainsLocalQueue(t *testing.T) {
	db := newTestDB(t)
	mirror := &fakeMirror{}
	w := NewMirrorWorker(db, mirror, nil, RetryPolicy{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.NoError(t, w.EnqueueTask(context.Background(), TaskUpsert, 3, record(3)))
	assert.Eventually(t, func() bool {
		mirror.mu.Lock()
		defer mirror.mu.Unlock()
		return len(mirror.upserts) > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestSubscribeMirror(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := &models.User{TelegramID: 100, FullName: "Анна", Phone: "+7"}
	require.NoError(t, db.CreateUser(ctx, user))
	class := &models.Class{Name: "Хатха", StartsAt: time.Now().Add(time.Hour), MaxParticipants: 5}
	require.NoError(t, db.CreateClass(ctx, class))
	booking := &models.Booking{UserID: user.ID, ClassID: class.ID}
	require.NoError(t, db.CreateBookingWithCapacity(ctx, booking))

	mirror := &fakeMirror{}
	w := NewMirrorWorker(db, mirror, nil, RetryPolicy{}, nil)
	bus := events.NewEventBus(nil)
	logger := zerolog.Nop()
	SubscribeMirror(ctx, bus, db, w, &logger)

	require.NoError(t, bus.PublishJSON(events.EventBookingCreated, events.BookingPayload{BookingID: booking.ID}))
	require.NoError(t, bus.PublishJSON(events.EventBookingCanceled, events.BookingPayload{BookingID: booking.ID}))

	assert.Equal(t, 2, w.ProcessPending(ctx))
	assert.Equal(t, []int64{booking.ID}, mirror.upserts)
	assert.Equal(t, []int64{booking.ID}, mirror.deletes)
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffFactor: 2}
	assert.Equal(t, time.Second, p.NextDelay(0))
	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	assert.Equal(t, 5*time.Second, p.NextDelay(4))
	assert.Equal(t, 5*time.Second, p.NextDelay(500))

	assert.Equal(t, 2*time.Second, RetryPolicy{}.NextDelay(1))
}
