package repository

import (
	"context"
	"sync"
	"time"

	"yogastudio/internal/models"
)

type memoryEntry struct {
	state     *models.UserState
	expiresAt time.Time
}

type windowCounter struct {
	count     int
	expiresAt time.Time
}

// MemoryStateRepository is the in-process fallback used when redis is unreachable.
type MemoryStateRepository struct {
	mu     sync.Mutex
	states map[int64]memoryEntry
	limits map[int64]*windowCounter
	ttl    time.Duration
	now    func() time.Time
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	if ttl <= 0 {
		ttl = models.DefaultStateTTL
	}
	return &MemoryStateRepository{
		states: make(map[int64]memoryEntry),
		limits: make(map[int64]*windowCounter),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (r *MemoryStateRepository) GetState(_ context.Context, userID int64) (*models.UserState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.states[userID]
	if !ok {
		return nil, nil
	}
	if r.now().After(entry.expiresAt) {
		delete(r.states, userID)
		return nil, nil
	}
	return entry.state, nil
}

func (r *MemoryStateRepository) SetState(_ context.Context, state *models.UserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[state.UserID] = memoryEntry{state: state, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *MemoryStateRepository) ClearState(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, userID)
	return nil
}

func (r *MemoryStateRepository) CheckRateLimit(_ context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	c, ok := r.limits[userID]
	if !ok || now.After(c.expiresAt) {
		c = &windowCounter{expiresAt: now.Add(window)}
		r.limits[userID] = c
	}
	c.count++
	return c.count <= limit, nil
}
