package repository

import (
	"context"
	"sync"
	"time"

	"yogastudio/internal/domain"
	"yogastudio/internal/models"

	"github.com/rs/zerolog"
)

const primaryRetryInterval = time.Minute

// FailoverStateRepository prefers the primary store and switches to the fallback
// on the first error. The primary is retried once per primaryRetryInterval.
type FailoverStateRepository struct {
	primary  domain.StateRepository
	fallback domain.StateRepository
	logger   *zerolog.Logger

	mu        sync.Mutex
	down      bool
	downSince time.Time
	now       func() time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should go to the primary store.
func (r *FailoverStateRepository) usePrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.down || r.now().Sub(r.downSince) >= primaryRetryInterval
}

func (r *FailoverStateRepository) report(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		if r.down {
			r.logger.Info().Str("op", op).Msg("Primary state store recovered")
		}
		r.down = false
		return
	}
	if !r.down {
		r.logger.Error().Err(err).Str("op", op).Msg("Primary state store failed, using in-memory fallback")
	}
	r.down = true
	r.downSince = r.now()
}

// Degraded reports whether calls currently go to the fallback.
func (r *FailoverStateRepository) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.down
}

func (r *FailoverStateRepository) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	if r.usePrimary() {
		state, err := r.primary.GetState(ctx, userID)
		r.report("get", err)
		if err == nil {
			return state, nil
		}
	}
	return r.fallback.GetState(ctx, userID)
}

func (r *FailoverStateRepository) SetState(ctx context.Context, state *models.UserState) error {
	if r.usePrimary() {
		err := r.primary.SetState(ctx, state)
		r.report("set", err)
		if err == nil {
			return nil
		}
	}
	return r.fallback.SetState(ctx, state)
}

func (r *FailoverStateRepository) ClearState(ctx context.Context, userID int64) error {
	if r.usePrimary() {
		err := r.primary.ClearState(ctx, userID)
		r.report("clear", err)
		if err == nil {
			// the fallback may still hold a copy written during an outage
			_ = r.fallback.ClearState(ctx, userID)
			return nil
		}
	}
	return r.fallback.ClearState(ctx, userID)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		r.report("rate_limit", err)
		if err == nil {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
