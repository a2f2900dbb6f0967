package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yogastudio/internal/config"
	"yogastudio/internal/models"

	"github.com/redis/go-redis/v9"
)

var errNoRedis = errors.New("redis client is not configured")

func onboardingKey(userID int64) string { return fmt.Sprintf("studio:onboarding:%d", userID) }
func rateLimitKey(userID int64) string  { return fmt.Sprintf("studio:ratelimit:%d", userID) }

// RedisStateRepository keeps onboarding progress in redis with a sliding TTL.
type RedisStateRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisStateRepository(client *redis.Client, ttl time.Duration) *RedisStateRepository {
	if ttl <= 0 {
		ttl = models.DefaultStateTTL
	}
	return &RedisStateRepository{client: client, ttl: ttl}
}

func (r *RedisStateRepository) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	if r.client == nil {
		return nil, errNoRedis
	}
	raw, err := r.client.Get(ctx, onboardingKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get onboarding state: %w", err)
	}

	var state models.UserState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode onboarding state: %w", err)
	}
	return &state, nil
}

func (r *RedisStateRepository) SetState(ctx context.Context, state *models.UserState) error {
	if r.client == nil {
		return errNoRedis
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode onboarding state: %w", err)
	}
	if err := r.client.Set(ctx, onboardingKey(state.UserID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set onboarding state: %w", err)
	}
	return nil
}

func (r *RedisStateRepository) ClearState(ctx context.Context, userID int64) error {
	if r.client == nil {
		return errNoRedis
	}
	if err := r.client.Del(ctx, onboardingKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete onboarding state: %w", err)
	}
	return nil
}

// CheckRateLimit counts messages in a fixed window that starts with the first message.
func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNoRedis
	}
	key := rateLimitKey(userID)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}
	return incr.Val() <= int64(limit), nil
}

func Ping(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return errNoRedis
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
