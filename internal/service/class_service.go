package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"yogastudio/internal/database"
	"yogastudio/internal/domain"
	"yogastudio/internal/events"
	"yogastudio/internal/models"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const allClassesKey = "classes:all"

// ClassService serves the class catalog through a short-lived cache.
// Creating a class flushes it, so the cache only hides writes made by other processes.
type ClassService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	cache    *cache.Cache
	logger   *zerolog.Logger
}

func NewClassService(repo domain.Repository, eventBus domain.EventPublisher, ttl time.Duration, logger *zerolog.Logger) *ClassService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ClassService{
		repo:     repo,
		eventBus: eventBus,
		cache:    cache.New(ttl, 2*ttl),
		logger:   logger,
	}
}

func classKey(id int64) string {
	return fmt.Sprintf("class:%d", id)
}

func (s *ClassService) ListClasses(ctx context.Context) ([]*models.Class, error) {
	if cached, ok := s.cache.Get(allClassesKey); ok {
		return cached.([]*models.Class), nil
	}

	classes, err := s.repo.ListAllClasses(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(allClassesKey, classes)
	return classes, nil
}

func (s *ClassService) GetClass(ctx context.Context, id int64) (*models.Class, error) {
	if cached, ok := s.cache.Get(classKey(id)); ok {
		return cached.(*models.Class), nil
	}

	class, err := s.repo.GetClass(ctx, id)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, database.ErrClassNotFound
	}
	s.cache.SetDefault(classKey(id), class)
	return class, nil
}

func (s *ClassService) CreateClass(ctx context.Context, class *models.Class) (int64, error) {
	class.Name = strings.TrimSpace(class.Name)
	if err := s.repo.CreateClass(ctx, class); err != nil {
		return 0, err
	}
	s.cache.Flush()

	s.logger.Info().Int64("class_id", class.ID).Str("name", class.Name).Time("starts_at", class.StartsAt).Msg("Class created")
	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventClassCreated, events.ClassPayload{
			ClassID:  class.ID,
			Name:     class.Name,
			StartsAt: class.StartsAt,
		})
	}
	return class.ID, nil
}
