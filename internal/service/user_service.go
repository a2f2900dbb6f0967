package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"yogastudio/internal/database"
	"yogastudio/internal/domain"
	"yogastudio/internal/events"
	"yogastudio/internal/metrics"
	"yogastudio/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo     domain.UserStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewUserService(repo domain.UserStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *UserService {
	return &UserService{repo: repo, eventBus: eventBus, logger: logger}
}

// GetByTelegramID returns nil, nil for an unknown user.
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return s.repo.GetUserByTelegramID(ctx, telegramID)
}

// Register creates the user at the end of the phone step, without consent.
// A user that already exists is returned as is.
func (s *UserService) Register(ctx context.Context, telegramID int64, fullName, phone string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, fmt.Errorf("full name is required: %w", database.ErrValidation)
	}

	user := &models.User{TelegramID: telegramID, FullName: fullName, Phone: phone}
	err := s.repo.CreateUser(ctx, user)
	if errors.Is(err, database.ErrUserExists) {
		existing, getErr := s.repo.GetUserByTelegramID(ctx, telegramID)
		if getErr != nil {
			return nil, getErr
		}
		if existing == nil {
			return nil, err
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("telegram_id", telegramID).Int64("user_id", user.ID).Msg("User registered")
	return user, nil
}

// SetConsent writes the consent flag. Writes are last-write-wins, so the
// membership event handler and the startup sweep may overlap.
func (s *UserService) SetConsent(ctx context.Context, telegramID int64, agreed bool, source string) error {
	matched, err := s.repo.SetOfferConsent(ctx, telegramID, agreed)
	if err != nil {
		return err
	}
	if !matched {
		return database.ErrUserNotFound
	}

	if !agreed {
		metrics.IncConsentReset(source)
	}
	s.logger.Info().Int64("telegram_id", telegramID).Bool("agreed", agreed).Str("source", source).Msg("Consent updated")

	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventConsentChanged, events.ConsentPayload{
			TelegramID: telegramID,
			Agreed:     agreed,
			Source:     source,
		})
	}
	return nil
}

func (s *UserService) ConsentingUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetConsentingUsers(ctx)
}
