package service

import (
	"context"
	"time"

	"yogastudio/internal/domain"
	"yogastudio/internal/models"

	"github.com/rs/zerolog"
)

// StateService stores onboarding progress.
type StateService struct {
	stateRepo domain.StateRepository
	logger    *zerolog.Logger
}

func NewStateService(stateRepo domain.StateRepository, logger *zerolog.Logger) *StateService {
	return &StateService{stateRepo: stateRepo, logger: logger}
}

func (s *StateService) GetUserState(ctx context.Context, userID int64) (*models.UserState, error) {
	state, err := s.stateRepo.GetState(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get user state")
		return nil, err
	}
	return state, nil
}

func (s *StateService) SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error {
	if data == nil {
		data = make(map[string]interface{})
	}
	return s.stateRepo.SetState(ctx, &models.UserState{
		UserID:      userID,
		CurrentStep: step,
		TempData:    data,
	})
}

func (s *StateService) ClearUserState(ctx context.Context, userID int64) error {
	return s.stateRepo.ClearState(ctx, userID)
}

func (s *StateService) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	return s.stateRepo.CheckRateLimit(ctx, userID, limit, window)
}
