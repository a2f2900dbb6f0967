package service

import (
	"context"

	"yogastudio/internal/database"
	"yogastudio/internal/domain"
	"yogastudio/internal/events"
	"yogastudio/internal/models"

	"github.com/rs/zerolog"
)

type SubscriptionService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewSubscriptionService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *SubscriptionService {
	return &SubscriptionService{repo: repo, eventBus: eventBus, logger: logger}
}

// Purchase issues a subscription with the full number of visits of its type.
func (s *SubscriptionService) Purchase(ctx context.Context, telegramID, subscriptionTypeID int64) (int64, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, database.ErrUserNotFound
	}

	st, err := s.repo.GetSubscriptionType(ctx, subscriptionTypeID)
	if err != nil {
		return 0, err
	}
	if st == nil {
		return 0, database.ErrSubscriptionTypeNotFound
	}

	sub := &models.Subscription{
		UserID:             user.ID,
		SubscriptionTypeID: st.ID,
		VisitsRemaining:    st.VisitsAllowed,
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return 0, err
	}

	s.logger.Info().
		Int64("subscription_id", sub.ID).
		Int64("telegram_id", telegramID).
		Int("visits", sub.VisitsRemaining).
		Msg("Subscription purchased")

	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventSubscriptionPurchased, events.SubscriptionPayload{
			SubscriptionID:     sub.ID,
			TelegramID:         telegramID,
			SubscriptionTypeID: st.ID,
			VisitsRemaining:    sub.VisitsRemaining,
		})
	}
	return sub.ID, nil
}

// ActiveSubscriptions lists subscriptions with visits left.
func (s *SubscriptionService) ActiveSubscriptions(ctx context.Context, telegramID int64) ([]*models.ActiveSubscription, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, database.ErrUserNotFound
	}
	return s.repo.ListActiveSubscriptions(ctx, user.ID)
}

// ListByUser takes the internal user id and never reports a missing user.
func (s *SubscriptionService) ListByUser(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	return s.repo.ListSubscriptionsByUser(ctx, userID)
}

func (s *SubscriptionService) TypesForClass(ctx context.Context, classID int64) ([]*models.SubscriptionType, error) {
	types, err := s.repo.ListSubscriptionTypesByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, database.ErrNoSubscriptionTypes
	}
	return types, nil
}
