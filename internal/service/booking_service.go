package service

import (
	"context"
	"errors"
	"time"

	"yogastudio/internal/database"
	"yogastudio/internal/domain"
	"yogastudio/internal/events"
	"yogastudio/internal/metrics"
	"yogastudio/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateBooking reserves a seat for the user identified by telegramID.
// Checks run in order: user, class, class start, duplicate, capacity.
// The capacity check is repeated by the conditional insert, which is what
// actually prevents overselling under concurrent requests.
func (s *BookingService) CreateBooking(ctx context.Context, telegramID, classID int64) (int64, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, database.ErrUserNotFound
	}

	class, err := s.repo.GetClass(ctx, classID)
	if err != nil {
		return 0, err
	}
	if class == nil {
		return 0, database.ErrClassNotFound
	}

	if class.Finished(s.now()) {
		metrics.IncBooking("finished")
		return 0, database.ErrClassFinished
	}

	existing, err := s.repo.FindUserBooking(ctx, user.ID, classID)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		metrics.IncBooking("duplicate")
		return 0, database.ErrAlreadyBooked
	}

	count, err := s.repo.CountClassBookings(ctx, classID)
	if err != nil {
		return 0, err
	}
	if count >= class.MaxParticipants {
		metrics.IncBooking("full")
		return 0, database.ErrCapacityExceeded
	}

	booking := &models.Booking{UserID: user.ID, ClassID: classID}
	if err := s.repo.CreateBookingWithCapacity(ctx, booking); err != nil {
		switch {
		case errors.Is(err, database.ErrCapacityExceeded):
			metrics.IncBooking("full")
		case errors.Is(err, database.ErrAlreadyBooked):
			metrics.IncBooking("duplicate")
		}
		return 0, err
	}
	metrics.IncBooking("created")

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("telegram_id", telegramID).
		Int64("class_id", classID).
		Msg("Booking created")

	s.publish(events.EventBookingCreated, events.BookingPayload{BookingID: booking.ID, TelegramID: telegramID, ClassID: classID})
	return booking.ID, nil
}

// CancelBooking deletes a booking owned by the user while its class is still ahead.
func (s *BookingService) CancelBooking(ctx context.Context, telegramID, bookingID int64) error {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	if user == nil {
		return database.ErrUserNotFound
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil || booking.UserID != user.ID {
		return database.ErrBookingNotFound
	}

	class, err := s.repo.GetClass(ctx, booking.ClassID)
	if err != nil {
		return err
	}
	if class == nil {
		return database.ErrClassNotFound
	}
	if class.Finished(s.now()) {
		return database.ErrCannotCancelPast
	}

	if err := s.repo.DeleteBooking(ctx, bookingID, user.ID); err != nil {
		return err
	}

	s.logger.Info().Int64("booking_id", bookingID).Int64("telegram_id", telegramID).Msg("Booking canceled")
	s.publish(events.EventBookingCanceled, events.BookingPayload{BookingID: bookingID, TelegramID: telegramID, ClassID: booking.ClassID})
	return nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, telegramID int64) ([]*models.UserBooking, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, database.ErrUserNotFound
	}
	return s.repo.ListUserBookings(ctx, user.ID)
}

func (s *BookingService) publish(eventType string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}
