package service

import (
	"context"
	"time"

	"yogastudio/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockRepo) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockRepo) SetOfferConsent(ctx context.Context, telegramID int64, agreed bool) (bool, error) {
	args := m.Called(ctx, telegramID, agreed)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) GetConsentingUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *mockRepo) CreateClass(ctx context.Context, class *models.Class) error {
	args := m.Called(ctx, class)
	return args.Error(0)
}

func (m *mockRepo) GetClass(ctx context.Context, id int64) (*models.Class, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Class), args.Error(1)
}

func (m *mockRepo) ListAllClasses(ctx context.Context) ([]*models.Class, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Class), args.Error(1)
}

func (m *mockRepo) GetSubscriptionType(ctx context.Context, id int64) (*models.SubscriptionType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionType), args.Error(1)
}

func (m *mockRepo) ListSubscriptionTypesByClass(ctx context.Context, classID int64) ([]*models.SubscriptionType, error) {
	args := m.Called(ctx, classID)
	return args.Get(0).([]*models.SubscriptionType), args.Error(1)
}

func (m *mockRepo) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *mockRepo) ListSubscriptionsByUser(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *mockRepo) ListActiveSubscriptions(ctx context.Context, userID int64) ([]*models.ActiveSubscription, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.ActiveSubscription), args.Error(1)
}

func (m *mockRepo) CreateBookingWithCapacity(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockRepo) FindUserBooking(ctx context.Context, userID, classID int64) (*models.Booking, error) {
	args := m.Called(ctx, userID, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockRepo) CountClassBookings(ctx context.Context, classID int64) (int, error) {
	args := m.Called(ctx, classID)
	return args.Int(0), args.Error(1)
}

func (m *mockRepo) DeleteBooking(ctx context.Context, bookingID, userID int64) error {
	args := m.Called(ctx, bookingID, userID)
	return args.Error(0)
}

func (m *mockRepo) ListUserBookings(ctx context.Context, userID int64) ([]*models.UserBooking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.UserBooking), args.Error(1)
}

func (m *mockRepo) GetBookingRecord(ctx context.Context, bookingID int64) (*models.BookingRecord, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingRecord), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	args := m.Called(eventType, payload)
	return args.Error(0)
}

type mockStateRepository struct {
	mock.Mock
}

func (m *mockStateRepository) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserState), args.Error(1)
}

func (m *mockStateRepository) SetState(ctx context.Context, state *models.UserState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *mockStateRepository) ClearState(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

type mockTelegramSender struct {
	mock.Mock
}

func (m *mockTelegramSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func (m *mockTelegramSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	return args.Get(0).(*tgbotapi.APIResponse), args.Error(1)
}

func (m *mockTelegramSender) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	args := m.Called(config)
	return args.Get(0).(tgbotapi.ChatMember), args.Error(1)
}

func (m *mockTelegramSender) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	args := m.Called(config)
	return args.Get(0).(tgbotapi.UpdatesChannel)
}

func (m *mockTelegramSender) GetSelf() tgbotapi.User {
	args := m.Called()
	return args.Get(0).(tgbotapi.User)
}

func (m *mockTelegramSender) StopReceivingUpdates() {
	m.Called()
}
