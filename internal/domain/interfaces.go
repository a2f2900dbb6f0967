package domain

import (
	"context"
	"time"

	"yogastudio/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Lookups return nil, nil when the row is missing.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	SetOfferConsent(ctx context.Context, telegramID int64, agreed bool) (bool, error)
	GetConsentingUsers(ctx context.Context) ([]*models.User, error)
}

type ClassStore interface {
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, id int64) (*models.Class, error)
	ListAllClasses(ctx context.Context) ([]*models.Class, error)
}

type SubscriptionStore interface {
	GetSubscriptionType(ctx context.Context, id int64) (*models.SubscriptionType, error)
	ListSubscriptionTypesByClass(ctx context.Context, classID int64) ([]*models.SubscriptionType, error)
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	ListSubscriptionsByUser(ctx context.Context, userID int64) ([]*models.Subscription, error)
	ListActiveSubscriptions(ctx context.Context, userID int64) ([]*models.ActiveSubscription, error)
}

type BookingStore interface {
	CreateBookingWithCapacity(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	FindUserBooking(ctx context.Context, userID, classID int64) (*models.Booking, error)
	CountClassBookings(ctx context.Context, classID int64) (int, error)
	DeleteBooking(ctx context.Context, bookingID, userID int64) error
	ListUserBookings(ctx context.Context, userID int64) ([]*models.UserBooking, error)
	GetBookingRecord(ctx context.Context, bookingID int64) (*models.BookingRecord, error)
}

// Repository is everything the services need from persistence.
type Repository interface {
	UserStore
	ClassStore
	SubscriptionStore
	BookingStore
}

type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.UserState, error)
	SetState(ctx context.Context, state *models.UserState) error
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type StateManager interface {
	GetUserState(ctx context.Context, userID int64) (*models.UserState, error)
	SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error
	ClearUserState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard interface{}) (tgbotapi.Message, error)
	SendDocument(chatID int64, path, fileName, caption string, keyboard interface{}) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetChatMember(chatID, userID int64) (tgbotapi.ChatMember, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

// BookingMirror writes bookings to an external spreadsheet.
type BookingMirror interface {
	UpsertBooking(ctx context.Context, record *models.BookingRecord) error
	DeleteBookingRow(ctx context.Context, bookingID int64) error
}

// MirrorQueue accepts mirror jobs; enqueueing never blocks the caller on the sheet itself.
type MirrorQueue interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, record *models.BookingRecord) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, telegramID, classID int64) (int64, error)
	CancelBooking(ctx context.Context, telegramID, bookingID int64) error
	ListUserBookings(ctx context.Context, telegramID int64) ([]*models.UserBooking, error)
}

type SubscriptionService interface {
	Purchase(ctx context.Context, telegramID, subscriptionTypeID int64) (int64, error)
	ActiveSubscriptions(ctx context.Context, telegramID int64) ([]*models.ActiveSubscription, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Subscription, error)
	TypesForClass(ctx context.Context, classID int64) ([]*models.SubscriptionType, error)
}

type ClassService interface {
	ListClasses(ctx context.Context) ([]*models.Class, error)
	GetClass(ctx context.Context, id int64) (*models.Class, error)
	CreateClass(ctx context.Context, class *models.Class) (int64, error)
}

type UserService interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	Register(ctx context.Context, telegramID int64, fullName, phone string) (*models.User, error)
	SetConsent(ctx context.Context, telegramID int64, agreed bool, source string) error
	ConsentingUsers(ctx context.Context) ([]*models.User, error)
}
