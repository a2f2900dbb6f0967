package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventBookingCreated        = "booking_created"
	EventBookingCanceled       = "booking_canceled"
	EventSubscriptionPurchased = "subscription_purchased"
	EventClassCreated          = "class_created"
	EventConsentChanged        = "consent_changed"
)

type BookingPayload struct {
	BookingID  int64 `json:"booking_id"`
	TelegramID int64 `json:"telegram_id"`
	ClassID    int64 `json:"class_id"`
}

type SubscriptionPayload struct {
	SubscriptionID     int64 `json:"subscription_id"`
	TelegramID         int64 `json:"telegram_id"`
	SubscriptionTypeID int64 `json:"subscription_type_id"`
	VisitsRemaining    int   `json:"visits_remaining"`
}

type ClassPayload struct {
	ClassID  int64     `json:"class_id"`
	Name     string    `json:"name"`
	StartsAt time.Time `json:"starts_at"`
}

type ConsentPayload struct {
	TelegramID int64  `json:"telegram_id"`
	Agreed     bool   `json:"agreed"`
	Source     string `json:"source"`
}

type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

type EventHandler func(event *Event) error

// EventBus is a synchronous in-process pub/sub. Handler errors are logged and
// never reach the publisher.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]EventHandler
	logger      *zerolog.Logger
}

func NewEventBus(logger *zerolog.Logger) *EventBus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Msg("event handler failed")
		}
	}
}

// PublishJSON is a no-op on a nil bus.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
