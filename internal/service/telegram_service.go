package service

import (
	"errors"
	"os"
	"time"

	"yogastudio/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrTelegramUnavailable is returned while the breaker is open.
var ErrTelegramUnavailable = errors.New("telegram api unavailable")

// TelegramService wraps the bot API. Outgoing calls go through a circuit
// breaker; per-user refusals (blocked bot, bad chat) do not count as failures.
type TelegramService struct {
	bot     domain.TelegramSender
	breaker *gobreaker.CircuitBreaker[any]
	logger  *zerolog.Logger
}

func NewTelegramService(bot domain.TelegramSender, logger *zerolog.Logger) *TelegramService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &TelegramService{bot: bot, logger: logger}
	s.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "telegram",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *tgbotapi.Error
			return errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != 429
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	})
	return s
}

func (s *TelegramService) execute(fn func() (any, error)) (any, error) {
	res, err := s.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return res, ErrTelegramUnavailable
	}
	return res, err
}

func (s *TelegramService) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	res, err := s.execute(func() (any, error) {
		return s.bot.Send(c)
	})
	msg, _ := res.(tgbotapi.Message)
	return msg, err
}

func (s *TelegramService) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	res, err := s.execute(func() (any, error) {
		return s.bot.Request(c)
	})
	resp, _ := res.(*tgbotapi.APIResponse)
	return resp, err
}

func (s *TelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	return s.Send(tgbotapi.NewMessage(chatID, text))
}

// SendWithKeyboard accepts any reply markup: inline, reply or remove.
func (s *TelegramService) SendWithKeyboard(chatID int64, text string, keyboard interface{}) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return s.Send(msg)
}

func (s *TelegramService) SendDocument(
	chatID int64,
	path, fileName, caption string,
	keyboard interface{},
) (tgbotapi.Message, error) {
	var file tgbotapi.RequestFileData = tgbotapi.FilePath(path)
	if fileName != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return tgbotapi.Message{}, err
		}
		file = tgbotapi.FileBytes{Name: fileName, Bytes: data}
	}
	doc := tgbotapi.NewDocument(chatID, file)
	doc.Caption = caption
	if keyboard != nil {
		doc.ReplyMarkup = keyboard
	}
	return s.Send(doc)
}

func (s *TelegramService) AnswerCallback(callbackID, text string) error {
	_, err := s.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func (s *TelegramService) GetChatMember(chatID, userID int64) (tgbotapi.ChatMember, error) {
	res, err := s.execute(func() (any, error) {
		return s.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
		})
	})
	member, _ := res.(tgbotapi.ChatMember)
	return member, err
}

func (s *TelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return s.bot.GetUpdatesChan(config)
}

func (s *TelegramService) GetSelf() tgbotapi.User {
	return s.bot.GetSelf()
}

func (s *TelegramService) StopReceivingUpdates() {
	s.bot.StopReceivingUpdates()
}
