package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTelegramService(t *testing.T) {
	sender := new(mockTelegramSender)
	svc := NewTelegramService(sender, nil)

	t.Run("SendMessage", func(t *testing.T) {
		sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			return ok && msg.Text == "hello" && msg.ChatID == 123
		})).Return(tgbotapi.Message{MessageID: 9}, nil).Once()

		msg, err := svc.SendMessage(123, "hello")
		assert.NoError(t, err)
		assert.Equal(t, 9, msg.MessageID)
	})

	t.Run("SendDocument renames the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "offer.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Согласен", "agree_offer"),
		))

		sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			doc, ok := c.(tgbotapi.DocumentConfig)
			if !ok {
				return false
			}
			file, ok := doc.File.(tgbotapi.FileBytes)
			return ok && file.Name == "Оферта.pdf" && string(file.Bytes) == "%PDF" && doc.Caption == "оферта" && doc.ReplyMarkup != nil
		})).Return(tgbotapi.Message{}, nil).Once()

		_, err := svc.SendDocument(123, path, "Оферта.pdf", "оферта", kb)
		assert.NoError(t, err)
	})

	t.Run("AnswerCallback", func(t *testing.T) {
		sender.On("Request", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			_, ok := c.(tgbotapi.CallbackConfig)
			return ok
		})).Return(&tgbotapi.APIResponse{Ok: true}, nil).Once()

		assert.NoError(t, svc.AnswerCallback("cb123", ""))
	})

	t.Run("GetChatMember", func(t *testing.T) {
		sender.On("GetChatMember", mock.MatchedBy(func(c tgbotapi.GetChatMemberConfig) bool {
			return c.ChatID == 5 && c.UserID == 5
		})).Return(tgbotapi.ChatMember{Status: "member"}, nil).Once()

		member, err := svc.GetChatMember(5, 5)
		assert.NoError(t, err)
		assert.Equal(t, "member", member.Status)
	})

	sender.AssertExpectations(t)
}

func TestTelegramService_Breaker(t *testing.T) {
	t.Run("Blocked users do not trip it", func(t *testing.T) {
		sender := new(mockTelegramSender)
		svc := NewTelegramService(sender, nil)
		blocked := &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}
		sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, blocked).Times(10)

		for i := 0; i < 10; i++ {
			_, err := svc.SendMessage(1, "hi")
			var apiErr *tgbotapi.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, 403, apiErr.Code)
		}
	})

	t.Run("Network failures open it", func(t *testing.T) {
		sender := new(mockTelegramSender)
		svc := NewTelegramService(sender, nil)
		sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("connection reset")).Times(5)

		for i := 0; i < 5; i++ {
			_, err := svc.SendMessage(1, "hi")
			assert.EqualError(t, err, "connection reset")
		}
		_, err := svc.SendMessage(1, "hi")
		assert.ErrorIs(t, err, ErrTelegramUnavailable)
		sender.AssertNumberOfCalls(t, "Send", 5)
	})
}
