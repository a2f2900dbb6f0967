package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotWrapper adapts *tgbotapi.BotAPI to domain.TelegramSender.
type BotWrapper struct {
	*tgbotapi.BotAPI
}

// Connect authorizes token against the bot API.
func Connect(token string, debug bool) (*BotWrapper, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}
	api.Debug = debug
	return &BotWrapper{BotAPI: api}, nil
}

func (w *BotWrapper) GetSelf() tgbotapi.User {
	return w.Self
}
