package bot

import (
	"context"
	"time"

	"yogastudio/internal/config"
	"yogastudio/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const updateTimeout = 30 * time.Second

type Bot struct {
	tgService    domain.TelegramService
	config       *config.Config
	stateService domain.StateManager
	userService  domain.UserService
	metrics      *Metrics
	logger       *zerolog.Logger
	selfID       int64
}

func NewBot(
	tgService domain.TelegramService,
	cfg *config.Config,
	stateService domain.StateManager,
	userService domain.UserService,
	metrics *Metrics,
	logger *zerolog.Logger,
) (*Bot, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Bot{
		tgService:    tgService,
		config:       cfg,
		stateService: stateService,
		userService:  userService,
		metrics:      metrics,
		logger:       logger,
		selfID:       tgService.GetSelf().ID,
	}, nil
}

// Start consumes updates until ctx is done. Updates are handled one at a time.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query", "my_chat_member"}

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates.
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
	}()

	updateCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	l := b.logger.With().Str("request_id", uuid.NewString()).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery("update", func() {
		if update.MyChatMember != nil {
			b.handleMyChatMember(updateCtx, update.MyChatMember)
			return
		}

		userID, chatID := updateOrigin(update)
		if userID == 0 {
			return
		}

		if !b.allowed(updateCtx, userID) {
			switch {
			case update.Message != nil:
				b.reply(updateCtx, chatID, msgRateLimited)
			case update.CallbackQuery != nil:
				if err := b.tgService.AnswerCallback(update.CallbackQuery.ID, ""); err != nil {
					zerolog.Ctx(updateCtx).Warn().Err(err).Int64("user_id", userID).Msg("Failed to answer rate limited callback")
				}
			}
			return
		}

		var err error
		switch {
		case update.CallbackQuery != nil:
			err = b.handleCallbackQuery(updateCtx, update.CallbackQuery)
		case update.Message != nil:
			err = b.handleMessage(updateCtx, update.Message)
		}
		if err != nil {
			b.handleError(updateCtx, userID, chatID, err)
		}
	})
}

func updateOrigin(update tgbotapi.Update) (userID, chatID int64) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		chatID = update.CallbackQuery.From.ID
		if update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil {
			chatID = update.CallbackQuery.Message.Chat.ID
		}
		return update.CallbackQuery.From.ID, chatID
	}
	return 0, 0
}

func (b *Bot) allowed(ctx context.Context, userID int64) bool {
	window := time.Duration(b.config.Bot.RateLimitWindow) * time.Second
	ok, err := b.stateService.CheckRateLimit(ctx, userID, b.config.Bot.RateLimitMessages, window)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
		return true
	}
	if !ok {
		zerolog.Ctx(ctx).Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
	}
	return ok
}
