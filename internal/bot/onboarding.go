package bot

import (
	"context"
	"fmt"
	"strings"

	"yogastudio/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const keyFullName = "full_name"

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	userID := msg.From.ID
	l := zerolog.Ctx(ctx)

	b.metrics.MessagesProcessed.Inc()
	l.Debug().Int64("user_id", userID).Str("text", msg.Text).Bool("contact", msg.Contact != nil).Msg("Handling message")

	if msg.IsCommand() {
		if msg.Command() == "start" {
			b.metrics.CommandsProcessed.Inc()
			return b.handleStart(ctx, msg)
		}
		return nil
	}

	state, err := b.stateService.GetUserState(ctx, userID)
	if err != nil {
		return fmt.Errorf("load onboarding state: %w", err)
	}

	if state != nil {
		switch state.CurrentStep {
		case models.StepAwaitingName:
			if msg.Text != "" {
				return b.handleFullName(ctx, msg)
			}
		case models.StepAwaitingPhone:
			return b.handlePhone(ctx, msg, state)
		}
	}

	return b.sendUnknownPrompt(ctx, msg.Chat.ID)
}

// handleStart routes a user to the first onboarding step they have not completed.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if err := b.stateService.ClearUserState(ctx, userID); err != nil {
		return err
	}

	user, err := b.userService.GetByTelegramID(ctx, userID)
	if err != nil {
		return err
	}

	switch {
	case user == nil:
		if _, err := b.tgService.SendMessage(chatID, msgWelcome); err != nil {
			return err
		}
		return b.stateService.SetUserState(ctx, userID, models.StepAwaitingName, nil)

	case !user.AgreedToOffer:
		if err := b.sendOffer(ctx, chatID); err != nil {
			return err
		}
		return b.stateService.SetUserState(ctx, userID, models.StepAwaitingOfferConsent, nil)

	default:
		if _, err := b.tgService.SendMessage(chatID, msgAlreadyRegistered); err != nil {
			return err
		}
		return b.showMainMenu(chatID)
	}
}

func (b *Bot) handleFullName(ctx context.Context, msg *tgbotapi.Message) error {
	fullName := strings.TrimSpace(msg.Text)
	if fullName == "" {
		_, err := b.tgService.SendMessage(msg.Chat.ID, msgWelcome)
		return err
	}

	if _, err := b.tgService.SendWithKeyboard(msg.Chat.ID, msgAskPhone, contactKeyboard()); err != nil {
		return err
	}
	return b.stateService.SetUserState(ctx, msg.From.ID, models.StepAwaitingPhone, map[string]interface{}{
		keyFullName: fullName,
	})
}

// handlePhone creates the user from a shared contact. Anything else re-prompts.
func (b *Bot) handlePhone(ctx context.Context, msg *tgbotapi.Message, state *models.UserState) error {
	contact := msg.Contact
	if contact == nil || contact.PhoneNumber == "" || (contact.UserID != 0 && contact.UserID != msg.From.ID) {
		_, err := b.tgService.SendWithKeyboard(msg.Chat.ID, msgPhoneViaButton, contactKeyboard())
		return err
	}

	fullName := state.GetString(keyFullName)
	if fullName == "" {
		// State lost its payload; restart rather than store a nameless user.
		_ = b.stateService.ClearUserState(ctx, msg.From.ID)
		_, err := b.tgService.SendMessage(msg.Chat.ID, msgRestart)
		return err
	}

	user, err := b.userService.Register(ctx, msg.From.ID, fullName, contact.PhoneNumber)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", msg.From.ID).Msg("Failed to register user")
		_ = b.stateService.ClearUserState(ctx, msg.From.ID)
		_, sendErr := b.tgService.SendMessage(msg.Chat.ID, msgRestart)
		return sendErr
	}
	b.metrics.UsersRegistered.Inc()
	zerolog.Ctx(ctx).Info().Int64("user_id", user.ID).Int64("telegram_id", user.TelegramID).Msg("User registered")

	if _, err := b.tgService.SendWithKeyboard(msg.Chat.ID, msgSendingOffer, tgbotapi.NewRemoveKeyboard(true)); err != nil {
		return err
	}
	if err := b.sendOffer(ctx, msg.Chat.ID); err != nil {
		return err
	}
	return b.stateService.SetUserState(ctx, msg.From.ID, models.StepAwaitingOfferConsent, nil)
}

// sendOffer delivers the offer document with the consent button.
// Without a configured file the button comes with a plain text message.
func (b *Bot) sendOffer(ctx context.Context, chatID int64) error {
	path := b.config.Telegram.OfferFile
	if path == "" {
		_, err := b.tgService.SendWithKeyboard(chatID, msgOfferCaption, offerKeyboard())
		return err
	}

	if _, err := b.tgService.SendDocument(chatID, path, offerFileName, msgOfferCaption, offerKeyboard()); err != nil {
		if isBlocked(err) {
			return err
		}
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send offer")
		_, sendErr := b.tgService.SendMessage(chatID, msgOfferFailed)
		return sendErr
	}
	return nil
}

func (b *Bot) handleCallbackQuery(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.Data != callbackAgreeOffer {
		return b.tgService.AnswerCallback(cb.ID, "")
	}
	return b.handleAgreeOffer(ctx, cb)
}

func (b *Bot) handleAgreeOffer(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	userID := cb.From.ID
	if cb.Message == nil || cb.Message.Chat == nil {
		zerolog.Ctx(ctx).Error().Int64("user_id", userID).Msg("Consent callback without a message")
		return b.tgService.AnswerCallback(cb.ID, "")
	}
	chatID := cb.Message.Chat.ID

	user, err := b.userService.GetByTelegramID(ctx, userID)
	if err != nil {
		return err
	}

	if user == nil {
		_ = b.tgService.AnswerCallback(cb.ID, "")
		edit := tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID, msgUserMissing)
		if _, err := b.tgService.Send(edit); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to edit offer message")
		}
		return nil
	}

	if user.AgreedToOffer {
		if _, err := b.tgService.Request(tgbotapi.NewCallbackWithAlert(cb.ID, msgAlreadyAgreed)); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to answer callback")
		}
		_ = b.stateService.ClearUserState(ctx, userID)
		return b.showMainMenu(chatID)
	}

	_ = b.tgService.AnswerCallback(cb.ID, "")

	if err := b.userService.SetConsent(ctx, userID, true, "onboarding"); err != nil {
		return err
	}

	strip := tgbotapi.NewEditMessageReplyMarkup(chatID, cb.Message.MessageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := b.tgService.Send(strip); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to remove offer keyboard")
	}

	if err := b.stateService.ClearUserState(ctx, userID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("Failed to clear onboarding state")
	}

	if _, err := b.tgService.SendMessage(chatID, msgConsentThanks); err != nil {
		return err
	}
	return b.showMainMenu(chatID)
}

func (b *Bot) showMainMenu(chatID int64) error {
	_, err := b.tgService.SendWithKeyboard(chatID, msgMainMenu, b.mainMenuKeyboard())
	return err
}

func (b *Bot) sendUnknownPrompt(_ context.Context, chatID int64) error {
	_, err := b.tgService.SendWithKeyboard(chatID, msgUseApp, b.openAppKeyboard())
	return err
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}
