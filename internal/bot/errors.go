package bot

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// isBlocked reports a 403 from the bot API, which is what Telegram returns
// once the user has blocked the bot.
func isBlocked(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusForbidden
	}
	return strings.Contains(err.Error(), "Forbidden: bot was blocked")
}

// handleError ends the current flow: the user's consent is cleared when the
// bot turns out to be blocked, otherwise they get a generic failure message.
func (b *Bot) handleError(ctx context.Context, userID, chatID int64, err error) {
	l := zerolog.Ctx(ctx)
	b.metrics.ErrorsTotal.Inc()
	l.Error().Err(err).Int64("user_id", userID).Msg("Update handling failed")

	if clearErr := b.stateService.ClearUserState(ctx, userID); clearErr != nil {
		l.Warn().Err(clearErr).Int64("user_id", userID).Msg("Failed to clear onboarding state")
	}

	if isBlocked(err) {
		b.resetConsent(ctx, userID, "send_error")
		return
	}

	if chatID != 0 {
		b.reply(ctx, chatID, msgError)
	}
}

func (b *Bot) resetConsent(ctx context.Context, userID int64, source string) {
	if err := b.userService.SetConsent(ctx, userID, false, source); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Str("source", source).Msg("Failed to reset consent")
		return
	}
	zerolog.Ctx(ctx).Info().Int64("user_id", userID).Str("source", source).Msg("Consent reset: bot blocked by user")
}

// withRecovery keeps a panicking handler from taking down the update loop.
func (b *Bot) withRecovery(scope string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.ErrorsTotal.Inc()
			b.logger.Error().
				Str("scope", scope).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from panic")
		}
	}()
	fn()
}
