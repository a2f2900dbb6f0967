package bot

import (
	"context"
	"errors"
	"time"

	"yogastudio/internal/database"
	"yogastudio/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	statusKicked = "kicked"
	statusMember = "member"
)

// handleMyChatMember tracks the user blocking and unblocking the bot in a private chat.
func (b *Bot) handleMyChatMember(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) {
	if upd.NewChatMember.User == nil || upd.NewChatMember.User.ID != b.selfID {
		return
	}
	if upd.Chat.Type != "private" {
		return
	}

	oldStatus := upd.OldChatMember.Status
	newStatus := upd.NewChatMember.Status
	userID := upd.From.ID
	l := zerolog.Ctx(ctx)
	l.Info().Int64("user_id", userID).Str("old", oldStatus).Str("new", newStatus).Msg("Bot membership changed")

	user, err := b.userService.GetByTelegramID(ctx, userID)
	if err != nil {
		l.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user for membership update")
		return
	}
	if user == nil {
		return
	}

	switch {
	case newStatus == statusKicked:
		b.resetConsent(ctx, userID, "event")
		_ = b.stateService.ClearUserState(ctx, userID)

	case oldStatus == statusKicked && newStatus == statusMember:
		b.reply(ctx, upd.Chat.ID, msgUnblocked)
		if err := b.sendOffer(ctx, upd.Chat.ID); err != nil {
			l.Warn().Err(err).Int64("user_id", userID).Msg("Failed to send offer after unblock")
			return
		}
		if err := b.stateService.SetUserState(ctx, userID, models.StepAwaitingOfferConsent, nil); err != nil {
			l.Warn().Err(err).Int64("user_id", userID).Msg("Failed to store onboarding state")
		}
	}
}

// SweepBlockedUsers probes every consenting user and clears consent for those
// who blocked the bot while it was not receiving updates. It returns how many
// flags were cleared.
func (b *Bot) SweepBlockedUsers(ctx context.Context) (int, error) {
	users, err := b.userService.ConsentingUsers(ctx)
	if err != nil {
		return 0, err
	}

	l := b.logger.With().Str("job", "blocked_sweep").Logger()
	cleared := 0
	for _, user := range users {
		if ctx.Err() != nil {
			return cleared, ctx.Err()
		}
		_, err := b.tgService.GetChatMember(user.TelegramID, b.selfID)
		if err == nil {
			continue
		}
		if !isBlocked(err) {
			l.Warn().Err(err).Int64("telegram_id", user.TelegramID).Msg("Membership probe failed")
			continue
		}
		if err := b.userService.SetConsent(ctx, user.TelegramID, false, "sweep"); err != nil && !errors.Is(err, database.ErrUserNotFound) {
			l.Error().Err(err).Int64("telegram_id", user.TelegramID).Msg("Failed to reset consent")
			continue
		}
		cleared++
		l.Info().Int64("telegram_id", user.TelegramID).Msg("Blocked user detected")
	}

	l.Info().Int("checked", len(users)).Int("cleared", cleared).Msg("Blocked users sweep finished")
	return cleared, nil
}

// ScheduleStartupSweep runs SweepBlockedUsers once after delay.
func (b *Bot) ScheduleStartupSweep(ctx context.Context, delay time.Duration) {
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		b.withRecovery("blocked_sweep", func() {
			if _, err := b.SweepBlockedUsers(ctx); err != nil && !errors.Is(err, context.Canceled) {
				b.logger.Error().Err(err).Msg("Blocked users sweep failed")
			}
		})
	}()
}
