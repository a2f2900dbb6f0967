package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// The bundled bot API client predates web app buttons, so inline keyboards
// that open the mini app are encoded with these types instead.
type webAppInfo struct {
	URL string `json:"url"`
}

type webAppButton struct {
	Text   string      `json:"text"`
	WebApp *webAppInfo `json:"web_app,omitempty"`
}

type webAppKeyboard struct {
	InlineKeyboard [][]webAppButton `json:"inline_keyboard"`
}

func (b *Bot) appURL(path string) string {
	return strings.TrimRight(b.config.Telegram.WebAppURL, "/") + path
}

func (b *Bot) mainMenuKeyboard() webAppKeyboard {
	row := func(text, path string) []webAppButton {
		return []webAppButton{{Text: text, WebApp: &webAppInfo{URL: b.appURL(path)}}}
	}
	return webAppKeyboard{InlineKeyboard: [][]webAppButton{
		row(btnOpenApp, ""),
		row(btnSchedule, "/schedule"),
		row(btnMySubs, "/subscriptions"),
		row(btnMyBookings, "/bookings"),
	}}
}

func (b *Bot) openAppKeyboard() webAppKeyboard {
	return webAppKeyboard{InlineKeyboard: [][]webAppButton{
		{{Text: btnOpenApp, WebApp: &webAppInfo{URL: b.appURL("")}}},
	}}
}

func offerKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnAgree, callbackAgreeOffer)),
	)
}

func contactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(btnSharePhone)),
	)
	kb.ResizeKeyboard = true
	return kb
}
