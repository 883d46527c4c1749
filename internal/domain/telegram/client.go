package telegram

import "gopkg.in/telebot.v3"

// Client sends a text message to a Telegram chat.
// The reminder notifier depends on this instead of *telebot.Bot so it can be faked in tests.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
