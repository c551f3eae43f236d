package bot

import (
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// maxButtonLabel keeps inline buttons readable on phones
const maxButtonLabel = 40

// sendMessage sends a prepared message
func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if b.api == nil {
		// For testing
		out := Outgoing{ChatID: msg.ChatID, Text: msg.Text}
		if kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
			out.Keyboard = &kb
		}
		b.outboxMu.Lock()
		b.outbox = append(b.outbox, out)
		b.outboxMu.Unlock()
		return
	}

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}

// sendHTML sends text formatted as Telegram HTML. Values inside text must be escaped.
func (b *Bot) sendHTML(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	if chatID == 0 {
		// desk opened from the HTTP API before any chat
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	b.sendMessage(msg)
}

// deleteMessage removes a message from the chat, used for messages carrying a password
func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if b.api == nil {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Warn("Failed to delete message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// escape strips markup from text coming from users or the API
func (b *Bot) escape(s string) string {
	return b.policy.Sanitize(s)
}

// sent returns the messages kept while api is nil
func (b *Bot) sent() []Outgoing {
	b.outboxMu.Lock()
	defer b.outboxMu.Unlock()
	return append([]Outgoing(nil), b.outbox...)
}

func label(s string) string {
	if utf8.RuneCountInString(s) <= maxButtonLabel {
		return s
	}
	r := []rune(s)
	return string(r[:maxButtonLabel-1]) + "…"
}
