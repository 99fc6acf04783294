package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ndemidenko/habitbot/internal/domain"
)

// DecodeUpdate maps a webhook update to an inbound message. Updates
// without a message (edits, callbacks, channel posts) decode to false.
func DecodeUpdate(update tgbotapi.Update) (domain.InboundMessage, bool) {
	m := update.Message
	if m == nil || m.From == nil {
		return domain.InboundMessage{}, false
	}

	msg := domain.InboundMessage{
		UserID: domain.UserID(m.From.ID),
		ChatID: domain.ChatID(m.Chat.ID),
		Text:   m.Text,
	}
	if m.Voice != nil {
		msg.Voice = &domain.VoiceRef{FileID: m.Voice.FileID}
	}
	return msg, true
}
