package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ndemidenko/habitbot/internal/domain"
	"github.com/ndemidenko/habitbot/internal/observability"
)

// Bot delivers outbound messages over the Telegram Bot API and fetches
// voice attachments for transcription.
type Bot struct {
	api  *tgbotapi.BotAPI
	http *http.Client
}

func NewBot(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Bot{api: api, http: http.DefaultClient}, nil
}

// SetWebhook registers the public webhook URL with Telegram.
func (b *Bot) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

func (b *Bot) Send(ctx context.Context, msg domain.OutboundMessage) error {
	out := tgbotapi.NewMessage(int64(msg.ChatID), msg.Text)
	if len(msg.Keyboard) > 0 {
		out.ReplyMarkup = replyKeyboard(msg.Keyboard)
	}
	if _, err := b.api.Send(out); err != nil {
		return &domain.AdapterError{Op: "send message", Err: err}
	}
	observability.LoggerFromContext(ctx).Debug("message sent", "chat_id", int64(msg.ChatID))
	return nil
}

// FetchVoice downloads the audio behind a voice reference from
// Telegram's file servers.
func (b *Bot) FetchVoice(ctx context.Context, voice domain.VoiceRef) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(voice.FileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download voice file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download voice file: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func replyKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	keyboard := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		keyboard = append(keyboard, buttons)
	}
	markup := tgbotapi.NewReplyKeyboard(keyboard...)
	markup.ResizeKeyboard = true
	return markup
}
