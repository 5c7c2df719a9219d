// Package bot composes chat messages and delivers them through the
// Telegram Bot API.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"newsrelay/internal/model"
)

// Telegram limits, counted in characters.
const (
	maxCaptionLen = 1024
	maxTextLen    = 4096
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot delivers messages to a single Telegram chat.
type Bot struct {
	api     telegramAPI
	chatID  int64
	limiter *rate.Limiter
	log     *slog.Logger
}

// New creates a Bot with the given Telegram token and target chat.
func New(token string, chatID int64, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("authorized on telegram", "account", api.Self.UserName)
	return NewWithAPI(api, chatID, log), nil
}

// NewWithAPI creates a Bot around an existing API client (useful for testing).
func NewWithAPI(api telegramAPI, chatID int64, log *slog.Logger) *Bot {
	return &Bot{
		api:    api,
		chatID: chatID,
		// Telegram allows roughly 20 messages per second.
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 1),
		log:     log,
	}
}

// Send delivers msg as a photo with caption when it carries an image that
// fits, otherwise as a text message.
func (b *Bot) Send(ctx context.Context, msg model.Message) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}

	parseMode := ""
	if msg.Markup {
		parseMode = tgbotapi.ModeHTML
	}

	if msg.ImageURL != "" && utf8.RuneCountInString(msg.Text) <= maxCaptionLen {
		photo := tgbotapi.NewPhoto(b.chatID, tgbotapi.FileURL(msg.ImageURL))
		photo.Caption = msg.Text
		photo.ParseMode = parseMode
		if _, err := b.api.Send(photo); err != nil {
			return fmt.Errorf("send photo: %w", err)
		}
		return nil
	}

	text := msg.Text
	if !msg.Markup {
		text = truncate(text, maxTextLen-len([]rune(Ellipsis)))
	}
	m := tgbotapi.NewMessage(b.chatID, text)
	m.ParseMode = parseMode
	if _, err := b.api.Send(m); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Notify sends a plain service message, such as the startup notice.
func (b *Bot) Notify(ctx context.Context, text string) error {
	return b.Send(ctx, model.Message{Text: text})
}
