package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"

	"newsrelay/internal/model"
)

// --- mocks ---

type sentMsg struct {
	ChatID    int64
	Kind      string
	Text      string
	PhotoURL  string
	ParseMode string
}

type mockAPI struct {
	mu   sync.Mutex
	sent []sentMsg
	err  error
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return tgbotapi.Message{}, m.err
	}
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		m.sent = append(m.sent, sentMsg{ChatID: v.ChatID, Kind: "text", Text: v.Text, ParseMode: v.ParseMode})
	case tgbotapi.PhotoConfig:
		url, _ := v.File.(tgbotapi.FileURL)
		m.sent = append(m.sent, sentMsg{ChatID: v.ChatID, Kind: "photo", Text: v.Caption, PhotoURL: string(url), ParseMode: v.ParseMode})
	}
	return tgbotapi.Message{}, nil
}

func newTestBot(api *mockAPI) *Bot {
	return NewWithAPI(api, 4242, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSend(t *testing.T) {
	tests := []struct {
		name string
		msg  model.Message
		want sentMsg
	}{
		{
			name: "plain text",
			msg:  model.Message{Text: "hello"},
			want: sentMsg{ChatID: 4242, Kind: "text", Text: "hello"},
		},
		{
			name: "markup text",
			msg:  model.Message{Text: "<b>hi</b>", Markup: true},
			want: sentMsg{ChatID: 4242, Kind: "text", Text: "<b>hi</b>", ParseMode: tgbotapi.ModeHTML},
		},
		{
			name: "photo with caption",
			msg:  model.Message{Text: "caption", ImageURL: "https://pbs.example.com/p.jpg"},
			want: sentMsg{ChatID: 4242, Kind: "photo", Text: "caption", PhotoURL: "https://pbs.example.com/p.jpg"},
		},
		{
			name: "caption too long falls back to text",
			msg:  model.Message{Text: strings.Repeat("a", maxCaptionLen+1), ImageURL: "https://pbs.example.com/p.jpg"},
			want: sentMsg{ChatID: 4242, Kind: "text", Text: strings.Repeat("a", maxCaptionLen+1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{}
			b := newTestBot(api)
			if err := b.Send(context.Background(), tt.msg); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff([]sentMsg{tt.want}, api.sent); diff != "" {
				t.Errorf("sent mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSendTruncatesLongPlainText(t *testing.T) {
	api := &mockAPI{}
	b := newTestBot(api)

	if err := b.Send(context.Background(), model.Message{Text: strings.Repeat("é", 5000)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := api.sent[0].Text
	if n := utf8.RuneCountInString(got); n > maxTextLen {
		t.Errorf("text has %d characters, limit %d", n, maxTextLen)
	}
	if !strings.HasSuffix(got, Ellipsis) {
		t.Errorf("truncated text lacks ellipsis: %q", got[len(got)-10:])
	}
}

func TestSendError(t *testing.T) {
	api := &mockAPI{err: errors.New("Bad Request: chat not found")}
	b := newTestBot(api)

	err := b.Send(context.Background(), model.Message{Text: "x"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("error lost cause: %v", err)
	}
}

func TestSendCancelledContext(t *testing.T) {
	api := &mockAPI{}
	b := newTestBot(api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Drain the single burst token so Wait has to block on ctx.
	b.limiter.Allow()
	if err := b.Send(ctx, model.Message{Text: "x"}); err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if len(api.sent) != 0 {
		t.Errorf("sent %d messages on cancelled context", len(api.sent))
	}
}

func TestNotify(t *testing.T) {
	api := &mockAPI{}
	b := newTestBot(api)

	if err := b.Notify(context.Background(), "✅ Telegram bot is connected!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []sentMsg{{ChatID: 4242, Kind: "text", Text: "✅ Telegram bot is connected!"}}
	if diff := cmp.Diff(want, api.sent); diff != "" {
		t.Errorf("sent mismatch (-want +got):\n%s", diff)
	}
}
