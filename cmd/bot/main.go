package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"newsrelay/internal/bot"
	"newsrelay/internal/config"
	"newsrelay/internal/fetcher"
	"newsrelay/internal/scheduler"
	"newsrelay/internal/storage"
	"newsrelay/internal/twitter"
)

const startupNotice = "✅ Telegram bot is connected!"

func main() {
	cfg, err := config.Load()
	if err != nil {
		var missing *config.MissingError
		if errors.As(err, &missing) {
			slog.Error("load config", "missing", missing.Names)
		} else {
			slog.Error("load config", "error", err)
		}
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	store, err := openStore(cfg.StateDBPath, log)
	if err != nil {
		log.Error("open state", "path", cfg.StateDBPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	b, err := bot.New(cfg.TelegramBotToken, cfg.TelegramChatID, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	social := twitter.New(httpClient, cfg.TwitterAPIURL, cfg.TwitterBearerToken,
		twitter.WithMaxResults(cfg.TwitterMaxResults),
		twitter.WithExcludeReplies(cfg.TwitterExcludeReplies),
	)

	notice := ""
	if cfg.NotifyStartup {
		notice = startupNotice
	}

	sched := scheduler.New(scheduler.Deps{
		Social:        social,
		Feeds:         fetcher.New(httpClient),
		Sender:        b,
		Store:         store,
		Log:           log,
		Username:      cfg.TwitterUsername,
		Sources:       cfg.Feeds,
		Interval:      cfg.PollInterval,
		StartupNotice: notice,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := sched.Init(ctx); err != nil {
		log.Error("bot stopped: could not resolve account", "username", cfg.TwitterUsername, "error", err)
		os.Exit(1)
	}

	log.Info("starting relay",
		"username", cfg.TwitterUsername,
		"feeds", len(cfg.Feeds),
		"interval", cfg.PollInterval,
	)

	sched.Run(ctx)

	log.Info("relay stopped")
}

func openStore(path string, log *slog.Logger) (storage.Storage, error) {
	if path == "" {
		log.Info("state kept in memory")
		return storage.NewMemory(), nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}
	s, err := storage.NewSQLite(path)
	if err != nil {
		return nil, err
	}
	log.Info("state kept in sqlite", "path", path)
	return s, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
