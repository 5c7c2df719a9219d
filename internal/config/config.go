// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"newsrelay/internal/model"
	"newsrelay/internal/twitter"
)

// Defaults for optional settings.
const (
	DefaultPollInterval = 60 * time.Second
	DefaultLogLevel     = "info"
)

// MissingError lists required environment variables that are unset.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return "missing environment variables: " + strings.Join(e.Names, ", ")
}

// Config holds the application configuration.
type Config struct {
	TelegramBotToken      string
	TelegramChatID        int64
	TwitterBearerToken    string
	TwitterUsername       string
	TwitterAPIURL         string
	TwitterMaxResults     int
	TwitterExcludeReplies bool
	PollInterval          time.Duration
	NotifyStartup         bool
	StateDBPath           string
	LogLevel              string
	Feeds                 []model.Feed
}

var required = []string{
	"TELEGRAM_BOT_TOKEN",
	"TELEGRAM_CHAT_ID",
	"TWITTER_BEARER_TOKEN",
	"TWITTER_USERNAME",
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var missing []string
	for _, name := range required {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingError{Names: missing}
	}

	chatID, err := strconv.ParseInt(strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}

	username := strings.TrimPrefix(strings.TrimSpace(os.Getenv("TWITTER_USERNAME")), "@")
	if username == "" {
		return nil, fmt.Errorf("invalid TWITTER_USERNAME: empty handle")
	}

	cfg := &Config{
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:     chatID,
		TwitterBearerToken: os.Getenv("TWITTER_BEARER_TOKEN"),
		TwitterUsername:    username,
		TwitterAPIURL:      envOrDefault("TWITTER_API_URL", twitter.DefaultBaseURL),
		TwitterMaxResults:  twitter.DefaultMaxResults,
		PollInterval:       DefaultPollInterval,
		NotifyStartup:      true,
		StateDBPath:        os.Getenv("STATE_DB_PATH"),
		LogLevel:           envOrDefault("LOG_LEVEL", DefaultLogLevel),
	}

	if raw := os.Getenv("TWITTER_MAX_RESULTS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 5 || n > 100 {
			return nil, fmt.Errorf("TWITTER_MAX_RESULTS must be between 5 and 100, got %q", raw)
		}
		cfg.TwitterMaxResults = n
	}

	if cfg.TwitterExcludeReplies, err = envBool("TWITTER_EXCLUDE_REPLIES", false); err != nil {
		return nil, err
	}
	if cfg.NotifyStartup, err = envBool("NOTIFY_STARTUP", true); err != nil {
		return nil, err
	}

	if raw := os.Getenv("POLL_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", d)
		}
		cfg.PollInterval = d
	}

	if path := os.Getenv("FEEDS_FILE"); path != "" {
		feeds, err := LoadFeeds(path)
		if err != nil {
			return nil, err
		}
		cfg.Feeds = feeds
	} else {
		cfg.Feeds = DefaultFeeds()
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
