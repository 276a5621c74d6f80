package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	defaultEndpoint     = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	defaultPollSchedule = "@every 10m" // 600 seconds between cycles
	defaultHTTPTimeout  = 10 * time.Second
	defaultNotifyRate   = 1
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	PracticumToken    string
	TelegramToken     string
	TelegramChatID    int64
	PracticumEndpoint string
	PollSchedule      string
	HTTPTimeout       time.Duration
	NotifyRatePerSec  int
	LogLevel          string
	Environment       string
}

// Load reads configuration from environment variables and .env file (if present).
// The three secrets are mandatory; everything else has a default.
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.PracticumToken = getenv("YP_TOKEN")
	if cfg.PracticumToken == "" {
		return nil, fmt.Errorf("YP_TOKEN is not set")
	}

	cfg.TelegramToken = getenv("TG_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TG_TOKEN is not set")
	}

	chatIDStr := getenv("CHAT_ID")
	if chatIDStr == "" {
		return nil, fmt.Errorf("CHAT_ID is not set")
	}
	cfg.TelegramChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_ID: %w", err)
	}

	cfg.PracticumEndpoint = getenv("PRACTICUM_ENDPOINT")
	if cfg.PracticumEndpoint == "" {
		cfg.PracticumEndpoint = defaultEndpoint
	}

	cfg.PollSchedule = getenv("POLL_SCHEDULE")
	if cfg.PollSchedule == "" {
		cfg.PollSchedule = defaultPollSchedule
	}
	if _, err := cron.ParseStandard(cfg.PollSchedule); err != nil {
		return nil, fmt.Errorf("invalid POLL_SCHEDULE %q: %w", cfg.PollSchedule, err)
	}

	cfg.HTTPTimeout = defaultHTTPTimeout
	if v := getenv("HTTP_TIMEOUT"); v != "" {
		cfg.HTTPTimeout, err = time.ParseDuration(v)
		if err != nil || cfg.HTTPTimeout <= 0 {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q", v)
		}
	}

	cfg.NotifyRatePerSec = defaultNotifyRate
	if v := getenv("NOTIFY_RATE_PER_SEC"); v != "" {
		cfg.NotifyRatePerSec, err = strconv.Atoi(v)
		if err != nil || cfg.NotifyRatePerSec <= 0 {
			return nil, fmt.Errorf("invalid NOTIFY_RATE_PER_SEC %q", v)
		}
	}

	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}
