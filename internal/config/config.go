package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	TelegramToken  string
	ReplicateToken string

	LogLevel string
	Debug    bool

	PreferIPv4 bool

	WebhookURL string
	Port       int

	SettingsPath string

	MaxConcurrent  int
	RequestTimeout time.Duration
	HTTPTimeout    time.Duration

	ReplicateBaseURL string
	ReplicateVersion string
	PollInterval     time.Duration
	GenerateTimeout  time.Duration

	SearchBaseURL string

	Cooldown        time.Duration
	MinRequestGap   time.Duration
	TypingDelay     time.Duration
	RateLimitWindow time.Duration
	UserRateLimit   int
	GlobalRateLimit int
}

func Load() (Config, error) {
	cfg := Config{
		LogLevel:   strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		Debug:      getEnvBool("DEBUG", false),
		PreferIPv4: getEnvBool("PREFER_IPV4", true),

		WebhookURL: strings.TrimSpace(os.Getenv("WEBHOOK_URL")),
		Port:       getEnvInt("PORT", 8000),

		SettingsPath: strings.TrimSpace(getEnv("SETTINGS_PATH", "chat_settings.json")),

		MaxConcurrent:  getEnvInt("MAX_CONCURRENT", 4),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 180)) * time.Second,
		HTTPTimeout:    time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 60)) * time.Second,

		ReplicateBaseURL: strings.TrimSpace(getEnv("REPLICATE_BASE_URL", "https://api.replicate.com")),
		ReplicateVersion: strings.TrimSpace(getEnv("REPLICATE_MODEL_VERSION", "stability-ai/sdxl:39ed52f2a78e934b3ba6e2a89f5b1c712de7dfea535525255b1aa35c5565e08b")),
		PollInterval:     time.Duration(getEnvInt("REPLICATE_POLL_MS", 1000)) * time.Millisecond,
		GenerateTimeout:  time.Duration(getEnvInt("REPLICATE_MAX_WAIT_SECONDS", 120)) * time.Second,

		SearchBaseURL: strings.TrimSpace(getEnv("SEARCH_BASE_URL", "https://www.google.com/search")),

		Cooldown:        time.Duration(getEnvInt("SUIMEME_COOLDOWN_SECONDS", 5)) * time.Second,
		MinRequestGap:   time.Duration(getEnvInt("MIN_REQUEST_GAP_MS", 100)) * time.Millisecond,
		TypingDelay:     time.Duration(getEnvInt("TYPING_DELAY_SECONDS", 3)) * time.Second,
		RateLimitWindow: time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		UserRateLimit:   getEnvInt("USER_RATE_LIMIT_COUNT", 5),
		GlobalRateLimit: getEnvInt("GLOBAL_RATE_LIMIT_COUNT", 30),
	}

	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN"))
	cfg.ReplicateToken = strings.TrimSpace(os.Getenv("REPLICATE_API_TOKEN"))

	switch {
	case cfg.TelegramToken == "":
		return Config{}, errors.New("TELEGRAM_TOKEN is required")
	case cfg.ReplicateToken == "":
		return Config{}, errors.New("REPLICATE_API_TOKEN is required")
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 120 * time.Second
	}
	if cfg.UserRateLimit < 1 {
		cfg.UserRateLimit = 1
	}
	if cfg.GlobalRateLimit < 1 {
		cfg.GlobalRateLimit = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
