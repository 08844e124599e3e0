package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // BRIEFING_TIMEZONE must resolve on minimal images

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Messenger backends.
const (
	MessengerLine     = "line"
	MessengerTelegram = "telegram"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DBPath          string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Delivery channel.
	Messenger       string
	LineAccessToken string
	LineUserID      string
	TelegramToken   string
	TelegramChatID  int64
	DeliveryRate    float64

	// Providers.
	ProviderTimeout time.Duration
	CacheTTL        time.Duration
	CacheSize       int

	// Triggering. A blank schedule runs one batch and exits.
	Schedule string
	Location *time.Location

	// Audit stream; disabled when no brokers are set.
	AuditKafkaBrokers []string
	AuditKafkaTopic   string
}

// Daemon reports whether the service should run on a cron schedule.
func (c *Config) Daemon() bool { return c.Schedule != "" }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	providerTimeout, err := parsePositiveDuration("PROVIDER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parsePositiveDuration("CACHE_TTL", "30m")
	if err != nil {
		return nil, err
	}

	rate, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("DELIVERY_RATE_PER_SEC", "1"), 64)
	if err != nil || rate <= 0 {
		return nil, errors.New("invalid DELIVERY_RATE_PER_SEC")
	}

	tz := sharedcfg.EnvOrDefault("BRIEFING_TIMEZONE", "Asia/Tokyo")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid BRIEFING_TIMEZONE %q: %w", tz, err)
	}

	cfg := &Config{
		DBPath:          sharedcfg.EnvOrDefault("DB_PATH", "briefing.db"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		Messenger:       strings.ToLower(sharedcfg.EnvOrDefault("MESSENGER", MessengerLine)),
		LineAccessToken: os.Getenv("LINE_ACCESS_TOKEN"),
		LineUserID:      os.Getenv("LINE_USER_ID"),
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		DeliveryRate:    rate,

		ProviderTimeout: providerTimeout,
		CacheTTL:        cacheTTL,
		CacheSize:       parseCacheSize(),

		Schedule: strings.TrimSpace(os.Getenv("BRIEFING_SCHEDULE")),
		Location: loc,

		AuditKafkaTopic: sharedcfg.EnvOrDefault("AUDIT_KAFKA_TOPIC", "briefing-audit"),
	}

	if brokers := os.Getenv("AUDIT_KAFKA_BROKERS"); brokers != "" {
		cfg.AuditKafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}

	switch cfg.Messenger {
	case MessengerLine:
		if cfg.LineAccessToken == "" {
			return nil, errors.New("LINE_ACCESS_TOKEN is required when MESSENGER is line")
		}
		if cfg.LineUserID == "" {
			return nil, errors.New("LINE_USER_ID is required when MESSENGER is line")
		}
	case MessengerTelegram:
		if cfg.TelegramToken == "" {
			return nil, errors.New("TELEGRAM_TOKEN is required when MESSENGER is telegram")
		}
		chatID, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)
		if err != nil || chatID == 0 {
			return nil, errors.New("TELEGRAM_CHAT_ID must be a non-zero integer when MESSENGER is telegram")
		}
		cfg.TelegramChatID = chatID
	default:
		return nil, fmt.Errorf("unknown MESSENGER %q", cfg.Messenger)
	}

	if len(cfg.AuditKafkaBrokers) > 0 && cfg.AuditKafkaTopic == "" {
		return nil, errors.New("AUDIT_KAFKA_TOPIC is required when AUDIT_KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}
