// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides settings for the Redis-backed task queue.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
}

// WhatsAppConfig provides settings for the WhatsApp Cloud API client.
type WhatsAppConfig interface {
	GetWhatsAppAPIURL() string
	GetWhatsAppAPIToken() string
	GetWhatsAppPhoneNumberID() string
	IsWhatsAppEnabled() bool
}

// PhoneConfig provides settings for phone number normalization.
type PhoneConfig interface {
	GetDefaultRegion() string
}

// OrderConfig provides settings for order presentation.
type OrderConfig interface {
	GetCurrency() string
}

// PollingConfig provides refresh intervals for the operator console.
type PollingConfig interface {
	GetConversationPollInterval() time.Duration
	GetInboxPollInterval() time.Duration
}

// SchedulerConfig provides settings for the background worker.
type SchedulerConfig interface {
	RedisConfig
	GetSchedulerConcurrency() int
	GetOutboxMaxAttempts() int
	GetInquiryFollowUpDelay() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	DatabaseURL              string
	JWTAccessSecret          string
	CORSAllowAll             bool
	CORSOrigins              []string
	CORSAllowCreds           bool
	RedisURL                 string
	RedisTLSInsecure         bool
	AsynqQueueName           string
	WhatsAppAPIURL           string
	WhatsAppAPIToken         string
	WhatsAppPhoneNumberID    string
	DefaultRegion            string
	Currency                 string
	ConversationPollInterval time.Duration
	InboxPollInterval        time.Duration
	SchedulerConcurrency     int
	OutboxMaxAttempts        int
	InquiryFollowUpDelay     time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig implementation
func (c *Config) GetRedisURL() string      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppAPIURL() string         { return c.WhatsAppAPIURL }
func (c *Config) GetWhatsAppAPIToken() string       { return c.WhatsAppAPIToken }
func (c *Config) GetWhatsAppPhoneNumberID() string  { return c.WhatsAppPhoneNumberID }
func (c *Config) IsWhatsAppEnabled() bool           { return c.WhatsAppAPIToken != "" }

// PhoneConfig implementation
func (c *Config) GetDefaultRegion() string { return c.DefaultRegion }

// OrderConfig implementation
func (c *Config) GetCurrency() string { return c.Currency }

// PollingConfig implementation
func (c *Config) GetConversationPollInterval() time.Duration { return c.ConversationPollInterval }
func (c *Config) GetInboxPollInterval() time.Duration        { return c.InboxPollInterval }

// SchedulerConfig implementation
func (c *Config) GetSchedulerConcurrency() int            { return c.SchedulerConcurrency }
func (c *Config) GetOutboxMaxAttempts() int               { return c.OutboxMaxAttempts }
func (c *Config) GetInquiryFollowUpDelay() time.Duration  { return c.InquiryFollowUpDelay }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		JWTAccessSecret:          getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		CORSAllowCreds:           strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:                 getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTLSInsecure:         strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:           getEnv("ASYNQ_QUEUE_NAME", "default"),
		WhatsAppAPIURL:           getEnv("WHATSAPP_API_URL", "https://graph.facebook.com/v21.0"),
		WhatsAppAPIToken:         getEnv("WHATSAPP_API_TOKEN", ""),
		WhatsAppPhoneNumberID:    getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		DefaultRegion:            getEnv("DEFAULT_PHONE_REGION", "AE"),
		Currency:                 getEnv("ORDER_CURRENCY", "AED"),
		ConversationPollInterval: mustDuration(getEnv("CONVERSATION_POLL_INTERVAL", "15s")),
		InboxPollInterval:        mustDuration(getEnv("INBOX_POLL_INTERVAL", "4s")),
		SchedulerConcurrency:     mustInt(getEnv("SCHEDULER_CONCURRENCY", "10")),
		OutboxMaxAttempts:        mustInt(getEnv("OUTBOX_MAX_ATTEMPTS", "5")),
		InquiryFollowUpDelay:     mustDuration(getEnv("INQUIRY_FOLLOWUP_DELAY", "15m")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
