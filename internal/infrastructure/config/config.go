package config

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/chatgate/internal/shared/types"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Session   SessionConfig
	Engine    EngineConfig
	Storage   StorageConfig
	Media     MediaConfig
	Webhook   WebhookConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"3000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// SessionConfig holds single-tenant session settings.
type SessionConfig struct {
	Name   string `envconfig:"SESSION_NAME" default:"default"`
	Engine string `envconfig:"SESSION_ENGINE" default:"WEBJS"`
}

// EngineConfig holds the remote engine worker settings.
type EngineConfig struct {
	Endpoint string        `envconfig:"ENGINE_ENDPOINT" default:"http://localhost:3001"`
	Timeout  time.Duration `envconfig:"ENGINE_TIMEOUT" default:"30s"`
}

// StorageConfig holds session storage settings.
type StorageConfig struct {
	Dir       string `envconfig:"STORAGE_DIR" default:".sessions"`
	CacheSize int    `envconfig:"STORAGE_CACHE_SIZE" default:"256"`
	Compress  bool   `envconfig:"STORAGE_COMPRESS" default:"false"`
}

// MediaConfig holds media handling settings.
type MediaConfig struct {
	Mimetypes []string `envconfig:"MEDIA_MIMETYPES" default:"image/*,audio/*,video/*,application/pdf"`
	MaxBytes  int      `envconfig:"MEDIA_MAX_BYTES" default:"67108864"`
}

// WebhookConfig holds the process-wide webhook.
type WebhookConfig struct {
	URL                 string   `envconfig:"WEBHOOK_URL"`
	Events              []string `envconfig:"WEBHOOK_EVENTS" default:"message,session.status"`
	HMACKey             string   `envconfig:"WEBHOOK_HMAC_KEY"`
	RetriesPolicy       string   `envconfig:"WEBHOOK_RETRIES_POLICY" default:"constant"`
	RetriesDelaySeconds int      `envconfig:"WEBHOOK_RETRIES_DELAY_SECONDS" default:"2"`
	RetriesAttempts     int      `envconfig:"WEBHOOK_RETRIES_ATTEMPTS" default:"15"`

	// DrainTimeout bounds deliveries still retrying after their session is cleared
	DrainTimeout time.Duration `envconfig:"WEBHOOK_DRAIN_TIMEOUT" default:"30s"`
}

// GlobalWebhook returns the process-wide webhook, or nil when WEBHOOK_URL is unset.
func (c *Config) GlobalWebhook() *types.WebhookConfig {
	w := c.Webhook
	if w.URL == "" {
		return nil
	}
	hook := &types.WebhookConfig{
		URL:    w.URL,
		Events: append([]string(nil), w.Events...),
		Retries: &types.RetriesPolicy{
			Policy:       w.RetriesPolicy,
			DelaySeconds: w.RetriesDelaySeconds,
			Attempts:     w.RetriesAttempts,
		},
	}
	if w.HMACKey != "" {
		hook.HMAC = &types.HMACConfig{Key: w.HMACKey}
	}
	return hook
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "3000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Session: SessionConfig{
			Name:   "default",
			Engine: "WEBJS",
		},
		Engine: EngineConfig{
			Endpoint: "http://localhost:3001",
			Timeout:  30 * time.Second,
		},
		Storage: StorageConfig{
			Dir:       ".sessions",
			CacheSize: 256,
		},
		Media: MediaConfig{
			Mimetypes: []string{"image/*", "audio/*", "video/*", "application/pdf"},
			MaxBytes:  64 << 20,
		},
		Webhook: WebhookConfig{
			Events:              []string{types.EventMessage, types.EventSessionStatus},
			RetriesPolicy:       types.RetryConstant,
			RetriesDelaySeconds: 2,
			RetriesAttempts:     15,
			DrainTimeout:        30 * time.Second,
		},
	}
}
