// Package config provides configuration for the chat backend.
package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

// Mode values.
const (
	// ModeMock wires the in-process mock provider instead of real backends.
	ModeMock = "MOCK"
)

// Config holds the full process configuration, parsed from the
// environment.
type Config struct {
	// Server settings
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// Storage. Postgres URLs select the pgx store, anything else is a
	// SQLite DSN.
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:chatd.db?cache=shared&mode=rwc"`

	// Telemetry
	TelemetryLogPath string        `env:"TELEMETRY_LOG_PATH" envDefault:"logs/telemetry.jsonl"`
	TelemetryHorizon time.Duration `env:"TELEMETRY_HORIZON" envDefault:"168h"`

	// AI providers
	Mode            string        `env:"CHATD_MODE"`
	DefaultProvider string        `env:"DEFAULT_AI_PROVIDER" envDefault:"openai"`
	DefaultModel    string        `env:"DEFAULT_MODEL" envDefault:"gpt-4o-mini"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"120s"`
	MaxTokens       int           `env:"MAX_TOKENS"`

	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	YandexOAuthToken string `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string `env:"YANDEX_FOLDER_ID"`

	// Prompting
	SystemPrompt string `env:"SYSTEM_PROMPT" envDefault:"You are a helpful assistant."`
	HistoryLimit int    `env:"HISTORY_LIMIT" envDefault:"50"`

	// WebSocket settings
	WSReadTimeout    time.Duration `env:"WS_READ_TIMEOUT" envDefault:"60s"`
	WSWriteTimeout   time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
	WSPingInterval   time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`
	WSMaxMessageSize int64         `env:"WS_MAX_MESSAGE_SIZE" envDefault:"4096"`
}

// Load parses configuration from environment variables.
func Load() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
