package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for securereq-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// MigrationsPath is the directory holding SQL migration files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// Analysis generation configuration
	Generation GenerationConfig `yaml:"generation"`

	// Webhook delivery configuration
	Webhook WebhookConfig `yaml:"webhook"`

	// BootstrapAPIKey authenticates API callers before any key has been
	// provisioned in the database. Optional.
	BootstrapAPIKey string `yaml:"-" env:"BOOTSTRAP_API_KEY"` // Secret - not in YAML

	// Encryption key for stored integration tokens.
	// A base64-encoded 32-byte key, or any passphrase (hashed to 32 bytes).
	IntegrationTokenKey string `yaml:"-" env:"INTEGRATION_TOKEN_KEY"` // Secret - not in YAML
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"securereq"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"securereq_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// URL builds a postgres connection string from the individual fields.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password),
		c.Host, c.Port, c.Database, c.SSLMode)
}

// GenerationConfig holds settings for the external analysis capability.
type GenerationConfig struct {
	// Provider selects the chat backend: "anthropic", "openai" or
	// "openai_compatible".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"anthropic"`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:""`
	// BaseURL is only used by the openai_compatible provider.
	BaseURL        string        `yaml:"base_url" env:"LLM_BASE_URL" env-default:""`
	APIKey         string        `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	MaxTokens      int           `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"4096"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"LLM_REQUEST_TIMEOUT" env-default:"120s"`
	// BulkWorkers bounds concurrent story analyses in a bulk run so the
	// provider's rate limits are not overwhelmed.
	BulkWorkers int `yaml:"bulk_workers" env:"BULK_WORKERS" env-default:"4"`
}

// WebhookConfig holds webhook delivery settings.
type WebhookConfig struct {
	AttemptTimeout time.Duration `yaml:"attempt_timeout" env:"WEBHOOK_ATTEMPT_TIMEOUT" env-default:"10s"`
	MaxAttempts    int           `yaml:"max_attempts" env:"WEBHOOK_MAX_ATTEMPTS" env-default:"3"`
	InitialBackoff time.Duration `yaml:"initial_backoff" env:"WEBHOOK_INITIAL_BACKOFF" env-default:"1s"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// A missing config.yaml is not an error; environment variables alone suffice.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		// Fall back to env-only configuration when no YAML file is present.
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{Scheme: "http", Host: "localhost:" + cfg.Port}).String()
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Generation.Provider {
	case "anthropic", "openai", "openai_compatible":
	default:
		return fmt.Errorf("unknown generation provider %q", c.Generation.Provider)
	}
	if c.Generation.Provider == "openai_compatible" && c.Generation.BaseURL == "" {
		return fmt.Errorf("openai_compatible provider requires LLM_BASE_URL")
	}
	if c.Generation.BulkWorkers < 1 {
		return fmt.Errorf("bulk_workers must be at least 1")
	}
	if c.Webhook.MaxAttempts < 1 {
		return fmt.Errorf("webhook max_attempts must be at least 1")
	}
	return nil
}
