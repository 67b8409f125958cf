package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"mailmind/internal/model"
)

// Config is populated from the environment, after an optional .env file.
type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	BaseURL            string `envconfig:"BASE_URL" default:"http://localhost:8080"`
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	SessionSecret      string `envconfig:"SESSION_SECRET" default:"175cd51c-b5e7-4218-81ed-e6832c8b53f1"`

	// DatabaseURL selects postgres. Otherwise StoragePath selects a sqlite
	// file; set it empty to keep everything in memory.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	StoragePath string `envconfig:"STORAGE_PATH" default:"mailmind.db"`

	AIProvider string `envconfig:"AI_PROVIDER" default:"gemini"`
	AIAPIKey   string `envconfig:"AI_API_KEY"`
	AIModel    string `envconfig:"AI_MODEL"`
	AIBaseURL  string `envconfig:"AI_BASE_URL"`

	MaxFetchEmails  int64         `envconfig:"MAX_FETCH_EMAILS" default:"50"`
	FetchBatchSize  int           `envconfig:"FETCH_BATCH_SIZE" default:"10"`
	FetchBatchDelay time.Duration `envconfig:"FETCH_BATCH_DELAY" default:"500ms"`
	AIBatchSize     int           `envconfig:"AI_BATCH_SIZE" default:"3"`
	AIBatchDelay    time.Duration `envconfig:"AI_BATCH_DELAY" default:"2s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`
	Env      string `envconfig:"ENV" default:"development"`
}

var providers = []string{"gemini", "openai", "deepseek"}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	cfg.AIProvider = strings.ToLower(strings.TrimSpace(cfg.AIProvider))
	return &cfg, nil
}

// KeyLookup returns a stored AI key for a provider.
type KeyLookup func(provider string) (string, error)

// ApplyKeyFallback fills AIAPIKey from lookup when the environment left it
// empty. It reports whether a stored key was used.
func (c *Config) ApplyKeyFallback(lookup KeyLookup) bool {
	if c.AIAPIKey != "" || lookup == nil {
		return false
	}
	key, err := lookup(c.AIProvider)
	if err != nil || key == "" {
		return false
	}
	c.AIAPIKey = key
	return true
}

// AIEnabled reports whether remote classification is available. A missing
// key is not a configuration error.
func (c *Config) AIEnabled() bool {
	return c.AIAPIKey != ""
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks what the HTTP server needs to start.
func (c *Config) Validate() error {
	if c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required: %w", model.ErrConfigMissing)
	}
	if c.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET is required: %w", model.ErrConfigMissing)
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required: %w", model.ErrConfigMissing)
	}
	if !c.validProvider() {
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.AIProvider)
	}
	if c.FetchBatchSize <= 0 || c.AIBatchSize <= 0 {
		return fmt.Errorf("batch sizes must be positive")
	}
	return nil
}

func (c *Config) validProvider() bool {
	for _, p := range providers {
		if c.AIProvider == p {
			return true
		}
	}
	return false
}
