package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the process environment. Values set here override the settings
// file.
type Config struct {
	Debug bool `envconfig:"DEBUG" default:"false"`

	OpenAIAPIKey  string        `envconfig:"OPENAI_API_KEY"`
	Model         string        `envconfig:"MODEL"`
	BaseURL       string        `envconfig:"BASE_URL"`
	MaxBodyLength int           `envconfig:"MAX_BODY_LENGTH"`
	HTTPTimeout   time.Duration `envconfig:"HTTP_TIMEOUT" default:"60s"`
	SettingsPath  string        `envconfig:"SETTINGS_PATH"`

	Workspace string `envconfig:"WORKSPACE" default:"."`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"aliasgen-notes"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	// HistoryRetention bounds how long alias runs are kept. Zero keeps them forever.
	HistoryRetention time.Duration `envconfig:"HISTORY_RETENTION" default:"720h"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	Port        string `envconfig:"PORT" default:"8080"`
	ServerToken string `envconfig:"SERVER_TOKEN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("ALIASGEN", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

// Apply overlays the environment onto s. Only values that are set win.
func (c *Config) Apply(s Settings) Settings {
	if c.OpenAIAPIKey != "" {
		s.APIKey = c.OpenAIAPIKey
	}
	if c.Model != "" {
		s.Model = c.Model
	}
	if c.BaseURL != "" {
		s.BaseURL = c.BaseURL
	}
	if c.MaxBodyLength > 0 {
		s.MaxBodyLength = c.MaxBodyLength
	}
	return s
}
