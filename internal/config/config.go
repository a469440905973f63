// Package config loads service settings from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the complete runtime configuration.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	Driver   string `env:"STORE_DRIVER" envDefault:"memory"`
	SeedDemo bool   `env:"SEED_DEMO" envDefault:"false"`

	Postgres PostgresConfig
	SQLite   SQLiteConfig
	Auth     AuthConfig
	Gemini   GeminiConfig

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName   string `env:"DB_NAME" envDefault:"watersafe"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"20"`
}

// DSN builds a libpq-compatible connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// SQLiteConfig holds the SQLite database location.
type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" envDefault:"watersafe.db"`
}

const devSecret = "dev-secret-change-me"

// AuthConfig configures bearer-token issuance.
type AuthConfig struct {
	Secret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

// GeminiConfig configures the guide assistant.
type GeminiConfig struct {
	APIKey     string        `env:"GEMINI_API_KEY"`
	BaseURL    string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	TextModel  string        `env:"GEMINI_TEXT_MODEL" envDefault:"gemini-2.5-flash"`
	ImageModel string        `env:"GEMINI_IMAGE_MODEL" envDefault:"gemini-2.5-flash-image"`
	Timeout    time.Duration `env:"GEMINI_TIMEOUT" envDefault:"30s"`
}

// Load parses the environment into a Config and checks cross-field constraints.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.Driver {
	case DriverMemory, DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Driver)
	}
	if cfg.IsProduction() && cfg.Auth.Secret == devSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
