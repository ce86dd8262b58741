// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Env  string `env:"ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"8080"`

	// CORSOrigin is the value of Access-Control-Allow-Origin.
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`

	DB DBConfig

	JWT JWTConfig

	Notifier NotifierConfig

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"spendwise"`
	Password string `env:"DB_PASSWORD" envDefault:"spendwise"`
	Name     string `env:"DB_NAME" envDefault:"spendwise"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET" envDefault:"fallback-secret-key-for-dev-only"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`
}

// NotifierConfig holds change notifier settings. An empty AMQPURL keeps
// event delivery inside the process.
type NotifierConfig struct {
	Buffer       int    `env:"NOTIFIER_BUFFER" envDefault:"64"`
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"spendwise.events"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	// A missing .env file is fine; the real environment still applies.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("JWT token lifetimes must be positive")
	}
	if c.Notifier.Buffer < 1 {
		return fmt.Errorf("NOTIFIER_BUFFER must be at least 1, got %d", c.Notifier.Buffer)
	}
	return nil
}

// DSN returns the PostgreSQL connection string used by gorm.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL returns the PostgreSQL URL used by golang-migrate.
func (c DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}
