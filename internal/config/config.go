package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name      string `envconfig:"APP_NAME" default:"Tabungan"`
		Port      int    `envconfig:"PORT" default:"8080"`
		LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
		LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"tabungan"`
		Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"`
	}

	// Redis is optional. Without an address the balance cache is disabled and
	// token revocations are kept in process memory.
	Redis struct {
		Addr       string        `envconfig:"REDIS_ADDR"`
		Password   string        `envconfig:"REDIS_PASSWORD"`
		DB         int           `envconfig:"REDIS_DB" default:"0"`
		BalanceTTL time.Duration `envconfig:"REDIS_BALANCE_TTL" default:"10m"`
	}

	// NATS is optional. Without a URL feed changes are only pushed to
	// subscribers of this process.
	NATS struct {
		URL     string `envconfig:"NATS_URL"`
		Subject string `envconfig:"NATS_FEED_SUBJECT" default:"tabungan.transactions.changed"`
	}

	Auth struct {
		Secret   string        `envconfig:"AUTH_SECRET" required:"true"`
		Issuer   string        `envconfig:"AUTH_ISSUER" default:"tabungan"`
		TokenTTL time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"12h"`
	}

	Feed struct {
		// Limit caps the number of transactions in each snapshot. Zero means no cap.
		Limit int `envconfig:"FEED_LIMIT" default:"0"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
