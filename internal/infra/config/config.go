package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in minimal containers too

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken   string `env:"TELEGRAM_TOKEN,required"`
	DBDriver        string `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL     string `env:"DATABASE_URL,required"`
	RedisURL        string `env:"REDIS_URL"`         // empty disables redis metrics
	AdminTelegramID int64  `env:"ADMIN_TELEGRAM_ID"` // 0 disables operator commands
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	Environment     string `env:"ENVIRONMENT" envDefault:"development"`
	LogFile         string `env:"LOG_FILE"`
	Timezone        string `env:"TIMEZONE" envDefault:"Local"`

	CronSpecTreatments string `env:"CRON_SPEC_TREATMENTS" envDefault:"*/5 * * * *"`
	CronSpecVisits     string `env:"CRON_SPEC_VISITS" envDefault:"0 9 * * *"`
	CronSpecHeartbeat  string `env:"CRON_SPEC_HEARTBEAT" envDefault:"0 * * * *"`

	SendTimeout    time.Duration `env:"SEND_TIMEOUT" envDefault:"15s"`
	TickTimeout    time.Duration `env:"TICK_TIMEOUT" envDefault:"4m"`
	SendRatePerSec float64       `env:"SEND_RATE_PER_SEC" envDefault:"25"`
	HeartbeatTTL   time.Duration `env:"HEARTBEAT_TTL" envDefault:"2h"`

	location *time.Location
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Environment = strings.ToLower(cfg.Environment)
	cfg.DBDriver = strings.ToLower(cfg.DBDriver)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("%w: TELEGRAM_TOKEN is empty", ErrInvalidConfig)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL is empty", ErrInvalidConfig)
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("%w: DB_DRIVER must be postgres or sqlite, got %q", ErrInvalidConfig, c.DBDriver)
	}

	specs := map[string]string{
		"CRON_SPEC_TREATMENTS": c.CronSpecTreatments,
		"CRON_SPEC_VISITS":     c.CronSpecVisits,
		"CRON_SPEC_HEARTBEAT":  c.CronSpecHeartbeat,
	}
	for name, spec := range specs {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%w: %s %q: %v", ErrInvalidConfig, name, spec, err)
		}
	}

	durations := map[string]time.Duration{
		"SEND_TIMEOUT":  c.SendTimeout,
		"TICK_TIMEOUT":  c.TickTimeout,
		"HEARTBEAT_TTL": c.HeartbeatTTL,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, name, d)
		}
	}
	if c.SendRatePerSec <= 0 {
		return fmt.Errorf("%w: SEND_RATE_PER_SEC must be positive, got %v", ErrInvalidConfig, c.SendRatePerSec)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("%w: TIMEZONE %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	c.location = loc
	return nil
}

// Location is the zone used for cron firing times and calendar-day math.
func (c *AppConfig) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// IsProduction reports whether logs should be emitted as JSON.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "staging"
}
