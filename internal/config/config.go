package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"medireach/internal/calendar"
	"medireach/internal/middleware"
	"medireach/internal/notify"
	"medireach/internal/scheduler"
)

// Notification channels accepted in NOTIFY_CHANNELS.
const (
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
	ChannelLog     = "log"
)

// Config holds application level configuration loaded from the environment
// and an optional .env file.
type Config struct {
	Env         string
	ServerPort  string
	DBDriver    string
	DatabaseDSN string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	SwaggerHost string
	Timezone    string
	CORSOrigins []string
	BodyLimit   string

	NotifyChannels []string
	Reminder       scheduler.Config
	SMTP           notify.SMTPConfig
	Webhook        notify.WebhookConfig
	RateLimit      middleware.RateLimitConfig
}

const defaultMySQLDSN = "user:password@tcp(localhost:3306)/medireach?charset=utf8mb4&parseTime=True&loc=UTC"

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("TIMEZONE", scheduler.DefaultTimezone)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("NOTIFY_CHANNELS", "log")

	v.SetDefault("REMINDER_ENABLED", true)
	v.SetDefault("REMINDER_SCHEDULE", scheduler.DefaultSchedule)
	v.SetDefault("REMINDER_LOCK_TTL", scheduler.DefaultLockTTL)

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "MediReach <noreply@medireach.local>")

	v.SetDefault("WEBHOOK_TIMEOUT", 10*time.Second)
	v.SetDefault("WEBHOOK_RETRY_COUNT", 2)

	rl := middleware.DefaultRateLimitConfig()
	v.SetDefault("RATE_LIMIT_RPS", rl.RequestsPerSecond)
	v.SetDefault("RATE_LIMIT_BURST", rl.Burst)
	v.SetDefault("RATE_LIMIT_IDLE_TTL", rl.IdleTTL)
}

// Load builds Config from environment variables and .env with defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// .env is optional
	_ = v.ReadInConfig()

	driver := strings.ToLower(v.GetString("DB_DRIVER"))
	dsn := v.GetString("DB_DSN")
	if dsn == "" {
		dsn = v.GetString("MYSQL_DSN")
	}
	if dsn == "" && driver == "mysql" {
		dsn = defaultMySQLDSN
	}

	cfg := &Config{
		Env:         v.GetString("ENV"),
		ServerPort:  v.GetString("SERVER_PORT"),
		DBDriver:    driver,
		DatabaseDSN: dsn,
		RedisAddr:   v.GetString("REDIS_ADDR"),
		RedisDB:     v.GetInt("REDIS_DB"),
		RedisPass:   v.GetString("REDIS_PASSWORD"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		SwaggerHost: v.GetString("SWAGGER_HOST"),
		Timezone:    v.GetString("TIMEZONE"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		BodyLimit:   v.GetString("BODY_LIMIT"),

		NotifyChannels: splitList(strings.ToLower(v.GetString("NOTIFY_CHANNELS"))),
		Reminder: scheduler.Config{
			Enabled:  v.GetBool("REMINDER_ENABLED"),
			Schedule: v.GetString("REMINDER_SCHEDULE"),
			Timezone: v.GetString("TIMEZONE"),
			LockTTL:  v.GetDuration("REMINDER_LOCK_TTL"),
		},
		SMTP: notify.SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Webhook: notify.WebhookConfig{
			URL:        v.GetString("WEBHOOK_URL"),
			Token:      v.GetString("WEBHOOK_TOKEN"),
			Timeout:    v.GetDuration("WEBHOOK_TIMEOUT"),
			RetryCount: v.GetInt("WEBHOOK_RETRY_COUNT"),
		},
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
			IdleTTL:           v.GetDuration("RATE_LIMIT_IDLE_TTL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsDev reports whether ENV is development.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves the configured timezone used for day boundaries.
func (c *Config) Location() (*time.Location, error) {
	return calendar.LoadLocation(c.Timezone)
}

// Validate checks the configuration is safe to run.
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be mysql or postgres, got %q", c.DBDriver))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("DB_DSN is required"))
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == "change-me") {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}

	for _, ch := range c.NotifyChannels {
		switch ch {
		case ChannelEmail:
			if c.SMTP.Host == "" {
				errs = append(errs, errors.New("SMTP_HOST is required when the email channel is enabled"))
			}
		case ChannelWebhook:
			if c.Webhook.URL == "" {
				errs = append(errs, errors.New("WEBHOOK_URL is required when the webhook channel is enabled"))
			}
		case ChannelLog:
		default:
			errs = append(errs, fmt.Errorf("unknown notification channel %q", ch))
		}
	}

	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative"))
	}

	return errors.Join(errs...)
}
