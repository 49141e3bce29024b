// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the ebills server.
type Config struct {
	Port     int    `mapstructure:"PORT"`
	DBPath   string `mapstructure:"DB_PATH"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is "text" for colored developer output or "json".
	LogFormat string `mapstructure:"LOG_FORMAT"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`

	// RabbitMQURL enables broker notifications; events are only logged without it.
	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`

	// ReminderSchedule is a cron spec for the debt reminder job. Empty disables it.
	ReminderSchedule string `mapstructure:"REMINDER_SCHEDULE"`

	PaymentMerchantKey string `mapstructure:"PAYMENT_MERCHANT_KEY"`
	PaymentCheckoutURL string `mapstructure:"PAYMENT_CHECKOUT_URL"`
}

var keys = []string{
	"PORT", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT",
	"JWT_SECRET", "TOKEN_TTL", "ALLOWED_ORIGINS",
	"RABBITMQ_URL", "EVENTS_EXCHANGE", "REMINDER_SCHEDULE",
	"PAYMENT_MERCHANT_KEY", "PAYMENT_CHECKOUT_URL",
}

// Load reads configuration from environment variables. Values already in
// the environment win over the .env file.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.SetDefault("PORT", 8080)
	viper.SetDefault("DB_PATH", "./data/ebills.db")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("TOKEN_TTL", "24h")
	viper.SetDefault("ALLOWED_ORIGINS", "*")
	viper.SetDefault("EVENTS_EXCHANGE", "ebills.events")
	viper.SetDefault("REMINDER_SCHEDULE", "0 10 * * *") // Every day at 10:00.
	viper.SetDefault("PAYMENT_MERCHANT_KEY", "sandbox")
	viper.SetDefault("PAYMENT_CHECKOUT_URL", "https://sandbox.ebills.local/checkout")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	for _, key := range keys {
		_ = viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("TOKEN_TTL must be a positive duration")
	}
	return &cfg, nil
}
