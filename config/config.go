// Package config handles loading and managing application configuration.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application, loaded from the
// environment.
type Config struct {
	// Server
	Port    string `envconfig:"PORT" default:"8080"`
	GinMode string `envconfig:"GIN_MODE" default:"debug"` // "debug", "release", or "test"

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Mercado Pago
	MPAccessToken   string `envconfig:"MP_ACCESS_TOKEN" required:"true"`
	MPCurrencyID    string `envconfig:"MP_CURRENCY_ID" default:"COP"`
	MPWebhookSecret string `envconfig:"MP_WEBHOOK_SECRET"`

	// Checkout redirect and notification URLs
	SuccessURL      string `envconfig:"CHECKOUT_SUCCESS_URL" default:"https://profixa.netlify.app/success"`
	FailureURL      string `envconfig:"CHECKOUT_FAILURE_URL" default:"https://profixa.netlify.app/failure"`
	PendingURL      string `envconfig:"CHECKOUT_PENDING_URL" default:"https://profixa.netlify.app/pending"`
	NotificationURL string `envconfig:"WEBHOOK_NOTIFICATION_URL"`

	// Admin auth
	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`
	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	// Reconciliation sweep
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`
	SweepMinAge   time.Duration `envconfig:"SWEEP_MIN_AGE" default:"15m"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	return c, err
}
