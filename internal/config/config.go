// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

// Package config loads and validates Feedline configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables (highest priority, FEEDLINE_ prefix).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Feedline service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Recommend RecommendConfig `koanf:"recommend"`
	Inference InferenceConfig `koanf:"inference"`
	Search    SearchConfig    `koanf:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the listen address.
	Host string `koanf:"host" validate:"required"`

	// Port is the listen port.
	Port int `koanf:"port" validate:"gt=0,lte=65535"`

	// ReadTimeout bounds reading the full request, including the body.
	ReadTimeout time.Duration `koanf:"read_timeout" validate:"gt=0"`

	// WriteTimeout bounds writes of the response.
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests is the per-IP request budget for auth endpoints
	// within RateLimitWindow. Zero disables rate limiting.
	RateLimitRequests int `koanf:"rate_limit_requests" validate:"gte=0"`

	// RateLimitWindow is the rate limit window.
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`

	// Format is json or console.
	Format string `koanf:"format" validate:"oneof=json console"`
}

// DatabaseConfig holds Postgres settings. When DSN is empty the service
// runs on the in-memory store (demo mode, nothing survives a restart).
type DatabaseConfig struct {
	// DSN is the Postgres connection string.
	DSN string `koanf:"dsn"`

	// MaxOpenConns caps the connection pool.
	MaxOpenConns int `koanf:"max_open_conns" validate:"gt=0"`

	// MaxIdleConns caps idle pooled connections.
	MaxIdleConns int `koanf:"max_idle_conns" validate:"gte=0"`

	// ConnMaxLifetime recycles connections older than this.
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"gt=0"`

	// Migrate applies embedded schema migrations on startup.
	Migrate bool `koanf:"migrate"`
}

// AuthConfig holds session settings.
type AuthConfig struct {
	// JWTSecret signs session tokens. Required in production.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL is how long issued sessions stay valid.
	TokenTTL time.Duration `koanf:"token_ttl" validate:"gt=0"`

	// BcryptCost is the password hashing cost.
	BcryptCost int `koanf:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	// Strategy selects the ranking strategy: auto, popularity, or lexical.
	// auto picks lexical when the user has an interaction or aspiration
	// signal, popularity otherwise.
	Strategy string `koanf:"strategy" validate:"oneof=auto popularity lexical"`

	// DefaultLimit is the number of recommendations returned when the
	// request does not specify one.
	DefaultLimit int `koanf:"default_limit" validate:"gt=0"`

	// MaxLimit caps the requested number of recommendations.
	MaxLimit int `koanf:"max_limit" validate:"gt=0"`

	// ExternalResults is the number of external items appended when the
	// content search client is configured.
	ExternalResults int `koanf:"external_results" validate:"gte=0"`
}

// InferenceConfig holds aspiration inference settings.
type InferenceConfig struct {
	// Enabled turns the aspiration signal on. Requires APIKey.
	Enabled bool `koanf:"enabled"`

	// APIKey authenticates against the Gemini API.
	APIKey string `koanf:"api_key"`

	// Model is the Gemini model identifier.
	Model string `koanf:"model"`

	// Timeout bounds a single summarization call. On expiry the request
	// degrades to "no aspiration signal".
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// SearchConfig holds external content search settings.
type SearchConfig struct {
	// Enabled turns external augmentation on. Requires APIKey.
	Enabled bool `koanf:"enabled"`

	// APIKey authenticates against the YouTube Data API.
	APIKey string `koanf:"api_key"`

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds a single search call.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// RatePerMinute is the client-side request budget.
	RatePerMinute int `koanf:"rate_per_minute" validate:"gt=0"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8470,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 20,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			DSN:             "",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			Migrate:         true,
		},
		Auth: AuthConfig{
			JWTSecret:  "",
			TokenTTL:   24 * time.Hour,
			BcryptCost: 12,
		},
		Recommend: RecommendConfig{
			Strategy:        "auto",
			DefaultLimit:    5,
			MaxLimit:        50,
			ExternalResults: 3,
		},
		Inference: InferenceConfig{
			Enabled: false,
			Model:   "gemini-2.5-flash",
			Timeout: 10 * time.Second,
		},
		Search: SearchConfig{
			Enabled:       false,
			BaseURL:       "https://www.googleapis.com/youtube/v3",
			Timeout:       10 * time.Second,
			RatePerMinute: 60,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Recommend.DefaultLimit > c.Recommend.MaxLimit {
		return fmt.Errorf("recommend.default_limit %d exceeds recommend.max_limit %d",
			c.Recommend.DefaultLimit, c.Recommend.MaxLimit)
	}
	if c.Inference.Enabled && c.Inference.APIKey == "" {
		return fmt.Errorf("inference.enabled requires inference.api_key")
	}
	if c.Search.Enabled && c.Search.APIKey == "" {
		return fmt.Errorf("search.enabled requires search.api_key")
	}

	return nil
}
