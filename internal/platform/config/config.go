// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, TokenService) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Stayvia identity service.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis) for volatile reset/verification tokens
	RedisURL string `env:"REDIS_URL,required"`

	// SessionSecret is the process-wide HMAC secret for session tokens.
	// Loaded once at startup and never mutated; rotating it invalidates
	// every outstanding session.
	SessionSecret string `env:"SESSION_SECRET,required"`

	// SessionTTL bounds the lifetime of an issued session token.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	// BcryptCost is the work factor for password hashing at registration.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	// Federated login providers. A provider with an empty client id is
	// simply not mounted.
	GoogleClientID       string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL    string `env:"GOOGLE_CALLBACK_URL"`
	FacebookClientID     string `env:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"FACEBOOK_CLIENT_SECRET"`
	FacebookCallbackURL  string `env:"FACEBOOK_CALLBACK_URL"`

	// OAuthSuccessRedirect is where the browser is sent (with the issued
	// token attached) after a successful federated login.
	OAuthSuccessRedirect string `env:"OAUTH_SUCCESS_REDIRECT" envDefault:"/"`

	// ExtraOrigins is a comma-separated list of additional origins allowed
	// by CORS in production (first-party stayvia.app domains always pass).
	ExtraOrigins []string `env:"EXTRA_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the extra CORS origins configured for this deployment.
func (c *Config) AllowedOrigins() []string {
	return c.ExtraOrigins
}
