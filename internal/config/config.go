// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

// Package config loads and validates PelixFlow configuration.
//
// Configuration is layered with Koanf v2, later layers overriding earlier ones:
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/pelixflow/config.yaml)
//  3. Environment variables (explicit mapping, unknown variables ignored)
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Store     StoreConfig     `koanf:"store"`
	Identity  IdentityConfig  `koanf:"identity"`
	Generator GeneratorConfig `koanf:"generator"`
	Session   SessionConfig   `koanf:"session"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`          // read/write timeout per request
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"` // grace period for in-flight requests
	Environment     string        `koanf:"environment"`      // development, staging, production
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds authentication and request-limiting settings.
type SecurityConfig struct {
	// JWTSecret verifies HS256 bearer tokens. At least 32 characters.
	JWTSecret string `koanf:"jwt_secret"`

	// UserClaim names the token claim used as the user document key.
	// Falls back to the registered "sub" claim when absent from a token.
	UserClaim string `koanf:"user_claim"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// StoreConfig configures the per-user document store (BadgerDB).
type StoreConfig struct {
	// Path is the Badger data directory. Ignored when InMemory is set.
	Path string `koanf:"path"`

	// InMemory keeps all documents in memory; nothing survives a restart.
	InMemory bool `koanf:"in_memory"`

	// SyncWrites fsyncs every merge-patch before it is acknowledged.
	SyncWrites bool `koanf:"sync_writes"`
}

// IdentityConfig configures the universal identifier table (DuckDB).
type IdentityConfig struct {
	Enabled bool `koanf:"enabled"`

	// DatabasePath is the DuckDB file. Empty opens an in-memory database.
	DatabasePath string `koanf:"database_path"`

	// Timeout bounds one lookup-or-insert round trip.
	Timeout time.Duration `koanf:"timeout"`
}

// GeneratorConfig configures the LLM generator and its protections.
type GeneratorConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`

	// OutputLanguage is the natural language every generated text is
	// written in.
	OutputLanguage string `koanf:"output_language"`

	// Timeout bounds a single generation call.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond and Burst throttle outbound calls across all users.
	// RequestsPerSecond <= 0 disables throttling.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the circuit breaker around the generator.
type BreakerConfig struct {
	MaxRequests  uint32        `koanf:"max_requests"`  // probes allowed while half-open
	Interval     time.Duration `koanf:"interval"`      // closed-state counter reset period
	Timeout      time.Duration `koanf:"timeout"`       // open duration before half-open
	MinRequests  uint32        `koanf:"min_requests"`  // requests observed before tripping is considered
	FailureRatio float64       `koanf:"failure_ratio"` // trip threshold, 0 < ratio <= 1
}

// SessionConfig configures the in-process session registry.
type SessionConfig struct {
	// Capacity is the maximum number of user sessions held in memory.
	Capacity int `koanf:"capacity"`

	// IdleTTL evicts sessions not touched for this long. They are rebuilt
	// from the document store on the next request.
	IdleTTL time.Duration `koanf:"idle_ttl"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
