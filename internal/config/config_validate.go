// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/pelixflow/internal/logging"
)

const minJWTSecretLength = 32

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateGenerator(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if strings.TrimSpace(c.Security.UserClaim) == "" {
		return fmt.Errorf("JWT_USER_CLAIM must not be empty")
	}
	if c.IsProduction() {
		for _, o := range c.Security.CORSOrigins {
			if o == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain * in production")
			}
		}
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("STORE_PATH is required unless STORE_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateGenerator() error {
	g := c.Generator
	if strings.TrimSpace(g.APIKey) == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(g.Model) == "" {
		return fmt.Errorf("GENERATOR_MODEL must not be empty")
	}
	if strings.TrimSpace(g.OutputLanguage) == "" {
		return fmt.Errorf("GENERATOR_OUTPUT_LANGUAGE must not be empty")
	}
	if g.Timeout <= 0 {
		return fmt.Errorf("GENERATOR_TIMEOUT must be positive")
	}
	if g.RequestsPerSecond > 0 && g.Burst < 1 {
		return fmt.Errorf("GENERATOR_BURST must be at least 1 when throttling is enabled")
	}
	if g.Breaker.FailureRatio <= 0 || g.Breaker.FailureRatio > 1 {
		return fmt.Errorf("GENERATOR_BREAKER_FAILURE_RATIO must be in (0, 1], got %v", g.Breaker.FailureRatio)
	}
	if g.Breaker.Timeout <= 0 {
		return fmt.Errorf("GENERATOR_BREAKER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.Capacity < 1 {
		return fmt.Errorf("SESSION_CAPACITY must be at least 1")
	}
	if c.Session.IdleTTL < 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
