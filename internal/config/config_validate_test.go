// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testSecret
	cfg.Generator.APIKey = "test-key"
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with secrets", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "HTTP_PORT"},
		{name: "unknown environment", mutate: func(c *Config) { c.Server.Environment = "qa" }, wantErr: "ENVIRONMENT"},
		{name: "short secret", mutate: func(c *Config) { c.Security.JWTSecret = "short" }, wantErr: "JWT_SECRET"},
		{
			name: "wildcard cors in production",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.CORSOrigins = []string{"*"}
			},
			wantErr: "CORS_ORIGINS",
		},
		{
			name:   "rate limit disabled skips checks",
			mutate: func(c *Config) { c.Security.RateLimitDisabled = true; c.Security.RateLimitReqs = 0 },
		},
		{name: "empty store path", mutate: func(c *Config) { c.Store.Path = "" }, wantErr: "STORE_PATH"},
		{name: "in-memory store", mutate: func(c *Config) { c.Store.Path = ""; c.Store.InMemory = true }},
		{name: "missing api key", mutate: func(c *Config) { c.Generator.APIKey = " " }, wantErr: "GEMINI_API_KEY"},
		{name: "breaker ratio", mutate: func(c *Config) { c.Generator.Breaker.FailureRatio = 1.5 }, wantErr: "FAILURE_RATIO"},
		{name: "zero burst", mutate: func(c *Config) { c.Generator.Burst = 0 }, wantErr: "GENERATOR_BURST"},
		{name: "throttling off allows zero burst", mutate: func(c *Config) { c.Generator.Burst = 0; c.Generator.RequestsPerSecond = 0 }},
		{name: "session capacity", mutate: func(c *Config) { c.Session.Capacity = 0 }, wantErr: "SESSION_CAPACITY"},
		{name: "log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "LOG_LEVEL"},
		{name: "log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", got)
	}
}
