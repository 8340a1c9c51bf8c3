// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

// Package main is the PelixFlow API server.
//
// The server initializes components in this order:
//
//  1. Configuration (Koanf v2: defaults, config.yaml, environment)
//  2. Document store (BadgerDB)
//  3. Identity resolver (DuckDB, optional)
//  4. Generator (Gemini behind a circuit breaker)
//  5. Session manager, JWT middleware and chi router
//  6. Supervisor tree running the HTTP server, store GC and session sweeper
//
// Required environment:
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export GEMINI_API_KEY=your-api-key
//	./pelixflow
//
// SIGINT and SIGTERM stop the tree; in-flight requests get
// SHUTDOWN_TIMEOUT to finish.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/pelixflow/internal/api"
	"github.com/tomtom215/pelixflow/internal/auth"
	"github.com/tomtom215/pelixflow/internal/config"
	"github.com/tomtom215/pelixflow/internal/generator"
	"github.com/tomtom215/pelixflow/internal/identity"
	"github.com/tomtom215/pelixflow/internal/logging"
	"github.com/tomtom215/pelixflow/internal/session"
	"github.com/tomtom215/pelixflow/internal/store"
	"github.com/tomtom215/pelixflow/internal/supervisor"
	"github.com/tomtom215/pelixflow/internal/supervisor/services"
)

//nolint:gocyclo // sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("model", cfg.Generator.Model).
		Bool("identity", cfg.Identity.Enabled).
		Msg("Starting PelixFlow")

	docs, err := store.Open(cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open document store")
	}
	defer func() {
		if err := docs.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing document store")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := []api.HealthCheck{{Name: "store", Check: storeCheck(docs)}}

	var resolver session.Resolver
	if cfg.Identity.Enabled {
		ids, err := identity.Open(cfg.Identity, docs)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open identity database")
		}
		defer func() {
			if err := ids.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing identity database")
			}
		}()
		resolver = ids
		checks = append(checks, api.HealthCheck{Name: "identity", Check: ids.Ping})
	} else {
		logging.Info().Msg("Identity resolution disabled (IDENTITY_ENABLED=false)")
	}

	gemini, err := generator.NewGemini(ctx, cfg.Generator)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create generator client")
	}
	gen := generator.NewBreaker(gemini, cfg.Generator.Breaker)
	checks = append(checks, api.HealthCheck{Name: "generator", Check: breakerCheck(gen)})

	sessions := session.NewManager(cfg.Session, docs, gen, resolver, logging.WithComponent("session"))

	jwtManager, err := auth.NewJWTManager(cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	for _, origin := range cfg.Security.CORSOrigins {
		if origin == "*" {
			logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*); set explicit origins in production")
			break
		}
	}

	router := api.NewRouter(
		api.NewHandler(sessions, checks...),
		auth.NewMiddleware(jwtManager),
		api.NewChiMiddleware(&api.ChiMiddlewareConfig{
			CORSAllowedOrigins: cfg.Security.CORSOrigins,
			RateLimitRequests:  cfg.Security.RateLimitReqs,
			RateLimitWindow:    cfg.Security.RateLimitWindow,
			RateLimitDisabled:  cfg.Security.RateLimitDisabled,
		}),
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	tree.AddStorageService(store.NewGCService(docs, 0))
	tree.AddStorageService(session.NewSweeper(sessions, 0))
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := <-tree.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}
	logging.Info().Int("sessions", sessions.Len()).Msg("PelixFlow stopped")
}
