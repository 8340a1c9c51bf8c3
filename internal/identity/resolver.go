// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

// Package identity maps a user's email to the cross-system universal
// identifier kept in the relational "universal" table, creating the
// mapping on first sight, and copies it into the user document.
//
// Resolution is best-effort. Callers log the returned error and carry on;
// a failure here never blocks a session from opening.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/tomtom215/pelixflow/internal/config"
	"github.com/tomtom215/pelixflow/internal/logging"
	"github.com/tomtom215/pelixflow/internal/metrics"
	"github.com/tomtom215/pelixflow/internal/models"
)

// ErrNoEmail is returned when there is nothing to resolve against.
var ErrNoEmail = errors.New("identity: user has no email")

const schema = `CREATE TABLE IF NOT EXISTS universal (
	email        VARCHAR PRIMARY KEY,
	id_pelixflow VARCHAR NOT NULL,
	created_at   TIMESTAMP DEFAULT current_timestamp
)`

// Store is the merge-patch half of the document store.
type Store interface {
	MergePatch(ctx context.Context, key string, patch models.Patch) error
}

// Resolver resolves universal identifiers against DuckDB.
type Resolver struct {
	conn    *sql.DB
	store   Store
	timeout time.Duration
	newID   func() string
}

// Open opens the identity database described by cfg and creates the table
// if needed. An empty path opens an in-memory database.
func Open(cfg config.IdentityConfig, store Store) (*Resolver, error) {
	path := cfg.DatabasePath
	if path != "" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create identity directory %s: %w", dir, err)
			}
		}
	}

	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	// Extensions are not needed and auto-install can hang without network.
	connStr := dsn + "?autoinstall_known_extensions=false&autoload_known_extensions=false"

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open identity database: %w", err)
	}
	// A single connection keeps an in-memory database alive and shared.
	conn.SetMaxOpenConns(1)

	r := NewResolver(conn, store, cfg.Timeout)
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create identity schema: %w", err)
	}

	logging.Info().Str("path", path).Msg("Identity database opened")
	return r, nil
}

// NewResolver wraps an open connection. The schema must already exist.
func NewResolver(conn *sql.DB, store Store, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{conn: conn, store: store, timeout: timeout, newID: uuid.NewString}
}

// Close closes the database.
func (r *Resolver) Close() error {
	return r.conn.Close()
}

// Ping reports whether the database answers.
func (r *Resolver) Ping(ctx context.Context) error {
	return r.conn.PingContext(ctx)
}

// Resolve returns the universal id for email, creating it when absent,
// and merge-patches it into the document stored under userKey.
func (r *Resolver) Resolve(ctx context.Context, userKey, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", ErrNoEmail
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	id, created, err := r.lookupOrCreate(ctx, email)
	if err != nil {
		metrics.IdentityResolutions.WithLabelValues("error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Msg("Universal id resolution failed")
		return "", err
	}

	result := "found"
	if created {
		result = "created"
	}
	metrics.IdentityResolutions.WithLabelValues(result).Inc()

	if err := r.store.MergePatch(ctx, userKey, models.Patch{models.FieldUniversalID: id}); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Could not store universal id in user document")
		return id, fmt.Errorf("store universal id: %w", err)
	}

	logging.Ctx(ctx).Debug().Str("result", result).Msg("Universal id resolved")
	return id, nil
}

func (r *Resolver) lookupOrCreate(ctx context.Context, email string) (string, bool, error) {
	id, err := r.lookup(ctx, email)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, err
	}

	fresh := r.newID()
	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO universal (email, id_pelixflow) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		email, fresh)
	if err != nil {
		return "", false, fmt.Errorf("insert universal id: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return fresh, true, nil
	}

	// Lost a race with a concurrent insert for the same email.
	id, err = r.lookup(ctx, email)
	return id, false, err
}

func (r *Resolver) lookup(ctx context.Context, email string) (string, error) {
	var id string
	err := r.conn.QueryRowContext(ctx,
		`SELECT id_pelixflow FROM universal WHERE email = ?`, email).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("lookup universal id: %w", err)
	}
	return id, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
