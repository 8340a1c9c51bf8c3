// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

// Package store persists one JSON document per user in BadgerDB.
//
// The only write primitive is MergePatch: a shallow, field-level merge in
// which every top-level field named in the patch is replaced wholesale and
// every other field is left as stored. A patch against a missing document
// creates it. Reads happen once per session; between reads the in-memory
// projection held by the services is authoritative.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/pelixflow/internal/config"
	"github.com/tomtom215/pelixflow/internal/logging"
	"github.com/tomtom215/pelixflow/internal/metrics"
	"github.com/tomtom215/pelixflow/internal/models"
)

const (
	userKeyPrefix = "user:"

	// maxConflictRetries bounds retries of a merge-patch transaction that
	// lost a race with another write to the same key.
	maxConflictRetries = 5
)

var (
	// ErrNotFound is returned by Get when the user has no document yet.
	ErrNotFound = errors.New("store: document not found")

	// ErrEmptyKey is returned for operations without a user key.
	ErrEmptyKey = errors.New("store: empty user key")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store: closed")
)

// DocumentStore is the remote user document capability.
type DocumentStore interface {
	// Get reads the user's document or returns ErrNotFound.
	Get(ctx context.Context, key string) (*models.UserDocument, error)

	// MergePatch shallow-merges patch into the user's document, creating it
	// if absent.
	MergePatch(ctx context.Context, key string, patch models.Patch) error
}

// BadgerStore implements DocumentStore on BadgerDB.
type BadgerStore struct {
	db    *badger.DB
	owned bool
}

// Open opens (or creates) the Badger database described by cfg.
func Open(cfg config.StoreConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Msg("Document store opened")

	return &BadgerStore{db: db, owned: true}, nil
}

// NewBadgerStore wraps an already opened database. The caller keeps
// ownership and Close does not close db.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Close closes the database if this store opened it.
func (s *BadgerStore) Close() error {
	if !s.owned || s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}

// Healthy reports whether the database is open.
func (s *BadgerStore) Healthy() bool {
	return s.db != nil && !s.db.IsClosed()
}

// Get implements DocumentStore.
func (s *BadgerStore) Get(ctx context.Context, key string) (*models.UserDocument, error) {
	start := time.Now()
	doc, err := s.get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		metrics.RecordStoreOperation("get", time.Since(start), nil)
	} else {
		metrics.RecordStoreOperation("get", time.Since(start), err)
	}
	return doc, err
}

func (s *BadgerStore) get(ctx context.Context, key string) (*models.UserDocument, error) {
	if err := s.check(ctx, key); err != nil {
		return nil, err
	}

	var doc models.UserDocument
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MergePatch implements DocumentStore.
func (s *BadgerStore) MergePatch(ctx context.Context, key string, patch models.Patch) error {
	start := time.Now()
	err := s.mergePatch(ctx, key, patch)
	metrics.RecordStoreOperation("merge_patch", time.Since(start), err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Strs("fields", patch.Fields()).
			Msg("Document merge-patch failed")
	}
	return err
}

func (s *BadgerStore) mergePatch(ctx context.Context, key string, patch models.Patch) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}

	encoded := make(map[string]json.RawMessage, len(patch))
	for field, value := range patch {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal field %q: %w", field, err)
		}
		encoded[field] = raw
	}

	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			return applyPatch(txn, userKey(key), encoded)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		metrics.StoreConflictRetries.Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	if err != nil {
		return fmt.Errorf("merge-patch document: %w", err)
	}
	return nil
}

// applyPatch reads the stored document as raw top-level fields, overlays
// the patch fields and writes the result back in the same transaction.
func applyPatch(txn *badger.Txn, key []byte, patch map[string]json.RawMessage) error {
	fields := make(map[string]json.RawMessage)

	item, err := txn.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return err
	default:
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &fields)
		}); err != nil {
			return fmt.Errorf("decode stored document: %w", err)
		}
	}

	for field, raw := range patch {
		fields[field] = raw
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return txn.Set(key, data)
}

func (s *BadgerStore) check(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if s.db == nil || s.db.IsClosed() {
		return ErrClosed
	}
	return ctx.Err()
}

func userKey(key string) []byte {
	return []byte(userKeyPrefix + key)
}
