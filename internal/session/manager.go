// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

// Package session owns the per-user state held in memory: one
// RecommendationService and one ChatService per signed-in user, built from
// the user's document on first use and kept in a bounded LRU registry.
//
// An evicted session is not lost. Every mutation was already merge-written
// to the document store, so the next request simply rebuilds it. Session
// feedback is the one exception and does not survive eviction. A session
// that is acquired by a running request stays in memory past its eviction
// until the last holder releases it, so two copies never write the same
// document.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/pelixflow/internal/cache"
	"github.com/tomtom215/pelixflow/internal/chat"
	"github.com/tomtom215/pelixflow/internal/config"
	"github.com/tomtom215/pelixflow/internal/generator"
	"github.com/tomtom215/pelixflow/internal/logging"
	"github.com/tomtom215/pelixflow/internal/metrics"
	"github.com/tomtom215/pelixflow/internal/models"
	"github.com/tomtom215/pelixflow/internal/recommend"
	"github.com/tomtom215/pelixflow/internal/store"
)

var (
	// ErrNoUser rejects an identity without a document key.
	ErrNoUser = errors.New("session: missing user key")

	// ErrLoad is returned when the user document cannot be read or
	// created. No session is built from partial state.
	ErrLoad = errors.New("session: failed to load user document")
)

// Identity is who the caller is, as asserted by the auth layer.
type Identity struct {
	UserKey string
	Email   string
	Name    string
}

// Resolver assigns the universal identifier. May be nil.
type Resolver interface {
	Resolve(ctx context.Context, userKey, email string) (string, error)
}

// Manager builds and caches sessions.
type Manager struct {
	store    store.DocumentStore
	gen      generator.Generator
	resolver Resolver
	logger   zerolog.Logger

	sessions *cache.LRU[*Session]
	opening  singleflight.Group

	mu   sync.Mutex
	live map[string]*entry
}

// entry tracks a session in memory. The LRU decides retention; live keeps
// sessions that are still held after the LRU dropped them.
type entry struct {
	s       *Session
	refs    int
	evicted bool
	reason  cache.EvictReason
}

// NewManager creates a session manager. resolver may be nil when identity
// resolution is disabled.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewManager(cfg config.SessionConfig, st store.DocumentStore, gen generator.Generator, resolver Resolver, logger zerolog.Logger) *Manager {
	m := &Manager{
		store:    st,
		gen:      gen,
		resolver: resolver,
		logger:   logger.With().Str("component", "session").Logger(),
		live:     make(map[string]*entry),
	}
	m.sessions = cache.NewLRU[*Session](cfg.Capacity, cfg.IdleTTL, m.evicted)
	return m
}

// evicted runs outside the LRU lock. m.mu must never be held while calling
// into the LRU.
func (m *Manager) evicted(key string, s *Session, reason cache.EvictReason) {
	m.mu.Lock()
	e, ok := m.live[key]
	if !ok || e.s != s {
		m.mu.Unlock()
		return
	}
	if e.refs > 0 {
		e.evicted = true
		e.reason = reason
		holders := e.refs
		m.mu.Unlock()
		m.logger.Debug().Str("user", key).Int("holders", holders).Msg("Session in use, eviction deferred")
		return
	}
	delete(m.live, key)
	m.mu.Unlock()
	m.dropped(key, reason)
}

func (m *Manager) dropped(key string, reason cache.EvictReason) {
	metrics.ActiveSessions.Dec()
	metrics.SessionEvictions.WithLabelValues(reason.String()).Inc()
	m.logger.Debug().Str("user", key).Str("reason", reason.String()).Msg("Session evicted")
}

// Acquire returns the caller's session, building it on first use, and holds
// it in memory until release is called. Concurrent acquires for the same
// user share one build. release is safe to call more than once.
func (m *Manager) Acquire(ctx context.Context, id Identity) (*Session, func(), error) {
	if strings.TrimSpace(id.UserKey) == "" {
		return nil, nil, ErrNoUser
	}
	if s, ok := m.hold(id.UserKey); ok {
		return s, m.releaser(id.UserKey, s), nil
	}

	// The build is shared, so one caller's cancellation must not fail the
	// others waiting on it.
	buildCtx := context.WithoutCancel(ctx)
	v, err, _ := m.opening.Do(id.UserKey, func() (any, error) {
		m.mu.Lock()
		e, ok := m.live[id.UserKey]
		m.mu.Unlock()
		if ok {
			return e.s, nil
		}
		s, err := m.build(buildCtx, id)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.live[id.UserKey] = &entry{s: s}
		m.mu.Unlock()
		metrics.ActiveSessions.Inc()
		m.sessions.Add(id.UserKey, s)
		return s, nil
	})
	if err != nil {
		return nil, nil, err
	}
	s := m.adopt(id.UserKey, v.(*Session))
	return s, m.releaser(id.UserKey, s), nil
}

// Open returns the caller's session without holding it. Requests that
// mutate the session should use Acquire.
func (m *Manager) Open(ctx context.Context, id Identity) (*Session, error) {
	s, release, err := m.Acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	release()
	return s, nil
}

// hold takes a reference on a session already in memory. A session the LRU
// dropped while busy goes back into the LRU.
func (m *Manager) hold(key string) (*Session, bool) {
	m.mu.Lock()
	e, ok := m.live[key]
	if !ok {
		m.mu.Unlock()
		return nil, false
	}
	e.refs++
	readd := e.evicted
	e.evicted = false
	s := e.s
	m.mu.Unlock()

	if readd {
		m.sessions.Add(key, s)
	} else {
		m.sessions.Get(key)
	}
	return s, true
}

// adopt takes a reference on a freshly built session. The LRU may already
// have dropped it if other users filled the registry during the build.
func (m *Manager) adopt(key string, s *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live[key]
	if !ok {
		e = &entry{s: s, evicted: true, reason: cache.EvictedCapacity}
		m.live[key] = e
		metrics.ActiveSessions.Inc()
	}
	e.refs++
	return e.s
}

func (m *Manager) releaser(key string, s *Session) func() {
	var once sync.Once
	return func() { once.Do(func() { m.release(key, s) }) }
}

func (m *Manager) release(key string, s *Session) {
	m.mu.Lock()
	e, ok := m.live[key]
	if !ok || e.s != s {
		m.mu.Unlock()
		return
	}
	e.refs--
	if e.refs > 0 || !e.evicted {
		m.mu.Unlock()
		return
	}
	delete(m.live, key)
	reason := e.reason
	m.mu.Unlock()
	m.dropped(key, reason)
}

// Close drops the user's session from memory once no request holds it. The
// next Open rebuilds it.
func (m *Manager) Close(userKey string) {
	m.sessions.Remove(userKey)
}

// Len returns the number of sessions in memory, including evicted sessions
// still held by a request.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Sweep evicts idle sessions and returns how many were dropped.
func (m *Manager) Sweep() int {
	return m.sessions.CleanupExpired()
}

func (m *Manager) build(ctx context.Context, id Identity) (*Session, error) {
	start := time.Now()
	log := logging.Ctx(ctx)

	doc, err := m.load(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("Could not load user document")
		return nil, err
	}

	if doc.UniversalID == "" && m.resolver != nil {
		uid, rerr := m.resolver.Resolve(ctx, id.UserKey, firstNonEmpty(doc.Email, id.Email))
		if rerr != nil {
			log.Warn().Err(rerr).Msg("Universal id not resolved")
		}
		if uid != "" {
			doc.UniversalID = uid
		}
	}

	userLog := m.logger.With().Str("user", id.UserKey).Logger()
	s := &Session{
		key:       id.UserKey,
		store:     m.store,
		profile:   doc.UserProfile,
		Recommend: recommend.NewService(m.store, m.gen, id.UserKey, recommend.StateFromDocument(doc), userLog),
		Chat:      chat.NewService(m.store, m.gen, id.UserKey, doc.Chats, userLog),
	}

	// A missing default chat is not worth failing the session over; the
	// chat exists in memory and is written with the next change.
	if err := s.Chat.EnsureChat(ctx); err != nil {
		log.Warn().Err(err).Msg("Default chat not persisted")
	}

	log.Info().
		Dur("duration", time.Since(start)).
		Int("chats", len(doc.Chats)).
		Int("favorites", len(doc.Favorites)).
		Msg("Session opened")
	return s, nil
}

// load reads the user document, writing the initial one if it is absent.
func (m *Manager) load(ctx context.Context, id Identity) (*models.UserDocument, error) {
	doc, err := m.store.Get(ctx, id.UserKey)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	if err := m.store.MergePatch(ctx, id.UserKey, models.InitialPatch(id.Name, id.Email)); err != nil {
		return nil, fmt.Errorf("%w: create: %w", ErrLoad, err)
	}
	logging.Ctx(ctx).Info().Msg("Created user document")
	return models.NewUserDocument(id.Name, id.Email), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
