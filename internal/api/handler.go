// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/pelixflow/internal/auth"
	"github.com/tomtom215/pelixflow/internal/session"
)

// Sessions hands out the caller's session for the duration of a request.
type Sessions interface {
	Acquire(ctx context.Context, id session.Identity) (*session.Session, func(), error)
}

// HealthCheck is one readiness probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler serves all API endpoints.
type Handler struct {
	sessions  Sessions
	checks    []HealthCheck
	startTime time.Time
}

// NewHandler creates the API handler. checks run on /health/ready.
func NewHandler(sessions Sessions, checks ...HealthCheck) *Handler {
	return &Handler{
		sessions:  sessions,
		checks:    checks,
		startTime: time.Now(),
	}
}

// session acquires the authenticated caller's session, writing the error
// response itself when that fails. The caller must run release once the
// request is done with the session.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (s *session.Session, release func(), ok bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, CodeUnauthorized, "Authentication required", nil, nil)
		return nil, nil, false
	}

	s, release, err := h.sessions.Acquire(r.Context(), session.Identity{
		UserKey: p.UserKey,
		Email:   p.Email,
		Name:    p.Name,
	})
	if err != nil {
		respondServiceError(w, r, err, nil)
		return nil, nil, false
	}
	return s, release, true
}
