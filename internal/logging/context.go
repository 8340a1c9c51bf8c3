// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
	userKey          contextKey = "user"
)

// GenerateCorrelationID returns a short id (first 8 characters of a UUID).
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// GenerateRequestID returns a full UUID.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithCorrelationID returns ctx carrying the correlation id.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID returns ctx carrying a freshly generated correlation id.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns the correlation id or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRequestID returns ctx carrying the HTTP request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithUser returns ctx carrying the document key of the
// authenticated user, so that service-level log lines can be attributed.
func ContextWithUser(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, userKey, key)
}

// UserFromContext returns the user key or "".
func UserFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(userKey).(string); ok {
		return key
	}
	return ""
}

// Ctx returns the global logger enriched with whatever correlation id,
// request id and user key ctx carries.
//
//	logging.Ctx(ctx).Info().Msg("Recommendations replaced")
//	// {"level":"info","correlation_id":"1a2b3c4d","request_id":"...","user":"u1","message":"..."}
func Ctx(ctx context.Context) *zerolog.Logger {
	lc := Logger().With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		lc = lc.Str("correlation_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	if key := UserFromContext(ctx); key != "" {
		lc = lc.Str("user", key)
	}
	l := lc.Logger()
	return &l
}

// WithComponent returns a child of the global logger tagged with a component field.
//
//	logger := logging.WithComponent("chat")
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
