// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package middleware

import (
	"net/http"
	"time"

	"github.com/tomtom215/pelixflow/internal/logging"
)

// AccessLog logs one line per request. Requests slower than slow, and all
// 5xx responses, are logged at warn level; the rest at debug. Generator
// calls dominate latency, so slow is typically a few seconds.
func AccessLog(slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			elapsed := time.Since(start)
			log := logging.Ctx(r.Context())
			event := log.Debug()
			if rw.statusCode >= http.StatusInternalServerError || (slow > 0 && elapsed > slow) {
				event = log.Warn()
			}
			event.
				Str("method", r.Method).
				Str("route", routePattern(r)).
				Int("status", rw.statusCode).
				Dur("duration", elapsed).
				Msg("HTTP request")
		})
	}
}
