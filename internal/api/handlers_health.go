// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package api

import (
	"context"
	"net/http"
	"time"
)

const readyCheckTimeout = 2 * time.Second

// HealthLive reports that the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// HealthReady runs every readiness check. Any failure makes the whole
// response 503 with per-check results.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	healthy := true
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			results[c.Name] = err.Error()
			healthy = false
			continue
		}
		results[c.Name] = "ok"
	}

	if !healthy {
		respondError(w, r, http.StatusServiceUnavailable, "NOT_READY", "One or more dependencies are unhealthy",
			map[string]any{"checks": results}, nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
}
