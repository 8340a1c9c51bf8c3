// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pelixflow/internal/logging"
	"github.com/tomtom215/pelixflow/internal/middleware"
	"github.com/tomtom215/pelixflow/internal/validation"
)

// Error codes.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeGenerationFailed     = "GENERATION_FAILED"
	CodeGeneratorUnavailable = "GENERATOR_UNAVAILABLE"
	CodePersistenceFailed    = "PERSISTENCE_FAILED"
	CodeInternal             = "INTERNAL_ERROR"
)

// Informational outcomes reported in metadata.info.
const (
	InfoAlreadyExists     = "already_exists"
	InfoNoRecommendations = "no_recommendations"
)

// Request body limits.
const (
	maxBodyBytes        = 1 << 20
	maxProfileBodyBytes = 8 << 20
)

// APIResponse is the envelope of every API response.
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata accompanies every response.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Info      string    `json:"info,omitempty"`
}

// APIError is the error half of the envelope.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// respondJSON writes response with status. API responses are per-user and
// never cacheable.
func respondJSON(w http.ResponseWriter, status int, response *APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data any) {
	respondInfo(w, r, status, data, "")
}

func respondInfo(w http.ResponseWriter, r *http.Request, status int, data any, info string) {
	respondJSON(w, status, &APIResponse{
		Status: "success",
		Data:   data,
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(r.Context()),
			Info:      info,
		},
	})
}

// respondError sends an error response. err, when set, is logged; its text
// never reaches the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any, err error) {
	if err != nil {
		event := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
	}

	respondJSON(w, status, &APIResponse{
		Status: "error",
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(r.Context()),
		},
		Error: &APIError{Code: code, Message: message, Details: details},
	})
}

// bindJSON decodes the request body into dst and validates it. It writes
// the 400 response itself and returns false on failure.
func bindJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		msg := "Request body must be valid JSON"
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			msg = fmt.Sprintf("Request body exceeds %d bytes", limit)
		case errors.Is(err, io.EOF):
			msg = "Request body is required"
		}
		respondError(w, r, http.StatusBadRequest, CodeValidation, msg, nil, nil)
		return false
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return false
	}
	return true
}

// sanitizeLogValue escapes control characters so error text cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
