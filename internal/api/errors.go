// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/pelixflow/internal/chat"
	"github.com/tomtom215/pelixflow/internal/generator"
	"github.com/tomtom215/pelixflow/internal/recommend"
	"github.com/tomtom215/pelixflow/internal/session"
)

// errorMapping classifies a service error. Order matters: a joined error
// carrying both a generation and a persistence failure reports the
// generation failure.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{chat.ErrEmptyMessage, http.StatusBadRequest, CodeValidation, "Message must not be empty"},
	{chat.ErrInvalidPersona, http.StatusBadRequest, CodeValidation, "Persona must be expert or fan"},
	{recommend.ErrEmptyListName, http.StatusBadRequest, CodeValidation, "List name must not be empty"},
	{session.ErrEmptyProfile, http.StatusBadRequest, CodeValidation, "Provide a name or a photo"},
	{session.ErrInvalidPhoto, http.StatusBadRequest, CodeValidation, "Photo must be a JPEG, PNG, GIF or WebP image up to 5 MB"},
	{generator.ErrInvalidInput, http.StatusBadRequest, CodeValidation, "Invalid generation input"},
	{session.ErrNoUser, http.StatusUnauthorized, CodeUnauthorized, "Token names no user"},
	{recommend.ErrListNotFound, http.StatusNotFound, CodeNotFound, "List not found"},
	{chat.ErrChatNotFound, http.StatusNotFound, CodeNotFound, "Chat not found"},
	{chat.ErrNoActiveChat, http.StatusConflict, CodeConflict, "No active chat"},
	{chat.ErrSendInFlight, http.StatusConflict, CodeConflict, "A message is already being sent in this chat"},
	{chat.ErrChatDeleted, http.StatusConflict, CodeConflict, "The chat was deleted before the reply arrived"},
	{generator.ErrUnavailable, http.StatusServiceUnavailable, CodeGeneratorUnavailable, "The assistant is temporarily unavailable, try again shortly"},
	{recommend.ErrGeneration, http.StatusBadGateway, CodeGenerationFailed, "Could not generate recommendations"},
	{chat.ErrGeneration, http.StatusBadGateway, CodeGenerationFailed, "Could not generate a reply"},
	{recommend.ErrPersist, http.StatusServiceUnavailable, CodePersistenceFailed, "Change applied but not saved"},
	{chat.ErrPersist, http.StatusServiceUnavailable, CodePersistenceFailed, "Chat updated but not saved"},
	{session.ErrPersist, http.StatusServiceUnavailable, CodePersistenceFailed, "Profile not saved"},
	{session.ErrLoad, http.StatusServiceUnavailable, CodePersistenceFailed, "Your data could not be loaded"},
}

// classify returns the HTTP status, code and message for err.
func classify(err error) (int, string, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code, m.message
		}
	}
	return http.StatusInternalServerError, CodeInternal, "Internal server error"
}

// respondServiceError maps a service error to its response. details may
// carry state that was still applied, such as the apology message.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, details map[string]any) {
	status, code, message := classify(err)
	if status == http.StatusServiceUnavailable && code == CodeGeneratorUnavailable {
		w.Header().Set("Retry-After", "30")
	}
	respondError(w, r, status, code, message, details, err)
}
