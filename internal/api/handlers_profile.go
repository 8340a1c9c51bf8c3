// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package api

import (
	"net/http"

	"github.com/tomtom215/pelixflow/internal/models"
)

// meResponse is the full session snapshot a client needs on load.
type meResponse struct {
	Profile         models.UserProfile      `json:"profile"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Favorites       []models.Recommendation `json:"favorites"`
	History         []models.Recommendation `json:"history"`
	Feedback        []models.Feedback       `json:"feedback"`
	Lists           []models.CustomList     `json:"lists"`
	Preferences     models.Preferences      `json:"preferences"`
	Chats           []models.Chat           `json:"chats"`
	ActiveChatID    string                  `json:"activeChatId"`
}

// updateProfileRequest carries the photo as base64 in JSON.
type updateProfileRequest struct {
	Name  string `json:"name" validate:"max=100"`
	Photo []byte `json:"photo"`
}

// Me returns the caller's profile and all session state. Preferences fall
// back to the defaults when none were ever saved.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	prefs := models.DefaultPreferences()
	if p := s.Recommend.Preferences(); p != nil {
		prefs = *p
	}

	respondSuccess(w, r, http.StatusOK, meResponse{
		Profile:         s.Profile(),
		Recommendations: s.Recommend.Recommendations(),
		Favorites:       s.Recommend.Favorites(),
		History:         s.Recommend.History(),
		Feedback:        s.Recommend.Feedback(),
		Lists:           s.Recommend.Lists(),
		Preferences:     prefs,
		Chats:           s.Chat.Chats(),
		ActiveChatID:    s.Chat.ActiveChatID(),
	})
}

// UpdateProfile changes the display name and/or photo.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !bindJSON(w, r, &req, maxProfileBodyBytes) {
		return
	}
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	profile, err := s.UpdateProfile(r.Context(), req.Name, req.Photo)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, profile)
}
