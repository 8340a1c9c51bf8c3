// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/pelixflow/internal/generator"
	"github.com/tomtom215/pelixflow/internal/models"
	"github.com/tomtom215/pelixflow/internal/recommend"
)

type moodRequest struct {
	Mood string `json:"mood" validate:"notblank,max=200"`
}

type searchRequest struct {
	Query string `json:"query" validate:"notblank,max=200"`
	Type  string `json:"type" validate:"required,searchtype"`
}

type feedbackRequest struct {
	Recommendation models.Recommendation `json:"recommendation"`
	Liked          bool                  `json:"liked"`
}

type favoriteToggleResponse struct {
	Favorite  bool                    `json:"favorite"`
	Favorites []models.Recommendation `json:"favorites"`
}

// Recommendations returns the current recommendation set.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()
	respondSuccess(w, r, http.StatusOK, s.Recommend.Recommendations())
}

// GenerateRecommendations replaces the recommendation set with a fresh one
// generated from the posted preferences.
func (h *Handler) GenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	var prefs models.Preferences
	if !bindJSON(w, r, &prefs, maxBodyBytes) {
		return
	}
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	recs, err := s.Recommend.GetNewRecommendations(r.Context(), prefs)
	switch {
	case err == nil:
		respondSuccess(w, r, http.StatusOK, recs)
	case errors.Is(err, recommend.ErrNoRecommendations):
		respondInfo(w, r, http.StatusOK, []models.Recommendation{}, InfoNoRecommendations)
	default:
		respondServiceError(w, r, err, nil)
	}
}

// ClearRecommendations empties the recommendation set.
func (h *Handler) ClearRecommendations(w http.ResponseWriter, r *http.Request) {
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()
	if err := s.Recommend.ClearRecommendations(r.Context()); err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, []models.Recommendation{})
}

// ExploreMood returns suggestions for a free-text mood. Nothing is saved.
func (h *Handler) ExploreMood(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	if !bindJSON(w, r, &req, maxBodyBytes) {
		return
	}
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	recs, err := s.Recommend.ExploreMood(r.Context(), req.Mood)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, recs)
}

// Search looks up titles by name or by actor. Nothing is saved.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !bindJSON(w, r, &req, maxBodyBytes) {
		return
	}
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	recs, err := s.Recommend.Search(r.Context(), req.Query, generator.SearchType(req.Type))
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, recs)
}

// AdjustPreferences asks the generator to refine the posted preferences.
func (h *Handler) AdjustPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs models.Preferences
	if !bindJSON(w, r, &prefs, maxBodyBytes) {
		return
	}
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	adj, err := s.Recommend.AdjustPreferences(r.Context(), prefs)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, adj)
}

// ToggleFavorite adds or removes a title from favorites.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var rec models.Recommendation
	if !bindJSON(w, r, &rec, maxBodyBytes) {
		return
	}
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	fav, err := s.Recommend.ToggleFavorite(r.Context(), rec)
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, favoriteToggleResponse{Favorite: fav, Favorites: s.Recommend.Favorites()})
}

// Favorites returns the favorites, newest first.
func (h *Handler) Favorites(w http.ResponseWriter, r *http.Request) {
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()
	respondSuccess(w, r, http.StatusOK, s.Recommend.Favorites())
}

// AddToHistory records a title as watched.
func (h *Handler) AddToHistory(w http.ResponseWriter, r *http.Request) {
	var rec models.Recommendation
	if !bindJSON(w, r, &rec, maxBodyBytes) {
		return
	}
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	if err := s.Recommend.AddToHistory(r.Context(), rec); err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, s.Recommend.History())
}

// History returns the viewing history, most recent first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()
	respondSuccess(w, r, http.StatusOK, s.Recommend.History())
}

// AddFeedback records a like or dislike for the session. It is not saved.
func (h *Handler) AddFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !bindJSON(w, r, &req, maxBodyBytes) {
		return
	}
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	s.Recommend.AddFeedback(req.Recommendation, req.Liked)
	respondSuccess(w, r, http.StatusOK, s.Recommend.Feedback())
}
