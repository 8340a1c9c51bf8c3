// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/pelixflow/internal/models"
	"github.com/tomtom215/pelixflow/internal/recommend"
)

type createListRequest struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

// Lists returns the custom lists, newest first.
func (h *Handler) Lists(w http.ResponseWriter, r *http.Request) {
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()
	respondSuccess(w, r, http.StatusOK, s.Recommend.Lists())
}

// CreateList creates an empty list.
func (h *Handler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if !bindJSON(w, r, &req, maxBodyBytes) {
		return
	}
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	list, err := s.Recommend.CreateList(r.Context(), req.Name)
	if err != nil {
		var details map[string]any
		if errors.Is(err, recommend.ErrPersist) {
			details = map[string]any{"list": list}
		}
		respondServiceError(w, r, err, details)
		return
	}
	respondSuccess(w, r, http.StatusCreated, list)
}

// List returns one list.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()
	list, err := s.Recommend.List(chi.URLParam(r, "listID"))
	if err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, list)
}

// DeleteList deletes a list. Deleting an unknown list succeeds.
func (h *Handler) DeleteList(w http.ResponseWriter, r *http.Request) {
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()
	if err := s.Recommend.DeleteList(r.Context(), chi.URLParam(r, "listID")); err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, s.Recommend.Lists())
}

// AddToList appends a title to a list. A title already in the list is a
// 200 with info already_exists and nothing changes.
func (h *Handler) AddToList(w http.ResponseWriter, r *http.Request) {
	var rec models.Recommendation
	if !bindJSON(w, r, &rec, maxBodyBytes) {
		return
	}
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	id := chi.URLParam(r, "listID")
	if _, err := s.Recommend.List(id); err != nil {
		respondServiceError(w, r, err, nil)
		return
	}

	err := s.Recommend.AddToList(r.Context(), id, rec)
	list, _ := s.Recommend.List(id)
	switch {
	case err == nil:
		respondSuccess(w, r, http.StatusOK, list)
	case errors.Is(err, recommend.ErrAlreadyInList):
		respondInfo(w, r, http.StatusOK, list, InfoAlreadyExists)
	default:
		respondServiceError(w, r, err, nil)
	}
}

// RemoveFromList removes a title from a list. The title is the
// path-escaped exact title.
func (h *Handler) RemoveFromList(w http.ResponseWriter, r *http.Request) {
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	id := chi.URLParam(r, "listID")
	title, err := url.PathUnescape(chi.URLParam(r, "title"))
	if err != nil || title == "" {
		respondError(w, r, http.StatusBadRequest, CodeValidation, "title must be a path-escaped title", nil, nil)
		return
	}
	if _, err := s.Recommend.List(id); err != nil {
		respondServiceError(w, r, err, nil)
		return
	}

	if err := s.Recommend.RemoveFromList(r.Context(), id, title); err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	list, _ := s.Recommend.List(id)
	respondSuccess(w, r, http.StatusOK, list)
}
