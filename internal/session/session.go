// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tomtom215/pelixflow/internal/chat"
	"github.com/tomtom215/pelixflow/internal/models"
	"github.com/tomtom215/pelixflow/internal/recommend"
	"github.com/tomtom215/pelixflow/internal/store"
)

var (
	// ErrEmptyProfile rejects an update with neither a name nor a photo.
	ErrEmptyProfile = errors.New("profile update has no name or photo")

	// ErrPersist wraps a failed profile write. The in-memory profile is
	// left unchanged.
	ErrPersist = errors.New("failed to persist profile")
)

// Session is one user's live state.
type Session struct {
	Recommend *recommend.Service
	Chat      *chat.Service

	key   string
	store store.DocumentStore

	mu      sync.Mutex
	profile models.UserProfile
}

// Key returns the user document key.
func (s *Session) Key() string {
	return s.key
}

// Profile returns the user's profile.
func (s *Session) Profile() models.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// UpdateProfile sets the display name and/or photo. A blank name keeps
// the current one; nil photo keeps the current picture. The photo is
// downscaled and stored inline as a JPEG data URL.
func (s *Session) UpdateProfile(ctx context.Context, name string, photo []byte) (models.UserProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" && len(photo) == 0 {
		return s.Profile(), ErrEmptyProfile
	}

	patch := models.Patch{}
	if name != "" {
		patch[models.FieldName] = name
	}
	var photoURL string
	if len(photo) > 0 {
		url, err := EncodePhoto(photo)
		if err != nil {
			return s.Profile(), err
		}
		photoURL = url
		patch[models.FieldPhotoURL] = url
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.MergePatch(ctx, s.key, patch); err != nil {
		return s.profile, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if name != "" {
		s.profile.Name = name
	}
	if photoURL != "" {
		s.profile.PhotoURL = photoURL
	}
	return s.profile, nil
}
