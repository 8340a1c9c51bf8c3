// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package models

// Top-level fields of the user document. A Patch is keyed by these names.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPhotoURL        = "photoURL"
	FieldUniversalID     = "id_PelixFlow"
	FieldFavorites       = "favorites"
	FieldHistory         = "history"
	FieldRecommendations = "recommendations"
	FieldLists           = "lists"
	FieldChats           = "chats"
	FieldPreferences     = "preferences"
)

// UserProfile is the identity part of the user document.
type UserProfile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoURL,omitempty"`

	// UniversalID is the cross-system identifier resolved from the
	// identity table at first login.
	UniversalID string `json:"id_PelixFlow,omitempty"`
}

// UserDocument is the single durable record per user. Feedback is
// deliberately absent: it never leaves the running session.
type UserDocument struct {
	UserProfile

	Favorites       []Recommendation `json:"favorites"`
	History         []Recommendation `json:"history"`
	Recommendations []Recommendation `json:"recommendations"`
	Lists           []CustomList     `json:"lists"`
	Chats           []Chat           `json:"chats"`
	Preferences     *Preferences     `json:"preferences,omitempty"`
}

// NewUserDocument returns the initial document written when a user is seen
// for the first time.
func NewUserDocument(name, email string) *UserDocument {
	return &UserDocument{
		UserProfile:     UserProfile{Name: name, Email: email},
		Favorites:       []Recommendation{},
		History:         []Recommendation{},
		Recommendations: []Recommendation{},
		Lists:           []CustomList{},
		Chats:           []Chat{},
	}
}

// InitialPatch is the create-if-absent patch equivalent of NewUserDocument.
func InitialPatch(name, email string) Patch {
	return Patch{
		FieldName:            name,
		FieldEmail:           email,
		FieldFavorites:       []Recommendation{},
		FieldHistory:         []Recommendation{},
		FieldRecommendations: []Recommendation{},
		FieldLists:           []CustomList{},
		FieldChats:           []Chat{},
	}
}

// Patch is a shallow merge-patch: each key replaces the whole top-level
// field of the same name and every other field is left untouched.
type Patch map[string]any

// Fields returns the patch keys. Order is not defined.
func (p Patch) Fields() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	return out
}
