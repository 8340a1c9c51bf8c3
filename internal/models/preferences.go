// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package models

// AnyYearRange means the user placed no constraint on release year.
const AnyYearRange = "any"

// Preferences is the last-submitted preference form. It is persisted so the
// form can be pre-filled on the next session.
type Preferences struct {
	ContentType    string   `json:"contentType" validate:"required,oneof=movie series documentary"`
	Platforms      []string `json:"platforms" validate:"required,min=1,dive,required"`
	Genres         []string `json:"genres" validate:"required,min=1,dive,required"`
	Duration       string   `json:"duration" validate:"required"`
	YearRange      string   `json:"yearRange" validate:"required"`
	Episodes       string   `json:"episodes,omitempty"`
	OriginCountry  string   `json:"originCountry" validate:"required"`
	Language       string   `json:"language" validate:"required"`
	Subtitles      bool     `json:"subtitles"`
	Dubbing        bool     `json:"dubbing"`
	ContentThemes  []string `json:"contentThemes,omitempty"`
	SimilarContent string   `json:"similarContent,omitempty"`
}

// DefaultPreferences is the form a user sees before submitting anything.
func DefaultPreferences() Preferences {
	return Preferences{
		ContentType:   ContentTypeMovie,
		Platforms:     []string{"netflix"},
		Genres:        []string{"comedy"},
		Duration:      "medium",
		YearRange:     AnyYearRange,
		OriginCountry: "any",
		Language:      "es",
		Dubbing:       true,
		ContentThemes: []string{},
	}
}

// Normalized returns a copy with fields that do not apply removed:
// Episodes is dropped unless ContentType is series.
func (p Preferences) Normalized() Preferences {
	out := p
	out.Platforms = append([]string(nil), p.Platforms...)
	out.Genres = append([]string(nil), p.Genres...)
	out.ContentThemes = append([]string(nil), p.ContentThemes...)
	if out.ContentType != ContentTypeSeries {
		out.Episodes = ""
	}
	return out
}

// Feedback is a like/dislike on a recommendation. Feedback lives only in the
// running session and is never written to the user document.
type Feedback struct {
	Recommendation Recommendation `json:"recommendation"`
	Liked          bool           `json:"liked"`
}
