// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

// Package models defines the data structures shared by PelixFlow services:
// recommendations, user collections, chat threads and the per-user document
// that persists them.
//
// # Title identity
//
// A Recommendation has no synthetic id. Its Title is the identity key for
// every membership and removal operation across favorites, history, custom
// lists and the current recommendation set. Two distinct works that share a
// title are treated as the same entry and dedup against each other. The
// helpers in this file are the only place that comparison is made.
package models

// ContentType values produced by the generator.
const (
	ContentTypeMovie       = "movie"
	ContentTypeSeries      = "series"
	ContentTypeDocumentary = "documentary"
)

// Recommendation is a single generator-produced title. It is treated as an
// immutable value once produced.
type Recommendation struct {
	Title      string   `json:"title" validate:"required,max=300"`
	Year       string   `json:"year"`
	Genre      string   `json:"genre"`
	Platform   string   `json:"platform"`
	Synopsis   string   `json:"synopsis"`
	MainActors []string `json:"mainActors"`
	DirectLink string   `json:"directLink,omitempty"`

	// ConfidenceScore is 0-100 and assigned by the generator only.
	ConfidenceScore float64 `json:"confidenceScore"`

	Reviews       string `json:"reviews"`
	Director      string `json:"director"`
	Writer        string `json:"writer"`
	Ratings       string `json:"ratings"`
	ContentType   string `json:"contentType"`
	Language      string `json:"language"`
	OriginCountry string `json:"originCountry"`
	Awards        string `json:"awards,omitempty"`
	ContentRating string `json:"contentRating,omitempty"`
	TrailerURL    string `json:"trailerUrl,omitempty"`
	Seasons       string `json:"seasons,omitempty"`
}

// IndexOfTitle returns the index of the first entry with the given title, or -1.
func IndexOfTitle(recs []Recommendation, title string) int {
	for i := range recs {
		if recs[i].Title == title {
			return i
		}
	}
	return -1
}

// ContainsTitle reports whether any entry has the given title.
func ContainsTitle(recs []Recommendation, title string) bool {
	return IndexOfTitle(recs, title) >= 0
}

// WithoutTitle returns a new slice with every entry of the given title removed.
func WithoutTitle(recs []Recommendation, title string) []Recommendation {
	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		if r.Title != title {
			out = append(out, r)
		}
	}
	return out
}

// Prepend returns a new slice with rec at the front followed by recs.
func Prepend(recs []Recommendation, rec Recommendation) []Recommendation {
	out := make([]Recommendation, 0, len(recs)+1)
	out = append(out, rec)
	return append(out, recs...)
}

// MoveToFront returns a new slice with rec first and any older entry of
// the same title dropped.
func MoveToFront(recs []Recommendation, rec Recommendation) []Recommendation {
	return Prepend(WithoutTitle(recs, rec.Title), rec)
}

// DedupeByTitle returns a new slice keeping the first entry of each title
// in order.
func DedupeByTitle(recs []Recommendation) []Recommendation {
	seen := make(map[string]struct{}, len(recs))
	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		if _, ok := seen[r.Title]; ok {
			continue
		}
		seen[r.Title] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Titles returns the titles of recs in order.
func Titles(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i := range recs {
		out[i] = recs[i].Title
	}
	return out
}

// CloneRecommendations returns a copy of recs that never aliases the input
// and is never nil.
func CloneRecommendations(recs []Recommendation) []Recommendation {
	out := make([]Recommendation, len(recs))
	copy(out, recs)
	return out
}
