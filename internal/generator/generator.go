// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

// Package generator is the boundary to the external language model that
// produces every recommendation and chat reply.
//
// The generator is opaque and stateless per call: structured input in,
// structured output out, and a call either fully succeeds or fails. It is
// trusted to shape its own output; callers only distinguish success, an
// empty result, and failure.
//
// Flows:
//
//	Recommend          preferences + history + feedback -> exactly 6 recommendations
//	Mood               free-text mood                    -> exactly 6 recommendations
//	Search             query + title|actor               -> up to 6 recommendations
//	Fuse               2-3 titles                        -> one synthetic synopsis
//	Chat               history + input + persona         -> one reply
//	AdjustPreferences  preference form                   -> refinement suggestions
//
// Gemini is the production implementation; Breaker wraps any Generator
// with a circuit breaker.
package generator

import (
	"context"
	"errors"

	"github.com/tomtom215/pelixflow/internal/models"
)

// Flow names used in logs and metrics.
const (
	FlowRecommend = "recommend"
	FlowMood      = "mood"
	FlowSearch    = "search"
	FlowFuse      = "fuse"
	FlowChat      = "chat"
	FlowAdjust    = "adjust_preferences"
)

const (
	// RecommendationCount is the exact size of a preference or mood result.
	RecommendationCount = 6

	// MaxSearchResults caps a search result.
	MaxSearchResults = 6
)

var (
	// ErrEmptyResult means the model answered with nothing usable.
	ErrEmptyResult = errors.New("generator: empty result")

	// ErrNonConforming means the model answered but not in the expected shape.
	ErrNonConforming = errors.New("generator: non-conforming result")

	// ErrUnavailable means the call was not attempted because the circuit
	// breaker is open.
	ErrUnavailable = errors.New("generator: unavailable")

	// ErrInvalidInput means the request was rejected before any call.
	ErrInvalidInput = errors.New("generator: invalid input")
)

// Generator is the full external capability.
type Generator interface {
	Recommend(ctx context.Context, in RecommendInput) ([]models.Recommendation, error)
	Mood(ctx context.Context, mood string) ([]models.Recommendation, error)
	Search(ctx context.Context, query string, searchType SearchType) ([]models.Recommendation, error)
	Fuse(ctx context.Context, titles []string) (string, error)
	Chat(ctx context.Context, in ChatInput) (string, error)
	AdjustPreferences(ctx context.Context, in AdjustInput) (*Adjustment, error)
}

// RecommendInput is the enriched preference-flow input.
type RecommendInput struct {
	ContentType             string   `json:"contentType"`
	PlatformPreferences     []string `json:"platformPreferences"`
	GenrePreferences        []string `json:"genrePreferences"`
	DurationPreference      string   `json:"durationPreference"`
	YearRangePreference     string   `json:"yearRangePreference,omitempty"`
	EpisodesPreference      string   `json:"episodesPreference,omitempty"`
	OriginCountryPreference string   `json:"originCountryPreference"`
	LanguagePreference      string   `json:"languagePreference"`
	SubtitlesPreference     bool     `json:"subtitlesPreference"`
	DubbingPreference       bool     `json:"dubbingPreference"`
	ContentThemes           []string `json:"contentThemes"`
	ViewingHistory          []string `json:"viewingHistory"`
	SimilarContent          string   `json:"similarContent,omitempty"`
	Feedback                string   `json:"feedback,omitempty"`
}

// SearchType selects what a search query matches.
type SearchType string

// Search types.
const (
	SearchByTitle SearchType = "title"
	SearchByActor SearchType = "actor"
)

// Valid reports whether t is a known search type.
func (t SearchType) Valid() bool {
	return t == SearchByTitle || t == SearchByActor
}

// ChatInput is one conversational turn request.
type ChatInput struct {
	// History is the chat's messages before UserInput.
	History      []models.Message `json:"history"`
	UserInput    string           `json:"userInput"`
	Persona      models.Persona   `json:"persona"`
	ContentTitle string           `json:"contentTitle,omitempty"`
}

// AdjustInput is the preference form sent for refinement.
type AdjustInput struct {
	Platforms      []string `json:"platforms"`
	Genres         []string `json:"genres"`
	Duration       string   `json:"duration"`
	Language       string   `json:"language"`
	Subtitles      bool     `json:"subtitles"`
	Dubbing        bool     `json:"dubbing"`
	ContentThemes  []string `json:"contentThemes"`
	SimilarContent string   `json:"similarContent"`
}

// Adjustment holds generator-suggested preference refinements.
type Adjustment struct {
	RefinedPlatforms     []string `json:"refinedPlatforms"`
	RefinedGenres        []string `json:"refinedGenres"`
	RefinedDuration      string   `json:"refinedDuration"`
	RefinedLanguage      string   `json:"refinedLanguage"`
	RefinedSubtitles     bool     `json:"refinedSubtitles"`
	RefinedDubbing       bool     `json:"refinedDubbing"`
	RefinedContentThemes []string `json:"refinedContentThemes"`
}
