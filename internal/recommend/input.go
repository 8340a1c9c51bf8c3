// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package recommend

import (
	"fmt"
	"strings"

	"github.com/tomtom215/pelixflow/internal/generator"
	"github.com/tomtom215/pelixflow/internal/models"
)

// buildInput maps a preference form plus session context to the
// preference-flow input.
func buildInput(p models.Preferences, history []models.Recommendation, feedback []models.Feedback) generator.RecommendInput {
	in := generator.RecommendInput{
		ContentType:             p.ContentType,
		PlatformPreferences:     p.Platforms,
		GenrePreferences:        p.Genres,
		DurationPreference:      p.Duration,
		OriginCountryPreference: p.OriginCountry,
		LanguagePreference:      p.Language,
		SubtitlesPreference:     p.Subtitles,
		DubbingPreference:       p.Dubbing,
		ContentThemes:           p.ContentThemes,
		SimilarContent:          p.SimilarContent,
		ViewingHistory:          models.Titles(history),
		Feedback:                feedbackSummary(feedback),
	}
	if p.YearRange != models.AnyYearRange {
		in.YearRangePreference = p.YearRange
	}
	if p.ContentType == models.ContentTypeSeries {
		in.EpisodesPreference = p.Episodes
	}
	if in.ContentThemes == nil {
		in.ContentThemes = []string{}
	}
	return in
}

// feedbackSummary renders feedback as sentences, newest first.
func feedbackSummary(feedback []models.Feedback) string {
	parts := make([]string, 0, len(feedback))
	for _, f := range feedback {
		verb := "disliked"
		if f.Liked {
			verb = "liked"
		}
		parts = append(parts, fmt.Sprintf("The user %s %q", verb, f.Recommendation.Title))
	}
	return strings.Join(parts, ". ")
}
