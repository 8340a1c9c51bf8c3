// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package generator

import (
	"fmt"
	"strings"

	"github.com/tomtom215/pelixflow/internal/models"
)

const recordFieldsGuide = `For each title include: title, year, genre, platform, synopsis, mainActors,
directLink (a plausible page on the platform), confidenceScore (0-100), reviews (a short
critical summary), director, writer, ratings (e.g. "IMDb 7.8/10"), contentType (movie,
series or documentary), language, originCountry, and when known awards, contentRating,
trailerUrl and seasons (series only).`

func languageRule(lang string) string {
	return fmt.Sprintf("Write every free-text field in %s.", lang)
}

func recommendPrompt(in RecommendInput, lang string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a film and television recommendation expert. Suggest exactly %d %s titles for this viewer.\n\n",
		RecommendationCount, in.ContentType)
	b.WriteString("Viewer preferences:\n")
	fmt.Fprintf(&b, "- Platforms: %s\n", strings.Join(in.PlatformPreferences, ", "))
	fmt.Fprintf(&b, "- Genres: %s\n", strings.Join(in.GenrePreferences, ", "))
	fmt.Fprintf(&b, "- Duration: %s\n", in.DurationPreference)
	if in.YearRangePreference != "" {
		fmt.Fprintf(&b, "- Release years: %s\n", in.YearRangePreference)
	}
	if in.EpisodesPreference != "" {
		fmt.Fprintf(&b, "- Episode count: %s\n", in.EpisodesPreference)
	}
	fmt.Fprintf(&b, "- Country of origin: %s\n", in.OriginCountryPreference)
	fmt.Fprintf(&b, "- Language: %s (subtitles: %t, dubbing: %t)\n",
		in.LanguagePreference, in.SubtitlesPreference, in.DubbingPreference)
	if len(in.ContentThemes) > 0 {
		fmt.Fprintf(&b, "- Themes: %s\n", strings.Join(in.ContentThemes, ", "))
	}
	if in.SimilarContent != "" {
		fmt.Fprintf(&b, "- Similar to: %s\n", in.SimilarContent)
	}
	if len(in.ViewingHistory) > 0 {
		fmt.Fprintf(&b, "\nAlready watched, do not suggest again: %s\n", strings.Join(in.ViewingHistory, ", "))
	}
	if in.Feedback != "" {
		fmt.Fprintf(&b, "\nFeedback on earlier suggestions:\n%s\n", in.Feedback)
	}
	b.WriteString("\nOnly suggest titles available on the listed platforms and spread them across those platforms.\n")
	b.WriteString(recordFieldsGuide)
	b.WriteString("\n")
	b.WriteString(languageRule(lang))
	return b.String()
}

func moodPrompt(mood, lang string) string {
	return fmt.Sprintf(`You are a film and television curator. The viewer describes their mood as:

%q

Suggest exactly %d movies, series or documentaries that fit this mood, on varied streaming platforms.
%s
%s`, mood, RecommendationCount, recordFieldsGuide, languageRule(lang))
}

func searchPrompt(query string, searchType SearchType, lang string) string {
	target := "whose title matches"
	if searchType == SearchByActor {
		target = "featuring the actor or actress"
	}
	return fmt.Sprintf(`You are a film and television catalog. Find up to %d movies, series or documentaries %s:

%q

Use confidenceScore as the relevance of each result to the query. Return an empty array when nothing matches.
%s
%s`, MaxSearchResults, target, query, recordFieldsGuide, languageRule(lang))
}

func fusionPrompt(titles []string, lang string) string {
	return fmt.Sprintf(`You are a creative screenwriter. Invent one fictional title that fuses these works: %s.

Give the fused work a name, a one-paragraph synopsis that blends their tone, themes and characters,
and a short note on what it takes from each source. %s`, strings.Join(titles, ", "), languageRule(lang))
}

func adjustPrompt(in AdjustInput, lang string) string {
	var b strings.Builder
	b.WriteString("You are a streaming assistant. Review these viewing preferences and suggest a refined, coherent version.\n\n")
	fmt.Fprintf(&b, "- Platforms: %s\n", strings.Join(in.Platforms, ", "))
	fmt.Fprintf(&b, "- Genres: %s\n", strings.Join(in.Genres, ", "))
	fmt.Fprintf(&b, "- Duration: %s\n", in.Duration)
	fmt.Fprintf(&b, "- Language: %s (subtitles: %t, dubbing: %t)\n", in.Language, in.Subtitles, in.Dubbing)
	if len(in.ContentThemes) > 0 {
		fmt.Fprintf(&b, "- Themes: %s\n", strings.Join(in.ContentThemes, ", "))
	}
	if in.SimilarContent != "" {
		fmt.Fprintf(&b, "- Similar to: %s\n", in.SimilarContent)
	}
	b.WriteString("\nKeep the same value vocabulary as the input. ")
	b.WriteString(languageRule(lang))
	return b.String()
}

func chatSystemPrompt(persona models.Persona, contentTitle, lang string) string {
	var b strings.Builder
	b.WriteString("You are a conversational assistant about movies and series. Answer the user's questions, ")
	b.WriteString("recommend titles and discuss plots, actors and directors. Keep answers concise.\n\n")

	switch persona {
	case models.PersonaFan:
		b.WriteString("Persona: an enthusiastic fan. Be emotional, personal and subjective; share excitement and favourite moments.\n")
	default:
		b.WriteString("Persona: a film expert. Be analytical, critical, technical and formal; reference craft, context and influences.\n")
	}

	if contentTitle != "" {
		fmt.Fprintf(&b, "\nThe conversation is about %q. Focus your answer on it.\n", contentTitle)
	}
	b.WriteString(languageRule(lang))
	return b.String()
}
