// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package generator

import "google.golang.org/genai"

func stringSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func stringArraySchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Description: desc, Items: &genai.Schema{Type: genai.TypeString}}
}

var recommendationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":           stringSchema("Title of the work"),
		"year":            stringSchema("Release year"),
		"genre":           stringSchema("Main genre"),
		"platform":        stringSchema("Streaming platform"),
		"synopsis":        stringSchema("Short synopsis"),
		"mainActors":      stringArraySchema("Main cast"),
		"directLink":      stringSchema("Link to the title on the platform"),
		"confidenceScore": {Type: genai.TypeNumber, Description: "Match confidence from 0 to 100"},
		"reviews":         stringSchema("Critical summary"),
		"director":        stringSchema("Director"),
		"writer":          stringSchema("Writer"),
		"ratings":         stringSchema("Aggregate ratings"),
		"contentType":     {Type: genai.TypeString, Enum: []string{"movie", "series", "documentary"}},
		"language":        stringSchema("Original language"),
		"originCountry":   stringSchema("Country of origin"),
		"awards":          stringSchema("Notable awards"),
		"contentRating":   stringSchema("Age rating"),
		"trailerUrl":      stringSchema("Trailer URL"),
		"seasons":         stringSchema("Number of seasons, series only"),
	},
	Required: []string{
		"title", "year", "genre", "platform", "synopsis", "mainActors", "confidenceScore",
		"reviews", "director", "writer", "ratings", "contentType", "language", "originCountry",
	},
}

var recommendationListSchema = &genai.Schema{
	Type:  genai.TypeArray,
	Items: recommendationSchema,
}

var fusionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"recommendation": stringSchema("The fused fictional work, ready to show to the user"),
	},
	Required: []string{"recommendation"},
}

var chatSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"response": stringSchema("The assistant reply"),
	},
	Required: []string{"response"},
}

var adjustmentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"refinedPlatforms":     stringArraySchema("Suggested platforms"),
		"refinedGenres":        stringArraySchema("Suggested genres"),
		"refinedDuration":      stringSchema("Suggested duration"),
		"refinedLanguage":      stringSchema("Suggested language"),
		"refinedSubtitles":     {Type: genai.TypeBoolean},
		"refinedDubbing":       {Type: genai.TypeBoolean},
		"refinedContentThemes": stringArraySchema("Suggested themes"),
	},
	Required: []string{
		"refinedPlatforms", "refinedGenres", "refinedDuration", "refinedLanguage",
		"refinedSubtitles", "refinedDubbing", "refinedContentThemes",
	},
}
