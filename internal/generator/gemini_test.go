// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/tomtom215/pelixflow/internal/config"
	"github.com/tomtom215/pelixflow/internal/models"
)

// fakeModels answers GenerateContent with a canned text or error and
// records the last request.
type fakeModels struct {
	mu       sync.Mutex
	text     string
	err      error
	calls    int
	contents []*genai.Content
	cfg      *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.contents = contents
	f.cfg = cfg
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func testGemini(f *fakeModels) *Gemini {
	return newGemini(f, config.GeneratorConfig{
		Model:          "test-model",
		OutputLanguage: "English",
		Timeout:        time.Second,
	})
}

func recordsJSON(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"title":"Title %d","year":"200%d","confidenceScore":%d}`, i, i, 90-i)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestRecommendExactCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		wantLen int
		wantErr error
	}{
		{name: "six results", text: recordsJSON(6), wantLen: 6},
		{name: "empty array", text: "[]", wantLen: 0},
		{name: "five results", text: recordsJSON(5), wantErr: ErrNonConforming},
		{name: "seven results", text: recordsJSON(7), wantErr: ErrNonConforming},
		{name: "blank response", text: "  ", wantErr: ErrEmptyResult},
		{name: "null response", text: "null", wantErr: ErrEmptyResult},
		{name: "not json", text: "here are some movies", wantErr: ErrNonConforming},
		{name: "missing title", text: `[{"title":""}]`, wantErr: ErrNonConforming},
		{name: "fenced json", text: "```json\n" + recordsJSON(6) + "\n```", wantLen: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := testGemini(&fakeModels{text: tt.text})
			recs, err := g.Recommend(context.Background(), RecommendInput{ContentType: "movie"})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Recommend() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if recs == nil || len(recs) != tt.wantLen {
				t.Errorf("Recommend() len = %d, want %d", len(recs), tt.wantLen)
			}
		})
	}
}

func TestRecommendRequestShape(t *testing.T) {
	t.Parallel()

	f := &fakeModels{text: recordsJSON(6)}
	g := testGemini(f)

	_, err := g.Recommend(context.Background(), RecommendInput{
		ContentType:         "series",
		PlatformPreferences: []string{"netflix", "hbo"},
		ViewingHistory:      []string{"Dark"},
		Feedback:            "Liked: Dark",
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if f.cfg.ResponseMIMEType != "application/json" || f.cfg.ResponseSchema != recommendationListSchema {
		t.Error("structured output was not requested")
	}
	prompt := f.contents[0].Parts[0].Text
	for _, want := range []string{"netflix, hbo", "Dark", "Liked: Dark", "English", "exactly 6 series"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSearchTruncatesAndValidates(t *testing.T) {
	t.Parallel()

	g := testGemini(&fakeModels{text: recordsJSON(9)})
	recs, err := g.Search(context.Background(), "Alien", SearchByTitle)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(recs) != MaxSearchResults {
		t.Errorf("Search() len = %d, want %d", len(recs), MaxSearchResults)
	}

	f := &fakeModels{text: "[]"}
	g = testGemini(f)
	if _, err := g.Search(context.Background(), "x", SearchType("genre")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Search(bad type) error = %v, want ErrInvalidInput", err)
	}
	if _, err := g.Search(context.Background(), " ", SearchByActor); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Search(empty) error = %v, want ErrInvalidInput", err)
	}
	if f.calls != 0 {
		t.Errorf("invalid input reached the model %d times", f.calls)
	}
}

func TestFuseArity(t *testing.T) {
	t.Parallel()

	f := &fakeModels{text: `{"recommendation":"Alien Matrix: a synthetic crew wakes up"}`}
	g := testGemini(f)

	for _, titles := range [][]string{{"A"}, {"A", "B", "C", "D"}} {
		if _, err := g.Fuse(context.Background(), titles); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Fuse(%v) error = %v, want ErrInvalidInput", titles, err)
		}
	}
	if f.calls != 0 {
		t.Fatalf("invalid fusion reached the model")
	}

	got, err := g.Fuse(context.Background(), []string{"Alien", "Matrix"})
	if err != nil {
		t.Fatalf("Fuse() error = %v", err)
	}
	if !strings.HasPrefix(got, "Alien Matrix") {
		t.Errorf("Fuse() = %q", got)
	}

	f.text = `{"recommendation":""}`
	if _, err := g.Fuse(context.Background(), []string{"A", "B", "C"}); !errors.Is(err, ErrEmptyResult) {
		t.Errorf("Fuse(empty) error = %v, want ErrEmptyResult", err)
	}
}

func TestChatBuildsTurns(t *testing.T) {
	t.Parallel()

	f := &fakeModels{text: `{"response":"Try Heat."}`}
	g := testGemini(f)

	reply, err := g.Chat(context.Background(), ChatInput{
		History: []models.Message{
			{From: models.FromBot, Text: "Hi!"},
			{From: models.FromUser, Text: "Something with Pacino"},
		},
		UserInput:    "And a heist?",
		Persona:      models.PersonaFan,
		ContentTitle: "Heat",
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "Try Heat." {
		t.Errorf("Chat() = %q", reply)
	}

	if len(f.contents) != 3 {
		t.Fatalf("contents = %d turns, want 3", len(f.contents))
	}
	if f.contents[0].Role != "model" || f.contents[1].Role != "user" || f.contents[2].Role != "user" {
		t.Errorf("roles = %s,%s,%s", f.contents[0].Role, f.contents[1].Role, f.contents[2].Role)
	}
	if f.contents[2].Parts[0].Text != "And a heist?" {
		t.Errorf("last turn = %q", f.contents[2].Parts[0].Text)
	}

	system := f.cfg.SystemInstruction.Parts[0].Text
	if !strings.Contains(system, "enthusiastic fan") || !strings.Contains(system, `"Heat"`) {
		t.Errorf("system prompt = %q", system)
	}
}

func TestChatPersonaExpertDefault(t *testing.T) {
	t.Parallel()

	expert := chatSystemPrompt(models.PersonaExpert, "", "Spanish")
	if !strings.Contains(expert, "film expert") || strings.Contains(expert, "conversation is about") {
		t.Errorf("expert prompt = %q", expert)
	}
	if !strings.Contains(expert, "Spanish") {
		t.Error("expert prompt missing output language")
	}
}

func TestUpstreamError(t *testing.T) {
	t.Parallel()

	upstream := errors.New("503 unavailable")
	g := testGemini(&fakeModels{err: upstream})

	_, err := g.Mood(context.Background(), "rainy sunday")
	if !errors.Is(err, upstream) {
		t.Fatalf("Mood() error = %v, want wrapped upstream", err)
	}
	if !IsTransient(err) {
		t.Error("upstream failure should be transient")
	}
	if IsTransient(ErrEmptyResult) || IsTransient(fmt.Errorf("x: %w", ErrNonConforming)) || IsTransient(nil) {
		t.Error("bad answers should not be transient")
	}
}

func TestAdjustPreferences(t *testing.T) {
	t.Parallel()

	f := &fakeModels{text: `{"refinedPlatforms":["netflix"],"refinedGenres":["drama"],"refinedDuration":"long",
		"refinedLanguage":"en","refinedSubtitles":true,"refinedDubbing":false,"refinedContentThemes":["family"]}`}
	g := testGemini(f)

	adj, err := g.AdjustPreferences(context.Background(), AdjustInput{Platforms: []string{"netflix"}, Genres: []string{"drama"}})
	if err != nil {
		t.Fatalf("AdjustPreferences() error = %v", err)
	}
	if adj.RefinedDuration != "long" || !adj.RefinedSubtitles || len(adj.RefinedContentThemes) != 1 {
		t.Errorf("adjustment = %+v", adj)
	}
}

func TestRateLimiterHonorsContext(t *testing.T) {
	t.Parallel()

	f := &fakeModels{text: recordsJSON(6)}
	g := newGemini(f, config.GeneratorConfig{Model: "m", Timeout: time.Second, RequestsPerSecond: 0.001, Burst: 1})

	if _, err := g.Mood(context.Background(), "happy"); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.Mood(ctx, "happy"); err == nil {
		t.Fatal("second call should be throttled")
	}
	if f.calls != 1 {
		t.Errorf("model calls = %d, want 1", f.calls)
	}
}

func TestResponseTextSkipsThoughts(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "thinking...", Thought: true},
			{Text: `{"response":`},
			{Text: `"ok"}`},
		}},
	}}}
	if got := responseText(resp); got != `{"response":"ok"}` {
		t.Errorf("responseText() = %q", got)
	}
	if responseText(nil) != "" || responseText(&genai.GenerateContentResponse{}) != "" {
		t.Error("empty responses should yield empty text")
	}
}
