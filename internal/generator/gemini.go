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
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/tomtom215/pelixflow/internal/config"
	"github.com/tomtom215/pelixflow/internal/logging"
	"github.com/tomtom215/pelixflow/internal/metrics"
	"github.com/tomtom215/pelixflow/internal/models"
)

// contentGenerator is the part of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements Generator on the Gemini API.
type Gemini struct {
	models   contentGenerator
	model    string
	language string
	timeout  time.Duration
	limiter  *rate.Limiter
}

// NewGemini creates a Gemini API client from cfg.
func NewGemini(ctx context.Context, cfg config.GeneratorConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	logging.Info().
		Str("model", cfg.Model).
		Dur("timeout", cfg.Timeout).
		Float64("rps", cfg.RequestsPerSecond).
		Msg("Generator client created")

	return newGemini(client.Models, cfg), nil
}

func newGemini(m contentGenerator, cfg config.GeneratorConfig) *Gemini {
	g := &Gemini{
		models:   m,
		model:    cfg.Model,
		language: cfg.OutputLanguage,
		timeout:  cfg.Timeout,
	}
	if g.language == "" {
		g.language = "Spanish"
	}
	if cfg.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}
	return g
}

// Recommend implements Generator.
func (g *Gemini) Recommend(ctx context.Context, in RecommendInput) ([]models.Recommendation, error) {
	return g.recommendations(ctx, FlowRecommend, recommendPrompt(in, g.language), RecommendationCount, true)
}

// Mood implements Generator.
func (g *Gemini) Mood(ctx context.Context, mood string) ([]models.Recommendation, error) {
	if strings.TrimSpace(mood) == "" {
		return nil, fmt.Errorf("%w: empty mood", ErrInvalidInput)
	}
	return g.recommendations(ctx, FlowMood, moodPrompt(mood, g.language), RecommendationCount, true)
}

// Search implements Generator. Results past MaxSearchResults are dropped.
func (g *Gemini) Search(ctx context.Context, query string, searchType SearchType) ([]models.Recommendation, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidInput)
	}
	if !searchType.Valid() {
		return nil, fmt.Errorf("%w: search type %q", ErrInvalidInput, searchType)
	}
	return g.recommendations(ctx, FlowSearch, searchPrompt(query, searchType, g.language), MaxSearchResults, false)
}

// Fuse implements Generator.
func (g *Gemini) Fuse(ctx context.Context, titles []string) (string, error) {
	if len(titles) < 2 || len(titles) > 3 {
		return "", fmt.Errorf("%w: fusion needs 2 or 3 titles, got %d", ErrInvalidInput, len(titles))
	}
	var out struct {
		Recommendation string `json:"recommendation"`
	}
	err := g.generateJSON(ctx, FlowFuse, []*genai.Content{
		genai.NewContentFromText(fusionPrompt(titles, g.language), genai.RoleUser),
	}, nil, fusionSchema, &out)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Recommendation) == "" {
		return "", ErrEmptyResult
	}
	return out.Recommendation, nil
}

// Chat implements Generator. History becomes alternating user and model
// turns followed by the new input.
func (g *Gemini) Chat(ctx context.Context, in ChatInput) (string, error) {
	if strings.TrimSpace(in.UserInput) == "" {
		return "", fmt.Errorf("%w: empty message", ErrInvalidInput)
	}

	contents := make([]*genai.Content, 0, len(in.History)+1)
	for _, m := range in.History {
		if m.From == models.FromBot {
			contents = append(contents, genai.NewContentFromText(m.Text, genai.RoleModel))
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Text, genai.RoleUser))
	}
	contents = append(contents, genai.NewContentFromText(in.UserInput, genai.RoleUser))

	system := genai.NewContentFromText(chatSystemPrompt(in.Persona, in.ContentTitle, g.language), genai.RoleUser)

	var out struct {
		Response string `json:"response"`
	}
	if err := g.generateJSON(ctx, FlowChat, contents, system, chatSchema, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", ErrEmptyResult
	}
	return out.Response, nil
}

// AdjustPreferences implements Generator.
func (g *Gemini) AdjustPreferences(ctx context.Context, in AdjustInput) (*Adjustment, error) {
	var out Adjustment
	err := g.generateJSON(ctx, FlowAdjust, []*genai.Content{
		genai.NewContentFromText(adjustPrompt(in, g.language), genai.RoleUser),
	}, nil, adjustmentSchema, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// recommendations runs a list-producing flow. An empty array is a valid
// answer and returns an empty slice with a nil error.
func (g *Gemini) recommendations(ctx context.Context, flow, prompt string, limit int, exact bool) ([]models.Recommendation, error) {
	var recs []models.Recommendation
	err := g.generateJSON(ctx, flow, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, nil, recommendationListSchema, &recs)
	if err != nil {
		return nil, err
	}

	if len(recs) == 0 {
		return []models.Recommendation{}, nil
	}
	for i := range recs {
		if strings.TrimSpace(recs[i].Title) == "" {
			return nil, fmt.Errorf("%w: %s result %d has no title", ErrNonConforming, flow, i)
		}
	}
	if exact && len(recs) != limit {
		return nil, fmt.Errorf("%w: %s returned %d results, want %d", ErrNonConforming, flow, len(recs), limit)
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (g *Gemini) generateJSON(ctx context.Context, flow string, contents []*genai.Content, system *genai.Content, schema *genai.Schema, out any) error {
	text, err := g.generate(ctx, flow, contents, &genai.GenerateContentConfig{
		SystemInstruction: system,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(stripCodeFence(text)), out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNonConforming, flow, err)
	}
	return nil
}

func (g *Gemini) generate(ctx context.Context, flow string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	start := time.Now()
	log := logging.Ctx(ctx).With().Str("flow", flow).Logger()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			metrics.RecordGeneratorCall(flow, "throttled", time.Since(start))
			return "", fmt.Errorf("%s: rate limit wait: %w", flow, err)
		}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		metrics.RecordGeneratorCall(flow, "error", time.Since(start))
		log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("Generator call failed")
		return "", fmt.Errorf("%s: generate content: %w", flow, err)
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" || text == "null" {
		metrics.RecordGeneratorCall(flow, "empty", time.Since(start))
		log.Warn().Msg("Generator returned an empty response")
		return "", ErrEmptyResult
	}

	metrics.RecordGeneratorCall(flow, "success", time.Since(start))
	log.Debug().Dur("elapsed", time.Since(start)).Int("bytes", len(text)).Msg("Generator call completed")
	return text, nil
}

// responseText concatenates the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// IsTransient reports whether err is an outage rather than a bad answer.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrEmptyResult) &&
		!errors.Is(err, ErrNonConforming) &&
		!errors.Is(err, ErrInvalidInput) &&
		!errors.Is(err, context.Canceled)
}
