// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/pelixflow/internal/generator"
	"github.com/tomtom215/pelixflow/internal/models"
)

var (
	// ErrNoRecommendations is returned when the generator produced an empty
	// result. Recommendations were reset and the preferences saved.
	ErrNoRecommendations = errors.New("no recommendations found")

	// ErrGeneration wraps any generator failure.
	ErrGeneration = errors.New("recommendation generation failed")

	// ErrEmptyListName rejects a list whose name is blank after trimming.
	ErrEmptyListName = errors.New("list name must not be empty")

	// ErrAlreadyInList reports that the title is already in the list. It is
	// informational: nothing was changed or written.
	ErrAlreadyInList = errors.New("title already in list")

	// ErrListNotFound is returned by List for an unknown id.
	ErrListNotFound = errors.New("list not found")

	// ErrPersist wraps a failed document write. The local change is kept.
	ErrPersist = errors.New("failed to persist change")
)

// Store is the merge-patch half of the document store.
type Store interface {
	MergePatch(ctx context.Context, key string, patch models.Patch) error
}

// Generator is the part of the generator this service calls.
type Generator interface {
	Recommend(ctx context.Context, in generator.RecommendInput) ([]models.Recommendation, error)
	Mood(ctx context.Context, mood string) ([]models.Recommendation, error)
	Search(ctx context.Context, query string, searchType generator.SearchType) ([]models.Recommendation, error)
	AdjustPreferences(ctx context.Context, in generator.AdjustInput) (*generator.Adjustment, error)
}

// State is the persisted part of the projection, as read at session start.
type State struct {
	Recommendations []models.Recommendation
	Favorites       []models.Recommendation
	History         []models.Recommendation
	Lists           []models.CustomList
	Preferences     *models.Preferences
}

// StateFromDocument extracts the recommendation state from a user document.
func StateFromDocument(doc *models.UserDocument) State {
	if doc == nil {
		return State{}
	}
	return State{
		Recommendations: doc.Recommendations,
		Favorites:       doc.Favorites,
		History:         doc.History,
		Lists:           doc.Lists,
		Preferences:     doc.Preferences,
	}
}

// Service is one user's RecommendationService.
type Service struct {
	store  Store
	gen    Generator
	key    string
	logger zerolog.Logger

	mu              sync.Mutex
	recommendations []models.Recommendation
	favorites       []models.Recommendation
	history         []models.Recommendation
	feedback        []models.Feedback
	lists           []models.CustomList
	prefs           *models.Preferences

	newID func() string
	now   func() time.Time
}

// NewService builds the service for the user document key from its
// initial state. Collections are deduplicated by title on load.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(store Store, gen Generator, key string, initial State, logger zerolog.Logger) *Service {
	lists := models.CloneLists(initial.Lists)
	for i := range lists {
		lists[i].Items = models.DedupeByTitle(lists[i].Items)
	}

	s := &Service{
		store:           store,
		gen:             gen,
		key:             key,
		logger:          logger.With().Str("component", "recommend").Logger(),
		recommendations: models.DedupeByTitle(initial.Recommendations),
		favorites:       models.DedupeByTitle(initial.Favorites),
		history:         models.DedupeByTitle(initial.History),
		feedback:        []models.Feedback{},
		lists:           lists,
		newID:           uuid.NewString,
		now:             time.Now,
	}
	if initial.Preferences != nil {
		p := initial.Preferences.Normalized()
		s.prefs = &p
	}
	return s
}

// GetNewRecommendations generates a fresh recommendation set from prefs,
// the viewing history and the session feedback.
//
// On success the set replaces the current one and is saved together with
// prefs. An empty result, whether an empty list or generator.ErrEmptyResult,
// saves an empty set plus prefs and returns ErrNoRecommendations. A failed
// generation saves an empty set, leaves the saved preferences alone and
// returns an error wrapping ErrGeneration. Stale suggestions are never kept
// on either failure path.
func (s *Service) GetNewRecommendations(ctx context.Context, prefs models.Preferences) ([]models.Recommendation, error) {
	prefs = prefs.Normalized()

	s.mu.Lock()
	in := buildInput(prefs, s.history, s.feedback)
	s.mu.Unlock()

	// The result is applied even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	recs, genErr := s.gen.Recommend(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()

	if genErr != nil && !errors.Is(genErr, generator.ErrEmptyResult) {
		s.logger.Warn().Err(genErr).Str("user", s.key).Msg("Recommendation generation failed")
		s.recommendations = []models.Recommendation{}
		perr := s.persist(ctx, models.Patch{models.FieldRecommendations: s.recommendations})
		return nil, errors.Join(fmt.Errorf("%w: %w", ErrGeneration, genErr), perr)
	}

	s.recommendations = models.DedupeByTitle(recs)
	s.prefs = &prefs
	perr := s.persist(ctx, models.Patch{
		models.FieldRecommendations: s.recommendations,
		models.FieldPreferences:     prefs,
	})

	out := models.CloneRecommendations(s.recommendations)
	if len(out) == 0 {
		return out, errors.Join(ErrNoRecommendations, perr)
	}
	return out, perr
}

// ClearRecommendations empties the current recommendation set.
func (s *Service) ClearRecommendations(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recommendations = []models.Recommendation{}
	return s.persist(ctx, models.Patch{models.FieldRecommendations: s.recommendations})
}

// ToggleFavorite removes rec from favorites if its title is present and
// prepends it otherwise. It reports whether rec is a favorite afterwards.
func (s *Service) ToggleFavorite(ctx context.Context, rec models.Recommendation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorite := !models.ContainsTitle(s.favorites, rec.Title)
	if favorite {
		s.favorites = models.Prepend(s.favorites, rec)
	} else {
		s.favorites = models.WithoutTitle(s.favorites, rec.Title)
	}
	return favorite, s.persist(ctx, models.Patch{models.FieldFavorites: s.favorites})
}

// IsFavorite reports whether a favorite with title exists.
func (s *Service) IsFavorite(title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ContainsTitle(s.favorites, title)
}

// AddToHistory puts rec at the front of the history, dropping any older
// entry with the same title.
func (s *Service) AddToHistory(ctx context.Context, rec models.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = models.MoveToFront(s.history, rec)
	return s.persist(ctx, models.Patch{models.FieldHistory: s.history})
}

// AddFeedback records a like or dislike for rec, replacing earlier feedback
// on the same title. Feedback is never persisted.
func (s *Service) AddFeedback(rec models.Recommendation, liked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rest := make([]models.Feedback, 0, len(s.feedback)+1)
	rest = append(rest, models.Feedback{Recommendation: rec, Liked: liked})
	for _, f := range s.feedback {
		if f.Recommendation.Title != rec.Title {
			rest = append(rest, f)
		}
	}
	s.feedback = rest
}

// CreateList creates an empty list named name.
func (s *Service) CreateList(ctx context.Context, name string) (models.CustomList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.CustomList{}, ErrEmptyListName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := models.CustomList{
		ID:        s.newID(),
		Name:      name,
		Items:     []models.Recommendation{},
		CreatedAt: s.now().UTC(),
	}
	s.lists = append(models.CloneLists(s.lists), list)
	return list.Clone(), s.persistLists(ctx)
}

// DeleteList removes the list with id. Unknown ids are not an error.
func (s *Service) DeleteList(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]models.CustomList, 0, len(s.lists))
	for _, l := range s.lists {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	s.lists = kept
	return s.persistLists(ctx)
}

// AddToList prepends rec to the list with id. If the list already holds
// the title it returns ErrAlreadyInList without writing. A missing list is
// a no-op.
func (s *Service) AddToList(ctx context.Context, id string, rec models.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.listIndex(id)
	if i < 0 {
		return nil
	}
	if models.ContainsTitle(s.lists[i].Items, rec.Title) {
		return ErrAlreadyInList
	}

	lists := models.CloneLists(s.lists)
	lists[i].Items = models.Prepend(lists[i].Items, rec)
	s.lists = lists
	return s.persistLists(ctx)
}

// RemoveFromList drops title from the list with id and always writes the
// lists field.
func (s *Service) RemoveFromList(ctx context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.listIndex(id); i >= 0 {
		lists := models.CloneLists(s.lists)
		lists[i].Items = models.WithoutTitle(lists[i].Items, title)
		s.lists = lists
	}
	return s.persistLists(ctx)
}

// ExploreMood returns mood-based suggestions. They are not stored. An empty
// answer is an empty list, not an error.
func (s *Service) ExploreMood(ctx context.Context, mood string) ([]models.Recommendation, error) {
	recs, err := s.gen.Mood(ctx, strings.TrimSpace(mood))
	if err != nil && !errors.Is(err, generator.ErrEmptyResult) {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return models.DedupeByTitle(recs), nil
}

// Search looks titles up by name or actor. Results are not stored. No match
// is an empty list.
func (s *Service) Search(ctx context.Context, query string, searchType generator.SearchType) ([]models.Recommendation, error) {
	recs, err := s.gen.Search(ctx, strings.TrimSpace(query), searchType)
	if err != nil && !errors.Is(err, generator.ErrEmptyResult) {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return models.DedupeByTitle(recs), nil
}

// AdjustPreferences asks the generator to refine prefs. Nothing is stored.
func (s *Service) AdjustPreferences(ctx context.Context, prefs models.Preferences) (*generator.Adjustment, error) {
	themes := prefs.ContentThemes
	if themes == nil {
		themes = []string{}
	}
	adj, err := s.gen.AdjustPreferences(ctx, generator.AdjustInput{
		Platforms:      prefs.Platforms,
		Genres:         prefs.Genres,
		Duration:       prefs.Duration,
		Language:       prefs.Language,
		Subtitles:      prefs.Subtitles,
		Dubbing:        prefs.Dubbing,
		ContentThemes:  themes,
		SimilarContent: prefs.SimilarContent,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return adj, nil
}

// Recommendations returns a copy of the current recommendation set.
func (s *Service) Recommendations() []models.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneRecommendations(s.recommendations)
}

// Favorites returns a copy of the favorites, most recent first.
func (s *Service) Favorites() []models.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneRecommendations(s.favorites)
}

// History returns a copy of the viewing history, most recent first.
func (s *Service) History() []models.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneRecommendations(s.history)
}

// Feedback returns a copy of the session feedback, most recent first.
func (s *Service) Feedback() []models.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Feedback, len(s.feedback))
	copy(out, s.feedback)
	return out
}

// Lists returns a copy of the custom lists, newest first.
func (s *Service) Lists() []models.CustomList {
	s.mu.Lock()
	out := models.CloneLists(s.lists)
	s.mu.Unlock()

	models.SortListsNewestFirst(out)
	return out
}

// List returns one list or ErrListNotFound.
func (s *Service) List(id string) (models.CustomList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.listIndex(id); i >= 0 {
		return s.lists[i].Clone(), nil
	}
	return models.CustomList{}, ErrListNotFound
}

// Preferences returns the last submitted preferences, or nil.
func (s *Service) Preferences() *models.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs == nil {
		return nil
	}
	p := s.prefs.Normalized()
	return &p
}

func (s *Service) listIndex(id string) int {
	for i := range s.lists {
		if s.lists[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) persistLists(ctx context.Context) error {
	return s.persist(ctx, models.Patch{models.FieldLists: s.lists})
}

// persist must be called with s.mu held.
func (s *Service) persist(ctx context.Context, patch models.Patch) error {
	if err := s.store.MergePatch(ctx, s.key, patch); err != nil {
		s.logger.Warn().Err(err).Str("user", s.key).Strs("fields", patch.Fields()).
			Msg("Keeping local change after failed write")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
