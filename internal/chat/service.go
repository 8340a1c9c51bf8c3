// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

// Package chat owns one user's chat threads and the active-thread pointer,
// and drives the conversational and fusion generator flows.
//
// Every chat carries a request token that is issued when the chat is
// created and revoked when it is deleted. A generator call captures the
// token of the chat it was issued for and its reply is applied only while
// that token is still current, so deleting or switching chats while a
// reply is pending never touches another chat's messages. At most one
// conversational send is in flight per chat.
//
// Like the recommendation state, the chat projection is authoritative for
// the session and every mutation writes the whole chats field as one
// merge-patch. Last write wins across devices.
package chat

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
	"github.com/tomtom215/pelixflow/internal/metrics"
	"github.com/tomtom215/pelixflow/internal/models"
)

// Fixed texts.
const (
	DefaultTitle   = "New Chat"
	Greeting       = "Hi! I'm your movie assistant. What would you like to talk about today?"
	Apology        = "Sorry, I had a problem processing your message."
	FusionFailure  = "Sorry, I couldn't create a fusion with those titles."
	fusionTitleFmt = "Fusion: %s"
	fusingFmt      = "Fusing %s..."
)

var (
	// ErrNoActiveChat is returned when a send needs an active chat and
	// there is none.
	ErrNoActiveChat = errors.New("no active chat")

	// ErrSendInFlight is returned when the chat already waits for a reply.
	ErrSendInFlight = errors.New("a message is already being sent in this chat")

	// ErrChatNotFound is returned for an unknown chat id.
	ErrChatNotFound = errors.New("chat not found")

	// ErrChatDeleted means the target chat was deleted while its reply was
	// pending. The reply was discarded.
	ErrChatDeleted = errors.New("chat was deleted before the reply arrived")

	// ErrEmptyMessage rejects a blank user message.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrInvalidPersona rejects an unknown persona tag.
	ErrInvalidPersona = errors.New("persona must be expert or fan")

	// ErrGeneration wraps a generator failure. The fixed apology or fusion
	// failure text was still appended.
	ErrGeneration = errors.New("chat generation failed")

	// ErrPersist wraps a failed document write. The local change is kept.
	ErrPersist = errors.New("failed to persist chats")
)

// Store is the merge-patch half of the document store.
type Store interface {
	MergePatch(ctx context.Context, key string, patch models.Patch) error
}

// Generator is the part of the generator this service calls.
type Generator interface {
	Chat(ctx context.Context, in generator.ChatInput) (string, error)
	Fuse(ctx context.Context, titles []string) (string, error)
}

// Service is one user's ChatService.
type Service struct {
	store  Store
	gen    Generator
	key    string
	logger zerolog.Logger

	mu       sync.Mutex
	chats    []models.Chat
	activeID string

	// tokens holds the live request token of every chat; inflight marks
	// chats with an outstanding send.
	tokens    map[string]uint64
	nextToken uint64
	inflight  map[string]bool

	newID func() string
	now   func() time.Time
}

// NewService builds the service from the chats read at session start. The
// most recently created chat becomes active.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(store Store, gen Generator, key string, chats []models.Chat, logger zerolog.Logger) *Service {
	s := &Service{
		store:    store,
		gen:      gen,
		key:      key,
		logger:   logger.With().Str("component", "chat").Logger(),
		chats:    models.CloneChats(chats),
		tokens:   make(map[string]uint64, len(chats)),
		inflight: make(map[string]bool),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, c := range s.chats {
		s.issueToken(c.ID)
	}
	s.activeID = s.newestID()
	return s
}

// StartNewChat creates a chat, makes it active and returns its id. A blank
// title becomes DefaultTitle. Nil messages become the greeting; a non-nil
// empty slice starts the chat empty.
func (s *Service) StartNewChat(ctx context.Context, title string, messages []models.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.startLocked(title, messages)
	return id, s.persist(ctx)
}

// EnsureChat starts a default chat when the user has none.
func (s *Service) EnsureChat(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.chats) > 0 {
		return nil
	}
	s.startLocked("", nil)
	return s.persist(ctx)
}

func (s *Service) startLocked(title string, messages []models.Message) string {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	if messages == nil {
		messages = []models.Message{{From: models.FromBot, Text: Greeting}}
	}

	c := models.Chat{
		ID:        s.newID(),
		Title:     title,
		Messages:  append([]models.Message{}, messages...),
		CreatedAt: s.now().UTC(),
	}
	chats := make([]models.Chat, 0, len(s.chats)+1)
	chats = append(chats, c)
	s.chats = append(chats, s.chats...)
	s.issueToken(c.ID)
	s.activeID = c.ID
	return c.ID
}

// DeleteChat removes a chat and revokes its token. If it was active the
// newest survivor becomes active.
func (s *Service) DeleteChat(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]models.Chat, 0, len(s.chats))
	for _, c := range s.chats {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.chats = kept
	delete(s.tokens, id)
	delete(s.inflight, id)

	if s.activeID == id {
		s.activeID = s.newestID()
	}
	return s.persist(ctx)
}

// DeleteAllChats removes every chat and clears the active pointer.
func (s *Service) DeleteAllChats(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chats = []models.Chat{}
	s.tokens = make(map[string]uint64)
	s.inflight = make(map[string]bool)
	s.activeID = ""
	return s.persist(ctx)
}

// SetActiveChatID moves the active pointer. Nothing is written. An id that
// does not exist resolves to no active chat.
func (s *Service) SetActiveChatID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = id
}

// ActiveChatID returns the active chat id, or "" when the pointer does not
// reference an existing chat.
func (s *Service) ActiveChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveActive()
}

// ActiveChat returns a copy of the active chat.
func (s *Service) ActiveChat() (models.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(s.resolveActive()); i >= 0 {
		return s.chats[i].Clone(), true
	}
	return models.Chat{}, false
}

// Chats returns copies of all chats, newest first.
func (s *Service) Chats() []models.Chat {
	s.mu.Lock()
	out := models.CloneChats(s.chats)
	s.mu.Unlock()

	models.SortChatsNewestFirst(out)
	return out
}

// Chat returns a copy of one chat.
func (s *Service) Chat(id string) (models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(id); i >= 0 {
		return s.chats[i].Clone(), nil
	}
	return models.Chat{}, ErrChatNotFound
}

// SendMessage appends input to the active chat, asks the generator for a
// reply and appends it. The generator sees the chat's messages as they
// were before input was added. On failure the fixed apology is appended
// instead and the error wraps ErrGeneration. It returns the id of the chat
// the message went to and the appended bot turn.
func (s *Service) SendMessage(ctx context.Context, input string, persona models.Persona, contentTitle string) (string, models.Message, error) {
	if strings.TrimSpace(input) == "" {
		return "", models.Message{}, ErrEmptyMessage
	}
	if !persona.Valid() {
		return "", models.Message{}, ErrInvalidPersona
	}

	s.mu.Lock()
	id := s.resolveActive()
	if id == "" {
		s.mu.Unlock()
		return "", models.Message{}, ErrNoActiveChat
	}
	if s.inflight[id] {
		s.mu.Unlock()
		return id, models.Message{}, ErrSendInFlight
	}

	token := s.tokens[id]
	history := s.chats[s.index(id)].Clone().Messages
	s.appendLocked(id, models.Message{From: models.FromUser, Text: input})
	s.inflight[id] = true
	userErr := s.persist(ctx)
	s.mu.Unlock()

	// The reply is applied even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	text, genErr := s.gen.Chat(ctx, generator.ChatInput{
		History:      history,
		UserInput:    input,
		Persona:      persona,
		ContentTitle: contentTitle,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens[id] != token {
		metrics.StaleChatReplies.WithLabelValues("message").Inc()
		s.logger.Info().Str("chat_id", id).Msg("Dropping reply for deleted chat")
		return id, models.Message{}, ErrChatDeleted
	}
	delete(s.inflight, id)

	reply := models.Message{From: models.FromBot, Text: text}
	if genErr != nil {
		s.logger.Warn().Err(genErr).Str("chat_id", id).Msg("Chat generation failed")
		reply.Text = Apology
		genErr = fmt.Errorf("%w: %w", ErrGeneration, genErr)
	}
	s.appendLocked(id, reply)
	return id, reply, errors.Join(genErr, userErr, s.persist(ctx))
}

// CreateFusion asks the generator to fuse titles into one fictional work
// and posts it to the active chat, creating a chat when there is none.
// Arity is the caller's responsibility. A placeholder message is shown
// while the call runs and removed by exact text afterwards. On success the
// chat is renamed after the fused titles. It returns the chat id and the
// posted bot message.
func (s *Service) CreateFusion(ctx context.Context, titles []string) (string, models.Message, error) {
	fusionTitle := fmt.Sprintf(fusionTitleFmt, strings.Join(titles, " + "))
	placeholder := fmt.Sprintf(fusingFmt, strings.Join(titles, ", "))

	s.mu.Lock()
	id := s.resolveActive()
	if id == "" {
		id = s.startLocked(fusionTitle, []models.Message{})
	}
	token := s.tokens[id]
	s.appendLocked(id, models.Message{From: models.FromBot, Text: placeholder})
	placeErr := s.persist(ctx)
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	text, genErr := s.gen.Fuse(ctx, titles)

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 || s.tokens[id] != token {
		metrics.StaleChatReplies.WithLabelValues("fusion").Inc()
		s.logger.Info().Str("chat_id", id).Msg("Dropping fusion for deleted chat")
		return id, models.Message{}, ErrChatDeleted
	}

	c := s.chats[i].Clone()
	kept := make([]models.Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.Text != placeholder {
			kept = append(kept, m)
		}
	}

	reply := models.Message{From: models.FromBot, Text: text}
	if genErr != nil {
		s.logger.Warn().Err(genErr).Str("chat_id", id).Strs("titles", titles).Msg("Fusion failed")
		reply.Text = FusionFailure
		genErr = fmt.Errorf("%w: %w", ErrGeneration, genErr)
	} else {
		c.Title = fusionTitle
	}
	c.Messages = append(kept, reply)
	s.replaceLocked(i, c)

	return id, reply, errors.Join(genErr, placeErr, s.persist(ctx))
}

func (s *Service) issueToken(id string) {
	s.nextToken++
	s.tokens[id] = s.nextToken
}

func (s *Service) resolveActive() string {
	if s.activeID != "" && s.index(s.activeID) >= 0 {
		return s.activeID
	}
	return ""
}

func (s *Service) index(id string) int {
	for i := range s.chats {
		if s.chats[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) newestID() string {
	newest := -1
	for i := range s.chats {
		if newest < 0 || s.chats[i].CreatedAt.After(s.chats[newest].CreatedAt) {
			newest = i
		}
	}
	if newest < 0 {
		return ""
	}
	return s.chats[newest].ID
}

// appendLocked copies the chat slice before changing it so snapshots
// handed out earlier stay untouched.
func (s *Service) appendLocked(id string, m models.Message) {
	i := s.index(id)
	if i < 0 {
		return
	}
	c := s.chats[i].Clone()
	c.Messages = append(c.Messages, m)
	s.replaceLocked(i, c)
}

func (s *Service) replaceLocked(i int, c models.Chat) {
	chats := make([]models.Chat, len(s.chats))
	copy(chats, s.chats)
	chats[i] = c
	s.chats = chats
}

// persist must be called with s.mu held.
func (s *Service) persist(ctx context.Context) error {
	if err := s.store.MergePatch(ctx, s.key, models.Patch{models.FieldChats: s.chats}); err != nil {
		s.logger.Warn().Err(err).Str("user", s.key).Msg("Keeping local chat change after failed write")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
