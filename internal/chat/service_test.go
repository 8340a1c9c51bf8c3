// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/pelixflow/internal/generator"
	"github.com/tomtom215/pelixflow/internal/models"
)

type memStore struct {
	mu     sync.Mutex
	writes int
	last   []models.Chat
	err    error
}

func (m *memStore) MergePatch(_ context.Context, _ string, patch models.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if chats, ok := patch[models.FieldChats].([]models.Chat); ok {
		m.last = models.CloneChats(chats)
	}
	return m.err
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// fakeGenerator answers immediately unless gate is set, in which case each
// call waits for a value on gate after signalling started.
type fakeGenerator struct {
	reply   string
	err     error
	gate    chan struct{}
	started chan struct{}

	mu       sync.Mutex
	lastChat generator.ChatInput
}

func (f *fakeGenerator) wait() {
	if f.gate != nil {
		f.started <- struct{}{}
		<-f.gate
	}
}

func (f *fakeGenerator) Chat(_ context.Context, in generator.ChatInput) (string, error) {
	f.mu.Lock()
	f.lastChat = in
	f.mu.Unlock()
	f.wait()
	return f.reply, f.err
}

func (f *fakeGenerator) Fuse(context.Context, []string) (string, error) {
	f.wait()
	return f.reply, f.err
}

func gated(reply string) *fakeGenerator {
	return &fakeGenerator{reply: reply, gate: make(chan struct{}), started: make(chan struct{}, 1)}
}

// newTestService returns a service whose clock advances one second per
// created chat.
func newTestService(t *testing.T, gen *fakeGenerator) (*Service, *memStore) {
	t.Helper()
	st := &memStore{}
	if gen == nil {
		gen = &fakeGenerator{reply: "ok"}
	}
	s := NewService(st, gen, "user-1", nil, zerolog.Nop())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	n := 0
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return s, st
}

func TestStartNewChatDefaults(t *testing.T) {
	t.Parallel()

	s, st := newTestService(t, nil)
	ctx := context.Background()

	id, err := s.StartNewChat(ctx, "", nil)
	if err != nil {
		t.Fatalf("StartNewChat() error = %v", err)
	}
	c, err := s.Chat(id)
	if err != nil {
		t.Fatal(err)
	}
	if c.Title != DefaultTitle {
		t.Errorf("title = %q", c.Title)
	}
	if len(c.Messages) != 1 || c.Messages[0].From != models.FromBot || c.Messages[0].Text != Greeting {
		t.Errorf("messages = %+v, want greeting", c.Messages)
	}
	if s.ActiveChatID() != id {
		t.Error("new chat is not active")
	}
	if st.writeCount() != 1 {
		t.Errorf("writes = %d, want 1", st.writeCount())
	}

	empty, _ := s.StartNewChat(ctx, "About Heat", []models.Message{})
	if c, _ := s.Chat(empty); len(c.Messages) != 0 || c.Title != "About Heat" {
		t.Errorf("chat = %+v, want empty titled chat", c)
	}
	if chats := s.Chats(); chats[0].ID != empty {
		t.Error("chats are not newest first")
	}
}

func TestDeleteOnlyChatClearsActive(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t, nil)
	ctx := context.Background()

	id, _ := s.StartNewChat(ctx, "", nil)
	if err := s.DeleteChat(ctx, id); err != nil {
		t.Fatal(err)
	}
	if s.ActiveChatID() != "" {
		t.Errorf("active = %q, want none", s.ActiveChatID())
	}
	if len(s.Chats()) != 0 {
		t.Error("chats not empty")
	}
}

func TestDeleteActiveRepointsToNewest(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t, nil)
	ctx := context.Background()

	oldest, _ := s.StartNewChat(ctx, "one", nil)
	middle, _ := s.StartNewChat(ctx, "two", nil)
	newest, _ := s.StartNewChat(ctx, "three", nil)

	s.SetActiveChatID(middle)
	if err := s.DeleteChat(ctx, middle); err != nil {
		t.Fatal(err)
	}
	if got := s.ActiveChatID(); got != newest {
		t.Errorf("active = %q, want newest %q", got, newest)
	}

	s.SetActiveChatID(oldest)
	_ = s.DeleteChat(ctx, newest)
	if got := s.ActiveChatID(); got != oldest {
		t.Error("deleting an inactive chat moved the pointer")
	}
}

func TestSetActiveUnknownResolvesToNone(t *testing.T) {
	t.Parallel()

	s, st := newTestService(t, nil)
	_, _ = s.StartNewChat(context.Background(), "", nil)
	writes := st.writeCount()

	s.SetActiveChatID("missing")
	if s.ActiveChatID() != "" {
		t.Error("unknown id should resolve to no active chat")
	}
	if _, ok := s.ActiveChat(); ok {
		t.Error("ActiveChat() found a chat for an unknown id")
	}
	if st.writeCount() != writes {
		t.Error("SetActiveChatID wrote to the store")
	}
	if _, _, err := s.SendMessage(context.Background(), "hi", models.PersonaFan, ""); !errors.Is(err, ErrNoActiveChat) {
		t.Errorf("SendMessage() error = %v, want ErrNoActiveChat", err)
	}
}

func TestDeleteAllChats(t *testing.T) {
	t.Parallel()

	s, st := newTestService(t, nil)
	ctx := context.Background()
	_, _ = s.StartNewChat(ctx, "a", nil)
	_, _ = s.StartNewChat(ctx, "b", nil)

	if err := s.DeleteAllChats(ctx); err != nil {
		t.Fatal(err)
	}
	if len(s.Chats()) != 0 || s.ActiveChatID() != "" {
		t.Error("DeleteAllChats left state behind")
	}
	if st.last == nil || len(st.last) != 0 {
		t.Errorf("persisted chats = %v, want empty array", st.last)
	}
}

func TestSendMessageSuccess(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "Watch Heat."}
	s, st := newTestService(t, gen)
	ctx := context.Background()
	id, _ := s.StartNewChat(ctx, "", nil)

	chatID, reply, err := s.SendMessage(ctx, "Something with Pacino", models.PersonaExpert, "Heat")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if chatID != id {
		t.Errorf("chat id = %q, want %q", chatID, id)
	}
	if reply.From != models.FromBot || reply.Text != "Watch Heat." {
		t.Errorf("reply = %+v", reply)
	}

	c, _ := s.Chat(id)
	if len(c.Messages) != 3 {
		t.Fatalf("messages = %d, want greeting, user, bot", len(c.Messages))
	}
	if c.Messages[1].From != models.FromUser || c.Messages[1].Text != "Something with Pacino" {
		t.Errorf("user turn = %+v", c.Messages[1])
	}

	in := gen.lastChat
	if len(in.History) != 1 || in.History[0].Text != Greeting {
		t.Errorf("history sent = %+v, want only the greeting", in.History)
	}
	if in.UserInput != "Something with Pacino" || in.Persona != models.PersonaExpert || in.ContentTitle != "Heat" {
		t.Errorf("chat input = %+v", in)
	}
	if len(st.last) != 1 || len(st.last[0].Messages) != 3 {
		t.Error("final chats were not persisted")
	}
}

func TestSendMessageFailureAppendsApology(t *testing.T) {
	t.Parallel()

	upstream := errors.New("quota exceeded")
	s, _ := newTestService(t, &fakeGenerator{err: upstream})
	ctx := context.Background()
	id, _ := s.StartNewChat(ctx, "", nil)

	_, reply, err := s.SendMessage(ctx, "hello", models.PersonaFan, "")
	if !errors.Is(err, ErrGeneration) || !errors.Is(err, upstream) {
		t.Fatalf("error = %v, want ErrGeneration wrapping upstream", err)
	}
	if reply.Text != Apology {
		t.Errorf("reply = %q", reply.Text)
	}
	c, _ := s.Chat(id)
	if last := c.Messages[len(c.Messages)-1]; last.Text != Apology || last.From != models.FromBot {
		t.Errorf("last message = %+v", last)
	}

	// The guard is released after a failure.
	if _, _, err := s.SendMessage(ctx, "again", models.PersonaFan, ""); errors.Is(err, ErrSendInFlight) {
		t.Error("in-flight guard not released after failure")
	}
}

func TestSendMessageValidation(t *testing.T) {
	t.Parallel()

	s, st := newTestService(t, nil)
	_, _ = s.StartNewChat(context.Background(), "", nil)
	writes := st.writeCount()

	if _, _, err := s.SendMessage(context.Background(), "  ", models.PersonaFan, ""); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("empty input error = %v", err)
	}
	if _, _, err := s.SendMessage(context.Background(), "hi", models.Persona("critic"), ""); !errors.Is(err, ErrInvalidPersona) {
		t.Errorf("bad persona error = %v", err)
	}
	if st.writeCount() != writes {
		t.Error("rejected sends wrote to the store")
	}
}

func TestSendMessageSingleFlightPerChat(t *testing.T) {
	t.Parallel()

	gen := gated("first reply")
	s, _ := newTestService(t, gen)
	ctx := context.Background()
	first, _ := s.StartNewChat(ctx, "first", nil)

	done := make(chan error, 1)
	go func() {
		_, _, err := s.SendMessage(ctx, "one", models.PersonaFan, "")
		done <- err
	}()
	<-gen.started

	if _, _, err := s.SendMessage(ctx, "two", models.PersonaFan, ""); !errors.Is(err, ErrSendInFlight) {
		t.Fatalf("second send error = %v, want ErrSendInFlight", err)
	}

	// A different chat is not blocked by the first one's pending reply.
	second, _ := s.StartNewChat(ctx, "second", nil)
	otherDone := make(chan error, 1)
	go func() {
		_, _, err := s.SendMessage(ctx, "other", models.PersonaExpert, "")
		otherDone <- err
	}()
	<-gen.started

	gen.gate <- struct{}{}
	gen.gate <- struct{}{}
	if err := <-done; err != nil {
		t.Errorf("first send error = %v", err)
	}
	if err := <-otherDone; err != nil {
		t.Errorf("other chat send error = %v", err)
	}

	c1, _ := s.Chat(first)
	c2, _ := s.Chat(second)
	if len(c1.Messages) != 3 || len(c2.Messages) != 3 {
		t.Errorf("message counts = %d, %d, want 3 each", len(c1.Messages), len(c2.Messages))
	}
}

func TestSendMessageReportsChatUsed(t *testing.T) {
	t.Parallel()

	gen := gated("reply")
	s, _ := newTestService(t, gen)
	ctx := context.Background()
	first, _ := s.StartNewChat(ctx, "first", nil)

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		id, _, err := s.SendMessage(ctx, "hello", models.PersonaFan, "")
		done <- result{id, err}
	}()
	<-gen.started

	// Switching chats while the reply is pending does not change where it lands.
	second, _ := s.StartNewChat(ctx, "second", nil)
	if s.ActiveChatID() != second {
		t.Fatal("new chat did not become active")
	}
	gen.gate <- struct{}{}

	res := <-done
	if res.err != nil {
		t.Fatalf("SendMessage() error = %v", res.err)
	}
	if res.id != first {
		t.Errorf("chat id = %q, want %q", res.id, first)
	}
	if c, _ := s.Chat(first); len(c.Messages) != 3 {
		t.Errorf("first chat messages = %d, want 3", len(c.Messages))
	}
}

func TestReplyDroppedAfterChatDeleted(t *testing.T) {
	t.Parallel()

	gen := gated("late reply")
	s, st := newTestService(t, gen)
	ctx := context.Background()
	survivor, _ := s.StartNewChat(ctx, "survivor", nil)
	target, _ := s.StartNewChat(ctx, "target", nil)

	done := make(chan error, 1)
	go func() {
		_, _, err := s.SendMessage(ctx, "question", models.PersonaFan, "")
		done <- err
	}()
	<-gen.started

	if err := s.DeleteChat(ctx, target); err != nil {
		t.Fatal(err)
	}
	if s.ActiveChatID() != survivor {
		t.Fatal("active did not move to the survivor")
	}
	writes := st.writeCount()

	gen.gate <- struct{}{}
	if err := <-done; !errors.Is(err, ErrChatDeleted) {
		t.Fatalf("send error = %v, want ErrChatDeleted", err)
	}

	c, _ := s.Chat(survivor)
	if len(c.Messages) != 1 || c.Messages[0].Text != Greeting {
		t.Errorf("survivor was modified: %+v", c.Messages)
	}
	if st.writeCount() != writes {
		t.Error("stale reply was persisted")
	}
}

func TestReplyGoesToIssuingChatAfterSwitch(t *testing.T) {
	t.Parallel()

	gen := gated("reply")
	s, _ := newTestService(t, gen)
	ctx := context.Background()
	other, _ := s.StartNewChat(ctx, "other", nil)
	issuing, _ := s.StartNewChat(ctx, "issuing", nil)

	done := make(chan error, 1)
	go func() {
		_, _, err := s.SendMessage(ctx, "q", models.PersonaExpert, "")
		done <- err
	}()
	<-gen.started
	s.SetActiveChatID(other)
	gen.gate <- struct{}{}
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if c, _ := s.Chat(other); len(c.Messages) != 1 {
		t.Errorf("switched-to chat got %d messages", len(c.Messages))
	}
	if c, _ := s.Chat(issuing); len(c.Messages) != 3 {
		t.Errorf("issuing chat has %d messages, want 3", len(c.Messages))
	}
}

func TestCreateFusionSuccess(t *testing.T) {
	t.Parallel()

	s, st := newTestService(t, &fakeGenerator{reply: "Alien Matrix: a crew wakes up inside a simulation."})
	ctx := context.Background()
	active, _ := s.StartNewChat(ctx, "", nil)

	id, msg, err := s.CreateFusion(ctx, []string{"A", "B"})
	if err != nil {
		t.Fatalf("CreateFusion() error = %v", err)
	}
	if id != active {
		t.Error("fusion did not use the active chat")
	}
	if msg.From != models.FromBot || !strings.HasPrefix(msg.Text, "Alien Matrix") {
		t.Errorf("message = %+v", msg)
	}

	c, _ := s.Chat(id)
	if len(c.Messages) != 2 {
		t.Fatalf("messages = %+v, want greeting plus one fusion", c.Messages)
	}
	for _, m := range c.Messages {
		if strings.HasPrefix(m.Text, "Fusing ") {
			t.Error("placeholder was retained")
		}
	}
	if !strings.Contains(c.Title, "A") || !strings.Contains(c.Title, "B") {
		t.Errorf("title = %q, want both titles", c.Title)
	}
	if st.last[0].Title != c.Title {
		t.Error("renamed chat was not persisted")
	}
}

func TestCreateFusionWithoutActiveChat(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t, &fakeGenerator{reply: "fused"})

	id, _, err := s.CreateFusion(context.Background(), []string{"Alien", "Heat", "Up"})
	if err != nil {
		t.Fatal(err)
	}
	c, _ := s.Chat(id)
	if c.Title != "Fusion: Alien + Heat + Up" {
		t.Errorf("title = %q", c.Title)
	}
	if len(c.Messages) != 1 || c.Messages[0].Text != "fused" {
		t.Errorf("messages = %+v, want only the fusion", c.Messages)
	}
	if s.ActiveChatID() != id {
		t.Error("fusion chat is not active")
	}
}

func TestCreateFusionFailure(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t, &fakeGenerator{err: errors.New("down")})
	ctx := context.Background()
	active, _ := s.StartNewChat(ctx, "Movies", nil)

	_, msg, err := s.CreateFusion(ctx, []string{"A", "B"})
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("error = %v, want ErrGeneration", err)
	}
	if msg.Text != FusionFailure {
		t.Errorf("message = %q", msg.Text)
	}
	c, _ := s.Chat(active)
	if c.Title != "Movies" {
		t.Errorf("failed fusion renamed the chat to %q", c.Title)
	}
	if len(c.Messages) != 2 || c.Messages[1].Text != FusionFailure {
		t.Errorf("messages = %+v", c.Messages)
	}
}

func TestCreateFusionPlaceholderVisibleWhilePending(t *testing.T) {
	t.Parallel()

	gen := gated("done")
	s, _ := newTestService(t, gen)
	ctx := context.Background()
	id, _ := s.StartNewChat(ctx, "", nil)

	done := make(chan error, 1)
	go func() {
		_, _, err := s.CreateFusion(ctx, []string{"A", "B"})
		done <- err
	}()
	<-gen.started

	c, _ := s.Chat(id)
	if last := c.Messages[len(c.Messages)-1]; last.Text != "Fusing A, B..." {
		t.Errorf("pending last message = %q", last.Text)
	}

	gen.gate <- struct{}{}
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestLoadedChatsActivateNewest(t *testing.T) {
	t.Parallel()

	now := time.Now()
	chats := []models.Chat{
		{ID: "old", CreatedAt: now.Add(-time.Hour)},
		{ID: "new", CreatedAt: now},
	}
	s := NewService(&memStore{}, &fakeGenerator{}, "u", chats, zerolog.Nop())
	if s.ActiveChatID() != "new" {
		t.Errorf("active = %q, want new", s.ActiveChatID())
	}
}

func TestEnsureChat(t *testing.T) {
	t.Parallel()

	s, st := newTestService(t, nil)
	ctx := context.Background()

	if err := s.EnsureChat(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureChat(ctx); err != nil {
		t.Fatal(err)
	}
	if len(s.Chats()) != 1 || st.writeCount() != 1 {
		t.Errorf("chats = %d, writes = %d, want 1 and 1", len(s.Chats()), st.writeCount())
	}
}

func TestPersistFailureKeepsChat(t *testing.T) {
	t.Parallel()

	s, st := newTestService(t, nil)
	st.err = errors.New("offline")

	id, err := s.StartNewChat(context.Background(), "", nil)
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("error = %v, want ErrPersist", err)
	}
	if _, err := s.Chat(id); err != nil {
		t.Error("chat was rolled back after failed write")
	}
}
