// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package models

import (
	"sort"
	"time"
)

// Sender identifies who wrote a chat message.
type Sender string

// Sender values as stored in the user document.
const (
	FromUser Sender = "user"
	FromBot  Sender = "bot"
)

// Persona selects the assistant's conversational tone.
type Persona string

// Supported personas.
const (
	PersonaExpert Persona = "expert"
	PersonaFan    Persona = "fan"
)

// Valid reports whether p is a known persona.
func (p Persona) Valid() bool {
	return p == PersonaExpert || p == PersonaFan
}

// Message is one turn in a chat.
type Message struct {
	From Sender `json:"from" validate:"oneof=user bot"`
	Text string `json:"text" validate:"notblank,max=4000"`
}

// Chat is a conversation thread.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy of the chat.
func (c Chat) Clone() Chat {
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	c.Messages = msgs
	return c
}

// CloneChats deep-copies chats, never returning nil.
func CloneChats(chats []Chat) []Chat {
	out := make([]Chat, len(chats))
	for i := range chats {
		out[i] = chats[i].Clone()
	}
	return out
}

// SortChatsNewestFirst sorts chats by CreatedAt descending, in place.
func SortChatsNewestFirst(chats []Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].CreatedAt.After(chats[j].CreatedAt)
	})
}
