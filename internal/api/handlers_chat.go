// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/pelixflow/internal/chat"
	"github.com/tomtom215/pelixflow/internal/models"
)

type startChatRequest struct {
	Title    string           `json:"title" validate:"max=200"`
	Messages []models.Message `json:"messages" validate:"omitempty,max=200,dive"`
}

type setActiveChatRequest struct {
	ChatID string `json:"chatId" validate:"notblank"`
}

type sendMessageRequest struct {
	Text         string `json:"text" validate:"notblank,max=4000"`
	Persona      string `json:"persona" validate:"omitempty,persona"`
	ContentTitle string `json:"contentTitle" validate:"max=300"`
}

type fusionRequest struct {
	Titles []string `json:"titles" validate:"min=2,max=3,unique,dive,notblank,max=300"`
}

type chatsResponse struct {
	Chats        []models.Chat `json:"chats"`
	ActiveChatID string        `json:"activeChatId"`
}

type messageResponse struct {
	ChatID  string         `json:"chatId"`
	Message models.Message `json:"message"`
}

func chatsSnapshot(c *chat.Service) chatsResponse {
	return chatsResponse{Chats: c.Chats(), ActiveChatID: c.ActiveChatID()}
}

// Chats returns every chat, newest first, and the active chat id.
func (h *Handler) Chats(w http.ResponseWriter, r *http.Request) {
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()
	respondSuccess(w, r, http.StatusOK, chatsSnapshot(s.Chat))
}

// StartNewChat creates a chat and makes it active. Without messages the
// chat opens with the greeting.
func (h *Handler) StartNewChat(w http.ResponseWriter, r *http.Request) {
	var req startChatRequest
	if !bindJSON(w, r, &req, maxBodyBytes) {
		return
	}
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	if _, err := s.Chat.StartNewChat(r.Context(), req.Title, req.Messages); err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondSuccess(w, r, http.StatusCreated, chatsSnapshot(s.Chat))
}

// DeleteAllChats removes every chat.
func (h *Handler) DeleteAllChats(w http.ResponseWriter, r *http.Request) {
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()
	if err := s.Chat.DeleteAllChats(r.Context()); err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, chatsSnapshot(s.Chat))
}

// DeleteChat removes one chat. A reply still pending for it is discarded.
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()
	id := chi.URLParam(r, "chatID")
	if _, err := s.Chat.Chat(id); err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	if err := s.Chat.DeleteChat(r.Context(), id); err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, chatsSnapshot(s.Chat))
}

// SetActiveChat switches the active chat. Unknown ids are 404.
func (h *Handler) SetActiveChat(w http.ResponseWriter, r *http.Request) {
	var req setActiveChatRequest
	if !bindJSON(w, r, &req, maxBodyBytes) {
		return
	}
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	if _, err := s.Chat.Chat(req.ChatID); err != nil {
		respondServiceError(w, r, err, nil)
		return
	}
	s.Chat.SetActiveChatID(req.ChatID)
	respondSuccess(w, r, http.StatusOK, chatsSnapshot(s.Chat))
}

// SendMessage posts a user message to the active chat and returns the
// reply. When the reply was appended but the call still failed (the
// apology after a generation error, or a failed save) the appended
// message is returned in the error details.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !bindJSON(w, r, &req, maxBodyBytes) {
		return
	}
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	persona := models.Persona(req.Persona)
	if persona == "" {
		persona = models.PersonaExpert
	}

	chatID, reply, err := s.Chat.SendMessage(r.Context(), req.Text, persona, req.ContentTitle)
	if err != nil {
		var details map[string]any
		if reply.Text != "" {
			details = map[string]any{"chatId": chatID, "message": reply}
		}
		respondServiceError(w, r, err, details)
		return
	}
	respondSuccess(w, r, http.StatusOK, messageResponse{ChatID: chatID, Message: reply})
}

// CreateFusion fuses two or three distinct titles into one fictional work
// posted to the active chat.
func (h *Handler) CreateFusion(w http.ResponseWriter, r *http.Request) {
	var req fusionRequest
	if !bindJSON(w, r, &req, maxBodyBytes) {
		return
	}
	s, release, ok := h.session(w, r)
	if !ok {
		return
	}
	defer release()

	chatID, reply, err := s.Chat.CreateFusion(r.Context(), req.Titles)
	if err != nil {
		var details map[string]any
		if reply.Text != "" {
			details = map[string]any{"chatId": chatID, "message": reply}
		}
		respondServiceError(w, r, err, details)
		return
	}
	respondSuccess(w, r, http.StatusOK, messageResponse{ChatID: chatID, Message: reply})
}
