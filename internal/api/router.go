// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/pelixflow/internal/auth"
	"github.com/tomtom215/pelixflow/internal/middleware"
)

// slowRequest is the access-log warn threshold.
const slowRequest = 10 * time.Second

// Router wires handlers, authentication and middleware.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, auth: authMiddleware, chiMiddleware: chiMW}
}

// Setup builds the route tree.
func (router *Router) Setup() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog(slowRequest))
	r.Use(middleware.PrometheusMetrics)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Get("/health", h.HealthLive)
		r.Get("/health/ready", h.HealthReady)
		r.Handle("/metrics", promhttp.Handler())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(chimiddleware.Compress(5, "application/json"))
		r.Use(router.auth.Authenticate)

		r.Get("/me", h.Me)
		r.Put("/me/profile", h.UpdateProfile)

		gen := router.chiMiddleware.RateLimitPerUser(RateLimitGeneration)

		r.Get("/recommendations", h.Recommendations)
		r.With(gen).Post("/recommendations", h.GenerateRecommendations)
		r.Delete("/recommendations", h.ClearRecommendations)
		r.With(gen).Post("/recommendations/mood", h.ExploreMood)
		r.With(gen).Post("/recommendations/search", h.Search)
		r.With(gen).Post("/preferences/adjust", h.AdjustPreferences)

		r.Get("/favorites", h.Favorites)
		r.Post("/favorites/toggle", h.ToggleFavorite)
		r.Get("/history", h.History)
		r.Post("/history", h.AddToHistory)
		r.Post("/feedback", h.AddFeedback)

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", h.Lists)
			r.Post("/", h.CreateList)
			r.Get("/{listID}", h.List)
			r.Delete("/{listID}", h.DeleteList)
			r.Post("/{listID}/items", h.AddToList)
			r.Delete("/{listID}/items/{title}", h.RemoveFromList)
		})

		r.Route("/chats", func(r chi.Router) {
			r.Get("/", h.Chats)
			r.Post("/", h.StartNewChat)
			r.Delete("/", h.DeleteAllChats)
			r.Put("/active", h.SetActiveChat)
			r.With(gen).Post("/messages", h.SendMessage)
			r.With(gen).Post("/fusion", h.CreateFusion)
			r.Delete("/{chatID}", h.DeleteChat)
		})
	})

	return r
}
