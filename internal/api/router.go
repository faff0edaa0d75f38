// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

// Package api exposes Feedline over HTTP: account signup and login,
// profiles, posts, interactions, and the recommendation feed.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/metrics"
	"github.com/feedline/feedline/internal/recommend"
	"github.com/feedline/feedline/internal/store"
)

// Config holds router settings.
type Config struct {
	// CORSOrigins lists allowed CORS origins. Empty disables CORS.
	CORSOrigins []string

	// RateLimitRequests is the per-IP budget for auth endpoints within
	// RateLimitWindow. Zero disables rate limiting.
	RateLimitRequests int

	// RateLimitWindow is the rate limit window.
	RateLimitWindow time.Duration
}

// Server holds the handler dependencies.
type Server struct {
	cfg      Config
	store    store.Store
	engine   *recommend.Engine
	auth     *auth.Manager
	logger   zerolog.Logger
	validate *validator.Validate
}

// NewServer creates the HTTP server facade.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewServer(cfg Config, st store.Store, engine *recommend.Engine, authMgr *auth.Manager, logger zerolog.Logger) (*Server, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if authMgr == nil {
		return nil, errors.New("auth manager is required")
	}

	return &Server{
		cfg:      cfg,
		store:    st,
		engine:   engine,
		auth:     authMgr,
		logger:   logger.With().Str("component", "api").Logger(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Router assembles the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(instrument)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Brute force protection on the unauthenticated surface.
		r.Route("/auth", func(r chi.Router) {
			if s.cfg.RateLimitRequests > 0 {
				r.Use(httprate.Limit(
					s.cfg.RateLimitRequests,
					s.cfg.RateLimitWindow,
					httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
					httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
						metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
						writeJSON(w, r, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
					}),
				))
			}
			r.Post("/signup", s.handleSignup)
			r.Post("/login", s.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)

			r.Get("/posts", s.handleListPosts)
			r.Post("/posts", s.handleCreatePost)
			r.Post("/posts/{postID}/interactions", s.handleCreateInteraction)

			r.Get("/recommendations", s.handleRecommendations)
		})
	})

	return r
}
