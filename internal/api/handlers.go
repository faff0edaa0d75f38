// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/logging"
	"github.com/feedline/feedline/internal/metrics"
	"github.com/feedline/feedline/internal/models"
	"github.com/feedline/feedline/internal/recommend"
	"github.com/feedline/feedline/internal/store"
)

// maxBodyBytes bounds request bodies. Posts cap at 280 characters, bios
// at 500; 64 KiB leaves generous headroom.
const maxBodyBytes = 64 << 10

type signupRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"max=64"`
	Bio         string `json:"bio" validate:"max=500"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"max=64"`
	Bio         string `json:"bio" validate:"max=500"`
}

type createPostRequest struct {
	Content string `json:"content"`
}

type interactionRequest struct {
	Action string `json:"action" validate:"required"`
}

// decode reads and validates a JSON request body.
func (s *Server) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := s.decode(r, &req); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.CreateUser(r.Context(), req.Username, hash, req.DisplayName, req.Bio); err != nil {
		metrics.RecordAuthAttempt("signup", false)
		writeError(w, r, err)
		return
	}

	metrics.RecordAuthAttempt("signup", true)
	logging.Ctx(r.Context()).Info().Str("username", req.Username).Msg("account created")
	writeJSON(w, r, http.StatusCreated, models.UserProfile{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(r, &req); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}

	hash, err := s.store.GetCredentials(r.Context(), req.Username)
	if err != nil {
		metrics.RecordAuthAttempt("login", false)
		// Unknown users get the same answer as bad passwords.
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, auth.ErrInvalidCredentials)
			return
		}
		writeError(w, r, err)
		return
	}

	if err := s.auth.VerifyPassword(hash, req.Password); err != nil {
		metrics.RecordAuthAttempt("login", false)
		writeError(w, r, err)
		return
	}

	token, err := s.auth.GenerateToken(req.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}

	metrics.RecordAuthAttempt("login", true)
	writeJSON(w, r, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.auth.TokenTTL()).UTC(),
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())

	profile, err := s.store.GetProfile(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())

	var req updateProfileRequest
	if err := s.decode(r, &req); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}

	profile := models.UserProfile{
		Username:    username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	}
	if err := s.store.UpdateProfile(r.Context(), profile); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, profile)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	writeJSON(w, r, http.StatusOK, posts)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())

	var req createPostRequest
	if err := s.decode(r, &req); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}
	if req.Content == "" {
		writeValidationError(w, r, "content is required")
		return
	}
	if n := len([]rune(req.Content)); n > models.MaxPostLength {
		writeValidationError(w, r, fmt.Sprintf("content is %d characters, maximum is %d", n, models.MaxPostLength))
		return
	}

	post, err := s.store.CreatePost(r.Context(), username, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, post)
}

func (s *Server) handleCreateInteraction(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())

	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil || postID <= 0 {
		writeValidationError(w, r, "invalid post id")
		return
	}

	var req interactionRequest
	if err := s.decode(r, &req); err != nil {
		writeValidationError(w, r, err.Error())
		return
	}

	action, err := models.ParseAction(req.Action)
	if err != nil {
		writeValidationError(w, r, err.Error())
		return
	}

	if err := s.store.RecordInteraction(r.Context(), username, postID, action); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	username, _ := usernameFromContext(r.Context())

	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeValidationError(w, r, "limit must be a positive integer")
			return
		}
		limit = n
	}

	resp, err := s.engine.Recommend(r.Context(), recommend.Request{
		Username:   username,
		Limit:      limit,
		Transcript: r.URL.Query().Get("transcript"),
		RequestID:  logging.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
