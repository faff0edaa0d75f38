// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/logging"
	"github.com/feedline/feedline/internal/recommend"
	"github.com/feedline/feedline/internal/store"
)

// errorResponse is the uniform error payload.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON encodes v with the given status. Encoding failures are logged;
// the status line has already been sent at that point.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("encoding response")
	}
}

// writeError maps a domain error onto the HTTP error taxonomy.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, recommend.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
		msg = "store unavailable, retry later"
	case errors.Is(err, recommend.ErrNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
		msg = "not found"
	case errors.Is(err, store.ErrPostNotFound):
		status = http.StatusNotFound
		msg = "post not found"
	case errors.Is(err, store.ErrAlreadyExists):
		status = http.StatusConflict
		msg = "username already taken"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		msg = "invalid credentials"
	case errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
		msg = "invalid or expired token"
	}

	requestID := logging.RequestIDFromContext(r.Context())
	if status == http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	} else {
		logging.Ctx(r.Context()).Debug().Err(err).Int("status", status).Msg("request rejected")
	}

	writeJSON(w, r, status, errorResponse{Error: msg, RequestID: requestID})
}

// writeValidationError rejects a request with a caller-visible message.
func writeValidationError(w http.ResponseWriter, r *http.Request, msg string) {
	requestID := logging.RequestIDFromContext(r.Context())
	writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: msg, RequestID: requestID})
}
