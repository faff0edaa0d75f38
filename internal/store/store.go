// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

// Package store defines the persistence interface consumed by the rest of
// Feedline. Implementations live in subpackages (postgres, memory). The
// interface is the single source of truth for posts, profiles, and the
// interaction log; callers re-read it per request rather than caching, so
// like counts and histories are always fresh.
package store

import (
	"context"
	"errors"

	"github.com/feedline/feedline/internal/models"
)

var (
	// ErrNotFound is returned when a requested user or profile does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when creating a user whose username is taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrPostNotFound is returned when an interaction references a missing post.
	ErrPostNotFound = errors.New("post not found")
)

// Store is the durable record of posts, users, and interactions.
//
// Implementations must serialize writes; reads and writes are atomic per
// call. Any error other than the sentinels above means the store is
// unreachable and the caller should surface a retryable failure.
type Store interface {
	// ListPosts returns all posts ordered by ID ascending.
	ListPosts(ctx context.Context) ([]models.Post, error)

	// CreatePost appends a new immutable post and returns it with its
	// assigned ID.
	CreatePost(ctx context.Context, author, content string) (models.Post, error)

	// GetInteractions returns the set of post IDs the user has interacted
	// with, regardless of action.
	GetInteractions(ctx context.Context, user string) (map[int64]struct{}, error)

	// GetLikeCounts returns post ID -> number of distinct users that liked
	// the post. Posts with no likes are absent from the map.
	GetLikeCounts(ctx context.Context) (map[int64]int, error)

	// GetProfile returns the user's profile, or ErrNotFound.
	GetProfile(ctx context.Context, user string) (models.UserProfile, error)

	// UpdateProfile replaces the display name and bio of an existing user.
	// Returns ErrNotFound for unknown users.
	UpdateProfile(ctx context.Context, profile models.UserProfile) error

	// RecordInteraction appends an interaction to the log. Returns
	// ErrPostNotFound when postID does not reference an existing post.
	RecordInteraction(ctx context.Context, user string, postID int64, action models.Action) error

	// CreateUser registers a new account. Returns ErrAlreadyExists when the
	// username is taken.
	CreateUser(ctx context.Context, username, passwordHash, displayName, bio string) error

	// GetCredentials returns the stored password hash for a username, or
	// ErrNotFound.
	GetCredentials(ctx context.Context, username string) (string, error)

	// Close releases the underlying resources.
	Close() error
}
