// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

// Package memory provides an in-memory Store implementation. It backs
// tests and the zero-configuration demo mode; nothing survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/feedline/feedline/internal/models"
	"github.com/feedline/feedline/internal/store"
)

// user bundles profile and credentials.
type user struct {
	profile      models.UserProfile
	passwordHash string
}

// Store is a mutex-guarded in-memory implementation of store.Store.
// Safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	posts        []models.Post
	interactions []models.Interaction
	users        map[string]*user
	nextPostID   int64

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:      make(map[string]*user),
		nextPostID: 1,
		now:        time.Now,
	}
}

// SetClock overrides the timestamp source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// ListPosts returns all posts ordered by ID ascending.
func (s *Store) ListPosts(_ context.Context) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Post, len(s.posts))
	copy(out, s.posts)
	return out, nil
}

// CreatePost appends a post and assigns the next ID.
func (s *Store) CreatePost(_ context.Context, author, content string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := models.Post{
		ID:        s.nextPostID,
		Author:    author,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	s.nextPostID++
	s.posts = append(s.posts, post)
	return post, nil
}

// GetInteractions returns the set of post IDs the user interacted with.
func (s *Store) GetInteractions(_ context.Context, username string) (map[int64]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]struct{})
	for _, in := range s.interactions {
		if in.User == username {
			out[in.PostID] = struct{}{}
		}
	}
	return out, nil
}

// GetLikeCounts returns post ID -> distinct users that liked the post.
func (s *Store) GetLikeCounts(_ context.Context) (map[int64]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	likers := make(map[int64]map[string]struct{})
	for _, in := range s.interactions {
		if in.Action != models.ActionLike {
			continue
		}
		if likers[in.PostID] == nil {
			likers[in.PostID] = make(map[string]struct{})
		}
		likers[in.PostID][in.User] = struct{}{}
	}

	out := make(map[int64]int, len(likers))
	for id, users := range likers {
		out[id] = len(users)
	}
	return out, nil
}

// GetProfile returns the user's profile, or store.ErrNotFound.
func (s *Store) GetProfile(_ context.Context, username string) (models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return models.UserProfile{}, store.ErrNotFound
	}
	return u.profile, nil
}

// UpdateProfile replaces display name and bio for an existing user.
func (s *Store) UpdateProfile(_ context.Context, profile models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[profile.Username]
	if !ok {
		return store.ErrNotFound
	}
	u.profile.DisplayName = profile.DisplayName
	u.profile.Bio = profile.Bio
	return nil
}

// RecordInteraction appends to the interaction log. The referenced post
// must exist.
func (s *Store) RecordInteraction(_ context.Context, username string, postID int64, action models.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.posts {
		if s.posts[i].ID == postID {
			found = true
			break
		}
	}
	if !found {
		return store.ErrPostNotFound
	}

	s.interactions = append(s.interactions, models.Interaction{
		User:      username,
		PostID:    postID,
		Action:    action,
		CreatedAt: s.now().UTC(),
	})
	return nil
}

// CreateUser registers a new account.
func (s *Store) CreateUser(_ context.Context, username, passwordHash, displayName, bio string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return store.ErrAlreadyExists
	}
	s.users[username] = &user{
		profile: models.UserProfile{
			Username:    username,
			DisplayName: displayName,
			Bio:         bio,
		},
		passwordHash: passwordHash,
	}
	return nil
}

// GetCredentials returns the stored password hash for a username.
func (s *Store) GetCredentials(_ context.Context, username string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return "", store.ErrNotFound
	}
	return u.passwordHash, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
