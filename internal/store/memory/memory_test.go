// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/feedline/feedline/internal/models"
	"github.com/feedline/feedline/internal/store"
)

func TestCreateAndListPosts(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.CreatePost(ctx, "alice", "hello world")
	if err != nil {
		t.Fatalf("CreatePost() error: %v", err)
	}
	second, err := s.CreatePost(ctx, "bob", "second post")
	if err != nil {
		t.Fatalf("CreatePost() error: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("post IDs = %d, %d, want 1, 2", first.ID, second.ID)
	}

	posts, err := s.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts() error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("ListPosts() returned %d posts, want 2", len(posts))
	}
	if posts[0].ID >= posts[1].ID {
		t.Error("ListPosts() not ordered by ID ascending")
	}
}

func TestRecordInteractionRequiresExistingPost(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.RecordInteraction(ctx, "alice", 42, models.ActionLike); !errors.Is(err, store.ErrPostNotFound) {
		t.Errorf("RecordInteraction() on missing post = %v, want ErrPostNotFound", err)
	}

	post, _ := s.CreatePost(ctx, "bob", "content")
	if err := s.RecordInteraction(ctx, "alice", post.ID, models.ActionLike); err != nil {
		t.Errorf("RecordInteraction() error: %v", err)
	}

	got, err := s.GetInteractions(ctx, "alice")
	if err != nil {
		t.Fatalf("GetInteractions() error: %v", err)
	}
	if _, ok := got[post.ID]; !ok {
		t.Errorf("GetInteractions() missing post %d", post.ID)
	}
}

func TestGetLikeCountsDistinctUsers(t *testing.T) {
	s := New()
	ctx := context.Background()

	post, _ := s.CreatePost(ctx, "carol", "likeable")

	// Repeated likes from the same user count once.
	for i := 0; i < 3; i++ {
		if err := s.RecordInteraction(ctx, "alice", post.ID, models.ActionLike); err != nil {
			t.Fatalf("RecordInteraction() error: %v", err)
		}
	}
	if err := s.RecordInteraction(ctx, "bob", post.ID, models.ActionLike); err != nil {
		t.Fatalf("RecordInteraction() error: %v", err)
	}
	// Views never count as likes.
	if err := s.RecordInteraction(ctx, "dave", post.ID, models.ActionView); err != nil {
		t.Fatalf("RecordInteraction() error: %v", err)
	}

	counts, err := s.GetLikeCounts(ctx)
	if err != nil {
		t.Fatalf("GetLikeCounts() error: %v", err)
	}
	if counts[post.ID] != 2 {
		t.Errorf("like count = %d, want 2 (distinct users)", counts[post.ID])
	}
}

func TestUserLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.CreateUser(ctx, "alice", "hash1", "Alice", "bio text"); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	if err := s.CreateUser(ctx, "alice", "hash2", "", ""); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("duplicate CreateUser() = %v, want ErrAlreadyExists", err)
	}

	hash, err := s.GetCredentials(ctx, "alice")
	if err != nil || hash != "hash1" {
		t.Errorf("GetCredentials() = %q, %v, want hash1, nil", hash, err)
	}
	if _, err := s.GetCredentials(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetCredentials() for unknown user = %v, want ErrNotFound", err)
	}

	profile, err := s.GetProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("GetProfile() error: %v", err)
	}
	if profile.Bio != "bio text" {
		t.Errorf("profile bio = %q, want %q", profile.Bio, "bio text")
	}

	profile.DisplayName = "Alice W."
	profile.Bio = "updated"
	if err := s.UpdateProfile(ctx, profile); err != nil {
		t.Fatalf("UpdateProfile() error: %v", err)
	}
	profile, _ = s.GetProfile(ctx, "alice")
	if profile.Bio != "updated" {
		t.Errorf("profile bio after update = %q, want updated", profile.Bio)
	}

	if err := s.UpdateProfile(ctx, models.UserProfile{Username: "ghost"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateProfile() for unknown user = %v, want ErrNotFound", err)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	s := New()
	if _, err := s.GetProfile(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetProfile() = %v, want ErrNotFound", err)
	}
}
