// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

// Package models defines the core domain records shared across Feedline:
// posts, the append-only interaction log, and user profiles.
package models

import (
	"errors"
	"time"
)

// MaxPostLength is the maximum number of runes allowed in a post body.
const MaxPostLength = 280

// Action classifies a user-post interaction.
type Action int

const (
	// ActionView records that a user viewed a post.
	ActionView Action = iota
	// ActionLike records that a user liked a post.
	ActionLike
	// ActionComment records that a user commented on a post.
	ActionComment
)

// ErrInvalidAction is returned when parsing an unknown action name.
var ErrInvalidAction = errors.New("invalid interaction action")

// String returns the wire name of the action.
func (a Action) String() string {
	switch a {
	case ActionView:
		return "view"
	case ActionLike:
		return "like"
	case ActionComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Valid reports whether the action is a known value.
func (a Action) Valid() bool {
	return a == ActionView || a == ActionLike || a == ActionComment
}

// ParseAction converts a wire name into an Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case "view":
		return ActionView, nil
	case "like":
		return ActionLike, nil
	case "comment":
		return ActionComment, nil
	default:
		return 0, ErrInvalidAction
	}
}

// Post is a single piece of platform content. Posts are immutable once
// created; there is no update or delete path.
type Post struct {
	// ID is the unique, stable post identifier.
	ID int64 `json:"id" db:"id"`

	// Author is the username of the post creator.
	Author string `json:"author" db:"author"`

	// Content is the post body, at most MaxPostLength runes.
	Content string `json:"content" db:"content"`

	// CreatedAt is when the post was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Interaction is one entry in the append-only user-post interaction log.
// A user may record multiple interactions with the same post.
type Interaction struct {
	// User is the username that performed the interaction.
	User string `json:"user" db:"username"`

	// PostID references an existing post.
	PostID int64 `json:"post_id" db:"post_id"`

	// Action is the kind of interaction.
	Action Action `json:"action" db:"action"`

	// CreatedAt is when the interaction was recorded.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserProfile is the public profile of a user. Mutable by its owner only.
type UserProfile struct {
	// Username is the unique account identifier.
	Username string `json:"username" db:"username"`

	// DisplayName is the optional public name.
	DisplayName string `json:"display_name" db:"display_name"`

	// Bio is free text describing the user. Feeds the aspiration signal.
	Bio string `json:"bio" db:"bio"`
}
