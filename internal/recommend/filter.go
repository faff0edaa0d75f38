// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

package recommend

import "github.com/feedline/feedline/internal/models"

// FilterMode controls how the exclusion filter treats posts the user has
// already interacted with.
type FilterMode int

const (
	// ModeExcludeInteracted drops posts the user has already interacted
	// with. This is the recommendation default: surface new content.
	ModeExcludeInteracted FilterMode = iota

	// ModeRequireInteracted keeps only posts the user has interacted with,
	// for "similar to what you liked" inputs.
	ModeRequireInteracted
)

// String returns a human-readable mode name.
func (m FilterMode) String() string {
	switch m {
	case ModeExcludeInteracted:
		return "exclude_interacted"
	case ModeRequireInteracted:
		return "require_interacted"
	default:
		return "unknown"
	}
}

// Filter returns the subset of posts eligible as recommendation candidates
// for the given user: never the user's own posts, and per mode either the
// posts without or with a prior interaction. Pure function of its inputs;
// preserves input order.
func Filter(posts []models.Post, user string, interacted map[int64]struct{}, mode FilterMode) []models.Post {
	out := make([]models.Post, 0, len(posts))

	for i := range posts {
		post := posts[i]
		if post.Author == user {
			continue
		}

		_, seen := interacted[post.ID]
		switch mode {
		case ModeExcludeInteracted:
			if seen {
				continue
			}
		case ModeRequireInteracted:
			if !seen {
				continue
			}
		}

		out = append(out, post)
	}

	return out
}
