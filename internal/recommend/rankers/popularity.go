// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

package rankers

import (
	"context"

	"github.com/feedline/feedline/internal/recommend"
)

// Popularity ranks candidates by their like count. It needs no signal
// beyond the interaction log, which makes it the baseline for cold-start
// users and the fallback when lexical ranking has nothing to work with.
//
//	score(post) = count of distinct users that liked the post
//
// Candidates with no likes score 0 and still appear, ordered by post ID.
type Popularity struct{}

// NewPopularity creates the popularity strategy.
func NewPopularity() *Popularity {
	return &Popularity{}
}

// Name returns the strategy identifier.
func (p *Popularity) Name() string {
	return "popularity"
}

// Rank scores candidates by like count, descending, ties broken by
// ascending post ID.
func (p *Popularity) Rank(ctx context.Context, in recommend.RankInput) ([]recommend.RankedPost, error) {
	if contextCancelled(ctx) {
		return nil, ctx.Err()
	}

	items := make([]recommend.RankedPost, 0, len(in.Candidates))
	for i := range in.Candidates {
		post := in.Candidates[i]
		items = append(items, recommend.RankedPost{
			Post:   post,
			Score:  float64(in.LikeCounts[post.ID]),
			Source: recommend.SourcePlatform,
		})
	}

	return sortRanked(items, in.Limit), nil
}
