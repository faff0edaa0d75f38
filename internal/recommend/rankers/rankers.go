// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

// Package rankers implements the ranking strategies behind the
// recommendation engine.
//
// Each strategy implements the recommend.Ranker interface and is selected
// by the engine per request. Strategies are stateless: all signal comes in
// through recommend.RankInput, so identical inputs produce identical
// output and instances are safe for concurrent use.
package rankers

import (
	"context"
	"sort"

	"github.com/feedline/feedline/internal/recommend"
)

// Ensure all strategies implement the interface.
var (
	_ recommend.Ranker = (*Popularity)(nil)
	_ recommend.Ranker = (*Lexical)(nil)
)

// sortRanked orders items by descending score, ties broken by ascending
// post ID, and truncates to limit. The tie-break keeps both strategies
// deterministic.
func sortRanked(items []recommend.RankedPost, limit int) []recommend.RankedPost {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Post.ID < items[j].Post.ID
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// contextCancelled checks whether the context has been canceled.
func contextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
