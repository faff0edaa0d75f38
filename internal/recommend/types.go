// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/feedline/feedline/internal/models"
)

var (
	// ErrNotFound is returned when the requesting user has no profile.
	// The request aborts and the caller should signal an error state.
	ErrNotFound = errors.New("user profile not found")

	// ErrStoreUnavailable is returned when the interaction store cannot be
	// reached. The request aborts and the caller should retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Source tags where a recommended item originated.
type Source string

const (
	// SourcePlatform marks posts from the interaction store.
	SourcePlatform Source = "platform"
	// SourceExternal marks items fetched from the external search backend.
	SourceExternal Source = "external"
)

// RankedPost is a post augmented with a recommendation score. Transient;
// recomputed per request, never stored.
type RankedPost struct {
	// Post is the underlying content. For external items the author is the
	// external channel and the created time is the publish time.
	Post models.Post `json:"post"`

	// Score is the strategy score: a like count for popularity ranking,
	// a cosine similarity in [0, 1] for lexical ranking, 0 for external
	// items (which are appended, not ranked against platform posts).
	Score float64 `json:"score"`

	// LikeCount is the current number of distinct liking users. Always 0
	// for external items, which carry no like affordance.
	LikeCount int `json:"like_count"`

	// Source tags the item origin.
	Source Source `json:"source"`

	// ExternalID is the provider-side identifier for external items.
	ExternalID string `json:"external_id,omitempty"`

	// URL links to external content.
	URL string `json:"url,omitempty"`
}

// Request is a single recommendation request.
type Request struct {
	// Username identifies the requesting user. Required.
	Username string `json:"username"`

	// Limit is the maximum number of items to return. Defaults to
	// Config.DefaultLimit when zero; capped at Config.MaxLimit.
	Limit int `json:"limit,omitempty"`

	// Transcript is an optional transcribed spoken note folded into the
	// aspiration signal. Transcription itself happens upstream.
	Transcript string `json:"transcript,omitempty"`

	// RequestID is a unique identifier for tracing. Generated when empty.
	RequestID string `json:"request_id,omitempty"`
}

// Response is the ordered recommendation list for one request.
type Response struct {
	// Items is the ranked list: platform items first, external items
	// appended. Empty (never nil) when no qualifying posts exist.
	Items []RankedPost `json:"items"`

	// TotalCandidates is the number of platform posts that passed the
	// exclusion filter.
	TotalCandidates int `json:"total_candidates"`

	// Metadata carries timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// Username is the user the recommendations are for.
	Username string `json:"username"`

	// Strategy names the ranking strategy that produced the platform items.
	Strategy string `json:"strategy"`

	// AspirationSignal reports whether a bio-derived aspiration summary
	// was available. False when inference is disabled, failed, or timed out.
	AspirationSignal bool `json:"aspiration_signal"`

	// ExternalCount is the number of appended external items.
	ExternalCount int `json:"external_count"`

	// LatencyMS is the total request latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// RankInput is everything a ranking strategy needs for one request. All
// state is per-request; strategies hold nothing between calls, so identical
// inputs yield identical output.
type RankInput struct {
	// Username is the requesting user.
	Username string

	// Candidates are the posts that passed the exclusion filter, in store
	// order (ID ascending).
	Candidates []models.Post

	// Corpus is every post in the store. Lexical ranking builds its
	// document-frequency statistics over the full corpus.
	Corpus []models.Post

	// Interacted is the set of post IDs the user has interacted with.
	Interacted map[int64]struct{}

	// LikeCounts maps post ID to distinct liking users.
	LikeCounts map[int64]int

	// Aspirations is the optional bio-derived aspiration summary; empty
	// when the signal is unavailable.
	Aspirations string

	// Limit caps the number of returned items.
	Limit int
}

// Ranker scores and orders candidate posts. Implementations must be
// deterministic: descending score with ties broken by ascending post ID.
type Ranker interface {
	// Name returns the strategy identifier (e.g. "popularity", "lexical").
	Name() string

	// Rank returns at most in.Limit ranked posts. A strategy with no
	// usable signal returns an empty slice, never an error.
	Rank(ctx context.Context, in RankInput) ([]RankedPost, error)
}

// AspirationSummarizer derives a short aspiration summary from a user's
// bio and an optional transcript. Best-effort: callers bound it with a
// timeout and treat failure as "signal absent".
type AspirationSummarizer interface {
	SummarizeAspirations(ctx context.Context, bio, transcript string) (string, error)
}

// SearchResult is one item returned by the external search backend.
type SearchResult struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Snippet     string    `json:"snippet"`
	Channel     string    `json:"channel"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// ContentSearcher fetches external content for a query. Best-effort:
// callers bound it with a timeout and degrade on failure.
type ContentSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}
