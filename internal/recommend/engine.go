// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/feedline/feedline/internal/metrics"
	"github.com/feedline/feedline/internal/models"
	"github.com/feedline/feedline/internal/store"
)

// Engine orchestrates one recommendation request end to end: profile
// lookup, candidate filtering, strategy selection, ranking, and the
// best-effort aspiration and external search signals.
//
// The engine holds no per-user state between requests. It is safe for
// concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger
	store  store.Store

	rankers  map[string]Ranker
	rankerMu sync.RWMutex

	// Optional signal sources. A nil summarizer disables the aspiration
	// signal; a nil searcher disables external augmentation. Both are
	// best-effort: failures degrade the response, never abort it.
	summarizer AspirationSummarizer
	searcher   ContentSearcher
}

// NewEngine creates a recommendation engine backed by the given store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, st store.Store, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if st == nil {
		return nil, errors.New("store is required")
	}

	return &Engine{
		config:  cfg.Clone(),
		logger:  logger.With().Str("component", "recommend").Logger(),
		store:   st,
		rankers: make(map[string]Ranker),
	}, nil
}

// RegisterRanker adds a ranking strategy. Strategies registered under the
// same name replace each other.
func (e *Engine) RegisterRanker(r Ranker) {
	e.rankerMu.Lock()
	defer e.rankerMu.Unlock()

	e.rankers[r.Name()] = r
	e.logger.Info().
		Str("strategy", r.Name()).
		Msg("registered ranking strategy")
}

// SetAspirationSummarizer wires the optional aspiration inference
// backend.
func (e *Engine) SetAspirationSummarizer(s AspirationSummarizer) {
	e.summarizer = s
}

// SetContentSearcher wires the optional external content search
// backend.
func (e *Engine) SetContentSearcher(s ContentSearcher) {
	e.searcher = s
}

// Recommend produces the ranked recommendation list for one request.
//
// Hard failures are limited to the requesting user not existing
// (ErrNotFound) and the store being unreachable (ErrStoreUnavailable).
// Everything else degrades: a failed or slow aspiration inference drops
// the signal, a failed external search drops the appended items, and a
// user with no qualifying posts gets an explicit empty response.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if req.Username == "" {
		return nil, errors.New("username is required")
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	limit := e.clampLimit(req.Limit)

	log := e.logger.With().
		Str("request_id", req.RequestID).
		Str("username", req.Username).
		Logger()

	profile, err := e.loadProfile(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	corpus, interacted, likeCounts, err := e.loadSignals(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	// Best-effort aspiration signal. Absence is normal.
	aspirations := e.inferAspirations(ctx, log, profile, req.Transcript)

	candidates := Filter(corpus, req.Username, interacted, e.config.FilterMode)

	ranker, strategy := e.selectRanker(interacted, aspirations)
	ranked, err := ranker.Rank(ctx, RankInput{
		Username:    req.Username,
		Candidates:  candidates,
		Corpus:      corpus,
		Interacted:  interacted,
		LikeCounts:  likeCounts,
		Aspirations: aspirations,
		Limit:       limit,
	})
	if err != nil {
		metrics.RecordRecommendationError("ranker")
		return nil, fmt.Errorf("ranking with %s: %w", strategy, err)
	}

	for i := range ranked {
		ranked[i].LikeCount = likeCounts[ranked[i].Post.ID]
	}

	// Best-effort external augmentation, appended after platform items.
	// The combined list stays within the limit; platform items take
	// precedence over external ones.
	external := e.searchExternal(ctx, log, aspirations)
	if room := limit - len(ranked); len(external) > room {
		external = external[:room]
	}

	items := append(ranked, external...)
	if items == nil {
		items = []RankedPost{}
	}

	resp := &Response{
		Items:           items,
		TotalCandidates: len(candidates),
		Metadata: ResponseMetadata{
			RequestID:        req.RequestID,
			Username:         req.Username,
			Strategy:         strategy,
			AspirationSignal: aspirations != "",
			ExternalCount:    len(external),
			LatencyMS:        time.Since(start).Milliseconds(),
			Timestamp:        time.Now().UTC(),
		},
	}

	metrics.RecordRecommendation(strategy, len(resp.Items), len(candidates), time.Since(start))
	log.Debug().
		Str("strategy", strategy).
		Int("items", len(resp.Items)).
		Int("candidates", len(candidates)).
		Int("external", len(external)).
		Bool("aspiration_signal", resp.Metadata.AspirationSignal).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation served")

	return resp, nil
}

// clampLimit applies the configured default and cap.
func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.config.DefaultLimit
	}
	if limit > e.config.MaxLimit {
		return e.config.MaxLimit
	}
	return limit
}

// loadProfile fetches the requesting user's profile, mapping store errors
// onto the engine's error taxonomy.
func (e *Engine) loadProfile(ctx context.Context, username string) (models.UserProfile, error) {
	profile, err := e.store.GetProfile(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.RecordRecommendationError("profile_not_found")
			return models.UserProfile{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		metrics.RecordRecommendationError("store_unavailable")
		return models.UserProfile{}, fmt.Errorf("loading profile: %w: %w", ErrStoreUnavailable, err)
	}
	return profile, nil
}

// loadSignals fetches the post corpus, the user's interaction set, and the
// per-post like counts.
func (e *Engine) loadSignals(ctx context.Context, username string) ([]models.Post, map[int64]struct{}, map[int64]int, error) {
	corpus, err := e.store.ListPosts(ctx)
	if err != nil {
		metrics.RecordRecommendationError("store_unavailable")
		return nil, nil, nil, fmt.Errorf("listing posts: %w: %w", ErrStoreUnavailable, err)
	}

	interacted, err := e.store.GetInteractions(ctx, username)
	if err != nil {
		metrics.RecordRecommendationError("store_unavailable")
		return nil, nil, nil, fmt.Errorf("loading interactions: %w: %w", ErrStoreUnavailable, err)
	}

	likeCounts, err := e.store.GetLikeCounts(ctx)
	if err != nil {
		metrics.RecordRecommendationError("store_unavailable")
		return nil, nil, nil, fmt.Errorf("loading like counts: %w: %w", ErrStoreUnavailable, err)
	}

	return corpus, interacted, likeCounts, nil
}

// inferAspirations derives the aspiration summary from the user's bio and
// the optional transcript. Best-effort: any failure or timeout returns an
// empty signal.
func (e *Engine) inferAspirations(ctx context.Context, log zerolog.Logger, profile models.UserProfile, transcript string) string {
	if e.summarizer == nil {
		return ""
	}
	if profile.Bio == "" && transcript == "" {
		return ""
	}

	inferCtx, cancel := context.WithTimeout(ctx, e.config.InferenceTimeout)
	defer cancel()

	start := time.Now()
	summary, err := e.summarizer.SummarizeAspirations(inferCtx, profile.Bio, transcript)
	metrics.RecordInference(time.Since(start))

	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		metrics.RecordDegradedSignal("inference", reason)
		log.Warn().
			Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("aspiration inference degraded, continuing without signal")
		return ""
	}

	return summary
}

// searchExternal fetches external content for the aspiration query.
// Best-effort: any failure returns no items. External items carry zero
// score and like count; they are appended, not ranked against platform
// posts.
func (e *Engine) searchExternal(ctx context.Context, log zerolog.Logger, aspirations string) []RankedPost {
	if e.searcher == nil || aspirations == "" || e.config.ExternalResults <= 0 {
		return nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, e.config.SearchTimeout)
	defer cancel()

	start := time.Now()
	results, err := e.searcher.Search(searchCtx, aspirations, e.config.ExternalResults)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		metrics.RecordDegradedSignal("search", reason)
		log.Warn().
			Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("external search degraded, continuing without external items")
		return nil
	}
	metrics.RecordExternalSearch(time.Since(start), len(results))

	items := make([]RankedPost, 0, len(results))
	for _, r := range results {
		items = append(items, RankedPost{
			Post: models.Post{
				Author:    r.Channel,
				Content:   r.Title,
				CreatedAt: r.PublishedAt,
			},
			Source:     SourceExternal,
			ExternalID: r.ID,
			URL:        r.URL,
		})
	}
	return items
}

// selectRanker resolves the configured strategy to a registered ranker.
// In auto mode lexical ranking is used when the user has any interaction
// or aspiration signal, popularity otherwise.
func (e *Engine) selectRanker(interacted map[int64]struct{}, aspirations string) (Ranker, string) {
	name := e.config.Strategy
	if name == StrategyAuto {
		if len(interacted) > 0 || aspirations != "" {
			name = StrategyLexical
		} else {
			name = StrategyPopularity
		}
	}

	e.rankerMu.RLock()
	defer e.rankerMu.RUnlock()

	if r, ok := e.rankers[name]; ok {
		return r, name
	}

	// A pinned strategy that was never registered falls back to any
	// registered one rather than failing the request.
	for fallback, r := range e.rankers {
		e.logger.Warn().
			Str("requested", name).
			Str("fallback", fallback).
			Msg("requested strategy not registered")
		return r, fallback
	}

	return noopRanker{}, "none"
}

// noopRanker serves requests when no strategy has been registered.
type noopRanker struct{}

func (noopRanker) Name() string { return "none" }

func (noopRanker) Rank(_ context.Context, _ RankInput) ([]RankedPost, error) {
	return []RankedPost{}, nil
}
