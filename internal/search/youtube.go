// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

// Package search fetches external video content from the YouTube Data API
// for recommendation augmentation. Calls are best-effort: the client is
// guarded by a circuit breaker and a client-side rate limiter, and the
// engine degrades the response when either trips.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/feedline/feedline/internal/metrics"
	"github.com/feedline/feedline/internal/recommend"
)

// DefaultBaseURL is the production YouTube Data API v3 endpoint.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

const breakerName = "youtube"

// ErrRateLimited is returned when the client-side rate budget is exhausted.
var ErrRateLimited = errors.New("client-side rate limit exceeded")

// Config holds YouTube client settings.
type Config struct {
	// APIKey authenticates against the YouTube Data API. Required.
	APIKey string

	// BaseURL overrides the API endpoint. Mainly for tests; empty means
	// DefaultBaseURL.
	BaseURL string

	// RatePerMinute is the client-side request budget. The YouTube search
	// endpoint costs 100 quota units per call against a 10k daily default,
	// so the budget should stay small.
	RatePerMinute int

	// Timeout bounds a single HTTP request.
	Timeout time.Duration
}

// Client implements recommend.ContentSearcher on the YouTube Data API.
// Safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]recommend.SearchResult]
}

var _ recommend.ContentSearcher = (*Client)(nil)

// NewClient creates a YouTube search client.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 6
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	log := logger.With().Str("component", "search").Logger()

	breaker := gobreaker.NewCircuitBreaker[[]recommend.SearchResult](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Open after 5 consecutive failures. Search volume is low, so
			// a ratio-based trip would take too long to gather samples.
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("search circuit breaker state transition")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  log,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute),
		breaker: breaker,
	}, nil
}

// Search returns up to maxResults videos matching the query, ordered by
// API relevance.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]recommend.SearchResult, error) {
	if query == "" {
		return nil, errors.New("query is required")
	}
	if maxResults <= 0 {
		return nil, nil
	}

	if !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	return c.breaker.Execute(func() ([]recommend.SearchResult, error) {
		return c.search(ctx, query, maxResults)
	})
}

func (c *Client) search(ctx context.Context, query string, maxResults int) ([]recommend.SearchResult, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("safeSearch", "moderate")
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling search api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search api returned %d: %s", resp.StatusCode, body)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	results := make([]recommend.SearchResult, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, recommend.SearchResult{
			ID:          item.ID.VideoID,
			Title:       item.Snippet.Title,
			Snippet:     item.Snippet.Description,
			Channel:     item.Snippet.ChannelTitle,
			URL:         "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			PublishedAt: item.Snippet.PublishedAt,
		})
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("external search completed")

	return results, nil
}

// searchResponse mirrors the subset of the search.list payload we consume.
type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string    `json:"title"`
		Description  string    `json:"description"`
		ChannelTitle string    `json:"channelTitle"`
		PublishedAt  time.Time `json:"publishedAt"`
	} `json:"snippet"`
}
