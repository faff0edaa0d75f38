// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const searchPayload = `{
	"items": [
		{
			"id": {"videoId": "abc123"},
			"snippet": {
				"title": "Trail running basics",
				"description": "Getting started on trails",
				"channelTitle": "RunChannel",
				"publishedAt": "2026-05-01T10:00:00Z"
			}
		},
		{
			"id": {"videoId": ""},
			"snippet": {"title": "channel result, no video id"}
		},
		{
			"id": {"videoId": "def456"},
			"snippet": {
				"title": "Hiking with dogs",
				"description": "Dog-friendly routes",
				"channelTitle": "DogChannel",
				"publishedAt": "2026-06-15T08:30:00Z"
			}
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		APIKey:        "test-key",
		BaseURL:       srv.URL,
		RatePerMinute: 1000,
		Timeout:       time.Second,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestSearch(t *testing.T) {
	var gotQuery, gotMax, gotKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotMax = r.URL.Query().Get("maxResults")
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(searchPayload)); err != nil {
			t.Errorf("writing payload: %v", err)
		}
	})

	results, err := c.Search(context.Background(), "trail running", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotQuery != "trail running" || gotMax != "3" || gotKey != "test-key" {
		t.Errorf("request params = (%q, %q, %q)", gotQuery, gotMax, gotKey)
	}

	// Entry without a video ID is skipped.
	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	first := results[0]
	if first.ID != "abc123" || first.Channel != "RunChannel" {
		t.Errorf("first result = %+v", first)
	}
	if first.URL != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("URL = %q", first.URL)
	}
	if first.PublishedAt.IsZero() {
		t.Error("PublishedAt not parsed")
	}
}

func TestSearchAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"code": 403, "message": "quotaExceeded"}}`, http.StatusForbidden)
	})

	if _, err := c.Search(context.Background(), "anything", 3); err == nil {
		t.Error("Search() error = nil on 403 response")
	}
}

func TestSearchInvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("not json")); err != nil {
			t.Errorf("writing payload: %v", err)
		}
	})

	if _, err := c.Search(context.Background(), "anything", 3); err == nil {
		t.Error("Search() error = nil on malformed response")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	c := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("request sent for empty query")
	})

	if _, err := c.Search(context.Background(), "", 3); err == nil {
		t.Error("Search() error = nil for empty query")
	}
}

func TestSearchZeroMaxResults(t *testing.T) {
	c := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("request sent for zero maxResults")
	})

	results, err := c.Search(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() = %v, want none", results)
	}
}

func TestSearchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte(`{"items": []}`)); err != nil {
			t.Errorf("writing payload: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		APIKey:        "test-key",
		BaseURL:       srv.URL,
		RatePerMinute: 1,
		Timeout:       time.Second,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := c.Search(context.Background(), "first", 3); err != nil {
		t.Fatalf("first Search() error = %v", err)
	}
	if _, err := c.Search(context.Background(), "second", 3); err != ErrRateLimited {
		t.Errorf("second Search() error = %v, want ErrRateLimited", err)
	}
}

func TestSearchCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "upstream down", http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		if _, err := c.Search(context.Background(), "q", 3); err == nil {
			t.Fatalf("Search() %d error = nil, want failure", i)
		}
	}

	// Circuit is open now; the request must be rejected without an HTTP call.
	before := calls
	if _, err := c.Search(context.Background(), "q", 3); err == nil {
		t.Error("Search() error = nil with open circuit")
	}
	if calls != before {
		t.Errorf("open circuit still made an HTTP call (%d -> %d)", before, calls)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}, zerolog.Nop()); err == nil {
		t.Error("NewClient() without api key returned nil error")
	}
}
