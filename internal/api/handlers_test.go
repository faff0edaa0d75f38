// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/models"
	"github.com/feedline/feedline/internal/recommend"
	"github.com/feedline/feedline/internal/recommend/rankers"
	"github.com/feedline/feedline/internal/store/memory"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	st := memory.New()

	engine, err := recommend.NewEngine(nil, st, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	engine.RegisterRanker(rankers.NewPopularity())
	engine.RegisterRanker(rankers.NewLexical())

	authMgr, err := auth.NewManager(auth.Config{
		JWTSecret:  strings.Repeat("s", 32),
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	srv, err := NewServer(Config{}, st, engine, authMgr, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv.Router()
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func signupAndLogin(t *testing.T, h http.Handler, username, bio string) string {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username": username,
		"password": "correct-horse-battery",
		"bio":      bio,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "correct-horse-battery",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned empty token")
	}
	return resp.Token
}

func TestSignup(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username":     "alice",
		"password":     "correct-horse-battery",
		"display_name": "Alice",
		"bio":          "trail runner",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var profile models.UserProfile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if profile.Username != "alice" || profile.Bio != "trail runner" {
		t.Errorf("profile = %+v", profile)
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	h := newTestServer(t)
	signupAndLogin(t, h, "alice", "")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username": "alice",
		"password": "another-password",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing password", map[string]string{"username": "alice"}},
		{"short password", map[string]string{"username": "alice", "password": "short"}},
		{"short username", map[string]string{"username": "ab", "password": "correct-horse-battery"}},
		{"non-alphanumeric username", map[string]string{"username": "a lice!", "password": "correct-horse-battery"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/signup", "", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := newTestServer(t)
	signupAndLogin(t, h, "alice", "")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong-password-here",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "ghost",
		"password": "whatever-password",
	})
	// Indistinguishable from a wrong password.
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	h := newTestServer(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodGet, "/api/v1/posts"},
		{http.MethodPost, "/api/v1/posts"},
		{http.MethodGet, "/api/v1/recommendations"},
	}

	for _, p := range paths {
		rec := doJSON(t, h, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", p.method, p.path, rec.Code)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/api/v1/profile", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	h := newTestServer(t)
	token := signupAndLogin(t, h, "alice", "original bio")

	rec := doJSON(t, h, http.MethodPut, "/api/v1/profile", token, map[string]string{
		"display_name": "Alice A.",
		"bio":          "updated bio",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/profile", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	var profile models.UserProfile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if profile.Bio != "updated bio" || profile.DisplayName != "Alice A." {
		t.Errorf("profile = %+v", profile)
	}
}

func TestCreateAndListPosts(t *testing.T) {
	h := newTestServer(t)
	token := signupAndLogin(t, h, "alice", "")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/posts", token, map[string]string{
		"content": "hello feedline",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}

	var post models.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &post); err != nil {
		t.Fatalf("decoding post: %v", err)
	}
	if post.ID != 1 || post.Author != "alice" {
		t.Errorf("post = %+v", post)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/posts", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var posts []models.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("decoding posts: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("posts = %d, want 1", len(posts))
	}
}

func TestCreatePostTooLong(t *testing.T) {
	h := newTestServer(t)
	token := signupAndLogin(t, h, "alice", "")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/posts", token, map[string]string{
		"content": strings.Repeat("x", models.MaxPostLength+1),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	// Exactly at the limit is fine.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/posts", token, map[string]string{
		"content": strings.Repeat("x", models.MaxPostLength),
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
}

func TestCreateInteraction(t *testing.T) {
	h := newTestServer(t)
	alice := signupAndLogin(t, h, "alice", "")
	bob := signupAndLogin(t, h, "bob", "")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/posts", bob, map[string]string{
		"content": "bob's post",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/posts/1/interactions", alice, map[string]string{
		"action": "like",
	})
	if rec.Code != http.StatusNoContent {
		t.Errorf("like status = %d, want 204, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/posts/999/interactions", alice, map[string]string{
		"action": "like",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("like on missing post status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/posts/1/interactions", alice, map[string]string{
		"action": "teleport",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown action status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/posts/abc/interactions", alice, map[string]string{
		"action": "like",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric post id status = %d, want 400", rec.Code)
	}
}

func TestRecommendations(t *testing.T) {
	h := newTestServer(t)
	alice := signupAndLogin(t, h, "alice", "")
	bob := signupAndLogin(t, h, "bob", "")

	for i := 0; i < 3; i++ {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/posts", bob, map[string]string{
			"content": fmt.Sprintf("bob's post number %d", i),
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create post status = %d", rec.Code)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/api/v1/recommendations?limit=2", alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp recommend.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Errorf("items = %d, want 2", len(resp.Items))
	}
	if resp.TotalCandidates != 3 {
		t.Errorf("TotalCandidates = %d, want 3", resp.TotalCandidates)
	}
	if resp.Metadata.Strategy != "popularity" {
		t.Errorf("strategy = %q, want popularity for cold-start user", resp.Metadata.Strategy)
	}
	for _, item := range resp.Items {
		if item.Post.Author == "alice" {
			t.Error("recommendations include the requesting user's own post")
		}
	}
}

func TestRecommendationsInvalidLimit(t *testing.T) {
	h := newTestServer(t)
	token := signupAndLogin(t, h, "alice", "")

	for _, q := range []string{"limit=0", "limit=-1", "limit=abc"} {
		rec := doJSON(t, h, http.MethodGet, "/api/v1/recommendations?"+q, token, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Error("metrics output missing api_requests_total")
	}
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "caller-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "caller-id" {
		t.Errorf("X-Request-ID = %q, want caller-provided caller-id", got)
	}
}

func TestRateLimitOnAuthEndpoints(t *testing.T) {
	st := memory.New()
	engine, err := recommend.NewEngine(nil, st, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	engine.RegisterRanker(rankers.NewPopularity())

	authMgr, err := auth.NewManager(auth.Config{
		JWTSecret:  strings.Repeat("s", 32),
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	srv, err := NewServer(Config{
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	}, st, engine, authMgr, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	h := srv.Router()

	body := map[string]string{"username": "ghost", "password": "whatever-password"}
	for i := 0; i < 2; i++ {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", body)
		if rec.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d rate limited below budget", i)
		}
	}
	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}
