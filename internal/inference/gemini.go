// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

// Package inference derives a user's aspirations from their profile text
// using the Gemini API. The engine treats the result as a best-effort
// signal: callers bound every call with a timeout and degrade on failure.
package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/feedline/feedline/internal/recommend"
)

const systemPrompt = `You are a life coach helping a social platform understand what its users want to achieve.

Given a user's profile bio and, optionally, a transcribed spoken note, summarize the user's aspirations and interests in one short paragraph of plain English.

Rules:
1. Output only the summary text, no preamble, no markdown, no quotes.
2. Keep it under 60 words and focus on concrete topics, goals, and activities.
3. If the input contains no discernible aspirations, output an empty string.`

// Config holds Gemini client settings.
type Config struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string

	// Model is the primary model identifier.
	Model string

	// FallbackModel is tried when the primary model is rate limited or
	// unavailable. Empty disables the fallback.
	FallbackModel string
}

// Summarizer implements recommend.AspirationSummarizer on the Gemini API.
// Safe for concurrent use.
type Summarizer struct {
	client *genai.Client
	logger zerolog.Logger
	models []string

	mu        sync.Mutex
	lastReset time.Time
	calls     map[string]int
}

var _ recommend.AspirationSummarizer = (*Summarizer)(nil)

// perModelRPM is the client-side per-minute budget per model. Keeps a
// burst of requests from burning the API quota before the server-side
// limiter kicks in.
const perModelRPM = 10

// NewSummarizer creates a Gemini-backed summarizer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSummarizer(ctx context.Context, cfg Config, logger zerolog.Logger) (*Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("model is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	models := []string{cfg.Model}
	if cfg.FallbackModel != "" && cfg.FallbackModel != cfg.Model {
		models = append(models, cfg.FallbackModel)
	}

	return &Summarizer{
		client:    client,
		logger:    logger.With().Str("component", "inference").Logger(),
		models:    models,
		lastReset: time.Now(),
		calls:     make(map[string]int),
	}, nil
}

// SummarizeAspirations produces a short aspiration summary from the bio
// and the optional transcript. Returns an empty summary when the model
// finds nothing to summarize.
func (s *Summarizer) SummarizeAspirations(ctx context.Context, bio, transcript string) (string, error) {
	if bio == "" && transcript == "" {
		return "", nil
	}

	prompt := buildPrompt(bio, transcript)

	var lastErr error
	for _, model := range s.models {
		if !s.withinBudget(model) {
			lastErr = fmt.Errorf("model %s: client-side rate budget exhausted", model)
			continue
		}

		result, err := s.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			if retryableWithFallback(err) {
				s.logger.Debug().
					Err(err).
					Str("model", model).
					Msg("model unavailable, trying fallback")
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generating summary with %s: %w", model, err)
		}

		if result == nil || len(result.Candidates) == 0 ||
			result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
			lastErr = fmt.Errorf("model %s: empty response", model)
			continue
		}

		return strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text), nil
	}

	return "", fmt.Errorf("all models failed: %w", lastErr)
}

func buildPrompt(bio, transcript string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nProfile bio:\n")
	b.WriteString(bio)
	if transcript != "" {
		b.WriteString("\n\nSpoken note transcript:\n")
		b.WriteString(transcript)
	}
	return b.String()
}

// retryableWithFallback reports whether the error indicates a per-model
// condition (rate limit, missing model) worth retrying on another model.
func retryableWithFallback(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "exhausted", "404", "not found", "overloaded"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// withinBudget checks and records the per-minute call budget for a model.
func (s *Summarizer) withinBudget(model string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if now.Sub(s.lastReset) >= time.Minute {
		s.calls = make(map[string]int)
		s.lastReset = now
	}
	if s.calls[model] >= perModelRPM {
		return false
	}
	s.calls[model]++
	return true
}
