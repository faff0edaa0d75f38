// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

package recommend

import (
	"fmt"
	"time"
)

// Strategy names accepted by Config.Strategy.
const (
	// StrategyAuto picks lexical ranking when the user has an interaction
	// or aspiration signal, popularity otherwise.
	StrategyAuto = "auto"
	// StrategyPopularity pins popularity ranking.
	StrategyPopularity = "popularity"
	// StrategyLexical pins lexical ranking.
	StrategyLexical = "lexical"
)

// Config holds engine configuration.
type Config struct {
	// Strategy selects the ranking strategy: auto, popularity, or lexical.
	Strategy string

	// DefaultLimit is the item count returned when a request has no limit.
	DefaultLimit int

	// MaxLimit caps the per-request limit.
	MaxLimit int

	// ExternalResults is the number of external items fetched when the
	// content search backend is configured and an aspiration signal
	// exists. Zero disables augmentation.
	ExternalResults int

	// FilterMode is the exclusion filter mode applied before ranking.
	FilterMode FilterMode

	// InferenceTimeout bounds the aspiration summarization call.
	InferenceTimeout time.Duration

	// SearchTimeout bounds the external content search call.
	SearchTimeout time.Duration
}

// DefaultConfig returns engine defaults.
func DefaultConfig() *Config {
	return &Config{
		Strategy:         StrategyAuto,
		DefaultLimit:     5,
		MaxLimit:         50,
		ExternalResults:  3,
		FilterMode:       ModeExcludeInteracted,
		InferenceTimeout: 10 * time.Second,
		SearchTimeout:    10 * time.Second,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Strategy {
	case StrategyAuto, StrategyPopularity, StrategyLexical:
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}

	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max limit %d below default limit %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.ExternalResults < 0 {
		return fmt.Errorf("external results must be non-negative, got %d", c.ExternalResults)
	}
	if c.FilterMode != ModeExcludeInteracted && c.FilterMode != ModeRequireInteracted {
		return fmt.Errorf("unknown filter mode %d", c.FilterMode)
	}
	if c.InferenceTimeout <= 0 {
		return fmt.Errorf("inference timeout must be positive, got %v", c.InferenceTimeout)
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("search timeout must be positive, got %v", c.SearchTimeout)
	}

	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
