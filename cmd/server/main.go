// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

// Package main is the entry point for the Feedline server.
//
// Feedline is a social feed recommendation service. It stores posts,
// profiles, and an interaction log, and serves per-user ranked feeds
// combining popularity and lexical similarity ranking with optional
// LLM-derived aspiration signals and external video augmentation.
//
// # Startup order
//
//  1. Configuration: defaults, config.yaml, FEEDLINE_* environment (koanf)
//  2. Logging: global zerolog per the logging config
//  3. Store: Postgres when database.dsn is set, in-memory demo mode otherwise
//  4. Engine: ranking strategies plus optional Gemini and YouTube clients
//  5. HTTP server: supervised by a suture tree, graceful shutdown on
//     SIGINT/SIGTERM
//
// # Configuration
//
// Every key can be set via environment, e.g. FEEDLINE_SERVER_PORT=8470,
// FEEDLINE_DATABASE_DSN=postgres://..., FEEDLINE_AUTH_JWT_SECRET=...,
// FEEDLINE_INFERENCE_API_KEY=..., FEEDLINE_SEARCH_API_KEY=...
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/feedline/feedline/internal/api"
	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/config"
	"github.com/feedline/feedline/internal/inference"
	"github.com/feedline/feedline/internal/logging"
	"github.com/feedline/feedline/internal/recommend"
	"github.com/feedline/feedline/internal/recommend/rankers"
	"github.com/feedline/feedline/internal/search"
	"github.com/feedline/feedline/internal/store"
	"github.com/feedline/feedline/internal/store/memory"
	"github.com/feedline/feedline/internal/store/postgres"
	"github.com/feedline/feedline/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
	})
	logger := logging.Logger()

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Bool("postgres", cfg.Database.DSN != "").
		Bool("inference", cfg.Inference.Enabled).
		Bool("search", cfg.Search.Enabled).
		Msg("starting feedline")

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("closing store")
		}
	}()

	engine, err := buildEngine(cfg, st, logger)
	if err != nil {
		return err
	}

	authMgr, err := buildAuth(cfg, logger)
	if err != nil {
		return err
	}

	server, err := api.NewServer(api.Config{
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
	}, st, engine, authMgr, logger)
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(supervisor.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("addr", httpServer.Addr).Msg("listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

// openStore picks Postgres when a DSN is configured, the in-memory store
// otherwise.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func openStore(cfg *config.Config, logger zerolog.Logger) (store.Store, error) {
	if cfg.Database.DSN == "" {
		logger.Warn().Msg("no database configured, using in-memory store; data will not survive a restart")
		return memory.New(), nil
	}

	st, err := postgres.Open(context.Background(), postgres.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Migrate:         cfg.Database.Migrate,
	})
	if err != nil {
		return nil, fmt.Errorf("opening postgres store: %w", err)
	}
	return st, nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func buildEngine(cfg *config.Config, st store.Store, logger zerolog.Logger) (*recommend.Engine, error) {
	engineCfg := recommend.DefaultConfig()
	engineCfg.Strategy = cfg.Recommend.Strategy
	engineCfg.DefaultLimit = cfg.Recommend.DefaultLimit
	engineCfg.MaxLimit = cfg.Recommend.MaxLimit
	engineCfg.ExternalResults = cfg.Recommend.ExternalResults
	engineCfg.InferenceTimeout = cfg.Inference.Timeout
	engineCfg.SearchTimeout = cfg.Search.Timeout

	engine, err := recommend.NewEngine(engineCfg, st, logger)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	engine.RegisterRanker(rankers.NewPopularity())
	engine.RegisterRanker(rankers.NewLexical())

	if cfg.Inference.Enabled {
		summarizer, err := inference.NewSummarizer(context.Background(), inference.Config{
			APIKey: cfg.Inference.APIKey,
			Model:  cfg.Inference.Model,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating summarizer: %w", err)
		}
		engine.SetAspirationSummarizer(summarizer)
	}

	if cfg.Search.Enabled {
		searcher, err := search.NewClient(search.Config{
			APIKey:        cfg.Search.APIKey,
			BaseURL:       cfg.Search.BaseURL,
			RatePerMinute: cfg.Search.RatePerMinute,
			Timeout:       cfg.Search.Timeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating search client: %w", err)
		}
		engine.SetContentSearcher(searcher)
	}

	return engine, nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func buildAuth(cfg *config.Config, logger zerolog.Logger) (*auth.Manager, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// Ephemeral secret for demo mode. Sessions die with the process.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generating ephemeral jwt secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		logger.Warn().Msg("auth.jwt_secret not set, using ephemeral secret; sessions will not survive a restart")
	}

	mgr, err := auth.NewManager(auth.Config{
		JWTSecret:  secret,
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	if err != nil {
		return nil, fmt.Errorf("creating auth manager: %w", err)
	}
	return mgr, nil
}
