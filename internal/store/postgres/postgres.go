// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

// Package postgres implements store.Store on PostgreSQL via sqlx. A single
// long-lived pool replaces the per-call connections of the original system;
// statements are scoped per call and the pool handles release.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/feedline/feedline/internal/models"
	"github.com/feedline/feedline/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres error codes checked to map constraint violations onto the
// store sentinel errors.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Config holds pool settings for the Postgres store.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Migrate         bool
}

// Store is the PostgreSQL implementation of store.Store.
type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to Postgres, configures the pool, and optionally applies
// the embedded schema migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	s := &Store{db: db}

	if cfg.Migrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

// migrate applies all pending embedded migrations.
func (s *Store) migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	driver, err := postgres.WithInstance(s.db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// ListPosts returns all posts ordered by ID ascending.
func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.SelectContext(ctx, &posts,
		`SELECT id, author, content, created_at FROM posts ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// CreatePost inserts a post and returns it with the assigned ID.
func (s *Store) CreatePost(ctx context.Context, author, content string) (models.Post, error) {
	var post models.Post
	err := s.db.GetContext(ctx, &post,
		`INSERT INTO posts (author, content) VALUES ($1, $2)
		 RETURNING id, author, content, created_at`,
		author, content)
	if err != nil {
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// GetInteractions returns the set of post IDs the user interacted with.
func (s *Store) GetInteractions(ctx context.Context, username string) (map[int64]struct{}, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT post_id FROM interactions WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("get interactions: %w", err)
	}

	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// GetLikeCounts returns post ID -> distinct liking users.
func (s *Store) GetLikeCounts(ctx context.Context) (map[int64]int, error) {
	rows := []struct {
		PostID int64 `db:"post_id"`
		Count  int   `db:"like_count"`
	}{}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT post_id, COUNT(DISTINCT username) AS like_count
		 FROM interactions WHERE action = 'like' GROUP BY post_id`)
	if err != nil {
		return nil, fmt.Errorf("get like counts: %w", err)
	}

	out := make(map[int64]int, len(rows))
	for _, r := range rows {
		out[r.PostID] = r.Count
	}
	return out, nil
}

// GetProfile returns the user's profile, or store.ErrNotFound.
func (s *Store) GetProfile(ctx context.Context, username string) (models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.GetContext(ctx, &profile,
		`SELECT username, display_name, bio FROM users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserProfile{}, store.ErrNotFound
	}
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile replaces display name and bio for an existing user.
func (s *Store) UpdateProfile(ctx context.Context, profile models.UserProfile) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET display_name = $1, bio = $2 WHERE username = $3`,
		profile.DisplayName, profile.Bio, profile.Username)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RecordInteraction appends to the interaction log.
func (s *Store) RecordInteraction(ctx context.Context, username string, postID int64, action models.Action) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (username, post_id, action) VALUES ($1, $2, $3)`,
		username, postID, action.String())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return store.ErrPostNotFound
		}
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

// CreateUser registers a new account.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash, displayName, bio string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, display_name, bio)
		 VALUES ($1, $2, $3, $4)`,
		username, passwordHash, displayName, bio)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetCredentials returns the stored password hash for a username.
func (s *Store) GetCredentials(ctx context.Context, username string) (string, error) {
	var hash string
	err := s.db.GetContext(ctx, &hash,
		`SELECT password_hash FROM users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get credentials: %w", err)
	}
	return hash, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
