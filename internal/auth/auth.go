// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

// Package auth handles password hashing and JWT session tokens.
//
// Passwords are hashed with bcrypt before storage; sessions are stateless
// HS256-signed JWTs carrying the username. Tokens cannot be revoked before
// expiration.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when a password does not match the
	// stored hash. Deliberately indistinguishable from an unknown user at
	// the API layer.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for expired, malformed, or tampered
	// session tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// minSecretLength guards against weak HMAC keys.
const minSecretLength = 32

// Claims are the session token claims.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager hashes passwords and issues and validates session tokens.
// Safe for concurrent use.
type Manager struct {
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

// Config holds Manager settings.
type Config struct {
	// JWTSecret signs session tokens. Must be at least 32 characters.
	JWTSecret string

	// TokenTTL is how long issued sessions stay valid.
	TokenTTL time.Duration

	// BcryptCost is the password hashing cost. Zero means
	// bcrypt.DefaultCost.
	BcryptCost int
}

// NewManager creates an auth manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}

	return &Manager{
		secret:     []byte(cfg.JWTSecret),
		tokenTTL:   cfg.TokenTTL,
		bcryptCost: cost,
		now:        time.Now,
	}, nil
}

// TokenTTL returns the configured session lifetime.
func (m *Manager) TokenTTL() time.Duration {
	return m.tokenTTL
}

// SetClock overrides the timestamp source. Intended for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// HashPassword returns the bcrypt hash of a password.
func (m *Manager) HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a password against its stored hash.
func (m *Manager) VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken issues a signed session token for a username.
func (m *Manager) GenerateToken(username string) (string, error) {
	if username == "" {
		return "", errors.New("username is required")
	}

	now := m.now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// ValidateToken verifies a session token and returns its claims.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
