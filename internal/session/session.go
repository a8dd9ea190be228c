// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// SESSION
// =============================================================================

// Session is the authenticated identity currently held by the client.
// Sessions are values: a new login replaces the whole Session.
type Session struct {
	Token       string
	UserID      string
	DisplayName string
	Email       string
	IssuedAt    time.Time
}

// ErrInvalidSession is returned for a session without token or user id.
var ErrInvalidSession = errors.New("session: token and user id are required")

// Validate checks the required fields.
func (s Session) Validate() error {
	if strings.TrimSpace(s.Token) == "" || strings.TrimSpace(s.UserID) == "" {
		return ErrInvalidSession
	}
	return nil
}

// Normalized returns s with trimmed fields and an NFC display name, so the
// same name typed on different terminals compares equal.
func (s Session) Normalized() Session {
	s.Token = strings.TrimSpace(s.Token)
	s.UserID = strings.TrimSpace(s.UserID)
	s.DisplayName = norm.NFC.String(strings.TrimSpace(s.DisplayName))
	s.Email = strings.TrimSpace(s.Email)
	return s
}

// Name returns the display name, falling back to the user id.
func (s Session) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.UserID
}

// =============================================================================
// TOKEN INTROSPECTION
// =============================================================================

// Claims is the subset of the backend's JWT claims the client reads.
type Claims struct {
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Email             string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// FromToken builds a Session from a JWT without verifying its signature;
// verification belongs to the backend that issued it. IssuedAt falls back
// to now when the token has no iat claim.
func FromToken(token string, now time.Time) (Session, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Session{}, fmt.Errorf("failed to parse token: %w", err)
	}

	s := Session{
		Token:       token,
		UserID:      claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
		IssuedAt:    now,
	}
	if s.DisplayName == "" {
		s.DisplayName = claims.PreferredUsername
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	s = s.Normalized()
	if err := s.Validate(); err != nil {
		return Session{}, fmt.Errorf("token has no subject: %w", err)
	}
	return s, nil
}

// LooksLikeJWT reports whether token has the three dot-separated parts of
// a compact JWT.
func LooksLikeJWT(token string) bool {
	return strings.Count(strings.TrimSpace(token), ".") == 2
}

// FromInput builds a Session from typed credentials. When token is a JWT
// its claims fill the identity first and typed values override them. The
// result is normalized, not validated.
func FromInput(userID, displayName, token string, now time.Time) Session {
	token = strings.TrimSpace(token)
	sess := Session{Token: token}
	if LooksLikeJWT(token) {
		if claims, err := FromToken(token, now); err == nil {
			sess = claims
		}
	}
	if v := strings.TrimSpace(userID); v != "" {
		sess.UserID = v
	}
	if v := strings.TrimSpace(displayName); v != "" {
		sess.DisplayName = v
	}
	return sess.Normalized()
}

// MintDevToken signs an HS256 token for local development against a
// backend configured with the same secret.
func MintDevToken(userID, name, email, secret string, now time.Time, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	if secret == "" {
		return "", errors.New("signing secret is required")
	}
	claims := Claims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
