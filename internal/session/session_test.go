// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Validate(t *testing.T) {
	assert.NoError(t, Session{Token: "t", UserID: "u"}.Validate())
	assert.ErrorIs(t, Session{Token: "  ", UserID: "u"}.Validate(), ErrInvalidSession)
	assert.ErrorIs(t, Session{Token: "t", UserID: ""}.Validate(), ErrInvalidSession)
}

func TestSession_NormalizedComposesDisplayName(t *testing.T) {
	// "e" + combining acute accent composes to a single rune.
	s := Session{Token: " t ", UserID: " u ", DisplayName: " Jose\u0301 "}.Normalized()
	assert.Equal(t, "t", s.Token)
	assert.Equal(t, "u", s.UserID)
	assert.Equal(t, "Jos\u00e9", s.DisplayName)
}

func TestSession_Name(t *testing.T) {
	assert.Equal(t, "Dana", Session{UserID: "d1", DisplayName: "Dana"}.Name())
	assert.Equal(t, "d1", Session{UserID: "d1"}.Name())
}

func TestMintDevTokenRoundTrip(t *testing.T) {
	token, err := MintDevToken("u42", "Ada", "ada@example.com", "secret", epoch, time.Hour)
	require.NoError(t, err)

	sess, err := FromToken(token, epoch.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, token, sess.Token)
	assert.Equal(t, "u42", sess.UserID)
	assert.Equal(t, "Ada", sess.DisplayName)
	assert.Equal(t, "ada@example.com", sess.Email)
	assert.True(t, epoch.Equal(sess.IssuedAt))

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return epoch }))
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
}

func TestMintDevToken_RequiresInputs(t *testing.T) {
	_, err := MintDevToken("", "", "", "secret", epoch, 0)
	assert.Error(t, err)
	_, err = MintDevToken("u1", "", "", "", epoch, 0)
	assert.Error(t, err)
}

func TestFromToken(t *testing.T) {
	t.Run("preferred username fallback", func(t *testing.T) {
		claims := Claims{
			PreferredUsername: "grace",
			RegisteredClaims:  jwt.RegisteredClaims{Subject: "u7"},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
		require.NoError(t, err)

		sess, err := FromToken(token, epoch)
		require.NoError(t, err)
		assert.Equal(t, "grace", sess.DisplayName)
		assert.Equal(t, epoch, sess.IssuedAt)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Name: "x"}).SignedString([]byte("k"))
		require.NoError(t, err)
		_, err = FromToken(token, epoch)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := FromToken("not-a-jwt", epoch)
		assert.Error(t, err)
	})
}

func TestFromInput(t *testing.T) {
	token, err := MintDevToken("carol", "Carol", "carol@example.com", "k", epoch, 0)
	require.NoError(t, err)

	tests := []struct {
		name      string
		user      string
		display   string
		tok       string
		wantUser  string
		wantName  string
		wantEmail string
	}{
		{"plain token", " bob ", "Bob", "opaque", "bob", "Bob", ""},
		{"claims fill identity", "", "", token, "carol", "Carol", "carol@example.com"},
		{"typed values override claims", "c2", "Caz", token, "c2", "Caz", "carol@example.com"},
		{"unparsable jwt-shaped token", "dan", "", "a.b.c", "dan", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := FromInput(tt.user, tt.display, tt.tok, epoch)
			assert.Equal(t, tt.wantUser, sess.UserID)
			assert.Equal(t, tt.wantName, sess.DisplayName)
			assert.Equal(t, tt.wantEmail, sess.Email)
			assert.Equal(t, strings.TrimSpace(tt.tok), sess.Token)
		})
	}

	assert.True(t, LooksLikeJWT(token))
	assert.False(t, LooksLikeJWT("opaque"))
}
