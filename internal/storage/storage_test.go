// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CONFORMANCE
// =============================================================================

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFile(filepath.Join(dir, "session.json"))
	require.NoError(t, err)

	sqlite, err := NewSQLite(filepath.Join(dir, "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sealed, err := NewSealedWithIterations(NewMemory(), "correct horse", 1000)
	require.NoError(t, err)

	return map[string]Storage{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": sqlite,
		"redis":  NewRedisWithClient(client, "test:"),
		"sealed": sealed,
	}
}

func TestStorage_Conformance(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := st.Get("session.token")
			require.NoError(t, err)
			assert.False(t, ok, "fresh store should be empty")

			require.NoError(t, st.Set("session.token", "abc"))
			v, ok, err := st.Get("session.token")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "abc", v)

			// Set overwrites and is idempotent.
			require.NoError(t, st.Set("session.token", "def"))
			require.NoError(t, st.Set("session.token", "def"))
			v, _, _ = st.Get("session.token")
			assert.Equal(t, "def", v)

			require.NoError(t, st.Remove("session.token"))
			_, ok, err = st.Get("session.token")
			require.NoError(t, err)
			assert.False(t, ok)

			// Remove of a missing key succeeds.
			require.NoError(t, st.Remove("session.token"))
			require.NoError(t, st.Remove("never.set"))
		})
	}
}

// =============================================================================
// FILE
// =============================================================================

func TestFile_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	a, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, a.Set("session.user", `{"user_id":"1"}`))

	b, err := NewFile(path)
	require.NoError(t, err)
	v, ok, err := b.Get("session.user")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"user_id":"1"}`, v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFile_RemovingLastKeyDeletesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	f, err := NewFile(path)
	require.NoError(t, err)

	require.NoError(t, f.Set("k", "v"))
	require.NoError(t, f.Remove("k"))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	f, err := NewFile(path)
	require.NoError(t, err)

	_, _, err = f.Get("session.token")
	require.ErrorIs(t, err, ErrCorrupt)

	// Remove replaces the corrupt file.
	require.NoError(t, f.Remove("session.token"))
	_, ok, err := f.Get("session.token")
	require.NoError(t, err)
	assert.False(t, ok)

	// Set over a corrupt file also recovers.
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0600))
	require.NoError(t, f.Set("a", "b"))
	v, _, err := f.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

func TestFile_WatchReportsExternalRemoval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	f, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Set("session.token", "abc"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 16)
	require.NoError(t, f.Watch(ctx, func() { changed <- struct{}{} }))

	// A second instance stands in for another process.
	other, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, other.Remove("session.token"))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification")
	}
}

// =============================================================================
// SEALED
// =============================================================================

func TestSealed_ValuesAreEncryptedAtRest(t *testing.T) {
	inner := NewMemory()
	s, err := NewSealedWithIterations(inner, "pass", 1000)
	require.NoError(t, err)

	require.NoError(t, s.Set("session.token", "secret-token"))

	raw, ok, err := inner.Get("session.token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(raw, EncryptedPrefix))
	assert.NotContains(t, raw, "secret-token")

	_, ok, _ = inner.Get(SaltKey)
	assert.True(t, ok, "salt should be stored alongside")
}

func TestSealed_SameSaltAcrossInstances(t *testing.T) {
	inner := NewMemory()
	a, err := NewSealedWithIterations(inner, "pass", 1000)
	require.NoError(t, err)
	require.NoError(t, a.Set("k", "v"))

	b, err := NewSealedWithIterations(inner, "pass", 1000)
	require.NoError(t, err)
	v, ok, err := b.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestSealed_WrongPassphrase(t *testing.T) {
	inner := NewMemory()
	a, err := NewSealedWithIterations(inner, "right", 1000)
	require.NoError(t, err)
	require.NoError(t, a.Set("k", "v"))

	b, err := NewSealedWithIterations(inner, "wrong", 1000)
	require.NoError(t, err)
	_, _, err = b.Get("k")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestSealed_RejectsPlaintextAndMovedValues(t *testing.T) {
	inner := NewMemory()
	s, err := NewSealedWithIterations(inner, "pass", 1000)
	require.NoError(t, err)

	require.NoError(t, inner.Set("plain", "not sealed"))
	_, _, err = s.Get("plain")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	require.NoError(t, s.Set("a", "value"))
	raw, _, _ := inner.Get("a")
	require.NoError(t, inner.Set("b", raw))
	_, _, err = s.Get("b")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestSealed_EmptyPassphrase(t *testing.T) {
	_, err := NewSealed(NewMemory(), "")
	assert.ErrorIs(t, err, ErrEmptyPassphrase)
}

// =============================================================================
// OPEN
// =============================================================================

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"memory", Options{Backend: BackendMemory}, false},
		{"file", Options{Backend: BackendFile, Path: filepath.Join(dir, "s.json")}, false},
		{"default is file", Options{Path: filepath.Join(dir, "d.json")}, false},
		{"sqlite", Options{Backend: BackendSQLite, Path: filepath.Join(dir, "s.db")}, false},
		{"unknown", Options{Backend: "etcd"}, true},
		{"file without path", Options{Backend: BackendFile}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := Open(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, Close(st))
		})
	}
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	st, err := Open(Options{Backend: BackendRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	defer Close(st)

	require.NoError(t, st.Set("session.token", "abc"))
	got, err := mr.Get(DefaultRedisPrefix + "session.token")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}
