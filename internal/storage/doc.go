// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the key-value persistence behind the session store.
//
// Every backend implements the same three-call Storage interface, so the
// session layer only ever sees opaque string values.
//
// # Backends
//
//   - Memory: in-process map (tests, --ephemeral)
//   - File: a single JSON object written atomically, with fsnotify-based Watch
//   - SQLite: a kv table in a local database (modernc.org/sqlite)
//   - Redis: keys under a prefix on a Redis server
//   - Sealed: AES-256-GCM wrapper around any backend (SC-28 at rest)
//
// # Usage
//
//	st, err := storage.Open(storage.Options{Backend: "file", Path: path})
//	if err != nil {
//	    return err
//	}
//	defer storage.Close(st)
//
//	_ = st.Set("session.token", token)
//	v, ok, err := st.Get("session.token")
//
// # Storage Location
//
// The file and sqlite backends live in ~/.todo-tui/ by default.
package storage
