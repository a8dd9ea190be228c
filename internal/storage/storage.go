// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the key-value persistence used for the session.
package storage

import (
	"errors"
	"sync"
)

// =============================================================================
// STORAGE INTERFACE
// =============================================================================

// Storage is a flat string key-value store.
//
// Get reports whether the key exists. Set overwrites. Remove is idempotent
// and succeeds when the key is absent.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Closer is implemented by backends holding connections or file handles.
type Closer interface {
	Close() error
}

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage: closed")

// Close closes s if it holds resources.
func Close(s Storage) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}

// =============================================================================
// MEMORY STORAGE
// =============================================================================

// Memory is an in-process Storage. It does not survive restarts and is used
// for tests and --ephemeral runs.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get implements Storage.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements Storage.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Remove implements Storage.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
