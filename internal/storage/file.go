// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/todo-tui/internal/util"
)

// =============================================================================
// FILE STORAGE
// =============================================================================

// ErrCorrupt indicates the backing file exists but is not a JSON object.
var ErrCorrupt = errors.New("storage: corrupt file")

// File stores all keys in one JSON object on disk.
//
// Every call re-reads the file so that changes made by another process
// (for example `todo-tui logout` in a second shell) are observed.
// SECURITY: the file is written with 0600 permissions.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a file-backed store at path. The file is created lazily.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("storage: empty file path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage path: %w", err)
	}
	return &File{path: abs}, nil
}

// Path returns the absolute path of the backing file.
func (f *File) Path() string {
	return f.path
}

func (f *File) readLocked() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}
	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	return values, nil
}

// readForWriteLocked treats a corrupt file as empty; the next write replaces it.
func (f *File) readForWriteLocked() (map[string]string, error) {
	values, err := f.readLocked()
	if errors.Is(err, ErrCorrupt) {
		return map[string]string{}, nil
	}
	return values, err
}

func (f *File) writeLocked(values map[string]string) error {
	if len(values) == 0 {
		err := os.Remove(f.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", f.path, err)
		}
		return nil
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage: %w", err)
	}
	// RELIABILITY: atomic write so a crash never leaves half a session behind
	if err := util.AtomicWriteFileWithDir(f.path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

// Get implements Storage.
func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readLocked()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set implements Storage.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readForWriteLocked()
	if err != nil {
		return err
	}
	values[key] = value
	return f.writeLocked(values)
}

// Remove implements Storage. A corrupt file is replaced even when the key
// is not found in it.
func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readLocked()
	corrupt := errors.Is(err, ErrCorrupt)
	if err != nil && !corrupt {
		return err
	}
	if corrupt {
		values = map[string]string{}
	} else if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.writeLocked(values)
}

// =============================================================================
// CHANGE NOTIFICATION
// =============================================================================

// Watch calls onChange whenever the backing file is written, created,
// removed or replaced, until ctx is cancelled. Writes made through this
// store are reported too; callers re-read and compare.
//
// The parent directory is watched rather than the file itself because
// atomic writes replace the file by rename.
func (f *File) Watch(ctx context.Context, onChange func()) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != f.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					onChange()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}
