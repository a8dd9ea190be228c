// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Backends lists the valid backend names.
var Backends = []string{BackendFile, BackendSQLite, BackendRedis, BackendMemory}

// Options selects and configures a backend.
type Options struct {
	Backend     string
	Path        string // file and sqlite
	RedisAddr   string
	RedisPrefix string

	// SealPassphrase wraps the backend in Sealed when non-empty.
	SealPassphrase string
}

// Open builds the Storage described by opts.
func Open(opts Options) (Storage, error) {
	var (
		st  Storage
		err error
	)

	switch strings.ToLower(opts.Backend) {
	case BackendMemory:
		st = NewMemory()
	case BackendFile, "":
		st, err = NewFile(opts.Path)
	case BackendSQLite:
		st, err = NewSQLite(opts.Path)
	case BackendRedis:
		st, err = NewRedis(opts.RedisAddr, opts.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (valid: %s)",
			opts.Backend, strings.Join(Backends, ", "))
	}
	if err != nil {
		return nil, err
	}

	if opts.SealPassphrase == "" {
		return st, nil
	}
	sealed, err := NewSealed(st, opts.SealPassphrase)
	if err != nil {
		Close(st)
		return nil, fmt.Errorf("failed to seal storage: %w", err)
	}
	return sealed, nil
}
