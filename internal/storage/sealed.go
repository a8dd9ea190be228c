// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// =============================================================================
// SEALED STORAGE - ENCRYPTION AT REST
// =============================================================================

const (
	// EncryptedPrefix marks a sealed value (format: ENC:base64(nonce|ciphertext|tag)).
	EncryptedPrefix = "ENC:"

	// SaltKey holds the base64 PBKDF2 salt inside the wrapped store.
	SaltKey = "storage.salt"

	// PBKDF2Iterations per OWASP 2023 guidance for PBKDF2-SHA-256.
	PBKDF2Iterations = 600000

	saltSize = 32
	keySize  = 32
)

var (
	// ErrInvalidCiphertext indicates a stored value is not in sealed format.
	ErrInvalidCiphertext = errors.New("storage: invalid ciphertext format")
	// ErrDecryptionFailed indicates a wrong passphrase or tampered data.
	ErrDecryptionFailed = errors.New("storage: decryption failed")
	// ErrEmptyPassphrase is returned when sealing is requested without a passphrase.
	ErrEmptyPassphrase = errors.New("storage: empty seal passphrase")
)

// Sealed encrypts every value with AES-256-GCM before handing it to the
// wrapped store. The storage key is bound as additional data, so a value
// copied under another key fails to open.
type Sealed struct {
	inner Storage
	aead  cipher.AEAD
}

// NewSealed wraps inner using a key derived from passphrase with the
// default iteration count.
func NewSealed(inner Storage, passphrase string) (*Sealed, error) {
	return NewSealedWithIterations(inner, passphrase, PBKDF2Iterations)
}

// NewSealedWithIterations is NewSealed with an explicit PBKDF2 cost.
func NewSealedWithIterations(inner Storage, passphrase string, iterations int) (*Sealed, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	salt, err := loadOrCreateSalt(inner)
	if err != nil {
		return nil, err
	}

	key := pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New)
	// SECURITY: zero key material once the cipher holds its own copy
	defer func() {
		for i := range key {
			key[i] = 0
		}
	}()

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Sealed{inner: inner, aead: aead}, nil
}

func loadOrCreateSalt(inner Storage) ([]byte, error) {
	encoded, ok, err := inner.Get(SaltKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read salt: %w", err)
	}
	if ok {
		salt, err := base64.StdEncoding.DecodeString(encoded)
		if err == nil && len(salt) == saltSize {
			return salt, nil
		}
		// An unreadable salt makes every sealed value unreadable; start over.
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := inner.Set(SaltKey, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("failed to store salt: %w", err)
	}
	return salt, nil
}

// Get implements Storage.
func (s *Sealed) Get(key string) (string, bool, error) {
	raw, ok, err := s.inner.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}
	plain, err := s.open(key, raw)
	if err != nil {
		return "", false, fmt.Errorf("%q: %w", key, err)
	}
	return plain, true, nil
}

// Set implements Storage.
func (s *Sealed) Set(key, value string) error {
	sealed, err := s.seal(key, value)
	if err != nil {
		return err
	}
	return s.inner.Set(key, sealed)
}

// Remove implements Storage.
func (s *Sealed) Remove(key string) error {
	return s.inner.Remove(key)
}

// Close closes the wrapped store.
func (s *Sealed) Close() error {
	return Close(s.inner)
}

func (s *Sealed) seal(key, value string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

func (s *Sealed) open(key, raw string) (string, error) {
	if !strings.HasPrefix(raw, EncryptedPrefix) {
		return "", ErrInvalidCiphertext
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(raw, EncryptedPrefix))
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	ns := s.aead.NonceSize()
	if len(data) < ns+s.aead.Overhead() {
		return "", ErrInvalidCiphertext
	}
	plain, err := s.aead.Open(nil, data[:ns], data[ns:], []byte(key))
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plain), nil
}
