// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - Machine-readable output for --json.
//
// Human-readable messages go to stderr when JSON mode is enabled so stdout
// stays parseable.

package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the envelope every command writes in JSON mode.
type JSONResponse struct {
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data any `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Details classifies the error for scripts.
	Details map[string]string `json:"details,omitempty"`

	// Timestamp is the RFC 3339 time the response was generated
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Details:   errorDetails(err),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// StatusData is returned by the status command.
type StatusData struct {
	SignedIn    bool       `json:"signed_in"`
	UserID      string     `json:"user_id,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	Email       string     `json:"email,omitempty"`
	IssuedAt    *time.Time `json:"issued_at,omitempty"`
	Backend     string     `json:"backend"`
	Sealed      bool       `json:"sealed"`

	InactivityTimeoutSecs int    `json:"inactivity_timeout_secs"`
	WarningSecs           int    `json:"warning_secs"`
	ResumePolicy          string `json:"resume_policy"`
}

// LoginData is returned by the login command.
type LoginData struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Episode     string `json:"episode"`
}

// LogoutData is returned by the logout command.
type LogoutData struct {
	WasSignedIn bool   `json:"was_signed_in"`
	UserID      string `json:"user_id,omitempty"`
}

// TokenData is returned by the token command.
type TokenData struct {
	Token     string     `json:"token"`
	UserID    string     `json:"user_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ConfigPathData is returned by config path.
type ConfigPathData struct {
	Dir      string `json:"dir"`
	TOML     string `json:"toml"`
	JSON     string `json:"json"`
	Storage  string `json:"storage,omitempty"`
	Log      string `json:"log"`
	AuditLog string `json:"audit_log"`
}

// VersionData is returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}
