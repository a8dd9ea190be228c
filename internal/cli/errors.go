// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes shared by every command.
//
// Handlers always return errors; main decides how to display them and
// which exit code to use.

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/todo-tui/internal/config"
	"github.com/jeranaias/todo-tui/internal/session"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2 // bad command line
	ExitConfigError  = 3 // config file or settings
	ExitAuthError    = 4 // not signed in, invalid credentials
	ExitStorageError = 5 // session storage unreachable
)

// ErrNotSignedIn is returned by commands that need a persisted session.
var ErrNotSignedIn = errors.New("not signed in (run: todo-tui login)")

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "login")
	Action  string // Action being performed (e.g., "open storage")
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid --%s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	return msg
}

// UsageError is an unknown command or a missing argument.
type UsageError struct {
	Message    string
	Suggestion string // closest known command, if any
}

func (e *UsageError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (did you mean %q?)", e.Message, e.Suggestion)
	}
	return e.Message
}

// storageError marks failures talking to the session backend.
type storageError struct {
	err error
}

func (e *storageError) Error() string { return "session storage: " + e.err.Error() }
func (e *storageError) Unwrap() error { return e.err }

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		usageErr      *UsageError
		validationErr *ValidationError
		configErrs    config.ValidateErrors
		storageErr    *storageError
	)
	switch {
	case errors.As(err, &usageErr), errors.As(err, &validationErr):
		return ExitUsageError
	case errors.As(err, &configErrs):
		return ExitConfigError
	case errors.Is(err, ErrNotSignedIn), errors.Is(err, session.ErrInvalidSession):
		return ExitAuthError
	case errors.As(err, &storageErr):
		return ExitStorageError
	default:
		return ExitGeneralError
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w, as a JSON response in JSON mode.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		_ = NewJSONErrorResponse(command, err).Write(w)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[Error]"), err.Error())
}

// errorDetails is the machine-readable part of a JSON error.
func errorDetails(err error) map[string]string {
	details := map[string]string{"type": "error"}

	var (
		usageErr      *UsageError
		validationErr *ValidationError
	)
	switch {
	case errors.As(err, &validationErr):
		details["type"] = "validation_error"
		details["field"] = validationErr.Field
	case errors.As(err, &usageErr):
		details["type"] = "usage_error"
		if usageErr.Suggestion != "" {
			details["suggestion"] = usageErr.Suggestion
		}
	case errors.Is(err, ErrNotSignedIn):
		details["type"] = "not_signed_in"
	}
	return details
}
