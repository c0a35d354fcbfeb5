// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"fmt"

	"github.com/econbot/econbot/internal/model"
)

// Sentinel errors, shared with the gateway layer.
var (
	ErrNotFound           = model.ErrNotFound
	ErrValidation         = model.ErrValidation
	ErrPermissionDenied   = model.ErrPermissionDenied
	ErrInsufficientFunds  = model.ErrInsufficientFunds
	ErrThrottled          = model.ErrThrottled
	ErrDailyLimitExceeded = model.ErrDailyLimitExceeded
	ErrIssuanceLimit      = model.ErrIssuanceLimit
	ErrAlreadyVoted       = model.ErrAlreadyVoted
	ErrProposalClosed     = model.ErrProposalClosed
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PermissionError names the action that was refused and what it requires.
type PermissionError struct {
	Action   string
	Required string
}

func (e *PermissionError) Error() string {
	if e.Required == "" {
		return fmt.Sprintf("permission denied: %s", e.Action)
	}
	return fmt.Sprintf("permission denied: %s requires %s", e.Action, e.Required)
}

// Unwrap makes errors.Is(err, ErrPermissionDenied) hold.
func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

func denied(action, required string) error {
	return &PermissionError{Action: action, Required: required}
}
