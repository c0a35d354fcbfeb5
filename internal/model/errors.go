// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared by the gateway and service layers.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrThrottled          = errors.New("transfer throttled")
	ErrDailyLimitExceeded = errors.New("daily transfer limit exceeded")
	ErrIssuanceLimit      = errors.New("monthly issuance limit exceeded")
	ErrAlreadyVoted       = errors.New("already voted")
	ErrProposalClosed     = errors.New("proposal is closed")
	ErrConflict           = errors.New("conflict")
)

// ThrottleError carries the end of the cooldown window.
type ThrottleError struct {
	Until time.Time
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("transfer throttled until %s", e.Until.UTC().Format(time.RFC3339))
}

// Unwrap makes errors.Is(err, ErrThrottled) hold.
func (e *ThrottleError) Unwrap() error { return ErrThrottled }

// LimitError reports how much of a limit is already used.
type LimitError struct {
	Limit     int64
	Used      int64
	Requested int64
	Err       error
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%v: used %d of %d, requested %d", e.Err, e.Used, e.Limit, e.Requested)
}

func (e *LimitError) Unwrap() error { return e.Err }
