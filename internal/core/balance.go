// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/econbot/econbot/internal/db"
	"github.com/econbot/econbot/internal/model"
)

// History page bounds.
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
	maxReasonLength     = 200
)

// BalanceService reads balances and history and applies admin adjustments.
type BalanceService struct {
	economy db.EconomyGateway
}

// NewBalanceService returns a service over the economy gateway.
func NewBalanceService(economy db.EconomyGateway) *BalanceService {
	return &BalanceService{economy: economy}
}

func resolveTarget(actor Actor, targetID string) string {
	if strings.TrimSpace(targetID) == "" {
		return actor.UserID
	}
	return targetID
}

func checkReason(reason string) error {
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return invalid("reason", "must be at most %d characters", maxReasonLength)
	}
	return nil
}

// GetBalance returns the balance of targetID, or of the actor when empty.
// Viewing another member requires admin.
func (s *BalanceService) GetBalance(ctx context.Context, actor Actor, targetID string) (model.BalanceSnapshot, error) {
	target := resolveTarget(actor, targetID)
	if target != actor.UserID && !actor.IsAdmin {
		return model.BalanceSnapshot{}, denied("view another member's balance", "administrator")
	}
	return s.economy.GetBalance(ctx, actor.GuildID, target)
}

// GetHistory returns one page of targetID's ledger, newest first.
func (s *BalanceService) GetHistory(ctx context.Context, actor Actor, targetID string, limit int, cursor string) (model.HistoryPage, error) {
	target := resolveTarget(actor, targetID)
	if target != actor.UserID && !actor.IsAdmin {
		return model.HistoryPage{}, denied("view another member's history", "administrator")
	}
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	if limit < 1 || limit > MaxHistoryLimit {
		return model.HistoryPage{}, invalid("limit", "must be between 1 and %d", MaxHistoryLimit)
	}
	return s.economy.GetHistory(ctx, actor.GuildID, target, limit, cursor)
}

// Adjust credits or debits targetID. Admin only; the balance never goes
// below zero.
func (s *BalanceService) Adjust(ctx context.Context, actor Actor, targetID string, delta int64, reason string) (model.BalanceSnapshot, error) {
	if !actor.IsAdmin {
		return model.BalanceSnapshot{}, denied("adjust balances", "administrator")
	}
	if strings.TrimSpace(targetID) == "" {
		return model.BalanceSnapshot{}, invalid("target", "is required")
	}
	if delta == 0 {
		return model.BalanceSnapshot{}, invalid("amount", "must not be zero")
	}
	if err := checkReason(reason); err != nil {
		return model.BalanceSnapshot{}, err
	}
	if _, err := s.economy.AdjustBalance(ctx, actor.GuildID, targetID, delta, actor.UserID, reason); err != nil {
		return model.BalanceSnapshot{}, err
	}
	return s.economy.GetBalance(ctx, actor.GuildID, targetID)
}
