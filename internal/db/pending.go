// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"

	"github.com/econbot/econbot/internal/model"
	"github.com/google/uuid"
)

// CreatePendingTransfer stores a transfer awaiting the event pool. A new id
// is assigned when p.ID is empty.
func (s *BunStore) CreatePendingTransfer(ctx context.Context, p model.PendingTransfer) (model.PendingTransfer, error) {
	if err := validateTransfer(model.TransferRequest{InitiatorID: p.InitiatorID, TargetID: p.TargetID, Amount: p.Amount}); err != nil {
		return model.PendingTransfer{}, err
	}
	now := s.nowUTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = model.PendingStatusPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.ExpiresAt.IsZero() {
		return model.PendingTransfer{}, fmt.Errorf("%w: pending transfer needs an expiry", model.ErrValidation)
	}

	row := pendingToModel(p)
	if _, err := s.bun.NewInsert().Model(&row).Exec(ctx); err != nil {
		return model.PendingTransfer{}, MapDBError(err)
	}
	return pendingModelToModel(row), nil
}

// GetPendingTransfer loads one pending transfer by id.
func (s *BunStore) GetPendingTransfer(ctx context.Context, id string) (model.PendingTransfer, error) {
	var row PendingTransferModel
	if err := s.bun.NewSelect().Model(&row).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.PendingTransfer{}, MapDBError(err)
	}
	return pendingModelToModel(row), nil
}

// ListPendingTransfers returns transfers in the given status, oldest first.
// An empty status lists every transfer.
func (s *BunStore) ListPendingTransfers(ctx context.Context, status string, limit int) ([]model.PendingTransfer, error) {
	var rows []PendingTransferModel
	q := s.bun.NewSelect().Model(&rows).OrderExpr("created_at ASC, id ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	out := make([]model.PendingTransfer, 0, len(rows))
	for _, r := range rows {
		out = append(out, pendingModelToModel(r))
	}
	return out, nil
}

// UpdatePendingTransfer persists status, checks and outcome of p.
// Transfers that already left the pending state are never modified again.
func (s *BunStore) UpdatePendingTransfer(ctx context.Context, p model.PendingTransfer) error {
	row := pendingToModel(p)
	row.UpdatedAt = s.nowUTC()
	res, err := s.bun.NewUpdate().Model(&row).
		Column("status", "check_balance", "check_cooldown", "check_daily_limit", "failure_reason", "transaction_id", "updated_at").
		Where("id = ?", p.ID).
		Where("status = ?", model.PendingStatusPending).
		Exec(ctx)
	if err != nil {
		return MapDBError(err)
	}
	if affected(res) == 0 {
		if _, err := s.GetPendingTransfer(ctx, p.ID); err != nil {
			return err
		}
		return fmt.Errorf("%w: pending transfer %s is no longer pending", model.ErrConflict, p.ID)
	}
	return nil
}
