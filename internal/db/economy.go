// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/econbot/econbot/internal/model"
	"github.com/uptrace/bun"
)

const maxHistoryPage = 100

// GetBalance returns the member's balance, creating a zero account on first read.
func (s *BunStore) GetBalance(ctx context.Context, guildID, memberID string) (model.BalanceSnapshot, error) {
	if err := s.ensureAccount(ctx, s.bun, guildID, memberID, s.nowUTC()); err != nil {
		return model.BalanceSnapshot{}, MapDBError(err)
	}
	row, err := readBalance(ctx, s.bun, guildID, memberID)
	if err != nil {
		return model.BalanceSnapshot{}, MapDBError(err)
	}
	return balanceModelToModel(row), nil
}

func readBalance(ctx context.Context, db bun.IDB, guildID, memberID string) (BalanceModel, error) {
	var row BalanceModel
	err := db.NewSelect().Model(&row).
		Where("guild_id = ?", guildID).
		Where("member_id = ?", memberID).
		Limit(1).
		Scan(ctx)
	return row, err
}

// sumBalances returns balances for several accounts of one guild. Accounts
// without a row are reported as zero.
func (s *BunStore) sumBalances(ctx context.Context, guildID string, accountIDs []string) (map[string]int64, error) {
	if len(accountIDs) == 0 {
		return map[string]int64{}, nil
	}
	var rows []BalanceModel
	err := s.bun.NewSelect().Model(&rows).
		Where("guild_id = ?", guildID).
		Where("member_id IN (?)", bun.In(accountIDs)).
		Scan(ctx)
	if err != nil {
		return nil, MapDBError(err)
	}
	out := make(map[string]int64, len(accountIDs))
	for _, id := range accountIDs {
		out[id] = 0
	}
	for _, r := range rows {
		out[r.MemberID] = r.Balance
	}
	return out, nil
}

// AccountBalances returns the balances of the given accounts.
func (s *BunStore) AccountBalances(ctx context.Context, guildID string, accountIDs ...string) (map[string]int64, error) {
	return s.sumBalances(ctx, guildID, accountIDs)
}

// EncodeCursor builds the opaque history cursor for the entry at id.
func EncodeCursor(createdAt time.Time, id int64) string {
	raw := strconv.FormatInt(createdAt.UnixNano(), 10) + ":" + strconv.FormatInt(id, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a cursor produced by EncodeCursor.
func DecodeCursor(cursor string) (time.Time, int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: malformed cursor", model.ErrValidation)
	}
	ts, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return time.Time{}, 0, fmt.Errorf("%w: malformed cursor", model.ErrValidation)
	}
	nanos, err1 := strconv.ParseInt(ts, 10, 64)
	txID, err2 := strconv.ParseInt(id, 10, 64)
	if err1 != nil || err2 != nil || txID <= 0 {
		return time.Time{}, 0, fmt.Errorf("%w: malformed cursor", model.ErrValidation)
	}
	return time.Unix(0, nanos).UTC(), txID, nil
}

// GetHistory returns ledger entries touching the member, newest first.
func (s *BunStore) GetHistory(ctx context.Context, guildID, memberID string, limit int, cursor string) (model.HistoryPage, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > maxHistoryPage {
		limit = maxHistoryPage
	}

	var rows []TransactionModel
	q := s.bun.NewSelect().Model(&rows).
		Where("guild_id = ?", guildID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("initiator_id = ?", memberID).WhereOr("target_id = ?", memberID)
		})
	if cursor != "" {
		_, beforeID, err := DecodeCursor(cursor)
		if err != nil {
			return model.HistoryPage{}, err
		}
		q = q.Where("id < ?", beforeID)
	}
	if err := q.OrderExpr("id DESC").Limit(limit + 1).Scan(ctx); err != nil {
		return model.HistoryPage{}, MapDBError(err)
	}

	page := model.HistoryPage{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		page.NextCursor = EncodeCursor(last.CreatedAt, last.ID)
	}
	for _, r := range rows {
		dir := model.DirectionIn
		if r.InitiatorID == memberID {
			dir = model.DirectionOut
		}
		page.Entries = append(page.Entries, model.HistoryEntry{
			TransactionID: r.ID,
			GuildID:       r.GuildID,
			InitiatorID:   r.InitiatorID,
			TargetID:      r.TargetID,
			Amount:        r.Amount,
			Kind:          r.Kind,
			Reason:        r.Reason,
			Direction:     dir,
			CreatedAt:     r.CreatedAt.UTC(),
		})
	}
	return page, nil
}

// AdjustBalance credits (delta > 0) or debits (delta < 0) a member on behalf
// of an administrator. Debits never take the balance below zero.
func (s *BunStore) AdjustBalance(ctx context.Context, guildID, memberID string, delta int64, actorID, reason string) (model.TransferResult, error) {
	if delta == 0 {
		return model.TransferResult{}, fmt.Errorf("%w: adjustment must not be zero", model.ErrValidation)
	}
	now := s.nowUTC()
	var out model.TransferResult
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if delta > 0 {
			out, err = s.creditFromSystem(ctx, tx, guildID, memberID, delta, model.KindAdjustment, actorID, reason, now)
		} else {
			out, err = s.debitToSystem(ctx, tx, guildID, memberID, -delta, model.KindAdjustment, actorID, reason, now)
		}
		return err
	})
	return out, err
}

// Mint credits accountID with newly issued currency.
func (s *BunStore) Mint(ctx context.Context, guildID, accountID string, amount int64, actorID, reason string) (model.TransferResult, error) {
	if amount <= 0 {
		return model.TransferResult{}, fmt.Errorf("%w: amount must be positive", model.ErrValidation)
	}
	now := s.nowUTC()
	var out model.TransferResult
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		out, err = s.creditFromSystem(ctx, tx, guildID, accountID, amount, model.KindIssuance, actorID, reason, now)
		return err
	})
	return out, err
}

func (s *BunStore) creditFromSystem(ctx context.Context, tx bun.Tx, guildID, accountID string, amount int64, kind, actorID, reason string, now time.Time) (model.TransferResult, error) {
	if err := s.ensureAccount(ctx, tx, guildID, accountID, now); err != nil {
		return model.TransferResult{}, MapDBError(err)
	}
	if err := credit(ctx, tx, guildID, accountID, amount, now); err != nil {
		return model.TransferResult{}, err
	}
	return s.recordTransaction(ctx, tx, TransactionModel{
		GuildID: guildID, InitiatorID: model.SystemMintAccountID, TargetID: accountID,
		Amount: amount, Kind: kind, Reason: reason, ActorID: actorID, CreatedAt: now,
	})
}

func (s *BunStore) debitToSystem(ctx context.Context, tx bun.Tx, guildID, accountID string, amount int64, kind, actorID, reason string, now time.Time) (model.TransferResult, error) {
	if err := s.ensureAccount(ctx, tx, guildID, accountID, now); err != nil {
		return model.TransferResult{}, MapDBError(err)
	}
	res, err := ExecRaw(ctx, tx,
		"UPDATE balances SET balance = balance - ?, last_modified_at = ? WHERE guild_id = ? AND member_id = ? AND balance >= ?",
		amount, now, guildID, accountID, amount)
	if err != nil {
		return model.TransferResult{}, MapDBError(err)
	}
	if affected(res) == 0 {
		row, err := readBalance(ctx, tx, guildID, accountID)
		if err != nil {
			return model.TransferResult{}, MapDBError(err)
		}
		return model.TransferResult{}, fmt.Errorf("%w: balance %d, requested %d", model.ErrInsufficientFunds, row.Balance, amount)
	}
	return s.recordTransaction(ctx, tx, TransactionModel{
		GuildID: guildID, InitiatorID: accountID, TargetID: model.SystemBurnAccountID,
		Amount: amount, Kind: kind, Reason: reason, ActorID: actorID, CreatedAt: now,
	})
}

func credit(ctx context.Context, tx bun.Tx, guildID, accountID string, amount int64, now time.Time) error {
	_, err := ExecRaw(ctx, tx,
		"UPDATE balances SET balance = balance + ?, last_modified_at = ? WHERE guild_id = ? AND member_id = ?",
		amount, now, guildID, accountID)
	return MapDBError(err)
}

// recordTransaction appends the ledger row and fills in post-transfer balances.
func (s *BunStore) recordTransaction(ctx context.Context, tx bun.Tx, row TransactionModel) (model.TransferResult, error) {
	if _, err := tx.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return model.TransferResult{}, MapDBError(err)
	}
	out := model.TransferResult{
		TransactionID: row.ID,
		GuildID:       row.GuildID,
		InitiatorID:   row.InitiatorID,
		TargetID:      row.TargetID,
		Amount:        row.Amount,
		Kind:          row.Kind,
		Reason:        row.Reason,
		CreatedAt:     row.CreatedAt,
	}
	for _, side := range []struct {
		id  string
		dst *int64
	}{{row.InitiatorID, &out.InitiatorBalance}, {row.TargetID, &out.TargetBalance}} {
		if side.id == model.SystemMintAccountID || side.id == model.SystemBurnAccountID {
			continue
		}
		b, err := readBalance(ctx, tx, row.GuildID, side.id)
		if err != nil {
			return model.TransferResult{}, MapDBError(err)
		}
		*side.dst = b.Balance
	}
	return out, nil
}

func validateTransfer(req model.TransferRequest) error {
	switch {
	case req.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", model.ErrValidation)
	case req.InitiatorID == "" || req.TargetID == "":
		return fmt.Errorf("%w: initiator and target are required", model.ErrValidation)
	case req.InitiatorID == req.TargetID:
		return fmt.Errorf("%w: cannot transfer to the same account", model.ErrValidation)
	}
	return nil
}

func (s *BunStore) requestTime(req model.TransferRequest) time.Time {
	if req.Now.IsZero() {
		return s.nowUTC()
	}
	return dbTime(req.Now)
}

// Transfer moves funds between two accounts atomically. When TrackThrottle
// is set the initiator's cooldown window and daily limit are enforced.
func (s *BunStore) Transfer(ctx context.Context, req model.TransferRequest) (model.TransferResult, error) {
	if err := validateTransfer(req); err != nil {
		return model.TransferResult{}, err
	}
	if req.Kind == "" {
		req.Kind = model.KindTransfer
	}
	now := s.requestTime(req)

	var out model.TransferResult
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		out, err = s.transferTx(ctx, tx, req, now)
		return err
	})
	return out, err
}

func (s *BunStore) transferTx(ctx context.Context, tx bun.Tx, req model.TransferRequest, now time.Time) (model.TransferResult, error) {
	for _, id := range []string{req.InitiatorID, req.TargetID} {
		if err := s.ensureAccount(ctx, tx, req.GuildID, id, now); err != nil {
			return model.TransferResult{}, MapDBError(err)
		}
	}

	// The conditional debit also takes the initiator's row lock, which
	// serializes the daily limit check below per initiator.
	set := "balance = balance - ?, last_modified_at = ?"
	args := []interface{}{req.Amount, now}
	if req.TrackThrottle {
		set += ", last_transfer_at = ?"
		args = append(args, now)
		if req.Cooldown > 0 {
			set += ", throttle_until = ?"
			args = append(args, dbTime(now.Add(req.Cooldown)))
		}
	}
	where := "guild_id = ? AND member_id = ? AND balance >= ?"
	args = append(args, req.GuildID, req.InitiatorID, req.Amount)
	if req.TrackThrottle {
		where += " AND (throttle_until IS NULL OR throttle_until <= ?)"
		args = append(args, now)
	}
	res, err := ExecRaw(ctx, tx, "UPDATE balances SET "+set+" WHERE "+where, args...)
	if err != nil {
		return model.TransferResult{}, MapDBError(err)
	}
	if affected(res) == 0 {
		row, err := readBalance(ctx, tx, req.GuildID, req.InitiatorID)
		if err != nil {
			return model.TransferResult{}, MapDBError(err)
		}
		if req.TrackThrottle && row.ThrottleUntil.Valid && now.Before(row.ThrottleUntil.Time) {
			return model.TransferResult{}, &model.ThrottleError{Until: row.ThrottleUntil.Time.UTC()}
		}
		return model.TransferResult{}, fmt.Errorf("%w: balance %d, requested %d", model.ErrInsufficientFunds, row.Balance, req.Amount)
	}

	if req.TrackThrottle && req.DailyLimit > 0 {
		used, err := sumOutgoing(ctx, tx, req.GuildID, req.InitiatorID, dayStart(now))
		if err != nil {
			return model.TransferResult{}, err
		}
		if used+req.Amount > req.DailyLimit {
			return model.TransferResult{}, &model.LimitError{
				Limit: req.DailyLimit, Used: used, Requested: req.Amount, Err: model.ErrDailyLimitExceeded,
			}
		}
	}

	if err := credit(ctx, tx, req.GuildID, req.TargetID, req.Amount, now); err != nil {
		return model.TransferResult{}, err
	}
	return s.recordTransaction(ctx, tx, TransactionModel{
		GuildID: req.GuildID, InitiatorID: req.InitiatorID, TargetID: req.TargetID,
		Amount: req.Amount, Kind: req.Kind, Reason: req.Reason, ActorID: req.ActorID, CreatedAt: now,
	})
}

// sumOutgoing totals member-to-member transfers sent by memberID since t.
func sumOutgoing(ctx context.Context, db bun.IDB, guildID, memberID string, since time.Time) (int64, error) {
	var sum int64
	err := db.NewSelect().Model((*TransactionModel)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("guild_id = ?", guildID).
		Where("initiator_id = ?", memberID).
		Where("kind = ?", model.KindTransfer).
		Where("created_at >= ?", since).
		Scan(ctx, &sum)
	return sum, MapDBError(err)
}

// CheckTransfer evaluates balance, cooldown and daily limit for req without
// changing any state.
func (s *BunStore) CheckTransfer(ctx context.Context, req model.TransferRequest) (model.TransferChecks, error) {
	if err := validateTransfer(req); err != nil {
		return model.TransferChecks{}, err
	}
	now := s.requestTime(req)

	row, err := readBalance(ctx, s.bun, req.GuildID, req.InitiatorID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return model.TransferChecks{}, MapDBError(err)
		}
		row = BalanceModel{}
	}

	checks := model.TransferChecks{
		Balance:    row.Balance >= req.Amount,
		Cooldown:   !row.ThrottleUntil.Valid || !now.Before(row.ThrottleUntil.Time),
		DailyLimit: true,
	}
	if req.DailyLimit > 0 {
		used, err := sumOutgoing(ctx, s.bun, req.GuildID, req.InitiatorID, dayStart(now))
		if err != nil {
			return model.TransferChecks{}, err
		}
		checks.DailyLimit = used+req.Amount <= req.DailyLimit
	}
	return checks, nil
}

// ThrottleUntil returns the end of the member's cooldown window, or nil.
func (s *BunStore) ThrottleUntil(ctx context.Context, guildID, memberID string) (*time.Time, error) {
	row, err := readBalance(ctx, s.bun, guildID, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, MapDBError(err)
	}
	return nullTimePtr(row.ThrottleUntil), nil
}
