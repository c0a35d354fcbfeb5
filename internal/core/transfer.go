// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/econbot/econbot/internal/db"
	"github.com/econbot/econbot/internal/logging"
	"github.com/econbot/econbot/internal/metrics"
	"github.com/econbot/econbot/internal/model"
)

// DefaultPendingTTL bounds how long a pooled transfer may wait.
const DefaultPendingTTL = 10 * time.Minute

// Emitter publishes ledger events after a transfer committed or failed.
type Emitter interface {
	Emit(ctx context.Context, ev model.LedgerEvent) error
}

// PendingQueue accepts pending transfer ids for asynchronous processing.
type PendingQueue interface {
	Enqueue(id string)
}

// TransferOptions are the guild-independent transfer rules.
type TransferOptions struct {
	// PoolEnabled routes member transfers through the event pool.
	PoolEnabled bool
	// DailyLimit caps the sum of member transfers sent per UTC day. 0 disables it.
	DailyLimit int64
	// Cooldown is the minimum gap between two transfers of one member.
	Cooldown   time.Duration
	PendingTTL time.Duration
}

// TransferOutcome is either a committed transfer or a pending one.
type TransferOutcome struct {
	Result  *model.TransferResult
	Pending *model.PendingTransfer
}

// Queued reports whether the transfer went to the event pool.
func (o TransferOutcome) Queued() bool { return o.Pending != nil }

// TransferService moves funds between members.
type TransferService struct {
	economy db.EconomyGateway
	pending db.PendingTransferGateway
	emitter Emitter
	queue   PendingQueue
	clock   Clock
	opts    TransferOptions
	log     *logging.Logger
}

// NewTransferService wires the service. emitter may be nil.
func NewTransferService(economy db.EconomyGateway, pending db.PendingTransferGateway, emitter Emitter, opts TransferOptions, clock Clock) *TransferService {
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = DefaultPendingTTL
	}
	return &TransferService{
		economy: economy,
		pending: pending,
		emitter: emitter,
		clock:   clockOrSystem(clock),
		opts:    opts,
		log:     logging.For("transfer"),
	}
}

// SetQueue attaches the event pool. Pending transfers created before a queue
// is set are picked up by the next sweep.
func (s *TransferService) SetQueue(q PendingQueue) { s.queue = q }

// Options returns the active transfer rules.
func (s *TransferService) Options() TransferOptions { return s.opts }

func validateMemberTransfer(actor Actor, targetID string, amount int64, reason string) error {
	targetID = strings.TrimSpace(targetID)
	switch {
	case targetID == "":
		return invalid("target", "is required")
	case strings.Contains(targetID, ":"):
		return invalid("target", "must be a guild member")
	case targetID == actor.UserID:
		return invalid("target", "cannot transfer to yourself")
	case amount <= 0:
		return invalid("amount", "must be positive")
	}
	return checkReason(reason)
}

func (s *TransferService) request(guildID, initiatorID, targetID string, amount int64, reason, actorID string) model.TransferRequest {
	return model.TransferRequest{
		GuildID:       guildID,
		InitiatorID:   initiatorID,
		TargetID:      targetID,
		Amount:        amount,
		Kind:          model.KindTransfer,
		Reason:        reason,
		ActorID:       actorID,
		Cooldown:      s.opts.Cooldown,
		DailyLimit:    s.opts.DailyLimit,
		TrackThrottle: true,
		Now:           s.clock.Now(),
	}
}

// Transfer sends amount from the actor to targetID. With the event pool
// enabled the transfer is stored as pending and processed asynchronously;
// the outcome is then reported through the telemetry channel using
// interactionToken.
func (s *TransferService) Transfer(ctx context.Context, actor Actor, targetID string, amount int64, reason, interactionToken string) (TransferOutcome, error) {
	if err := validateMemberTransfer(actor, targetID, amount, reason); err != nil {
		metrics.RecordTransfer(s.mode(), "invalid", 0)
		return TransferOutcome{}, err
	}
	if s.opts.PoolEnabled {
		return s.enqueue(ctx, actor, targetID, amount, reason, interactionToken)
	}

	start := time.Now()
	res, err := s.economy.Transfer(ctx, s.request(actor.GuildID, actor.UserID, targetID, amount, reason, actor.UserID))
	metrics.RecordTransfer("direct", resultLabel(err), time.Since(start))
	if err != nil {
		return TransferOutcome{}, err
	}
	s.emit(ctx, successEvent(res, "", ""))
	return TransferOutcome{Result: &res}, nil
}

func (s *TransferService) mode() string {
	if s.opts.PoolEnabled {
		return "pool"
	}
	return "direct"
}

func (s *TransferService) enqueue(ctx context.Context, actor Actor, targetID string, amount int64, reason, token string) (TransferOutcome, error) {
	now := s.clock.Now()
	p, err := s.pending.CreatePendingTransfer(ctx, model.PendingTransfer{
		GuildID:          actor.GuildID,
		InitiatorID:      actor.UserID,
		TargetID:         targetID,
		Amount:           amount,
		Reason:           reason,
		InteractionToken: token,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.opts.PendingTTL),
	})
	if err != nil {
		return TransferOutcome{}, err
	}
	metrics.RecordTransfer("pool", "queued", 0)
	s.log.Debug("transfer queued", "pending_id", p.ID, "guild_id", p.GuildID)
	if s.queue != nil {
		s.queue.Enqueue(p.ID)
	}
	return TransferOutcome{Pending: &p}, nil
}

// CheckPending evaluates and stores the preconditions of a pending transfer
// without executing it.
func (s *TransferService) CheckPending(ctx context.Context, id string) (model.PendingTransfer, error) {
	p, err := s.pending.GetPendingTransfer(ctx, id)
	if err != nil {
		return model.PendingTransfer{}, err
	}
	if !p.Open() {
		return p, nil
	}
	checks, err := s.economy.CheckTransfer(ctx, s.request(p.GuildID, p.InitiatorID, p.TargetID, p.Amount, p.Reason, p.InitiatorID))
	if err != nil {
		return model.PendingTransfer{}, err
	}
	p.Checks = checks
	if err := s.pending.UpdatePendingTransfer(ctx, p); err != nil {
		return model.PendingTransfer{}, err
	}
	return p, nil
}

// ProcessPending runs a pending transfer to completion when it can. A
// transfer past its expiry is expired; one that fails the balance or daily
// limit check is rejected; one blocked only by the cooldown stays pending
// so the caller can retry it later. The returned transfer carries the
// resulting status.
func (s *TransferService) ProcessPending(ctx context.Context, id string) (model.PendingTransfer, error) {
	p, err := s.pending.GetPendingTransfer(ctx, id)
	if err != nil {
		return model.PendingTransfer{}, err
	}
	if !p.Open() {
		return p, nil
	}
	now := s.clock.Now()
	if !now.Before(p.ExpiresAt) {
		p.Status = model.PendingStatusExpired
		p.FailureReason = "expired"
		if err := s.finishPending(ctx, p); err != nil {
			return model.PendingTransfer{}, err
		}
		metrics.RecordTransfer("pool", "expired", 0)
		s.emit(ctx, pendingEvent(p, model.EventPendingExpired, now))
		return p, nil
	}

	req := s.request(p.GuildID, p.InitiatorID, p.TargetID, p.Amount, p.Reason, p.InitiatorID)
	checks, err := s.economy.CheckTransfer(ctx, req)
	if err != nil {
		return model.PendingTransfer{}, err
	}
	p.Checks = checks
	switch {
	case !checks.Balance:
		return s.reject(ctx, p, "insufficient_funds", now)
	case !checks.DailyLimit:
		return s.reject(ctx, p, "daily_limit", now)
	case !checks.Cooldown:
		if err := s.pending.UpdatePendingTransfer(ctx, p); err != nil {
			return model.PendingTransfer{}, err
		}
		return p, nil
	}

	start := time.Now()
	res, err := s.economy.Transfer(ctx, req)
	metrics.RecordTransfer("pool", resultLabel(err), time.Since(start))
	switch {
	case err == nil:
	case errors.Is(err, ErrThrottled):
		p.Checks.Cooldown = false
		if uerr := s.pending.UpdatePendingTransfer(ctx, p); uerr != nil {
			return model.PendingTransfer{}, uerr
		}
		return p, nil
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrDailyLimitExceeded), errors.Is(err, ErrValidation):
		return s.reject(ctx, p, resultLabel(err), now)
	default:
		return model.PendingTransfer{}, err
	}

	p.Status = model.PendingStatusCompleted
	p.TransactionID = res.TransactionID
	if err := s.finishPending(ctx, p); err != nil {
		// The ledger row is committed; losing the status update only delays
		// cleanup by the sweep.
		s.log.Error("pending transfer completed but status update failed", "pending_id", p.ID, "transaction_id", res.TransactionID, "err", err)
	}
	s.emit(ctx, successEvent(res, p.ID, p.InteractionToken))
	return p, nil
}

func (s *TransferService) reject(ctx context.Context, p model.PendingTransfer, reason string, now time.Time) (model.PendingTransfer, error) {
	p.Status = model.PendingStatusRejected
	p.FailureReason = reason
	if err := s.finishPending(ctx, p); err != nil {
		return model.PendingTransfer{}, err
	}
	s.emit(ctx, pendingEvent(p, model.EventTransactionFailure, now))
	return p, nil
}

func (s *TransferService) finishPending(ctx context.Context, p model.PendingTransfer) error {
	err := s.pending.UpdatePendingTransfer(ctx, p)
	if err != nil {
		return err
	}
	s.log.Info("pending transfer finished", "pending_id", p.ID, "status", p.Status, "reason", p.FailureReason)
	return nil
}

func (s *TransferService) emit(ctx context.Context, ev model.LedgerEvent) {
	emitLogged(ctx, s.emitter, s.log, ev)
}

// emitLogged publishes ev when an emitter is configured. A failed emit does
// not undo the committed transaction, so it is only logged.
func emitLogged(ctx context.Context, e Emitter, log *logging.Logger, ev model.LedgerEvent) {
	if e == nil {
		return
	}
	if err := e.Emit(ctx, ev); err != nil {
		log.Warn("ledger event not emitted", "event_type", ev.EventType, "transaction_id", ev.TransactionID, "err", err)
	}
}

func successEvent(res model.TransferResult, pendingID, token string) model.LedgerEvent {
	return model.LedgerEvent{
		EventType:        model.EventTransactionSuccess,
		TransactionID:    res.TransactionID,
		PendingID:        pendingID,
		GuildID:          res.GuildID,
		InitiatorID:      res.InitiatorID,
		TargetID:         res.TargetID,
		Amount:           res.Amount,
		Kind:             res.Kind,
		Reason:           res.Reason,
		InteractionToken: token,
		OccurredAt:       res.CreatedAt,
	}
}

func pendingEvent(p model.PendingTransfer, eventType string, now time.Time) model.LedgerEvent {
	return model.LedgerEvent{
		EventType:        eventType,
		PendingID:        p.ID,
		GuildID:          p.GuildID,
		InitiatorID:      p.InitiatorID,
		TargetID:         p.TargetID,
		Amount:           p.Amount,
		Kind:             model.KindTransfer,
		Reason:           p.FailureReason,
		InteractionToken: p.InteractionToken,
		OccurredAt:       now,
	}
}

// resultLabel classifies a transfer error for metrics and failure reasons.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrThrottled):
		return "throttled"
	case errors.Is(err, ErrDailyLimitExceeded):
		return "daily_limit"
	case errors.Is(err, ErrValidation):
		return "invalid"
	}
	return "error"
}
