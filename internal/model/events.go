// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"strconv"
	"time"
)

// Ledger event types delivered through the telemetry channel.
const (
	EventTransactionSuccess = "transaction_success"
	EventTransactionFailure = "transaction_failure"
	EventPendingExpired     = "pending_expired"
)

// LedgerEvent is the NOTIFY payload emitted after ledger activity.
type LedgerEvent struct {
	EventType        string    `json:"event_type"`
	TransactionID    int64     `json:"transaction_id,omitempty"`
	PendingID        string    `json:"pending_id,omitempty"`
	GuildID          string    `json:"guild_id"`
	InitiatorID      string    `json:"initiator_id"`
	TargetID         string    `json:"target_id"`
	Amount           int64     `json:"amount"`
	Kind             string    `json:"kind,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	InteractionToken string    `json:"interaction_token,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// DedupKey identifies the event for duplicate suppression.
func (e LedgerEvent) DedupKey() string {
	if e.TransactionID > 0 {
		return "tx:" + strconv.FormatInt(e.TransactionID, 10)
	}
	return "pending:" + e.PendingID + ":" + e.EventType
}
