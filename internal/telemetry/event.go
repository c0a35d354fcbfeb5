// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package telemetry carries ledger events from the service layer to the bot
// over Postgres NOTIFY/LISTEN, or over an in-process channel on backends
// without notifications.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/econbot/econbot/internal/model"
)

// Event is the JSON payload of one notification.
type Event = model.LedgerEvent

// Handler consumes decoded events.
type Handler interface {
	HandleLedgerEvent(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event) error

// HandleLedgerEvent calls f.
func (f HandlerFunc) HandleLedgerEvent(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Encode renders ev as a notification payload.
func Encode(ev Event) (string, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("encode ledger event: %w", err)
	}
	return string(b), nil
}

// Decode parses a notification payload. Events without a type or guild
// are rejected.
func Decode(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decode ledger event: %w", err)
	}
	if ev.EventType == "" || ev.GuildID == "" {
		return Event{}, fmt.Errorf("decode ledger event: missing event_type or guild_id")
	}
	return ev, nil
}
