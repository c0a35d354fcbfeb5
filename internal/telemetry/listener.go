// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/econbot/econbot/internal/logging"
	"github.com/econbot/econbot/internal/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDedupSize bounds each duplicate-suppression set.
const DefaultDedupSize = 4096

// Listener decodes notifications from a Source and dispatches each event
// once to a Handler.
type Listener struct {
	src     Source
	handler Handler
	seen    *lru.Cache[string, struct{}]
	tokens  *lru.Cache[string, struct{}]
	log     *logging.Logger
}

// NewListener builds a listener remembering up to dedupSize events and
// interaction tokens.
func NewListener(src Source, handler Handler, dedupSize int) (*Listener, error) {
	if dedupSize <= 0 {
		dedupSize = DefaultDedupSize
	}
	seen, err := lru.New[string, struct{}](dedupSize)
	if err != nil {
		return nil, fmt.Errorf("dedup cache: %w", err)
	}
	tokens, err := lru.New[string, struct{}](dedupSize)
	if err != nil {
		return nil, fmt.Errorf("token cache: %w", err)
	}
	return &Listener{src: src, handler: handler, seen: seen, tokens: tokens, log: logging.For("telemetry")}, nil
}

// Run consumes notifications until ctx ends or the source closes.
func (l *Listener) Run(ctx context.Context) error {
	l.log.Info("telemetry listener started")
	defer l.log.Info("telemetry listener stopped")
	for {
		payload, err := l.src.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrSourceClosed) {
				return nil
			}
			return fmt.Errorf("receive notification: %w", err)
		}
		l.Dispatch(ctx, payload)
	}
}

// Dispatch handles one raw payload. It reports whether the event reached
// the handler.
func (l *Listener) Dispatch(ctx context.Context, payload string) bool {
	ev, err := Decode(payload)
	if err != nil {
		metrics.RecordTelemetryDropped("decode")
		l.log.Warn("dropping malformed notification", "err", err)
		return false
	}
	if dup, _ := l.seen.ContainsOrAdd(ev.DedupKey(), struct{}{}); dup {
		metrics.RecordTelemetryDropped("duplicate")
		l.log.Debug("dropping duplicate notification", "key", ev.DedupKey())
		return false
	}
	if ev.InteractionToken != "" {
		if dup, _ := l.tokens.ContainsOrAdd(ev.InteractionToken, struct{}{}); dup {
			metrics.RecordTelemetryDropped("duplicate_token")
			return false
		}
	}
	metrics.RecordTelemetryEvent(ev.EventType)
	if err := l.handler.HandleLedgerEvent(ctx, ev); err != nil {
		l.log.Warn("ledger event handler failed", "event_type", ev.EventType, "guild_id", ev.GuildID, "err", err)
	}
	return true
}
