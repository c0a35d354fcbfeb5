// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package telemetry

import (
	"context"
	"errors"
	"sync"

	"github.com/econbot/econbot/internal/metrics"
)

// DefaultChannel is the NOTIFY channel used when none is configured.
const DefaultChannel = "economy_events"

// Notifier sends a Postgres notification. *db.BunStore implements it.
type Notifier interface {
	PGNotify(ctx context.Context, channel, payload string) error
}

// PGEmitter publishes events with pg_notify.
type PGEmitter struct {
	db      Notifier
	channel string
}

// NewPGEmitter returns an emitter on channel.
func NewPGEmitter(db Notifier, channel string) *PGEmitter {
	if channel == "" {
		channel = DefaultChannel
	}
	return &PGEmitter{db: db, channel: channel}
}

// Emit sends ev as one notification.
func (e *PGEmitter) Emit(ctx context.Context, ev Event) error {
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	return e.db.PGNotify(ctx, e.channel, payload)
}

// ErrBufferFull is returned by LocalBroker.Emit when the consumer lags.
var ErrBufferFull = errors.New("telemetry buffer full")

// ErrSourceClosed is returned by Receive after Close.
var ErrSourceClosed = errors.New("telemetry source closed")

// LocalBroker is an in-process emitter and source for backends without
// NOTIFY. Payloads are encoded so both paths exercise the same codec.
type LocalBroker struct {
	ch        chan string
	done      chan struct{}
	closeOnce sync.Once
}

// NewLocalBroker buffers up to size undelivered events.
func NewLocalBroker(size int) *LocalBroker {
	if size <= 0 {
		size = 256
	}
	return &LocalBroker{ch: make(chan string, size), done: make(chan struct{})}
}

// Emit queues ev without blocking.
func (b *LocalBroker) Emit(ctx context.Context, ev Event) error {
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	select {
	case <-b.done:
		return ErrSourceClosed
	default:
	}
	select {
	case b.ch <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		metrics.RecordTelemetryDropped("buffer_full")
		return ErrBufferFull
	}
}

// Receive blocks until an event is queued.
func (b *LocalBroker) Receive(ctx context.Context) (string, error) {
	select {
	case p := <-b.ch:
		return p, nil
	case <-b.done:
		return "", ErrSourceClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops delivery.
func (b *LocalBroker) Close() error {
	b.closeOnce.Do(func() { close(b.done) })
	return nil
}
