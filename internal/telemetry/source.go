// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/econbot/econbot/internal/logging"
	"github.com/lib/pq"
)

// Source yields raw notification payloads.
type Source interface {
	Receive(ctx context.Context) (string, error)
	Close() error
}

// Reconnect and keepalive settings of the Postgres source.
const (
	minReconnectInterval = time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// PQSource listens on a Postgres channel with a dedicated pq.Listener
// connection. The listener reconnects on its own; notifications sent while
// disconnected are lost.
type PQSource struct {
	l       *pq.Listener
	channel string
	log     *logging.Logger
}

// NewPQSource connects to dsn and subscribes to channel.
func NewPQSource(dsn, channel string) (*PQSource, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	log := logging.For("telemetry").With("channel", channel)
	l := pq.NewListener(dsn, minReconnectInterval, maxReconnectInterval, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			log.Info("listener connected")
		case pq.ListenerEventDisconnected:
			log.Warn("listener disconnected", "err", err)
		case pq.ListenerEventReconnected:
			log.Info("listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			log.Warn("listener connection attempt failed", "err", err)
		}
	})
	if err := l.Listen(channel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}
	return &PQSource{l: l, channel: channel, log: log}, nil
}

// Receive waits for the next notification on the channel.
func (s *PQSource) Receive(ctx context.Context) (string, error) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case n, ok := <-s.l.Notify:
			if !ok {
				return "", ErrSourceClosed
			}
			// A nil notification marks a reconnect.
			if n == nil {
				s.log.Debug("notification stream re-established")
				continue
			}
			return n.Extra, nil
		case <-ticker.C:
			if err := s.l.Ping(); err != nil {
				s.log.Warn("listener ping failed", "err", err)
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Close unlistens and closes the connection.
func (s *PQSource) Close() error {
	return s.l.Close()
}
