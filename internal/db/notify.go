// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"
)

// maxNotifyPayload is the Postgres limit for NOTIFY payloads in bytes.
const maxNotifyPayload = 8000

// PGNotify publishes payload on channel with pg_notify. Only the postgres
// backend supports it; other backends return ErrUnsupported.
func (s *BunStore) PGNotify(ctx context.Context, channel, payload string) error {
	if s.dbType != "postgres" {
		return ErrUnsupported
	}
	if channel == "" {
		return fmt.Errorf("notify: empty channel")
	}
	if len(payload) >= maxNotifyPayload {
		return fmt.Errorf("notify: payload of %d bytes exceeds limit", len(payload))
	}
	_, err := ExecRaw(ctx, s.bun, "SELECT pg_notify(?, ?)", channel, payload)
	return MapDBError(err)
}
