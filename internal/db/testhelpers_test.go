// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"strings"
	"testing"
	"time"
)

// testNow is the fixed time used by stores created with WithTestStore.
var testNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

// WithTestStore initializes an in-memory sqlite store for the duration of
// the provided function. The store clock is fixed at testNow.
func WithTestStore(t *testing.T, fn func(s *BunStore)) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := "file:" + name + "?mode=memory&cache=shared"
	s, err := NewStoreFromDSN(context.Background(), "sqlite", dsn, PoolOptions{})
	if err != nil {
		t.Fatalf("NewStoreFromDSN failed: %v", err)
	}
	defer func() { _ = s.Close() }()
	s.SetClock(func() time.Time { return testNow })

	fn(s)
}

func mustSeed(t *testing.T, s *BunStore, guild, member string, amount int64) {
	t.Helper()
	if _, err := s.AdjustBalance(context.Background(), guild, member, amount, "admin", "seed"); err != nil {
		t.Fatalf("seed %s with %d failed: %v", member, amount, err)
	}
}
