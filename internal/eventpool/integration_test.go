// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package eventpool

import (
	"context"
	"testing"
	"time"

	"github.com/econbot/econbot/internal/core"
	"github.com/econbot/econbot/internal/model"
	"github.com/econbot/econbot/internal/testutil"
)

func TestCoordinator_WithTransferService(t *testing.T) {
	st := testutil.NewStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := st.AdjustBalance(ctx, "g1", "alice", 50, "root", "seed"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := core.NewTransferService(st, st, nil, core.TransferOptions{PoolEnabled: true}, nil)
	c := New(svc, st, Options{RetryInterval: 10 * time.Millisecond})
	svc.SetQueue(c)
	go func() { _ = c.Run(ctx) }()

	out, err := svc.Transfer(ctx, core.Actor{GuildID: "g1", UserID: "alice"}, "bob", 20, "", "tok")
	if err != nil || !out.Queued() {
		t.Fatalf("Transfer = %+v, %v", out, err)
	}
	waitFor(t, func() bool {
		p, err := st.GetPendingTransfer(ctx, out.Pending.ID)
		return err == nil && p.Status == model.PendingStatusCompleted
	})
	b, err := st.GetBalance(ctx, "g1", "bob")
	if err != nil || b.Balance != 20 {
		t.Fatalf("bob = %+v, %v", b, err)
	}
}
