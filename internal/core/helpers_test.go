// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/econbot/econbot/internal/db"
	"github.com/econbot/econbot/internal/events"
	"github.com/econbot/econbot/internal/model"
	"github.com/econbot/econbot/internal/testutil"
)

const guild = "g1"

var start = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

type recordingEmitter struct {
	mu     sync.Mutex
	events []model.LedgerEvent
}

func (r *recordingEmitter) Emit(_ context.Context, ev model.LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingEmitter) all() []model.LedgerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.LedgerEvent(nil), r.events...)
}

type recordingQueue struct {
	ids []string
}

func (q *recordingQueue) Enqueue(id string) { q.ids = append(q.ids, id) }

type fixture struct {
	store   *db.BunStore
	clock   *testutil.Clock
	emitter *recordingEmitter
	council *events.StateCouncilBus
	gov     *events.GovernanceBus
	svc     *Services
}

func newFixture(t *testing.T, opts TransferOptions) *fixture {
	t.Helper()
	st := testutil.NewStore(t)
	clock := testutil.NewClock(start)
	st.SetClock(clock.Now)
	f := &fixture{
		store:   st,
		clock:   clock,
		emitter: &recordingEmitter{},
		council: events.NewBus[events.StateCouncilEvent]("state_council"),
		gov:     events.NewBus[events.GovernanceEvent]("governance"),
	}
	f.svc = NewServices(Deps{
		Store:         st,
		Emitter:       f.emitter,
		Transfer:      opts,
		CouncilBus:    f.council,
		GovernanceBus: f.gov,
		Clock:         clock,
	})
	return f
}

func (f *fixture) seed(t *testing.T, member string, amount int64) {
	t.Helper()
	if _, err := f.store.AdjustBalance(context.Background(), guild, member, amount, "seed", "test seed"); err != nil {
		t.Fatalf("seed %s: %v", member, err)
	}
}

func (f *fixture) balance(t *testing.T, member string) int64 {
	t.Helper()
	b, err := f.store.GetBalance(context.Background(), guild, member)
	if err != nil {
		t.Fatalf("GetBalance(%s): %v", member, err)
	}
	return b.Balance
}

func member(id string, roles ...string) Actor {
	return Actor{GuildID: guild, UserID: id, RoleIDs: roles}
}

func admin(id string) Actor {
	return Actor{GuildID: guild, UserID: id, IsAdmin: true}
}
