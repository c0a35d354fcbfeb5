// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/econbot/econbot/internal/core"
	"github.com/econbot/econbot/internal/db"
	"github.com/econbot/econbot/internal/events"
	"github.com/econbot/econbot/internal/testutil"
)

const guild = "g1"

var start = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

type sent struct {
	kind      string
	to        string
	content   string
	ephemeral bool
}

type fakeResponder struct {
	mu       sync.Mutex
	sent     []sent
	roles    map[string][]string
	deferred map[string]bool
	failFup  bool
}

func newFakeResponder() *fakeResponder {
	return &fakeResponder{roles: map[string][]string{}, deferred: map[string]bool{}}
}

func (f *fakeResponder) record(s sent) {
	f.mu.Lock()
	f.sent = append(f.sent, s)
	f.mu.Unlock()
}

func (f *fakeResponder) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

func (f *fakeResponder) last(t *testing.T) sent {
	t.Helper()
	all := f.all()
	if len(all) == 0 {
		t.Fatalf("nothing was sent")
	}
	return all[len(all)-1]
}

func (f *fakeResponder) Respond(i *discordgo.Interaction, content string, ephemeral bool) error {
	f.record(sent{kind: "respond", to: i.Token, content: content, ephemeral: ephemeral})
	return nil
}

func (f *fakeResponder) Defer(i *discordgo.Interaction, ephemeral bool) error {
	f.mu.Lock()
	f.deferred[i.Token] = ephemeral
	f.mu.Unlock()
	f.record(sent{kind: "defer", to: i.Token, ephemeral: ephemeral})
	return nil
}

// EditResponse inherits the visibility chosen when the interaction was deferred.
func (f *fakeResponder) EditResponse(i *discordgo.Interaction, content string) error {
	f.mu.Lock()
	ephemeral := f.deferred[i.Token]
	f.mu.Unlock()
	f.record(sent{kind: "edit", to: i.Token, content: content, ephemeral: ephemeral})
	return nil
}

func (f *fakeResponder) DeleteResponse(i *discordgo.Interaction) error {
	f.record(sent{kind: "delete", to: i.Token})
	return nil
}

func (f *fakeResponder) Followup(_, token, content string, ephemeral bool) error {
	if f.failFup {
		return context.DeadlineExceeded
	}
	f.record(sent{kind: "followup", to: token, content: content, ephemeral: ephemeral})
	return nil
}

func (f *fakeResponder) DirectMessage(userID, content string) error {
	f.record(sent{kind: "dm", to: userID, content: content})
	return nil
}

func (f *fakeResponder) ChannelMessage(channelID, content string) error {
	f.record(sent{kind: "channel", to: channelID, content: content})
	return nil
}

func (f *fakeResponder) AddRole(_, userID, roleID string) error {
	f.record(sent{kind: "add_role", to: userID, content: roleID})
	return nil
}

func (f *fakeResponder) RemoveRole(_, userID, roleID string) error {
	f.record(sent{kind: "remove_role", to: userID, content: roleID})
	return nil
}

func (f *fakeResponder) MembersWithRole(_ context.Context, _, roleID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.roles[roleID]...), nil
}

type fixture struct {
	store   *db.BunStore
	clock   *testutil.Clock
	out     *fakeResponder
	council *events.StateCouncilBus
	gov     *events.GovernanceBus
	svc     *core.Services
	bot     *Bot
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	st := testutil.NewStore(t)
	clock := testutil.NewClock(start)
	st.SetClock(clock.Now)
	f := &fixture{
		store:   st,
		clock:   clock,
		out:     newFakeResponder(),
		council: events.NewBus[events.StateCouncilEvent]("state_council"),
		gov:     events.NewBus[events.GovernanceEvent]("governance"),
	}
	f.svc = core.NewServices(core.Deps{
		Store:         st,
		CouncilBus:    f.council,
		GovernanceBus: f.gov,
		Clock:         clock,
	})
	opts.CouncilBus = f.council
	opts.GovernanceBus = f.gov
	f.bot = NewWithResponder(f.out, f.svc, opts)
	if err := f.bot.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = f.bot.Close() })
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

func invocation(userID, command, sub string, opts map[string]any, roles ...string) Invocation {
	if opts == nil {
		opts = map[string]any{}
	}
	return Invocation{
		Actor:   core.Actor{GuildID: guild, UserID: userID, RoleIDs: roles},
		Command: command,
		Sub:     sub,
		Options: opts,
		Locale:  "en",
		Token:   "tok-" + userID,
	}
}

func adminInvocation(userID, command, sub string, opts map[string]any) Invocation {
	inv := invocation(userID, command, sub, opts)
	inv.Actor.IsAdmin = true
	return inv
}

// dispatch runs inv through the router and fails the test on error.
func (f *fixture) dispatch(t *testing.T, inv Invocation) string {
	t.Helper()
	reply, _, err := f.bot.Router().Dispatch(context.Background(), inv)
	if err != nil {
		t.Fatalf("%s: %v", inv.Route(), err)
	}
	return reply
}

func interaction(guildID, userID string, perms int64, data discordgo.ApplicationCommandInteractionData) *discordgo.Interaction {
	i := &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: guildID,
		Token:   "tok-" + userID,
		Locale:  discordgo.EnglishUS,
		Data:    data,
	}
	if guildID != "" {
		i.Member = &discordgo.Member{User: &discordgo.User{ID: userID}, Permissions: perms}
	} else {
		i.User = &discordgo.User{ID: userID}
	}
	return i
}
