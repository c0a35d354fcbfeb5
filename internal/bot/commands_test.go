// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/econbot/econbot/internal/core"
	"github.com/econbot/econbot/internal/model"
)

const (
	alice = "100000000000000001"
	bob   = "100000000000000002"
	carol = "100000000000000003"
)

func TestTransferCommand(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, alice, 100)

	reply := f.dispatch(t, invocation(alice, "transfer", "", map[string]any{"member": bob, "amount": int64(40)}))
	if !strings.Contains(reply, "60") {
		t.Fatalf("reply %q should show the remaining balance", reply)
	}
	if got := f.balance(t, bob); got != 40 {
		t.Fatalf("bob = %d, want 40", got)
	}

	_, _, err := f.bot.Router().Dispatch(context.Background(), invocation(alice, "transfer", "", map[string]any{"member": bob, "amount": int64(500)}))
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestTransferCommand_StringAmountUsesCurrencyDecimals(t *testing.T) {
	f := newFixture(t, Options{})
	decimals := 2
	if _, err := f.svc.Currency.Update(context.Background(), core.Actor{GuildID: guild, UserID: "admin", IsAdmin: true}, core.CurrencyUpdate{Decimals: &decimals}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	f.seed(t, alice, 1000)

	f.dispatch(t, invocation(alice, "transfer", "", map[string]any{"member": bob, "amount": "2.50"}))
	if got := f.balance(t, bob); got != 250 {
		t.Fatalf("bob = %d, want 250", got)
	}
}

func TestTransferCommand_NumberAmountKeepsFraction(t *testing.T) {
	f := newFixture(t, Options{})
	decimals := 2
	if _, err := f.svc.Currency.Update(context.Background(), core.Actor{GuildID: guild, UserID: "admin", IsAdmin: true}, core.CurrencyUpdate{Decimals: &decimals}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	f.seed(t, alice, 5000)

	reply := f.dispatch(t, invocation(alice, "transfer", "", map[string]any{"member": bob, "amount": 12.34}))
	if !strings.Contains(reply, "12.34") {
		t.Fatalf("reply %q should show the exact amount", reply)
	}
	if got := f.balance(t, bob); got != 1234 {
		t.Fatalf("bob = %d, want 1234", got)
	}

	_, _, err := f.bot.Router().Dispatch(context.Background(), invocation(alice, "transfer", "", map[string]any{"member": bob, "amount": 1.005}))
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation for excess precision", err)
	}
	if got := f.balance(t, bob); got != 1234 {
		t.Fatalf("bob = %d after rejected transfer, want 1234", got)
	}
}

func TestInvocationInt_RejectsFraction(t *testing.T) {
	inv := invocation(alice, "council", "status", map[string]any{"page": 2.5, "limit": float64(4)})
	if _, ok := inv.Int("page"); ok {
		t.Fatalf("Int accepted a fractional number")
	}
	if n, ok := inv.Int("limit"); !ok || n != 4 {
		t.Fatalf("limit = %d, %v", n, ok)
	}
}

func TestHistoryCommand(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, alice, 100)
	f.dispatch(t, invocation(alice, "transfer", "", map[string]any{"member": bob, "amount": int64(10), "reason": "lunch"}))

	reply := f.dispatch(t, invocation(bob, "history", "", nil))
	if !strings.Contains(reply, "lunch") || !strings.Contains(reply, "<@"+alice+">") {
		t.Fatalf("history %q misses the transfer", reply)
	}

	empty := f.dispatch(t, invocation(carol, "history", "", nil))
	if strings.Contains(empty, "lunch") {
		t.Fatalf("carol should have no history, got %q", empty)
	}
}

func TestCompanyCommands(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	if _, err := f.store.UpsertStateCouncilConfig(ctx, model.StateCouncilConfig{
		GuildID:         guild,
		LeaderID:        "leader",
		DepartmentRoles: map[model.Department]string{model.DepartmentInterior: "r-interior"},
	}); err != nil {
		t.Fatalf("UpsertStateCouncilConfig: %v", err)
	}
	f.dispatch(t, invocation("officer", "state_council", "license_issue", map[string]any{"member": alice}, "r-interior"))

	reply := f.dispatch(t, invocation(alice, "company", "create", map[string]any{"name": "Acme"}))
	if !strings.Contains(reply, "Acme") {
		t.Fatalf("create reply %q", reply)
	}
	list := f.dispatch(t, invocation(bob, "company", "list", nil))
	if !strings.Contains(list, "Acme") {
		t.Fatalf("list reply %q", list)
	}

	mine, err := f.svc.Company.ListMine(ctx, core.Actor{GuildID: guild, UserID: alice})
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListMine = %v, %v", mine, err)
	}
	f.seed(t, alice, 100)
	f.dispatch(t, invocation(alice, "company", "deposit", map[string]any{"company": mine[0].ID, "amount": int64(30)}))
	f.dispatch(t, invocation(alice, "company", "transfer", map[string]any{"company": mine[0].ID, "member": bob, "amount": int64(20)}))
	if got := f.balance(t, bob); got != 20 {
		t.Fatalf("bob = %d, want 20", got)
	}
	if got := f.balance(t, mine[0].AccountID()); got != 10 {
		t.Fatalf("company = %d, want 10", got)
	}

	_, _, err = f.bot.Router().Dispatch(ctx, invocation(alice, "company", "info", nil))
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("info without id: err = %v, want ErrValidation", err)
	}
}

func TestStateCouncilCommands(t *testing.T) {
	f := newFixture(t, Options{AnnounceChannelID: "announce"})

	f.dispatch(t, adminInvocation("admin", "state_council", "config", map[string]any{"leader": "leader"}))
	for dept, role := range map[string]string{"interior": "r-interior", "central_bank": "r-bank", "security": "r-security"} {
		f.dispatch(t, invocation("leader", "state_council", "department_role", map[string]any{"department": dept, "role": role}))
	}
	f.dispatch(t, invocation("leader", "state_council", "suspect_role", map[string]any{"role": "r-suspect"}))

	f.dispatch(t, invocation("banker", "state_council", "issue", map[string]any{"department": "interior", "amount": int64(500), "reason": "budget"}, "r-bank"))
	f.dispatch(t, invocation("clerk", "state_council", "welfare", map[string]any{"member": alice, "amount": int64(50), "reason": "aid"}, "r-interior"))
	if got := f.balance(t, alice); got != 50 {
		t.Fatalf("alice = %d, want 50", got)
	}

	summary := f.dispatch(t, invocation("leader", "state_council", "summary", nil))
	if !strings.Contains(summary, "450") {
		t.Fatalf("summary %q should show the interior balance", summary)
	}

	f.dispatch(t, invocation("guard", "state_council", "arrest", map[string]any{"member": bob, "reason": "fraud"}, "r-security"))
	var added bool
	for _, s := range f.out.all() {
		if s.kind == "add_role" && s.to == bob && s.content == "r-suspect" {
			added = true
		}
	}
	if !added {
		t.Fatalf("arrest did not assign the suspect role: %+v", f.out.all())
	}

	_, _, err := f.bot.Router().Dispatch(context.Background(), invocation(alice, "state_council", "welfare", map[string]any{"member": alice, "amount": int64(1)}))
	if !errors.Is(err, core.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	_, _, err = f.bot.Router().Dispatch(context.Background(), invocation("banker", "state_council", "issue", map[string]any{"department": "treasury", "amount": int64(1)}, "r-bank"))
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("unknown department: err = %v, want ErrValidation", err)
	}
}

func TestGovernanceCommands(t *testing.T) {
	f := newFixture(t, Options{AnnounceChannelID: "announce"})
	f.out.roles["r-council"] = []string{alice, bob, carol}

	f.dispatch(t, adminInvocation("admin", "council", "config", map[string]any{"member_role": "r-council"}))
	reply := f.dispatch(t, invocation(alice, "council", "propose", map[string]any{"title": "Road repairs"}, "r-council"))
	if !strings.Contains(reply, "Road repairs") {
		t.Fatalf("propose reply %q", reply)
	}

	open, err := f.svc.Governance.List(context.Background(), guild, model.BodyCouncil, model.ProposalOpen)
	if err != nil || len(open) != 1 {
		t.Fatalf("List = %v, %v", open, err)
	}
	id := open[0].ID
	if open[0].Threshold != 2 || len(open[0].Voters) != 3 {
		t.Fatalf("threshold %d voters %d, want 2 and 3", open[0].Threshold, len(open[0].Voters))
	}

	f.dispatch(t, invocation(alice, "council", "vote", map[string]any{"proposal": id, "choice": "approve"}, "r-council"))
	f.dispatch(t, invocation(bob, "council", "vote", map[string]any{"proposal": id, "choice": "approve"}, "r-council"))

	p, _, err := f.svc.Governance.Get(context.Background(), guild, id)
	if err != nil || p.Status != model.ProposalPassed {
		t.Fatalf("status = %q, %v, want passed", p.Status, err)
	}

	var announced bool
	for _, s := range f.out.all() {
		if s.kind == "channel" && s.to == "announce" && strings.Contains(s.content, "Road repairs") {
			announced = true
		}
	}
	if !announced {
		t.Fatalf("no announcement posted: %+v", f.out.all())
	}

	// Another body's status does not show council proposals.
	_, _, err = f.bot.Router().Dispatch(context.Background(), invocation(alice, "supreme_assembly", "status", map[string]any{"proposal": id}))
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSummonCommand(t *testing.T) {
	f := newFixture(t, Options{})
	f.dispatch(t, adminInvocation("admin", "supreme_assembly", "config", map[string]any{"member_role": "r-assembly", "speaker_role": "r-speaker"}))

	f.dispatch(t, invocation("speaker", "supreme_assembly", "summon", map[string]any{
		"members": "<@" + alice + "> <@" + bob + ">",
		"message": "session at noon",
	}, "r-speaker"))

	dms := map[string]bool{}
	for _, s := range f.out.all() {
		if s.kind == "dm" && strings.Contains(s.content, "session at noon") {
			dms[s.to] = true
		}
	}
	if !dms[alice] || !dms[bob] {
		t.Fatalf("summon DMs = %v", dms)
	}

	_, _, err := f.bot.Router().Dispatch(context.Background(), invocation(alice, "supreme_assembly", "summon", map[string]any{"members": bob}))
	if !errors.Is(err, core.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestErrorReply(t *testing.T) {
	cases := []error{
		&core.ValidationError{Field: "amount", Reason: "must be positive"},
		&core.PermissionError{Action: "adjust balances", Required: "administrator"},
		core.ErrInsufficientFunds,
		core.ErrNotFound,
		ErrUnknownCommand,
		errors.New("boom"),
	}
	seen := map[string]bool{}
	for _, err := range cases {
		msg := errorReply("en", err)
		if msg == "" || strings.HasPrefix(msg, "error.") {
			t.Fatalf("errorReply(%v) = %q, want a translated message", err, msg)
		}
		if strings.Contains(msg, "boom") {
			t.Fatalf("internal error leaked: %q", msg)
		}
		seen[msg] = true
	}
	if len(seen) != len(cases) {
		t.Fatalf("expected distinct messages, got %v", seen)
	}
}
