// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/econbot/econbot/internal/events"
	"github.com/econbot/econbot/internal/model"
)

const (
	memberRole  = "r-member"
	speakerRole = "r-speaker"
)

func configureBody(t *testing.T, f *fixture, body string) {
	t.Helper()
	if _, err := f.svc.Governance.Configure(context.Background(), admin("root"), body, memberRole, speakerRole); err != nil {
		t.Fatalf("Configure(%s): %v", body, err)
	}
}

func collectGovernance(f *fixture) *[]events.GovernanceEvent {
	var got []events.GovernanceEvent
	f.gov.Subscribe(guild, func(_ context.Context, ev events.GovernanceEvent) {
		got = append(got, ev)
	})
	return &got
}

func TestThresholdAndDecide(t *testing.T) {
	for n, want := range map[int]int{1: 1, 2: 2, 3: 2, 4: 3, 5: 3} {
		if got := Threshold(n); got != want {
			t.Fatalf("Threshold(%d) = %d, want %d", n, got, want)
		}
	}
	tests := []struct {
		tally model.Tally
		want  string
	}{
		{model.Tally{Approve: 2, Eligible: 3, Threshold: 2}, model.ProposalPassed},
		{model.Tally{Approve: 1, Eligible: 3, Threshold: 2}, model.ProposalOpen},
		{model.Tally{Reject: 2, Eligible: 3, Threshold: 2}, model.ProposalRejected},
		{model.Tally{Approve: 1, Abstain: 2, Eligible: 4, Threshold: 3}, model.ProposalRejected},
	}
	for _, tt := range tests {
		if got := Decide(tt.tally); got != tt.want {
			t.Fatalf("Decide(%+v) = %s, want %s", tt.tally, got, tt.want)
		}
	}
}

func TestGovernance_ProposeValidation(t *testing.T) {
	f := newFixture(t, TransferOptions{})
	ctx := context.Background()

	draft := ProposalDraft{Body: model.BodyCouncil, Title: "Budget", Voters: []string{"a", "b"}}
	if _, err := f.svc.Governance.Propose(ctx, member("a", memberRole), draft); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected unconfigured body, got %v", err)
	}
	configureBody(t, f, model.BodyCouncil)
	configureBody(t, f, model.BodyAssembly)

	if _, err := f.svc.Governance.Propose(ctx, member("x"), draft); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}
	bad := []ProposalDraft{
		{Body: model.BodyCouncil, Title: "", Voters: []string{"a"}},
		{Body: model.BodyCouncil, Title: "t", Voters: nil},
		{Body: model.BodyCouncil, Title: "t", Voters: []string{"a"}, Amount: 5},
		{Body: model.BodyAssembly, Title: "t", Voters: []string{"a"}, TargetID: "b", Amount: 5},
		{Body: "senate", Title: "t", Voters: []string{"a"}},
	}
	for i, d := range bad {
		if _, err := f.svc.Governance.Propose(ctx, member("a", memberRole), d); !errors.Is(err, ErrValidation) {
			t.Fatalf("draft %d: expected validation error, got %v", i, err)
		}
	}

	p, err := f.svc.Governance.Propose(ctx, member("a", memberRole), ProposalDraft{
		Body: model.BodyCouncil, Title: "Budget", Voters: []string{"a", "b", "b", "c"},
	})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(p.Voters) != 3 || p.Threshold != 2 || !p.Deadline.Equal(start.Add(ProposalVotingPeriod)) {
		t.Fatalf("unexpected proposal: %+v", p)
	}
}

func TestGovernance_VotePassesAndPaysOut(t *testing.T) {
	f := newFixture(t, TransferOptions{})
	ctx := context.Background()
	configureBody(t, f, model.BodyCouncil)
	got := collectGovernance(f)
	f.seed(t, model.CouncilAccountID, 100)

	p, err := f.svc.Governance.Propose(ctx, member("a", memberRole), ProposalDraft{
		Body: model.BodyCouncil, Title: "Grant", TargetID: "dave", Amount: 60, Voters: []string{"a", "b", "c"},
	})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	if _, _, err := f.svc.Governance.Vote(ctx, member("x"), p.ID, model.VoteApprove); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected non-voter to be refused, got %v", err)
	}
	if _, _, err := f.svc.Governance.Vote(ctx, member("a"), p.ID, "maybe"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected invalid choice, got %v", err)
	}
	p1, tally, err := f.svc.Governance.Vote(ctx, member("a"), p.ID, model.VoteApprove)
	if err != nil || !p1.Open() || tally.Approve != 1 {
		t.Fatalf("first vote = %+v %+v %v", p1, tally, err)
	}
	if _, _, err := f.svc.Governance.Vote(ctx, member("a"), p.ID, model.VoteReject); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
	p2, tally, err := f.svc.Governance.Vote(ctx, member("b"), p.ID, model.VoteApprove)
	if err != nil {
		t.Fatalf("second vote: %v", err)
	}
	if p2.Status != model.ProposalPassed || p2.TransactionID == 0 || tally.Approve != 2 {
		t.Fatalf("expected passed with payout, got %+v %+v", p2, tally)
	}
	if f.balance(t, "dave") != 60 || f.balance(t, model.CouncilAccountID) != 40 {
		t.Fatal("payout not applied")
	}
	if _, _, err := f.svc.Governance.Vote(ctx, member("c"), p.ID, model.VoteApprove); !errors.Is(err, ErrProposalClosed) {
		t.Fatalf("expected ErrProposalClosed, got %v", err)
	}

	kinds := map[string]int{}
	for _, ev := range *got {
		kinds[ev.Kind]++
	}
	if kinds[events.ProposalCreated] != 1 || kinds[events.VoteCast] != 2 || kinds[events.ProposalPassed] != 1 {
		t.Fatalf("unexpected events: %v", kinds)
	}
}

func TestGovernance_PayoutFailureAndEarlyReject(t *testing.T) {
	f := newFixture(t, TransferOptions{})
	ctx := context.Background()
	configureBody(t, f, model.BodyCouncil)

	p, _ := f.svc.Governance.Propose(ctx, member("a", memberRole), ProposalDraft{
		Body: model.BodyCouncil, Title: "Too much", TargetID: "dave", Amount: 10, Voters: []string{"a"},
	})
	closed, _, err := f.svc.Governance.Vote(ctx, member("a"), p.ID, model.VoteApprove)
	if err != nil || closed.Status != model.ProposalExecutionFailed {
		t.Fatalf("expected execution failure, got %+v, %v", closed, err)
	}

	r, _ := f.svc.Governance.Propose(ctx, member("a", memberRole), ProposalDraft{
		Body: model.BodyCouncil, Title: "No", Voters: []string{"a", "b", "c"},
	})
	if _, _, err := f.svc.Governance.Vote(ctx, member("a"), r.ID, model.VoteReject); err != nil {
		t.Fatalf("vote: %v", err)
	}
	rejected, tally, err := f.svc.Governance.Vote(ctx, member("b"), r.ID, model.VoteReject)
	if err != nil || rejected.Status != model.ProposalRejected || tally.Reject != 2 {
		t.Fatalf("expected early rejection, got %+v %+v %v", rejected, tally, err)
	}
}

func TestGovernance_CancelAndExpire(t *testing.T) {
	f := newFixture(t, TransferOptions{})
	ctx := context.Background()
	configureBody(t, f, model.BodyAssembly)
	draft := ProposalDraft{Body: model.BodyAssembly, Title: "Motion", Voters: []string{"a", "b", "c"}}

	p, _ := f.svc.Governance.Propose(ctx, member("a", memberRole), draft)
	if _, err := f.svc.Governance.Cancel(ctx, member("b", memberRole), p.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}
	c, err := f.svc.Governance.Cancel(ctx, member("a", memberRole), p.ID)
	if err != nil || c.Status != model.ProposalCancelled {
		t.Fatalf("Cancel = %+v, %v", c, err)
	}

	voted, _ := f.svc.Governance.Propose(ctx, member("a", memberRole), draft)
	if _, _, err := f.svc.Governance.Vote(ctx, member("b"), voted.ID, model.VoteApprove); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := f.svc.Governance.Cancel(ctx, member("a", memberRole), voted.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected proposer cancel after votes to fail, got %v", err)
	}

	open, _ := f.svc.Governance.Propose(ctx, member("a", memberRole), draft)
	f.clock.Advance(ProposalVotingPeriod + time.Minute)
	n, err := f.svc.Governance.ExpireDue(ctx)
	if err != nil || n != 2 {
		t.Fatalf("ExpireDue = %d, %v", n, err)
	}
	got, _, err := f.svc.Governance.Get(ctx, guild, open.ID)
	if err != nil || got.Status != model.ProposalExpired {
		t.Fatalf("expected expired, got %+v, %v", got, err)
	}
	if n, _ := f.svc.Governance.ExpireDue(ctx); n != 0 {
		t.Fatalf("second ExpireDue closed %d", n)
	}

	list, err := f.svc.Governance.List(ctx, guild, model.BodyAssembly, model.ProposalExpired)
	if err != nil || len(list) != 2 {
		t.Fatalf("List = %v, %v", list, err)
	}
}

func TestGovernance_SpeakerCancelsAndSummons(t *testing.T) {
	f := newFixture(t, TransferOptions{})
	ctx := context.Background()
	configureBody(t, f, model.BodyAssembly)
	configureBody(t, f, model.BodyCouncil)
	got := collectGovernance(f)

	p, _ := f.svc.Governance.Propose(ctx, member("a", memberRole), ProposalDraft{Body: model.BodyAssembly, Title: "M", Voters: []string{"a", "b"}})
	_, _, _ = f.svc.Governance.Vote(ctx, member("b"), p.ID, model.VoteApprove)
	if c, err := f.svc.Governance.Cancel(ctx, member("s", speakerRole), p.ID); err != nil || c.Status != model.ProposalCancelled {
		t.Fatalf("speaker cancel = %+v, %v", c, err)
	}

	if _, err := f.svc.Governance.Summon(ctx, member("s", speakerRole), model.BodyCouncil, []string{"a"}, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected council summon to fail, got %v", err)
	}
	if _, err := f.svc.Governance.Summon(ctx, member("a", memberRole), model.BodyAssembly, []string{"b"}, ""); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected non-speaker summon to fail, got %v", err)
	}
	members, err := f.svc.Governance.Summon(ctx, member("s", speakerRole), model.BodyAssembly, []string{"a", "b", "a"}, "session at 8")
	if err != nil || len(members) != 2 {
		t.Fatalf("Summon = %v, %v", members, err)
	}
	last := (*got)[len(*got)-1]
	if last.Kind != events.MembersSummoned || last.Message != "session at 8" || len(last.Members) != 2 {
		t.Fatalf("unexpected summon event: %+v", last)
	}
}
