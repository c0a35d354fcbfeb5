// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/econbot/econbot/internal/db"
	"github.com/econbot/econbot/internal/events"
	"github.com/econbot/econbot/internal/logging"
	"github.com/econbot/econbot/internal/metrics"
	"github.com/econbot/econbot/internal/model"
)

// Governance rules.
const (
	ProposalVotingPeriod = 72 * time.Hour
	ProposalListLimit    = 25
	maxProposalTitle     = 100
	maxProposalText      = 1000
	maxSummonMessage     = 500
)

// Threshold is the number of approvals a proposal with n voters needs.
func Threshold(n int) int { return n/2 + 1 }

// ProposalDraft is the input of Propose.
type ProposalDraft struct {
	Body        string
	Title       string
	Description string
	// TargetID and Amount describe a payout from the council account when
	// a council proposal passes.
	TargetID string
	Amount   int64
	Voters   []string
}

// GovernanceService runs the council and the supreme assembly. Both bodies
// share the proposal and voting rules; only the council can pay out.
type GovernanceService struct {
	gov     db.GovernanceGateway
	economy db.EconomyGateway
	bus     events.Publisher[events.GovernanceEvent]
	clock   Clock
	log     *logging.Logger
}

// NewGovernanceService wires the service. bus may be nil.
func NewGovernanceService(gov db.GovernanceGateway, economy db.EconomyGateway, bus events.Publisher[events.GovernanceEvent], clock Clock) *GovernanceService {
	return &GovernanceService{gov: gov, economy: economy, bus: bus, clock: clockOrSystem(clock), log: logging.For("governance")}
}

func validBody(body string) error {
	if body != model.BodyCouncil && body != model.BodyAssembly {
		return invalid("body", "unknown governance body %q", body)
	}
	return nil
}

func (s *GovernanceService) publish(ctx context.Context, ev events.GovernanceEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.clock.Now()
	}
	if s.bus != nil {
		s.bus.Publish(ctx, ev.GuildID, ev)
	}
}

// Configure sets the member and speaker roles of a body. Admin only.
func (s *GovernanceService) Configure(ctx context.Context, actor Actor, body, memberRoleID, speakerRoleID string) (model.GovernanceConfig, error) {
	if err := validBody(body); err != nil {
		return model.GovernanceConfig{}, err
	}
	if !actor.IsAdmin {
		return model.GovernanceConfig{}, denied("configure the "+body, "administrator")
	}
	if strings.TrimSpace(memberRoleID) == "" {
		return model.GovernanceConfig{}, invalid("member_role", "is required")
	}
	return s.gov.UpsertGovernanceConfig(ctx, model.GovernanceConfig{
		GuildID:       actor.GuildID,
		Body:          body,
		MemberRoleID:  strings.TrimSpace(memberRoleID),
		SpeakerRoleID: strings.TrimSpace(speakerRoleID),
	})
}

// Config returns the configuration of a body.
func (s *GovernanceService) Config(ctx context.Context, guildID, body string) (model.GovernanceConfig, error) {
	if err := validBody(body); err != nil {
		return model.GovernanceConfig{}, err
	}
	cfg, err := s.gov.GetGovernanceConfig(ctx, guildID, body)
	if errors.Is(err, ErrNotFound) {
		return model.GovernanceConfig{}, fmt.Errorf("%s is not configured: %w", body, ErrNotFound)
	}
	return cfg, err
}

// Propose opens a proposal voted on by the given voter snapshot.
func (s *GovernanceService) Propose(ctx context.Context, actor Actor, d ProposalDraft) (model.Proposal, error) {
	cfg, err := s.Config(ctx, actor.GuildID, d.Body)
	if err != nil {
		return model.Proposal{}, err
	}
	if !actor.HasRole(cfg.MemberRoleID) && !actor.HasRole(cfg.SpeakerRoleID) {
		return model.Proposal{}, denied("propose in the "+d.Body, d.Body+" membership")
	}
	title := strings.TrimSpace(d.Title)
	if n := utf8.RuneCountInString(title); n < 1 || n > maxProposalTitle {
		return model.Proposal{}, invalid("title", "must be 1 to %d characters", maxProposalTitle)
	}
	if utf8.RuneCountInString(d.Description) > maxProposalText {
		return model.Proposal{}, invalid("description", "must be at most %d characters", maxProposalText)
	}
	switch {
	case d.Amount < 0:
		return model.Proposal{}, invalid("amount", "must not be negative")
	case d.Amount > 0 && d.Body != model.BodyCouncil:
		return model.Proposal{}, invalid("amount", "only council proposals can pay out")
	case d.Amount > 0 && strings.TrimSpace(d.TargetID) == "":
		return model.Proposal{}, invalid("target", "is required for a payout")
	}
	voters := uniqueIDs(d.Voters)
	if len(voters) == 0 {
		return model.Proposal{}, invalid("voters", "at least one voter is required")
	}
	now := s.clock.Now()
	p, err := s.gov.CreateProposal(ctx, model.Proposal{
		GuildID:     actor.GuildID,
		Body:        d.Body,
		ProposerID:  actor.UserID,
		Title:       title,
		Description: strings.TrimSpace(d.Description),
		TargetID:    strings.TrimSpace(d.TargetID),
		Amount:      d.Amount,
		Threshold:   Threshold(len(voters)),
		Voters:      voters,
		Deadline:    now.Add(ProposalVotingPeriod),
		CreatedAt:   now,
	})
	if err != nil {
		return model.Proposal{}, err
	}
	metrics.RecordProposal(p.Body, model.ProposalOpen)
	s.log.Info("proposal created", "proposal_id", p.ID, "guild_id", p.GuildID, "body", p.Body, "voters", len(p.Voters))
	s.publish(ctx, events.GovernanceEvent{
		Kind: events.ProposalCreated, GuildID: p.GuildID, Body: p.Body, ActorID: actor.UserID,
		Proposal: p, Tally: model.Tally{Eligible: len(p.Voters), Threshold: p.Threshold}, OccurredAt: now,
	})
	return p, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Get returns a proposal of the guild with its tally.
func (s *GovernanceService) Get(ctx context.Context, guildID, id string) (model.Proposal, model.Tally, error) {
	p, err := s.proposal(ctx, guildID, id)
	if err != nil {
		return model.Proposal{}, model.Tally{}, err
	}
	t, err := s.tally(ctx, p)
	return p, t, err
}

func (s *GovernanceService) proposal(ctx context.Context, guildID, id string) (model.Proposal, error) {
	p, err := s.gov.GetProposal(ctx, id)
	if err != nil {
		return model.Proposal{}, err
	}
	if p.GuildID != guildID {
		return model.Proposal{}, fmt.Errorf("proposal %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// List returns the guild's proposals of a body, newest first. An empty
// status lists every status.
func (s *GovernanceService) List(ctx context.Context, guildID, body, status string) ([]model.Proposal, error) {
	if err := validBody(body); err != nil {
		return nil, err
	}
	return s.gov.ListProposals(ctx, guildID, body, status, ProposalListLimit)
}

// Tally counts the ballots of a proposal.
func (s *GovernanceService) Tally(ctx context.Context, id string) (model.Tally, error) {
	p, err := s.gov.GetProposal(ctx, id)
	if err != nil {
		return model.Tally{}, err
	}
	return s.tally(ctx, p)
}

func (s *GovernanceService) tally(ctx context.Context, p model.Proposal) (model.Tally, error) {
	votes, err := s.gov.ListVotes(ctx, p.ID)
	if err != nil {
		return model.Tally{}, err
	}
	t := model.Tally{Eligible: len(p.Voters), Threshold: p.Threshold}
	for _, v := range votes {
		switch v.Choice {
		case model.VoteApprove:
			t.Approve++
		case model.VoteReject:
			t.Reject++
		case model.VoteAbstain:
			t.Abstain++
		}
	}
	return t, nil
}

// Decide returns the status a tally settles the proposal in, or
// ProposalOpen while the outcome is still undecided.
func Decide(t model.Tally) string {
	if t.Approve >= t.Threshold {
		return model.ProposalPassed
	}
	if remaining := t.Eligible - t.Cast(); t.Approve+remaining < t.Threshold {
		return model.ProposalRejected
	}
	return model.ProposalOpen
}

// Vote records the actor's ballot. Ballots are final. The proposal closes as
// soon as the outcome is decided.
func (s *GovernanceService) Vote(ctx context.Context, actor Actor, id, choice string) (model.Proposal, model.Tally, error) {
	if !model.ValidVoteChoice(choice) {
		return model.Proposal{}, model.Tally{}, invalid("choice", "must be approve, reject or abstain")
	}
	p, err := s.proposal(ctx, actor.GuildID, id)
	if err != nil {
		return model.Proposal{}, model.Tally{}, err
	}
	if !p.Open() {
		return model.Proposal{}, model.Tally{}, ErrProposalClosed
	}
	now := s.clock.Now()
	if !now.Before(p.Deadline) {
		if _, err := s.finalize(ctx, p, model.ProposalExpired, now); err != nil && !errors.Is(err, ErrProposalClosed) {
			return model.Proposal{}, model.Tally{}, err
		}
		return model.Proposal{}, model.Tally{}, ErrProposalClosed
	}
	if !p.IsVoter(actor.UserID) {
		return model.Proposal{}, model.Tally{}, denied("vote on this proposal", "a seat in the voter snapshot")
	}
	if err := s.gov.CastVote(ctx, model.Vote{ProposalID: p.ID, VoterID: actor.UserID, Choice: choice, CreatedAt: now}); err != nil {
		return model.Proposal{}, model.Tally{}, err
	}
	t, err := s.tally(ctx, p)
	if err != nil {
		return model.Proposal{}, model.Tally{}, err
	}
	s.publish(ctx, events.GovernanceEvent{
		Kind: events.VoteCast, GuildID: p.GuildID, Body: p.Body, ActorID: actor.UserID, Proposal: p, Tally: t, OccurredAt: now,
	})
	if status := Decide(t); status != model.ProposalOpen {
		closed, err := s.finalize(ctx, p, status, now)
		switch {
		case err == nil:
			p = closed
		case errors.Is(err, ErrProposalClosed):
			p, err = s.gov.GetProposal(ctx, p.ID)
			if err != nil {
				return model.Proposal{}, model.Tally{}, err
			}
		default:
			return model.Proposal{}, model.Tally{}, err
		}
	}
	return p, t, nil
}

// finalize closes p with status, runs the payout of passed council
// proposals and publishes the outcome.
func (s *GovernanceService) finalize(ctx context.Context, p model.Proposal, status string, now time.Time) (model.Proposal, error) {
	closed, err := s.gov.CloseProposal(ctx, p.ID, status, now)
	if err != nil {
		return model.Proposal{}, err
	}
	t, err := s.tally(ctx, closed)
	if err != nil {
		return model.Proposal{}, err
	}
	ev := events.GovernanceEvent{GuildID: closed.GuildID, Body: closed.Body, Proposal: closed, Tally: t, OccurredAt: now}
	switch status {
	case model.ProposalPassed:
		ev.Kind = events.ProposalPassed
		if closed.Body == model.BodyCouncil && closed.Amount > 0 {
			closed = s.execute(ctx, closed)
			ev.Proposal = closed
			if closed.Status == model.ProposalExecutionFailed {
				ev.Kind = events.ProposalExecutionFailed
			}
		}
	case model.ProposalRejected:
		ev.Kind = events.ProposalRejected
	case model.ProposalExpired:
		ev.Kind = events.ProposalExpired
	case model.ProposalCancelled:
		ev.Kind = events.ProposalCancelled
	}
	metrics.RecordProposal(closed.Body, closed.Status)
	s.log.Info("proposal closed", "proposal_id", closed.ID, "status", closed.Status, "approve", t.Approve, "reject", t.Reject)
	s.publish(ctx, ev)
	return closed, nil
}

func (s *GovernanceService) execute(ctx context.Context, p model.Proposal) model.Proposal {
	res, err := s.economy.Transfer(ctx, model.TransferRequest{
		GuildID:     p.GuildID,
		InitiatorID: model.CouncilAccountID,
		TargetID:    p.TargetID,
		Amount:      p.Amount,
		Kind:        model.KindGovernancePayout,
		Reason:      p.Title,
		ActorID:     p.ProposerID,
	})
	status, txID := model.ProposalPassed, int64(0)
	if err != nil {
		s.log.Warn("proposal payout failed", "proposal_id", p.ID, "err", err)
		status = model.ProposalExecutionFailed
	} else {
		txID = res.TransactionID
	}
	if err := s.gov.RecordProposalExecution(ctx, p.ID, status, txID); err != nil {
		s.log.Error("recording proposal execution failed", "proposal_id", p.ID, "err", err)
		return p
	}
	p.Status = status
	p.TransactionID = txID
	return p
}

// Cancel withdraws an open proposal. The proposer may cancel before any
// ballot was cast; the speaker may cancel at any time.
func (s *GovernanceService) Cancel(ctx context.Context, actor Actor, id string) (model.Proposal, error) {
	p, err := s.proposal(ctx, actor.GuildID, id)
	if err != nil {
		return model.Proposal{}, err
	}
	if !p.Open() {
		return model.Proposal{}, ErrProposalClosed
	}
	cfg, err := s.Config(ctx, actor.GuildID, p.Body)
	if err != nil {
		return model.Proposal{}, err
	}
	if !actor.HasRole(cfg.SpeakerRoleID) {
		if p.ProposerID != actor.UserID {
			return model.Proposal{}, denied("cancel this proposal", "proposer or speaker")
		}
		t, err := s.tally(ctx, p)
		if err != nil {
			return model.Proposal{}, err
		}
		if t.Cast() > 0 {
			return model.Proposal{}, invalid("proposal", "voting has already started")
		}
	}
	return s.finalize(ctx, p, model.ProposalCancelled, s.clock.Now())
}

// ExpireDue closes every open proposal whose deadline passed and returns
// how many it closed.
func (s *GovernanceService) ExpireDue(ctx context.Context) (int, error) {
	now := s.clock.Now()
	due, err := s.gov.ListDueProposals(ctx, now)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range due {
		if _, err := s.finalize(ctx, p, model.ProposalExpired, now); err != nil {
			if errors.Is(err, ErrProposalClosed) {
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}

// Summon calls members to the supreme assembly. Speaker only.
func (s *GovernanceService) Summon(ctx context.Context, actor Actor, body string, members []string, message string) ([]string, error) {
	if body != model.BodyAssembly {
		return nil, invalid("body", "only the supreme assembly can summon")
	}
	cfg, err := s.Config(ctx, actor.GuildID, body)
	if err != nil {
		return nil, err
	}
	if !actor.HasRole(cfg.SpeakerRoleID) {
		return nil, denied("summon members", "speaker")
	}
	members = uniqueIDs(members)
	if len(members) == 0 {
		return nil, invalid("members", "at least one member is required")
	}
	if utf8.RuneCountInString(message) > maxSummonMessage {
		return nil, invalid("message", "must be at most %d characters", maxSummonMessage)
	}
	s.publish(ctx, events.GovernanceEvent{
		Kind: events.MembersSummoned, GuildID: actor.GuildID, Body: body, ActorID: actor.UserID,
		Members: members, Message: strings.TrimSpace(message),
	})
	return members, nil
}
