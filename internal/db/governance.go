// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/econbot/econbot/internal/model"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// GetGovernanceConfig returns the body's configuration or model.ErrNotFound.
func (s *BunStore) GetGovernanceConfig(ctx context.Context, guildID, body string) (model.GovernanceConfig, error) {
	var row GovernanceConfigModel
	err := s.bun.NewSelect().Model(&row).Where("guild_id = ?", guildID).Where("body = ?", body).Limit(1).Scan(ctx)
	if err != nil {
		return model.GovernanceConfig{}, MapDBError(err)
	}
	return model.GovernanceConfig{
		GuildID:       row.GuildID,
		Body:          row.Body,
		MemberRoleID:  row.MemberRoleID,
		SpeakerRoleID: row.SpeakerRoleID,
		UpdatedAt:     row.UpdatedAt.UTC(),
	}, nil
}

// UpsertGovernanceConfig creates or replaces the body's configuration.
func (s *BunStore) UpsertGovernanceConfig(ctx context.Context, c model.GovernanceConfig) (model.GovernanceConfig, error) {
	c.UpdatedAt = s.nowUTC()
	row := GovernanceConfigModel{
		GuildID:       c.GuildID,
		Body:          c.Body,
		MemberRoleID:  c.MemberRoleID,
		SpeakerRoleID: c.SpeakerRoleID,
		UpdatedAt:     c.UpdatedAt,
	}
	if err := s.upsert(ctx, s.bun, &row, []string{"guild_id", "body"}, "member_role_id", "speaker_role_id", "updated_at"); err != nil {
		return model.GovernanceConfig{}, err
	}
	return c, nil
}

// CreateProposal stores the proposal together with its voter snapshot.
func (s *BunStore) CreateProposal(ctx context.Context, p model.Proposal) (model.Proposal, error) {
	if len(p.Voters) == 0 {
		return model.Proposal{}, fmt.Errorf("%w: proposal needs at least one voter", model.ErrValidation)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = model.ProposalOpen
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.nowUTC()
	}
	p.CreatedAt = dbTime(p.CreatedAt)
	p.Deadline = dbTime(p.Deadline)

	row := ProposalModel{
		ID:          p.ID,
		GuildID:     p.GuildID,
		Body:        p.Body,
		ProposerID:  p.ProposerID,
		Title:       p.Title,
		Description: p.Description,
		TargetID:    p.TargetID,
		Amount:      p.Amount,
		Status:      p.Status,
		Threshold:   p.Threshold,
		Deadline:    p.Deadline,
		CreatedAt:   p.CreatedAt,
	}
	voters := dedupe(p.Voters)
	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return MapDBError(err)
		}
		rows := make([]ProposalVoterModel, 0, len(voters))
		for _, v := range voters {
			rows = append(rows, ProposalVoterModel{ProposalID: p.ID, VoterID: v})
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return MapDBError(err)
		}
		return nil
	})
	if err != nil {
		return model.Proposal{}, err
	}
	p.Voters = voters
	return p, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *BunStore) loadVoters(ctx context.Context, db bun.IDB, proposalID string) ([]string, error) {
	var rows []ProposalVoterModel
	if err := db.NewSelect().Model(&rows).Where("proposal_id = ?", proposalID).OrderExpr("voter_id ASC").Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.VoterID)
	}
	return out, nil
}

// GetProposal loads a proposal with its voter snapshot.
func (s *BunStore) GetProposal(ctx context.Context, id string) (model.Proposal, error) {
	var row ProposalModel
	if err := s.bun.NewSelect().Model(&row).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.Proposal{}, fmt.Errorf("proposal %s: %w", id, MapDBError(err))
	}
	voters, err := s.loadVoters(ctx, s.bun, id)
	if err != nil {
		return model.Proposal{}, err
	}
	return proposalModelToModel(row, voters), nil
}

// ListProposals lists the body's proposals, newest first. An empty status
// lists every status.
func (s *BunStore) ListProposals(ctx context.Context, guildID, body, status string, limit int) ([]model.Proposal, error) {
	var rows []ProposalModel
	q := s.bun.NewSelect().Model(&rows).
		Where("guild_id = ?", guildID).
		Where("body = ?", body).
		OrderExpr("created_at DESC, id ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	return s.withVoters(ctx, rows)
}

func (s *BunStore) withVoters(ctx context.Context, rows []ProposalModel) ([]model.Proposal, error) {
	out := make([]model.Proposal, 0, len(rows))
	for _, r := range rows {
		voters, err := s.loadVoters(ctx, s.bun, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, proposalModelToModel(r, voters))
	}
	return out, nil
}

// CastVote records a ballot. Ballots are final: a second ballot by the same
// voter yields model.ErrAlreadyVoted.
func (s *BunStore) CastVote(ctx context.Context, v model.Vote) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now()
	}
	row := VoteModel{ProposalID: v.ProposalID, VoterID: v.VoterID, Choice: v.Choice, CreatedAt: dbTime(v.CreatedAt)}
	if _, err := s.bun.NewInsert().Model(&row).Exec(ctx); err != nil {
		if MapDBError(err) == ErrDuplicate {
			return model.ErrAlreadyVoted
		}
		return MapDBError(err)
	}
	return nil
}

// ListVotes returns the proposal's ballots in casting order.
func (s *BunStore) ListVotes(ctx context.Context, proposalID string) ([]model.Vote, error) {
	var rows []VoteModel
	if err := s.bun.NewSelect().Model(&rows).Where("proposal_id = ?", proposalID).OrderExpr("created_at ASC, voter_id ASC").Scan(ctx); err != nil {
		return nil, MapDBError(err)
	}
	out := make([]model.Vote, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Vote{ProposalID: r.ProposalID, VoterID: r.VoterID, Choice: r.Choice, CreatedAt: r.CreatedAt.UTC()})
	}
	return out, nil
}

// CloseProposal moves an open proposal to status. Only one caller can win
// the transition; others get model.ErrProposalClosed.
func (s *BunStore) CloseProposal(ctx context.Context, id, status string, at time.Time) (model.Proposal, error) {
	res, err := s.bun.NewUpdate().Model((*ProposalModel)(nil)).
		Set("status = ?", status).
		Set("closed_at = ?", dbTime(at)).
		Where("id = ?", id).
		Where("status = ?", model.ProposalOpen).
		Exec(ctx)
	if err != nil {
		return model.Proposal{}, MapDBError(err)
	}
	if affected(res) == 0 {
		if _, err := s.GetProposal(ctx, id); err != nil {
			return model.Proposal{}, err
		}
		return model.Proposal{}, model.ErrProposalClosed
	}
	return s.GetProposal(ctx, id)
}

// RecordProposalExecution stores the outcome of executing a passed proposal.
func (s *BunStore) RecordProposalExecution(ctx context.Context, id, status string, transactionID int64) error {
	_, err := s.bun.NewUpdate().Model((*ProposalModel)(nil)).
		Set("status = ?", status).
		Set("transaction_id = ?", transactionID).
		Where("id = ?", id).
		Exec(ctx)
	return MapDBError(err)
}

// ListDueProposals returns open proposals whose deadline has passed.
func (s *BunStore) ListDueProposals(ctx context.Context, now time.Time) ([]model.Proposal, error) {
	var rows []ProposalModel
	err := s.bun.NewSelect().Model(&rows).
		Where("status = ?", model.ProposalOpen).
		Where("deadline <= ?", dbTime(now)).
		OrderExpr("deadline ASC").
		Scan(ctx)
	if err != nil {
		return nil, MapDBError(err)
	}
	return s.withVoters(ctx, rows)
}
