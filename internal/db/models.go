// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"
	"time"

	"github.com/econbot/econbot/internal/model"
	"github.com/uptrace/bun"
)

// BalanceModel maps the `balances` table. One row per guild member or
// system/government/company account.
type BalanceModel struct {
	bun.BaseModel  `bun:"table:balances"`
	GuildID        string       `bun:"guild_id,pk" json:"guild_id"`
	MemberID       string       `bun:"member_id,pk" json:"member_id"`
	Balance        int64        `bun:"balance,notnull" json:"balance"`
	LastModifiedAt time.Time    `bun:"last_modified_at,notnull" json:"last_modified_at"`
	LastTransferAt sql.NullTime `bun:"last_transfer_at" json:"-"`
	ThrottleUntil  sql.NullTime `bun:"throttle_until" json:"-"`
}

// TransactionModel maps the append-only `transactions` ledger.
type TransactionModel struct {
	bun.BaseModel `bun:"table:transactions"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	GuildID       string    `bun:"guild_id,notnull" json:"guild_id"`
	InitiatorID   string    `bun:"initiator_id,notnull" json:"initiator_id"`
	TargetID      string    `bun:"target_id,notnull" json:"target_id"`
	Amount        int64     `bun:"amount,notnull" json:"amount"`
	Kind          string    `bun:"kind,notnull" json:"kind"`
	Reason        string    `bun:"reason" json:"reason"`
	ActorID       string    `bun:"actor_id" json:"actor_id"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

// PendingTransferModel maps `pending_transfers` used by the event pool.
type PendingTransferModel struct {
	bun.BaseModel    `bun:"table:pending_transfers"`
	ID               string    `bun:"id,pk"`
	GuildID          string    `bun:"guild_id,notnull"`
	InitiatorID      string    `bun:"initiator_id,notnull"`
	TargetID         string    `bun:"target_id,notnull"`
	Amount           int64     `bun:"amount,notnull"`
	Reason           string    `bun:"reason"`
	InteractionToken string    `bun:"interaction_token"`
	Status           string    `bun:"status,notnull"`
	CheckBalance     bool      `bun:"check_balance,notnull"`
	CheckCooldown    bool      `bun:"check_cooldown,notnull"`
	CheckDailyLimit  bool      `bun:"check_daily_limit,notnull"`
	FailureReason    string    `bun:"failure_reason"`
	TransactionID    int64     `bun:"transaction_id,notnull"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
	UpdatedAt        time.Time `bun:"updated_at,notnull"`
	ExpiresAt        time.Time `bun:"expires_at,notnull"`
}

// CurrencyConfigModel maps `currency_configs`.
type CurrencyConfigModel struct {
	bun.BaseModel `bun:"table:currency_configs"`
	GuildID       string    `bun:"guild_id,pk" json:"guild_id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Icon          string    `bun:"icon,notnull" json:"icon"`
	Decimals      int       `bun:"decimals,notnull" json:"decimals"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// LicenseModel maps `business_licenses`.
type LicenseModel struct {
	bun.BaseModel `bun:"table:business_licenses"`
	ID            int64        `bun:"id,pk,autoincrement"`
	GuildID       string       `bun:"guild_id,notnull"`
	MemberID      string       `bun:"member_id,notnull"`
	LicenseType   string       `bun:"license_type,notnull"`
	Status        string       `bun:"status,notnull"`
	IssuedBy      string       `bun:"issued_by"`
	IssuedAt      time.Time    `bun:"issued_at,notnull"`
	RevokedAt     sql.NullTime `bun:"revoked_at"`
}

// CompanyModel maps `companies`. Names are unique per guild.
type CompanyModel struct {
	bun.BaseModel `bun:"table:companies"`
	ID            int64     `bun:"id,pk,autoincrement"`
	GuildID       string    `bun:"guild_id,notnull,unique:companies_guild_name"`
	Name          string    `bun:"name,notnull,unique:companies_guild_name"`
	OwnerID       string    `bun:"owner_id,notnull"`
	LicenseID     int64     `bun:"license_id,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

// StateCouncilConfigModel maps `state_council_configs`.
type StateCouncilConfigModel struct {
	bun.BaseModel        `bun:"table:state_council_configs"`
	GuildID              string    `bun:"guild_id,pk"`
	LeaderID             string    `bun:"leader_id"`
	LeaderRoleID         string    `bun:"leader_role_id"`
	SuspectRoleID        string    `bun:"suspect_role_id"`
	MonthlyIssuanceLimit int64     `bun:"monthly_issuance_limit,notnull"`
	UpdatedAt            time.Time `bun:"updated_at,notnull"`
}

// DepartmentRoleModel maps `department_roles`.
type DepartmentRoleModel struct {
	bun.BaseModel `bun:"table:department_roles"`
	GuildID       string `bun:"guild_id,pk"`
	Department    string `bun:"department,pk"`
	RoleID        string `bun:"role_id,notnull"`
}

// IdentityRecordModel maps `identity_records`.
type IdentityRecordModel struct {
	bun.BaseModel `bun:"table:identity_records"`
	ID            int64     `bun:"id,pk,autoincrement"`
	GuildID       string    `bun:"guild_id,notnull"`
	MemberID      string    `bun:"member_id,notnull"`
	Action        string    `bun:"action,notnull"`
	Reason        string    `bun:"reason"`
	PerformedBy   string    `bun:"performed_by"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

// GovernanceConfigModel maps `governance_configs`, one row per guild and body.
type GovernanceConfigModel struct {
	bun.BaseModel `bun:"table:governance_configs"`
	GuildID       string    `bun:"guild_id,pk"`
	Body          string    `bun:"body,pk"`
	MemberRoleID  string    `bun:"member_role_id"`
	SpeakerRoleID string    `bun:"speaker_role_id"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

// ProposalModel maps `proposals`.
type ProposalModel struct {
	bun.BaseModel `bun:"table:proposals"`
	ID            string       `bun:"id,pk"`
	GuildID       string       `bun:"guild_id,notnull"`
	Body          string       `bun:"body,notnull"`
	ProposerID    string       `bun:"proposer_id,notnull"`
	Title         string       `bun:"title,notnull"`
	Description   string       `bun:"description,type:text"`
	TargetID      string       `bun:"target_id"`
	Amount        int64        `bun:"amount,notnull"`
	Status        string       `bun:"status,notnull"`
	Threshold     int          `bun:"threshold,notnull"`
	Deadline      time.Time    `bun:"deadline,notnull"`
	CreatedAt     time.Time    `bun:"created_at,notnull"`
	ClosedAt      sql.NullTime `bun:"closed_at"`
	TransactionID int64        `bun:"transaction_id,notnull"`
}

// ProposalVoterModel maps `proposal_voters`, the voter snapshot of a proposal.
type ProposalVoterModel struct {
	bun.BaseModel `bun:"table:proposal_voters"`
	ProposalID    string `bun:"proposal_id,pk"`
	VoterID       string `bun:"voter_id,pk"`
}

// VoteModel maps `votes`. The primary key makes a ballot final.
type VoteModel struct {
	bun.BaseModel `bun:"table:votes"`
	ProposalID    string    `bun:"proposal_id,pk"`
	VoterID       string    `bun:"voter_id,pk"`
	Choice        string    `bun:"choice,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: dbTime(*t), Valid: true}
}

// dbTime normalizes timestamps before they are written: UTC with microsecond
// precision, which every backend round-trips.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func balanceModelToModel(m BalanceModel) model.BalanceSnapshot {
	return model.BalanceSnapshot{
		GuildID:       m.GuildID,
		MemberID:      m.MemberID,
		Balance:       m.Balance,
		UpdatedAt:     m.LastModifiedAt.UTC(),
		ThrottleUntil: nullTimePtr(m.ThrottleUntil),
	}
}

func pendingModelToModel(m PendingTransferModel) model.PendingTransfer {
	return model.PendingTransfer{
		ID:               m.ID,
		GuildID:          m.GuildID,
		InitiatorID:      m.InitiatorID,
		TargetID:         m.TargetID,
		Amount:           m.Amount,
		Reason:           m.Reason,
		InteractionToken: m.InteractionToken,
		Status:           m.Status,
		Checks: model.TransferChecks{
			Balance:    m.CheckBalance,
			Cooldown:   m.CheckCooldown,
			DailyLimit: m.CheckDailyLimit,
		},
		FailureReason: m.FailureReason,
		TransactionID: m.TransactionID,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
		ExpiresAt:     m.ExpiresAt.UTC(),
	}
}

func pendingToModel(p model.PendingTransfer) PendingTransferModel {
	return PendingTransferModel{
		ID:               p.ID,
		GuildID:          p.GuildID,
		InitiatorID:      p.InitiatorID,
		TargetID:         p.TargetID,
		Amount:           p.Amount,
		Reason:           p.Reason,
		InteractionToken: p.InteractionToken,
		Status:           p.Status,
		CheckBalance:     p.Checks.Balance,
		CheckCooldown:    p.Checks.Cooldown,
		CheckDailyLimit:  p.Checks.DailyLimit,
		FailureReason:    p.FailureReason,
		TransactionID:    p.TransactionID,
		CreatedAt:        dbTime(p.CreatedAt),
		UpdatedAt:        dbTime(p.UpdatedAt),
		ExpiresAt:        dbTime(p.ExpiresAt),
	}
}

func licenseModelToModel(m LicenseModel) model.BusinessLicense {
	return model.BusinessLicense{
		ID:          m.ID,
		GuildID:     m.GuildID,
		MemberID:    m.MemberID,
		LicenseType: m.LicenseType,
		Status:      m.Status,
		IssuedBy:    m.IssuedBy,
		IssuedAt:    m.IssuedAt.UTC(),
		RevokedAt:   nullTimePtr(m.RevokedAt),
	}
}

func companyModelToModel(m CompanyModel) model.Company {
	return model.Company{
		ID:        m.ID,
		GuildID:   m.GuildID,
		OwnerID:   m.OwnerID,
		Name:      m.Name,
		LicenseID: m.LicenseID,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func identityModelToModel(m IdentityRecordModel) model.IdentityRecord {
	return model.IdentityRecord{
		ID:          m.ID,
		GuildID:     m.GuildID,
		MemberID:    m.MemberID,
		Action:      m.Action,
		Reason:      m.Reason,
		PerformedBy: m.PerformedBy,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

func proposalModelToModel(m ProposalModel, voters []string) model.Proposal {
	return model.Proposal{
		ID:            m.ID,
		GuildID:       m.GuildID,
		Body:          m.Body,
		ProposerID:    m.ProposerID,
		Title:         m.Title,
		Description:   m.Description,
		TargetID:      m.TargetID,
		Amount:        m.Amount,
		Status:        m.Status,
		Threshold:     m.Threshold,
		Voters:        voters,
		Deadline:      m.Deadline.UTC(),
		CreatedAt:     m.CreatedAt.UTC(),
		ClosedAt:      nullTimePtr(m.ClosedAt),
		TransactionID: m.TransactionID,
	}
}
