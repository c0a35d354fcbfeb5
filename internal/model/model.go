// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model holds the snapshot types passed between the gateway, service
// and bot layers. Values mirror database rows for a single request/response
// cycle and carry no lifecycle of their own.
package model

import (
	"fmt"
	"time"
)

// Transaction kinds recorded in the ledger.
const (
	KindTransfer          = "transfer"
	KindAdjustment        = "adjustment"
	KindWelfare           = "welfare"
	KindTax               = "tax"
	KindIssuance          = "issuance"
	KindDepartment        = "department_transfer"
	KindCompanyTransfer   = "company_transfer"
	KindCompanyDeposit    = "company_deposit"
	KindGovernancePayout  = "governance_payout"
	SystemMintAccountID   = "system:mint"
	SystemBurnAccountID   = "system:burn"
	CouncilAccountID      = "gov:council"
	AssemblyAccountID     = "gov:assembly"
	companyAccountPrefix  = "company:"
	departmentAccountBase = "gov:"
)

// BalanceSnapshot is the balance of one account at read time.
type BalanceSnapshot struct {
	GuildID       string
	MemberID      string
	Balance       int64
	UpdatedAt     time.Time
	ThrottleUntil *time.Time
}

// Throttled reports whether the account is still inside its transfer cooldown.
func (b BalanceSnapshot) Throttled(now time.Time) bool {
	return b.ThrottleUntil != nil && now.Before(*b.ThrottleUntil)
}

// Direction of a ledger row relative to the member whose history is read.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// HistoryEntry is one ledger row seen from a member's perspective.
type HistoryEntry struct {
	TransactionID int64
	GuildID       string
	InitiatorID   string
	TargetID      string
	Amount        int64
	Kind          string
	Reason        string
	Direction     Direction
	CreatedAt     time.Time
}

// Counterparty returns the other side of the entry.
func (h HistoryEntry) Counterparty() string {
	if h.Direction == DirectionOut {
		return h.TargetID
	}
	return h.InitiatorID
}

// HistoryPage is one page of history plus the cursor for the next page.
// NextCursor is empty on the last page.
type HistoryPage struct {
	Entries    []HistoryEntry
	NextCursor string
}

// TransferRequest describes a balance movement between two accounts.
type TransferRequest struct {
	GuildID     string
	InitiatorID string
	TargetID    string
	Amount      int64
	Kind        string
	Reason      string
	ActorID     string
	// Cooldown and DailyLimit are enforced only when TrackThrottle is set.
	Cooldown      time.Duration
	DailyLimit    int64
	TrackThrottle bool
	Now           time.Time
}

// TransferResult is the outcome of a committed transfer.
type TransferResult struct {
	TransactionID    int64
	GuildID          string
	InitiatorID      string
	TargetID         string
	Amount           int64
	InitiatorBalance int64
	TargetBalance    int64
	Kind             string
	Reason           string
	CreatedAt        time.Time
}

// Pending transfer statuses.
const (
	PendingStatusPending   = "pending"
	PendingStatusCompleted = "completed"
	PendingStatusRejected  = "rejected"
	PendingStatusExpired   = "expired"
)

// TransferChecks aggregates the preconditions of a pending transfer.
type TransferChecks struct {
	Balance    bool
	Cooldown   bool
	DailyLimit bool
}

// AllPassed reports whether every check passed.
func (c TransferChecks) AllPassed() bool {
	return c.Balance && c.Cooldown && c.DailyLimit
}

// PendingTransfer is a transfer waiting in the event pool.
type PendingTransfer struct {
	ID               string
	GuildID          string
	InitiatorID      string
	TargetID         string
	Amount           int64
	Reason           string
	InteractionToken string
	Status           string
	Checks           TransferChecks
	FailureReason    string
	TransactionID    int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ExpiresAt        time.Time
}

// Open reports whether the transfer can still be processed.
func (p PendingTransfer) Open() bool {
	return p.Status == PendingStatusPending
}

// CurrencyConfig is the per-guild currency presentation.
type CurrencyConfig struct {
	GuildID  string
	Name     string
	Icon     string
	Decimals int
}

// DefaultCurrencyConfig is used for guilds without a stored configuration.
func DefaultCurrencyConfig(guildID string) CurrencyConfig {
	return CurrencyConfig{GuildID: guildID, Name: "Coin", Icon: "🪙", Decimals: 0}
}

// Format renders amount with the currency icon and name.
func (c CurrencyConfig) Format(amount int64) string {
	return fmt.Sprintf("%s %s %s", c.Icon, FormatAmount(amount, c.Decimals), c.Name)
}

// Company is a member-owned business with its own ledger account.
type Company struct {
	ID        int64
	GuildID   string
	OwnerID   string
	Name      string
	LicenseID int64
	CreatedAt time.Time
}

// AccountID is the ledger account that holds the company's funds.
func (c Company) AccountID() string {
	return CompanyAccountID(c.ID)
}

// CompanyAccountID returns the ledger account id for a company id.
func CompanyAccountID(id int64) string {
	return fmt.Sprintf("%s%d", companyAccountPrefix, id)
}

// License statuses and types.
const (
	LicenseActive      = "active"
	LicenseRevoked     = "revoked"
	LicenseTypeCompany = "company"
)

// BusinessLicense grants a member the right to operate a business.
type BusinessLicense struct {
	ID          int64
	GuildID     string
	MemberID    string
	LicenseType string
	Status      string
	IssuedBy    string
	IssuedAt    time.Time
	RevokedAt   *time.Time
}

// Department is a state council department.
type Department string

const (
	DepartmentInterior    Department = "interior"
	DepartmentFinance     Department = "finance"
	DepartmentSecurity    Department = "security"
	DepartmentCentralBank Department = "central_bank"
)

// Departments lists every department in display order.
var Departments = []Department{
	DepartmentInterior,
	DepartmentFinance,
	DepartmentSecurity,
	DepartmentCentralBank,
}

// ParseDepartment validates a department name.
func ParseDepartment(s string) (Department, bool) {
	for _, d := range Departments {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// AccountID is the government ledger account of the department.
func (d Department) AccountID() string {
	return departmentAccountBase + string(d)
}

// StateCouncilConfig is the per-guild state council setup.
type StateCouncilConfig struct {
	GuildID              string
	LeaderID             string
	LeaderRoleID         string
	SuspectRoleID        string
	DepartmentRoles      map[Department]string
	MonthlyIssuanceLimit int64
	UpdatedAt            time.Time
}

// DepartmentBalance is a department account balance used in summaries.
type DepartmentBalance struct {
	Department Department
	Balance    int64
}

// StateCouncilSummary is the council overview.
type StateCouncilSummary struct {
	Config          StateCouncilConfig
	Balances        []DepartmentBalance
	IssuedThisMonth int64
}

// Identity actions recorded by the security department.
const (
	IdentityArrest  = "arrest"
	IdentityRelease = "release"
)

// IdentityRecord is an arrest or release performed by the security department.
type IdentityRecord struct {
	ID          int64
	GuildID     string
	MemberID    string
	Action      string
	Reason      string
	PerformedBy string
	CreatedAt   time.Time
}

// Governance bodies.
const (
	BodyCouncil  = "council"
	BodyAssembly = "assembly"
)

// GovernanceConfig configures a governance body in a guild.
type GovernanceConfig struct {
	GuildID       string
	Body          string
	MemberRoleID  string
	SpeakerRoleID string
	UpdatedAt     time.Time
}

// Proposal statuses.
const (
	ProposalOpen            = "open"
	ProposalPassed          = "passed"
	ProposalRejected        = "rejected"
	ProposalExpired         = "expired"
	ProposalCancelled       = "cancelled"
	ProposalExecutionFailed = "execution_failed"
)

// Proposal is a motion voted on by a snapshot of members.
type Proposal struct {
	ID            string
	GuildID       string
	Body          string
	ProposerID    string
	Title         string
	Description   string
	TargetID      string
	Amount        int64
	Status        string
	Threshold     int
	Voters        []string
	Deadline      time.Time
	CreatedAt     time.Time
	ClosedAt      *time.Time
	TransactionID int64
}

// Open reports whether votes are still accepted.
func (p Proposal) Open() bool {
	return p.Status == ProposalOpen
}

// IsVoter reports whether memberID is part of the voter snapshot.
func (p Proposal) IsVoter(memberID string) bool {
	for _, v := range p.Voters {
		if v == memberID {
			return true
		}
	}
	return false
}

// Vote choices.
const (
	VoteApprove = "approve"
	VoteReject  = "reject"
	VoteAbstain = "abstain"
)

// ValidVoteChoice reports whether choice is a known vote value.
func ValidVoteChoice(choice string) bool {
	switch choice {
	case VoteApprove, VoteReject, VoteAbstain:
		return true
	}
	return false
}

// Vote is one member's ballot.
type Vote struct {
	ProposalID string
	VoterID    string
	Choice     string
	CreatedAt  time.Time
}

// Tally counts the ballots of a proposal.
type Tally struct {
	Approve   int
	Reject    int
	Abstain   int
	Eligible  int
	Threshold int
}

// Cast is the number of ballots received.
func (t Tally) Cast() int { return t.Approve + t.Reject + t.Abstain }

// PersonalSummary backs the personal panel.
type PersonalSummary struct {
	Balance   BalanceSnapshot
	Recent    []HistoryEntry
	Companies []Company
	Licenses  []BusinessLicense
	Currency  CurrencyConfig
}
