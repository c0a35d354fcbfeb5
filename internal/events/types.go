// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package events

import (
	"time"

	"github.com/econbot/econbot/internal/model"
)

// State council event kinds.
const (
	CouncilConfigUpdated      = "config_updated"
	CouncilWelfareDisbursed   = "welfare_disbursed"
	CouncilTaxCollected       = "tax_collected"
	CouncilCurrencyIssued     = "currency_issued"
	CouncilDepartmentTransfer = "department_transfer"
	CouncilLicenseIssued      = "license_issued"
	CouncilLicenseRevoked     = "license_revoked"
	CouncilMemberArrested     = "member_arrested"
	CouncilMemberReleased     = "member_released"
)

// StateCouncilEvent describes an action taken by the state council.
type StateCouncilEvent struct {
	Kind          string
	GuildID       string
	ActorID       string
	Department    model.Department
	ToDepartment  model.Department
	TargetID      string
	Amount        int64
	Reason        string
	TransactionID int64
	SuspectRoleID string
	OccurredAt    time.Time
}

// Governance event kinds.
const (
	ProposalCreated         = "proposal_created"
	VoteCast                = "vote_cast"
	ProposalPassed          = "proposal_passed"
	ProposalRejected        = "proposal_rejected"
	ProposalExpired         = "proposal_expired"
	ProposalCancelled       = "proposal_cancelled"
	ProposalExecutionFailed = "proposal_execution_failed"
	MembersSummoned         = "members_summoned"
)

// GovernanceEvent describes council or assembly activity.
type GovernanceEvent struct {
	Kind       string
	GuildID    string
	Body       string
	ActorID    string
	Proposal   model.Proposal
	Tally      model.Tally
	Members    []string
	Message    string
	OccurredAt time.Time
}

// StateCouncilBus carries StateCouncilEvent values.
type StateCouncilBus = Bus[StateCouncilEvent]

// GovernanceBus carries GovernanceEvent values.
type GovernanceBus = Bus[GovernanceEvent]
