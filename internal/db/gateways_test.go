// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/econbot/econbot/internal/model"
)

func TestPendingTransferLifecycle(t *testing.T) {
	WithTestStore(t, func(s *BunStore) {
		ctx := context.Background()
		p, err := s.CreatePendingTransfer(ctx, model.PendingTransfer{
			GuildID: "g1", InitiatorID: "alice", TargetID: "bob", Amount: 5,
			InteractionToken: "tok", ExpiresAt: testNow.Add(10 * time.Minute),
		})
		if err != nil {
			t.Fatalf("CreatePendingTransfer: %v", err)
		}
		if p.ID == "" || p.Status != model.PendingStatusPending {
			t.Fatalf("unexpected pending transfer: %+v", p)
		}
		if _, err := s.CreatePendingTransfer(ctx, model.PendingTransfer{GuildID: "g1", InitiatorID: "a", TargetID: "b", Amount: 1}); !errors.Is(err, model.ErrValidation) {
			t.Fatalf("expected ErrValidation without expiry, got %v", err)
		}

		list, err := s.ListPendingTransfers(ctx, model.PendingStatusPending, 10)
		if err != nil || len(list) != 1 {
			t.Fatalf("ListPendingTransfers = %v, %v", list, err)
		}

		p.Status = model.PendingStatusCompleted
		p.Checks = model.TransferChecks{Balance: true, Cooldown: true, DailyLimit: true}
		p.TransactionID = 7
		if err := s.UpdatePendingTransfer(ctx, p); err != nil {
			t.Fatalf("UpdatePendingTransfer: %v", err)
		}
		got, err := s.GetPendingTransfer(ctx, p.ID)
		if err != nil {
			t.Fatalf("GetPendingTransfer: %v", err)
		}
		if got.Status != model.PendingStatusCompleted || !got.Checks.AllPassed() || got.TransactionID != 7 || got.InteractionToken != "tok" {
			t.Fatalf("update not persisted: %+v", got)
		}

		// A finished transfer is immutable.
		got.Status = model.PendingStatusRejected
		if err := s.UpdatePendingTransfer(ctx, got); !errors.Is(err, model.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		if _, err := s.GetPendingTransfer(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestCurrencyConfig_DefaultAndUpsert(t *testing.T) {
	WithTestStore(t, func(s *BunStore) {
		ctx := context.Background()
		c, err := s.GetCurrencyConfig(ctx, "g1")
		if err != nil {
			t.Fatalf("GetCurrencyConfig: %v", err)
		}
		if c != model.DefaultCurrencyConfig("g1") {
			t.Fatalf("expected default currency, got %+v", c)
		}
		for _, name := range []string{"Gold", "Silver"} {
			if _, err := s.UpsertCurrencyConfig(ctx, model.CurrencyConfig{GuildID: "g1", Name: name, Icon: "$", Decimals: 2}); err != nil {
				t.Fatalf("UpsertCurrencyConfig(%s): %v", name, err)
			}
		}
		c, _ = s.GetCurrencyConfig(ctx, "g1")
		if c.Name != "Silver" || c.Decimals != 2 || c.Icon != "$" {
			t.Fatalf("upsert not applied: %+v", c)
		}
	})
}

func TestCompanies(t *testing.T) {
	WithTestStore(t, func(s *BunStore) {
		ctx := context.Background()
		c, err := s.CreateCompany(ctx, model.Company{GuildID: "g1", OwnerID: "alice", Name: "Acme", LicenseID: 1})
		if err != nil {
			t.Fatalf("CreateCompany: %v", err)
		}
		if c.ID == 0 || c.AccountID() != model.CompanyAccountID(c.ID) {
			t.Fatalf("unexpected company: %+v", c)
		}
		if _, err := s.CreateCompany(ctx, model.Company{GuildID: "g1", OwnerID: "bob", Name: "Acme", LicenseID: 2}); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for same name, got %v", err)
		}
		if _, err := s.CreateCompany(ctx, model.Company{GuildID: "g2", OwnerID: "bob", Name: "Acme", LicenseID: 2}); err != nil {
			t.Fatalf("same name in another guild should work: %v", err)
		}
		if _, err := s.CreateCompany(ctx, model.Company{GuildID: "g1", OwnerID: "alice", Name: "Globex", LicenseID: 1}); err != nil {
			t.Fatalf("CreateCompany Globex: %v", err)
		}

		n, err := s.CountCompaniesByOwner(ctx, "g1", "alice")
		if err != nil || n != 2 {
			t.Fatalf("CountCompaniesByOwner = %d, %v", n, err)
		}
		mine, err := s.ListCompaniesByOwner(ctx, "g1", "alice")
		if err != nil || len(mine) != 2 || mine[0].Name != "Acme" {
			t.Fatalf("ListCompaniesByOwner = %+v, %v", mine, err)
		}
		page, total, err := s.ListCompanies(ctx, "g1", 1, 1)
		if err != nil || total != 2 || len(page) != 1 || page[0].Name != "Globex" {
			t.Fatalf("ListCompanies = %+v, %d, %v", page, total, err)
		}
		if _, err := s.GetCompany(ctx, "g2", c.ID); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("company must be scoped to its guild, got %v", err)
		}
	})
}

func TestStateCouncilConfigAndLicenses(t *testing.T) {
	WithTestStore(t, func(s *BunStore) {
		ctx := context.Background()
		if _, err := s.GetStateCouncilConfig(ctx, "g1"); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("expected ErrNotFound before configuration, got %v", err)
		}
		cfg := model.StateCouncilConfig{
			GuildID: "g1", LeaderID: "leader",
			DepartmentRoles: map[model.Department]string{model.DepartmentFinance: "r-fin", model.DepartmentInterior: "r-int"},
		}
		if _, err := s.UpsertStateCouncilConfig(ctx, cfg); err != nil {
			t.Fatalf("UpsertStateCouncilConfig: %v", err)
		}
		delete(cfg.DepartmentRoles, model.DepartmentInterior)
		cfg.MonthlyIssuanceLimit = 1000
		if _, err := s.UpsertStateCouncilConfig(ctx, cfg); err != nil {
			t.Fatalf("second UpsertStateCouncilConfig: %v", err)
		}
		got, err := s.GetStateCouncilConfig(ctx, "g1")
		if err != nil {
			t.Fatalf("GetStateCouncilConfig: %v", err)
		}
		if got.LeaderID != "leader" || got.MonthlyIssuanceLimit != 1000 || len(got.DepartmentRoles) != 1 || got.DepartmentRoles[model.DepartmentFinance] != "r-fin" {
			t.Fatalf("unexpected config: %+v", got)
		}

		lic, err := s.IssueLicense(ctx, model.BusinessLicense{GuildID: "g1", MemberID: "alice", LicenseType: model.LicenseTypeCompany, IssuedBy: "interior"})
		if err != nil {
			t.Fatalf("IssueLicense: %v", err)
		}
		if _, err := s.IssueLicense(ctx, model.BusinessLicense{GuildID: "g1", MemberID: "alice", LicenseType: model.LicenseTypeCompany}); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for second active license, got %v", err)
		}
		active, err := s.ActiveLicense(ctx, "g1", "alice", model.LicenseTypeCompany)
		if err != nil || active.ID != lic.ID {
			t.Fatalf("ActiveLicense = %+v, %v", active, err)
		}
		revoked, err := s.RevokeLicense(ctx, "g1", "alice", model.LicenseTypeCompany, testNow)
		if err != nil || revoked.Status != model.LicenseRevoked || revoked.RevokedAt == nil {
			t.Fatalf("RevokeLicense = %+v, %v", revoked, err)
		}
		if _, err := s.ActiveLicense(ctx, "g1", "alice", model.LicenseTypeCompany); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("expected no active license after revoke, got %v", err)
		}
		all, err := s.ListLicenses(ctx, "g1", "alice")
		if err != nil || len(all) != 1 || all[0].Status != model.LicenseRevoked {
			t.Fatalf("ListLicenses = %+v, %v", all, err)
		}
	})
}

func TestIdentityRecords(t *testing.T) {
	WithTestStore(t, func(s *BunStore) {
		ctx := context.Background()
		for _, action := range []string{model.IdentityArrest, model.IdentityRelease, model.IdentityArrest} {
			if _, err := s.RecordIdentity(ctx, model.IdentityRecord{GuildID: "g1", MemberID: "mallory", Action: action, PerformedBy: "sheriff"}); err != nil {
				t.Fatalf("RecordIdentity: %v", err)
			}
		}
		recs, err := s.ListIdentity(ctx, "g1", "mallory", 0)
		if err != nil || len(recs) != 3 {
			t.Fatalf("ListIdentity = %+v, %v", recs, err)
		}
		last, err := s.LastIdentity(ctx, "g1", "mallory")
		if err != nil || last.Action != model.IdentityArrest || last.ID != recs[0].ID {
			t.Fatalf("LastIdentity = %+v, %v", last, err)
		}
		if _, err := s.LastIdentity(ctx, "g1", "nobody"); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestGovernanceProposalsAndVotes(t *testing.T) {
	WithTestStore(t, func(s *BunStore) {
		ctx := context.Background()
		if _, err := s.UpsertGovernanceConfig(ctx, model.GovernanceConfig{GuildID: "g1", Body: model.BodyCouncil, MemberRoleID: "r1", SpeakerRoleID: "r2"}); err != nil {
			t.Fatalf("UpsertGovernanceConfig: %v", err)
		}
		gc, err := s.GetGovernanceConfig(ctx, "g1", model.BodyCouncil)
		if err != nil || gc.MemberRoleID != "r1" {
			t.Fatalf("GetGovernanceConfig = %+v, %v", gc, err)
		}
		if _, err := s.GetGovernanceConfig(ctx, "g1", model.BodyAssembly); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for assembly, got %v", err)
		}

		p, err := s.CreateProposal(ctx, model.Proposal{
			GuildID: "g1", Body: model.BodyCouncil, ProposerID: "alice", Title: "Fund park",
			Voters: []string{"alice", "bob", "bob", "carol"}, Threshold: 2, Deadline: testNow.Add(72 * time.Hour),
		})
		if err != nil {
			t.Fatalf("CreateProposal: %v", err)
		}
		if len(p.Voters) != 3 || p.Status != model.ProposalOpen {
			t.Fatalf("voters must be deduplicated: %+v", p)
		}
		if _, err := s.CreateProposal(ctx, model.Proposal{GuildID: "g1", Body: model.BodyCouncil, Title: "x"}); !errors.Is(err, model.ErrValidation) {
			t.Fatalf("expected ErrValidation without voters, got %v", err)
		}

		if err := s.CastVote(ctx, model.Vote{ProposalID: p.ID, VoterID: "bob", Choice: model.VoteApprove}); err != nil {
			t.Fatalf("CastVote: %v", err)
		}
		if err := s.CastVote(ctx, model.Vote{ProposalID: p.ID, VoterID: "bob", Choice: model.VoteReject}); !errors.Is(err, model.ErrAlreadyVoted) {
			t.Fatalf("expected ErrAlreadyVoted, got %v", err)
		}
		votes, err := s.ListVotes(ctx, p.ID)
		if err != nil || len(votes) != 1 || votes[0].Choice != model.VoteApprove {
			t.Fatalf("ListVotes = %+v, %v", votes, err)
		}

		due, err := s.ListDueProposals(ctx, testNow.Add(73*time.Hour))
		if err != nil || len(due) != 1 || due[0].ID != p.ID {
			t.Fatalf("ListDueProposals = %+v, %v", due, err)
		}
		if due, _ := s.ListDueProposals(ctx, testNow); len(due) != 0 {
			t.Fatalf("proposal is not due yet: %+v", due)
		}

		closed, err := s.CloseProposal(ctx, p.ID, model.ProposalPassed, testNow)
		if err != nil || closed.Status != model.ProposalPassed || closed.ClosedAt == nil {
			t.Fatalf("CloseProposal = %+v, %v", closed, err)
		}
		if _, err := s.CloseProposal(ctx, p.ID, model.ProposalRejected, testNow); !errors.Is(err, model.ErrProposalClosed) {
			t.Fatalf("expected ErrProposalClosed, got %v", err)
		}
		if err := s.RecordProposalExecution(ctx, p.ID, model.ProposalPassed, 99); err != nil {
			t.Fatalf("RecordProposalExecution: %v", err)
		}
		got, err := s.GetProposal(ctx, p.ID)
		if err != nil || got.TransactionID != 99 {
			t.Fatalf("GetProposal = %+v, %v", got, err)
		}
		list, err := s.ListProposals(ctx, "g1", model.BodyCouncil, model.ProposalPassed, 10)
		if err != nil || len(list) != 1 {
			t.Fatalf("ListProposals = %+v, %v", list, err)
		}
	})
}
