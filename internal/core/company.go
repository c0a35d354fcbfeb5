// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/econbot/econbot/internal/db"
	"github.com/econbot/econbot/internal/logging"
	"github.com/econbot/econbot/internal/model"
)

// Company rules.
const (
	MaxCompaniesPerOwner = 5
	CompanyPageSize      = 10
	minCompanyName       = 2
	maxCompanyName       = 50
)

// CompanyPage is one page of a guild's companies.
type CompanyPage struct {
	Companies []model.Company
	Total     int
	Page      int
	PageSize  int
}

// Pages returns the number of pages.
func (p CompanyPage) Pages() int {
	if p.PageSize <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// CompanyService manages member companies and their accounts.
type CompanyService struct {
	companies db.CompanyGateway
	licenses  db.StateCouncilGateway
	economy   db.EconomyGateway
	emitter   Emitter
	log       *logging.Logger
}

// NewCompanyService wires the service. emitter may be nil.
func NewCompanyService(companies db.CompanyGateway, licenses db.StateCouncilGateway, economy db.EconomyGateway, emitter Emitter) *CompanyService {
	return &CompanyService{
		companies: companies,
		licenses:  licenses,
		economy:   economy,
		emitter:   emitter,
		log:       logging.For("company"),
	}
}

// Create registers a company owned by the actor. The actor needs an active
// company license and may own at most MaxCompaniesPerOwner companies.
func (s *CompanyService) Create(ctx context.Context, actor Actor, name string) (model.Company, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < minCompanyName || n > maxCompanyName {
		return model.Company{}, invalid("name", "must be %d to %d characters", minCompanyName, maxCompanyName)
	}
	lic, err := s.licenses.ActiveLicense(ctx, actor.GuildID, actor.UserID, model.LicenseTypeCompany)
	if errors.Is(err, ErrNotFound) {
		return model.Company{}, denied("create a company", "an active company license")
	}
	if err != nil {
		return model.Company{}, err
	}
	n, err := s.companies.CountCompaniesByOwner(ctx, actor.GuildID, actor.UserID)
	if err != nil {
		return model.Company{}, err
	}
	if n >= MaxCompaniesPerOwner {
		return model.Company{}, invalid("company", "you already own %d companies", MaxCompaniesPerOwner)
	}
	c, err := s.companies.CreateCompany(ctx, model.Company{
		GuildID:   actor.GuildID,
		OwnerID:   actor.UserID,
		Name:      name,
		LicenseID: lic.ID,
	})
	if errors.Is(err, db.ErrDuplicate) {
		return model.Company{}, invalid("name", "%q is already taken", name)
	}
	return c, err
}

// Get returns a company of the guild.
func (s *CompanyService) Get(ctx context.Context, guildID string, id int64) (model.Company, error) {
	return s.companies.GetCompany(ctx, guildID, id)
}

// ListMine returns the companies owned by the actor.
func (s *CompanyService) ListMine(ctx context.Context, actor Actor) ([]model.Company, error) {
	return s.companies.ListCompaniesByOwner(ctx, actor.GuildID, actor.UserID)
}

// List returns page (1-based) of the guild's companies.
func (s *CompanyService) List(ctx context.Context, guildID string, page int) (CompanyPage, error) {
	if page < 1 {
		page = 1
	}
	rows, total, err := s.companies.ListCompanies(ctx, guildID, CompanyPageSize, (page-1)*CompanyPageSize)
	if err != nil {
		return CompanyPage{}, err
	}
	return CompanyPage{Companies: rows, Total: total, Page: page, PageSize: CompanyPageSize}, nil
}

func (s *CompanyService) owned(ctx context.Context, actor Actor, id int64, allowAdmin bool) (model.Company, error) {
	c, err := s.companies.GetCompany(ctx, actor.GuildID, id)
	if err != nil {
		return model.Company{}, err
	}
	if c.OwnerID != actor.UserID && !(allowAdmin && actor.IsAdmin) {
		return model.Company{}, denied("manage this company", "ownership")
	}
	return c, nil
}

// Balance returns the company account balance. Owner or admin.
func (s *CompanyService) Balance(ctx context.Context, actor Actor, id int64) (model.BalanceSnapshot, error) {
	c, err := s.owned(ctx, actor, id, true)
	if err != nil {
		return model.BalanceSnapshot{}, err
	}
	return s.economy.GetBalance(ctx, actor.GuildID, c.AccountID())
}

// Transfer pays amount from the company account to a member. Owner only.
func (s *CompanyService) Transfer(ctx context.Context, actor Actor, id int64, targetID string, amount int64, reason string) (model.TransferResult, error) {
	c, err := s.owned(ctx, actor, id, false)
	if err != nil {
		return model.TransferResult{}, err
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return model.TransferResult{}, invalid("target", "is required")
	}
	if amount <= 0 {
		return model.TransferResult{}, invalid("amount", "must be positive")
	}
	if err := checkReason(reason); err != nil {
		return model.TransferResult{}, err
	}
	res, err := s.economy.Transfer(ctx, model.TransferRequest{
		GuildID:     actor.GuildID,
		InitiatorID: c.AccountID(),
		TargetID:    targetID,
		Amount:      amount,
		Kind:        model.KindCompanyTransfer,
		Reason:      reason,
		ActorID:     actor.UserID,
	})
	if err != nil {
		return model.TransferResult{}, err
	}
	emitLogged(ctx, s.emitter, s.log, successEvent(res, "", ""))
	return res, nil
}

// Deposit moves amount from the owner's balance into the company account.
func (s *CompanyService) Deposit(ctx context.Context, actor Actor, id int64, amount int64) (model.TransferResult, error) {
	c, err := s.owned(ctx, actor, id, false)
	if err != nil {
		return model.TransferResult{}, err
	}
	if amount <= 0 {
		return model.TransferResult{}, invalid("amount", "must be positive")
	}
	return s.economy.Transfer(ctx, model.TransferRequest{
		GuildID:     actor.GuildID,
		InitiatorID: actor.UserID,
		TargetID:    c.AccountID(),
		Amount:      amount,
		Kind:        model.KindCompanyDeposit,
		ActorID:     actor.UserID,
	})
}
