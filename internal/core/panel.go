// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"

	"github.com/econbot/econbot/internal/db"
	"github.com/econbot/econbot/internal/model"
)

// PanelHistoryLimit is the number of recent entries on the personal panel.
const PanelHistoryLimit = 5

// PersonalPanel aggregates what a member sees about themselves.
type PersonalPanel struct {
	economy   db.EconomyGateway
	companies db.CompanyGateway
	licenses  db.StateCouncilGateway
	config    db.ConfigurationGateway
}

// NewPersonalPanel wires the panel.
func NewPersonalPanel(economy db.EconomyGateway, companies db.CompanyGateway, licenses db.StateCouncilGateway, config db.ConfigurationGateway) *PersonalPanel {
	return &PersonalPanel{economy: economy, companies: companies, licenses: licenses, config: config}
}

// Summary returns the actor's balance, recent history, companies and licenses.
func (p *PersonalPanel) Summary(ctx context.Context, actor Actor) (model.PersonalSummary, error) {
	var out model.PersonalSummary
	var err error
	if out.Balance, err = p.economy.GetBalance(ctx, actor.GuildID, actor.UserID); err != nil {
		return model.PersonalSummary{}, err
	}
	page, err := p.economy.GetHistory(ctx, actor.GuildID, actor.UserID, PanelHistoryLimit, "")
	if err != nil {
		return model.PersonalSummary{}, err
	}
	out.Recent = page.Entries
	if out.Companies, err = p.companies.ListCompaniesByOwner(ctx, actor.GuildID, actor.UserID); err != nil {
		return model.PersonalSummary{}, err
	}
	if out.Licenses, err = p.licenses.ListLicenses(ctx, actor.GuildID, actor.UserID); err != nil {
		return model.PersonalSummary{}, err
	}
	if out.Currency, err = p.config.GetCurrencyConfig(ctx, actor.GuildID); err != nil {
		return model.PersonalSummary{}, err
	}
	return out, nil
}
