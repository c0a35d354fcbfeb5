// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package bot

import (
	"context"
	"strings"

	"github.com/econbot/econbot/internal/core"
	"github.com/econbot/econbot/internal/model"
	"github.com/shopspring/decimal"
)

// MemberDirectory resolves guild members holding a role.
type MemberDirectory interface {
	MembersWithRole(ctx context.Context, guildID, roleID string) ([]string, error)
}

// Commands holds the application command handlers.
type Commands struct {
	svc     *core.Services
	members MemberDirectory
}

// NewCommands returns handlers over the service layer.
func NewCommands(svc *core.Services, members MemberDirectory) *Commands {
	return &Commands{svc: svc, members: members}
}

// Register adds every command to r.
func (c *Commands) Register(r *Router) {
	r.Handle("balance", c.balance, true)
	r.Handle("history", c.history, true)
	r.Handle("transfer", c.transfer, true)
	r.Handle("adjust_balance", c.adjustBalance, true)
	r.Handle("currency_config", c.currencyConfig, true)
	r.Handle("personal_panel", c.personalPanel, true)

	r.Handle("company create", c.companyCreate, false)
	r.Handle("company info", c.companyInfo, true)
	r.Handle("company list", c.companyList, true)
	r.Handle("company transfer", c.companyTransfer, true)
	r.Handle("company deposit", c.companyDeposit, true)

	r.Handle("state_council config", c.councilConfig, true)
	r.Handle("state_council department_role", c.councilDepartmentRole, true)
	r.Handle("state_council suspect_role", c.councilSuspectRole, true)
	r.Handle("state_council issuance_limit", c.councilIssuanceLimit, true)
	r.Handle("state_council summary", c.councilSummary, true)
	r.Handle("state_council welfare", c.councilWelfare, false)
	r.Handle("state_council tax", c.councilTax, false)
	r.Handle("state_council issue", c.councilIssue, false)
	r.Handle("state_council department_transfer", c.councilDepartmentTransfer, false)
	r.Handle("state_council license_issue", c.councilLicenseIssue, false)
	r.Handle("state_council license_revoke", c.councilLicenseRevoke, false)
	r.Handle("state_council arrest", c.councilArrest, false)
	r.Handle("state_council release", c.councilRelease, false)

	for command, body := range map[string]string{"council": model.BodyCouncil, "supreme_assembly": model.BodyAssembly} {
		g := governanceCommands{c: c, body: body}
		r.Handle(command+" config", g.config, true)
		r.Handle(command+" propose", g.propose, false)
		r.Handle(command+" vote", g.vote, true)
		r.Handle(command+" cancel", g.cancel, false)
		r.Handle(command+" status", g.status, true)
		if body == model.BodyAssembly {
			r.Handle(command+" summon", g.summon, false)
		}
	}
}

func (c *Commands) currency(ctx context.Context, guildID string) model.CurrencyConfig {
	cur, err := c.svc.Currency.Get(ctx, guildID)
	if err != nil {
		return model.DefaultCurrencyConfig(guildID)
	}
	return cur
}

// amount parses a money option in the guild's currency. Integer options are
// taken as whole units.
func (c *Commands) amount(ctx context.Context, inv Invocation, name string) (int64, model.CurrencyConfig, error) {
	cur := c.currency(ctx, inv.Actor.GuildID)
	var text string
	switch v := inv.Options[name].(type) {
	case int64:
		text = formatInt(v)
	case float64:
		// Number options keep their fraction; ParseAmount rejects excess precision.
		text = decimal.NewFromFloat(v).String()
	default:
		text = inv.String(name)
	}
	if text == "" {
		return 0, cur, &core.ValidationError{Field: name, Reason: "is required"}
	}
	n, err := model.ParseAmount(text, cur.Decimals)
	return n, cur, err
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

func historyLine(lang string, cur model.CurrencyConfig, e model.HistoryEntry) string {
	id := "history.entry_in"
	if e.Direction == model.DirectionOut {
		id = "history.entry_out"
	}
	line := tr(lang, id, data{
		"When":   timestamp(e.CreatedAt, "f"),
		"Amount": cur.Format(e.Amount),
		"Other":  user(e.Counterparty()),
		"Kind":   tr(lang, "kind."+e.Kind),
	})
	if e.Reason != "" {
		line += " · " + e.Reason
	}
	return line
}
