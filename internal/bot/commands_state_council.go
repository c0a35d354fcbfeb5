// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package bot

import (
	"context"

	"github.com/econbot/econbot/internal/core"
	"github.com/econbot/econbot/internal/model"
)

func departmentOption(inv Invocation, name string) (model.Department, error) {
	d, ok := model.ParseDepartment(inv.String(name))
	if !ok {
		return "", &core.ValidationError{Field: name, Reason: "unknown department"}
	}
	return d, nil
}

func (c *Commands) councilConfig(ctx context.Context, inv Invocation) (string, error) {
	cfg, err := c.svc.StateCouncil.Configure(ctx, inv.Actor, inv.String("leader"), inv.String("leader_role"))
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "council.configured", data{"Leader": user(cfg.LeaderID)}), nil
}

func (c *Commands) councilDepartmentRole(ctx context.Context, inv Invocation) (string, error) {
	d, err := departmentOption(inv, "department")
	if err != nil {
		return "", err
	}
	if _, err := c.svc.StateCouncil.SetDepartmentRole(ctx, inv.Actor, d, inv.String("role")); err != nil {
		return "", err
	}
	return tr(inv.Locale, "council.department_role_set", data{"Department": departmentName(inv.Locale, d)}), nil
}

func (c *Commands) councilSuspectRole(ctx context.Context, inv Invocation) (string, error) {
	if _, err := c.svc.StateCouncil.SetSuspectRole(ctx, inv.Actor, inv.String("role")); err != nil {
		return "", err
	}
	return tr(inv.Locale, "council.suspect_role_set"), nil
}

func (c *Commands) councilIssuanceLimit(ctx context.Context, inv Invocation) (string, error) {
	limit, cur, err := c.amount(ctx, inv, "limit")
	if err != nil {
		return "", err
	}
	if _, err := c.svc.StateCouncil.SetIssuanceLimit(ctx, inv.Actor, limit); err != nil {
		return "", err
	}
	return tr(inv.Locale, "council.issuance_limit_set", data{"Limit": cur.Format(limit)}), nil
}

func (c *Commands) councilSummary(ctx context.Context, inv Invocation) (string, error) {
	sum, err := c.svc.StateCouncil.Summary(ctx, inv.Actor)
	if err != nil {
		return "", err
	}
	cur := c.currency(ctx, inv.Actor.GuildID)
	lines := []string{tr(inv.Locale, "council.summary_header", data{"Leader": user(sum.Config.LeaderID)})}
	for _, b := range sum.Balances {
		lines = append(lines, tr(inv.Locale, "council.summary_line", data{
			"Department": departmentName(inv.Locale, b.Department),
			"Balance":    cur.Format(b.Balance),
		}))
	}
	limit := tr(inv.Locale, "common.unlimited")
	if sum.Config.MonthlyIssuanceLimit > 0 {
		limit = cur.Format(sum.Config.MonthlyIssuanceLimit)
	}
	lines = append(lines, tr(inv.Locale, "council.summary_issued", data{"Issued": cur.Format(sum.IssuedThisMonth), "Limit": limit}))
	return joinLines(lines), nil
}

func (c *Commands) councilWelfare(ctx context.Context, inv Invocation) (string, error) {
	amount, cur, err := c.amount(ctx, inv, "amount")
	if err != nil {
		return "", err
	}
	res, err := c.svc.StateCouncil.DisburseWelfare(ctx, inv.Actor, inv.String("member"), amount, inv.String("reason"))
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "council.welfare_done", data{"Amount": cur.Format(amount), "Member": user(res.TargetID)}), nil
}

func (c *Commands) councilTax(ctx context.Context, inv Invocation) (string, error) {
	amount, cur, err := c.amount(ctx, inv, "amount")
	if err != nil {
		return "", err
	}
	res, err := c.svc.StateCouncil.CollectTax(ctx, inv.Actor, inv.String("member"), amount, inv.String("reason"))
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "council.tax_done", data{"Amount": cur.Format(amount), "Member": user(res.InitiatorID)}), nil
}

func (c *Commands) councilIssue(ctx context.Context, inv Invocation) (string, error) {
	d, err := departmentOption(inv, "department")
	if err != nil {
		return "", err
	}
	amount, cur, err := c.amount(ctx, inv, "amount")
	if err != nil {
		return "", err
	}
	if _, err := c.svc.StateCouncil.IssueCurrency(ctx, inv.Actor, d, amount, inv.String("reason")); err != nil {
		return "", err
	}
	return tr(inv.Locale, "council.issued", data{"Amount": cur.Format(amount), "Department": departmentName(inv.Locale, d)}), nil
}

func (c *Commands) councilDepartmentTransfer(ctx context.Context, inv Invocation) (string, error) {
	from, err := departmentOption(inv, "from")
	if err != nil {
		return "", err
	}
	to, err := departmentOption(inv, "to")
	if err != nil {
		return "", err
	}
	amount, cur, err := c.amount(ctx, inv, "amount")
	if err != nil {
		return "", err
	}
	if _, err := c.svc.StateCouncil.TransferBetweenDepartments(ctx, inv.Actor, from, to, amount, inv.String("reason")); err != nil {
		return "", err
	}
	return tr(inv.Locale, "council.department_transfer_done", data{
		"Amount": cur.Format(amount),
		"From":   departmentName(inv.Locale, from),
		"To":     departmentName(inv.Locale, to),
	}), nil
}

func (c *Commands) councilLicenseIssue(ctx context.Context, inv Invocation) (string, error) {
	lic, err := c.svc.StateCouncil.IssueLicense(ctx, inv.Actor, inv.String("member"), inv.String("type"))
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "council.license_issued", data{"Member": user(lic.MemberID), "Type": lic.LicenseType}), nil
}

func (c *Commands) councilLicenseRevoke(ctx context.Context, inv Invocation) (string, error) {
	lic, err := c.svc.StateCouncil.RevokeLicense(ctx, inv.Actor, inv.String("member"), inv.String("type"))
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "council.license_revoked", data{"Member": user(lic.MemberID), "Type": lic.LicenseType}), nil
}

func (c *Commands) councilArrest(ctx context.Context, inv Invocation) (string, error) {
	rec, err := c.svc.StateCouncil.Arrest(ctx, inv.Actor, inv.String("member"), inv.String("reason"))
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "council.arrested", data{"Member": user(rec.MemberID)}), nil
}

func (c *Commands) councilRelease(ctx context.Context, inv Invocation) (string, error) {
	rec, err := c.svc.StateCouncil.Release(ctx, inv.Actor, inv.String("member"), inv.String("reason"))
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "council.released", data{"Member": user(rec.MemberID)}), nil
}
