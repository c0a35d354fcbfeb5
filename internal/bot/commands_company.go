// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package bot

import (
	"context"

	"github.com/econbot/econbot/internal/core"
)

func companyID(inv Invocation) (int64, error) {
	id, ok := inv.Int("company")
	if !ok || id <= 0 {
		return 0, &core.ValidationError{Field: "company", Reason: "is required"}
	}
	return id, nil
}

func (c *Commands) companyCreate(ctx context.Context, inv Invocation) (string, error) {
	co, err := c.svc.Company.Create(ctx, inv.Actor, inv.String("name"))
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "company.created", data{"Name": co.Name, "ID": co.ID}), nil
}

func (c *Commands) companyInfo(ctx context.Context, inv Invocation) (string, error) {
	id, err := companyID(inv)
	if err != nil {
		return "", err
	}
	co, err := c.svc.Company.Get(ctx, inv.Actor.GuildID, id)
	if err != nil {
		return "", err
	}
	msg := tr(inv.Locale, "company.info", data{
		"Name":    co.Name,
		"ID":      co.ID,
		"Owner":   user(co.OwnerID),
		"Created": timestamp(co.CreatedAt, "D"),
	})
	if co.OwnerID == inv.Actor.UserID || inv.Actor.IsAdmin {
		if bal, err := c.svc.Company.Balance(ctx, inv.Actor, id); err == nil {
			cur := c.currency(ctx, inv.Actor.GuildID)
			msg += "\n" + tr(inv.Locale, "company.balance", data{"Amount": cur.Format(bal.Balance)})
		}
	}
	return msg, nil
}

func (c *Commands) companyList(ctx context.Context, inv Invocation) (string, error) {
	page, _ := inv.Int("page")
	res, err := c.svc.Company.List(ctx, inv.Actor.GuildID, int(page))
	if err != nil {
		return "", err
	}
	if res.Total == 0 {
		return tr(inv.Locale, "company.none"), nil
	}
	lines := []string{tr(inv.Locale, "company.page", data{"Page": res.Page, "Pages": res.Pages(), "Total": res.Total})}
	for _, co := range res.Companies {
		lines = append(lines, tr(inv.Locale, "company.line", data{"Name": co.Name, "ID": co.ID, "Owner": user(co.OwnerID)}))
	}
	return joinLines(lines), nil
}

func (c *Commands) companyTransfer(ctx context.Context, inv Invocation) (string, error) {
	id, err := companyID(inv)
	if err != nil {
		return "", err
	}
	amount, cur, err := c.amount(ctx, inv, "amount")
	if err != nil {
		return "", err
	}
	res, err := c.svc.Company.Transfer(ctx, inv.Actor, id, inv.String("member"), amount, inv.String("reason"))
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "company.transfer_done", data{
		"Amount":  cur.Format(amount),
		"Member":  user(res.TargetID),
		"Balance": cur.Format(res.InitiatorBalance),
	}), nil
}

func (c *Commands) companyDeposit(ctx context.Context, inv Invocation) (string, error) {
	id, err := companyID(inv)
	if err != nil {
		return "", err
	}
	amount, cur, err := c.amount(ctx, inv, "amount")
	if err != nil {
		return "", err
	}
	res, err := c.svc.Company.Deposit(ctx, inv.Actor, id, amount)
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "company.deposit_done", data{
		"Amount":  cur.Format(amount),
		"Balance": cur.Format(res.TargetBalance),
	}), nil
}
