// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package bot

import (
	"context"
	"strings"
	"time"

	"github.com/econbot/econbot/internal/core"
	"github.com/econbot/econbot/internal/model"
)

func (c *Commands) balance(ctx context.Context, inv Invocation) (string, error) {
	target := inv.String("member")
	snap, err := c.svc.Balance.GetBalance(ctx, inv.Actor, target)
	if err != nil {
		return "", err
	}
	cur := c.currency(ctx, inv.Actor.GuildID)
	var msg string
	if snap.MemberID == inv.Actor.UserID {
		msg = tr(inv.Locale, "balance.self", data{"Amount": cur.Format(snap.Balance)})
	} else {
		msg = tr(inv.Locale, "balance.other", data{"Member": user(snap.MemberID), "Amount": cur.Format(snap.Balance)})
	}
	if snap.Throttled(time.Now()) {
		msg += "\n" + tr(inv.Locale, "balance.throttled", data{"Until": timestamp(*snap.ThrottleUntil, "R")})
	}
	return msg, nil
}

func (c *Commands) history(ctx context.Context, inv Invocation) (string, error) {
	limit, _ := inv.Int("limit")
	page, err := c.svc.Balance.GetHistory(ctx, inv.Actor, inv.String("member"), int(limit), inv.String("cursor"))
	if err != nil {
		return "", err
	}
	if len(page.Entries) == 0 {
		return tr(inv.Locale, "history.empty"), nil
	}
	cur := c.currency(ctx, inv.Actor.GuildID)
	lines := []string{tr(inv.Locale, "history.header")}
	for _, e := range page.Entries {
		lines = append(lines, historyLine(inv.Locale, cur, e))
	}
	if page.NextCursor != "" {
		lines = append(lines, tr(inv.Locale, "history.next", data{"Cursor": page.NextCursor}))
	}
	return joinLines(lines), nil
}

func (c *Commands) transfer(ctx context.Context, inv Invocation) (string, error) {
	amount, cur, err := c.amount(ctx, inv, "amount")
	if err != nil {
		return "", err
	}
	target := inv.String("member")
	out, err := c.svc.Transfer.Transfer(ctx, inv.Actor, target, amount, inv.String("reason"), inv.Token)
	if err != nil {
		return "", err
	}
	if out.Queued() {
		return tr(inv.Locale, "transfer.queued", data{"Amount": cur.Format(amount), "Member": user(target)}), nil
	}
	return tr(inv.Locale, "transfer.done", data{
		"Amount":  cur.Format(amount),
		"Member":  user(target),
		"Balance": cur.Format(out.Result.InitiatorBalance),
	}), nil
}

func (c *Commands) adjustBalance(ctx context.Context, inv Invocation) (string, error) {
	amount, cur, err := c.amount(ctx, inv, "amount")
	if err != nil {
		return "", err
	}
	snap, err := c.svc.Balance.Adjust(ctx, inv.Actor, inv.String("member"), amount, inv.String("reason"))
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "adjust.done", data{
		"Member":  user(snap.MemberID),
		"Amount":  cur.Format(amount),
		"Balance": cur.Format(snap.Balance),
	}), nil
}

func (c *Commands) currencyConfig(ctx context.Context, inv Invocation) (string, error) {
	var u core.CurrencyUpdate
	if _, ok := inv.Options["name"]; ok {
		name := inv.String("name")
		u.Name = &name
	}
	if _, ok := inv.Options["icon"]; ok {
		icon := inv.String("icon")
		u.Icon = &icon
	}
	if d, ok := inv.Int("decimals"); ok {
		n := int(d)
		u.Decimals = &n
	}
	if u.Name == nil && u.Icon == nil && u.Decimals == nil {
		cur, err := c.svc.Currency.Get(ctx, inv.Actor.GuildID)
		if err != nil {
			return "", err
		}
		return tr(inv.Locale, "currency.show", data{"Name": cur.Name, "Icon": cur.Icon, "Decimals": cur.Decimals}), nil
	}
	cur, err := c.svc.Currency.Update(ctx, inv.Actor, u)
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "currency.updated", data{"Name": cur.Name, "Icon": cur.Icon, "Decimals": cur.Decimals}), nil
}

func (c *Commands) personalPanel(ctx context.Context, inv Invocation) (string, error) {
	sum, err := c.svc.Panel.Summary(ctx, inv.Actor)
	if err != nil {
		return "", err
	}
	lang, cur := inv.Locale, sum.Currency
	lines := []string{tr(lang, "panel.balance", data{"Amount": cur.Format(sum.Balance.Balance)})}

	lines = append(lines, tr(lang, "panel.recent"))
	if len(sum.Recent) == 0 {
		lines = append(lines, tr(lang, "history.empty"))
	}
	for _, e := range sum.Recent {
		lines = append(lines, historyLine(lang, cur, e))
	}

	names := make([]string, 0, len(sum.Companies))
	for _, co := range sum.Companies {
		names = append(names, co.Name+" (#"+formatInt(co.ID)+")")
	}
	lines = append(lines, tr(lang, "panel.companies", data{"List": listOrNone(lang, names)}))

	var active []string
	for _, l := range sum.Licenses {
		if l.Status == model.LicenseActive {
			active = append(active, l.LicenseType)
		}
	}
	lines = append(lines, tr(lang, "panel.licenses", data{"List": listOrNone(lang, active)}))
	return joinLines(lines), nil
}

func listOrNone(lang string, items []string) string {
	if len(items) == 0 {
		return tr(lang, "common.none")
	}
	return strings.Join(items, ", ")
}
