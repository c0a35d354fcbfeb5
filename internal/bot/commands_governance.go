// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package bot

import (
	"context"
	"fmt"

	"github.com/econbot/econbot/internal/core"
	"github.com/econbot/econbot/internal/model"
)

// governanceCommands serves the council and the supreme assembly with one
// set of handlers bound to a body.
type governanceCommands struct {
	c    *Commands
	body string
}

func (g governanceCommands) bodyName(lang string) string {
	return tr(lang, "gov.body_"+g.body)
}

func (g governanceCommands) config(ctx context.Context, inv Invocation) (string, error) {
	cfg, err := g.c.svc.Governance.Configure(ctx, inv.Actor, g.body, inv.String("member_role"), inv.String("speaker_role"))
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "gov.configured", data{"Body": g.bodyName(inv.Locale), "Role": cfg.MemberRoleID}), nil
}

func (g governanceCommands) propose(ctx context.Context, inv Invocation) (string, error) {
	cfg, err := g.c.svc.Governance.Config(ctx, inv.Actor.GuildID, g.body)
	if err != nil {
		return "", err
	}
	if g.c.members == nil {
		return "", fmt.Errorf("member directory unavailable")
	}
	voters, err := g.c.members.MembersWithRole(ctx, inv.Actor.GuildID, cfg.MemberRoleID)
	if err != nil {
		return "", fmt.Errorf("list %s members: %w", g.body, err)
	}
	draft := core.ProposalDraft{
		Body:        g.body,
		Title:       inv.String("title"),
		Description: inv.String("description"),
		TargetID:    inv.String("member"),
		Voters:      voters,
	}
	cur := g.c.currency(ctx, inv.Actor.GuildID)
	if _, ok := inv.Options["amount"]; ok {
		if draft.Amount, cur, err = g.c.amount(ctx, inv, "amount"); err != nil {
			return "", err
		}
	}
	p, err := g.c.svc.Governance.Propose(ctx, inv.Actor, draft)
	if err != nil {
		return "", err
	}
	msg := tr(inv.Locale, "gov.proposed", data{
		"Body":      g.bodyName(inv.Locale),
		"ID":        p.ID,
		"Title":     p.Title,
		"Threshold": p.Threshold,
		"Voters":    len(p.Voters),
		"Deadline":  timestamp(p.Deadline, "R"),
	})
	if p.Amount > 0 {
		msg += "\n" + tr(inv.Locale, "gov.payout", data{"Amount": cur.Format(p.Amount), "Member": user(p.TargetID)})
	}
	return msg, nil
}

func (g governanceCommands) vote(ctx context.Context, inv Invocation) (string, error) {
	p, t, err := g.c.svc.Governance.Vote(ctx, inv.Actor, inv.String("proposal"), inv.String("choice"))
	if err != nil {
		return "", err
	}
	msg := tr(inv.Locale, "gov.voted", data{"Choice": tr(inv.Locale, "gov.choice_"+inv.String("choice"))}) +
		"\n" + tallyLine(inv.Locale, t)
	if !p.Open() {
		msg += "\n" + tr(inv.Locale, "gov.closed", data{"Status": statusName(inv.Locale, p.Status)})
	}
	return msg, nil
}

func (g governanceCommands) cancel(ctx context.Context, inv Invocation) (string, error) {
	p, err := g.c.svc.Governance.Cancel(ctx, inv.Actor, inv.String("proposal"))
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "gov.cancelled", data{"ID": p.ID, "Title": p.Title}), nil
}

// status shows one proposal when an id is given, otherwise the open
// proposals of the body.
func (g governanceCommands) status(ctx context.Context, inv Invocation) (string, error) {
	if id := inv.String("proposal"); id != "" {
		p, t, err := g.c.svc.Governance.Get(ctx, inv.Actor.GuildID, id)
		if err != nil {
			return "", err
		}
		if p.Body != g.body {
			return "", core.ErrNotFound
		}
		return joinLines([]string{
			tr(inv.Locale, "gov.proposal", data{
				"ID":       p.ID,
				"Title":    p.Title,
				"Status":   statusName(inv.Locale, p.Status),
				"Proposer": user(p.ProposerID),
				"Deadline": timestamp(p.Deadline, "f"),
			}),
			tallyLine(inv.Locale, t),
		}), nil
	}
	open, err := g.c.svc.Governance.List(ctx, inv.Actor.GuildID, g.body, model.ProposalOpen)
	if err != nil {
		return "", err
	}
	if len(open) == 0 {
		return tr(inv.Locale, "gov.none_open", data{"Body": g.bodyName(inv.Locale)}), nil
	}
	lines := []string{tr(inv.Locale, "gov.open_header", data{"Body": g.bodyName(inv.Locale)})}
	for _, p := range open {
		lines = append(lines, tr(inv.Locale, "gov.open_line", data{
			"ID": p.ID, "Title": p.Title, "Deadline": timestamp(p.Deadline, "R"),
		}))
	}
	return joinLines(lines), nil
}

func (g governanceCommands) summon(ctx context.Context, inv Invocation) (string, error) {
	members := parseUserIDs(inv.String("members"))
	if role := inv.String("role"); role != "" && g.c.members != nil {
		holders, err := g.c.members.MembersWithRole(ctx, inv.Actor.GuildID, role)
		if err != nil {
			return "", fmt.Errorf("list role members: %w", err)
		}
		members = append(members, holders...)
	}
	summoned, err := g.c.svc.Governance.Summon(ctx, inv.Actor, g.body, members, inv.String("message"))
	if err != nil {
		return "", err
	}
	return tr(inv.Locale, "gov.summoned", data{"Count": len(summoned)}), nil
}

func tallyLine(lang string, t model.Tally) string {
	return tr(lang, "gov.tally", data{
		"Approve":   t.Approve,
		"Reject":    t.Reject,
		"Abstain":   t.Abstain,
		"Eligible":  t.Eligible,
		"Threshold": t.Threshold,
	})
}
