// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package bot

import (
	"context"
	"sync"

	"github.com/econbot/econbot/internal/events"
	"github.com/econbot/econbot/internal/logging"
	"github.com/econbot/econbot/internal/model"
)

// Announcer posts state council and governance activity to the announce
// channel. Posts of one guild are serialised so notices keep their order.
type Announcer struct {
	out       Responder
	currency  CurrencyLookup
	channelID string
	lang      string
	log       *logging.Logger

	mu     sync.Mutex
	guilds map[string]*sync.Mutex
}

// NewAnnouncer returns an announcer. An empty channelID disables channel
// posts; summons and role changes still happen.
func NewAnnouncer(out Responder, currency CurrencyLookup, channelID, lang string) *Announcer {
	return &Announcer{
		out:       out,
		currency:  currency,
		channelID: channelID,
		lang:      lang,
		log:       logging.For("announcer"),
		guilds:    map[string]*sync.Mutex{},
	}
}

// Attach subscribes to both buses for every guild and returns a func that
// removes the subscriptions.
func (a *Announcer) Attach(council *events.StateCouncilBus, gov *events.GovernanceBus) (detach func()) {
	var unsubs []func()
	if council != nil {
		unsubs = append(unsubs, council.Subscribe("", a.OnStateCouncil))
	}
	if gov != nil {
		unsubs = append(unsubs, gov.Subscribe("", a.OnGovernance))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (a *Announcer) lock(guildID string) func() {
	a.mu.Lock()
	m, ok := a.guilds[guildID]
	if !ok {
		m = &sync.Mutex{}
		a.guilds[guildID] = m
	}
	a.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (a *Announcer) format(ctx context.Context, guildID string, amount int64) string {
	cur := model.DefaultCurrencyConfig(guildID)
	if a.currency != nil {
		if c, err := a.currency.Get(ctx, guildID); err == nil {
			cur = c
		}
	}
	return cur.Format(amount)
}

func (a *Announcer) post(guildID, content string) {
	if a.channelID == "" || content == "" {
		return
	}
	if err := a.out.ChannelMessage(a.channelID, content); err != nil {
		a.log.Warn("announcement failed", "guild_id", guildID, "err", err)
	}
}

// OnStateCouncil handles one state council event.
func (a *Announcer) OnStateCouncil(ctx context.Context, ev events.StateCouncilEvent) {
	defer a.lock(ev.GuildID)()

	switch ev.Kind {
	case events.CouncilMemberArrested:
		if ev.SuspectRoleID != "" {
			if err := a.out.AddRole(ev.GuildID, ev.TargetID, ev.SuspectRoleID); err != nil {
				a.log.Warn("add suspect role failed", "guild_id", ev.GuildID, "member_id", ev.TargetID, "err", err)
			}
		}
	case events.CouncilMemberReleased:
		if ev.SuspectRoleID != "" {
			if err := a.out.RemoveRole(ev.GuildID, ev.TargetID, ev.SuspectRoleID); err != nil {
				a.log.Warn("remove suspect role failed", "guild_id", ev.GuildID, "member_id", ev.TargetID, "err", err)
			}
		}
	case events.CouncilConfigUpdated:
		return
	}

	d := data{
		"Actor":  user(ev.ActorID),
		"Member": user(ev.TargetID),
		"Amount": a.format(ctx, ev.GuildID, ev.Amount),
		"Reason": ev.Reason,
	}
	if ev.Department != "" {
		d["Department"] = departmentName(a.lang, ev.Department)
	}
	if ev.ToDepartment != "" {
		d["To"] = departmentName(a.lang, ev.ToDepartment)
	}
	a.post(ev.GuildID, tr(a.lang, "announce."+ev.Kind, d))
}

// OnGovernance handles one governance event. Individual ballots are not
// announced.
func (a *Announcer) OnGovernance(ctx context.Context, ev events.GovernanceEvent) {
	if ev.Kind == events.VoteCast {
		return
	}
	defer a.lock(ev.GuildID)()

	body := tr(a.lang, "gov.body_"+ev.Body)
	if ev.Kind == events.MembersSummoned {
		dm := tr(a.lang, "announce.summon_dm", data{"Body": body, "Speaker": user(ev.ActorID), "Message": ev.Message})
		for _, m := range ev.Members {
			if err := a.out.DirectMessage(m, dm); err != nil {
				a.log.Warn("summon dm failed", "guild_id", ev.GuildID, "member_id", m, "err", err)
			}
		}
		a.post(ev.GuildID, tr(a.lang, "announce.members_summoned", data{"Body": body, "Count": len(ev.Members)}))
		return
	}

	p := ev.Proposal
	d := data{
		"Body":     body,
		"ID":       p.ID,
		"Title":    p.Title,
		"Proposer": user(p.ProposerID),
		"Deadline": timestamp(p.Deadline, "R"),
		"Approve":  ev.Tally.Approve,
		"Reject":   ev.Tally.Reject,
		"Abstain":  ev.Tally.Abstain,
	}
	if p.Amount > 0 {
		d["Amount"] = a.format(ctx, ev.GuildID, p.Amount)
		d["Member"] = user(p.TargetID)
	}
	a.post(ev.GuildID, tr(a.lang, "announce."+ev.Kind, d))
}
