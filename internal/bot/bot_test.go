// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestHandleInteraction_Balance(t *testing.T) {
	f := newFixture(t, Options{})
	f.seed(t, "100000000000000001", 250)

	i := interaction(guild, "100000000000000001", 0, discordgo.ApplicationCommandInteractionData{Name: "balance"})
	f.bot.HandleInteraction(context.Background(), i)

	all := f.out.all()
	if len(all) != 2 || all[0].kind != "defer" || !all[0].ephemeral {
		t.Fatalf("expected an ephemeral deferral first, got %+v", all)
	}
	got := all[1]
	if got.kind != "edit" || !got.ephemeral {
		t.Fatalf("unexpected reply %+v", got)
	}
	if !strings.Contains(got.content, "250") {
		t.Fatalf("reply %q does not show the balance", got.content)
	}
}

func TestHandleInteraction_RefusesGuildOutsideAllowlist(t *testing.T) {
	f := newFixture(t, Options{GuildAllowlist: []string{"other"}})

	i := interaction(guild, "100000000000000001", 0, discordgo.ApplicationCommandInteractionData{Name: "balance"})
	f.bot.HandleInteraction(context.Background(), i)

	got := f.out.last(t)
	if got.content == "" || strings.Contains(got.content, "Coin") {
		t.Fatalf("expected a refusal, got %q", got.content)
	}
	if !got.ephemeral {
		t.Fatalf("refusal should be ephemeral")
	}
}

func TestHandleInteraction_DirectMessageIsRefused(t *testing.T) {
	f := newFixture(t, Options{})

	i := interaction("", "100000000000000001", 0, discordgo.ApplicationCommandInteractionData{Name: "balance"})
	f.bot.HandleInteraction(context.Background(), i)

	if got := f.out.last(t); got.kind != "respond" || !got.ephemeral {
		t.Fatalf("unexpected reply %+v", got)
	}
}

func TestHandleInteraction_AdminPermissionAndSubcommand(t *testing.T) {
	f := newFixture(t, Options{})

	data := discordgo.ApplicationCommandInteractionData{
		Name: "adjust_balance",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "member", Type: discordgo.ApplicationCommandOptionUser, Value: "100000000000000002"},
			{Name: "amount", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(75)},
			{Name: "reason", Type: discordgo.ApplicationCommandOptionString, Value: "grant"},
		},
	}
	i := interaction(guild, "100000000000000001", discordgo.PermissionAdministrator, data)
	f.bot.HandleInteraction(context.Background(), i)

	if got := f.balance(t, "100000000000000002"); got != 75 {
		t.Fatalf("balance = %d, want 75", got)
	}

	// The same command without admin rights is denied and changes nothing.
	i = interaction(guild, "100000000000000003", 0, data)
	f.bot.HandleInteraction(context.Background(), i)
	if got := f.balance(t, "100000000000000002"); got != 75 {
		t.Fatalf("balance = %d after denied adjust, want 75", got)
	}
	if got := f.out.last(t); !got.ephemeral || strings.Contains(got.content, "75") {
		t.Fatalf("expected an ephemeral denial, got %+v", got)
	}
}

func TestHandleInteraction_DefersBeforeSlowWork(t *testing.T) {
	f := newFixture(t, Options{})
	f.dispatch(t, adminInvocation("admin", "supreme_assembly", "config", map[string]any{"member_role": "r-assembly", "speaker_role": "r-speaker"}))

	i := interaction(guild, "speaker", 0, discordgo.ApplicationCommandInteractionData{
		Name: "supreme_assembly",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name: "summon",
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "members", Type: discordgo.ApplicationCommandOptionString, Value: "<@" + alice + "> <@" + bob + "> <@" + carol + ">"},
				{Name: "message", Type: discordgo.ApplicationCommandOptionString, Value: "session at noon"},
			},
		}},
	})
	i.Member.Roles = []string{"r-speaker"}
	f.bot.HandleInteraction(context.Background(), i)

	var kinds []string
	for _, s := range f.out.all() {
		if s.to == "tok-speaker" || s.kind == "dm" {
			kinds = append(kinds, s.kind)
		}
	}
	if len(kinds) != 5 || kinds[0] != "defer" || kinds[len(kinds)-1] != "edit" {
		t.Fatalf("order = %v, want defer first and edit last", kinds)
	}
	for _, k := range kinds {
		if k == "respond" {
			t.Fatalf("deferred interaction answered directly: %v", kinds)
		}
	}
}

func TestHandleInteraction_PublicCommandFailsPrivately(t *testing.T) {
	f := newFixture(t, Options{})

	i := interaction(guild, "100000000000000001", 0, discordgo.ApplicationCommandInteractionData{
		Name: "company",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name: "create",
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "name", Type: discordgo.ApplicationCommandOptionString, Value: "Acme"},
			},
		}},
	})
	f.bot.HandleInteraction(context.Background(), i)

	all := f.out.all()
	if len(all) != 3 || all[0].kind != "defer" || all[0].ephemeral || all[1].kind != "delete" {
		t.Fatalf("unexpected sequence %+v", all)
	}
	if all[2].kind != "followup" || !all[2].ephemeral || all[2].content == "" {
		t.Fatalf("error should be an ephemeral follow-up, got %+v", all[2])
	}
}

func TestHandleInteraction_UnknownCommand(t *testing.T) {
	f := newFixture(t, Options{})

	i := interaction(guild, "100000000000000001", 0, discordgo.ApplicationCommandInteractionData{Name: "nope"})
	f.bot.HandleInteraction(context.Background(), i)

	if got := f.out.last(t); !got.ephemeral || got.content == "" {
		t.Fatalf("unexpected reply %+v", got)
	}
}

func TestInvocationFrom_FlattensGroups(t *testing.T) {
	i := interaction(guild, "100000000000000001", discordgo.PermissionManageServer, discordgo.ApplicationCommandInteractionData{
		Name: "state_council",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name: "license",
			Type: discordgo.ApplicationCommandOptionSubCommandGroup,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name: "issue",
				Type: discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "page", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
					{Name: "type", Type: discordgo.ApplicationCommandOptionString, Value: " company "},
				},
			}},
		}},
	})

	inv, ok := invocationFrom(i)
	if !ok {
		t.Fatalf("invocationFrom rejected a guild interaction")
	}
	if inv.Route() != "state_council license issue" {
		t.Fatalf("route = %q", inv.Route())
	}
	if n, ok := inv.Int("page"); !ok || n != 3 {
		t.Fatalf("page = %d, %v", n, ok)
	}
	if inv.String("type") != "company" {
		t.Fatalf("type = %q", inv.String("type"))
	}
	if !inv.Actor.IsAdmin {
		t.Fatalf("manage guild should grant admin")
	}
}

func TestRouterCoversEveryCommand(t *testing.T) {
	f := newFixture(t, Options{})
	routes := map[string]bool{}
	for _, r := range f.bot.Router().Routes() {
		routes[r] = true
	}
	for _, want := range []string{
		"balance", "history", "transfer", "adjust_balance", "currency_config", "personal_panel",
		"company create", "company info", "company list", "company transfer", "company deposit",
		"state_council config", "state_council department_role", "state_council summary",
		"state_council welfare", "state_council tax", "state_council issue",
		"state_council department_transfer", "state_council license_issue",
		"state_council license_revoke", "state_council arrest", "state_council release",
		"council config", "council propose", "council vote", "council cancel", "council status",
		"supreme_assembly config", "supreme_assembly propose", "supreme_assembly vote",
		"supreme_assembly cancel", "supreme_assembly status", "supreme_assembly summon",
	} {
		if !routes[want] {
			t.Errorf("route %q is not registered", want)
		}
	}
	if routes["council summon"] {
		t.Errorf("council must not summon")
	}
}

func TestParseUserIDs(t *testing.T) {
	got := parseUserIDs("<@100000000000000001> and <@!100000000000000002>, 42, 100000000000000003")
	want := []string{"100000000000000001", "100000000000000002", "100000000000000003"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("parseUserIDs = %v, want %v", got, want)
	}
}
