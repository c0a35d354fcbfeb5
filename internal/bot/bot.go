// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package bot connects the service layer to Discord: it routes application
// command interactions to plain-text handlers, delivers ledger notifications
// and announces state council and governance activity.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/econbot/econbot/internal/core"
	"github.com/econbot/econbot/internal/events"
	"github.com/econbot/econbot/internal/logging"
	"github.com/econbot/econbot/internal/metrics"
	"github.com/econbot/econbot/internal/security"
)

// Options configures a Bot.
type Options struct {
	// GuildAllowlist restricts the bot to these guilds. Empty allows all.
	GuildAllowlist    []string
	AnnounceChannelID string
	Language          string
	NotifyPerSec      float64
	NotifyBurst       int
	CouncilBus        *events.StateCouncilBus
	GovernanceBus     *events.GovernanceBus
}

// Bot owns the Discord session and the handlers attached to it.
type Bot struct {
	session   *discordgo.Session
	out       Responder
	router    *Router
	notifier  *Notifier
	announcer *Announcer
	allow     map[string]struct{}
	lang      string
	opts      Options
	log       *logging.Logger

	mu     sync.Mutex
	ctx    context.Context
	detach func()
}

// New creates a bot on a new discordgo session. The session is opened by
// Start.
func New(token security.Secret, svc *core.Services, opts Options) (*Bot, error) {
	if token.Empty() {
		return nil, errors.New("discord token is required")
	}
	s, err := discordgo.New("Bot " + token.Reveal())
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	b := NewWithResponder(sessionResponder{s: s}, svc, opts)
	b.session = s
	s.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		b.HandleInteraction(b.context(), ic.Interaction)
	})
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.log.Info("connected", "user", r.User.Username, "guilds", len(r.Guilds))
	})
	return b, nil
}

// NewWithResponder builds a bot that talks to Discord through out.
func NewWithResponder(out Responder, svc *core.Services, opts Options) *Bot {
	if opts.Language == "" {
		opts.Language = "en"
	}
	b := &Bot{
		out:    out,
		router: NewRouter(),
		allow:  map[string]struct{}{},
		lang:   opts.Language,
		opts:   opts,
		log:    logging.For("bot"),
		ctx:    context.Background(),
	}
	for _, g := range opts.GuildAllowlist {
		b.allow[g] = struct{}{}
	}
	NewCommands(svc, out).Register(b.router)
	b.notifier = NewNotifier(out, svc.Currency, b.appID, opts.Language, opts.NotifyPerSec, opts.NotifyBurst)
	b.announcer = NewAnnouncer(out, svc.Currency, opts.AnnounceChannelID, opts.Language)
	return b
}

// Notifier returns the telemetry handler of the bot.
func (b *Bot) Notifier() *Notifier { return b.notifier }

// Router returns the command router.
func (b *Bot) Router() *Router { return b.router }

func (b *Bot) context() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctx
}

func (b *Bot) appID() string {
	if b.session != nil && b.session.State != nil && b.session.State.User != nil {
		return b.session.State.User.ID
	}
	return ""
}

// GuildAllowed reports whether the bot serves guildID.
func (b *Bot) GuildAllowed(guildID string) bool {
	if len(b.allow) == 0 {
		return true
	}
	_, ok := b.allow[guildID]
	return ok
}

// Start subscribes the announcer and opens the session. Handlers run with
// ctx until Close.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.detach = b.announcer.Attach(b.opts.CouncilBus, b.opts.GovernanceBus)
	b.mu.Unlock()
	if b.session == nil {
		return nil
	}
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	b.log.Info("bot started", "routes", len(b.router.Routes()), "allowlist", len(b.allow))
	return nil
}

// Close detaches the announcer and closes the session.
func (b *Bot) Close() error {
	b.mu.Lock()
	detach := b.detach
	b.detach = nil
	b.mu.Unlock()
	if detach != nil {
		detach()
	}
	if b.session == nil {
		return nil
	}
	return b.session.Close()
}

// HandleInteraction answers one application command interaction.
func (b *Bot) HandleInteraction(ctx context.Context, i *discordgo.Interaction) {
	if i == nil || i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	inv, ok := invocationFrom(i)
	if !ok {
		b.respond(i, tr(b.lang, "error.guild_only"), true)
		return
	}
	lang := inv.Locale
	if lang == "" {
		lang = b.lang
	}
	inv.Locale = lang
	if !b.GuildAllowed(inv.Actor.GuildID) {
		metrics.RecordCommand(inv.Command, "refused")
		b.respond(i, tr(lang, "error.guild_not_allowed"), true)
		return
	}

	ephemeral, ok := b.router.Ephemeral(inv.Route())
	if !ok {
		metrics.RecordCommand("unknown", outcome(ErrUnknownCommand))
		b.respond(i, errorReply(lang, ErrUnknownCommand), true)
		return
	}
	// Handlers may DM members or page the member list, which outlasts
	// Discord's acknowledgement window.
	if err := b.out.Defer(i, ephemeral); err != nil {
		b.log.Warn("interaction defer failed", "guild_id", i.GuildID, "command", inv.Route(), "err", err)
		return
	}

	reply, _, err := b.router.Dispatch(ctx, inv)
	metrics.RecordCommand(inv.Command, outcome(err))
	if err != nil {
		b.fail(i, errorReply(lang, err), ephemeral)
		return
	}
	b.edit(i, reply)
}

func (b *Bot) respond(i *discordgo.Interaction, content string, ephemeral bool) {
	if err := b.out.Respond(i, content, ephemeral); err != nil {
		b.log.Warn("interaction response failed", "guild_id", i.GuildID, "err", err)
	}
}

func (b *Bot) edit(i *discordgo.Interaction, content string) {
	if err := b.out.EditResponse(i, content); err != nil {
		b.log.Warn("interaction edit failed", "guild_id", i.GuildID, "err", err)
	}
}

// fail delivers an error privately. A public deferral is removed and the
// error goes out as an ephemeral follow-up.
func (b *Bot) fail(i *discordgo.Interaction, content string, deferredEphemeral bool) {
	if deferredEphemeral {
		b.edit(i, content)
		return
	}
	if err := b.out.DeleteResponse(i); err != nil {
		b.log.Warn("interaction delete failed", "guild_id", i.GuildID, "err", err)
	}
	if err := b.out.Followup(i.AppID, i.Token, content, true); err != nil {
		b.log.Warn("interaction follow-up failed", "guild_id", i.GuildID, "err", err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrValidation):
		return "invalid"
	case errors.Is(err, core.ErrPermissionDenied):
		return "denied"
	case errors.Is(err, ErrUnknownCommand):
		return "unknown"
	}
	return "error"
}
