// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package bot

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/econbot/econbot/internal/core"
)

// ErrUnknownCommand is returned for interactions without a route.
var ErrUnknownCommand = errors.New("unknown command")

// Invocation is one application command invocation, detached from Discord.
type Invocation struct {
	Actor   core.Actor
	Command string
	// Sub is the subcommand, or "group sub" for grouped subcommands.
	Sub     string
	Options map[string]any
	Locale  string
	Token   string
	AppID   string
}

// Route returns the routing key of the invocation.
func (inv Invocation) Route() string {
	if inv.Sub == "" {
		return inv.Command
	}
	return inv.Command + " " + inv.Sub
}

// String returns a string option or "".
func (inv Invocation) String(name string) string {
	switch v := inv.Options[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case int64:
		return formatInt(v)
	}
	return ""
}

// Int returns an integer option. Fractional numbers are not integers.
func (inv Invocation) Int(name string) (int64, bool) {
	switch v := inv.Options[name].(type) {
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	}
	return 0, false
}

// Bool returns a boolean option.
func (inv Invocation) Bool(name string) bool {
	v, _ := inv.Options[name].(bool)
	return v
}

// HandlerFunc answers an invocation with plain text.
type HandlerFunc func(ctx context.Context, inv Invocation) (string, error)

type route struct {
	handler   HandlerFunc
	ephemeral bool
}

// Router dispatches invocations by command and subcommand.
type Router struct {
	routes map[string]route
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{routes: map[string]route{}}
}

// Handle registers h for key, which is "command" or "command sub".
// Ephemeral replies are only visible to the invoking member.
func (r *Router) Handle(key string, h HandlerFunc, ephemeral bool) {
	r.routes[key] = route{handler: h, ephemeral: ephemeral}
}

// Routes lists the registered keys.
func (r *Router) Routes() []string {
	out := make([]string, 0, len(r.routes))
	for k := range r.routes {
		out = append(out, k)
	}
	return out
}

// Ephemeral reports whether the route of key replies ephemerally, and
// whether the route exists.
func (r *Router) Ephemeral(key string) (ephemeral, ok bool) {
	rt, ok := r.routes[key]
	return rt.ephemeral, ok
}

// Dispatch runs the handler of inv.
func (r *Router) Dispatch(ctx context.Context, inv Invocation) (reply string, ephemeral bool, err error) {
	rt, ok := r.routes[inv.Route()]
	if !ok {
		return "", true, ErrUnknownCommand
	}
	reply, err = rt.handler(ctx, inv)
	return reply, rt.ephemeral, err
}

// adminPermissions grant core.Actor.IsAdmin.
const adminPermissions = discordgo.PermissionAdministrator | discordgo.PermissionManageServer

// invocationFrom converts an application command interaction.
func invocationFrom(i *discordgo.Interaction) (Invocation, bool) {
	if i.Type != discordgo.InteractionApplicationCommand || i.Member == nil || i.Member.User == nil {
		return Invocation{}, false
	}
	data := i.ApplicationCommandData()
	inv := Invocation{
		Actor: core.Actor{
			GuildID: i.GuildID,
			UserID:  i.Member.User.ID,
			RoleIDs: i.Member.Roles,
			IsAdmin: i.Member.Permissions&adminPermissions != 0,
		},
		Command: data.Name,
		Locale:  string(i.Locale),
		Token:   i.Token,
		AppID:   i.AppID,
	}
	opts := data.Options
	for len(opts) == 1 && (opts[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup || opts[0].Type == discordgo.ApplicationCommandOptionSubCommand) {
		if inv.Sub == "" {
			inv.Sub = opts[0].Name
		} else {
			inv.Sub += " " + opts[0].Name
		}
		opts = opts[0].Options
	}
	inv.Options = optionValues(opts)
	return inv, true
}

func optionValues(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]any {
	out := make(map[string]any, len(opts))
	for _, o := range opts {
		switch v := o.Value.(type) {
		case float64:
			if o.Type == discordgo.ApplicationCommandOptionInteger {
				out[o.Name] = int64(v)
			} else {
				out[o.Name] = v
			}
		default:
			// Strings, booleans and snowflakes of user, role and channel options.
			out[o.Name] = v
		}
	}
	return out
}
