// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Responder is the part of the Discord API the bot uses.
type Responder interface {
	Respond(i *discordgo.Interaction, content string, ephemeral bool) error
	// Defer acknowledges i; the reply follows through EditResponse.
	Defer(i *discordgo.Interaction, ephemeral bool) error
	EditResponse(i *discordgo.Interaction, content string) error
	DeleteResponse(i *discordgo.Interaction) error
	Followup(appID, token, content string, ephemeral bool) error
	DirectMessage(userID, content string) error
	ChannelMessage(channelID, content string) error
	AddRole(guildID, userID, roleID string) error
	RemoveRole(guildID, userID, roleID string) error
	MembersWithRole(ctx context.Context, guildID, roleID string) ([]string, error)
}

// sessionResponder implements Responder on a discordgo session.
type sessionResponder struct {
	s *discordgo.Session
}

// maxMessageLength is Discord's content limit.
const maxMessageLength = 2000

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageLength {
		return s
	}
	return string(r[:maxMessageLength-1]) + "…"
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func (r sessionResponder) Respond(i *discordgo.Interaction, content string, ephemeral bool) error {
	return r.s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         truncate(content),
			Flags:           flags(ephemeral),
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		},
	})
}

func (r sessionResponder) Defer(i *discordgo.Interaction, ephemeral bool) error {
	return r.s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	})
}

func (r sessionResponder) EditResponse(i *discordgo.Interaction, content string) error {
	content = truncate(content)
	_, err := r.s.InteractionResponseEdit(i, &discordgo.WebhookEdit{
		Content:         &content,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	return err
}

func (r sessionResponder) DeleteResponse(i *discordgo.Interaction) error {
	return r.s.InteractionResponseDelete(i)
}

func (r sessionResponder) Followup(appID, token, content string, ephemeral bool) error {
	_, err := r.s.FollowupMessageCreate(&discordgo.Interaction{AppID: appID, Token: token}, false, &discordgo.WebhookParams{
		Content:         truncate(content),
		Flags:           flags(ephemeral),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	return err
}

func (r sessionResponder) DirectMessage(userID, content string) error {
	ch, err := r.s.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	_, err = r.s.ChannelMessageSend(ch.ID, truncate(content))
	return err
}

func (r sessionResponder) ChannelMessage(channelID, content string) error {
	_, err := r.s.ChannelMessageSend(channelID, truncate(content))
	return err
}

func (r sessionResponder) AddRole(guildID, userID, roleID string) error {
	return r.s.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (r sessionResponder) RemoveRole(guildID, userID, roleID string) error {
	return r.s.GuildMemberRoleRemove(guildID, userID, roleID)
}

// MembersWithRole pages through the guild member list. It needs the
// privileged guild members intent.
func (r sessionResponder) MembersWithRole(ctx context.Context, guildID, roleID string) ([]string, error) {
	var out []string
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := r.s.GuildMembers(guildID, after, 1000)
		if err != nil {
			return nil, fmt.Errorf("list guild members: %w", err)
		}
		for _, m := range page {
			if m.User == nil || m.User.Bot {
				continue
			}
			for _, role := range m.Roles {
				if role == roleID {
					out = append(out, m.User.ID)
					break
				}
			}
		}
		if len(page) < 1000 {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}
