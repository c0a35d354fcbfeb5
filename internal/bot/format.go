// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package bot

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/econbot/econbot/internal/core"
	"github.com/econbot/econbot/internal/i18n"
	"github.com/econbot/econbot/internal/logging"
	"github.com/econbot/econbot/internal/model"
)

type data = map[string]any

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

// user renders a user reference. Replies disable mention pings.
func user(id string) string {
	if id == "" || strings.Contains(id, ":") {
		return id
	}
	return "<@" + id + ">"
}

// timestamp renders t with Discord's client-side formatting.
func timestamp(t time.Time, style string) string {
	return "<t:" + strconv.FormatInt(t.Unix(), 10) + ":" + style + ">"
}

var snowflake = regexp.MustCompile(`\d{15,21}`)

// parseUserIDs extracts user ids from mentions or raw ids in free text.
func parseUserIDs(text string) []string {
	return snowflake.FindAllString(text, -1)
}

func tr(lang, id string, d ...data) string {
	if len(d) == 0 {
		return i18n.TL(lang, id)
	}
	return i18n.TL(lang, id, d[0])
}

func statusName(lang, status string) string {
	return tr(lang, "status."+status)
}

func departmentName(lang string, d model.Department) string {
	return tr(lang, "department."+string(d))
}

// errorReply turns a service error into a user-facing message. Unexpected
// errors are logged and answered generically.
func errorReply(lang string, err error) string {
	var (
		verr *core.ValidationError
		perr *core.PermissionError
		terr *model.ThrottleError
		lerr *model.LimitError
	)
	switch {
	case errors.As(err, &verr):
		return tr(lang, "error.validation", data{"Field": verr.Field, "Reason": verr.Reason})
	case errors.As(err, &perr):
		return tr(lang, "error.permission", data{"Action": perr.Action, "Required": perr.Required})
	case errors.As(err, &terr):
		return tr(lang, "error.throttled", data{"Until": timestamp(terr.Until, "R")})
	case errors.As(err, &lerr) && errors.Is(err, core.ErrIssuanceLimit):
		return tr(lang, "error.issuance_limit", data{"Limit": lerr.Limit, "Used": lerr.Used, "Requested": lerr.Requested})
	case errors.As(err, &lerr):
		return tr(lang, "error.daily_limit", data{"Limit": lerr.Limit, "Used": lerr.Used, "Requested": lerr.Requested})
	case errors.Is(err, core.ErrInsufficientFunds):
		return tr(lang, "error.insufficient_funds")
	case errors.Is(err, core.ErrNotFound):
		return tr(lang, "error.not_found")
	case errors.Is(err, core.ErrAlreadyVoted):
		return tr(lang, "error.already_voted")
	case errors.Is(err, core.ErrProposalClosed):
		return tr(lang, "error.proposal_closed")
	case errors.Is(err, core.ErrValidation):
		return tr(lang, "error.invalid_input", data{"Detail": err.Error()})
	case errors.Is(err, ErrUnknownCommand):
		return tr(lang, "error.unknown_command")
	}
	logging.For("bot").Error("command failed", "err", err)
	return tr(lang, "error.internal")
}
