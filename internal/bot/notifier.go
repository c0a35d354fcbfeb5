// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/econbot/econbot/internal/logging"
	"github.com/econbot/econbot/internal/model"
	"github.com/econbot/econbot/internal/telemetry"
	"golang.org/x/time/rate"
)

// CurrencyLookup returns the currency presentation of a guild.
type CurrencyLookup interface {
	Get(ctx context.Context, guildID string) (model.CurrencyConfig, error)
}

// Notifier delivers ledger events to the members involved. Events carrying
// an interaction token are answered as a follow-up of that interaction,
// everything else goes out as a direct message. Transfer recipients are
// always told by direct message.
type Notifier struct {
	out      Responder
	currency CurrencyLookup
	appID    func() string
	lang     string
	limiter  *rate.Limiter
	log      *logging.Logger
}

var _ telemetry.Handler = (*Notifier)(nil)

// NewNotifier returns a notifier sending at most perSec messages per second
// with the given burst. appID resolves the application id once the session
// is ready.
func NewNotifier(out Responder, currency CurrencyLookup, appID func() string, lang string, perSec float64, burst int) *Notifier {
	limit := rate.Limit(perSec)
	if perSec <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Notifier{
		out:      out,
		currency: currency,
		appID:    appID,
		lang:     lang,
		limiter:  rate.NewLimiter(limit, burst),
		log:      logging.For("notifier"),
	}
}

// HandleLedgerEvent implements telemetry.Handler.
func (n *Notifier) HandleLedgerEvent(ctx context.Context, ev telemetry.Event) error {
	cur := model.DefaultCurrencyConfig(ev.GuildID)
	if n.currency != nil {
		if c, err := n.currency.Get(ctx, ev.GuildID); err == nil {
			cur = c
		}
	}
	switch ev.EventType {
	case model.EventTransactionSuccess:
		if ev.Kind != "" && ev.Kind != model.KindTransfer {
			return nil
		}
		var errs []error
		if ev.InteractionToken != "" {
			sent := tr(n.lang, "notify.sent", data{"Amount": cur.Format(ev.Amount), "Member": user(ev.TargetID)})
			errs = append(errs, n.deliver(ctx, ev, ev.InitiatorID, sent))
		}
		received := tr(n.lang, "notify.received", data{"Amount": cur.Format(ev.Amount), "Member": user(ev.InitiatorID)})
		target := ev
		target.InteractionToken = ""
		errs = append(errs, n.deliver(ctx, target, ev.TargetID, received))
		return errors.Join(errs...)
	case model.EventTransactionFailure:
		return n.deliver(ctx, ev, ev.InitiatorID, tr(n.lang, "notify.failed", data{
			"Amount": cur.Format(ev.Amount),
			"Member": user(ev.TargetID),
			"Reason": tr(n.lang, "reason."+ev.Reason),
		}))
	case model.EventPendingExpired:
		return n.deliver(ctx, ev, ev.InitiatorID, tr(n.lang, "notify.expired", data{"Amount": cur.Format(ev.Amount), "Member": user(ev.TargetID)}))
	}
	return nil
}

// deliver answers the interaction of ev when it carries a token and DMs
// recipient otherwise, or when the follow-up fails.
func (n *Notifier) deliver(ctx context.Context, ev telemetry.Event, recipient, content string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}
	if ev.InteractionToken != "" && n.appID != nil {
		err := n.out.Followup(n.appID(), ev.InteractionToken, content, true)
		if err == nil {
			return nil
		}
		// Interaction tokens are valid for 15 minutes; fall back to a DM.
		n.log.Warn("follow-up failed", "event", ev.EventType, "guild_id", ev.GuildID, "err", err)
	}
	if recipient == "" || strings.Contains(recipient, ":") {
		return nil
	}
	if err := n.out.DirectMessage(recipient, content); err != nil {
		return fmt.Errorf("notify %s: %w", recipient, err)
	}
	return nil
}
