// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/econbot/econbot/internal/bot"
	"github.com/econbot/econbot/internal/config"
	"github.com/econbot/econbot/internal/core"
	"github.com/econbot/econbot/internal/db"
	"github.com/econbot/econbot/internal/eventpool"
	"github.com/econbot/econbot/internal/events"
	"github.com/econbot/econbot/internal/i18n"
	"github.com/econbot/econbot/internal/logging"
	"github.com/econbot/econbot/internal/metrics"
	"github.com/econbot/econbot/internal/scheduler"
	"github.com/econbot/econbot/internal/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Schedules of the background jobs.
const (
	expireProposalsSpec = "@every 1m"
	sweepPendingSpec    = "@every 30s"
	localBrokerSize     = 256
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve commands",
		Long: `Connects the bot to Discord and serves application commands until
interrupted. The telemetry listener, the transfer event pool, the scheduled
jobs and the optional ops server run alongside the gateway connection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := appConfig.Validate(true); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pool := newPoolFunc(appConfig)
			defer func() { _ = pool.Close() }()
			store, err := pool.Get(ctx)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.running"))
			return runBot(ctx, appConfig, store)
		},
	}
}

// botRuntime is everything runBot starts besides the Discord session.
type botRuntime struct {
	services *core.Services
	pool     *eventpool.Coordinator
	source   telemetry.Source
	sched    *scheduler.Scheduler
	council  *events.StateCouncilBus
	gov      *events.GovernanceBus
}

// buildRuntime wires the service layer to its telemetry transport and the
// event pool. Postgres publishes with pg_notify and listens on a dedicated
// connection; the other backends share an in-process broker.
func buildRuntime(c config.Config, store *db.BunStore) (*botRuntime, error) {
	rt := &botRuntime{
		council: events.NewBus[events.StateCouncilEvent]("state_council"),
		gov:     events.NewBus[events.GovernanceEvent]("governance"),
		sched:   scheduler.New(),
	}

	var emitter core.Emitter
	if c.Telemetry.ListenEnabled || c.Transfer.EventPoolEnabled {
		if store.DBType() == "postgres" {
			emitter = telemetry.NewPGEmitter(store, c.Telemetry.Channel)
			src, err := telemetry.NewPQSource(c.Database.URL, c.Telemetry.Channel)
			if err != nil {
				return nil, fmt.Errorf("telemetry listener: %w", err)
			}
			rt.source = src
		} else {
			broker := telemetry.NewLocalBroker(localBrokerSize)
			emitter = broker
			rt.source = broker
		}
	}

	rt.services = core.NewServices(core.Deps{
		Store:   store,
		Emitter: emitter,
		Transfer: core.TransferOptions{
			PoolEnabled: c.Transfer.EventPoolEnabled,
			DailyLimit:  c.Transfer.DailyLimit,
			Cooldown:    c.Transfer.Cooldown,
			PendingTTL:  c.Transfer.PendingTTL,
		},
		CouncilBus:    rt.council,
		GovernanceBus: rt.gov,
	})

	if c.Transfer.EventPoolEnabled {
		rt.pool = eventpool.New(rt.services.Transfer, store, eventpool.Options{RetryInterval: c.Transfer.RetryInterval})
		rt.services.Transfer.SetQueue(rt.pool)
		if err := rt.sched.Add(scheduler.SweepPendingJob(rt.pool, sweepPendingSpec)); err != nil {
			return nil, err
		}
	}
	if err := rt.sched.Add(scheduler.ExpireProposalsJob(rt.services.Governance, expireProposalsSpec)); err != nil {
		return nil, err
	}
	return rt, nil
}

func runBot(ctx context.Context, c config.Config, store *db.BunStore) error {
	log := logging.For("cli")
	rt, err := buildRuntime(c, store)
	if err != nil {
		return err
	}
	if rt.source != nil {
		defer func() { _ = rt.source.Close() }()
	}

	b, err := bot.New(c.BotToken(), rt.services, bot.Options{
		GuildAllowlist:    c.Discord.GuildAllowlist,
		AnnounceChannelID: c.Discord.AnnounceChannelID,
		Language:          c.Language,
		NotifyPerSec:      c.Telemetry.NotifyPerSec,
		NotifyBurst:       c.Telemetry.NotifyBurst,
		CouncilBus:        rt.council,
		GovernanceBus:     rt.gov,
	})
	if err != nil {
		return err
	}
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("connect to discord: %w", err)
	}
	defer func() { _ = b.Close() }()

	g, gctx := errgroup.WithContext(ctx)
	if rt.source != nil {
		listener, err := telemetry.NewListener(rt.source, b.Notifier(), c.Telemetry.DedupSize)
		if err != nil {
			return err
		}
		g.Go(func() error { return listener.Run(gctx) })
	}
	if rt.pool != nil {
		g.Go(func() error { return rt.pool.Run(gctx) })
		// Pick up transfers left pending by a previous process.
		if n, err := rt.pool.Sweep(ctx); err != nil {
			log.Warn("initial pending sweep failed", "error", err)
		} else if n > 0 {
			log.Info("resumed pending transfers", "count", n)
		}
	}
	g.Go(func() error { return rt.sched.Run(gctx) })
	if c.Metrics.Addr != "" {
		srv := metrics.NewServer(c.Metrics.Addr, map[string]metrics.HealthFunc{
			"database": store.Ping,
		})
		g.Go(func() error { return srv.Run(gctx) })
	}

	log.Info("bot started", "database_type", store.DBType(), "event_pool", rt.pool != nil, "telemetry", rt.source != nil)
	err = g.Wait()
	if err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("bot stopped")
	return nil
}
