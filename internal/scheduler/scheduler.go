// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package scheduler runs the periodic housekeeping jobs of the bot.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/econbot/econbot/internal/logging"
	"github.com/econbot/econbot/internal/metrics"
	"github.com/robfig/cron/v3"
)

// Job is one unit of periodic work.
type Job struct {
	Name string
	// Spec is a cron expression or descriptor such as "@every 1m".
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler wraps a cron instance running in UTC.
type Scheduler struct {
	cron *cron.Cron
	log  *logging.Logger
	ctx  context.Context
}

// cronLogger adapts the component logger to cron.Logger.
type cronLogger struct{ l *logging.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "err", err)...)
}

// New creates a scheduler. Jobs never overlap with themselves and a
// panicking job does not stop the others.
func New() *Scheduler {
	log := logging.For("scheduler")
	cl := cronLogger{l: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: log,
		ctx: context.Background(),
	}
}

// Add registers a job.
func (s *Scheduler) Add(j Job) error {
	if j.Run == nil {
		return fmt.Errorf("job %s has no run func", j.Name)
	}
	if _, err := s.cron.AddFunc(j.Spec, func() { s.runJob(j) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", j.Name, j.Spec, err)
	}
	return nil
}

// RunNow executes a job synchronously, outside the schedule.
func (s *Scheduler) RunNow(j Job) error {
	return s.runJob(j)
}

func (s *Scheduler) runJob(j Job) error {
	ctx := s.ctx
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	err := j.Run(ctx)
	metrics.RecordJobRun(j.Name, err == nil)
	if err != nil {
		s.log.Warn("job failed", "job", j.Name, "err", err)
		return err
	}
	s.log.Debug("job finished", "job", j.Name, "took", time.Since(start).String())
	return nil
}

// Run starts the schedule and blocks until ctx ends. Running jobs are
// awaited before it returns.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", len(s.cron.Entries()))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}

// GovernanceExpirer is implemented by core.GovernanceService.
type GovernanceExpirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// PendingSweeper is implemented by eventpool.Coordinator.
type PendingSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// ExpireProposalsJob closes proposals past their deadline.
func ExpireProposalsJob(g GovernanceExpirer, spec string) Job {
	return Job{
		Name:    "expire_proposals",
		Spec:    spec,
		Timeout: time.Minute,
		Run: func(ctx context.Context) error {
			_, err := g.ExpireDue(ctx)
			return err
		},
	}
}

// SweepPendingJob re-enqueues stored pending transfers.
func SweepPendingJob(p PendingSweeper, spec string) Job {
	return Job{
		Name:    "sweep_pending_transfers",
		Spec:    spec,
		Timeout: time.Minute,
		Run: func(ctx context.Context) error {
			_, err := p.Sweep(ctx)
			return err
		},
	}
}
