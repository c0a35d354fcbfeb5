// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/econbot/econbot/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type countingExpirer struct{ calls atomic.Int32 }

func (c *countingExpirer) ExpireDue(context.Context) (int, error) {
	c.calls.Add(1)
	return 0, nil
}

type failingSweeper struct{}

func (failingSweeper) Sweep(context.Context) (int, error) { return 0, errors.New("db down") }

func TestAddRejectsBadJobs(t *testing.T) {
	s := New()
	if err := s.Add(Job{Name: "nil", Spec: "@every 1m"}); err == nil {
		t.Fatal("expected error for job without run func")
	}
	if err := s.Add(ExpireProposalsJob(&countingExpirer{}, "not a spec")); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestRunNowRecordsMetrics(t *testing.T) {
	s := New()
	exp := &countingExpirer{}
	if err := s.RunNow(ExpireProposalsJob(exp, "@every 1m")); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if exp.calls.Load() != 1 {
		t.Fatalf("calls = %d", exp.calls.Load())
	}
	before := testutil.CollectAndCount(metrics.Registry, "econbot_scheduler_job_runs_total")
	if err := s.RunNow(SweepPendingJob(failingSweeper{}, "@every 1m")); err == nil {
		t.Fatal("expected sweep failure")
	}
	if after := testutil.CollectAndCount(metrics.Registry, "econbot_scheduler_job_runs_total"); after <= before {
		t.Fatalf("job run series %d -> %d", before, after)
	}
}

func TestRunExecutesScheduledJobs(t *testing.T) {
	s := New()
	exp := &countingExpirer{}
	if err := s.Add(ExpireProposalsJob(exp, "@every 1s")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for exp.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exp.calls.Load() == 0 {
		t.Fatal("scheduled job never ran")
	}
}
