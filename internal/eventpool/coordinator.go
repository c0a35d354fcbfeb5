// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package eventpool processes pooled transfers in the background. Transfers
// blocked only by the sender's cooldown are retried until they complete or
// expire.
package eventpool

import (
	"context"
	"sync"
	"time"

	"github.com/econbot/econbot/internal/logging"
	"github.com/econbot/econbot/internal/metrics"
	"github.com/econbot/econbot/internal/model"
)

// Processor runs one pending transfer. core.TransferService implements it.
type Processor interface {
	ProcessPending(ctx context.Context, id string) (model.PendingTransfer, error)
}

// Lister finds stored pending transfers. db.BunStore implements it.
type Lister interface {
	ListPendingTransfers(ctx context.Context, status string, limit int) ([]model.PendingTransfer, error)
}

// Options tune the coordinator.
type Options struct {
	RetryInterval time.Duration
	QueueSize     int
	SweepLimit    int
}

func (o Options) withDefaults() Options {
	if o.RetryInterval <= 0 {
		o.RetryInterval = 5 * time.Second
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 1024
	}
	if o.SweepLimit <= 0 {
		o.SweepLimit = 500
	}
	return o
}

// Coordinator owns the pending transfer queue and its worker.
type Coordinator struct {
	proc Processor
	list Lister
	opts Options
	log  *logging.Logger

	queue chan string

	mu       sync.Mutex
	queued   map[string]bool
	retrying map[string]bool // retry timer not fired yet
	retries  sync.WaitGroup
}

// New creates a stopped coordinator.
func New(proc Processor, list Lister, opts Options) *Coordinator {
	opts = opts.withDefaults()
	return &Coordinator{
		proc:     proc,
		list:     list,
		opts:     opts,
		log:      logging.For("eventpool"),
		queue:    make(chan string, opts.QueueSize),
		queued:   map[string]bool{},
		retrying: map[string]bool{},
	}
}

// Enqueue schedules id for processing. Ids already waiting, in the queue or
// for a retry, are ignored. When the queue is full the transfer is left for
// the next sweep.
func (c *Coordinator) Enqueue(id string) {
	c.mu.Lock()
	if c.queued[id] || c.retrying[id] {
		c.mu.Unlock()
		return
	}
	c.queued[id] = true
	c.mu.Unlock()

	select {
	case c.queue <- id:
		metrics.SetPoolQueueDepth(len(c.queue))
	default:
		c.mu.Lock()
		delete(c.queued, id)
		c.mu.Unlock()
		c.log.Warn("pool queue full, deferring to sweep", "pending_id", id)
	}
}

// Len is the number of queued ids.
func (c *Coordinator) Len() int { return len(c.queue) }

// Run processes queued transfers until ctx is cancelled, then waits for
// scheduled retries to stand down.
func (c *Coordinator) Run(ctx context.Context) error {
	c.log.Info("event pool started", "retry_interval", c.opts.RetryInterval.String())
	defer func() {
		c.retries.Wait()
		c.log.Info("event pool stopped")
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case id := <-c.queue:
			metrics.SetPoolQueueDepth(len(c.queue))
			c.mu.Lock()
			delete(c.queued, id)
			c.mu.Unlock()
			c.process(ctx, id)
		}
	}
}

func (c *Coordinator) process(ctx context.Context, id string) {
	p, err := c.proc.ProcessPending(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.log.Warn("processing pending transfer failed, will retry", "pending_id", id, "err", err)
		c.retryLater(ctx, id)
		return
	}
	if p.Open() {
		c.log.Debug("pending transfer waiting for cooldown", "pending_id", id)
		c.retryLater(ctx, id)
	}
}

func (c *Coordinator) retryLater(ctx context.Context, id string) {
	c.mu.Lock()
	c.retrying[id] = true
	c.mu.Unlock()
	c.retries.Add(1)
	go func() {
		defer c.retries.Done()
		t := time.NewTimer(c.opts.RetryInterval)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
		c.mu.Lock()
		delete(c.retrying, id)
		c.mu.Unlock()
		if ctx.Err() == nil {
			c.Enqueue(id)
		}
	}()
}

// Sweep enqueues every stored transfer still pending, e.g. after a restart
// or when the queue overflowed. It returns how many it found.
func (c *Coordinator) Sweep(ctx context.Context) (int, error) {
	pending, err := c.list.ListPendingTransfers(ctx, model.PendingStatusPending, c.opts.SweepLimit)
	if err != nil {
		return 0, err
	}
	for _, p := range pending {
		c.Enqueue(p.ID)
	}
	if len(pending) > 0 {
		c.log.Info("swept pending transfers", "count", len(pending))
	}
	return len(pending), nil
}
