// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package events provides the in-process publish/subscribe buses used to
// fan out state council and governance activity to the bot layer.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/econbot/econbot/internal/logging"
)

// Handler receives one published event.
type Handler[T any] func(ctx context.Context, ev T)

// Publisher is the producer side of a bus.
type Publisher[T any] interface {
	Publish(ctx context.Context, guildID string, ev T)
}

// Bus delivers events to subscribers of one guild and to wildcard
// subscribers. Delivery is synchronous and in subscription order.
type Bus[T any] struct {
	name string
	log  *logging.Logger

	mu    sync.RWMutex
	next  uint64
	order []uint64
	subs  map[uint64]subscription[T]
}

type subscription[T any] struct {
	guildID string
	handler Handler[T]
}

// NewBus creates an empty bus. The name only appears in logs.
func NewBus[T any](name string) *Bus[T] {
	return &Bus[T]{
		name: name,
		log:  logging.For("events").With("bus", name),
		subs: map[uint64]subscription[T]{},
	}
}

// Subscribe registers h for events of guildID. An empty guildID receives
// events of every guild. The returned func removes the subscription and is
// safe to call more than once.
func (b *Bus[T]) Subscribe(guildID string, h Handler[T]) (unsubscribe func()) {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs[id] = subscription[T]{guildID: guildID, handler: h}
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
		})
	}
}

// Publish delivers ev to every matching subscriber. A panicking handler is
// logged and does not stop delivery to the others.
func (b *Bus[T]) Publish(ctx context.Context, guildID string, ev T) {
	b.mu.RLock()
	handlers := make([]Handler[T], 0, len(b.order))
	for _, id := range b.order {
		s := b.subs[id]
		if s.guildID == "" || s.guildID == guildID {
			handlers = append(handlers, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(ctx, guildID, h, ev)
	}
}

func (b *Bus[T]) deliver(ctx context.Context, guildID string, h Handler[T], ev T) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("subscriber panicked", "guild_id", guildID, "panic", fmt.Sprint(r))
		}
	}()
	h(ctx, ev)
}

// Len returns the number of active subscriptions.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
