// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package events

import (
	"context"
	"testing"
)

func TestBus_GuildAndWildcardDelivery(t *testing.T) {
	b := NewBus[string]("test")
	var got []string
	b.Subscribe("g1", func(_ context.Context, ev string) { got = append(got, "g1:"+ev) })
	b.Subscribe("", func(_ context.Context, ev string) { got = append(got, "*:"+ev) })
	b.Subscribe("g2", func(_ context.Context, ev string) { got = append(got, "g2:"+ev) })

	b.Publish(context.Background(), "g1", "a")
	b.Publish(context.Background(), "g2", "b")

	want := []string{"g1:a", "*:a", "*:b", "g2:b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestBus_UnsubscribeAndPanicIsolation(t *testing.T) {
	b := NewBus[int]("test")
	calls := 0
	unsub := b.Subscribe("", func(context.Context, int) { calls++ })
	b.Subscribe("", func(context.Context, int) { panic("boom") })
	after := 0
	b.Subscribe("", func(context.Context, int) { after++ })

	b.Publish(context.Background(), "g", 1)
	if calls != 1 || after != 1 {
		t.Fatalf("panicking subscriber must not stop delivery: calls=%d after=%d", calls, after)
	}

	unsub()
	unsub()
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	b.Publish(context.Background(), "g", 2)
	if calls != 1 {
		t.Fatalf("unsubscribed handler was called")
	}
}
