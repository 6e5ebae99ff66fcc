// Package notify decouples external media components from the engine's
// change-propagation entry point. Decoders and loaders publish the id of
// the source node whose data changed; the graph owner drains the bus and
// re-evaluates affected subtrees.
//
// The bus never blocks a publisher: when a subscriber's buffer is full,
// the oldest pending event is dropped in favor of the new one. For video
// ticks the latest change always wins.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/framegraph/framegraph/internal/infrastructure/metrics"
)

// SourceChange is published when a source node has new data available.
type SourceChange struct {
	NodeID uuid.UUID `json:"node_id"`
	Seq    uint64    `json:"seq"`
	At     time.Time `json:"at"`
}

// Bus fans source-change events out to subscribers with drop-oldest
// overflow semantics.
type Bus struct {
	mu     sync.Mutex
	subs   map[string]chan SourceChange
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan SourceChange)}
}

// Subscribe registers a subscriber with the given buffer size and
// returns its receive channel. Subscriber names must be unique.
func (b *Bus) Subscribe(name string, buffer int) <-chan SourceChange {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan SourceChange, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, exists := b.subs[name]; exists {
		close(old)
	}
	b.subs[name] = ch
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, exists := b.subs[name]; exists {
		close(ch)
		delete(b.subs, name)
	}
}

// Publish delivers a change to every subscriber without blocking. A full
// subscriber loses its oldest pending event, not the new one.
func (b *Bus) Publish(change SourceChange) {
	if change.At.IsZero() {
		change.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for name, ch := range b.subs {
		select {
		case ch <- change:
			metrics.NotifyPublished(name, 1)
			continue
		default:
		}
		// Buffer full. Drop the oldest pending event if one is still
		// there; the subscriber may have drained it in the meantime.
		select {
		case <-ch:
			metrics.NotifyDropped(name, 1)
			slog.Debug("notify bus dropped oldest event", "subscriber", name)
		default:
		}
		// Publishes are serialized under the mutex and subscribers only
		// receive, so a slot is free now either way.
		select {
		case ch <- change:
			metrics.NotifyPublished(name, 1)
		default:
			metrics.NotifyDropped(name, 1)
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for name, ch := range b.subs {
		close(ch)
		delete(b.subs, name)
	}
}
