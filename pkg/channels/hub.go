package channels

import (
	"context"
	"sync"
	"sync/atomic"
)

// subscriber holds a one-slot channel that always carries the newest value.
type subscriber[T any] struct {
	ch      chan T
	dropped atomic.Int32
}

// Hub publishes values to any number of subscribers that come and go.
//
// Each subscriber sees the most recent value: a slow reader misses
// intermediate values instead of blocking the publisher.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[*subscriber[T]]struct{}
	closed bool
}

// NewHub creates a hub with no subscribers.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[*subscriber[T]]struct{})}
}

// Subscribe returns a channel receiving published values until ctx is done
// or the hub is closed, after which the channel is closed.
func (h *Hub[T]) Subscribe(ctx context.Context) <-chan T {
	sub := &subscriber[T]{ch: make(chan T, 1)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(sub)
	}()

	return sub.ch
}

// Publish hands msg to every subscriber without blocking.
func (h *Hub[T]) Publish(msg T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		evicted, _ := SendLatest(sub.ch, msg)
		sub.dropped.Add(int32(evicted))
	}
}

// Close closes every subscriber channel. Later subscriptions are closed
// immediately.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

type SubscriberStats struct {
	Dropped int
}

// Stats reports per-subscriber counts of values replaced before delivery.
func (h *Hub[T]) Stats() []SubscriberStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := make([]SubscriberStats, 0, len(h.subs))
	for sub := range h.subs {
		stats = append(stats, SubscriberStats{Dropped: int(sub.dropped.Load())})
	}
	return stats
}

func (h *Hub[T]) remove(sub *subscriber[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
}
