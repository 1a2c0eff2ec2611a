package realtime

import (
	"context"
	"sync"
)

// subscriberBuffer bounds how many undelivered messages a slow connection may
// hold before further messages to it are dropped.
const subscriberBuffer = 16

// MemoryBus is a process-local Bus for single-instance deployments and tests.
// Safe for concurrent connect/disconnect on the same group (multi-device).
type MemoryBus struct {
	mu     sync.RWMutex
	groups map[string]map[chan []byte]struct{}
	closed bool
}

// NewMemoryBus creates an in-process message bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		groups: make(map[string]map[chan []byte]struct{}),
	}
}

// Publish delivers payload to every current subscriber of the group. With no
// subscribers the message is silently dropped.
func (b *MemoryBus) Publish(_ context.Context, group string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.groups[group] {
		select {
		case ch <- payload:
		default:
			// Subscriber buffer full: drop rather than block the publisher.
		}
	}
	return nil
}

// Subscribe joins the group until the returned cancel function is called.
func (b *MemoryBus) Subscribe(_ context.Context, group string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	if b.groups[group] == nil {
		b.groups[group] = make(map[chan []byte]struct{})
	}
	b.groups[group][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			// Close the channel only if this call removed it from the map.
			// Close() already closed and dropped every remaining channel, so
			// a cancel running after shutdown must leave it alone.
			subs, ok := b.groups[group]
			if !ok {
				return
			}
			if _, member := subs[ch]; !member {
				return
			}
			delete(subs, ch)
			if len(subs) == 0 {
				delete(b.groups, group)
			}
			close(ch)
		})
	}

	return ch, cancel, nil
}

// Close releases all subscriptions.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for group, subs := range b.groups {
		for ch := range subs {
			close(ch)
		}
		delete(b.groups, group)
	}
	return nil
}

// SubscriberCount reports how many connections are joined to the group.
func (b *MemoryBus) SubscriberCount(group string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.groups[group])
}
