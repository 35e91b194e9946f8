package notifications

import (
	"context"
	"sync"

	"inkwell/internal/observability"
)

const defaultSubscriberBuffer = 64

// LocalBus is an in-process Bus. A subscriber whose buffer is full misses the
// event; consumers reload whole slots, so later events cover the gap.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	buffer int
	name   string
}

// NewLocalBus returns a bus whose subscribers buffer up to buffer events.
func NewLocalBus(buffer int) *LocalBus {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &LocalBus{subs: make(map[chan Event]struct{}), buffer: buffer, name: "local"}
}

// Publish never blocks, so it delivers even when ctx is already done.
func (b *LocalBus) Publish(_ context.Context, e Event) error {
	observability.InvalidationEvents.WithLabelValues(e.Entity, e.Action).Inc()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			observability.InvalidationDrops.WithLabelValues(b.name).Inc()
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}

// Subscribers reports the number of live subscriptions.
func (b *LocalBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
