package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
)

// InvalidationPattern matches every invalidation channel.
const InvalidationPattern = "invalidate:*"

// Notifier provides helpers to publish invalidations into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishInvalidation sends e as JSON on its entity channel.
func (n *Notifier) PublishInvalidation(ctx context.Context, e Event) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, e.Channel(), payload).Err()
}

// StartInvalidationSubscriber subscribes to `invalidate:*` and calls onMessage
// for each incoming message until ctx is cancelled. It returns once Redis has
// confirmed the subscription.
func (n *Notifier) StartInvalidationSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, InvalidationPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", InvalidationPattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger.Error().
								Interface("panic", r).
								Bytes("stack", debug.Stack()).
								Msg("panic in invalidation subscriber")
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// RedisBus is a Bus shared by every server process through Redis pub/sub.
type RedisBus struct {
	notifier *Notifier
	buffer   int
}

// NewRedisBus wraps rdb. Each subscription buffers up to buffer events.
func NewRedisBus(rdb *redis.Client, buffer int) *RedisBus {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &RedisBus{notifier: NewNotifier(rdb), buffer: buffer}
}

func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	observability.InvalidationEvents.WithLabelValues(e.Entity, e.Action).Inc()
	return b.notifier.PublishInvalidation(ctx, e)
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event, b.buffer)
	var mu sync.Mutex
	closed := false

	err := b.notifier.StartInvalidationSubscriber(ctx, func(channel, payload string) {
		var e Event
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			observability.Logger.Warn().Err(err).Str("channel", channel).Msg("dropping malformed invalidation")
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- e:
		default:
			observability.InvalidationDrops.WithLabelValues("redis").Inc()
		}
	})
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()
	return out, nil
}

// NewBus returns a RedisBus when rdb is set and a LocalBus otherwise.
func NewBus(rdb *redis.Client) Bus {
	if rdb == nil {
		return NewLocalBus(0)
	}
	return NewRedisBus(rdb, 0)
}
