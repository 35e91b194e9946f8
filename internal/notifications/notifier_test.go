package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestEventChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "invalidate:blog:7", BlogEvent(7, ActionPublished).Channel())
	assert.Equal(t, "invalidate:comment:12", NewEvent(EntityComment, "12", 7, ActionCreated).Channel())
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishInvalidation(context.Background(), BlogEvent(1, ActionCreated)))
	assert.NoError(t, n.StartInvalidationSubscriber(context.Background(), func(string, string) {}))
}

func TestNotifier_PublishesJSONOnEntityChannel(t *testing.T) {
	rdb, _ := newRedis(t)
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan [2]string, 1)
	require.NoError(t, n.StartInvalidationSubscriber(ctx, func(channel, payload string) {
		got <- [2]string{channel, payload}
	}))

	require.NoError(t, n.PublishInvalidation(context.Background(), NewEvent(EntityReaction, "3", 3, ActionUpdated)))

	select {
	case msg := <-got:
		assert.Equal(t, "invalidate:reaction:3", msg[0])
		var e Event
		require.NoError(t, json.Unmarshal([]byte(msg[1]), &e))
		assert.Equal(t, EntityReaction, e.Entity)
		assert.Equal(t, uint(3), e.BlogID)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("no message received")
	}
}

func TestRedisBus_FanOutAcrossBuses(t *testing.T) {
	rdb, _ := newRedis(t)
	// two buses over the same Redis stand in for two server processes
	writer := NewRedisBus(rdb, 4)
	reader := NewRedisBus(rdb, 4)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := reader.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, writer.Publish(context.Background(), BlogEvent(9, ActionDeleted)))

	select {
	case e := <-events:
		assert.Equal(t, EntityBlog, e.Entity)
		assert.Equal(t, ActionDeleted, e.Action)
		assert.Equal(t, uint(9), e.BlogID)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("no event received")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, testEventuallyTimeout, testPollInterval)
}

func TestNewBus(t *testing.T) {
	assert.IsType(t, &LocalBus{}, NewBus(nil))
	rdb, _ := newRedis(t)
	assert.IsType(t, &RedisBus{}, NewBus(rdb))
}
