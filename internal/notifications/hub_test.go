package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterLimits(t *testing.T) {
	hub := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register("u1", nil)
		require.NoError(t, err)
	}
	_, err := hub.Register("u1", nil)
	assert.ErrorIs(t, err, ErrUserLimit)

	// anonymous viewers are not bound by the per-user limit
	for i := 0; i < maxConnsPerUser+1; i++ {
		_, err := hub.Register("", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 2*maxConnsPerUser+1, hub.Clients())

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.Clients())
	_, err = hub.Register("u2", nil)
	assert.ErrorIs(t, err, ErrHubShutdown)
}

func TestHub_UnregisterTwice(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register("u1", nil)
	require.NoError(t, err)

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)
	assert.Zero(t, hub.Clients())

	_, ok := <-c.Send
	assert.False(t, ok)
}

func TestHub_RunForwardsEvents(t *testing.T) {
	hub := NewHub()
	bus := NewLocalBus(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := hub.Register("", nil)
	require.NoError(t, err)
	require.NoError(t, hub.Run(ctx, bus))

	require.NoError(t, bus.Publish(ctx, NewEvent(EntityComment, "5", 2, ActionCreated)))

	var msg []byte
	assert.Eventually(t, func() bool {
		select {
		case msg = <-client.Send:
			return true
		default:
			return false
		}
	}, testEventuallyTimeout, testPollInterval)

	var wire struct {
		Type  string `json:"type"`
		Event Event  `json:"event"`
	}
	require.NoError(t, json.Unmarshal(msg, &wire))
	assert.Equal(t, "invalidate", wire.Type)
	assert.Equal(t, EntityComment, wire.Event.Entity)
	assert.Equal(t, uint(2), wire.Event.BlogID)
}

func TestClient_TrySendFullBufferDrops(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register("u1", nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)

	hub.UnregisterClient(c)
	// sending on a closed client must not panic
	assert.NotPanics(t, func() { c.TrySend([]byte("late")) })
}
