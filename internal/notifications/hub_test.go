package notifications

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()

	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(1, nil)
	require.NoError(t, err)
	other, err := hub.Register(2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Subscribers(1))

	hub.Broadcast(1, `{"type":"bid_placed"}`)
	assert.Len(t, a.Send, 1)
	assert.Len(t, b.Send, 1)
	assert.Len(t, other.Send, 0)

	hub.UnregisterClient(a)
	hub.UnregisterClient(a)
	assert.Equal(t, 1, hub.Subscribers(1))

	_, open := <-a.Send
	assert.True(t, open, "buffered message still readable")
	_, open = <-a.Send
	assert.False(t, open)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Equal(t, 0, hub.Subscribers(1))

	_, err = hub.Register(1, nil)
	assert.Error(t, err)
}

func TestHub_PerAuctionLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerAuction; i++ {
		_, err := hub.Register(9, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(9, nil)
	assert.Error(t, err)

	_, err = hub.Register(10, nil)
	assert.NoError(t, err)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	for i := 0; i < cap(c.Send)+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, cap(c.Send))

	hub.UnregisterClient(c)
	assert.NotPanics(t, func() { c.TrySend([]byte("late")) })
}

func TestHub_StartWiring(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	hub := NewHub()
	client, err := hub.Register(11, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))
	require.NoError(t, n.PublishAuctionEvent(ctx, 11, EventBidPlaced, map[string]string{"amount": "12.00"}))

	assert.Eventually(t, func() bool { return len(client.Send) == 1 }, testEventuallyTimeout, testPollInterval)
}
