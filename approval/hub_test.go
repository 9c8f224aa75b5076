package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversEventPublishedBeforeWait(t *testing.T) {
	hub := NewHub[string]()
	w := hub.Expect("nft-1")

	assert.Equal(t, 1, hub.Pending("nft-1"))
	assert.Equal(t, 1, hub.Publish("nft-1", "done"))
	assert.Zero(t, hub.Pending("nft-1"))

	v, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestHubIgnoresOtherKeys(t *testing.T) {
	hub := NewHub[string]()
	w := hub.Expect("nft-1")
	defer w.Stop()

	assert.Zero(t, hub.Publish("nft-2", "other"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := w.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, hub.Pending("nft-1"), "a timed out waiter is deregistered")
}

func TestHubFansOutToEveryWaiter(t *testing.T) {
	hub := NewHub[int]()
	a := hub.Expect("k")
	b := hub.Expect("k")

	assert.Equal(t, 2, hub.Publish("k", 7))
	for _, w := range []*Waiter[int]{a, b} {
		v, err := w.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	}
	assert.Zero(t, hub.Publish("k", 8))
}

func TestWaiterStop(t *testing.T) {
	hub := NewHub[int]()
	w := hub.Expect("k")
	w.Stop()
	w.Stop()

	_, err := w.Wait(context.Background())
	require.ErrorIs(t, err, ErrWaiterStopped)
	assert.Zero(t, hub.Publish("k", 1))
}
