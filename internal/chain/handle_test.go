package chain_test

import (
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconkit/beacond/internal/chain"
	"github.com/beaconkit/beacond/internal/chain/mocks"
)

func TestHandleUpgrade(t *testing.T) {
	c := &mocks.Chain{}
	h := chain.NewHandle(c)
	require.True(t, h.Alive())

	got, release, ok := h.Upgrade()
	require.True(t, ok)
	assert.Same(t, c, got)
	release()
	// releasing twice must not unbalance the lease count
	release()

	h.Invalidate()
	assert.False(t, h.Alive())

	got, release, ok = h.Upgrade()
	assert.False(t, ok)
	assert.Nil(t, got)
	release()

	// idempotent
	h.Invalidate()
}

func TestHandleInvalidateWaitsForLeases(t *testing.T) {
	defer leaktest.Check(t)()

	h := chain.NewHandle(&mocks.Chain{})
	_, release, ok := h.Upgrade()
	require.True(t, ok)

	done := make(chan struct{})
	go func() {
		h.Invalidate()
		close(done)
	}()

	require.Eventually(t, func() bool { return !h.Alive() }, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("Invalidate returned while a lease was outstanding")
	case <-time.After(50 * time.Millisecond):
	}

	_, _, ok = h.Upgrade()
	assert.False(t, ok, "no new lease once invalidation began")

	release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Invalidate did not return after the lease was released")
	}
}
