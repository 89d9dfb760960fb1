package blocksync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncChannel(t *testing.T) {
	ch := NewSyncChannel(2)

	require.NoError(t, ch.TrySend(&BatchProcessed{BatchID: 1}))
	require.NoError(t, ch.TrySend(&ParentLookupFailed{PeerID: "peer"}))
	assert.ErrorIs(t, ch.TrySend(&BatchProcessed{BatchID: 2}), ErrSyncChannelFull)
	assert.Equal(t, 2, ch.Len())

	ch.Close()
	ch.Close()
	assert.ErrorIs(t, ch.TrySend(&BatchProcessed{BatchID: 3}), ErrSyncChannelClosed)

	// buffered messages survive Close
	var got []SyncMessage
	for msg := range ch.Out() {
		got = append(got, msg)
	}
	require.Len(t, got, 2)
	assert.Equal(t, &BatchProcessed{BatchID: 1}, got[0])
	assert.Equal(t, &ParentLookupFailed{PeerID: "peer"}, got[1])
}

func TestSyncChannelMinimumCapacity(t *testing.T) {
	for _, capacity := range []int{-1, 0} {
		ch := NewSyncChannel(capacity)
		// nobody is receiving, one message still fits
		require.NoError(t, ch.TrySend(&BatchProcessed{BatchID: 1}))
		assert.ErrorIs(t, ch.TrySend(&BatchProcessed{BatchID: 2}), ErrSyncChannelFull)
		assert.Equal(t, 1, ch.Len())
	}
}

func TestSyncChannelConcurrentClose(t *testing.T) {
	ch := NewSyncChannel(8)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				// must not panic whichever way the race goes
				_ = ch.TrySend(&BatchProcessed{BatchID: BatchID(i*100 + j)})
			}
		}(i)
	}
	ch.Close()
	wg.Wait()

	for range ch.Out() {
	}
}
