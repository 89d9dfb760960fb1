package chain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/beaconkit/beacond/internal/chain"
	"github.com/beaconkit/beacond/internal/store"
	"github.com/beaconkit/beacond/internal/test/factory"
	"github.com/beaconkit/beacond/libs/log"
	"github.com/beaconkit/beacond/types"
)

type testChain struct {
	*chain.BeaconChain
	db      dbm.DB
	store   *store.BlockStore
	clock   *chain.ManualSlotClock
	genesis types.Root
}

func newTestChain(t *testing.T) *testChain {
	t.Helper()
	db := dbm.NewMemDB()
	bs := store.NewBlockStore(db)
	clock := chain.NewManualSlotClock(100)
	c, err := chain.NewBeaconChain(log.TestingLogger(), bs, clock, nil)
	require.NoError(t, err)
	return &testChain{
		BeaconChain: c,
		db:          db,
		store:       bs,
		clock:       clock,
		genesis:     factory.MustBlockRoot(chain.GenesisBlock()),
	}
}

func roots(blocks []*types.SignedBeaconBlock) []types.Root {
	out := make([]types.Root, len(blocks))
	for i, b := range blocks {
		out[i] = factory.MustBlockRoot(b)
	}
	return out
}

func TestNewBeaconChainAnchorsGenesis(t *testing.T) {
	c := newTestChain(t)

	head, headSlot := c.Head()
	finalized, finalizedSlot := c.Finalized()
	assert.Equal(t, c.genesis, head)
	assert.Equal(t, c.genesis, finalized)
	assert.Zero(t, headSlot)
	assert.Zero(t, finalizedSlot)

	ok, err := c.store.HasBlock(c.genesis)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProcessChainSegment(t *testing.T) {
	c := newTestChain(t)
	blocks := factory.MakeChain(c.genesis, 1, 5)

	imported, err := c.ProcessChainSegment(blocks)
	require.NoError(t, err)
	assert.Equal(t, roots(blocks), imported)

	// importing does not move the head by itself
	head, _ := c.Head()
	assert.Equal(t, c.genesis, head)

	require.NoError(t, c.ForkChoice())
	head, headSlot := c.Head()
	assert.Equal(t, factory.MustBlockRoot(blocks[4]), head)
	assert.Equal(t, types.Slot(5), headSlot)

	// all known
	imported, err = c.ProcessChainSegment(blocks)
	require.NoError(t, err)
	assert.Empty(t, imported)

	// known prefix is skipped
	more := factory.MakeChain(factory.MustBlockRoot(blocks[4]), 6, 2)
	imported, err = c.ProcessChainSegment(append(blocks[3:], more...))
	require.NoError(t, err)
	assert.Equal(t, roots(more), imported)

	imported, err = c.ProcessChainSegment(nil)
	require.NoError(t, err)
	assert.Empty(t, imported)
}

func TestProcessChainSegmentErrors(t *testing.T) {
	c := newTestChain(t)
	base := factory.MakeChain(c.genesis, 1, 3)
	_, err := c.ProcessChainSegment(base)
	require.NoError(t, err)
	tip := factory.MustBlockRoot(base[2])

	t.Run("unknown parent", func(t *testing.T) {
		orphan := types.Root{0xde, 0xad}
		_, err := c.ProcessChainSegment(factory.MakeChain(orphan, 10, 2))
		var perr *chain.ParentUnknownError
		require.True(t, errors.As(err, &perr), "got %v", err)
		assert.Equal(t, orphan, perr.Parent)
	})

	t.Run("future slot", func(t *testing.T) {
		_, err := c.ProcessChainSegment(factory.MakeChain(tip, 101, 1))
		var ferr *chain.FutureSlotError
		require.True(t, errors.As(err, &ferr), "got %v", err)
		assert.Equal(t, types.Slot(100), ferr.PresentSlot)
		assert.Equal(t, types.Slot(101), ferr.BlockSlot)
	})

	t.Run("genesis", func(t *testing.T) {
		other := factory.MakeBlock(0, types.Root{0x01})
		_, err := c.ProcessChainSegment([]*types.SignedBeaconBlock{other})
		assert.ErrorIs(t, err, chain.ErrGenesisBlock)
	})

	t.Run("non linear slots", func(t *testing.T) {
		_, err := c.ProcessChainSegment(factory.Reversed(factory.MakeChain(tip, 4, 3)))
		assert.ErrorIs(t, err, chain.ErrNonLinearSlots)
	})

	t.Run("non linear parents", func(t *testing.T) {
		a := factory.MakeBlock(4, tip)
		b := factory.MakeBlock(5, tip)
		_, err := c.ProcessChainSegment([]*types.SignedBeaconBlock{a, b})
		assert.ErrorIs(t, err, chain.ErrNonLinearParentRoots)
	})

	t.Run("nil block", func(t *testing.T) {
		_, err := c.ProcessChainSegment([]*types.SignedBeaconBlock{nil})
		assert.ErrorIs(t, err, chain.ErrEmptyBlock)
	})

	t.Run("known block after a new one", func(t *testing.T) {
		next := factory.MakeChain(tip, 4, 2)
		// store the second block behind the chain's back
		_, err := c.store.SaveBlock(next[1])
		require.NoError(t, err)

		imported, err := c.ProcessChainSegment(next)
		assert.ErrorIs(t, err, chain.ErrBlockIsAlreadyKnown)
		assert.Equal(t, roots(next[:1]), imported)
	})
}

func TestProcessChainSegmentBelowFinalized(t *testing.T) {
	c := newTestChain(t)
	main := factory.MakeChain(c.genesis, 1, 5)
	_, err := c.ProcessChainSegment(main)
	require.NoError(t, err)
	require.NoError(t, c.SetFinalized(factory.MustBlockRoot(main[3])))

	fork := factory.MakeFork(factory.MustBlockRoot(main[0]), 2, 2, 7)
	_, err = c.ProcessChainSegment(fork)
	var werr *chain.WouldRevertFinalizedSlotError
	require.True(t, errors.As(err, &werr), "got %v", err)
	assert.Equal(t, types.Slot(2), werr.BlockSlot)
	assert.Equal(t, types.Slot(4), werr.FinalizedSlot)

	err = c.SetFinalized(factory.MustBlockRoot(main[1]))
	assert.Error(t, err, "finality must not move back")

	err = c.SetFinalized(types.Root{0x01})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProcessChainSegmentFromFinalized(t *testing.T) {
	c := newTestChain(t)
	main := factory.MakeChain(c.genesis, 1, 3)
	_, err := c.ProcessChainSegment(main)
	require.NoError(t, err)
	require.NoError(t, c.SetFinalized(factory.MustBlockRoot(main[2])))

	// range sync restarting at the finalized block
	next := factory.MakeChain(factory.MustBlockRoot(main[2]), 4, 3)
	imported, err := c.ProcessChainSegment(append([]*types.SignedBeaconBlock{main[2]}, next...))
	require.NoError(t, err)
	assert.Equal(t, roots(next), imported)

	// the stored genesis block leading a segment is skipped too
	c = newTestChain(t)
	imported, err = c.ProcessChainSegment(append([]*types.SignedBeaconBlock{chain.GenesisBlock()}, main...))
	require.NoError(t, err)
	assert.Equal(t, roots(main), imported)
}

func TestForkChoice(t *testing.T) {
	c := newTestChain(t)
	main := factory.MakeChain(c.genesis, 1, 5)
	fork := factory.MakeFork(factory.MustBlockRoot(main[1]), 3, 6, 1)
	for _, segment := range [][]*types.SignedBeaconBlock{main, fork} {
		_, err := c.ProcessChainSegment(segment)
		require.NoError(t, err)
	}

	require.NoError(t, c.ForkChoice())
	head, headSlot := c.Head()
	assert.Equal(t, factory.MustBlockRoot(fork[5]), head)
	assert.Equal(t, types.Slot(8), headSlot)

	// finalizing the main chain past the fork point orphans the fork
	require.NoError(t, c.SetFinalized(factory.MustBlockRoot(main[3])))
	require.NoError(t, c.ForkChoice())
	head, headSlot = c.Head()
	assert.Equal(t, factory.MustBlockRoot(main[4]), head)
	assert.Equal(t, types.Slot(5), headSlot)

	// running it again changes nothing
	require.NoError(t, c.ForkChoice())
	again, _ := c.Head()
	assert.Equal(t, head, again)
}

func TestBeaconChainReopen(t *testing.T) {
	c := newTestChain(t)
	blocks := factory.MakeChain(c.genesis, 1, 4)
	_, err := c.ProcessChainSegment(blocks)
	require.NoError(t, err)
	require.NoError(t, c.ForkChoice())
	require.NoError(t, c.SetFinalized(factory.MustBlockRoot(blocks[1])))

	reopened, err := chain.NewBeaconChain(log.NewNopLogger(), store.NewBlockStore(c.db), c.clock, nil)
	require.NoError(t, err)

	head, headSlot := reopened.Head()
	assert.Equal(t, factory.MustBlockRoot(blocks[3]), head)
	assert.Equal(t, types.Slot(4), headSlot)
	finalized, finalizedSlot := reopened.Finalized()
	assert.Equal(t, factory.MustBlockRoot(blocks[1]), finalized)
	assert.Equal(t, types.Slot(2), finalizedSlot)
}
