package chain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/beaconkit/beacond/internal/store"
	"github.com/beaconkit/beacond/libs/log"
	"github.com/beaconkit/beacond/types"
)

var _ Chain = (*BeaconChain)(nil)

// GenesisBlock returns the block every chain built by NewBeaconChain starts
// from when its store is empty.
func GenesisBlock() *types.SignedBeaconBlock {
	return &types.SignedBeaconBlock{
		Block: &types.BeaconBlock{
			Body: &types.BeaconBlockBody{Eth1Data: &types.Eth1Data{}},
		},
	}
}

/*
BeaconChain is a Chain over a BlockStore.

It checks what the block sync layer needs to tell blocks apart, namely
slot against clock, finality, known blocks and known parents, and nothing
of consensus validity. Fork choice picks the highest-slot block descending
from the finalized block.

All methods are serialized by a single mutex, so concurrent batches are
safe but not parallel.
*/
type BeaconChain struct {
	mtx    sync.Mutex
	logger log.Logger
	store  *store.BlockStore
	clock  SlotClock

	head          types.Root
	headSlot      types.Slot
	finalized     types.Root
	finalizedSlot types.Slot
}

// NewBeaconChain loads the chain in bs, anchoring genesis first if bs is
// empty.
func NewBeaconChain(logger log.Logger, bs *store.BlockStore, clock SlotClock, genesis *types.SignedBeaconBlock) (*BeaconChain, error) {
	c := &BeaconChain{
		logger: logger,
		store:  bs,
		clock:  clock,
	}

	finalized, err := bs.LoadFinalized()
	switch {
	case errors.Is(err, store.ErrNotFound):
		if genesis == nil {
			genesis = GenesisBlock()
		}
		if finalized, err = bs.SaveBlock(genesis); err != nil {
			return nil, fmt.Errorf("storing genesis block: %w", err)
		}
		if err := bs.SaveFinalized(finalized); err != nil {
			return nil, err
		}
		if err := bs.SaveHead(finalized); err != nil {
			return nil, err
		}
		logger.Info("anchored genesis block", "root", finalized)
	case err != nil:
		return nil, err
	}

	finalizedBlock, err := bs.LoadBlock(finalized)
	if err != nil {
		return nil, fmt.Errorf("loading finalized block: %w", err)
	}
	c.finalized, c.finalizedSlot = finalized, finalizedBlock.Slot()

	head, err := bs.LoadHead()
	if err != nil {
		return nil, fmt.Errorf("loading head: %w", err)
	}
	headBlock, err := bs.LoadBlock(head)
	if err != nil {
		return nil, fmt.Errorf("loading head block: %w", err)
	}
	c.head, c.headSlot = head, headBlock.Slot()

	return c, nil
}

// Head returns the current head root and slot.
func (c *BeaconChain) Head() (types.Root, types.Slot) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.head, c.headSlot
}

// Finalized returns the finalized block root and slot.
func (c *BeaconChain) Finalized() (types.Root, types.Slot) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.finalized, c.finalizedSlot
}

// SetFinalized moves finality to a stored block.
func (c *BeaconChain) SetFinalized(root types.Root) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	block, err := c.store.LoadBlock(root)
	if err != nil {
		return err
	}
	if block.Slot() < c.finalizedSlot {
		return fmt.Errorf("finality cannot move back from slot %d to %d", c.finalizedSlot, block.Slot())
	}
	if err := c.store.SaveFinalized(root); err != nil {
		return &ChainError{Err: err}
	}
	c.finalized, c.finalizedSlot = root, block.Slot()
	return nil
}

// ProcessChainSegment implements Chain.
//
// Leading blocks that are already stored are skipped, including the
// finalized block and genesis, before any relevancy check. The remaining blocks
// are imported one by one; the first block that cannot be imported stops
// the segment and its error is returned. Blocks before it stay imported.
func (c *BeaconChain) ProcessChainSegment(blocks []*types.SignedBeaconBlock) ([]types.Root, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	roots, err := segmentRoots(blocks)
	if err != nil {
		return nil, err
	}

	start := 0
	for ; start < len(blocks); start++ {
		known, err := c.store.HasBlock(roots[start])
		if err != nil {
			return nil, &ChainError{Err: err}
		}
		if !known {
			break
		}
	}

	imported := make([]types.Root, 0, len(blocks)-start)
	for i := start; i < len(blocks); i++ {
		if err := c.checkRelevancy(blocks[i], roots[i]); err != nil {
			return imported, err
		}
		if err := c.checkParent(blocks[i]); err != nil {
			return imported, err
		}
		if _, err := c.store.SaveBlock(blocks[i]); err != nil {
			return imported, &ChainError{Err: err}
		}
		imported = append(imported, roots[i])
	}

	if len(imported) > 0 {
		c.logger.Debug("imported chain segment",
			"count", len(imported),
			"first_slot", blocks[start].Slot(),
			"last_slot", blocks[len(blocks)-1].Slot())
	}
	return imported, nil
}

// segmentRoots computes the block roots of a segment and checks that it is
// linear: slots strictly increase and each block builds on the previous one.
func segmentRoots(blocks []*types.SignedBeaconBlock) ([]types.Root, error) {
	roots := make([]types.Root, len(blocks))
	for i, b := range blocks {
		if b == nil || b.Block == nil {
			return nil, ErrEmptyBlock
		}
		root, err := b.BlockRoot()
		if err != nil {
			return nil, err
		}
		roots[i] = root
		if i == 0 {
			continue
		}
		if b.Slot() <= blocks[i-1].Slot() {
			return nil, ErrNonLinearSlots
		}
		if b.ParentRoot() != roots[i-1] {
			return nil, ErrNonLinearParentRoots
		}
	}
	return roots, nil
}

// checkRelevancy rejects blocks that must not be imported. A stored block
// yields ErrBlockIsAlreadyKnown.
func (c *BeaconChain) checkRelevancy(b *types.SignedBeaconBlock, root types.Root) error {
	present := c.clock.CurrentSlot()
	switch {
	case b.Slot() > present:
		return &FutureSlotError{PresentSlot: present, BlockSlot: b.Slot()}
	case b.Slot() == 0:
		return ErrGenesisBlock
	case b.Slot() <= c.finalizedSlot:
		return &WouldRevertFinalizedSlotError{BlockSlot: b.Slot(), FinalizedSlot: c.finalizedSlot}
	}

	known, err := c.store.HasBlock(root)
	if err != nil {
		return &ChainError{Err: err}
	}
	if known {
		return ErrBlockIsAlreadyKnown
	}
	return nil
}

func (c *BeaconChain) checkParent(b *types.SignedBeaconBlock) error {
	ok, err := c.store.HasBlock(b.ParentRoot())
	if err != nil {
		return &ChainError{Err: err}
	}
	if !ok {
		return &ParentUnknownError{Parent: b.ParentRoot()}
	}
	return nil
}

// ForkChoice implements Chain. The head becomes the highest-slot stored
// block that descends from the finalized block, ties going to the greater
// root.
func (c *BeaconChain) ForkChoice() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	var (
		head     = c.finalized
		headSlot = c.finalizedSlot
	)
	err := c.store.IterateDescending(func(slot types.Slot, root types.Root) (bool, error) {
		if slot <= c.finalizedSlot {
			return false, nil
		}
		ok, err := c.descendsFromFinalized(root)
		if err != nil {
			return false, err
		}
		if !ok {
			// orphaned fork, keep looking
			return true, nil
		}
		head, headSlot = root, slot
		return false, nil
	})
	if err != nil {
		return &ChainError{Err: err}
	}

	if head == c.head {
		return nil
	}
	if err := c.store.SaveHead(head); err != nil {
		return &ChainError{Err: err}
	}
	c.logger.Info("new head", "root", head, "slot", headSlot, "previous", c.head)
	c.head, c.headSlot = head, headSlot
	return nil
}

func (c *BeaconChain) descendsFromFinalized(root types.Root) (bool, error) {
	for {
		if root == c.finalized {
			return true, nil
		}
		block, err := c.store.LoadBlock(root)
		if err != nil {
			return false, err
		}
		if block.Slot() <= c.finalizedSlot {
			return false, nil
		}
		root = block.ParentRoot()
	}
}
