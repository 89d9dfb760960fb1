package factory

import (
	"encoding/binary"

	"github.com/beaconkit/beacond/types"
)

// MakeBlock returns a signed block at slot on top of parent with an empty
// body. The proposer index is derived from the slot so sibling blocks built
// with MakeFork differ in root.
func MakeBlock(slot types.Slot, parent types.Root) *types.SignedBeaconBlock {
	return &types.SignedBeaconBlock{
		Block: &types.BeaconBlock{
			Slot:          slot,
			ProposerIndex: types.ValidatorIndex(slot % 64),
			ParentRoot:    parent,
			Body: &types.BeaconBlockBody{
				Eth1Data: &types.Eth1Data{},
			},
		},
	}
}

// MakeChain returns n blocks at consecutive slots starting at fromSlot, the
// first built on parent and each following one on its predecessor.
func MakeChain(parent types.Root, fromSlot types.Slot, n int) []*types.SignedBeaconBlock {
	return MakeFork(parent, fromSlot, n, 0)
}

// MakeFork is MakeChain with a graffiti tag, so that forks built on the same
// parent at the same slots have distinct roots.
func MakeFork(parent types.Root, fromSlot types.Slot, n int, tag uint64) []*types.SignedBeaconBlock {
	blocks := make([]*types.SignedBeaconBlock, 0, n)
	for i := 0; i < n; i++ {
		b := MakeBlock(fromSlot+types.Slot(i), parent)
		binary.LittleEndian.PutUint64(b.Block.Body.Graffiti[:8], tag)
		blocks = append(blocks, b)
		parent = MustBlockRoot(b)
	}
	return blocks
}

// MustBlockRoot returns the root of b and panics on failure.
func MustBlockRoot(b *types.SignedBeaconBlock) types.Root {
	root, err := b.BlockRoot()
	if err != nil {
		panic(err)
	}
	return root
}

// Slots returns the slot of each block, in order.
func Slots(blocks []*types.SignedBeaconBlock) []types.Slot {
	slots := make([]types.Slot, len(blocks))
	for i, b := range blocks {
		slots[i] = b.Slot()
	}
	return slots
}

// Reversed returns a reversed copy of blocks.
func Reversed(blocks []*types.SignedBeaconBlock) []*types.SignedBeaconBlock {
	out := make([]*types.SignedBeaconBlock, len(blocks))
	for i, b := range blocks {
		out[len(blocks)-1-i] = b
	}
	return out
}
