// Package chain defines what block sync needs from the beacon chain: a way
// to import an ordered segment of blocks and a way to re-run fork choice. It
// also provides the import error taxonomy, a liveness-checked handle for
// reaching the chain from background workers, and a store-backed reference
// implementation.
package chain

import (
	"github.com/beaconkit/beacond/types"
)

// Chain is the import dependency of block sync.
type Chain interface {
	// ProcessChainSegment imports blocks in the given order. Every block's
	// parent must either precede it in the segment or already be known. It
	// returns the roots of the blocks that were newly imported, which is
	// empty if they were all known already.
	ProcessChainSegment(blocks []*types.SignedBeaconBlock) ([]types.Root, error)

	// ForkChoice re-evaluates the canonical head.
	ForkChoice() error
}
