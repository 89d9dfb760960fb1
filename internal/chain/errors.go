package chain

import (
	"errors"
	"fmt"

	"github.com/beaconkit/beacond/types"
)

var (
	// ErrBlockIsAlreadyKnown is returned when a block in the middle of a
	// segment is already stored.
	ErrBlockIsAlreadyKnown = errors.New("block is already known")
	// ErrGenesisBlock is returned for a block at the genesis slot.
	ErrGenesisBlock = errors.New("genesis block cannot be imported")

	// Segment shape errors. The peer sent a batch that cannot be a chain.
	ErrNonLinearSlots       = errors.New("segment slots are not strictly increasing")
	ErrNonLinearParentRoots = errors.New("segment blocks do not build on each other")
	ErrEmptyBlock           = errors.New("segment contains a block without a message")
)

// ParentUnknownError is returned when a block's parent is neither stored nor
// earlier in the segment.
type ParentUnknownError struct {
	Parent types.Root
}

func (e *ParentUnknownError) Error() string {
	return fmt.Sprintf("parent %s is unknown", e.Parent)
}

// FutureSlotError is returned for a block whose slot is later than the
// current wall-clock slot.
type FutureSlotError struct {
	PresentSlot types.Slot
	BlockSlot   types.Slot
}

func (e *FutureSlotError) Error() string {
	return fmt.Sprintf("block slot %d is later than present slot %d", e.BlockSlot, e.PresentSlot)
}

// WouldRevertFinalizedSlotError is returned for a block at or before the
// finalized slot.
type WouldRevertFinalizedSlotError struct {
	BlockSlot     types.Slot
	FinalizedSlot types.Slot
}

func (e *WouldRevertFinalizedSlotError) Error() string {
	return fmt.Sprintf("block slot %d is not after finalized slot %d", e.BlockSlot, e.FinalizedSlot)
}

// ChainError wraps a failure of the chain itself, such as storage, as
// opposed to a problem with the block.
type ChainError struct {
	Err error
}

func (e *ChainError) Error() string { return fmt.Sprintf("beacon chain error: %v", e.Err) }

func (e *ChainError) Unwrap() error { return e.Err }
