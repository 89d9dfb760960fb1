package blocksync

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/beaconkit/beacond/types"
)

// BatchID identifies a range sync batch. It is assigned by the sync manager
// and echoed back unchanged.
type BatchID uint64

// ProcessID identifies the request a batch of blocks belongs to. It is one
// of RangeBatchID or ParentLookupID.
type ProcessID interface {
	fmt.Stringer
	isProcessID()
}

// RangeBatchID marks blocks downloaded by range sync, ordered by ascending
// slot.
type RangeBatchID struct {
	BatchID BatchID
}

// ParentLookupID marks blocks fetched while looking up the unknown ancestry
// of a block. The blocks are ordered newest first. PeerID is the peer that
// supplied the chain.
type ParentLookupID struct {
	PeerID peer.ID
}

func (RangeBatchID) isProcessID()   {}
func (ParentLookupID) isProcessID() {}

func (id RangeBatchID) String() string { return fmt.Sprintf("range_batch:%d", id.BatchID) }

func (id ParentLookupID) String() string { return "parent_lookup:" + id.PeerID.String() }

// BatchProcessResult is the outcome of a range batch.
type BatchProcessResult uint8

const (
	BatchSuccess BatchProcessResult = iota + 1
	BatchFailed
)

func (r BatchProcessResult) String() string {
	switch r {
	case BatchSuccess:
		return "success"
	case BatchFailed:
		return "failed"
	default:
		return fmt.Sprintf("BatchProcessResult(%d)", uint8(r))
	}
}

// SyncMessage is a message from the block processor to the sync manager.
// It is one of *BatchProcessed or *ParentLookupFailed.
type SyncMessage interface {
	isSyncMessage()
}

// BatchProcessed reports the terminal result of a range batch. Blocks is
// the slice the batch was spawned with. Err holds the failure reason when
// Result is BatchFailed and is nil otherwise.
type BatchProcessed struct {
	BatchID BatchID
	Blocks  []*types.SignedBeaconBlock
	Result  BatchProcessResult
	Err     error
}

// ParentLookupFailed reports that the chain supplied by PeerID could not be
// imported.
type ParentLookupFailed struct {
	PeerID peer.ID
}

func (*BatchProcessed) isSyncMessage()     {}
func (*ParentLookupFailed) isSyncMessage() {}
