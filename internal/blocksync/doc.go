/*
Package blocksync imports batches of downloaded blocks into the beacon chain
on behalf of the sync manager.

The sync manager hands the BlockProcessor two kinds of work, identified by a
ProcessID:

  - RangeBatchID: a batch downloaded by range sync, ascending by slot. The
    outcome, success or failure, is always reported back as a
    BatchProcessed message carrying the batch id and the blocks as given.
  - ParentLookupID: the ancestry of a block whose parent was unknown,
    newest first. The blocks are reversed before import and only a failure
    is reported, as ParentLookupFailed naming the peer that supplied them.

Each batch runs in its own goroutine; a weighted semaphore bounds how many
import at the same time. Batches are imported in order internally but no
order is kept across batches.

The processor reaches the chain through a chain.Handle. If the chain has
been torn down by the time a batch runs, the batch is dropped without a
report. Reports go through a SyncChannel whose sends never block; a report
that cannot be delivered is logged and dropped.

Import errors are classified: an unknown parent, a block from the future,
an internal chain error or an invalid block fail the batch, while a block
that is already known, at or before the finalized slot, or the genesis
block does not. Fork choice runs once after every range batch that
imported at least one new block, and after parent lookups only when
WithParentLookupForkChoice is set; its failure is logged and does not
affect the result.
*/
package blocksync
