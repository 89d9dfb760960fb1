package blocksync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/beaconkit/beacond/internal/chain"
	"github.com/beaconkit/beacond/libs/log"
	"github.com/beaconkit/beacond/libs/service"
	"github.com/beaconkit/beacond/types"
)

var _ service.Service = (*BlockProcessor)(nil)

const (
	// DefaultMaxConcurrentBatches is the default number of batches imported
	// at the same time.
	DefaultMaxConcurrentBatches = 4

	// DefaultFutureSlotTolerance is the number of slots a block may be ahead
	// of the local clock before it is logged as a clock problem.
	DefaultFutureSlotTolerance = types.Slot(1)
)

// ErrProcessorNotRunning is returned by Spawn before Start and after Stop.
var ErrProcessorNotRunning = errors.New("block processor is not running")

// BlockProcessor imports batches of blocks handed over by the sync manager
// and reports the outcome back on a SyncChannel.
type BlockProcessor struct {
	service.BaseService
	logger log.Logger

	chain   *chain.Handle
	syncCh  *SyncChannel
	metrics *Metrics

	maxConcurrentBatches   int64
	futureSlotTolerance    types.Slot
	parentLookupForkChoice bool

	sem *semaphore.Weighted

	mtx     sync.Mutex
	running bool
	cancel  context.CancelFunc
	ctx     context.Context
	wg      sync.WaitGroup
}

// BlockProcessorOption sets an optional parameter on the BlockProcessor.
type BlockProcessorOption func(*BlockProcessor)

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) BlockProcessorOption {
	return func(p *BlockProcessor) { p.metrics = metrics }
}

// WithMaxConcurrentBatches caps the number of batches imported at the same
// time. Values below one are raised to one.
func WithMaxConcurrentBatches(n int) BlockProcessorOption {
	return func(p *BlockProcessor) { p.maxConcurrentBatches = int64(n) }
}

// WithFutureSlotTolerance sets how far ahead of the local clock a block may
// be before the processor blames the clock rather than the peer.
func WithFutureSlotTolerance(slots types.Slot) BlockProcessorOption {
	return func(p *BlockProcessor) { p.futureSlotTolerance = slots }
}

// WithParentLookupForkChoice makes a successful parent lookup that imported
// new blocks run fork choice, as range batches do.
func WithParentLookupForkChoice(enabled bool) BlockProcessorOption {
	return func(p *BlockProcessor) { p.parentLookupForkChoice = enabled }
}

// NewBlockProcessor returns a processor importing into the chain behind
// handle and reporting to syncCh.
func NewBlockProcessor(
	logger log.Logger,
	handle *chain.Handle,
	syncCh *SyncChannel,
	options ...BlockProcessorOption,
) *BlockProcessor {
	p := &BlockProcessor{
		logger:               logger,
		chain:                handle,
		syncCh:               syncCh,
		metrics:              NopMetrics(),
		maxConcurrentBatches: DefaultMaxConcurrentBatches,
		futureSlotTolerance:  DefaultFutureSlotTolerance,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.maxConcurrentBatches < 1 {
		p.maxConcurrentBatches = 1
	}
	p.sem = semaphore.NewWeighted(p.maxConcurrentBatches)
	p.BaseService = *service.NewBaseService(logger, "BlockProcessor", p)
	return p
}

// OnStart implements service.Service.
func (p *BlockProcessor) OnStart(ctx context.Context) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true
	return nil
}

// OnStop implements service.Service. Batches already importing run to
// completion; batches still waiting for a slot are dropped.
func (p *BlockProcessor) OnStop() {
	p.mtx.Lock()
	p.running = false
	p.cancel()
	p.mtx.Unlock()

	p.wg.Wait()
}

// Spawn schedules blocks for import in the background and returns
// immediately. The result, if any, arrives on the SyncChannel.
func (p *BlockProcessor) Spawn(id ProcessID, blocks []*types.SignedBeaconBlock) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if !p.running {
		return ErrProcessorNotRunning
	}

	p.wg.Add(1)
	go func(ctx context.Context) {
		defer p.wg.Done()
		if err := p.Process(ctx, id, blocks); err != nil {
			p.logger.Debug("dropping batch; block processor is stopping", "process_id", id, "err", err)
		}
	}(p.ctx)
	return nil
}

// Process imports blocks in the calling goroutine, waiting for a free slot
// first. It only returns an error if ctx ends before the import starts.
func (p *BlockProcessor) Process(ctx context.Context, id ProcessID, blocks []*types.SignedBeaconBlock) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	if err := ctx.Err(); err != nil {
		return err
	}

	p.processBatch(id, blocks)
	return nil
}

func (p *BlockProcessor) processBatch(id ProcessID, blocks []*types.SignedBeaconBlock) {
	c, release, ok := p.chain.Upgrade()
	if !ok {
		p.logger.Debug("chain is gone; dropping batch", "process_id", id)
		return
	}
	defer release()

	p.metrics.BatchesInFlight.Add(1)
	defer p.metrics.BatchesInFlight.Add(-1)
	defer func(start time.Time) {
		p.metrics.BatchImportTime.Observe(time.Since(start).Seconds())
	}(time.Now())

	switch id := id.(type) {
	case RangeBatchID:
		p.processRangeBatch(c, id, blocks)
	case ParentLookupID:
		p.processParentLookup(c, id, blocks)
	default:
		p.logger.Error("unknown process id", "process_id", id)
	}
}

func (p *BlockProcessor) processRangeBatch(c chain.Chain, id RangeBatchID, blocks []*types.SignedBeaconBlock) {
	p.logger.Debug("processing batch", "id", id.BatchID, "blocks", len(blocks))

	msg := &BatchProcessed{BatchID: id.BatchID, Blocks: blocks, Result: BatchSuccess}
	if err := p.processBlocks(c, blocks, true); err != nil {
		p.logger.Debug("batch processing failed", "id", id.BatchID, "err", err)
		msg.Result, msg.Err = BatchFailed, err
	} else {
		p.logger.Debug("batch processed", "id", id.BatchID)
	}
	p.metrics.BatchesProcessed.With("result", msg.Result.String()).Add(1)

	if err := p.syncCh.TrySend(msg); err != nil {
		p.metrics.DroppedMessages.Add(1)
		p.logger.Debug("block processor could not inform range sync result; likely shutting down", "err", err)
	}
}

func (p *BlockProcessor) processParentLookup(c chain.Chain, id ParentLookupID, blocks []*types.SignedBeaconBlock) {
	p.logger.Debug("processing parent lookup", "last_peer_id", id.PeerID, "blocks", len(blocks))

	// parent lookups arrive newest first
	err := p.processBlocks(c, reverseBlocks(blocks), p.parentLookupForkChoice)
	if err == nil {
		p.logger.Debug("parent lookup processed successfully", "last_peer_id", id.PeerID)
		return
	}

	p.logger.Info("parent lookup failed", "last_peer_id", id.PeerID, "err", err)
	p.metrics.ParentLookupsFailed.Add(1)
	if err := p.syncCh.TrySend(&ParentLookupFailed{PeerID: id.PeerID}); err != nil {
		p.metrics.DroppedMessages.Add(1)
		p.logger.Debug("block processor could not inform parent lookup result; likely shutting down", "err", err)
	}
}

// processBlocks imports blocks as one segment and runs fork choice if
// forkChoice is set and new blocks were imported, even when the import stopped
// at a block that does not fail the batch. The returned error is the reason the
// batch failed; import errors that do not fail a batch yield nil.
func (p *BlockProcessor) processBlocks(c chain.Chain, blocks []*types.SignedBeaconBlock, forkChoice bool) error {
	roots, err := c.ProcessChainSegment(blocks)
	if err != nil {
		if err = p.classifyImportError(err); err != nil {
			return err
		}
	}

	if len(roots) == 0 {
		p.logger.Debug("all blocks already known")
		return nil
	}
	p.logger.Debug("imported blocks from network", "count", len(roots))
	p.metrics.BlocksImported.Add(float64(len(roots)))
	if forkChoice {
		runForkChoice(c, p.logger, p.metrics)
	}
	return nil
}

func (p *BlockProcessor) classifyImportError(err error) error {
	var (
		parentErr *chain.ParentUnknownError
		futureErr *chain.FutureSlotError
		revertErr *chain.WouldRevertFinalizedSlotError
		chainErr  *chain.ChainError
	)

	switch {
	case errors.As(err, &parentErr):
		// blocks are sequential, so the rest of the batch cannot import either
		p.logger.Info("parent block is unknown", "parent_root", parentErr.Parent)
		return fmt.Errorf("block has an unknown parent: %s", parentErr.Parent)

	case errors.Is(err, chain.ErrBlockIsAlreadyKnown):
		// the segment filter should have caught this
		p.logger.Error("unexpected already known block in chain segment", "err", err)
		return nil

	case errors.As(err, &futureErr):
		present, slot := futureErr.PresentSlot, futureErr.BlockSlot
		if slot > present && slot-present > p.futureSlotTolerance {
			p.logger.Info("block is ahead of our slot clock",
				"msg", "block for future slot rejected, check your time",
				"present_slot", present,
				"block_slot", slot,
				"future_slot_tolerance", p.futureSlotTolerance)
			return fmt.Errorf("block with slot %d is higher than the current slot %d", slot, present)
		}
		p.logger.Debug("block is slightly ahead of our slot clock",
			"present_slot", present,
			"block_slot", slot,
			"future_slot_tolerance", p.futureSlotTolerance)
		return fmt.Errorf("block with slot %d is slightly ahead of the current slot %d", slot, present)

	case errors.As(err, &revertErr):
		p.logger.Debug("finalized or earlier block processed",
			"block_slot", revertErr.BlockSlot,
			"finalized_slot", revertErr.FinalizedSlot)
		return nil

	case errors.Is(err, chain.ErrGenesisBlock):
		p.logger.Debug("genesis block was processed")
		return nil

	case errors.As(err, &chainErr):
		p.logger.Info("block processing failure",
			"msg", "unexpected condition in processing block",
			"err", chainErr.Err)
		return fmt.Errorf("internal error whilst processing block: %w", chainErr.Err)

	default:
		p.logger.Info("invalid block received", "msg", "peer sent invalid block", "err", err)
		return fmt.Errorf("peer sent invalid block: %w", err)
	}
}

func reverseBlocks(blocks []*types.SignedBeaconBlock) []*types.SignedBeaconBlock {
	out := make([]*types.SignedBeaconBlock, len(blocks))
	for i, b := range blocks {
		out[len(blocks)-1-i] = b
	}
	return out
}
