package node

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/fortytw2/leaktest"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconkit/beacond/config"
	"github.com/beaconkit/beacond/internal/blocksync"
	"github.com/beaconkit/beacond/internal/chain"
	"github.com/beaconkit/beacond/internal/gossip"
	"github.com/beaconkit/beacond/internal/test/factory"
	"github.com/beaconkit/beacond/libs/log"
	"github.com/beaconkit/beacond/types"
)

const testPeer = peer.ID("parent-peer")

func newTestNode(t *testing.T, modify func(*config.Config)) *Node {
	t.Helper()

	cfg := config.TestConfig().SetRoot(t.TempDir())
	if modify != nil {
		modify(cfg)
	}
	n, err := New(cfg, log.TestingLogger(), WithSlotClock(chain.NewManualSlotClock(1000)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, n.Start(ctx))
	t.Cleanup(func() {
		if n.IsRunning() {
			require.NoError(t, n.Stop())
		}
	})
	return n
}

func genesisRoot(t *testing.T, n *Node) types.Root {
	t.Helper()
	root, _ := n.Chain().Finalized()
	return root
}

func TestNodeImportBatch(t *testing.T) {
	defer leaktest.Check(t)()

	n := newTestNode(t, nil)
	blocks := factory.MakeChain(genesisRoot(t, n), 1, 5)

	res, err := n.ImportBatch(context.Background(), 1, blocks)
	require.NoError(t, err)
	assert.Equal(t, blocksync.BatchSuccess, res.Result)
	assert.Equal(t, blocks, res.Blocks)

	head, headSlot := n.Chain().Head()
	assert.Equal(t, factory.MustBlockRoot(blocks[4]), head)
	assert.Equal(t, types.Slot(5), headSlot)

	// same batch again: all known, still a success
	res, err = n.ImportBatch(context.Background(), 2, blocks)
	require.NoError(t, err)
	assert.Equal(t, blocksync.BatchSuccess, res.Result)
	assert.Equal(t, blocksync.BatchID(2), res.BatchID)

	// a batch that does not connect
	res, err = n.ImportBatch(context.Background(), 3, factory.MakeChain(types.Root{0xff}, 10, 2))
	require.NoError(t, err)
	assert.Equal(t, blocksync.BatchFailed, res.Result)
	assert.Contains(t, res.Err.Error(), "unknown parent")

	require.NoError(t, n.Stop())
}

func TestNodeImportParentChain(t *testing.T) {
	n := newTestNode(t, nil)
	blocks := factory.MakeChain(genesisRoot(t, n), 1, 3)

	require.NoError(t, n.ImportParentChain(context.Background(), testPeer, factory.Reversed(blocks)))
	for _, b := range blocks {
		ok, err := n.BlockStore().HasBlock(factory.MustBlockRoot(b))
		require.NoError(t, err)
		assert.True(t, ok)
	}
	// parent lookups leave fork choice to the caller by default
	_, headSlot := n.Chain().Head()
	assert.Zero(t, headSlot)

	err := n.ImportParentChain(context.Background(), testPeer, factory.MakeChain(types.Root{0xee}, 7, 2))
	assert.ErrorIs(t, err, ErrParentLookupFailed)
}

func TestNodeParentLookupForkChoice(t *testing.T) {
	n := newTestNode(t, func(cfg *config.Config) {
		cfg.BlockSync.ParentLookupForkChoice = true
	})
	blocks := factory.MakeChain(genesisRoot(t, n), 1, 3)

	require.NoError(t, n.ImportParentChain(context.Background(), testPeer, factory.Reversed(blocks)))
	_, headSlot := n.Chain().Head()
	assert.Equal(t, types.Slot(3), headSlot)
}

func TestNodeFutureBlocks(t *testing.T) {
	n := newTestNode(t, nil)
	tip := genesisRoot(t, n)

	// the test clock sits at slot 1000
	res, err := n.ImportBatch(context.Background(), 1, factory.MakeChain(tip, 1001, 1))
	require.NoError(t, err)
	assert.Equal(t, blocksync.BatchFailed, res.Result)
	assert.Contains(t, res.Err.Error(), "slightly ahead")

	res, err = n.ImportBatch(context.Background(), 2, factory.MakeChain(tip, 1005, 1))
	require.NoError(t, err)
	assert.Equal(t, blocksync.BatchFailed, res.Result)
	assert.Contains(t, res.Err.Error(), "is higher than the current slot 1000")
}

func TestNodeStopped(t *testing.T) {
	n := newTestNode(t, nil)
	require.NoError(t, n.Stop())

	_, err := n.ImportBatch(context.Background(), 1, nil)
	assert.ErrorIs(t, err, ErrNodeNotRunning)
	err = n.ImportParentChain(context.Background(), testPeer, nil)
	assert.ErrorIs(t, err, ErrNodeNotRunning)

	// the processor stopped with the node
	assert.ErrorIs(t, n.BlockProcessor().Spawn(blocksync.RangeBatchID{BatchID: 1}, nil), blocksync.ErrProcessorNotRunning)
}

func TestNodeRejectsInvalidConfig(t *testing.T) {
	for name, modify := range map[string]func(*config.Config){
		"no batches":       func(cfg *config.Config) { cfg.BlockSync.MaxConcurrentBatches = 0 },
		"unbuffered reply": func(cfg *config.Config) { cfg.BlockSync.SyncChannelCapacity = 0 },
	} {
		cfg := config.TestConfig().SetRoot(t.TempDir())
		modify(cfg)
		_, err := New(cfg, log.NewNopLogger())
		assert.Error(t, err, name)
	}
}

func TestNodeClosedSyncChannel(t *testing.T) {
	n := newTestNode(t, nil)
	blocks := factory.MakeChain(genesisRoot(t, n), 1, 3)
	n.SyncChannel().Close()

	_, err := n.ImportBatch(context.Background(), 1, blocks[:1])
	assert.ErrorIs(t, err, ErrNoResult)

	// a successful lookup sends nothing, so only the closed channel is seen
	err = n.ImportParentChain(context.Background(), testPeer, factory.Reversed(blocks[1:]))
	assert.ErrorIs(t, err, ErrNoResult)

	head, _ := n.Chain().Head()
	assert.Equal(t, factory.MustBlockRoot(blocks[0]), head)
}

func TestNodePublishTopic(t *testing.T) {
	n := newTestNode(t, func(cfg *config.Config) {
		cfg.Gossip.Encoding = string(gossip.EncodingSSZ)
	})

	msg := gossip.NewBeaconBlockMessage(factory.MakeBlock(3, types.Root{0x01}))
	topic, payload, err := n.PublishTopic(msg)
	require.NoError(t, err)
	assert.Equal(t, "/eth2/b5303f2a/beacon_block/ssz", topic)

	decoded, err := gossip.DecodeMessage([]string{topic}, payload)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestNodeMetricsServer(t *testing.T) {
	n := newTestNode(t, func(cfg *config.Config) {
		cfg.Instrumentation.Prometheus = true
		cfg.Instrumentation.PrometheusListenAddr = "127.0.0.1:0"
		cfg.Instrumentation.Namespace = "nodetest"
	})
	require.NotNil(t, n.MetricsAddr())

	_, err := n.ImportBatch(context.Background(), 1, factory.MakeChain(genesisRoot(t, n), 1, 2))
	require.NoError(t, err)

	resp, err := http.Get("http://" + n.MetricsAddr().String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "nodetest_blocksync_batches_processed")
	assert.Contains(t, string(body), "nodetest_blocksync_blocks_imported 2")
}
