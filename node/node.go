package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"

	"github.com/beaconkit/beacond/config"
	"github.com/beaconkit/beacond/internal/blocksync"
	"github.com/beaconkit/beacond/internal/chain"
	"github.com/beaconkit/beacond/internal/gossip"
	"github.com/beaconkit/beacond/internal/store"
	"github.com/beaconkit/beacond/libs/log"
	"github.com/beaconkit/beacond/libs/service"
	"github.com/beaconkit/beacond/types"
)

var (
	// ErrNodeNotRunning is returned by imports on a node that is not running.
	ErrNodeNotRunning = errors.New("node is not running")
	// ErrNoResult is returned when an imported batch produced no report,
	// because the report was dropped or the chain went away.
	ErrNoResult = errors.New("batch produced no result")
	// ErrParentLookupFailed is returned when a parent chain could not be
	// imported.
	ErrParentLookupFailed = errors.New("parent lookup failed")
)

// Node is the highest level interface to a full beacond node.
// It includes all configuration information and running services.
type Node struct {
	service.BaseService
	logger log.Logger

	// config
	config   *config.Config
	digest   types.ForkDigest
	encoding gossip.Encoding

	// services
	blockStore *store.BlockStore
	chain      *chain.BeaconChain
	handle     *chain.Handle
	syncCh     *blocksync.SyncChannel
	processor  *blocksync.BlockProcessor

	prometheusSrv *http.Server
	prometheusLn  net.Listener
}

// Option sets a parameter for the node.
type Option func(*nodeOptions)

type nodeOptions struct {
	dbProvider config.DBProvider
	clock      chain.SlotClock
	genesis    *types.SignedBeaconBlock
}

// WithDBProvider overrides how the block database is opened.
func WithDBProvider(p config.DBProvider) Option {
	return func(o *nodeOptions) { o.dbProvider = p }
}

// WithSlotClock overrides the wall-clock slot clock derived from the
// [chain] section.
func WithSlotClock(c chain.SlotClock) Option {
	return func(o *nodeOptions) { o.clock = c }
}

// WithGenesisBlock sets the block anchored in an empty store.
func WithGenesisBlock(b *types.SignedBeaconBlock) Option {
	return func(o *nodeOptions) { o.genesis = b }
}

// New returns a new, unstarted node.
func New(cfg *config.Config, logger log.Logger, options ...Option) (*Node, error) {
	if err := cfg.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := nodeOptions{
		dbProvider: config.DefaultDBProvider,
		clock:      chain.NewSystemSlotClock(cfg.Chain.Genesis(), cfg.Chain.SlotDuration()),
	}
	for _, opt := range options {
		opt(&opts)
	}

	digest, err := cfg.Gossip.Digest()
	if err != nil {
		return nil, err
	}
	encoding, err := gossip.ParseEncoding(cfg.Gossip.Encoding)
	if err != nil {
		return nil, err
	}

	db, err := opts.dbProvider(&config.DBContext{ID: "blockstore", Config: cfg})
	if err != nil {
		return nil, fmt.Errorf("opening block store: %w", err)
	}
	blockStore := store.NewBlockStore(db)

	beaconChain, err := chain.NewBeaconChain(logger.With("module", "chain"), blockStore, opts.clock, opts.genesis)
	if err != nil {
		return nil, combineCloseError(err, blockStore.Close)
	}

	metrics := blocksync.NopMetrics()
	if cfg.Instrumentation.Prometheus {
		metrics = blocksync.PrometheusMetrics(cfg.Instrumentation.Namespace)
	}

	handle := chain.NewHandle(beaconChain)
	syncCh := blocksync.NewSyncChannel(cfg.BlockSync.SyncChannelCapacity)
	processor := blocksync.NewBlockProcessor(
		logger.With("module", "blocksync"),
		handle,
		syncCh,
		blocksync.WithMetrics(metrics),
		blocksync.WithMaxConcurrentBatches(cfg.BlockSync.MaxConcurrentBatches),
		blocksync.WithFutureSlotTolerance(types.Slot(cfg.BlockSync.FutureSlotTolerance)),
		blocksync.WithParentLookupForkChoice(cfg.BlockSync.ParentLookupForkChoice),
	)

	n := &Node{
		logger:     logger,
		config:     cfg,
		digest:     digest,
		encoding:   encoding,
		blockStore: blockStore,
		chain:      beaconChain,
		handle:     handle,
		syncCh:     syncCh,
		processor:  processor,
	}
	n.BaseService = *service.NewBaseService(logger, "Node", n)
	return n, nil
}

// OnStart starts the metrics server, if enabled, and the block processor.
func (n *Node) OnStart(ctx context.Context) error {
	if n.config.Instrumentation.Prometheus && n.config.Instrumentation.PrometheusListenAddr != "" {
		if err := n.startPrometheusServer(); err != nil {
			return err
		}
	}

	if err := n.processor.Start(ctx); err != nil {
		n.stopPrometheusServer()
		return err
	}

	head, headSlot := n.chain.Head()
	n.logger.Info("node started", "moniker", n.config.Moniker, "head", head, "head_slot", headSlot)
	return nil
}

// OnStop tears the chain down first, so no new batch reaches it, then
// stops the services that feed it.
func (n *Node) OnStop() {
	n.logger.Info("stopping node")

	n.handle.Invalidate()
	if err := n.processor.Stop(); err != nil {
		n.logger.Error("failed to stop the block processor", "err", err)
	}
	n.syncCh.Close()
	n.stopPrometheusServer()

	if err := n.blockStore.Close(); err != nil {
		n.logger.Error("error closing block store", "err", err)
	}
}

// startPrometheusServer starts a Prometheus HTTP server, listening for metrics
// collectors on the configured address.
func (n *Node) startPrometheusServer() error {
	ln, err := net.Listen("tcp", n.config.Instrumentation.PrometheusListenAddr)
	if err != nil {
		return fmt.Errorf("prometheus listener: %w", err)
	}
	if limit := n.config.Instrumentation.MaxOpenConnections; limit > 0 {
		ln = netutil.LimitListener(ln, limit)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer, promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{MaxRequestsInFlight: n.config.Instrumentation.MaxOpenConnections},
		),
	))
	n.prometheusSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	n.prometheusLn = ln

	go func() {
		if err := n.prometheusSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			n.logger.Error("prometheus HTTP server Serve", "err", err)
		}
	}()
	n.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

func (n *Node) stopPrometheusServer() {
	if n.prometheusSrv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.prometheusSrv.Shutdown(ctx); err != nil {
		n.logger.Error("prometheus HTTP server Shutdown", "err", err)
	}
	n.prometheusSrv = nil
}

// MetricsAddr returns the address the metrics server listens on, or nil if
// it is not serving.
func (n *Node) MetricsAddr() net.Addr {
	if n.prometheusLn == nil {
		return nil
	}
	return n.prometheusLn.Addr()
}

// Config returns the node configuration.
func (n *Node) Config() *config.Config { return n.config }

// BlockStore returns the node's block store.
func (n *Node) BlockStore() *store.BlockStore { return n.blockStore }

// Chain returns the node's chain.
func (n *Node) Chain() *chain.BeaconChain { return n.chain }

// BlockProcessor returns the node's block processor.
func (n *Node) BlockProcessor() *blocksync.BlockProcessor { return n.processor }

// SyncChannel returns the channel the block processor reports on.
func (n *Node) SyncChannel() *blocksync.SyncChannel { return n.syncCh }

// PublishTopic returns the topic msg is published on under the node's fork
// digest and encoding, along with the encoded payload.
func (n *Node) PublishTopic(msg gossip.Message) (string, []byte, error) {
	payload, err := gossip.EncodeMessage(msg, n.encoding)
	if err != nil {
		return "", nil, err
	}
	return gossip.TopicFor(msg, n.digest, n.encoding).String(), payload, nil
}

// ImportBatch imports blocks as range batch id and returns its result. It
// consumes the sync channel and must not be used alongside another
// consumer.
func (n *Node) ImportBatch(ctx context.Context, id blocksync.BatchID, blocks []*types.SignedBeaconBlock) (*blocksync.BatchProcessed, error) {
	if !n.IsRunning() {
		return nil, ErrNodeNotRunning
	}
	if err := n.processor.Process(ctx, blocksync.RangeBatchID{BatchID: id}, blocks); err != nil {
		return nil, err
	}

	for {
		select {
		case msg, ok := <-n.syncCh.Out():
			if !ok {
				return nil, ErrNoResult
			}
			if res, ok := msg.(*blocksync.BatchProcessed); ok && res.BatchID == id {
				return res, nil
			}
			n.logger.Debug("discarding unrelated sync message", "msg", fmt.Sprintf("%T", msg))
		default:
			return nil, ErrNoResult
		}
	}
}

// ImportParentChain imports the ancestry of a block, newest first, as
// supplied by from. Like ImportBatch it consumes the sync channel.
func (n *Node) ImportParentChain(ctx context.Context, from peer.ID, blocks []*types.SignedBeaconBlock) error {
	if !n.IsRunning() {
		return ErrNodeNotRunning
	}
	if err := n.processor.Process(ctx, blocksync.ParentLookupID{PeerID: from}, blocks); err != nil {
		return err
	}

	for {
		select {
		case msg, ok := <-n.syncCh.Out():
			if !ok {
				return ErrNoResult
			}
			if res, ok := msg.(*blocksync.ParentLookupFailed); ok && res.PeerID == from {
				return fmt.Errorf("%w: blocks from %s", ErrParentLookupFailed, from)
			}
			n.logger.Debug("discarding unrelated sync message", "msg", fmt.Sprintf("%T", msg))
		default:
			return nil
		}
	}
}

func combineCloseError(err error, closer func() error) error {
	if cerr := closer(); cerr != nil {
		return fmt.Errorf("%w (also failed to close: %v)", err, cerr)
	}
	return err
}
