package commands

import (
	"errors"
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/spf13/cobra"

	"github.com/beaconkit/beacond/config"
	"github.com/beaconkit/beacond/internal/blocksync"
	"github.com/beaconkit/beacond/internal/gossip"
	"github.com/beaconkit/beacond/libs/log"
	libos "github.com/beaconkit/beacond/libs/os"
	"github.com/beaconkit/beacond/node"
	"github.com/beaconkit/beacond/types"
)

const (
	peerFlag    = "peer"
	batchIDFlag = "batch-id"
)

// ErrBatchFailed is returned by the import command when the chain rejects
// the batch.
var ErrBatchFailed = errors.New("batch import failed")

type importResult struct {
	Mode     string     `json:"mode"`
	BatchID  *uint64    `json:"batch_id,omitempty"`
	Peer     string     `json:"peer,omitempty"`
	Blocks   int        `json:"blocks"`
	Result   string     `json:"result"`
	Error    string     `json:"error,omitempty"`
	HeadRoot types.Root `json:"head_root"`
	HeadSlot types.Slot `json:"head_slot"`
}

// MakeImportCommand constructs a command that imports SSZ encoded signed
// blocks into the node's block store.
//
// Without --peer the files are one range batch in ascending slot order.
// With --peer they are the ancestry of a block, newest first, as returned by
// a parent lookup against that peer.
func MakeImportCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	var (
		peerID   string
		encoding string
		batchID  uint64
	)

	cmd := &cobra.Command{
		Use:   "import [--peer <peer-id>] <block-file>...",
		Short: "Import blocks through the block processor",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var from peer.ID
			if peerID != "" {
				id, err := peer.Decode(peerID)
				if err != nil {
					return fmt.Errorf("invalid --%s: %w", peerFlag, err)
				}
				from = id
			}

			blocks, err := readBlockFiles(conf, encoding, args)
			if err != nil {
				return err
			}

			n, err := node.New(conf, logger)
			if err != nil {
				return err
			}
			if err := n.Start(cmd.Context()); err != nil {
				return err
			}
			libos.TrapSignal(logger, func() {
				if n.IsRunning() {
					_ = n.Stop()
				}
			})
			defer func() {
				if n.IsRunning() {
					if err := n.Stop(); err != nil {
						logger.Error("failed to stop node", "err", err)
					}
				}
			}()

			res := importResult{Blocks: len(blocks)}
			var importErr error
			if from == "" {
				res.Mode = "range_batch"
				res.BatchID = &batchID
				processed, err := n.ImportBatch(cmd.Context(), blocksync.BatchID(batchID), blocks)
				if err != nil {
					return err
				}
				res.Result = processed.Result.String()
				if processed.Err != nil {
					res.Error = processed.Err.Error()
				}
				if processed.Result != blocksync.BatchSuccess {
					importErr = fmt.Errorf("%w: %v", ErrBatchFailed, processed.Err)
				}
			} else {
				res.Mode = "parent_lookup"
				res.Peer = from.String()
				res.Result = blocksync.BatchSuccess.String()
				if err := n.ImportParentChain(cmd.Context(), from, blocks); err != nil {
					if !errors.Is(err, node.ErrParentLookupFailed) {
						return err
					}
					res.Result = blocksync.BatchFailed.String()
					res.Error = err.Error()
					importErr = err
				}
			}

			res.HeadRoot, res.HeadSlot = n.Chain().Head()
			if err := printJSON(cmd, res); err != nil {
				return err
			}
			return importErr
		},
	}

	cmd.Flags().StringVar(&peerID, peerFlag, "", "import as the parent chain fetched from this peer")
	cmd.Flags().StringVar(&encoding, encodingFlag, string(gossip.EncodingSSZ), "encoding of the block files: ssz | ssz_snappy")
	cmd.Flags().Uint64Var(&batchID, batchIDFlag, 0, "id of the range batch")

	return cmd
}

// readBlockFiles decodes each file as a beacon_block gossip payload.
func readBlockFiles(conf *config.Config, encoding string, files []string) ([]*types.SignedBeaconBlock, error) {
	enc, err := gossip.ParseEncoding(encoding)
	if err != nil {
		return nil, err
	}
	digest, err := conf.Gossip.Digest()
	if err != nil {
		return nil, err
	}
	topic := gossip.NewTopic(digest, gossip.KindBeaconBlock, enc).String()

	blocks := make([]*types.SignedBeaconBlock, 0, len(files))
	for _, file := range files {
		payload, err := libos.ReadFileLimited(file, maxPayloadFileSize)
		if err != nil {
			return nil, err
		}
		msg, err := gossip.DecodeMessage([]string{topic}, payload)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", file, err)
		}
		blocks = append(blocks, msg.(*gossip.BeaconBlockMessage).Block)
	}
	return blocks, nil
}
