package blocksync

import (
	"github.com/beaconkit/beacond/internal/chain"
	"github.com/beaconkit/beacond/libs/log"
)

// runForkChoice re-evaluates the head after new blocks were imported. A
// failure does not undo the import, so it is only logged.
func runForkChoice(c chain.Chain, logger log.Logger, metrics *Metrics) {
	if err := c.ForkChoice(); err != nil {
		metrics.ForkChoiceRuns.With("failed", "true").Add(1)
		logger.Error("fork choice failed", "err", err, "location", "batch import")
		return
	}
	metrics.ForkChoiceRuns.With("failed", "false").Add(1)
	logger.Debug("fork choice success", "location", "batch processing")
}
