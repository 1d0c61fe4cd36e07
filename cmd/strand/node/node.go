// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/strandchain/strand/co"
	"github.com/strandchain/strand/consensus"
	"github.com/strandchain/strand/log"
	"github.com/strandchain/strand/metrics"
	"github.com/strandchain/strand/pos"
	"github.com/strandchain/strand/strand"
)

var logger = log.WithContext("pkg", "node")

var (
	metricBlockProducedCount = metrics.LazyLoadCounter("node_block_produced_count")
	metricBlockDeferredCount = metrics.LazyLoadCounter("node_block_deferred_count")
)

// Options tunes the production loop.
type Options struct {
	// BlockReward credited to the producer per block. Defaults to
	// strand.InitialBlockReward when nil.
	BlockReward *big.Int

	// TargetBlockSize the size, in bytes, proposed blocks are packed to.
	TargetBlockSize uint64
}

// Node drives block production: every block interval it picks the next
// producer by stake weight, passes the proposal through admission and
// credits the producer.
type Node struct {
	cons    *consensus.Coordinator
	options Options
	goes    co.Goes
}

func New(cons *consensus.Coordinator, options Options) *Node {
	if options.BlockReward == nil {
		options.BlockReward = strand.InitialBlockReward
	}
	if options.TargetBlockSize == 0 {
		options.TargetBlockSize = cons.Limits().MaxBlockSize / 2
	}
	return &Node{
		cons:    cons,
		options: options,
	}
}

// Run blocks until ctx is done, then waits for all loops to drain.
func (n *Node) Run(ctx context.Context) error {
	n.goes.Go(func() { n.produceLoop(ctx) })
	n.goes.Go(func() { n.houseKeeping(ctx) })
	n.goes.Wait()
	return nil
}

func (n *Node) produceLoop(ctx context.Context) {
	logger.Info("production loop started", "interval", n.cons.Limits().MinBlockInterval)
	defer logger.Info("production loop stopped")

	ticker := time.NewTicker(n.cons.Limits().MinBlockInterval)
	defer ticker.Stop()

	setChange := n.cons.SetChangeWaiter()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.produceBlock()
		case <-setChange.C():
			// a validator just joined or left; the interval gate still
			// decides whether a block may be produced right away
			n.produceBlock()
		}
	}
}

func (n *Node) produceBlock() {
	producer, err := n.cons.SelectNextProducer()
	if err != nil {
		if errors.Is(err, pos.ErrNoEligibleValidators) {
			logger.Debug("no eligible validators, waiting")
			return
		}
		logger.Error("producer selection failed", "err", err)
		return
	}

	if !n.cons.AdmitBlock(producer, n.options.TargetBlockSize) {
		metricBlockDeferredCount().Add(1)
		logger.Debug("block deferred by admission", "producer", producer)
		return
	}

	n.cons.OnBlockProduced(producer, n.options.BlockReward)
	metricBlockProducedCount().Add(1)
	logger.Info("📦 block produced", "producer", producer, "reward", n.options.BlockReward)
}
