// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common"

	"github.com/strandchain/strand/strand"
)

const (
	clockCheckInterval = 30 * time.Minute
	memCheckInterval   = 10 * time.Minute
)

// houseKeeping runs the periodic environment checks. A skewed clock makes
// the node produce blocks ahead of or behind the rest of the network, and
// memory pressure is an early sign the host is undersized.
func (n *Node) houseKeeping(ctx context.Context) {
	logger.Debug("housekeeping started")
	defer logger.Debug("housekeeping stopped")

	clockTicker := time.NewTicker(clockCheckInterval)
	defer clockTicker.Stop()
	memTicker := time.NewTicker(memCheckInterval)
	defer memTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-clockTicker.C:
			checkClockOffset()
		case <-memTicker.C:
			checkMemPressure()
		}
	}
}

func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if resp.ClockOffset > time.Duration(strand.BlockInterval)*time.Second/2 {
		logger.Warn("clock offset detected", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}

func checkMemPressure() {
	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Debug("failed to get mem stats", "err", err)
		return
	}
	if mem.ActualFree < mem.Total/10 {
		logger.Warn("low system memory",
			"freeMB", mem.ActualFree/1024/1024,
			"totalMB", mem.Total/1024/1024)
	}
}
