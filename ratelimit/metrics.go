// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ratelimit

import "github.com/strandchain/strand/metrics"

var (
	metricAdmitted = metrics.LazyLoad(func() metrics.CountVecMeter {
		return metrics.CounterVec("ratelimit_admitted_count", []string{"kind"})
	})
	metricRejected = metrics.LazyLoad(func() metrics.CountVecMeter {
		return metrics.CounterVec("ratelimit_rejected_count", []string{"kind", "reason"})
	})
	metricOpenPeers = metrics.LazyLoad(func() metrics.GaugeMeter {
		return metrics.Gauge("ratelimit_open_peer_count")
	})
)
