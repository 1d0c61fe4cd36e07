// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ratelimit

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/mclock"
	lru "github.com/hashicorp/golang-lru"

	"github.com/strandchain/strand/log"
	"github.com/strandchain/strand/strand"
)

var logger = log.WithContext("pkg", "ratelimit")

// windowCacheSize bounds the number of tracked keys per family. Windows of
// keys idle long enough to be evicted are empty after pruning anyway, so
// eviction cannot be used to bypass a limit at realistic request rates.
const windowCacheSize = 65536

// Limiter is the admission gate for transactions, blocks, peer connections
// and API requests. The four families are independent namespaces: exhausting
// one limit never touches the counters of another.
//
// Each check is linearizable per key. Blocks are gated on a single global
// scalar, so all block checks serialize process-wide.
type Limiter struct {
	config Config
	clock  mclock.Clock

	txMu      sync.Mutex
	txWindows *lru.Cache // address -> *window

	blockMu       sync.Mutex
	blockGated    bool
	lastBlockTime mclock.AbsTime

	peerMu    sync.Mutex
	openPeers map[string]int
	totalOpen int

	apiMu      sync.Mutex
	apiWindows *lru.Cache // ip -> *window
}

// New creates a Limiter with the given config, ticking on the wall clock.
func New(config Config) (*Limiter, error) {
	return NewWithClock(config, mclock.System{})
}

// NewWithClock creates a Limiter with an injected clock. Tests pass
// mclock.Simulated to drive the sliding windows deterministically.
func NewWithClock(config Config, clock mclock.Clock) (*Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	txWindows, _ := lru.New(windowCacheSize)
	apiWindows, _ := lru.New(windowCacheSize)
	return &Limiter{
		config:     config,
		clock:      clock,
		txWindows:  txWindows,
		openPeers:  make(map[string]int),
		apiWindows: apiWindows,
	}, nil
}

// Config returns the config snapshot the limiter was built with.
func (l *Limiter) Config() Config {
	return l.config
}

// CanSubmitTransaction decides admission of a transaction from the given
// sender. On acceptance the submission is recorded against the sender's
// 1-second sliding window.
func (l *Limiter) CanSubmitTransaction(addr strand.Address, sizeBytes uint64) bool {
	if sizeBytes > l.config.MaxTxSizeBytes {
		logger.Debug("tx rejected", "addr", addr, "size", sizeBytes, "max", l.config.MaxTxSizeBytes, "reason", "size")
		metricRejected().AddWithLabel(1, map[string]string{"kind": "tx", "reason": "size"})
		return false
	}

	l.txMu.Lock()
	defer l.txMu.Unlock()

	now := l.clock.Now()
	w := l.getWindow(l.txWindows, addr.String())
	w.prune(now.Add(-time.Second))

	if w.len() >= l.config.MaxTxPerSecond {
		logger.Debug("tx rejected", "addr", addr, "count", w.len(), "max", l.config.MaxTxPerSecond, "reason", "rate")
		metricRejected().AddWithLabel(1, map[string]string{"kind": "tx", "reason": "rate"})
		return false
	}

	w.record(now)
	metricAdmitted().AddWithLabel(1, map[string]string{"kind": "tx"})
	return true
}

// CanCreateBlock decides whether a block may be produced now. On acceptance
// the global last-block time advances as a side effect of the check, so
// callers must gate exactly once per production attempt, immediately before
// producing.
func (l *Limiter) CanCreateBlock(sizeBytes uint64) bool {
	l.blockMu.Lock()
	defer l.blockMu.Unlock()

	now := l.clock.Now()
	if l.blockGated {
		if elapsed := time.Duration(now - l.lastBlockTime); elapsed < l.config.MinBlockInterval {
			logger.Debug("block rejected", "elapsed", elapsed, "min", l.config.MinBlockInterval, "reason", "interval")
			metricRejected().AddWithLabel(1, map[string]string{"kind": "block", "reason": "interval"})
			return false
		}
	}
	if sizeBytes > l.config.MaxBlockSize {
		logger.Debug("block rejected", "size", sizeBytes, "max", l.config.MaxBlockSize, "reason", "size")
		metricRejected().AddWithLabel(1, map[string]string{"kind": "block", "reason": "size"})
		return false
	}

	l.blockGated = true
	l.lastBlockTime = now
	metricAdmitted().AddWithLabel(1, map[string]string{"kind": "block"})
	return true
}

// CanAcceptPeer decides admission of an inbound connection from ip. On
// acceptance the ip's open-connection count is incremented; the caller owns a
// peer slot and must pair it with ReleasePeer on every exit path of the
// connection's lifetime.
func (l *Limiter) CanAcceptPeer(ip string) bool {
	l.peerMu.Lock()
	defer l.peerMu.Unlock()

	if l.totalOpen >= l.config.MaxPeers {
		logger.Debug("peer rejected", "ip", ip, "open", l.totalOpen, "max", l.config.MaxPeers, "reason", "capacity")
		metricRejected().AddWithLabel(1, map[string]string{"kind": "peer", "reason": "capacity"})
		return false
	}
	if l.openPeers[ip] >= l.config.MaxConnectionsPerIP {
		logger.Debug("peer rejected", "ip", ip, "open", l.openPeers[ip], "max", l.config.MaxConnectionsPerIP, "reason", "per_ip")
		metricRejected().AddWithLabel(1, map[string]string{"kind": "peer", "reason": "per_ip"})
		return false
	}

	l.openPeers[ip]++
	l.totalOpen++
	metricAdmitted().AddWithLabel(1, map[string]string{"kind": "peer"})
	metricOpenPeers().Set(int64(l.totalOpen))
	return true
}

// ReleasePeer returns the peer slot held by ip. Counts never go negative, so
// spurious releases are harmless.
func (l *Limiter) ReleasePeer(ip string) {
	l.peerMu.Lock()
	defer l.peerMu.Unlock()

	if l.openPeers[ip] > 0 {
		l.openPeers[ip]--
		l.totalOpen--
		if l.openPeers[ip] == 0 {
			delete(l.openPeers, ip)
		}
	}
	metricOpenPeers().Set(int64(l.totalOpen))
}

// OpenPeerCount returns the number of currently held peer slots.
func (l *Limiter) OpenPeerCount() int {
	l.peerMu.Lock()
	defer l.peerMu.Unlock()
	return l.totalOpen
}

// CanMakeAPIRequest decides admission of an API request from ip against both
// the trailing minute and the trailing hour. On acceptance the request is
// recorded.
func (l *Limiter) CanMakeAPIRequest(ip string) bool {
	l.apiMu.Lock()
	defer l.apiMu.Unlock()

	now := l.clock.Now()
	w := l.getWindow(l.apiWindows, ip)
	w.prune(now.Add(-time.Hour))

	if minuteCount := w.countSince(now.Add(-time.Minute)); minuteCount >= l.config.MaxRequestsPerMinute {
		logger.Debug("api request rejected", "ip", ip, "count", minuteCount, "max", l.config.MaxRequestsPerMinute, "reason", "minute")
		metricRejected().AddWithLabel(1, map[string]string{"kind": "api", "reason": "minute"})
		return false
	}
	if w.len() >= l.config.MaxRequestsPerHour {
		logger.Debug("api request rejected", "ip", ip, "count", w.len(), "max", l.config.MaxRequestsPerHour, "reason", "hour")
		metricRejected().AddWithLabel(1, map[string]string{"kind": "api", "reason": "hour"})
		return false
	}

	w.record(now)
	metricAdmitted().AddWithLabel(1, map[string]string{"kind": "api"})
	return true
}

func (l *Limiter) getWindow(cache *lru.Cache, key string) *window {
	if v, ok := cache.Get(key); ok {
		return v.(*window)
	}
	w := &window{}
	cache.Add(key, w)
	return w
}

// window is a pruned-on-read sequence of event timestamps, oldest first.
type window struct {
	stamps []mclock.AbsTime
}

func (w *window) record(t mclock.AbsTime) {
	w.stamps = append(w.stamps, t)
}

func (w *window) len() int {
	return len(w.stamps)
}

// prune drops stamps strictly older than cutoff.
func (w *window) prune(cutoff mclock.AbsTime) {
	i := 0
	for i < len(w.stamps) && w.stamps[i] < cutoff {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

// countSince counts stamps at or after cutoff. Stamps are recorded in order,
// so walk back from the newest.
func (w *window) countSince(cutoff mclock.AbsTime) int {
	n := 0
	for i := len(w.stamps) - 1; i >= 0; i-- {
		if w.stamps[i] < cutoff {
			break
		}
		n++
	}
	return n
}
