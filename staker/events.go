// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/ethereum/go-ethereum/event"

	"github.com/strandchain/strand/strand"
)

// EventType kind of validator-set change.
type EventType uint8

const (
	EventAdded EventType = iota
	EventUpdated
	EventRemoved
	EventStatusChanged
)

func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventUpdated:
		return "updated"
	case EventRemoved:
		return "removed"
	case EventStatusChanged:
		return "status_changed"
	default:
		return "unknown"
	}
}

// Event is posted on every validator-set change, so networking collaborators
// can track the set without polling.
type Event struct {
	Type    EventType
	Address strand.Address
	Stake   *big.Int
	Status  Status
}

// SubscribeSetChange subscribes ch to validator-set change events.
func (r *Registry) SubscribeSetChange(ch chan *Event) event.Subscription {
	return r.scope.Track(r.feed.Subscribe(ch))
}

// Close unsubscribes all subscribers and waits for in-flight event delivery.
// The registry remains usable; only the event delivery stops.
func (r *Registry) Close() {
	r.scope.Close()
	r.goes.Wait()
}

// postLocked delivers asynchronously so a slow subscriber never blocks a
// registry mutation.
func (r *Registry) postLocked(ev Event) {
	r.goes.Go(func() {
		r.feed.Send(&ev)
	})
}
