// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package consensus

import (
	"math/big"

	"github.com/strandchain/strand/co"
	"github.com/strandchain/strand/log"
	"github.com/strandchain/strand/pos"
	"github.com/strandchain/strand/ratelimit"
	"github.com/strandchain/strand/staker"
	"github.com/strandchain/strand/strand"
)

var logger = log.WithContext("pkg", "consensus")

// Coordinator is the single entry point for block production and networking
// collaborators: who produces next, whether a block or request is admitted,
// and the stake-management passthroughs.
//
// It is the sole authority over its registry and limiter; collaborators must
// not mutate them directly. Construct one per process and share the handle.
type Coordinator struct {
	registry *staker.Registry
	selector *pos.Selector
	limiter  *ratelimit.Limiter

	setChange co.Signal
}

// New creates a Coordinator over the given parts. All three must be non-nil;
// ownership of registry and limiter transfers to the coordinator.
func New(registry *staker.Registry, selector *pos.Selector, limiter *ratelimit.Limiter) *Coordinator {
	c := &Coordinator{
		registry: registry,
		selector: selector,
		limiter:  limiter,
	}
	return c
}

// SelectNextProducer picks the next block producer by stake weight.
// pos.ErrNoEligibleValidators tells the production loop to wait and retry.
func (c *Coordinator) SelectNextProducer() (strand.Address, error) {
	return c.selector.Pick()
}

// AdmitBlock decides whether producer may produce a block of the given size
// now. The producer must be an active validator before the block gate is
// consulted, so an ineligible producer can never consume the interval gate.
func (c *Coordinator) AdmitBlock(producer strand.Address, sizeBytes uint64) bool {
	if !c.registry.IsActiveValidator(producer) {
		logger.Warn("block denied, producer not active", "addr", producer)
		return false
	}
	return c.limiter.CanCreateBlock(sizeBytes)
}

// AdmitTransaction decides admission of a transaction. Any address may
// transact; the sender need not be a validator.
func (c *Coordinator) AdmitTransaction(addr strand.Address, sizeBytes uint64) bool {
	return c.limiter.CanSubmitTransaction(addr, sizeBytes)
}

// OnBlockProduced credits the producer after a block was actually produced.
func (c *Coordinator) OnBlockProduced(addr strand.Address, reward *big.Int) {
	c.registry.RecordBlock(addr, reward)
}

// CanAcceptPeer reserves a peer slot for ip. Every acquired slot must pair
// with a ReleasePeer on all exit paths of the connection's lifetime.
func (c *Coordinator) CanAcceptPeer(ip string) bool {
	return c.limiter.CanAcceptPeer(ip)
}

// ReleasePeer returns ip's peer slot.
func (c *Coordinator) ReleasePeer(ip string) {
	c.limiter.ReleasePeer(ip)
}

// CanMakeAPIRequest decides admission of an API request from ip.
func (c *Coordinator) CanMakeAPIRequest(ip string) bool {
	return c.limiter.CanMakeAPIRequest(ip)
}

// AddOrUpdateValidator stores a stake deposit and re-derives the validator's
// status, keeping the active-set invariant after the mutation.
func (c *Coordinator) AddOrUpdateValidator(addr strand.Address, stake *big.Int) (bool, error) {
	ok, err := c.registry.AddOrUpdate(addr, stake)
	if ok {
		c.registry.RecomputeStatus(addr)
		c.setChange.Broadcast()
	}
	return ok, err
}

// RemoveValidator detaches addr from the selection pool.
func (c *Coordinator) RemoveValidator(addr strand.Address) bool {
	removed := c.registry.Remove(addr)
	if removed {
		c.setChange.Broadcast()
	}
	return removed
}

// StakeOf returns addr's stake, zero when unknown.
func (c *Coordinator) StakeOf(addr strand.Address) *big.Int {
	return c.registry.StakeOf(addr)
}

// IsActiveValidator reports whether addr is registered and active.
func (c *Coordinator) IsActiveValidator(addr strand.Address) bool {
	return c.registry.IsActiveValidator(addr)
}

// ActiveValidators returns the stake-ordered active set snapshot.
func (c *Coordinator) ActiveValidators() []*staker.Validator {
	return c.registry.ActiveValidatorsByStake()
}

// SetChangeWaiter returns a waiter woken whenever the validator set changes
// through the coordinator. The production loop selects on it to retry
// immediately after the first validator registers.
func (c *Coordinator) SetChangeWaiter() co.Waiter {
	return c.setChange.NewWaiter()
}

// Limits returns the admission config snapshot.
func (c *Coordinator) Limits() ratelimit.Config {
	return c.limiter.Config()
}
