// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"

	"github.com/strandchain/strand/co"
	"github.com/strandchain/strand/log"
	"github.com/strandchain/strand/metrics"
	"github.com/strandchain/strand/strand"
)

var (
	logger = log.WithContext("pkg", "staker")

	metricValidators = metrics.LazyLoad(func() metrics.GaugeVecMeter {
		return metrics.GaugeVec("staker_validator_count", []string{"status"})
	})
)

// Registry is the source of truth for validator stake and status.
//
// The minimum stake is fixed at construction from genesis config. Every entry
// with StatusActive holds at least the minimum; the registry refuses inserts
// below it, and RecomputeStatus demotes entries whose stake later drops under
// it. Reads return detached copies.
type Registry struct {
	mu           sync.RWMutex
	validators   map[strand.Address]*Validator
	order        []strand.Address // insertion order, the tie-break for ActiveValidatorsByStake
	minimumStake *big.Int

	feed  event.Feed
	scope event.SubscriptionScope
	goes  co.Goes
}

// NewRegistry creates a registry enforcing the given minimum stake.
// A nil or non-positive minimum falls back to the genesis default.
func NewRegistry(minimumStake *big.Int) *Registry {
	if minimumStake == nil || minimumStake.Sign() <= 0 {
		minimumStake = strand.InitialMinimumStake
	}
	return &Registry{
		validators:   make(map[strand.Address]*Validator),
		minimumStake: new(big.Int).Set(minimumStake),
	}
}

// MinimumStake returns the process-wide minimum stake threshold.
func (r *Registry) MinimumStake() *big.Int {
	return new(big.Int).Set(r.minimumStake)
}

// AddOrUpdate registers addr with the given stake, or replaces the stake of
// an existing entry in place. It returns false with ErrInsufficientStake for
// stakes below the minimum, leaving the registry unchanged. A negative stake
// is a contract violation and returns ErrNegativeStake.
func (r *Registry) AddOrUpdate(addr strand.Address, stake *big.Int) (bool, error) {
	if stake == nil || stake.Sign() < 0 {
		return false, ErrNegativeStake
	}
	if stake.Cmp(r.minimumStake) < 0 {
		logger.Info("stake update rejected", "addr", addr, "stake", stake, "min", r.minimumStake)
		return false, ErrInsufficientStake
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.validators[addr]; ok {
		v.Stake = new(big.Int).Set(stake)
		logger.Info("validator stake updated", "addr", addr, "stake", stake, "status", v.Status)
		r.postLocked(Event{Type: EventUpdated, Address: addr, Stake: new(big.Int).Set(stake), Status: v.Status})
		return true, nil
	}

	r.validators[addr] = &Validator{
		Address:       addr,
		Stake:         new(big.Int).Set(stake),
		Status:        StatusActive,
		RewardsEarned: new(big.Int),
	}
	r.order = append(r.order, addr)
	logger.Info("validator registered", "addr", addr, "stake", stake)
	r.postLocked(Event{Type: EventAdded, Address: addr, Stake: new(big.Int).Set(stake), Status: StatusActive})
	r.updateMetricsLocked()
	return true, nil
}

// Remove detaches addr from the selection pool. Blocks already attributed to
// addr stay attributed. Returns false if the address is unknown.
func (r *Registry) Remove(addr strand.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.validators[addr]
	if !ok {
		return false
	}
	delete(r.validators, addr)
	if i := slices.Index(r.order, addr); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	logger.Info("validator removed", "addr", addr, "stake", v.Stake)
	r.postLocked(Event{Type: EventRemoved, Address: addr, Stake: new(big.Int).Set(v.Stake), Status: v.Status})
	r.updateMetricsLocked()
	return true
}

// IsActiveValidator returns true iff addr is registered and active.
func (r *Registry) IsActiveValidator(addr strand.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.validators[addr]
	return ok && v.Status == StatusActive
}

// StakeOf returns the stake of addr, zero for unknown addresses. Absence is a
// valid "no stake" state, never an error.
func (r *Registry) StakeOf(addr strand.Address) *big.Int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if v, ok := r.validators[addr]; ok {
		return new(big.Int).Set(v.Stake)
	}
	return new(big.Int)
}

// Get returns a copy of the validator entry, or nil if unknown.
func (r *Registry) Get(addr strand.Address) *Validator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if v, ok := r.validators[addr]; ok {
		return v.Clone()
	}
	return nil
}

// Len returns the number of registered validators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.validators)
}

// RecordBlock credits addr with a produced block. Unknown addresses are a
// silent no-op to tolerate the race with removal.
func (r *Registry) RecordBlock(addr strand.Address, reward *big.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.validators[addr]
	if !ok {
		logger.Debug("block record for unknown validator", "addr", addr)
		return
	}
	v.LastBlockTime = time.Now()
	v.TotalBlocks++
	if reward != nil {
		v.RewardsEarned.Add(v.RewardsEarned, reward)
	}
	logger.Debug("block recorded", "addr", addr, "total", v.TotalBlocks, "reward", reward)
}

// ActiveValidatorsByStake returns copies of all active validators sorted by
// stake descending, ties broken by insertion order. The slice is the
// selector's roulette wheel; determinism of the tie-break keeps selection
// reproducible for a fixed random draw.
func (r *Registry) ActiveValidatorsByStake() []*Validator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]*Validator, 0, len(r.order))
	for _, addr := range r.order {
		if v := r.validators[addr]; v.Status == StatusActive {
			active = append(active, v.Clone())
		}
	}
	slices.SortStableFunc(active, func(a, b *Validator) int {
		return b.Stake.Cmp(a.Stake)
	})
	return active
}

// Jail marks addr slashed, excluding it from selection until rehabilitated.
// Returns false if the address is unknown.
func (r *Registry) Jail(addr strand.Address) bool {
	return r.setStatus(addr, func(v *Validator) Status { return StatusJailed })
}

// Rehabilitate releases addr from jail. It becomes active again only if its
// stake still meets the minimum, inactive otherwise. Returns false if the
// address is unknown or not jailed.
func (r *Registry) Rehabilitate(addr strand.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.validators[addr]
	if !ok || v.Status != StatusJailed {
		return false
	}
	r.applyStatusLocked(v, r.eligibleStatus(v))
	return true
}

// RecomputeStatus re-derives the status of addr from its current stake:
// active entries under the minimum demote to inactive, inactive entries at or
// above it promote back to active. Jailed entries never change here. Callers
// that mutate stake through external unstake paths must invoke this to keep
// the active-set invariant.
func (r *Registry) RecomputeStatus(addr strand.Address) (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.validators[addr]
	if !ok {
		return 0, false
	}
	if v.Status != StatusJailed {
		r.applyStatusLocked(v, r.eligibleStatus(v))
	}
	return v.Status, true
}

func (r *Registry) eligibleStatus(v *Validator) Status {
	if v.Stake.Cmp(r.minimumStake) >= 0 {
		return StatusActive
	}
	return StatusInactive
}

func (r *Registry) setStatus(addr strand.Address, next func(*Validator) Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.validators[addr]
	if !ok {
		return false
	}
	r.applyStatusLocked(v, next(v))
	return true
}

func (r *Registry) applyStatusLocked(v *Validator, next Status) {
	if v.Status == next {
		return
	}
	prev := v.Status
	v.Status = next
	logger.Info("validator status changed", "addr", v.Address, "from", prev, "to", next)
	r.postLocked(Event{Type: EventStatusChanged, Address: v.Address, Stake: new(big.Int).Set(v.Stake), Status: next})
	r.updateMetricsLocked()
}

func (r *Registry) updateMetricsLocked() {
	counts := make(map[Status]int64, 3)
	for _, v := range r.validators {
		counts[v.Status]++
	}
	for _, s := range []Status{StatusActive, StatusInactive, StatusJailed} {
		metricValidators().SetWithLabel(counts[s], map[string]string{"status": s.String()})
	}
}
