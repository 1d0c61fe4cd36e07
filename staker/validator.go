// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"time"

	"github.com/strandchain/strand/strand"
)

// Status of a validator, determines selection eligibility.
type Status uint8

const (
	// StatusActive the validator is eligible to produce blocks.
	StatusActive Status = iota
	// StatusInactive stake dropped below the network minimum.
	StatusInactive
	// StatusJailed the validator was slashed and is excluded until rehabilitated.
	StatusJailed
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	case StatusJailed:
		return "jailed"
	default:
		return "unknown"
	}
}

// Validator holds the stake and production bookkeeping of one registered
// address. The address is immutable once created; everything else mutates
// through Registry operations only.
type Validator struct {
	Address       strand.Address
	Stake         *big.Int
	Status        Status
	LastBlockTime time.Time
	TotalBlocks   uint64
	RewardsEarned *big.Int
}

// Clone returns a deep copy, detached from registry-internal state.
func (v *Validator) Clone() *Validator {
	cpy := *v
	cpy.Stake = new(big.Int).Set(v.Stake)
	cpy.RewardsEarned = new(big.Int).Set(v.RewardsEarned)
	return &cpy
}
