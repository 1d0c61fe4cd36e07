// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package strand

import "math/big"

// Constants of the chain.
const (
	// BlockInterval time interval between two consecutive blocks, in seconds.
	BlockInterval uint64 = 10

	// MaxValidators upper bound of the validator set size.
	MaxValidators uint64 = 101
)

// InitialMinimumStake the genesis default for the minimum stake required to
// register as a validator. Hosts override it from their genesis config.
var InitialMinimumStake = new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18))

// InitialBlockReward the genesis default reward credited for each produced
// block.
var InitialBlockReward = new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18))
