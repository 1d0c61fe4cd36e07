// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import "github.com/pkg/errors"

var (
	// ErrInsufficientStake stake update rejected because it is below the
	// network minimum. Recoverable: retry with a larger stake.
	ErrInsufficientStake = errors.New("stake below network minimum")

	// ErrNegativeStake a negative stake is a contract violation at the
	// boundary, never a normal rejection.
	ErrNegativeStake = errors.New("stake must not be negative")
)
