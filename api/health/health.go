// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"math/big"

	"github.com/strandchain/strand/staker"
)

// Node is the view of the validator core the health check needs.
type Node interface {
	ActiveValidators() []*staker.Validator
}

// Status is the liveness summary served to operators.
type Status struct {
	Healthy          bool     `json:"healthy"`
	ActiveValidators int      `json:"activeValidators"`
	TotalStake       *big.Int `json:"totalStake"`
}

// Health summarizes the validator core's ability to produce blocks.
type Health struct {
	node Node
}

func New(node Node) *Health {
	return &Health{node: node}
}

// Status reports healthy iff at least one validator is eligible with positive
// total stake, i.e. selection cannot fail with an empty wheel.
func (h *Health) Status() *Status {
	active := h.node.ActiveValidators()
	total := new(big.Int)
	for _, v := range active {
		total.Add(total, v.Stake)
	}
	return &Status{
		Healthy:          len(active) > 0 && total.Sign() > 0,
		ActiveValidators: len(active),
		TotalStake:       total,
	}
}
