// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/strandchain/strand/log"
	"github.com/strandchain/strand/metrics"
	"github.com/strandchain/strand/staker"
	"github.com/strandchain/strand/strand"
)

var (
	logger = log.WithContext("pkg", "pos")

	// ErrNoEligibleValidators selection attempted with zero active validators
	// or zero total stake. The production loop should wait and retry.
	ErrNoEligibleValidators = errors.New("no eligible validators")

	metricSelections = metrics.LazyLoad(func() metrics.CountVecMeter {
		return metrics.CounterVec("pos_selection_count", []string{"result"})
	})
)

// ValidatorReader is the view of the registry the selector needs.
type ValidatorReader interface {
	ActiveValidatorsByStake() []*staker.Validator
}

// Selector picks the next block producer with probability proportional to
// stake share among active validators (roulette-wheel selection).
//
// The draw is a liveness/fairness mechanism, not a consensus-security one, so
// a plain uniform PRNG is used. Hosts that need every node to agree on the
// draw seed the selector from a parent block hash via SeededSource.
type Selector struct {
	reader ValidatorReader

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSelector creates a selector with a time-seeded source.
func NewSelector(reader ValidatorReader) *Selector {
	return NewSelectorWithSource(reader, rand.NewSource(time.Now().UnixNano()))
}

// NewSelectorWithSource creates a selector drawing from src. Tests inject a
// fixed seed to assert exact selection sequences.
func NewSelectorWithSource(reader ValidatorReader, src rand.Source) *Selector {
	return &Selector{
		reader: reader,
		rnd:    rand.New(src),
	}
}

// Pick selects the next producer. The active set is walked in descending
// stake order so the highest-stake validators are reached first in the
// accumulation; the walk is O(n), fine at realistic validator-set sizes.
func (s *Selector) Pick() (strand.Address, error) {
	active := s.reader.ActiveValidatorsByStake()
	if len(active) == 0 {
		metricSelections().AddWithLabel(1, map[string]string{"result": "none"})
		return strand.Address{}, ErrNoEligibleValidators
	}

	totalStake := new(big.Int)
	for _, v := range active {
		totalStake.Add(totalStake, v.Stake)
	}
	// guards the degenerate all-zero-stake set
	if totalStake.Sign() == 0 {
		metricSelections().AddWithLabel(1, map[string]string{"result": "none"})
		return strand.Address{}, ErrNoEligibleValidators
	}

	s.mu.Lock()
	point := new(big.Int).Rand(s.rnd, totalStake)
	s.mu.Unlock()

	picked := pickByPoint(active, point)
	logger.Debug("producer selected", "addr", picked, "point", point, "total", totalStake)
	metricSelections().AddWithLabel(1, map[string]string{"result": "ok"})
	return picked, nil
}

// pickByPoint walks the wheel accumulating stake and returns the validator
// owning the segment the point falls into. If the walk exhausts the list the
// last entry wins; that is a defined tie-break, not an error path.
func pickByPoint(active []*staker.Validator, point *big.Int) strand.Address {
	cumulative := new(big.Int)
	for _, v := range active {
		cumulative.Add(cumulative, v.Stake)
		if cumulative.Cmp(point) > 0 {
			return v.Address
		}
	}
	return active[len(active)-1].Address
}
