// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandchain/strand/staker"
	"github.com/strandchain/strand/strand"
)

func addr(b byte) strand.Address {
	return strand.BytesToAddress([]byte{b})
}

func newRegistry(t *testing.T, stakes map[byte]int64) *staker.Registry {
	r := staker.NewRegistry(big.NewInt(10))
	// fixed insertion order for deterministic tie-breaks
	for b := byte(1); int(b) <= len(stakes); b++ {
		_, err := r.AddOrUpdate(addr(b), big.NewInt(stakes[b]))
		require.NoError(t, err)
	}
	return r
}

func TestPickEmptySet(t *testing.T) {
	r := staker.NewRegistry(big.NewInt(10))
	s := NewSelector(r)

	_, err := s.Pick()
	assert.ErrorIs(t, err, ErrNoEligibleValidators)
}

type stubReader []*staker.Validator

func (s stubReader) ActiveValidatorsByStake() []*staker.Validator { return s }

func TestPickZeroTotalStake(t *testing.T) {
	reader := stubReader{
		{Address: addr(1), Stake: big.NewInt(0)},
		{Address: addr(2), Stake: big.NewInt(0)},
	}
	s := NewSelector(reader)

	_, err := s.Pick()
	assert.ErrorIs(t, err, ErrNoEligibleValidators)
}

func TestPickAlwaysReturnsMember(t *testing.T) {
	r := newRegistry(t, map[byte]int64{1: 70, 2: 30, 3: 15})
	s := NewSelectorWithSource(r, rand.NewSource(1))

	members := map[strand.Address]bool{addr(1): true, addr(2): true, addr(3): true}
	for range 1000 {
		picked, err := s.Pick()
		require.NoError(t, err)
		assert.True(t, members[picked])
	}
}

func TestPickByPoint(t *testing.T) {
	// registry with A(70), B(30): cumulative A=70 <75, B=100 >75
	r := newRegistry(t, map[byte]int64{1: 70, 2: 30})
	active := r.ActiveValidatorsByStake()
	require.Len(t, active, 2)

	assert.Equal(t, addr(2), pickByPoint(active, big.NewInt(75)))
	assert.Equal(t, addr(1), pickByPoint(active, big.NewInt(0)))
	assert.Equal(t, addr(1), pickByPoint(active, big.NewInt(69)))
	assert.Equal(t, addr(2), pickByPoint(active, big.NewInt(99)))

	// a point beyond the wheel falls through to the defined tie-break
	assert.Equal(t, addr(2), pickByPoint(active, big.NewInt(100)))
}

func TestPickDeterministicForFixedSeed(t *testing.T) {
	r := newRegistry(t, map[byte]int64{1: 70, 2: 30, 3: 15})

	s1 := NewSelectorWithSource(r, rand.NewSource(42))
	s2 := NewSelectorWithSource(r, rand.NewSource(42))

	for range 100 {
		p1, err := s1.Pick()
		require.NoError(t, err)
		p2, err := s2.Pick()
		require.NoError(t, err)
		assert.Equal(t, p1, p2)
	}
}

func TestPickStakeProportional(t *testing.T) {
	r := newRegistry(t, map[byte]int64{1: 70, 2: 30})
	s := NewSelectorWithSource(r, rand.NewSource(7))

	const n = 20000
	counts := make(map[strand.Address]int)
	for range n {
		picked, err := s.Pick()
		require.NoError(t, err)
		counts[picked]++
	}

	// expected frequencies 0.7/0.3; 3 sigma over 20000 draws is ~1%
	freqA := float64(counts[addr(1)]) / n
	assert.InDelta(t, 0.7, freqA, 0.02)
	assert.InDelta(t, 0.3, float64(counts[addr(2)])/n, 0.02)
}

func TestPickSkipsJailedAndInactive(t *testing.T) {
	r := newRegistry(t, map[byte]int64{1: 70, 2: 30})
	require.True(t, r.Jail(addr(1)))

	s := NewSelectorWithSource(r, rand.NewSource(1))
	for range 100 {
		picked, err := s.Pick()
		require.NoError(t, err)
		assert.Equal(t, addr(2), picked)
	}
}

func TestSeededSource(t *testing.T) {
	seed := []byte("parent block id")

	s1 := rand.New(SeededSource(seed, 5))
	s2 := rand.New(SeededSource(seed, 5))
	assert.Equal(t, s1.Int63(), s2.Int63(), "same seed and round agree")

	s3 := rand.New(SeededSource(seed, 6))
	assert.NotEqual(t, s1.Int63(), s3.Int63(), "round changes the stream")

	s4 := rand.New(SeededSource([]byte("other parent"), 5))
	assert.NotEqual(t, s2.Int63(), s4.Int63(), "seed changes the stream")
}
