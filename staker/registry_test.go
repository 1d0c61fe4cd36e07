// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandchain/strand/strand"
)

var minStake = big.NewInt(10)

func addr(b byte) strand.Address {
	return strand.BytesToAddress([]byte{b})
}

func TestAddOrUpdate(t *testing.T) {
	r := NewRegistry(minStake)

	ok, err := r.AddOrUpdate(addr(1), big.NewInt(70))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, r.IsActiveValidator(addr(1)))
	assert.Equal(t, big.NewInt(70), r.StakeOf(addr(1)))

	// update semantics, not duplicate insertion
	ok, err = r.AddOrUpdate(addr(1), big.NewInt(80))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, big.NewInt(80), r.StakeOf(addr(1)))
}

func TestAddOrUpdateInsufficientStake(t *testing.T) {
	r := NewRegistry(minStake)

	ok, err := r.AddOrUpdate(addr(1), big.NewInt(9))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInsufficientStake)
	assert.Equal(t, 0, r.Len(), "rejection leaves the registry unchanged")

	// rejection is idempotent
	ok, err = r.AddOrUpdate(addr(1), big.NewInt(9))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInsufficientStake)
	assert.Equal(t, 0, r.Len())
}

func TestAddOrUpdateNegativeStake(t *testing.T) {
	r := NewRegistry(minStake)

	ok, err := r.AddOrUpdate(addr(1), big.NewInt(-1))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNegativeStake)

	ok, err = r.AddOrUpdate(addr(1), nil)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNegativeStake)
}

func TestRemove(t *testing.T) {
	r := NewRegistry(minStake)

	_, err := r.AddOrUpdate(addr(1), big.NewInt(50))
	require.NoError(t, err)

	assert.True(t, r.Remove(addr(1)))
	assert.False(t, r.Remove(addr(1)), "second removal finds nothing")
	assert.False(t, r.IsActiveValidator(addr(1)))

	// a removed address can be re-added as a fresh entry
	ok, err := r.AddOrUpdate(addr(1), big.NewInt(30))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, r.IsActiveValidator(addr(1)))
}

func TestStakeOfUnknown(t *testing.T) {
	r := NewRegistry(minStake)
	assert.Equal(t, 0, r.StakeOf(addr(9)).Sign())
}

func TestRecordBlock(t *testing.T) {
	r := NewRegistry(minStake)

	_, err := r.AddOrUpdate(addr(1), big.NewInt(50))
	require.NoError(t, err)

	before := time.Now()
	r.RecordBlock(addr(1), big.NewInt(5))
	r.RecordBlock(addr(1), big.NewInt(7))

	v := r.Get(addr(1))
	require.NotNil(t, v)
	assert.Equal(t, uint64(2), v.TotalBlocks)
	assert.Equal(t, big.NewInt(12), v.RewardsEarned)
	assert.False(t, v.LastBlockTime.Before(before))

	// unknown address is a silent no-op, tolerating the race with removal
	r.RecordBlock(addr(9), big.NewInt(5))
}

func TestActiveValidatorsByStake(t *testing.T) {
	r := NewRegistry(minStake)

	_, err := r.AddOrUpdate(addr(2), big.NewInt(30))
	require.NoError(t, err)
	_, err = r.AddOrUpdate(addr(1), big.NewInt(70))
	require.NoError(t, err)
	_, err = r.AddOrUpdate(addr(3), big.NewInt(30))
	require.NoError(t, err)

	active := r.ActiveValidatorsByStake()
	require.Len(t, active, 3)
	assert.Equal(t, addr(1), active[0].Address)
	// insertion order breaks the 30/30 tie
	assert.Equal(t, addr(2), active[1].Address)
	assert.Equal(t, addr(3), active[2].Address)
}

func TestActiveValidatorsByStakeExcludesIneligible(t *testing.T) {
	r := NewRegistry(minStake)

	_, err := r.AddOrUpdate(addr(1), big.NewInt(70))
	require.NoError(t, err)
	_, err = r.AddOrUpdate(addr(2), big.NewInt(30))
	require.NoError(t, err)

	require.True(t, r.Jail(addr(1)))

	active := r.ActiveValidatorsByStake()
	require.Len(t, active, 1)
	assert.Equal(t, addr(2), active[0].Address)
}

func TestSnapshotIsDetached(t *testing.T) {
	r := NewRegistry(minStake)

	_, err := r.AddOrUpdate(addr(1), big.NewInt(70))
	require.NoError(t, err)

	active := r.ActiveValidatorsByStake()
	active[0].Stake.SetInt64(1)

	assert.Equal(t, big.NewInt(70), r.StakeOf(addr(1)), "mutating a snapshot must not leak into the registry")
}

func TestJailAndRehabilitate(t *testing.T) {
	r := NewRegistry(minStake)

	_, err := r.AddOrUpdate(addr(1), big.NewInt(50))
	require.NoError(t, err)

	assert.True(t, r.Jail(addr(1)))
	assert.False(t, r.IsActiveValidator(addr(1)))

	// recompute must not silently unjail
	status, ok := r.RecomputeStatus(addr(1))
	require.True(t, ok)
	assert.Equal(t, StatusJailed, status)

	assert.True(t, r.Rehabilitate(addr(1)))
	assert.True(t, r.IsActiveValidator(addr(1)))

	assert.False(t, r.Rehabilitate(addr(1)), "not jailed")
	assert.False(t, r.Jail(addr(9)), "unknown")
}

func TestRecomputeStatusMinimumBoundary(t *testing.T) {
	r := NewRegistry(minStake)

	_, err := r.AddOrUpdate(addr(1), big.NewInt(50))
	require.NoError(t, err)

	// simulate an external unstake dropping below the minimum
	r.mu.Lock()
	r.validators[addr(1)].Stake = big.NewInt(5)
	r.mu.Unlock()

	status, ok := r.RecomputeStatus(addr(1))
	require.True(t, ok)
	assert.Equal(t, StatusInactive, status)
	assert.False(t, r.IsActiveValidator(addr(1)))

	// restake promotes back to active
	ok2, err := r.AddOrUpdate(addr(1), big.NewInt(20))
	require.NoError(t, err)
	assert.True(t, ok2)
	status, _ = r.RecomputeStatus(addr(1))
	assert.Equal(t, StatusActive, status)
}

func TestSetChangeEvents(t *testing.T) {
	r := NewRegistry(minStake)
	defer r.Close()

	ch := make(chan *Event, 10)
	sub := r.SubscribeSetChange(ch)
	defer sub.Unsubscribe()

	_, err := r.AddOrUpdate(addr(1), big.NewInt(50))
	require.NoError(t, err)
	r.Jail(addr(1))
	r.Remove(addr(1))

	seen := make(map[EventType]bool)
	for range 3 {
		select {
		case ev := <-ch:
			seen[ev.Type] = true
		case <-time.After(time.Second):
			t.Fatal("missing event")
		}
	}
	assert.True(t, seen[EventAdded])
	assert.True(t, seen[EventStatusChanged])
	assert.True(t, seen[EventRemoved])
}

func TestConcurrentUpdates(t *testing.T) {
	r := NewRegistry(minStake)

	_, err := r.AddOrUpdate(addr(1), big.NewInt(100))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.RecordBlock(addr(1), big.NewInt(1))
			}
		}()
	}
	wg.Wait()

	v := r.Get(addr(1))
	require.NotNil(t, v)
	assert.Equal(t, uint64(800), v.TotalBlocks)
	assert.Equal(t, big.NewInt(800), v.RewardsEarned)
}
