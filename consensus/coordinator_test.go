// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package consensus

import (
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/mclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandchain/strand/pos"
	"github.com/strandchain/strand/ratelimit"
	"github.com/strandchain/strand/staker"
	"github.com/strandchain/strand/strand"
)

func addr(b byte) strand.Address {
	return strand.BytesToAddress([]byte{b})
}

func newTestCoordinator(t *testing.T) (*Coordinator, *mclock.Simulated) {
	clock := &mclock.Simulated{}
	limiter, err := ratelimit.NewWithClock(ratelimit.DefaultConfig(), clock)
	require.NoError(t, err)

	registry := staker.NewRegistry(big.NewInt(10))
	selector := pos.NewSelectorWithSource(registry, rand.NewSource(1))
	return New(registry, selector, limiter), clock
}

func TestSelectNextProducer(t *testing.T) {
	c, _ := newTestCoordinator(t)

	_, err := c.SelectNextProducer()
	assert.ErrorIs(t, err, pos.ErrNoEligibleValidators)

	ok, err := c.AddOrUpdateValidator(addr(1), big.NewInt(70))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = c.AddOrUpdateValidator(addr(2), big.NewInt(30))
	require.NoError(t, err)
	require.True(t, ok)

	for range 100 {
		picked, err := c.SelectNextProducer()
		require.NoError(t, err)
		assert.True(t, picked == addr(1) || picked == addr(2))
	}
}

func TestAdmitBlock(t *testing.T) {
	c, clock := newTestCoordinator(t)

	_, err := c.AddOrUpdateValidator(addr(1), big.NewInt(70))
	require.NoError(t, err)

	assert.False(t, c.AdmitBlock(addr(9), 100), "unknown producer")
	assert.True(t, c.AdmitBlock(addr(1), 100))
	assert.False(t, c.AdmitBlock(addr(1), 100), "within min interval")

	clock.Run(c.Limits().MinBlockInterval)
	assert.True(t, c.AdmitBlock(addr(1), 100))
}

func TestAdmitBlockIneligibleProducerKeepsGate(t *testing.T) {
	c, _ := newTestCoordinator(t)

	_, err := c.AddOrUpdateValidator(addr(1), big.NewInt(70))
	require.NoError(t, err)

	// a non-validator attempt must not consume the block gate
	assert.False(t, c.AdmitBlock(addr(9), 100))
	assert.True(t, c.AdmitBlock(addr(1), 100))
}

func TestAdmitTransactionNonValidator(t *testing.T) {
	c, _ := newTestCoordinator(t)

	// any address may transact
	assert.True(t, c.AdmitTransaction(addr(9), 100))
}

func TestOnBlockProduced(t *testing.T) {
	c, _ := newTestCoordinator(t)

	_, err := c.AddOrUpdateValidator(addr(1), big.NewInt(70))
	require.NoError(t, err)

	c.OnBlockProduced(addr(1), big.NewInt(5))
	c.OnBlockProduced(addr(9), big.NewInt(5)) // unknown, silent no-op

	assert.Equal(t, big.NewInt(70), c.StakeOf(addr(1)))
}

func TestStakeLifecycle(t *testing.T) {
	c, _ := newTestCoordinator(t)

	ok, err := c.AddOrUpdateValidator(addr(1), big.NewInt(5))
	assert.False(t, ok)
	assert.ErrorIs(t, err, staker.ErrInsufficientStake)

	ok, err = c.AddOrUpdateValidator(addr(1), big.NewInt(50))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, c.IsActiveValidator(addr(1)))

	assert.True(t, c.RemoveValidator(addr(1)))
	assert.False(t, c.IsActiveValidator(addr(1)))
	assert.Equal(t, 0, c.StakeOf(addr(1)).Sign())
}

func TestPeerPassthrough(t *testing.T) {
	c, _ := newTestCoordinator(t)

	ip := "10.0.0.1"
	for range c.Limits().MaxConnectionsPerIP {
		assert.True(t, c.CanAcceptPeer(ip))
	}
	assert.False(t, c.CanAcceptPeer(ip))
	c.ReleasePeer(ip)
	assert.True(t, c.CanAcceptPeer(ip))
}

func TestSetChangeWaiter(t *testing.T) {
	c, _ := newTestCoordinator(t)

	w := c.SetChangeWaiter()
	done := make(chan struct{})
	go func() {
		<-w.C()
		close(done)
	}()

	_, err := c.AddOrUpdateValidator(addr(1), big.NewInt(50))
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by set change")
	}
}
