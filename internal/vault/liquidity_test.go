package vault_test

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandatedisrael/zenfi/internal/types"
	"github.com/mandatedisrael/zenfi/internal/vault"
)

func TestDepositWithdrawRoundTrip(t *testing.T) {
	engine, bank, clock := setupEngine(t, types.FeeConfig{})
	pairID, err := engine.AddPair(ownerAddr, denomAtom, denomOsmo, sdkmath.NewInt(1000))
	require.NoError(t, err)
	fund(t, bank, "alice", 1_000_000)

	// ARRANGE: deposit everything
	shares, err := engine.AddLiquidity("alice", pairID, sdkmath.NewInt(1_000_000), sdkmath.NewInt(1_000_000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)

	// ACT: withdraw the full position
	net0, net1, err := engine.RemoveLiquidity("alice", pairID, shares, sdkmath.ZeroInt(), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)

	// ASSERT: received never exceeds deposited; the difference is exactly the
	// locked minimum's proportional claim
	assert.True(t, net0.LTE(sdkmath.NewInt(1_000_000)))
	assert.True(t, net1.LTE(sdkmath.NewInt(1_000_000)))
	assert.Equal(t, sdkmath.NewInt(999_000), net0)
	assert.Equal(t, sdkmath.NewInt(999_000), net1)
	assert.Equal(t, sdkmath.NewInt(999_000), bank.BalanceOf(denomAtom, "alice"))

	// The locked minimum's claim stays in the reserves
	pair, err := engine.PairInfo(pairID)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(1000), pair.Reserve0)
	assert.Equal(t, sdkmath.NewInt(1000), pair.TotalShares)
	assert.True(t, pair.IsEmpty())

	// Alice's share tokens are gone
	assert.True(t, bank.BalanceOf(pair.ShareDenom(), "alice").IsZero())
}

func TestShareSupplyStaysConsistent(t *testing.T) {
	engine, bank, clock := setupEngine(t, types.FeeConfig{})
	pairID, err := engine.AddPair(ownerAddr, denomAtom, denomOsmo, sdkmath.NewInt(1000))
	require.NoError(t, err)
	fund(t, bank, "alice", 1_000_000)
	fund(t, bank, "bob", 1_000_000)

	aliceShares, err := engine.AddLiquidity("alice", pairID, sdkmath.NewInt(400_000), sdkmath.NewInt(400_000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)
	bobShares, err := engine.AddLiquidity("bob", pairID, sdkmath.NewInt(200_000), sdkmath.NewInt(200_000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)

	check := func() {
		pair, err := engine.PairInfo(pairID)
		require.NoError(t, err)

		sumPositions := sdkmath.ZeroInt()
		for _, user := range []string{"alice", "bob"} {
			held, err := engine.UserPairShares(user, pairID)
			require.NoError(t, err)
			sumPositions = sumPositions.Add(held)
		}
		// Pair supply equals positions plus the locked minimum, and the global
		// supply tracks the pair supply
		assert.Equal(t, pair.TotalShares, sumPositions.Add(pair.MinLiquidity))
		assert.Equal(t, engine.TotalShares(), pair.TotalShares)
	}
	check()

	// Partial withdrawals keep the books in lockstep
	_, _, err = engine.RemoveLiquidity("alice", pairID, aliceShares.QuoRaw(2), sdkmath.ZeroInt(), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)
	check()

	_, _, err = engine.RemoveLiquidity("bob", pairID, bobShares, sdkmath.ZeroInt(), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)
	check()
}

func TestDepositSlippageFloor(t *testing.T) {
	engine, bank, clock := setupEngine(t, types.FeeConfig{})
	pairID, err := engine.AddPair(ownerAddr, denomAtom, denomOsmo, sdkmath.NewInt(100))
	require.NoError(t, err)
	fund(t, bank, "alice", 10_000)
	fund(t, bank, "bob", 10_000)

	// Reserves 1000/1000 with 1000 total shares
	_, err = engine.AddLiquidity("alice", pairID, sdkmath.NewInt(1000), sdkmath.NewInt(1000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)

	// A 100/100 deposit mints exactly 100 shares, so a 101 floor fails
	_, err = engine.AddLiquidity("bob", pairID, sdkmath.NewInt(100), sdkmath.NewInt(100), sdkmath.NewInt(101), farDeadline(clock))
	assert.ErrorIs(t, err, vault.ErrSlippage)

	// Nothing was pulled by the failed attempt
	assert.Equal(t, sdkmath.NewInt(10_000), bank.BalanceOf(denomAtom, "bob"))

	// A 100 floor succeeds
	shares, err := engine.AddLiquidity("bob", pairID, sdkmath.NewInt(100), sdkmath.NewInt(100), sdkmath.NewInt(100), farDeadline(clock))
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(100), shares)
}

func TestWithdrawalSlippageFloor(t *testing.T) {
	// 2% withdrawal fee so the net payout sits below the gross claim
	engine, bank, clock := setupEngine(t, types.FeeConfig{WithdrawalBps: 200})
	pairID, err := engine.AddPair(ownerAddr, denomAtom, denomOsmo, sdkmath.NewInt(1000))
	require.NoError(t, err)
	fund(t, bank, "alice", 1_000_000)

	shares, err := engine.AddLiquidity("alice", pairID, sdkmath.NewInt(1_000_000), sdkmath.NewInt(1_000_000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)

	// Gross claim is 999_000 per asset, net of the 2% fee is 979_020. The
	// floor binds on the net amount.
	_, _, err = engine.RemoveLiquidity("alice", pairID, shares, sdkmath.NewInt(979_021), sdkmath.ZeroInt(), farDeadline(clock))
	assert.ErrorIs(t, err, vault.ErrSlippage)

	net0, net1, err := engine.RemoveLiquidity("alice", pairID, shares, sdkmath.NewInt(979_020), sdkmath.NewInt(979_020), farDeadline(clock))
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(979_020), net0)
	assert.Equal(t, sdkmath.NewInt(979_020), net1)

	// The fee landed with the fee recipient, in both assets
	assert.Equal(t, sdkmath.NewInt(19_980), bank.BalanceOf(denomAtom, feeAddr))
	assert.Equal(t, sdkmath.NewInt(19_980), bank.BalanceOf(denomOsmo, feeAddr))
}

func TestSlippageFailedWithdrawalLeavesStrategyFundsDeployed(t *testing.T) {
	// ARRANGE: half the token0 deposit is auto-deployed to a strategy, so a
	// full withdrawal would have to pull capital back on demand
	engine, bank, clock := setupEngine(t, types.FeeConfig{})
	pairID, err := engine.AddPair(ownerAddr, denomAtom, denomOsmo, sdkmath.NewInt(1000))
	require.NoError(t, err)

	stub := newStubAdapter(bank, "strategy-a", denomAtom)
	stratID, err := engine.AddStrategy(ownerAddr, stub, 5000, "stub-atom")
	require.NoError(t, err)

	fund(t, bank, "alice", 1_000_000)
	shares, err := engine.AddLiquidity("alice", pairID, sdkmath.NewInt(100_000), sdkmath.NewInt(100_000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(50_000), stub.TotalValue())

	// ACT: the floor exceeds the 99_000 proportional claim, so the withdrawal
	// must fail before any capital is recalled from the strategy
	_, _, err = engine.RemoveLiquidity("alice", pairID, shares, sdkmath.NewInt(99_001), sdkmath.ZeroInt(), farDeadline(clock))
	assert.ErrorIs(t, err, vault.ErrSlippage)

	// ASSERT: strategy holdings and idle custody are exactly as before
	assert.Equal(t, sdkmath.NewInt(50_000), stub.TotalValue())
	assert.Equal(t, sdkmath.NewInt(50_000), bank.BalanceOf(denomAtom, vaultAddr))
	assert.Equal(t, sdkmath.NewInt(100_000), bank.BalanceOf(denomOsmo, vaultAddr))

	record, err := engine.StrategyInfo(stratID)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(50_000), record.TotalDeposited)

	// The position is intact and a floor at the claim succeeds
	held, err := engine.UserPairShares("alice", pairID)
	require.NoError(t, err)
	assert.Equal(t, shares, held)
	net0, _, err := engine.RemoveLiquidity("alice", pairID, shares, sdkmath.NewInt(99_000), sdkmath.NewInt(99_000), farDeadline(clock))
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(99_000), net0)
}

func TestDeadlineExpired(t *testing.T) {
	engine, bank, clock := setupEngine(t, types.FeeConfig{})
	pairID, err := engine.AddPair(ownerAddr, denomAtom, denomOsmo, sdkmath.NewInt(1000))
	require.NoError(t, err)
	fund(t, bank, "alice", 1_000_000)

	// A deadline one hour in the past rejects both operations
	stale := clock.Now().Add(-time.Hour)
	_, err = engine.AddLiquidity("alice", pairID, sdkmath.NewInt(10_000), sdkmath.NewInt(10_000), sdkmath.ZeroInt(), stale)
	assert.ErrorIs(t, err, vault.ErrDeadlineExpired)

	shares, err := engine.AddLiquidity("alice", pairID, sdkmath.NewInt(10_000), sdkmath.NewInt(10_000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)

	_, _, err = engine.RemoveLiquidity("alice", pairID, shares, sdkmath.ZeroInt(), sdkmath.ZeroInt(), stale)
	assert.ErrorIs(t, err, vault.ErrDeadlineExpired)
}

func TestRemoveMoreThanHeldFails(t *testing.T) {
	engine, bank, clock := setupEngine(t, types.FeeConfig{})
	pairID, err := engine.AddPair(ownerAddr, denomAtom, denomOsmo, sdkmath.NewInt(1000))
	require.NoError(t, err)
	fund(t, bank, "alice", 1_000_000)

	shares, err := engine.AddLiquidity("alice", pairID, sdkmath.NewInt(100_000), sdkmath.NewInt(100_000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)

	_, _, err = engine.RemoveLiquidity("alice", pairID, shares.AddRaw(1), sdkmath.ZeroInt(), sdkmath.ZeroInt(), farDeadline(clock))
	assert.ErrorIs(t, err, vault.ErrInsufficientShares)

	// A user with no position at all gets the same failure
	_, _, err = engine.RemoveLiquidity("bob", pairID, sdkmath.NewInt(1), sdkmath.ZeroInt(), sdkmath.ZeroInt(), farDeadline(clock))
	assert.ErrorIs(t, err, vault.ErrInsufficientShares)
}

func TestPauseBlocksDepositsOnly(t *testing.T) {
	engine, bank, clock := setupEngine(t, types.FeeConfig{})
	pairID, err := engine.AddPair(ownerAddr, denomAtom, denomOsmo, sdkmath.NewInt(1000))
	require.NoError(t, err)
	fund(t, bank, "alice", 1_000_000)

	shares, err := engine.AddLiquidity("alice", pairID, sdkmath.NewInt(500_000), sdkmath.NewInt(500_000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)

	require.NoError(t, engine.Pause(ownerAddr))
	assert.True(t, engine.Paused())

	_, err = engine.AddLiquidity("alice", pairID, sdkmath.NewInt(1000), sdkmath.NewInt(1000), sdkmath.ZeroInt(), farDeadline(clock))
	assert.ErrorIs(t, err, vault.ErrPaused)

	// Withdrawals and claims keep working while paused
	_, _, err = engine.RemoveLiquidity("alice", pairID, shares.QuoRaw(2), sdkmath.ZeroInt(), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)
	_, err = engine.ClaimRewards("alice")
	require.NoError(t, err)

	require.NoError(t, engine.Unpause(ownerAddr))
	_, err = engine.AddLiquidity("alice", pairID, sdkmath.NewInt(1000), sdkmath.NewInt(1000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)
}

func TestAutoDeployAndWithdrawOnDemand(t *testing.T) {
	engine, bank, clock := setupEngine(t, types.FeeConfig{})
	pairID, err := engine.AddPair(ownerAddr, denomAtom, denomOsmo, sdkmath.NewInt(1000))
	require.NoError(t, err)

	// A strategy farming token0 with a 50% allocation
	stub := newStubAdapter(bank, "strategy-a", denomAtom)
	stratID, err := engine.AddStrategy(ownerAddr, stub, 5000, "stub-atom")
	require.NoError(t, err)

	fund(t, bank, "alice", 1_000_000)
	shares, err := engine.AddLiquidity("alice", pairID, sdkmath.NewInt(100_000), sdkmath.NewInt(100_000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)

	// Half the token0 deposit was pushed to the strategy, token1 stayed idle
	assert.Equal(t, sdkmath.NewInt(50_000), stub.TotalValue())
	assert.Equal(t, sdkmath.NewInt(50_000), bank.BalanceOf(denomAtom, vaultAddr))
	assert.Equal(t, sdkmath.NewInt(100_000), bank.BalanceOf(denomOsmo, vaultAddr))

	record, err := engine.StrategyInfo(stratID)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(50_000), record.TotalDeposited)

	// A full withdrawal pulls the shortfall back from the strategy
	net0, net1, err := engine.RemoveLiquidity("alice", pairID, shares, sdkmath.ZeroInt(), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(99_000), net0)
	assert.Equal(t, sdkmath.NewInt(99_000), net1)
	assert.Equal(t, sdkmath.NewInt(999_000), bank.BalanceOf(denomAtom, "alice"))
}

func TestFailedAutoDeployLeavesFundsIdle(t *testing.T) {
	engine, bank, clock := setupEngine(t, types.FeeConfig{})
	pairID, err := engine.AddPair(ownerAddr, denomAtom, denomOsmo, sdkmath.NewInt(1000))
	require.NoError(t, err)

	stub := newStubAdapter(bank, "strategy-a", denomAtom)
	stub.failDeposit = true
	_, err = engine.AddStrategy(ownerAddr, stub, 5000, "stub-atom")
	require.NoError(t, err)

	fund(t, bank, "alice", 1_000_000)

	// The deposit itself succeeds; the failed deployment leaves everything in
	// vault custody
	_, err = engine.AddLiquidity("alice", pairID, sdkmath.NewInt(100_000), sdkmath.NewInt(100_000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)
	assert.True(t, stub.TotalValue().IsZero())
	assert.Equal(t, sdkmath.NewInt(100_000), bank.BalanceOf(denomAtom, vaultAddr))
}
