package vault_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandatedisrael/zenfi/internal/types"
	"github.com/mandatedisrael/zenfi/internal/utils"
	"github.com/mandatedisrael/zenfi/internal/vault"
)

func TestHarvestDistributesNetOfPerformanceFee(t *testing.T) {
	// 10% performance fee
	engine, stub, env := setupRewardScenario(t, types.FeeConfig{PerformanceBps: 1000})
	stub.nextYield = sdkmath.NewInt(10_000)

	accBefore := engine.AccRewardPerShare()
	require.NoError(t, engine.HarvestAll(ownerAddr))

	// 1000 to the fee recipient, 9000 distributed
	assert.Equal(t, sdkmath.NewInt(1000), env.bank.BalanceOf(rewardDenom, feeAddr))
	assert.Equal(t, sdkmath.NewInt(9_000), env.bank.BalanceOf(rewardDenom, vaultAddr))

	// The accumulator advanced by exactly distributed * 1e18 / totalShares
	expectedDelta := sdkmath.NewInt(9_000).Mul(utils.RewardPrecision).Quo(engine.TotalShares())
	assert.Equal(t, accBefore.Add(expectedDelta), engine.AccRewardPerShare())
}

func TestAccumulatorNeverDecreases(t *testing.T) {
	engine, stub, _ := setupRewardScenario(t, types.FeeConfig{PerformanceBps: 1000})

	last := engine.AccRewardPerShare()
	yields := []int64{10_000, 0, 3, 50_000, 0}
	for _, y := range yields {
		stub.nextYield = sdkmath.NewInt(y)
		require.NoError(t, engine.HarvestAll(ownerAddr))

		acc := engine.AccRewardPerShare()
		assert.True(t, acc.GTE(last), "accumulator decreased: %s -> %s", last, acc)
		last = acc
	}
}

func TestHarvestWithZeroSupplyLeavesAccumulatorAlone(t *testing.T) {
	engine, bank, _ := setupEngine(t, types.FeeConfig{})
	stub := newStubAdapter(bank, "strategy-a", denomAtom)
	_, err := engine.AddStrategy(ownerAddr, stub, 0, "stub-atom")
	require.NoError(t, err)

	// Yield arrives before anyone has deposited
	stub.nextYield = sdkmath.NewInt(10_000)
	require.NoError(t, engine.HarvestAll(ownerAddr))

	// No division against a zero supply; the funds wait in custody for a
	// later cycle
	assert.True(t, engine.AccRewardPerShare().IsZero())
	assert.Equal(t, sdkmath.NewInt(10_000), bank.BalanceOf(rewardDenom, vaultAddr))
}

func TestHarvestAllIsolatesAdapterFailures(t *testing.T) {
	engine, stub, env := setupRewardScenario(t, types.FeeConfig{})

	broken := newStubAdapter(env.bank, "strategy-b", denomOsmo)
	broken.failHarvest = true
	_, err := engine.AddStrategy(ownerAddr, broken, 0, "stub-broken")
	require.NoError(t, err)

	stub.nextYield = sdkmath.NewInt(10_000)

	// ACT: the cycle completes despite the broken adapter
	require.NoError(t, engine.HarvestAll(ownerAddr))

	// ASSERT: the healthy strategy's yield was distributed in full
	assert.Equal(t, sdkmath.NewInt(9990), engine.PendingRewards("alice"))
}

func TestSingleStrategyHarvest(t *testing.T) {
	engine, stub, _ := setupRewardScenario(t, types.FeeConfig{})
	stub.nextYield = sdkmath.NewInt(5_000)

	require.NoError(t, engine.Harvest(ownerAddr, types.StrategyID(1)))
	assert.Equal(t, sdkmath.NewInt(4995), engine.PendingRewards("alice"))

	assert.ErrorIs(t, engine.Harvest(ownerAddr, types.StrategyID(99)), vault.ErrUnknownStrategy)
	assert.ErrorIs(t, engine.Harvest("mallory", types.StrategyID(1)), vault.ErrNotOwner)
}

func TestManagementFeeAccruesOverTime(t *testing.T) {
	// 5% annualized management fee, no performance fee
	engine, stub, env := setupRewardScenario(t, types.FeeConfig{ManagementBps: 500})

	// One exact year on 2_000_000 total assets accrues a 100_000 fee; stage
	// more yield than that so the fee is not capped
	env.clock.Advance(oneYear)
	stub.nextYield = sdkmath.NewInt(150_000)
	require.NoError(t, engine.HarvestAll(ownerAddr))

	assert.Equal(t, sdkmath.NewInt(100_000), env.bank.BalanceOf(rewardDenom, feeAddr))
	assert.Equal(t, sdkmath.NewInt(50_000), env.bank.BalanceOf(rewardDenom, vaultAddr))
}

func TestManagementFeeCappedByRealizedYield(t *testing.T) {
	engine, stub, env := setupRewardScenario(t, types.FeeConfig{ManagementBps: 500})

	// The accrued fee (100_000) exceeds the cycle's yield; the fee is capped
	// at the yield and depositors get nothing this cycle, but never less than
	// nothing
	env.clock.Advance(oneYear)
	stub.nextYield = sdkmath.NewInt(40_000)
	require.NoError(t, engine.HarvestAll(ownerAddr))

	assert.Equal(t, sdkmath.NewInt(40_000), env.bank.BalanceOf(rewardDenom, feeAddr))
	assert.True(t, engine.AccRewardPerShare().IsZero())
	assert.True(t, engine.PendingRewards("alice").IsZero())
}

func TestRebalanceMovesTowardTargets(t *testing.T) {
	engine, bank, clock := setupEngine(t, types.FeeConfig{})
	pairID, err := engine.AddPair(ownerAddr, denomAtom, denomOsmo, sdkmath.NewInt(1000))
	require.NoError(t, err)

	fund(t, bank, "alice", 1_000_000)
	_, err = engine.AddLiquidity("alice", pairID, sdkmath.NewInt(100_000), sdkmath.NewInt(100_000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)

	// Registered after the deposit, so nothing was auto-deployed
	stub := newStubAdapter(bank, "strategy-a", denomAtom)
	stratID, err := engine.AddStrategy(ownerAddr, stub, 2500, "stub-atom")
	require.NoError(t, err)

	// ACT: rebalance toward 25% of total assets (200_000) = 50_000
	require.NoError(t, engine.Rebalance(ownerAddr))
	assert.Equal(t, sdkmath.NewInt(50_000), stub.TotalValue())

	// Lowering the allocation pulls the excess back on the next pass
	require.NoError(t, engine.UpdateAllocation(ownerAddr, stratID, 1000))
	require.NoError(t, engine.Rebalance(ownerAddr))
	assert.Equal(t, sdkmath.NewInt(20_000), stub.TotalValue())
	assert.Equal(t, sdkmath.NewInt(80_000), bank.BalanceOf(denomAtom, vaultAddr))
}

func TestRebalanceSkipsFailingAdapters(t *testing.T) {
	engine, bank, clock := setupEngine(t, types.FeeConfig{})
	pairID, err := engine.AddPair(ownerAddr, denomAtom, denomOsmo, sdkmath.NewInt(1000))
	require.NoError(t, err)
	fund(t, bank, "alice", 1_000_000)
	_, err = engine.AddLiquidity("alice", pairID, sdkmath.NewInt(100_000), sdkmath.NewInt(100_000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)

	broken := newStubAdapter(bank, "strategy-a", denomAtom)
	broken.failDeposit = true
	_, err = engine.AddStrategy(ownerAddr, broken, 2500, "stub-broken")
	require.NoError(t, err)
	healthy := newStubAdapter(bank, "strategy-b", denomAtom)
	_, err = engine.AddStrategy(ownerAddr, healthy, 2500, "stub-healthy")
	require.NoError(t, err)

	require.NoError(t, engine.Rebalance(ownerAddr))

	assert.True(t, broken.TotalValue().IsZero())
	assert.Equal(t, sdkmath.NewInt(50_000), healthy.TotalValue())
}

func TestEmergencyWithdrawZerosAccountingAndDeactivates(t *testing.T) {
	engine, bank, clock := setupEngine(t, types.FeeConfig{})
	pairID, err := engine.AddPair(ownerAddr, denomAtom, denomOsmo, sdkmath.NewInt(1000))
	require.NoError(t, err)

	stub := newStubAdapter(bank, "strategy-a", denomAtom)
	stub.failEmergency = true
	stratID, err := engine.AddStrategy(ownerAddr, stub, 5000, "stub-atom")
	require.NoError(t, err)

	fund(t, bank, "alice", 1_000_000)
	_, err = engine.AddLiquidity("alice", pairID, sdkmath.NewInt(100_000), sdkmath.NewInt(100_000), sdkmath.ZeroInt(), farDeadline(clock))
	require.NoError(t, err)
	require.True(t, stub.TotalValue().IsPositive())

	// ACT: sweep a strategy whose adapter refuses to cooperate
	require.NoError(t, engine.EmergencyWithdrawFromStrategy(ownerAddr, stratID))

	// ASSERT: the books are zeroed and the strategy is out of rotation even
	// though the adapter failed
	record, err := engine.StrategyInfo(stratID)
	require.NoError(t, err)
	assert.True(t, record.TotalDeposited.IsZero())
	assert.False(t, record.IsActive)

	// The rebalancer will not re-fund it
	require.NoError(t, engine.Rebalance(ownerAddr))
	record, err = engine.StrategyInfo(stratID)
	require.NoError(t, err)
	assert.True(t, record.TotalDeposited.IsZero())
}
