/*

This file contains the rebalancer/harvester: the only code path allowed to
advance the global reward-per-share accumulator. Realized yield is measured
as the vault's reward-token balance delta around each adapter harvest call,
so a lying adapter can misreport but never inflate the distribution. Adapter
failures are isolated per strategy and never abort the enclosing cycle.

*/

package vault

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"

	"github.com/mandatedisrael/zenfi/internal/metrics"
	"github.com/mandatedisrael/zenfi/internal/types"
	"github.com/mandatedisrael/zenfi/internal/utils"
)

const secondsPerYear = 365 * 24 * 60 * 60

// Harvest pulls realized yield from one strategy and distributes it. Owner only.
func (e *Engine) Harvest(caller string, id types.StrategyID) error {
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	slot, err := e.strategyByID(id)
	if err != nil {
		return err
	}

	harvestID := uuid.New().String()
	outcome := e.harvestStrategy(slot, harvestID)
	e.distribute(harvestID, []types.StrategyHarvestOutcome{outcome})
	return nil
}

// HarvestAll iterates every active strategy, isolating per-strategy failures,
// then distributes the combined realized yield in one settlement. Owner only.
func (e *Engine) HarvestAll(caller string) error {
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	harvestID := uuid.New().String()
	outcomes := make([]types.StrategyHarvestOutcome, 0, len(e.strategies))
	for _, slot := range e.strategies {
		if !slot.record.IsActive {
			continue
		}
		outcomes = append(outcomes, e.harvestStrategy(slot, harvestID))
	}
	e.distribute(harvestID, outcomes)
	return nil
}

// harvestStrategy calls one adapter's harvest and measures the realized yield
// as the reward-balance delta around the call. A failed harvest is treated as
// zero yield for this cycle, never as an error of the cycle itself.
func (e *Engine) harvestStrategy(slot *strategySlot, harvestID string) types.StrategyHarvestOutcome {
	outcome := types.StrategyHarvestOutcome{
		StrategyID: slot.record.ID,
		Name:       slot.record.Name,
		GrossYield: sdkmath.ZeroInt(),
	}

	before := e.ledger.BalanceOf(e.rewardDenom, e.addr)
	reported, err := slot.adapter.Harvest(e.addr)
	if err != nil {
		metrics.HarvestFailures.Inc()
		outcome.Message = err.Error()
		e.log.Warn().
			Err(err).
			Str("harvest_id", harvestID).
			Uint64("strategyId", uint64(slot.record.ID)).
			Msg("Strategy harvest failed, treating as zero yield")
		return outcome
	}
	after := e.ledger.BalanceOf(e.rewardDenom, e.addr)

	realized := after.Sub(before)
	if realized.IsNegative() {
		realized = sdkmath.ZeroInt()
	}
	if !realized.Equal(reported) {
		e.log.Debug().
			Str("harvest_id", harvestID).
			Uint64("strategyId", uint64(slot.record.ID)).
			Str("reported", reported.String()).
			Str("realized", realized.String()).
			Msg("Adapter-reported yield differs from measured balance delta")
	}

	slot.record.LastHarvestTime = e.now()
	outcome.Success = true
	outcome.GrossYield = realized
	return outcome
}

// distribute nets performance and management fees out of the cycle's gross
// yield, pays them to the fee recipient, and only then advances the
// accumulator by the distributed remainder. Zero total supply short-circuits
// without division; the funds stay in vault custody for a later cycle.
func (e *Engine) distribute(harvestID string, outcomes []types.StrategyHarvestOutcome) {
	gross := sdkmath.ZeroInt()
	for _, o := range outcomes {
		gross = gross.Add(o.GrossYield)
	}

	accBefore := e.accRewardPerShare
	snapshot := types.HarvestSnapshot{
		HarvestID:      harvestID,
		Timestamp:      e.now(),
		GrossYield:     gross,
		PerformanceFee: sdkmath.ZeroInt(),
		ManagementFee:  sdkmath.ZeroInt(),
		Distributed:    sdkmath.ZeroInt(),
		AccBefore:      accBefore,
		AccAfter:       accBefore,
		TotalShares:    e.totalShares,
		Outcomes:       outcomes,
	}

	if !gross.IsPositive() {
		e.log.Info().Str("harvest_id", harvestID).Msg("Harvest cycle realized no yield")
		e.recordHarvest(snapshot)
		return
	}

	perfFee, _ := utils.ApplyBps(gross, e.fees.PerformanceBps)
	mgmtFee := e.accruedManagementFee()
	// Fees are paid out of realized yield only; the management accrual is
	// capped at whatever the performance fee left behind.
	if perfFee.Add(mgmtFee).GT(gross) {
		mgmtFee = gross.Sub(perfFee)
	}

	totalFee := perfFee.Add(mgmtFee)
	if totalFee.IsPositive() {
		if err := e.ledger.Transfer(e.addr, e.feeRecipient, sdk.Coin{Denom: e.rewardDenom, Amount: totalFee}); err != nil {
			// Leave the accumulator untouched: an unpaid fee must not shrink
			// what depositors can claim against vault custody.
			e.log.Error().Err(err).Str("harvest_id", harvestID).Msg("Fee transfer failed, aborting distribution")
			e.recordHarvest(snapshot)
			return
		}
	}
	e.lastMgmtAccrual = e.now()

	distributed := gross.Sub(totalFee)
	if e.totalShares.IsPositive() && distributed.IsPositive() {
		e.accRewardPerShare = e.accRewardPerShare.Add(
			distributed.Mul(utils.RewardPrecision).Quo(e.totalShares))
	}
	e.lastRewardTime = e.now()

	snapshot.PerformanceFee = perfFee
	snapshot.ManagementFee = mgmtFee
	snapshot.Distributed = distributed
	snapshot.AccAfter = e.accRewardPerShare
	e.recordHarvest(snapshot)

	metrics.HarvestsTotal.Inc()
	metrics.ObserveDistribution(distributed, totalFee)

	e.log.Info().
		Str("harvest_id", harvestID).
		Str("grossYield", gross.String()).
		Str("performanceFee", perfFee.String()).
		Str("managementFee", mgmtFee.String()).
		Str("distributed", distributed.String()).
		Str("accRewardPerShare", e.accRewardPerShare.String()).
		Msg("Harvest distributed")
}

// accruedManagementFee computes the annualized management fee on total assets
// over the wall-clock time since the last settlement.
func (e *Engine) accruedManagementFee() sdkmath.Int {
	if e.fees.ManagementBps == 0 {
		return sdkmath.ZeroInt()
	}
	elapsed := int64(e.now().Sub(e.lastMgmtAccrual).Seconds())
	if elapsed <= 0 {
		return sdkmath.ZeroInt()
	}
	return e.totalAssets().
		Mul(sdkmath.NewInt(int64(e.fees.ManagementBps))).
		Mul(sdkmath.NewInt(elapsed)).
		Quo(sdkmath.NewInt(utils.BpsDenominator)).
		Quo(sdkmath.NewInt(secondsPerYear))
}

// Rebalance moves capital between idle custody and strategies so that each
// active strategy's holding approaches totalAssets * allocation / 10000.
// Adapter failures are skipped; the loop always finishes. Owner only.
func (e *Engine) Rebalance(caller string) error {
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	total := e.totalAssets()
	for _, slot := range e.strategies {
		if !slot.record.IsActive {
			continue
		}
		target, err := utils.ApplyBps(total, slot.record.AllocationBps)
		if err != nil {
			continue
		}
		current := slot.record.TotalDeposited

		switch {
		case current.LT(target):
			gap := target.Sub(current)
			idle := e.ledger.BalanceOf(slot.record.Want, e.addr)
			amount := sdkmath.MinInt(gap, idle)
			if !amount.IsPositive() {
				continue
			}
			if err := e.deployToStrategy(slot, amount); err != nil {
				e.log.Warn().
					Err(err).
					Uint64("strategyId", uint64(slot.record.ID)).
					Str("amount", amount.String()).
					Msg("Rebalance deposit failed, skipping strategy")
				continue
			}
			e.log.Info().
				Uint64("strategyId", uint64(slot.record.ID)).
				Str("deposited", amount.String()).
				Msg("Rebalanced capital into strategy")

		case current.GT(target):
			excess := current.Sub(target)
			returned, err := slot.adapter.Withdraw(e.addr, excess)
			if err != nil {
				e.log.Warn().
					Err(err).
					Uint64("strategyId", uint64(slot.record.ID)).
					Str("amount", excess.String()).
					Msg("Rebalance withdrawal failed, skipping strategy")
				continue
			}
			slot.record.TotalDeposited = slot.record.TotalDeposited.Sub(sdkmath.MinInt(returned, slot.record.TotalDeposited))
			e.log.Info().
				Uint64("strategyId", uint64(slot.record.ID)).
				Str("withdrawn", returned.String()).
				Msg("Rebalanced capital back to idle reserve")
		}
	}

	e.recordOperation(types.OperationReceipt{
		Kind:      types.OpRebalance,
		Caller:    caller,
		Amount0:   sdkmath.ZeroInt(),
		Amount1:   sdkmath.ZeroInt(),
		Shares:    sdkmath.ZeroInt(),
		Success:   true,
		Timestamp: e.now(),
	})
	return nil
}

// EmergencyWithdrawFromStrategy sweeps a strategy and unconditionally zeroes
// the vault-side accounting of its deposits, whether or not the adapter
// cooperates. A stuck or malicious adapter must not be able to pin the
// vault's books; the cost is that the books may diverge from the adapter's
// real custody until reconciled. The strategy is deactivated so the
// rebalancer cannot immediately re-fund it. Owner only.
func (e *Engine) EmergencyWithdrawFromStrategy(caller string, id types.StrategyID) error {
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	slot, err := e.strategyByID(id)
	if err != nil {
		return err
	}

	abandoned := slot.record.TotalDeposited
	if err := slot.adapter.EmergencyWithdraw(e.addr); err != nil {
		e.log.Error().
			Err(err).
			Uint64("strategyId", uint64(id)).
			Str("accountedDeposits", abandoned.String()).
			Msg("Adapter emergency withdraw failed, zeroing accounting anyway")
	}
	slot.record.TotalDeposited = sdkmath.ZeroInt()
	slot.record.IsActive = false

	e.log.Warn().
		Uint64("strategyId", uint64(id)).
		Str("clearedDeposits", abandoned.String()).
		Msg("Emergency withdraw completed, strategy deactivated")

	e.recordOperation(types.OperationReceipt{
		Kind:      types.OpEmergency,
		Caller:    caller,
		Amount0:   abandoned,
		Amount1:   sdkmath.ZeroInt(),
		Shares:    sdkmath.ZeroInt(),
		Success:   true,
		Message:   fmt.Sprintf("strategy %d", id),
		Timestamp: e.now(),
	})
	return nil
}

// recordHarvest hands a snapshot to the journal when one is configured.
func (e *Engine) recordHarvest(snapshot types.HarvestSnapshot) {
	if e.journal != nil {
		e.journal.RecordHarvest(snapshot)
	}
}
