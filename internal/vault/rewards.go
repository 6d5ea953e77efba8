/*

This file contains the reward accrual engine. One global accumulator
(accRewardPerShare, scaled by 1e18) tracks cumulative reward per unit of
vault share since genesis. The read-only preview and the mutating settlement
run the same formula over two strictly separated paths: PendingRewards never
writes the accumulator, and only the harvest path in harvest.go ever does.

*/

package vault

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/mandatedisrael/zenfi/internal/types"
	"github.com/mandatedisrael/zenfi/internal/utils"
)

// PendingRewards previews what the user could claim if every active strategy
// were harvested right now. Pure view: it builds a hypothetical accumulator
// from strategy-reported pending yield and never writes engine or adapter
// state, so calling it any number of times is idempotent.
func (e *Engine) PendingRewards(user string) sdkmath.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pos, ok := e.positions[user]
	if !ok || pos.TotalShares.IsZero() {
		return sdkmath.ZeroInt()
	}

	acc := e.accRewardPerShare
	if e.totalShares.IsPositive() {
		reported := sdkmath.ZeroInt()
		for _, slot := range e.strategies {
			if !slot.record.IsActive {
				continue
			}
			reported = reported.Add(slot.adapter.PendingRewards())
		}
		acc = acc.Add(reported.Mul(utils.RewardPrecision).Quo(e.totalShares))
	}

	earned := pos.TotalShares.Mul(acc).Quo(utils.RewardPrecision)
	if earned.LTE(pos.RewardDebt) {
		return sdkmath.ZeroInt()
	}
	return earned.Sub(pos.RewardDebt)
}

// settleUser pays the user's pending reward out of the vault's reward-token
// balance, as far as it reaches. Returns the amount paid and the unpaid
// shortfall; the shortfall stays claimable because checkpointUser folds it
// back into the reward debt.
func (e *Engine) settleUser(pos *types.UserPosition) (paid, shortfall sdkmath.Int, err error) {
	earned := pos.TotalShares.Mul(e.accRewardPerShare).Quo(utils.RewardPrecision)
	if earned.LTE(pos.RewardDebt) {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), nil
	}
	pending := earned.Sub(pos.RewardDebt)

	available := e.ledger.BalanceOf(e.rewardDenom, e.addr)
	paid = sdkmath.MinInt(pending, available)
	if paid.IsPositive() {
		if err := e.ledger.Transfer(e.addr, pos.Owner, sdk.Coin{Denom: e.rewardDenom, Amount: paid}); err != nil {
			return sdkmath.ZeroInt(), sdkmath.ZeroInt(), fmt.Errorf("reward payout failed: %w", err)
		}
	}
	return paid, pending.Sub(paid), nil
}

// checkpointUser re-anchors the user's reward debt against the current
// accumulator and share balance, minus any unpaid shortfall so that amount
// remains claimable later. Called after every settlement once the share
// balance has reached its new value.
func (e *Engine) checkpointUser(pos *types.UserPosition, shortfall sdkmath.Int) {
	debt := pos.TotalShares.Mul(e.accRewardPerShare).Quo(utils.RewardPrecision).Sub(shortfall)
	if debt.IsNegative() {
		debt = sdkmath.ZeroInt()
	}
	pos.RewardDebt = debt
}

// ClaimRewards pays out the caller's settled pending reward. When the vault's
// reward balance cannot cover the full amount, the caller receives what is
// available and keeps the remainder claimable; the checkpoint advances only
// by the amount actually paid.
func (e *Engine) ClaimRewards(caller string) (sdkmath.Int, error) {
	if err := e.guard.enter(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer e.guard.exit()
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller == "" {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: caller", ErrZeroAddress)
	}
	pos, ok := e.positions[caller]
	if !ok {
		return sdkmath.ZeroInt(), nil
	}

	paid, shortfall, err := e.settleUser(pos)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	e.checkpointUser(pos, shortfall)

	e.log.Info().
		Str("user", caller).
		Str("paid", paid.String()).
		Str("shortfall", shortfall.String()).
		Msg("Rewards claimed")

	e.recordOperation(types.OperationReceipt{
		Kind:      types.OpClaimRewards,
		Caller:    caller,
		Amount0:   paid,
		Amount1:   sdkmath.ZeroInt(),
		Shares:    pos.TotalShares,
		Success:   true,
		Timestamp: e.now(),
	})

	return paid, nil
}
