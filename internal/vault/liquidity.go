/*

This file contains the liquidity write path: addLiquidity and removeLiquidity.
Both run under the reentrancy guard, validate everything before touching any
state, settle the caller's reward checkpoint before changing their share
balance, and treat strategy adapters as best-effort collaborators whose
failures must never abort the user's own operation.

*/

package vault

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/mandatedisrael/zenfi/internal/types"
	"github.com/mandatedisrael/zenfi/internal/utils"
)

// AddLiquidity deposits amount0/amount1 into the pair, mints proportional
// shares to the caller, and best-effort deploys an allocation-proportional
// slice of each asset to the matching strategies. The caller must have
// approved the vault for both amounts beforehand.
func (e *Engine) AddLiquidity(caller string, pairID types.PairID, amount0, amount1, minShares sdkmath.Int, deadline time.Time) (sdkmath.Int, error) {
	if err := e.guard.enter(); err != nil {
		return sdkmath.ZeroInt(), err
	}
	defer e.guard.exit()
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller == "" {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: caller", ErrZeroAddress)
	}
	if e.paused {
		return sdkmath.ZeroInt(), ErrPaused
	}
	pair, err := e.pairByID(pairID)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if !pair.IsActive {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %d", ErrPairInactive, pairID)
	}
	if e.now().After(deadline) {
		return sdkmath.ZeroInt(), ErrDeadlineExpired
	}
	if amount0.IsNil() || !amount0.IsPositive() || amount1.IsNil() || !amount1.IsPositive() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: deposit amounts", ErrZeroAmount)
	}
	if minShares.IsNil() {
		minShares = sdkmath.ZeroInt()
	}

	shares, locked, err := e.sharesForDeposit(pair, amount0, amount1)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if !shares.IsPositive() {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: deposit mints zero shares", ErrZeroAmount)
	}
	if shares.LT(minShares) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s < %s shares", ErrSlippage, shares, minShares)
	}

	// Pull both amounts into vault custody. A failed pull aborts with no
	// ledger state changed; the second pull is pre-checked against balance
	// and allowance so the first cannot be left dangling.
	coin0 := sdk.Coin{Denom: pair.Token0, Amount: amount0}
	coin1 := sdk.Coin{Denom: pair.Token1, Amount: amount1}
	if e.ledger.BalanceOf(pair.Token1, caller).LT(amount1) ||
		e.ledger.Allowance(pair.Token1, caller, e.addr).LT(amount1) {
		return sdkmath.ZeroInt(), fmt.Errorf("insufficient balance or allowance for %s", pair.Token1)
	}
	if err := e.ledger.TransferFrom(e.addr, caller, e.addr, coin0); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("pulling %s failed: %w", pair.Token0, err)
	}
	if err := e.ledger.TransferFrom(e.addr, caller, e.addr, coin1); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("pulling %s failed: %w", pair.Token1, err)
	}

	// Settle before the share balance changes; settling afterwards would
	// credit the new shares for yield accrued before they existed.
	pos := e.positionFor(caller)
	_, shortfall, err := e.settleUser(pos)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	minted := shares.Add(locked)
	pair.Reserve0 = pair.Reserve0.Add(amount0)
	pair.Reserve1 = pair.Reserve1.Add(amount1)
	pair.TotalShares = pair.TotalShares.Add(minted)
	e.totalShares = e.totalShares.Add(minted)
	e.creditShares(pos, pairID, shares)
	pos.LastDepositTime = e.now()
	e.checkpointUser(pos, shortfall)

	shareCoin := sdk.Coin{Denom: pair.ShareDenom(), Amount: shares}
	if err := e.ledger.Mint(caller, shareCoin); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("minting shares failed: %w", err)
	}
	if locked.IsPositive() {
		// The locked minimum is attributed to the pair itself, held on the
		// vault's own account and never redeemable.
		if err := e.ledger.Mint(e.addr, sdk.Coin{Denom: pair.ShareDenom(), Amount: locked}); err != nil {
			return sdkmath.ZeroInt(), fmt.Errorf("minting locked shares failed: %w", err)
		}
	}

	// Auto-deploy is best-effort: a failing adapter leaves the tokens idle
	// and must never abort the deposit.
	e.autoDeploy(pair.Token0, amount0)
	e.autoDeploy(pair.Token1, amount1)

	e.log.Info().
		Str("user", caller).
		Uint64("pairId", uint64(pairID)).
		Str("amount0", amount0.String()).
		Str("amount1", amount1.String()).
		Str("shares", shares.String()).
		Str("locked", locked.String()).
		Msg("Liquidity added")

	e.recordOperation(types.OperationReceipt{
		Kind:      types.OpAddLiquidity,
		Caller:    caller,
		PairID:    pairID,
		Amount0:   amount0,
		Amount1:   amount1,
		Shares:    shares,
		Success:   true,
		Timestamp: e.now(),
	})

	return shares, nil
}

// RemoveLiquidity burns shares and returns the proportional amounts of both
// assets, net of the withdrawal fee. Inactive pairs still allow withdrawals;
// deactivation only blocks new deposits.
func (e *Engine) RemoveLiquidity(caller string, pairID types.PairID, shares, minAmount0, minAmount1 sdkmath.Int, deadline time.Time) (sdkmath.Int, sdkmath.Int, error) {
	zero := sdkmath.ZeroInt()
	if err := e.guard.enter(); err != nil {
		return zero, zero, err
	}
	defer e.guard.exit()
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller == "" {
		return zero, zero, fmt.Errorf("%w: caller", ErrZeroAddress)
	}
	pair, err := e.pairByID(pairID)
	if err != nil {
		return zero, zero, err
	}
	if e.now().After(deadline) {
		return zero, zero, ErrDeadlineExpired
	}
	if shares.IsNil() || !shares.IsPositive() {
		return zero, zero, fmt.Errorf("%w: shares", ErrZeroAmount)
	}
	pos, ok := e.positions[caller]
	if !ok || pos.SharesIn(pairID).LT(shares) {
		return zero, zero, fmt.Errorf("%w: pair %d", ErrInsufficientShares, pairID)
	}
	if minAmount0.IsNil() {
		minAmount0 = zero
	}
	if minAmount1.IsNil() {
		minAmount1 = zero
	}

	computed0, computed1 := amountsForShares(pair, shares)

	// The slippage bound is on what the caller receives, after fees. Check it
	// against the full computed amounts before touching strategy custody: a
	// floor the proportional claim can never meet must fail with nothing moved.
	fee0, err := utils.ApplyBps(computed0, e.fees.WithdrawalBps)
	if err != nil {
		return zero, zero, err
	}
	fee1, err := utils.ApplyBps(computed1, e.fees.WithdrawalBps)
	if err != nil {
		return zero, zero, err
	}
	if computed0.Sub(fee0).LT(minAmount0) || computed1.Sub(fee1).LT(minAmount1) {
		return zero, zero, fmt.Errorf("%w: net %s/%s < floor %s/%s",
			ErrSlippage, computed0.Sub(fee0), computed1.Sub(fee1), minAmount0, minAmount1)
	}

	// Withdraw-on-demand: if idle custody cannot cover the payout, pull the
	// shortfall back from strategies holding that asset. A strategy returning
	// less than requested is accepted silently, so the floor is re-checked on
	// the amounts actually raised.
	out0 := e.ensureIdle(pair.Token0, computed0)
	out1 := e.ensureIdle(pair.Token1, computed1)

	fee0, err = utils.ApplyBps(out0, e.fees.WithdrawalBps)
	if err != nil {
		return zero, zero, err
	}
	fee1, err = utils.ApplyBps(out1, e.fees.WithdrawalBps)
	if err != nil {
		return zero, zero, err
	}
	net0 := out0.Sub(fee0)
	net1 := out1.Sub(fee1)

	if net0.LT(minAmount0) || net1.LT(minAmount1) {
		return zero, zero, fmt.Errorf("%w: net %s/%s < floor %s/%s", ErrSlippage, net0, net1, minAmount0, minAmount1)
	}

	_, shortfall, err := e.settleUser(pos)
	if err != nil {
		return zero, zero, err
	}

	if err := e.ledger.Burn(caller, sdk.Coin{Denom: pair.ShareDenom(), Amount: shares}); err != nil {
		return zero, zero, fmt.Errorf("burning shares failed: %w", err)
	}
	if err := e.debitShares(pos, pairID, shares); err != nil {
		return zero, zero, err
	}
	pair.TotalShares = pair.TotalShares.Sub(shares)
	pair.Reserve0 = pair.Reserve0.Sub(computed0)
	pair.Reserve1 = pair.Reserve1.Sub(computed1)
	e.totalShares = e.totalShares.Sub(shares)
	e.checkpointUser(pos, shortfall)

	if err := e.payOut(pair.Token0, caller, net0, fee0); err != nil {
		return zero, zero, err
	}
	if err := e.payOut(pair.Token1, caller, net1, fee1); err != nil {
		return zero, zero, err
	}

	e.log.Info().
		Str("user", caller).
		Uint64("pairId", uint64(pairID)).
		Str("shares", shares.String()).
		Str("net0", net0.String()).
		Str("net1", net1.String()).
		Str("fee0", fee0.String()).
		Str("fee1", fee1.String()).
		Msg("Liquidity removed")

	e.recordOperation(types.OperationReceipt{
		Kind:      types.OpRemoveLiquidity,
		Caller:    caller,
		PairID:    pairID,
		Amount0:   net0,
		Amount1:   net1,
		Shares:    shares,
		Success:   true,
		Timestamp: e.now(),
	})

	return net0, net1, nil
}

// autoDeploy pushes an allocation-proportional slice of a just-received asset
// into each active strategy farming it. Failures are swallowed: the tokens
// simply stay in idle custody.
func (e *Engine) autoDeploy(denom string, amount sdkmath.Int) {
	for _, slot := range e.strategies {
		if !slot.record.IsActive || slot.record.Want != denom {
			continue
		}
		slice, err := utils.ApplyBps(amount, slot.record.AllocationBps)
		if err != nil || !slice.IsPositive() {
			continue
		}
		if err := e.deployToStrategy(slot, slice); err != nil {
			e.log.Warn().
				Err(err).
				Uint64("strategyId", uint64(slot.record.ID)).
				Str("denom", denom).
				Str("amount", slice.String()).
				Msg("Auto-deposit to strategy failed, keeping funds idle")
		}
	}
}

// deployToStrategy grants the adapter an allowance and asks it to pull amount
// of its want asset. On success the vault-side accounting follows.
func (e *Engine) deployToStrategy(slot *strategySlot, amount sdkmath.Int) error {
	want := slot.record.Want
	if err := e.ledger.Approve(e.addr, slot.adapter.Address(), sdk.Coin{Denom: want, Amount: amount}); err != nil {
		return fmt.Errorf("approve failed: %w", err)
	}
	if err := slot.adapter.Deposit(e.addr, amount); err != nil {
		return fmt.Errorf("adapter deposit failed: %w", err)
	}
	slot.record.TotalDeposited = slot.record.TotalDeposited.Add(amount)
	return nil
}

// ensureIdle tries to raise the vault's idle balance of denom to at least
// needed by withdrawing from strategies, and returns min(needed, idle after).
func (e *Engine) ensureIdle(denom string, needed sdkmath.Int) sdkmath.Int {
	idle := e.ledger.BalanceOf(denom, e.addr)
	for _, slot := range e.strategies {
		if idle.GTE(needed) {
			break
		}
		if !slot.record.IsActive || slot.record.Want != denom || !slot.record.TotalDeposited.IsPositive() {
			continue
		}
		request := sdkmath.MinInt(needed.Sub(idle), slot.record.TotalDeposited)
		returned, err := slot.adapter.Withdraw(e.addr, request)
		if err != nil {
			e.log.Warn().
				Err(err).
				Uint64("strategyId", uint64(slot.record.ID)).
				Str("requested", request.String()).
				Msg("Strategy withdrawal failed, continuing")
			continue
		}
		slot.record.TotalDeposited = slot.record.TotalDeposited.Sub(sdkmath.MinInt(returned, slot.record.TotalDeposited))
		idle = e.ledger.BalanceOf(denom, e.addr)
	}
	return sdkmath.MinInt(needed, idle)
}

// payOut sends the net amount to the user and the fee to the fee recipient.
func (e *Engine) payOut(denom, user string, net, fee sdkmath.Int) error {
	if fee.IsPositive() {
		if err := e.ledger.Transfer(e.addr, e.feeRecipient, sdk.Coin{Denom: denom, Amount: fee}); err != nil {
			return fmt.Errorf("fee transfer failed: %w", err)
		}
	}
	if net.IsPositive() {
		if err := e.ledger.Transfer(e.addr, user, sdk.Coin{Denom: denom, Amount: net}); err != nil {
			return fmt.Errorf("payout transfer failed: %w", err)
		}
	}
	return nil
}
