/*

This file contains the administrative surface: fee configuration, the fee
recipient, and the pause switch. Pausing blocks addLiquidity only; everything
else, withdrawals included, keeps working.

*/

package vault

import (
	"fmt"

	"github.com/mandatedisrael/zenfi/internal/types"
)

// SetFees replaces the fee schedule. Owner only. Any single fee above its
// ceiling fails the whole call and leaves the schedule unchanged.
func (e *Engine) SetFees(caller string, fees types.FeeConfig) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if !fees.Validate() {
		return fmt.Errorf("%w: perf=%d/%d withdrawal=%d/%d mgmt=%d/%d",
			ErrFeeTooHigh,
			fees.PerformanceBps, types.MaxPerformanceFeeBps,
			fees.WithdrawalBps, types.MaxWithdrawalFeeBps,
			fees.ManagementBps, types.MaxManagementFeeBps)
	}

	e.mu.Lock()
	old := e.fees
	e.fees = fees
	e.mu.Unlock()
	e.log.Info().
		Uint32("oldPerformanceBps", old.PerformanceBps).
		Uint32("performanceBps", fees.PerformanceBps).
		Uint32("withdrawalBps", fees.WithdrawalBps).
		Uint32("managementBps", fees.ManagementBps).
		Msg("Fee schedule updated")
	return nil
}

// SetFeeRecipient changes where fees are sent. Owner only, nonzero address.
func (e *Engine) SetFeeRecipient(caller, recipient string) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if recipient == "" {
		return fmt.Errorf("%w: fee recipient", ErrZeroAddress)
	}
	e.mu.Lock()
	e.feeRecipient = recipient
	e.mu.Unlock()
	e.log.Info().Str("feeRecipient", recipient).Msg("Fee recipient updated")
	return nil
}

// Pause blocks new deposits. Owner only.
func (e *Engine) Pause(caller string) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
	e.log.Warn().Msg("Vault paused, new deposits blocked")
	return nil
}

// Unpause re-enables deposits. Owner only.
func (e *Engine) Unpause(caller string) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	e.paused = false
	e.mu.Unlock()
	e.log.Info().Msg("Vault unpaused")
	return nil
}
