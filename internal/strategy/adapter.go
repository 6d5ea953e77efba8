/*

This file defines the strategy-adapter capability set consumed by the vault
engine. Each concrete yield source implements Adapter; the engine's registry
only ever holds the interface, never a concrete type.

Mutating calls take the caller's address and must reject anyone but the vault
the adapter was built for. Read-only calls are best-effort estimates and must
not change adapter state.

*/

package strategy

import (
	sdkmath "cosmossdk.io/math"
)

// Adapter wraps an external yield source for one want asset.
type Adapter interface {
	// Address returns the adapter's own custody account on the ledger; the
	// vault approves this account before asking the adapter to pull a deposit.
	Address() string

	// Vault returns the address of the vault this adapter is bound to. The
	// engine checks this against its own address at registration time.
	Vault() string

	// Want returns the denom this strategy farms. Immutable after construction.
	Want() string

	// Deposit moves amount of the want asset from vault custody into strategy
	// custody. The adapter pulls via the ledger allowance granted by the vault.
	Deposit(caller string, amount sdkmath.Int) error

	// Withdraw returns up to amount of the want asset to the vault and reports
	// how much actually came back. May return less than requested.
	Withdraw(caller string, amount sdkmath.Int) (sdkmath.Int, error)

	// Harvest realizes accrued yield, forwards the net amount to the vault in
	// the reward denom, and reports what was forwarded. The vault measures the
	// realized amount itself via balance deltas and treats the return value as
	// advisory.
	Harvest(caller string) (sdkmath.Int, error)

	// TotalValue estimates the want-asset value currently in strategy custody.
	TotalValue() sdkmath.Int

	// PendingRewards estimates yield accrued but not yet harvested.
	PendingRewards() sdkmath.Int

	// EmergencyWithdraw sweeps all held want back toward the vault.
	EmergencyWithdraw(caller string) error
}
