/*

This file defines the fungible-ledger collaborator contract consumed by the
vault engine. The vault never assumes a transfer succeeded: every mutating
call returns an error and a failed call aborts the enclosing operation.

*/

package token

import (
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Ledger is a mintable/burnable multi-denom balance ledger with transfer and
// allowance semantics. The vault uses it both for the underlying asset denoms
// and for its own per-pair share denoms and the reward denom.
type Ledger interface {
	// BalanceOf returns owner's balance of denom. Unknown accounts hold zero.
	BalanceOf(denom, owner string) sdkmath.Int

	// Transfer moves amount from the caller's account to another.
	Transfer(from, to string, amount sdk.Coin) error

	// TransferFrom moves amount out of from's account on behalf of spender,
	// consuming spender's allowance.
	TransferFrom(spender, from, to string, amount sdk.Coin) error

	// Approve sets spender's allowance over owner's balance of amount's denom.
	Approve(owner, spender string, amount sdk.Coin) error

	// Allowance returns what spender may currently move out of owner's account.
	Allowance(denom, owner, spender string) sdkmath.Int

	// Mint credits amount to owner.
	Mint(owner string, amount sdk.Coin) error

	// Burn debits amount from owner.
	Burn(owner string, amount sdk.Coin) error
}
