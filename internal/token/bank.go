/*

This file contains the in-memory Ledger implementation used by the simulation
mode and the test suite. Minting is permissionless here; a production
integration would sit this interface on top of a real token module with
restricted mint authority.

*/

package token

import (
	"errors"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrEmptyAccount          = errors.New("account address is empty")
	ErrInvalidAmount         = errors.New("amount is invalid")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Bank is a thread-safe in-memory fungible ledger.
type Bank struct {
	mu sync.Mutex

	// balances[denom][owner]
	balances map[string]map[string]sdkmath.Int
	// allowances[denom][owner][spender]
	allowances map[string]map[string]map[string]sdkmath.Int
}

var _ Ledger = (*Bank)(nil)

// NewBank returns an empty in-memory ledger.
func NewBank() *Bank {
	return &Bank{
		balances:   make(map[string]map[string]sdkmath.Int),
		allowances: make(map[string]map[string]map[string]sdkmath.Int),
	}
}

func validateCoin(amount sdk.Coin) error {
	if amount.Denom == "" {
		return fmt.Errorf("%w: empty denom", ErrInvalidAmount)
	}
	if amount.Amount.IsNil() || amount.Amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount.Amount)
	}
	return nil
}

func (b *Bank) balance(denom, owner string) sdkmath.Int {
	if accounts, ok := b.balances[denom]; ok {
		if bal, ok := accounts[owner]; ok {
			return bal
		}
	}
	return sdkmath.ZeroInt()
}

func (b *Bank) setBalance(denom, owner string, amount sdkmath.Int) {
	accounts, ok := b.balances[denom]
	if !ok {
		accounts = make(map[string]sdkmath.Int)
		b.balances[denom] = accounts
	}
	accounts[owner] = amount
}

func (b *Bank) allowance(denom, owner, spender string) sdkmath.Int {
	if owners, ok := b.allowances[denom]; ok {
		if spenders, ok := owners[owner]; ok {
			if a, ok := spenders[spender]; ok {
				return a
			}
		}
	}
	return sdkmath.ZeroInt()
}

func (b *Bank) setAllowance(denom, owner, spender string, amount sdkmath.Int) {
	owners, ok := b.allowances[denom]
	if !ok {
		owners = make(map[string]map[string]sdkmath.Int)
		b.allowances[denom] = owners
	}
	spenders, ok := owners[owner]
	if !ok {
		spenders = make(map[string]sdkmath.Int)
		owners[owner] = spenders
	}
	spenders[spender] = amount
}

// BalanceOf returns owner's balance of denom.
func (b *Bank) BalanceOf(denom, owner string) sdkmath.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance(denom, owner)
}

// Transfer moves amount from one account to another.
func (b *Bank) Transfer(from, to string, amount sdk.Coin) error {
	if from == "" || to == "" {
		return ErrEmptyAccount
	}
	if err := validateCoin(amount); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bal := b.balance(amount.Denom, from)
	if bal.LT(amount.Amount) {
		return fmt.Errorf("%w: %s has %s%s, needs %s", ErrInsufficientBalance, from, bal, amount.Denom, amount.Amount)
	}
	b.setBalance(amount.Denom, from, bal.Sub(amount.Amount))
	b.setBalance(amount.Denom, to, b.balance(amount.Denom, to).Add(amount.Amount))
	return nil
}

// TransferFrom moves amount out of from's account, consuming spender's allowance.
func (b *Bank) TransferFrom(spender, from, to string, amount sdk.Coin) error {
	if spender == "" || from == "" || to == "" {
		return ErrEmptyAccount
	}
	if err := validateCoin(amount); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	allowed := b.allowance(amount.Denom, from, spender)
	if allowed.LT(amount.Amount) {
		return fmt.Errorf("%w: %s allowed %s%s, needs %s", ErrInsufficientAllowance, spender, allowed, amount.Denom, amount.Amount)
	}
	bal := b.balance(amount.Denom, from)
	if bal.LT(amount.Amount) {
		return fmt.Errorf("%w: %s has %s%s, needs %s", ErrInsufficientBalance, from, bal, amount.Denom, amount.Amount)
	}

	b.setAllowance(amount.Denom, from, spender, allowed.Sub(amount.Amount))
	b.setBalance(amount.Denom, from, bal.Sub(amount.Amount))
	b.setBalance(amount.Denom, to, b.balance(amount.Denom, to).Add(amount.Amount))
	return nil
}

// Approve sets spender's allowance over owner's balance of amount's denom.
func (b *Bank) Approve(owner, spender string, amount sdk.Coin) error {
	if owner == "" || spender == "" {
		return ErrEmptyAccount
	}
	if err := validateCoin(amount); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.setAllowance(amount.Denom, owner, spender, amount.Amount)
	return nil
}

// Allowance returns what spender may currently move out of owner's account.
func (b *Bank) Allowance(denom, owner, spender string) sdkmath.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.allowance(denom, owner, spender)
}

// Mint credits amount to owner.
func (b *Bank) Mint(owner string, amount sdk.Coin) error {
	if owner == "" {
		return ErrEmptyAccount
	}
	if err := validateCoin(amount); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.setBalance(amount.Denom, owner, b.balance(amount.Denom, owner).Add(amount.Amount))
	return nil
}

// Burn debits amount from owner.
func (b *Bank) Burn(owner string, amount sdk.Coin) error {
	if owner == "" {
		return ErrEmptyAccount
	}
	if err := validateCoin(amount); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bal := b.balance(amount.Denom, owner)
	if bal.LT(amount.Amount) {
		return fmt.Errorf("%w: %s has %s%s, burning %s", ErrInsufficientBalance, owner, bal, amount.Denom, amount.Amount)
	}
	b.setBalance(amount.Denom, owner, bal.Sub(amount.Amount))
	return nil
}
