/*

This file contains SimpleYield, a deterministic rate-based Adapter used by the
simulation mode and the test suite. Yield accrues linearly on deposited
principal at a fixed annualized rate and is paid in the reward denom, minted
against the permissionless test ledger on harvest.

*/

package strategy

import (
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/mandatedisrael/zenfi/internal/token"
	"github.com/mandatedisrael/zenfi/internal/utils"
)

// Error definitions for zero-tolerance error handling
var (
	ErrNotVault      = errors.New("caller is not the bound vault")
	ErrZeroAmount    = errors.New("amount must be positive")
	ErrLedgerFailure = errors.New("ledger call failed")
)

const secondsPerYear = 365 * 24 * 60 * 60

// SimpleYieldConfig holds the construction parameters for SimpleYield.
type SimpleYieldConfig struct {
	Ledger      token.Ledger
	VaultAddr   string // the only account allowed to call mutating methods
	SelfAddr    string // this adapter's custody account on the ledger
	WantDenom   string
	RewardDenom string
	RateBps     uint32           // annualized yield rate on principal
	FeeBps      uint32           // adapter-side cut of harvested yield
	FeeAddr     string           // recipient of the adapter-side cut, unused when FeeBps is 0
	Now         func() time.Time // defaults to time.Now
}

// SimpleYield accrues yield on deposited principal at a fixed annualized rate.
type SimpleYield struct {
	ledger      token.Ledger
	vaultAddr   string
	selfAddr    string
	wantDenom   string
	rewardDenom string
	rateBps     uint32
	feeBps      uint32
	feeAddr     string
	now         func() time.Time

	principal   sdkmath.Int
	accrued     sdkmath.Int // realized-but-unforwarded yield carried between accruals
	lastAccrual time.Time
}

var _ Adapter = (*SimpleYield)(nil)

// NewSimpleYield validates the configuration and returns a ready adapter.
func NewSimpleYield(cfg SimpleYieldConfig) (*SimpleYield, error) {
	if cfg.Ledger == nil {
		return nil, errors.New("ledger cannot be nil")
	}
	if cfg.VaultAddr == "" || cfg.SelfAddr == "" {
		return nil, errors.New("vault and self addresses are required")
	}
	if cfg.WantDenom == "" || cfg.RewardDenom == "" {
		return nil, errors.New("want and reward denoms are required")
	}
	if cfg.RateBps > utils.BpsDenominator || cfg.FeeBps > utils.BpsDenominator {
		return nil, utils.ErrBpsOutOfRange
	}
	if cfg.FeeBps > 0 && cfg.FeeAddr == "" {
		return nil, errors.New("fee recipient required when fee is set")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &SimpleYield{
		ledger:      cfg.Ledger,
		vaultAddr:   cfg.VaultAddr,
		selfAddr:    cfg.SelfAddr,
		wantDenom:   cfg.WantDenom,
		rewardDenom: cfg.RewardDenom,
		rateBps:     cfg.RateBps,
		feeBps:      cfg.FeeBps,
		feeAddr:     cfg.FeeAddr,
		now:         cfg.Now,
		principal:   sdkmath.ZeroInt(),
		accrued:     sdkmath.ZeroInt(),
		lastAccrual: cfg.Now(),
	}, nil
}

// Address returns the adapter's custody account.
func (s *SimpleYield) Address() string { return s.selfAddr }

// Vault returns the bound vault address.
func (s *SimpleYield) Vault() string { return s.vaultAddr }

// Want returns the farmed denom.
func (s *SimpleYield) Want() string { return s.wantDenom }

func (s *SimpleYield) requireVault(caller string) error {
	if caller != s.vaultAddr {
		return fmt.Errorf("%w: %s", ErrNotVault, caller)
	}
	return nil
}

// pendingSince computes linear accrual on principal since the last checkpoint.
func (s *SimpleYield) pendingSince(at time.Time) sdkmath.Int {
	elapsed := int64(at.Sub(s.lastAccrual).Seconds())
	if elapsed <= 0 || s.principal.IsZero() || s.rateBps == 0 {
		return sdkmath.ZeroInt()
	}
	return s.principal.
		Mul(sdkmath.NewInt(int64(s.rateBps))).
		Mul(sdkmath.NewInt(elapsed)).
		Quo(sdkmath.NewInt(utils.BpsDenominator)).
		Quo(sdkmath.NewInt(secondsPerYear))
}

// checkpoint folds accrual-to-date into the carried total and advances the clock.
func (s *SimpleYield) checkpoint() {
	now := s.now()
	s.accrued = s.accrued.Add(s.pendingSince(now))
	s.lastAccrual = now
}

// Deposit pulls amount of want from the vault into strategy custody.
func (s *SimpleYield) Deposit(caller string, amount sdkmath.Int) error {
	if err := s.requireVault(caller); err != nil {
		return err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return ErrZeroAmount
	}

	s.checkpoint()
	if err := s.ledger.TransferFrom(s.selfAddr, s.vaultAddr, s.selfAddr, sdk.Coin{Denom: s.wantDenom, Amount: amount}); err != nil {
		return fmt.Errorf("%w: %w", ErrLedgerFailure, err)
	}
	s.principal = s.principal.Add(amount)
	return nil
}

// Withdraw returns up to amount of want to the vault.
func (s *SimpleYield) Withdraw(caller string, amount sdkmath.Int) (sdkmath.Int, error) {
	if err := s.requireVault(caller); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return sdkmath.ZeroInt(), ErrZeroAmount
	}

	s.checkpoint()
	returned := sdkmath.MinInt(amount, s.principal)
	if returned.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	if err := s.ledger.Transfer(s.selfAddr, s.vaultAddr, sdk.Coin{Denom: s.wantDenom, Amount: returned}); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %w", ErrLedgerFailure, err)
	}
	s.principal = s.principal.Sub(returned)
	return returned, nil
}

// Harvest realizes accrued yield and forwards the net amount to the vault.
func (s *SimpleYield) Harvest(caller string) (sdkmath.Int, error) {
	if err := s.requireVault(caller); err != nil {
		return sdkmath.ZeroInt(), err
	}

	s.checkpoint()
	gross := s.accrued
	if gross.IsZero() {
		return sdkmath.ZeroInt(), nil
	}

	// The external yield source pays out here; the test ledger's mint stands
	// in for that payment.
	if err := s.ledger.Mint(s.selfAddr, sdk.Coin{Denom: s.rewardDenom, Amount: gross}); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %w", ErrLedgerFailure, err)
	}

	fee, err := utils.ApplyBps(gross, s.feeBps)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	net := gross.Sub(fee)

	if fee.IsPositive() {
		if err := s.ledger.Transfer(s.selfAddr, s.feeAddr, sdk.Coin{Denom: s.rewardDenom, Amount: fee}); err != nil {
			return sdkmath.ZeroInt(), fmt.Errorf("%w: %w", ErrLedgerFailure, err)
		}
	}
	if net.IsPositive() {
		if err := s.ledger.Transfer(s.selfAddr, s.vaultAddr, sdk.Coin{Denom: s.rewardDenom, Amount: net}); err != nil {
			return sdkmath.ZeroInt(), fmt.Errorf("%w: %w", ErrLedgerFailure, err)
		}
	}

	s.accrued = sdkmath.ZeroInt()
	return net, nil
}

// TotalValue reports the want-asset principal in strategy custody.
func (s *SimpleYield) TotalValue() sdkmath.Int {
	return s.principal
}

// PendingRewards estimates unharvested yield without mutating any state.
func (s *SimpleYield) PendingRewards() sdkmath.Int {
	return s.accrued.Add(s.pendingSince(s.now()))
}

// EmergencyWithdraw sweeps all held want back to the vault.
func (s *SimpleYield) EmergencyWithdraw(caller string) error {
	if err := s.requireVault(caller); err != nil {
		return err
	}
	held := s.ledger.BalanceOf(s.wantDenom, s.selfAddr)
	if held.IsPositive() {
		if err := s.ledger.Transfer(s.selfAddr, s.vaultAddr, sdk.Coin{Denom: s.wantDenom, Amount: held}); err != nil {
			return fmt.Errorf("%w: %w", ErrLedgerFailure, err)
		}
	}
	s.principal = sdkmath.ZeroInt()
	s.accrued = sdkmath.ZeroInt()
	return nil
}
