/*

This file contains the vault Engine: the singleton accounting core that owns
every pair, strategy and position record, holds transient custody of
underlying and reward tokens, and carries the global reward-per-share
accumulator. All state-mutating entry points live in the sibling files of
this package and run under the engine's reentrancy guard.

*/

package vault

import (
	"errors"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/mandatedisrael/zenfi/internal/logger"
	"github.com/mandatedisrael/zenfi/internal/strategy"
	"github.com/mandatedisrael/zenfi/internal/token"
	"github.com/mandatedisrael/zenfi/internal/types"
)

// Error definitions, grouped by failure kind so callers can classify with
// errors.Is.
var (
	// Validation
	ErrZeroAddress        = errors.New("address is empty")
	ErrIdenticalTokens    = errors.New("token0 and token1 are identical")
	ErrZeroAmount         = errors.New("amount must be positive")
	ErrZeroMinLiquidity   = errors.New("minimum liquidity must be positive")
	ErrUnknownPair        = errors.New("pair does not exist")
	ErrUnknownStrategy    = errors.New("strategy does not exist")
	ErrPairInactive       = errors.New("pair is not active")
	ErrDeadlineExpired    = errors.New("deadline has passed")
	ErrPaused             = errors.New("vault is paused")
	ErrAllocationExceeded = errors.New("aggregate allocation exceeds 10000 bps")
	ErrFeeTooHigh         = errors.New("fee exceeds its ceiling")
	ErrAdapterMismatch    = errors.New("adapter is bound to a different vault")
	ErrAdapterNoWant      = errors.New("adapter reports no want asset")

	// Authorization
	ErrNotOwner = errors.New("caller is not the vault owner")

	// Insufficient resource
	ErrInsufficientShares           = errors.New("share balance below requested amount")
	ErrInsufficientInitialLiquidity = errors.New("initial deposit below minimum liquidity")

	// Slippage
	ErrSlippage = errors.New("output below caller-specified floor")

	// Reentrancy
	ErrReentrantCall = errors.New("reentrant call rejected")
)

// Journal receives committed ledger events for best-effort persistence.
// Implementations must never fail the caller; they log their own errors.
type Journal interface {
	RecordHarvest(snapshot types.HarvestSnapshot)
	RecordOperation(receipt types.OperationReceipt)
}

// strategySlot pairs a registry record with the adapter handle it was
// registered with. Slots are append-only; ids are never reused.
type strategySlot struct {
	record  *types.Strategy
	adapter strategy.Adapter
}

// Engine is the vault accounting core.
type Engine struct {
	log zerolog.Logger

	addr         string // the vault's own custody account on the ledger
	owner        string
	feeRecipient string
	rewardDenom  string

	ledger  token.Ledger
	journal Journal // nil disables journaling
	now     func() time.Time

	guard reentrancyGuard

	// mu serializes the web server's read views against the scheduler's
	// harvest and rebalance mutations. Mutators take the guard first, then
	// the write lock, so an adapter calling back into a mutator fails at
	// the guard instead of deadlocking on mu. Adapters are invoked with mu
	// held and must not call engine read views.
	mu sync.RWMutex

	paused bool
	fees   types.FeeConfig

	pairs      []*types.TokenPair
	strategies []*strategySlot
	positions  map[string]*types.UserPosition

	// Global share supply across all pairs, locked minimum included.
	totalShares sdkmath.Int

	// accRewardPerShare is the cumulative reward per share since genesis,
	// scaled by 1e18. Non-decreasing; mutated only by the harvest path.
	accRewardPerShare sdkmath.Int
	lastRewardTime    time.Time

	// Checkpoint for time-based management fee accrual.
	lastMgmtAccrual time.Time
}

// Config holds the dependencies for creating an Engine.
type Config struct {
	Ledger       token.Ledger
	Journal      Journal // optional
	VaultAddr    string
	Owner        string
	FeeRecipient string
	RewardDenom  string
	Fees         types.FeeConfig
	Now          func() time.Time // optional, defaults to time.Now
}

// NewEngine validates the configuration and returns a ready engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := validateEngineConfig(cfg); err != nil {
		return nil, fmt.Errorf("engine configuration validation failed: %w", err)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	now := cfg.Now()
	e := &Engine{
		log:               logger.GetForComponent("vault_engine"),
		addr:              cfg.VaultAddr,
		owner:             cfg.Owner,
		feeRecipient:      cfg.FeeRecipient,
		rewardDenom:       cfg.RewardDenom,
		ledger:            cfg.Ledger,
		journal:           cfg.Journal,
		now:               cfg.Now,
		fees:              cfg.Fees,
		positions:         make(map[string]*types.UserPosition),
		totalShares:       sdkmath.ZeroInt(),
		accRewardPerShare: sdkmath.ZeroInt(),
		lastRewardTime:    now,
		lastMgmtAccrual:   now,
	}

	e.log.Info().
		Str("vaultAddr", e.addr).
		Str("owner", e.owner).
		Str("rewardDenom", e.rewardDenom).
		Uint32("performanceFeeBps", e.fees.PerformanceBps).
		Uint32("withdrawalFeeBps", e.fees.WithdrawalBps).
		Uint32("managementFeeBps", e.fees.ManagementBps).
		Msg("Vault engine initialized")

	return e, nil
}

// validateEngineConfig validates the engine configuration.
func validateEngineConfig(cfg Config) error {
	if cfg.Ledger == nil {
		return errors.New("ledger cannot be nil")
	}
	if cfg.VaultAddr == "" {
		return fmt.Errorf("%w: vault address", ErrZeroAddress)
	}
	if cfg.Owner == "" {
		return fmt.Errorf("%w: owner", ErrZeroAddress)
	}
	if cfg.FeeRecipient == "" {
		return fmt.Errorf("%w: fee recipient", ErrZeroAddress)
	}
	if cfg.RewardDenom == "" {
		return errors.New("reward denom cannot be empty")
	}
	if !cfg.Fees.Validate() {
		return ErrFeeTooHigh
	}
	return nil
}

// requireOwner rejects privileged calls from anyone but the owner.
func (e *Engine) requireOwner(caller string) error {
	if caller != e.owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, caller)
	}
	return nil
}

// Address returns the vault's custody account.
func (e *Engine) Address() string { return e.addr }

// RewardDenom returns the denom rewards are paid in.
func (e *Engine) RewardDenom() string { return e.rewardDenom }

// Fees returns the current fee schedule.
func (e *Engine) Fees() types.FeeConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fees
}

// Paused reports whether new deposits are blocked.
func (e *Engine) Paused() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.paused
}

// TotalShares returns the global share supply across all pairs.
func (e *Engine) TotalShares() sdkmath.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totalShares
}

// AccRewardPerShare returns the stored accumulator (scaled by 1e18).
func (e *Engine) AccRewardPerShare() sdkmath.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.accRewardPerShare
}

// TotalAssets returns the vault-wide total using the additive placeholder
// valuation: the plain sum of both reserves of every pair, deployed capital
// included. Replacing this with oracle-based valuation is a known follow-up
// that every allocation target would inherit.
func (e *Engine) TotalAssets() sdkmath.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totalAssets()
}

// totalAssets is TotalAssets without the lock, for callers already holding mu.
func (e *Engine) totalAssets() sdkmath.Int {
	total := sdkmath.ZeroInt()
	for _, pair := range e.pairs {
		total = total.Add(pair.Reserve0).Add(pair.Reserve1)
	}
	return total
}

// recordOperation hands a receipt to the journal when one is configured.
func (e *Engine) recordOperation(receipt types.OperationReceipt) {
	if e.journal != nil {
		e.journal.RecordOperation(receipt)
	}
}
