/*

This file contains the pair registry and the share-issuance math. Pairs live
in an append-only arena addressed by a sequential id starting at 1; ids are
never reused and pairs are deactivated, never deleted.

*/

package vault

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/mandatedisrael/zenfi/internal/types"
	"github.com/mandatedisrael/zenfi/internal/utils"
)

// AddPair registers a new token pair. Owner only. The new pair starts active
// with zero reserves and zero shares.
func (e *Engine) AddPair(caller, token0, token1 string, minLiquidity sdkmath.Int) (types.PairID, error) {
	if err := e.requireOwner(caller); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if token0 == "" || token1 == "" {
		return 0, fmt.Errorf("%w: pair tokens", ErrZeroAddress)
	}
	if token0 == token1 {
		return 0, fmt.Errorf("%w: %s", ErrIdenticalTokens, token0)
	}
	if minLiquidity.IsNil() || !minLiquidity.IsPositive() {
		return 0, ErrZeroMinLiquidity
	}

	id := types.PairID(len(e.pairs) + 1)
	pair := &types.TokenPair{
		ID:           id,
		Token0:       token0,
		Token1:       token1,
		Reserve0:     sdkmath.ZeroInt(),
		Reserve1:     sdkmath.ZeroInt(),
		TotalShares:  sdkmath.ZeroInt(),
		MinLiquidity: minLiquidity,
		IsActive:     true,
		CreatedAt:    e.now(),
	}
	e.pairs = append(e.pairs, pair)

	e.log.Info().
		Uint64("pairId", uint64(id)).
		Str("token0", token0).
		Str("token1", token1).
		Str("minLiquidity", minLiquidity.String()).
		Msg("Pair created")

	return id, nil
}

// SetPairActive flips a pair's active flag. Owner only. Deactivation blocks
// new deposits; withdrawals of existing positions keep working.
func (e *Engine) SetPairActive(caller string, id types.PairID, active bool) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	pair, err := e.pairByID(id)
	if err != nil {
		return err
	}
	pair.IsActive = active
	e.log.Info().Uint64("pairId", uint64(id)).Bool("active", active).Msg("Pair active flag updated")
	return nil
}

// PairInfo returns a copy of the pair record.
func (e *Engine) PairInfo(id types.PairID) (types.TokenPair, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pair, err := e.pairByID(id)
	if err != nil {
		return types.TokenPair{}, err
	}
	return *pair, nil
}

// Pairs returns copies of all pair records in id order.
func (e *Engine) Pairs() []types.TokenPair {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]types.TokenPair, len(e.pairs))
	for i, p := range e.pairs {
		out[i] = *p
	}
	return out
}

// pairByID resolves a pair id to its record.
func (e *Engine) pairByID(id types.PairID) (*types.TokenPair, error) {
	if id == 0 || int(id) > len(e.pairs) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPair, id)
	}
	return e.pairs[id-1], nil
}

// sharesForDeposit computes the shares a deposit mints. For the first deposit
// it returns floor(sqrt(amount0*amount1)) total, of which locked shares are
// permanently attributed to the pair itself; for later deposits it returns
// the minimum of the two reserve ratios so a skewed deposit is never credited
// for its excess asset.
//
// Returns (sharesToCaller, lockedShares).
func (e *Engine) sharesForDeposit(pair *types.TokenPair, amount0, amount1 sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	if pair.TotalShares.IsZero() {
		minted, err := utils.IntSqrt(amount0.Mul(amount1))
		if err != nil {
			return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
		}
		if minted.LTE(pair.MinLiquidity) {
			return sdkmath.ZeroInt(), sdkmath.ZeroInt(),
				fmt.Errorf("%w: sqrt(%s*%s) = %s <= %s", ErrInsufficientInitialLiquidity,
					amount0, amount1, minted, pair.MinLiquidity)
		}
		return minted.Sub(pair.MinLiquidity), pair.MinLiquidity, nil
	}

	byToken0 := amount0.Mul(pair.TotalShares).Quo(pair.Reserve0)
	byToken1 := amount1.Mul(pair.TotalShares).Quo(pair.Reserve1)
	return sdkmath.MinInt(byToken0, byToken1), sdkmath.ZeroInt(), nil
}

// amountsForShares computes the proportional claim of shares on the pair's
// reserves: floor(shares * reserve / totalShares) for each asset.
func amountsForShares(pair *types.TokenPair, shares sdkmath.Int) (sdkmath.Int, sdkmath.Int) {
	amount0 := shares.Mul(pair.Reserve0).Quo(pair.TotalShares)
	amount1 := shares.Mul(pair.Reserve1).Quo(pair.TotalShares)
	return amount0, amount1
}
