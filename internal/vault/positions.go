/*

This file contains the position ledger: per-depositor share balances, kept in
lockstep with each pair's share supply and the global total. Positions are
created lazily on first deposit and never deleted.

*/

package vault

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/mandatedisrael/zenfi/internal/types"
)

// positionFor returns the depositor's position, creating an empty one on
// first touch.
func (e *Engine) positionFor(owner string) *types.UserPosition {
	if pos, ok := e.positions[owner]; ok {
		return pos
	}
	pos := types.NewUserPosition(owner)
	e.positions[owner] = pos
	return pos
}

// UserPairShares returns the depositor's share balance in one pair.
func (e *Engine) UserPairShares(owner string, pairID types.PairID) (sdkmath.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if _, err := e.pairByID(pairID); err != nil {
		return sdkmath.ZeroInt(), err
	}
	pos, ok := e.positions[owner]
	if !ok {
		return sdkmath.ZeroInt(), nil
	}
	return pos.SharesIn(pairID), nil
}

// UserPosition returns a copy of the depositor's full position, or an empty
// one if the depositor never deposited.
func (e *Engine) UserPosition(owner string) types.UserPosition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pos, ok := e.positions[owner]
	if !ok {
		return *types.NewUserPosition(owner)
	}
	copied := *pos
	copied.PairShares = make(map[types.PairID]sdkmath.Int, len(pos.PairShares))
	for id, s := range pos.PairShares {
		copied.PairShares[id] = s
	}
	return copied
}

// creditShares adds shares to a depositor's balance for one pair, keeping the
// per-pair map and the aggregate total in lockstep.
func (e *Engine) creditShares(pos *types.UserPosition, pairID types.PairID, shares sdkmath.Int) {
	pos.PairShares[pairID] = pos.SharesIn(pairID).Add(shares)
	pos.TotalShares = pos.TotalShares.Add(shares)
}

// debitShares removes shares from a depositor's balance for one pair. The
// caller has already verified the balance is sufficient.
func (e *Engine) debitShares(pos *types.UserPosition, pairID types.PairID, shares sdkmath.Int) error {
	held := pos.SharesIn(pairID)
	if held.LT(shares) {
		return fmt.Errorf("%w: holds %s, debiting %s", ErrInsufficientShares, held, shares)
	}
	pos.PairShares[pairID] = held.Sub(shares)
	pos.TotalShares = pos.TotalShares.Sub(shares)
	return nil
}
